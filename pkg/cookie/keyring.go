package cookie

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringSecrets reads the "<Browser> Safe Storage" entry from the system
// keychain
type KeyringSecrets struct{}

// Secret returns the browser's cookie password. A missing entry yields
// an empty secret so Linux callers can fall back to the built-in one.
func (KeyringSecrets) Secret(browser Browser) ([]byte, error) {
	if browser.SafeStorage == "" {
		return nil, nil
	}
	secret, err := keyring.Get(browser.SafeStorage+" Safe Storage", browser.SafeStorage)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keychain: %w", err)
	}
	return []byte(secret), nil
}
