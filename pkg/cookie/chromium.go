package cookie

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	chromiumSalt    = "saltysalt"
	chromiumKeySize = 16
	// linuxFallbackSecret is used by Chromium when no keyring is available
	linuxFallbackSecret = "peanuts"
	// hostDigestVersion is the first cookie DB version that prefixes
	// plaintext values with a SHA-256 of the host
	hostDigestVersion = 24
	hostDigestSize    = 32
)

var chromiumIV = bytes.Repeat([]byte{' '}, aes.BlockSize)

var errBadPadding = errors.New("invalid padding")

// iterationsFor returns the PBKDF2 iteration count Chromium uses on goos
func iterationsFor(goos string) int {
	if goos == "darwin" {
		return 1003
	}
	return 1
}

// deriveKey derives the AES-128 key Chromium encrypts cookies with
func deriveKey(secret []byte, iterations int) []byte {
	return pbkdf2.Key(secret, []byte(chromiumSalt), iterations, chromiumKeySize, sha1.New)
}

// chromiumDecrypter holds the candidate keys for one browser profile
type chromiumDecrypter struct {
	// v10 and v11 keys; on Linux v10 always uses the fallback secret
	v10, v11    []byte
	metaVersion int
}

func newChromiumDecrypter(goos string, secret []byte, metaVersion int) *chromiumDecrypter {
	iter := iterationsFor(goos)
	d := &chromiumDecrypter{metaVersion: metaVersion}
	if goos == "linux" {
		d.v10 = deriveKey([]byte(linuxFallbackSecret), iter)
		d.v11 = deriveKey(secret, iter)
		return d
	}
	if len(secret) > 0 {
		d.v10 = deriveKey(secret, iter)
		d.v11 = d.v10
	}
	return d
}

// decrypt returns the plaintext of an encrypted_value column
func (d *chromiumDecrypter) decrypt(encrypted []byte) (string, error) {
	if len(encrypted) < 3 {
		return "", fmt.Errorf("encrypted value too short")
	}

	var key []byte
	switch string(encrypted[:3]) {
	case "v10":
		key = d.v10
	case "v11":
		key = d.v11
	default:
		return "", fmt.Errorf("unsupported encryption prefix %q", encrypted[:3])
	}
	if key == nil {
		return "", fmt.Errorf("no key for %s values", encrypted[:3])
	}

	plain, err := decryptCBC(key, encrypted[3:])
	if err != nil {
		return "", err
	}
	if d.metaVersion >= hostDigestVersion {
		if len(plain) < hostDigestSize {
			return "", fmt.Errorf("decrypted value shorter than host digest")
		}
		plain = plain[hostDigestSize:]
	}
	return string(plain), nil
}

func decryptCBC(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, chromiumIV).CryptBlocks(plain, ciphertext)
	return unpad(plain)
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errBadPadding
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errBadPadding
		}
	}
	return b[:len(b)-n], nil
}
