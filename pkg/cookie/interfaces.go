package cookie

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"net/http"
)

// BrowserReader reads the cookies a browser holds for a domain
type BrowserReader interface {
	ReadCookies(ctx context.Context, browser Browser, domain string) ([]*http.Cookie, error)
}

// SecretSource supplies the password Chromium browsers derive their
// cookie encryption key from
type SecretSource interface {
	Secret(browser Browser) ([]byte, error)
}
