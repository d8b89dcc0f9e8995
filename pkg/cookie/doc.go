// Package cookie resolves the session cookie sent with platform requests.
//
// A cookie is either given literally or read from an installed browser's
// cookie store. Browsers are selected by name or by their 1-based position
// in Browsers. Chromium-family stores are decrypted with a key derived
// from the "Safe Storage" keychain secret; Firefox-family stores are
// plaintext.
//
// Basic usage:
//
//	p := cookie.NewProvider(cookie.NewStoreReader(), ".xiaohongshu.com", log)
//	header, err := p.Resolve(ctx, cfg.Cookie, string(cfg.ReadCookie))
//	if errors.Is(err, cookie.ErrUnsupportedBrowser) {
//		// configuration error
//	}
package cookie
