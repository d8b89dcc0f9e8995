package cookie

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// chromiumEpochOffset is the number of seconds between 1601-01-01 and
// the Unix epoch
const chromiumEpochOffset = 11644473600

type chromiumRow struct {
	Host           string `db:"host_key"`
	Name           string `db:"name"`
	Value          string `db:"value"`
	EncryptedValue []byte `db:"encrypted_value"`
	Path           string `db:"path"`
	ExpiresUTC     int64  `db:"expires_utc"`
	Secure         bool   `db:"is_secure"`
	HTTPOnly       bool   `db:"is_httponly"`
}

type firefoxRow struct {
	Host     string `db:"host"`
	Name     string `db:"name"`
	Value    string `db:"value"`
	Path     string `db:"path"`
	Expiry   int64  `db:"expiry"`
	Secure   bool   `db:"isSecure"`
	HTTPOnly bool   `db:"isHttpOnly"`
}

// StoreReader reads cookies straight from a browser's SQLite cookie
// store. The database is copied first because a running browser keeps
// it locked.
type StoreReader struct {
	// Home is the user's home directory; empty uses os.UserHomeDir
	Home string
	// GOOS selects profile locations and key derivation; empty uses runtime.GOOS
	GOOS string
	// Secrets supplies Chromium cookie passwords
	Secrets SecretSource
	// Now is used to drop expired cookies
	Now func() time.Time
}

// NewStoreReader returns a reader for the current user and platform
func NewStoreReader() *StoreReader {
	return &StoreReader{Secrets: KeyringSecrets{}}
}

// ReadCookies implements BrowserReader
func (r *StoreReader) ReadCookies(ctx context.Context, browser Browser, domain string) ([]*http.Cookie, error) {
	goos := r.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	home := r.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		home = h
	}

	dataDir, ok := browser.DataDir(home, goos)
	if !ok {
		return nil, fmt.Errorf("%s cookies are not supported on %s", browser.Name, goos)
	}

	switch browser.Family {
	case FamilyFirefox:
		return r.readFirefox(ctx, dataDir, domain)
	case FamilyChromium:
		return r.readChromium(ctx, browser, dataDir, goos, domain)
	default:
		return nil, fmt.Errorf("unknown browser family %q", browser.Family)
	}
}

func (r *StoreReader) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *StoreReader) readChromium(ctx context.Context, browser Browser, dataDir, goos, domain string) ([]*http.Cookie, error) {
	dbPath := newestFile(
		filepath.Join(dataDir, "Default", "Network", "Cookies"),
		filepath.Join(dataDir, "Default", "Cookies"),
	)
	if dbPath == "" {
		return nil, fmt.Errorf("no cookie database under %s", dataDir)
	}

	db, cleanup, err := openCopy(dbPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var metaVersion int
	var version string
	if err := db.GetContext(ctx, &version, `SELECT value FROM meta WHERE key = 'version'`); err == nil {
		metaVersion, _ = strconv.Atoi(version)
	}

	var secret []byte
	if r.Secrets != nil {
		secret, err = r.Secrets.Secret(browser)
		if err != nil && goos != "linux" {
			return nil, err
		}
	}
	dec := newChromiumDecrypter(goos, secret, metaVersion)

	var rows []chromiumRow
	err = db.SelectContext(ctx, &rows, `SELECT host_key, name, value, encrypted_value, path, expires_utc, is_secure, is_httponly
		FROM cookies WHERE host_key LIKE ?`, "%"+trimDot(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}

	now := r.now()
	var cookies []*http.Cookie
	for _, row := range rows {
		if !MatchesDomain(row.Host, domain) {
			continue
		}
		var expires time.Time
		if row.ExpiresUTC > 0 {
			expires = time.Unix(row.ExpiresUTC/1_000_000-chromiumEpochOffset, 0)
			if expires.Before(now) {
				continue
			}
		}

		value := row.Value
		if value == "" && len(row.EncryptedValue) > 0 {
			value, err = dec.decrypt(row.EncryptedValue)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt cookie %s: %w", row.Name, err)
			}
		}
		cookies = append(cookies, &http.Cookie{
			Name:     row.Name,
			Value:    value,
			Domain:   row.Host,
			Path:     row.Path,
			Expires:  expires,
			Secure:   row.Secure,
			HttpOnly: row.HTTPOnly,
		})
	}
	return cookies, nil
}

func (r *StoreReader) readFirefox(ctx context.Context, dataDir, domain string) ([]*http.Cookie, error) {
	matches, _ := filepath.Glob(filepath.Join(dataDir, "*", "cookies.sqlite"))
	dbPath := newestFile(matches...)
	if dbPath == "" {
		return nil, fmt.Errorf("no cookie database under %s", dataDir)
	}

	db, cleanup, err := openCopy(dbPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var rows []firefoxRow
	err = db.SelectContext(ctx, &rows, `SELECT host, name, value, path, expiry, isSecure, isHttpOnly
		FROM moz_cookies WHERE host LIKE ?`, "%"+trimDot(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}

	now := r.now()
	var cookies []*http.Cookie
	for _, row := range rows {
		if !MatchesDomain(row.Host, domain) {
			continue
		}
		var expires time.Time
		if row.Expiry > 0 {
			// newer profiles store milliseconds
			if row.Expiry > 1e11 {
				expires = time.UnixMilli(row.Expiry)
			} else {
				expires = time.Unix(row.Expiry, 0)
			}
			if expires.Before(now) {
				continue
			}
		}
		cookies = append(cookies, &http.Cookie{
			Name:     row.Name,
			Value:    row.Value,
			Domain:   row.Host,
			Path:     row.Path,
			Expires:  expires,
			Secure:   row.Secure,
			HttpOnly: row.HTTPOnly,
		})
	}
	return cookies, nil
}

// openCopy copies a SQLite database to a temporary file and opens it
func openCopy(path string) (*sqlx.DB, func(), error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cookie database: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "xhsdl-cookies-*.sqlite")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temporary copy: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		cleanup()
		return nil, nil, fmt.Errorf("failed to copy cookie database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, nil, err
	}

	db, err := sqlx.Open("sqlite", tmp.Name())
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open cookie database: %w", err)
	}
	return db, func() {
		db.Close()
		cleanup()
	}, nil
}

// newestFile returns the most recently modified existing path
func newestFile(paths ...string) string {
	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			found = append(found, candidate{p, info.ModTime()})
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod.After(found[j].mod) })
	return found[0].path
}

func trimDot(domain string) string {
	if len(domain) > 0 && domain[0] == '.' {
		return domain[1:]
	}
	return domain
}
