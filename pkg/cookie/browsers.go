package cookie

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsupportedBrowser is returned for names and ordinals outside Browsers
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Family groups browsers sharing a cookie database format
type Family string

const (
	FamilyChromium Family = "chromium"
	FamilyFirefox  Family = "firefox"
)

// Browser describes where a browser keeps its cookies
type Browser struct {
	Name   string
	Family Family
	// SafeStorage is the keychain entry holding the cookie key (Chromium family)
	SafeStorage string
	// dirs maps GOOS to the user data directory relative to home
	dirs map[string]string
}

// Browsers is the fixed, ordered list read_cookie ordinals index into
var Browsers = []Browser{
	{Name: "chrome", Family: FamilyChromium, SafeStorage: "Chrome", dirs: map[string]string{
		"linux":  ".config/google-chrome",
		"darwin": "Library/Application Support/Google/Chrome",
	}},
	{Name: "chromium", Family: FamilyChromium, SafeStorage: "Chromium", dirs: map[string]string{
		"linux":  ".config/chromium",
		"darwin": "Library/Application Support/Chromium",
	}},
	{Name: "edge", Family: FamilyChromium, SafeStorage: "Microsoft Edge", dirs: map[string]string{
		"linux":  ".config/microsoft-edge",
		"darwin": "Library/Application Support/Microsoft Edge",
	}},
	{Name: "brave", Family: FamilyChromium, SafeStorage: "Brave", dirs: map[string]string{
		"linux":  ".config/BraveSoftware/Brave-Browser",
		"darwin": "Library/Application Support/BraveSoftware/Brave-Browser",
	}},
	{Name: "vivaldi", Family: FamilyChromium, SafeStorage: "Vivaldi", dirs: map[string]string{
		"linux":  ".config/vivaldi",
		"darwin": "Library/Application Support/Vivaldi",
	}},
	{Name: "opera", Family: FamilyChromium, SafeStorage: "Opera", dirs: map[string]string{
		"linux":  ".config/opera",
		"darwin": "Library/Application Support/com.operasoftware.Opera",
	}},
	{Name: "firefox", Family: FamilyFirefox, dirs: map[string]string{
		"linux":   ".mozilla/firefox",
		"darwin":  "Library/Application Support/Firefox/Profiles",
		"windows": "AppData/Roaming/Mozilla/Firefox/Profiles",
	}},
	{Name: "librewolf", Family: FamilyFirefox, dirs: map[string]string{
		"linux":   ".librewolf",
		"darwin":  "Library/Application Support/librewolf/Profiles",
		"windows": "AppData/Roaming/librewolf/Profiles",
	}},
}

// DataDir returns the browser's user data directory for goos
func (b Browser) DataDir(home, goos string) (string, bool) {
	rel, ok := b.dirs[goos]
	if !ok {
		return "", false
	}
	return filepath.Join(home, filepath.FromSlash(rel)), true
}

func (b Browser) String() string {
	return b.Name
}

// BrowserNames lists the supported browsers in ordinal order
func BrowserNames() []string {
	names := make([]string, len(Browsers))
	for i, b := range Browsers {
		names[i] = b.Name
	}
	return names
}

// ParseBrowserSpec resolves a browser name (case-insensitive) or a 1-based
// ordinal into Browsers
func ParseBrowserSpec(spec string) (Browser, error) {
	spec = strings.TrimSpace(spec)
	if n, err := strconv.Atoi(spec); err == nil {
		if n < 1 || n > len(Browsers) {
			return Browser{}, fmt.Errorf("%w: ordinal %d not in 1..%d", ErrUnsupportedBrowser, n, len(Browsers))
		}
		return Browsers[n-1], nil
	}
	for _, b := range Browsers {
		if strings.EqualFold(b.Name, spec) {
			return b, nil
		}
	}
	return Browser{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedBrowser, spec, strings.Join(BrowserNames(), ", "))
}
