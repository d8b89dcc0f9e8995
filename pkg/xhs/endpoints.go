package xhs

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	errs "xhsdl/pkg/errors"
)

const (
	// BaseURL is the web front end
	BaseURL = "https://www.xiaohongshu.com"

	// ImageCDN serves images in the format they were uploaded as
	ImageCDN = "https://sns-img-bd.xhscdn.com"

	// ImageConvertCDN converts images on the fly
	ImageConvertCDN = "https://ci.xiaohongshu.com"

	// VideoCDN serves original video files by key
	VideoCDN = "https://sns-video-bd.xhscdn.com"

	// CookieDomain is the domain browser cookies are read for
	CookieDomain = ".xiaohongshu.com"
)

var (
	linkTail = "[^\\s\"<>\\\\^`{|}，。；！？、【】《》]+"

	exploreLink   = regexp.MustCompile(`(?:https?://)?www\.xiaohongshu\.com/explore/` + linkTail)
	discoveryLink = regexp.MustCompile(`(?:https?://)?www\.xiaohongshu\.com/discovery/item/` + linkTail)
	profileLink   = regexp.MustCompile(`(?:https?://)?www\.xiaohongshu\.com/user/profile/[a-zA-Z0-9]+/` + linkTail)
	shortLink     = regexp.MustCompile(`(?:https?://)?xhslink\.com/` + linkTail)

	anyLink = regexp.MustCompile(strings.Join([]string{
		exploreLink.String(), discoveryLink.String(), profileLink.String(), shortLink.String(),
	}, "|"))

	postPath = regexp.MustCompile(`^/(?:explore|discovery/item|user/profile/[a-zA-Z0-9]+)/([a-zA-Z0-9]+)/?$`)
)

// Link is a recognised post link
type Link struct {
	// URL is normalised to https and keeps its query string
	URL string
	// ID is empty for short links until they are resolved
	ID    string
	Short bool
}

// ExtractLinks returns every recognised link in text, in order
func ExtractLinks(text string) []string {
	var links []string
	for _, m := range anyLink.FindAllString(text, -1) {
		links = append(links, withScheme(m))
	}
	return links
}

// ParseLink validates a single post link
func ParseLink(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{}, errs.New(errs.ErrorTypeInvalidURL, "empty url")
	}
	u, err := url.Parse(withScheme(raw))
	if err != nil {
		return Link{}, errs.Wrap(errs.ErrorTypeInvalidURL, err, raw)
	}

	switch strings.ToLower(u.Host) {
	case "xhslink.com":
		if strings.Trim(u.Path, "/") == "" {
			return Link{}, errs.New(errs.ErrorTypeInvalidURL, "short link without code: %s", raw)
		}
		return Link{URL: u.String(), Short: true}, nil
	case "www.xiaohongshu.com", "xiaohongshu.com":
		m := postPath.FindStringSubmatch(u.Path)
		if m == nil {
			return Link{}, errs.New(errs.ErrorTypeInvalidURL, "not a post link: %s", raw)
		}
		u.Scheme = "https"
		u.Host = "www.xiaohongshu.com"
		return Link{URL: u.String(), ID: m[1]}, nil
	default:
		return Link{}, errs.New(errs.ErrorTypeInvalidURL, "unsupported host %q", u.Host)
	}
}

func withScheme(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return "https://" + s
}

// ImageToken derives the CDN token from an image's default URL: the path
// after the timestamp and signature segments, without the "!" style suffix.
func ImageToken(urlDefault string) string {
	parts := strings.Split(urlDefault, "/")
	if len(parts) <= 5 {
		return ""
	}
	token := strings.Join(parts[5:], "/")
	if i := strings.Index(token, "!"); i >= 0 {
		token = token[:i]
	}
	return token
}

// ImageURL builds the download URL for an image token. An empty format
// or "AUTO" asks the CDN for the stored original.
func ImageURL(token, format string) string {
	format = strings.ToLower(format)
	if format == "" || format == "auto" {
		return fmt.Sprintf("%s/%s", ImageCDN, token)
	}
	return fmt.Sprintf("%s/%s?imageView2/format/%s", ImageConvertCDN, token, format)
}

// VideoURL builds the original video URL from its key
func VideoURL(originVideoKey string) string {
	return fmt.Sprintf("%s/%s", VideoCDN, originVideoKey)
}

// IsPlatformHost reports whether cookies may be sent to host
func IsPlatformHost(host string) bool {
	host = strings.ToLower(host)
	return host == "xiaohongshu.com" || strings.HasSuffix(host, ".xiaohongshu.com")
}
