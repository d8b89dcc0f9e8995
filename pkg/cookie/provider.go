package cookie

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
)

// Provider produces the cookie header used for platform requests
type Provider struct {
	reader BrowserReader
	domain string
	logger logger.Logger
}

// NewProvider creates a provider reading browsers through reader
func NewProvider(reader BrowserReader, domain string, log logger.Logger) *Provider {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Provider{reader: reader, domain: domain, logger: log}
}

// Resolve returns the cookie to use. An explicit cookie always wins; an
// empty spec means anonymous. A spec naming no supported browser returns
// an error wrapping ErrUnsupportedBrowser. Any failure to read the
// browser is reported as a cookie_unavailable error.
func (p *Provider) Resolve(ctx context.Context, explicit, spec string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if strings.TrimSpace(spec) == "" {
		return "", nil
	}

	browser, err := ParseBrowserSpec(spec)
	if err != nil {
		return "", err
	}

	log := p.logger.WithField("browser", browser.Name)
	cookies, err := p.reader.ReadCookies(ctx, browser, p.domain)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		log.WithError(err).Debug("Reading browser cookies failed")
		return "", errs.Wrap(errs.ErrorTypeCookieUnavailable, err, "failed to read "+browser.Name+" cookies")
	}

	header := Serialize(cookies)
	if header == "" {
		return "", errs.New(errs.ErrorTypeCookieUnavailable, "%s holds no cookies for %s", browser.Name, p.domain)
	}

	log.WithField("count", len(cookies)).Debug("Read browser cookies")
	return header, nil
}

// Serialize renders cookies as a Cookie header, sorted by name. When a
// name occurs more than once the cookie with the most specific domain
// and path wins.
func Serialize(cookies []*http.Cookie) string {
	sorted := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c != nil && c.Name != "" {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if len(a.Domain) != len(b.Domain) {
			return len(a.Domain) > len(b.Domain)
		}
		return len(a.Path) > len(b.Path)
	})

	parts := make([]string, 0, len(sorted))
	var last string
	for i, c := range sorted {
		if i > 0 && c.Name == last {
			continue
		}
		last = c.Name
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// MatchesDomain reports whether a cookie host belongs to domain
func MatchesDomain(host, domain string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), ".")
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}
