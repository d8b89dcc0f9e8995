package xhs

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/ratelimit"
)

// maxPageSize bounds how much of a post page is read
const maxPageSize = 16 << 20

// ClientOptions configure the network identity of a Client
type ClientOptions struct {
	UserAgent string
	Cookie    string
	Proxy     string
	Timeout   time.Duration
	// HTTPClient replaces the client built from Proxy and Timeout
	HTTPClient *http.Client
	// Limiter paces page requests; nil means no pacing
	Limiter ratelimit.Limiter
}

// Client fetches pages from the web front end
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	cookie     string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewTransport builds the transport shared by page requests and media
// downloads. timeout bounds connecting and waiting for response headers.
func NewTransport(proxy string, timeout time.Duration) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return transport, nil
}

// minLoggedWait is the shortest limiter delay worth a log line
const minLoggedWait = 50 * time.Millisecond

// NewClient creates a client for the web front end
func NewClient(opts ClientOptions, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport, err := NewTransport(opts.Proxy, opts.Timeout)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Transport: transport, Timeout: opts.Timeout}
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Referer":         BaseURL + "/",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		},
		cookie:  opts.Cookie,
		limiter: limiter,
		logger:  log,
	}, nil
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// HTTPClient exposes the underlying client for media downloads
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Cookie returns the cookie header sent to the platform
func (c *Client) Cookie() string {
	return c.cookie
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	if c.cookie != "" && IsPlatformHost(req.URL.Hostname()) {
		req.Header.Set("Cookie", c.cookie)
	}

	waitStart := time.Now()
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if waited := time.Since(waitStart); waited >= minLoggedWait {
		logger.LogRateLimit(c.logger, req.URL.Host, waited)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// CheckResponseStatus maps HTTP statuses onto the error taxonomy
func CheckResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone || code == http.StatusForbidden:
		return &errs.Error{Type: errs.ErrorTypeNotFound, Message: "resource not available", Code: code}
	case code == http.StatusTooManyRequests:
		return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: code}
	case code >= 500:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: code}
	case errs.IsRetryableStatusCode(code):
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("unexpected status code: %d", code), Code: code}
	default:
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("unexpected status code: %d", code), Code: code}
	}
}

// FetchPage downloads a page and returns its body and the final URL
// after redirects.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", errs.Wrap(errs.ErrorTypeInvalidURL, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if err := CheckResponseStatus(resp); err != nil {
		return "", "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return "", "", errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}

	return string(body), resp.Request.URL.String(), nil
}

// ResolveShortLink follows an xhslink.com redirect chain and returns the
// post URL it lands on
func (c *Client) ResolveShortLink(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeInvalidURL, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if link, err := ParseLink(final); err == nil && !link.Short {
		c.logger.DebugWithFields("resolved short link", map[string]interface{}{
			"short": shortURL,
			"url":   final,
		})
		return final, nil
	}

	if err := CheckResponseStatus(resp); err != nil {
		return "", err
	}
	return "", errs.New(errs.ErrorTypeInvalidURL, "short link %s does not lead to a post", shortURL)
}
