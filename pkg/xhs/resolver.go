package xhs

import (
	"context"
	"net/url"
	"strings"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/models"
	"xhsdl/pkg/retry"
)

// Resolver turns a post link into a Post
type Resolver struct {
	client *Client
	retry  *retry.Config
	logger logger.Logger
}

// NewResolver creates a resolver. retryCfg bounds attempts for transient
// failures; nil uses retry.DefaultConfig.
func NewResolver(client *Client, retryCfg *retry.Config, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &Resolver{client: client, retry: retryCfg, logger: log}
}

// Resolve fetches and parses the post behind rawURL
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*models.Post, error) {
	link, err := ParseLink(rawURL)
	if err != nil {
		return nil, err
	}

	if link.Short {
		final, err := retry.DoWithResult(ctx, func() (string, error) {
			return r.client.ResolveShortLink(ctx, link.URL)
		}, r.retry)
		if err != nil {
			return nil, err
		}
		if link, err = ParseLink(final); err != nil {
			return nil, err
		}
	}

	log := r.logger.WithField("post_id", link.ID)
	log.Debug("Resolving post")

	type page struct{ html, final string }
	p, err := retry.DoWithResult(ctx, func() (page, error) {
		html, final, err := r.client.FetchPage(ctx, link.URL)
		return page{html, final}, err
	}, r.retry)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch post page")
		return nil, err
	}

	if u, err := url.Parse(p.final); err == nil && strings.HasPrefix(u.Path, "/404") {
		return nil, errs.New(errs.ErrorTypeNotFound, "post %s is not available", link.ID)
	}

	post, err := ParsePost(p.html, link.ID, link.URL)
	if err != nil {
		log.WithError(err).Warn("Failed to parse post page")
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"type":  string(post.Type),
		"media": len(post.Media),
	}).Debug("Post resolved")
	return post, nil
}
