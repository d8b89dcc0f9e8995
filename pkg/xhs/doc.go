// Package xhs talks to the Xiaohongshu web front end.
//
// It recognises post links (including xhslink.com short links), fetches
// post pages and reads the post out of the window.__INITIAL_STATE__
// object the page embeds. The CDN URL builders for images and videos
// live here too.
//
//	client, err := xhs.NewClient(xhs.ClientOptions{UserAgent: ua, Timeout: 10 * time.Second}, log)
//	resolver := xhs.NewResolver(client, retry.FromMaxRetry(5, nil, log), log)
//	post, err := resolver.Resolve(ctx, "https://www.xiaohongshu.com/explore/<id>")
package xhs
