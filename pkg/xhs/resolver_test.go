package xhs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/models"
	"xhsdl/pkg/retry"
)

func testRetry(maxRetry int) *retry.Config {
	return retry.FromMaxRetry(maxRetry, &retry.ConstantBackoff{Delay: time.Millisecond}, logger.NewNopLogger())
}

func newTestResolver(t *testing.T, handler func(req *http.Request) (*http.Response, error)) *Resolver {
	t.Helper()
	client, err := NewClient(ClientOptions{
		UserAgent:  "test-agent",
		Cookie:     "a1=b2",
		HTTPClient: newMockHTTPClient(handler),
	}, logger.NewTestLogger())
	require.NoError(t, err)
	return NewResolver(client, testRetry(2), logger.NewNopLogger())
}

func TestParsePostImage(t *testing.T) {
	post, err := ParsePost(imagePostHTML, imagePostID, "https://www.xiaohongshu.com/explore/"+imagePostID)
	require.NoError(t, err)

	assert.Equal(t, imagePostID, post.ID)
	assert.Equal(t, models.PostTypeImage, post.Type)
	assert.Equal(t, "春日穿搭", post.Title)
	assert.Equal(t, "三套搭配\n#穿搭[话题]#", post.Description)
	assert.Equal(t, models.Author{ID: "5b1a2c3d4e5f", Nickname: "小鹿"}, post.Author)
	assert.Equal(t, []string{"穿搭", "春天"}, post.Tags)
	assert.Equal(t, int64(1744602481000), post.PublishedAt.UnixMilli())
	assert.Equal(t, "上海", post.IPLocation)
	assert.Equal(t, models.Interactions{Likes: "1.2万", Collects: "3456", Comments: "78", Shares: "9"}, post.Interactions)
	assert.Equal(t, "春日穿搭", post.Raw["title"])

	require.Len(t, post.Media, 3)
	for i, item := range post.Media {
		assert.Equal(t, i+1, item.Ordinal)
	}
	assert.Equal(t, models.KindImage, post.Media[0].Kind)
	assert.Equal(t, "1040g008310cs1hii6g6g5ngacg208q5rlf1gld8", post.Media[0].ImageToken)
	assert.Equal(t, 1080, post.Media[0].Width)

	assert.Equal(t, models.KindLive, post.Media[1].Kind)
	assert.Equal(t, "spectrum/1040g0k0310cs1hii6g705ngacg208q5rv2b3cg8", post.Media[1].ImageToken)
	assert.Equal(t, "http://sns-video-bd.xhscdn.com/stream/live_1.mp4", post.Media[1].StreamURL)

	assert.Equal(t, models.KindImage, post.Media[2].Kind)
}

func TestParsePostVideo(t *testing.T) {
	post, err := ParsePost(videoPostHTML, videoPostID, "u")
	require.NoError(t, err)

	assert.Equal(t, models.PostTypeVideo, post.Type)
	require.Len(t, post.Media, 1)
	assert.Equal(t, models.KindVideo, post.Media[0].Kind)
	assert.Equal(t, 1, post.Media[0].Ordinal)
	assert.Equal(t, "https://sns-video-bd.xhscdn.com/pre_post/1040g2t031abcdef", post.Media[0].StreamURL)
	assert.True(t, post.UpdatedAt.IsZero())
}

func TestParsePostErrors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want errs.ErrorType
	}{
		{"no state", "<html>login required</html>", errs.ErrorTypeParsing},
		{"broken json", `<script>window.__INITIAL_STATE__={"note":</script>`, errs.ErrorTypeParsing},
		{"missing note", missingPostHTML, errs.ErrorTypeNotFound},
		{"other post only", imagePostHTML, errs.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := "ffffffffffffffffffffffff"
			if tt.name == "missing note" {
				id = "null"
			}
			_, err := ParsePost(tt.html, id, "u")
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.TypeOf(err))
		})
	}
}

func TestResolve(t *testing.T) {
	var requests int32
	resolver := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "test-agent", req.Header.Get("User-Agent"))
		assert.Equal(t, "a1=b2", req.Header.Get("Cookie"))
		assert.Equal(t, "/explore/"+imagePostID, req.URL.Path)
		return newResponse(req, http.StatusOK, imagePostHTML), nil
	})

	post, err := resolver.Resolve(context.Background(), "https://www.xiaohongshu.com/explore/"+imagePostID+"?xsec_token=abc")
	require.NoError(t, err)
	assert.Equal(t, imagePostID, post.ID)
	assert.Equal(t, "https://www.xiaohongshu.com/explore/"+imagePostID+"?xsec_token=abc", post.URL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	var requests int32
	resolver := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		switch atomic.AddInt32(&requests, 1) {
		case 1:
			return nil, errors.New("connection reset by peer")
		case 2:
			return newResponse(req, http.StatusBadGateway, ""), nil
		default:
			return newResponse(req, http.StatusOK, imagePostHTML), nil
		}
	})

	post, err := resolver.Resolve(context.Background(), "https://www.xiaohongshu.com/explore/"+imagePostID)
	require.NoError(t, err)
	assert.Len(t, post.Media, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestResolveGivesUpAfterMaxRetry(t *testing.T) {
	var requests int32
	resolver := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&requests, 1)
		return newResponse(req, http.StatusServiceUnavailable, ""), nil
	})

	_, err := resolver.Resolve(context.Background(), "https://www.xiaohongshu.com/explore/"+imagePostID)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestResolveDoesNotRetryPermanentFailures(t *testing.T) {
	for name, tc := range map[string]struct {
		status int
		body   string
		want   errs.ErrorType
	}{
		"not found": {http.StatusNotFound, "", errs.ErrorTypeNotFound},
		"no state":  {http.StatusOK, "<html></html>", errs.ErrorTypeParsing},
	} {
		t.Run(name, func(t *testing.T) {
			var requests int32
			resolver := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
				atomic.AddInt32(&requests, 1)
				return newResponse(req, tc.status, tc.body), nil
			})

			_, err := resolver.Resolve(context.Background(), "https://www.xiaohongshu.com/explore/"+imagePostID)
			require.Error(t, err)
			assert.Equal(t, tc.want, errs.TypeOf(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
		})
	}
}

func TestResolveInvalidURLMakesNoRequest(t *testing.T) {
	resolver := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request to %s", req.URL)
		return nil, nil
	})

	_, err := resolver.Resolve(context.Background(), "https://example.com/explore/abc")
	assert.Equal(t, errs.ErrorTypeInvalidURL, errs.TypeOf(err))
}

func TestResolveShortLink(t *testing.T) {
	resolver := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Host {
		case "xhslink.com":
			assert.Empty(t, req.Header.Get("Cookie"), "cookie must not leave the platform domain")
			resp := newResponse(req, http.StatusFound, "")
			resp.Header.Set("Location", "https://www.xiaohongshu.com/discovery/item/"+videoPostID+"?app_platform=ios")
			return resp, nil
		case "www.xiaohongshu.com":
			return newResponse(req, http.StatusOK, videoPostHTML), nil
		}
		return newResponse(req, http.StatusNotFound, ""), nil
	})

	post, err := resolver.Resolve(context.Background(), "http://xhslink.com/a/Zz9")
	require.NoError(t, err)
	assert.Equal(t, videoPostID, post.ID)
	assert.Equal(t, models.PostTypeVideo, post.Type)
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := newTestResolver(t, func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	})

	_, err := resolver.Resolve(ctx, "https://www.xiaohongshu.com/explore/"+imagePostID)
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeCanceled, errs.TypeOf(err))
}

func TestClientAgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Cookie"), "cookie is only sent to platform hosts")
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("hello"))
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusGone)
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{UserAgent: "ua", Cookie: "a=b", Timeout: 5 * time.Second}, logger.NewNopLogger())
	require.NoError(t, err)

	body, final, err := client.FetchPage(context.Background(), server.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "hello", body)
	assert.Equal(t, server.URL+"/ok", final)

	_, _, err = client.FetchPage(context.Background(), server.URL+"/limited")
	assert.Equal(t, errs.ErrorTypeRateLimit, errs.TypeOf(err))

	_, _, err = client.FetchPage(context.Background(), server.URL+"/gone")
	assert.Equal(t, errs.ErrorTypeNotFound, errs.TypeOf(err))
}

func TestNewTransportProxy(t *testing.T) {
	transport, err := NewTransport("socks5://127.0.0.1:1080", time.Second)
	require.NoError(t, err)

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "www.xiaohongshu.com"}}
	proxy, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "socks5://127.0.0.1:1080", proxy.String())
	assert.Equal(t, time.Second, transport.ResponseHeaderTimeout)
}
