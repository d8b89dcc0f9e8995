package xhs

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

const (
	imagePostID = "67fc8571000000000b02ed97"
	videoPostID = "6801a2b3000000001c03d4e5"
)

// imagePostHTML embeds a three item image post whose second item is a
// live photo. The state uses bare undefined the way the site does.
const imagePostHTML = `<html><head></head><body><script>window.__INITIAL_STATE__={"global":{"x":undefined},"note":{"noteDetailMap":{"67fc8571000000000b02ed97":{"comments":[undefined,undefined],"note":{
"noteId":"67fc8571000000000b02ed97","type":"normal","title":"春日穿搭","desc":"三套搭配\n#穿搭[话题]#",
"time":1744602481000,"lastUpdateTime":1744602482000,"ipLocation":"上海",
"user":{"userId":"5b1a2c3d4e5f","nickname":"小鹿"},
"tagList":[{"name":"穿搭"},{"name":"春天"}],
"interactInfo":{"likedCount":"1.2万","collectedCount":"3456","commentCount":78,"shareCount":"9"},
"imageList":[
 {"urlDefault":"http://sns-webpic-qc.xhscdn.com/202504141854/a7e6f0/1040g008310cs1hii6g6g5ngacg208q5rlf1gld8!nd_dft_wlteh_webp_3","width":1080,"height":1440,"livePhoto":false,"stream":{}},
 {"urlDefault":"http://sns-webpic-qc.xhscdn.com/202504141854/b8f7a1/spectrum/1040g0k0310cs1hii6g705ngacg208q5rv2b3cg8!nd_dft_wlteh_webp_3","width":1080,"height":1440,"livePhoto":true,"stream":{"h264":[{"masterUrl":"http://sns-video-bd.xhscdn.com/stream/live_1.mp4"}],"h265":[]}},
 {"urlDefault":"http://sns-webpic-qc.xhscdn.com/202504141854/c9a8b2/1040g008310cs1hii6g7g5ngacg208q5r0000000!nd_dft_wlteh_webp_3","width":1080,"height":1440,"livePhoto":false,"stream":undefined}
]}}}}}</script></body></html>`

const videoPostHTML = `<html><script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"6801a2b3000000001c03d4e5":{"note":{
"noteId":"6801a2b3000000001c03d4e5","type":"video","title":"","desc":"city walk",
"time":1744800000000,"user":{"userId":"u2","nickname":"Traveller"},
"interactInfo":{"likedCount":"10"},
"imageList":[{"urlDefault":"http://sns-webpic-qc.xhscdn.com/202504160000/ffff/cover_token!nd_dft","width":720,"height":1280}],
"video":{"consumer":{"originVideoKey":"pre_post/1040g2t031abcdef"},"media":{"stream":{"h264":[{"masterUrl":"http://sns-video-bd.xhscdn.com/stream/h264.mp4"}]}}}
}}}}};</script></html>`

const missingPostHTML = `<html><script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"null":{"note":{}}}}}</script></html>`

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   5 * time.Second,
	}
}

func newResponse(req *http.Request, statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}
