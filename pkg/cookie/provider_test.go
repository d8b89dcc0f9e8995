package cookie_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"xhsdl/pkg/cookie"
	"xhsdl/pkg/cookie/mocks"
	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
)

const domain = ".xiaohongshu.com"

func TestProvider_ExplicitCookieWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockBrowserReader(ctrl)

	p := cookie.NewProvider(reader, domain, logger.NewNopLogger())
	got, err := p.Resolve(context.Background(), "a=1", "chrome")

	require.NoError(t, err)
	assert.Equal(t, "a=1", got)
}

func TestProvider_NoSpecIsAnonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockBrowserReader(ctrl)

	p := cookie.NewProvider(reader, domain, logger.NewNopLogger())
	got, err := p.Resolve(context.Background(), "", "  ")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProvider_ReadsByNameAndOrdinal(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockBrowserReader(ctrl)

	stored := []*http.Cookie{
		{Name: "web_session", Value: "s1", Domain: domain},
		{Name: "a1", Value: "x", Domain: domain},
	}
	reader.EXPECT().
		ReadCookies(gomock.Any(), gomock.Any(), domain).
		DoAndReturn(func(_ context.Context, b cookie.Browser, _ string) ([]*http.Cookie, error) {
			assert.Equal(t, "firefox", b.Name)
			return stored, nil
		}).
		Times(2)

	p := cookie.NewProvider(reader, domain, logger.NewNopLogger())

	got, err := p.Resolve(context.Background(), "", "Firefox")
	require.NoError(t, err)
	assert.Equal(t, "a1=x; web_session=s1", got)

	got, err = p.Resolve(context.Background(), "", "7")
	require.NoError(t, err)
	assert.Equal(t, "a1=x; web_session=s1", got)
}

func TestProvider_UnsupportedBrowser(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockBrowserReader(ctrl)
	p := cookie.NewProvider(reader, domain, logger.NewNopLogger())

	for _, spec := range []string{"netscape", "0", "99"} {
		_, err := p.Resolve(context.Background(), "", spec)
		assert.ErrorIs(t, err, cookie.ErrUnsupportedBrowser, spec)
	}
}

func TestProvider_ReadFailureIsCookieUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockBrowserReader(ctrl)
	reader.EXPECT().
		ReadCookies(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("database is locked"))

	p := cookie.NewProvider(reader, domain, logger.NewNopLogger())
	_, err := p.Resolve(context.Background(), "", "chrome")

	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeCookieUnavailable, errs.TypeOf(err))
	assert.Contains(t, err.Error(), "database is locked")
}

func TestProvider_NoMatchingCookies(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockBrowserReader(ctrl)
	reader.EXPECT().
		ReadCookies(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)

	p := cookie.NewProvider(reader, domain, logger.NewNopLogger())
	_, err := p.Resolve(context.Background(), "", "edge")

	assert.True(t, errs.Is(err, errs.ErrorTypeCookieUnavailable))
}

func TestProvider_CancellationPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockBrowserReader(ctrl)
	reader.EXPECT().
		ReadCookies(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, context.Canceled)

	p := cookie.NewProvider(reader, domain, logger.NewNopLogger())
	_, err := p.Resolve(context.Background(), "", "brave")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errs.Is(err, errs.ErrorTypeCookieUnavailable))
}

func TestSerialize(t *testing.T) {
	got := cookie.Serialize([]*http.Cookie{
		{Name: "b", Value: "2", Domain: ".xiaohongshu.com", Path: "/"},
		{Name: "a", Value: "1", Domain: ".xiaohongshu.com", Path: "/"},
		{Name: "b", Value: "3", Domain: "www.xiaohongshu.com", Path: "/"},
		nil,
		{Name: "", Value: "ignored"},
	})
	assert.Equal(t, "a=1; b=3", got)
	assert.Empty(t, cookie.Serialize(nil))
}

func TestMatchesDomain(t *testing.T) {
	assert.True(t, cookie.MatchesDomain(".xiaohongshu.com", domain))
	assert.True(t, cookie.MatchesDomain("www.xiaohongshu.com", domain))
	assert.True(t, cookie.MatchesDomain("XiaoHongShu.com", domain))
	assert.False(t, cookie.MatchesDomain("notxiaohongshu.com", domain))
	assert.False(t, cookie.MatchesDomain("xiaohongshu.com.evil.io", domain))
}

func TestParseBrowserSpec(t *testing.T) {
	b, err := cookie.ParseBrowserSpec("1")
	require.NoError(t, err)
	assert.Equal(t, "chrome", b.Name)

	b, err = cookie.ParseBrowserSpec(" EDGE ")
	require.NoError(t, err)
	assert.Equal(t, cookie.FamilyChromium, b.Family)

	_, err = cookie.ParseBrowserSpec("safari")
	assert.ErrorIs(t, err, cookie.ErrUnsupportedBrowser)

	assert.Len(t, cookie.BrowserNames(), len(cookie.Browsers))
}
