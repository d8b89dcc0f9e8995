package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The key doubles as the English text.
const (
	ResolveFailed     = "Could not resolve %s: %s"
	SkippedByRecord   = "Post %s was downloaded before, skipped"
	DownloadComplete  = "Post %s: %d of %d assets downloaded"
	DownloadPartial   = "Post %s: %d of %d assets downloaded, %d failed"
	MetadataOnly      = "Post %s: metadata fetched"
	NothingPlanned    = "Post %s: nothing to download"
	CookieUnavailable = "Could not read browser cookies, continuing without login: %s"
	IndexSkipped      = "Index %d is out of range, skipped"
	AssetFailed       = "Asset %d failed (%s): %s"
	AssetSaved        = "Asset %d saved to %s"
	Summary           = "%d succeeded, %d partial, %d skipped, %d failed"
)

var (
	chinese = language.SimplifiedChinese
	english = language.AmericanEnglish

	supported = []language.Tag{chinese, english}
	matcher   = language.NewMatcher(supported)
)

var translations = map[string]string{
	ResolveFailed:     "无法解析 %s：%s",
	SkippedByRecord:   "作品 %s 已下载过，跳过",
	DownloadComplete:  "作品 %s：已下载 %d/%d 个文件",
	DownloadPartial:   "作品 %s：已下载 %d/%d 个文件，%d 个失败",
	MetadataOnly:      "作品 %s：已获取作品信息",
	NothingPlanned:    "作品 %s：没有需要下载的文件",
	CookieUnavailable: "读取浏览器 Cookie 失败，将以未登录状态继续：%s",
	IndexSkipped:      "序号 %d 超出范围，已跳过",
	AssetFailed:       "文件 %d 下载失败（%s）：%s",
	AssetSaved:        "文件 %d 已保存到 %s",
	Summary:           "成功 %d，部分成功 %d，跳过 %d，失败 %d",
}

var messages = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(english))
	for key, zh := range translations {
		mustSet(b, chinese, key, zh)
		mustSet(b, english, key, key)
	}
	return b
}

func mustSet(b *catalog.Builder, tag language.Tag, key, msg string) {
	if err := b.SetString(tag, key, msg); err != nil {
		panic(fmt.Sprintf("i18n: %s %q: %v", tag, key, err))
	}
}

// Printer formats user-facing messages in one language
type Printer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a printer for a locale such as "zh_CN" or "en_US". Locales
// without translations fall back to English.
func New(locale string) *Printer {
	tag := Match(locale)
	return &Printer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Match maps a locale onto the closest supported language
func Match(locale string) language.Tag {
	requested, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		return english
	}
	_, index, confidence := matcher.Match(requested)
	if confidence == language.No {
		return english
	}
	return supported[index]
}

// Tag returns the language messages are printed in
func (p *Printer) Tag() language.Tag {
	return p.tag
}

// Sprintf formats a message key
func (p *Printer) Sprintf(key string, args ...interface{}) string {
	return p.printer.Sprintf(key, args...)
}
