package models

import "strings"

// NameField is a value that can be substituted into a file name template
type NameField string

const (
	FieldID          NameField = "id"
	FieldTitle       NameField = "title"
	FieldDescription NameField = "desc"
	FieldType        NameField = "type"
	FieldAuthor      NameField = "author"
	FieldAuthorID    NameField = "author_id"
	FieldPublished   NameField = "time"
	FieldUpdated     NameField = "updated"
	FieldTags        NameField = "tags"
	FieldLikes       NameField = "likes"
	FieldCollects    NameField = "collects"
	FieldComments    NameField = "comments"
	FieldShares      NameField = "shares"
)

// nameTokens maps template tokens, including the platform's Chinese
// labels, to fields.
var nameTokens = map[string]NameField{
	"作品ID":   FieldID,
	"作品标题":   FieldTitle,
	"作品描述":   FieldDescription,
	"作品类型":   FieldType,
	"作者昵称":   FieldAuthor,
	"作者ID":   FieldAuthorID,
	"发布时间":   FieldPublished,
	"最后更新时间": FieldUpdated,
	"作品标签":   FieldTags,
	"点赞数量":   FieldLikes,
	"收藏数量":   FieldCollects,
	"评论数量":   FieldComments,
	"分享数量":   FieldShares,
}

func init() {
	for _, f := range []NameField{
		FieldID, FieldTitle, FieldDescription, FieldType, FieldAuthor, FieldAuthorID,
		FieldPublished, FieldUpdated, FieldTags, FieldLikes, FieldCollects, FieldComments, FieldShares,
	} {
		nameTokens[string(f)] = f
	}
}

// LookupNameField resolves a template token
func LookupNameField(token string) (NameField, bool) {
	f, ok := nameTokens[token]
	if !ok {
		f, ok = nameTokens[strings.ToLower(token)]
	}
	return f, ok
}

// ParseNameFormat splits a template into fields. Unknown tokens are
// returned separately so callers can report them.
func ParseNameFormat(format string) ([]NameField, []string) {
	var fields []NameField
	var unknown []string
	for _, token := range strings.Fields(format) {
		if f, ok := LookupNameField(token); ok {
			fields = append(fields, f)
		} else {
			unknown = append(unknown, token)
		}
	}
	return fields, unknown
}
