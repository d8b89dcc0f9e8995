package planner

import (
	"strings"

	"xhsdl/pkg/models"
	"xhsdl/pkg/storage"
)

// typeLabels are the platform's own names for post types
var typeLabels = map[models.PostType]string{
	models.PostTypeImage: "图文",
	models.PostTypeVideo: "视频",
}

// FileName substitutes fields into a sanitised name stem. Empty values
// are dropped; a name with nothing left falls back to the post id.
func FileName(post *models.Post, fields []models.NameField) string {
	var parts []string
	for _, f := range fields {
		if v := storage.SanitizeFilename(fieldValue(post, f)); v != "" {
			parts = append(parts, v)
		}
	}

	name := storage.TruncateRunes(strings.Join(parts, "_"), MaxNameRunes)
	if name == "" {
		name = storage.SanitizeFilename(post.ID)
	}
	return name
}

func fieldValue(post *models.Post, f models.NameField) string {
	switch f {
	case models.FieldID:
		return post.ID
	case models.FieldTitle:
		return post.Title
	case models.FieldDescription:
		return post.Description
	case models.FieldType:
		if label, ok := typeLabels[post.Type]; ok {
			return label
		}
		return string(post.Type)
	case models.FieldAuthor:
		return post.Author.Nickname
	case models.FieldAuthorID:
		return post.Author.ID
	case models.FieldPublished:
		if post.PublishedAt.IsZero() {
			return ""
		}
		return post.PublishedAt.Format(timeLayout)
	case models.FieldUpdated:
		if post.UpdatedAt.IsZero() {
			return ""
		}
		return post.UpdatedAt.Format(timeLayout)
	case models.FieldTags:
		return strings.Join(post.Tags, " ")
	case models.FieldLikes:
		return post.Interactions.Likes
	case models.FieldCollects:
		return post.Interactions.Collects
	case models.FieldComments:
		return post.Interactions.Comments
	case models.FieldShares:
		return post.Interactions.Shares
	}
	return ""
}
