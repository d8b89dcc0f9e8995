package xhs

import (
	"encoding/json"
	"regexp"
	"strings"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/models"
)

const stateMarker = "window.__INITIAL_STATE__="

// bareUndefined matches the JavaScript literal in value position
var bareUndefined = regexp.MustCompile(`([:,\[]\s*)undefined(\s*[,\]}])`)

// extractInitialState returns the JSON text embedded in a post page
func extractInitialState(html string) ([]byte, error) {
	start := strings.Index(html, stateMarker)
	if start < 0 {
		return nil, errs.New(errs.ErrorTypeParsing, "page carries no initial state")
	}
	body := html[start+len(stateMarker):]
	if end := strings.Index(body, "</script>"); end >= 0 {
		body = body[:end]
	}
	body = strings.TrimRight(strings.TrimSpace(body), ";")

	// adjacent literals share a delimiter, so replace until stable
	for {
		next := bareUndefined.ReplaceAllString(body, "${1}null${2}")
		if next == body {
			break
		}
		body = next
	}
	return []byte(body), nil
}

// ParsePost reads the post with the given id out of a page's HTML
func ParsePost(html, id, pageURL string) (*models.Post, error) {
	data, err := extractInitialState(html)
	if err != nil {
		return nil, err
	}

	var state initialState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to decode initial state")
	}

	detail, ok := state.Note.NoteDetailMap[id]
	if !ok || len(detail.Note) == 0 || string(detail.Note) == "null" || string(detail.Note) == "{}" {
		return nil, errs.New(errs.ErrorTypeNotFound, "post %s is not available", id)
	}

	var n note
	if err := json.Unmarshal(detail.Note, &n); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "unexpected post structure")
	}
	if n.NoteID == "" && n.Type == "" {
		return nil, errs.New(errs.ErrorTypeNotFound, "post %s is not available", id)
	}

	var raw map[string]any
	if err := json.Unmarshal(detail.Note, &raw); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "unexpected post structure")
	}

	if n.NoteID != "" {
		id = n.NoteID
	}
	return n.toPost(id, pageURL, raw), nil
}
