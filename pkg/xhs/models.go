package xhs

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"xhsdl/pkg/models"
)

// flexString accepts JSON strings and numbers; counters switch between
// the two depending on magnitude ("1.2万" vs 42).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts JSON numbers and numeric strings
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		n = int64(fl)
	}
	*f = flexInt(n)
	return nil
}

type initialState struct {
	Note struct {
		NoteDetailMap map[string]struct {
			Note json.RawMessage `json:"note"`
		} `json:"noteDetailMap"`
	} `json:"note"`
}

type streamInfo struct {
	H264 []streamVariant `json:"h264"`
	H265 []streamVariant `json:"h265"`
	AV1  []streamVariant `json:"av1"`
}

type streamVariant struct {
	MasterURL string  `json:"masterUrl"`
	Width     flexInt `json:"width"`
	Height    flexInt `json:"height"`
}

// best returns the first playable master URL, preferring h264
func (s streamInfo) best() string {
	for _, list := range [][]streamVariant{s.H264, s.H265, s.AV1} {
		for _, v := range list {
			if v.MasterURL != "" {
				return v.MasterURL
			}
		}
	}
	return ""
}

type noteImage struct {
	URLDefault string     `json:"urlDefault"`
	URLPre     string     `json:"urlPre"`
	URL        string     `json:"url"`
	Width      flexInt    `json:"width"`
	Height     flexInt    `json:"height"`
	LivePhoto  bool       `json:"livePhoto"`
	Stream     streamInfo `json:"stream"`
	InfoList   []struct {
		ImageScene string `json:"imageScene"`
		URL        string `json:"url"`
	} `json:"infoList"`
}

// defaultURL prefers the default scene, then any URL the item carries
func (i noteImage) defaultURL() string {
	if i.URLDefault != "" {
		return i.URLDefault
	}
	for _, info := range i.InfoList {
		if strings.Contains(info.ImageScene, "DFT") && info.URL != "" {
			return info.URL
		}
	}
	if i.URL != "" {
		return i.URL
	}
	return i.URLPre
}

type note struct {
	NoteID         string  `json:"noteId"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Desc           string  `json:"desc"`
	Time           flexInt `json:"time"`
	LastUpdateTime flexInt `json:"lastUpdateTime"`
	IPLocation     string  `json:"ipLocation"`
	User           struct {
		UserID   string `json:"userId"`
		Nickname string `json:"nickname"`
		NickName string `json:"nickName"`
	} `json:"user"`
	TagList []struct {
		Name string `json:"name"`
	} `json:"tagList"`
	InteractInfo struct {
		LikedCount     flexString `json:"likedCount"`
		CollectedCount flexString `json:"collectedCount"`
		CommentCount   flexString `json:"commentCount"`
		ShareCount     flexString `json:"shareCount"`
	} `json:"interactInfo"`
	ImageList []noteImage `json:"imageList"`
	Video     *struct {
		Consumer struct {
			OriginVideoKey string `json:"originVideoKey"`
		} `json:"consumer"`
		Media struct {
			Stream streamInfo `json:"stream"`
		} `json:"media"`
	} `json:"video"`
}

func millis(ms flexInt) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}

// toPost converts the platform payload into the domain model
func (n *note) toPost(id, pageURL string, raw map[string]any) *models.Post {
	nickname := n.User.Nickname
	if nickname == "" {
		nickname = n.User.NickName
	}

	post := &models.Post{
		ID:          id,
		URL:         pageURL,
		Type:        models.PostType(n.Type),
		Title:       strings.TrimSpace(n.Title),
		Description: strings.TrimSpace(n.Desc),
		Author:      models.Author{ID: n.User.UserID, Nickname: nickname},
		PublishedAt: millis(n.Time),
		UpdatedAt:   millis(n.LastUpdateTime),
		IPLocation:  n.IPLocation,
		Interactions: models.Interactions{
			Likes:    string(n.InteractInfo.LikedCount),
			Collects: string(n.InteractInfo.CollectedCount),
			Comments: string(n.InteractInfo.CommentCount),
			Shares:   string(n.InteractInfo.ShareCount),
		},
		Raw: raw,
	}
	for _, tag := range n.TagList {
		if tag.Name != "" {
			post.Tags = append(post.Tags, tag.Name)
		}
	}

	if post.Type == models.PostTypeVideo {
		if item, ok := n.videoItem(); ok {
			post.Media = append(post.Media, item)
		}
		return post
	}

	for i, img := range n.ImageList {
		item := models.MediaItem{
			Ordinal:    i + 1,
			Kind:       models.KindImage,
			DefaultURL: img.defaultURL(),
			Width:      int(img.Width),
			Height:     int(img.Height),
		}
		item.ImageToken = ImageToken(item.DefaultURL)
		if img.LivePhoto {
			if stream := img.Stream.best(); stream != "" {
				item.Kind = models.KindLive
				item.StreamURL = stream
			}
		}
		post.Media = append(post.Media, item)
	}
	return post
}

func (n *note) videoItem() (models.MediaItem, bool) {
	if n.Video == nil {
		return models.MediaItem{}, false
	}
	item := models.MediaItem{Ordinal: 1, Kind: models.KindVideo}
	switch {
	case n.Video.Consumer.OriginVideoKey != "":
		item.StreamURL = VideoURL(n.Video.Consumer.OriginVideoKey)
	case n.Video.Media.Stream.best() != "":
		item.StreamURL = n.Video.Media.Stream.best()
	default:
		return models.MediaItem{}, false
	}
	if len(n.ImageList) > 0 {
		item.DefaultURL = n.ImageList[0].defaultURL()
		item.Width = int(n.ImageList[0].Width)
		item.Height = int(n.ImageList[0].Height)
	}
	return item, true
}
