package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// option binds a recognised option name to a field setter
type option struct {
	kind string // "string", "int" or "bool"
	set  func(c *Config, v interface{})
}

var options = map[string]option{
	"work_path":       {"string", func(c *Config, v interface{}) { c.WorkPath = v.(string) }},
	"folder_name":     {"string", func(c *Config, v interface{}) { c.FolderName = v.(string) }},
	"name_format":     {"string", func(c *Config, v interface{}) { c.NameFormat = v.(string) }},
	"user_agent":      {"string", func(c *Config, v interface{}) { c.UserAgent = v.(string) }},
	"cookie":          {"string", func(c *Config, v interface{}) { c.Cookie = v.(string) }},
	"read_cookie":     {"cookie", func(c *Config, v interface{}) { c.ReadCookie = CookieSource(v.(string)) }},
	"proxy":           {"string", func(c *Config, v interface{}) { c.Proxy = v.(string) }},
	"timeout":         {"int", func(c *Config, v interface{}) { c.Timeout = v.(int) }},
	"chunk":           {"int", func(c *Config, v interface{}) { c.Chunk = v.(int) }},
	"max_retry":       {"int", func(c *Config, v interface{}) { c.MaxRetry = v.(int) }},
	"record_data":     {"bool", func(c *Config, v interface{}) { c.RecordData = v.(bool) }},
	"image_format":    {"string", func(c *Config, v interface{}) { c.ImageFormat = strings.ToUpper(v.(string)) }},
	"folder_mode":     {"bool", func(c *Config, v interface{}) { c.FolderMode = v.(bool) }},
	"author_archive":  {"bool", func(c *Config, v interface{}) { c.AuthorArchive = v.(bool) }},
	"image_download":  {"bool", func(c *Config, v interface{}) { c.ImageDownload = v.(bool) }},
	"video_download":  {"bool", func(c *Config, v interface{}) { c.VideoDownload = v.(bool) }},
	"live_download":   {"bool", func(c *Config, v interface{}) { c.LiveDownload = v.(bool) }},
	"download_record": {"bool", func(c *Config, v interface{}) { c.DownloadRecord = v.(bool) }},
	"language":        {"string", func(c *Config, v interface{}) { c.Language = v.(string) }},
}

// OptionNames lists every recognised option, sorted
func OptionNames() []string {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsOption reports whether name is a recognised option
func IsOption(name string) bool {
	_, ok := options[name]
	return ok
}

// OptionKind returns "string", "int", "bool" or "cookie" for a recognised
// option and "" otherwise
func OptionKind(name string) string {
	return options[name].kind
}

// Set assigns one option by name. Strings are parsed for int and bool
// options so environment values can share the same path.
func (c *Config) Set(name string, value interface{}) error {
	opt, ok := options[name]
	if !ok {
		return fmt.Errorf("unknown option %q", name)
	}

	var converted interface{}
	var err error
	switch opt.kind {
	case "string":
		converted, err = toString(value)
	case "int":
		converted, err = toInt(value)
	case "bool":
		converted, err = toBool(value)
	case "cookie":
		converted, err = toCookieSource(value)
	}
	if err != nil {
		return fmt.Errorf("option %q: %w", name, err)
	}

	opt.set(c, converted)
	return nil
}

func toString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func toInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case int32:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("expected integer, got %v", val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toBool(v interface{}) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("expected boolean, got %q", val)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

// toCookieSource accepts a browser name or an ordinal
func toCookieSource(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case int, int64, int32, float64:
		n, err := toInt(val)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	default:
		return "", fmt.Errorf("expected browser name or number, got %T", v)
	}
}
