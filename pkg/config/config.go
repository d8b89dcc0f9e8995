package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"xhsdl/pkg/models"
)

// Image formats understood by the planner
const (
	ImageFormatAuto = "AUTO"
	ImageFormatPNG  = "PNG"
	ImageFormatWEBP = "WEBP"
	ImageFormatJPEG = "JPEG"
	ImageFormatHEIC = "HEIC"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const envPrefix = "XHSDL_"

// Config holds the session options. It is built once and then only read.
type Config struct {
	// Storage layout
	WorkPath      string `yaml:"work_path" toml:"work_path" json:"work_path"`
	FolderName    string `yaml:"folder_name" toml:"folder_name" json:"folder_name"`
	NameFormat    string `yaml:"name_format" toml:"name_format" json:"name_format"`
	FolderMode    bool   `yaml:"folder_mode" toml:"folder_mode" json:"folder_mode"`
	AuthorArchive bool   `yaml:"author_archive" toml:"author_archive" json:"author_archive"`

	// Network identity
	UserAgent  string       `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	Cookie     string       `yaml:"cookie" toml:"cookie" json:"cookie"`
	ReadCookie CookieSource `yaml:"read_cookie" toml:"read_cookie" json:"read_cookie"`
	Proxy      string       `yaml:"proxy" toml:"proxy" json:"proxy"`
	Timeout    int          `yaml:"timeout" toml:"timeout" json:"timeout"`
	Chunk      int          `yaml:"chunk" toml:"chunk" json:"chunk"`
	MaxRetry   int          `yaml:"max_retry" toml:"max_retry" json:"max_retry"`

	// Feature toggles
	RecordData     bool   `yaml:"record_data" toml:"record_data" json:"record_data"`
	ImageFormat    string `yaml:"image_format" toml:"image_format" json:"image_format"`
	ImageDownload  bool   `yaml:"image_download" toml:"image_download" json:"image_download"`
	VideoDownload  bool   `yaml:"video_download" toml:"video_download" json:"video_download"`
	LiveDownload   bool   `yaml:"live_download" toml:"live_download" json:"live_download"`
	DownloadRecord bool   `yaml:"download_record" toml:"download_record" json:"download_record"`
	Language       string `yaml:"language" toml:"language" json:"language"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
	File  string `yaml:"file" toml:"file" json:"file"`
}

// CookieSource selects a browser by name or by 1-based ordinal.
// Config files may give either a string or an integer.
type CookieSource string

// UnmarshalYAML accepts string and integer scalars
func (c *CookieSource) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("read_cookie must be a browser name or number")
	}
	*c = CookieSource(strings.TrimSpace(value.Value))
	return nil
}

// UnmarshalTOML accepts string and integer values
func (c *CookieSource) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		*c = CookieSource(strings.TrimSpace(val))
	case int64:
		*c = CookieSource(strconv.FormatInt(val, 10))
	default:
		return fmt.Errorf("read_cookie must be a browser name or number, got %T", v)
	}
	return nil
}

// DefaultConfig returns a Config instance with the downloader's defaults
func DefaultConfig() *Config {
	return &Config{
		WorkPath:       "./",
		FolderName:     "Download",
		NameFormat:     "作品标题 作品描述",
		UserAgent:      DefaultUserAgent,
		Timeout:        10,
		Chunk:          1024 * 1024 * 10,
		MaxRetry:       5,
		ImageFormat:    ImageFormatPNG,
		AuthorArchive:  true,
		ImageDownload:  true,
		VideoDownload:  true,
		LiveDownload:   false,
		DownloadRecord: false,
		Language:       "zh_CN",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// FromOptions builds a validated Config from named options. Unknown
// option names are rejected.
func FromOptions(options map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()
	for key, value := range options {
		if err := cfg.Set(key, value); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Root is the storage root: work_path/folder_name
func (c *Config) Root() string {
	return filepath.Join(c.WorkPath, c.FolderName)
}

// RequestTimeout returns the per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LoadFromEnv loads configuration from XHSDL_* environment variables
func (c *Config) LoadFromEnv() error {
	for _, key := range OptionNames() {
		raw, ok := os.LookupEnv(envPrefix + strings.ToUpper(key))
		if !ok || raw == "" {
			continue
		}
		if err := c.Set(key, raw); err != nil {
			return fmt.Errorf("environment %s%s: %w", envPrefix, strings.ToUpper(key), err)
		}
	}
	if level := os.Getenv(envPrefix + "LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv(envPrefix + "LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.DecodeFile(path, c)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return fmt.Errorf("unknown option(s) in config file: %s", strings.Join(keys, ", "))
		}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".xhsdl.yaml",
		".xhsdl.yml",
		".xhsdl.toml",
		filepath.Join(home, ".config", "xhsdl", "config.yaml"),
		filepath.Join(home, ".config", "xhsdl", "config.yml"),
		filepath.Join(home, ".config", "xhsdl", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.WorkPath) == "" {
		errs = append(errs, errors.New("work_path is required"))
	}
	if strings.TrimSpace(c.FolderName) == "" {
		errs = append(errs, errors.New("folder_name is required"))
	}
	if strings.ContainsAny(c.FolderName, `/\`) {
		errs = append(errs, errors.New("folder_name must not contain path separators"))
	}

	if strings.TrimSpace(c.NameFormat) == "" {
		errs = append(errs, errors.New("name_format is required"))
	} else if _, unknown := models.ParseNameFormat(c.NameFormat); len(unknown) > 0 {
		errs = append(errs, fmt.Errorf("name_format has unknown token(s): %s", strings.Join(unknown, ", ")))
	}

	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.Chunk <= 0 {
		errs = append(errs, errors.New("chunk must be positive"))
	}
	if c.MaxRetry < 0 {
		errs = append(errs, errors.New("max_retry cannot be negative"))
	}

	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid proxy %q", c.Proxy))
		} else {
			switch strings.ToLower(u.Scheme) {
			case "http", "https", "socks5", "socks5h":
			default:
				errs = append(errs, fmt.Errorf("unsupported proxy scheme %q", u.Scheme))
			}
		}
	}

	if _, err := language.Parse(c.Language); err != nil {
		errs = append(errs, fmt.Errorf("invalid language %q: %v", c.Language, err))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Save writes the configuration as TOML when path ends in .toml and as
// YAML otherwise
func (c *Config) Save(path string) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Flag names are option names; "log-level" sets the logging level.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) error {
	for key, value := range flags {
		if key == "log-level" {
			if s, ok := value.(string); ok && s != "" {
				c.Logging.Level = s
			}
			continue
		}
		if err := c.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".xhsdl.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.MergeCommandLineFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to apply flags: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
