package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	DefaultInstanceURL = "https://universeodon.com"
	DefaultLimit       = 20
)

// Config is the full application configuration.
type Config struct {
	Instance InstanceConfig `mapstructure:"instance"`
	Feed     FeedConfig     `mapstructure:"feed"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	History  HistoryConfig  `mapstructure:"history"`
	Media    MediaConfig    `mapstructure:"media"`
	Log      LogConfig      `mapstructure:"log"`
}

type InstanceConfig struct {
	URL   string `mapstructure:"url"`
	Limit int    `mapstructure:"limit"`

	// AllowLocal permits localhost and private-network instances.
	AllowLocal bool `mapstructure:"allow_local"`
}

type FeedConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type UIConfig struct {
	Colors        UIColors `mapstructure:"colors"`
	MarkdownStyle string   `mapstructure:"markdown_style"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit"`
	Refresh   string `mapstructure:"refresh"`
	Search    string `mapstructure:"search"`
	Filter    string `mapstructure:"filter"`
	Timeline  string `mapstructure:"timeline"`
	OpenMedia string `mapstructure:"open_media"`
	Back      string `mapstructure:"back"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Size    int    `mapstructure:"size"`
}

type MediaConfig struct {
	Image         []string `mapstructure:"image"`
	Video         []string `mapstructure:"video"`
	Audio         []string `mapstructure:"audio"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".textodon")

	return &Config{
		Instance: InstanceConfig{
			URL:   DefaultInstanceURL,
			Limit: DefaultLimit,
		},
		Feed: FeedConfig{
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "textodon/1.0 (https://github.com/pders01/textodon)",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#6364FF",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			MarkdownStyle: "auto",
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:      "q",
				Refresh:   "r",
				Search:    "/",
				Filter:    "f",
				Timeline:  "t",
				OpenMedia: "o",
				Back:      "esc",
			},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "history.db"),
			Size:    10,
		},
		Media: MediaConfig{
			Image:         []string{"sxiv", "feh", "imv"},
			Video:         []string{"mpv", "vlc"},
			Audio:         []string{"mpv", "vlc"},
			DefaultOpener: getDefaultOpener(),
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(dataDir, "textodon.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// asMap flattens cfg into the nested key layout used by the TOML file.
// Durations are written as strings so the file stays readable.
func asMap(cfg *Config) map[string]any {
	return map[string]any{
		"instance": map[string]any{
			"url":         cfg.Instance.URL,
			"limit":       cfg.Instance.Limit,
			"allow_local": cfg.Instance.AllowLocal,
		},
		"feed": map[string]any{
			"http_timeout": cfg.Feed.HTTPTimeout.String(),
			"user_agent":   cfg.Feed.UserAgent,
		},
		"ui": map[string]any{
			"markdown_style": cfg.UI.MarkdownStyle,
			"colors": map[string]any{
				"primary":   cfg.UI.Colors.Primary,
				"secondary": cfg.UI.Colors.Secondary,
				"accent":    cfg.UI.Colors.Accent,
				"text":      cfg.UI.Colors.Text,
				"muted":     cfg.UI.Colors.Muted,
				"error":     cfg.UI.Colors.Error,
				"success":   cfg.UI.Colors.Success,
			},
		},
		"keys": map[string]any{
			"bindings": map[string]any{
				"quit":       cfg.Keys.Bindings.Quit,
				"refresh":    cfg.Keys.Bindings.Refresh,
				"search":     cfg.Keys.Bindings.Search,
				"filter":     cfg.Keys.Bindings.Filter,
				"timeline":   cfg.Keys.Bindings.Timeline,
				"open_media": cfg.Keys.Bindings.OpenMedia,
				"back":       cfg.Keys.Bindings.Back,
			},
		},
		"history": map[string]any{
			"enabled": cfg.History.Enabled,
			"path":    cfg.History.Path,
			"size":    cfg.History.Size,
		},
		"media": map[string]any{
			"image":          cfg.Media.Image,
			"video":          cfg.Media.Video,
			"audio":          cfg.Media.Audio,
			"default_opener": cfg.Media.DefaultOpener,
		},
		"log": map[string]any{
			"level": cfg.Log.Level,
			"path":  cfg.Log.Path,
		},
	}
}

// setDefaults registers every leaf key so env overrides and partial files
// merge with the built-in values.
func setDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Load reads configPath, or the default location when it is empty, over the
// built-in defaults. TEXTODON_* environment variables override both.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, "", asMap(defaultConfig()))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TEXTODON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values the feed pipeline depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Instance.URL) == "" {
		return fmt.Errorf("instance.url is required")
	}
	if c.Instance.Limit <= 0 {
		return fmt.Errorf("instance.limit must be positive, got %d", c.Instance.Limit)
	}
	if c.Feed.HTTPTimeout <= 0 {
		return fmt.Errorf("feed.http_timeout must be positive, got %s", c.Feed.HTTPTimeout)
	}
	return nil
}

// DefaultDir is the directory searched for config.toml.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "textodon")
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.History.Path = expandPath(cfg.History.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

func Save(cfg *Config, path string) error {
	data, err := toml.Marshal(asMap(cfg))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// GenerateDefaultConfig writes the defaults to path.
func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
