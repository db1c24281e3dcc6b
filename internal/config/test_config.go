package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Instance.URL = "http://127.0.0.1"
	cfg.Feed.HTTPTimeout = 5 * time.Second
	cfg.Feed.UserAgent = "textodon-test/1.0"
	cfg.UI.MarkdownStyle = "notty"
	cfg.History.Enabled = false
	cfg.History.Path = ""
	cfg.Log.Level = "off"
	cfg.Log.Path = ""
	return cfg
}
