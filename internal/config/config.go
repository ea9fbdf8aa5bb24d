package config

import "time"

// Config holds client configuration values.
type Config struct {
	// APIBaseURL is the REST base path of the school ERP backend, including /api.
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`
	// WSURL is the realtime endpoint; userId/roomId are appended as query params.
	WSURL          string        `mapstructure:"ws_url" yaml:"ws_url"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	SessionPath    string        `mapstructure:"session_path" yaml:"session_path"`
	DemoFallback   bool          `mapstructure:"demo_fallback" yaml:"demo_fallback"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`

	// Mongo settings are used only by the seed-admin command.
	MongoURI      string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		APIBaseURL:     "http://localhost:8090/api",
		WSURL:          "ws://localhost:8090/ws",
		LogLevel:       "info",
		HTTPTimeout:    15 * time.Second,
		SessionPath:    "commhub-session.db",
		DemoFallback:   true,
		ReconnectDelay: 5 * time.Second,
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "chatterbloom",
	}
}
