package core

// Config represents the complete mpbot configuration structure
type Config struct {
	WebhookServer   WebhookServerConfig   `yaml:"webhook_server"`
	MessengerPeople MessengerPeopleConfig `yaml:"messengerpeople"`
	Security        SecurityConfig        `yaml:"security"`
	Logging         LoggingConfig         `yaml:"logging"`
}

// WebhookServerConfig represents the HTTP webhook server configuration
type WebhookServerConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"` // route receiving platform events (default: /webhook)
}

// MessengerPeopleConfig represents the platform credentials
type MessengerPeopleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	NumberID     string `yaml:"number_id"` // fallback recipient when an event has none
	APIURL       string `yaml:"api_url"`   // optional override, e.g. a sandbox
	AuthURL      string `yaml:"auth_url"`  // optional override of the token endpoint
}

// SecurityConfig represents access control configuration
type SecurityConfig struct {
	WhitelistEnabled bool     `yaml:"whitelist_enabled"`
	AllowedSenders   []string `yaml:"allowed_senders"`
	Admins           []string `yaml:"admins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	File         string `yaml:"file"`          // Log file path
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB (default: 100)
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep (default: 5)
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain (default: 30)
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs
	EnableStdout bool   `yaml:"enable_stdout"` // Also output to stdout
}
