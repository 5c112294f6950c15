// Package core runs the webhook server and dispatches MessengerPeople events to bot logic.
//
// # Main Components
//
//   - Config: YAML configuration with ${VAR} expansion
//   - Engine: webhook handling, whitelist checks and reply delivery
//   - Handler: the bot logic invoked for every accepted message
//
// # Example Configuration
//
//   webhook_server:
//     port: 8080
//     path: "/webhook"
//   messengerpeople:
//     client_id: "${MP_CLIENT_ID}"
//     client_secret: "${MP_CLIENT_SECRET}"
//     number_id: "4930123456"
//   security:
//     whitelist_enabled: true
//     allowed_senders:
//       - "4915112345678"
//   logging:
//     level: info
//
package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/keepmind9/mpbot/pkg/constants"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel      = "info"
	DefaultLogMaxBackups = 5
)

// LoadConfig loads configuration from file and expands environment variables.
// A .env file next to the working directory is loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data
func ParseConfig(data []byte) (*Config, error) {
	expandedData, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadDotEnv loads variables from path without overriding the environment
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		logger.WithField("file", path).Debug("dotenv-loaded")
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// validateConfig applies defaults and checks the configuration
func validateConfig(config *Config) error {
	if config.WebhookServer.Port == 0 {
		config.WebhookServer.Port = constants.DefaultWebhookPort
	}
	if config.WebhookServer.Port < 0 || config.WebhookServer.Port > 65535 {
		return fmt.Errorf("webhook_server.port out of range: %d", config.WebhookServer.Port)
	}
	if config.WebhookServer.Path == "" {
		config.WebhookServer.Path = constants.DefaultWebhookPath
	}
	if !strings.HasPrefix(config.WebhookServer.Path, "/") {
		config.WebhookServer.Path = "/" + config.WebhookServer.Path
	}

	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}
	if config.Logging.File == "" {
		config.Logging.EnableStdout = true
	}

	if config.Security.WhitelistEnabled && len(config.Security.AllowedSenders) == 0 {
		return fmt.Errorf("security.allowed_senders cannot be empty when whitelist is enabled")
	}

	return nil
}

// DriverConfig returns the read-only driver configuration
func (c *Config) DriverConfig() bot.Config {
	return bot.Config{
		ClientID:     c.MessengerPeople.ClientID,
		ClientSecret: c.MessengerPeople.ClientSecret,
		NumberID:     c.MessengerPeople.NumberID,
		APIURL:       c.MessengerPeople.APIURL,
		AuthURL:      c.MessengerPeople.AuthURL,
	}
}

// LoggerConfig returns the logger configuration
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:        c.Logging.Level,
		File:         c.Logging.File,
		MaxSize:      c.Logging.MaxSize,
		MaxBackups:   c.Logging.MaxBackups,
		MaxAge:       c.Logging.MaxAge,
		Compress:     c.Logging.Compress,
		EnableStdout: c.Logging.EnableStdout,
	}
}

// IsSenderAuthorized checks if a sender is in the whitelist
func (c *Config) IsSenderAuthorized(sender string) bool {
	if !c.Security.WhitelistEnabled {
		return true
	}
	return slices.Contains(c.Security.AllowedSenders, sender)
}

// IsAdmin checks if a sender is an admin
func (c *Config) IsAdmin(sender string) bool {
	return slices.Contains(c.Security.Admins, sender)
}
