package main

import (
	"fmt"
	"os"

	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/core"
	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "mpbot",
	Short: "mpbot is a MessengerPeople webhook bot",
	Long: `mpbot receives MessengerPeople webhook events, verifies the platform
handshake, hands chat messages to bot logic and sends the replies through
the MessengerPeople messages API.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(requestCmd)
}

// loadDriver loads the configuration, initializes logging and builds the driver
func loadDriver(path string) (*core.Config, *bot.MessengerPeopleDriver, error) {
	config, err := core.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(config.LoggerConfig()); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"config_file": path,
		"log_level":   config.Logging.Level,
		"log_file":    config.Logging.File,
	}).Debug("logger-initialized")

	driver := bot.NewMessengerPeopleDriver(config.DriverConfig())
	if !driver.IsConfigured() {
		return nil, nil, bot.ErrNotConfigured
	}

	return config, driver, nil
}
