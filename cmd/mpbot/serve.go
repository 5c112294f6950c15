package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/core"
	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveValidateOnly bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  "Start the webhook server, answer MessengerPeople handshakes and reply to incoming messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, driver, err := loadDriver(configFile)
		if err != nil {
			return err
		}

		if serveValidateOnly {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration is valid: %s\n", configFile)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Starting mpbot with config: %s\n", configFile)
		fmt.Fprintf(cmd.OutOrStdout(), "Webhook: :%d%s\n", config.WebhookServer.Port, config.WebhookServer.Path)
		fmt.Fprintf(cmd.OutOrStdout(), "Whitelist enabled: %v\n", config.Security.WhitelistEnabled)

		logger.WithFields(logrus.Fields{
			"client_id": bot.MaskSecret(config.MessengerPeople.ClientID),
			"number_id": config.MessengerPeople.NumberID,
		}).Info("starting-messengerpeople-driver")

		if !config.Security.WhitelistEnabled {
			logger.Warn("whitelist-disabled-all-senders-allowed")
		}

		engine := core.NewEngine(config, driver, core.NewCommandHandler(config))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := engine.Run(ctx); err != nil {
			return fmt.Errorf("engine error: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "mpbot stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveValidateOnly, "validate", false, "Validate configuration and exit")
}
