package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/core"
	"github.com/spf13/cobra"
)

var (
	validateShow bool
	validateJSON bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Config     string   `json:"config"`
	Configured bool     `json:"configured"`
	Webhook    string   `json:"webhook,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate mpbot configuration file",
	Long: `Validate the mpbot configuration file without starting the service.

This command checks:
  - YAML syntax and environment variables
  - MessengerPeople credentials
  - Webhook server settings
  - Security whitelist

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	Run: func(cmd *cobra.Command, args []string) {
		result, cfg := validateFile(configFile)

		if validateShow && cfg != nil {
			showConfig(cmd.OutOrStdout(), cfg)
		}

		outputValidationResult(cmd.OutOrStdout(), result, validateJSON)

		if !result.Valid {
			os.Exit(1)
		}
	},
}

// validateFile loads path and collects errors and warnings
func validateFile(path string) (ValidationResult, *core.Config) {
	cfg, err := core.LoadConfig(path)
	if err != nil {
		return ValidationResult{
			Valid:  false,
			Config: path,
			Errors: []string{err.Error()},
		}, nil
	}

	result := ValidationResult{
		Valid:      true,
		Config:     path,
		Configured: bot.NewMessengerPeopleDriver(cfg.DriverConfig()).IsConfigured(),
		Webhook:    fmt.Sprintf(":%d%s", cfg.WebhookServer.Port, cfg.WebhookServer.Path),
	}

	if !result.Configured {
		result.Valid = false
		result.Errors = append(result.Errors, "messengerpeople.client_id and messengerpeople.client_secret are required")
	}
	result.Warnings = validateConfigDetails(cfg)

	return result, cfg
}

func validateConfigDetails(cfg *core.Config) []string {
	var warnings []string

	if !cfg.Security.WhitelistEnabled {
		warnings = append(warnings, "Whitelist is disabled - every sender can talk to the bot")
	}
	if cfg.MessengerPeople.NumberID == "" {
		warnings = append(warnings, "messengerpeople.number_id is empty - replies to events without recipient will have no identifier prefix")
	}

	return warnings
}

func showConfig(w io.Writer, cfg *core.Config) {
	fmt.Fprintf(w, "Webhook server: :%d%s\n", cfg.WebhookServer.Port, cfg.WebhookServer.Path)
	fmt.Fprintf(w, "MessengerPeople:\n")
	fmt.Fprintf(w, "  - client_id: %s\n", maskOrEmpty(cfg.MessengerPeople.ClientID))
	fmt.Fprintf(w, "  - client_secret: %s\n", maskOrEmpty(cfg.MessengerPeople.ClientSecret))
	fmt.Fprintf(w, "  - number_id: %s\n", cfg.MessengerPeople.NumberID)
	if cfg.MessengerPeople.APIURL != "" {
		fmt.Fprintf(w, "  - api_url: %s\n", cfg.MessengerPeople.APIURL)
	}
	if cfg.MessengerPeople.AuthURL != "" {
		fmt.Fprintf(w, "  - auth_url: %s\n", cfg.MessengerPeople.AuthURL)
	}
	fmt.Fprintf(w, "Allowed senders (%d)\n", len(cfg.Security.AllowedSenders))
	fmt.Fprintf(w, "Log level: %s\n\n", cfg.Logging.Level)
}

func maskOrEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return bot.MaskSecret(s)
}

func outputValidationResult(w io.Writer, result ValidationResult, jsonFormat bool) {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			fmt.Fprintf(w, "{\"error\": \"failed to marshal json: %v\"}\n", err)
			return
		}
		fmt.Fprintln(w, string(output))
		return
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ Configuration is valid")
		fmt.Fprintf(w, "  - Config: %s\n", result.Config)
		fmt.Fprintf(w, "  - Webhook: %s\n", result.Webhook)
	} else {
		fmt.Fprintln(w, "❌ Configuration validation failed:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", errMsg)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\n⚠️  Warnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}

func init() {
	validateCmd.Flags().BoolVar(&validateShow, "show", false, "Show configuration details")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
