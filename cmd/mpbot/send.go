package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/spf13/cobra"
)

// sendOptions describes a message sent from the command line
type sendOptions struct {
	Recipient string // empty uses number_id
	Sender    string
	Text      string
	RawJSON   string // raw platform payload, replaces Text
	ExtraJSON string // additional parameters merged into the payload
	DryRun    bool
}

var sendOpts sendOptions

var sendCmd = &cobra.Command{
	Use:   "send [flags] <text>",
	Short: "Send a message without an inbound event",
	Long: `Build a MessengerPeople service payload and post it to the messages API.

Examples:
  mpbot send --sender 4915112345678 "Hello from mpbot"
  mpbot send --sender 4915112345678 --to 4930123456 "Hello"
  mpbot send --sender 4915112345678 --raw '{"type":"image","url":"https://example.com/a.png"}'
  mpbot send --sender 4915112345678 --dry-run "Preview only"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := sendOpts
		opts.Text = strings.Join(args, " ")

		_, driver, err := loadDriver(configFile)
		if err != nil {
			return err
		}
		return runSend(cmd.Context(), cmd.OutOrStdout(), driver, opts)
	},
}

var requestData string

var requestCmd = &cobra.Command{
	Use:   "request <endpoint>",
	Short: "Post raw parameters to a MessengerPeople API endpoint",
	Long: `Post JSON parameters to any MessengerPeople API endpoint with a fresh token.

Example:
  mpbot request media --data '{"url":"https://example.com/a.png"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, driver, err := loadDriver(configFile)
		if err != nil {
			return err
		}
		return runRequest(cmd.Context(), cmd.OutOrStdout(), driver, args[0], requestData)
	},
}

// buildOutgoing picks the outgoing variant for opts
func buildOutgoing(opts sendOptions) (bot.Outgoing, map[string]any, error) {
	var additional map[string]any
	if opts.ExtraJSON != "" {
		if err := json.Unmarshal([]byte(opts.ExtraJSON), &additional); err != nil {
			return nil, nil, fmt.Errorf("invalid --extra JSON: %w", err)
		}
	}

	if opts.RawJSON != "" {
		var fields bot.Fields
		if err := json.Unmarshal([]byte(opts.RawJSON), &fields); err != nil {
			return nil, nil, fmt.Errorf("invalid --raw JSON: %w", err)
		}
		return fields, additional, nil
	}

	if strings.TrimSpace(opts.Text) == "" {
		return nil, nil, bot.ErrEmptyOutgoing
	}
	return bot.Text(opts.Text), additional, nil
}

func runSend(ctx context.Context, out io.Writer, driver bot.Driver, opts sendOptions) error {
	if opts.Sender == "" {
		return fmt.Errorf("--sender is required")
	}

	outgoing, additional, err := buildOutgoing(opts)
	if err != nil {
		return err
	}

	match := bot.IncomingMessage{Sender: opts.Sender, Recipient: opts.Recipient}
	payload, err := driver.BuildServicePayload(outgoing, match, additional)
	if err != nil {
		return err
	}

	if opts.DryRun {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	resp, err := driver.SendPayload(ctx, payload)
	if err != nil {
		return err
	}
	return printResponse(out, resp)
}

func runRequest(ctx context.Context, out io.Writer, driver bot.Driver, endpoint, data string) error {
	params := map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &params); err != nil {
			return fmt.Errorf("invalid --data JSON: %w", err)
		}
	}

	resp, err := driver.SendRequest(ctx, endpoint, params, bot.IncomingMessage{})
	if err != nil {
		return err
	}
	return printResponse(out, resp)
}

// printResponse writes status and body; 4xx and 5xx are returned as errors
func printResponse(out io.Writer, resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	fmt.Fprintf(out, "%s\n", resp.Status)
	if len(body) > 0 {
		fmt.Fprintln(out, string(body))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func init() {
	sendCmd.Flags().StringVar(&sendOpts.Recipient, "to", "", "Recipient number id (default: messengerpeople.number_id)")
	sendCmd.Flags().StringVar(&sendOpts.Sender, "sender", "", "Sender id the message is addressed to")
	sendCmd.Flags().StringVar(&sendOpts.RawJSON, "raw", "", "Raw platform payload as JSON")
	sendCmd.Flags().StringVar(&sendOpts.ExtraJSON, "extra", "", "Additional payload parameters as JSON")
	sendCmd.Flags().BoolVar(&sendOpts.DryRun, "dry-run", false, "Print the payload instead of sending it")

	requestCmd.Flags().StringVar(&requestData, "data", "", "Request parameters as JSON")
}
