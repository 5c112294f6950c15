package main

import (
	"fmt"

	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/spf13/cobra"
)

var tokenShow bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch a MessengerPeople access token",
	Long: `Request an access token with the configured client credentials.

Useful to check credentials before registering the webhook. The token is
masked unless --show is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, driver, err := loadDriver(configFile)
		if err != nil {
			return err
		}

		token, err := driver.GetAccessToken(cmd.Context())
		if err != nil {
			return err
		}

		if !tokenShow {
			token = bot.MaskSecret(token)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().BoolVar(&tokenShow, "show", false, "Print the full token")
}
