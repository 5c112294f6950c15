package bot

import (
	"context"
	"fmt"

	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/keepmind9/mpbot/pkg/constants"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenConfig builds the client-credentials grant. Credentials travel as form
// fields, not basic auth.
func (d *MessengerPeopleDriver) tokenConfig() *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     d.config.ClientID,
		ClientSecret: d.config.ClientSecret,
		TokenURL:     d.config.AuthURL,
		Scopes:       constants.TokenScopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
}

// GetAccessToken fetches a new access token. Every call hits the token
// endpoint; tokens are not cached between sends.
func (d *MessengerPeopleDriver) GetAccessToken(ctx context.Context) (string, error) {
	if !d.IsConfigured() {
		return "", ErrNotConfigured
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
	token, err := d.tokenConfig().Token(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"client_id": MaskSecret(d.config.ClientID),
			"auth_url":  d.config.AuthURL,
			"error":     err,
		}).Error("messengerpeople-token-fetch-failed")
		return "", fmt.Errorf("fetch access token: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"client_id": MaskSecret(d.config.ClientID),
		"token":     MaskSecret(token.AccessToken),
	}).Debug("messengerpeople-token-fetched")

	return token.AccessToken, nil
}
