// Package bot provides the MessengerPeople driver for the bot engine.
//
// The driver adapts MessengerPeople's webhook events and send-message API to a
// platform-agnostic shape. It does not own a connection: the webhook server in
// package core hands it raw request bodies, and replies go out as one
// authenticated HTTP POST per message.
//
// # Request Flow
//
//   1. VerifyRequest answers the webhook-registration handshake
//   2. ParseEvent and MatchesRequest decide whether a body is a real inbound event
//   3. GetMessages normalizes the event into IncomingMessage values
//   4. BuildServicePayload translates a reply into the platform payload
//   5. SendPayload fetches a fresh access token and posts the payload
//
// Example:
//
//   driver := bot.NewMessengerPeopleDriver(bot.Config{
//       ClientID:     clientID,
//       ClientSecret: clientSecret,
//       NumberID:     numberID,
//   })
//   ev, err := bot.ParseEvent(body)
//   if err != nil {
//       return err
//   }
//   if driver.MatchesRequest(ev) {
//       msgs, err := driver.GetMessages(ev)
//       ...
//       payload, err := driver.BuildServicePayload(bot.Text("hello"), msgs[0], nil)
//       ...
//       resp, err := driver.SendPayload(ctx, payload)
//   }
//
// # Thread Safety
//
// The driver holds only read-only configuration and an *http.Client, so a
// single instance may serve concurrent webhook requests.
//
package bot

import (
	"context"
	"net/http"
)

// Driver defines the operations a host needs from a chat platform driver
type Driver interface {
	// Name returns the driver name
	Name() string

	// MatchesRequest reports whether the event belongs to this driver
	MatchesRequest(ev *InboundEvent) bool

	// VerifyRequest answers a platform handshake; ok is false when the body is not one
	VerifyRequest(body []byte) (v *Verification, ok bool)

	// GetMessages normalizes an inbound event
	GetMessages(ev *InboundEvent) ([]IncomingMessage, error)

	// GetUser resolves the sender of a message, best effort
	GetUser(msg IncomingMessage) RemoteUser

	// GetConversationAnswer wraps a message replying to a question
	GetConversationAnswer(msg IncomingMessage) Answer

	// IsBot reports whether inbound messages come from a bot account
	IsBot() bool

	// BuildServicePayload translates an outgoing message into the platform payload.
	// No I/O is performed.
	BuildServicePayload(out Outgoing, match IncomingMessage, additional map[string]any) (ServicePayload, error)

	// SendPayload posts a service payload to the send endpoint
	SendPayload(ctx context.Context, payload ServicePayload) (*http.Response, error)

	// SendRequest posts arbitrary parameters to an API endpoint
	SendRequest(ctx context.Context, endpoint string, params map[string]any, match IncomingMessage) (*http.Response, error)

	// GetAccessToken fetches a fresh bearer token
	GetAccessToken(ctx context.Context) (string, error)

	// IsConfigured reports whether credentials are present
	IsConfigured() bool
}
