package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/keepmind9/mpbot/pkg/constants"
	"github.com/sirupsen/logrus"
)

var _ Driver = (*MessengerPeopleDriver)(nil)

// MessengerPeopleDriver implements Driver for the MessengerPeople API
type MessengerPeopleDriver struct {
	config     Config
	httpClient *http.Client
}

// Option configures a MessengerPeopleDriver
type Option func(*MessengerPeopleDriver)

// WithHTTPClient sets the client used for token and API calls
func WithHTTPClient(client *http.Client) Option {
	return func(d *MessengerPeopleDriver) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// NewMessengerPeopleDriver creates a driver; empty URLs fall back to the public endpoints
func NewMessengerPeopleDriver(config Config, opts ...Option) *MessengerPeopleDriver {
	if config.APIURL == "" {
		config.APIURL = constants.DefaultAPIURL
	}
	if config.AuthURL == "" {
		config.AuthURL = constants.DefaultAuthURL
	}
	config.APIURL = strings.TrimRight(config.APIURL, "/")

	d := &MessengerPeopleDriver{
		config:     config,
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the driver name
func (d *MessengerPeopleDriver) Name() string {
	return constants.DriverName
}

// Config returns a copy of the driver configuration
func (d *MessengerPeopleDriver) Config() Config {
	return d.config
}

// MatchesRequest accepts non-outgoing chat events and handshake requests.
// Echoes of our own sent messages carry outgoing=true and are rejected.
func (d *MessengerPeopleDriver) MatchesRequest(ev *InboundEvent) bool {
	if ev == nil {
		return false
	}
	isChatEvent := truthy(ev.MessengerID) && ev.Outgoing != nil && !*ev.Outgoing
	return isChatEvent || truthy(ev.Challenge)
}

// VerifyRequest answers the webhook-registration handshake. It reports false
// when the body lacks either challenge or verification_token.
func (d *MessengerPeopleDriver) VerifyRequest(body []byte) (*Verification, bool) {
	ev, err := ParseEvent(body)
	if err != nil {
		return nil, false
	}
	if !truthy(ev.Challenge) || !truthy(ev.VerificationToken) {
		return nil, false
	}

	logger.WithField("platform", "messengerpeople").Info("messengerpeople-webhook-challenge-answered")

	return &Verification{
		Success:   true,
		Challenge: ev.Challenge,
	}, true
}

// GetMessages normalizes an inbound event into a single message
func (d *MessengerPeopleDriver) GetMessages(ev *InboundEvent) ([]IncomingMessage, error) {
	if ev == nil {
		return nil, ErrInvalidBody
	}
	if ev.Payload == nil {
		return nil, &ParseError{Field: "payload", Err: ErrMissingText}
	}
	if ev.Payload.Text == nil {
		return nil, &ParseError{Field: "payload.text", Err: ErrMissingText}
	}

	return []IncomingMessage{{
		Text:      *ev.Payload.Text,
		Sender:    ev.Sender,
		Recipient: ev.Recipient,
		Payload:   ev.Raw(),
	}}, nil
}

// GetUser reads payload.user from the message body. A missing user yields
// empty fields rather than an error.
func (d *MessengerPeopleDriver) GetUser(msg IncomingMessage) RemoteUser {
	payload, _ := msg.Payload["payload"].(map[string]any)
	user, _ := payload["user"].(map[string]any)

	id := stringValue(user["id"])
	return RemoteUser{
		ID:          id,
		DisplayName: stringValue(user["name"]),
		Username:    id,
		Info:        user,
	}
}

// GetConversationAnswer wraps a reply to a question
func (d *MessengerPeopleDriver) GetConversationAnswer(msg IncomingMessage) Answer {
	return Answer{
		Text:    msg.Text,
		Value:   msg.Text,
		Message: msg,
	}
}

// IsBot reports whether the incoming message was sent by a bot.
// MessengerPeople only forwards end-user messages.
func (d *MessengerPeopleDriver) IsBot() bool {
	return false
}

// BuildServicePayload translates an outgoing message into the send payload
func (d *MessengerPeopleDriver) BuildServicePayload(out Outgoing, match IncomingMessage, additional map[string]any) (ServicePayload, error) {
	recipient := match.Recipient
	if recipient == "" {
		recipient = d.config.NumberID
	}

	payload := mergeFields(map[string]any{"type": "text"}, additional)

	switch o := out.(type) {
	case nil:
		return ServicePayload{}, ErrEmptyOutgoing
	case *Question:
		if o == nil {
			return ServicePayload{}, ErrEmptyOutgoing
		}
		// Only the text is forwarded.
		payload["text"] = o.Text
		if len(o.Buttons) > 0 {
			logger.WithFields(logrus.Fields{
				"recipient": recipient,
				"buttons":   len(o.Buttons),
			}).Debug("messengerpeople-question-buttons-dropped")
		}
	case *Message:
		if o == nil {
			return ServicePayload{}, ErrEmptyOutgoing
		}
		payload["text"] = o.Text
		if o.Attachment != nil {
			logger.WithFields(logrus.Fields{
				"recipient":       recipient,
				"attachment_type": o.Attachment.Type,
			}).Debug("messengerpeople-message-attachment-dropped")
		}
	case Fields:
		payload = mergeFields(o, additional)
	case Text:
		payload["text"] = string(o)
	default:
		return ServicePayload{}, fmt.Errorf("%w: %T", ErrUnknownOutgoing, out)
	}

	return ServicePayload{
		Identifier: recipient + ":" + match.Sender,
		Payload:    payload,
	}, nil
}

// SendPayload posts a service payload to the messages endpoint
func (d *MessengerPeopleDriver) SendPayload(ctx context.Context, payload ServicePayload) (*http.Response, error) {
	return d.post(ctx, constants.MessagesEndpoint, payload)
}

// SendRequest posts params to an arbitrary API endpoint, e.g. "media"
func (d *MessengerPeopleDriver) SendRequest(ctx context.Context, endpoint string, params map[string]any, match IncomingMessage) (*http.Response, error) {
	endpoint = strings.TrimLeft(endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"sender":   match.Sender,
	}).Debug("messengerpeople-api-request")

	return d.post(ctx, endpoint, params)
}

// IsConfigured reports whether client credentials are set
func (d *MessengerPeopleDriver) IsConfigured() bool {
	return d.config.ClientID != "" && d.config.ClientSecret != ""
}

// post sends body as vendor JSON with a freshly fetched bearer token.
// The response is returned as is; the caller owns resp.Body.
func (d *MessengerPeopleDriver) post(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	token, err := d.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	url := d.config.APIURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", constants.MediaType)
	req.Header.Set("Accept", constants.MediaType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"url":   url,
			"error": err,
		}).Error("messengerpeople-request-failed")
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}

	logger.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode,
		"size":   len(data),
	}).Info("messengerpeople-request-sent")

	return resp, nil
}
