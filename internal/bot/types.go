package bot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBody is returned when a webhook body is not a JSON object
	ErrInvalidBody = errors.New("webhook body is not a JSON object")
	// ErrMissingText is returned when an event carries no payload.text
	ErrMissingText = errors.New("event has no message text")
	// ErrEmptyOutgoing is returned when there is nothing to send
	ErrEmptyOutgoing = errors.New("outgoing message is empty")
	// ErrUnknownOutgoing is returned for Outgoing implementations the driver cannot translate
	ErrUnknownOutgoing = errors.New("unsupported outgoing message type")
	// ErrNotConfigured is returned when client credentials are missing
	ErrNotConfigured = errors.New("messengerpeople client_id and client_secret not configured")
)

// ParseError reports a required field missing from an inbound event
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse event: field %q: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Config holds the driver credentials and endpoints
type Config struct {
	ClientID     string
	ClientSecret string
	NumberID     string // platform number used when an event has no recipient
	APIURL       string // default: constants.DefaultAPIURL
	AuthURL      string // default: constants.DefaultAuthURL
}

// InboundEvent is a read-only view over a parsed webhook body
type InboundEvent struct {
	MessengerID       any
	Outgoing          *bool // nil unless the body carries a JSON boolean
	Challenge         any
	VerificationToken any
	Sender            string
	Recipient         string
	Payload           *EventPayload

	raw map[string]any
}

// Raw returns the full parsed body
func (ev *InboundEvent) Raw() map[string]any {
	return ev.raw
}

// EventPayload is the "payload" object of an inbound event
type EventPayload struct {
	Text *string
	User *EventUser
}

// EventUser is the "payload.user" object of an inbound event
type EventUser struct {
	ID   string
	Name string
}

// IncomingMessage is a platform-agnostic inbound message
type IncomingMessage struct {
	Text      string
	Sender    string
	Recipient string
	Payload   map[string]any // the full request body
}

// RemoteUser is the resolved sender of a message
type RemoteUser struct {
	ID          string
	DisplayName string
	Username    string // same value as ID
	Info        map[string]any
}

// Answer is a conversation answer to a previously asked question
type Answer struct {
	Text    string
	Value   string
	Message IncomingMessage
}

// Verification is the response body for a webhook handshake
type Verification struct {
	Success   bool `json:"success"`
	Challenge any  `json:"challenge"`
}

// ServicePayload is the request body posted to the send endpoint
type ServicePayload struct {
	Identifier string         `json:"identifier"`
	Payload    map[string]any `json:"payload"`
}

// Outgoing is a reply the driver can translate: Text, *Question, *Message or Fields
type Outgoing interface {
	outgoing()
}

// Text is a plain text reply
type Text string

// Button is a choice attached to a Question
type Button struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Question is a text prompt with optional choices
type Question struct {
	Text    string
	Buttons []Button
}

// NewQuestion creates a question with the given choices
func NewQuestion(text string, buttons ...Button) *Question {
	return &Question{Text: text, Buttons: buttons}
}

// Attachment is media attached to a Message
type Attachment struct {
	Type string
	URL  string
}

// Message is a generic outgoing text message
type Message struct {
	Text       string
	Attachment *Attachment
}

// Fields is a raw platform-shaped payload sent as is
type Fields map[string]any

func (Text) outgoing()      {}
func (*Question) outgoing() {}
func (*Message) outgoing()  {}
func (Fields) outgoing()    {}
