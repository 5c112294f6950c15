package constants

import "time"

// MessengerPeople platform endpoints and protocol values
const (
	// DriverName is the name the driver reports to the host
	DriverName = "MessengerPeople"
	// DefaultAPIURL is the base URL of the MessengerPeople REST API
	DefaultAPIURL = "https://api.messengerpeople.dev"
	// DefaultAuthURL is the OAuth2 token endpoint
	DefaultAuthURL = "https://auth.messengerpeople.dev/token"
	// MediaType is the versioned vendor media type used for Content-Type and Accept
	MediaType = "application/vnd.messengerpeople.v1+json"
	// MessagesEndpoint is the send-message path below the API URL
	MessagesEndpoint = "messages"
)

// TokenScopes are the scopes requested with every client-credentials grant
var TokenScopes = []string{
	"messages:send",
	"messages:read",
	"messages:delete",
	"media:create",
}

// Webhook server defaults
const (
	// DefaultWebhookPort is the port the webhook server listens on
	DefaultWebhookPort = 8080
	// DefaultWebhookPath is the route that receives platform events
	DefaultWebhookPath = "/webhook"
	// MaxWebhookBodySize caps the inbound request body
	MaxWebhookBodySize = 1 << 20
	// ShutdownTimeout bounds graceful server shutdown
	ShutdownTimeout = 5 * time.Second
	// ReadHeaderTimeout protects the webhook server from slow clients
	ReadHeaderTimeout = 10 * time.Second
)

// Outbound HTTP
const (
	// DefaultHTTPTimeout is the timeout of the default outbound HTTP client
	DefaultHTTPTimeout = 30 * time.Second
)

// Message length limits
const (
	// MaxCommandInputLength rejects oversized command input early
	MaxCommandInputLength = 10000
)

// Secret masking
const (
	// MinSecretLengthForMasking is the minimum secret length to apply masking
	MinSecretLengthForMasking = 10
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 4
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)

// Logging defaults
const (
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
