package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/keepmind9/mpbot/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// platformStub fakes the MessengerPeople token and messages endpoints
type platformStub struct {
	server    *httptest.Server
	mu        sync.Mutex
	sent      []map[string]any
	apiStatus int
	statuses  []int // per-call statuses, apiStatus once exhausted
}

func newPlatformStub(t *testing.T) *platformStub {
	t.Helper()
	p := &platformStub{apiStatus: http.StatusCreated}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"stub-token-1234567","token_type":"Bearer"}`)
	})
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.sent = append(p.sent, body)
		status := p.apiStatus
		if len(p.statuses) > 0 {
			status, p.statuses = p.statuses[0], p.statuses[1:]
		}
		p.mu.Unlock()
		w.WriteHeader(status)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *platformStub) sentPayloads() []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]map[string]any(nil), p.sent...)
}

func newTestEngine(t *testing.T, p *platformStub, config *Config, handler Handler) *Engine {
	t.Helper()
	if config == nil {
		config = &Config{}
	}
	require.NoError(t, validateConfig(config))
	config.MessengerPeople = MessengerPeopleConfig{
		ClientID:     "client-id-123456",
		ClientSecret: "client-secret-123456",
		NumberID:     "number-1",
		APIURL:       p.server.URL,
		AuthURL:      p.server.URL + "/token",
	}
	driver := bot.NewMessengerPeopleDriver(config.DriverConfig(), bot.WithHTTPClient(p.server.Client()))
	if handler == nil {
		handler = NewCommandHandler(config)
	}
	return NewEngine(config, driver, handler)
}

func postWebhook(t *testing.T, e *Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.Router().ServeHTTP(rec, req)
	return rec
}

func TestEngine_Webhook_Challenge(t *testing.T) {
	p := newPlatformStub(t)
	called := false
	e := newTestEngine(t, p, nil, HandlerFunc(func(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error) {
		called = true
		return nil, nil
	}))

	rec := postWebhook(t, e, `{"challenge":"abc","verification_token":"xyz"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"challenge":"abc"}`, rec.Body.String())
	assert.False(t, called)
	assert.Empty(t, p.sentPayloads())
}

func TestEngine_Webhook_MessageIsAnswered(t *testing.T) {
	p := newPlatformStub(t)
	e := newTestEngine(t, p, nil, nil)

	rec := postWebhook(t, e, `{
		"messenger_id": "m-1",
		"outgoing": false,
		"sender": "S",
		"recipient": "R",
		"payload": {"text": "ping", "user": {"id": "u-1", "name": "Alice"}}
	}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	sent := p.sentPayloads()
	require.Len(t, sent, 1)
	assert.Equal(t, "R:S", sent[0]["identifier"])
	assert.Equal(t, map[string]any{"type": "text", "text": "pong"}, sent[0]["payload"])
}

func TestEngine_Webhook_FallbackRecipient(t *testing.T) {
	p := newPlatformStub(t)
	e := newTestEngine(t, p, nil, nil)

	rec := postWebhook(t, e, `{"messenger_id":"m-1","outgoing":false,"sender":"S","payload":{"text":"hello"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	sent := p.sentPayloads()
	require.Len(t, sent, 1)
	assert.Equal(t, "number-1:S", sent[0]["identifier"])
}

func TestEngine_Webhook_IgnoredEvents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"outgoing echo", `{"messenger_id":"m-1","outgoing":true,"sender":"S","payload":{"text":"hi"}}`},
		{"foreign body", `{"type":"message","text":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlatformStub(t)
			e := newTestEngine(t, p, nil, nil)

			rec := postWebhook(t, e, tt.body)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, p.sentPayloads())
		})
	}
}

func TestEngine_Webhook_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"invalid json", `{not json`},
		{"missing text", `{"messenger_id":"m-1","outgoing":false,"sender":"S","payload":{}}`},
		{"missing payload", `{"messenger_id":"m-1","outgoing":false,"sender":"S"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlatformStub(t)
			e := newTestEngine(t, p, nil, nil)

			rec := postWebhook(t, e, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, p.sentPayloads())
		})
	}
}

func TestEngine_Webhook_ChallengeWithoutTokenIsNotAnswered(t *testing.T) {
	p := newPlatformStub(t)
	e := newTestEngine(t, p, nil, nil)

	rec := postWebhook(t, e, `{"challenge":"abc"}`)

	// Matched by the classifier but carries no message text.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"challenge"`)
}

func TestEngine_Webhook_Whitelist(t *testing.T) {
	p := newPlatformStub(t)
	config := &Config{Security: SecurityConfig{WhitelistEnabled: true, AllowedSenders: []string{"allowed"}}}
	e := newTestEngine(t, p, config, nil)

	rec := postWebhook(t, e, `{"messenger_id":"m","outgoing":false,"sender":"stranger","recipient":"R","payload":{"text":"hi"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.sentPayloads())

	rec = postWebhook(t, e, `{"messenger_id":"m","outgoing":false,"sender":"allowed","recipient":"R","payload":{"text":"hi"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, p.sentPayloads(), 1)
}

func TestEngine_Webhook_DispatchFailures(t *testing.T) {
	body := `{"messenger_id":"m","outgoing":false,"sender":"S","recipient":"R","payload":{"text":"hi"}}`

	t.Run("handler error", func(t *testing.T) {
		p := newPlatformStub(t)
		e := newTestEngine(t, p, nil, HandlerFunc(func(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error) {
			return nil, errors.New("boom")
		}))

		rec := postWebhook(t, e, body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("platform rejects reply", func(t *testing.T) {
		p := newPlatformStub(t)
		p.apiStatus = http.StatusUnprocessableEntity
		e := newTestEngine(t, p, nil, nil)

		rec := postWebhook(t, e, body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Len(t, p.sentPayloads(), 1)
	})
}

func TestEngine_Webhook_PartialDeliveryIsAcknowledged(t *testing.T) {
	p := newPlatformStub(t)
	p.statuses = []int{http.StatusCreated, http.StatusInternalServerError}
	e := newTestEngine(t, p, nil, HandlerFunc(func(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error) {
		return []Reply{{Message: bot.Text("one")}, {Message: bot.Text("two")}, {Message: bot.Text("three")}}, nil
	}))

	rec := postWebhook(t, e, `{"messenger_id":"m","outgoing":false,"sender":"S","recipient":"R","payload":{"text":"hi"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, p.sentPayloads(), 2)
}

func TestEngine_Webhook_BodyTooLarge(t *testing.T) {
	p := newPlatformStub(t)
	e := newTestEngine(t, p, nil, nil)

	text := strings.Repeat("a", int(constants.MaxWebhookBodySize))
	rec := postWebhook(t, e, `{"messenger_id":"m","outgoing":false,"sender":"S","payload":{"text":"`+text+`"}}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, p.sentPayloads())
}

// botDriver reports every inbound message as coming from a bot
type botDriver struct {
	bot.Driver
}

func (botDriver) IsBot() bool { return true }

func TestEngine_Webhook_BotMessagesIgnored(t *testing.T) {
	p := newPlatformStub(t)
	e := newTestEngine(t, p, nil, nil)
	e = NewEngine(e.config, botDriver{Driver: e.driver}, e.handler)

	rec := postWebhook(t, e, `{"messenger_id":"m","outgoing":false,"sender":"S","recipient":"R","payload":{"text":"ping"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.sentPayloads())
}

func TestEngine_Dispatch_AdditionalParameters(t *testing.T) {
	p := newPlatformStub(t)
	e := newTestEngine(t, p, nil, HandlerFunc(func(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error) {
		return []Reply{
			{Message: bot.Text("first")},
			{Message: bot.Fields{"type": "image", "url": "https://x/y.png"}, Additional: map[string]any{"caption": "pic"}},
		}, nil
	}))

	sent, err := e.Dispatch(context.Background(), bot.IncomingMessage{Text: "hi", Sender: "S", Recipient: "R"})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	payloads := p.sentPayloads()
	require.Len(t, payloads, 2)
	assert.Equal(t, map[string]any{"type": "text", "text": "first"}, payloads[0]["payload"])
	assert.Equal(t, map[string]any{"type": "image", "url": "https://x/y.png", "caption": "pic"}, payloads[1]["payload"])
}

func TestEngine_Healthz(t *testing.T) {
	p := newPlatformStub(t)
	e := newTestEngine(t, p, nil, nil)

	rec := httptest.NewRecorder()
	e.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","driver":"MessengerPeople","configured":true}`, rec.Body.String())
}

func TestEngine_Run_NotConfigured(t *testing.T) {
	config := &Config{}
	require.NoError(t, validateConfig(config))
	e := NewEngine(config, bot.NewMessengerPeopleDriver(bot.Config{}), NewCommandHandler(config))

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, bot.ErrNotConfigured)
}

func TestEngine_Run_StopsOnCancel(t *testing.T) {
	p := newPlatformStub(t)
	config := &Config{WebhookServer: WebhookServerConfig{Port: freePort(t)}}
	e := newTestEngine(t, p, config, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l := httptest.NewServer(http.NotFoundHandler())
	defer l.Close()
	return l.Listener.Addr().(*net.TCPAddr).Port
}
