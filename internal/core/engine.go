package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/keepmind9/mpbot/pkg/constants"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Reply is one outgoing message produced by a Handler
type Reply struct {
	Message    bot.Outgoing
	Additional map[string]any // merged into the platform payload
}

// Handler is the bot logic invoked for each accepted message
type Handler interface {
	Handle(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error)

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, msg bot.IncomingMessage, user bot.RemoteUser) ([]Reply, error) {
	return f(ctx, msg, user)
}

// Engine connects the MessengerPeople driver to bot logic
type Engine struct {
	config  *Config
	driver  bot.Driver
	handler Handler
	router  chi.Router
	server  *http.Server
}

// NewEngine creates a new engine instance
func NewEngine(config *Config, driver bot.Driver, handler Handler) *Engine {
	e := &Engine{
		config:  config,
		driver:  driver,
		handler: handler,
	}
	e.router = e.buildRouter()
	return e
}

// Router returns the HTTP handler serving the webhook
func (e *Engine) Router() chi.Router {
	return e.router
}

// Run serves the webhook until ctx is cancelled or the listener fails
func (e *Engine) Run(ctx context.Context) error {
	if !e.driver.IsConfigured() {
		return fmt.Errorf("driver %s: %w", e.driver.Name(), bot.ErrNotConfigured)
	}

	addr := fmt.Sprintf(":%d", e.config.WebhookServer.Port)
	e.server = &http.Server{
		Addr:              addr,
		Handler:           e.router,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	logger.WithFields(logrus.Fields{
		"address": addr,
		"path":    e.config.WebhookServer.Path,
		"driver":  e.driver.Name(),
	}).Info("webhook-server-listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return e.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	logger.Info("webhook-server-stopped")
	return err
}

// Dispatch runs the handler for msg and delivers its replies. It returns the
// number of replies delivered; delivery stops at the first failed reply.
func (e *Engine) Dispatch(ctx context.Context, msg bot.IncomingMessage) (int, error) {
	user := e.driver.GetUser(msg)

	replies, err := e.handler.Handle(ctx, msg, user)
	if err != nil {
		return 0, fmt.Errorf("handle message: %w", err)
	}

	for i, reply := range replies {
		if err := e.Reply(ctx, reply.Message, msg, reply.Additional); err != nil {
			return i, err
		}
	}
	return len(replies), nil
}

// Reply translates and sends one outgoing message in answer to match
func (e *Engine) Reply(ctx context.Context, out bot.Outgoing, match bot.IncomingMessage, additional map[string]any) error {
	payload, err := e.driver.BuildServicePayload(out, match, additional)
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	resp, err := e.driver.SendPayload(ctx, payload)
	if err != nil {
		return fmt.Errorf("send payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Component("engine").WithFields(logrus.Fields{
			"identifier": payload.Identifier,
			"status":     resp.StatusCode,
			"body":       string(body),
		}).Error("reply-rejected-by-platform")
		return fmt.Errorf("send payload: unexpected status %d", resp.StatusCode)
	}

	logger.Component("engine").WithFields(logrus.Fields{
		"identifier": payload.Identifier,
		"status":     resp.StatusCode,
	}).Info("reply-sent")
	return nil
}
