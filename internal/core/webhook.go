package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/keepmind9/mpbot/internal/bot"
	"github.com/keepmind9/mpbot/internal/logger"
	"github.com/keepmind9/mpbot/pkg/constants"
	"github.com/sirupsen/logrus"
)

// buildRouter mounts the webhook and health routes
func (e *Engine) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"driver":     e.driver.Name(),
			"configured": e.driver.IsConfigured(),
		})
	})
	r.Post(e.config.WebhookServer.Path, e.handleWebhook)

	return r
}

// handleWebhook handles MessengerPeople webhook requests
//
// This function:
// 1. Reads the raw body (size limited)
// 2. Answers the registration handshake and stops
// 3. Parses and classifies the event; foreign events are acknowledged and ignored
// 4. Normalizes the event into messages
// 5. Checks the sender whitelist
// 6. Dispatches each message to the handler, which sends the replies.
//    Once any reply went out the request is acknowledged even if a later one failed.
func (e *Engine) handleWebhook(w http.ResponseWriter, r *http.Request) {
	deliveryID := uuid.NewString()
	log := logger.Component("webhook").WithFields(logrus.Fields{
		"delivery_id": deliveryID,
		"request_id":  middleware.GetReqID(r.Context()),
	})

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxWebhookBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.WithField("limit", tooLarge.Limit).Warn("webhook-body-too-large")
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.WithField("error", err).Error("failed-to-read-webhook-body")
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if len(data) == 0 {
		log.Warn("empty-webhook-body")
		http.Error(w, "Empty request body", http.StatusBadRequest)
		return
	}

	log.WithField("webhook_data", string(data)).Debug("webhook-data-received")

	if v, ok := e.driver.VerifyRequest(data); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	ev, err := bot.ParseEvent(data)
	if err != nil {
		log.WithField("error", err).Warn("invalid-webhook-body")
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if !e.driver.MatchesRequest(ev) {
		log.Debug("webhook-event-not-matched")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	messages, err := e.driver.GetMessages(ev)
	if err != nil {
		log.WithField("error", err).Warn("failed-to-parse-webhook-event")
		status := http.StatusBadRequest
		if !errors.Is(err, bot.ErrMissingText) {
			status = http.StatusInternalServerError
		}
		http.Error(w, err.Error(), status)
		return
	}

	if e.driver.IsBot() {
		log.Debug("bot-message-ignored")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	for _, msg := range messages {
		msgLog := log.WithFields(logrus.Fields{
			"sender":      msg.Sender,
			"recipient":   msg.Recipient,
			"content_len": len(msg.Text),
		})

		if !e.config.IsSenderAuthorized(msg.Sender) {
			msgLog.Warn("unauthorized-sender-ignored")
			continue
		}

		msgLog.Info("webhook-message-received")

		sent, err := e.Dispatch(r.Context(), msg)
		if err != nil {
			msgLog = msgLog.WithFields(logrus.Fields{"error": err, "sent": sent})
			if sent > 0 {
				// A retry would repeat the replies already delivered.
				msgLog.Warn("partial-reply-delivery")
				continue
			}
			msgLog.Error("failed-to-dispatch-message")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("failed-to-write-response: %v", err)
	}
}
