package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/middleware"
	"github.com/atomity/research-server-go/internal/service"
	"github.com/atomity/research-server-go/internal/sse"
)

type EventsHandler struct {
	broker    *sse.Broker
	keepAlive *service.KeepAliveRunner
}

func NewEventsHandler(broker *sse.Broker, keepAlive *service.KeepAliveRunner) *EventsHandler {
	return &EventsHandler{
		broker:    broker,
		keepAlive: keepAlive,
	}
}

// GET /v1/events?company_key=
//
// Streams session and reservation events for the signed-in researcher.
// When company_key names a held reservation, a keep-alive runner
// refreshes it every interval for as long as the stream stays open.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())
	if researcher == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(researcher.ID)
	defer h.broker.Unsubscribe(client)

	ctx := r.Context()

	companyKey := r.URL.Query().Get("company_key")
	if companyKey != "" {
		go h.keepAlive.Run(ctx, researcher.ID, companyKey)
	}

	log.Info().
		Str("researcherId", researcher.ID).
		Str("companyKey", companyKey).
		Msg("sse connection established")

	h.sendEvent(w, flusher, "connected", map[string]any{
		"researcherId": researcher.ID,
		"companyKey":   companyKey,
	})

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("researcherId", researcher.ID).
				Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().
				Str("researcherId", researcher.ID).
				Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().
					Str("researcherId", researcher.ID).
					Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
