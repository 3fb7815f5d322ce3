package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomity/research-server-go/internal/sse"
)

func TestEventsHandlerRequiresAuth(t *testing.T) {
	h := NewEventsHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendRawEvent(t *testing.T) {
	h := NewEventsHandler(nil, nil)
	rec := httptest.NewRecorder()

	data, err := json.Marshal(map[string]string{"company_key": "acme-ab"})
	require.NoError(t, err)

	err = h.sendRawEvent(rec, rec, sse.Event{Type: sse.EventReservationExpired, Data: data})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "event: reservation_expired\n")
	assert.Contains(t, body, `data: {"company_key":"acme-ab"}`)
	assert.True(t, rec.Flushed)
}

func TestSendEventMarshalsData(t *testing.T) {
	h := NewEventsHandler(nil, nil)
	rec := httptest.NewRecorder()

	err := h.sendEvent(rec, rec, "connected", map[string]any{"researcherId": "res-1"})
	require.NoError(t, err)

	assert.Contains(t, rec.Body.String(), "event: connected\n")
	assert.Contains(t, rec.Body.String(), `"researcherId":"res-1"`)
}
