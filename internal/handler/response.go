package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeError maps AppErrors to their status codes; anything else is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	if !apperrors.IsAppError(err) {
		log.Error().Err(err).Msg("request failed")
	}
	httputil.WriteError(w, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InvalidInput("body", "must be valid JSON")
	}
	return nil
}
