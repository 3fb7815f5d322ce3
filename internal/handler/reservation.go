package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atomity/research-server-go/internal/audit"
	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/middleware"
	"github.com/atomity/research-server-go/internal/service"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(reservationService *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

func (h *ReservationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Reserve)
	r.Get("/current", h.Current)
	r.Post("/{companyKey}/keep-alive", h.KeepAlive)
	r.Delete("/{companyKey}", h.Release)

	return r
}

type reserveRequest struct {
	CompanyName string `json:"company_name" validate:"required,min=2"`
}

// POST /v1/reserve
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())

	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, apperrors.InvalidInput("company_name", "must be at least 2 characters"))
		return
	}

	result, err := h.reservationService.Reserve(r.Context(), researcher.ID, req.CompanyName)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeCompanyReserved {
			audit.LogFromRequest(r, audit.Event{
				Type:         audit.EventReservationConflict,
				ResearcherID: researcher.ID,
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:         audit.EventReservationClaim,
		ResearcherID: researcher.ID,
		CompanyKey:   result.Reservation.CompanyKey,
	})

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// GET /v1/reserve/current
func (h *ReservationHandler) Current(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())

	reservation, err := h.reservationService.Current(r.Context(), researcher.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if reservation == nil {
		writeJSON(w, http.StatusOK, map[string]any{"reservation": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reservation": reservation})
}

// POST /v1/reserve/{companyKey}/keep-alive
func (h *ReservationHandler) KeepAlive(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())
	companyKey := chi.URLParam(r, "companyKey")

	reservation, err := h.reservationService.KeepAlive(r.Context(), researcher.ID, companyKey)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reservation": reservation})
}

// DELETE /v1/reserve/{companyKey}
func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())
	companyKey := chi.URLParam(r, "companyKey")

	if err := h.reservationService.Release(r.Context(), researcher.ID, companyKey); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:         audit.EventReservationRelease,
		ResearcherID: researcher.ID,
		CompanyKey:   companyKey,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Reservation released"})
}
