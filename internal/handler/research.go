package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atomity/research-server-go/internal/audit"
	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/middleware"
	"github.com/atomity/research-server-go/internal/model"
	"github.com/atomity/research-server-go/internal/service"
)

type ResearchHandler struct {
	researchService *service.ResearchService
}

func NewResearchHandler(researchService *service.ResearchService) *ResearchHandler {
	return &ResearchHandler{researchService: researchService}
}

func (h *ResearchHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.LoadState)
	r.Post("/advance", h.Advance)
	r.Post("/back", h.Back)
	r.Put("/draft", h.SaveDraft)
	r.Post("/tags", h.AddTag)
	r.Delete("/tags/{field}/{index}", h.RemoveTag)
	r.Post("/submit", h.Submit)

	return r
}

func companyKeyParam(r *http.Request) (string, error) {
	companyKey := r.URL.Query().Get("company_key")
	if companyKey == "" {
		return "", apperrors.MissingRequired("company_key")
	}
	return companyKey, nil
}

// GET /v1/research?company_key=
func (h *ResearchHandler) LoadState(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())

	companyKey, err := companyKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	state, err := h.researchService.LoadState(r.Context(), researcher.ID, companyKey)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

type stepRequest struct {
	Step model.Step         `json:"step"`
	Form model.ResearchForm `json:"form"`
}

// POST /v1/research/advance?company_key=
func (h *ResearchHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.researchService.Advance)
}

// POST /v1/research/back?company_key=
func (h *ResearchHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.researchService.Back)
}

type transitionFunc func(ctx context.Context, researcherID, companyKey string, step model.Step, form *model.ResearchForm) (*service.AdvanceResult, error)

func (h *ResearchHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	researcher := middleware.GetResearcher(r.Context())

	companyKey, err := companyKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := fn(r.Context(), researcher.ID, companyKey, req.Step, &req.Form)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PUT /v1/research/draft?company_key=
func (h *ResearchHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())

	companyKey, err := companyKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.researchService.SaveDraft(r.Context(), researcher.ID, companyKey, req.Step, &req.Form); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Draft saved"})
}

type tagRequest struct {
	Field string `json:"field" validate:"required"`
	Token string `json:"token"`
}

// POST /v1/research/tags?company_key=
func (h *ResearchHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())

	companyKey, err := companyKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, apperrors.MissingRequired("field"))
		return
	}

	draft, err := h.researchService.AddTag(r.Context(), researcher.ID, companyKey, req.Field, req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// DELETE /v1/research/tags/{field}/{index}?company_key=
func (h *ResearchHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())

	companyKey, err := companyKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	field := chi.URLParam(r, "field")
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, apperrors.InvalidInput("index", "must be an integer"))
		return
	}

	draft, err := h.researchService.RemoveTag(r.Context(), researcher.ID, companyKey, field, idx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

type submitRequest struct {
	Form model.ResearchForm `json:"form"`
}

// POST /v1/research/submit?company_key=
func (h *ResearchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.GetResearcher(r.Context())

	companyKey, err := companyKeyParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.researchService.Submit(r.Context(), researcher.ID, companyKey, &req.Form)
	if err != nil {
		writeError(w, err)
		return
	}

	if len(result.Errors) > 0 {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:         audit.EventResearchSubmit,
		ResearcherID: researcher.ID,
		CompanyKey:   companyKey,
	})

	writeJSON(w, http.StatusOK, result)
}
