package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/atomity/research-server-go/internal/errors"
	"github.com/atomity/research-server-go/internal/model"
	"github.com/atomity/research-server-go/internal/repository"
)

var stepRequiredFields = map[model.Step][]string{
	model.StepGeneral: {
		"candidate_name", "hq_country", "company_website",
		"year_founded", "estimated_size",
	},
	model.StepAnalysis: {
		"product_focus", "keywords", "buyer_persona", "cloud_support",
		"target_customer_size", "target_locations", "customer_names",
		"compliance_certifications", "pricing_models", "pilot_offers",
		"automation_level", "action_responsibility", "implementation_details",
	},
	model.StepSubmission: {
		"conclusion_summary", "evidence_links",
	},
}

var fieldLabels = map[string]string{
	"candidate_name":            "Candidate name",
	"hq_country":                "HQ country",
	"company_website":           "Company website",
	"year_founded":              "Year founded",
	"estimated_size":            "Estimated size",
	"product_focus":             "Product focus",
	"keywords":                  "Keywords",
	"buyer_persona":             "Buyer persona",
	"cloud_support":             "Cloud support",
	"target_customer_size":      "Target customer size",
	"target_locations":          "Target locations",
	"customer_names":            "Customer names",
	"compliance_certifications": "Compliance certifications",
	"pricing_models":            "Pricing models",
	"pilot_offers":              "Pilot offers",
	"automation_level":          "Automation level",
	"action_responsibility":     "Action responsibility",
	"implementation_details":    "Implementation details",
	"conclusion_summary":        "Conclusion summary",
	"evidence_links":            "Evidence links",
}

// ValidateStep checks the fields required to leave the given step.
// Empty map means the step is complete.
func ValidateStep(step model.Step, form *model.ResearchForm) model.ValidationErrors {
	errs := model.ValidationErrors{}
	for _, field := range stepRequiredFields[step] {
		if !form.HasValue(field) {
			label := fieldLabels[field]
			if label == "" {
				label = field
			}
			errs[field] = label + " is required"
		}
	}
	return errs
}

// ResearchState is the full wizard snapshot returned to the client.
type ResearchState struct {
	CompanyKey  string                    `json:"company_key"`
	CompanyName string                    `json:"company_name"`
	Reservation *model.CompanyReservation `json:"reservation,omitempty"`
	Step        model.Step                `json:"step"`
	Form        model.ResearchForm        `json:"form"`
	Submitted   bool                      `json:"submitted"`
}

type ResearchService struct {
	companyRepo    repository.CompanyRepository
	submissionRepo repository.SubmissionRepository
	reservations   *ReservationService
	drafts         *DraftStore
}

func NewResearchService(
	companyRepo repository.CompanyRepository,
	submissionRepo repository.SubmissionRepository,
	reservations *ReservationService,
	drafts *DraftStore,
) *ResearchService {
	return &ResearchService{
		companyRepo:    companyRepo,
		submissionRepo: submissionRepo,
		reservations:   reservations,
		drafts:         drafts,
	}
}

// ensureAccess gates every wizard operation. A prior submission by this
// researcher keeps the flow open for fixes even after the reservation
// lapsed; otherwise a currently valid reservation is required.
func (s *ResearchService) ensureAccess(ctx context.Context, researcherID, companyKey string) (*model.CompanyReservation, *model.ResearchSubmission, error) {
	submission, err := s.submissionRepo.FindByKey(ctx, companyKey)
	if err != nil {
		return nil, nil, fmt.Errorf("find submission: %w", err)
	}
	if submission != nil && submission.ResearcherID == researcherID {
		reservation, err := s.companyRepo.FindByKey(ctx, companyKey)
		if err != nil {
			return nil, nil, fmt.Errorf("find reservation: %w", err)
		}
		return reservation, submission, nil
	}
	if submission != nil {
		return nil, nil, apperrors.ResearchComplete()
	}

	reservation, err := s.reservations.CheckAccess(ctx, researcherID, companyKey)
	if err != nil {
		return nil, nil, err
	}
	return reservation, nil, nil
}

// LoadState assembles the wizard view: defaults, overlaid by any prior
// submission, overlaid by the saved draft.
func (s *ResearchService) LoadState(ctx context.Context, researcherID, companyKey string) (*ResearchState, error) {
	reservation, submission, err := s.ensureAccess(ctx, researcherID, companyKey)
	if err != nil {
		return nil, err
	}

	state := &ResearchState{
		CompanyKey:  companyKey,
		Reservation: reservation,
		Step:        model.StepGeneral,
		Submitted:   submission != nil,
	}
	if reservation != nil {
		state.CompanyName = reservation.CompanyName
	}

	form := model.ResearchForm{}
	if submission != nil {
		form = submission.Form()
		state.CompanyName = submission.CompanyName
	}

	draft, err := s.drafts.Load(ctx, researcherID, companyKey)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		form = draft.Form
		if draft.Step.Valid() {
			state.Step = draft.Step
		}
	}

	form.Coerce()
	state.Form = form
	return state, nil
}

type AdvanceResult struct {
	Step   model.Step             `json:"step"`
	Errors model.ValidationErrors `json:"errors,omitempty"`
}

// Advance validates the current step and moves forward when clean. On
// validation failure the step does not change and the per-field error
// map is returned; the submitted form is saved as the draft either way
// so no typing is lost.
func (s *ResearchService) Advance(ctx context.Context, researcherID, companyKey string, step model.Step, form *model.ResearchForm) (*AdvanceResult, error) {
	if !step.Valid() {
		return nil, apperrors.InvalidInput("step", "unknown wizard step")
	}
	if _, _, err := s.ensureAccess(ctx, researcherID, companyKey); err != nil {
		return nil, err
	}

	form.Coerce()

	if errs := ValidateStep(step, form); len(errs) > 0 {
		if err := s.saveDraft(ctx, researcherID, companyKey, step, form); err != nil {
			return nil, err
		}
		return &AdvanceResult{Step: step, Errors: errs}, nil
	}

	next, ok := step.Next()
	if !ok {
		return nil, apperrors.ValidationError("Already at the last step; submit instead")
	}

	if err := s.saveDraft(ctx, researcherID, companyKey, next, form); err != nil {
		return nil, err
	}
	return &AdvanceResult{Step: next}, nil
}

// Back moves one step earlier without validating or touching data.
func (s *ResearchService) Back(ctx context.Context, researcherID, companyKey string, step model.Step, form *model.ResearchForm) (*AdvanceResult, error) {
	if !step.Valid() {
		return nil, apperrors.InvalidInput("step", "unknown wizard step")
	}
	if _, _, err := s.ensureAccess(ctx, researcherID, companyKey); err != nil {
		return nil, err
	}

	prev, ok := step.Prev()
	if !ok {
		return nil, apperrors.ValidationError("Already at the first step")
	}

	form.Coerce()
	if err := s.saveDraft(ctx, researcherID, companyKey, prev, form); err != nil {
		return nil, err
	}
	return &AdvanceResult{Step: prev}, nil
}

// SaveDraft is the autosave endpoint's backing call.
func (s *ResearchService) SaveDraft(ctx context.Context, researcherID, companyKey string, step model.Step, form *model.ResearchForm) error {
	if !step.Valid() {
		return apperrors.InvalidInput("step", "unknown wizard step")
	}
	if _, _, err := s.ensureAccess(ctx, researcherID, companyKey); err != nil {
		return err
	}
	form.Coerce()
	return s.saveDraft(ctx, researcherID, companyKey, step, form)
}

func (s *ResearchService) saveDraft(ctx context.Context, researcherID, companyKey string, step model.Step, form *model.ResearchForm) error {
	return s.drafts.Save(ctx, researcherID, companyKey, &model.Draft{
		Form: *form,
		Step: step,
	})
}

// AddTag appends a token to a tag field in the saved draft. Duplicate
// and empty tokens are dropped silently, matching the input widget.
func (s *ResearchService) AddTag(ctx context.Context, researcherID, companyKey, field, token string) (*model.Draft, error) {
	if !model.IsListField(field) {
		return nil, apperrors.InvalidInput("field", "not a tag field")
	}

	draft, err := s.loadDraftForEdit(ctx, researcherID, companyKey)
	if err != nil {
		return nil, err
	}

	if draft.Form.AddTag(field, token) {
		if err := s.drafts.Save(ctx, researcherID, companyKey, draft); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

// RemoveTag drops the tag at idx from a tag field in the saved draft.
func (s *ResearchService) RemoveTag(ctx context.Context, researcherID, companyKey, field string, idx int) (*model.Draft, error) {
	if !model.IsListField(field) {
		return nil, apperrors.InvalidInput("field", "not a tag field")
	}

	draft, err := s.loadDraftForEdit(ctx, researcherID, companyKey)
	if err != nil {
		return nil, err
	}

	if !draft.Form.RemoveTag(field, idx) {
		return nil, apperrors.InvalidInput("index", "out of range")
	}
	if err := s.drafts.Save(ctx, researcherID, companyKey, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *ResearchService) loadDraftForEdit(ctx context.Context, researcherID, companyKey string) (*model.Draft, error) {
	state, err := s.LoadState(ctx, researcherID, companyKey)
	if err != nil {
		return nil, err
	}
	return &model.Draft{Form: state.Form, Step: state.Step}, nil
}

type SubmitResult struct {
	Submission *model.ResearchSubmission `json:"submission,omitempty"`
	Errors     model.ValidationErrors    `json:"errors,omitempty"`
}

// Submit re-validates the final step, writes the submission, and clears
// the draft. The draft survives any failure so the submit is retryable.
func (s *ResearchService) Submit(ctx context.Context, researcherID, companyKey string, form *model.ResearchForm) (*SubmitResult, error) {
	reservation, prior, err := s.ensureAccess(ctx, researcherID, companyKey)
	if err != nil {
		return nil, err
	}

	form.Coerce()
	if errs := ValidateStep(model.StepSubmission, form); len(errs) > 0 {
		return &SubmitResult{Errors: errs}, nil
	}

	companyName := ""
	switch {
	case reservation != nil:
		companyName = reservation.CompanyName
	case prior != nil:
		companyName = prior.CompanyName
	}

	submission, err := s.submissionRepo.Upsert(ctx,
		model.SubmissionFromForm(form, companyKey, companyName, researcherID))
	if err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}

	if err := s.drafts.Delete(ctx, researcherID, companyKey); err != nil {
		log.Warn().Err(err).
			Str("companyKey", companyKey).
			Msg("failed to clear draft after submission")
	}

	log.Info().
		Str("researcherId", researcherID).
		Str("companyKey", companyKey).
		Msg("research submitted")

	return &SubmitResult{Submission: submission}, nil
}
