package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/atomity/research-server-go/internal/model"
)

type SubmissionRepository interface {
	FindByKey(ctx context.Context, companyKey string) (*model.ResearchSubmission, error)
	Upsert(ctx context.Context, s *model.ResearchSubmission) (*model.ResearchSubmission, error)
	// WithTx returns a repository bound to the given transaction
	WithTx(tx *sqlx.Tx) SubmissionRepository
}

type submissionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type submissionRepo struct {
	db submissionDB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) WithTx(tx *sqlx.Tx) SubmissionRepository {
	return &submissionRepo{db: tx}
}

func (r *submissionRepo) FindByKey(ctx context.Context, companyKey string) (*model.ResearchSubmission, error) {
	var submission model.ResearchSubmission
	err := r.db.GetContext(ctx, &submission, `
		SELECT * FROM research_submissions WHERE company_key = $1
	`, companyKey)
	return HandleNotFound(&submission, err)
}

// Upsert writes the full record, replacing any prior submission for the
// same company_key. Resubmission after a fix is an overwrite, not an
// append.
func (r *submissionRepo) Upsert(ctx context.Context, s *model.ResearchSubmission) (*model.ResearchSubmission, error) {
	var saved model.ResearchSubmission
	err := r.db.GetContext(ctx, &saved, `
		INSERT INTO research_submissions (
			company_key, company_name, researcher_id,
			candidate_name, candidate_email, company_website,
			hq_country, year_founded, estimated_size, funding_stage,
			product_name, product_category, product_focus, keywords,
			buyer_persona, cloud_support, target_customer_size,
			target_locations, customer_names, compliance_certifications,
			pricing_models, pilot_offers, automation_level,
			action_responsibility, implementation_details,
			conclusion_summary, evidence_links, notes
		)
		VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20,
			$21, $22, $23,
			$24, $25,
			$26, $27, $28
		)
		ON CONFLICT (company_key) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			researcher_id = EXCLUDED.researcher_id,
			candidate_name = EXCLUDED.candidate_name,
			candidate_email = EXCLUDED.candidate_email,
			company_website = EXCLUDED.company_website,
			hq_country = EXCLUDED.hq_country,
			year_founded = EXCLUDED.year_founded,
			estimated_size = EXCLUDED.estimated_size,
			funding_stage = EXCLUDED.funding_stage,
			product_name = EXCLUDED.product_name,
			product_category = EXCLUDED.product_category,
			product_focus = EXCLUDED.product_focus,
			keywords = EXCLUDED.keywords,
			buyer_persona = EXCLUDED.buyer_persona,
			cloud_support = EXCLUDED.cloud_support,
			target_customer_size = EXCLUDED.target_customer_size,
			target_locations = EXCLUDED.target_locations,
			customer_names = EXCLUDED.customer_names,
			compliance_certifications = EXCLUDED.compliance_certifications,
			pricing_models = EXCLUDED.pricing_models,
			pilot_offers = EXCLUDED.pilot_offers,
			automation_level = EXCLUDED.automation_level,
			action_responsibility = EXCLUDED.action_responsibility,
			implementation_details = EXCLUDED.implementation_details,
			conclusion_summary = EXCLUDED.conclusion_summary,
			evidence_links = EXCLUDED.evidence_links,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING *
	`, s.CompanyKey, s.CompanyName, s.ResearcherID,
		s.CandidateName, s.CandidateEmail, s.CompanyWebsite,
		s.HQCountry, s.YearFounded, s.EstimatedSize, s.FundingStage,
		s.ProductName, s.ProductCategory, s.ProductFocus, s.Keywords,
		s.BuyerPersona, s.CloudSupport, s.TargetCustomerSize,
		s.TargetLocations, s.CustomerNames, s.ComplianceCertifications,
		s.PricingModels, s.PilotOffers, s.AutomationLevel,
		s.ActionResponsibility, s.ImplementationDetails,
		s.ConclusionSummary, s.EvidenceLinks, s.Notes)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
