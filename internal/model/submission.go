package model

import (
	"strings"
	"time"
)

// ResearchSubmission is the persisted research record, upserted by
// company_key. List-typed form fields are stored comma-joined; the
// round-trip is lossy for values containing a literal comma, which
// matches the historical storage format.
type ResearchSubmission struct {
	CompanyKey   string `db:"company_key" json:"company_key"`
	CompanyName  string `db:"company_name" json:"company_name"`
	ResearcherID string `db:"researcher_id" json:"researcher_id"`

	CandidateName  string `db:"candidate_name" json:"candidate_name"`
	CandidateEmail string `db:"candidate_email" json:"candidate_email"`
	CompanyWebsite string `db:"company_website" json:"company_website"`
	HQCountry      string `db:"hq_country" json:"hq_country"`
	YearFounded    string `db:"year_founded" json:"year_founded"`
	EstimatedSize  string `db:"estimated_size" json:"estimated_size"`
	FundingStage   string `db:"funding_stage" json:"funding_stage"`

	ProductName              string `db:"product_name" json:"product_name"`
	ProductCategory          string `db:"product_category" json:"product_category"`
	ProductFocus             string `db:"product_focus" json:"product_focus"`
	Keywords                 string `db:"keywords" json:"keywords"`
	BuyerPersona             string `db:"buyer_persona" json:"buyer_persona"`
	CloudSupport             string `db:"cloud_support" json:"cloud_support"`
	TargetCustomerSize       string `db:"target_customer_size" json:"target_customer_size"`
	TargetLocations          string `db:"target_locations" json:"target_locations"`
	CustomerNames            string `db:"customer_names" json:"customer_names"`
	ComplianceCertifications string `db:"compliance_certifications" json:"compliance_certifications"`
	PricingModels            string `db:"pricing_models" json:"pricing_models"`
	PilotOffers              string `db:"pilot_offers" json:"pilot_offers"`
	AutomationLevel          string `db:"automation_level" json:"automation_level"`
	ActionResponsibility     string `db:"action_responsibility" json:"action_responsibility"`
	ImplementationDetails    string `db:"implementation_details" json:"implementation_details"`

	ConclusionSummary string `db:"conclusion_summary" json:"conclusion_summary"`
	EvidenceLinks     string `db:"evidence_links" json:"evidence_links"`
	Notes             string `db:"notes" json:"notes"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// JoinList flattens a list field for storage.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

// SplitList parses a stored list field back into items, dropping empty
// entries.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SubmissionFromForm flattens a completed form into its storage shape.
func SubmissionFromForm(f *ResearchForm, companyKey, companyName, researcherID string) *ResearchSubmission {
	return &ResearchSubmission{
		CompanyKey:   companyKey,
		CompanyName:  companyName,
		ResearcherID: researcherID,

		CandidateName:  f.CandidateName,
		CandidateEmail: f.CandidateEmail,
		CompanyWebsite: f.CompanyWebsite,
		HQCountry:      f.HQCountry,
		YearFounded:    f.YearFounded,
		EstimatedSize:  f.EstimatedSize,
		FundingStage:   f.FundingStage,

		ProductName:              f.ProductName,
		ProductCategory:          f.ProductCategory,
		ProductFocus:             JoinList(f.ProductFocus),
		Keywords:                 JoinList(f.Keywords),
		BuyerPersona:             JoinList(f.BuyerPersona),
		CloudSupport:             JoinList(f.CloudSupport),
		TargetCustomerSize:       JoinList(f.TargetCustomerSize),
		TargetLocations:          JoinList(f.TargetLocations),
		CustomerNames:            JoinList(f.CustomerNames),
		ComplianceCertifications: JoinList(f.ComplianceCertifications),
		PricingModels:            JoinList(f.PricingModels),
		PilotOffers:              JoinList(f.PilotOffers),
		AutomationLevel:          JoinList(f.AutomationLevel),
		ActionResponsibility:     JoinList(f.ActionResponsibility),
		ImplementationDetails:    f.ImplementationDetails,

		ConclusionSummary: f.ConclusionSummary,
		EvidenceLinks:     f.EvidenceLinks,
		Notes:             f.Notes,
	}
}

// Form reconstructs an editable form from a stored submission.
func (s *ResearchSubmission) Form() ResearchForm {
	return ResearchForm{
		CandidateName:  s.CandidateName,
		CandidateEmail: s.CandidateEmail,
		CompanyWebsite: s.CompanyWebsite,
		HQCountry:      s.HQCountry,
		YearFounded:    s.YearFounded,
		EstimatedSize:  s.EstimatedSize,
		FundingStage:   s.FundingStage,

		ProductName:              s.ProductName,
		ProductCategory:          s.ProductCategory,
		ProductFocus:             SplitList(s.ProductFocus),
		Keywords:                 SplitList(s.Keywords),
		BuyerPersona:             SplitList(s.BuyerPersona),
		CloudSupport:             SplitList(s.CloudSupport),
		TargetCustomerSize:       SplitList(s.TargetCustomerSize),
		TargetLocations:          SplitList(s.TargetLocations),
		CustomerNames:            SplitList(s.CustomerNames),
		ComplianceCertifications: SplitList(s.ComplianceCertifications),
		PricingModels:            SplitList(s.PricingModels),
		PilotOffers:              SplitList(s.PilotOffers),
		AutomationLevel:          SplitList(s.AutomationLevel),
		ActionResponsibility:     SplitList(s.ActionResponsibility),
		ImplementationDetails:    s.ImplementationDetails,

		ConclusionSummary: s.ConclusionSummary,
		EvidenceLinks:     s.EvidenceLinks,
		Notes:             s.Notes,
	}
}
