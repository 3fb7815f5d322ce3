package model

import (
	"strings"
	"time"
)

// ValidationErrors maps form field name to a user-facing message.
type ValidationErrors map[string]string

// ResearchForm is the full wizard draft. Field names mirror the
// submission columns so drafts and submissions round-trip cleanly.
type ResearchForm struct {
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	CompanyWebsite string `json:"company_website"`
	HQCountry      string `json:"hq_country"`
	YearFounded    string `json:"year_founded"`
	EstimatedSize  string `json:"estimated_size"`
	FundingStage   string `json:"funding_stage"`

	ProductName              string   `json:"product_name"`
	ProductCategory          string   `json:"product_category"`
	ProductFocus             []string `json:"product_focus"`
	Keywords                 []string `json:"keywords"`
	BuyerPersona             []string `json:"buyer_persona"`
	CloudSupport             []string `json:"cloud_support"`
	TargetCustomerSize       []string `json:"target_customer_size"`
	TargetLocations          []string `json:"target_locations"`
	CustomerNames            []string `json:"customer_names"`
	ComplianceCertifications []string `json:"compliance_certifications"`
	PricingModels            []string `json:"pricing_models"`
	PilotOffers              []string `json:"pilot_offers"`
	AutomationLevel          []string `json:"automation_level"`
	ActionResponsibility     []string `json:"action_responsibility"`
	ImplementationDetails    string   `json:"implementation_details"`

	ConclusionSummary string `json:"conclusion_summary"`
	EvidenceLinks     string `json:"evidence_links"`
	Notes             string `json:"notes"`
}

// Coerce repairs list fields after deserializing a draft saved under an
// older field schema: absent arrays come back as nil and must become
// empty slices.
func (f *ResearchForm) Coerce() {
	for _, name := range ListFields {
		ptr := f.listField(name)
		if *ptr == nil {
			*ptr = []string{}
		}
	}
}

// ListFields enumerates every array-typed form field.
var ListFields = []string{
	"product_focus", "keywords", "buyer_persona", "cloud_support",
	"target_customer_size", "target_locations", "customer_names",
	"compliance_certifications", "pricing_models", "pilot_offers",
	"automation_level", "action_responsibility",
}

func (f *ResearchForm) listField(name string) *[]string {
	switch name {
	case "product_focus":
		return &f.ProductFocus
	case "keywords":
		return &f.Keywords
	case "buyer_persona":
		return &f.BuyerPersona
	case "cloud_support":
		return &f.CloudSupport
	case "target_customer_size":
		return &f.TargetCustomerSize
	case "target_locations":
		return &f.TargetLocations
	case "customer_names":
		return &f.CustomerNames
	case "compliance_certifications":
		return &f.ComplianceCertifications
	case "pricing_models":
		return &f.PricingModels
	case "pilot_offers":
		return &f.PilotOffers
	case "automation_level":
		return &f.AutomationLevel
	case "action_responsibility":
		return &f.ActionResponsibility
	default:
		return nil
	}
}

func (f *ResearchForm) stringField(name string) *string {
	switch name {
	case "candidate_name":
		return &f.CandidateName
	case "candidate_email":
		return &f.CandidateEmail
	case "company_website":
		return &f.CompanyWebsite
	case "hq_country":
		return &f.HQCountry
	case "year_founded":
		return &f.YearFounded
	case "estimated_size":
		return &f.EstimatedSize
	case "funding_stage":
		return &f.FundingStage
	case "product_name":
		return &f.ProductName
	case "product_category":
		return &f.ProductCategory
	case "implementation_details":
		return &f.ImplementationDetails
	case "conclusion_summary":
		return &f.ConclusionSummary
	case "evidence_links":
		return &f.EvidenceLinks
	case "notes":
		return &f.Notes
	default:
		return nil
	}
}

// HasValue reports whether a field holds a usable value: a non-empty
// array for list fields, a non-blank string otherwise. Used to clear a
// field's validation error the moment it is filled.
func (f *ResearchForm) HasValue(name string) bool {
	if ptr := f.listField(name); ptr != nil {
		return len(*ptr) > 0
	}
	if ptr := f.stringField(name); ptr != nil {
		return strings.TrimSpace(*ptr) != ""
	}
	return false
}

// IsListField reports whether name is an array-typed form field.
func IsListField(name string) bool {
	var f ResearchForm
	return f.listField(name) != nil
}

// AddTag implements the tag-input contract: trim, strip a leading '#',
// reject empty and case-sensitive duplicates. Returns true when the
// token was appended.
func (f *ResearchForm) AddTag(field, token string) bool {
	ptr := f.listField(field)
	if ptr == nil {
		return false
	}
	val := strings.TrimPrefix(strings.TrimSpace(token), "#")
	if val == "" {
		return false
	}
	for _, existing := range *ptr {
		if existing == val {
			return false
		}
	}
	*ptr = append(*ptr, val)
	return true
}

// RemoveTag removes the tag at idx, preserving the order of the rest.
// Returns false when the field is unknown or idx is out of range.
func (f *ResearchForm) RemoveTag(field string, idx int) bool {
	ptr := f.listField(field)
	if ptr == nil || idx < 0 || idx >= len(*ptr) {
		return false
	}
	*ptr = append((*ptr)[:idx], (*ptr)[idx+1:]...)
	return true
}

// Draft is the autosaved wizard state for one (researcher, company) pair.
type Draft struct {
	Form      ResearchForm `json:"form"`
	Step      Step         `json:"step"`
	Submitted bool         `json:"submitted"`
	UpdatedAt time.Time    `json:"updated_at"`
}
