package model

type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "reserved"
	ReservationStatusExpired  ReservationStatus = "expired"
	ReservationStatusReleased ReservationStatus = "released"
)

// AccessReason is the outcome of checking whether a researcher may open
// the research flow for a company.
type AccessReason string

const (
	AccessGranted      AccessReason = "granted"
	AccessTakenByOther AccessReason = "taken_by_other"
	AccessNotActive    AccessReason = "not_active"
	AccessExpired      AccessReason = "expired"
)

// Step is the wizard position. The step set is closed; transitions go
// through Next/Prev only.
type Step string

const (
	StepGeneral    Step = "GENERAL"
	StepAnalysis   Step = "ANALYSIS"
	StepSubmission Step = "SUBMISSION"
)

var stepOrder = []Step{StepGeneral, StepAnalysis, StepSubmission}

// Valid reports whether s is a known wizard step.
func (s Step) Valid() bool {
	for _, step := range stepOrder {
		if s == step {
			return true
		}
	}
	return false
}

// Next returns the following step and true, or s and false from the last step.
func (s Step) Next() (Step, bool) {
	for i, step := range stepOrder {
		if s == step && i+1 < len(stepOrder) {
			return stepOrder[i+1], true
		}
	}
	return s, false
}

// Prev returns the preceding step and true, or s and false from the first step.
func (s Step) Prev() (Step, bool) {
	for i, step := range stepOrder {
		if s == step && i > 0 {
			return stepOrder[i-1], true
		}
	}
	return s, false
}
