package entity

import "time"

// Submission is a legal document request moving through the approval stages.
// Status together with LegalGMStage and LOStage is the single source of truth
// for where the request sits in its lifecycle.
type Submission struct {
	ID             int64  `json:"id"`
	FormID         int    `json:"form_id"`
	Title          string `json:"title"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`

	Status               string  `json:"status"`
	LegalGMStage         *string `json:"legal_gm_stage,omitempty"`
	LOStage              *string `json:"lo_stage,omitempty"`
	AssignedLegalOfficer *string `json:"assigned_legal_officer,omitempty"`

	// DueDate is only read by consumers computing overdue flags
	DueDate *time.Time `json:"due_date,omitempty"`

	// Cycle increments on every resubmission; ledgers are scoped to it
	Cycle int `json:"cycle"`

	// Version is bumped by every committed mutation
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOverdue reports whether a non-terminal submission is past its due date.
func (s *Submission) IsOverdue(now time.Time) bool {
	if s.DueDate == nil {
		return false
	}
	switch s.Status {
	case StatusCompleted, StatusCancelled, StatusDraft:
		return false
	}
	return now.After(*s.DueDate)
}

// IsLitigation reports whether the submission's form type carries the court officer stage.
func (s *Submission) IsLitigation() bool {
	form, ok := LookupFormType(s.FormID)
	return ok && form.Litigation
}

// FormType describes one of the fixed request forms.
type FormType struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Litigation bool   `json:"litigation"`
}

var formTypes = []FormType{
	{ID: 1, Name: "Contract Review"},
	{ID: 2, Name: "Non-Disclosure Agreement"},
	{ID: 3, Name: "Power of Attorney"},
	{ID: 4, Name: "Litigation Filing", Litigation: true},
	{ID: 5, Name: "Legal Opinion"},
	{ID: 6, Name: "Court Appearance", Litigation: true},
	{ID: 7, Name: "Settlement Agreement", Litigation: true},
	{ID: 8, Name: "Trademark Registration"},
	{ID: 9, Name: "Regulatory Filing"},
	{ID: 10, Name: "General Legal Request"},
}

// FormTypes returns the fixed form catalog
func FormTypes() []FormType {
	out := make([]FormType, len(formTypes))
	copy(out, formTypes)
	return out
}

// LookupFormType returns the form type for an id in 1..10
func LookupFormType(id int) (FormType, bool) {
	if id < 1 || id > len(formTypes) {
		return FormType{}, false
	}
	return formTypes[id-1], true
}
