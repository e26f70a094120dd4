package entity

import "time"

// ApprovalRecord is one first-level signer's decision for a submission cycle.
// Records are seeded PENDING on submit and mutated once by their own role.
type ApprovalRecord struct {
	ID            int64      `json:"id"`
	SubmissionID  int64      `json:"submission_id"`
	Cycle         int        `json:"cycle"`
	Role          Role       `json:"role"`
	ApproverName  string     `json:"approver_name"`
	ApproverEmail string     `json:"approver_email"`
	Status        string     `json:"status"`
	Comment       string     `json:"comment,omitempty"`
	ActionDate    *time.Time `json:"action_date,omitempty"`
}

// IsPending returns true while the record still awaits its signer
func (r *ApprovalRecord) IsPending() bool {
	return r.Status == RecordStatusPending
}

// SpecialApproverRecord is a dynamically added signer keyed by email.
type SpecialApproverRecord struct {
	ID            int64      `json:"id"`
	SubmissionID  int64      `json:"submission_id"`
	Cycle         int        `json:"cycle"`
	ApproverName  string     `json:"approver_name"`
	ApproverEmail string     `json:"approver_email"`
	AssignedBy    string     `json:"assigned_by"`
	Status        string     `json:"status"`
	Comment       string     `json:"comment,omitempty"`
	ActionDate    *time.Time `json:"action_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsPending returns true while the record still awaits its signer
func (r *SpecialApproverRecord) IsPending() bool {
	return r.Status == RecordStatusPending
}

// ApproverAssignment names who signs a first-level role when a submission is submitted.
type ApproverAssignment struct {
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Decide stamps the signer's decision; blank identity keeps the seeded values
func (r *ApprovalRecord) Decide(status, name, email, comment string, at time.Time) {
	r.Status = status
	if name != "" {
		r.ApproverName = name
	}
	if email != "" {
		r.ApproverEmail = email
	}
	r.Comment = comment
	r.ActionDate = &at
}

// Decide stamps the signer's decision; blank identity keeps the seeded values
func (r *SpecialApproverRecord) Decide(status, name, email, comment string, at time.Time) {
	r.Status = status
	if name != "" {
		r.ApproverName = name
	}
	if email != "" {
		r.ApproverEmail = email
	}
	r.Comment = comment
	r.ActionDate = &at
}
