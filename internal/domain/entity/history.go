package entity

import "time"

// SubmissionEvent is one entry of a submission's append-only audit log.
// Seq is assigned from the submission version written in the same transaction,
// so ordering never depends on wall-clock timestamps.
type SubmissionEvent struct {
	ID           string    `json:"id"`
	SubmissionID int64     `json:"submission_id"`
	Seq          int64     `json:"seq"`
	Tag          string    `json:"tag"`
	Role         string    `json:"role,omitempty"`
	Action       string    `json:"action,omitempty"`
	ActorName    string    `json:"actor_name,omitempty"`
	ActorEmail   string    `json:"actor_email,omitempty"`
	FromStatus   string    `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	FromPhase    string    `json:"from_phase"`
	ToPhase      string    `json:"to_phase"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Comment is free text attached to a submission, decoupled from the ledgers.
type Comment struct {
	ID           int64     `json:"id"`
	SubmissionID int64     `json:"submission_id"`
	AuthorName   string    `json:"author_name"`
	AuthorEmail  string    `json:"author_email"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// Document is upload metadata; only used for read-side completeness signals.
type Document struct {
	ID           int64      `json:"id"`
	SubmissionID int64      `json:"submission_id"`
	Name         string     `json:"name"`
	Required     bool       `json:"required"`
	Uploaded     bool       `json:"uploaded"`
	UploadedAt   *time.Time `json:"uploaded_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Snapshot is the full aggregate returned after reads and decisions.
type Snapshot struct {
	Submission       *Submission              `json:"submission"`
	Phase            string                   `json:"phase"`
	ApprovalRecords  []*ApprovalRecord        `json:"approval_records"`
	SpecialApprovers []*SpecialApproverRecord `json:"special_approvers"`
	Documents        []*Document              `json:"documents"`
	Comments         []*Comment               `json:"comments"`
	DocumentsReady   bool                     `json:"documents_ready"`
	Overdue          bool                     `json:"overdue"`
}

// RequiredDocumentsUploaded reports whether every required document has been uploaded
func RequiredDocumentsUploaded(docs []*Document) bool {
	for _, d := range docs {
		if d.Required && !d.Uploaded {
			return false
		}
	}
	return true
}
