package entity

// Status constants for Submission
const (
	StatusDraft                  = "DRAFT"
	StatusPendingApproval        = "PENDING_APPROVAL"
	StatusPendingLegalGM         = "PENDING_LEGAL_GM"
	StatusPendingLegalOfficer    = "PENDING_LEGAL_OFFICER"
	StatusPendingSpecialApprover = "PENDING_SPECIAL_APPROVER"
	StatusPendingLegalGMFinal    = "PENDING_LEGAL_GM_FINAL"
	StatusCompleted              = "COMPLETED"
	StatusSentBack               = "SENT_BACK"
	StatusCancelled              = "CANCELLED"
)

// Legal GM stage flag values
const (
	GMStageInitialReview = "INITIAL_REVIEW"
	GMStageFinalApproval = "FINAL_APPROVAL"
)

// Legal officer stage flag values
const (
	LOStageActive         = "ACTIVE"
	LOStagePostGMApproval = "POST_GM_APPROVAL"
)

// Ledger record status constants (shared by first-level and special approver records)
const (
	RecordStatusPending   = "PENDING"
	RecordStatusApproved  = "APPROVED"
	RecordStatusSentBack  = "SENT_BACK"
	RecordStatusCancelled = "CANCELLED"
)

// Role identifies who is acting on a submission.
type Role string

const (
	RoleBUM             Role = "BUM"
	RoleFBP             Role = "FBP"
	RoleClusterHead     Role = "CLUSTER_HEAD"
	RoleLegalGM         Role = "LEGAL_GM"
	RoleLegalOfficer    Role = "LEGAL_OFFICER"
	RoleSpecialApprover Role = "SPECIAL_APPROVER"
	RoleCourtOfficer    Role = "COURT_OFFICER"
)

// AllRoles lists every role the engine knows about.
func AllRoles() []Role {
	return []Role{
		RoleBUM,
		RoleFBP,
		RoleClusterHead,
		RoleLegalGM,
		RoleLegalOfficer,
		RoleSpecialApprover,
		RoleCourtOfficer,
	}
}

// IsValid returns true if the role is one of the defined constants
func (r Role) IsValid() bool {
	switch r {
	case RoleBUM, RoleFBP, RoleClusterHead, RoleLegalGM, RoleLegalOfficer, RoleSpecialApprover, RoleCourtOfficer:
		return true
	default:
		return false
	}
}

// IsFirstLevel returns true for the roles that sign the first-level ledger
func (r Role) IsFirstLevel() bool {
	return r == RoleBUM || r == RoleFBP || r == RoleClusterHead
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Action is the decision a role submits.
type Action string

const (
	ActionApproved              Action = "APPROVED"
	ActionSentBack              Action = "SENT_BACK"
	ActionCancelled             Action = "CANCELLED"
	ActionSubmitToLegalGM       Action = "SUBMIT_TO_LEGAL_GM"
	ActionSubmitToLegalOfficer  Action = "SUBMIT_TO_LEGAL_OFFICER"
	ActionAssignSpecialApprover Action = "ASSIGN_SPECIAL_APPROVER"
)

// IsValid returns true if the action is one of the defined constants
func (a Action) IsValid() bool {
	switch a {
	case ActionApproved, ActionSentBack, ActionCancelled,
		ActionSubmitToLegalGM, ActionSubmitToLegalOfficer, ActionAssignSpecialApprover:
		return true
	default:
		return false
	}
}

// IsVeto returns true for decisions that override pending and approved peers
func (a Action) IsVeto() bool {
	return a == ActionSentBack || a == ActionCancelled
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// Event log tags
const (
	EventTagCreated     = "CREATED"
	EventTagSubmitted   = "SUBMITTED"
	EventTagDecision    = "DECISION"
	EventTagResubmitted = "RESUBMITTED"
)
