package record

import "time"

// EventType identifies the kind of civil-registration event a record tracks.
// Fixed at creation, immutable afterwards.
type EventType string

const (
	EventBirth    EventType = "BIRTH"
	EventDeath    EventType = "DEATH"
	EventMarriage EventType = "MARRIAGE"
)

// ValidEventTypes defines the allowed event types.
var ValidEventTypes = map[EventType]bool{
	EventBirth:    true,
	EventDeath:    true,
	EventMarriage: true,
}

// Status is the current legal/workflow status of a record.
//
// StatusCertified is equivalent to "registered with a printed certificate":
// the Print action moves REGISTERED to CERTIFIED, and Issue moves CERTIFIED
// to ISSUED. See the engine transition table.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusNotified   Status = "NOTIFIED"
	StatusDeclared   Status = "DECLARED"
	StatusValidated  Status = "VALIDATED"
	StatusRegistered Status = "REGISTERED"
	StatusRejected   Status = "REJECTED"
	StatusArchived   Status = "ARCHIVED"
	StatusCertified  Status = "CERTIFIED"
	StatusIssued     Status = "ISSUED"
	StatusRevoked    Status = "REVOKED"
)

// ActionType identifies one workflow step applied to a record.
type ActionType string

const (
	ActionCreate           ActionType = "CREATE"
	ActionNotify           ActionType = "NOTIFY"
	ActionDeclare          ActionType = "DECLARE"
	ActionValidate         ActionType = "VALIDATE"
	ActionRegister         ActionType = "REGISTER"
	ActionReject           ActionType = "REJECT"
	ActionArchive          ActionType = "ARCHIVE"
	ActionApprove          ActionType = "APPROVE" // late-registration approval
	ActionCorrectRequest   ActionType = "CORRECT_REQUEST"
	ActionCorrectApprove   ActionType = "CORRECT_APPROVE"
	ActionCorrectReject    ActionType = "CORRECT_REJECT"
	ActionPrint            ActionType = "PRINT"
	ActionIssue            ActionType = "ISSUE"
	ActionRevoke           ActionType = "REVOKE"
	ActionReinstate        ActionType = "REINSTATE"
	ActionAssign           ActionType = "ASSIGN"
	ActionUnassign         ActionType = "UNASSIGN"
	ActionMarkDuplicate    ActionType = "MARK_DUPLICATE"
	ActionResolveDuplicate ActionType = "RESOLVE_DUPLICATE"
	ActionDeleteDraft      ActionType = "DELETE_DRAFT"
)

// Flag is an orthogonal marker on a record, re-derived after every action.
// Flags are never free-standing truth: each one is a function of the
// record's content and its action history.
type Flag string

const (
	FlagPotentialDuplicate   Flag = "POTENTIAL_DUPLICATE"
	FlagRequiresLateApproval Flag = "REQUIRES_LATE_REGISTRATION_APPROVAL"
	FlagCorrectionRequested  Flag = "CORRECTION_REQUESTED"
	FlagPrinted              Flag = "PRINTED"
)

// Scope is a capability granted to an actor. Actions require specific
// scopes; the engine rejects actions outside the actor's grant.
type Scope string

const (
	ScopeNotify           Scope = "record.notify"
	ScopeDeclare          Scope = "record.declare"
	ScopeValidate         Scope = "record.validate"
	ScopeRegister         Scope = "record.register"
	ScopeRegisterElevated Scope = "record.register.elevated"
	ScopeCertify          Scope = "record.certify"
)

// ActorContext carries the resolved identity of the acting user.
// Resolved by the auth layer from a bearer credential; the engine treats
// it as input and performs no identity lookups of its own.
type ActorContext struct {
	UserID string  `json:"user_id"`
	Role   string  `json:"role"`
	Scopes []Scope `json:"scopes"`
}

// HasScope reports whether the actor holds the given scope.
// ScopeRegisterElevated implies ScopeRegister.
func (a ActorContext) HasScope(s Scope) bool {
	for _, have := range a.Scopes {
		if have == s {
			return true
		}
		if s == ScopeRegister && have == ScopeRegisterElevated {
			return true
		}
	}
	return false
}

// Metadata is the action-specific payload: reason text, approval notes,
// fee amounts, collector identity, duplicate references, comments.
type Metadata map[string]FieldValue

// Action is an immutable fact appended to a record's history.
//
// Ordering authority within a record is Seq (logical clock); Timestamp is
// recorded for display and audit but never used for ordering decisions.
type Action struct {
	ID            string       `json:"id"` // content-addressed
	Type          ActionType   `json:"type"`
	TransactionID string       `json:"transaction_id"`
	Actor         ActorContext `json:"actor"`
	Seq           int64        `json:"seq"`
	Timestamp     time.Time    `json:"timestamp"`
	StatusBefore  Status       `json:"status_before"`
	StatusAfter   Status       `json:"status_after"`

	// Declaration is the full or partial field-path patch this action
	// carried. For CORRECT_REQUEST it is the proposed change held until
	// review; for DECLARE/NOTIFY it is merged immediately.
	Declaration Declaration `json:"declaration,omitempty"`

	Metadata Metadata `json:"metadata,omitempty"`
}

// Record is one civil-registration event instance.
//
// Record values are treated as immutable snapshots: the engine never
// mutates a Record in place, it returns a new one. The displayed state at
// any point in time is a fold over History up to that point.
type Record struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	TrackingID string    `json:"tracking_id"`
	Status     Status    `json:"status"`
	Flags      []Flag    `json:"flags,omitempty"`
	Assignee   string    `json:"assignee,omitempty"`

	// Declaration is the current form data: field path to value.
	Declaration Declaration `json:"declaration"`

	// History is append-only. Version == len(History) and is the basis
	// for optimistic concurrency checks.
	History []Action `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Version returns the record's optimistic-concurrency version, which is
// the number of actions in its history.
func (r Record) Version() int {
	return len(r.History)
}

// HasFlag reports whether the flag is currently set.
func (r Record) HasFlag(f Flag) bool {
	for _, have := range r.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record. Apply works on a clone so the
// caller's snapshot is never mutated, even on error paths.
func (r Record) Clone() Record {
	out := r
	out.Flags = append([]Flag(nil), r.Flags...)
	out.Declaration = r.Declaration.Clone()
	out.History = append([]Action(nil), r.History...)
	return out
}

// LastAction returns the most recent history entry of the given type, or
// nil if none exists.
func (r Record) LastAction(t ActionType) *Action {
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].Type == t {
			return &r.History[i]
		}
	}
	return nil
}
