// Package engine implements the declaration lifecycle state machine.
//
// The engine is a pure function over records: Apply takes a record
// snapshot, an action input, and an actor context, and returns either a
// new record snapshot or a typed rejection. It performs no I/O, holds no
// locks, and never mutates its inputs. Persistence, authentication, and
// transport live in other packages; determinism lives here.
package engine

import (
	"fmt"
	"time"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/schema"
)

// DefaultLateRegistrationCutoff is how old an event may be before its
// registration needs an explicit approval.
const DefaultLateRegistrationCutoff = 365 * 24 * time.Hour

// Engine evaluates actions against lifecycle rules.
type Engine struct {
	schemas    *schema.Registry
	clock      *Clock
	lateCutoff time.Duration
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock substitutes the logical clock, typically to resume from the
// highest persisted seq.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLateRegistrationCutoff overrides the late-registration threshold.
// Zero disables late-registration approval entirely.
func WithLateRegistrationCutoff(d time.Duration) Option {
	return func(e *Engine) { e.lateCutoff = d }
}

// WithNow substitutes the wall-clock source. Tests use a fixed clock so
// golden traces stay byte-stable.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine with the given declaration schemas.
func New(schemas *schema.Registry, opts ...Option) *Engine {
	e := &Engine{
		schemas:    schemas,
		clock:      NewClock(),
		lateCutoff: DefaultLateRegistrationCutoff,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock exposes the engine's logical clock for checkpointing.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// ActionInput is a requested action before acceptance.
type ActionInput struct {
	Type record.ActionType

	// TransactionID is the caller-supplied idempotence token. Submitting
	// the same (record, transaction, action type) twice is a no-op the
	// second time.
	TransactionID string

	// Declaration is the field-path patch carried by declaration-bearing
	// actions (CREATE, NOTIFY, DECLARE, VALIDATE, CORRECT_REQUEST).
	Declaration record.Declaration

	// Metadata is the action-specific payload (reasons, notes,
	// duplicate references).
	Metadata record.Metadata

	// BaseVersion is the record version the caller observed. A mismatch
	// is rejected with CONCURRENT_MODIFICATION. Negative skips the
	// check; only replay and trusted internal callers do that.
	BaseVersion int

	// EventID optionally fixes the identifier of a record being created.
	// Pre-allocating it is what makes a retried CREATE recognizable as a
	// duplicate; callers that leave it empty get a fresh UUID per
	// attempt, so their retries mint fresh records.
	EventID string

	// EventType is required for CREATE, ignored otherwise.
	EventType record.EventType
}

// Apply evaluates one action against a record snapshot.
//
// On acceptance it returns a new snapshot with the action appended to
// history, the status advanced, and all flags re-derived. On rejection it
// returns the zero Record and a *TransitionError. A duplicate transaction
// returns the input snapshot unchanged with no error.
//
// For CREATE the input record is normally the zero value. A non-zero
// snapshot whose history already holds the same create transaction is
// returned unchanged, which is what makes retried creates no-ops.
func (e *Engine) Apply(rec record.Record, in ActionInput, actor record.ActorContext) (record.Record, error) {
	r, ok := transitions[in.Type]
	if !ok {
		return record.Record{}, newInvalidTransition(rec.ID, in.Type, rec.Status,
			fmt.Sprintf("unknown action type %q", in.Type))
	}

	// Idempotence precedes every other check: a retried request must see
	// the same success it saw the first time, not a fresh rejection. That
	// includes a retried CREATE evaluated against the record it created.
	for _, past := range rec.History {
		if past.TransactionID == in.TransactionID && past.Type == in.Type {
			return rec, nil
		}
	}

	if r.creates {
		if rec.ID != "" {
			return record.Record{}, newInvalidTransition(rec.ID, in.Type, rec.Status,
				"record already exists")
		}
		if !record.ValidEventTypes[in.EventType] {
			return record.Record{}, newValidationFailed("", in.Type,
				fmt.Sprintf("unknown event type %q", in.EventType), nil)
		}
	} else if rec.ID == "" {
		return record.Record{}, newInvalidTransition("", in.Type, rec.Status,
			"record does not exist")
	}

	if !r.creates && in.BaseVersion >= 0 && in.BaseVersion != rec.Version() {
		return record.Record{}, newConcurrentModification(rec.ID, in.Type, in.BaseVersion, rec.Version())
	}

	if !r.creates && !r.allowsFrom(rec.Status) {
		return record.Record{}, newInvalidTransition(rec.ID, in.Type, rec.Status, "")
	}

	if len(r.scopes) > 0 {
		granted := false
		for _, s := range r.scopes {
			if actor.HasScope(s) {
				granted = true
				break
			}
		}
		if !granted {
			return record.Record{}, newInsufficientScope(rec.ID, in.Type, r.scopes)
		}
	}

	if r.assigneeGated && rec.Assignee != "" && rec.Assignee != actor.UserID {
		return record.Record{}, newNotAssigned(rec.ID, in.Type, rec.Assignee)
	}

	if err := e.checkAction(rec, in, actor); err != nil {
		return record.Record{}, err
	}

	// Acceptance: mint identity and fold the action in.
	eventID := rec.ID
	eventType := rec.Type
	if r.creates {
		eventID = in.EventID
		if eventID == "" {
			eventID = record.NewEventID()
		}
		eventType = in.EventType
	}

	actDecl := in.Declaration
	if in.Type == record.ActionCorrectApprove {
		// The approved action carries the applied patch itself so the
		// history stays self-contained under replay.
		actDecl = pendingCorrection(rec).Clone()
	}

	seq := e.clock.Next()
	ts := e.now().UTC()

	actionID, err := record.ActionID(eventID, in.Type, seq, actDecl)
	if err != nil {
		return record.Record{}, fmt.Errorf("apply %s: %w", in.Type, err)
	}

	act := record.Action{
		ID:            actionID,
		Type:          in.Type,
		TransactionID: in.TransactionID,
		Actor:         actor,
		Seq:           seq,
		Timestamp:     ts,
		StatusBefore:  rec.Status,
		StatusAfter:   e.statusAfter(rec, in.Type),
		Declaration:   actDecl,
		Metadata:      in.Metadata,
	}

	if r.creates {
		rec = record.Record{
			ID:         eventID,
			Type:       eventType,
			TrackingID: record.NewTrackingID(eventType, eventID),
		}
	}

	return e.advance(rec, act), nil
}

// statusAfter resolves the resulting status for an accepted action.
func (e *Engine) statusAfter(rec record.Record, t record.ActionType) record.Status {
	if t == record.ActionReinstate {
		// Reinstating restores whatever status the revocation erased.
		if revoke := rec.LastAction(record.ActionRevoke); revoke != nil {
			return revoke.StatusBefore
		}
		return rec.Status
	}
	if to := transitions[t].to; to != "" {
		return to
	}
	return rec.Status
}

// checkAction enforces the per-action rules that go beyond the status
// table: flag gates, required metadata, and declaration validation.
func (e *Engine) checkAction(rec record.Record, in ActionInput, actor record.ActorContext) error {
	eventType := rec.Type
	if in.Type == record.ActionCreate {
		eventType = in.EventType
	}

	switch in.Type {
	case record.ActionCreate, record.ActionNotify, record.ActionDeclare, record.ActionValidate:
		if err := e.validateDeclaration(rec.ID, in.Type, eventType, in.Declaration); err != nil {
			return err
		}

	case record.ActionRegister:
		if rec.HasFlag(record.FlagRequiresLateApproval) {
			return newInvalidTransition(rec.ID, in.Type, rec.Status,
				"registration blocked pending late-registration approval")
		}

	case record.ActionApprove:
		if !rec.HasFlag(record.FlagRequiresLateApproval) {
			return newInvalidTransition(rec.ID, in.Type, rec.Status,
				"no late-registration approval pending")
		}
		if metaString(in.Metadata, "notes") == "" {
			return newValidationFailed(rec.ID, in.Type,
				"late-registration approval requires non-empty notes",
				map[string]string{"metadata": "notes"})
		}

	case record.ActionCorrectRequest:
		if rec.HasFlag(record.FlagCorrectionRequested) {
			return newInvalidTransition(rec.ID, in.Type, rec.Status,
				"a correction request is already pending")
		}
		if len(in.Declaration) == 0 {
			return newValidationFailed(rec.ID, in.Type,
				"correction request requires a declaration patch", nil)
		}
		if err := e.validateDeclaration(rec.ID, in.Type, eventType, in.Declaration); err != nil {
			return err
		}

	case record.ActionCorrectApprove, record.ActionCorrectReject:
		if pendingCorrection(rec) == nil {
			return newInvalidTransition(rec.ID, in.Type, rec.Status,
				"no correction request pending")
		}

	case record.ActionRevoke:
		if metaString(in.Metadata, "reason") == "" {
			return newValidationFailed(rec.ID, in.Type,
				"revocation requires a non-empty reason",
				map[string]string{"metadata": "reason"})
		}

	case record.ActionAssign:
		if rec.Assignee != "" {
			return newInvalidTransition(rec.ID, in.Type, rec.Status,
				fmt.Sprintf("record is already assigned to %s", rec.Assignee))
		}

	case record.ActionUnassign:
		if rec.Assignee == "" {
			return newInvalidTransition(rec.ID, in.Type, rec.Status,
				"record is not assigned")
		}
		if rec.Assignee != actor.UserID && !actor.HasScope(record.ScopeRegisterElevated) {
			return newInsufficientScope(rec.ID, in.Type,
				[]record.Scope{record.ScopeRegisterElevated})
		}

	case record.ActionMarkDuplicate:
		if metaString(in.Metadata, "duplicateOf") == "" {
			return newValidationFailed(rec.ID, in.Type,
				"marking a duplicate requires a duplicateOf reference",
				map[string]string{"metadata": "duplicateOf"})
		}

	case record.ActionResolveDuplicate:
		if !rec.HasFlag(record.FlagPotentialDuplicate) {
			return newInvalidTransition(rec.ID, in.Type, rec.Status,
				"record is not flagged as a potential duplicate")
		}
	}

	return nil
}

func (e *Engine) validateDeclaration(eventID string, action record.ActionType, t record.EventType, decl record.Declaration) error {
	if len(decl) == 0 {
		return nil
	}
	errs := e.schemas.Validate(t, decl)
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Path] = fe.Reason
	}
	return newValidationFailed(eventID, action,
		fmt.Sprintf("declaration rejected: %s", errs[0].Error()), details)
}

// advance folds one accepted action into a record snapshot. It is the
// single place record state changes, shared by Apply and Replay, which is
// what makes fold-consistency structural rather than something to test
// into existence.
func (e *Engine) advance(rec record.Record, act record.Action) record.Record {
	out := rec.Clone()

	switch act.Type {
	case record.ActionCreate:
		out.CreatedAt = act.Timestamp
		out.Declaration = record.Declaration{}
		out.Declaration = out.Declaration.Merge(act.Declaration)
	case record.ActionNotify, record.ActionDeclare, record.ActionValidate,
		record.ActionCorrectApprove:
		out.Declaration = out.Declaration.Merge(act.Declaration)
	case record.ActionAssign:
		out.Assignee = act.Actor.UserID
	case record.ActionUnassign:
		out.Assignee = ""
	}

	out.Status = act.StatusAfter
	out.History = append(out.History, act)
	out.UpdatedAt = act.Timestamp
	out.Flags = deriveFlags(out, e.lateCutoff, act.Timestamp)

	return out
}

func metaString(md record.Metadata, key string) string {
	if md == nil {
		return ""
	}
	if v, ok := md[key].(record.FieldString); ok {
		return string(v)
	}
	return ""
}
