package engine

import "github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"

// rule describes the legality of one action type: where it may start
// from, what capability it needs, and where it lands.
//
// The table is deliberately explicit and boring. Every legal transition
// in the system is one line here; anything the table does not list is an
// INVALID_TRANSITION. Flag-gated refinements (late registration, pending
// corrections, duplicates) are layered on top in apply.go because they
// depend on record state beyond the status enum.
type rule struct {
	// creates marks actions that bring a record into existence.
	// For these, from is ignored and the record must not exist yet.
	creates bool

	// from lists the statuses the action is legal from.
	from []record.Status

	// scopes is the set of capabilities of which the actor needs at
	// least one. Empty means any authenticated actor.
	scopes []record.Scope

	// to is the resulting status. Empty means the status is unchanged
	// (flag and assignment actions). REINSTATE is the one exception,
	// resolved dynamically from the revoking action's StatusBefore.
	to record.Status

	// assigneeGated marks content-mutating actions: when the record is
	// assigned to someone else, the action is rejected with NOT_ASSIGNED.
	// Acting on an unassigned record is always permitted.
	assigneeGated bool
}

func (r rule) allowsFrom(s record.Status) bool {
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}

var transitions = map[record.ActionType]rule{
	record.ActionCreate: {
		creates: true,
		scopes:  []record.Scope{record.ScopeNotify, record.ScopeDeclare},
		to:      record.StatusInProgress,
	},
	record.ActionNotify: {
		from:   []record.Status{record.StatusInProgress},
		scopes: []record.Scope{record.ScopeNotify},
		to:     record.StatusNotified,
	},
	// ARCHIVED and REJECTED are recoverable: a fresh Declare reopens the
	// record rather than requiring a new one.
	record.ActionDeclare: {
		from: []record.Status{
			record.StatusInProgress,
			record.StatusNotified,
			record.StatusArchived,
			record.StatusRejected,
		},
		scopes:        []record.Scope{record.ScopeDeclare},
		to:            record.StatusDeclared,
		assigneeGated: true,
	},
	record.ActionValidate: {
		from:          []record.Status{record.StatusDeclared, record.StatusArchived},
		scopes:        []record.Scope{record.ScopeValidate},
		to:            record.StatusValidated,
		assigneeGated: true,
	},
	record.ActionRegister: {
		from:          []record.Status{record.StatusValidated},
		scopes:        []record.Scope{record.ScopeRegister},
		to:            record.StatusRegistered,
		assigneeGated: true,
	},
	record.ActionReject: {
		from:          []record.Status{record.StatusDeclared, record.StatusValidated},
		scopes:        []record.Scope{record.ScopeValidate, record.ScopeRegister},
		to:            record.StatusRejected,
		assigneeGated: true,
	},
	record.ActionArchive: {
		from: []record.Status{
			record.StatusDeclared,
			record.StatusValidated,
			record.StatusRegistered,
			record.StatusRejected,
		},
		scopes:        []record.Scope{record.ScopeValidate, record.ScopeRegister},
		to:            record.StatusArchived,
		assigneeGated: true,
	},
	record.ActionApprove: {
		from:   []record.Status{record.StatusDeclared, record.StatusValidated},
		scopes: []record.Scope{record.ScopeRegister},
	},
	record.ActionCorrectRequest: {
		from: []record.Status{
			record.StatusRegistered,
			record.StatusCertified,
			record.StatusIssued,
		},
		scopes: []record.Scope{record.ScopeValidate, record.ScopeRegister, record.ScopeCertify},
	},
	record.ActionCorrectApprove: {
		from: []record.Status{
			record.StatusRegistered,
			record.StatusCertified,
			record.StatusIssued,
		},
		scopes: []record.Scope{record.ScopeRegister},
	},
	record.ActionCorrectReject: {
		from: []record.Status{
			record.StatusRegistered,
			record.StatusCertified,
			record.StatusIssued,
		},
		scopes: []record.Scope{record.ScopeRegister},
	},
	record.ActionPrint: {
		from:   []record.Status{record.StatusRegistered},
		scopes: []record.Scope{record.ScopeCertify},
		to:     record.StatusCertified,
	},
	record.ActionIssue: {
		from:   []record.Status{record.StatusCertified},
		scopes: []record.Scope{record.ScopeCertify},
		to:     record.StatusIssued,
	},
	record.ActionRevoke: {
		from: []record.Status{
			record.StatusRegistered,
			record.StatusCertified,
			record.StatusIssued,
		},
		scopes: []record.Scope{record.ScopeRegisterElevated},
		to:     record.StatusRevoked,
	},
	record.ActionReinstate: {
		from:   []record.Status{record.StatusRevoked},
		scopes: []record.Scope{record.ScopeRegisterElevated},
		// Target resolved from the revoking action's StatusBefore.
	},
	record.ActionAssign: {
		from: []record.Status{
			record.StatusInProgress,
			record.StatusNotified,
			record.StatusDeclared,
			record.StatusValidated,
			record.StatusRegistered,
			record.StatusCertified,
			record.StatusIssued,
			record.StatusRejected,
			record.StatusArchived,
		},
	},
	record.ActionUnassign: {
		from: []record.Status{
			record.StatusInProgress,
			record.StatusNotified,
			record.StatusDeclared,
			record.StatusValidated,
			record.StatusRegistered,
			record.StatusCertified,
			record.StatusIssued,
			record.StatusRejected,
			record.StatusArchived,
		},
	},
	record.ActionMarkDuplicate: {
		from:   []record.Status{record.StatusDeclared, record.StatusValidated},
		scopes: []record.Scope{record.ScopeValidate, record.ScopeRegister},
	},
	record.ActionResolveDuplicate: {
		from:   []record.Status{record.StatusDeclared, record.StatusValidated},
		scopes: []record.Scope{record.ScopeRegister},
	},
	record.ActionDeleteDraft: {
		from:          []record.Status{record.StatusInProgress},
		scopes:        []record.Scope{record.ScopeDeclare},
		assigneeGated: true,
	},
}

// RequiredScopes returns the capability set for an action type, of which
// the actor needs at least one. Nil means any authenticated actor.
func RequiredScopes(t record.ActionType) []record.Scope {
	return transitions[t].scopes
}

// LegalFrom returns the statuses from which the action type is legal.
// Flag-gated refinements are not reflected here.
func LegalFrom(t record.ActionType) []record.Status {
	r := transitions[t]
	out := make([]record.Status, len(r.from))
	copy(out, r.from)
	return out
}
