package engine

import (
	"time"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// eventDatePaths maps each event type to the declaration field holding the
// date the event occurred, used for late-registration detection.
var eventDatePaths = map[record.EventType]string{
	record.EventBirth:    "child.dob",
	record.EventDeath:    "eventDetails.date",
	record.EventMarriage: "eventDetails.date",
}

// deriveFlags recomputes the full flag set from the record's content and
// history. Flags are never set or cleared imperatively: after every
// accepted action the set is derived from scratch, so a flag can never
// survive the disappearance of its cause.
//
// asOf is the timestamp of the action being applied, not wall-clock now.
// Using the stored timestamp keeps derivation deterministic under replay.
func deriveFlags(rec record.Record, lateCutoff time.Duration, asOf time.Time) []record.Flag {
	var flags []record.Flag

	if potentialDuplicate(rec) {
		flags = append(flags, record.FlagPotentialDuplicate)
	}
	if requiresLateApproval(rec, lateCutoff, asOf) {
		flags = append(flags, record.FlagRequiresLateApproval)
	}
	if correctionRequested(rec) {
		flags = append(flags, record.FlagCorrectionRequested)
	}
	if printed(rec) {
		flags = append(flags, record.FlagPrinted)
	}

	return flags
}

// potentialDuplicate is set when a MARK_DUPLICATE has not been followed by
// a RESOLVE_DUPLICATE.
func potentialDuplicate(rec record.Record) bool {
	for i := len(rec.History) - 1; i >= 0; i-- {
		switch rec.History[i].Type {
		case record.ActionMarkDuplicate:
			return true
		case record.ActionResolveDuplicate:
			return false
		}
	}
	return false
}

// requiresLateApproval is set while a record awaiting registration carries
// an event date older than the configured cutoff and no APPROVE has been
// recorded yet. Registration is blocked while the flag is up.
func requiresLateApproval(rec record.Record, cutoff time.Duration, asOf time.Time) bool {
	if cutoff <= 0 {
		return false
	}
	switch rec.Status {
	case record.StatusDeclared, record.StatusValidated:
	default:
		return false
	}
	if rec.LastAction(record.ActionApprove) != nil {
		return false
	}

	path, ok := eventDatePaths[rec.Type]
	if !ok {
		return false
	}
	raw, ok := rec.Declaration[path]
	if !ok {
		return false
	}
	str, ok := raw.(record.FieldString)
	if !ok {
		return false
	}
	eventDate, err := time.Parse("2006-01-02", string(str))
	if err != nil {
		// Date format problems are the schema's concern, not the flag's.
		return false
	}

	return asOf.Sub(eventDate) > cutoff
}

// correctionRequested is set when a CORRECT_REQUEST has not yet been
// approved or rejected.
func correctionRequested(rec record.Record) bool {
	for i := len(rec.History) - 1; i >= 0; i-- {
		switch rec.History[i].Type {
		case record.ActionCorrectRequest:
			return true
		case record.ActionCorrectApprove, record.ActionCorrectReject:
			return false
		}
	}
	return false
}

// printed is set once a certificate has been printed and the record is
// still in a printed state. Revocation drops it; reinstating to CERTIFIED
// or ISSUED brings it back.
func printed(rec record.Record) bool {
	switch rec.Status {
	case record.StatusCertified, record.StatusIssued:
		return rec.LastAction(record.ActionPrint) != nil
	}
	return false
}

// pendingCorrection returns the declaration patch of the open correction
// request, or nil when no correction is pending.
func pendingCorrection(rec record.Record) record.Declaration {
	for i := len(rec.History) - 1; i >= 0; i-- {
		switch rec.History[i].Type {
		case record.ActionCorrectRequest:
			return rec.History[i].Declaration
		case record.ActionCorrectApprove, record.ActionCorrectReject:
			return nil
		}
	}
	return nil
}
