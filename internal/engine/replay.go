package engine

import (
	"fmt"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// RecordMeta is the identity of a record, fixed at creation and carried
// outside the action history.
type RecordMeta struct {
	ID         string
	Type       record.EventType
	TrackingID string
}

// Replay rebuilds a record snapshot by folding its action history from
// the beginning. The fold uses the same advance step as Apply, so a
// replayed record is byte-for-byte the record Apply produced.
//
// Replay also verifies history integrity as it goes: each action's
// content-addressed ID is recomputed, its seq must strictly increase,
// and its StatusBefore must match the folded status. A mismatch means
// the stored history was corrupted or was produced by different rules,
// and replay stops rather than fabricating a plausible record.
func (e *Engine) Replay(meta RecordMeta, actions []record.Action) (record.Record, error) {
	if len(actions) == 0 {
		return record.Record{}, fmt.Errorf("replay %s: empty history", meta.ID)
	}
	if actions[0].Type != record.ActionCreate {
		return record.Record{}, fmt.Errorf("replay %s: history does not start with %s",
			meta.ID, record.ActionCreate)
	}

	rec := record.Record{
		ID:         meta.ID,
		Type:       meta.Type,
		TrackingID: meta.TrackingID,
	}

	var lastSeq int64
	for i, act := range actions {
		if act.Seq <= lastSeq {
			return record.Record{}, fmt.Errorf("replay %s: action %d: seq %d not after %d",
				meta.ID, i, act.Seq, lastSeq)
		}
		lastSeq = act.Seq

		wantID, err := record.ActionID(meta.ID, act.Type, act.Seq, act.Declaration)
		if err != nil {
			return record.Record{}, fmt.Errorf("replay %s: action %d: %w", meta.ID, i, err)
		}
		if act.ID != wantID {
			return record.Record{}, fmt.Errorf("replay %s: action %d (%s): stored ID %s does not match recomputed %s",
				meta.ID, i, act.Type, act.ID, wantID)
		}

		if i > 0 && act.StatusBefore != rec.Status {
			return record.Record{}, fmt.Errorf("replay %s: action %d (%s): status_before %s, folded status %s",
				meta.ID, i, act.Type, act.StatusBefore, rec.Status)
		}

		rec = e.advance(rec, act)
	}

	return rec, nil
}
