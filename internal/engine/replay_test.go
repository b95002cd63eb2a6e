package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

func TestReplayReproducesRecordExactly(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionPrint, TransactionID: "t-p"}, registrar)
	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionCorrectRequest,
		TransactionID: "t-cr",
		Declaration:   record.Declaration{"child.surname": record.FieldString("Okafor-Eze")},
	}, registrationAgent)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionCorrectApprove, TransactionID: "t-ca"}, registrar)

	// A fresh engine with the same rules must fold the history into the
	// identical snapshot.
	replayed, err := newTestEngine(t).Replay(RecordMeta{
		ID:         rec.ID,
		Type:       rec.Type,
		TrackingID: rec.TrackingID,
	}, rec.History)
	require.NoError(t, err)
	assert.Equal(t, rec, replayed)
}

func TestReplayRejectsEmptyHistory(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Replay(RecordMeta{ID: "ev-1", Type: record.EventBirth}, nil)
	require.Error(t, err)
}

func TestReplayRejectsHistoryNotStartingWithCreate(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	_, err := e.Replay(RecordMeta{
		ID:         rec.ID,
		Type:       rec.Type,
		TrackingID: rec.TrackingID,
	}, rec.History[1:])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not start with")
}

func TestReplayDetectsTamperedDeclaration(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	tampered := make([]record.Action, len(rec.History))
	copy(tampered, rec.History)
	tampered[1].Declaration = record.Declaration{
		"child.firstname": record.FieldString("Mallory"),
	}

	_, err := e.Replay(RecordMeta{
		ID:         rec.ID,
		Type:       rec.Type,
		TrackingID: rec.TrackingID,
	}, tampered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match recomputed")
}

func TestReplayDetectsSeqRegression(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	swapped := make([]record.Action, len(rec.History))
	copy(swapped, rec.History)
	swapped[1], swapped[2] = swapped[2], swapped[1]

	_, err := e.Replay(RecordMeta{
		ID:         rec.ID,
		Type:       rec.Type,
		TrackingID: rec.TrackingID,
	}, swapped)
	require.Error(t, err)
}

func TestReplayedVersionMatchesHistoryLength(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	replayed, err := newTestEngine(t).Replay(RecordMeta{
		ID:         rec.ID,
		Type:       rec.Type,
		TrackingID: rec.TrackingID,
	}, rec.History)
	require.NoError(t, err)
	assert.Equal(t, len(rec.History), replayed.Version())
}
