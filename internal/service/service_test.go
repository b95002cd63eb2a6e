package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/logger"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/schema"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

var (
	fieldAgent = record.ActorContext{
		UserID: "agent-1",
		Role:   "FIELD_AGENT",
		Scopes: []record.Scope{record.ScopeNotify, record.ScopeDeclare},
	}
	registrar = record.ActorContext{
		UserID: "registrar-1",
		Role:   "LOCAL_REGISTRAR",
		Scopes: []record.Scope{
			record.ScopeDeclare, record.ScopeValidate,
			record.ScopeRegister, record.ScopeCertify,
		},
	}
)

func newTestService(t *testing.T, dbPath string) (*Service, *store.Store) {
	t.Helper()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	maxSeq, err := st.MaxSeq(context.Background())
	require.NoError(t, err)

	reg, err := schema.Load()
	require.NoError(t, err)

	eng := engine.New(reg, engine.WithClock(engine.NewClockAt(maxSeq)))
	return New(eng, st, logger.Nop()), st
}

func declareBirth(t *testing.T, svc *Service) record.Record {
	t.Helper()
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "", engine.ActionInput{
		Type:          record.ActionCreate,
		TransactionID: "txn-create",
		EventType:     record.EventBirth,
		Declaration: record.Declaration{
			"child.firstname": record.FieldString("Ada"),
			"child.dob":       record.FieldString(time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")),
		},
	}, fieldAgent)
	require.NoError(t, err)

	rec, err = svc.Submit(ctx, rec.ID, engine.ActionInput{
		Type:          record.ActionDeclare,
		TransactionID: "txn-declare",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.NoError(t, err)
	return rec
}

func TestSubmitPersistsAndReloads(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	rec := declareBirth(t, svc)

	loaded, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, record.StatusDeclared, loaded.Status)
	assert.Equal(t, rec.Version(), loaded.Version())
	assert.Equal(t, rec.Declaration, loaded.Declaration)

	for i := range rec.History {
		assert.Equal(t, rec.History[i].ID, loaded.History[i].ID)
	}

	byTracking, err := svc.GetByTracking(ctx, rec.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byTracking.ID)
}

func TestSubmitDuplicateTransactionIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	rec := declareBirth(t, svc)

	again, err := svc.Submit(ctx, rec.ID, engine.ActionInput{
		Type:          record.ActionDeclare,
		TransactionID: "txn-declare",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.NoError(t, err)
	assert.Equal(t, rec.Version(), again.Version())

	history, err := svc.History(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, history, rec.Version())
}

func TestSubmitRetriedCreateIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	in := engine.ActionInput{
		Type:          record.ActionCreate,
		TransactionID: "txn-create",
		EventType:     record.EventBirth,
		EventID:       "evt-preallocated",
		Declaration: record.Declaration{
			"child.firstname": record.FieldString("Ada"),
		},
	}
	first, err := svc.Submit(ctx, "", in, fieldAgent)
	require.NoError(t, err)
	require.Equal(t, "evt-preallocated", first.ID)
	require.Equal(t, 1, first.Version())

	// An at-least-once transport redelivers the same create. The caller
	// must get the stored record back, not a second one.
	again, err := svc.Submit(ctx, "", in, fieldAgent)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.Version(), again.Version())
	assert.Equal(t, first.History[0].ID, again.History[0].ID)

	history, err := svc.History(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSubmitStaleVersionRejected(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	rec := declareBirth(t, svc)

	_, err := svc.Submit(ctx, rec.ID, engine.ActionInput{
		Type:          record.ActionValidate,
		TransactionID: "txn-validate",
		BaseVersion:   rec.Version() - 1,
	}, registrar)
	require.Error(t, err)
	assert.True(t, engine.IsConcurrentModification(err))
}

func TestSubmitUnknownRecord(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))

	_, err := svc.Submit(context.Background(), "no-such-record", engine.ActionInput{
		Type:          record.ActionDeclare,
		TransactionID: "txn-x",
		BaseVersion:   0,
	}, fieldAgent)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestServiceSurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "svc.db")
	ctx := context.Background()

	svc1, st1 := newTestService(t, dbPath)
	rec := declareBirth(t, svc1)
	lastSeq := rec.History[len(rec.History)-1].Seq
	st1.Close()

	// A fresh process resumes the clock past everything persisted.
	svc2, _ := newTestService(t, dbPath)
	rec2, err := svc2.Submit(ctx, rec.ID, engine.ActionInput{
		Type:          record.ActionValidate,
		TransactionID: "txn-validate",
		BaseVersion:   rec.Version(),
	}, registrar)
	require.NoError(t, err)
	assert.Equal(t, record.StatusValidated, rec2.Status)
	assert.Greater(t, rec2.History[len(rec2.History)-1].Seq, lastSeq)
}

func TestQueueEvaluation(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	rec := declareBirth(t, svc)

	rows, err := svc.Queue(ctx, "ready-for-review", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rec.ID, rows[0].RecordID)

	_, err = svc.Queue(ctx, "nonexistent", "")
	require.Error(t, err)
}

func TestVerifyAllCleanStore(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	declareBirth(t, svc)

	checked, problems, err := svc.VerifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, checked)
	assert.Empty(t, problems)
}

func TestVerifyAllDetectsTampering(t *testing.T) {
	svc, st := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	rec := declareBirth(t, svc)

	// Flip a stored action type behind the engine's back. Replay
	// recomputes action IDs, so the edit must surface as a problem.
	_, err := st.DB().ExecContext(ctx,
		`UPDATE actions SET action_type = 'VALIDATE' WHERE record_id = ? AND action_type = 'DECLARE'`,
		rec.ID)
	require.NoError(t, err)

	checked, problems, err := svc.VerifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, checked)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "replay failed")
}

func TestDeleteDraftRemovesRecord(t *testing.T) {
	svc, _ := newTestService(t, filepath.Join(t.TempDir(), "svc.db"))
	ctx := context.Background()

	rec, err := svc.Submit(ctx, "", engine.ActionInput{
		Type:          record.ActionCreate,
		TransactionID: "txn-create",
		EventType:     record.EventBirth,
	}, fieldAgent)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, rec.ID, engine.ActionInput{
		Type:          record.ActionDeleteDraft,
		TransactionID: "txn-del",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.NoError(t, err)

	_, err = svc.Get(ctx, rec.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
