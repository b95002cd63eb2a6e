// Package service composes the lifecycle engine with durable storage.
//
// The engine is pure and the store is passive; Service is where the two
// meet under a single-writer lock. Everything above it (HTTP handlers,
// CLI commands) talks to records exclusively through this package.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/logger"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/workqueue"
)

// Service owns the write path for records.
type Service struct {
	// mu serializes Submit. The engine's optimistic version check makes
	// lost updates impossible even without it, but single-writer keeps
	// the load-apply-append sequence free of retry loops.
	mu  sync.Mutex
	eng *engine.Engine
	st  *store.Store
	log *logger.Logger
}

// New creates a Service.
func New(eng *engine.Engine, st *store.Store, log *logger.Logger) *Service {
	return &Service{eng: eng, st: st, log: log.WithComponent("service")}
}

// Submit applies one action and persists the result.
//
// For CREATE, eventID must be empty (or a pre-allocated ID in
// in.EventID); for everything else it names the target record. The
// returned snapshot reflects the accepted action, or the unchanged
// record when the transaction was already applied.
func (s *Service) Submit(ctx context.Context, eventID string, in engine.ActionInput, actor record.ActorContext) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec record.Record
	switch {
	case in.Type != record.ActionCreate:
		loaded, err := s.load(ctx, eventID)
		if err != nil {
			return record.Record{}, err
		}
		rec = loaded
	case in.EventID != "":
		// A create with a pre-allocated event ID may be a retry. Loading
		// whatever exists under that ID lets the engine's idempotence
		// scan absorb the duplicate instead of rejecting it.
		loaded, err := s.load(ctx, in.EventID)
		switch {
		case err == nil:
			rec = loaded
		case errors.Is(err, store.ErrNotFound):
			// Fresh create.
		default:
			return record.Record{}, err
		}
	}

	out, err := s.eng.Apply(rec, in, actor)
	if err != nil {
		s.log.Warn().
			Str("event_id", eventID).
			Str("action", string(in.Type)).
			Str("actor", actor.UserID).
			Err(err).
			Msg("action rejected")
		return record.Record{}, err
	}

	if out.Version() == rec.Version() {
		// Duplicate transaction: already folded, nothing to persist.
		s.log.Debug().
			Str("event_id", out.ID).
			Str("action", string(in.Type)).
			Str("transaction_id", in.TransactionID).
			Msg("duplicate transaction ignored")
		return out, nil
	}

	inserted, err := s.st.AppendAction(ctx, out)
	if err != nil {
		return record.Record{}, fmt.Errorf("submit %s: %w", in.Type, err)
	}
	if !inserted {
		// The transaction key already exists on disk, so the freshly
		// folded action never landed. Return the stored truth rather
		// than an unpersisted snapshot.
		stored, err := s.load(ctx, out.ID)
		if err != nil {
			return record.Record{}, fmt.Errorf("submit %s: %w", in.Type, err)
		}
		s.log.Debug().
			Str("event_id", out.ID).
			Str("action", string(in.Type)).
			Str("transaction_id", in.TransactionID).
			Msg("duplicate transaction ignored")
		return stored, nil
	}

	last := out.History[len(out.History)-1]
	s.log.Info().
		Str("event_id", out.ID).
		Str("action", string(in.Type)).
		Str("actor", actor.UserID).
		Int64("seq", last.Seq).
		Str("status", string(out.Status)).
		Msg("action accepted")

	return out, nil
}

// Get loads a record by ID, rebuilding it from its action log.
func (s *Service) Get(ctx context.Context, eventID string) (record.Record, error) {
	return s.load(ctx, eventID)
}

// GetByTracking loads a record by its tracking ID.
func (s *Service) GetByTracking(ctx context.Context, trackingID string) (record.Record, error) {
	head, err := s.st.LoadHeadByTracking(ctx, trackingID)
	if err != nil {
		return record.Record{}, err
	}
	return s.replay(ctx, head)
}

// History returns a record's full action log in seq order.
func (s *Service) History(ctx context.Context, eventID string) ([]record.Action, error) {
	return s.st.LoadActions(ctx, eventID)
}

// Queue evaluates a named work queue for the given actor.
func (s *Service) Queue(ctx context.Context, slug, actorID string) ([]store.StateRow, error) {
	q, ok := workqueue.BySlug(slug)
	if !ok {
		return nil, fmt.Errorf("unknown work queue %q", slug)
	}
	return workqueue.List(ctx, s.st, q, actorID)
}

// VerifyAll replays every stored record and cross-checks the result
// against the state projection. It returns the number of records
// checked and a description of each inconsistency found.
func (s *Service) VerifyAll(ctx context.Context) (int, []string, error) {
	rows, err := s.st.QueryStates(ctx, "")
	if err != nil {
		return 0, nil, err
	}

	var problems []string
	for _, row := range rows {
		rec, err := s.load(ctx, row.RecordID)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: replay failed: %v", row.RecordID, err))
			continue
		}
		if rec.Status != row.Status {
			problems = append(problems, fmt.Sprintf("%s: status %s in projection, %s from replay",
				row.RecordID, row.Status, rec.Status))
		}
		if rec.Version() != row.Version {
			problems = append(problems, fmt.Sprintf("%s: version %d in projection, %d from replay",
				row.RecordID, row.Version, rec.Version()))
		}
		if rec.Assignee != row.Assignee {
			problems = append(problems, fmt.Sprintf("%s: assignee %q in projection, %q from replay",
				row.RecordID, row.Assignee, rec.Assignee))
		}
	}
	return len(rows), problems, nil
}

func (s *Service) load(ctx context.Context, eventID string) (record.Record, error) {
	head, err := s.st.LoadHead(ctx, eventID)
	if err != nil {
		return record.Record{}, err
	}
	return s.replay(ctx, head)
}

// replay folds the stored log back into a snapshot. Reading through
// replay on every load doubles as continuous verification: a corrupted
// log surfaces here, not in a quarterly audit.
func (s *Service) replay(ctx context.Context, head store.RecordHead) (record.Record, error) {
	actions, err := s.st.LoadActions(ctx, head.ID)
	if err != nil {
		return record.Record{}, err
	}
	rec, err := s.eng.Replay(engine.RecordMeta{
		ID:         head.ID,
		Type:       head.Type,
		TrackingID: head.TrackingID,
	}, actions)
	if err != nil {
		return record.Record{}, fmt.Errorf("load %s: %w", head.ID, err)
	}
	return rec, nil
}
