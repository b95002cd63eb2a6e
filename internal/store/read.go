package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// RecordHead is the identity of a stored record: everything fixed at
// creation, nothing that the action log can change.
type RecordHead struct {
	ID         string
	Type       record.EventType
	TrackingID string
	CreatedAt  time.Time
}

// LoadHead fetches a record's identity row by ID.
// Returns ErrNotFound when no such record exists.
func (s *Store) LoadHead(ctx context.Context, id string) (RecordHead, error) {
	return s.loadHead(ctx, `SELECT id, event_type, tracking_id, created_at FROM records WHERE id = ?`, id)
}

// LoadHeadByTracking fetches a record's identity row by tracking ID.
// Returns ErrNotFound when no such record exists.
func (s *Store) LoadHeadByTracking(ctx context.Context, trackingID string) (RecordHead, error) {
	return s.loadHead(ctx, `SELECT id, event_type, tracking_id, created_at FROM records WHERE tracking_id = ?`, trackingID)
}

func (s *Store) loadHead(ctx context.Context, query, key string) (RecordHead, error) {
	var head RecordHead
	var eventType, createdAt string

	err := s.db.QueryRowContext(ctx, query, key).
		Scan(&head.ID, &eventType, &head.TrackingID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RecordHead{}, ErrNotFound
	}
	if err != nil {
		return RecordHead{}, fmt.Errorf("load head: %w", err)
	}

	head.Type = record.EventType(eventType)
	head.CreatedAt, err = unmarshalTime(createdAt)
	if err != nil {
		return RecordHead{}, fmt.Errorf("load head: %w", err)
	}
	return head, nil
}

// LoadActions fetches a record's full history in seq order.
// An existing record always has at least one action; an empty result
// means the record does not exist and ErrNotFound is returned.
func (s *Store) LoadActions(ctx context.Context, recordID string) ([]record.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action_type, transaction_id, actor, seq, timestamp,
		       status_before, status_after, declaration, metadata
		FROM actions
		WHERE record_id = ?
		ORDER BY seq ASC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	defer rows.Close()

	var actions []record.Action
	for rows.Next() {
		act, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("load actions: %w", err)
		}
		actions = append(actions, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	if len(actions) == 0 {
		return nil, ErrNotFound
	}
	return actions, nil
}

func scanAction(rows *sql.Rows) (record.Action, error) {
	var act record.Action
	var actionType, actorJSON, ts, before, after, declJSON, metaJSON string

	err := rows.Scan(&act.ID, &actionType, &act.TransactionID, &actorJSON, &act.Seq, &ts,
		&before, &after, &declJSON, &metaJSON)
	if err != nil {
		return record.Action{}, err
	}

	act.Type = record.ActionType(actionType)
	act.StatusBefore = record.Status(before)
	act.StatusAfter = record.Status(after)

	act.Actor, err = unmarshalActor(actorJSON)
	if err != nil {
		return record.Action{}, err
	}
	act.Timestamp, err = unmarshalTime(ts)
	if err != nil {
		return record.Action{}, err
	}
	act.Declaration, err = unmarshalDeclaration(declJSON)
	if err != nil {
		return record.Action{}, err
	}
	act.Metadata, err = unmarshalMetadata(metaJSON)
	if err != nil {
		return record.Action{}, err
	}
	return act, nil
}

// StateRow is one row of the record_state projection.
type StateRow struct {
	RecordID   string
	Type       record.EventType
	TrackingID string
	Status     record.Status
	Assignee   string
	Flags      []record.Flag
	Version    int
	UpdatedAt  time.Time
}

// QueryStates runs a filtered query over the state projection. The where
// clause (without the WHERE keyword) and args are produced by the
// workqueue compiler; an empty clause returns everything, newest first.
func (s *Store) QueryStates(ctx context.Context, where string, args ...any) ([]StateRow, error) {
	query := `
		SELECT rs.record_id, rs.event_type, r.tracking_id, rs.status,
		       rs.assignee, rs.flags, rs.version, rs.updated_at
		FROM record_state rs
		JOIN records r ON r.id = rs.record_id
	`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY rs.updated_at DESC, rs.record_id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var out []StateRow
	for rows.Next() {
		var row StateRow
		var eventType, status, flagsJSON, updatedAt string
		err := rows.Scan(&row.RecordID, &eventType, &row.TrackingID, &status,
			&row.Assignee, &flagsJSON, &row.Version, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("query states: %w", err)
		}
		row.Type = record.EventType(eventType)
		row.Status = record.Status(status)
		row.Flags, err = unmarshalFlags(flagsJSON)
		if err != nil {
			return nil, fmt.Errorf("query states: %w", err)
		}
		row.UpdatedAt, err = unmarshalTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("query states: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	return out, nil
}
