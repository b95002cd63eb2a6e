package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// AppendAction atomically persists the newest action of a record snapshot
// together with the refreshed state projection. Call it with the record
// returned by the engine; the last history entry is the one written.
//
// Uses ON CONFLICT(transaction_key) DO NOTHING for idempotency: a retried
// submission that the engine already folded is silently ignored, and
// inserted=false is returned. A CREATE action also inserts the records
// row; a DELETE_DRAFT removes the record and its log entirely.
func (s *Store) AppendAction(ctx context.Context, rec record.Record) (inserted bool, err error) {
	if len(rec.History) == 0 {
		return false, fmt.Errorf("append action: record %s has empty history", rec.ID)
	}
	act := rec.History[len(rec.History)-1]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("append action: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if act.Type == record.ActionDeleteDraft {
		// Draft deletion is the one non-append operation: the record
		// never entered the legal registry, so its log goes with it.
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, rec.ID); err != nil {
			return false, fmt.Errorf("append action: delete draft: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("append action: commit delete: %w", err)
		}
		return true, nil
	}

	if act.Type == record.ActionCreate {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (id, event_type, tracking_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, rec.ID, string(rec.Type), rec.TrackingID, marshalTime(rec.CreatedAt))
		if err != nil {
			return false, fmt.Errorf("append action: insert record: %w", err)
		}
	}

	txnKey, err := record.TransactionKey(rec.ID, act.TransactionID, act.Type)
	if err != nil {
		return false, fmt.Errorf("append action: %w", err)
	}

	actorJSON, err := marshalActor(act.Actor)
	if err != nil {
		return false, fmt.Errorf("append action: %w", err)
	}
	declJSON, err := marshalDeclaration(act.Declaration)
	if err != nil {
		return false, fmt.Errorf("append action: %w", err)
	}
	metaJSON, err := marshalMetadata(act.Metadata)
	if err != nil {
		return false, fmt.Errorf("append action: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO actions
		(id, record_id, action_type, transaction_id, transaction_key, actor, seq,
		 timestamp, status_before, status_after, declaration, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_key) DO NOTHING
	`,
		act.ID,
		rec.ID,
		string(act.Type),
		act.TransactionID,
		txnKey,
		actorJSON,
		act.Seq,
		marshalTime(act.Timestamp),
		string(act.StatusBefore),
		string(act.StatusAfter),
		declJSON,
		metaJSON,
	)
	if err != nil {
		return false, fmt.Errorf("append action: insert action: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append action: rows affected: %w", err)
	}

	if rowsAffected > 0 {
		if err := upsertState(ctx, tx, rec); err != nil {
			return false, fmt.Errorf("append action: %w", err)
		}
		inserted = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("append action: commit: %w", err)
	}

	return inserted, nil
}

// upsertState refreshes the record_state projection from a snapshot.
func upsertState(ctx context.Context, tx *sql.Tx, rec record.Record) error {
	flagsJSON, err := marshalFlags(rec.Flags)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO record_state
		(record_id, event_type, status, assignee, flags, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			status = excluded.status,
			assignee = excluded.assignee,
			flags = excluded.flags,
			version = excluded.version,
			updated_at = excluded.updated_at
	`,
		rec.ID,
		string(rec.Type),
		string(rec.Status),
		rec.Assignee,
		flagsJSON,
		rec.Version(),
		marshalTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}
