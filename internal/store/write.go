package store

import (
	"context"
	"fmt"

	"github.com/kortbus/sdlgen/internal/ir"
)

// RecordRun inserts a run record into the store and returns the stored
// record with its assigned seq. The caller supplies everything except Seq,
// which the store assigns inside the transaction as the next value of the
// logical clock.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - recording the same run
// ID twice leaves the first record in place and returns it with
// inserted=false. Other constraint violations (e.g., NOT NULL) still
// return errors.
func (s *Store) RecordRun(ctx context.Context, rec ir.RunRecord) (stored ir.RunRecord, inserted bool, err error) {
	// Use a transaction so the seq assignment and insert are atomic
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.RunRecord{}, false, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Assign the next seq. MAX(seq) is stable under the single-writer
	// connection configuration.
	var next int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM runs
	`).Scan(&next)
	if err != nil {
		return ir.RunRecord{}, false, fmt.Errorf("record run: next seq: %w", err)
	}
	rec.Seq = next

	// Try to insert
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, context, profile_digest, header_digest, output_digest, output_path, tool_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.Context,
		rec.ProfileDigest,
		rec.HeaderDigest,
		rec.OutputDigest,
		rec.OutputPath,
		rec.ToolVersion,
		rec.CreatedAt,
	)
	if err != nil {
		return ir.RunRecord{}, false, fmt.Errorf("record run: insert: %w", err)
	}

	// Check if a row was actually inserted
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ir.RunRecord{}, false, fmt.Errorf("record run: rows affected: %w", err)
	}

	if rowsAffected > 0 {
		stored = rec
		inserted = true
	} else {
		// Conflict - the run was already recorded, fetch the existing row
		row := tx.QueryRowContext(ctx, `
			SELECT id, seq, context, profile_digest, header_digest, output_digest, output_path, tool_version, created_at
			FROM runs
			WHERE id = ?
		`, rec.ID)
		stored, err = scanRunRow(row)
		if err != nil {
			return ir.RunRecord{}, false, fmt.Errorf("record run: select existing: %w", err)
		}
		inserted = false
	}

	if err := tx.Commit(); err != nil {
		return ir.RunRecord{}, false, fmt.Errorf("record run: commit: %w", err)
	}

	return stored, inserted, nil
}

// HasRun checks whether a run with the given ID has been recorded.
func (s *Store) HasRun(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM runs WHERE id = ?
	`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check run: %w", err)
	}
	return count > 0, nil
}
