package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kortbus/sdlgen/internal/ir"
)

// GetRun retrieves a single run record by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, context, profile_digest, header_digest, output_digest, output_path, tool_version, created_at
		FROM runs
		WHERE id = ?
	`, id)

	return scanRunRow(row)
}

// LatestRun returns the most recently recorded run for a context, where
// "most recent" means highest seq, not newest timestamp.
// Returns sql.ErrNoRows if no run has been recorded for the context.
func (s *Store) LatestRun(ctx context.Context, contextName string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, context, profile_digest, header_digest, output_digest, output_path, tool_version, created_at
		FROM runs
		WHERE context = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, contextName)

	return scanRunRow(row)
}

// ListRuns returns all recorded runs for a context with deterministic
// ordering: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no runs exist for the context.
func (s *Store) ListRuns(ctx context.Context, contextName string) ([]ir.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, context, profile_digest, header_digest, output_digest, output_path, tool_version, created_at
		FROM runs
		WHERE context = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, contextName)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ir.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []ir.RunRecord{}
	}

	return runs, nil
}

// scanRun scans a row into a RunRecord struct.
func scanRun(rows *sql.Rows) (ir.RunRecord, error) {
	var rec ir.RunRecord
	if err := rows.Scan(
		&rec.ID, &rec.Seq, &rec.Context, &rec.ProfileDigest, &rec.HeaderDigest,
		&rec.OutputDigest, &rec.OutputPath, &rec.ToolVersion, &rec.CreatedAt,
	); err != nil {
		return ir.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	return rec, nil
}

// scanRunRow scans a single row into a RunRecord struct.
func scanRunRow(row *sql.Row) (ir.RunRecord, error) {
	var rec ir.RunRecord
	if err := row.Scan(
		&rec.ID, &rec.Seq, &rec.Context, &rec.ProfileDigest, &rec.HeaderDigest,
		&rec.OutputDigest, &rec.OutputPath, &rec.ToolVersion, &rec.CreatedAt,
	); err != nil {
		return ir.RunRecord{}, err
	}
	return rec, nil
}
