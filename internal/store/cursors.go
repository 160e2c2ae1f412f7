package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetCursor retrieves an annotator's progress marker for one entity kind,
// returning a fresh zero-value cursor (not yet persisted) if none exists.
func GetCursor(ctx context.Context, q Querier, annotatorName, annotatorVersion string, entityKind EntityKind) (*AnnotatorCursor, error) {
	var c AnnotatorCursor
	var lastRun sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT annotator_name, annotator_version, entity_kind, high_water_mark, entities_processed, last_run_at
		FROM annotator_cursors WHERE annotator_name = ? AND annotator_version = ? AND entity_kind = ?
	`, annotatorName, annotatorVersion, string(entityKind)).Scan(
		&c.AnnotatorName, &c.AnnotatorVersion, &c.EntityKind, &c.HighWaterMark, &c.EntitiesProcessed, &lastRun,
	)
	if err == sql.ErrNoRows {
		return &AnnotatorCursor{
			AnnotatorName:    annotatorName,
			AnnotatorVersion: annotatorVersion,
			EntityKind:       entityKind,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get cursor %s/%s/%s: %w", annotatorName, annotatorVersion, entityKind, err)
	}
	if lastRun.Valid {
		c.LastRunAt = &lastRun.Int64
	}
	return &c, nil
}

// AdvanceCursor persists a cursor's new high-water mark, processed count, and
// last-run timestamp (§4.7.1: cursors advance monotonically, even on an empty
// candidate stream, so a quiet annotator doesn't re-scan from zero forever).
func AdvanceCursor(ctx context.Context, q Querier, c *AnnotatorCursor) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO annotator_cursors (annotator_name, annotator_version, entity_kind,
			high_water_mark, entities_processed, last_run_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(annotator_name, annotator_version, entity_kind) DO UPDATE SET
			high_water_mark = excluded.high_water_mark,
			entities_processed = annotator_cursors.entities_processed + excluded.entities_processed,
			last_run_at = excluded.last_run_at
	`, c.AnnotatorName, c.AnnotatorVersion, string(c.EntityKind), c.HighWaterMark, c.EntitiesProcessed, c.LastRunAt)
	if err != nil {
		return fmt.Errorf("store: advance cursor %s/%s/%s: %w", c.AnnotatorName, c.AnnotatorVersion, c.EntityKind, err)
	}
	return nil
}

// DeleteCursor removes one annotator's cursor row, forcing its next run to
// re-scan every entity from the beginning (§6.3: annotate(..., clear=true)).
func DeleteCursor(ctx context.Context, q Querier, annotatorName, annotatorVersion string, entityKind EntityKind) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM annotator_cursors WHERE annotator_name = ? AND annotator_version = ? AND entity_kind = ?
	`, annotatorName, annotatorVersion, string(entityKind))
	if err != nil {
		return fmt.Errorf("store: delete cursor %s/%s/%s: %w", annotatorName, annotatorVersion, entityKind, err)
	}
	return nil
}

// ListCursors returns every persisted cursor, used by stats().
func ListCursors(ctx context.Context, q Querier) ([]*AnnotatorCursor, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT annotator_name, annotator_version, entity_kind, high_water_mark, entities_processed, last_run_at
		FROM annotator_cursors ORDER BY annotator_name, entity_kind
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list cursors: %w", err)
	}
	defer rows.Close()

	var out []*AnnotatorCursor
	for rows.Next() {
		var c AnnotatorCursor
		var lastRun sql.NullInt64
		if err := rows.Scan(&c.AnnotatorName, &c.AnnotatorVersion, &c.EntityKind, &c.HighWaterMark, &c.EntitiesProcessed, &lastRun); err != nil {
			return nil, fmt.Errorf("store: scan cursor: %w", err)
		}
		if lastRun.Valid {
			c.LastRunAt = &lastRun.Int64
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
