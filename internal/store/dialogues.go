package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetDialogueByExternalID looks up a dialogue by its (source, external_id) key (§4.1).
func GetDialogueByExternalID(ctx context.Context, q Querier, sourceID, externalID string) (*Dialogue, error) {
	var d Dialogue
	var sourceCreated, sourceUpdated sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT id, source_id, external_id, title, raw_json, source_created_at, source_updated_at, created_at, updated_at
		FROM dialogues WHERE source_id = ? AND external_id = ?
	`, sourceID, externalID).Scan(
		&d.ID, &d.SourceID, &d.ExternalID, &d.Title, &d.RawJSON,
		&sourceCreated, &sourceUpdated, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get dialogue %s/%s: %w", sourceID, externalID, err)
	}
	if sourceCreated.Valid {
		d.SourceCreatedAt = &sourceCreated.Int64
	}
	if sourceUpdated.Valid {
		d.SourceUpdatedAt = &sourceUpdated.Int64
	}
	return &d, nil
}

// InsertDialogue creates a new dialogue row.
func InsertDialogue(ctx context.Context, q Querier, d *Dialogue) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO dialogues (id, source_id, external_id, title, raw_json, source_created_at, source_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.SourceID, d.ExternalID, d.Title, d.RawJSON, d.SourceCreatedAt, d.SourceUpdatedAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert dialogue %s: %w", d.ExternalID, err)
	}
	return nil
}

// UpdateDialogue overwrites an existing dialogue's mutable fields in place.
func UpdateDialogue(ctx context.Context, q Querier, d *Dialogue) error {
	_, err := q.ExecContext(ctx, `
		UPDATE dialogues SET title = ?, raw_json = ?, source_created_at = ?, source_updated_at = ?, updated_at = ?
		WHERE id = ?
	`, d.Title, d.RawJSON, d.SourceCreatedAt, d.SourceUpdatedAt, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("store: update dialogue %s: %w", d.ID, err)
	}
	return nil
}

// ListDialoguesSince streams candidate dialogue entities for the annotator
// runtime, ordered by (created_at, id) (§4.7.1).
func ListDialoguesSince(ctx context.Context, q Querier, highWaterMark int64, limit int) ([]*Dialogue, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, source_id, external_id, title, raw_json, source_created_at, source_updated_at, created_at, updated_at
		FROM dialogues WHERE created_at > ? ORDER BY created_at, id LIMIT ?
	`, highWaterMark, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list dialogues since %d: %w", highWaterMark, err)
	}
	defer rows.Close()

	var out []*Dialogue
	for rows.Next() {
		var d Dialogue
		var sourceCreated, sourceUpdated sql.NullInt64
		if err := rows.Scan(
			&d.ID, &d.SourceID, &d.ExternalID, &d.Title, &d.RawJSON,
			&sourceCreated, &sourceUpdated, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan dialogue: %w", err)
		}
		if sourceCreated.Valid {
			d.SourceCreatedAt = &sourceCreated.Int64
		}
		if sourceUpdated.Valid {
			d.SourceUpdatedAt = &sourceUpdated.Int64
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// ListDialogueIDs returns every dialogue id, used by build_prompt_responses(nil).
func ListDialogueIDs(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM dialogues ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list dialogue ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan dialogue id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
