// Package annotation implements the Annotation Store (C6): typed read/write
// access to the 16-table matrix of (entity_kind × value_kind) annotations.
package annotation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmarx/chat2obs/internal/store"
)

// Result is the common metadata every annotation write carries, independent
// of value kind (§4.6, §4.7.2).
type Result struct {
	Key           string
	Confidence    *float64
	Reason        *string
	Source        string
	SourceVersion *string
	CreatedAt     int64
}

// WriteFlag inserts a flag annotation; on conflict on (entity_id, key) it is a
// no-op. Returns whether a new row was created (§4.6.1, §8: "only the first
// insert succeeds").
func WriteFlag(ctx context.Context, q store.Querier, kind store.EntityKind, entityID string, r Result) (bool, error) {
	table := string(kind) + "_annotations_flag"
	res, err := q.ExecContext(ctx, `
		INSERT INTO `+table+` (entity_id, key, confidence, reason, source, source_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, key) DO NOTHING
	`, entityID, r.Key, r.Confidence, r.Reason, r.Source, r.SourceVersion, r.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("annotation: write flag %s/%s/%s: %w", kind, entityID, r.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("annotation: rows affected: %w", err)
	}
	return n > 0, nil
}

// WriteString inserts a multi-value string annotation; on conflict on
// (entity_id, key, value) it is a no-op.
func WriteString(ctx context.Context, q store.Querier, kind store.EntityKind, entityID, value string, r Result) (bool, error) {
	table := string(kind) + "_annotations_string"
	res, err := q.ExecContext(ctx, `
		INSERT INTO `+table+` (entity_id, key, annotation_value, confidence, reason, source, source_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, key, annotation_value) DO NOTHING
	`, entityID, r.Key, value, r.Confidence, r.Reason, r.Source, r.SourceVersion, r.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("annotation: write string %s/%s/%s: %w", kind, entityID, r.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("annotation: rows affected: %w", err)
	}
	return n > 0, nil
}

// WriteNumeric inserts a multi-value numeric annotation; on conflict on
// (entity_id, key, value) it is a no-op.
func WriteNumeric(ctx context.Context, q store.Querier, kind store.EntityKind, entityID string, value float64, r Result) (bool, error) {
	table := string(kind) + "_annotations_numeric"
	res, err := q.ExecContext(ctx, `
		INSERT INTO `+table+` (entity_id, key, annotation_value, confidence, reason, source, source_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, key, annotation_value) DO NOTHING
	`, entityID, r.Key, value, r.Confidence, r.Reason, r.Source, r.SourceVersion, r.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("annotation: write numeric %s/%s/%s: %w", kind, entityID, r.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("annotation: rows affected: %w", err)
	}
	return n > 0, nil
}

// WriteJSON upserts a single-value JSON annotation, replacing the value on
// conflict on (entity_id, key).
func WriteJSON(ctx context.Context, q store.Querier, kind store.EntityKind, entityID string, value any, r Result) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("annotation: marshal json value: %w", err)
	}
	table := string(kind) + "_annotations_json"
	_, err = q.ExecContext(ctx, `
		INSERT INTO `+table+` (entity_id, key, annotation_value, confidence, reason, source, source_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, key) DO UPDATE SET
			annotation_value = excluded.annotation_value,
			confidence = excluded.confidence,
			reason = excluded.reason,
			source = excluded.source,
			source_version = excluded.source_version,
			created_at = excluded.created_at
	`, entityID, r.Key, string(encoded), r.Confidence, r.Reason, r.Source, r.SourceVersion, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("annotation: write json %s/%s/%s: %w", kind, entityID, r.Key, err)
	}
	return nil
}

// PurgeForEntity deletes every annotation row across all four value-kind
// tables for one entity, used when a message's content is rebuilt (§3.3).
func PurgeForEntity(ctx context.Context, q store.Querier, kind store.EntityKind, entityID string) error {
	for _, valueKind := range []string{"flag", "string", "numeric", "json"} {
		table := string(kind) + "_annotations_" + valueKind
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE entity_id = ?`, entityID); err != nil {
			return fmt.Errorf("annotation: purge %s for %s: %w", table, entityID, err)
		}
	}
	return nil
}
