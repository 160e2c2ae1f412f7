package annotation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmarx/chat2obs/internal/store"
)

// HasFlag reports whether a flag annotation exists for the key (§4.6.2).
func HasFlag(ctx context.Context, q store.Querier, kind store.EntityKind, entityID, key string) (bool, error) {
	table := string(kind) + "_annotations_flag"
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE entity_id = ? AND key = ?`, entityID, key).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("annotation: has flag %s/%s/%s: %w", kind, entityID, key, err)
	}
	return true, nil
}

// GetString returns every string value written for (entity_id, key).
func GetString(ctx context.Context, q store.Querier, kind store.EntityKind, entityID, key string) ([]string, error) {
	table := string(kind) + "_annotations_string"
	rows, err := q.QueryContext(ctx, `SELECT annotation_value FROM `+table+` WHERE entity_id = ? AND key = ? ORDER BY created_at`, entityID, key)
	if err != nil {
		return nil, fmt.Errorf("annotation: get string %s/%s/%s: %w", kind, entityID, key, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("annotation: scan string: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetStringSingle returns the first string value written for (entity_id, key), if any.
func GetStringSingle(ctx context.Context, q store.Querier, kind store.EntityKind, entityID, key string) (*string, error) {
	values, err := GetString(ctx, q, kind, entityID, key)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return &values[0], nil
}

// GetNumeric returns every numeric value written for (entity_id, key).
func GetNumeric(ctx context.Context, q store.Querier, kind store.EntityKind, entityID, key string) ([]float64, error) {
	table := string(kind) + "_annotations_numeric"
	rows, err := q.QueryContext(ctx, `SELECT annotation_value FROM `+table+` WHERE entity_id = ? AND key = ? ORDER BY created_at`, entityID, key)
	if err != nil {
		return nil, fmt.Errorf("annotation: get numeric %s/%s/%s: %w", kind, entityID, key, err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("annotation: scan numeric: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetJSON returns the decoded JSON value for (entity_id, key), if any.
func GetJSON(ctx context.Context, q store.Querier, kind store.EntityKind, entityID, key string, dest any) (bool, error) {
	table := string(kind) + "_annotations_json"
	var raw string
	err := q.QueryRowContext(ctx, `SELECT annotation_value FROM `+table+` WHERE entity_id = ? AND key = ?`, entityID, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("annotation: get json %s/%s/%s: %w", kind, entityID, key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("annotation: unmarshal json %s/%s/%s: %w", kind, entityID, key, err)
	}
	return true, nil
}

// FindEntitiesWithFlag returns every entity id carrying the given flag key.
func FindEntitiesWithFlag(ctx context.Context, q store.Querier, kind store.EntityKind, key string) ([]string, error) {
	table := string(kind) + "_annotations_flag"
	return queryEntityIDs(ctx, q, `SELECT entity_id FROM `+table+` WHERE key = ?`, key)
}

// FindEntitiesWithString returns every entity id carrying a string annotation
// for key, optionally restricted to a specific value.
func FindEntitiesWithString(ctx context.Context, q store.Querier, kind store.EntityKind, key string, value *string) ([]string, error) {
	table := string(kind) + "_annotations_string"
	if value == nil {
		return queryEntityIDs(ctx, q, `SELECT DISTINCT entity_id FROM `+table+` WHERE key = ?`, key)
	}
	return queryEntityIDs(ctx, q, `SELECT DISTINCT entity_id FROM `+table+` WHERE key = ? AND annotation_value = ?`, key, *value)
}

// FindEntitiesWithNumeric returns every entity id carrying a numeric
// annotation for key, optionally restricted to a specific value. Added for
// symmetry with the flag/string finders (the 16-table matrix has no
// numeric-specific reason to omit it).
func FindEntitiesWithNumeric(ctx context.Context, q store.Querier, kind store.EntityKind, key string, value *float64) ([]string, error) {
	table := string(kind) + "_annotations_numeric"
	if value == nil {
		return queryEntityIDs(ctx, q, `SELECT DISTINCT entity_id FROM `+table+` WHERE key = ?`, key)
	}
	return queryEntityIDs(ctx, q, `SELECT DISTINCT entity_id FROM `+table+` WHERE key = ? AND annotation_value = ?`, key, *value)
}

func queryEntityIDs(ctx context.Context, q store.Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("annotation: find entities: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("annotation: scan entity id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
