package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SeedSource inserts or replaces a static source catalog entry.
func SeedSource(ctx context.Context, q Querier, s *Source) error {
	roles, err := json.Marshal(s.RoleVocabulary)
	if err != nil {
		return fmt.Errorf("store: marshal role vocabulary: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO sources (id, display_name, has_native_trees, role_vocabulary)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			has_native_trees = excluded.has_native_trees,
			role_vocabulary = excluded.role_vocabulary
	`, s.ID, s.DisplayName, boolToInt(s.HasNativeTrees), string(roles))
	if err != nil {
		return fmt.Errorf("store: seed source %s: %w", s.ID, err)
	}
	return nil
}

// GetSource retrieves a source by id.
func GetSource(ctx context.Context, q Querier, id string) (*Source, error) {
	var s Source
	var hasTrees int
	var rolesJSON string
	err := q.QueryRowContext(ctx, `
		SELECT id, display_name, has_native_trees, role_vocabulary FROM sources WHERE id = ?
	`, id).Scan(&s.ID, &s.DisplayName, &hasTrees, &rolesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get source %s: %w", id, err)
	}
	s.HasNativeTrees = intToBool(hasTrees)
	_ = json.Unmarshal([]byte(rolesJSON), &s.RoleVocabulary)
	return &s, nil
}
