package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetMessageByExternalID looks up a message within a dialogue by external id.
func GetMessageByExternalID(ctx context.Context, q Querier, dialogueID, externalID string) (*Message, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, dialogue_id, external_id, parent_id, role, author_json, content_hash,
			source_created_at, source_updated_at, deleted_at, created_at, updated_at
		FROM messages WHERE dialogue_id = ? AND external_id = ?
	`, dialogueID, externalID)
	return scanMessage(row)
}

// ListMessagesByDialogue returns every message of a dialogue, including
// soft-deleted ones when includeDeleted is true, ordered by
// (source_created_at NULLS FIRST, internal id) per §4.1/§5.
func ListMessagesByDialogue(ctx context.Context, q Querier, dialogueID string, includeDeleted bool) ([]*Message, error) {
	query := `
		SELECT id, dialogue_id, external_id, parent_id, role, author_json, content_hash,
			source_created_at, source_updated_at, deleted_at, created_at, updated_at
		FROM messages WHERE dialogue_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY (source_created_at IS NOT NULL), source_created_at, id`

	rows, err := q.QueryContext(ctx, query, dialogueID)
	if err != nil {
		return nil, fmt.Errorf("store: list messages for dialogue %s: %w", dialogueID, err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMessagesSince streams candidate message entities for the annotator
// runtime: strictly newer than the cursor's high-water mark, ordered by
// (created_at, id) (§4.7.1). Soft-deleted messages are excluded; a deleted
// message is not a candidate for annotation.
func ListMessagesSince(ctx context.Context, q Querier, highWaterMark int64, limit int) ([]*Message, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dialogue_id, external_id, parent_id, role, author_json, content_hash,
			source_created_at, source_updated_at, deleted_at, created_at, updated_at
		FROM messages WHERE created_at > ? AND deleted_at IS NULL ORDER BY created_at, id LIMIT ?
	`, highWaterMark, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list messages since %d: %w", highWaterMark, err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertMessage creates a new message row.
func InsertMessage(ctx context.Context, q Querier, m *Message) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO messages (id, dialogue_id, external_id, parent_id, role, author_json, content_hash,
			source_created_at, source_updated_at, deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.DialogueID, m.ExternalID, m.ParentID, string(m.Role), m.AuthorJSON, m.ContentHash,
		m.SourceCreatedAt, m.SourceUpdatedAt, m.DeletedAt, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert message %s: %w", m.ExternalID, err)
	}
	return nil
}

// UpdateMessageContent performs the in-place update described in §4.3.3: role,
// author fields, source timestamps, parent reference, and content_hash.
func UpdateMessageContent(ctx context.Context, q Querier, m *Message) error {
	_, err := q.ExecContext(ctx, `
		UPDATE messages SET role = ?, author_json = ?, content_hash = ?, parent_id = ?,
			source_created_at = ?, source_updated_at = ?, updated_at = ?
		WHERE id = ?
	`, string(m.Role), m.AuthorJSON, m.ContentHash, m.ParentID,
		m.SourceCreatedAt, m.SourceUpdatedAt, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("store: update message %s: %w", m.ID, err)
	}
	return nil
}

// UpdateMessageParent updates only the parent reference. The extractor's
// parent-resolution pass uses it for every new, rebuilt or assume_immutable
// message once all of a dialogue's messages have internal ids.
func UpdateMessageParent(ctx context.Context, q Querier, id string, parentID *string, updatedAt int64) error {
	_, err := q.ExecContext(ctx, `UPDATE messages SET parent_id = ?, updated_at = ? WHERE id = ?`, parentID, updatedAt, id)
	if err != nil {
		return fmt.Errorf("store: update message parent %s: %w", id, err)
	}
	return nil
}

// SoftDeleteMessage sets deleted_at on a message not seen in a full re-import.
func SoftDeleteMessage(ctx context.Context, q Querier, id string, deletedAt int64) error {
	_, err := q.ExecContext(ctx, `UPDATE messages SET deleted_at = ? WHERE id = ?`, deletedAt, id)
	if err != nil {
		return fmt.Errorf("store: soft-delete message %s: %w", id, err)
	}
	return nil
}

// RestoreMessage clears deleted_at on a message that reappeared.
func RestoreMessage(ctx context.Context, q Querier, id string, updatedAt int64) error {
	_, err := q.ExecContext(ctx, `UPDATE messages SET deleted_at = NULL, updated_at = ? WHERE id = ?`, updatedAt, id)
	if err != nil {
		return fmt.Errorf("store: restore message %s: %w", id, err)
	}
	return nil
}

func scanMessage(row *sql.Row) (*Message, error) {
	var m Message
	var parentID sql.NullString
	var sourceCreated, sourceUpdated, deletedAt sql.NullInt64
	err := row.Scan(
		&m.ID, &m.DialogueID, &m.ExternalID, &parentID, &m.Role, &m.AuthorJSON, &m.ContentHash,
		&sourceCreated, &sourceUpdated, &deletedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan message: %w", err)
	}
	if parentID.Valid {
		m.ParentID = &parentID.String
	}
	if sourceCreated.Valid {
		m.SourceCreatedAt = &sourceCreated.Int64
	}
	if sourceUpdated.Valid {
		m.SourceUpdatedAt = &sourceUpdated.Int64
	}
	if deletedAt.Valid {
		m.DeletedAt = &deletedAt.Int64
	}
	return &m, nil
}

func scanMessageRows(rows *sql.Rows) (*Message, error) {
	var m Message
	var parentID sql.NullString
	var sourceCreated, sourceUpdated, deletedAt sql.NullInt64
	err := rows.Scan(
		&m.ID, &m.DialogueID, &m.ExternalID, &parentID, &m.Role, &m.AuthorJSON, &m.ContentHash,
		&sourceCreated, &sourceUpdated, &deletedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: scan message: %w", err)
	}
	if parentID.Valid {
		m.ParentID = &parentID.String
	}
	if sourceCreated.Valid {
		m.SourceCreatedAt = &sourceCreated.Int64
	}
	if sourceUpdated.Valid {
		m.SourceUpdatedAt = &sourceUpdated.Int64
	}
	if deletedAt.Valid {
		m.DeletedAt = &deletedAt.Int64
	}
	return &m, nil
}
