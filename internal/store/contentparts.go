package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertContentPart creates one ordered content fragment of a message.
func InsertContentPart(ctx context.Context, q Querier, c *ContentPart) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO content_parts (id, message_id, sequence, part_type, text_content, language,
			media_type, url, tool_name, tool_use_id, tool_input, is_error, source_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.MessageID, c.Sequence, string(c.PartType), c.Text, c.Language,
		c.MediaType, c.URL, c.ToolName, c.ToolUseID, c.ToolInput, nullableBool(c.IsError), c.SourceJSON, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert content part %s: %w", c.ID, err)
	}
	return nil
}

// DeleteContentPartsForMessage removes every content part of a message,
// used before rebuilding a message's content in place (§4.3.3).
func DeleteContentPartsForMessage(ctx context.Context, q Querier, messageID string) error {
	return DeleteByMessageID(ctx, q, "content_parts", messageID)
}

// ListContentPartsForMessage returns content parts ordered by sequence.
func ListContentPartsForMessage(ctx context.Context, q Querier, messageID string) ([]*ContentPart, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, message_id, sequence, part_type, text_content, language, media_type, url,
			tool_name, tool_use_id, tool_input, is_error, source_json, created_at
		FROM content_parts WHERE message_id = ? ORDER BY sequence
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("store: list content parts for message %s: %w", messageID, err)
	}
	defer rows.Close()
	return scanContentPartRows(rows)
}

// ListContentPartsSince streams candidate content_part entities for the
// annotator runtime: strictly newer than the cursor's high-water mark,
// ordered by (created_at, id) so ties break deterministically (§4.7.1).
func ListContentPartsSince(ctx context.Context, q Querier, highWaterMark int64, limit int) ([]*ContentPart, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, message_id, sequence, part_type, text_content, language, media_type, url,
			tool_name, tool_use_id, tool_input, is_error, source_json, created_at
		FROM content_parts WHERE created_at > ? ORDER BY created_at, id LIMIT ?
	`, highWaterMark, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list content parts since %d: %w", highWaterMark, err)
	}
	defer rows.Close()
	return scanContentPartRows(rows)
}

func scanContentPartRows(rows *sql.Rows) ([]*ContentPart, error) {
	var out []*ContentPart
	for rows.Next() {
		var c ContentPart
		var isError sql.NullBool
		if err := rows.Scan(
			&c.ID, &c.MessageID, &c.Sequence, &c.PartType, &c.Text, &c.Language, &c.MediaType, &c.URL,
			&c.ToolName, &c.ToolUseID, &c.ToolInput, &isError, &c.SourceJSON, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan content part: %w", err)
		}
		if isError.Valid {
			c.IsError = &isError.Bool
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListTextForMessages concatenates all text-bearing content parts (text, code,
// thinking) of each message, in sequence order, for prompt/response aggregation.
func ListTextForMessages(ctx context.Context, q Querier, messageIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	placeholders := make([]any, len(messageIDs))
	query := `SELECT message_id, sequence, part_type, text_content FROM content_parts WHERE message_id IN (`
	for i, id := range messageIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		placeholders[i] = id
	}
	query += ") ORDER BY message_id, sequence"

	rows, err := q.QueryContext(ctx, query, placeholders...)
	if err != nil {
		return nil, fmt.Errorf("store: list text for messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, partType string
		var seq int
		var text sql.NullString
		if err := rows.Scan(&messageID, &seq, &partType, &text); err != nil {
			return nil, fmt.Errorf("store: scan message text: %w", err)
		}
		if !text.Valid {
			continue
		}
		switch PartType(partType) {
		case PartText, PartCode, PartThinking:
			if out[messageID] != "" {
				out[messageID] += "\n"
			}
			out[messageID] += text.String
		}
	}
	return out, rows.Err()
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}
