package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ClearPromptResponsesForDialogue deletes all derived pairs (and their
// content) for a dialogue, used before a full rebuild (§4.5).
func ClearPromptResponsesForDialogue(ctx context.Context, q Querier, dialogueID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM prompt_response_content WHERE prompt_response_id IN (
			SELECT id FROM prompt_responses WHERE dialogue_id = ?
		)
	`, dialogueID)
	if err != nil {
		return fmt.Errorf("store: clear prompt response content for dialogue %s: %w", dialogueID, err)
	}
	_, err = q.ExecContext(ctx, `DELETE FROM prompt_responses WHERE dialogue_id = ?`, dialogueID)
	if err != nil {
		return fmt.Errorf("store: clear prompt responses for dialogue %s: %w", dialogueID, err)
	}
	return nil
}

// InsertPromptResponse creates one prompt/response pairing.
func InsertPromptResponse(ctx context.Context, q Querier, pr *PromptResponse) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO prompt_responses (id, dialogue_id, prompt_message_id, response_message_id,
			prompt_position, response_position, prompt_role, response_role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, pr.ID, pr.DialogueID, pr.PromptMessageID, pr.ResponseMessageID,
		pr.PromptPosition, pr.ResponsePosition, string(pr.PromptRole), string(pr.ResponseRole), pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert prompt response %s: %w", pr.ID, err)
	}
	return nil
}

// UpsertPromptResponseContent writes the aggregated text/word-count view of a pair.
func UpsertPromptResponseContent(ctx context.Context, q Querier, c *PromptResponseContent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO prompt_response_content (prompt_response_id, prompt_text, response_text,
			prompt_word_count, response_word_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(prompt_response_id) DO UPDATE SET
			prompt_text = excluded.prompt_text,
			response_text = excluded.response_text,
			prompt_word_count = excluded.prompt_word_count,
			response_word_count = excluded.response_word_count
	`, c.PromptResponseID, c.PromptText, c.ResponseText, c.PromptWordCount, c.ResponseWordCount)
	if err != nil {
		return fmt.Errorf("store: upsert prompt response content %s: %w", c.PromptResponseID, err)
	}
	return nil
}

// GetPromptResponseContent returns the aggregated text/word-count view of
// one pair, if it has been built.
func GetPromptResponseContent(ctx context.Context, q Querier, promptResponseID string) (*PromptResponseContent, error) {
	var c PromptResponseContent
	err := q.QueryRowContext(ctx, `
		SELECT prompt_response_id, prompt_text, response_text, prompt_word_count, response_word_count
		FROM prompt_response_content WHERE prompt_response_id = ?
	`, promptResponseID).Scan(&c.PromptResponseID, &c.PromptText, &c.ResponseText, &c.PromptWordCount, &c.ResponseWordCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get prompt response content %s: %w", promptResponseID, err)
	}
	return &c, nil
}

// ListPromptResponsesSince streams candidate prompt_response entities for
// the annotator runtime, ordered by (created_at, id) (§4.7.1).
func ListPromptResponsesSince(ctx context.Context, q Querier, highWaterMark int64, limit int) ([]*PromptResponse, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dialogue_id, prompt_message_id, response_message_id, prompt_position,
			response_position, prompt_role, response_role, created_at
		FROM prompt_responses WHERE created_at > ? ORDER BY created_at, id LIMIT ?
	`, highWaterMark, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list prompt responses since %d: %w", highWaterMark, err)
	}
	defer rows.Close()

	var out []*PromptResponse
	for rows.Next() {
		var pr PromptResponse
		if err := rows.Scan(
			&pr.ID, &pr.DialogueID, &pr.PromptMessageID, &pr.ResponseMessageID, &pr.PromptPosition,
			&pr.ResponsePosition, &pr.PromptRole, &pr.ResponseRole, &pr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan prompt response: %w", err)
		}
		out = append(out, &pr)
	}
	return out, rows.Err()
}

// ListPromptResponsesForDialogue returns every pair of a dialogue, ordered by position.
func ListPromptResponsesForDialogue(ctx context.Context, q Querier, dialogueID string) ([]*PromptResponse, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, dialogue_id, prompt_message_id, response_message_id, prompt_position,
			response_position, prompt_role, response_role, created_at
		FROM prompt_responses WHERE dialogue_id = ? ORDER BY response_position
	`, dialogueID)
	if err != nil {
		return nil, fmt.Errorf("store: list prompt responses for dialogue %s: %w", dialogueID, err)
	}
	defer rows.Close()

	var out []*PromptResponse
	for rows.Next() {
		var pr PromptResponse
		if err := rows.Scan(
			&pr.ID, &pr.DialogueID, &pr.PromptMessageID, &pr.ResponseMessageID, &pr.PromptPosition,
			&pr.ResponsePosition, &pr.PromptRole, &pr.ResponseRole, &pr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan prompt response: %w", err)
		}
		out = append(out, &pr)
	}
	return out, rows.Err()
}
