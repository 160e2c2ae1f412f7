// Package claude implements the linear platform adapter (§4.4.2):
// Claude-style exports given as an ordered message list with no parent
// pointers, which this adapter synthesizes as a degenerate linear chain.
package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmarx/chat2obs/internal/platform"
	"github.com/dmarx/chat2obs/internal/store"
)

const SourceID = "claude"

type exportDialogue struct {
	UUID      string          `json:"uuid"`
	Name      string          `json:"name"`
	CreatedAt *string         `json:"created_at"`
	UpdatedAt *string         `json:"updated_at"`
	Messages  []exportMessage `json:"chat_messages"`
}

type exportMessage struct {
	UUID      string               `json:"uuid"`
	Sender    string               `json:"sender"`
	CreatedAt *string              `json:"created_at"`
	UpdatedAt *string              `json:"updated_at"`
	Content   []exportContentBlock `json:"content"`
	StopReason string              `json:"stop_reason"`
	Model      string              `json:"model"`
}

type exportContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ToolUseID string          `json:"tool_use_id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	// Content carries tool_result's payload, which may be a bare string or a
	// heterogeneous list of content blocks.
	Content json.RawMessage `json:"content"`
	IsError bool            `json:"is_error"`
	Source  *exportImageSrc `json:"source"`
}

type exportImageSrc struct {
	MediaType string `json:"media_type"`
	URL       string `json:"url"`
}

// Adapter parses a decoded Claude export (a JSON array of conversations).
type Adapter struct {
	dialogues map[string]exportDialogue
	order     []string
}

func New(raw []byte) (*Adapter, error) {
	var conversations []exportDialogue
	if err := json.Unmarshal(raw, &conversations); err != nil {
		return nil, fmt.Errorf("claude: parse export: %w", err)
	}
	byID := make(map[string]exportDialogue, len(conversations))
	order := make([]string, 0, len(conversations))
	for _, c := range conversations {
		if c.UUID == "" {
			continue // missing external_dialogue_id: skipped (§4.3.5)
		}
		if _, seen := byID[c.UUID]; !seen {
			order = append(order, c.UUID)
		}
		byID[c.UUID] = c
	}
	return &Adapter{dialogues: byID, order: order}, nil
}

func (a *Adapter) SourceID() string { return SourceID }

func (a *Adapter) Dialogues() ([]platform.RawDialogue, error) {
	out := make([]platform.RawDialogue, 0, len(a.order))
	for _, id := range a.order {
		c := a.dialogues[id]
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("claude: re-marshal dialogue %s: %w", id, err)
		}
		out = append(out, platform.RawDialogue{
			ExternalID:      id,
			Title:           c.Name,
			RawJSON:         string(raw),
			SourceCreatedAt: parseTimestamp(c.CreatedAt),
			SourceUpdatedAt: parseTimestamp(c.UpdatedAt),
		})
	}
	return out, nil
}

func (a *Adapter) Messages(dialogueExternalID string) ([]platform.RawMessage, error) {
	c, ok := a.dialogues[dialogueExternalID]
	if !ok {
		return nil, fmt.Errorf("claude: unknown dialogue %s", dialogueExternalID)
	}

	out := make([]platform.RawMessage, 0, len(c.Messages))
	var previousExternalID *string
	for _, m := range c.Messages {
		parts, err := contentParts(m.Content)
		if err != nil {
			return nil, fmt.Errorf("claude: content parts for %s: %w", m.UUID, err)
		}

		author, err := json.Marshal(map[string]string{"role": m.Sender})
		if err != nil {
			return nil, fmt.Errorf("claude: marshal author for %s: %w", m.UUID, err)
		}

		extras := map[string]any{
			"claude_message_meta": claudeMeta{Model: m.Model, StopReason: m.StopReason},
		}

		out = append(out, platform.RawMessage{
			ExternalID:       m.UUID,
			ParentExternalID: previousExternalID, // synthesized linear chain (§4.4.2)
			Role:             normalizeRole(m.Sender),
			AuthorJSON:       string(author),
			SourceCreatedAt:  parseTimestamp(m.CreatedAt),
			SourceUpdatedAt:  parseTimestamp(m.UpdatedAt),
			Content:          parts,
			Extras:           extras,
		})

		id := m.UUID
		previousExternalID = &id
	}
	return out, nil
}

// claudeMeta is the payload WriteExtras persists into claude_message_meta.
type claudeMeta struct {
	Model      string
	StopReason string
}

func normalizeRole(sender string) string {
	switch sender {
	case "human":
		return "user"
	case "assistant", "system", "tool":
		return sender
	default:
		return "tool"
	}
}

// parseTimestamp accepts RFC3339 source timestamps and returns Unix millis.
func parseTimestamp(s *string) *int64 {
	if s == nil || *s == "" {
		return nil
	}
	ms, ok := rfc3339Millis(*s)
	if !ok {
		return nil // malformed timestamp: drop rather than abort the unit (§7)
	}
	return &ms
}

// ClearExtras tears down claude_message_meta for a message.
func (a *Adapter) ClearExtras(ctx context.Context, q store.Querier, messageID string) error {
	return store.DeleteByMessageID(ctx, q, "claude_message_meta", messageID)
}

func (a *Adapter) ExtraTables() []string {
	return []string{"claude_message_meta"}
}

func (a *Adapter) WriteExtras(ctx context.Context, q store.Querier, messageID string, extras map[string]any) error {
	meta, ok := extras["claude_message_meta"].(claudeMeta)
	if !ok {
		return nil
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO claude_message_meta (message_id, model, stop_reason)
		VALUES (?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET model = excluded.model, stop_reason = excluded.stop_reason
	`, messageID, meta.Model, meta.StopReason)
	if err != nil {
		return fmt.Errorf("claude: write message meta for %s: %w", messageID, err)
	}
	return nil
}
