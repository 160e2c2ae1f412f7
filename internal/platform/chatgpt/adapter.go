// Package chatgpt implements the tree-native platform adapter (§4.4.1):
// ChatGPT-style exports keyed by node id, with explicit parent pointers.
package chatgpt

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dmarx/chat2obs/internal/platform"
)

const SourceID = "chatgpt"

// Adapter parses a decoded ChatGPT export (a JSON array of conversations)
// into the platform.Adapter contract.
type Adapter struct {
	dialogues map[string]exportDialogue
	order     []string
}

// New parses raw export bytes (a JSON array of conversation objects).
func New(raw []byte) (*Adapter, error) {
	var conversations []exportDialogue
	if err := json.Unmarshal(raw, &conversations); err != nil {
		return nil, fmt.Errorf("chatgpt: parse export: %w", err)
	}
	byID := make(map[string]exportDialogue, len(conversations))
	order := make([]string, 0, len(conversations))
	for _, c := range conversations {
		if c.ID == "" {
			continue // missing external_dialogue_id: skipped by the extractor, but we keep it out of the stream entirely (§4.3.5)
		}
		if _, seen := byID[c.ID]; !seen {
			order = append(order, c.ID)
		}
		byID[c.ID] = c
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
			return nil, fmt.Errorf("chatgpt: re-marshal dialogue %s: %w", id, err)
		}
		out = append(out, platform.RawDialogue{
			ExternalID:      id,
			Title:           c.Title,
			RawJSON:         string(raw),
			SourceCreatedAt: timeToMillis(c.CreateTime),
			SourceUpdatedAt: timeToMillis(c.UpdateTime),
		})
	}
	return out, nil
}

func (a *Adapter) Messages(dialogueExternalID string) ([]platform.RawMessage, error) {
	c, ok := a.dialogues[dialogueExternalID]
	if !ok {
		return nil, fmt.Errorf("chatgpt: unknown dialogue %s", dialogueExternalID)
	}

	nodeIDs := make([]string, 0, len(c.Mapping))
	for id := range c.Mapping {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	var out []platform.RawMessage
	for _, nodeID := range nodeIDs {
		node := c.Mapping[nodeID]
		if node.Message == nil {
			continue // routing node carries no authored turn (§4.4.1)
		}
		m := node.Message

		author, err := json.Marshal(m.Author)
		if err != nil {
			return nil, fmt.Errorf("chatgpt: marshal author for %s: %w", m.ID, err)
		}

		parts, err := contentParts(m.Content)
		if err != nil {
			return nil, fmt.Errorf("chatgpt: content parts for %s: %w", m.ID, err)
		}
		if m.Metadata.Canvas != nil {
			parts = append(parts, canvasContentPart(m.Metadata.Canvas))
		}

		extras := extrasFor(m)
		if createdAt := timeToMillis(m.CreateTime); createdAt != nil {
			extras["_ingested_at"] = *createdAt
		}

		out = append(out, platform.RawMessage{
			ExternalID:       m.ID,
			ParentExternalID: node.Parent,
			Role:             normalizeRole(m.Author.Role),
			AuthorJSON:       string(author),
			SourceCreatedAt:  timeToMillis(m.CreateTime),
			SourceUpdatedAt:  timeToMillis(m.UpdateTime),
			Content:          parts,
			Extras:           extras,
		})
	}
	return out, nil
}

func normalizeRole(role string) string {
	switch role {
	case "user", "assistant", "system", "tool":
		return role
	default:
		return "tool"
	}
}

func timeToMillis(t *float64) *int64 {
	if t == nil {
		return nil
	}
	ms := int64(*t * 1000)
	return &ms
}
