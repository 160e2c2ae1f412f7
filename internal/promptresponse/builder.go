// Package promptresponse implements the Prompt-Response Builder (C5):
// deriving prompt/response pairs from a dialogue's message tree (§4.5).
package promptresponse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmarx/chat2obs/internal/store"
)

// Builder rebuilds derived prompt/response pairs for dialogues.
type Builder struct {
	gw *store.Gateway
}

// New builds a Builder bound to a Store Gateway.
func New(gw *store.Gateway) *Builder {
	return &Builder{gw: gw}
}

// BuildAll rebuilds pairs for every dialogue, one transaction per dialogue.
func (b *Builder) BuildAll(ctx context.Context) error {
	var ids []string
	err := b.gw.WithinTx(ctx, func(q store.Querier) error {
		var err error
		ids, err = store.ListDialogueIDs(ctx, q)
		return err
	})
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := b.Build(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Build rebuilds pairs for a single dialogue (§4.5).
func (b *Builder) Build(ctx context.Context, dialogueID string) error {
	return b.gw.WithinTx(ctx, func(q store.Querier) error {
		return buildDialogue(ctx, q, dialogueID)
	})
}

func buildDialogue(ctx context.Context, q store.Querier, dialogueID string) error {
	messages, err := store.ListMessagesByDialogue(ctx, q, dialogueID, false)
	if err != nil {
		return err
	}

	byInternalID := make(map[string]*store.Message, len(messages))
	positionByID := make(map[string]int, len(messages))
	for i, m := range messages {
		byInternalID[m.ID] = m
		positionByID[m.ID] = i
	}

	if err := store.ClearPromptResponsesForDialogue(ctx, q, dialogueID); err != nil {
		return err
	}

	var lastUserMessage *store.Message
	now := time.Now().UnixMilli()

	var pairs []*store.PromptResponse
	for _, m := range messages {
		switch m.Role {
		case store.RoleUser:
			lastUserMessage = m
			continue
		case store.RoleSystem, store.RoleTool:
			continue
		}

		prompt := resolvePrompt(m, byInternalID, lastUserMessage)
		if prompt == nil {
			continue
		}

		pr := &store.PromptResponse{
			ID:                store.NewID(),
			DialogueID:        dialogueID,
			PromptMessageID:   prompt.ID,
			ResponseMessageID: m.ID,
			PromptPosition:    positionByID[prompt.ID],
			ResponsePosition:  positionByID[m.ID],
			PromptRole:        prompt.Role,
			ResponseRole:      m.Role,
			CreatedAt:         now,
		}
		if err := store.InsertPromptResponse(ctx, q, pr); err != nil {
			return err
		}
		pairs = append(pairs, pr)
	}

	return writeContent(ctx, q, pairs)
}

// resolvePrompt implements §4.5 step 3's prompt-resolution rule: the
// message's parent if it's a user message, else the nearest user ancestor
// within by_internal_id, else the last user message seen so far.
func resolvePrompt(m *store.Message, byInternalID map[string]*store.Message, lastUserMessage *store.Message) *store.Message {
	if m.ParentID != nil {
		if parent, ok := byInternalID[*m.ParentID]; ok {
			if parent.Role == store.RoleUser {
				return parent
			}
			visited := map[string]bool{m.ID: true}
			cur := parent
			for cur != nil && !visited[cur.ID] {
				if cur.Role == store.RoleUser {
					return cur
				}
				visited[cur.ID] = true
				if cur.ParentID == nil {
					break
				}
				next, ok := byInternalID[*cur.ParentID]
				if !ok {
					break
				}
				cur = next
			}
			return lastUserMessage
		}
	}
	return lastUserMessage
}

// writeContent aggregates ordered content-part text for each pair and
// derives word counts (§4.5 step 4).
func writeContent(ctx context.Context, q store.Querier, pairs []*store.PromptResponse) error {
	if len(pairs) == 0 {
		return nil
	}

	messageIDSet := make(map[string]bool, len(pairs)*2)
	for _, p := range pairs {
		messageIDSet[p.PromptMessageID] = true
		messageIDSet[p.ResponseMessageID] = true
	}
	messageIDs := make([]string, 0, len(messageIDSet))
	for id := range messageIDSet {
		messageIDs = append(messageIDs, id)
	}

	textByMessage, err := store.ListTextForMessages(ctx, q, messageIDs)
	if err != nil {
		return fmt.Errorf("promptresponse: aggregate text: %w", err)
	}

	for _, p := range pairs {
		promptText := textByMessage[p.PromptMessageID]
		responseText := textByMessage[p.ResponseMessageID]
		c := &store.PromptResponseContent{
			PromptResponseID:  p.ID,
			PromptText:        promptText,
			ResponseText:      responseText,
			PromptWordCount:   wordCount(promptText),
			ResponseWordCount: wordCount(responseText),
		}
		if err := store.UpsertPromptResponseContent(ctx, q, c); err != nil {
			return err
		}
	}
	return nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
