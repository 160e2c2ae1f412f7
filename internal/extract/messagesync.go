package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarx/chat2obs/internal/annotation"
	"github.com/dmarx/chat2obs/internal/hashing"
	"github.com/dmarx/chat2obs/internal/platform"
	"github.com/dmarx/chat2obs/internal/store"
)

// syncMessages implements §4.3.3: reconcile incoming messages against
// existing ones, then §4.3.4's two-pass parent resolution, then §4.3.3's
// tail soft-delete pass.
func (e *Extractor) syncMessages(ctx context.Context, q store.Querier, dialogueID, dialogueExternalID string, opts Options, now int64) error {
	incoming, err := e.adapter.Messages(dialogueExternalID)
	if err != nil {
		return fmt.Errorf("extract: enumerate messages for %s: %w", dialogueExternalID, err)
	}

	existing, err := store.ListMessagesByDialogue(ctx, q, dialogueID, true)
	if err != nil {
		return err
	}
	existingByExternal := make(map[string]*store.Message, len(existing))
	for _, m := range existing {
		existingByExternal[m.ExternalID] = m
	}

	// internalIDByExternal seeds with every pre-existing message so a
	// child processed before its (already-existing) parent still resolves;
	// newly-created messages are added to it as they're processed, which
	// satisfies either ordering strategy for §4.3.4 in a single pass.
	internalIDByExternal := make(map[string]string, len(existing)+len(incoming))
	for ext, m := range existingByExternal {
		internalIDByExternal[ext] = m.ID
	}

	pendingParent := make(map[string]*string) // internal id -> parent external id
	seen := make(map[string]bool, len(incoming))

	for _, im := range incoming {
		seen[im.ExternalID] = true
		existingMsg, found := existingByExternal[im.ExternalID]

		if !found {
			internalID := store.NewID()
			hash, err := hashing.ContentHash(im.Content)
			if err != nil {
				return fmt.Errorf("extract: hash new message %s: %w", im.ExternalID, err)
			}
			msg := &store.Message{
				ID:              internalID,
				DialogueID:      dialogueID,
				ExternalID:      im.ExternalID,
				Role:            store.Role(im.Role),
				AuthorJSON:      im.AuthorJSON,
				ContentHash:     hash,
				SourceCreatedAt: im.SourceCreatedAt,
				SourceUpdatedAt: im.SourceUpdatedAt,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := store.InsertMessage(ctx, q, msg); err != nil {
				return err
			}
			if err := e.writeMessageContent(ctx, q, internalID, im); err != nil {
				return err
			}
			internalIDByExternal[im.ExternalID] = internalID
			pendingParent[internalID] = im.ParentExternalID
			continue
		}

		internalIDByExternal[im.ExternalID] = existingMsg.ID

		if opts.AssumeImmutable {
			if existingMsg.DeletedAt != nil {
				if err := store.RestoreMessage(ctx, q, existingMsg.ID, now); err != nil {
					return err
				}
			}
			pendingParent[existingMsg.ID] = im.ParentExternalID
			continue
		}

		hash, err := hashing.ContentHash(im.Content)
		if err != nil {
			return fmt.Errorf("extract: hash message %s: %w", im.ExternalID, err)
		}

		switch {
		case hash == existingMsg.ContentHash && existingMsg.DeletedAt == nil:
			// no-op (§4.3.3)
		case hash == existingMsg.ContentHash && existingMsg.DeletedAt != nil:
			if err := store.RestoreMessage(ctx, q, existingMsg.ID, now); err != nil {
				return err
			}
		default:
			existingMsg.Role = store.Role(im.Role)
			existingMsg.AuthorJSON = im.AuthorJSON
			existingMsg.ContentHash = hash
			existingMsg.SourceCreatedAt = im.SourceCreatedAt
			existingMsg.SourceUpdatedAt = im.SourceUpdatedAt
			existingMsg.UpdatedAt = now
			if err := store.UpdateMessageContent(ctx, q, existingMsg); err != nil {
				return err
			}
			if err := e.rebuildMessageDependents(ctx, q, existingMsg.ID, im); err != nil {
				return err
			}
			pendingParent[existingMsg.ID] = im.ParentExternalID
		}
	}

	for internalID, parentExt := range pendingParent {
		var parentInternal *string
		if parentExt != nil {
			if resolved, ok := internalIDByExternal[*parentExt]; ok {
				parentInternal = &resolved
			}
			// else: orphaned root, parent stays null (§4.3.5)
		}
		if err := store.UpdateMessageParent(ctx, q, internalID, parentInternal, now); err != nil {
			return err
		}
	}

	if !opts.Incremental {
		for ext, m := range existingByExternal {
			if !seen[ext] && m.DeletedAt == nil {
				if err := store.SoftDeleteMessage(ctx, q, m.ID, now); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// writeMessageContent inserts content parts and platform extras for a
// brand-new message, or for an existing one whose old dependents
// rebuildMessageDependents has just cleared.
func (e *Extractor) writeMessageContent(ctx context.Context, q store.Querier, messageID string, im platform.RawMessage) error {
	now := time.Now().UnixMilli()
	for i, part := range im.Content {
		cp := &store.ContentPart{
			ID:         store.NewID(),
			MessageID:  messageID,
			Sequence:   i,
			PartType:   store.PartType(part.PartType),
			Text:       part.Text,
			Language:   part.Language,
			MediaType:  part.MediaType,
			URL:        part.URL,
			ToolName:   part.ToolName,
			ToolUseID:  part.ToolUseID,
			ToolInput:  part.ToolInput,
			IsError:    part.IsError,
			SourceJSON: part.SourceJSON,
			CreatedAt:  now,
		}
		if err := store.InsertContentPart(ctx, q, cp); err != nil {
			return err
		}
	}
	if err := e.adapter.WriteExtras(ctx, q, messageID, im.Extras); err != nil {
		return fmt.Errorf("extract: write extras for %s: %w", im.ExternalID, err)
	}
	return nil
}

// rebuildMessageDependents tears down and rewrites content parts, citations,
// attachments, platform extras, and content-part annotations for a message
// whose content changed (§3.3, §4.3.3).
func (e *Extractor) rebuildMessageDependents(ctx context.Context, q store.Querier, messageID string, im platform.RawMessage) error {
	oldParts, err := store.ListContentPartsForMessage(ctx, q, messageID)
	if err != nil {
		return err
	}
	for _, p := range oldParts {
		if err := annotation.PurgeForEntity(ctx, q, store.EntityContentPart, p.ID); err != nil {
			return err
		}
	}
	if err := store.DeleteContentPartsForMessage(ctx, q, messageID); err != nil {
		return err
	}
	if err := store.DeleteByMessageID(ctx, q, "citations", messageID); err != nil {
		return err
	}
	if err := store.DeleteByMessageID(ctx, q, "attachments", messageID); err != nil {
		return err
	}
	if err := e.adapter.ClearExtras(ctx, q, messageID); err != nil {
		return err
	}
	if err := annotation.PurgeForEntity(ctx, q, store.EntityMessage, messageID); err != nil {
		return err
	}
	return e.writeMessageContent(ctx, q, messageID, im)
}
