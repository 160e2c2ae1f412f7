// Package platform defines the adapter contract the Extractor Core drives,
// plus the chatgpt and claude implementations.
package platform

import (
	"context"

	"github.com/dmarx/chat2obs/internal/store"
)

// RawDialogue is one conversation as the adapter's source enumerates it,
// before any storage identifiers exist.
type RawDialogue struct {
	ExternalID      string
	Title           string
	RawJSON         string
	SourceCreatedAt *int64
	SourceUpdatedAt *int64
}

// RawContentPart is one adapter-produced content fragment, not yet assigned
// a sequence number or a store identifier.
type RawContentPart struct {
	PartType   string
	Text       *string
	Language   *string
	MediaType  *string
	URL        *string
	ToolName   *string
	ToolUseID  *string
	ToolInput  *string
	IsError    *bool
	SourceJSON *string
}

// RawMessage is one adapter-produced message, keyed by external ids so the
// extractor can resolve parent references before or after insertion.
type RawMessage struct {
	ExternalID       string
	ParentExternalID *string
	Role             string
	AuthorJSON       string
	SourceCreatedAt  *int64
	SourceUpdatedAt  *int64
	Content          []RawContentPart

	// Extras carries platform-specific auxiliary rows keyed by table name,
	// torn down and rebuilt whenever this message's content parts are
	// (§4.3.3, §4.4.1). Each entry's shape is adapter-specific; the
	// extractor passes them through to the adapter's own writer.
	Extras map[string]any
}

// Adapter is the contract the Extractor Core (C3) drives per §4.3. A single
// adapter instance enumerates every dialogue of one export.
type Adapter interface {
	// SourceID names the catalog Source row this adapter's exports belong to.
	SourceID() string

	// Dialogues streams every dialogue found in the export, in input order.
	Dialogues() ([]RawDialogue, error)

	// Messages returns the ordered messages of one dialogue, identified by
	// the same ExternalID used in the RawDialogue stream. Order need not be
	// parent-before-child; the extractor resolves parent references itself.
	Messages(dialogueExternalID string) ([]RawMessage, error)

	// ClearExtras tears down every platform-extension row owned by a message,
	// including rows nested under a per-message parent (e.g. search result
	// entries under a search group). Called before WriteExtras whenever a
	// message's content is rebuilt (§4.3.3).
	ClearExtras(ctx context.Context, q store.Querier, messageID string) error

	// WriteExtras persists the platform-specific auxiliary rows attached to
	// one message (messageID is the internal store id), scoped to the
	// extractor's per-dialogue transaction. Called once per newly-created or
	// content-rebuilt message, after ClearExtras.
	WriteExtras(ctx context.Context, q store.Querier, messageID string, extras map[string]any) error
}
