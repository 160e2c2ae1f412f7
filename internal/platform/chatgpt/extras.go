package chatgpt

import (
	"context"
	"fmt"

	"github.com/dmarx/chat2obs/internal/annotation"
	"github.com/dmarx/chat2obs/internal/store"
)

// extraTables lists every platform-extension table this adapter owns.
var extraTables = []string{
	"chatgpt_message_meta",
	"chatgpt_search_groups",
	"chatgpt_code_executions",
	"chatgpt_dalle_generations",
	"chatgpt_canvas_docs",
}

// extrasFor collects the platform-specific payload of one message for later
// persistence via WriteExtras, keyed by logical table name.
func extrasFor(m *exportMessage) map[string]any {
	extras := map[string]any{
		"chatgpt_message_meta": m.Metadata,
	}
	if len(m.Metadata.SearchResults) > 0 {
		extras["search_groups"] = m.Metadata.SearchResults
	}
	if len(m.Metadata.CodeExecutions) > 0 {
		extras["code_executions"] = m.Metadata.CodeExecutions
	}
	if len(m.Metadata.DalleGens) > 0 {
		extras["dalle_generations"] = m.Metadata.DalleGens
	}
	if m.Metadata.Canvas != nil {
		extras["canvas"] = m.Metadata.Canvas
	}
	return extras
}

// ClearExtras tears down every platform-extension row owned by a message,
// including rows nested under a per-message parent (search entries under a
// search group, code outputs under a code execution).
func (a *Adapter) ClearExtras(ctx context.Context, q store.Querier, messageID string) error {
	if _, err := q.ExecContext(ctx, `
		DELETE FROM chatgpt_search_entries WHERE group_id IN (
			SELECT id FROM chatgpt_search_groups WHERE message_id = ?
		)`, messageID); err != nil {
		return fmt.Errorf("chatgpt: clear search entries for %s: %w", messageID, err)
	}
	if _, err := q.ExecContext(ctx, `
		DELETE FROM chatgpt_code_outputs WHERE execution_id IN (
			SELECT id FROM chatgpt_code_executions WHERE message_id = ?
		)`, messageID); err != nil {
		return fmt.Errorf("chatgpt: clear code outputs for %s: %w", messageID, err)
	}
	for _, table := range extraTables {
		if err := store.DeleteByMessageID(ctx, q, table, messageID); err != nil {
			return fmt.Errorf("chatgpt: clear %s for %s: %w", table, messageID, err)
		}
	}
	return nil
}

func (a *Adapter) ExtraTables() []string {
	return extraTables
}

// WriteExtras persists the platform-specific auxiliary rows attached to one
// message (§4.4.1). Canvas documents are additionally represented as a
// synthetic "canvas" content part; title/version are written as ground-truth
// annotations on that content part (priority band 90-100, §4.7.3), and a
// post-pass flags the highest version per textdoc_id as latest.
func (a *Adapter) WriteExtras(ctx context.Context, q store.Querier, messageID string, extras map[string]any) error {
	if meta, ok := extras["chatgpt_message_meta"].(exportMetadata); ok {
		if err := writeMessageMeta(ctx, q, messageID, meta); err != nil {
			return err
		}
	}
	if groups, ok := extras["search_groups"].([]exportSearchGroup); ok {
		if err := writeSearchGroups(ctx, q, messageID, groups); err != nil {
			return err
		}
	}
	if execs, ok := extras["code_executions"].([]exportCodeExec); ok {
		if err := writeCodeExecutions(ctx, q, messageID, execs); err != nil {
			return err
		}
	}
	if gens, ok := extras["dalle_generations"].([]exportDalleGen); ok {
		if err := writeDalleGenerations(ctx, q, messageID, gens); err != nil {
			return err
		}
	}
	if canvas, ok := extras["canvas"].(*exportCanvas); ok && canvas != nil {
		ingestedAt, _ := extras["_ingested_at"].(int64)
		if err := writeCanvasDoc(ctx, q, messageID, canvas, ingestedAt); err != nil {
			return err
		}
	}
	return nil
}

func writeMessageMeta(ctx context.Context, q store.Querier, messageID string, meta exportMetadata) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO chatgpt_message_meta (message_id, model_slug)
		VALUES (?, ?)
		ON CONFLICT(message_id) DO UPDATE SET model_slug = excluded.model_slug
	`, messageID, meta.ModelSlug)
	if err != nil {
		return fmt.Errorf("chatgpt: write message meta for %s: %w", messageID, err)
	}
	return nil
}

func writeSearchGroups(ctx context.Context, q store.Querier, messageID string, groups []exportSearchGroup) error {
	for _, g := range groups {
		groupID := store.NewID()
		if _, err := q.ExecContext(ctx, `
			INSERT INTO chatgpt_search_groups (id, message_id, query) VALUES (?, ?, ?)
		`, groupID, messageID, g.Query); err != nil {
			return fmt.Errorf("chatgpt: write search group for %s: %w", messageID, err)
		}
		for _, e := range g.Entries {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO chatgpt_search_entries (id, group_id, title, url, snippet) VALUES (?, ?, ?, ?, ?)
			`, store.NewID(), groupID, e.Title, e.URL, e.Snippet); err != nil {
				return fmt.Errorf("chatgpt: write search entry for %s: %w", messageID, err)
			}
		}
	}
	return nil
}

func writeCodeExecutions(ctx context.Context, q store.Querier, messageID string, execs []exportCodeExec) error {
	for _, ex := range execs {
		execID := store.NewID()
		if _, err := q.ExecContext(ctx, `
			INSERT INTO chatgpt_code_executions (id, message_id, language, code) VALUES (?, ?, ?, ?)
		`, execID, messageID, ex.Language, ex.Code); err != nil {
			return fmt.Errorf("chatgpt: write code execution for %s: %w", messageID, err)
		}
		for _, o := range ex.Outputs {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO chatgpt_code_outputs (id, execution_id, stream, text_content) VALUES (?, ?, ?, ?)
			`, store.NewID(), execID, o.Stream, o.Text); err != nil {
				return fmt.Errorf("chatgpt: write code output for %s: %w", messageID, err)
			}
		}
	}
	return nil
}

func writeDalleGenerations(ctx context.Context, q store.Querier, messageID string, gens []exportDalleGen) error {
	for _, gen := range gens {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO chatgpt_dalle_generations (id, message_id, prompt, asset_pointer) VALUES (?, ?, ?, ?)
		`, store.NewID(), messageID, gen.Prompt, gen.AssetPointer); err != nil {
			return fmt.Errorf("chatgpt: write dalle generation for %s: %w", messageID, err)
		}
	}
	return nil
}

func writeCanvasDoc(ctx context.Context, q store.Querier, messageID string, canvas *exportCanvas, ingestedAt int64) error {
	var contentPartID string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM content_parts WHERE message_id = ? AND part_type = 'canvas' ORDER BY sequence DESC LIMIT 1
	`, messageID).Scan(&contentPartID)
	if err != nil {
		return fmt.Errorf("chatgpt: locate canvas content part for %s: %w", messageID, err)
	}

	docID := store.NewID()
	if _, err := q.ExecContext(ctx, `
		INSERT INTO chatgpt_canvas_docs (id, message_id, content_part_id, textdoc_id, title, version, is_latest)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, docID, messageID, contentPartID, canvas.TextdocID, canvas.Title, canvas.Version); err != nil {
		return fmt.Errorf("chatgpt: write canvas doc for %s: %w", messageID, err)
	}

	ground := annotation.Result{Key: "canvas_title", Source: "chatgpt_adapter", CreatedAt: ingestedAt}
	if _, err := annotation.WriteString(ctx, q, store.EntityContentPart, contentPartID, canvas.Title, ground); err != nil {
		return fmt.Errorf("chatgpt: annotate canvas title for %s: %w", messageID, err)
	}
	versionResult := annotation.Result{Key: "canvas_version", Source: "chatgpt_adapter", CreatedAt: ingestedAt}
	if _, err := annotation.WriteNumeric(ctx, q, store.EntityContentPart, contentPartID, float64(canvas.Version), versionResult); err != nil {
		return fmt.Errorf("chatgpt: annotate canvas version for %s: %w", messageID, err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE chatgpt_canvas_docs SET is_latest = 0 WHERE textdoc_id = ?
	`, canvas.TextdocID); err != nil {
		return fmt.Errorf("chatgpt: reset canvas latest flag for %s: %w", canvas.TextdocID, err)
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE chatgpt_canvas_docs SET is_latest = 1 WHERE textdoc_id = ? AND version = (
			SELECT MAX(version) FROM chatgpt_canvas_docs WHERE textdoc_id = ?
		)
	`, canvas.TextdocID, canvas.TextdocID); err != nil {
		return fmt.Errorf("chatgpt: flag latest canvas doc for %s: %w", canvas.TextdocID, err)
	}
	return nil
}
