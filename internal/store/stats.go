package store

import (
	"context"
	"fmt"
)

// Stats is the summary returned by the stats() operation (§6.3): row counts
// for the core tables, a breakdown of annotation counts by entity kind and
// value kind, and the current cursor high-water marks.
type Stats struct {
	Sources         int64
	Dialogues       int64
	Messages        int64
	DeletedMessages int64
	ContentParts    int64
	PromptResponses int64
	Annotations     map[string]map[string]int64 // entity_kind -> value_kind -> count
	Cursors         []*AnnotatorCursor
}

var entityKinds = []EntityKind{EntityContentPart, EntityMessage, EntityPromptResponse, EntityDialogue}
var valueKinds = []string{"flag", "string", "numeric", "json"}

// ComputeStats gathers the counters that back the stats() CLI operation.
func ComputeStats(ctx context.Context, q Querier) (*Stats, error) {
	s := &Stats{Annotations: make(map[string]map[string]int64, len(entityKinds))}

	if err := scanCount(ctx, q, `SELECT COUNT(*) FROM sources`, &s.Sources); err != nil {
		return nil, err
	}
	if err := scanCount(ctx, q, `SELECT COUNT(*) FROM dialogues`, &s.Dialogues); err != nil {
		return nil, err
	}
	if err := scanCount(ctx, q, `SELECT COUNT(*) FROM messages`, &s.Messages); err != nil {
		return nil, err
	}
	if err := scanCount(ctx, q, `SELECT COUNT(*) FROM messages WHERE deleted_at IS NOT NULL`, &s.DeletedMessages); err != nil {
		return nil, err
	}
	if err := scanCount(ctx, q, `SELECT COUNT(*) FROM content_parts`, &s.ContentParts); err != nil {
		return nil, err
	}
	if err := scanCount(ctx, q, `SELECT COUNT(*) FROM prompt_responses`, &s.PromptResponses); err != nil {
		return nil, err
	}

	for _, ek := range entityKinds {
		s.Annotations[string(ek)] = make(map[string]int64, len(valueKinds))
		for _, vk := range valueKinds {
			var count int64
			table := string(ek) + "_annotations_" + vk
			if err := scanCount(ctx, q, `SELECT COUNT(*) FROM `+table, &count); err != nil {
				return nil, err
			}
			s.Annotations[string(ek)][vk] = count
		}
	}

	cursors, err := ListCursors(ctx, q)
	if err != nil {
		return nil, err
	}
	s.Cursors = cursors

	return s, nil
}

func scanCount(ctx context.Context, q Querier, query string, dest *int64) error {
	if err := q.QueryRowContext(ctx, query).Scan(dest); err != nil {
		return fmt.Errorf("store: stats query %q: %w", query, err)
	}
	return nil
}
