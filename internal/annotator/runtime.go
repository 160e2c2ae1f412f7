package annotator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmarx/chat2obs/internal/annotation"
	"github.com/dmarx/chat2obs/internal/store"
)

// candidateBatchSize bounds how many entities one annotator fetches per
// streaming call; the runtime loops until a batch comes back short (§5:
// "annotators stream entities and commit once per annotator, or in batches
// of N >= 100").
const candidateBatchSize = 200

// AnnotatorResult tallies one annotator's run.
type AnnotatorResult struct {
	Name      string
	Processed int
	Written   int
	Err       error
}

// Result is the outcome of one runtime invocation across all annotators.
type Result struct {
	Annotators []AnnotatorResult
}

// Runtime drives a registered set of annotators against a Store Gateway.
type Runtime struct {
	gw         *store.Gateway
	annotators []Annotator
	log        zerolog.Logger
}

// New builds an empty Runtime bound to a Store Gateway.
func New(gw *store.Gateway, log zerolog.Logger) *Runtime {
	return &Runtime{gw: gw, log: log}
}

// Register adds an annotator to the runtime. Panics on a malformed
// registration (metadata/interface mismatch) since this is a programming
// error discovered at wiring time, not a runtime condition.
func (rt *Runtime) Register(a Annotator) {
	meta := a.Metadata()
	switch meta.EntityKind {
	case store.EntityContentPart:
		if _, ok := a.(ContentPartAnnotator); !ok {
			panic(fmt.Sprintf("annotator: %s declares entity_kind=content_part but does not implement ContentPartAnnotator", meta.Name))
		}
	case store.EntityPromptResponse:
		if _, ok := a.(PromptResponseAnnotator); !ok {
			panic(fmt.Sprintf("annotator: %s declares entity_kind=prompt_response but does not implement PromptResponseAnnotator", meta.Name))
		}
	default:
		panic(fmt.Sprintf("annotator: %s declares unsupported entity_kind %s", meta.Name, meta.EntityKind))
	}
	rt.annotators = append(rt.annotators, a)
}

// RunAll executes every registered annotator in priority order (§4.7.1). If
// name is non-empty, only the matching annotator runs. If clear is true, the
// selected annotator(s)' cursors are deleted first, forcing a full re-scan.
func (rt *Runtime) RunAll(ctx context.Context, name string, clear bool) (Result, error) {
	ordered := make([]Annotator, len(rt.annotators))
	copy(ordered, rt.annotators)
	sort.Slice(ordered, func(i, j int) bool {
		mi, mj := ordered[i].Metadata(), ordered[j].Metadata()
		if mi.Priority != mj.Priority {
			return mi.Priority > mj.Priority
		}
		return mi.Name < mj.Name
	})

	var result Result
	for _, a := range ordered {
		meta := a.Metadata()
		if name != "" && meta.Name != name {
			continue
		}

		if clear {
			if err := rt.gw.WithinTx(ctx, func(q store.Querier) error {
				return store.DeleteCursor(ctx, q, meta.Name, meta.Version, meta.EntityKind)
			}); err != nil {
				result.Annotators = append(result.Annotators, AnnotatorResult{Name: meta.Name, Err: err})
				continue
			}
		}

		ar := rt.runOne(ctx, a)
		result.Annotators = append(result.Annotators, ar)
		if ar.Err != nil {
			rt.log.Error().Err(ar.Err).Str("annotator", meta.Name).Msg("annotator run failed, rolled back")
		} else {
			rt.log.Info().Str("annotator", meta.Name).Int("processed", ar.Processed).Int("written", ar.Written).Msg("annotator run complete")
		}
	}
	return result, nil
}

// runOne drives one annotator to completion across as many candidate
// batches as needed, inside a single transaction (§5: "commit once per
// annotator"). An error rolls back the whole annotator's work, including its
// cursor advance, and the runtime moves on to the next annotator (§4.7.1).
func (rt *Runtime) runOne(ctx context.Context, a Annotator) AnnotatorResult {
	meta := a.Metadata()
	ar := AnnotatorResult{Name: meta.Name}

	err := rt.gw.WithinTx(ctx, func(q store.Querier) error {
		cursor, err := store.GetCursor(ctx, q, meta.Name, meta.Version, meta.EntityKind)
		if err != nil {
			return err
		}
		highWater := cursor.HighWaterMark
		maxSeen := highWater
		now := time.Now().UnixMilli()

		for {
			var batchProcessed, batchWritten int
			var lastSeen int64
			var err error

			switch meta.EntityKind {
			case store.EntityContentPart:
				batchProcessed, batchWritten, lastSeen, err = rt.runContentPartBatch(ctx, q, a.(ContentPartAnnotator), meta, highWater)
			case store.EntityPromptResponse:
				batchProcessed, batchWritten, lastSeen, err = rt.runPromptResponseBatch(ctx, q, a.(PromptResponseAnnotator), meta, highWater)
			default:
				return fmt.Errorf("annotator: unsupported entity_kind %s", meta.EntityKind)
			}
			if err != nil {
				return err
			}

			ar.Processed += batchProcessed
			ar.Written += batchWritten
			if lastSeen > maxSeen {
				maxSeen = lastSeen
			}
			if batchProcessed < candidateBatchSize {
				break
			}
			highWater = lastSeen
		}

		if ar.Processed == 0 {
			// Empty candidate stream: advance to now so a quiet annotator
			// doesn't re-scan from the same high-water mark forever (§5).
			maxSeen = now
		}

		return store.AdvanceCursor(ctx, q, &store.AnnotatorCursor{
			AnnotatorName:     meta.Name,
			AnnotatorVersion:  meta.Version,
			EntityKind:        meta.EntityKind,
			HighWaterMark:     maxSeen,
			EntitiesProcessed: int64(ar.Processed),
			LastRunAt:         &now,
		})
	})
	ar.Err = err
	return ar
}

func (rt *Runtime) runContentPartBatch(ctx context.Context, q store.Querier, a ContentPartAnnotator, meta Metadata, highWater int64) (processed, written int, lastSeen int64, err error) {
	parts, err := store.ListContentPartsSince(ctx, q, highWater, candidateBatchSize)
	if err != nil {
		return 0, 0, highWater, err
	}
	lastSeen = highWater
	for _, p := range parts {
		processed++
		if p.CreatedAt > lastSeen {
			lastSeen = p.CreatedAt
		}

		eligible, err := checkGating(ctx, q, meta, store.EntityContentPart, p.ID)
		if err != nil {
			return processed, written, lastSeen, err
		}
		if !eligible {
			continue
		}

		text := ""
		if p.Text != nil {
			text = *p.Text
		}
		entity := ContentPartEntity{ID: p.ID, Text: text, PartType: string(p.PartType)}
		results, annErr := safeAnnotate(func() ([]AnnotationResult, error) { return a.Annotate(entity) })
		if annErr != nil {
			rt.log.Warn().Err(annErr).Str("annotator", meta.Name).Str("entity", p.ID).Msg("annotator panicked or errored on entity, skipping")
			continue
		}
		n, err := dispatchResults(ctx, q, store.EntityContentPart, p.ID, meta, results)
		if err != nil {
			return processed, written, lastSeen, err
		}
		written += n
	}
	return processed, written, lastSeen, nil
}

func (rt *Runtime) runPromptResponseBatch(ctx context.Context, q store.Querier, a PromptResponseAnnotator, meta Metadata, highWater int64) (processed, written int, lastSeen int64, err error) {
	prs, err := store.ListPromptResponsesSince(ctx, q, highWater, candidateBatchSize)
	if err != nil {
		return 0, 0, highWater, err
	}
	lastSeen = highWater
	for _, pr := range prs {
		processed++
		if pr.CreatedAt > lastSeen {
			lastSeen = pr.CreatedAt
		}

		eligible, err := checkGating(ctx, q, meta, store.EntityPromptResponse, pr.ID)
		if err != nil {
			return processed, written, lastSeen, err
		}
		if !eligible {
			continue
		}

		entity, err := buildPromptResponseEntity(ctx, q, pr)
		if err != nil {
			return processed, written, lastSeen, err
		}

		results, annErr := safeAnnotate(func() ([]AnnotationResult, error) { return a.Annotate(*entity) })
		if annErr != nil {
			rt.log.Warn().Err(annErr).Str("annotator", meta.Name).Str("entity", pr.ID).Msg("annotator panicked or errored on entity, skipping")
			continue
		}
		n, err := dispatchResults(ctx, q, store.EntityPromptResponse, pr.ID, meta, results)
		if err != nil {
			return processed, written, lastSeen, err
		}
		written += n
	}
	return processed, written, lastSeen, nil
}

// buildPromptResponseEntity assembles the pure-data view for a
// prompt_response candidate, including the precomputed evidence aggregate
// HasCodeAnnotator/HasLatexAnnotator rely on.
func buildPromptResponseEntity(ctx context.Context, q store.Querier, pr *store.PromptResponse) (*PromptResponseEntity, error) {
	entity := &PromptResponseEntity{
		ID:           pr.ID,
		PromptRole:   string(pr.PromptRole),
		ResponseRole: string(pr.ResponseRole),
	}

	content, err := store.GetPromptResponseContent(ctx, q, pr.ID)
	if err != nil {
		return nil, err
	}
	if content != nil {
		entity.PromptText = content.PromptText
		entity.ResponseText = content.ResponseText
	}

	responseParts, err := store.ListContentPartsForMessage(ctx, q, pr.ResponseMessageID)
	if err != nil {
		return nil, err
	}
	for _, part := range responseParts {
		hasCode, err := annotation.HasFlag(ctx, q, store.EntityContentPart, part.ID, "has_code_block")
		if err != nil {
			return nil, err
		}
		if hasCode {
			entity.Evidence.HasCodeBlock = true
			langs, err := annotation.GetString(ctx, q, store.EntityContentPart, part.ID, "code_languages")
			if err != nil {
				return nil, err
			}
			entity.Evidence.CodeLanguages = append(entity.Evidence.CodeLanguages, langs...)
		}
		hasLatex, err := annotation.HasFlag(ctx, q, store.EntityContentPart, part.ID, "has_latex")
		if err != nil {
			return nil, err
		}
		if hasLatex {
			entity.Evidence.HasLatex = true
			types, err := annotation.GetString(ctx, q, store.EntityContentPart, part.ID, "latex_type")
			if err != nil {
				return nil, err
			}
			entity.Evidence.LatexTypes = append(entity.Evidence.LatexTypes, types...)
		}
	}
	return entity, nil
}

// checkGating implements §4.7.1's requires_*/skip_if_* filter against the
// current annotation state of the candidate entity.
func checkGating(ctx context.Context, q store.Querier, meta Metadata, kind store.EntityKind, entityID string) (bool, error) {
	for _, flag := range meta.RequiresFlags {
		has, err := annotation.HasFlag(ctx, q, kind, entityID, flag)
		if err != nil {
			return false, err
		}
		if !has {
			return false, nil
		}
	}
	for _, kv := range meta.RequiresStrings {
		values, err := annotation.GetString(ctx, q, kind, entityID, kv.Key)
		if err != nil {
			return false, err
		}
		if kv.Value == "" {
			if len(values) == 0 {
				return false, nil
			}
			continue
		}
		if !containsString(values, kv.Value) {
			return false, nil
		}
	}
	for _, flag := range meta.SkipIfFlags {
		has, err := annotation.HasFlag(ctx, q, kind, entityID, flag)
		if err != nil {
			return false, err
		}
		if has {
			return false, nil
		}
	}
	for _, kv := range meta.SkipIfStrings {
		values, err := annotation.GetString(ctx, q, kind, entityID, kv.Key)
		if err != nil {
			return false, err
		}
		if kv.Value == "" {
			if len(values) > 0 {
				return false, nil
			}
			continue
		}
		if containsString(values, kv.Value) {
			return false, nil
		}
	}
	return true, nil
}

// dispatchResults writes every AnnotationResult via the write method that
// matches its value kind, returning how many flag, string and numeric rows
// were newly created plus every JSON write (a JSON upsert counts whether it
// inserted or replaced).
func dispatchResults(ctx context.Context, q store.Querier, kind store.EntityKind, entityID string, meta Metadata, results []AnnotationResult) (int, error) {
	now := time.Now().UnixMilli()
	written := 0
	for _, r := range results {
		version := meta.Version
		res := annotation.Result{
			Key:           r.Key,
			Confidence:    r.Confidence,
			Reason:        r.Reason,
			Source:        meta.Source,
			SourceVersion: &version,
			CreatedAt:     now,
		}
		valueKind := r.ValueKind
		if valueKind == "" {
			valueKind = meta.ValueKind
		}
		switch valueKind {
		case "flag":
			created, err := annotation.WriteFlag(ctx, q, kind, entityID, res)
			if err != nil {
				return written, err
			}
			if created {
				written++
			}
		case "string":
			value, _ := r.Value.(string)
			created, err := annotation.WriteString(ctx, q, kind, entityID, value, res)
			if err != nil {
				return written, err
			}
			if created {
				written++
			}
		case "numeric":
			value, _ := r.Value.(float64)
			created, err := annotation.WriteNumeric(ctx, q, kind, entityID, value, res)
			if err != nil {
				return written, err
			}
			if created {
				written++
			}
		case "json":
			if err := annotation.WriteJSON(ctx, q, kind, entityID, r.Value, res); err != nil {
				return written, err
			}
			written++
		default:
			return written, fmt.Errorf("annotator: unknown value_kind %q for key %q", valueKind, r.Key)
		}
	}
	return written, nil
}

// safeAnnotate wraps an annotate call in a recover() (§1.3, §4.7.1/§7); the
// only other recover() in this codebase is Gateway.WithinTx's, which rolls
// back and re-panics. A panicking annotator must
// not poison the whole run, and the entity it panicked on is simply skipped.
func safeAnnotate(fn func() ([]AnnotationResult, error)) (results []AnnotationResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("annotator: panic: %v", p)
		}
	}()
	return fn()
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
