package annotator_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dmarx/chat2obs/internal/annotation"
	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/annotator/builtins"
	"github.com/dmarx/chat2obs/internal/promptresponse"
	"github.com/dmarx/chat2obs/internal/store"
)

func openGateway(t *testing.T) *store.Gateway {
	t.Helper()
	g, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func insertContentPart(t *testing.T, ctx context.Context, g *store.Gateway, id, messageID, text string, createdAt int64) {
	t.Helper()
	err := g.WithinTx(ctx, func(q store.Querier) error {
		return store.InsertContentPart(ctx, q, &store.ContentPart{
			ID: id, MessageID: messageID, Sequence: 0, PartType: store.PartText, Text: &text, CreatedAt: createdAt,
		})
	})
	require.NoError(t, err)
}

func insertDialogue(t *testing.T, ctx context.Context, g *store.Gateway, id string) {
	t.Helper()
	err := g.WithinTx(ctx, func(q store.Querier) error {
		return store.InsertDialogue(ctx, q, &store.Dialogue{
			ID: id, SourceID: "chatgpt", ExternalID: id, CreatedAt: 1, UpdatedAt: 1,
		})
	})
	require.NoError(t, err)
}

func insertMessage(t *testing.T, ctx context.Context, g *store.Gateway, dialogueID, messageID string, parentID *string, role store.Role, createdAt int64) {
	t.Helper()
	err := g.WithinTx(ctx, func(q store.Querier) error {
		return store.InsertMessage(ctx, q, &store.Message{
			ID: messageID, DialogueID: dialogueID, ExternalID: messageID, ParentID: parentID,
			Role: role, AuthorJSON: "{}", ContentHash: "h-" + messageID,
			SourceCreatedAt: &createdAt, CreatedAt: createdAt, UpdatedAt: createdAt,
		})
	})
	require.NoError(t, err)
}

func TestRunAllAnnotatesContentPartsAndAdvancesCursor(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d-code-1")
	insertMessage(t, ctx, g, "d-code-1", "m1", nil, store.RoleUser, 1)
	insertContentPart(t, ctx, g, "cp1", "m1", "```python\nprint(1)\n```", 1)

	rt := annotator.New(g, zerolog.Nop())
	rt.Register(builtins.NewCodeBlockAnnotator())

	result, err := rt.RunAll(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, result.Annotators, 1)
	require.NoError(t, result.Annotators[0].Err)
	require.Equal(t, 1, result.Annotators[0].Processed)
	require.Equal(t, 3, result.Annotators[0].Written) // has_code_block flag + code_block_count numeric + code_languages string

	var hasCode bool
	err = g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		hasCode, err = annotation.HasFlag(ctx, q, store.EntityContentPart, "cp1", "has_code_block")
		return err
	})
	require.NoError(t, err)
	require.True(t, hasCode)

	var cursor *store.AnnotatorCursor
	err = g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		cursor, err = store.GetCursor(ctx, q, "code_block", "1", store.EntityContentPart)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), cursor.HighWaterMark)

	// a second run with no new content parts sees nothing, but the cursor
	// still advances past the prior high-water mark so a permanently quiet
	// annotator doesn't re-scan the same candidates on every future run.
	result, err = rt.RunAll(ctx, "", false)
	require.NoError(t, err)
	require.Equal(t, 0, result.Annotators[0].Processed)

	var secondCursor *store.AnnotatorCursor
	err = g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		secondCursor, err = store.GetCursor(ctx, q, "code_block", "1", store.EntityContentPart)
		return err
	})
	require.NoError(t, err)
	require.Greater(t, secondCursor.HighWaterMark, cursor.HighWaterMark)
}

func TestRunAllAggregatesEvidenceAcrossEntityKinds(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d-code-2")
	insertMessage(t, ctx, g, "d-code-2", "u1", nil, store.RoleUser, 1)
	parent := "u1"
	insertMessage(t, ctx, g, "d-code-2", "a1", &parent, store.RoleAssistant, 2)
	insertContentPart(t, ctx, g, "cp-u1", "u1", "please write code", 1)
	insertContentPart(t, ctx, g, "cp-a1", "a1", "```python\nprint(1)\n```", 2)

	b := promptresponse.New(g)
	require.NoError(t, b.Build(ctx, "d-code-2"))

	rt := annotator.New(g, zerolog.Nop())
	rt.Register(builtins.NewCodeBlockAnnotator())
	rt.Register(builtins.NewHasCodeAnnotator())

	result, err := rt.RunAll(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, result.Annotators, 2)
	for _, ar := range result.Annotators {
		require.NoError(t, ar.Err)
	}

	var pairs []*store.PromptResponse
	err = g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		pairs, err = store.ListPromptResponsesForDialogue(ctx, q, "d-code-2")
		return err
	})
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	var hasCode bool
	var evidence []string
	err = g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		hasCode, err = annotation.HasFlag(ctx, q, store.EntityPromptResponse, pairs[0].ID, "has_code")
		if err != nil {
			return err
		}
		evidence, err = annotation.GetString(ctx, q, store.EntityPromptResponse, pairs[0].ID, "code_evidence")
		return err
	})
	require.NoError(t, err)
	require.True(t, hasCode, "has_code must be set from the content-part evidence the runtime assembled")
	require.Contains(t, evidence, "python")
}

func TestRunAllGatingChainsWikiCandidateIntoNaiveTitle(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d-wiki-1")
	insertMessage(t, ctx, g, "d-wiki-1", "u1", nil, store.RoleUser, 1)
	parent := "u1"
	insertMessage(t, ctx, g, "d-wiki-1", "a1", &parent, store.RoleAssistant, 2)
	insertContentPart(t, ctx, g, "cp-u1w", "u1", "tell me about topics", 1)
	insertContentPart(t, ctx, g, "cp-a1w", "a1", "## The Great Library\n\nSee [[A]] and [[B]] and [[C]].", 2)

	b := promptresponse.New(g)
	require.NoError(t, b.Build(ctx, "d-wiki-1"))

	rt := annotator.New(g, zerolog.Nop())
	rt.Register(builtins.NewWikiCandidateAnnotator())
	rt.Register(builtins.NewNaiveTitleAnnotator())

	result, err := rt.RunAll(ctx, "", false)
	require.NoError(t, err)
	for _, ar := range result.Annotators {
		require.NoError(t, ar.Err)
	}

	var pairs []*store.PromptResponse
	err = g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		pairs, err = store.ListPromptResponsesForDialogue(ctx, q, "d-wiki-1")
		return err
	})
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	var titles []string
	err = g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		titles, err = annotation.GetString(ctx, q, store.EntityPromptResponse, pairs[0].ID, "proposed_title")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, []string{"The Great Library"}, titles)
}

func TestRunAllClearResetsCursorAndReprocesses(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d-clear-1")
	insertMessage(t, ctx, g, "d-clear-1", "m1", nil, store.RoleUser, 1)
	insertContentPart(t, ctx, g, "cp-clear-1", "m1", "```go\nfmt.Println(1)\n```", 1)

	rt := annotator.New(g, zerolog.Nop())
	rt.Register(builtins.NewCodeBlockAnnotator())

	result, err := rt.RunAll(ctx, "", false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Annotators[0].Processed)

	result, err = rt.RunAll(ctx, "", false)
	require.NoError(t, err)
	require.Equal(t, 0, result.Annotators[0].Processed, "no new entities, cursor already past the one content part")

	result, err = rt.RunAll(ctx, "code_block", true)
	require.NoError(t, err)
	require.Len(t, result.Annotators, 1)
	require.Equal(t, 1, result.Annotators[0].Processed, "clear must force a full re-scan")
}

func TestRunAllRunsOnlyTheNamedAnnotator(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d-named-1")
	insertMessage(t, ctx, g, "d-named-1", "m1", nil, store.RoleUser, 1)
	insertContentPart(t, ctx, g, "cp-named-1", "m1", "$$x^2$$", 1)

	rt := annotator.New(g, zerolog.Nop())
	rt.Register(builtins.NewCodeBlockAnnotator())
	rt.Register(builtins.NewLatexContentAnnotator())

	result, err := rt.RunAll(ctx, "latex_content", false)
	require.NoError(t, err)
	require.Len(t, result.Annotators, 1)
	require.Equal(t, "latex_content", result.Annotators[0].Name)
}
