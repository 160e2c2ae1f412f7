package promptresponse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

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

func insertDialogue(t *testing.T, ctx context.Context, g *store.Gateway, id string) {
	t.Helper()
	err := g.WithinTx(ctx, func(q store.Querier) error {
		return store.InsertDialogue(ctx, q, &store.Dialogue{
			ID: id, SourceID: "chatgpt", ExternalID: id, CreatedAt: 1, UpdatedAt: 1,
		})
	})
	require.NoError(t, err)
}

func insertMessage(t *testing.T, ctx context.Context, g *store.Gateway, id, dialogueID string, parentID *string, role store.Role, createdAt int64, text string) {
	t.Helper()
	err := g.WithinTx(ctx, func(q store.Querier) error {
		m := &store.Message{
			ID: id, DialogueID: dialogueID, ExternalID: id, ParentID: parentID,
			Role: role, AuthorJSON: "{}", ContentHash: "h-" + id,
			SourceCreatedAt: &createdAt, CreatedAt: createdAt, UpdatedAt: createdAt,
		}
		if err := store.InsertMessage(ctx, q, m); err != nil {
			return err
		}
		return store.InsertContentPart(ctx, q, &store.ContentPart{
			ID: "cp-" + id, MessageID: id, Sequence: 0, PartType: store.PartText, Text: &text,
		})
	})
	require.NoError(t, err)
}

func TestBuildPairsSimpleLinear(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d1")

	insertMessage(t, ctx, g, "u1", "d1", nil, store.RoleUser, 1, "hello")
	p1 := "u1"
	insertMessage(t, ctx, g, "a1", "d1", &p1, store.RoleAssistant, 2, "hi there")

	b := promptresponse.New(g)
	require.NoError(t, b.Build(ctx, "d1"))

	var pairs []*store.PromptResponse
	err := g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		pairs, err = store.ListPromptResponsesForDialogue(ctx, q, "d1")
		return err
	})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "u1", pairs[0].PromptMessageID)
	require.Equal(t, "a1", pairs[0].ResponseMessageID)
}

func TestBuildPairsRegenerationSharesPrompt(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d1")

	insertMessage(t, ctx, g, "u1", "d1", nil, store.RoleUser, 1, "question")
	p1 := "u1"
	insertMessage(t, ctx, g, "a1v1", "d1", &p1, store.RoleAssistant, 2, "answer v1")
	insertMessage(t, ctx, g, "a1v2", "d1", &p1, store.RoleAssistant, 3, "answer v2")

	b := promptresponse.New(g)
	require.NoError(t, b.Build(ctx, "d1"))

	var pairs []*store.PromptResponse
	err := g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		pairs, err = store.ListPromptResponsesForDialogue(ctx, q, "d1")
		return err
	})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	require.Equal(t, "u1", pairs[0].PromptMessageID)
	require.Equal(t, "u1", pairs[1].PromptMessageID)
}

func TestBuildPairsWalksAncestorPastToolMessage(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d1")

	insertMessage(t, ctx, g, "u1", "d1", nil, store.RoleUser, 1, "search for X")
	p1 := "u1"
	insertMessage(t, ctx, g, "asst1", "d1", &p1, store.RoleAssistant, 2, "calling tool")
	p2 := "asst1"
	insertMessage(t, ctx, g, "tool1", "d1", &p2, store.RoleTool, 3, "tool result")
	p3 := "tool1"
	insertMessage(t, ctx, g, "asst2", "d1", &p3, store.RoleAssistant, 4, "found X")

	b := promptresponse.New(g)
	require.NoError(t, b.Build(ctx, "d1"))

	var pairs []*store.PromptResponse
	err := g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		pairs, err = store.ListPromptResponsesForDialogue(ctx, q, "d1")
		return err
	})
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	byResponse := make(map[string]*store.PromptResponse, len(pairs))
	for _, p := range pairs {
		byResponse[p.ResponseMessageID] = p
	}
	require.Equal(t, "u1", byResponse["asst1"].PromptMessageID)
	require.Equal(t, "u1", byResponse["asst2"].PromptMessageID, "ancestor walk must skip the non-user tool message")
}

func TestBuildPairsWritesAggregatedContentAndWordCounts(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d1")

	insertMessage(t, ctx, g, "u1", "d1", nil, store.RoleUser, 1, "one two three")
	p1 := "u1"
	insertMessage(t, ctx, g, "a1", "d1", &p1, store.RoleAssistant, 2, "four five")

	b := promptresponse.New(g)
	require.NoError(t, b.Build(ctx, "d1"))

	var pairs []*store.PromptResponse
	err := g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		pairs, err = store.ListPromptResponsesForDialogue(ctx, q, "d1")
		return err
	})
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	var contents []*store.PromptResponseContent
	err = g.WithinTx(ctx, func(q store.Querier) error {
		rows, err := q.QueryContext(ctx, `SELECT prompt_response_id, prompt_text, response_text, prompt_word_count, response_word_count FROM prompt_response_content`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c store.PromptResponseContent
			if err := rows.Scan(&c.PromptResponseID, &c.PromptText, &c.ResponseText, &c.PromptWordCount, &c.ResponseWordCount); err != nil {
				return err
			}
			contents = append(contents, &c)
		}
		return rows.Err()
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	require.Equal(t, "one two three", contents[0].PromptText)
	require.Equal(t, "four five", contents[0].ResponseText)
	require.Equal(t, 3, contents[0].PromptWordCount)
	require.Equal(t, 2, contents[0].ResponseWordCount)
}

func TestBuildIsIdempotent(t *testing.T) {
	g := openGateway(t)
	ctx := context.Background()
	insertDialogue(t, ctx, g, "d1")

	insertMessage(t, ctx, g, "u1", "d1", nil, store.RoleUser, 1, "hi")
	p1 := "u1"
	insertMessage(t, ctx, g, "a1", "d1", &p1, store.RoleAssistant, 2, "hello")

	b := promptresponse.New(g)
	require.NoError(t, b.Build(ctx, "d1"))
	require.NoError(t, b.Build(ctx, "d1"))

	var pairs []*store.PromptResponse
	err := g.WithinTx(ctx, func(q store.Querier) error {
		var err error
		pairs, err = store.ListPromptResponsesForDialogue(ctx, q, "d1")
		return err
	})
	require.NoError(t, err)
	require.Len(t, pairs, 1, "rebuilding twice must not duplicate pairs")
}
