package annotation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmarx/chat2obs/internal/annotation"
	"github.com/dmarx/chat2obs/internal/store"
)

func openTestGateway(t *testing.T) *store.Gateway {
	t.Helper()
	g, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestWriteFlagIsIdempotent(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	r := annotation.Result{Key: "has_code_block", Source: "code_block_annotator", CreatedAt: 100}

	created, err := annotation.WriteFlag(ctx, g.DB(), store.EntityContentPart, "cp1", r)
	require.NoError(t, err)
	require.True(t, created)

	created, err = annotation.WriteFlag(ctx, g.DB(), store.EntityContentPart, "cp1", r)
	require.NoError(t, err)
	require.False(t, created, "second insert of the same (entity_id, key) must be a no-op")

	has, err := annotation.HasFlag(ctx, g.DB(), store.EntityContentPart, "cp1", "has_code_block")
	require.NoError(t, err)
	require.True(t, has)
}

func TestWriteStringIsMultiValue(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	r := annotation.Result{Key: "code_languages", Source: "code_block_annotator", CreatedAt: 100}

	_, err := annotation.WriteString(ctx, g.DB(), store.EntityContentPart, "cp1", "go", r)
	require.NoError(t, err)
	_, err = annotation.WriteString(ctx, g.DB(), store.EntityContentPart, "cp1", "python", r)
	require.NoError(t, err)
	created, err := annotation.WriteString(ctx, g.DB(), store.EntityContentPart, "cp1", "go", r)
	require.NoError(t, err)
	require.False(t, created)

	values, err := annotation.GetString(ctx, g.DB(), store.EntityContentPart, "cp1", "code_languages")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"go", "python"}, values)
}

func TestWriteJSONUpsertsLatestValue(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	r := annotation.Result{Key: "summary", Source: "x", CreatedAt: 1}

	err := annotation.WriteJSON(ctx, g.DB(), store.EntityMessage, "m1", map[string]any{"v": 1}, r)
	require.NoError(t, err)
	r.CreatedAt = 2
	err = annotation.WriteJSON(ctx, g.DB(), store.EntityMessage, "m1", map[string]any{"v": 2}, r)
	require.NoError(t, err)

	var dest map[string]any
	ok, err := annotation.GetJSON(ctx, g.DB(), store.EntityMessage, "m1", "summary", &dest)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 2, dest["v"])
}

func TestPurgeForEntityClearsAllValueKinds(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	r := annotation.Result{Key: "k", Source: "x", CreatedAt: 1}

	_, _ = annotation.WriteFlag(ctx, g.DB(), store.EntityContentPart, "cp1", r)
	_, _ = annotation.WriteString(ctx, g.DB(), store.EntityContentPart, "cp1", "v", r)
	_, _ = annotation.WriteNumeric(ctx, g.DB(), store.EntityContentPart, "cp1", 1.0, r)
	_ = annotation.WriteJSON(ctx, g.DB(), store.EntityContentPart, "cp1", 1, r)

	require.NoError(t, annotation.PurgeForEntity(ctx, g.DB(), store.EntityContentPart, "cp1"))

	has, err := annotation.HasFlag(ctx, g.DB(), store.EntityContentPart, "cp1", "k")
	require.NoError(t, err)
	require.False(t, has)
}

func TestFindEntitiesWithString(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()
	r := annotation.Result{Key: "exchange_type", Source: "wiki_candidate_annotator", CreatedAt: 1}

	_, err := annotation.WriteString(ctx, g.DB(), store.EntityPromptResponse, "pr1", "wiki_article", r)
	require.NoError(t, err)
	_, err = annotation.WriteString(ctx, g.DB(), store.EntityPromptResponse, "pr2", "other", r)
	require.NoError(t, err)

	wikiValue := "wiki_article"
	ids, err := annotation.FindEntitiesWithString(ctx, g.DB(), store.EntityPromptResponse, "exchange_type", &wikiValue)
	require.NoError(t, err)
	require.Equal(t, []string{"pr1"}, ids)

	all, err := annotation.FindEntitiesWithString(ctx, g.DB(), store.EntityPromptResponse, "exchange_type", nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"pr1", "pr2"}, all)
}
