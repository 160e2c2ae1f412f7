package claude_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmarx/chat2obs/internal/platform/claude"
)

const sampleExport = `[
  {
    "uuid": "conv1",
    "name": "Research chat",
    "created_at": "2024-01-01T00:00:00Z",
    "chat_messages": [
      {"uuid": "m1", "sender": "human", "created_at": "2024-01-01T00:00:01Z",
       "content": [{"type": "text", "text": "search X"}]},
      {"uuid": "m2", "sender": "assistant", "created_at": "2024-01-01T00:00:02Z",
       "content": [
         {"type": "thinking", "text": "I should search"},
         {"type": "tool_use", "tool_use_id": "T", "name": "search", "input": {}}
       ]},
      {"uuid": "m3", "sender": "tool", "created_at": "2024-01-01T00:00:03Z",
       "content": [{"type": "tool_result", "tool_use_id": "T", "content": "hit"}]},
      {"uuid": "m4", "sender": "assistant", "created_at": "2024-01-01T00:00:04Z",
       "content": [{"type": "text", "text": "found X"}]}
    ]
  }
]`

func TestClaudeAdapterSynthesizesLinearParents(t *testing.T) {
	a, err := claude.New([]byte(sampleExport))
	require.NoError(t, err)
	require.Equal(t, "claude", a.SourceID())

	messages, err := a.Messages("conv1")
	require.NoError(t, err)
	require.Len(t, messages, 4)

	require.Nil(t, messages[0].ParentExternalID)
	require.Equal(t, "user", messages[0].Role, "human must normalize to user")

	require.NotNil(t, messages[1].ParentExternalID)
	require.Equal(t, "m1", *messages[1].ParentExternalID)
	require.Len(t, messages[1].Content, 2)
	require.Equal(t, "thinking", messages[1].Content[0].PartType)
	require.Equal(t, "tool_use", messages[1].Content[1].PartType)

	require.Equal(t, "m2", *messages[2].ParentExternalID)
	require.Equal(t, "tool_result", messages[2].Content[0].PartType)
	require.Equal(t, "hit", *messages[2].Content[0].Text)

	require.Equal(t, "m3", *messages[3].ParentExternalID)
}
