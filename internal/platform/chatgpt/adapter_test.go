package chatgpt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmarx/chat2obs/internal/platform/chatgpt"
)

const sampleExport = `[
  {
    "conversation_id": "conv1",
    "title": "Test Conversation",
    "create_time": 1700000000,
    "update_time": 1700000100,
    "mapping": {
      "root": {"id": "root", "parent": null, "children": ["u1"], "message": null},
      "u1": {"id": "u1", "parent": "root", "children": ["a1"], "message": {
        "id": "u1", "author": {"role": "user"}, "create_time": 1700000001,
        "content": {"content_type": "text", "parts": ["hello there"]}
      }},
      "a1": {"id": "a1", "parent": "u1", "children": [], "message": {
        "id": "a1", "author": {"role": "assistant"}, "create_time": 1700000002,
        "content": {"content_type": "text", "parts": ["hi! how can I help?"]}
      }}
    }
  }
]`

func TestChatGPTAdapterParsesDialoguesAndMessages(t *testing.T) {
	a, err := chatgpt.New([]byte(sampleExport))
	require.NoError(t, err)
	require.Equal(t, "chatgpt", a.SourceID())

	dialogues, err := a.Dialogues()
	require.NoError(t, err)
	require.Len(t, dialogues, 1)
	require.Equal(t, "conv1", dialogues[0].ExternalID)
	require.Equal(t, "Test Conversation", dialogues[0].Title)

	messages, err := a.Messages("conv1")
	require.NoError(t, err)
	require.Len(t, messages, 2, "routing node 'root' must be skipped")

	byID := map[string]int{}
	for i, m := range messages {
		byID[m.ExternalID] = i
	}
	u1 := messages[byID["u1"]]
	require.Equal(t, "user", u1.Role)
	require.NotNil(t, u1.ParentExternalID)
	require.Equal(t, "root", *u1.ParentExternalID)

	a1 := messages[byID["a1"]]
	require.Equal(t, "assistant", a1.Role)
	require.NotNil(t, a1.ParentExternalID)
	require.Equal(t, "u1", *a1.ParentExternalID)
	require.Len(t, a1.Content, 1)
	require.Equal(t, "text", a1.Content[0].PartType)
	require.Equal(t, "hi! how can I help?", *a1.Content[0].Text)
}
