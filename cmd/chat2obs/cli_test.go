package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmarx/chat2obs/internal/config"
	"github.com/dmarx/chat2obs/internal/logging"
	"github.com/dmarx/chat2obs/internal/platform"
	"github.com/dmarx/chat2obs/internal/platform/chatgpt"
	"github.com/dmarx/chat2obs/internal/store"
)

// resetCLIState points the shared package-level config/logger at a fresh
// on-disk database, as PersistentPreRunE would before every real invocation,
// and clears flag vars left over from a previous test.
func resetCLIState(t *testing.T) {
	t.Helper()
	cfg = config.Default()
	cfg.Database.DSN = t.TempDir() + "/chat2obs.db"
	log = logging.New(cfg.Logging.Level, false)

	importAssumeImmutable, importIncremental, importDryRun = false, false, false
	buildDialogueID = ""
	annotateName, annotateClear = "", false
}

func chatgptExport(promptText, responseText string) string {
	return `[{
		"conversation_id": "conv1", "title": "t", "create_time": 1, "update_time": 1,
		"mapping": {
			"root": {"id": "root", "parent": null, "children": ["u1"], "message": null},
			"u1": {"id": "u1", "parent": "root", "children": ["a1"], "message": {
				"id": "u1", "author": {"role": "user"}, "create_time": 1,
				"content": {"content_type": "text", "parts": ["` + promptText + `"]}
			}},
			"a1": {"id": "a1", "parent": "u1", "children": [], "message": {
				"id": "a1", "author": {"role": "assistant"}, "create_time": 2,
				"content": {"content_type": "text", "parts": ["` + responseText + `"]}
			}}
		}
	}]`
}

func TestRunInitSeedsCatalog(t *testing.T) {
	resetCLIState(t)

	require.NoError(t, runInit(nil, nil))

	gw, err := openGateway()
	require.NoError(t, err)
	defer gw.Close()

	s, err := store.ComputeStats(context.Background(), gw.DB())
	require.NoError(t, err)
	require.Equal(t, int64(2), s.Sources)
}

func TestRunImportThenBuildThenAnnotateThenStats(t *testing.T) {
	resetCLIState(t)
	require.NoError(t, runInit(nil, nil))

	path := t.TempDir() + "/export.json"
	require.NoError(t, os.WriteFile(path, []byte(chatgptExport("hello", "```python\\nprint(1)\\n```")), 0o644))

	require.NoError(t, runImport(func(raw []byte) (platform.Adapter, error) {
		return chatgpt.New(raw)
	})(nil, []string{path}))

	require.NoError(t, runBuildPromptResponses(nil, nil))
	require.NoError(t, runAnnotate(nil, nil))
	require.NoError(t, runStats(nil, nil))
}

func TestRunAnnotateWithNameFilterRunsOnlyOneAnnotator(t *testing.T) {
	resetCLIState(t)
	require.NoError(t, runInit(nil, nil))

	path := t.TempDir() + "/export.json"
	require.NoError(t, os.WriteFile(path, []byte(chatgptExport("hello", "no code or math here")), 0o644))
	require.NoError(t, runImport(func(raw []byte) (platform.Adapter, error) {
		return chatgpt.New(raw)
	})(nil, []string{path}))
	require.NoError(t, runBuildPromptResponses(nil, nil))

	annotateName = "code_block"
	require.NoError(t, runAnnotate(nil, nil))

	gw, err := openGateway()
	require.NoError(t, err)
	defer gw.Close()

	s, err := store.ComputeStats(context.Background(), gw.DB())
	require.NoError(t, err)
	require.Len(t, s.Cursors, 1)
	require.Equal(t, "code_block", s.Cursors[0].AnnotatorName)
}

func TestRunImportRejectsMissingFile(t *testing.T) {
	resetCLIState(t)
	require.NoError(t, runInit(nil, nil))

	err := runImport(func(raw []byte) (platform.Adapter, error) {
		return chatgpt.New(raw)
	})(nil, []string{t.TempDir() + "/does-not-exist.json"})
	require.Error(t, err)
}
