package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmarx/chat2obs/internal/extract"
	"github.com/dmarx/chat2obs/internal/logging"
	"github.com/dmarx/chat2obs/internal/platform"
	"github.com/dmarx/chat2obs/internal/platform/chatgpt"
	"github.com/dmarx/chat2obs/internal/platform/claude"
)

var (
	importAssumeImmutable bool
	importIncremental     bool
	importDryRun           bool
)

var importChatGPTCmd = &cobra.Command{
	Use:   "import-chatgpt [path]",
	Short: "Import a ChatGPT export archive",
	Args:  cobra.ExactArgs(1),
	RunE: runImport(func(raw []byte) (platform.Adapter, error) {
		return chatgpt.New(raw)
	}),
}

var importClaudeCmd = &cobra.Command{
	Use:   "import-claude [path]",
	Short: "Import a Claude export archive",
	Args:  cobra.ExactArgs(1),
	RunE: runImport(func(raw []byte) (platform.Adapter, error) {
		return claude.New(raw)
	}),
}

func init() {
	for _, c := range []*cobra.Command{importChatGPTCmd, importClaudeCmd} {
		c.Flags().BoolVar(&importAssumeImmutable, "assume-immutable", false, "skip content-hash comparison for existing messages")
		c.Flags().BoolVar(&importIncremental, "incremental", false, "treat the import as a delta; do not soft-delete missing messages")
		c.Flags().BoolVar(&importDryRun, "dry-run", false, "classify every dialogue without committing any write")
	}
}

// runImport returns a cobra RunE that drives extract.Extractor for one
// adapter constructor, shared by both platform subcommands (§6.3:
// "import_<platform>(path, assume_immutable?, incremental?)").
func runImport(newAdapter func([]byte) (platform.Adapter, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read export archive: %w", err)
		}

		adapter, err := newAdapter(raw)
		if err != nil {
			return fmt.Errorf("parse export archive: %w", err)
		}

		gw, err := openGateway()
		if err != nil {
			return err
		}
		defer gw.Close()

		ex := extract.New(gw, adapter, logging.WithComponent(log, "extract"))
		result, err := ex.Run(context.Background(), extract.Options{
			AssumeImmutable: importAssumeImmutable,
			Incremental:     importIncremental,
			DryRun:          importDryRun,
		})
		if err != nil {
			return fmt.Errorf("extraction run: %w", err)
		}

		fmt.Printf("new=%d updated=%d skipped=%d failed=%d\n", result.New, result.Updated, result.Skipped, result.Failed)
		return nil
	}
}
