package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmarx/chat2obs/internal/platform/chatgpt"
	"github.com/dmarx/chat2obs/internal/platform/claude"
	"github.com/dmarx/chat2obs/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Apply the schema and seed the platform catalog",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	ctx := context.Background()
	return gw.WithinTx(ctx, func(q store.Querier) error {
		if err := store.SeedSource(ctx, q, &store.Source{
			ID: chatgpt.SourceID, DisplayName: "ChatGPT", HasNativeTrees: true,
			RoleVocabulary: []string{"user", "assistant", "system", "tool"},
		}); err != nil {
			return err
		}
		return store.SeedSource(ctx, q, &store.Source{
			ID: claude.SourceID, DisplayName: "Claude", HasNativeTrees: false,
			RoleVocabulary: []string{"user", "assistant"},
		})
	})
}

// openGateway opens the database named by the loaded config. store.Open
// applies the schema idempotently, which is what makes init safe to rerun
// and lets every other command open a Gateway the same way (§6.3).
func openGateway() (*store.Gateway, error) {
	gw, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.DSN, err)
	}
	return gw, nil
}
