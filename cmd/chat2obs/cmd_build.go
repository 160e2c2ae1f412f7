package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmarx/chat2obs/internal/promptresponse"
)

var buildDialogueID string

var buildPromptResponsesCmd = &cobra.Command{
	Use:   "build-prompt-responses",
	Short: "Rebuild prompt/response pairs for one dialogue or all of them",
	RunE:  runBuildPromptResponses,
}

func init() {
	buildPromptResponsesCmd.Flags().StringVar(&buildDialogueID, "dialogue", "", "rebuild only this dialogue id; default rebuilds every dialogue")
}

func runBuildPromptResponses(cmd *cobra.Command, args []string) error {
	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	b := promptresponse.New(gw)
	ctx := context.Background()
	if buildDialogueID != "" {
		if err := b.Build(ctx, buildDialogueID); err != nil {
			return fmt.Errorf("build prompt responses for %s: %w", buildDialogueID, err)
		}
		return nil
	}
	if err := b.BuildAll(ctx); err != nil {
		return fmt.Errorf("build prompt responses: %w", err)
	}
	return nil
}
