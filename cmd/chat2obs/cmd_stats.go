package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dmarx/chat2obs/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report row counts per table",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	s, err := store.ComputeStats(context.Background(), gw.DB())
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	fmt.Printf("sources:          %d\n", s.Sources)
	fmt.Printf("dialogues:        %d\n", s.Dialogues)
	fmt.Printf("messages:         %d (%d deleted)\n", s.Messages, s.DeletedMessages)
	fmt.Printf("content_parts:    %d\n", s.ContentParts)
	fmt.Printf("prompt_responses: %d\n", s.PromptResponses)

	kinds := make([]string, 0, len(s.Annotations))
	for kind := range s.Annotations {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("annotations[%s]:\n", kind)
		for _, valueKind := range []string{"flag", "string", "numeric", "json"} {
			fmt.Printf("  %-8s %d\n", valueKind, s.Annotations[kind][valueKind])
		}
	}

	for _, c := range s.Cursors {
		fmt.Printf("cursor %s/%s/%s: high_water_mark=%d processed=%d\n",
			c.AnnotatorName, c.AnnotatorVersion, c.EntityKind, c.HighWaterMark, c.EntitiesProcessed)
	}
	return nil
}
