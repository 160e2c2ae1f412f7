package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmarx/chat2obs/internal/annotator"
	"github.com/dmarx/chat2obs/internal/annotator/builtins"
	"github.com/dmarx/chat2obs/internal/logging"
)

var (
	annotateName  string
	annotateClear bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Run one or all registered annotators",
	RunE:  runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVar(&annotateName, "name", "", "run only the named annotator; default runs every registered annotator")
	annotateCmd.Flags().BoolVar(&annotateClear, "clear", false, "delete the selected annotator(s) cursor rows first, forcing a full re-scan")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	gw, err := openGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	rt := annotator.New(gw, logging.WithComponent(log, "annotate"))
	for _, a := range builtins.All() {
		rt.Register(a)
	}

	result, err := rt.RunAll(context.Background(), annotateName, annotateClear)
	if err != nil {
		return fmt.Errorf("annotate run: %w", err)
	}

	failed := 0
	for _, ar := range result.Annotators {
		status := "ok"
		if ar.Err != nil {
			status = ar.Err.Error()
			failed++
		}
		fmt.Printf("%-20s processed=%-6d written=%-6d %s\n", ar.Name, ar.Processed, ar.Written, status)
	}
	if failed > 0 {
		return fmt.Errorf("%d annotator(s) failed", failed)
	}
	return nil
}
