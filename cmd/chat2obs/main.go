// Command chat2obs drives the extract/build/annotate pipeline over chat
// export archives from the shell (§6.3).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmarx/chat2obs/internal/config"
	"github.com/dmarx/chat2obs/internal/logging"
)

var (
	configPath string
	cfg        *config.Config
	log        = logging.New("info", true)
)

var rootCmd = &cobra.Command{
	Use:   "chat2obs",
	Short: "Turn chat export archives into an annotated SQLite store",
	Long: `chat2obs extracts dialogues from ChatGPT/Claude export archives into a
relational store, derives prompt/response pairs, and runs a declarative set
of annotators over the result.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg = config.Default()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log = logging.New(cfg.Logging.Level, cfg.Logging.Pretty)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importChatGPTCmd)
	rootCmd.AddCommand(importClaudeCmd)
	rootCmd.AddCommand(buildPromptResponsesCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
