package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "assistant - provider-agnostic LLM request dispatch",
	Long: `assistant sends a conversational message list to any configured LLM
provider and prints the normalized answer, hiding provider-specific
request shapes, transport quirks, and failure modes.

Supported provider types: openai (and OpenAI-compatible endpoints),
anthropic, gemini, and qianfan-style token-authenticated providers.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "assistant.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}
