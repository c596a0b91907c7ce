package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/omer-faruq/assistant-core/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply environment overrides, and report
whether the result is usable. Nothing is sent to any provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(cfg.Providers))
		for name := range cfg.Providers {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("configuration %s is valid\n", cfgFile)
		fmt.Printf("transport mode: %s\n", cfg.Transport.Mode)
		for _, name := range names {
			p := cfg.Providers[name]
			marker := ""
			if name == cfg.DefaultProvider {
				marker = " (default)"
			}
			fmt.Printf("provider %s%s: type=%s model=%s\n", name, marker, p.Type, p.Model)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
