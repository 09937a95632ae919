package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/park285/adaptive-chess/internal/config"
	"github.com/park285/adaptive-chess/internal/obslog"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "adaptive-chess",
		Short:         "Chess against an engine that adapts to your play",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts := obslog.OptionsFromEnv()
			// interactive commands keep the terminal quiet unless asked
			if cmd.Name() != "serve" && strings.TrimSpace(os.Getenv("LOG_LEVEL")) == "" {
				opts.Level = "warn"
			}
			return obslog.Init(opts)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file (yaml or toml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newEstimateCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newGamesCmd())

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// resolveServer returns the --server flag, or the configured API URL when
// useDefault is set.
func resolveServer(cmd *cobra.Command, cfg *config.AppConfig, useDefault bool) string {
	if s, _ := cmd.Flags().GetString("server"); strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if useDefault && cfg != nil {
		return cfg.APIURL
	}
	return ""
}
