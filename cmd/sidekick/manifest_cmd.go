package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gamersidekick/sidekick/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Generate launch manifests and the Steam import aggregate",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		if cfg.GamesDir == "" {
			slog.Warn("games dir not configured, skipping manifests")
			return nil
		}
		return manifest.Generate(cfg.GamesDir)
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
