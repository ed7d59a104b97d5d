package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gamersidekick/sidekick/internal/config"
	"github.com/gamersidekick/sidekick/internal/symlinks"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Create configured directory symlinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		if cfg.LinksPath == "" {
			slog.Warn("links file not configured, skipping symlinks")
			return nil
		}
		return runLinks(cfg)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
}

func runLinks(cfg *config.Config) error {
	return symlinks.Apply(cfg.LinksPath)
}
