package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gamersidekick/sidekick/internal/config"
	"github.com/gamersidekick/sidekick/internal/patcher"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Apply binary patches to installed games",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		if cfg.PatchesDir == "" {
			slog.Warn("patches dir not configured, skipping patcher")
			return nil
		}
		return runPatcher(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(patchCmd)
}

func runPatcher(ctx context.Context, cfg *config.Config) error {
	libraries := patcher.LibraryDirs(patcher.DefaultLibraryPatterns)
	if cfg.GamesDir != "" {
		libraries = append(libraries, cfg.GamesDir)
	}
	if len(libraries) == 0 {
		slog.Warn("no game libraries found, skipping patcher")
		return nil
	}

	flips := cfg.FlipsPath
	if flips == "" {
		// a bare name is resolved on PATH by exec
		flips = "flips"
	}
	return patcher.New(libraries, flips).Run(ctx, cfg.PatchesDir)
}
