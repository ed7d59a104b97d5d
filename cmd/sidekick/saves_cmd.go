package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gamersidekick/sidekick/internal/config"
	"github.com/gamersidekick/sidekick/internal/manifest"
	"github.com/gamersidekick/sidekick/internal/saves"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Back up, restore or sync game saves",
	Long:  "Reconciles every game's save directory against the backup store using the configured strategy (backup, restore or sync).",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runSaves(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(savesCmd)
}

func runSaves(ctx context.Context, cfg *config.Config) error {
	if cfg.GamesDir == "" {
		slog.Warn("games dir not configured, skipping saves")
		return nil
	}
	if cfg.SavesDir == "" {
		slog.Warn("saves dir not configured, skipping saves")
		return nil
	}

	strategy, ok := saves.ParseStrategy(cfg.SavesStrategy)
	if !ok && cfg.SavesStrategy != "" {
		slog.Warn("unknown saves strategy, falling back to backup", "strategy", cfg.SavesStrategy)
	}

	resolver, err := saves.NewResolver(cfg.SavesDir, strategy)
	if err != nil {
		return err
	}

	games, err := gamesWithSaves(cfg.GamesDir)
	if err != nil {
		return err
	}
	return resolver.Run(ctx, games)
}

// gamesWithSaves collects every manifest that declares a save path.
func gamesWithSaves(gamesDir string) ([]saves.Game, error) {
	located, err := manifest.LoadAll(gamesDir)
	if err != nil {
		return nil, err
	}

	var games []saves.Game
	for _, l := range located {
		if l.Manifest.SavePath == "" {
			slog.Debug("no save path declared", "title", l.Manifest.Title)
			continue
		}
		games = append(games, saves.Game{
			Title:   l.Manifest.Title,
			SaveDir: manifest.ResolveSavePath(l.Manifest.SavePath, l.Path),
		})
	}
	return games, nil
}
