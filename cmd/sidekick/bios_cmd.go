package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gamersidekick/sidekick/internal/bios"
)

var biosCmd = &cobra.Command{
	Use:   "bios",
	Short: "Collect emulator BIOS files by checksum",
	Long:  "Scans the search directory for files matching the BIOS set by MD5 and copies them into the BIOS folder.",
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.BindPFlag("bios_set", cmd.Flags().Lookup("set"))
		viper.BindPFlag("bios_search_dir", cmd.Flags().Lookup("search"))

		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		if cfg.BiosSetPath == "" || cfg.BiosDir == "" || cfg.BiosSearchDir == "" {
			slog.Warn("bios set, dir and search dir must all be configured, skipping")
			return nil
		}

		cache, err := bios.OpenHashCache(filepath.Join(cfg.CacheDir, "hashcache.db"))
		if err != nil {
			// the cache only saves rehashing, the sync works without it
			slog.Warn("hash cache unavailable", "error", err)
		} else {
			defer cache.Close()
		}

		result, err := bios.NewSyncer(cache).Sync(cmd.Context(), cfg.BiosSetPath, cfg.BiosSearchDir, cfg.BiosDir)
		if err != nil {
			return err
		}
		slog.Info("bios sync done",
			"found", result.Found,
			"copied", result.Copied,
			"missing", result.Missing)
		return nil
	},
}

func init() {
	biosCmd.Flags().String("set", "", "bios set file (JSON list of names and MD5s)")
	biosCmd.Flags().String("search", "", "directory to scan for bios files")
	rootCmd.AddCommand(biosCmd)
}
