package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gamersidekick/sidekick/internal/config"
	"github.com/gamersidekick/sidekick/internal/configurer"
	"github.com/gamersidekick/sidekick/internal/logging"
	"github.com/gamersidekick/sidekick/internal/manifest"
	"github.com/gamersidekick/sidekick/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "sidekick",
	Short:   "Toolkit for Linux handheld gaming setups",
	Long:    "sidekick keeps a Linux handheld gaming setup in shape: Steam import manifests, game patches, emulator configs, BIOS files and save backups.",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		showHeader()

		// same order the toolkit has always run in: manifests first so the
		// other steps can rely on them
		if cfg.GamesDir == "" {
			slog.Warn("games dir not configured, skipping manifests")
		} else if err := manifest.Generate(cfg.GamesDir); err != nil {
			slog.Error("manifest generation failed", "error", err)
		}

		if cfg.PatchesDir == "" {
			slog.Warn("patches dir not configured, skipping patcher")
		} else if err := runPatcher(cmd.Context(), cfg); err != nil {
			slog.Error("patcher failed", "error", err)
		}

		if cfg.LinksPath != "" {
			if err := runLinks(cfg); err != nil {
				slog.Error("symlinks failed", "error", err)
			}
		}

		if err := runConfigurer(cfg); err != nil {
			slog.Error("configurer failed", "error", err)
		}

		if err := runSaves(cmd.Context(), cfg); err != nil {
			slog.Error("save handling failed", "error", err)
		}

		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "sidekick config file (KEY=value)")
	rootCmd.PersistentFlags().StringP("games", "g", "", "games directory")
	rootCmd.PersistentFlags().StringP("patches", "p", "", "patches directory")
	rootCmd.PersistentFlags().StringP("saves", "s", "", "save backups directory")
	rootCmd.PersistentFlags().StringP("bios", "b", "", "emulator bios directory")
	rootCmd.PersistentFlags().String("strategy", "", "saves strategy (backup, restore, sync)")
	rootCmd.PersistentFlags().String("log-file", config.DefaultLogFile, "log file path")
}

func main() {
	closeLogs, err := logging.Setup(slog.LevelDebug, logFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// logFilePath is needed before cobra parses flags, so it peeks at the raw
// arguments and falls back to the default.
func logFilePath() string {
	for i, arg := range os.Args {
		if arg == "--log-file" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}
	if v := os.Getenv("SIDEKICK_LOG_FILE"); v != "" {
		return v
	}
	return config.DefaultLogFile
}

// configVars keeps the raw entries of the config file around for ${VAR}
// expansion in configurer rules.
var configVars = map[string]string{}

func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")

	vars, err := config.LoadVars(configPath)
	if err != nil {
		return err
	}
	configVars = vars

	// flags > env (SIDEKICK_* or the legacy names) > config file entries
	viper.BindPFlag("games_dir", cmd.Flags().Lookup("games"))
	viper.BindPFlag("patches_dir", cmd.Flags().Lookup("patches"))
	viper.BindPFlag("saves_dir", cmd.Flags().Lookup("saves"))
	viper.BindPFlag("bios_dir", cmd.Flags().Lookup("bios"))
	viper.BindPFlag("saves_strategy", cmd.Flags().Lookup("strategy"))
	viper.BindPFlag("log_file", cmd.Flags().Lookup("log-file"))

	viper.SetEnvPrefix("SIDEKICK")
	viper.AutomaticEnv()

	viper.BindEnv("games_dir", "SIDEKICK_GAMES_DIR", "FREEGAMES_PATH")
	viper.BindEnv("patches_dir", "SIDEKICK_PATCHES_DIR", "PATCHES_PATH")
	viper.BindEnv("saves_dir", "SIDEKICK_SAVES_DIR", "SAVESCOPY_PATH")
	viper.BindEnv("saves_strategy", "SIDEKICK_SAVES_STRATEGY", "SAVESCOPY_STRATEGY")
	viper.BindEnv("bios_dir", "SIDEKICK_BIOS_DIR", "BIOS_PATH")
	viper.BindEnv("bios_set", "SIDEKICK_BIOS_SET", "BIOS_SET_PATH")
	viper.BindEnv("bios_search_dir", "SIDEKICK_BIOS_SEARCH_DIR", "BIOS_SEARCH_PATH")
	viper.BindEnv("links_file", "SIDEKICK_LINKS_FILE", "SYMLINKS_PATH")
	viper.BindEnv("configurer_rules", "SIDEKICK_CONFIGURER_RULES", "CONFIGURER_PATH")
	viper.BindEnv("flips_path", "SIDEKICK_FLIPS_PATH", "FLIPS_PATH")
	viper.BindEnv("cache_dir", "SIDEKICK_CACHE_DIR")
	viper.BindEnv("log_file", "SIDEKICK_LOG_FILE")

	return nil
}

func buildConfig() (*config.Config, error) {
	cfg := &config.Config{
		GamesDir:      viper.GetString("games_dir"),
		PatchesDir:    viper.GetString("patches_dir"),
		BiosDir:       viper.GetString("bios_dir"),
		BiosSetPath:   viper.GetString("bios_set"),
		BiosSearchDir: viper.GetString("bios_search_dir"),
		SavesDir:      viper.GetString("saves_dir"),
		SavesStrategy: viper.GetString("saves_strategy"),
		LinksPath:     viper.GetString("links_file"),
		RulesPath:     viper.GetString("configurer_rules"),
		FlipsPath:     viper.GetString("flips_path"),
		CacheDir:      viper.GetString("cache_dir"),
		LogFile:       viper.GetString("log_file"),
		Vars:          configVars,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConfigurer(cfg *config.Config) error {
	if cfg.RulesPath == "" {
		slog.Warn("configurer rules not configured, skipping")
		return nil
	}
	return configurer.Run(cfg.RulesPath, cfg.Vars)
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).Println(version.DetailedWithApp())
}
