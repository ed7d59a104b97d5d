package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/gamersidekick/sidekick/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".config", "sidekick", "config.txt")
	DefaultDataDir    = filepath.Join(home, ".local", "share", "sidekick")
	DefaultLogFile    = filepath.Join(DefaultDataDir, "logs", "sidekick.log")
	DefaultCacheDir   = filepath.Join(DefaultDataDir, "cache")
)

// Config is the fully resolved toolkit configuration. It is built once at
// startup and passed explicitly into every module; nothing reads ambient
// globals.
type Config struct {
	// GamesDir is the root folder of non-Steam game installs (one subfolder
	// per game, each holding a launch_manifest.json).
	GamesDir string `json:"games_dir"`

	// PatchesDir holds patch sets, one patch.json per subfolder.
	PatchesDir string `json:"patches_dir"`

	// BiosDir is the destination emulator BIOS folder.
	BiosDir string `json:"bios_dir"`

	// BiosSetPath points at the JSON list of known BIOS files and MD5s.
	BiosSetPath string `json:"bios_set"`

	// BiosSearchDir is scanned recursively for files matching the BIOS set.
	BiosSearchDir string `json:"bios_search_dir"`

	// SavesDir is the backup root; each game gets one subfolder.
	SavesDir string `json:"saves_dir"`

	// SavesStrategy is one of backup, sync, restore.
	SavesStrategy string `json:"saves_strategy"`

	// LinksPath points at the symlinks.json file.
	LinksPath string `json:"links_file"`

	// RulesPath points at the configurer.json rule set.
	RulesPath string `json:"configurer_rules"`

	// FlipsPath locates the external flips binary used for patch-method
	// patches. A bare name is looked up on PATH.
	FlipsPath string `json:"flips_path"`

	CacheDir string `json:"cache_dir"`
	LogFile  string `json:"log_file"`
	Path     string `json:"-"`

	// Vars holds the raw key=value entries of the config file, used for
	// ${VAR} expansion in configurer rules.
	Vars map[string]string `json:"-"`
}

// LoadVars reads the legacy KEY=value config file (if present) and exports
// its entries into the process environment so that viper's AutomaticEnv and
// ${VAR} path expansion both see them. Absence is not an error.
func LoadVars(path string) (map[string]string, error) {
	if path == "" || !utils.FileExists(path) {
		return map[string]string{}, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("config read '%s': %w", path, err)
	}

	// export without clobbering explicit environment overrides
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("config load '%s': %w", path, err)
	}

	return vars, nil
}

// Validate resolves every configured path to an absolute one. Empty paths
// stay empty: a module whose path is unset skips itself with a warning
// instead of failing the run.
func (c *Config) Validate() error {
	for name, p := range map[string]*string{
		"games dir":       &c.GamesDir,
		"patches dir":     &c.PatchesDir,
		"bios dir":        &c.BiosDir,
		"bios set":        &c.BiosSetPath,
		"bios search dir": &c.BiosSearchDir,
		"saves dir":       &c.SavesDir,
		"links file":      &c.LinksPath,
		"rules file":      &c.RulesPath,
		"cache dir":       &c.CacheDir,
		"log file":        &c.LogFile,
	} {
		if *p == "" {
			continue
		}
		resolved, err := utils.ResolvePath(*p)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, *p, err)
		}
		*p = resolved
	}

	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	return nil
}
