package patcher

import (
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// DefaultLibraryPatterns covers the internal Steam library plus any SD card
// mounted on a Steam Deck.
var DefaultLibraryPatterns = []string{
	"~/.steam/steam/steamapps/common",
	"/run/media/deck/*/steamapps/common",
}

// LibraryDirs expands the configured patterns into existing game library
// directories. Patterns may contain glob metacharacters.
func LibraryDirs(patterns []string) []string {
	var dirs []string
	for _, pattern := range patterns {
		resolved, err := utils.ResolvePath(pattern)
		if err != nil {
			slog.Debug("skipping library pattern", "pattern", pattern, "error", err)
			continue
		}

		if !strings.ContainsAny(resolved, "*?[{") {
			if utils.DirExists(resolved) {
				dirs = append(dirs, resolved)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(resolved)
		if err != nil {
			slog.Debug("bad library pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, m := range matches {
			if utils.DirExists(m) {
				dirs = append(dirs, m)
			}
		}
	}
	return dirs
}
