// Package symlinks points emulator/app directories at their real storage
// locations, driven by a symlinks.json file.
package symlinks

import (
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// Link maps a target path onto an existing source directory.
type Link struct {
	Src string `json:"src"`
	Tgt string `json:"tgt"`
}

type linkFile struct {
	Symlinks []Link `json:"symlinks"`
}

// LoadLinks parses a symlinks.json file.
func LoadLinks(path string) ([]Link, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f linkFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Symlinks, nil
}

// Apply creates every configured link. Individual failures are logged and
// skipped.
func Apply(path string) error {
	links, err := LoadLinks(path)
	if err != nil {
		return err
	}

	for _, link := range links {
		if err := Create(link.Src, link.Tgt); err != nil {
			slog.Error("symlink failed", "src", link.Src, "tgt", link.Tgt, "error", err)
		}
	}
	return nil
}

// Create makes tgt a symlink to the directory src. An already-correct link
// is a no-op; a link elsewhere or a non-empty directory at tgt is an error.
// An existing empty directory at tgt is replaced.
func Create(src, tgt string) error {
	src, err := utils.ResolvePath(src)
	if err != nil {
		return err
	}
	tgt, err = utils.ResolvePath(tgt)
	if err != nil {
		return err
	}

	if !utils.DirExists(src) {
		return fmt.Errorf("source directory %s does not exist", src)
	}

	if info, err := os.Lstat(tgt); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			current, rerr := os.Readlink(tgt)
			if rerr == nil {
				if resolved, rerr2 := utils.ResolvePath(current); rerr2 == nil && resolved == src {
					slog.Info("already linked", "tgt", tgt, "src", src)
					return nil
				}
			}
			return fmt.Errorf("%s is already a symlink to a different location", tgt)
		}

		if info.IsDir() {
			entries, rerr := os.ReadDir(tgt)
			if rerr != nil {
				return rerr
			}
			if len(entries) > 0 {
				return fmt.Errorf("target directory %s is not empty", tgt)
			}
			if rerr := os.Remove(tgt); rerr != nil {
				return rerr
			}
		} else {
			return fmt.Errorf("target %s exists and is not a directory", tgt)
		}
	}

	if err := os.Symlink(src, tgt); err != nil {
		return err
	}
	slog.Info("symlink created", "tgt", tgt, "src", src)
	return nil
}
