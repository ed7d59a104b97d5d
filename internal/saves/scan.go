package saves

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/gamersidekick/sidekick/internal/utils"
)

const (
	// SnapshotFileName is the hidden per-directory sync metadata file.
	SnapshotFileName = ".sidekick.snapshot.json"

	// IgnoreFileName lets users exclude paths from save syncing, gitignore
	// syntax.
	IgnoreFileName = ".sidekickignore"
)

// Interrupted copies leave temp files behind; they must never be treated as
// save data.
var defaultIgnoreLines = []string{
	SnapshotFileName,
	IgnoreFileName,
	"*.tmp-*",
	".*.tmp-*",
	".DS_Store",
	"Thumbs.db",
}

// FileEntry describes one file under a save directory. RelPath always uses
// forward slashes so snapshot records stay portable across filesystems.
type FileEntry struct {
	RelPath string
	ModTime time.Time
	Size    int64
}

func newIgnoreList(dir string) (*gitignore.GitIgnore, error) {
	ignoreFile := filepath.Join(dir, IgnoreFileName)
	if utils.FileExists(ignoreFile) {
		return gitignore.CompileIgnoreFileAndLines(ignoreFile, defaultIgnoreLines...)
	}
	return gitignore.CompileIgnoreLines(defaultIgnoreLines...), nil
}

// Scan enumerates every file under dir recursively, excluding snapshot and
// ignore-listed files. A missing directory yields an empty set; an unreadable
// one is an error.
func Scan(dir string) ([]FileEntry, error) {
	if !utils.DirExists(dir) {
		return nil, nil
	}

	ignore, err := newIgnoreList(dir)
	if err != nil {
		return nil, fmt.Errorf("compile ignore list for %s: %w", dir, err)
	}

	var entries []FileEntry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ignore.MatchesPath(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil // raced with an external delete, skip
			}
			return err
		}

		entries = append(entries, FileEntry{
			RelPath: rel,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return entries, nil
}

func maxModTime(entries []FileEntry) time.Time {
	var max time.Time
	for _, e := range entries {
		if e.ModTime.After(max) {
			max = e.ModTime
		}
	}
	return max
}
