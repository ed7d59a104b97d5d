package bios

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// Result summarizes one BIOS sync run.
type Result struct {
	Found   int
	Copied  int
	Missing int
}

// Syncer copies BIOS files recognized by MD5 from a search directory into
// the emulator BIOS folder. cache may be nil, every file is hashed then.
type Syncer struct {
	cache *HashCache
}

func NewSyncer(cache *HashCache) *Syncer {
	return &Syncer{cache: cache}
}

func (s *Syncer) hashFile(path string, info fs.FileInfo) (string, error) {
	if s.cache != nil {
		if sum, ok := s.cache.Lookup(path, info.Size(), info.ModTime()); ok {
			return sum, nil
		}
	}

	sum, err := utils.FileHash(path)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Store(path, info.Size(), info.ModTime(), sum); err != nil {
			slog.Debug("hash cache store failed", "path", path, "error", err)
		}
	}
	return sum, nil
}

// Sync walks searchDir, MD5-matches every file against the set and copies
// matches into biosDir. A file already in place with the right hash is left
// alone. Per-file failures are logged and skipped.
func (s *Syncer) Sync(ctx context.Context, setPath, searchDir, biosDir string) (Result, error) {
	var result Result

	entries, err := LoadSet(setPath)
	if err != nil {
		return result, err
	}
	if !utils.DirExists(searchDir) {
		return result, fmt.Errorf("bios search dir %s is not a valid directory", searchDir)
	}

	wanted := make(map[string]Entry, len(entries))
	for _, e := range entries {
		wanted[e.MD5] = e
	}
	satisfied := make(map[string]bool, len(entries))

	slog.Info("scanning for bios files", "dir", searchDir, "known", len(entries))

	err = filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("bios scan error, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}

		sum, herr := s.hashFile(path, info)
		if herr != nil {
			slog.Warn("failed to hash file, skipping", "path", path, "error", herr)
			return nil
		}

		entry, ok := wanted[sum]
		if !ok || satisfied[sum] {
			return nil
		}

		dst := filepath.Join(biosDir, filepath.FromSlash(entry.DestPath()))
		if utils.FileExists(dst) {
			if existing, herr := utils.FileHash(dst); herr == nil && existing == sum {
				satisfied[sum] = true
				result.Found++
				slog.Debug("bios already in place", "name", entry.Name)
				return nil
			}
		}

		if cerr := utils.CopyFile(path, dst); cerr != nil {
			slog.Error("failed to copy bios file", "name", entry.Name, "error", cerr)
			return nil
		}
		satisfied[sum] = true
		result.Found++
		result.Copied++
		slog.Info("bios installed", "name", entry.Name, "from", path, "size", humanize.Bytes(uint64(info.Size())))
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("scan %s: %w", searchDir, err)
	}

	for _, e := range entries {
		if satisfied[e.MD5] {
			continue
		}
		result.Missing++
		if e.Optional {
			slog.Debug("optional bios not found", "name", e.Name)
		} else {
			slog.Warn("bios not found", "name", e.Name, "md5", e.MD5)
		}
	}

	slog.Info("bios sync finished", "found", result.Found, "copied", result.Copied, "missing", result.Missing)
	return result, nil
}
