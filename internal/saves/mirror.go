package saves

import (
	"fmt"
	"path/filepath"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// mirrorStats summarizes what a one-way mirror actually copied.
type mirrorStats struct {
	Files int
	Bytes int64
}

// mirror copies every entry from srcDir into dstDir by relative path,
// overwriting same-path files. Files that only exist in dstDir are left
// untouched; mirroring never propagates deletions.
//
// On a copy failure the mirror stops immediately: already-copied files stay
// in place and the caller must not update snapshots, so the next run retries.
func mirror(srcDir, dstDir string, entries []FileEntry) (mirrorStats, error) {
	var stats mirrorStats
	for _, e := range entries {
		src := filepath.Join(srcDir, filepath.FromSlash(e.RelPath))
		dst := filepath.Join(dstDir, filepath.FromSlash(e.RelPath))
		if err := utils.CopyFile(src, dst); err != nil {
			return stats, fmt.Errorf("copy %s: %w", e.RelPath, err)
		}
		stats.Files++
		stats.Bytes += e.Size
	}
	return stats, nil
}
