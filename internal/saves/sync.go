package saves

import (
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// Direction is the resolved mirroring direction of one sync run.
type Direction string

const (
	DirectionNone             Direction = "none"
	DirectionOriginalToBackup Direction = "original->backup"
	DirectionBackupToOriginal Direction = "backup->original"
)

// SyncResult reports what a Sync call decided and did.
type SyncResult struct {
	Direction Direction
	Conflict  bool
	Files     int
	Bytes     int64
}

// changedPaths returns the set of relative paths that differ from the
// snapshot: modified or new files, plus files the snapshot recorded that are
// now gone. A nil snapshot means the side was never synced, so every current
// file counts as changed.
func changedPaths(entries []FileEntry, snap *Snapshot) mapset.Set[string] {
	changed := mapset.NewSet[string]()

	if snap == nil {
		for _, e := range entries {
			changed.Add(e.RelPath)
		}
		return changed
	}

	current := mapset.NewSet[string]()
	for _, e := range entries {
		current.Add(e.RelPath)
		recorded, ok := snap.Files[e.RelPath]
		if !ok || !recorded.Equal(e.ModTime) {
			changed.Add(e.RelPath)
		}
	}
	for rel := range snap.Files {
		if !current.Contains(rel) {
			changed.Add(rel)
		}
	}
	return changed
}

// Sync reconciles a game's live save directory with its backup folder.
// Neither directory needs to exist; a missing one is treated as empty.
//
// While either side lacks a snapshot record (first sync, or a side that was
// wiped or replaced) the side with the newest file wins and is mirrored
// wholesale to the other, ties going to the original. Once both sides carry
// snapshots they detect which of them changed: a one-sided change mirrors
// that side over, no change is a no-op, and a two-sided change is a conflict
// resolved in favor of the original directory with a logged warning.
func Sync(originalDir, backupDir string) (SyncResult, error) {
	result := SyncResult{Direction: DirectionNone}

	origEntries, err := Scan(originalDir)
	if err != nil {
		return result, err
	}
	backupEntries, err := Scan(backupDir)
	if err != nil {
		return result, err
	}

	if len(origEntries) == 0 && len(backupEntries) == 0 {
		return result, nil
	}

	origSnap := LoadSnapshot(originalDir)
	backupSnap := LoadSnapshot(backupDir)

	if origSnap == nil || backupSnap == nil {
		// A side without a record cannot prove what changed since the last
		// sync, so fall back to the first-sync rule: the newest file decides
		// authority, ties go to original.
		if maxModTime(backupEntries).After(maxModTime(origEntries)) {
			result.Direction = DirectionBackupToOriginal
		} else {
			result.Direction = DirectionOriginalToBackup
		}
	} else {
		origChanged := changedPaths(origEntries, origSnap)
		backupChanged := changedPaths(backupEntries, backupSnap)

		switch {
		case origChanged.Cardinality() == 0 && backupChanged.Cardinality() == 0:
			return result, nil
		case backupChanged.Cardinality() == 0:
			result.Direction = DirectionOriginalToBackup
		case origChanged.Cardinality() == 0:
			result.Direction = DirectionBackupToOriginal
		default:
			result.Direction = DirectionOriginalToBackup
			result.Conflict = true
			slog.Warn("changes on both sides since last sync, preferring original",
				"original", originalDir,
				"backup", backupDir,
				"original_changes", origChanged.Cardinality(),
				"backup_changes", backupChanged.Cardinality(),
				"overlapping", origChanged.Intersect(backupChanged).Cardinality(),
			)
		}
	}

	srcDir, dstDir := originalDir, backupDir
	srcEntries := origEntries
	if result.Direction == DirectionBackupToOriginal {
		srcDir, dstDir = backupDir, originalDir
		srcEntries = backupEntries
	}

	if err := utils.EnsureDir(dstDir); err != nil {
		return result, fmt.Errorf("create %s: %w", dstDir, err)
	}

	stats, err := mirror(srcDir, dstDir, srcEntries)
	if err != nil {
		// Partial mirror: leave copied files as-is and keep snapshots stale
		// so the next run re-attempts.
		return result, fmt.Errorf("mirror %s: %w", result.Direction, err)
	}
	result.Files = stats.Files
	result.Bytes = stats.Bytes

	// Both sides now share the mirrored state; record it on both so the next
	// run can tell fresh changes apart.
	postOrig, err := Scan(originalDir)
	if err != nil {
		return result, err
	}
	postBackup, err := Scan(backupDir)
	if err != nil {
		return result, err
	}
	if err := WriteSnapshot(originalDir, postOrig); err != nil {
		return result, err
	}
	if err := WriteSnapshot(backupDir, postBackup); err != nil {
		return result, err
	}

	slog.Debug("sync mirrored",
		"direction", string(result.Direction),
		"files", result.Files,
		"size", humanize.Bytes(uint64(result.Bytes)),
	)
	return result, nil
}
