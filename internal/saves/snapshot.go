package saves

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	json "github.com/goccy/go-json"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// Snapshot records the state of a save directory as of the last successful
// sync that touched it. It lives inside the directory itself so original and
// backup each carry their own.
type Snapshot struct {
	TakenAt   time.Time            `json:"taken_at"`
	WrittenBy string               `json:"written_by,omitempty"`
	Files     map[string]time.Time `json:"files"`
}

var deviceID = sync.OnceValue(func() string {
	id, err := machineid.ProtectedID("sidekick")
	if err != nil {
		slog.Debug("machine id unavailable", "error", err)
		return ""
	}
	return id
})

// LoadSnapshot reads the snapshot record stored in dir. A missing or
// unreadable record means "no prior snapshot" and returns nil without error;
// corruption is logged, not fatal.
func LoadSnapshot(dir string) *Snapshot {
	path := filepath.Join(dir, SnapshotFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read snapshot", "path", path, "error", err)
		}
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Error("failed to parse snapshot, treating as absent", "path", path, "error", err)
		return nil
	}
	if snap.Files == nil {
		snap.Files = map[string]time.Time{}
	}
	return &snap
}

// WriteSnapshot atomically replaces dir's snapshot record with the given file
// entries. The record is either fully written or not written at all.
func WriteSnapshot(dir string, entries []FileEntry) error {
	if !utils.DirExists(dir) {
		return nil
	}

	snap := Snapshot{
		TakenAt:   time.Now(),
		WrittenBy: deviceID(),
		Files:     make(map[string]time.Time, len(entries)),
	}
	for _, e := range entries {
		snap.Files[e.RelPath] = e.ModTime
	}

	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := filepath.Join(dir, SnapshotFileName)
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}
