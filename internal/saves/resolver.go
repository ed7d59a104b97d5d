package saves

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"github.com/gamersidekick/sidekick/internal/utils"
)

const lockFileName = "sidekick.lock"

var ErrSaveStoreLocked = errors.New("save store locked by another process")

// Game is the per-title input the resolver consumes: a display title and the
// live save directory its manifest declared. SaveDir may be empty (no saves)
// or missing on disk.
type Game struct {
	Title   string
	SaveDir string
}

// Resolver reconciles game save directories against a backup root, one game
// at a time. A file lock under the root keeps concurrent sidekick runs from
// stepping on the same store.
type Resolver struct {
	root     string
	strategy Strategy
	lock     *flock.Flock
}

func NewResolver(root string, strategy Strategy) (*Resolver, error) {
	if root == "" {
		return nil, errors.New("saves root not configured")
	}
	resolved, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolve saves root %q: %w", root, err)
	}
	if err := utils.EnsureDir(resolved); err != nil {
		return nil, fmt.Errorf("create saves root %s: %w", resolved, err)
	}

	return &Resolver{
		root:     resolved,
		strategy: strategy,
		lock:     flock.New(filepath.Join(resolved, lockFileName)),
	}, nil
}

// BackupDir returns the per-game backup folder under the saves root.
func (r *Resolver) BackupDir(title string) string {
	return filepath.Join(r.root, utils.SanitizeTitle(title))
}

// Run processes every game with the configured strategy. A game's failure is
// logged and skipped; it never aborts the rest of the run.
func (r *Resolver) Run(ctx context.Context, games []Game) error {
	locked, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock save store: %w", err)
	}
	if !locked {
		return ErrSaveStoreLocked
	}
	defer r.lock.Unlock()

	slog.Info("running saver", "strategy", string(r.strategy), "root", r.root, "games", len(games))

	for _, game := range games {
		if err := ctx.Err(); err != nil {
			return err
		}
		if game.SaveDir == "" {
			slog.Info("no save path defined, skipping", "game", game.Title)
			continue
		}
		if err := r.runOne(game); err != nil {
			slog.Error("save handling failed", "game", game.Title, "error", err)
		}
	}
	return nil
}

func (r *Resolver) runOne(game Game) error {
	backupDir := r.BackupDir(game.Title)

	switch r.strategy {
	case StrategySync:
		result, err := Sync(game.SaveDir, backupDir)
		if err != nil {
			return err
		}
		if result.Direction == DirectionNone {
			slog.Info("no changes detected, skipping", "game", game.Title)
		} else {
			slog.Info("saves synchronized",
				"game", game.Title,
				"direction", string(result.Direction),
				"files", result.Files,
				"size", humanize.Bytes(uint64(result.Bytes)),
			)
		}
		return nil

	case StrategyRestore:
		return r.restore(game, backupDir)

	default:
		return r.backup(game, backupDir)
	}
}

func (r *Resolver) backup(game Game, backupDir string) error {
	entries, err := Scan(game.SaveDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		slog.Info("save directory missing or empty, skipping backup", "game", game.Title, "dir", game.SaveDir)
		return nil
	}

	if err := utils.EnsureDir(backupDir); err != nil {
		return fmt.Errorf("create %s: %w", backupDir, err)
	}
	stats, err := mirror(game.SaveDir, backupDir, entries)
	if err != nil {
		return err
	}
	slog.Info("backup updated", "game", game.Title, "files", stats.Files, "size", humanize.Bytes(uint64(stats.Bytes)))
	return nil
}

func (r *Resolver) restore(game Game, backupDir string) error {
	entries, err := Scan(backupDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		slog.Info("backup missing or empty, skipping restore", "game", game.Title, "dir", backupDir)
		return nil
	}

	slog.Warn("restoring saves from backup, existing files will be overwritten", "game", game.Title)
	if err := utils.EnsureDir(game.SaveDir); err != nil {
		return fmt.Errorf("create %s: %w", game.SaveDir, err)
	}
	stats, err := mirror(backupDir, game.SaveDir, entries)
	if err != nil {
		return err
	}
	slog.Info("restore completed", "game", game.Title, "files", stats.Files, "size", humanize.Bytes(uint64(stats.Bytes)))
	return nil
}
