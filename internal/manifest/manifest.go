// Package manifest discovers games, detects their launch executables and
// maintains the per-game launch_manifest.json files plus the aggregated
// manifests.json used for Steam imports.
package manifest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/gamersidekick/sidekick/internal/utils"
)

const (
	// ManifestFileName is the per-game manifest stored in the game folder.
	ManifestFileName = "launch_manifest.json"

	// AggregateFileName is the combined manifest written at the games root.
	AggregateFileName = "manifests.json"
)

// Manifest describes how to launch one game and where it keeps saves. Field
// names match the on-disk JSON keys consumed by the Steam import tooling.
type Manifest struct {
	Title         string `json:"title"`
	Target        string `json:"target"`
	StartIn       string `json:"startIn"`
	LaunchOptions string `json:"launchOptions"`
	SavePath      string `json:"savePath,omitempty"`
}

// Located pairs a parsed manifest with the file it was read from.
type Located struct {
	Path     string
	Manifest Manifest
}

// Load reads and parses a single manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Write stores a manifest as indented JSON.
func Write(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0o644)
}

// Scan returns the path of every launch_manifest.json under gamesDir.
func Scan(gamesDir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(gamesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == ManifestFileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", gamesDir, err)
	}
	return paths, nil
}

// LoadAll parses every manifest under gamesDir. Unreadable manifests are
// logged and skipped so one broken game never blocks the rest.
func LoadAll(gamesDir string) ([]Located, error) {
	paths, err := Scan(gamesDir)
	if err != nil {
		return nil, err
	}

	located := make([]Located, 0, len(paths))
	for _, path := range paths {
		m, err := Load(path)
		if err != nil {
			slog.Warn("skipping unreadable manifest", "path", path, "error", err)
			continue
		}
		if m.Title == "" {
			m.Title = filepath.Base(filepath.Dir(path))
		}
		located = append(located, Located{Path: path, Manifest: *m})
	}
	return located, nil
}

// Generate creates a launch_manifest.json for every top-level game folder
// that doesn't have one yet, then rewrites the aggregated manifests.json.
func Generate(gamesDir string) error {
	if !utils.DirExists(gamesDir) {
		return fmt.Errorf("%s is not a valid directory", gamesDir)
	}

	slog.Info("looking for games", "dir", gamesDir)
	items, err := os.ReadDir(gamesDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", gamesDir, err)
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		createManifest(filepath.Join(gamesDir, item.Name()))
	}

	return Aggregate(gamesDir)
}

func createManifest(gameDir string) {
	manifestPath := filepath.Join(gameDir, ManifestFileName)
	if utils.FileExists(manifestPath) {
		return
	}

	target, err := DetectExecutable(gameDir)
	if err != nil {
		slog.Error("executable detection failed", "game", filepath.Base(gameDir), "error", err)
		return
	}
	if target == "" {
		slog.Info("no executable found", "game", filepath.Base(gameDir))
		return
	}
	slog.Info("executable detected", "game", filepath.Base(gameDir), "target", target)

	relTarget, err := filepath.Rel(gameDir, target)
	if err != nil {
		relTarget = target
	}
	relStartIn, err := filepath.Rel(gameDir, filepath.Dir(target))
	if err != nil {
		relStartIn = filepath.Dir(target)
	}

	m := &Manifest{
		Title:   titleOf(gameDir),
		Target:  relTarget,
		StartIn: relStartIn,
	}
	if err := Write(manifestPath, m); err != nil {
		slog.Error("failed to create manifest", "game", filepath.Base(gameDir), "error", err)
		return
	}
	slog.Info("manifest created", "game", filepath.Base(gameDir))
}

// Aggregate combines every per-game manifest into manifests.json with
// target/startIn absolutized against their game folder.
func Aggregate(gamesDir string) error {
	located, err := LoadAll(gamesDir)
	if err != nil {
		return err
	}

	combined := make([]Manifest, 0, len(located))
	for _, l := range located {
		m := l.Manifest
		dir := filepath.Dir(l.Path)
		if m.Target != "" && !filepath.IsAbs(m.Target) {
			m.Target = filepath.Clean(filepath.Join(dir, m.Target))
		}
		if m.StartIn != "" && !filepath.IsAbs(m.StartIn) {
			m.StartIn = filepath.Clean(filepath.Join(dir, m.StartIn))
		}
		combined = append(combined, m)
		slog.Info("aggregated", "game", m.Title)
	}

	data, err := json.MarshalIndent(combined, "", "    ")
	if err != nil {
		return err
	}

	outPath := filepath.Join(gamesDir, AggregateFileName)
	if err := utils.WriteFileAtomic(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	slog.Info("manifests file created", "path", outPath)
	return nil
}

// ResolveSavePath turns a manifest's savePath into an absolute directory.
// Relative paths are anchored at the manifest's folder; empty stays empty.
func ResolveSavePath(savePath, manifestPath string) string {
	if savePath == "" {
		return ""
	}
	savePath = os.ExpandEnv(savePath)
	if home, err := os.UserHomeDir(); err == nil && len(savePath) > 0 && savePath[0] == '~' {
		savePath = filepath.Join(home, savePath[1:])
	}
	if !filepath.IsAbs(savePath) {
		savePath = filepath.Join(filepath.Dir(manifestPath), savePath)
	}
	return filepath.Clean(savePath)
}

// titleOf names a game after its innermost meaningful folder, skipping
// single-directory archive wrappers.
func titleOf(gameDir string) string {
	return filepath.Base(realRoot(gameDir))
}

// realRoot descends through folders that contain nothing but one
// subdirectory, the usual shape of unpacked archives.
func realRoot(gameDir string) string {
	entries, err := os.ReadDir(gameDir)
	if err != nil {
		return gameDir
	}

	var dirs []string
	for _, e := range entries {
		name := e.Name()
		if name == ManifestFileName || name[0] == '.' {
			continue
		}
		if !e.IsDir() {
			return gameDir
		}
		dirs = append(dirs, name)
	}
	if len(dirs) == 1 {
		return realRoot(filepath.Join(gameDir, dirs[0]))
	}
	return gameDir
}
