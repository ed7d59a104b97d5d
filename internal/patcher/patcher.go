// Package patcher applies CRC32-verified file replacements and BPS/IPS
// patches (via the external flips binary) to installed games.
package patcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// PatchFileName is the per-folder patch description file.
const PatchFileName = "patch.json"

// Patch describes one file modification. Method is "replace" (copy the
// payload over the target) or "patch" (apply a flips patch file).
type Patch struct {
	File         string `json:"file"`
	Target       string `json:"target"`
	Method       string `json:"method"`
	TargetCRC32  string `json:"target_crc32,omitempty"`
	PatchedCRC32 string `json:"patched_crc32,omitempty"`
}

type patchStatus int

const (
	statusReady patchStatus = iota
	statusAlreadyPatched
	statusMismatch
)

type Patcher struct {
	libraries []string
	flipsPath string
}

// New creates a Patcher over the given game library directories. flipsPath
// may be empty when only replace-method patches are used.
func New(libraries []string, flipsPath string) *Patcher {
	return &Patcher{libraries: libraries, flipsPath: flipsPath}
}

// Run walks patchesDir for patch.json files and applies each described
// patch. Per-patch failures are logged and skipped.
func (p *Patcher) Run(ctx context.Context, patchesDir string) error {
	if !utils.DirExists(patchesDir) {
		return fmt.Errorf("patches dir %s is not a valid directory", patchesDir)
	}

	slog.Info("looking for patches", "dir", patchesDir, "libraries", len(p.libraries))
	count := 0

	err := filepath.WalkDir(patchesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || d.Name() != PatchFileName {
			return nil
		}

		rel, _ := filepath.Rel(patchesDir, filepath.Dir(path))
		slog.Info("processing patch set", "set", rel)

		patches, perr := loadPatches(path)
		if perr != nil {
			slog.Error("failed to read patch set", "path", path, "error", perr)
			return nil
		}
		for _, patch := range patches {
			p.processPatch(ctx, patch, filepath.Dir(path))
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", patchesDir, err)
	}

	if count == 0 {
		slog.Info("no patch.json files found")
	}
	return nil
}

func loadPatches(path string) ([]Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patches []Patch
	if err := json.Unmarshal(data, &patches); err != nil {
		return nil, err
	}
	return patches, nil
}

func (p *Patcher) processPatch(ctx context.Context, patch Patch, patchDir string) {
	sourceFile := filepath.Join(patchDir, patch.File)
	if !utils.FileExists(sourceFile) {
		slog.Error("patch payload does not exist", "file", patch.File)
		return
	}

	for _, library := range p.libraries {
		targetFile := filepath.Join(library, filepath.FromSlash(patch.Target))
		if !utils.FileExists(targetFile) {
			continue
		}

		status, err := checkStatus(targetFile, patch.TargetCRC32, patch.PatchedCRC32)
		if err != nil {
			slog.Error("failed to check target", "target", targetFile, "error", err)
			return
		}

		switch status {
		case statusAlreadyPatched:
			slog.Info("already patched", "target", filepath.Base(targetFile))
		case statusReady:
			p.apply(ctx, patch, sourceFile, targetFile)
		}
		return // the target lives in exactly one library
	}

	slog.Info("target not found in any library", "target", patch.Target)
}

// crcMatches compares a checksum against its hex representation in a patch
// entry, tolerating case and missing leading zeros.
func crcMatches(sum uint32, hexStr string) bool {
	if hexStr == "" {
		return false
	}
	want, err := strconv.ParseUint(hexStr, 16, 32)
	if err != nil {
		return false
	}
	return uint32(want) == sum
}

func checkStatus(targetFile, targetCRC, patchedCRC string) (patchStatus, error) {
	sum, err := utils.FileCRC32(targetFile)
	if err != nil {
		return statusMismatch, err
	}

	if crcMatches(sum, patchedCRC) {
		return statusAlreadyPatched, nil
	}
	if targetCRC == "" || crcMatches(sum, targetCRC) {
		return statusReady, nil
	}

	slog.Warn("crc mismatch", "target", filepath.Base(targetFile), "expected", targetCRC, "got", fmt.Sprintf("%08X", sum))
	return statusMismatch, nil
}

func (p *Patcher) apply(ctx context.Context, patch Patch, sourceFile, targetFile string) {
	switch patch.Method {
	case "replace":
		p.applyReplacement(patch, sourceFile, targetFile)
	case "patch":
		p.applyFlips(ctx, patch, sourceFile, targetFile)
	default:
		slog.Error("unknown patch method", "method", patch.Method, "target", patch.Target)
	}
}

// ensureBackup guards the pristine copy of the target. When a backup already
// exists but the target drifted from it, the target was modified outside of
// sidekick and is only safe to touch when it matches a known state.
//
// Returns proceed=false when the target must be left alone.
func ensureBackup(targetFile string, isKnownResult func(sum uint32) bool) (proceed bool, err error) {
	backupFile := targetFile + ".backup"

	if !utils.FileExists(backupFile) {
		if err := utils.CopyFile(targetFile, backupFile); err != nil {
			return false, fmt.Errorf("create backup: %w", err)
		}
		return true, nil
	}

	targetSum, err := utils.FileCRC32(targetFile)
	if err != nil {
		return false, err
	}
	backupSum, err := utils.FileCRC32(backupFile)
	if err != nil {
		return false, err
	}

	if targetSum == backupSum {
		return true, nil
	}
	if isKnownResult(targetSum) {
		slog.Info("already applied", "target", filepath.Base(targetFile))
		return false, nil
	}
	slog.Error("backup exists but target differs from patch", "target", filepath.Base(targetFile))
	return false, nil
}

func (p *Patcher) applyReplacement(patch Patch, sourceFile, targetFile string) {
	sourceSum, err := utils.FileCRC32(sourceFile)
	if err != nil {
		slog.Error("failed to hash patch payload", "file", patch.File, "error", err)
		return
	}

	proceed, err := ensureBackup(targetFile, func(sum uint32) bool { return sum == sourceSum })
	if err != nil || !proceed {
		if err != nil {
			slog.Error("replacement failed", "target", filepath.Base(targetFile), "error", err)
		}
		return
	}

	if err := utils.CopyFile(sourceFile, targetFile); err != nil {
		slog.Error("replacement failed", "target", filepath.Base(targetFile), "error", err)
		return
	}
	slog.Info("replaced", "target", filepath.Base(targetFile))
}

func (p *Patcher) applyFlips(ctx context.Context, patch Patch, sourceFile, targetFile string) {
	if p.flipsPath == "" {
		slog.Error("flips binary not configured, cannot apply patch", "target", patch.Target)
		return
	}

	proceed, err := ensureBackup(targetFile, func(sum uint32) bool { return crcMatches(sum, patch.PatchedCRC32) })
	if err != nil || !proceed {
		if err != nil {
			slog.Error("patching failed", "target", filepath.Base(targetFile), "error", err)
		}
		return
	}

	patchedFile := targetFile + ".patched"
	cmd := exec.CommandContext(ctx, p.flipsPath, "-a", sourceFile, targetFile, patchedFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		slog.Error("flips failed", "target", filepath.Base(targetFile), "error", err, "output", string(out))
		return
	}

	if err := os.Rename(patchedFile, targetFile); err != nil {
		slog.Error("failed to move patched file into place", "target", filepath.Base(targetFile), "error", err)
		return
	}
	slog.Info("patched", "target", filepath.Base(targetFile))
}
