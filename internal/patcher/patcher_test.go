package patcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamersidekick/sidekick/internal/utils"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func crcHex(t *testing.T, path string) string {
	t.Helper()
	sum, err := utils.FileCRC32(path)
	require.NoError(t, err)
	return fmt.Sprintf("%08X", sum)
}

func writePatchSet(t *testing.T, dir string, patches []Patch) {
	t.Helper()
	data, err := json.Marshal(patches)
	require.NoError(t, err)
	writeFile(t, dir, PatchFileName, string(data))
}

func TestCRCMatches(t *testing.T) {
	assert.True(t, crcMatches(0xDEADBEEF, "DEADBEEF"))
	assert.True(t, crcMatches(0xDEADBEEF, "deadbeef"))
	assert.True(t, crcMatches(0x0000BEEF, "beef"), "leading zeros optional")
	assert.False(t, crcMatches(0xDEADBEEF, "CAFEBABE"))
	assert.False(t, crcMatches(0xDEADBEEF, ""))
	assert.False(t, crcMatches(0xDEADBEEF, "not-hex"))
}

func TestCheckStatus(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "game.dat", "original content")
	sum := crcHex(t, target)

	t.Run("no expected crc means ready", func(t *testing.T) {
		status, err := checkStatus(target, "", "")
		require.NoError(t, err)
		assert.Equal(t, statusReady, status)
	})

	t.Run("matching target crc means ready", func(t *testing.T) {
		status, err := checkStatus(target, sum, "")
		require.NoError(t, err)
		assert.Equal(t, statusReady, status)
	})

	t.Run("matching patched crc wins", func(t *testing.T) {
		status, err := checkStatus(target, "", sum)
		require.NoError(t, err)
		assert.Equal(t, statusAlreadyPatched, status)
	})

	t.Run("wrong crc is a mismatch", func(t *testing.T) {
		status, err := checkStatus(target, "12345678", "")
		require.NoError(t, err)
		assert.Equal(t, statusMismatch, status)
	})
}

func TestLibraryDirs(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "card1", "steamapps", "common"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "card2", "steamapps", "common"), 0o755))

	dirs := LibraryDirs([]string{
		filepath.Join(tmp, "card1", "steamapps", "common"), // literal
		filepath.Join(tmp, "*", "steamapps", "common"),     // glob
		filepath.Join(tmp, "missing", "steamapps", "common"),
	})

	assert.Len(t, dirs, 3) // literal + two glob matches, missing dropped
}

func TestRun_ReplaceMethod(t *testing.T) {
	tmp := t.TempDir()
	library := filepath.Join(tmp, "library")
	patchesDir := filepath.Join(tmp, "patches")

	target := writeFile(t, library, "Cool Game/game.dat", "vanilla")
	writeFile(t, patchesDir, "coolgame/fixed.dat", "fixed")
	writePatchSet(t, filepath.Join(patchesDir, "coolgame"), []Patch{{
		File:        "fixed.dat",
		Target:      "Cool Game/game.dat",
		Method:      "replace",
		TargetCRC32: crcHex(t, target),
	}})

	p := New([]string{library}, "")
	require.NoError(t, p.Run(context.Background(), patchesDir))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fixed", string(data))

	backup, err := os.ReadFile(target + ".backup")
	require.NoError(t, err)
	assert.Equal(t, "vanilla", string(backup), "backup keeps the pristine file")

	// second run detects the replacement and leaves everything alone
	require.NoError(t, p.Run(context.Background(), patchesDir))
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fixed", string(data))
}

func TestRun_RefusesUnknownTargetState(t *testing.T) {
	tmp := t.TempDir()
	library := filepath.Join(tmp, "library")
	patchesDir := filepath.Join(tmp, "patches")

	target := writeFile(t, library, "game.dat", "externally modified")
	writeFile(t, library, "game.dat.backup", "vanilla")
	writeFile(t, patchesDir, "set/fixed.dat", "fixed")
	writePatchSet(t, filepath.Join(patchesDir, "set"), []Patch{{
		File:   "fixed.dat",
		Target: "game.dat",
		Method: "replace",
	}})

	p := New([]string{library}, "")
	require.NoError(t, p.Run(context.Background(), patchesDir))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "externally modified", string(data), "unknown state must not be overwritten")
}

func TestRun_CRCMismatchSkipsTarget(t *testing.T) {
	tmp := t.TempDir()
	library := filepath.Join(tmp, "library")
	patchesDir := filepath.Join(tmp, "patches")

	target := writeFile(t, library, "game.dat", "unexpected version")
	writeFile(t, patchesDir, "set/fixed.dat", "fixed")
	writePatchSet(t, filepath.Join(patchesDir, "set"), []Patch{{
		File:        "fixed.dat",
		Target:      "game.dat",
		Method:      "replace",
		TargetCRC32: "12345678",
	}})

	p := New([]string{library}, "")
	require.NoError(t, p.Run(context.Background(), patchesDir))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "unexpected version", string(data))
	assert.NoFileExists(t, target+".backup")
}
