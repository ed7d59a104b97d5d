package bios

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Of(content string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeSet(t *testing.T, dir string, entries []Entry) string {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(dir, "bios-set.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadSet_ValidatesEntries(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid set", func(t *testing.T) {
		path := writeSet(t, dir, []Entry{{Name: "gba_bios.bin", MD5: md5Of("bios")}})
		entries, err := LoadSet(path)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "gba_bios.bin", entries[0].DestPath())
	})

	t.Run("uppercase md5 normalized", func(t *testing.T) {
		path := writeSet(t, dir, []Entry{{Name: "x.bin", MD5: "A1B2C3D4E5F6A7B8C9D0A1B2C3D4E5F6"}})
		entries, err := LoadSet(path)
		require.NoError(t, err)
		assert.Equal(t, "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6", entries[0].MD5)
	})

	t.Run("bad md5 rejected", func(t *testing.T) {
		path := writeSet(t, dir, []Entry{{Name: "x.bin", MD5: "nope"}})
		_, err := LoadSet(path)
		assert.Error(t, err)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		path := writeSet(t, dir, []Entry{{MD5: md5Of("x")}})
		_, err := LoadSet(path)
		assert.Error(t, err)
	})
}

func TestSync_CopiesMatchesByHash(t *testing.T) {
	tmp := t.TempDir()
	searchDir := filepath.Join(tmp, "roms")
	biosDir := filepath.Join(tmp, "bios")

	// matching file under a random name in a nested folder
	writeFile(t, searchDir, "downloads/whatever.bin", "gba bios payload")
	writeFile(t, searchDir, "noise.txt", "unrelated")

	setPath := writeSet(t, tmp, []Entry{
		{Name: "gba_bios.bin", MD5: md5Of("gba bios payload")},
		{Name: "missing.bin", MD5: md5Of("never present")},
		{Name: "optional.bin", MD5: md5Of("also absent"), Optional: true},
	})

	result, err := NewSyncer(nil).Sync(context.Background(), setPath, searchDir, biosDir)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 1, result.Copied)
	assert.Equal(t, 2, result.Missing)

	data, err := os.ReadFile(filepath.Join(biosDir, "gba_bios.bin"))
	require.NoError(t, err)
	assert.Equal(t, "gba bios payload", string(data))
}

func TestSync_AlreadyInPlaceIsNotRecopied(t *testing.T) {
	tmp := t.TempDir()
	searchDir := filepath.Join(tmp, "roms")
	biosDir := filepath.Join(tmp, "bios")

	writeFile(t, searchDir, "gba.bin", "payload")
	writeFile(t, biosDir, "gba_bios.bin", "payload")

	setPath := writeSet(t, tmp, []Entry{{Name: "gba_bios.bin", MD5: md5Of("payload")}})

	result, err := NewSyncer(nil).Sync(context.Background(), setPath, searchDir, biosDir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Zero(t, result.Copied)
}

func TestSync_DestSubfolder(t *testing.T) {
	tmp := t.TempDir()
	searchDir := filepath.Join(tmp, "roms")
	biosDir := filepath.Join(tmp, "bios")

	writeFile(t, searchDir, "ps1.bin", "scph payload")
	setPath := writeSet(t, tmp, []Entry{
		{Name: "scph1001.bin", MD5: md5Of("scph payload"), Dest: "psx/scph1001.bin"},
	})

	_, err := NewSyncer(nil).Sync(context.Background(), setPath, searchDir, biosDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(biosDir, "psx", "scph1001.bin"))
}

func TestHashCache_LookupAndInvalidation(t *testing.T) {
	tmp := t.TempDir()
	cache, err := OpenHashCache(filepath.Join(tmp, "cache", "hashcache.db"))
	require.NoError(t, err)
	defer cache.Close()

	mtime := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, cache.Store("/roms/a.bin", 42, mtime, "aabb"))

	sum, ok := cache.Lookup("/roms/a.bin", 42, mtime)
	assert.True(t, ok)
	assert.Equal(t, "aabb", sum)

	_, ok = cache.Lookup("/roms/a.bin", 43, mtime)
	assert.False(t, ok, "size change invalidates")

	_, ok = cache.Lookup("/roms/a.bin", 42, mtime.Add(time.Second))
	assert.False(t, ok, "mtime change invalidates")

	_, ok = cache.Lookup("/roms/unknown.bin", 1, mtime)
	assert.False(t, ok)
}

func TestSync_UsesCache(t *testing.T) {
	tmp := t.TempDir()
	searchDir := filepath.Join(tmp, "roms")
	biosDir := filepath.Join(tmp, "bios")
	writeFile(t, searchDir, "gba.bin", "payload")

	cache, err := OpenHashCache(filepath.Join(tmp, "hashcache.db"))
	require.NoError(t, err)
	defer cache.Close()

	setPath := writeSet(t, tmp, []Entry{{Name: "gba_bios.bin", MD5: md5Of("payload")}})
	syncer := NewSyncer(cache)

	_, err = syncer.Sync(context.Background(), setPath, searchDir, biosDir)
	require.NoError(t, err)

	// cache now knows the file
	info, err := os.Stat(filepath.Join(searchDir, "gba.bin"))
	require.NoError(t, err)
	sum, ok := cache.Lookup(filepath.Join(searchDir, "gba.bin"), info.Size(), info.ModTime())
	assert.True(t, ok)
	assert.Equal(t, md5Of("payload"), sum)

	// second run is a no-op
	result, err := syncer.Sync(context.Background(), setPath, searchDir, biosDir)
	require.NoError(t, err)
	assert.Zero(t, result.Copied)
}
