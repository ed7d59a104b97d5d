package saves

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	entries := []FileEntry{
		{RelPath: "slot1.sav", ModTime: baseTime},
		{RelPath: "nested/slot2.sav", ModTime: baseTime.Add(time.Minute)},
	}

	require.NoError(t, WriteSnapshot(dir, entries))

	snap := LoadSnapshot(dir)
	require.NotNil(t, snap)
	assert.Len(t, snap.Files, 2)
	assert.True(t, snap.Files["slot1.sav"].Equal(baseTime))
	assert.True(t, snap.Files["nested/slot2.sav"].Equal(baseTime.Add(time.Minute)))
	assert.False(t, snap.TakenAt.IsZero())
}

func TestLoadSnapshot_AbsentIsNil(t *testing.T) {
	assert.Nil(t, LoadSnapshot(t.TempDir()))
}

func TestLoadSnapshot_CorruptIsNil(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFileName), []byte("{not json"), 0o644))
	assert.Nil(t, LoadSnapshot(dir))
}

func TestWriteSnapshot_MissingDirIsNoOp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	require.NoError(t, WriteSnapshot(dir, nil))
	assert.NoDirExists(t, dir)
}

func TestScan_ExcludesMetadataAndIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFileAt(t, dir, "slot1.sav", "data", baseTime)
	writeFileAt(t, dir, SnapshotFileName, "{}", baseTime)
	writeFileAt(t, dir, "junk.tmp-abc123", "partial copy", baseTime)
	writeFileAt(t, dir, IgnoreFileName, "*.bak\n", baseTime)
	writeFileAt(t, dir, "slot1.bak", "user excluded", baseTime)

	entries, err := Scan(dir)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "slot1.sav", entries[0].RelPath)
}

func TestScan_MissingDirIsEmpty(t *testing.T) {
	entries, err := Scan(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseStrategy(t *testing.T) {
	for raw, want := range map[string]Strategy{
		"backup":   StrategyBackup,
		"SYNC":     StrategySync,
		" restore": StrategyRestore,
	} {
		s, ok := ParseStrategy(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, s)
	}

	s, ok := ParseStrategy("mirror-all-the-things")
	assert.False(t, ok)
	assert.Equal(t, StrategyBackup, s, "invalid strategy falls back to backup")

	s, ok = ParseStrategy("")
	assert.False(t, ok)
	assert.Equal(t, StrategyBackup, s)
}
