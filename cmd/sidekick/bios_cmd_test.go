package main

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBiosCommand_FlagsSelectSetAndSearch(t *testing.T) {
	tmp := t.TempDir()

	content := []byte("bios payload")
	searchDir := filepath.Join(tmp, "roms")
	require.NoError(t, os.MkdirAll(filepath.Join(searchDir, "misc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(searchDir, "misc", "renamed.rom"), content, 0o644))

	set := fmt.Sprintf(`[{"name": "scph1001.bin", "md5": "%x"}]`, md5.Sum(content))
	setPath := filepath.Join(tmp, "bios-set.json")
	require.NoError(t, os.WriteFile(setPath, []byte(set), 0o644))

	biosDir := filepath.Join(tmp, "bios")

	t.Setenv("SIDEKICK_CACHE_DIR", filepath.Join(tmp, "cache"))
	t.Cleanup(viper.Reset)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	rootCmd.SetArgs([]string{"bios", "--set", setPath, "--search", searchDir, "--bios", biosDir})

	require.NoError(t, rootCmd.Execute())

	got, err := os.ReadFile(filepath.Join(biosDir, "scph1001.bin"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
