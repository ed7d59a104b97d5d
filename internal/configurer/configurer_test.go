package configurer

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonUnmarshal(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}

func TestResolveVars(t *testing.T) {
	vars := map[string]string{"ROMS": "/userdata/roms"}

	assert.Equal(t, "/userdata/roms/gba", ResolveVars("${ROMS}/gba", vars))
	assert.Equal(t, "${UNKNOWN}/gba", ResolveVars("${UNKNOWN}/gba", vars), "unknown vars stay put")

	t.Setenv("SIDEKICK_TEST_HOME", "/home/deck")
	assert.Equal(t, "/home/deck/cfg", ResolveVars("${SIDEKICK_TEST_HOME}/cfg", nil), "environment is the fallback")
}

func TestStringList_AcceptsStringOrArray(t *testing.T) {
	var rule FileRule
	require.NoError(t, jsonUnmarshal(`{"paths": "${X}/one", "replacements": []}`, &rule))
	assert.Equal(t, StringList{"${X}/one"}, rule.Paths)

	require.NoError(t, jsonUnmarshal(`{"paths": ["a", "b"], "replacements": []}`, &rule))
	assert.Equal(t, StringList{"a", "b"}, rule.Paths)
}

func TestLoadApps_DropsUnresolvedPaths(t *testing.T) {
	dir := t.TempDir()
	rules := `{
		"retroarch": {
			"files": [
				{
					"paths": ["${CONFIGS}/retroarch.cfg", "/static/path/never-used.cfg"],
					"replacements": [
						{"name": "vsync", "pattern": "vsync = \"\\w+\"", "value": "vsync = \"true\""}
					]
				}
			]
		},
		"emptyapp": {"files": []}
	}`
	path := filepath.Join(dir, "configurer.json")
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o644))

	apps, err := LoadApps(path, map[string]string{"CONFIGS": "/userdata/configs"})
	require.NoError(t, err)

	require.Contains(t, apps, "retroarch")
	assert.NotContains(t, apps, "emptyapp")

	rule := apps["retroarch"].Files[0]
	assert.Equal(t, StringList{"/userdata/configs/retroarch.cfg"}, rule.Paths, "static path without vars is dropped")
	assert.Equal(t, "text", rule.Replacements[0].Type)
}

func TestApplyTextReplacements(t *testing.T) {
	content := "vsync = \"false\"\nfullscreen = \"false\"\n"

	updated, modified, err := applyTextReplacements(content, []Replacement{
		{Name: "vsync", Pattern: `vsync = "\w+"`, Value: `vsync = "true"`},
		{Name: "no-match", Pattern: `shader = "\w+"`, Value: `shader = "crt"`},
	})
	require.NoError(t, err)

	assert.True(t, modified)
	assert.Contains(t, updated, `vsync = "true"`)
	assert.Contains(t, updated, `fullscreen = "false"`)
}

func TestApplyTextReplacements_BadPattern(t *testing.T) {
	_, _, err := applyTextReplacements("x", []Replacement{{Name: "broken", Pattern: "([", Value: ""}})
	assert.Error(t, err)
}

func TestApplyHexReplacements_Exact(t *testing.T) {
	content := []byte("HEADmarkerTAIL")
	updated, modified := applyHexReplacements(content, []Replacement{
		{Name: "swap", Pattern: "marker", Value: "MARKER"},
	})
	assert.True(t, modified)
	assert.Equal(t, []byte("HEADMARKERTAIL"), updated)
}

func TestApplyHexReplacements_Wildcard(t *testing.T) {
	// one arbitrary byte between prefix and suffix
	content := []byte("cfg:A\x07Z:end")
	updated, modified := applyHexReplacements(content, []Replacement{
		{Name: "level", Pattern: "A?Z", Value: "A9Z"},
	})
	assert.True(t, modified)
	// digits encode as raw byte values
	assert.Equal(t, []byte("cfg:A\x09Z:end"), updated)
}

func TestApplyHexReplacements_NoMatch(t *testing.T) {
	content := []byte("nothing here")
	updated, modified := applyHexReplacements(content, []Replacement{
		{Name: "x", Pattern: "A?Z", Value: "AAZ"},
	})
	assert.False(t, modified)
	assert.Equal(t, content, updated)
}

func TestModifyFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("text rewrite", func(t *testing.T) {
		path := filepath.Join(dir, "app.cfg")
		require.NoError(t, os.WriteFile(path, []byte("mode=windowed\n"), 0o644))

		err := ModifyFile(path, []Replacement{
			{Name: "mode", Type: "text", Pattern: `mode=\w+`, Value: "mode=fullscreen"},
		})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "mode=fullscreen\n", string(data))
	})

	t.Run("missing file is skipped", func(t *testing.T) {
		err := ModifyFile(filepath.Join(dir, "absent.cfg"), []Replacement{
			{Name: "x", Pattern: "a", Value: "b"},
		})
		assert.NoError(t, err)
	})

	t.Run("binary rewrite", func(t *testing.T) {
		path := filepath.Join(dir, "app.bin")
		require.NoError(t, os.WriteFile(path, []byte("BINv\x01END"), 0o644))

		err := ModifyFile(path, []Replacement{
			{Name: "version", Type: "hexadecimal", Pattern: "v?E", Value: "v2E"},
		})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("BINv\x02END"), data)
	})
}
