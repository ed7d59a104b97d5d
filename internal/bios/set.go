// Package bios fills an emulator BIOS folder by MD5-matching files found in
// a search directory against a known-good set.
package bios

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// Entry is one known BIOS file: its canonical name, expected MD5 and where
// it belongs relative to the BIOS folder.
type Entry struct {
	Name     string `json:"name"`
	MD5      string `json:"md5"`
	Dest     string `json:"dest,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// DestPath is the entry's path relative to the BIOS folder, defaulting to
// its canonical name.
func (e Entry) DestPath() string {
	if e.Dest != "" {
		return e.Dest
	}
	return e.Name
}

var md5Pattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// LoadSet parses a BIOS set file and normalizes its MD5s to lowercase hex.
func LoadSet(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse bios set %s: %w", path, err)
	}

	for i := range entries {
		entries[i].MD5 = strings.ToLower(strings.TrimSpace(entries[i].MD5))
		if entries[i].Name == "" {
			return nil, fmt.Errorf("bios set %s: entry %d has no name", path, i)
		}
		if !md5Pattern.MatchString(entries[i].MD5) {
			return nil, fmt.Errorf("bios set %s: entry %q has invalid md5 %q", path, entries[i].Name, entries[i].MD5)
		}
	}
	return entries, nil
}
