// Package configurer rewrites emulator and app configuration files from a
// JSON rule set: regex replacements for text configs, byte-level patterns
// for binary ones.
package configurer

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	json "github.com/goccy/go-json"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// Replacement is a single named edit. Type "text" (the default) treats
// Pattern as a regular expression; "hexadecimal" edits raw bytes.
type Replacement struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Pattern string `json:"pattern"`
	Value   string `json:"value"`
}

// StringList accepts either a single JSON string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// FileRule applies a set of replacements to one or more candidate paths.
type FileRule struct {
	Paths        StringList    `json:"paths"`
	Replacements []Replacement `json:"replacements"`
}

// AppConfig groups the file rules of one application.
type AppConfig struct {
	Files []FileRule `json:"files"`
}

var varPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// ResolveVars substitutes ${VAR} placeholders from vars, falling back to the
// environment. Unknown variables are left in place.
func ResolveVars(text string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok && v != "" {
			return v
		}
		if v := os.Getenv(name); v != "" {
			return v
		}
		return match
	})
}

// LoadApps reads the rule file and resolves every ${VAR} placeholder. A path
// whose variables did not resolve is dropped: rules are written against
// machine-specific roots, and an unresolved root means the rule does not
// apply on this device.
func LoadApps(path string, vars map[string]string) (map[string]AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]AppConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	processed := make(map[string]AppConfig, len(raw))
	for app, cfg := range raw {
		var files []FileRule
		for _, rule := range cfg.Files {
			var paths StringList
			for _, p := range rule.Paths {
				resolved := ResolveVars(p, vars)
				if resolved != p {
					paths = append(paths, resolved)
				}
			}
			if len(paths) == 0 {
				continue
			}

			var reps []Replacement
			for _, rep := range rule.Replacements {
				if rep.Name == "" {
					rep.Name = "unnamed"
				}
				if rep.Type == "" {
					rep.Type = "text"
				}
				rep.Pattern = ResolveVars(rep.Pattern, vars)
				rep.Value = ResolveVars(rep.Value, vars)
				reps = append(reps, rep)
			}
			if len(reps) == 0 {
				continue
			}

			files = append(files, FileRule{Paths: paths, Replacements: reps})
		}
		if len(files) > 0 {
			processed[app] = AppConfig{Files: files}
		}
	}
	return processed, nil
}

// Run loads the rule file and applies every app's rules. Per-file problems
// are logged and skipped.
func Run(rulesPath string, vars map[string]string) error {
	apps, err := LoadApps(rulesPath, vars)
	if err != nil {
		return err
	}

	for app, cfg := range apps {
		slog.Info("configuring app", "app", app)
		for _, rule := range cfg.Files {
			for _, path := range rule.Paths {
				if err := ModifyFile(path, rule.Replacements); err != nil {
					slog.Error("failed to modify file", "app", app, "path", path, "error", err)
				}
			}
		}
	}
	return nil
}

// ModifyFile applies the replacements to one file, rewriting it only when
// something actually changed. A missing file is not an error.
func ModifyFile(path string, replacements []Replacement) error {
	if !utils.FileExists(path) {
		slog.Info("config file does not exist, skipping", "path", path)
		return nil
	}

	var textReps, hexReps []Replacement
	for _, rep := range replacements {
		if rep.Type == "hexadecimal" {
			hexReps = append(hexReps, rep)
		} else {
			textReps = append(textReps, rep)
		}
	}

	if len(textReps) > 0 {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		updated, modified, err := applyTextReplacements(string(content), textReps)
		if err != nil {
			return err
		}
		if modified {
			if err := utils.WriteFileAtomic(path, []byte(updated), 0o644); err != nil {
				return err
			}
		}
	}

	if len(hexReps) > 0 {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		updated, modified := applyHexReplacements(content, hexReps)
		if modified {
			if err := utils.WriteFileAtomic(path, updated, 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}
