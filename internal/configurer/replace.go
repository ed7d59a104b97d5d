package configurer

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

func applyTextReplacements(content string, replacements []Replacement) (string, bool, error) {
	modified := false
	for _, rep := range replacements {
		re, err := regexp.Compile(rep.Pattern)
		if err != nil {
			return content, modified, fmt.Errorf("bad pattern in %q: %w", rep.Name, err)
		}
		if re.MatchString(content) {
			content = re.ReplaceAllString(content, rep.Value)
			slog.Info("applied", "rule", rep.Name, "value", rep.Value)
			modified = true
		}
	}
	return content, modified, nil
}

// valueBytes encodes a replacement value for binary edits: ASCII digits
// become raw byte values, everything else is taken verbatim.
func valueBytes(value string) []byte {
	out := make([]byte, 0, len(value))
	for _, c := range value {
		if c >= '0' && c <= '9' {
			out = append(out, byte(c-'0'))
		} else {
			out = append(out, byte(c))
		}
	}
	return out
}

// applyHexReplacements edits binary content in place. A pattern containing
// `?` matches its ASCII prefix, exactly one arbitrary byte, then its ASCII
// suffix; only the first occurrence is replaced. Patterns without `?` are
// exact ASCII matches replaced everywhere.
func applyHexReplacements(content []byte, replacements []Replacement) ([]byte, bool) {
	modified := false
	for _, rep := range replacements {
		if strings.ContainsRune(rep.Pattern, '?') {
			prefix := []byte(rep.Pattern[:strings.IndexByte(rep.Pattern, '?')])
			suffix := []byte(rep.Pattern[strings.LastIndexByte(rep.Pattern, '?')+1:])
			window := len(prefix) + 1 + len(suffix)

			for i := 0; i+window <= len(content); i++ {
				if !bytes.Equal(content[i:i+len(prefix)], prefix) {
					continue
				}
				if !bytes.Equal(content[i+len(prefix)+1:i+window], suffix) {
					continue
				}

				replaced := make([]byte, 0, len(content)-window+len(rep.Value))
				replaced = append(replaced, content[:i]...)
				replaced = append(replaced, valueBytes(rep.Value)...)
				replaced = append(replaced, content[i+window:]...)
				content = replaced

				slog.Info("applied", "rule", rep.Name, "value", rep.Value)
				modified = true
				break
			}
			continue
		}

		pattern := []byte(rep.Pattern)
		if bytes.Contains(content, pattern) {
			content = bytes.ReplaceAll(content, pattern, []byte(rep.Value))
			slog.Info("applied", "rule", rep.Name, "value", rep.Value)
			modified = true
		}
	}
	return content, modified
}
