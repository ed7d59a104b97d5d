package utils

import (
	"regexp"
	"strings"
)

// Backup folders are named after game titles and may end up on FAT/exFAT SD
// cards or shared with Windows tooling, so titles are reduced to a portable
// subset.
var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

const maxTitleLen = 100

// SanitizeTitle converts a game title into a filesystem-safe folder name.
func SanitizeTitle(title string) string {
	name := strings.TrimSpace(title)

	var b strings.Builder
	for _, c := range name {
		if c < 32 || strings.ContainsRune(`<>:"/\|?*`, c) {
			b.WriteRune('_')
		} else {
			b.WriteRune(c)
		}
	}
	name = whitespaceRun.ReplaceAllString(b.String(), "_")
	name = strings.TrimRight(name, ". ")

	if name == "" {
		name = "game"
	}
	if _, reserved := windowsReservedNames[strings.ToUpper(name)]; reserved {
		name += "_game"
	}
	if runes := []rune(name); len(runes) > maxTitleLen {
		name = string(runes[:maxTitleLen])
	}
	return name
}
