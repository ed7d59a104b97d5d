package saves

import "strings"

// Strategy selects how a game's live save directory and its backup folder
// are reconciled.
type Strategy string

const (
	// StrategyBackup always mirrors original -> backup.
	StrategyBackup Strategy = "backup"

	// StrategySync picks a direction from the per-directory snapshots.
	StrategySync Strategy = "sync"

	// StrategyRestore always mirrors backup -> original.
	StrategyRestore Strategy = "restore"
)

// ParseStrategy normalizes raw into a Strategy. Unknown or empty values fall
// back to StrategyBackup; ok reports whether raw was recognized.
func ParseStrategy(raw string) (s Strategy, ok bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyBackup:
		return StrategyBackup, true
	case StrategySync:
		return StrategySync, true
	case StrategyRestore:
		return StrategyRestore, true
	default:
		return StrategyBackup, false
	}
}
