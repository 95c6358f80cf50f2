package risk

import "strings"

// Level is a risk rating.
type Level string

// Risk levels, from least to most severe.
const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// ParseLevel reads a level case-insensitively. Unrecognized text is MEDIUM.
func ParseLevel(s string) Level {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return l
	default:
		return LevelMedium
	}
}

// Severity maps a level onto a 0-75 scale where lower is worse. Unknown
// levels rank as MEDIUM.
func (l Level) Severity() int {
	switch l {
	case LevelCritical:
		return 0
	case LevelHigh:
		return 25
	case LevelLow:
		return 75
	default:
		return 50
	}
}
