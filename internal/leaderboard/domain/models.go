package domain

import "strings"

// RankEntry is one row of the daily earnings ranking. Names are masked
// before leaving the service so callers never see other users'
// identities in full.
type RankEntry struct {
	Position int     `json:"position"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	IsCaller bool    `json:"is_caller"`
}

// MaskName hides most of a display name, keeping just enough to be
// recognizable to its owner.
func MaskName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) <= 2 {
		return name + "***"
	}
	return string(runes[:2]) + "***"
}
