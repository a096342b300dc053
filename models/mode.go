package models

import "fmt"

// Mode selects which traffic a report is built from: real storefront
// visitors (live) or internal test sessions (dev).
type Mode string

const (
	ModeLive Mode = "live"
	ModeDev  Mode = "dev"
)

// ParseMode accepts "live", "dev" or "test" (alias of dev). An empty string
// means live.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeLive):
		return ModeLive, nil
	case string(ModeDev), "test":
		return ModeDev, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be 'live' or 'dev'", s)
	}
}

// IncludesTest reports whether records flagged as test traffic belong to m.
func (m Mode) IncludesTest() bool {
	return m == ModeDev
}
