package model

import "math"

// Scout codes read by the scoring formulas.
const (
	ScoutGoal          = "G"
	ScoutAssist        = "A"
	ScoutPostShot      = "FT"
	ScoutSavedShot     = "FD"
	ScoutOffTargetShot = "FF"
	ScoutFoulSuffered  = "FS"
	ScoutFoulCommitted = "FC"
	ScoutYellowCard    = "CA"
	ScoutRedCard       = "CV"
	ScoutTackle        = "DS"
	ScoutCleanSheet    = "SG"
	ScoutSave          = "DE"
	ScoutPenaltySave   = "DP"
	ScoutGoalConceded  = "GS"
)

// KnownScouts is the code set every ScoutTally covers after enrichment.
var KnownScouts = []string{
	ScoutGoal, ScoutAssist, ScoutPostShot, ScoutSavedShot, ScoutOffTargetShot,
	ScoutFoulSuffered, ScoutFoulCommitted, ScoutYellowCard, ScoutRedCard,
	ScoutTackle, ScoutCleanSheet, ScoutSave, ScoutPenaltySave, ScoutGoalConceded,
}

// MaxScoutCount caps a single scout count so scoring sums cannot overflow.
const MaxScoutCount = math.MaxInt32

// ScoutTally maps a scout code to a non-negative count.
type ScoutTally map[string]int

// NormalizeScout builds a total tally from a raw, possibly nil, scout object.
// Missing known codes default to 0. Codes outside KnownScouts are kept.
// Counts are rounded and clamped to [0, MaxScoutCount].
func NormalizeScout(raw map[string]float64) ScoutTally {
	t := make(ScoutTally, len(KnownScouts)+len(raw))
	for _, code := range KnownScouts {
		t[code] = 0
	}
	for code, v := range raw {
		if math.IsNaN(v) || v <= 0 {
			t[code] = 0
			continue
		}
		if v >= MaxScoutCount {
			t[code] = MaxScoutCount
			continue
		}
		t[code] = int(math.Round(v))
	}
	return t
}

// Count returns the tally for code; absent codes read as 0.
func (t ScoutTally) Count(code string) int {
	return t[code]
}

// IsTotal reports whether every known code is present with a non-negative value.
func (t ScoutTally) IsTotal() bool {
	for _, code := range KnownScouts {
		v, ok := t[code]
		if !ok || v < 0 {
			return false
		}
	}
	return true
}
