// Package policy decides whether a caller's training activity is persisted
// at all. It is consulted before any progress-engine call: synthetic
// responses must never allocate real identifiers or touch the one-active-run
// invariant.
package policy

import (
	"github.com/karowl/simportal/internal/domain/token"
)

// Mode classifies how a training request is served
type Mode string

const (
	// ModePersisted runs the full progress engine path
	ModePersisted Mode = "persisted"
	// ModeDemo serves a fabricated payload for stand-alone demo logins
	ModeDemo Mode = "demo"
	// ModeStaffTest serves a fabricated payload for staff exercising the
	// learner flow; tagged distinctly so the UI can show a test indicator
	ModeStaffTest Mode = "staff_test"
)

// ShouldPersist reports whether writes for this caller reach the store.
// Only platform-launched learners are persisted.
func ShouldPersist(role token.Role, sessionType token.SessionType) bool {
	return Classify(role, sessionType) == ModePersisted
}

// Classify maps {role, provenance} onto a serving mode
func Classify(role token.Role, sessionType token.SessionType) Mode {
	if sessionType == token.SessionTypeSynthetic {
		return ModeDemo
	}
	if role.IsStaff() {
		return ModeStaffTest
	}
	return ModePersisted
}

// syntheticPhases is the fixed phase sequence served to non-persisted callers
var syntheticPhases = []string{"Phase A", "Phase B", "Phase C", "Phase D"}

// SyntheticProgress is the fabricated progress payload for demo and
// staff-test callers. It is deterministic in the input phase name alone.
type SyntheticProgress struct {
	Mode            Mode   `json:"mode"`
	CurrentPhase    string `json:"currentPhase"`
	NextPhase       string `json:"nextPhase"`
	OverallProgress int    `json:"overallProgress"`
	PhasesCompleted int    `json:"phasesCompleted"`
	TotalScore      int    `json:"totalScore"`
	Persisted       bool   `json:"persisted"`
}

// SyntheticStart returns the fabricated payload for a training start
func SyntheticStart(mode Mode) SyntheticProgress {
	return SyntheticProgress{
		Mode:         mode,
		CurrentPhase: syntheticPhases[0],
		NextPhase:    syntheticPhases[1],
	}
}

// SyntheticAdvance returns the fabricated payload for a phase advance from
// the named phase. Unknown phase names restart the fixed sequence.
func SyntheticAdvance(mode Mode, fromPhase string) SyntheticProgress {
	idx := 0
	for i, p := range syntheticPhases {
		if p == fromPhase {
			idx = i
			break
		}
	}

	next := idx + 1
	if next >= len(syntheticPhases) {
		next = len(syntheticPhases) - 1
	}

	return SyntheticProgress{
		Mode:            mode,
		CurrentPhase:    syntheticPhases[next],
		NextPhase:       nextPhaseLabel(next),
		OverallProgress: next * 100 / len(syntheticPhases),
		PhasesCompleted: next,
	}
}

func nextPhaseLabel(idx int) string {
	if idx+1 < len(syntheticPhases) {
		return syntheticPhases[idx+1]
	}
	return ""
}
