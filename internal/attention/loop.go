package attention

import "strings"

// DefaultCycleThreshold is how many encounters consolidate a concept.
const DefaultCycleThreshold = 3

// LoopStatus is a concept's reinforcement state.
type LoopStatus string

const (
	StatusNew          LoopStatus = "new"
	StatusCycling      LoopStatus = "cycling"
	StatusConsolidated LoopStatus = "consolidated"
)

// Encounter reports a concept's state after one encounter.
type Encounter struct {
	Concept string     `json:"concept"`
	Status  LoopStatus `json:"status"`
	Count   int        `json:"count"`
}

// Loop tracks per-concept repetition, promoting a concept to
// consolidated once it has cycled often enough. Consolidation is
// terminal: the concept leaves tracking and a later encounter starts
// over as new.
type Loop struct {
	threshold int
	cycling   map[string]int
}

// NewLoop creates a loop with the given threshold
// (DefaultCycleThreshold when <= 0).
func NewLoop(threshold int) *Loop {
	if threshold <= 0 {
		threshold = DefaultCycleThreshold
	}
	return &Loop{threshold: threshold, cycling: make(map[string]int)}
}

// Threshold returns the consolidation threshold.
func (l *Loop) Threshold() int { return l.threshold }

// Encounter registers one encounter with a concept (case-insensitive)
// and returns its resulting state.
func (l *Loop) Encounter(concept string) Encounter {
	key := strings.ToLower(concept)
	count, ok := l.cycling[key]
	if !ok {
		l.cycling[key] = 1
		return Encounter{Concept: concept, Status: StatusNew, Count: 1}
	}

	count++
	if count >= l.threshold {
		delete(l.cycling, key)
		return Encounter{Concept: concept, Status: StatusConsolidated, Count: count}
	}
	l.cycling[key] = count
	return Encounter{Concept: concept, Status: StatusCycling, Count: count}
}

// CyclingConcepts returns a copy of the concepts still cycling with
// their counts. Consolidated concepts are absent.
func (l *Loop) CyclingConcepts() map[string]int {
	out := make(map[string]int, len(l.cycling))
	for concept, count := range l.cycling {
		out[concept] = count
	}
	return out
}
