// Package loadreg estimates the cognitive load of a response and
// suggests scaffolding when information density runs too high. It only
// annotates or splits text; facts are never rewritten.
package loadreg

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Defaults for the overload trigger.
const (
	DefaultDensityThreshold = 0.5
	DefaultMaxNewConcepts   = 4
)

// Strategy names a scaffolding approach.
type Strategy string

const (
	StrategySegment Strategy = "segment"
	StrategyAnalogy Strategy = "analogy"
	StrategySummary Strategy = "summary"
)

// Scaffolding is a restructuring suggestion for an overloaded response.
type Scaffolding struct {
	Strategy  Strategy `json:"strategy"`
	Segments  int      `json:"recommended_segments,omitempty"`
	Analogies int      `json:"recommended_analogies,omitempty"`
}

// Assessment is the load estimate for one response.
type Assessment struct {
	SentenceCount int          `json:"sentence_count"`
	NewConcepts   int          `json:"new_concept_count"`
	Density       float64      `json:"density"`
	Overloaded    bool         `json:"overloaded"`
	Suggestion    *Scaffolding `json:"suggestion,omitempty"`
}

// Monitor estimates cognitive load from sentence count and unfamiliar
// token density.
type Monitor struct {
	DensityThreshold float64
	MaxNewConcepts   int
}

// NewMonitor creates a monitor with the default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		DensityThreshold: DefaultDensityThreshold,
		MaxNewConcepts:   DefaultMaxNewConcepts,
	}
}

// sentenceSplit matches Latin and CJK sentence terminators.
var sentenceSplit = regexp.MustCompile(`[。！？.!?\n]+`)

// Assess estimates the load of a response given the concept labels the
// reader already knows.
func (m *Monitor) Assess(text string, knownConcepts []string) Assessment {
	sentences := SplitSentences(text)

	known := make(map[string]bool, len(knownConcepts))
	for _, c := range knownConcepts {
		known[strings.ToLower(c)] = true
	}

	// Rough proxy: distinct tokens longer than 3 runes that the reader
	// has not seen count as new concepts.
	seen := make(map[string]bool)
	newConcepts := 0
	for _, tok := range tokenizeWords(text) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if utf8.RuneCountInString(tok) > 3 && !known[tok] {
			newConcepts++
		}
	}

	denom := len(sentences)
	if denom < 1 {
		denom = 1
	}
	density := float64(newConcepts) / float64(denom)

	a := Assessment{
		SentenceCount: len(sentences),
		NewConcepts:   newConcepts,
		Density:       density,
		Overloaded:    density > m.DensityThreshold || newConcepts > m.MaxNewConcepts,
	}
	if a.Overloaded {
		a.Suggestion = suggestScaffolding(newConcepts)
	}
	return a
}

// SplitSentences splits on sentence-terminating punctuation, Latin and
// CJK variants alike.
func SplitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func tokenizeWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '，', '。', ',', '.':
			return true
		}
		return false
	})
}

func suggestScaffolding(newConcepts int) *Scaffolding {
	switch {
	case newConcepts > 6:
		return &Scaffolding{Strategy: StrategySegment, Segments: (newConcepts + 2) / 3}
	case newConcepts > 4:
		return &Scaffolding{Strategy: StrategyAnalogy, Analogies: newConcepts - 3}
	default:
		return &Scaffolding{Strategy: StrategySummary}
	}
}

// RegulateResult is the outcome of one regulation pass.
type RegulateResult struct {
	Original     string     `json:"original_response"`
	Regulated    string     `json:"regulated_response"`
	Assessment   Assessment `json:"assessment"`
	WasRegulated bool       `json:"was_regulated"`
}

// Regulator applies scaffolding markers to overloaded responses.
type Regulator struct {
	monitor *Monitor
}

// NewRegulator wraps a monitor.
func NewRegulator(monitor *Monitor) *Regulator {
	if monitor == nil {
		monitor = NewMonitor()
	}
	return &Regulator{monitor: monitor}
}

// Regulate assesses a response and, when overloaded, annotates or
// splits it according to the suggested scaffolding.
func (r *Regulator) Regulate(text string, knownConcepts []string) RegulateResult {
	assessment := r.monitor.Assess(text, knownConcepts)
	regulated := text
	if assessment.Overloaded {
		regulated = applyScaffolding(text, assessment.Suggestion)
	}
	return RegulateResult{
		Original:     text,
		Regulated:    regulated,
		Assessment:   assessment,
		WasRegulated: assessment.Overloaded,
	}
}

func applyScaffolding(text string, s *Scaffolding) string {
	switch s.Strategy {
	case StrategySegment:
		sentences := SplitSentences(text)
		chunk := len(sentences) / s.Segments
		if chunk < 1 {
			chunk = 1
		}
		var parts []string
		for i := 0; i < len(sentences); i += chunk {
			end := i + chunk
			if end > len(sentences) {
				end = len(sentences)
			}
			parts = append(parts, strings.Join(sentences[i:end], ". ")+".")
		}
		return strings.Join(parts, "\n\n---\n\n")

	case StrategyAnalogy:
		return text + fmt.Sprintf("\n\n[suggest inserting %d analogies to lower the entry barrier]", s.Analogies)

	default:
		return text + "\n\n[suggest appending a one-sentence summary to consolidate understanding]"
	}
}
