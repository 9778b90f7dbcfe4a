// Package saliency scores episodic records on five signals and drives
// the consolidate/prune/retain cycle over long-term storage.
package saliency

import (
	"math"
	"strings"
	"time"

	"github.com/zeroade/cbma/internal/model"
)

// Action thresholds. Boundaries are inclusive: a total of exactly 0.65
// consolidates and exactly 0.25 prunes.
const (
	ConsolidationThreshold = 0.65
	PruningThreshold       = 0.25
)

// frequencySaturation is the retrieval count at which the frequency
// dimension reaches 1.
const frequencySaturation = 15

// recencyHalfLifeDays controls the exponential recency decay.
const recencyHalfLifeDays = 30

// Weights are the per-dimension weights of the composite score.
type Weights struct {
	Frequency         float64
	Recency           float64
	UserSignal        float64
	Novelty           float64
	ConnectionDensity float64
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{
		Frequency:         0.25,
		Recency:           0.20,
		UserSignal:        0.25,
		Novelty:           0.15,
		ConnectionDensity: 0.15,
	}
}

// Scorer computes saliency scores for episodes.
type Scorer struct {
	weights Weights
	now     func() time.Time
}

// NewScorer creates a scorer with the given weights. Zero-value weights
// fall back to the defaults.
func NewScorer(weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights, now: time.Now}
}

// Score computes all five dimensions for one episode against the
// semantic entries and the full episodic set, and classifies the
// resulting total.
func (s *Scorer) Score(ep model.Episode, entries []model.SemanticEntry, all []model.Episode) model.ScoreResult {
	dims := model.Dimensions{
		Frequency:         frequencyScore(ep),
		Recency:           s.recencyScore(ep),
		UserSignal:        userSignalScore(ep),
		Novelty:           noveltyScore(ep, entries),
		ConnectionDensity: connectionDensityScore(ep, all),
	}

	total := s.weights.Frequency*dims.Frequency +
		s.weights.Recency*dims.Recency +
		s.weights.UserSignal*dims.UserSignal +
		s.weights.Novelty*dims.Novelty +
		s.weights.ConnectionDensity*dims.ConnectionDensity

	action := model.ActionRetain
	switch {
	case total >= ConsolidationThreshold:
		action = model.ActionConsolidate
	case total <= PruningThreshold:
		action = model.ActionPrune
	}

	return model.ScoreResult{
		EpisodeID:  ep.ID,
		Total:      total,
		Dimensions: dims,
		Action:     action,
	}
}

// frequencyScore is log-scaled retrieval frequency, saturating near 15
// retrievals.
func frequencyScore(ep model.Episode) float64 {
	return clamp01(math.Log1p(float64(ep.RetrievalCount)) / math.Log1p(frequencySaturation))
}

// recencyScore decays exponentially with a 30-day half-life. A missing
// timestamp scores the neutral 0.5; it never fails.
func (s *Scorer) recencyScore(ep model.Episode) float64 {
	if ep.Timestamp.IsZero() {
		return 0.5
	}
	days := s.now().Sub(ep.Timestamp).Hours() / 24
	return clamp01(math.Exp(-0.693 * days / recencyHalfLifeDays))
}

// userSignalScore blends explicit importance with emotional intensity.
// Strong emotion counts in either direction.
func userSignalScore(ep model.Episode) float64 {
	importance := ep.UserImportance
	if importance == 0 {
		importance = 3
	}
	return 0.6*(float64(importance)/5) + 0.4*math.Abs(ep.EmotionalValence)
}

// noveltyScore is the fraction of the episode's tags NOT already
// covered by the semantic store. No tags means unknown novelty, 0.5.
func noveltyScore(ep model.Episode, entries []model.SemanticEntry) float64 {
	if len(ep.Tags) == 0 {
		return 0.5
	}

	covered := make(map[string]bool)
	for _, entry := range entries {
		text := strings.ToLower(entry.Concept + " " + entry.Content)
		for _, tag := range ep.Tags {
			if strings.Contains(text, strings.ToLower(tag)) {
				covered[strings.ToLower(tag)] = true
			}
		}
	}

	distinct := make(map[string]bool)
	for _, tag := range ep.Tags {
		distinct[strings.ToLower(tag)] = true
	}
	return 1 - float64(len(covered))/float64(len(distinct))
}

// connectionDensityScore counts other episodes sharing at least one tag,
// maxing out at 4 neighbours. No tags means no connections.
func connectionDensityScore(ep model.Episode, all []model.Episode) float64 {
	if len(ep.Tags) == 0 {
		return 0
	}
	tags := make(map[string]bool)
	for _, tag := range ep.Tags {
		tags[strings.ToLower(tag)] = true
	}

	connections := 0
	for _, other := range all {
		if other.ID == ep.ID {
			continue
		}
		for _, tag := range other.Tags {
			if tags[strings.ToLower(tag)] {
				connections++
				break
			}
		}
	}
	return clamp01(float64(connections) / 4)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
