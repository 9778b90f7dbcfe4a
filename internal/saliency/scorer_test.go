package saliency

import (
	"math"
	"testing"
	"time"

	"github.com/zeroade/cbma/internal/model"
)

func fixedScorer(now time.Time) *Scorer {
	s := NewScorer(DefaultWeights())
	s.now = func() time.Time { return now }
	return s
}

func TestFrequencyScore(t *testing.T) {
	if got := frequencyScore(model.Episode{RetrievalCount: 0}); got != 0 {
		t.Errorf("expected 0 for never retrieved, got %v", got)
	}
	if got := frequencyScore(model.Episode{RetrievalCount: 15}); got != 1 {
		t.Errorf("expected saturation at 15 retrievals, got %v", got)
	}
	mid := frequencyScore(model.Episode{RetrievalCount: 3})
	if mid <= 0 || mid >= 1 {
		t.Errorf("expected mid-range score, got %v", mid)
	}
}

func TestRecencyScore(t *testing.T) {
	now := time.Now()
	s := fixedScorer(now)

	if got := s.recencyScore(model.Episode{}); got != 0.5 {
		t.Errorf("expected 0.5 for missing timestamp, got %v", got)
	}
	if got := s.recencyScore(model.Episode{Timestamp: now}); got != 1 {
		t.Errorf("expected 1 for a fresh episode, got %v", got)
	}

	halfLife := s.recencyScore(model.Episode{Timestamp: now.AddDate(0, 0, -30)})
	if math.Abs(halfLife-0.5) > 0.01 {
		t.Errorf("expected roughly 0.5 at the 30-day half-life, got %v", halfLife)
	}

	// Clock skew cannot push the dimension over 1.
	if got := s.recencyScore(model.Episode{Timestamp: now.Add(48 * time.Hour)}); got != 1 {
		t.Errorf("expected future timestamp clamped to 1, got %v", got)
	}
}

func TestUserSignalScore(t *testing.T) {
	if got := userSignalScore(model.Episode{UserImportance: 5, EmotionalValence: 1}); got != 1 {
		t.Errorf("expected 1 for max importance and valence, got %v", got)
	}
	// Negative emotion counts as strongly as positive.
	pos := userSignalScore(model.Episode{UserImportance: 3, EmotionalValence: 0.8})
	neg := userSignalScore(model.Episode{UserImportance: 3, EmotionalValence: -0.8})
	if pos != neg {
		t.Errorf("expected symmetric valence, got %v vs %v", pos, neg)
	}
	// Unset importance behaves as the neutral 3.
	if got := userSignalScore(model.Episode{}); got != userSignalScore(model.Episode{UserImportance: 3}) {
		t.Errorf("expected unset importance to default, got %v", got)
	}
}

func TestNoveltyScore(t *testing.T) {
	entries := []model.SemanticEntry{
		{Concept: "spacing effect", Content: "distributed practice beats massed practice"},
	}

	if got := noveltyScore(model.Episode{}, entries); got != 0.5 {
		t.Errorf("expected 0.5 for untagged episode, got %v", got)
	}
	if got := noveltyScore(model.Episode{Tags: []string{"spacing", "practice"}}, entries); got != 0 {
		t.Errorf("expected 0 when every tag is covered, got %v", got)
	}
	if got := noveltyScore(model.Episode{Tags: []string{"metacognition"}}, entries); got != 1 {
		t.Errorf("expected 1 when no tag is covered, got %v", got)
	}
	if got := noveltyScore(model.Episode{Tags: []string{"spacing", "metacognition"}}, entries); got != 0.5 {
		t.Errorf("expected 0.5 for half coverage, got %v", got)
	}
}

func TestConnectionDensityScore(t *testing.T) {
	ep := model.Episode{ID: "ep_001", Tags: []string{"memory"}}

	if got := connectionDensityScore(model.Episode{ID: "ep_001"}, nil); got != 0 {
		t.Errorf("expected 0 for untagged episode, got %v", got)
	}

	all := []model.Episode{
		ep,
		{ID: "ep_002", Tags: []string{"memory", "sleep"}},
		{ID: "ep_003", Tags: []string{"memory"}},
	}
	if got := connectionDensityScore(ep, all); got != 0.5 {
		t.Errorf("expected 0.5 for 2 neighbours, got %v", got)
	}

	for i := 0; i < 4; i++ {
		all = append(all, model.Episode{ID: "extra", Tags: []string{"memory"}})
	}
	if got := connectionDensityScore(ep, all); got != 1 {
		t.Errorf("expected saturation at 4 neighbours, got %v", got)
	}
}

func TestScoreActions(t *testing.T) {
	now := time.Now()
	s := fixedScorer(now)

	high := s.Score(model.Episode{
		ID: "ep_001", Timestamp: now, UserImportance: 5,
		EmotionalValence: 1, RetrievalCount: 15, Tags: []string{"novel-topic"},
	}, nil, nil)
	if high.Action != model.ActionConsolidate {
		t.Errorf("expected consolidate for total %.3f, got %s", high.Total, high.Action)
	}

	low := s.Score(model.Episode{
		ID: "ep_002", Timestamp: now.AddDate(-2, 0, 0), UserImportance: 1,
	}, nil, nil)
	if low.Action != model.ActionPrune {
		t.Errorf("expected prune for total %.3f, got %s", low.Total, low.Action)
	}

	mid := s.Score(model.Episode{ID: "ep_003", UserImportance: 3}, nil, nil)
	if mid.Action != model.ActionRetain {
		t.Errorf("expected retain for total %.3f, got %s", mid.Total, mid.Action)
	}
}

func TestActionThresholdsInclusive(t *testing.T) {
	// Importance 5 with valence 0.125 puts the user signal, and with a
	// single-dimension weighting the total, exactly at the consolidation
	// threshold.
	s := NewScorer(Weights{UserSignal: 1})
	res := s.Score(model.Episode{ID: "ep_001", UserImportance: 5, EmotionalValence: 0.125}, nil, nil)
	if res.Total != ConsolidationThreshold {
		t.Fatalf("expected total exactly %v, got %v", ConsolidationThreshold, res.Total)
	}
	if res.Action != model.ActionConsolidate {
		t.Errorf("expected consolidate at the boundary, got %s", res.Action)
	}

	// Three of four tags covered puts novelty exactly at the pruning
	// threshold.
	s = NewScorer(Weights{Novelty: 1})
	entries := []model.SemanticEntry{{Concept: "notes", Content: "alpha bravo charlie summary"}}
	res = s.Score(model.Episode{
		ID: "ep_002", Tags: []string{"alpha", "bravo", "charlie", "delta"},
	}, entries, nil)
	if res.Total != PruningThreshold {
		t.Fatalf("expected total exactly %v, got %v", PruningThreshold, res.Total)
	}
	if res.Action != model.ActionPrune {
		t.Errorf("expected prune at the boundary, got %s", res.Action)
	}
}

func TestDimensionsStayInRange(t *testing.T) {
	now := time.Now()
	s := fixedScorer(now)

	episodes := []model.Episode{
		{ID: "a", Timestamp: now.Add(72 * time.Hour), RetrievalCount: 500, UserImportance: 5, EmotionalValence: -1, Tags: []string{"x"}},
		{ID: "b"},
		{ID: "c", Timestamp: now.AddDate(-10, 0, 0), Tags: []string{"x", "y", "z"}},
	}
	for _, ep := range episodes {
		res := s.Score(ep, nil, episodes)
		for name, v := range map[string]float64{
			"frequency":  res.Dimensions.Frequency,
			"recency":    res.Dimensions.Recency,
			"user":       res.Dimensions.UserSignal,
			"novelty":    res.Dimensions.Novelty,
			"connection": res.Dimensions.ConnectionDensity,
		} {
			if v < 0 || v > 1 {
				t.Errorf("%s: %s dimension %v out of [0,1]", ep.ID, name, v)
			}
		}
	}
}
