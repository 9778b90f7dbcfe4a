package store

import (
	"context"
	"sort"
	"strings"

	"github.com/zeroade/cbma/internal/model"
)

// ScoredEpisode is an episode with its term relevance.
type ScoredEpisode struct {
	model.Episode
	Relevance float64 `json:"relevance"`
}

// ScoredEntry is a semantic entry with its term relevance.
type ScoredEntry struct {
	model.SemanticEntry
	Relevance float64 `json:"relevance"`
}

// SearchEpisodes scores every episode against the term set and returns
// the matches sorted by relevance descending (id ascending on ties).
// Zero matches is a valid outcome, not an error.
func (s *Store) SearchEpisodes(ctx context.Context, terms []string) ([]ScoredEpisode, error) {
	episodes, err := s.Episodes(ctx)
	if err != nil {
		return nil, err
	}

	var results []ScoredEpisode
	for _, ep := range episodes {
		text := strings.ToLower(ep.Content + " " + strings.Join(ep.Tags, " "))
		if score := relevance(text, terms); score > 0 {
			results = append(results, ScoredEpisode{Episode: ep, Relevance: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// SearchEntries scores every semantic entry against the term set.
func (s *Store) SearchEntries(ctx context.Context, terms []string) ([]ScoredEntry, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	var results []ScoredEntry
	for _, entry := range entries {
		text := strings.ToLower(entry.Concept + " " + entry.Content)
		if score := relevance(text, terms); score > 0 {
			results = append(results, ScoredEntry{SemanticEntry: entry, Relevance: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// relevance is the fraction of terms found as substrings in the text.
// A deliberately rough lexical heuristic, not a semantic measure.
func relevance(text string, terms []string) float64 {
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	denom := len(terms)
	if denom < 1 {
		denom = 1
	}
	return float64(hits) / float64(denom)
}
