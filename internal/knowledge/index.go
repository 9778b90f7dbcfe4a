// Package knowledge holds the structured fact index and its lookups.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeroade/cbma/internal/model"
)

// Index answers substring-based lookups over a fixed set of triples.
// Triples are immutable after construction.
type Index struct {
	triples   []model.Triple
	bySubject map[string][]int // lowercased subject -> triple positions
}

// NewIndex builds an index from pre-parsed triples. Malformed triples
// (empty subject or confidence outside [0,1]) fail construction; no
// partial index is returned.
func NewIndex(triples []model.Triple) (*Index, error) {
	idx := &Index{
		triples:   make([]model.Triple, 0, len(triples)),
		bySubject: make(map[string][]int),
	}
	for i, t := range triples {
		if strings.TrimSpace(t.Subject) == "" {
			return nil, fmt.Errorf("triple %d: empty subject", i)
		}
		if t.Confidence < 0 || t.Confidence > 1 {
			return nil, fmt.Errorf("triple %d (%s): confidence %v out of range [0,1]", i, t.Subject, t.Confidence)
		}
		key := strings.ToLower(t.Subject)
		idx.bySubject[key] = append(idx.bySubject[key], len(idx.triples))
		idx.triples = append(idx.triples, t)
	}
	return idx, nil
}

// Len returns the number of indexed triples.
func (idx *Index) Len() int { return len(idx.triples) }

// Triples returns the indexed triples in load order.
func (idx *Index) Triples() []model.Triple {
	out := make([]model.Triple, len(idx.triples))
	copy(out, idx.triples)
	return out
}

// Query returns triples whose subject matches the concept as a
// case-insensitive substring (either direction), plus triples whose
// object contains the concept. An optional relation narrows matches to
// triples whose relation contains it. Results are deduplicated and
// ordered by confidence descending, load order as tiebreak.
func (idx *Index) Query(concept, relation string) []model.Triple {
	concept = strings.ToLower(concept)
	relation = strings.ToLower(relation)

	matched := make(map[int]bool)
	var positions []int

	add := func(pos int) {
		t := idx.triples[pos]
		if relation != "" && !strings.Contains(strings.ToLower(t.Relation), relation) {
			return
		}
		if !matched[pos] {
			matched[pos] = true
			positions = append(positions, pos)
		}
	}

	for key, bucket := range idx.bySubject {
		if strings.Contains(key, concept) || strings.Contains(concept, key) {
			for _, pos := range bucket {
				add(pos)
			}
		}
	}
	for pos, t := range idx.triples {
		if strings.Contains(strings.ToLower(t.Object), concept) {
			add(pos)
		}
	}

	// Map iteration order above is arbitrary; the sort below makes the
	// final ranking deterministic.
	sort.Slice(positions, func(i, j int) bool {
		a, b := idx.triples[positions[i]], idx.triples[positions[j]]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return positions[i] < positions[j]
	})

	results := make([]model.Triple, 0, len(positions))
	for _, pos := range positions {
		results = append(results, idx.triples[pos])
	}
	return results
}

// MaxConfidence returns the highest confidence among the given triples,
// or 0 when the slice is empty.
func MaxConfidence(triples []model.Triple) float64 {
	max := 0.0
	for _, t := range triples {
		if t.Confidence > max {
			max = t.Confidence
		}
	}
	return max
}

// Terms returns the distinct lowercased subjects and objects in load
// order. The arbiter matches these against queries during concept
// extraction.
func (idx *Index) Terms() []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range idx.triples {
		for _, raw := range []string{t.Subject, t.Object} {
			term := strings.ToLower(raw)
			if term != "" && !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	return terms
}
