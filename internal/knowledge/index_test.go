package knowledge

import (
	"testing"

	"github.com/zeroade/cbma/internal/model"
)

func testTriples() []model.Triple {
	return []model.Triple{
		{Subject: "working memory", Relation: "capacity", Object: "about four chunks", Confidence: 0.95},
		{Subject: "working memory", Relation: "duration", Object: "seconds without rehearsal", Confidence: 0.80},
		{Subject: "spacing effect", Relation: "improves", Object: "long-term retention", Confidence: 0.90},
		{Subject: "chunking", Relation: "extends", Object: "working memory", Confidence: 0.85},
	}
}

func TestNewIndexRejectsMalformed(t *testing.T) {
	if _, err := NewIndex([]model.Triple{{Subject: "", Relation: "r", Object: "o", Confidence: 0.5}}); err == nil {
		t.Error("expected error for empty subject")
	}
	if _, err := NewIndex([]model.Triple{{Subject: "s", Relation: "r", Object: "o", Confidence: 1.5}}); err == nil {
		t.Error("expected error for confidence > 1")
	}
	if _, err := NewIndex([]model.Triple{{Subject: "s", Relation: "r", Object: "o", Confidence: -0.1}}); err == nil {
		t.Error("expected error for negative confidence")
	}
}

func TestQueryBySubject(t *testing.T) {
	idx, err := NewIndex(testTriples())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	hits := idx.Query("working memory", "")
	// Two subject matches plus the chunking triple via its object.
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Confidence != 0.95 {
		t.Errorf("expected highest confidence first, got %.2f", hits[0].Confidence)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Confidence > hits[i-1].Confidence {
			t.Fatal("hits not sorted by confidence descending")
		}
	}
}

func TestQuerySubstringBothDirections(t *testing.T) {
	idx, _ := NewIndex(testTriples())

	// Query term contained in the subject.
	if hits := idx.Query("spacing", ""); len(hits) != 1 {
		t.Errorf("expected 1 hit for partial subject, got %d", len(hits))
	}
	// Subject contained in the query term.
	if hits := idx.Query("the spacing effect in practice", ""); len(hits) != 1 {
		t.Errorf("expected 1 hit for subject inside query, got %d", len(hits))
	}
}

func TestQueryRelationFilter(t *testing.T) {
	idx, _ := NewIndex(testTriples())

	hits := idx.Query("working memory", "capacity")
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit with relation filter, got %d", len(hits))
	}
	if hits[0].Object != "about four chunks" {
		t.Errorf("wrong triple: %+v", hits[0])
	}
}

func TestQueryNoMatch(t *testing.T) {
	idx, _ := NewIndex(testTriples())
	if hits := idx.Query("quantum entanglement", ""); len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestEmptyIndex(t *testing.T) {
	idx, err := NewIndex(nil)
	if err != nil {
		t.Fatalf("empty index should build: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected empty index, got %d", idx.Len())
	}
	if hits := idx.Query("anything", ""); len(hits) != 0 {
		t.Errorf("expected no hits from empty index, got %d", len(hits))
	}
}

func TestMaxConfidence(t *testing.T) {
	if got := MaxConfidence(nil); got != 0 {
		t.Errorf("expected 0 for empty slice, got %v", got)
	}
	idx, _ := NewIndex(testTriples())
	if got := MaxConfidence(idx.Triples()); got != 0.95 {
		t.Errorf("expected 0.95, got %v", got)
	}
}

func TestTermsDistinctInLoadOrder(t *testing.T) {
	idx, _ := NewIndex(testTriples())
	terms := idx.Terms()

	if terms[0] != "working memory" {
		t.Errorf("expected first term 'working memory', got %q", terms[0])
	}
	seen := make(map[string]bool)
	for _, term := range terms {
		if seen[term] {
			t.Errorf("duplicate term %q", term)
		}
		seen[term] = true
	}
	// "working memory" appears as both subject and object; counted once.
	if !seen["chunking"] || !seen["long-term retention"] {
		t.Errorf("missing expected terms: %v", terms)
	}
}
