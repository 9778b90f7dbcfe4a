package attention

import (
	"strings"
	"testing"
)

func TestAddUnderCapacity(t *testing.T) {
	b := NewBuffer(5)

	res := b.Add("chunking", "grouping items into units", SourceConversational)
	if res.Action != ActionAdded {
		t.Errorf("expected added, got %s", res.Action)
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 chunk, got %d", b.Len())
	}
}

func TestRefreshBySubstringOverlap(t *testing.T) {
	b := NewBuffer(5)
	b.Add("working memory", "limited capacity store", SourceConversational)

	// New label contained in an existing label.
	res := b.Add("memory", "anything", SourceConversational)
	if res.Action != ActionRefreshed {
		t.Errorf("expected refreshed, got %s", res.Action)
	}
	// Existing label contained in the new label.
	res = b.Add("working memory capacity", "anything", SourceConversational)
	if res.Action != ActionRefreshed {
		t.Errorf("expected refreshed, got %s", res.Action)
	}
	if b.Len() != 1 {
		t.Errorf("refresh must not grow the buffer, got %d chunks", b.Len())
	}

	state := b.State()
	if state[0].AccessCount != 2 {
		t.Errorf("expected 2 accesses, got %d", state[0].AccessCount)
	}
}

func TestOverflowCompresses(t *testing.T) {
	b := NewBuffer(3)
	b.Add("alpha", "content a", SourceConversational)
	b.Add("bravo", "content b", SourceConversational)
	b.Add("charlie", "content c", SourceConversational)

	res := b.Add("delta", "content d", SourceConversational)
	if res.Action != ActionCompressed {
		t.Fatalf("expected compressed, got %s", res.Action)
	}
	if len(res.Evicted) != 2 {
		t.Errorf("expected 2 evicted, got %v", res.Evicted)
	}
	if b.Len() != 3 {
		t.Errorf("capacity invariant violated: %d chunks in capacity-3 buffer", b.Len())
	}

	var compressed *Chunk
	for _, chunk := range b.State() {
		if chunk.Compressed {
			c := chunk
			compressed = &c
		}
	}
	if compressed == nil {
		t.Fatal("expected a compressed chunk in the buffer")
	}
	if !strings.HasPrefix(compressed.Concept, "[compressed] ") {
		t.Errorf("unexpected compressed label %q", compressed.Concept)
	}
	if len(compressed.Contains) != 2 {
		t.Errorf("expected compressed chunk to list 2 labels, got %v", compressed.Contains)
	}
	if !strings.Contains(compressed.Content, "(chunked summary)") {
		t.Errorf("unexpected compressed content %q", compressed.Content)
	}

	history := b.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 compression record, got %d", len(history))
	}
	if len(history[0].Evicted) != 2 || history[0].NewConcept != "delta" {
		t.Errorf("unexpected record %+v", history[0])
	}
}

func TestEvictionPrefersLowAccess(t *testing.T) {
	b := NewBuffer(3)
	b.Add("alpha", "a", SourceConversational)
	b.Add("bravo", "b", SourceConversational)
	b.Add("charlie", "c", SourceConversational)

	// Heavily reuse charlie so alpha and bravo are the weakest.
	b.Add("charlie", "again", SourceConversational)
	b.Add("charlie", "again", SourceConversational)

	res := b.Add("delta", "d", SourceConversational)
	for _, label := range res.Evicted {
		if label == "charlie" {
			t.Errorf("frequently accessed chunk evicted: %v", res.Evicted)
		}
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	b := NewBuffer(4)
	labels := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	for _, label := range labels {
		b.Add(label, "content of "+label, SourceConversational)
		if b.Len() > b.Capacity() {
			t.Fatalf("buffer grew to %d over capacity %d", b.Len(), b.Capacity())
		}
	}
}

func TestActiveContextBumpsAccess(t *testing.T) {
	b := NewBuffer(5)
	b.Add("alpha", "content a", SourceEpisodic)
	b.Add("bravo", "content b", SourceSemantic)

	ctx := b.ActiveContext()
	if !strings.Contains(ctx, "[alpha] content a") || !strings.Contains(ctx, "[bravo] content b") {
		t.Errorf("unexpected context %q", ctx)
	}
	for _, chunk := range b.State() {
		if chunk.AccessCount != 1 {
			t.Errorf("%s: expected access count 1 after context read, got %d", chunk.Concept, chunk.AccessCount)
		}
	}
}

func TestDefaultCapacity(t *testing.T) {
	if got := NewBuffer(0).Capacity(); got != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, got)
	}
}

func TestTinyCapacityClamped(t *testing.T) {
	b := NewBuffer(1)
	if b.Capacity() != 2 {
		t.Fatalf("expected capacity raised to 2, got %d", b.Capacity())
	}

	b.Add("alpha", "content a", SourceConversational)
	b.Add("bravo", "content b", SourceConversational)
	res := b.Add("charlie", "content c", SourceConversational)
	if res.Action != ActionCompressed {
		t.Errorf("expected overflow to compress, got %s", res.Action)
	}
	if b.Len() > b.Capacity() {
		t.Errorf("capacity invariant violated: %d chunks in capacity-%d buffer", b.Len(), b.Capacity())
	}
}
