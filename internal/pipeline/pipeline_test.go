package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/zeroade/cbma/internal/arbiter"
	"github.com/zeroade/cbma/internal/fallback"
	"github.com/zeroade/cbma/internal/knowledge"
	"github.com/zeroade/cbma/internal/model"
	"github.com/zeroade/cbma/internal/store"
)

func newTestSession(t *testing.T, triples []model.Triple) *Session {
	t.Helper()
	idx, err := knowledge.NewIndex(triples)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewSession(Config{
		Index:     idx,
		Generator: fallback.NewStaticGenerator(),
		Store:     st,
	})
}

func TestProcessQueryRunsEveryLayer(t *testing.T) {
	s := newTestSession(t, []model.Triple{
		{Subject: "working memory", Relation: "capacity", Object: "about four chunks", Confidence: 0.95},
	})
	if err := s.Remember(context.Background(), store.AddParams{
		Source: "earlier chat", Content: "we discussed working memory limits", Tags: []string{"memory"},
	}); err != nil {
		t.Fatalf("remember: %v", err)
	}

	res, err := s.ProcessQuery(context.Background(), "tell me about working memory")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if res.Turn != 1 {
		t.Errorf("expected turn 1, got %d", res.Turn)
	}
	if res.Arbitration == nil || res.Arbitration.Decision != arbiter.DecisionKGPrimary {
		t.Errorf("unexpected arbitration: %+v", res.Arbitration)
	}
	if res.Retrieval == nil {
		t.Fatal("missing retrieval result")
	}
	if len(res.Buffer) == 0 || len(res.Loop) == 0 {
		t.Errorf("expected buffer and loop events, got %d and %d", len(res.Buffer), len(res.Loop))
	}
	if res.Response == "" {
		t.Error("expected a composed response")
	}
}

func TestTurnCounterAdvances(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	s.ProcessQuery(ctx, "first question here")
	res, err := s.ProcessQuery(ctx, "second question here")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Turn != 2 || s.Turns() != 2 {
		t.Errorf("expected turn 2, got %d (session %d)", res.Turn, s.Turns())
	}
}

func TestRepeatedConceptConsolidatesInLoop(t *testing.T) {
	s := newTestSession(t, []model.Triple{
		{Subject: "chunking", Relation: "extends", Object: "recall span", Confidence: 0.9},
	})
	ctx := context.Background()

	var consolidated bool
	for i := 0; i < 3; i++ {
		res, err := s.ProcessQuery(ctx, "explain chunking")
		if err != nil {
			t.Fatalf("turn %d: %v", i+1, err)
		}
		for _, ev := range res.Loop {
			if ev.Status == "consolidated" {
				consolidated = true
			}
		}
	}
	if !consolidated {
		t.Error("expected a concept to consolidate after three encounters")
	}
}

func TestConsolidateWritesEvent(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	if err := s.Remember(ctx, store.AddParams{Source: "chat", Content: "a note", Importance: 3}); err != nil {
		t.Fatalf("remember: %v", err)
	}
	event, err := s.Consolidate(ctx)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if event.TotalScored != 1 {
		t.Errorf("expected 1 scored, got %d", event.TotalScored)
	}

	events, err := s.Store().Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event recorded, got %d", len(events))
	}
}

func TestTurnConceptsFallBackToTokens(t *testing.T) {
	concepts := turnConcepts(nil, "spacing effect retrieval practice")
	if len(concepts) != 3 {
		t.Fatalf("expected cap of 3 concepts, got %v", concepts)
	}

	long := "this concept label is far too long to sit in the buffer"
	concepts = turnConcepts([]string{long, "chunking"}, "ignored")
	if len(concepts) != 1 || concepts[0] != "chunking" {
		t.Errorf("expected long labels filtered, got %v", concepts)
	}
}
