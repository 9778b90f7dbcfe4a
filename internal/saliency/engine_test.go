package saliency

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zeroade/cbma/internal/model"
	"github.com/zeroade/cbma/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewEngine(st, fixedScorer(time.Now()), nil), st
}

func seedEpisodes(t *testing.T, st *store.Store, episodes []model.Episode) {
	t.Helper()
	if _, err := st.ImportEpisodes(context.Background(), episodes); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func highSaliencyEpisode(id string, tags ...string) model.Episode {
	return model.Episode{
		ID: id, Timestamp: time.Now(), Source: "late night session",
		Content: "breakthrough insight about " + strings.Join(tags, " and "),
		Tags:    tags, UserImportance: 5, EmotionalValence: 1, RetrievalCount: 15,
	}
}

func TestRunConsolidatesHighSaliency(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	seedEpisodes(t, st, []model.Episode{highSaliencyEpisode("ep_001", "spacing")})

	event, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if event.TotalScored != 1 || len(event.Consolidated) != 1 {
		t.Fatalf("unexpected event: %+v", event)
	}

	entries, _ := st.Entries(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 semantic entry, got %d", len(entries))
	}
	entry := entries[0]
	if len(entry.SourceEpisodes) != 1 || entry.SourceEpisodes[0] != "ep_001" {
		t.Errorf("entry does not trace its source: %v", entry.SourceEpisodes)
	}
	if !strings.HasPrefix(entry.Content, "(auto-extracted) ") {
		t.Errorf("unexpected entry content %q", entry.Content)
	}

	// The source episode itself stays; consolidation copies, prune removes.
	if _, err := st.GetEpisode(ctx, "ep_001"); err != nil {
		t.Errorf("consolidated episode should remain: %v", err)
	}
}

func TestRunPrunesLowSaliency(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	seedEpisodes(t, st, []model.Episode{{
		ID: "ep_001", Timestamp: time.Now().AddDate(-2, 0, 0),
		Source: "idle remark", Content: "nothing much", UserImportance: 1,
	}})

	event, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(event.Pruned) != 1 || event.Pruned[0] != "ep_001" {
		t.Fatalf("expected ep_001 pruned, got %+v", event)
	}
	if _, err := st.GetEpisode(ctx, "ep_001"); err == nil {
		t.Error("pruned episode still readable")
	}
}

func TestSecondRunDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	seedEpisodes(t, st, []model.Episode{highSaliencyEpisode("ep_001", "spacing")})

	if _, err := e.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	event, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(event.Consolidated) != 0 {
		t.Errorf("second run re-consolidated: %+v", event.Consolidated)
	}

	entries, _ := st.Entries(ctx)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after repeated runs, got %d", len(entries))
	}
}

func TestSiblingEpisodesDedupWithinOneCycle(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	// Both episodes carry the same two tags, and the first episode's
	// content names both, so the entry written for it covers the second.
	seedEpisodes(t, st, []model.Episode{
		highSaliencyEpisode("ep_001", "spacing", "retrieval"),
		highSaliencyEpisode("ep_002", "spacing", "retrieval"),
	})

	event, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(event.Consolidated) != 1 {
		t.Errorf("expected in-cycle dedup to write once, got %d", len(event.Consolidated))
	}
	entries, _ := st.Entries(ctx)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestRunAppendsEvent(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	seedEpisodes(t, st, []model.Episode{
		{ID: "ep_001", Source: "chat", Content: "mildly useful note", UserImportance: 3},
	})

	if _, err := e.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	events, err := st.Events(ctx)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].TotalScored != 1 || events[0].Retained != 1 {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestScoreReportDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t)
	seedEpisodes(t, st, []model.Episode{
		highSaliencyEpisode("ep_001", "spacing"),
		{ID: "ep_002", Timestamp: time.Now().AddDate(-2, 0, 0), Source: "idle", Content: "x", UserImportance: 1},
	})

	scores, err := e.ScoreReport(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Total < scores[1].Total {
		t.Error("report not sorted by total descending")
	}

	episodes, _ := st.Episodes(ctx)
	entries, _ := st.Entries(ctx)
	if len(episodes) != 2 || len(entries) != 0 {
		t.Errorf("report mutated the store: %d episodes, %d entries", len(episodes), len(entries))
	}
}
