package attention

import "testing"

func TestLoopLifecycle(t *testing.T) {
	l := NewLoop(3)

	if e := l.Encounter("chunking"); e.Status != StatusNew || e.Count != 1 {
		t.Errorf("first encounter: %+v", e)
	}
	if e := l.Encounter("chunking"); e.Status != StatusCycling || e.Count != 2 {
		t.Errorf("second encounter: %+v", e)
	}
	if e := l.Encounter("chunking"); e.Status != StatusConsolidated || e.Count != 3 {
		t.Errorf("third encounter: %+v", e)
	}

	// Consolidation is terminal; the next encounter starts over.
	if e := l.Encounter("chunking"); e.Status != StatusNew || e.Count != 1 {
		t.Errorf("encounter after consolidation: %+v", e)
	}
}

func TestLoopCaseInsensitive(t *testing.T) {
	l := NewLoop(3)
	l.Encounter("Chunking")
	if e := l.Encounter("chunking"); e.Status != StatusCycling {
		t.Errorf("expected case-insensitive tracking, got %+v", e)
	}
}

func TestCyclingConcepts(t *testing.T) {
	l := NewLoop(3)
	l.Encounter("alpha")
	l.Encounter("alpha")
	l.Encounter("bravo")
	l.Encounter("charlie")
	l.Encounter("charlie")
	l.Encounter("charlie")

	cycling := l.CyclingConcepts()
	if cycling["alpha"] != 2 || cycling["bravo"] != 1 {
		t.Errorf("unexpected cycling set: %v", cycling)
	}
	if _, ok := cycling["charlie"]; ok {
		t.Error("consolidated concept still tracked")
	}
}

func TestLoopDefaultThreshold(t *testing.T) {
	if got := NewLoop(0).Threshold(); got != DefaultCycleThreshold {
		t.Errorf("expected default threshold %d, got %d", DefaultCycleThreshold, got)
	}
}
