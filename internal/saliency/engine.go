package saliency

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zeroade/cbma/internal/model"
	"github.com/zeroade/cbma/internal/store"
)

// autoExtractLimit caps how much episode content a new semantic entry
// carries.
const autoExtractLimit = 100

// Engine orchestrates the consolidation cycle: score every episode,
// promote high scorers into semantic entries, prune low scorers, and
// log the event. A cycle runs to completion; the episodic store is not
// consistent mid-cycle.
type Engine struct {
	store  *store.Store
	scorer *Scorer
	log    *zap.Logger
}

// NewEngine creates a consolidation engine over the store.
func NewEngine(st *store.Store, scorer *Scorer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if scorer == nil {
		scorer = NewScorer(DefaultWeights())
	}
	return &Engine{store: st, scorer: scorer, log: log}
}

// Run executes one full cycle and returns the appended event.
func (e *Engine) Run(ctx context.Context) (*model.ConsolidationEvent, error) {
	episodes, err := e.store.Episodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load episodes: %w", err)
	}
	entries, err := e.store.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	byID := make(map[string]model.Episode, len(episodes))
	scores := make([]model.ScoreResult, 0, len(episodes))
	for _, ep := range episodes {
		byID[ep.ID] = ep
		scores = append(scores, e.scorer.Score(ep, entries, episodes))
	}

	event := &model.ConsolidationEvent{
		Timestamp:   time.Now().UTC(),
		TotalScored: len(scores),
	}

	for _, sc := range scores {
		switch sc.Action {
		case model.ActionConsolidate:
			ep := byID[sc.EpisodeID]
			if alreadyCaptured(ep, entries) {
				continue
			}
			entry, err := e.store.AddEntry(ctx,
				fmt.Sprintf("insight distilled from %q", truncateRunes(ep.Source, 30)),
				extractPattern(ep.Content),
				[]string{ep.ID},
				sc.Total)
			if err != nil {
				return nil, fmt.Errorf("consolidate %s: %w", ep.ID, err)
			}
			// New entries join the dedup set so one cycle cannot write
			// near-duplicates for sibling episodes.
			entries = append(entries, *entry)
			event.Consolidated = append(event.Consolidated, model.Consolidated{
				SourceEpisode: ep.ID,
				NewEntry:      entry.ID,
				Concept:       entry.Concept,
			})

		case model.ActionPrune:
			if err := e.store.DeleteEpisode(ctx, sc.EpisodeID); err != nil {
				return nil, fmt.Errorf("prune %s: %w", sc.EpisodeID, err)
			}
			event.Pruned = append(event.Pruned, sc.EpisodeID)

		default:
			event.Retained++
		}
	}

	if err := e.store.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	e.log.Info("consolidation cycle",
		zap.Int("scored", event.TotalScored),
		zap.Int("consolidated", len(event.Consolidated)),
		zap.Int("pruned", len(event.Pruned)),
		zap.Int("retained", event.Retained))

	return event, nil
}

// ScoreReport scores every episode without mutating anything, sorted by
// total descending.
func (e *Engine) ScoreReport(ctx context.Context) ([]model.ScoreResult, error) {
	episodes, err := e.store.Episodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load episodes: %w", err)
	}
	entries, err := e.store.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	scores := make([]model.ScoreResult, 0, len(episodes))
	for _, ep := range episodes {
		sc := e.scorer.Score(ep, entries, episodes)
		sc.Source = truncateRunes(ep.Source, 40)
		scores = append(scores, sc)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].EpisodeID < scores[j].EpisodeID
	})
	return scores, nil
}

// alreadyCaptured is the dedup check before writing a semantic entry:
// the entry lists this episode as a source, or at least two of the
// episode's tags appear in the entry's content. Deliberately
// approximate; both false positives and false negatives are accepted.
func alreadyCaptured(ep model.Episode, entries []model.SemanticEntry) bool {
	for _, entry := range entries {
		for _, src := range entry.SourceEpisodes {
			if src == ep.ID {
				return true
			}
		}
		content := strings.ToLower(entry.Content)
		overlap := 0
		for _, tag := range ep.Tags {
			if strings.Contains(content, strings.ToLower(tag)) {
				overlap++
			}
		}
		if overlap >= 2 {
			return true
		}
	}
	return false
}

// extractPattern frames an episode's content as a generalized insight,
// truncated to the extract limit.
func extractPattern(content string) string {
	runes := []rune(content)
	if len(runes) > autoExtractLimit {
		return "(auto-extracted) " + string(runes[:autoExtractLimit]) + "..."
	}
	return "(auto-extracted) " + content
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
