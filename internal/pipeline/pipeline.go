// Package pipeline wires the memory layers into a per-turn flow:
// arbitration, dual-store retrieval, attention updates, and load
// regulation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/zeroade/cbma/internal/arbiter"
	"github.com/zeroade/cbma/internal/attention"
	"github.com/zeroade/cbma/internal/fallback"
	"github.com/zeroade/cbma/internal/knowledge"
	"github.com/zeroade/cbma/internal/loadreg"
	"github.com/zeroade/cbma/internal/model"
	"github.com/zeroade/cbma/internal/retrieval"
	"github.com/zeroade/cbma/internal/saliency"
	"github.com/zeroade/cbma/internal/store"
)

// conceptsPerTurn caps how many extracted concepts feed the buffer.
const conceptsPerTurn = 3

// maxConceptRunes filters out full phrases mistaken for concepts.
const maxConceptRunes = 20

// Config assembles a session. Zero values pick the defaults.
type Config struct {
	Index          *knowledge.Index
	Generator      fallback.Generator
	Store          *store.Store
	BufferCapacity int
	CycleThreshold int
	Logger         *zap.Logger
}

// Session owns one conversation's mutable state. A session assumes a
// single caller; no locking happens below it.
type Session struct {
	index       *knowledge.Index
	arbiter     *arbiter.Arbiter
	coordinator *retrieval.Coordinator
	buffer      *attention.Buffer
	loop        *attention.Loop
	regulator   *loadreg.Regulator
	engine      *saliency.Engine
	store       *store.Store
	log         *zap.Logger
	turns       int
}

// NewSession wires all layers together.
func NewSession(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		index:       cfg.Index,
		arbiter:     arbiter.New(cfg.Index, cfg.Generator, log),
		coordinator: retrieval.NewCoordinator(cfg.Store, retrieval.NewAliasTable(), log),
		buffer:      attention.NewBuffer(cfg.BufferCapacity),
		loop:        attention.NewLoop(cfg.CycleThreshold),
		regulator:   loadreg.NewRegulator(loadreg.NewMonitor()),
		engine:      saliency.NewEngine(cfg.Store, saliency.NewScorer(saliency.DefaultWeights()), log),
		store:       cfg.Store,
		log:         log,
	}
}

// TurnResult carries every layer's outcome for one query.
type TurnResult struct {
	Turn        int                    `json:"turn"`
	Query       string                 `json:"query"`
	Arbitration *arbiter.Result        `json:"arbitration"`
	Retrieval   *retrieval.Result      `json:"retrieval"`
	Buffer      []attention.AddResult  `json:"buffer_events,omitempty"`
	Loop        []attention.Encounter  `json:"loop_events,omitempty"`
	Regulation  loadreg.RegulateResult `json:"regulation"`
	Response    string                 `json:"response"`
}

// ProcessQuery runs one conversational turn through every layer.
func (s *Session) ProcessQuery(ctx context.Context, query string) (*TurnResult, error) {
	s.turns++

	arb, err := s.arbiter.Arbitrate(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("arbitrate: %w", err)
	}

	ret, err := s.coordinator.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	res := &TurnResult{
		Turn:        s.turns,
		Query:       query,
		Arbitration: arb,
		Retrieval:   ret,
	}

	for _, concept := range turnConcepts(arb.Concepts, query) {
		res.Buffer = append(res.Buffer, s.buffer.Add(concept, query, attention.SourceConversational))
		res.Loop = append(res.Loop, s.loop.Encounter(concept))
	}

	res.Regulation = s.regulator.Regulate(s.assembleResponse(arb, ret), s.buffer.Labels())
	res.Response = res.Regulation.Regulated

	s.log.Debug("turn complete",
		zap.Int("turn", s.turns),
		zap.String("decision", string(arb.Decision)),
		zap.String("strategy", string(ret.Strategy)))

	return res, nil
}

// assembleResponse stitches the arbitration answer together with the
// strongest retrieved records.
func (s *Session) assembleResponse(arb *arbiter.Result, ret *retrieval.Result) string {
	var parts []string
	if arb.Response != "" {
		parts = append(parts, arb.Response)
	}
	for i, ep := range ret.Episodic {
		if i == 2 {
			break
		}
		parts = append(parts, truncateRunes(ep.Content, 100))
	}
	if len(ret.Semantic) > 0 {
		parts = append(parts, truncateRunes(ret.Semantic[0].Content, 100))
	}
	if len(parts) == 0 {
		return "(no relevant information)"
	}
	return strings.Join(parts, "\n")
}

// turnConcepts picks the concepts that feed the attention buffer:
// arbitration concepts short enough to be labels, or short query tokens
// when none qualify.
func turnConcepts(concepts []string, query string) []string {
	var picked []string
	for _, c := range concepts {
		if utf8.RuneCountInString(c) <= maxConceptRunes {
			picked = append(picked, c)
		}
	}
	if len(picked) == 0 {
		for _, tok := range arbiter.Tokenize(query) {
			if n := utf8.RuneCountInString(tok); n >= 2 && n <= 15 {
				picked = append(picked, tok)
			}
		}
	}
	if len(picked) > conceptsPerTurn {
		picked = picked[:conceptsPerTurn]
	}
	return picked
}

// Remember ingests a conversational turn into the episodic store.
func (s *Session) Remember(ctx context.Context, p store.AddParams) error {
	_, err := s.store.AddEpisode(ctx, p)
	return err
}

// Consolidate runs one consolidation cycle.
func (s *Session) Consolidate(ctx context.Context) (*model.ConsolidationEvent, error) {
	return s.engine.Run(ctx)
}

// Accessors for the command layer.

func (s *Session) Index() *knowledge.Index              { return s.index }
func (s *Session) Coordinator() *retrieval.Coordinator  { return s.coordinator }
func (s *Session) Aliases() *retrieval.AliasTable       { return s.coordinator.Aliases() }
func (s *Session) Buffer() *attention.Buffer            { return s.buffer }
func (s *Session) Loop() *attention.Loop                { return s.loop }
func (s *Session) Engine() *saliency.Engine             { return s.engine }
func (s *Session) Regulator() *loadreg.Regulator        { return s.regulator }
func (s *Session) Store() *store.Store                  { return s.store }
func (s *Session) Turns() int                           { return s.turns }

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
