// Package arbiter decides, per query, whether to trust the knowledge
// index, blend it with the generative fallback, or fall back entirely.
package arbiter

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/zeroade/cbma/internal/fallback"
	"github.com/zeroade/cbma/internal/knowledge"
	"github.com/zeroade/cbma/internal/model"
)

// Confidence thresholds for the decision rule.
const (
	HighConfidence = 0.85
	LowConfidence  = 0.50
)

// Decision tags the arbitration outcome.
type Decision string

const (
	// DecisionKGPrimary uses only structured hits and suppresses the fallback.
	DecisionKGPrimary Decision = "kg_primary"
	// DecisionHybrid combines structured hits with generated content.
	DecisionHybrid Decision = "hybrid"
	// DecisionLLMPrimary uses the fallback, attaching low-confidence hits
	// as reference only.
	DecisionLLMPrimary Decision = "llm_primary_kg_ref"
	// DecisionLLMFallback has no structured knowledge at all.
	DecisionLLMFallback Decision = "llm_fallback"
)

const maxDisplayHits = 5

// Result is the full arbitration outcome for one query.
type Result struct {
	Decision      Decision       `json:"decision"`
	Rationale     string         `json:"rationale"`
	Response      string         `json:"response"`
	Hits          []model.Triple `json:"hits,omitempty"` // top 5 for display
	HitCount      int            `json:"hit_count"`
	MaxConfidence float64        `json:"max_confidence"`
	Concepts      []string       `json:"concepts_searched"`
	Uncertain     bool           `json:"uncertain,omitempty"`
}

// Arbiter routes queries between the knowledge index and the generative
// fallback. It holds no mutable state; each call is an independent
// classification.
type Arbiter struct {
	index *knowledge.Index
	gen   fallback.Generator
	log   *zap.Logger
}

// New creates an arbiter over the given index and generator.
func New(index *knowledge.Index, gen fallback.Generator, log *zap.Logger) *Arbiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Arbiter{index: index, gen: gen, log: log}
}

// Arbitrate classifies the query by the best structured confidence
// available and composes the response accordingly. Concepts may be
// passed explicitly; otherwise they are extracted from the query. The
// only side effect is the fallback call when the decision requires one.
func (a *Arbiter) Arbitrate(ctx context.Context, query string, concepts []string) (*Result, error) {
	if len(concepts) == 0 {
		concepts = a.extractConcepts(query)
	}

	var hits []model.Triple
	seen := make(map[[3]string]bool)
	for _, concept := range concepts {
		for _, t := range a.index.Query(concept, "") {
			key := [3]string{t.Subject, t.Relation, t.Object}
			if !seen[key] {
				seen[key] = true
				hits = append(hits, t)
			}
		}
	}
	sortByConfidence(hits)
	maxConf := knowledge.MaxConfidence(hits)

	res := &Result{
		HitCount:      len(hits),
		MaxConfidence: maxConf,
		Concepts:      concepts,
	}
	if len(hits) > maxDisplayHits {
		res.Hits = hits[:maxDisplayHits]
	} else {
		res.Hits = hits
	}

	switch {
	case maxConf >= HighConfidence:
		res.Decision = DecisionKGPrimary
		res.Rationale = fmt.Sprintf("knowledge index has high-confidence facts (max=%.2f); using symbolic track only", maxConf)
		res.Response = formatKGResponse(hits)

	case maxConf >= LowConfidence:
		reply, err := a.gen.Generate(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		res.Decision = DecisionHybrid
		res.Rationale = fmt.Sprintf("knowledge index has partial coverage (max=%.2f); blending both tracks", maxConf)
		res.Response = formatHybridResponse(hits, reply)

	case maxConf > 0:
		reply, err := a.gen.Generate(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		res.Decision = DecisionLLMPrimary
		res.Rationale = fmt.Sprintf("knowledge index confidence too low (max=%.2f); generated answer primary, facts attached for reference", maxConf)
		res.Response = formatReferenceResponse(hits, reply)

	default:
		reply, err := a.gen.Generate(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		res.Decision = DecisionLLMFallback
		res.Rationale = "no structured knowledge found; falling back entirely to generation, output uncertainty is high"
		res.Response = reply.Content
		res.Uncertain = true
	}

	a.log.Debug("arbitration",
		zap.String("decision", string(res.Decision)),
		zap.Int("hits", res.HitCount),
		zap.Float64("max_confidence", maxConf),
		zap.Strings("concepts", concepts))

	return res, nil
}

// extractConcepts matches every known subject/object term against the
// query, falling back to plain tokens (longer than 2 runes, max 5) when
// nothing matches.
func (a *Arbiter) extractConcepts(query string) []string {
	queryLower := strings.ToLower(query)

	var found []string
	for _, term := range a.index.Terms() {
		if utf8.RuneCountInString(term) > 2 && strings.Contains(queryLower, term) {
			found = append(found, term)
		}
	}
	if len(found) > 0 {
		return found
	}

	for _, tok := range Tokenize(query) {
		if utf8.RuneCountInString(tok) > 2 {
			found = append(found, tok)
			if len(found) == 5 {
				break
			}
		}
	}
	return found
}

// Tokenize splits a query on whitespace and common Latin/CJK
// punctuation, lowercasing each token.
func Tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '?', '!', ';', ':',
			'，', '。', '？', '！', '、', '；', '：', '/':
			return true
		}
		return false
	})
}

func sortByConfidence(hits []model.Triple) {
	// Stable insertion-order tiebreak: hits arrive grouped per concept in
	// index ranking order, so only confidence needs reordering.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Confidence > hits[j-1].Confidence; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}

func formatKGResponse(hits []model.Triple) string {
	lines := []string{"[symbolic] knowledge index results:"}
	for _, t := range topN(hits, 5) {
		lines = append(lines, fmt.Sprintf("  - %s -[%s]-> %s (confidence: %.2f)", t.Subject, t.Relation, t.Object, t.Confidence))
	}
	return strings.Join(lines, "\n")
}

func formatHybridResponse(hits []model.Triple, reply fallback.Reply) string {
	lines := []string{"[hybrid] structured facts with generated elaboration:"}
	lines = append(lines, "  facts:")
	for _, t := range topN(hits, 3) {
		lines = append(lines, fmt.Sprintf("    - %s -[%s]-> %s (confidence: %.2f)", t.Subject, t.Relation, t.Object, t.Confidence))
	}
	lines = append(lines, "  elaboration: "+reply.Content)
	return strings.Join(lines, "\n")
}

func formatReferenceResponse(hits []model.Triple, reply fallback.Reply) string {
	lines := []string{"[generated] answer below; low-confidence facts attached for reference:"}
	lines = append(lines, "  "+reply.Content)
	lines = append(lines, "  reference facts:")
	for _, t := range topN(hits, 3) {
		lines = append(lines, fmt.Sprintf("    - %s -[%s]-> %s (confidence: %.2f)", t.Subject, t.Relation, t.Object, t.Confidence))
	}
	return strings.Join(lines, "\n")
}

func topN(hits []model.Triple, n int) []model.Triple {
	if len(hits) > n {
		return hits[:n]
	}
	return hits
}
