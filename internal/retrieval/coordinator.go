// Package retrieval coordinates search across the episodic and
// semantic stores, with alias expansion and bidirectional compensation.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zeroade/cbma/internal/store"
)

// Strategy names which store to trust more when the other is sparse.
type Strategy string

const (
	StrategyBoth                 Strategy = "both_available"
	StrategyEpisodicPrimary      Strategy = "episodic_primary"
	StrategySemanticCompensation Strategy = "semantic_compensation"
	StrategyInsufficient         Strategy = "insufficient"
)

// A store side is sufficient when it has enough results above this
// relevance.
const sufficientRelevance = 0.3

const (
	maxEpisodicResults = 5
	maxSemanticResults = 3
	retrievalBumpTopN  = 3
)

// Result is the outcome of one dual-store search.
type Result struct {
	Strategy      Strategy              `json:"strategy"`
	Rationale     string                `json:"rationale"`
	Episodic      []store.ScoredEpisode `json:"episodic_results,omitempty"`
	Semantic      []store.ScoredEntry   `json:"semantic_results,omitempty"`
	Terms         []string              `json:"terms"`
	ActiveAliases map[string]string     `json:"active_aliases,omitempty"`
}

// Coordinator runs alias-expanded search against both stores and picks
// a compensation strategy.
type Coordinator struct {
	store   *store.Store
	aliases *AliasTable
	log     *zap.Logger
}

// NewCoordinator creates a coordinator over the store and alias table.
func NewCoordinator(st *store.Store, aliases *AliasTable, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{store: st, aliases: aliases, log: log}
}

// Aliases exposes the session alias table.
func (c *Coordinator) Aliases() *AliasTable { return c.aliases }

// Search runs the dual-store search. As a side effect it increments the
// retrieval counter on the top episodic hits; recall strengthens the
// recalled.
func (c *Coordinator) Search(ctx context.Context, query string) (*Result, error) {
	terms := c.ExpandTerms(query)

	epResults, err := c.store.SearchEpisodes(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("search episodes: %w", err)
	}
	semResults, err := c.store.SearchEntries(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}

	for i := 0; i < len(epResults) && i < retrievalBumpTopN; i++ {
		if err := c.store.IncrementRetrieval(ctx, epResults[i].ID); err != nil {
			return nil, fmt.Errorf("increment retrieval %s: %w", epResults[i].ID, err)
		}
	}

	epSufficient := len(epResults) >= 2 && epResults[0].Relevance > sufficientRelevance
	semSufficient := len(semResults) >= 1 && semResults[0].Relevance > sufficientRelevance

	res := &Result{
		Terms:         terms,
		ActiveAliases: c.aliases.All(),
	}
	switch {
	case epSufficient && semSufficient:
		res.Strategy = StrategyBoth
		res.Rationale = "both stores have relevant records; cross-referencing"
	case epSufficient:
		res.Strategy = StrategyEpisodicPrimary
		res.Rationale = "semantic store is sparse; leading with concrete experiences"
	case semSufficient:
		res.Strategy = StrategySemanticCompensation
		res.Rationale = "episodic store is sparse; generalized knowledge compensates"
	default:
		res.Strategy = StrategyInsufficient
		res.Rationale = "neither store suffices; external knowledge or generation needed"
	}

	if len(epResults) > maxEpisodicResults {
		epResults = epResults[:maxEpisodicResults]
	}
	if len(semResults) > maxSemanticResults {
		semResults = semResults[:maxSemanticResults]
	}
	res.Episodic = epResults
	res.Semantic = semResults

	c.log.Debug("dual store search",
		zap.String("strategy", string(res.Strategy)),
		zap.Int("episodic", len(epResults)),
		zap.Int("semantic", len(semResults)),
		zap.Strings("terms", terms))

	return res, nil
}

// ExpandTerms tokenizes the query and appends the tokens of every bound
// meaning whose term appears. Terms are only ever extended, never
// removed.
func (c *Coordinator) ExpandTerms(query string) []string {
	terms := tokenize(query)
	expanded := make([]string, 0, len(terms))
	for _, term := range terms {
		expanded = append(expanded, term)
		if meaning, ok := c.aliases.Get(term); ok {
			expanded = append(expanded, tokenize(meaning)...)
		}
	}
	return expanded
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '?', '!', ';', ':',
			'，', '。', '？', '！', '、', '；', '：', '/':
			return true
		}
		return false
	})
}
