// Package model defines the core memory data types.
package model

import "time"

// Triple is a structured fact in the knowledge index.
// Immutable after load.
type Triple struct {
	Subject    string  `json:"subject"`
	Relation   string  `json:"relation"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

// Episode is a specific experience held in the episodic store.
type Episode struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Source           string    `json:"source"`
	Content          string    `json:"content"`
	Tags             []string  `json:"tags,omitempty"`
	UserImportance   int       `json:"user_importance"`
	EmotionalValence float64   `json:"emotional_valence"`
	RetrievalCount   int       `json:"retrieval_count"`
}

// SemanticEntry is a generalized concept, created by consolidation
// or external seeding. Entries are never deleted.
type SemanticEntry struct {
	ID             string    `json:"id"`
	Concept        string    `json:"concept"`
	Content        string    `json:"content"`
	SourceEpisodes []string  `json:"source_episodes,omitempty"`
	Confidence     float64   `json:"confidence"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Action is the outcome of a saliency scoring pass for one episode.
type Action string

const (
	ActionConsolidate Action = "consolidate"
	ActionPrune       Action = "prune"
	ActionRetain      Action = "retain"
)

// Dimensions holds the five saliency dimension values, each in [0,1].
type Dimensions struct {
	Frequency         float64 `json:"frequency"`
	Recency           float64 `json:"recency"`
	UserSignal        float64 `json:"user_signal"`
	Novelty           float64 `json:"novelty"`
	ConnectionDensity float64 `json:"connection_density"`
}

// ScoreResult is the per-episode output of a scoring pass. Ephemeral,
// never persisted.
type ScoreResult struct {
	EpisodeID  string     `json:"episode_id"`
	Source     string     `json:"source,omitempty"`
	Total      float64    `json:"total_score"`
	Dimensions Dimensions `json:"dimensions"`
	Action     Action     `json:"action"`
}

// Consolidated records one episode promoted into a semantic entry.
type Consolidated struct {
	SourceEpisode string `json:"source_episode"`
	NewEntry      string `json:"new_semantic_entry"`
	Concept       string `json:"concept"`
}

// ConsolidationEvent summarizes one consolidation cycle. Append-only.
type ConsolidationEvent struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	TotalScored  int            `json:"total_scored"`
	Consolidated []Consolidated `json:"consolidated,omitempty"`
	Pruned       []string       `json:"pruned,omitempty"`
	Retained     int            `json:"retained"`
}
