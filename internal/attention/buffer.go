// Package attention holds the capacity-bounded working memory: a
// buffer of concept chunks that compresses under pressure, and the
// reinforcement loop that promotes repeated concepts.
package attention

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Chunk sources.
const (
	SourceEpisodic       = "episodic"
	SourceSemantic       = "semantic"
	SourceConversational = "conversational"
	SourceCompression    = "compression"
)

// DefaultCapacity is the buffer's default chunk capacity.
const DefaultCapacity = 5

// evictBatch is how many chunks one overflow compresses away.
const evictBatch = 2

// Chunk is one unit in the attention buffer, raw or compressed.
// Compressed chunks additionally carry the labels they summarize.
type Chunk struct {
	Concept        string    `json:"concept"`
	Content        string    `json:"content"`
	Source         string    `json:"source"`
	Compressed     bool      `json:"compressed"`
	Contains       []string  `json:"contains,omitempty"`
	AccessCount    int       `json:"access_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

func (c *Chunk) access() {
	c.AccessCount++
	c.LastAccessedAt = time.Now()
}

// CompressionRecord logs one overflow-triggered compression.
type CompressionRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Evicted        []string  `json:"evicted"`
	CompressedInto string    `json:"compressed_into"`
	NewConcept     string    `json:"new_concept"`
	BufferAfter    []string  `json:"buffer_after"`
}

// AddAction reports what an Add call did.
type AddAction string

const (
	ActionRefreshed  AddAction = "refreshed"
	ActionAdded      AddAction = "added"
	ActionCompressed AddAction = "compressed"
)

// AddResult reports the outcome of one Add call.
type AddResult struct {
	Action         AddAction `json:"action"`
	Concept        string    `json:"concept"`
	Evicted        []string  `json:"evicted,omitempty"`
	CompressedInto string    `json:"compressed_into,omitempty"`
	Size           int       `json:"size"`
	Capacity       int       `json:"capacity"`
}

// Buffer is the fixed-capacity working memory. Size never exceeds the
// capacity; overflow evicts the two weakest chunks and merges them into
// one compressed chunk.
type Buffer struct {
	capacity int
	chunks   []*Chunk
	history  []CompressionRecord
}

// NewBuffer creates a buffer with the given capacity (DefaultCapacity
// when <= 0). Overflow replaces two chunks with one compressed chunk
// plus the newcomer, so a capacity below 2 cannot absorb a compression
// and is raised to 2.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity < evictBatch {
		capacity = evictBatch
	}
	return &Buffer{capacity: capacity}
}

// Capacity returns the configured capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// Len returns the current number of chunks.
func (b *Buffer) Len() int { return len(b.chunks) }

// Add places a concept in the buffer. A concept whose label overlaps an
// existing chunk's label (substring either way, case-insensitive) only
// refreshes that chunk. Overflow triggers eviction-and-compression.
func (b *Buffer) Add(concept, content, source string) AddResult {
	conceptLower := strings.ToLower(concept)
	for _, chunk := range b.chunks {
		label := strings.ToLower(chunk.Concept)
		if strings.Contains(label, conceptLower) || strings.Contains(conceptLower, label) {
			chunk.access()
			return AddResult{Action: ActionRefreshed, Concept: concept, Size: len(b.chunks), Capacity: b.capacity}
		}
	}

	now := time.Now()
	chunk := &Chunk{
		Concept:        concept,
		Content:        content,
		Source:         source,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	if len(b.chunks) < b.capacity {
		b.chunks = append(b.chunks, chunk)
		return AddResult{Action: ActionAdded, Concept: concept, Size: len(b.chunks), Capacity: b.capacity}
	}
	return b.compressAndAdd(chunk)
}

// evictionScore ranks chunks for eviction; lower is weaker. Access
// frequency dominates, already-compressed chunks rank lower, and
// conversational chunks get a small bonus.
func evictionScore(c *Chunk) float64 {
	score := float64(c.AccessCount) * 2
	if !c.Compressed {
		score++
	}
	if c.Source == SourceConversational {
		score++
	} else {
		score += 0.5
	}
	return score
}

func (b *Buffer) compressAndAdd(newChunk *Chunk) AddResult {
	order := make([]int, len(b.chunks))
	for i := range order {
		order[i] = i
	}
	// Stable: ties keep buffer order, so eviction is deterministic.
	sort.SliceStable(order, func(i, j int) bool {
		return evictionScore(b.chunks[order[i]]) < evictionScore(b.chunks[order[j]])
	})

	evicted := make([]*Chunk, 0, evictBatch)
	kept := make([]*Chunk, 0, len(b.chunks)-evictBatch)
	evictSet := map[int]bool{order[0]: true, order[1]: true}
	for i, chunk := range b.chunks {
		if evictSet[i] {
			evicted = append(evicted, chunk)
		} else {
			kept = append(kept, chunk)
		}
	}

	labels := make([]string, len(evicted))
	excerpts := make([]string, len(evicted))
	for i, chunk := range evicted {
		labels[i] = chunk.Concept
		excerpts[i] = fmt.Sprintf("%s: %s", chunk.Concept, truncate(chunk.Content, 50))
	}

	now := time.Now()
	compressed := &Chunk{
		Concept:        "[compressed] " + strings.Join(labels, " + "),
		Content:        "(chunked summary) " + strings.Join(excerpts, " | "),
		Source:         SourceCompression,
		Compressed:     true,
		Contains:       labels,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	b.chunks = append(append(kept, compressed), newChunk)

	record := CompressionRecord{
		Timestamp:      now,
		Evicted:        labels,
		CompressedInto: compressed.Concept,
		NewConcept:     newChunk.Concept,
		BufferAfter:    b.labels(),
	}
	b.history = append(b.history, record)

	return AddResult{
		Action:         ActionCompressed,
		Concept:        newChunk.Concept,
		Evicted:        labels,
		CompressedInto: compressed.Concept,
		Size:           len(b.chunks),
		Capacity:       b.capacity,
	}
}

// ActiveContext concatenates every chunk's content for use as generation
// context. Reading the context counts as use: every chunk's access
// count is bumped.
func (b *Buffer) ActiveContext() string {
	parts := make([]string, 0, len(b.chunks))
	for _, chunk := range b.chunks {
		chunk.access()
		parts = append(parts, fmt.Sprintf("[%s] %s", chunk.Concept, chunk.Content))
	}
	return strings.Join(parts, "\n")
}

// State returns a snapshot of the buffer for display. The snapshot is a
// copy; mutating it does not touch the buffer.
func (b *Buffer) State() []Chunk {
	out := make([]Chunk, len(b.chunks))
	for i, chunk := range b.chunks {
		out[i] = *chunk
	}
	return out
}

// Labels returns the chunk labels in buffer order.
func (b *Buffer) Labels() []string { return b.labels() }

func (b *Buffer) labels() []string {
	labels := make([]string, len(b.chunks))
	for i, chunk := range b.chunks {
		labels[i] = chunk.Concept
	}
	return labels
}

// History returns the compression log, oldest first.
func (b *Buffer) History() []CompressionRecord {
	out := make([]CompressionRecord, len(b.history))
	copy(out, b.history)
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
