package retrieval

import (
	"sort"
	"strings"
)

// AliasTable is the session-scoped term-to-meaning map used to widen
// search recall. Last write wins; nothing persists across restarts.
type AliasTable struct {
	bindings map[string]string
}

// NewAliasTable creates an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{bindings: make(map[string]string)}
}

// Set binds a term to a meaning for the rest of the session.
func (a *AliasTable) Set(term, meaning string) {
	a.bindings[strings.ToLower(term)] = meaning
}

// Get returns the bound meaning for a term, if any.
func (a *AliasTable) Get(term string) (string, bool) {
	meaning, ok := a.bindings[strings.ToLower(term)]
	return meaning, ok
}

// Remove unbinds a term. Removing an unbound term reports false; it is
// a no-op, not an error.
func (a *AliasTable) Remove(term string) bool {
	key := strings.ToLower(term)
	if _, ok := a.bindings[key]; !ok {
		return false
	}
	delete(a.bindings, key)
	return true
}

// All returns a copy of the active bindings.
func (a *AliasTable) All() map[string]string {
	out := make(map[string]string, len(a.bindings))
	for term, meaning := range a.bindings {
		out[term] = meaning
	}
	return out
}

// Terms returns the bound terms in sorted order, for display.
func (a *AliasTable) Terms() []string {
	terms := make([]string, 0, len(a.bindings))
	for term := range a.bindings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Len returns the number of active bindings.
func (a *AliasTable) Len() int { return len(a.bindings) }
