package store

import "context"

// Stats holds store-level counts for status display.
type Stats struct {
	Episodes       int `json:"episodes"`
	SemanticWrites int `json:"semantic_entries"`
	Events         int `json:"consolidation_events"`
	TotalRetrieval int `json:"total_retrievals"`
}

// Counts returns record counts across the store.
func (s *Store) Counts(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episodes`).Scan(&st.Episodes); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM semantic_entries`).Scan(&st.SemanticWrites); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM consolidation_events`).Scan(&st.Events); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(retrieval_count), 0) FROM episodes`).Scan(&st.TotalRetrieval); err != nil {
		return nil, err
	}
	return st, nil
}
