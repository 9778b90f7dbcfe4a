package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zeroade/cbma/internal/model"
)

type eventDetails struct {
	Consolidated []model.Consolidated `json:"consolidated,omitempty"`
	Pruned       []string             `json:"pruned,omitempty"`
}

// AppendEvent records one consolidation cycle, assigning the event id.
// Events are append-only and never mutated.
func (s *Store) AppendEvent(ctx context.Context, ev *model.ConsolidationEvent) error {
	ev.ID = s.newEventID()
	details, err := json.Marshal(eventDetails{Consolidated: ev.Consolidated, Pruned: ev.Pruned})
	if err != nil {
		return fmt.Errorf("encode event details: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO consolidation_events (id, timestamp, total_scored, retained, details)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.ID, formatTime(ev.Timestamp), ev.TotalScored, ev.Retained, string(details))
	return err
}

// Events returns all consolidation events, oldest first.
func (s *Store) Events(ctx context.Context) ([]model.ConsolidationEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, total_scored, retained, details
		 FROM consolidation_events ORDER BY timestamp, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ConsolidationEvent
	for rows.Next() {
		var ev model.ConsolidationEvent
		var ts, details string
		if err := rows.Scan(&ev.ID, &ts, &ev.TotalScored, &ev.Retained, &details); err != nil {
			return nil, err
		}
		ev.Timestamp = parseTime(ts)
		var d eventDetails
		if err := json.Unmarshal([]byte(details), &d); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", ev.ID, err)
		}
		ev.Consolidated = d.Consolidated
		ev.Pruned = d.Pruned
		events = append(events, ev)
	}
	return events, rows.Err()
}
