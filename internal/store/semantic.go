package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeroade/cbma/internal/model"
)

// AddEntry creates a new semantic entry, assigning the next sem_NNN id.
// Entries are only ever created here (by consolidation) or by seeding;
// nothing deletes them.
func (s *Store) AddEntry(ctx context.Context, concept, content string, sourceEpisodes []string, confidence float64) (*model.SemanticEntry, error) {
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range [0,1]", confidence)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id, err := nextID(tx, "semantic", "sem")
	if err != nil {
		return nil, err
	}

	entry := &model.SemanticEntry{
		ID:             id,
		Concept:        concept,
		Content:        content,
		SourceEpisodes: sourceEpisodes,
		Confidence:     confidence,
		LastUpdated:    time.Now().UTC(),
	}
	if err := insertEntry(tx, entry); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// ImportEntries loads pre-parsed seed entries. Any malformed record
// fails the whole import.
func (s *Store) ImportEntries(ctx context.Context, entries []model.SemanticEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	maxSeq := 0
	for i, entry := range entries {
		if entry.ID == "" {
			return 0, fmt.Errorf("entry %d: missing id", i)
		}
		if entry.Confidence < 0 || entry.Confidence > 1 {
			return 0, fmt.Errorf("entry %s: confidence %v out of range [0,1]", entry.ID, entry.Confidence)
		}
		if err := insertEntry(tx, &entry); err != nil {
			return 0, fmt.Errorf("entry %s: %w", entry.ID, err)
		}
		if n := seqOf(entry.ID); n > maxSeq {
			maxSeq = n
		}
	}
	if maxSeq > 0 {
		if err := bumpCounter(tx, "semantic", maxSeq); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func insertEntry(tx *sql.Tx, entry *model.SemanticEntry) error {
	var sourcesJSON *string
	if len(entry.SourceEpisodes) > 0 {
		b, _ := json.Marshal(entry.SourceEpisodes)
		str := string(b)
		sourcesJSON = &str
	}
	_, err := tx.Exec(
		`INSERT INTO semantic_entries (id, concept, content, source_episodes, confidence, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Concept, entry.Content, sourcesJSON, entry.Confidence, formatTime(entry.LastUpdated))
	return err
}

// Entries returns all semantic entries in insertion order.
func (s *Store) Entries(ctx context.Context) ([]model.SemanticEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, concept, content, source_episodes, confidence, last_updated
		 FROM semantic_entries ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.SemanticEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (model.SemanticEntry, error) {
	var entry model.SemanticEntry
	var sourcesJSON sql.NullString
	var updated string

	err := row.Scan(&entry.ID, &entry.Concept, &entry.Content, &sourcesJSON, &entry.Confidence, &updated)
	if err != nil {
		return entry, err
	}
	entry.LastUpdated = parseTime(updated)
	if sourcesJSON.Valid {
		json.Unmarshal([]byte(sourcesJSON.String), &entry.SourceEpisodes)
	}
	return entry, nil
}
