package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeroade/cbma/internal/model"
)

// AddParams holds parameters for ingesting a new episode.
type AddParams struct {
	Source     string
	Content    string
	Tags       []string
	Importance int     // 1..5, defaults to 3
	Valence    float64 // -1..1
}

// AddEpisode ingests a conversational turn as a new episode, assigning
// the next ep_NNN id.
func (s *Store) AddEpisode(ctx context.Context, p AddParams) (*model.Episode, error) {
	importance := p.Importance
	if importance == 0 {
		importance = 3
	}
	if importance < 1 || importance > 5 {
		return nil, fmt.Errorf("user importance %d out of range [1,5]", importance)
	}
	if p.Valence < -1 || p.Valence > 1 {
		return nil, fmt.Errorf("emotional valence %v out of range [-1,1]", p.Valence)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id, err := nextID(tx, "episode", "ep")
	if err != nil {
		return nil, err
	}

	ep := &model.Episode{
		ID:               id,
		Timestamp:        time.Now().UTC(),
		Source:           p.Source,
		Content:          p.Content,
		Tags:             p.Tags,
		UserImportance:   importance,
		EmotionalValence: p.Valence,
	}
	if err := insertEpisode(tx, ep); err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return ep, nil
}

// ImportEpisodes loads pre-parsed seed episodes. Any malformed record
// fails the whole import; nothing is kept from a failed batch.
func (s *Store) ImportEpisodes(ctx context.Context, episodes []model.Episode) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	maxSeq := 0
	for i, ep := range episodes {
		if ep.ID == "" {
			return 0, fmt.Errorf("episode %d: missing id", i)
		}
		if ep.UserImportance < 1 || ep.UserImportance > 5 {
			return 0, fmt.Errorf("episode %s: user importance %d out of range [1,5]", ep.ID, ep.UserImportance)
		}
		if ep.EmotionalValence < -1 || ep.EmotionalValence > 1 {
			return 0, fmt.Errorf("episode %s: emotional valence %v out of range [-1,1]", ep.ID, ep.EmotionalValence)
		}
		if err := insertEpisode(tx, &ep); err != nil {
			return 0, fmt.Errorf("episode %s: %w", ep.ID, err)
		}
		if n := seqOf(ep.ID); n > maxSeq {
			maxSeq = n
		}
	}
	if maxSeq > 0 {
		if err := bumpCounter(tx, "episode", maxSeq); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(episodes), nil
}

func insertEpisode(tx *sql.Tx, ep *model.Episode) error {
	var tagsJSON *string
	if len(ep.Tags) > 0 {
		b, _ := json.Marshal(ep.Tags)
		str := string(b)
		tagsJSON = &str
	}
	_, err := tx.Exec(
		`INSERT INTO episodes (id, timestamp, source, content, tags, user_importance, emotional_valence, retrieval_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.ID, formatTime(ep.Timestamp), ep.Source, ep.Content, tagsJSON,
		ep.UserImportance, ep.EmotionalValence, ep.RetrievalCount)
	return err
}

// Episodes returns all episodes in insertion order.
func (s *Store) Episodes(ctx context.Context) ([]model.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, source, content, tags, user_importance, emotional_valence, retrieval_count
		 FROM episodes ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []model.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// GetEpisode returns one episode by id.
func (s *Store) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, source, content, tags, user_importance, emotional_valence, retrieval_count
		 FROM episodes WHERE id = ?`, id)
	ep, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("episode not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// IncrementRetrieval bumps an episode's retrieval counter. Unknown ids
// are a no-op; retrieval strengthening is best-effort.
func (s *Store) IncrementRetrieval(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE episodes SET retrieval_count = retrieval_count + 1 WHERE id = ?`, id)
	return err
}

// DeleteEpisode permanently removes an episode. No tombstone is kept;
// a pruned id can never be read again.
func (s *Store) DeleteEpisode(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM episodes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("episode not found: %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row scanner) (model.Episode, error) {
	var ep model.Episode
	var ts string
	var tagsJSON sql.NullString

	err := row.Scan(&ep.ID, &ts, &ep.Source, &ep.Content, &tagsJSON,
		&ep.UserImportance, &ep.EmotionalValence, &ep.RetrievalCount)
	if err != nil {
		return ep, err
	}
	ep.Timestamp = parseTime(ts)
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &ep.Tags)
	}
	return ep, nil
}
