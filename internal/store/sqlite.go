// Package store provides the SQLite-backed episodic and semantic
// record stores. The default store is in-memory and lives only as long
// as the session; persistence is the caller's choice via a file path.
package store

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MemoryDSN selects a session-scoped in-memory database.
const MemoryDSN = ""

// Store holds episodes, semantic entries, and the consolidation event
// log. A single caller at a time is assumed; no locking is done here.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand
	log     *zap.Logger
}

// Open opens or creates a store. An empty path keeps everything in
// memory for the duration of the session.
func Open(dbPath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dsn := ":memory:"
	if dbPath != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(wal)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: an in-memory database exists per connection, so
	// pooling would scatter it, and the design is single-caller anyway.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     log,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		seq               INTEGER PRIMARY KEY AUTOINCREMENT,
		id                TEXT NOT NULL UNIQUE,
		timestamp         TEXT,
		source            TEXT NOT NULL,
		content           TEXT NOT NULL,
		tags              TEXT,
		user_importance   INTEGER NOT NULL DEFAULT 3,
		emotional_valence REAL NOT NULL DEFAULT 0,
		retrieval_count   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS semantic_entries (
		seq             INTEGER PRIMARY KEY AUTOINCREMENT,
		id              TEXT NOT NULL UNIQUE,
		concept         TEXT NOT NULL,
		content         TEXT NOT NULL,
		source_episodes TEXT,
		confidence      REAL NOT NULL,
		last_updated    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS consolidation_events (
		id           TEXT PRIMARY KEY,
		timestamp    TEXT NOT NULL,
		total_scored INTEGER NOT NULL,
		retained     INTEGER NOT NULL,
		details      TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS counters (
		name  TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the store. An in-memory store's contents are lost.
func (s *Store) Close() error {
	return s.db.Close()
}

// newEventID returns a ULID for consolidation events.
func (s *Store) newEventID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// nextID reserves the next sequence number for the named counter and
// formats it with the given prefix ("ep" -> ep_001). Counters only ever
// advance, so ids stay unique after pruning.
func nextID(tx *sql.Tx, name, prefix string) (string, error) {
	_, err := tx.Exec(
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT(name) DO UPDATE SET value = value + 1`, name)
	if err != nil {
		return "", err
	}
	var n int
	if err := tx.QueryRow(`SELECT value FROM counters WHERE name = ?`, name).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%03d", prefix, n), nil
}

// bumpCounter raises the named counter to at least n. Used when seeded
// records carry their own ids, so later assignments cannot collide.
func bumpCounter(tx *sql.Tx, name string, n int) error {
	_, err := tx.Exec(
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = MAX(value, excluded.value)`, name, n)
	return err
}

var seqIDRegex = regexp.MustCompile(`^[a-z]+_(\d+)$`)

// seqOf extracts the numeric suffix of a seeded id, or 0.
func seqOf(id string) int {
	m := seqIDRegex.FindStringSubmatch(id)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Malformed timestamps degrade to the unknown-recency default
		// downstream instead of failing the read.
		return time.Time{}
	}
	return t
}
