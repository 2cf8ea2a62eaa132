// Package reactions implements the reactions-counter API: per-content
// reaction totals plus per-user reaction events, stored in SQLite and
// served over chi.
package reactions

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS content_reactions (
	content_type TEXT NOT NULL,
	slug         TEXT NOT NULL,
	reactions    TEXT NOT NULL DEFAULT '[]',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (content_type, slug)
);

CREATE TABLE IF NOT EXISTS reaction_events (
	content_type  TEXT NOT NULL,
	slug          TEXT NOT NULL,
	reaction_type TEXT NOT NULL,
	user_hash     TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(content_type, slug, reaction_type, user_hash)
);

CREATE INDEX IF NOT EXISTS idx_reaction_events_content
	ON reaction_events(content_type, slug);
`

// Reaction is one reaction type with its total count.
type Reaction struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Viewer carries the requesting user's own reactions.
type Viewer struct {
	ReactedTo []string `json:"reactedTo"`
}

// State is the API response shape for one piece of content.
type State struct {
	Reactions []Reaction `json:"reactions"`
	Viewer    Viewer     `json:"viewer"`
}

// Toggle actions.
const (
	ActionToggle = "toggle"
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Store wraps the SQLite connection with reaction operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("reactions: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reactions: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reactions: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Get returns the current reaction state for one piece of content, including
// which reactions the given user already placed.
func (s *Store) Get(contentType, slug, userHash string) (State, error) {
	state := emptyState()

	var raw string
	err := s.conn.QueryRow(
		`SELECT reactions FROM content_reactions WHERE content_type = ? AND slug = ?`,
		contentType, slug,
	).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return state, fmt.Errorf("reactions: get totals: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &state.Reactions); err != nil {
			return state, fmt.Errorf("reactions: decode totals: %w", err)
		}
	}

	rows, err := s.conn.Query(
		`SELECT reaction_type FROM reaction_events WHERE content_type = ? AND slug = ? AND user_hash = ?`,
		contentType, slug, userHash,
	)
	if err != nil {
		return state, fmt.Errorf("reactions: get viewer: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var reactionType string
		if err := rows.Scan(&reactionType); err != nil {
			return state, fmt.Errorf("reactions: scan viewer: %w", err)
		}
		state.Viewer.ReactedTo = append(state.Viewer.ReactedTo, reactionType)
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("reactions: viewer rows: %w", err)
	}
	return state, nil
}

// Toggle applies one reaction action for a user inside a transaction and
// returns the updated state. The viewer reflects only this request's
// outcome, matching the API contract.
func (s *Store) Toggle(contentType, slug, reactionType, userHash, action string) (State, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return emptyState(), fmt.Errorf("reactions: begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(
		`SELECT 1 FROM reaction_events WHERE content_type = ? AND slug = ? AND reaction_type = ? AND user_hash = ?`,
		contentType, slug, reactionType, userHash,
	).Scan(&exists)
	hasReacted := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return emptyState(), fmt.Errorf("reactions: check event: %w", err)
	}

	current := make([]Reaction, 0, 4)
	var raw string
	err = tx.QueryRow(
		`SELECT reactions FROM content_reactions WHERE content_type = ? AND slug = ?`,
		contentType, slug,
	).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return emptyState(), fmt.Errorf("reactions: current totals: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return emptyState(), fmt.Errorf("reactions: decode totals: %w", err)
		}
	}

	var shouldAdd, shouldRemove bool
	switch action {
	case ActionToggle:
		shouldAdd = !hasReacted
		shouldRemove = hasReacted
	case ActionAdd:
		shouldAdd = !hasReacted
	case ActionRemove:
		shouldRemove = hasReacted
	}

	if shouldAdd {
		if _, err := tx.Exec(
			`INSERT INTO reaction_events (content_type, slug, reaction_type, user_hash) VALUES (?, ?, ?, ?)`,
			contentType, slug, reactionType, userHash,
		); err != nil {
			return emptyState(), fmt.Errorf("reactions: insert event: %w", err)
		}
		current = bumpCount(current, reactionType, 1)
	}
	if shouldRemove {
		if _, err := tx.Exec(
			`DELETE FROM reaction_events WHERE content_type = ? AND slug = ? AND reaction_type = ? AND user_hash = ?`,
			contentType, slug, reactionType, userHash,
		); err != nil {
			return emptyState(), fmt.Errorf("reactions: delete event: %w", err)
		}
		current = bumpCount(current, reactionType, -1)
	}

	if len(current) > 0 {
		encoded, err := json.Marshal(current)
		if err != nil {
			return emptyState(), fmt.Errorf("reactions: encode totals: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO content_reactions (content_type, slug, reactions, updated_at)
			 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(content_type, slug) DO UPDATE SET
			 reactions = excluded.reactions,
			 updated_at = excluded.updated_at`,
			contentType, slug, string(encoded),
		); err != nil {
			return emptyState(), fmt.Errorf("reactions: upsert totals: %w", err)
		}
	} else {
		if _, err := tx.Exec(
			`DELETE FROM content_reactions WHERE content_type = ? AND slug = ?`,
			contentType, slug,
		); err != nil {
			return emptyState(), fmt.Errorf("reactions: clear totals: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return emptyState(), fmt.Errorf("reactions: commit: %w", err)
	}

	state := State{Reactions: current, Viewer: Viewer{ReactedTo: []string{}}}
	if shouldAdd {
		state.Viewer.ReactedTo = []string{reactionType}
	}
	return state, nil
}

func emptyState() State {
	return State{Reactions: make([]Reaction, 0), Viewer: Viewer{ReactedTo: make([]string, 0)}}
}

// bumpCount adjusts one reaction's count, adding or dropping the entry at
// the zero boundary.
func bumpCount(reactions []Reaction, reactionType string, delta int) []Reaction {
	for i := range reactions {
		if reactions[i].Type != reactionType {
			continue
		}
		reactions[i].Count += delta
		if reactions[i].Count <= 0 {
			return append(reactions[:i], reactions[i+1:]...)
		}
		return reactions
	}
	if delta > 0 {
		return append(reactions, Reaction{Type: reactionType, Count: delta})
	}
	return reactions
}
