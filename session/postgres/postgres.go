// Package postgres_session archives chat history in Postgres for deployments
// that need durable, queryable transcripts.
package postgres_session

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/seniormts/seniormts/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id         BIGSERIAL PRIMARY KEY,
    session_id TEXT        NOT NULL,
    role       TEXT        NOT NULL,
    content    TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_messages_session_idx ON chat_messages (session_id, id);
`

type Store struct {
	db *sql.DB
}

// New opens the database and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres session: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres session: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("postgres session: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, for tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, id string) ([]session.Message, error) {
	if id == "" {
		return nil, fmt.Errorf("session: empty id")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages WHERE session_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres session get: %w", err)
	}
	defer rows.Close()

	var msgs []session.Message
	for rows.Next() {
		var m session.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres session get: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) Append(ctx context.Context, id string, msgs ...session.Message) error {
	if id == "" {
		return fmt.Errorf("session: empty id")
	}
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres session append: %w", err)
	}
	defer tx.Rollback()
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (session_id, role, content, created_at) VALUES ($1,$2,$3,$4)`,
			id, m.Role, m.Content, m.CreatedAt); err != nil {
			return fmt.Errorf("postgres session append: %w", err)
		}
	}
	return tx.Commit()
}
