package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			display_name TEXT,
			handle TEXT,
			mime_type TEXT,
			inline_text TEXT,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (session_id, kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- ConversationLog Implementation ---

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, role Role, content string) (Message, error) {
	created := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(role), content, created.UnixMilli())
	if err != nil {
		return Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.UnixMilli(created.UnixMilli()).UTC(),
	}, nil
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var role string
		var created int64
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = Role(role)
		m.CreatedAt = time.UnixMilli(created).UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MAX(created_at), MAX(id) AS last_id
		FROM messages
		GROUP BY session_id
		ORDER BY last_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var last, lastID int64
		if err := rows.Scan(&sum.SessionID, &sum.Messages, &last, &lastID); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sum.LastActivity = time.UnixMilli(last).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// --- DocumentRegistry Implementation ---

func (s *SQLiteStore) SaveDocument(ctx context.Context, doc Document) error {
	created := doc.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (session_id, kind, display_name, handle, mime_type, inline_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, kind) DO UPDATE SET
			display_name=excluded.display_name,
			handle=excluded.handle,
			mime_type=excluded.mime_type,
			inline_text=excluded.inline_text,
			created_at=excluded.created_at
	`, doc.SessionID, doc.Kind, doc.DisplayName, doc.Handle, doc.MIMEType, doc.InlineText, created.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Documents(ctx context.Context, sessionID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, kind, display_name, handle, mime_type, inline_text, created_at
		FROM documents
		WHERE session_id = ?
		ORDER BY CASE kind
			WHEN 'portfolio' THEN 0
			WHEN 'catalog' THEN 1
			WHEN 'requirements' THEN 2
			ELSE 3
		END, kind
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var created int64
		if err := rows.Scan(&d.SessionID, &d.Kind, &d.DisplayName, &d.Handle, &d.MIMEType, &d.InlineText, &created); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.CreatedAt = time.UnixMilli(created).UTC()
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
