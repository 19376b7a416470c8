package storage

import (
	"context"
	"time"
)

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's append-only conversation log.
type Message struct {
	ID        int64
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Document records a reference file attached to a session, either by the
// provider handle it was uploaded as or by its locally extracted text.
type Document struct {
	SessionID   string
	Kind        string
	DisplayName string
	Handle      string
	MIMEType    string
	InlineText  string
	CreatedAt   time.Time
}

// SessionSummary describes a stored session.
type SessionSummary struct {
	SessionID    string
	Messages     int
	LastActivity time.Time
}

// Store combines the conversation log and the per-session document registry.
type Store interface {
	ConversationLog
	DocumentRegistry
	Close() error
}

// ConversationLog is an append-only message log keyed by session.
type ConversationLog interface {
	// Append adds a message to the end of the session log.
	Append(ctx context.Context, sessionID string, role Role, content string) (Message, error)

	// History returns the session's messages in insertion order.
	History(ctx context.Context, sessionID string) ([]Message, error)

	// Clear deletes every message and document of the session.
	Clear(ctx context.Context, sessionID string) error

	// Sessions lists known sessions, most recently active first.
	Sessions(ctx context.Context) ([]SessionSummary, error)
}

// DocumentRegistry remembers which documents a session has attached.
type DocumentRegistry interface {
	// SaveDocument upserts the document for its (session, kind) pair.
	SaveDocument(ctx context.Context, doc Document) error

	// Documents returns the session's documents ordered by kind.
	Documents(ctx context.Context, sessionID string) ([]Document, error)
}
