package api

import (
	"time"

	"salesdesk/internal/storage"
)

type askRequest struct {
	Prompt string `json:"prompt"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type messageResponse struct {
	Index     int       `json:"index"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []messageResponse `json:"messages"`
}

type documentResponse struct {
	Kind        string    `json:"kind"`
	DisplayName string    `json:"display_name"`
	MIMEType    string    `json:"mime_type"`
	Uploaded    bool      `json:"uploaded"`
	Inline      bool      `json:"inline"`
	CreatedAt   time.Time `json:"created_at"`
}

type sessionSummaryResponse struct {
	SessionID    string    `json:"session_id"`
	Messages     int       `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}

func toMessage(index int, m storage.Message) messageResponse {
	return messageResponse{
		Index:     index,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toDocument(d storage.Document) documentResponse {
	return documentResponse{
		Kind:        d.Kind,
		DisplayName: d.DisplayName,
		MIMEType:    d.MIMEType,
		Uploaded:    d.Handle != "",
		Inline:      d.InlineText != "",
		CreatedAt:   d.CreatedAt,
	}
}
