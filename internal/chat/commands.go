package chat

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"salesdesk/internal/ingest"
)

// AskCommand is one user turn in a quoting session.
type AskCommand struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

func (cmd AskCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SessionID, validation.Required),
		validation.Field(&cmd.Prompt, validation.Required, validation.By(notBlank("chat.ask.prompt_blank", "prompt is blank"))),
	)
}

// AttachCommand adds a reference document to a session.
type AttachCommand struct {
	SessionID   string `json:"session_id"`
	Kind        string `json:"kind"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
}

func (cmd AttachCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SessionID, validation.Required),
		validation.Field(&cmd.Kind, validation.Required, validation.By(func(value any) error {
			if _, err := ingest.ParseKind(value.(string)); err != nil {
				return validation.NewError("chat.attach.kind_unknown", "must be portfolio, catalog or requirements")
			}
			return nil
		})),
		validation.Field(&cmd.Path, validation.Required),
	)
}

// ExportCommand selects the assistant answer to turn into a document. A
// negative Index means the latest answer.
type ExportCommand struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

func (cmd ExportCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.SessionID, validation.Required),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
