package provider

import (
	"fmt"
	"strings"
)

// Turn is one past conversation message as seen by the prompt builder.
type Turn struct {
	Role    string
	Content string
}

var documentLabels = map[string]string{
	"portfolio":    "This is the company portfolio:",
	"catalog":      "This is the product and price catalog:",
	"requirements": "These are the client requirements:",
}

// DocumentLabel returns the text introducing a document of the given kind.
func DocumentLabel(kind string) string {
	if label, ok := documentLabels[kind]; ok {
		return label
	}
	return fmt.Sprintf("This is the %s document:", kind)
}

// FormatHistory renders the last n turns as "ROLE: content" lines.
func FormatHistory(turns []Turn, n int) string {
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(t.Role), t.Content))
	}
	return strings.Join(lines, "\n")
}

// PromptBuilder lays out the user side of a request the same way for every
// provider.
type PromptBuilder struct{}

func (pb *PromptBuilder) HistoryBlock(history string) string {
	return "Recent conversation:\n" + history
}

func (pb *PromptBuilder) PromptBlock(prompt string) string {
	return "CURRENT REQUEST: " + prompt
}

func (pb *PromptBuilder) InlineDocument(a Attachment) string {
	var sb strings.Builder
	sb.WriteString(a.Label)
	sb.WriteString("\n<<<\n")
	sb.WriteString(strings.TrimSpace(a.InlineText))
	sb.WriteString("\n>>>")
	return sb.String()
}

// BuildText renders a request as a single user message, with every
// attachment inlined. Used by providers without a file API.
func (pb *PromptBuilder) BuildText(req Request) (string, error) {
	var parts []string
	for _, a := range req.Documents {
		if a.InlineText == "" {
			if a.Handle != "" {
				return "", fmt.Errorf("%w: %s", ErrFilesUnsupported, a.Label)
			}
			continue
		}
		parts = append(parts, pb.InlineDocument(a))
	}
	if strings.TrimSpace(req.History) != "" {
		parts = append(parts, pb.HistoryBlock(req.History))
	}
	parts = append(parts, pb.PromptBlock(req.Prompt))
	return strings.Join(parts, "\n\n"), nil
}
