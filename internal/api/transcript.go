package api

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"salesdesk/internal/storage"
)

const transcriptHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - {{.SessionID}}</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; }
.msg { border-radius: 6px; padding: .5rem 1rem; margin: .75rem 0; }
.user { background: #eef3fb; }
.assistant { background: #f6f6f6; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: .25rem .5rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Documents}}<ul class="documents">{{range .Documents}}<li>{{.Kind}}: {{.DisplayName}}</li>{{end}}</ul>{{end}}
{{range .Messages}}<div class="msg {{.Role}}" id="m{{.Index}}">
{{if .Export}}<a href="/sessions/{{$.SessionID}}/export?index={{.Index}}">DOCX</a>{{end}}
{{.Body}}
</div>
{{else}}<p>No messages yet.</p>
{{end}}
</body>
</html>
`

type transcriptRenderer struct {
	title    string
	markdown goldmark.Markdown
	page     *template.Template
}

type transcriptMessage struct {
	Index  int
	Role   string
	Body   template.HTML
	Export bool
}

type transcriptPage struct {
	Title     string
	SessionID string
	Documents []storage.Document
	Messages  []transcriptMessage
}

// newTranscriptRenderer renders model Markdown with GFM tables. Raw HTML in
// answers is dropped.
func newTranscriptRenderer(title string) *transcriptRenderer {
	if title == "" {
		title = "Offer / AI Report"
	}
	return &transcriptRenderer{
		title: title,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		page: template.Must(template.New("transcript").Parse(transcriptHTML)),
	}
}

func (t *transcriptRenderer) Render(w io.Writer, sessionID string, history []storage.Message, docs []storage.Document) error {
	page := transcriptPage{
		Title:     t.title,
		SessionID: sessionID,
		Documents: docs,
	}
	for i, m := range history {
		var buf bytes.Buffer
		if err := t.markdown.Convert([]byte(m.Content), &buf); err != nil {
			return fmt.Errorf("markdown render: %w", err)
		}
		page.Messages = append(page.Messages, transcriptMessage{
			Index:  i,
			Role:   string(m.Role),
			Body:   template.HTML(buf.String()),
			Export: m.Role == storage.RoleAssistant,
		})
	}
	return t.page.Execute(w, page)
}
