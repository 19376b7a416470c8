package offerdoc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// ContentType is the MIME type of the rendered documents.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Converter renders Markdown answers as DOCX. It holds no mutable state and
// is safe for concurrent use.
type Converter struct {
	title  string
	author string
	now    func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithTitle replaces the fixed document title. Blank titles are ignored.
func WithTitle(title string) Option {
	return func(c *Converter) {
		if t := strings.TrimSpace(title); t != "" {
			c.title = t
		}
	}
}

// WithAuthor sets the creator recorded in the document properties. Blank
// authors are ignored.
func WithAuthor(author string) Option {
	return func(c *Converter) {
		if a := strings.TrimSpace(author); a != "" {
			c.author = a
		}
	}
}

// WithClock sets the time source used for the creation timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

func New(opts ...Option) *Converter {
	c := &Converter{
		title:  DefaultTitle,
		author: "salesdesk",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Title returns the heading emitted as block 0.
func (c *Converter) Title() string {
	return c.title
}

// Convert parses source and returns the serialized document positioned at
// its start.
func Convert(source string) (*bytes.Reader, error) {
	return New().Convert(source)
}

func (c *Converter) Convert(source string) (*bytes.Reader, error) {
	var buf bytes.Buffer
	if err := c.Render(c.Parse(source), &buf); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// Render serializes doc to w as a DOCX package.
func (c *Converter) Render(doc *Document, w io.Writer) error {
	pkg, err := newPackage(doc, c.author, c.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := pkg.write(w); err != nil {
		return fmt.Errorf("failed to write docx: %w", err)
	}
	return nil
}
