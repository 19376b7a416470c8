package offerdoc

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// Meta is the optional YAML header of a Markdown offer file.
type Meta struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Client string `yaml:"client"`
}

// Options turns the header into converter options. Empty fields are skipped.
func (m Meta) Options() []Option {
	var opts []Option
	if m.Title != "" {
		opts = append(opts, WithTitle(m.Title))
	}
	if m.Author != "" {
		opts = append(opts, WithAuthor(m.Author))
	}
	return opts
}

// SplitFrontMatter separates a leading "---" YAML block from the Markdown
// body. Sources without one come back unchanged with an empty Meta.
func SplitFrontMatter(source []byte) (Meta, string, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Meta{}, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, string(body), nil
}
