package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"markdown fence", "```markdown\n# Offer\n```", "# Offer"},
		{"md fence", "```md\n- item\n```\n", "- item"},
		{"bare fence", "```\n| A |\n```", "| A |"},
		{"no fence", "  # Offer  ", "# Offer"},
		{"inner fence kept", "Use:\n```\ncode\n```", "Use:\n```\ncode\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanMarkdown(tt.in))
		})
	}
}
