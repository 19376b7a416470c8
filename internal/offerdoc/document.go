package offerdoc

import "strings"

// BlockKind identifies the concrete type of a Block.
type BlockKind int

const (
	KindHeading BlockKind = iota
	KindParagraph
	KindBullet
	KindTable
)

func (k BlockKind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindBullet:
		return "bullet"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Block is one top-level element of an offer document.
type Block interface {
	Kind() BlockKind
}

// Heading is a section title. Level 0 is the document title, 1-3 map to
// Heading1..Heading3.
type Heading struct {
	Level int
	Text  string
}

func (*Heading) Kind() BlockKind { return KindHeading }

// Run is a span of paragraph text sharing one emphasis.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is an ordered list of runs. A paragraph with no runs is a spacer.
type Paragraph struct {
	Runs []Run
}

func (*Paragraph) Kind() BlockKind { return KindParagraph }

// Text returns the concatenated run text without emphasis markers.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// BulletItem is a single unordered list entry.
type BulletItem struct {
	Text string
}

func (*BulletItem) Kind() BlockKind { return KindBullet }

// Table is a rectangular grid of cell text. Rows[0] is the header row.
type Table struct {
	Rows    [][]string
	Columns int
}

func (*Table) Kind() BlockKind { return KindTable }

// Header returns the first row, or nil for an empty table.
func (t *Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Document is the structured form of one converted response.
type Document struct {
	Title  string
	Blocks []Block
}

func (d *Document) add(b Block) {
	d.Blocks = append(d.Blocks, b)
}

// Tables returns the table blocks in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.Blocks {
		if t, ok := b.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// Count returns how many blocks of the given kind the document holds.
func (d *Document) Count(kind BlockKind) int {
	n := 0
	for _, b := range d.Blocks {
		if b.Kind() == kind {
			n++
		}
	}
	return n
}
