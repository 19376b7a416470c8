package offerdoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyInputOnlyTitle(t *testing.T) {
	doc := Parse("")

	require.Len(t, doc.Blocks, 1)
	h, ok := doc.Blocks[0].(*Heading)
	require.True(t, ok)
	assert.Equal(t, 0, h.Level)
	assert.Equal(t, DefaultTitle, h.Text)
}

func TestParse_PlainLinesBecomeParagraphs(t *testing.T) {
	src := "First line\n\n   Second line   \n\t\nThird line"
	doc := Parse(src)

	require.Len(t, doc.Blocks, 4)
	var got []string
	for _, b := range doc.Blocks[1:] {
		p, ok := b.(*Paragraph)
		require.True(t, ok)
		got = append(got, p.Text())
	}
	assert.Equal(t, []string{"First line", "Second line", "Third line"}, got)
}

func TestParse_HeadingPriority(t *testing.T) {
	doc := Parse("### Sub\n## Mid\n# Top\n#NoSpace")

	require.Len(t, doc.Blocks, 5)
	want := []Heading{{3, "Sub"}, {2, "Mid"}, {1, "Top"}, {1, "NoSpace"}}
	for i, w := range want {
		h, ok := doc.Blocks[i+1].(*Heading)
		require.True(t, ok, "block %d", i+1)
		assert.Equal(t, w, *h)
	}
}

func TestParse_Bullets(t *testing.T) {
	doc := Parse("- Laptop 14\"\n-not a bullet\n-  two spaces")

	require.Len(t, doc.Blocks, 4)
	b, ok := doc.Blocks[1].(*BulletItem)
	require.True(t, ok)
	assert.Equal(t, "Laptop 14\"", b.Text)

	_, ok = doc.Blocks[2].(*Paragraph)
	assert.True(t, ok)

	b, ok = doc.Blocks[3].(*BulletItem)
	require.True(t, ok)
	assert.Equal(t, " two spaces", b.Text)
}

func TestSplitRuns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Run
	}{
		{
			name: "whole line bold",
			in:   "**Total: 500**",
			want: []Run{{Text: "Total: 500", Bold: true}},
		},
		{
			name: "bold in the middle",
			in:   "Price is **50** lei",
			want: []Run{{Text: "Price is "}, {Text: "50", Bold: true}, {Text: " lei"}},
		},
		{
			name: "lazy match",
			in:   "**a** and **b**",
			want: []Run{{Text: "a", Bold: true}, {Text: " and "}, {Text: "b", Bold: true}},
		},
		{
			name: "unbalanced marker stays plain",
			in:   "VAT **included",
			want: []Run{{Text: "VAT **included"}},
		},
		{
			name: "no markers",
			in:   "plain text",
			want: []Run{{Text: "plain text"}},
		},
		{
			name: "empty bold span is dropped",
			in:   "x****y",
			want: []Run{{Text: "x"}, {Text: "y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRuns(tt.in))
		})
	}
}

func TestSplitRuns_ConcatenationDropsMarkersOnly(t *testing.T) {
	in := "Offer for **ACME SRL**: **10** laptops, delivery in **5 days**."
	var sb strings.Builder
	for _, r := range SplitRuns(in) {
		sb.WriteString(r.Text)
	}
	assert.Equal(t, strings.ReplaceAll(in, "**", ""), sb.String())
}

func TestParse_TableWithSeparator(t *testing.T) {
	doc := Parse("| A | B |\n|---|---|\n| 1 | 2 |")

	tables := doc.Tables()
	require.Len(t, tables, 1)
	tbl := tables[0]
	assert.Equal(t, 2, tbl.Columns)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, tbl.Rows)
	assert.Equal(t, []string{"A", "B"}, tbl.Header())

	// title, table, spacer
	require.Len(t, doc.Blocks, 3)
	spacer, ok := doc.Blocks[2].(*Paragraph)
	require.True(t, ok)
	assert.Empty(t, spacer.Runs)
}

func TestParse_TableExtraCellsDropped(t *testing.T) {
	doc := Parse("| Item | Price |\n| Laptop | 4500 | extra |\n| Mouse |")

	tbl := doc.Tables()[0]
	assert.Equal(t, 2, tbl.Columns)
	assert.Equal(t, []string{"Laptop", "4500"}, tbl.Rows[1])
	assert.Equal(t, []string{"Mouse", ""}, tbl.Rows[2])
}

func TestParse_HeaderOnlyTable(t *testing.T) {
	doc := Parse("| Only | Header |\n|:---|---:|")

	tbl := doc.Tables()[0]
	assert.Len(t, tbl.Rows, 1)
	assert.Equal(t, 2, tbl.Columns)
}

func TestParse_BarePipeYieldsOneCell(t *testing.T) {
	doc := Parse("|")

	tbl := doc.Tables()[0]
	assert.Equal(t, 1, tbl.Columns)
	assert.Equal(t, [][]string{{""}}, tbl.Rows)
}

func TestParse_TablesSeparatedByParagraph(t *testing.T) {
	src := strings.Join([]string{
		"| A | B |",
		"| 1 | 2 |",
		"",
		"Between tables",
		"| C |",
		"| 3 |",
	}, "\n")
	doc := Parse(src)

	kinds := make([]BlockKind, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		kinds = append(kinds, b.Kind())
	}
	assert.Equal(t, []BlockKind{
		KindHeading,
		KindTable, KindParagraph,
		KindParagraph,
		KindTable, KindParagraph,
	}, kinds)

	tables := doc.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, tables[0].Rows)
	assert.Equal(t, [][]string{{"C"}, {"3"}}, tables[1].Rows)

	between := doc.Blocks[3].(*Paragraph)
	assert.Equal(t, "Between tables", between.Text())
}

func TestParse_TableFlushedByHeading(t *testing.T) {
	doc := Parse("| A |\n| 1 |\n## Totals\n**Total: 500**")

	require.Len(t, doc.Blocks, 5)
	assert.Equal(t, KindTable, doc.Blocks[1].Kind())
	assert.Equal(t, KindParagraph, doc.Blocks[2].Kind())
	assert.Equal(t, &Heading{Level: 2, Text: "Totals"}, doc.Blocks[3])
	assert.Equal(t, []Run{{Text: "Total: 500", Bold: true}}, doc.Blocks[4].(*Paragraph).Runs)
}

func TestParse_TableCellsKeepMarkers(t *testing.T) {
	doc := Parse("| **Item** | Qty |\n| Server | 1 |")

	assert.Equal(t, "**Item**", doc.Tables()[0].Rows[0][0])
}

func TestParse_CustomTitle(t *testing.T) {
	doc := New(WithTitle("Oferta ACME")).Parse("hello")

	assert.Equal(t, "Oferta ACME", doc.Title)
	assert.Equal(t, &Heading{Level: 0, Text: "Oferta ACME"}, doc.Blocks[0])
	assert.Equal(t, 1, doc.Count(KindParagraph))
}

func TestParse_CRLFInput(t *testing.T) {
	doc := Parse("# Offer\r\n- item\r\n")

	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, &Heading{Level: 1, Text: "Offer"}, doc.Blocks[1])
	assert.Equal(t, &BulletItem{Text: "item"}, doc.Blocks[2])
}
