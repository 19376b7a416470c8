// Package offerdoc turns a model answer written in a small Markdown dialect
// into a Word document.
//
// The dialect covers #, ## and ### headings, "- " bullets, **bold** spans and
// pipe-delimited tables with an optional --- separator row. Anything else is
// rendered as a plain paragraph, so conversion never fails on input shape.
package offerdoc

import (
	"regexp"
	"strings"
)

// DefaultTitle is emitted as the first block of every document.
const DefaultTitle = "Offer / AI Report"

var boldSpan = regexp.MustCompile(`\*\*.*?\*\*`)

// Parse converts source into a Document titled DefaultTitle.
func Parse(source string) *Document {
	return New().Parse(source)
}

// Parse runs the single forward pass over the lines of source.
func (c *Converter) Parse(source string) *Document {
	doc := &Document{Title: c.title}
	doc.add(&Heading{Level: 0, Text: c.title})

	var pending [][]string
	flush := func() {
		if len(pending) == 0 {
			return
		}
		doc.add(buildTable(pending))
		doc.add(&Paragraph{})
		pending = nil
	}

	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)

		if isTableRow(line) {
			if strings.Contains(line, "---") {
				continue
			}
			pending = append(pending, splitCells(line))
			continue
		}

		flush()
		if line == "" {
			continue
		}
		doc.add(classify(line))
	}
	flush()

	return doc
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

// splitCells drops the empty fields produced by the outer pipes. A bare "|"
// still yields one blank cell.
func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) <= 2 {
		return []string{""}
	}
	parts = parts[1 : len(parts)-1]
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// buildTable sizes the grid from the first row. Extra cells in later rows are
// dropped and missing ones stay blank.
func buildTable(rows [][]string) *Table {
	cols := len(rows[0])
	t := &Table{Columns: cols, Rows: make([][]string, len(rows))}
	for i, row := range rows {
		t.Rows[i] = make([]string, cols)
		for j, cell := range row {
			if j < cols {
				t.Rows[i][j] = cell
			}
		}
	}
	return t
}

func classify(line string) Block {
	switch {
	case strings.HasPrefix(line, "###"):
		return &Heading{Level: 3, Text: strings.TrimSpace(line[3:])}
	case strings.HasPrefix(line, "##"):
		return &Heading{Level: 2, Text: strings.TrimSpace(line[2:])}
	case strings.HasPrefix(line, "#"):
		return &Heading{Level: 1, Text: strings.TrimSpace(line[1:])}
	case strings.HasPrefix(line, "- "):
		return &BulletItem{Text: line[2:]}
	default:
		return &Paragraph{Runs: SplitRuns(line)}
	}
}

// SplitRuns segments text on lazy **...** spans. Empty segments are skipped,
// so joining the run texts gives the input with the markers removed.
func SplitRuns(text string) []Run {
	var runs []Run
	appendSegment := func(seg string) {
		if r := segmentRun(seg); r.Text != "" {
			runs = append(runs, r)
		}
	}

	last := 0
	for _, loc := range boldSpan.FindAllStringIndex(text, -1) {
		appendSegment(text[last:loc[0]])
		appendSegment(text[loc[0]:loc[1]])
		last = loc[1]
	}
	appendSegment(text[last:])

	return runs
}

func segmentRun(seg string) Run {
	if strings.HasPrefix(seg, "**") && strings.HasSuffix(seg, "**") {
		if len(seg) <= 4 {
			return Run{Bold: true}
		}
		return Run{Text: seg[2 : len(seg)-2], Bold: true}
	}
	return Run{Text: seg}
}
