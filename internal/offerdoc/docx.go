package offerdoc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

const (
	nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	// A4 text width in twips with 1" margins.
	textWidth = 9026

	bulletNumID = "1"
)

var headingStyles = map[int]string{
	0: "Title",
	1: "Heading1",
	2: "Heading2",
	3: "Heading3",
}

// documentXML mirrors word/document.xml. Body content is a mix of paragraphs
// and tables, so it is kept as a slice of values that carry their own
// element names.
type documentXML struct {
	XMLName xml.Name `xml:"w:document"`
	XmlnsW  string   `xml:"xmlns:w,attr"`
	XmlnsR  string   `xml:"xmlns:r,attr"`
	Body    bodyXML  `xml:"w:body"`
}

type bodyXML struct {
	Content []any
	SectPr  sectPrXML `xml:"w:sectPr"`
}

type sectPrXML struct {
	PageSize   pageSizeXML   `xml:"w:pgSz"`
	PageMargin pageMarginXML `xml:"w:pgMar"`
}

type pageSizeXML struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type pageMarginXML struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

type paragraphXML struct {
	XMLName    xml.Name           `xml:"w:p"`
	Properties *paragraphPropsXML `xml:"w:pPr,omitempty"`
	Runs       []runXML           `xml:"w:r"`
}

type paragraphPropsXML struct {
	Style *valXML   `xml:"w:pStyle,omitempty"`
	NumPr *numPrXML `xml:"w:numPr,omitempty"`
}

type numPrXML struct {
	ILvl  valXML `xml:"w:ilvl"`
	NumID valXML `xml:"w:numId"`
}

type valXML struct {
	Val string `xml:"w:val,attr"`
}

type emptyXML struct{}

type runXML struct {
	Properties *runPropsXML `xml:"w:rPr,omitempty"`
	Text       textXML      `xml:"w:t"`
}

type runPropsXML struct {
	Bold *emptyXML `xml:"w:b,omitempty"`
}

type textXML struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type tableXML struct {
	XMLName    xml.Name      `xml:"w:tbl"`
	Properties tablePropsXML `xml:"w:tblPr"`
	Grid       tableGridXML  `xml:"w:tblGrid"`
	Rows       []tableRowXML `xml:"w:tr"`
}

type tablePropsXML struct {
	Style   valXML          `xml:"w:tblStyle"`
	Width   widthXML        `xml:"w:tblW"`
	Borders tableBordersXML `xml:"w:tblBorders"`
}

type widthXML struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type tableBordersXML struct {
	Top     borderXML `xml:"w:top"`
	Left    borderXML `xml:"w:left"`
	Bottom  borderXML `xml:"w:bottom"`
	Right   borderXML `xml:"w:right"`
	InsideH borderXML `xml:"w:insideH"`
	InsideV borderXML `xml:"w:insideV"`
}

type borderXML struct {
	Val   string `xml:"w:val,attr"`
	Size  int    `xml:"w:sz,attr"`
	Space int    `xml:"w:space,attr"`
	Color string `xml:"w:color,attr"`
}

type tableGridXML struct {
	Cols []gridColXML `xml:"w:gridCol"`
}

type gridColXML struct {
	W int `xml:"w:w,attr"`
}

type tableRowXML struct {
	Properties *rowPropsXML   `xml:"w:trPr,omitempty"`
	Cells      []tableCellXML `xml:"w:tc"`
}

type rowPropsXML struct {
	Header *emptyXML `xml:"w:tblHeader,omitempty"`
}

type tableCellXML struct {
	Properties cellPropsXML   `xml:"w:tcPr"`
	Paragraphs []paragraphXML `xml:"w:p"`
}

type cellPropsXML struct {
	Width widthXML `xml:"w:tcW"`
}

func singleBorder() borderXML {
	return borderXML{Val: "single", Size: 4, Space: 0, Color: "auto"}
}

func newRun(text string, bold bool) runXML {
	r := runXML{Text: textXML{Space: "preserve", Value: text}}
	if bold {
		r.Properties = &runPropsXML{Bold: &emptyXML{}}
	}
	return r
}

func styledParagraph(style string, runs ...runXML) paragraphXML {
	return paragraphXML{
		Properties: &paragraphPropsXML{Style: &valXML{Val: style}},
		Runs:       runs,
	}
}

func headingXML(h *Heading) paragraphXML {
	style, ok := headingStyles[h.Level]
	if !ok {
		style = "Heading3"
	}
	return styledParagraph(style, newRun(h.Text, false))
}

func paragraphToXML(p *Paragraph) paragraphXML {
	out := paragraphXML{}
	for _, r := range p.Runs {
		out.Runs = append(out.Runs, newRun(r.Text, r.Bold))
	}
	return out
}

func bulletXML(b *BulletItem) paragraphXML {
	return paragraphXML{
		Properties: &paragraphPropsXML{
			Style: &valXML{Val: "ListBullet"},
			NumPr: &numPrXML{ILvl: valXML{Val: "0"}, NumID: valXML{Val: bulletNumID}},
		},
		Runs: []runXML{newRun(b.Text, false)},
	}
}

func tableToXML(t *Table) tableXML {
	cols := t.Columns
	if cols < 1 {
		cols = 1
	}
	colWidth := textWidth / cols

	out := tableXML{
		Properties: tablePropsXML{
			Style: valXML{Val: "TableGrid"},
			Width: widthXML{W: 0, Type: "auto"},
			Borders: tableBordersXML{
				Top:     singleBorder(),
				Left:    singleBorder(),
				Bottom:  singleBorder(),
				Right:   singleBorder(),
				InsideH: singleBorder(),
				InsideV: singleBorder(),
			},
		},
	}
	for i := 0; i < cols; i++ {
		out.Grid.Cols = append(out.Grid.Cols, gridColXML{W: colWidth})
	}

	for i, row := range t.Rows {
		header := i == 0
		tr := tableRowXML{}
		if header {
			tr.Properties = &rowPropsXML{Header: &emptyXML{}}
		}
		for j := 0; j < cols; j++ {
			var text string
			if j < len(row) {
				text = row[j]
			}
			p := paragraphXML{}
			if text != "" {
				p.Runs = []runXML{newRun(text, header)}
			}
			tr.Cells = append(tr.Cells, tableCellXML{
				Properties: cellPropsXML{Width: widthXML{W: colWidth, Type: "dxa"}},
				Paragraphs: []paragraphXML{p},
			})
		}
		out.Rows = append(out.Rows, tr)
	}
	return out
}

func documentToXML(doc *Document) documentXML {
	out := documentXML{XmlnsW: nsW, XmlnsR: nsR}
	for _, b := range doc.Blocks {
		switch v := b.(type) {
		case *Heading:
			out.Body.Content = append(out.Body.Content, headingXML(v))
		case *Paragraph:
			out.Body.Content = append(out.Body.Content, paragraphToXML(v))
		case *BulletItem:
			out.Body.Content = append(out.Body.Content, bulletXML(v))
		case *Table:
			out.Body.Content = append(out.Body.Content, tableToXML(v))
		}
	}
	out.Body.SectPr = sectPrXML{
		PageSize:   pageSizeXML{W: 11906, H: 16838},
		PageMargin: pageMarginXML{Top: 1440, Right: 1440, Bottom: 1440, Left: 1440, Header: 708, Footer: 708},
	}
	return out
}

// docxPackage is the set of parts written to the ZIP container, in order.
type docxPackage struct {
	parts []part
}

type part struct {
	name string
	data []byte
}

func newPackage(doc *Document, author string, created time.Time) (*docxPackage, error) {
	body, err := marshalDocument(doc)
	if err != nil {
		return nil, err
	}
	return &docxPackage{parts: []part{
		{name: "[Content_Types].xml", data: []byte(contentTypesXML)},
		{name: "_rels/.rels", data: []byte(packageRelsXML)},
		{name: "docProps/core.xml", data: coreProps(doc.Title, author, created)},
		{name: "docProps/app.xml", data: []byte(appPropsXML)},
		{name: "word/_rels/document.xml.rels", data: []byte(documentRelsXML)},
		{name: "word/styles.xml", data: []byte(stylesXML)},
		{name: "word/numbering.xml", data: []byte(numberingXML)},
		{name: "word/document.xml", data: body},
	}}, nil
}

func (p *docxPackage) write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, pt := range p.parts {
		f, err := zw.Create(pt.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", pt.name, err)
		}
		if _, err := f.Write(pt.data); err != nil {
			return fmt.Errorf("write %s: %w", pt.name, err)
		}
	}
	return zw.Close()
}

func marshalDocument(doc *Document) ([]byte, error) {
	body, err := xml.Marshal(documentToXML(doc))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	return buf.Bytes(), nil
}

func coreProps(title, author string, created time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" `)
	buf.WriteString(`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" `)
	buf.WriteString(`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	writeElement(&buf, "dc:title", title)
	writeElement(&buf, "dc:creator", author)
	writeElement(&buf, "cp:lastModifiedBy", author)
	writeElement(&buf, "cp:revision", "1")
	stamp := created.Format(time.RFC3339)
	fmt.Fprintf(&buf, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, stamp)
	fmt.Fprintf(&buf, `<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`, stamp)
	buf.WriteString(`</cp:coreProperties>`)
	return buf.Bytes()
}

func writeElement(buf *bytes.Buffer, name, value string) {
	fmt.Fprintf(buf, "<%s>", name)
	_ = xml.EscapeText(buf, []byte(value))
	fmt.Fprintf(buf, "</%s>", name)
}
