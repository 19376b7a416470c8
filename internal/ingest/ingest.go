// Package ingest classifies the reference documents a salesperson attaches to
// a quoting session and extracts their text when a provider cannot take the
// original file.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/docx"
	"github.com/tsawler/tabula/format"
	"github.com/tsawler/tabula/htmldoc"
	"github.com/tsawler/tabula/odt"
	"github.com/tsawler/tabula/pptx"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/xlsx"
)

// Kind is the role a document plays in the quote.
type Kind string

const (
	KindPortfolio    Kind = "portfolio"
	KindCatalog      Kind = "catalog"
	KindRequirements Kind = "requirements"
)

// Kinds lists the document kinds in the order they are sent to the model.
var Kinds = []Kind{KindPortfolio, KindCatalog, KindRequirements}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindPortfolio, KindCatalog, KindRequirements:
		return k, nil
	}
	return "", goerrors.New(fmt.Sprintf("unknown document kind %q", s), goerrors.CategoryValidation).
		WithTextCode("DOCUMENT_KIND")
}

const (
	MIMEPlain    = "text/plain"
	MIMECSV      = "text/csv"
	MIMEMarkdown = "text/markdown"
	MIMEHTML     = "text/html"
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEODT      = "application/vnd.oasis.opendocument.text"
	MIMEXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

var formatMIME = map[format.Format]string{
	format.PDF:  MIMEPDF,
	format.DOCX: MIMEDOCX,
	format.ODT:  MIMEODT,
	format.XLSX: MIMEXLSX,
	format.PPTX: MIMEPPTX,
	format.HTML: MIMEHTML,
}

var textMIME = map[string]string{
	".txt": MIMEPlain,
	".csv": MIMECSV,
	".md":  MIMEMarkdown,
}

var accepted = map[Kind][]string{
	KindPortfolio: {MIMEPDF, MIMEDOCX, MIMEODT},
	KindCatalog:   {MIMEPDF, MIMEPlain, MIMECSV, MIMEXLSX, MIMEDOCX},
}

// uploadable are the types a hosted model reads from an uploaded file. Office
// and OpenDocument files are extracted and sent as text instead.
var uploadable = map[string]bool{
	MIMEPDF:      true,
	MIMEPlain:    true,
	MIMECSV:      true,
	MIMEMarkdown: true,
	MIMEHTML:     true,
}

// Uploadable reports whether a file of this type can be handed to the
// provider as is.
func Uploadable(mimeType string) bool {
	return uploadable[mimeType]
}

// DetectMIME maps a file name to the MIME type sent to the provider.
func DetectMIME(path string) (string, error) {
	if mt, ok := textMIME[strings.ToLower(filepath.Ext(path))]; ok {
		return mt, nil
	}
	if mt, ok := formatMIME[format.Detect(path)]; ok {
		return mt, nil
	}
	return "", goerrors.New(fmt.Sprintf("unsupported file type: %s", filepath.Base(path)), goerrors.CategoryValidation).
		WithTextCode("DOCUMENT_TYPE")
}

// Accepts reports whether a file of this type may be attached as kind and
// returns its MIME type. Requirements accept anything DetectMIME knows.
func Accepts(kind Kind, path string) (string, error) {
	mt, err := DetectMIME(path)
	if err != nil {
		return "", err
	}
	allowed, restricted := accepted[kind]
	if !restricted {
		return mt, nil
	}
	for _, a := range allowed {
		if a == mt {
			return mt, nil
		}
	}
	return "", goerrors.New(fmt.Sprintf("%s does not accept %s files", kind, filepath.Ext(path)), goerrors.CategoryValidation).
		WithTextCode("DOCUMENT_TYPE")
}

// ExtractText returns the readable text of a document. Spreadsheets come back
// as Markdown tables so prices stay aligned with their products.
func ExtractText(path string) (string, error) {
	mt, err := DetectMIME(path)
	if err != nil {
		return "", err
	}

	var text string
	switch mt {
	case MIMEPlain, MIMECSV, MIMEMarkdown:
		var raw []byte
		raw, err = os.ReadFile(path)
		text = string(raw)
	case MIMEPDF:
		text, err = extractPDF(path)
	case MIMEDOCX:
		text, err = withReader(docx.Open, path, (*docx.Reader).Text)
	case MIMEODT:
		text, err = withReader(odt.Open, path, (*odt.Reader).Text)
	case MIMEPPTX:
		text, err = withReader(pptx.Open, path, (*pptx.Reader).Text)
	case MIMEHTML:
		text, err = withReader(htmldoc.Open, path, (*htmldoc.Reader).Text)
	case MIMEXLSX:
		text, err = withReader(xlsx.Open, path, (*xlsx.Reader).Markdown)
	}
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, fmt.Sprintf("failed to extract %s", filepath.Base(path))).
			WithTextCode("DOCUMENT_EXTRACT")
	}
	return strings.TrimSpace(text), nil
}

type closer interface {
	Close() error
}

func withReader[R closer](open func(string) (R, error), path string, read func(R) (string, error)) (string, error) {
	r, err := open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return read(r)
}

func extractPDF(path string) (string, error) {
	r, err := reader.Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	text, _, err := tabula.FromReader(r).JoinParagraphs().Text()
	return text, err
}
