package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salesdesk/internal/offerdoc"

	"github.com/goliatone/go-slug"
	"github.com/spf13/cobra"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (derived from the title when empty)")
}

var exportCmd = &cobra.Command{
	Use:   "export <markdown-file>",
	Short: "Convert a Markdown offer to a Word document without calling the model",
	Long: `Convert a Markdown offer to a Word document without calling the model.

The file may start with a YAML header setting title, author and client.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		source, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read %s: %v", args[0], err)
		}
		meta, body, err := offerdoc.SplitFrontMatter(source)
		if err != nil {
			log.Fatalf("Failed to read header of %s: %v", args[0], err)
		}

		opts := []offerdoc.Option{
			offerdoc.WithTitle(cfg.Export.Title),
			offerdoc.WithAuthor(cfg.Export.Author),
		}
		conv := offerdoc.New(append(opts, meta.Options()...)...)

		out := exportOut
		if out == "" {
			out = filepath.Join(filepath.Dir(args[0]), exportFileName(meta))
		}

		r, err := conv.Convert(body)
		if err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}
		f, err := os.Create(out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", out, err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			log.Fatalf("Failed to write %s: %v", out, err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to write %s: %v", out, err)
		}

		doc := conv.Parse(body)
		fmt.Printf("📄 %s written (%d tables, %d paragraphs, %d bullets)\n",
			out, doc.Count(offerdoc.KindTable), doc.Count(offerdoc.KindParagraph), doc.Count(offerdoc.KindBullet))
	},
}

// exportFileName names the output after the client, then the title, then the
// current time.
func exportFileName(meta offerdoc.Meta) string {
	for _, candidate := range []string{meta.Client, meta.Title} {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		if s, err := slug.Normalize(candidate); err == nil && s != "" {
			return "oferta_" + s + ".docx"
		}
	}
	return time.Now().Format("oferta_20060102_1504.docx")
}
