package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"salesdesk/internal/chat"
	"salesdesk/internal/ingest"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	chatSession string
	chatOutDir  string
	chatPlain   bool
	chatFiles   = map[ingest.Kind]*string{
		ingest.KindPortfolio:    new(string),
		ingest.KindCatalog:      new(string),
		ingest.KindRequirements: new(string),
	}
)

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Session to resume (a new one is created when empty)")
	chatCmd.Flags().StringVarP(&chatOutDir, "out", "o", ".", "Directory for exported offers")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Print answers as raw Markdown")
	for _, kind := range ingest.Kinds {
		chatCmd.Flags().StringVar(chatFiles[kind], string(kind), "", fmt.Sprintf("Attach a %s document", kind))
	}
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive quoting session in the terminal",
	Long: `Interactive quoting session in the terminal.

Commands inside the session:
  /export [index]  save the latest (or the given) answer as a Word offer
  /history         show the conversation
  /reset           forget messages and documents of this session
  /quit            leave`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		logger := newLogger(cfg)

		store := openStore(cfg)
		defer store.Close()

		client := connectProvider(ctx, cfg, logger)
		svc := newService(cfg, store, client, logger)

		session := strings.TrimSpace(chatSession)
		if session == "" {
			session = chat.NewSessionID()
		}
		fmt.Printf("💬 Session %s\n", session)

		for _, kind := range ingest.Kinds {
			path := strings.TrimSpace(*chatFiles[kind])
			if path == "" {
				continue
			}
			fmt.Printf("📎 Attaching %s: %s\n", kind, path)
			if _, err := svc.Attach(ctx, chat.AttachCommand{SessionID: session, Kind: string(kind), Path: path}); err != nil {
				fmt.Printf("⚠️  %v\n", err)
				continue
			}
			fmt.Printf("✅ %s ready\n", filepath.Base(path))
		}

		render := markdownPrinter(chatPlain)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		fmt.Println("Describe what the client needs (/quit to leave).")
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "/") {
				if !runChatCommand(ctx, svc, session, line) {
					return
				}
				continue
			}

			fmt.Println("🧠 Thinking...")
			reply, err := svc.Ask(ctx, chat.AskCommand{SessionID: session, Prompt: line})
			if err != nil {
				fmt.Printf("⚠️  %v\n", err)
				continue
			}
			render(reply.Message.Content)
			fmt.Printf("(answer #%d, /export to save it as DOCX)\n", reply.Index)
		}
		if err := scanner.Err(); err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
	},
}

// runChatCommand handles a slash command and reports whether the session
// should continue.
func runChatCommand(ctx context.Context, svc *chat.Service, session, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		fmt.Printf("👋 Bye. Resume with --session %s\n", session)
		return false
	case "/reset":
		if err := svc.Reset(ctx, session); err != nil {
			fmt.Printf("⚠️  %v\n", err)
		} else {
			fmt.Println("🧹 Session cleared.")
		}
	case "/history":
		history, err := svc.History(ctx, session)
		if err != nil {
			fmt.Printf("⚠️  %v\n", err)
			break
		}
		for i, m := range history {
			fmt.Printf("[%d] %s: %s\n", i, strings.ToUpper(string(m.Role)), m.Content)
		}
	case "/export":
		index := -1
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Printf("⚠️  invalid index %q\n", fields[1])
				break
			}
			index = n
		}
		out, err := svc.Export(ctx, chat.ExportCommand{SessionID: session, Index: index})
		if err != nil {
			fmt.Printf("⚠️  %v\n", err)
			break
		}
		path := filepath.Join(chatOutDir, out.FileName)
		if err := os.WriteFile(path, out.Data, 0o644); err != nil {
			fmt.Printf("⚠️  %v\n", err)
			break
		}
		fmt.Printf("📄 Offer saved to %s\n", path)
	default:
		fmt.Printf("Unknown command %s\n", fields[0])
	}
	return true
}

// markdownPrinter renders answers for the terminal, falling back to the raw
// text when styling is disabled or fails.
func markdownPrinter(plain bool) func(string) {
	if plain {
		return func(md string) { fmt.Println(md) }
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return func(md string) { fmt.Println(md) }
	}
	return func(md string) {
		out, err := r.Render(md)
		if err != nil {
			fmt.Println(md)
			return
		}
		fmt.Print(out)
	}
}
