package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"salesdesk/internal/ingest"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the text salesdesk extracts from a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mt, err := ingest.DetectMIME(args[0])
		if err != nil {
			log.Fatalf("%v", err)
		}
		text, err := ingest.ExtractText(args[0])
		if err != nil {
			log.Fatalf("Extraction failed: %v", err)
		}
		fmt.Printf("📄 %s (%s, %d characters)\n\n", args[0], mt, len(text))
		fmt.Println(text)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <session>",
	Short: "Show the stored conversation of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()
		svc := newService(cfg, store, nil, newLogger(cfg))

		docs, err := svc.Documents(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load documents: %v", err)
		}
		for _, d := range docs {
			fmt.Printf("📎 %s: %s\n", d.Kind, d.DisplayName)
		}

		history, err := svc.History(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load history: %v", err)
		}
		if len(history) == 0 {
			fmt.Println("No messages.")
			return
		}
		for i, m := range history {
			fmt.Printf("[%d] %s %s\n%s\n\n", i, m.CreatedAt.Local().Format("2006-01-02 15:04"), strings.ToUpper(string(m.Role)), m.Content)
		}
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()
		svc := newService(cfg, store, nil, newLogger(cfg))

		sessions, err := svc.Sessions(context.Background())
		if err != nil {
			log.Fatalf("Failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return
		}
		for _, s := range sessions {
			fmt.Printf("%s  %3d messages  last %s\n", s.SessionID, s.Messages, s.LastActivity.Local().Format("2006-01-02 15:04"))
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <session>",
	Short: "Delete the messages and documents of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := openStore(cfg)
		defer store.Close()
		svc := newService(cfg, store, nil, newLogger(cfg))

		if err := svc.Reset(context.Background(), args[0]); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		fmt.Printf("🧹 Session %s cleared.\n", args[0])
	},
}
