package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"salesdesk/internal/chat"
	"salesdesk/internal/config"
	"salesdesk/internal/logging"
	"salesdesk/internal/offerdoc"
	"salesdesk/internal/provider"
	"salesdesk/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "salesdesk",
		Short: "AI sales assistant that drafts IT offers and exports them to Word",
	}
	configPath string
	dbPath     string
	apiKey     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the conversation database (SQLite), overrides the config")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Fallback provider key, tried after the configured keys")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(resetCmd)
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg
}

func newLogger(cfg *config.Config) logging.Logger {
	p, err := logging.NewProvider(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	return p.Get("salesdesk")
}

func openStore(cfg *config.Config) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}

// candidateKeys returns the configured keys followed by the --api-key fallback.
func candidateKeys(cfg *config.Config) []string {
	keys := cfg.APIKeys()
	if k := strings.TrimSpace(apiKey); k != "" {
		keys = append(keys, k)
	}
	return keys
}

// connectProvider rotates through the candidate keys until one answers.
func connectProvider(ctx context.Context, cfg *config.Config, logger logging.Logger) provider.Client {
	keys := candidateKeys(cfg)
	if len(keys) == 0 {
		log.Fatalf("No API key configured. Set ai.api_keys in %s, SALESDESK_API_KEYS or --api-key.", configPath)
	}

	fmt.Printf("🔑 Checking %d API key(s) against %s...\n", len(keys), cfg.AI.Provider)
	client, sel, err := provider.Connect(ctx, provider.Options{
		Provider:     cfg.AI.Provider,
		Model:        cfg.AI.Model,
		BaseURL:      cfg.AI.BaseURL,
		ProbeTimeout: cfg.AI.ProbeTimeout,
		PollInterval: cfg.Upload.PollInterval,
		MaxAttempts:  cfg.Upload.MaxAttempts,
		Logger:       logger,
	}, keys)
	for _, r := range sel.Rejected {
		fmt.Printf("⚠️  Key %s rejected: %v\n", r.Masked, r.Err)
	}
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.AI.Provider, err)
	}
	fmt.Printf("✅ Connected with key %s (model %s)\n", provider.MaskKey(sel.Key), cfg.AI.Model)
	return client
}

func newService(cfg *config.Config, store storage.Store, client provider.Client, logger logging.Logger) *chat.Service {
	return chat.NewService(store, client, chat.Config{
		SystemInstruction: cfg.Chat.SystemInstruction,
		HistoryTurns:      cfg.Chat.HistoryTurns,
		InlineDocuments:   cfg.InlineDocuments(),
	},
		chat.WithLogger(logger.WithFields(map[string]any{"component": "chat"})),
		chat.WithConverter(offerdoc.New(
			offerdoc.WithTitle(cfg.Export.Title),
			offerdoc.WithAuthor(cfg.Export.Author),
		)),
	)
}
