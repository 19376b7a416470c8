package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesdesk/internal/api"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP front-end",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := loadConfig()
		logger := newLogger(cfg)

		store := openStore(cfg)
		defer store.Close()

		client := connectProvider(ctx, cfg, logger)
		svc := newService(cfg, store, client, logger)

		srv, err := api.NewServer(svc, api.Config{
			UploadDir:   cfg.Server.UploadDir,
			MaxUploadMB: cfg.Server.MaxUploadMB,
			Title:       cfg.Export.Title,
		}, logger.WithFields(map[string]any{"component": "api"}))
		if err != nil {
			log.Fatalf("Failed to build server: %v", err)
		}

		httpServer := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Printf("🚀 Listening on %s (database: %s)\n", cfg.Server.Addr, cfg.Store.Path)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Server failed: %v", err)
			}
		case <-ctx.Done():
			fmt.Println("🛑 Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown failed", "error", err)
			}
		}
	},
}
