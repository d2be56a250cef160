package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a11ylab/appscan/internal/api"
	"github.com/a11ylab/appscan/internal/config"
	"github.com/a11ylab/appscan/internal/engine"
	"github.com/a11ylab/appscan/internal/enrich"
	"github.com/a11ylab/appscan/internal/rules"
	"github.com/a11ylab/appscan/internal/scan"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()

	catalog := rules.Default()
	if cfg.RulesPath != "" {
		f, err := os.Open(cfg.RulesPath)
		if err != nil {
			log.Error("cannot open rules config", "path", cfg.RulesPath, "error", err)
			os.Exit(1)
		}
		catalog, err = engine.ApplyCatalog(f, catalog)
		f.Close()
		if err != nil {
			log.Error("invalid rules config", "path", cfg.RulesPath, "error", err)
			os.Exit(1)
		}
	}

	var enricher enrich.Enricher = enrich.Identity{}
	var claude *enrich.ClaudeEnricher
	if cfg.AnthropicAPIKey != "" {
		claude = enrich.NewClaudeEnricher(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.EnrichBatchSize, log)
		enricher = claude
	}

	opts := scan.Options{
		Rules:        catalog,
		Enricher:     enricher,
		ParseWorkers: cfg.ParseWorkers,
		Log:          log,
	}
	srv := api.NewServer(opts, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if claude != nil {
			claude.Close()
		}
	}()

	log.Info("starting appscan", "port", cfg.Port, "rules", len(catalog), "enrichment", cfg.AnthropicAPIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
