// spawnd is the Spawn backend: a chat-driven React app generator. It serves
// the project API, runs the agent loop against the configured LLM, and keeps
// project sandboxes alive for live preview.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spawn/internal/config"
	"spawn/internal/llm"
	"spawn/internal/sandbox"
	"spawn/internal/search"
	"spawn/internal/server"
	"spawn/internal/store"
)

var (
	configPath string
	listenAddr string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spawnd",
	Short: "Spawn backend - chat-driven React app generator",
	Long: `spawnd serves the Spawn project API.

It manages projects whose files live in a local SQLite database, runs an
LLM agent that edits those files through tools, and provisions ephemeral
remote sandboxes that serve a live Vite dev preview of each project.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	llmTimeout, err := cfg.LLMTimeout()
	if err != nil {
		return err
	}
	ttl, err := cfg.SandboxTTL()
	if err != nil {
		return err
	}

	model := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Timeout:         llmTimeout,
	}, logger)

	provider := sandbox.NewHTTPProvider(sandbox.HTTPProviderConfig{
		APIKey:   cfg.Sandbox.APIKey,
		BaseURL:  cfg.Sandbox.BaseURL,
		Template: cfg.Sandbox.Template,
	})
	manager := sandbox.NewManager(st, provider, ttl, cfg.Sandbox.DevPort, logger)

	var searcher search.Provider
	if cfg.Search.SerperAPIKey != "" {
		searcher = search.NewSerperProvider(cfg.Search.SerperAPIKey)
	} else {
		logger.Info("no Serper API key configured, using DuckDuckGo fallback")
		searcher = search.NewDuckDuckGoProvider()
	}

	srv := server.New(st, manager, model, searcher, server.Options{
		MaxIterations:    cfg.Agent.MaxIterations,
		MaxSearchResults: cfg.Search.MaxResults,
	}, logger)

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("spawnd listening", zap.String("addr", cfg.Listen))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
