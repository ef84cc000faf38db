package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/guyr22/web-dev-final-project/internal/ai"
	"github.com/guyr22/web-dev-final-project/internal/api"
	"github.com/guyr22/web-dev-final-project/internal/auth"
	"github.com/guyr22/web-dev-final-project/internal/blob"
	"github.com/guyr22/web-dev-final-project/internal/config"
	"github.com/guyr22/web-dev-final-project/internal/google"
	"github.com/guyr22/web-dev-final-project/internal/store"
	"github.com/guyr22/web-dev-final-project/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Optional; env vars may come from the real environment instead.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}

	blobs, err := blob.NewService(cfg.Storage.UploadRoot, cfg.Storage.UploadMaxBytes)
	if err != nil {
		return err
	}

	tagger, err := newTagger(ctx, cfg)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenService(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL.Std(),
		cfg.Auth.RefreshTokenTTL.Std(),
	)

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Shutdown()

	server := api.NewServer(api.Deps{
		Users:    db.Users(),
		Posts:    db.Posts(),
		Store:    db,
		Tokens:   tokens,
		Verifier: google.NewIDTokenVerifier(cfg.Google.ClientID),
		Blobs:    blobs,
		Tagger:   tagger,
		Hub:      hub,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

func newTagger(ctx context.Context, cfg *config.Config) (ai.Tagger, error) {
	if cfg.AI.MockMode || cfg.AI.GeminiAPIKey == "" {
		slog.Info("ai tagger running in mock mode")
		return ai.MockTagger{}, nil
	}
	return ai.NewGeminiTagger(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model)
}
