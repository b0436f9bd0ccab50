package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	gitadapter "github.com/ericfisherdev/reviewanchor/internal/adapter/driven/git"
	githubadapter "github.com/ericfisherdev/reviewanchor/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/reviewanchor/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/reviewanchor/internal/adapter/driving/http"
	"github.com/ericfisherdev/reviewanchor/internal/application"
	"github.com/ericfisherdev/reviewanchor/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"repo", cfg.Repo,
		"workdir", cfg.WorkDir,
		"poll_interval", cfg.PollInterval,
		"debounce", cfg.Debounce,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	commentStore := sqliteadapter.NewCommentRepo(db)

	gitEngine, err := gitadapter.NewEngine(cfg.WorkDir)
	if err != nil {
		return err
	}

	// 6. Sessions and the change buffer the front-end drains.
	changes := httphandler.NewChangeBuffer()
	sessions := application.NewSessionManager(cfg.Debounce, changes, slog.Default())

	// 7. GitHub client and sync loop, only with credentials; without them the
	// daemon serves cached threads and never talks to GitHub.
	var ghClient *githubadapter.Client
	var syncSvc *application.SyncService
	if cfg.HasGitHubCredentials() {
		ghClient = githubadapter.NewClient(cfg.GitHubToken)
		syncSvc = application.NewSyncService(
			ghClient,
			commentStore,
			gitEngine,
			sessions,
			cfg.Repo,
			cfg.PollInterval,
		)
		go syncSvc.Start(ctx)
		slog.Info("github sync started", "repo", cfg.Repo)
	} else {
		slog.Info("no github credentials configured, running offline")
	}

	// 8. HTTP API.
	apiHandler := newAPIHandler(sessions, commentStore, ghClient, syncSvc, changes, cfg.Repo)
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("reviewanchor started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newAPIHandler builds the handler, keeping nil interface values genuinely
// nil: a nil *Client stuffed straight into the GitHubClient parameter would
// compare non-nil inside the handler.
func newAPIHandler(
	sessions *application.SessionManager,
	store *sqliteadapter.CommentRepo,
	ghClient *githubadapter.Client,
	syncSvc *application.SyncService,
	changes *httphandler.ChangeBuffer,
	repo string,
) *httphandler.Handler {
	if ghClient == nil || syncSvc == nil {
		return httphandler.NewHandler(sessions, store, nil, nil, changes, repo, slog.Default())
	}
	return httphandler.NewHandler(sessions, store, ghClient, syncSvc, changes, repo, slog.Default())
}
