// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/assets"
	"github.com/starford/raido/internal/avatar"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/prompt"
	"github.com/starford/raido/internal/scaffold"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
)

// Commands understood by Run.
const (
	CommandWriteup = "writeup"
	CommandRemove  = "remove"
	CommandTags    = "tags"
	CommandRetag   = "retag"
	CommandIndex   = "index"
	CommandSearch  = "search"
	CommandWatch   = "watch"
	CommandServe   = "serve"
	CommandMCP     = "mcp"
)

// runtime holds the components shared by every command.
type runtime struct {
	cfg    *Config
	store  *storage.FS
	engine *catalog.Engine
	images *assets.Store
	logger *slog.Logger
	out    io.Writer
}

// Run executes command with the given options.
func Run(ctx context.Context, command string, opts ...Option) error {
	app := &application{out: os.Stdout, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger, closeLog := newLogger(&cfg.App)
	defer closeLog()
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	logger.Debug("configuration loaded",
		slog.String("command", command),
		slog.String("site_root", store.Root()),
		slog.String("pages_dir", cfg.Site.PagesDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt := newRuntime(cfg, store, logger, app.out)

	switch command {
	case CommandWriteup, CommandRemove, CommandTags, CommandRetag:
		return rt.interactive(ctx, command, app.prompter)
	case CommandIndex:
		return rt.withIndex(ctx, func(db *index.DB) error {
			_, total, err := db.ListPosts("", 1, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "indexed %d posts into %s\n", total, cfg.SQLite.Path)
			return nil
		})
	case CommandSearch:
		query := strings.TrimSpace(strings.Join(app.args, " "))
		if query == "" {
			return fmt.Errorf("search: query is required: %w", apperr.ErrMalformedInput)
		}
		return rt.withIndex(ctx, func(db *index.DB) error { return rt.search(db, query) })
	case CommandWatch:
		return rt.withIndex(ctx, func(db *index.DB) error { return rt.watch(ctx, db, nil) })
	case CommandServe:
		return rt.withIndex(ctx, func(db *index.DB) error { return rt.serve(ctx, db) })
	case CommandMCP:
		return rt.withIndex(ctx, func(db *index.DB) error {
			return mcpserver.New(db, app.version).ServeStdio()
		})
	default:
		return fmt.Errorf("unknown command %q: %w", command, apperr.ErrMalformedInput)
	}
}

// newLogger writes JSON logs to stderr, or to a rotated file when one is
// configured. stdout belongs to the operator.
func newLogger(cfg *ApplicationConfig) (*slog.Logger, func()) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		w = lj
		closeFn = func() { _ = lj.Close() }
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel})), closeFn
}

func newRuntime(cfg *Config, store *storage.FS, logger *slog.Logger, out io.Writer) *runtime {
	var fetcher assets.Fetcher
	if cfg.Avatar.Enabled() {
		fetcher = avatar.New(cfg.Avatar)
	}
	images := assets.New(store, cfg.Site.ImagesDir, cfg.Site.ImagesURL, fetcher)
	engine := catalog.New(store, cfg.Layout(),
		catalog.WithLogger(logger),
		catalog.WithDateFormat(cfg.Defaults.DateFormat),
		catalog.WithImages(images),
	)
	return &runtime{cfg: cfg, store: store, engine: engine, images: images, logger: logger, out: out}
}

func (rt *runtime) interactive(ctx context.Context, command string, p prompt.Prompter) error {
	if p == nil {
		p = prompt.Huh{Accessible: os.Getenv("ACCESSIBLE") != ""}
	}
	s := session.New(p, rt.engine, rt.out,
		session.WithImages(rt.images),
		session.WithGenerator(scaffold.New(rt.store, rt.cfg.Site.WriteupsDir)),
		session.WithDefaults(rt.cfg.Defaults.Session()),
		session.WithLogger(rt.logger),
	)
	switch command {
	case CommandWriteup:
		return s.Generate(ctx)
	case CommandRemove:
		return s.Remove(ctx)
	case CommandTags:
		return s.ManageTags(ctx)
	default:
		return s.Retag(ctx)
	}
}

// withIndex opens the index, brings it up to date and runs fn.
func (rt *runtime) withIndex(ctx context.Context, fn func(*index.DB) error) error {
	path := rt.cfg.SQLite.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(rt.store.Root(), path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if _, err := index.Sync(ctx, db, rt.engine, rt.store, rt.engine.Layout().Documents(), rt.logger); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	return fn(db)
}

func (rt *runtime) search(db *index.DB, query string) error {
	results, err := db.Search(query, 20)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(rt.out, "no posts match %q\n", query)
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(rt.out, "%-40s %s\n  %s\n", r.Title, r.ID, r.Snippet)
	}
	return nil
}

func (rt *runtime) reindexer(db *index.DB, broker *sse.Broker) *reindexer {
	return &reindexer{engine: rt.engine, db: db, store: rt.store, broker: broker, logger: rt.logger}
}

// watch keeps the tag aggregate and the index current until ctx ends.
func (rt *runtime) watch(ctx context.Context, db *index.DB, broker *sse.Broker) error {
	r := rt.reindexer(db, broker)
	if _, err := r.sync(ctx); err != nil {
		rt.logger.Warn("watcher: initial rebuild failed", slog.String("error", err.Error()))
	}
	return index.Watch(ctx, rt.store.Root(), rt.engine.Layout().Documents(), rt.logger, r.onChange)
}

func (rt *runtime) serve(ctx context.Context, db *index.DB) error {
	cfg := rt.cfg
	logger := rt.logger

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := api.NewService(db, rt.reindexer(db, broker))
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.watch(gCtx, db, broker)
	})

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
