// Package app wires one store, engine and journal for a running process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"devteam/internal/chat"
	"devteam/internal/config"
	"devteam/internal/db"
	"devteam/internal/engine"
	"devteam/internal/events"
	"devteam/internal/migrate"
	"devteam/internal/repo"
	"devteam/internal/schedule"
	"devteam/internal/server"
	"devteam/internal/store"
)

// Options carries process-level dependencies that do not live in the config
// file.
type Options struct {
	Scheduler schedule.Scheduler
	Rand      engine.Source
	Logger    *slog.Logger
	// ChatAPIKey comes from the environment only.
	ChatAPIKey string
}

type App struct {
	Config  *config.Config
	Store   *store.Store
	Engine  *engine.Engine
	Chat    *chat.Client
	Journal *events.Journal
	// Repo is nil unless the journal is enabled.
	Repo *repo.Repo

	logger *slog.Logger
	conn   *sql.DB
}

// New builds the application. The journal database is opened and migrated
// only when cfg enables it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = engine.NewSource(cfg.Simulation.Seed)
	}

	a := &App{Config: cfg, Store: store.New(), logger: logger}

	var recorder engine.Recorder
	if cfg.Journal.Enabled {
		conn, err := db.Open(db.Config{Workspace: cfg.Journal.Workspace})
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		if err := migrate.Migrate(ctx, conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		a.conn = conn
		a.Repo = &repo.Repo{DB: conn}
		a.Journal = events.NewJournal(events.Writer{DB: conn}, logger.With("component", "journal"))
		recorder = a.Journal
	}

	a.Engine = engine.New(a.Store, engine.Options{
		Scheduler: opts.Scheduler,
		Rand:      rnd,
		Interval:  cfg.Simulation.TickInterval.Std(),
		LogLimit:  cfg.Simulation.LogLimit,
		Recorder:  recorder,
		Logger:    logger.With("component", "engine"),
	})

	c := chat.New(opts.ChatAPIKey)
	c.Endpoint = cfg.Chat.Endpoint
	c.Model = cfg.Chat.Model
	c.ThinkingBudget = cfg.Chat.ThinkingBudget
	c.Timeout = cfg.Chat.Timeout.Std()
	c.Logger = logger.With("component", "chat")
	a.Chat = c

	return a, nil
}

// Handler returns the HTTP API for this application.
func (a *App) Handler(auth server.AuthConfig) (http.Handler, error) {
	return server.New(server.Config{
		Store:    a.Store,
		Engine:   a.Engine,
		Journal:  a.Repo,
		Chat:     a.Chat,
		BasePath: a.Config.Server.BasePath,
		Auth:     auth,
		Logger:   a.logger.With("component", "server"),
	})
}

// Webhooks returns a dispatcher for the configured hooks, nil when the
// journal is off or no hook is configured.
func (a *App) Webhooks() *server.WebhookDispatcher {
	if a.Repo == nil || len(a.Config.Webhooks) == 0 {
		return nil
	}
	return server.NewWebhookDispatcher(*a.Repo, a.Config.Webhooks, a.logger.With("component", "webhooks"))
}

// Close stops running simulations and flushes the journal.
func (a *App) Close() error {
	for _, p := range a.Store.List() {
		a.Engine.Stop(p.ID)
	}
	if a.Journal != nil {
		a.Journal.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// ErrJournalDisabled is returned by journal readers when the config has no
// journal.
var ErrJournalDisabled = errors.New("event journal is disabled; set journal.enabled in devteam.yml")

// OpenJournal opens the journal of cfg for reading, for commands that run
// outside the server process.
func OpenJournal(ctx context.Context, cfg *config.Config) (repo.Repo, func(), error) {
	if !cfg.Journal.Enabled {
		return repo.Repo{}, nil, ErrJournalDisabled
	}
	conn, err := db.Open(db.Config{Workspace: cfg.Journal.Workspace})
	if err != nil {
		return repo.Repo{}, nil, err
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return repo.Repo{}, nil, err
	}
	return repo.Repo{DB: conn}, func() { conn.Close() }, nil
}
