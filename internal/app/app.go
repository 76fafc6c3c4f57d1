// Package app wires the long-lived services behind the screens: the
// favorites database, the catalog client, metrics and the screen engines.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/cevizenes/recipeapp/internal/catalog"
	"github.com/cevizenes/recipeapp/internal/config"
	"github.com/cevizenes/recipeapp/internal/engine"
	"github.com/cevizenes/recipeapp/internal/favorites"
	"github.com/cevizenes/recipeapp/internal/logging"
	"github.com/cevizenes/recipeapp/internal/metrics"
	"github.com/cevizenes/recipeapp/internal/screen/details"
	favscreen "github.com/cevizenes/recipeapp/internal/screen/favorites"
	"github.com/cevizenes/recipeapp/internal/screen/home"
	"github.com/cevizenes/recipeapp/internal/screen/search"
	"github.com/cevizenes/recipeapp/internal/store"
	"github.com/cevizenes/recipeapp/internal/ui"
)

// App owns the services shared by every screen.
// IMPORTANT: the UI never touches these directly. It only sees engines.
type App struct {
	Config    *config.Config
	Catalog   *catalog.Service
	Favorites *favorites.Store

	db       *store.Store
	client   *catalog.Client
	registry *prom.Registry
	recorder metrics.Recorder
	server   *http.Server
}

// New opens the favorites database and builds the catalog client from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open favorites database: %w", err)
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	favs, err := favorites.New(ctx, db, favorites.WithRecorder(recorder))
	if err != nil {
		db.Close()
		return nil, err
	}

	client := catalog.NewClient(cfg.API.Key,
		catalog.WithBaseURL(cfg.API.BaseURL),
		catalog.WithTimeout(cfg.API.Timeout),
		catalog.WithRateLimit(cfg.API.RateLimit),
		catalog.WithPageSize(cfg.Search.PageSize),
		catalog.WithRecorder(recorder),
	)
	if !client.Available() {
		logging.Warn("no API key configured; catalog requests will be rejected", "env", config.EnvAPIKey)
	}

	return &App{
		Config:    cfg,
		Catalog:   catalog.NewService(client),
		Favorites: favs,
		db:        db,
		client:    client,
		registry:  registry,
		recorder:  recorder,
	}, nil
}

// Online reports whether catalog requests can authenticate.
func (a *App) Online() bool { return a.client.Available() }

// Screens holds one engine per screen.
type Screens struct {
	Home      *home.Engine
	Search    *search.Engine
	Details   *details.Engine
	Favorites *favscreen.Engine
}

// Engines returns the screens as the UI sees them.
func (s *Screens) Engines() ui.Engines {
	return ui.Engines{
		Home:      s.Home,
		Search:    s.Search,
		Details:   s.Details,
		Favorites: s.Favorites,
	}
}

// Close stops every engine.
func (s *Screens) Close() {
	s.Home.Close()
	s.Search.Close()
	s.Details.Close()
	s.Favorites.Close()
}

// Screens starts the four screen engines. Home and favorites begin
// loading at once.
func (a *App) Screens(opts ...engine.Option) *Screens {
	searchOpts := []search.Option{
		search.WithDebounce(a.Config.Search.Debounce),
		search.WithRecorder(a.recorder),
	}
	return &Screens{
		Home:      home.New(a.Catalog, a.Config.Home.RandomCount, opts...),
		Search:    search.New(a.Catalog, searchOpts...),
		Details:   details.New(a.Catalog, a.Favorites, opts...),
		Favorites: favscreen.New(a.Favorites, opts...),
	}
}

// ServeMetrics exposes /metrics on Config.Metrics.Addr until Close. It is
// a no-op when no address is configured.
func (a *App) ServeMetrics() {
	addr := a.Config.Metrics.Addr
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.registry))
	a.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info("metrics listening", "addr", addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server stopped", "error", err)
		}
	}()
}

// Run starts the TUI and blocks until the user quits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	screens := a.Screens()
	defer screens.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(ui.NewApp(ctx, screens.Engines()), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// Close releases everything New opened.
func (a *App) Close() error {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			logging.Warn("metrics shutdown", "error", err)
		}
	}
	a.Favorites.Close()
	return a.db.Close()
}
