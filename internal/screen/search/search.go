// Package search drives the search screen: debounced typing, immediate
// submits, dish-type shortcuts and cancellation of superseded searches.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/cevizenes/recipeapp/internal/catalog"
	"github.com/cevizenes/recipeapp/internal/engine"
	"github.com/cevizenes/recipeapp/internal/metrics"
	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// search is sent.
const DefaultDebounce = 350 * time.Millisecond

const slot = "search"

// State is the search screen snapshot.
type State struct {
	Query          string
	Recipes        []recipe.Recipe
	RecentSearches []string
	IsLoading      bool
	Error          string
	HasSearched    bool
}

// DefaultState is the screen before anything was typed.
func DefaultState() State {
	return State{RecentSearches: []string{"Pasta", "Chicken", "Pizza"}}
}

// Intent is a user action on the search screen.
type Intent interface{ isIntent() }

// QueryChanged reports the text box contents after every keystroke.
type QueryChanged struct{ Query string }

// Search submits the current query.
type Search struct{}

// QuickSearch replaces the query and submits it, e.g. from a recent search chip.
type QuickSearch struct{ Query string }

// SearchByType lists recipes of one dish type with no text query.
type SearchByType struct{ Type string }

// ClearSearch drops the query and results.
type ClearSearch struct{}

func (QueryChanged) isIntent() {}
func (Search) isIntent()       {}
func (QuickSearch) isIntent()  {}
func (SearchByType) isIntent() {}
func (ClearSearch) isIntent()  {}

// Effect is a one-shot event for the view.
type Effect interface{ isEffect() }

// ShowError asks the view to surface a transient error.
type ShowError struct{ Message string }

func (ShowError) isEffect() {}

// Searcher runs a search. *catalog.Service satisfies it.
type Searcher interface {
	SearchRecipes(ctx context.Context, q catalog.Query) outcome.Outcome[[]recipe.Recipe]
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	debounce time.Duration
	clock    clockwork.Clock
	recorder metrics.Recorder
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithClock sets the clock driving the debounce timer.
func WithClock(clock clockwork.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithRecorder counts superseded searches on r.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
	}
}

// Engine owns the search screen state. At most one search is outstanding;
// a newer trigger cancels the older one and its result is discarded.
type Engine struct {
	loop     *engine.Loop[State, Effect]
	searcher Searcher
	debounce time.Duration
	recorder metrics.Recorder
}

// New starts a search engine in the default state.
func New(searcher Searcher, opts ...Option) *Engine {
	cfg := config{debounce: DefaultDebounce, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		loop:     engine.New[State, Effect]("search", DefaultState(), engine.WithClock(cfg.clock)),
		searcher: searcher,
		debounce: cfg.debounce,
		recorder: cfg.recorder,
	}
}

// Dispatch queues intent. It never blocks.
func (e *Engine) Dispatch(intent Intent) {
	e.loop.Post(func() { e.handle(intent) })
}

// State returns the latest snapshot.
func (e *Engine) State() State { return e.loop.State() }

// Subscribe yields the latest snapshot, then every change.
func (e *Engine) Subscribe(ctx context.Context) <-chan State { return e.loop.Subscribe(ctx) }

// Effects delivers each effect once.
func (e *Engine) Effects() <-chan Effect { return e.loop.Effects() }

// Flush waits until every intent dispatched so far has been handled.
func (e *Engine) Flush(ctx context.Context) error { return e.loop.Flush(ctx) }

// Close cancels any outstanding search and stops the engine.
func (e *Engine) Close() { e.loop.Close() }

func (e *Engine) handle(intent Intent) {
	e.loop.Logger().Debug("intent", "type", intentName(intent))

	switch in := intent.(type) {
	case QueryChanged:
		e.loop.Update(func(s State) State {
			s.Query = in.Query
			s.Error = ""
			return s
		})
		e.cancel()

		q := strings.TrimSpace(in.Query)
		if q == "" {
			e.loop.Update(func(State) State { return DefaultState() })
			return
		}
		e.loop.Update(func(s State) State {
			s.IsLoading = true
			return s
		})
		e.loop.Debounce(slot, e.debounce, func() {
			e.run(catalog.Query{Text: q})
		})

	case Search:
		q := e.loop.State().Query
		if strings.TrimSpace(q) == "" {
			return
		}
		e.run(catalog.Query{Text: q})

	case QuickSearch:
		e.loop.Update(func(s State) State {
			s.Query = in.Query
			return s
		})
		if strings.TrimSpace(in.Query) == "" {
			return
		}
		e.run(catalog.Query{Text: in.Query})

	case SearchByType:
		e.loop.Update(func(s State) State {
			s.HasSearched = false
			s.Error = ""
			return s
		})
		if strings.TrimSpace(in.Type) == "" {
			return
		}
		e.run(catalog.Query{Type: in.Type})

	case ClearSearch:
		e.cancel()
		e.loop.Update(func(State) State { return DefaultState() })
	}
}

// cancel drops a pending timer or in-flight search.
func (e *Engine) cancel() {
	if e.loop.Cancel(slot) {
		e.recorder.SearchSuperseded()
	}
}

// run starts q immediately, superseding whatever was pending.
func (e *Engine) run(q catalog.Query) {
	e.cancel()
	e.loop.Update(func(s State) State {
		s.IsLoading = true
		s.Error = ""
		return s
	})

	id := uuid.NewString()
	log := e.loop.Logger().With("query_id", id)
	log.Debug("search started", "text", q.Text, "type", q.Type)

	e.loop.Launch(slot, func(ctx context.Context, post func(func())) {
		start := time.Now()
		res := e.searcher.SearchRecipes(ctx, q)
		if ctx.Err() != nil {
			log.Debug("search superseded", "elapsed", time.Since(start))
			return
		}
		log.Debug("search finished", "result", res.Kind(), "elapsed", time.Since(start))
		post(func() { e.apply(res) })
	})
}

func (e *Engine) apply(res outcome.Outcome[[]recipe.Recipe]) {
	switch res.Kind() {
	case outcome.KindSuccess:
		recipes, _ := res.Data()
		e.loop.Update(func(s State) State {
			s.Recipes = recipes
			s.IsLoading = false
			s.HasSearched = true
			s.Error = ""
			return s
		})
	case outcome.KindError:
		msg := res.Message()
		e.loop.Update(func(s State) State {
			s.IsLoading = false
			s.Error = msg
			return s
		})
		e.loop.Emit(ShowError{Message: msg})
	case outcome.KindLoading:
		e.loop.Update(func(s State) State {
			s.IsLoading = true
			return s
		})
	}
}

func intentName(i Intent) string {
	switch i.(type) {
	case QueryChanged:
		return "QueryChanged"
	case Search:
		return "Search"
	case QuickSearch:
		return "QuickSearch"
	case SearchByType:
		return "SearchByType"
	case ClearSearch:
		return "ClearSearch"
	default:
		return "unknown"
	}
}
