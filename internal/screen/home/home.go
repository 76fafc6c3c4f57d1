// Package home drives the landing screen: one featured recipe and a list
// of popular ones drawn from the random feed.
package home

import (
	"context"

	"github.com/cevizenes/recipeapp/internal/engine"
	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

// DefaultCount is the number of random recipes requested.
const DefaultCount = 15

const loadSlot = "load"

type State struct {
	Featured  []recipe.Recipe
	Popular   []recipe.Recipe
	IsLoading bool
	Error     string
}

type Intent interface{ isIntent() }

type LoadRecipes struct{}

type Retry struct{}

func (LoadRecipes) isIntent() {}
func (Retry) isIntent()       {}

type Effect interface{ isEffect() }

type ShowError struct{ Message string }

func (ShowError) isEffect() {}

// Feed supplies random recipes. *catalog.Service satisfies it.
type Feed interface {
	RandomRecipes(ctx context.Context, count int) outcome.Outcome[[]recipe.Recipe]
}

type Engine struct {
	loop  *engine.Loop[State, Effect]
	feed  Feed
	count int
}

// New starts the engine and loads the feed at once. count <= 0 selects
// DefaultCount.
func New(feed Feed, count int, opts ...engine.Option) *Engine {
	if count <= 0 {
		count = DefaultCount
	}
	e := &Engine{
		loop:  engine.New[State, Effect]("home", State{}, opts...),
		feed:  feed,
		count: count,
	}
	e.Dispatch(LoadRecipes{})
	return e
}

func (e *Engine) Dispatch(intent Intent) {
	e.loop.Post(func() {
		switch intent.(type) {
		case LoadRecipes, Retry:
			e.load()
		}
	})
}

func (e *Engine) State() State { return e.loop.State() }
func (e *Engine) Subscribe(ctx context.Context) <-chan State { return e.loop.Subscribe(ctx) }
func (e *Engine) Effects() <-chan Effect { return e.loop.Effects() }
func (e *Engine) Flush(ctx context.Context) error { return e.loop.Flush(ctx) }
func (e *Engine) Close() { e.loop.Close() }

func (e *Engine) load() {
	e.loop.Update(func(s State) State {
		s.IsLoading = true
		s.Error = ""
		return s
	})
	e.loop.Launch(loadSlot, func(ctx context.Context, post func(func())) {
		res := e.feed.RandomRecipes(ctx, e.count)
		if ctx.Err() != nil {
			return
		}
		post(func() { e.apply(res) })
	})
}

func (e *Engine) apply(res outcome.Outcome[[]recipe.Recipe]) {
	res.OnSuccess(func(recipes []recipe.Recipe) {
		featured, popular := split(recipes)
		e.loop.Update(func(s State) State {
			s.Featured = featured
			s.Popular = popular
			s.IsLoading = false
			s.Error = ""
			return s
		})
	}).OnError(func(_ error, msg string) {
		e.loop.Update(func(s State) State {
			s.IsLoading = false
			s.Error = msg
			return s
		})
		e.loop.Emit(ShowError{Message: msg})
	}).OnLoading(func() {
		e.loop.Update(func(s State) State {
			s.IsLoading = true
			return s
		})
	})
}

// split takes the first recipe as featured and the rest as popular.
func split(recipes []recipe.Recipe) (featured, popular []recipe.Recipe) {
	if len(recipes) == 0 {
		return nil, nil
	}
	return recipes[:1], recipes[1:]
}
