// Package favorites drives the bookmarked recipes screen. The list is never
// edited locally; every change arrives as a snapshot from the store.
package favorites

import (
	"context"

	"github.com/cevizenes/recipeapp/internal/engine"
	favstore "github.com/cevizenes/recipeapp/internal/favorites"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

const observeSlot = "observe"

// State is the favorites screen snapshot.
type State struct {
	Items     []recipe.FavoriteRecipe
	IsLoading bool
	Error     string
}

type Intent interface{ isIntent() }

// Load (re)subscribes to the store.
type Load struct{}

// Remove drops a bookmark.
type Remove struct{ ID int }

// OpenDetail asks the view to navigate to a recipe.
type OpenDetail struct{ ID int }

func (Load) isIntent()       {}
func (Remove) isIntent()     {}
func (OpenDetail) isIntent() {}

type Effect interface{ isEffect() }

type ShowError struct{ Message string }

type NavigateToDetail struct{ ID int }

func (ShowError) isEffect()        {}
func (NavigateToDetail) isEffect() {}

// Source is the favorites store as seen by this screen.
type Source interface {
	Observe(ctx context.Context) <-chan favstore.Snapshot
	Remove(ctx context.Context, id int) error
}

type Engine struct {
	loop   *engine.Loop[State, Effect]
	source Source
}

// New starts the engine and subscribes to source at once.
func New(source Source, opts ...engine.Option) *Engine {
	e := &Engine{
		loop:   engine.New[State, Effect]("favorites", State{IsLoading: true}, opts...),
		source: source,
	}
	e.Dispatch(Load{})
	return e
}

func (e *Engine) Dispatch(intent Intent) {
	e.loop.Post(func() { e.handle(intent) })
}

func (e *Engine) State() State { return e.loop.State() }
func (e *Engine) Subscribe(ctx context.Context) <-chan State { return e.loop.Subscribe(ctx) }
func (e *Engine) Effects() <-chan Effect { return e.loop.Effects() }
func (e *Engine) Flush(ctx context.Context) error { return e.loop.Flush(ctx) }
func (e *Engine) Close() { e.loop.Close() }

func (e *Engine) handle(intent Intent) {
	switch in := intent.(type) {
	case Load:
		e.observe()
	case Remove:
		e.remove(in.ID)
	case OpenDetail:
		e.loop.Emit(NavigateToDetail{ID: in.ID})
	}
}

// observe replaces any previous subscription. A failed snapshot ends it;
// only another Load starts a new one.
func (e *Engine) observe() {
	e.loop.Update(func(s State) State {
		s.IsLoading = true
		s.Error = ""
		return s
	})

	e.loop.Launch(observeSlot, func(ctx context.Context, post func(func())) {
		for snap := range e.source.Observe(ctx) {
			if snap.Err != nil {
				err := snap.Err
				post(func() { e.fail(err) })
				return
			}
			items := snap.Items
			post(func() {
				e.loop.Update(func(s State) State {
					s.Items = items
					s.IsLoading = false
					s.Error = ""
					return s
				})
			})
		}
	})
}

func (e *Engine) fail(err error) {
	msg := err.Error()
	e.loop.Logger().Warn("favorites stream failed", "error", err)
	e.loop.Update(func(s State) State {
		s.IsLoading = false
		s.Error = msg
		return s
	})
	e.loop.Emit(ShowError{Message: msg})
}

func (e *Engine) remove(id int) {
	e.loop.Serial(func(ctx context.Context, post func(func())) {
		err := e.source.Remove(ctx, id)
		if err == nil {
			return
		}
		msg := err.Error()
		if msg == "" {
			msg = "Remove failed"
		}
		post(func() { e.loop.Emit(ShowError{Message: msg}) })
	})
}
