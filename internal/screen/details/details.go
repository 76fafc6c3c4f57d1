// Package details drives the recipe details screen and its favorite toggle.
package details

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cevizenes/recipeapp/internal/engine"
	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

const loadSlot = "load"

// State is the details screen snapshot.
type State struct {
	Recipe     *recipe.RecipeDetail
	IsLoading  bool
	Error      string
	IsFavorite bool
}

// Intent is a user action on the details screen.
type Intent interface{ isIntent() }

// LoadRecipe shows recipe ID.
type LoadRecipe struct{ ID int }

// ToggleFavorite flips the bookmark on the shown recipe.
type ToggleFavorite struct{}

// Retry reloads the last requested recipe.
type Retry struct{}

func (LoadRecipe) isIntent()     {}
func (ToggleFavorite) isIntent() {}
func (Retry) isIntent()          {}

// Effect is a one-shot event for the view.
type Effect interface{ isEffect() }

// ShowError surfaces a transient error.
type ShowError struct{ Message string }

// ShowMessage surfaces a transient confirmation.
type ShowMessage struct{ Message string }

func (ShowError) isEffect()   {}
func (ShowMessage) isEffect() {}

// Loader fetches recipe details. *catalog.Service satisfies it.
type Loader interface {
	RecipeDetail(ctx context.Context, id int) outcome.Outcome[recipe.RecipeDetail]
}

// Favorites is the part of the favorites store the screen needs.
type Favorites interface {
	IsFavorite(ctx context.Context, id int) (bool, error)
	Toggle(ctx context.Context, f recipe.FavoriteRecipe) (bool, error)
}

// Engine owns the details screen state.
type Engine struct {
	loop      *engine.Loop[State, Effect]
	loader    Loader
	favorites Favorites

	// Loop goroutine only.
	lastID *int
}

// New starts an empty details engine. Dispatch LoadRecipe to show something.
func New(loader Loader, favorites Favorites, opts ...engine.Option) *Engine {
	return &Engine{
		loop:      engine.New[State, Effect]("details", State{}, opts...),
		loader:    loader,
		favorites: favorites,
	}
}

// Dispatch queues intent. It never blocks.
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
	case LoadRecipe:
		id := in.ID
		e.lastID = &id
		e.load(id)
	case Retry:
		if e.lastID != nil {
			e.load(*e.lastID)
		}
	case ToggleFavorite:
		e.toggle()
	}
}

type loaded struct {
	id         int
	detail     outcome.Outcome[recipe.RecipeDetail]
	isFavorite bool
	favErr     error
}

// load fetches the detail and its membership concurrently and applies both
// once they settle. A failed membership check does not hide the recipe.
func (e *Engine) load(id int) {
	e.loop.Logger().Debug("loading recipe", "id", id)
	e.loop.Update(func(s State) State {
		s.IsLoading = true
		s.Error = ""
		return s
	})

	e.loop.Launch(loadSlot, func(ctx context.Context, post func(func())) {
		var (
			res = loaded{id: id}
			g   errgroup.Group
		)
		g.Go(func() error {
			res.detail = e.loader.RecipeDetail(ctx, id)
			return nil
		})
		g.Go(func() error {
			res.isFavorite, res.favErr = e.favorites.IsFavorite(ctx, id)
			return nil
		})
		_ = g.Wait()

		if ctx.Err() != nil {
			return
		}
		post(func() { e.apply(res) })
	})
}

func (e *Engine) apply(res loaded) {
	if res.favErr != nil {
		e.loop.Emit(ShowError{Message: res.favErr.Error()})
	}

	switch res.detail.Kind() {
	case outcome.KindSuccess:
		d, _ := res.detail.Data()
		e.loop.Update(func(s State) State {
			s.Recipe = &d
			s.IsLoading = false
			s.Error = ""
			s.IsFavorite = res.isFavorite
			return s
		})
	case outcome.KindError:
		msg := res.detail.Message()
		e.loop.Update(func(s State) State {
			s.IsLoading = false
			s.Error = msg
			// The flag follows the shown recipe, not the one that failed.
			if s.Recipe != nil && s.Recipe.ID == res.id {
				s.IsFavorite = res.isFavorite
			}
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

// toggle flips IsFavorite at once, then lets the store decide. Toggles run
// on the serial writer so rapid taps reach the store in order.
func (e *Engine) toggle() {
	cur := e.loop.State()
	if cur.Recipe == nil {
		return
	}
	want := !cur.IsFavorite
	fav := cur.Recipe.AsFavorite()

	e.loop.Update(func(s State) State {
		s.IsFavorite = want
		return s
	})

	e.loop.Serial(func(ctx context.Context, post func(func())) {
		added, err := e.favorites.Toggle(ctx, fav)
		post(func() { e.settle(fav.ID, want, added, err) })
	})
}

func (e *Engine) settle(id int, want, added bool, err error) {
	shown := func(s State) bool { return s.Recipe != nil && s.Recipe.ID == id }

	if err != nil {
		e.loop.Logger().Warn("toggle favorite failed", "id", id, "error", err)
		e.loop.Update(func(s State) State {
			if shown(s) {
				s.IsFavorite = !want
			}
			return s
		})
		e.loop.Emit(ShowError{Message: err.Error()})
		return
	}

	e.loop.Update(func(s State) State {
		if shown(s) {
			s.IsFavorite = added
		}
		return s
	})
	if added {
		e.loop.Emit(ShowMessage{Message: "Added to favorites"})
	} else {
		e.loop.Emit(ShowMessage{Message: "Removed from favorites"})
	}
}
