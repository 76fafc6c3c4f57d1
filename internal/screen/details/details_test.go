package details

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cevizenes/recipeapp/internal/favorites"
	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
	"github.com/cevizenes/recipeapp/internal/store"
)

const waitFor = 2 * time.Second

type fakeLoader struct {
	mu    sync.Mutex
	calls []int
	fail  map[int]error
}

func (l *fakeLoader) RecipeDetail(_ context.Context, id int) outcome.Outcome[recipe.RecipeDetail] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, id)
	if err, ok := l.fail[id]; ok {
		return outcome.Fail[recipe.RecipeDetail](err)
	}
	mins := 20
	return outcome.Success(recipe.RecipeDetail{ID: id, Title: "Recipe", ReadyInMinutes: &mins})
}

func (l *fakeLoader) Calls() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.calls...)
}

// brokenFavorites fails every call.
type brokenFavorites struct{ err error }

func (b brokenFavorites) IsFavorite(context.Context, int) (bool, error) { return false, b.err }
func (b brokenFavorites) Toggle(context.Context, recipe.FavoriteRecipe) (bool, error) {
	return false, b.err
}

func openFavorites(t *testing.T) *favorites.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "favorites.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fs, err := favorites.New(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(fs.Close)
	return fs
}

func newEngine(t *testing.T, l Loader, f Favorites) *Engine {
	t.Helper()
	e := New(l, f)
	t.Cleanup(e.Close)
	return e
}

func waitState(t *testing.T, e *Engine, cond func(State) bool) State {
	t.Helper()
	require.Eventually(t, func() bool { return cond(e.State()) }, waitFor, time.Millisecond)
	return e.State()
}

func nextEffect(t *testing.T, e *Engine) Effect {
	t.Helper()
	select {
	case eff := <-e.Effects():
		return eff
	case <-time.After(waitFor):
		t.Fatal("no effect")
	}
	return nil
}

func loadedRecipe(s State) bool { return s.Recipe != nil && !s.IsLoading }

func TestLoadRecipeWithMembership(t *testing.T) {
	fs := openFavorites(t)
	require.NoError(t, fs.Add(context.Background(), recipe.FavoriteRecipe{ID: 42, Title: "Tiramisu"}))

	e := newEngine(t, &fakeLoader{}, fs)
	e.Dispatch(LoadRecipe{ID: 42})

	s := waitState(t, e, loadedRecipe)
	assert.Equal(t, 42, s.Recipe.ID)
	assert.True(t, s.IsFavorite)
	assert.Empty(t, s.Error)
}

func TestLoadRecipeNotFavorite(t *testing.T) {
	e := newEngine(t, &fakeLoader{}, openFavorites(t))
	e.Dispatch(LoadRecipe{ID: 7})

	s := waitState(t, e, loadedRecipe)
	assert.False(t, s.IsFavorite)
}

func TestLoadFailure(t *testing.T) {
	loader := &fakeLoader{fail: map[int]error{5: errors.New("not found")}}
	e := newEngine(t, loader, openFavorites(t))
	e.Dispatch(LoadRecipe{ID: 5})

	s := waitState(t, e, func(s State) bool { return s.Error != "" })
	assert.False(t, s.IsLoading)
	assert.Nil(t, s.Recipe)
	assert.Equal(t, "not found", s.Error)
	assert.Equal(t, ShowError{Message: "not found"}, nextEffect(t, e))
}

func TestFailedLoadKeepsShownRecipeFlag(t *testing.T) {
	fs := openFavorites(t)
	require.NoError(t, fs.Add(context.Background(), recipe.FavoriteRecipe{ID: 2, Title: "Ramen"}))

	loader := &fakeLoader{fail: map[int]error{2: errors.New("boom")}}
	e := newEngine(t, loader, fs)
	e.Dispatch(LoadRecipe{ID: 1})
	waitState(t, e, loadedRecipe)

	e.Dispatch(LoadRecipe{ID: 2})
	s := waitState(t, e, func(s State) bool { return s.Error != "" && !s.IsLoading })
	require.NotNil(t, s.Recipe)
	assert.Equal(t, 1, s.Recipe.ID)
	assert.False(t, s.IsFavorite, "recipe 1 is not bookmarked")
	assert.Equal(t, "boom", s.Error)
}

func TestMembershipFailureStillShowsRecipe(t *testing.T) {
	e := newEngine(t, &fakeLoader{}, brokenFavorites{err: errors.New("db locked")})
	e.Dispatch(LoadRecipe{ID: 3})

	s := waitState(t, e, loadedRecipe)
	assert.Equal(t, 3, s.Recipe.ID)
	assert.Empty(t, s.Error)
	assert.Equal(t, ShowError{Message: "db locked"}, nextEffect(t, e))
}

func TestRetryReloadsLastID(t *testing.T) {
	loader := &fakeLoader{}
	e := newEngine(t, loader, openFavorites(t))

	e.Dispatch(Retry{})
	require.NoError(t, e.Flush(context.Background()))
	assert.Empty(t, loader.Calls(), "retry without a previous load is a no-op")

	e.Dispatch(LoadRecipe{ID: 11})
	waitState(t, e, loadedRecipe)
	e.Dispatch(Retry{})
	require.Eventually(t, func() bool { return len(loader.Calls()) == 2 }, waitFor, time.Millisecond)
	assert.Equal(t, []int{11, 11}, loader.Calls())
}

func TestToggleWithoutRecipeIsNoop(t *testing.T) {
	fs := openFavorites(t)
	e := newEngine(t, &fakeLoader{}, fs)

	e.Dispatch(ToggleFavorite{})
	require.NoError(t, e.Flush(context.Background()))
	assert.False(t, e.State().IsFavorite)
	assert.Empty(t, fs.Current().Items)
}

func TestToggleRoundTripThroughStore(t *testing.T) {
	fs := openFavorites(t)
	e := newEngine(t, &fakeLoader{}, fs)

	e.Dispatch(LoadRecipe{ID: 42})
	waitState(t, e, loadedRecipe)

	e.Dispatch(ToggleFavorite{})
	assert.Equal(t, ShowMessage{Message: "Added to favorites"}, nextEffect(t, e))
	assert.True(t, e.State().IsFavorite)
	ok, err := fs.IsFavorite(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, ok)

	e.Dispatch(ToggleFavorite{})
	assert.Equal(t, ShowMessage{Message: "Removed from favorites"}, nextEffect(t, e))
	assert.False(t, e.State().IsFavorite)
	ok, err = fs.IsFavorite(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRapidTogglesStayConsistent(t *testing.T) {
	fs := openFavorites(t)
	e := newEngine(t, &fakeLoader{}, fs)

	e.Dispatch(LoadRecipe{ID: 8})
	waitState(t, e, loadedRecipe)

	for i := 0; i < 5; i++ {
		e.Dispatch(ToggleFavorite{})
	}
	for i := 0; i < 5; i++ {
		_, ok := nextEffect(t, e).(ShowMessage)
		require.True(t, ok)
	}

	ok, err := fs.IsFavorite(context.Background(), 8)
	require.NoError(t, err)
	assert.True(t, ok, "odd number of toggles")
	assert.Equal(t, ok, e.State().IsFavorite)
}

func TestToggleFailureReverts(t *testing.T) {
	e := newEngine(t, &fakeLoader{}, brokenFavorites{err: errors.New("read-only")})

	e.Dispatch(LoadRecipe{ID: 1})
	waitState(t, e, loadedRecipe)
	assert.Equal(t, ShowError{Message: "read-only"}, nextEffect(t, e), "membership check failed")

	e.Dispatch(ToggleFavorite{})
	assert.Equal(t, ShowError{Message: "read-only"}, nextEffect(t, e))
	require.NoError(t, e.Flush(context.Background()))
	assert.False(t, e.State().IsFavorite)
}

func TestToggleUpdatesObservers(t *testing.T) {
	fs := openFavorites(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	snaps := fs.Observe(ctx)
	<-snaps

	e := newEngine(t, &fakeLoader{}, fs)
	e.Dispatch(LoadRecipe{ID: 99})
	waitState(t, e, loadedRecipe)
	e.Dispatch(ToggleFavorite{})

	select {
	case snap := <-snaps:
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 99, snap.Items[0].ID)
		assert.Equal(t, "20 min", snap.Items[0].DisplayTime())
	case <-time.After(waitFor):
		t.Fatal("favorites observers were not notified")
	}
}
