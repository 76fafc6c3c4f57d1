package favorites

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	favstore "github.com/cevizenes/recipeapp/internal/favorites"
	"github.com/cevizenes/recipeapp/internal/recipe"
	"github.com/cevizenes/recipeapp/internal/store"
)

const waitFor = 2 * time.Second

// scriptedSource hands out channels the test feeds by hand.
type scriptedSource struct {
	mu        sync.Mutex
	streams   []chan favstore.Snapshot
	removeErr error
	removed   []int
}

func (s *scriptedSource) Observe(ctx context.Context) <-chan favstore.Snapshot {
	ch := make(chan favstore.Snapshot, 8)
	s.mu.Lock()
	s.streams = append(s.streams, ch)
	s.mu.Unlock()
	return ch
}

func (s *scriptedSource) Remove(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, id)
	return s.removeErr
}

func (s *scriptedSource) subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

func (s *scriptedSource) stream(i int) chan favstore.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[i]
}

func openStore(t *testing.T) *favstore.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "favorites.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fs, err := favstore.New(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(fs.Close)
	return fs
}

func newEngine(t *testing.T, src Source) *Engine {
	t.Helper()
	e := New(src)
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

func ids(items []recipe.FavoriteRecipe) []int {
	out := make([]int, len(items))
	for i, f := range items {
		out[i] = f.ID
	}
	return out
}

func TestInitialStateIsLoading(t *testing.T) {
	src := &scriptedSource{}
	e := newEngine(t, src)
	assert.True(t, e.State().IsLoading)
	require.Eventually(t, func() bool { return src.subscriptions() == 1 }, waitFor, time.Millisecond)
}

func TestFollowsStore(t *testing.T) {
	fs := openStore(t)
	ctx := context.Background()
	require.NoError(t, fs.Add(ctx, recipe.FavoriteRecipe{ID: 1, Title: "Pasta"}))

	e := newEngine(t, fs)
	s := waitState(t, e, func(s State) bool { return !s.IsLoading })
	assert.Equal(t, []int{1}, ids(s.Items))

	require.NoError(t, fs.Add(ctx, recipe.FavoriteRecipe{ID: 2, Title: "Soup"}))
	s = waitState(t, e, func(s State) bool { return len(s.Items) == 2 })
	assert.ElementsMatch(t, []int{1, 2}, ids(s.Items))
}

func TestRemoveGoesThroughStore(t *testing.T) {
	fs := openStore(t)
	ctx := context.Background()
	require.NoError(t, fs.Add(ctx, recipe.FavoriteRecipe{ID: 1, Title: "Pasta"}))
	require.NoError(t, fs.Add(ctx, recipe.FavoriteRecipe{ID: 2, Title: "Soup"}))

	e := newEngine(t, fs)
	waitState(t, e, func(s State) bool { return len(s.Items) == 2 })

	e.Dispatch(Remove{ID: 1})
	s := waitState(t, e, func(s State) bool { return len(s.Items) == 1 })
	assert.Equal(t, []int{2}, ids(s.Items))

	ok, err := fs.IsFavorite(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveFailureOnlyEmits(t *testing.T) {
	src := &scriptedSource{removeErr: errors.New("disk full")}
	e := newEngine(t, src)
	require.Eventually(t, func() bool { return src.subscriptions() == 1 }, waitFor, time.Millisecond)

	items := []recipe.FavoriteRecipe{{ID: 1}, {ID: 2}}
	src.stream(0) <- favstore.Snapshot{Items: items}
	waitState(t, e, func(s State) bool { return len(s.Items) == 2 })

	e.Dispatch(Remove{ID: 1})
	assert.Equal(t, ShowError{Message: "disk full"}, nextEffect(t, e))
	require.NoError(t, e.Flush(context.Background()))

	s := e.State()
	assert.Equal(t, []int{1, 2}, ids(s.Items), "items are never edited locally")
	assert.Empty(t, s.Error)
}

func TestRemoveFailureWithoutMessage(t *testing.T) {
	src := &scriptedSource{removeErr: errors.New("")}
	e := newEngine(t, src)

	e.Dispatch(Remove{ID: 1})
	assert.Equal(t, ShowError{Message: "Remove failed"}, nextEffect(t, e))
}

func TestOpenDetailOnlyNavigates(t *testing.T) {
	src := &scriptedSource{}
	e := newEngine(t, src)
	require.NoError(t, e.Flush(context.Background()))
	before := e.State()

	e.Dispatch(OpenDetail{ID: 42})
	assert.Equal(t, NavigateToDetail{ID: 42}, nextEffect(t, e))
	assert.Equal(t, before, e.State())
}

func TestStreamErrorIsTerminal(t *testing.T) {
	src := &scriptedSource{}
	e := newEngine(t, src)
	require.Eventually(t, func() bool { return src.subscriptions() == 1 }, waitFor, time.Millisecond)

	src.stream(0) <- favstore.Snapshot{Items: []recipe.FavoriteRecipe{{ID: 1}}}
	src.stream(0) <- favstore.Snapshot{Items: []recipe.FavoriteRecipe{{ID: 1}}, Err: errors.New("refresh favorites: disk on fire")}

	s := waitState(t, e, func(s State) bool { return s.Error != "" })
	assert.False(t, s.IsLoading)
	assert.Equal(t, "refresh favorites: disk on fire", s.Error)
	assert.Equal(t, ShowError{Message: "refresh favorites: disk on fire"}, nextEffect(t, e))

	// Later emissions on the dead stream are ignored and nothing resubscribes.
	src.stream(0) <- favstore.Snapshot{Items: nil}
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, []int{1}, ids(e.State().Items))
	assert.Equal(t, 1, src.subscriptions())

	// An explicit Load resubscribes.
	e.Dispatch(Load{})
	require.Eventually(t, func() bool { return src.subscriptions() == 2 }, waitFor, time.Millisecond)
	src.stream(1) <- favstore.Snapshot{Items: []recipe.FavoriteRecipe{{ID: 3}}}
	s = waitState(t, e, func(s State) bool { return s.Error == "" && !s.IsLoading })
	assert.Equal(t, []int{3}, ids(s.Items))
}
