package home

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

const waitFor = 2 * time.Second

type fakeFeed struct {
	mu      sync.Mutex
	counts  []int
	results []outcome.Outcome[[]recipe.Recipe]
}

// RandomRecipes pops the next scripted outcome, or succeeds with count
// numbered recipes once the script runs out.
func (f *fakeFeed) RandomRecipes(_ context.Context, count int) outcome.Outcome[[]recipe.Recipe] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, count)
	if len(f.results) > 0 {
		res := f.results[0]
		f.results = f.results[1:]
		return res
	}
	rs := make([]recipe.Recipe, count)
	for i := range rs {
		rs[i] = recipe.Recipe{ID: i + 1}
	}
	return outcome.Success(rs)
}

func (f *fakeFeed) Counts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.counts...)
}

func waitState(t *testing.T, e *Engine, cond func(State) bool) State {
	t.Helper()
	require.Eventually(t, func() bool { return cond(e.State()) }, waitFor, time.Millisecond)
	return e.State()
}

func loaded(s State) bool { return !s.IsLoading && (len(s.Featured) > 0 || s.Error != "") }

func TestLoadsOnConstruction(t *testing.T) {
	feed := &fakeFeed{}
	e := New(feed, 0)
	defer e.Close()

	s := waitState(t, e, loaded)
	assert.Equal(t, []int{DefaultCount}, feed.Counts())
	require.Len(t, s.Featured, 1)
	assert.Equal(t, 1, s.Featured[0].ID)
	assert.Len(t, s.Popular, DefaultCount-1)
	assert.Equal(t, 2, s.Popular[0].ID)
	assert.Empty(t, s.Error)
}

func TestEmptyFeed(t *testing.T) {
	feed := &fakeFeed{results: []outcome.Outcome[[]recipe.Recipe]{outcome.Success([]recipe.Recipe{})}}
	e := New(feed, 5)
	defer e.Close()

	s := waitState(t, e, func(s State) bool { return !s.IsLoading && len(feed.Counts()) == 1 })
	assert.Empty(t, s.Featured)
	assert.Empty(t, s.Popular)
}

func TestErrorThenRetry(t *testing.T) {
	feed := &fakeFeed{results: []outcome.Outcome[[]recipe.Recipe]{
		outcome.Fail[[]recipe.Recipe](errors.New("catalog API error (status 402)")),
	}}
	e := New(feed, 3)
	defer e.Close()

	s := waitState(t, e, loaded)
	assert.Equal(t, "catalog API error (status 402)", s.Error)
	select {
	case eff := <-e.Effects():
		assert.Equal(t, ShowError{Message: "catalog API error (status 402)"}, eff)
	case <-time.After(waitFor):
		t.Fatal("no ShowError")
	}

	e.Dispatch(Retry{})
	s = waitState(t, e, func(s State) bool { return len(s.Featured) == 1 })
	assert.Empty(t, s.Error, "loading and error are exclusive")
	assert.Len(t, s.Popular, 2)
	assert.Equal(t, []int{3, 3}, feed.Counts())
}

func TestLoadingOutcome(t *testing.T) {
	feed := &fakeFeed{results: []outcome.Outcome[[]recipe.Recipe]{outcome.Loading[[]recipe.Recipe]()}}
	e := New(feed, 3)
	defer e.Close()

	require.Eventually(t, func() bool { return len(feed.Counts()) == 1 }, waitFor, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, e.Flush(context.Background()))
	assert.True(t, e.State().IsLoading)
}

func TestSplit(t *testing.T) {
	f, p := split(nil)
	assert.Nil(t, f)
	assert.Nil(t, p)

	f, p = split([]recipe.Recipe{{ID: 1}})
	assert.Len(t, f, 1)
	assert.Empty(t, p)
}
