// Package favorites exposes the bookmarked recipes as a push-based
// collection shared by every screen, plus point reads and writes.
package favorites

import (
	"context"
	"fmt"
	"sync"

	"github.com/cevizenes/recipeapp/internal/logging"
	"github.com/cevizenes/recipeapp/internal/metrics"
	"github.com/cevizenes/recipeapp/internal/pubsub"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

// Backend is the durable storage behind the Store. *store.Store satisfies it.
type Backend interface {
	Favorites(ctx context.Context) ([]recipe.FavoriteRecipe, error)
	IsFavorite(ctx context.Context, id int) (bool, error)
	SaveFavorite(ctx context.Context, f recipe.FavoriteRecipe) error
	DeleteFavorite(ctx context.Context, id int) error
}

// Snapshot is one emission of the observed collection. A non-nil Err means
// the collection could not be re-read after a commit; Items then holds the
// last good list.
type Snapshot struct {
	Items []recipe.FavoriteRecipe
	Err   error
}

// Store is safe for concurrent use by any number of screens.
//
// Writes on the same id are serialized by a keyed mutex so Toggle is atomic
// against concurrent Add/Remove/Toggle. Snapshot publication is serialized
// by pubMu so subscribers see snapshots in commit order.
type Store struct {
	backend  Backend
	recorder metrics.Recorder

	locks keyedMutex

	pubMu    sync.Mutex
	snapshot *pubsub.Value[Snapshot]
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder reports mutations to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New loads the initial collection from backend.
func New(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	items, err := backend.Favorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	s := &Store{
		backend:  backend,
		recorder: metrics.NoopRecorder{},
		locks:    keyedMutex{locks: make(map[int]*refMutex)},
		snapshot: pubsub.NewValue(Snapshot{Items: items}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Observe returns the live collection: the current snapshot first, then one
// snapshot per committed mutation. The channel closes when ctx is done or
// the Store is closed.
func (s *Store) Observe(ctx context.Context) <-chan Snapshot {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	// A failed latest snapshot is not handed to a fresh subscriber
	// without trying the backend again.
	if s.snapshot.Load().Err != nil {
		s.refreshLocked(ctx)
	}
	return s.snapshot.Subscribe(ctx)
}

// Current returns the latest snapshot without subscribing.
func (s *Store) Current() Snapshot {
	return s.snapshot.Load()
}

// IsFavorite reports whether id is bookmarked.
func (s *Store) IsFavorite(ctx context.Context, id int) (bool, error) {
	ok, err := s.backend.IsFavorite(ctx, id)
	if err != nil {
		return false, fmt.Errorf("is favorite %d: %w", id, err)
	}
	return ok, nil
}

// Add bookmarks f, overwriting any record with the same id.
func (s *Store) Add(ctx context.Context, f recipe.FavoriteRecipe) error {
	unlock := s.locks.lock(f.ID)
	err := s.backend.SaveFavorite(ctx, f)
	unlock()

	s.recorder.FavoriteMutation("add", err)
	if err != nil {
		return fmt.Errorf("add favorite %d: %w", f.ID, err)
	}
	s.refresh(ctx)
	return nil
}

// Remove deletes the bookmark for id. Removing a missing id is a no-op.
func (s *Store) Remove(ctx context.Context, id int) error {
	unlock := s.locks.lock(id)
	err := s.backend.DeleteFavorite(ctx, id)
	unlock()

	s.recorder.FavoriteMutation("remove", err)
	if err != nil {
		return fmt.Errorf("remove favorite %d: %w", id, err)
	}
	s.refresh(ctx)
	return nil
}

// Toggle flips the membership of f.ID and returns the new membership.
func (s *Store) Toggle(ctx context.Context, f recipe.FavoriteRecipe) (bool, error) {
	added, err := s.toggle(ctx, f)
	s.recorder.FavoriteMutation("toggle", err)
	if err != nil {
		return false, fmt.Errorf("toggle favorite %d: %w", f.ID, err)
	}
	s.refresh(ctx)
	return added, nil
}

func (s *Store) toggle(ctx context.Context, f recipe.FavoriteRecipe) (bool, error) {
	unlock := s.locks.lock(f.ID)
	defer unlock()

	exists, err := s.backend.IsFavorite(ctx, f.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.backend.DeleteFavorite(ctx, f.ID)
	}
	return true, s.backend.SaveFavorite(ctx, f)
}

// Close ends every subscription.
func (s *Store) Close() {
	s.snapshot.Close()
}

func (s *Store) refresh(ctx context.Context) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.refreshLocked(ctx)
}

// refreshLocked re-reads the backend and publishes the result.
// Caller must hold s.pubMu.
func (s *Store) refreshLocked(ctx context.Context) {
	items, err := s.backend.Favorites(context.WithoutCancel(ctx))
	if err != nil {
		logging.Warn("Favorites refresh failed", "error", err)
		last := s.snapshot.Load().Items
		s.snapshot.Store(Snapshot{Items: last, Err: fmt.Errorf("refresh favorites: %w", err)})
		return
	}
	s.snapshot.Store(Snapshot{Items: items})
}

// keyedMutex hands out one mutex per id and drops it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id int) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
