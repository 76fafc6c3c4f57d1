// Package store provides SQLite persistence for bookmarked recipes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cevizenes/recipeapp/internal/recipe"
	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex // Protects all database operations
	now func() time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		image TEXT,
		ready_in_minutes INTEGER,
		score REAL,
		saved_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_favorites_saved ON favorites(saved_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveFavorite inserts f or overwrites the existing record with the same ID.
// The original saved_at is kept on overwrite so list order stays stable.
// Thread-safe: acquires write lock.
func (s *Store) SaveFavorite(ctx context.Context, f recipe.FavoriteRecipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (id, title, image, ready_in_minutes, score, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			image = excluded.image,
			ready_in_minutes = excluded.ready_in_minutes,
			score = excluded.score
	`,
		f.ID,
		f.Title,
		nullString(f.Image),
		nullInt(f.ReadyInMinutes),
		nullFloat(f.Score),
		s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save favorite %d: %w", f.ID, err)
	}
	return nil
}

// DeleteFavorite removes the record for id. Deleting a missing id is not an error.
// Thread-safe: acquires write lock.
func (s *Store) DeleteFavorite(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM favorites WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete favorite %d: %w", id, err)
	}
	return nil
}

// IsFavorite reports whether a record exists for id.
// Thread-safe: acquires read lock.
func (s *Store) IsFavorite(ctx context.Context, id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM favorites WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup favorite %d: %w", id, err)
	}
	return true, nil
}

// Favorites returns every record, most recently saved first.
// Thread-safe: acquires read lock.
func (s *Store) Favorites(ctx context.Context) ([]recipe.FavoriteRecipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, image, ready_in_minutes, score
		FROM favorites
		ORDER BY saved_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []recipe.FavoriteRecipe{}
	for rows.Next() {
		var (
			f     recipe.FavoriteRecipe
			image sql.NullString
			ready sql.NullInt64
			score sql.NullFloat64
		)
		if err := rows.Scan(&f.ID, &f.Title, &image, &ready, &score); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		f.Image = image.String
		if ready.Valid {
			minutes := int(ready.Int64)
			f.ReadyInMinutes = &minutes
		}
		if score.Valid {
			v := score.Float64
			f.Score = &v
		}
		favorites = append(favorites, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return favorites, nil
}

// FavoriteCount returns the number of stored records.
// Thread-safe: acquires read lock.
func (s *Store) FavoriteCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM favorites").Scan(&n); err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
