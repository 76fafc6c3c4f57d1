// Package ui provides the Bubble Tea TUI for the recipe browser.
package ui

import (
	"github.com/cevizenes/recipeapp/internal/screen/details"
	"github.com/cevizenes/recipeapp/internal/screen/favorites"
	"github.com/cevizenes/recipeapp/internal/screen/home"
	"github.com/cevizenes/recipeapp/internal/screen/search"
)

// HomeUpdated carries a new home screen snapshot.
type HomeUpdated struct{ State home.State }

// SearchUpdated carries a new search screen snapshot.
type SearchUpdated struct{ State search.State }

// DetailsUpdated carries a new details screen snapshot.
type DetailsUpdated struct{ State details.State }

// FavoritesUpdated carries a new favorites screen snapshot.
type FavoritesUpdated struct{ State favorites.State }

// HomeEffect is a one-shot event from the home engine.
type HomeEffect struct{ Effect home.Effect }

// SearchEffect is a one-shot event from the search engine.
type SearchEffect struct{ Effect search.Effect }

// DetailsEffect is a one-shot event from the details engine.
type DetailsEffect struct{ Effect details.Effect }

// FavoritesEffect is a one-shot event from the favorites engine.
type FavoritesEffect struct{ Effect favorites.Effect }

// ToastExpired clears the toast if Seq still matches the shown one.
type ToastExpired struct{ Seq int }
