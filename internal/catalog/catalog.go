// Package catalog fetches recipes from the remote catalog service.
//
// Every call returns exactly one outcome.Outcome; transport, status and
// decode failures become Error outcomes carrying the cause.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

// ErrEmptyQuery is returned inside an Error outcome when a search has
// neither text nor a dish type.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Query describes a recipe search. Empty filters are omitted from the
// request; MaxReadyTime <= 0 means no limit.
type Query struct {
	Text         string
	Cuisine      string
	Diet         string
	Type         string
	MaxReadyTime int
}

// Gateway is the remote recipe catalog.
type Gateway interface {
	SearchRecipes(ctx context.Context, q Query) outcome.Outcome[[]recipe.Recipe]
	RecipeDetail(ctx context.Context, id int) outcome.Outcome[recipe.RecipeDetail]
	RandomRecipes(ctx context.Context, count int) outcome.Outcome[[]recipe.Recipe]
}

// Service validates requests before they reach the Gateway.
type Service struct {
	gateway Gateway
}

// NewService wraps gateway.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// SearchRecipes rejects a query with blank text and blank type without
// calling the gateway. Otherwise the text is trimmed and forwarded with
// the filters unchanged.
func (s *Service) SearchRecipes(ctx context.Context, q Query) outcome.Outcome[[]recipe.Recipe] {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" && strings.TrimSpace(q.Type) == "" {
		return outcome.Fail[[]recipe.Recipe](ErrEmptyQuery)
	}
	return s.gateway.SearchRecipes(ctx, q)
}

// RecipeDetail forwards to the gateway.
func (s *Service) RecipeDetail(ctx context.Context, id int) outcome.Outcome[recipe.RecipeDetail] {
	return s.gateway.RecipeDetail(ctx, id)
}

// RandomRecipes forwards to the gateway.
func (s *Service) RandomRecipes(ctx context.Context, count int) outcome.Outcome[[]recipe.Recipe] {
	return s.gateway.RandomRecipes(ctx, count)
}
