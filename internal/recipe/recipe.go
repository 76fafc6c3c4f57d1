// Package recipe defines the read-only recipe projections returned by the
// catalog and the favorite projection persisted locally.
package recipe

import (
	"math"
	"strconv"
)

// Recipe is a search or random-feed result.
type Recipe struct {
	ID               int
	Title            string
	Image            string
	ReadyInMinutes   *int
	Servings         *int
	Summary          string
	Cuisines         []string
	DishTypes        []string
	Diets            []string
	Vegetarian       bool
	Vegan            bool
	GlutenFree       bool
	AggregateLikes   *int
	SpoonacularScore *float64
}

// RecipeDetail is the full recipe shown on the details screen.
type RecipeDetail struct {
	ID               int
	Title            string
	Image            string
	ReadyInMinutes   *int
	Servings         *int
	Summary          string
	Cuisines         []string
	DishTypes        []string
	Diets            []string
	Instructions     string
	Ingredients      []Ingredient
	Steps            []Step
	Nutrition        *Nutrition
	Vegetarian       bool
	Vegan            bool
	GlutenFree       bool
	AggregateLikes   *int
	SpoonacularScore *float64
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	ID       int
	Name     string
	Original string
	Amount   float64
	Unit     string
	Image    string
}

// Step is one numbered preparation step.
type Step struct {
	Number      int
	Instruction string
}

// Nutrition holds per-serving macro values.
type Nutrition struct {
	Calories float64
	Fat      float64
	Protein  float64
	Carbs    float64
}

// FavoriteRecipe is the reduced projection stored for bookmarked recipes.
// At most one record exists per ID.
type FavoriteRecipe struct {
	ID             int
	Title          string
	Image          string
	ReadyInMinutes *int
	Score          *float64
}

// AsFavorite projects a search result for bookmarking.
func (r Recipe) AsFavorite() FavoriteRecipe {
	return FavoriteRecipe{
		ID:             r.ID,
		Title:          r.Title,
		Image:          r.Image,
		ReadyInMinutes: r.ReadyInMinutes,
		Score:          r.SpoonacularScore,
	}
}

// AsFavorite projects a detail for bookmarking.
func (d RecipeDetail) AsFavorite() FavoriteRecipe {
	return FavoriteRecipe{
		ID:             d.ID,
		Title:          d.Title,
		Image:          d.Image,
		ReadyInMinutes: d.ReadyInMinutes,
		Score:          d.SpoonacularScore,
	}
}

func (r Recipe) DisplayTime() string { return DisplayTime(r.ReadyInMinutes) }
func (r Recipe) DisplayServings() string { return DisplayServings(r.Servings) }
func (r Recipe) DisplayScore() string { return DisplayScore(r.SpoonacularScore) }
func (d RecipeDetail) DisplayTime() string { return DisplayTime(d.ReadyInMinutes) }
func (d RecipeDetail) DisplayServings() string { return DisplayServings(d.Servings) }
func (d RecipeDetail) DisplayScore() string { return DisplayScore(d.SpoonacularScore) }
func (f FavoriteRecipe) DisplayTime() string { return DisplayTime(f.ReadyInMinutes) }
func (f FavoriteRecipe) DisplayScore() string { return DisplayScore(f.Score) }

// DisplayTime renders "N min", or "N/A" when unknown.
func DisplayTime(minutes *int) string {
	if minutes == nil {
		return "N/A"
	}
	return strconv.Itoa(*minutes) + " min"
}

// DisplayServings renders "Serves N", or "N/A" when unknown.
func DisplayServings(servings *int) string {
	if servings == nil {
		return "N/A"
	}
	return "Serves " + strconv.Itoa(*servings)
}

// DisplayScore maps a 0-100 catalog score onto a five star scale with one
// decimal, e.g. 86.0 -> "4.3★". Missing or non-finite scores render "N/A".
func DisplayScore(score *float64) string {
	if score == nil {
		return "N/A"
	}
	stars := *score / 20.0
	if math.IsNaN(stars) || math.IsInf(stars, 0) {
		return "N/A"
	}
	rounded := math.RoundToEven(stars*10) / 10
	return strconv.FormatFloat(rounded, 'f', 1, 64) + "★"
}
