package catalog

import "github.com/cevizenes/recipeapp/internal/recipe"

// searchResponse is the body of GET /recipes/complexSearch.
type searchResponse struct {
	Results      []recipeDTO `json:"results"`
	Offset       int         `json:"offset"`
	Number       int         `json:"number"`
	TotalResults int         `json:"totalResults"`
}

// randomResponse is the body of GET /recipes/random. Its entries carry the
// full information payload.
type randomResponse struct {
	Recipes []detailDTO `json:"recipes"`
}

type recipeDTO struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	Image            string   `json:"image"`
	ReadyInMinutes   *int     `json:"readyInMinutes"`
	Servings         *int     `json:"servings"`
	Summary          string   `json:"summary"`
	Cuisines         []string `json:"cuisines"`
	DishTypes        []string `json:"dishTypes"`
	Diets            []string `json:"diets"`
	Vegetarian       bool     `json:"vegetarian"`
	Vegan            bool     `json:"vegan"`
	GlutenFree       bool     `json:"glutenFree"`
	AggregateLikes   *int     `json:"aggregateLikes"`
	SpoonacularScore *float64 `json:"spoonacularScore"`
}

type detailDTO struct {
	recipeDTO
	Instructions         string           `json:"instructions"`
	ExtendedIngredients  []ingredientDTO  `json:"extendedIngredients"`
	AnalyzedInstructions []instructionDTO `json:"analyzedInstructions"`
	Nutrition            *nutritionDTO    `json:"nutrition"`
}

type ingredientDTO struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Image    string  `json:"image"`
}

type instructionDTO struct {
	Name  string    `json:"name"`
	Steps []stepDTO `json:"steps"`
}

type stepDTO struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

type nutritionDTO struct {
	Nutrients []nutrientDTO `json:"nutrients"`
}

type nutrientDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

func (d recipeDTO) toRecipe() recipe.Recipe {
	return recipe.Recipe{
		ID:               d.ID,
		Title:            d.Title,
		Image:            d.Image,
		ReadyInMinutes:   d.ReadyInMinutes,
		Servings:         d.Servings,
		Summary:          d.Summary,
		Cuisines:         d.Cuisines,
		DishTypes:        d.DishTypes,
		Diets:            d.Diets,
		Vegetarian:       d.Vegetarian,
		Vegan:            d.Vegan,
		GlutenFree:       d.GlutenFree,
		AggregateLikes:   d.AggregateLikes,
		SpoonacularScore: d.SpoonacularScore,
	}
}

func toRecipes(dtos []recipeDTO) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toRecipe())
	}
	return out
}

func (d detailDTO) toDetail() recipe.RecipeDetail {
	ingredients := make([]recipe.Ingredient, 0, len(d.ExtendedIngredients))
	for _, in := range d.ExtendedIngredients {
		ingredients = append(ingredients, recipe.Ingredient{
			ID:       in.ID,
			Name:     in.Name,
			Original: in.Original,
			Amount:   in.Amount,
			Unit:     in.Unit,
			Image:    in.Image,
		})
	}

	// Only the first analyzed block is shown; later blocks are sub-recipes.
	var steps []recipe.Step
	if len(d.AnalyzedInstructions) > 0 {
		for _, s := range d.AnalyzedInstructions[0].Steps {
			steps = append(steps, recipe.Step{Number: s.Number, Instruction: s.Step})
		}
	}

	var nutrition *recipe.Nutrition
	if d.Nutrition != nil {
		nutrition = &recipe.Nutrition{
			Calories: d.Nutrition.amount("Calories"),
			Fat:      d.Nutrition.amount("Fat"),
			Protein:  d.Nutrition.amount("Protein"),
			Carbs:    d.Nutrition.amount("Carbohydrates"),
		}
	}

	return recipe.RecipeDetail{
		ID:               d.ID,
		Title:            d.Title,
		Image:            d.Image,
		ReadyInMinutes:   d.ReadyInMinutes,
		Servings:         d.Servings,
		Summary:          d.Summary,
		Cuisines:         d.Cuisines,
		DishTypes:        d.DishTypes,
		Diets:            d.Diets,
		Instructions:     d.Instructions,
		Ingredients:      ingredients,
		Steps:            steps,
		Nutrition:        nutrition,
		Vegetarian:       d.Vegetarian,
		Vegan:            d.Vegan,
		GlutenFree:       d.GlutenFree,
		AggregateLikes:   d.AggregateLikes,
		SpoonacularScore: d.SpoonacularScore,
	}
}

func (n nutritionDTO) amount(name string) float64 {
	for _, nu := range n.Nutrients {
		if nu.Name == name {
			return nu.Amount
		}
	}
	return 0
}
