package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cevizenes/recipeapp/internal/catalog"
	"github.com/cevizenes/recipeapp/internal/config"
	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
	"github.com/cevizenes/recipeapp/internal/ui"
)

// TUICmd implements the default 'tui' command.
type TUICmd struct{}

func (c *TUICmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := g.open(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	a.ServeMetrics()
	return a.Run(ctx)
}

// SearchCmd implements the 'search' command.
type SearchCmd struct {
	Query   []string `arg:"" optional:"" help:"Search terms"`
	Type    string   `short:"t" help:"Dish type, e.g. dessert"`
	Cuisine string   `help:"Cuisine filter, e.g. italian"`
	Diet    string   `help:"Diet filter, e.g. vegetarian"`
	MaxTime int      `name:"max-time" help:"Maximum ready time in minutes"`
}

func (c *SearchCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	recipes, err := unwrap(a.Catalog.SearchRecipes(ctx, catalog.Query{
		Text:         strings.Join(c.Query, " "),
		Type:         c.Type,
		Cuisine:      c.Cuisine,
		Diet:         c.Diet,
		MaxReadyTime: c.MaxTime,
	}))
	if err != nil {
		return err
	}
	printRecipes(g.stdout(), recipes, favoriteSet(ctx, a.Favorites))
	return nil
}

// RandomCmd implements the 'random' command.
type RandomCmd struct {
	Count int `short:"n" help:"Number of recipes (default from config)"`
}

func (c *RandomCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	count := c.Count
	if count <= 0 {
		count = a.Config.Home.RandomCount
	}
	recipes, err := unwrap(a.Catalog.RandomRecipes(ctx, count))
	if err != nil {
		return err
	}
	printRecipes(g.stdout(), recipes, favoriteSet(ctx, a.Favorites))
	return nil
}

// ShowCmd implements the 'show' command.
type ShowCmd struct {
	ID int `arg:"" help:"Recipe ID"`
}

func (c *ShowCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := unwrap(a.Catalog.RecipeDetail(ctx, c.ID))
	if err != nil {
		return err
	}
	fav, err := a.Favorites.IsFavorite(ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Fprint(g.stdout(), ui.RenderDetail(d, fav, 80))
	return nil
}

// FavoritesCmd groups the favorites subcommands.
type FavoritesCmd struct {
	List   FavoritesListCmd   `cmd:"" default:"1" help:"List saved recipes"`
	Add    FavoritesAddCmd    `cmd:"" help:"Save a recipe by ID"`
	Remove FavoritesRemoveCmd `cmd:"" help:"Remove a saved recipe"`
}

type FavoritesListCmd struct{}

func (c *FavoritesListCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.Favorites.Current()
	if snap.Err != nil {
		return snap.Err
	}
	if len(snap.Items) == 0 {
		fmt.Fprintln(g.stdout(), "No favorites yet.")
		return nil
	}

	rows := make([][]string, len(snap.Items))
	for i, f := range snap.Items {
		rows[i] = []string{strconv.Itoa(f.ID), f.Title, f.DisplayTime(), f.DisplayScore()}
	}
	fmt.Fprintln(g.stdout(), renderTable(rows))
	return nil
}

type FavoritesAddCmd struct {
	ID int `arg:"" help:"Recipe ID"`
}

func (c *FavoritesAddCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := unwrap(a.Catalog.RecipeDetail(ctx, c.ID))
	if err != nil {
		return err
	}
	if err := a.Favorites.Add(ctx, d.AsFavorite()); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "Added %q to favorites\n", d.Title)
	return nil
}

type FavoritesRemoveCmd struct {
	ID int `arg:"" help:"Recipe ID"`
}

func (c *FavoritesRemoveCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := g.open(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Favorites.Remove(ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "Removed %d from favorites\n", c.ID)
	return nil
}

// ConfigCmd groups the configuration subcommands.
type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a default configuration file"`
	Path ConfigPathCmd `cmd:"" help:"Print the configuration file path"`
}

type ConfigInitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (c *ConfigInitCmd) Run(g *Globals) error {
	path := g.ConfigFile
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Init(path, c.Force); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "Wrote %s\n", path)
	return nil
}

type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(g *Globals) error {
	path := g.ConfigFile
	if path == "" {
		path = config.DefaultPath()
	}
	fmt.Fprintln(g.stdout(), path)
	return nil
}

// unwrap turns an outcome into the usual value and error pair.
func unwrap[T any](res outcome.Outcome[T]) (T, error) {
	if v, ok := res.Data(); ok {
		return v, nil
	}
	var zero T
	if res.IsLoading() {
		return zero, errors.New("request still pending")
	}
	msg := res.Message()
	if cause := res.Cause(); cause != nil && cause.Error() == msg {
		return zero, cause
	}
	return zero, errors.New(msg)
}

type membership interface {
	IsFavorite(ctx context.Context, id int) (bool, error)
}

func favoriteSet(ctx context.Context, m membership) func(int) bool {
	return func(id int) bool {
		ok, _ := m.IsFavorite(ctx, id)
		return ok
	}
}

func printRecipes(w io.Writer, recipes []recipe.Recipe, isFavorite func(int) bool) {
	if len(recipes) == 0 {
		fmt.Fprintln(w, "No recipes found.")
		return
	}
	rows := make([][]string, len(recipes))
	for i, r := range recipes {
		title := r.Title
		if isFavorite(r.ID) {
			title = "♥ " + title
		}
		rows[i] = []string{strconv.Itoa(r.ID), title, r.DisplayTime(), r.DisplayScore()}
	}
	fmt.Fprintln(w, renderTable(rows))
}

func renderTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(ui.StatusBarText).
		Headers("ID", "TITLE", "TIME", "SCORE").
		Rows(rows...).
		String()
}
