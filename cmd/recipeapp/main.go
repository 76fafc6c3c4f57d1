package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cevizenes/recipeapp/internal/app"
	"github.com/cevizenes/recipeapp/internal/config"
	"github.com/cevizenes/recipeapp/internal/logging"
)

var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	ConfigFile string           `name:"config" short:"c" help:"Configuration file path" type:"path"`
	Verbose    bool             `short:"v" help:"Enable debug logging"`
	Version    kong.VersionFlag `name:"version" help:"Show version and exit"`

	out io.Writer `kong:"-"`
}

// CLI is the root command tree.
type CLI struct {
	Globals

	TUI       TUICmd       `cmd:"" name:"tui" default:"1" help:"Browse recipes in the terminal UI"`
	Search    SearchCmd    `cmd:"" help:"Search the catalog"`
	Random    RandomCmd    `cmd:"" help:"Print random recipes"`
	Show      ShowCmd      `cmd:"" help:"Print one recipe in full"`
	Favorites FavoritesCmd `cmd:"" help:"Manage saved recipes"`
	Config    ConfigCmd    `cmd:"" help:"Manage the configuration file"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("recipeapp"),
		kong.Description("Search, browse and bookmark recipes."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	cli.out = os.Stdout

	err := kctx.Run(&cli.Globals)
	logging.Close()
	kctx.FatalIfErrorf(err)
}

func (g *Globals) stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

func (g *Globals) level(cfg *config.Config) string {
	if g.Verbose {
		return "debug"
	}
	return cfg.Log.Level
}

// open loads configuration and the shared services. Logs go to stderr
// unless the TUI owns the terminal.
func (g *Globals) open(ctx context.Context, tui bool) (*app.App, error) {
	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if tui {
		if err := logging.Init(cfg.Log.Path, g.level(cfg)); err != nil {
			return nil, err
		}
	} else {
		level := "warn"
		if g.Verbose {
			level = "debug"
		}
		logging.SetOutput(os.Stderr, level)
	}

	return app.New(ctx, cfg)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
