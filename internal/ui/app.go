package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cevizenes/recipeapp/internal/logging"
	"github.com/cevizenes/recipeapp/internal/screen/details"
	"github.com/cevizenes/recipeapp/internal/screen/favorites"
	"github.com/cevizenes/recipeapp/internal/screen/home"
	"github.com/cevizenes/recipeapp/internal/screen/search"
)

const toastTTL = 3 * time.Second

// dishTypes are the shortcuts cycled by the dish type key.
var dishTypes = []string{"main course", "dessert", "breakfast", "soup", "salad"}

// Screen is the view-facing side of a screen engine.
type Screen[I, S, E any] interface {
	Dispatch(intent I)
	Subscribe(ctx context.Context) <-chan S
	Effects() <-chan E
}

// Engines are the four screen engines the App renders.
type Engines struct {
	Home      Screen[home.Intent, home.State, home.Effect]
	Search    Screen[search.Intent, search.State, search.Effect]
	Details   Screen[details.Intent, details.State, details.Effect]
	Favorites Screen[favorites.Intent, favorites.State, favorites.Effect]
}

type tab int

const (
	tabHome tab = iota
	tabSearch
	tabFavorites
	tabDetails
)

var tabNames = [...]string{"Home", "Search", "Favorites", "Details"}

// App is the root Bubble Tea model.
// App never calls the catalog or the store. It sends intents to the
// engines and renders the states they publish.
type App struct {
	engines Engines

	homeStates    <-chan home.State
	searchStates  <-chan search.State
	detailsStates <-chan details.State
	favStates     <-chan favorites.State

	home      home.State
	search    search.State
	details   details.State
	favorites favorites.State
	favIDs    map[int]bool

	tab      tab
	back     tab
	cursors  [len(tabNames)]int
	typeIdx  int
	keys     keyMap
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	toast    string
	toastErr bool
	toastSeq int

	width  int
	height int
	ready  bool
}

// NewApp subscribes to every engine for the lifetime of ctx.
func NewApp(ctx context.Context, engines Engines) App {
	input := textinput.New()
	input.Placeholder = "Search recipes..."
	input.Prompt = "/ "
	input.CharLimit = 100

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(colorPrimary)),
	)

	return App{
		engines:       engines,
		homeStates:    engines.Home.Subscribe(ctx),
		searchStates:  engines.Search.Subscribe(ctx),
		detailsStates: engines.Details.Subscribe(ctx),
		favStates:     engines.Favorites.Subscribe(ctx),
		search:        search.DefaultState(),
		favorites:     favorites.State{IsLoading: true},
		favIDs:        map[int]bool{},
		keys:          defaultKeyMap(),
		input:         input,
		spinner:       sp,
		viewport:      viewport.New(0, 0),
	}
}

// Init starts listening on every state and effect stream.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.listenHome(),
		a.listenSearch(),
		a.listenDetails(),
		a.listenFavorites(),
		a.listenHomeEffects(),
		a.listenSearchEffects(),
		a.listenDetailsEffects(),
		a.listenFavoritesEffects(),
		a.spinner.Tick,
	)
}

// listen waits for one value on ch. A closed channel ends the chain.
func listen[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

func (a App) listenHome() tea.Cmd {
	return listen(a.homeStates, func(s home.State) tea.Msg { return HomeUpdated{State: s} })
}

func (a App) listenSearch() tea.Cmd {
	return listen(a.searchStates, func(s search.State) tea.Msg { return SearchUpdated{State: s} })
}

func (a App) listenDetails() tea.Cmd {
	return listen(a.detailsStates, func(s details.State) tea.Msg { return DetailsUpdated{State: s} })
}

func (a App) listenFavorites() tea.Cmd {
	return listen(a.favStates, func(s favorites.State) tea.Msg { return FavoritesUpdated{State: s} })
}

func (a App) listenHomeEffects() tea.Cmd {
	return listen(a.engines.Home.Effects(), func(e home.Effect) tea.Msg { return HomeEffect{Effect: e} })
}

func (a App) listenSearchEffects() tea.Cmd {
	return listen(a.engines.Search.Effects(), func(e search.Effect) tea.Msg { return SearchEffect{Effect: e} })
}

func (a App) listenDetailsEffects() tea.Cmd {
	return listen(a.engines.Details.Effects(), func(e details.Effect) tea.Msg { return DetailsEffect{Effect: e} })
}

func (a App) listenFavoritesEffects() tea.Cmd {
	return listen(a.engines.Favorites.Effects(), func(e favorites.Effect) tea.Msg { return FavoritesEffect{Effect: e} })
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.Width = msg.Width - 6
		a.viewport.Width = msg.Width
		a.viewport.Height = a.contentHeight()
		a.refreshDetail()
		return a, nil

	case HomeUpdated:
		a.home = msg.State
		a.clampCursor(tabHome)
		return a, a.listenHome()

	case SearchUpdated:
		a.search = msg.State
		if !a.input.Focused() && a.input.Value() != msg.State.Query {
			a.input.SetValue(msg.State.Query)
		}
		a.clampCursor(tabSearch)
		return a, a.listenSearch()

	case DetailsUpdated:
		prev := a.details.Recipe
		a.details = msg.State
		a.refreshDetail()
		if prev == nil || msg.State.Recipe == nil || prev.ID != msg.State.Recipe.ID {
			a.viewport.GotoTop()
		}
		return a, a.listenDetails()

	case FavoritesUpdated:
		a.favorites = msg.State
		a.favIDs = make(map[int]bool, len(msg.State.Items))
		for _, f := range msg.State.Items {
			a.favIDs[f.ID] = true
		}
		a.clampCursor(tabFavorites)
		return a, a.listenFavorites()

	case HomeEffect:
		var cmd tea.Cmd
		if e, ok := msg.Effect.(home.ShowError); ok {
			cmd = a.showToast(e.Message, true)
		}
		return a, tea.Batch(cmd, a.listenHomeEffects())

	case SearchEffect:
		var cmd tea.Cmd
		if e, ok := msg.Effect.(search.ShowError); ok {
			cmd = a.showToast(e.Message, true)
		}
		return a, tea.Batch(cmd, a.listenSearchEffects())

	case DetailsEffect:
		var cmd tea.Cmd
		switch e := msg.Effect.(type) {
		case details.ShowError:
			cmd = a.showToast(e.Message, true)
		case details.ShowMessage:
			cmd = a.showToast(e.Message, false)
		}
		return a, tea.Batch(cmd, a.listenDetailsEffects())

	case FavoritesEffect:
		var cmd tea.Cmd
		switch e := msg.Effect.(type) {
		case favorites.ShowError:
			cmd = a.showToast(e.Message, true)
		case favorites.NavigateToDetail:
			a.openDetail(e.ID)
		}
		return a, tea.Batch(cmd, a.listenFavoritesEffects())

	case ToastExpired:
		if msg.Seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) showToast(text string, isErr bool) tea.Cmd {
	a.toastSeq++
	a.toast = text
	a.toastErr = isErr
	seq := a.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return ToastExpired{Seq: seq} })
}

func (a *App) openDetail(id int) {
	if a.tab != tabDetails {
		a.back = a.tab
	}
	a.tab = tabDetails
	a.input.Blur()
	a.viewport.GotoTop()
	logging.Debug("open detail", "recipe_id", id)
	a.engines.Details.Dispatch(details.LoadRecipe{ID: id})
}

func (a *App) switchTab(t tab) tea.Cmd {
	a.tab = t
	if t == tabSearch {
		return a.input.Focus()
	}
	a.input.Blur()
	return nil
}

func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a, tea.Quit
	}

	switch {
	case key.Matches(msg, a.keys.NextTab):
		cmd := a.switchTab((a.browseTab() + 1) % tabDetails)
		return a, cmd
	case key.Matches(msg, a.keys.PrevTab):
		cmd := a.switchTab((a.browseTab() + tabDetails - 1) % tabDetails)
		return a, cmd
	}

	if a.tab == tabSearch && a.input.Focused() {
		return a.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.HomeTab):
		cmd := a.switchTab(tabHome)
		return a, cmd
	case key.Matches(msg, a.keys.SearchTab):
		cmd := a.switchTab(tabSearch)
		return a, cmd
	case key.Matches(msg, a.keys.FavsTab):
		cmd := a.switchTab(tabFavorites)
		return a, cmd
	}

	switch a.tab {
	case tabHome:
		return a.handleHomeKey(msg)
	case tabSearch:
		return a.handleSearchKey(msg)
	case tabFavorites:
		return a.handleFavoritesKey(msg)
	case tabDetails:
		return a.handleDetailsKey(msg)
	}
	return a, nil
}

// browseTab maps the details tab back to the tab it was opened from.
func (a App) browseTab() tab {
	if a.tab == tabDetails {
		return a.back
	}
	return a.tab
}

func (a App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Blur):
		a.input.Blur()
		return a, nil
	case key.Matches(msg, a.keys.Submit):
		a.input.Blur()
		a.engines.Search.Dispatch(search.Search{})
		return a, nil
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if v := a.input.Value(); v != before {
		a.engines.Search.Dispatch(search.QueryChanged{Query: v})
	}
	return a, cmd
}

func (a App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	recipes := append(recipeRows(a.home.Featured, a.favIDs), recipeRows(a.home.Popular, a.favIDs)...)
	switch {
	case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.Down):
		a.moveCursor(tabHome, msg, len(recipes))
	case key.Matches(msg, a.keys.Open):
		if c := a.cursors[tabHome]; c < len(recipes) {
			a.openDetail(recipes[c].ID)
		}
	case key.Matches(msg, a.keys.Retry):
		a.engines.Home.Dispatch(home.Retry{})
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows, recents := a.searchRows()
	switch {
	case key.Matches(msg, a.keys.Focus):
		cmd := a.input.Focus()
		return a, cmd
	case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.Down):
		a.moveCursor(tabSearch, msg, len(rows))
	case key.Matches(msg, a.keys.Open):
		c := a.cursors[tabSearch]
		if c >= len(rows) {
			return a, nil
		}
		if recents {
			a.input.SetValue(rows[c].Title)
			a.engines.Search.Dispatch(search.QuickSearch{Query: rows[c].Title})
			return a, nil
		}
		a.openDetail(rows[c].ID)
	case key.Matches(msg, a.keys.CycleType):
		t := dishTypes[a.typeIdx%len(dishTypes)]
		a.typeIdx++
		a.engines.Search.Dispatch(search.SearchByType{Type: t})
	case key.Matches(msg, a.keys.Clear):
		a.input.SetValue("")
		a.cursors[tabSearch] = 0
		a.engines.Search.Dispatch(search.ClearSearch{})
	}
	return a, nil
}

func (a App) handleFavoritesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := a.favorites.Items
	c := a.cursors[tabFavorites]
	switch {
	case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.Down):
		a.moveCursor(tabFavorites, msg, len(items))
	case key.Matches(msg, a.keys.Open):
		if c < len(items) {
			a.engines.Favorites.Dispatch(favorites.OpenDetail{ID: items[c].ID})
		}
	case key.Matches(msg, a.keys.Remove):
		if c < len(items) {
			a.engines.Favorites.Dispatch(favorites.Remove{ID: items[c].ID})
		}
	case key.Matches(msg, a.keys.Retry):
		a.engines.Favorites.Dispatch(favorites.Load{})
	}
	return a, nil
}

func (a App) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		cmd := a.switchTab(a.back)
		return a, cmd
	case key.Matches(msg, a.keys.Toggle):
		a.engines.Details.Dispatch(details.ToggleFavorite{})
		return a, nil
	case key.Matches(msg, a.keys.Retry):
		a.engines.Details.Dispatch(details.Retry{})
		return a, nil
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) moveCursor(t tab, msg tea.KeyMsg, n int) {
	switch {
	case key.Matches(msg, a.keys.Down) && a.cursors[t] < n-1:
		a.cursors[t]++
	case key.Matches(msg, a.keys.Up) && a.cursors[t] > 0:
		a.cursors[t]--
	}
}

func (a *App) clampCursor(t tab) {
	var n int
	switch t {
	case tabHome:
		n = len(a.home.Featured) + len(a.home.Popular)
	case tabSearch:
		rows, _ := a.searchRows()
		n = len(rows)
	case tabFavorites:
		n = len(a.favorites.Items)
	}
	if a.cursors[t] >= n {
		a.cursors[t] = n - 1
	}
	if a.cursors[t] < 0 {
		a.cursors[t] = 0
	}
}

// searchRows lists results, or the recent searches before any search ran.
func (a App) searchRows() (rows []Row, recents bool) {
	if len(a.search.Recipes) == 0 && !a.search.HasSearched && !a.search.IsLoading && a.search.Query == "" {
		return textRows(a.search.RecentSearches), true
	}
	return recipeRows(a.search.Recipes, a.favIDs), false
}

func (a *App) refreshDetail() {
	if a.details.Recipe == nil {
		a.viewport.SetContent("")
		return
	}
	a.viewport.SetContent(RenderDetail(*a.details.Recipe, a.details.IsFavorite, a.width))
}

// contentHeight leaves room for the tab strip, toast line and status bar.
func (a App) contentHeight() int {
	h := a.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the App.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(a.renderTabs())
	b.WriteString("\n")

	body := a.renderBody()
	b.WriteString(lipgloss.NewStyle().Height(a.contentHeight()).MaxHeight(a.contentHeight()).Render(body))
	b.WriteString("\n")

	if a.toast != "" {
		if a.toastErr {
			b.WriteString(ErrorStyle.Render("Error: " + a.toast))
		} else {
			b.WriteString(MessageStyle.Render(a.toast))
		}
	}
	b.WriteString("\n")
	b.WriteString(RenderStatusBar(a.position(), a.hints(), a.width))
	return b.String()
}

func (a App) renderTabs() string {
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == tabDetails && a.tab != tabDetails {
			continue
		}
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == tabDetails {
			label = name
		}
		if tab(i) == a.tab {
			tabs = append(tabs, ActiveTab.Render(label))
		} else {
			tabs = append(tabs, InactiveTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a App) renderBody() string {
	switch a.tab {
	case tabHome:
		return a.renderHome()
	case tabSearch:
		return a.renderSearch()
	case tabFavorites:
		return a.renderFavorites()
	case tabDetails:
		return a.renderDetails()
	}
	return ""
}

func (a App) loadingLine(text string) string {
	return " " + a.spinner.View() + " " + MetaItem.Render(text)
}

func (a App) renderHome() string {
	h := a.home
	switch {
	case h.IsLoading && len(h.Featured) == 0:
		return a.loadingLine("Loading recipes...")
	case h.Error != "" && len(h.Featured) == 0:
		return ErrorStyle.Render(h.Error) + "\n" + HelpStyle.Render("Press r to retry.")
	case len(h.Featured) == 0:
		return HelpStyle.Render("No recipes right now. Press r to refresh.")
	}

	cursor := a.cursors[tabHome]
	var b strings.Builder
	if h.IsLoading {
		b.WriteString(a.loadingLine("Refreshing...") + "\n")
	}
	b.WriteString(SectionHeader.Render("Featured") + "\n")
	b.WriteString(renderRow(recipeRows(h.Featured, a.favIDs)[0], cursor == 0, a.width) + "\n")
	if len(h.Popular) > 0 {
		b.WriteString(SectionHeader.Render("Popular") + "\n")
		b.WriteString(RenderList(recipeRows(h.Popular, a.favIDs), cursor-1, a.width, a.contentHeight()-4))
	}
	return b.String()
}

func (a App) renderSearch() string {
	s := a.search
	var b strings.Builder
	b.WriteString(SearchBar.Width(a.width).Render(a.input.View()) + "\n")

	rows, recents := a.searchRows()
	listHeight := a.contentHeight() - 2
	switch {
	case s.IsLoading:
		b.WriteString(a.loadingLine("Searching...") + "\n")
		listHeight--
	case s.Error != "":
		b.WriteString(ErrorStyle.Render(s.Error) + "\n")
		listHeight--
	case recents:
		b.WriteString(SectionHeader.Render("Recent searches") + "\n")
		listHeight--
	case len(rows) == 0 && (s.HasSearched || s.Query != ""):
		b.WriteString(HelpStyle.Render("No recipes found."))
		return b.String()
	}

	cursor := a.cursors[tabSearch]
	if a.input.Focused() {
		cursor = -1
	}
	b.WriteString(RenderList(rows, cursor, a.width, listHeight))
	return b.String()
}

func (a App) renderFavorites() string {
	f := a.favorites
	switch {
	case f.IsLoading:
		return a.loadingLine("Loading favorites...")
	case f.Error != "":
		return ErrorStyle.Render(f.Error) + "\n" + HelpStyle.Render("Press r to reload.")
	case len(f.Items) == 0:
		return HelpStyle.Render("No favorites yet. Press f on a recipe to save it.")
	}
	return RenderList(favoriteRows(f.Items), a.cursors[tabFavorites], a.width, a.contentHeight())
}

func (a App) renderDetails() string {
	d := a.details
	switch {
	case d.IsLoading:
		return a.loadingLine("Loading recipe...")
	case d.Error != "" && d.Recipe == nil:
		return ErrorStyle.Render(d.Error) + "\n" + HelpStyle.Render("Press r to retry.")
	case d.Recipe == nil:
		return HelpStyle.Render("Pick a recipe to see its details.")
	}
	return a.viewport.View()
}

func (a App) position() string {
	switch a.tab {
	case tabHome:
		return fmt.Sprintf("%d/%d", a.cursors[tabHome]+1, len(a.home.Featured)+len(a.home.Popular))
	case tabSearch:
		if a.search.HasSearched {
			return fmt.Sprintf("%d results", len(a.search.Recipes))
		}
		return "search"
	case tabFavorites:
		return fmt.Sprintf("%d saved", len(a.favorites.Items))
	case tabDetails:
		return fmt.Sprintf("%3.f%%", a.viewport.ScrollPercent()*100)
	}
	return ""
}

func (a App) hints() []key.Binding {
	k := a.keys
	switch a.tab {
	case tabHome:
		return []key.Binding{k.Up, k.Open, k.Retry, k.NextTab, k.Quit}
	case tabSearch:
		if a.input.Focused() {
			return []key.Binding{k.Submit, k.Blur, k.NextTab}
		}
		return []key.Binding{k.Focus, k.Up, k.Open, k.CycleType, k.Clear, k.Quit}
	case tabFavorites:
		return []key.Binding{k.Up, k.Open, k.Remove, k.Retry, k.Quit}
	case tabDetails:
		return []key.Binding{k.Toggle, k.Retry, k.Back, k.Quit}
	}
	return nil
}
