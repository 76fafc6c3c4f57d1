package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/cevizenes/recipeapp/internal/recipe"
)

// Row is one line of a recipe list.
type Row struct {
	ID       int
	Title    string
	Meta     string // right column, e.g. "25 min  4.3★"
	Favorite bool
}

func recipeRows(rs []recipe.Recipe, favs map[int]bool) []Row {
	rows := make([]Row, len(rs))
	for i, r := range rs {
		rows[i] = Row{
			ID:       r.ID,
			Title:    r.Title,
			Meta:     r.DisplayTime() + "  " + r.DisplayScore(),
			Favorite: favs[r.ID],
		}
	}
	return rows
}

func favoriteRows(fs []recipe.FavoriteRecipe) []Row {
	rows := make([]Row, len(fs))
	for i, f := range fs {
		rows[i] = Row{
			ID:       f.ID,
			Title:    f.Title,
			Meta:     f.DisplayTime() + "  " + f.DisplayScore(),
			Favorite: true,
		}
	}
	return rows
}

func textRows(items []string) []Row {
	rows := make([]Row, len(items))
	for i, s := range items {
		rows[i] = Row{Title: s}
	}
	return rows
}

// RenderList renders rows into at most height lines, keeping cursor
// visible. A negative cursor selects nothing.
func RenderList(rows []Row, cursor, width, height int) string {
	if len(rows) == 0 || height <= 0 {
		return ""
	}

	offset := calcScrollOffset(len(rows), cursor, height)
	end := offset + height
	if end > len(rows) {
		end = len(rows)
	}

	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		lines = append(lines, renderRow(rows[i], i == cursor, width))
	}
	return strings.Join(lines, "\n")
}

// calcScrollOffset centres the cursor once the list overflows.
func calcScrollOffset(total, cursor, height int) int {
	if height <= 0 || total <= height || cursor < 0 {
		return 0
	}
	offset := cursor - height/2
	if offset < 0 {
		offset = 0
	}
	if limit := total - height; offset > limit {
		offset = limit
	}
	return offset
}

func renderRow(r Row, selected bool, width int) string {
	mark := "  "
	if r.Favorite {
		mark = "♥ "
	}

	metaWidth := utf8.RuneCountInString(r.Meta)
	titleWidth := width - metaWidth - 6
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncate(r.Title, titleWidth)

	dotCount := width - 4 - utf8.RuneCountInString(mark) - utf8.RuneCountInString(title) - metaWidth
	dots := fadeDots(dotCount)

	if selected {
		return SelectedItem.Render(mark + title + dots + " " + r.Meta)
	}
	if r.Favorite {
		mark = FavoriteMark.Render(mark)
	}
	return NormalItem.Render(mark+title) + MetaItem.Render(dots+" "+r.Meta)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func fadeDots(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(".", count-1) + " "
}

// RenderStatusBar draws position on the left and key hints on the right.
func RenderStatusBar(position string, hints []key.Binding, width int) string {
	keys := make([]string, 0, len(hints))
	for _, h := range hints {
		help := h.Help()
		keys = append(keys, StatusBarKey.Render(help.Key)+StatusBarText.Render(":"+help.Desc))
	}
	keyHints := strings.Join(keys, " ")

	left := " " + position + " "
	padding := width - lipgloss.Width(left) - lipgloss.Width(keyHints) - 2
	if padding < 0 {
		padding = 0
	}

	bar := left + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}

// RenderDetail lays out a full recipe for the details viewport.
func RenderDetail(d recipe.RecipeDetail, favorite bool, width int) string {
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width - 2).PaddingLeft(1)

	var b strings.Builder

	title := SectionHeader.Render(d.Title)
	if favorite {
		title += FavoriteMark.Render(" ♥")
	}
	b.WriteString(title + "\n")

	meta := []string{d.DisplayTime(), d.DisplayServings(), d.DisplayScore()}
	if d.AggregateLikes != nil {
		meta = append(meta, fmt.Sprintf("%d likes", *d.AggregateLikes))
	}
	b.WriteString(MetaItem.Render(" "+strings.Join(meta, " · ")) + "\n")

	var badges []string
	if d.Vegetarian {
		badges = append(badges, Badge.Render("vegetarian"))
	}
	if d.Vegan {
		badges = append(badges, Badge.Render("vegan"))
	}
	if d.GlutenFree {
		badges = append(badges, Badge.Render("gluten free"))
	}
	if len(badges) > 0 {
		b.WriteString(" " + strings.Join(badges, "") + "\n")
	}
	if len(d.Cuisines) > 0 {
		b.WriteString(MetaItem.Render(" Cuisines: "+strings.Join(d.Cuisines, ", ")) + "\n")
	}

	if summary := stripTags(d.Summary); summary != "" {
		b.WriteString("\n" + wrap.Render(summary) + "\n")
	}

	if len(d.Ingredients) > 0 {
		b.WriteString("\n" + SectionHeader.Render("Ingredients") + "\n")
		for _, ing := range d.Ingredients {
			line := ing.Original
			if line == "" {
				line = strings.TrimSpace(fmt.Sprintf("%g %s %s", ing.Amount, ing.Unit, ing.Name))
			}
			b.WriteString(wrap.Render("• "+line) + "\n")
		}
	}

	switch {
	case len(d.Steps) > 0:
		b.WriteString("\n" + SectionHeader.Render("Steps") + "\n")
		for _, s := range d.Steps {
			b.WriteString(wrap.Render(StepNumber.Render(fmt.Sprintf("%d.", s.Number))+" "+s.Instruction) + "\n")
		}
	case d.Instructions != "":
		b.WriteString("\n" + SectionHeader.Render("Instructions") + "\n")
		b.WriteString(wrap.Render(stripTags(d.Instructions)) + "\n")
	}

	if n := d.Nutrition; n != nil {
		b.WriteString("\n" + SectionHeader.Render("Nutrition") + "\n")
		b.WriteString(MetaItem.Render(fmt.Sprintf(" %.0f kcal · fat %.0fg · protein %.0fg · carbs %.0fg",
			n.Calories, n.Fat, n.Protein, n.Carbs)) + "\n")
	}

	return b.String()
}

// stripTags drops the inline HTML the catalog puts in summaries.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case inTag && r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
