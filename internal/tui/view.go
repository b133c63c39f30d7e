package tui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/readowl/internal/books"
	"github.com/csheth/readowl/internal/guide"
)

func (m *model) View() string {
	if sel, open := m.session.Selection(); open {
		return joinNonEmpty([]string{m.navView(), m.detailView(sel.Book, sel.Context, sel.Index()), m.keyLegendView()})
	}
	switch m.view {
	case viewWishlist:
		return joinNonEmpty([]string{m.navView(), m.wishlistView(), m.statusView(), m.keyLegendView()})
	case viewAbout:
		return joinNonEmpty([]string{m.navView(), m.viewport.View(), helperStyle.Render("↑/↓ scroll  •  1 home  •  2 library  •  q quit"), m.keyLegendView()})
	default:
		return joinNonEmpty([]string{m.navView(), m.heroView(), m.searchFormView(), m.statusView(), m.shelvesView(), m.keyLegendView()})
	}
}

func (m *model) navView() string {
	tabs := []struct {
		view  appView
		label string
	}{
		{viewHome, "1 Home"},
		{viewWishlist, fmt.Sprintf("2 My Library (%d)", len(m.session.Wishlist()))},
		{viewAbout, "3 About"},
	}
	cells := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		style := tabStyle
		if tab.view == m.view {
			style = activeTabStyle
		}
		cells = append(cells, style.Render(tab.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) heroView() string {
	tagline := taglineStyle.Render(heroTagline)
	if m.layout.windowWidth < logoMinWidth {
		return lipgloss.JoinVertical(lipgloss.Left, heroTitleStyle.Render("🦉 READOWL"), tagline)
	}
	return lipgloss.JoinVertical(lipgloss.Left, renderLogo(), tagline)
}

func (m *model) searchFormView() string {
	p := m.session.Params()
	query := m.queryInput.View()
	category := selectorView("Category", p.Category.Icon()+" "+string(p.Category), m.focus == focusCategory)
	tone := selectorView("Mood", p.Tone.Emoji()+" "+string(p.Tone), m.focus == focusTone)

	box := formBoxStyle
	if m.focus == focusQuery {
		box = formFocusBoxStyle
	}
	return box.Width(m.layout.wrapWidth(4)).Render(strings.Join([]string{
		sectionHeaderStyle.Render("What do you feel like reading?"),
		query,
		lipgloss.JoinHorizontal(lipgloss.Top, category, "   ", tone),
	}, "\n"))
}

func selectorView(label, value string, focused bool) string {
	text := fmt.Sprintf("%s: ‹ %s ›", label, value)
	if focused {
		return selectorFocusStyle.Render(text)
	}
	return selectorStyle.Render(text)
}

func (m *model) statusView() string {
	var parts []string
	if m.session.Loading() {
		parts = append(parts, helperStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.infoMessage)))
	} else if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	return strings.Join(parts, "\n")
}

func (m *model) shelvesView() string {
	var parts []string
	if m.noResults() {
		parts = append(parts, shelfTitleStyle.Render(fmt.Sprintf("Curated for %q", strings.TrimSpace(m.session.Params().Query)))+"\n"+
			helperStyle.Render("No books found. Press r to reset."))
	}
	for i, s := range m.shelves() {
		parts = append(parts, m.shelfView(s, m.focus == focusShelves && i == m.shelfIdx))
	}
	return joinNonEmpty(parts)
}

func (m *model) wishlistView() string {
	shelves := m.shelves()
	if len(shelves) == 0 {
		return joinNonEmpty([]string{
			sectionHeaderStyle.Render("My Library"),
			helperStyle.Render("Nothing saved yet. Press w on any book to keep it here."),
		})
	}
	return m.shelfView(shelves[0], true)
}

func (m *model) shelfView(s shelf, active bool) string {
	title := shelfTitleStyle.Render(s.title)
	if active {
		title = shelfActiveTitleStyle.Render("▸ " + s.title)
	}
	header := title
	if s.kind == shelfResults {
		total := len(s.context)
		if total > m.config.ShelfPreview {
			hint := fmt.Sprintf("f: full shelf (%d)", total)
			if m.session.ShowAll() {
				hint = fmt.Sprintf("f: top %d", m.config.ShelfPreview)
			}
			header = lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", helperStyle.Render(hint))
		}
	}

	cursor := m.cursors[s.kind]
	start, end := m.layout.visibleWindow(len(s.display), cursor)
	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		book := s.display[i]
		cards = append(cards, m.cardView(book, active && i == cursor))
		if i < end-1 {
			cards = append(cards, strings.Repeat(" ", cardGap))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if start > 0 || end < len(s.display) {
		row = lipgloss.JoinVertical(lipgloss.Left, row, helperStyle.Render(fmt.Sprintf("%d–%d of %d", start+1, end, len(s.display))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, row)
}

func (m *model) cardView(book books.Book, selected bool) string {
	inner := cardWidth - 2
	title := truncate(book.Title, inner)
	if m.session.IsWishlisted(book.ID) {
		title = truncate("♥ "+book.Title, inner)
	}
	author := book.Author
	if author == "" {
		author = "Unknown author"
	}
	lines := []string{
		coverView(book, inner, coverHeight),
		cardTitleStyle.Render(title),
		helperStyle.Render(truncate(author, inner)),
		ratingStyle.Render(ratingLabel(book.Rating)),
	}
	style := cardStyle
	if selected {
		style = cardSelectedStyle
	}
	return style.Width(inner).Render(strings.Join(lines, "\n"))
}

// coverView draws a solid block in the book's cover colour with its initial.
func coverView(book books.Book, width, height int) string {
	bg := coverColor(book.CoverColor)
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Bold(true).
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(contrastColor(bg))).
		Render(book.CoverInitial())
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func coverColor(value string) string {
	value = strings.TrimSpace(value)
	if !hexColorPattern.MatchString(value) {
		return books.DefaultCoverColor
	}
	return value
}

// contrastColor picks dark or light text for a hex background.
func contrastColor(hex string) string {
	digits := strings.TrimPrefix(coverColor(hex), "#")
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return "#ffffff"
	}
	r, g, b := float64(v>>16&0xff), float64(v>>8&0xff), float64(v&0xff)
	if 0.299*r+0.587*g+0.114*b > 150 {
		return "#111111"
	}
	return "#ffffff"
}

func ratingLabel(rating float64) string {
	if rating <= 0 {
		return "☆ unrated"
	}
	return fmt.Sprintf("★ %.1f", rating)
}

func (m *model) detailView(book books.Book, collection []books.Book, index int) string {
	width := m.layout.wrapWidth(30)

	var meta []string
	if book.Category != "" {
		meta = append(meta, book.Category)
	}
	if book.Tone != "" {
		meta = append(meta, book.Tone)
	}
	meta = append(meta, ratingLabel(book.Rating))
	if book.PublishedYear > 0 {
		meta = append(meta, strconv.Itoa(book.PublishedYear))
	}
	if book.RatingsCount > 0 {
		meta = append(meta, fmt.Sprintf("%d ratings", book.RatingsCount))
	}

	authors := "Unknown author"
	if len(book.Authors) > 0 {
		authors = strings.Join(book.Authors, ", ")
	}
	description := book.Description
	if strings.TrimSpace(description) == "" {
		description = "No description available."
	}

	wish := "w: add to My Library"
	if m.session.IsWishlisted(book.ID) {
		wish = "♥ In My Library  •  w: remove"
	}

	info := []string{
		detailTitleStyle.Render(wordwrap.String(book.Title, width)),
		subtitleStyle.Render("by " + authors),
		helperStyle.Render(strings.Join(meta, " · ")),
		wordwrap.String(description, width),
	}
	if book.HasCoverImage() {
		info = append(info, helperStyle.Render("Cover: "+book.CoverURL))
	}
	info = append(info, helperStyle.Render(wish))
	if m.toast != "" {
		info = append(info, toastStyle.Render(m.toast))
	}

	cover := coverView(book, cardWidth, coverHeight*2)
	panel := lipgloss.JoinHorizontal(lipgloss.Top, cover, "  ", strings.Join(info, "\n\n"))

	position := fmt.Sprintf("%d / %d", index+1, len(collection))
	nav := []string{}
	if index > 0 {
		nav = append(nav, "← prev")
	}
	if index < len(collection)-1 {
		nav = append(nav, "next →")
	}
	nav = append(nav, "esc back")
	footer := helperStyle.Render(position + "  •  " + strings.Join(nav, "  •  "))

	return joinNonEmpty([]string{detailBoxStyle.Render(panel), m.collectionStrip(collection, index), footer})
}

// collectionStrip lists neighbouring titles so the reader can see where they are.
func (m *model) collectionStrip(collection []books.Book, index int) string {
	start, end := m.layout.visibleWindow(len(collection), index)
	cells := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := truncate(collection[i].Title, cardWidth-2)
		if i == index {
			cells = append(cells, stripActiveStyle.Render(label))
			continue
		}
		cells = append(cells, stripStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) aboutContent(steps, pipeline []guide.Step) string {
	width := m.layout.wrapWidth(4)
	var cb contentBuilder
	cb.WriteString(sectionHeaderStyle.Render("About Readowl"))
	cb.WriteString("\n")
	cb.WriteString(wordwrap.String("Readowl turns a short description of what you feel like reading into a shelf of books. "+
		"It asks a recommendation service first and keeps a few staff picks ready for when the service is away.", width))
	cb.WriteString("\n\n")
	cb.WriteString(sectionHeaderStyle.Render("How your search works"))
	cb.WriteString("\n")
	for i, step := range steps {
		cb.WriteString(subtitleStyle.Render(fmt.Sprintf("%d. %s", i+1, step.Title)))
		cb.WriteString("\n")
		cb.WriteString(indentMultiline(wordwrap.String(step.Description, width-3), "   "))
		cb.WriteString("\n")
	}
	cb.WriteString("\n")
	cb.WriteString(sectionHeaderStyle.Render("Under the hood"))
	cb.WriteString("\n")
	for i, stage := range pipeline {
		cb.WriteString(fmt.Sprintf("%2d. %s", i+1, stage.Title))
		if stage.Description != "" {
			cb.WriteString(helperStyle.Render(" · " + stage.Description))
		}
		cb.WriteRune('\n')
	}
	return cb.String()
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	var hints []keyHint
	switch {
	case m.detailOpen():
		hints = []keyHint{{"←/→", "Prev/next"}, {"w", "Wishlist"}, {"o", "Open"}, {"esc", "Back"}, {"q", "Quit"}}
	case m.view == viewHome && m.focus == focusQuery:
		hints = []keyHint{{"enter", "Search"}, {"tab", "Filters"}, {"esc", "Shelves"}, {"ctrl+c", "Quit"}}
	case m.view == viewHome && (m.focus == focusCategory || m.focus == focusTone):
		hints = []keyHint{{"←/→", "Change"}, {"enter", "Search"}, {"tab", "Next field"}, {"/", "Query"}}
	case m.view == viewAbout:
		hints = []keyHint{{"↑/↓", "Scroll"}, {"1/2", "Views"}, {"q", "Quit"}}
	default:
		hints = []keyHint{{"↑/↓", "Shelf"}, {"←/→", "Book"}, {"enter", "Details"}, {"w", "Wishlist"}, {"f", "Full shelf"}, {"/", "Search"}, {"q", "Quit"}}
	}
	cells := make([]string, 0, len(hints))
	for _, hint := range hints {
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(hint.Key), keyDescStyle.Render(" "+hint.Description+"  ")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) detailOpen() bool {
	_, open := m.session.Selection()
	return open
}

func renderLogo() string {
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}
	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}
	// Shadow first, offset one cell down and right, then the face on top.
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' {
				grid[y][x] = cell{r: r, style: logoFaceStyle}
			}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	subtitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	heroAccentColor        = lipgloss.Color("#d4a373")
	heroBarkColor          = lipgloss.Color("#2a1a0e")
	heroTextColor          = lipgloss.Color("#fefae0")
	heroSecondaryTextColor = lipgloss.Color("#e9c46a")

	heroTitleStyle        = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle          = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	tabStyle              = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 2)
	activeTabStyle        = lipgloss.NewStyle().Bold(true).Foreground(heroBarkColor).Background(heroAccentColor).Padding(0, 2)
	formBoxStyle          = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	formFocusBoxStyle     = formBoxStyle.BorderForeground(heroAccentColor)
	selectorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	selectorFocusStyle    = lipgloss.NewStyle().Bold(true).Foreground(heroBarkColor).Background(heroSecondaryTextColor).Padding(0, 1)
	shelfTitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	shelfActiveTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	cardStyle             = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3b3a4a"))
	cardSelectedStyle     = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(heroAccentColor)
	cardTitleStyle        = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor)
	ratingStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd166"))
	detailBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Padding(1, 2)
	detailTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	toastStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	stripStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
	stripActiveStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroBarkColor).Background(heroAccentColor).Padding(0, 1)
	keyStyle              = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	logoFaceStyle         = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroBarkColor)
	logoShadowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#120a04"))
	logoContainerStyle    = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines          = []string{
		"██████╗   ███████╗   █████╗   ██████╗    ██████╗   ██╗    ██╗  ██╗       ",
		"██╔══██╗  ██╔════╝  ██╔══██╗  ██╔══██╗  ██╔═══██╗  ██║    ██║  ██║       ",
		"██████╔╝  █████╗    ███████║  ██║  ██║  ██║   ██║  ██║ █╗ ██║  ██║       ",
		"██╔══██╗  ██╔══╝    ██╔══██║  ██║  ██║  ██║   ██║  ██║███╗██║  ██║       ",
		"██║  ██║  ███████╗  ██║  ██║  ██████╔╝  ╚██████╔╝  ╚███╔███╔╝  ███████╗  ",
		"╚═╝  ╚═╝  ╚══════╝  ╚═╝  ╚═╝  ╚═════╝    ╚═════╝    ╚══╝╚══╝   ╚══════╝  ",
	}
)
