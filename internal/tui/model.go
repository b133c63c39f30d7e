package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/readowl/internal/books"
	"github.com/csheth/readowl/internal/guide"
	"github.com/csheth/readowl/internal/logging"
	"github.com/csheth/readowl/internal/recommend"
	"github.com/csheth/readowl/internal/session"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Session  *session.Session
	Searcher session.Searcher
	// ShelfPreview is how many results show before the full shelf is toggled on.
	ShelfPreview int
	// Generator names the generative recommender, empty when none is configured.
	Generator     string
	SearchTimeout time.Duration
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Session == nil {
		config.Session = session.New()
	}
	if config.ShelfPreview <= 0 {
		config.ShelfPreview = defaultShelfPreview
	}

	queryInput := textinput.New()
	queryInput.Placeholder = queryPlaceholder
	queryInput.Prompt = "🔍 "
	queryInput.CharLimit = 200
	queryInput.Width = 60
	queryInput.SetValue(config.Session.Params().Query)
	queryInput.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(76, 14)
	vp.MouseWheelEnabled = true

	return &model{
		config:      config,
		session:     config.Session,
		jobs:        newJobBus(config.SearchTimeout),
		view:        viewHome,
		focus:       focusQuery,
		queryInput:  queryInput,
		spinner:     spin,
		viewport:    vp,
		layout:      newPageLayout(),
		cursors:     map[shelfKind]int{},
		trending:    books.Trending(),
		classics:    books.Classics(),
		infoMessage: "Describe a book you'd love to read and press Enter.",
	}
}

type model struct {
	config  Config
	session *session.Session
	jobs    *jobBus

	view  appView
	focus focusArea

	queryInput textinput.Model
	spinner    spinner.Model
	viewport   viewport.Model
	layout     pageLayout

	shelfIdx int
	cursors  map[shelfKind]int
	trending []books.Book
	classics []books.Book

	pendingJobs  int
	infoMessage  string
	errorMessage string
	toast        string
	toastSeq     int
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.session.Loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.contentWidth
		m.viewport.Height = m.layout.aboutHeight
		m.queryInput.Width = m.layout.wrapWidth(8)
		m.refreshAbout()
		return m, nil
	case tea.MouseMsg:
		if m.view == viewAbout {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if _, open := m.session.Selection(); open {
			return m.handleDetailKey(msg)
		}
		return m.handleKey(msg)
	case jobDoneMsg:
		if m.pendingJobs > 0 {
			m.pendingJobs--
		}
		if msg.err != nil {
			logging.Warn().Err(msg.err).Str("job", msg.id).Msg("background job failed")
			m.errorMessage = msg.err.Error()
		}
		if msg.payload == nil {
			return m, nil
		}
		return m.Update(msg.payload)
	case searchResultMsg:
		return m.applySearchResult(msg)
	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == viewHome && m.focus == focusQuery {
		return m.handleQueryKey(key)
	}

	switch key.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.switchView(viewHome)
		return m, nil
	case "2":
		m.switchView(viewWishlist)
		return m, nil
	case "3":
		m.switchView(viewAbout)
		return m, nil
	}

	switch m.view {
	case viewAbout:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	case viewWishlist:
		return m, m.handleShelfKey(key)
	}

	switch key.String() {
	case "tab":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil
	case "/":
		m.setFocus(focusQuery)
		return m, nil
	}

	switch m.focus {
	case focusCategory:
		switch key.String() {
		case "left", "h":
			m.session.SetCategory(m.session.Params().Category.Prev())
		case "right", "l", " ":
			m.session.SetCategory(m.session.Params().Category.Next())
		case "enter":
			return m, m.submitSearch()
		case "down", "j":
			m.setFocus(focusTone)
		case "up", "k":
			m.setFocus(focusQuery)
		}
		return m, nil
	case focusTone:
		switch key.String() {
		case "left", "h":
			m.session.SetTone(m.session.Params().Tone.Prev())
		case "right", "l", " ":
			m.session.SetTone(m.session.Params().Tone.Next())
		case "enter":
			return m, m.submitSearch()
		case "down", "j":
			m.setFocus(focusShelves)
		case "up", "k":
			m.setFocus(focusCategory)
		}
		return m, nil
	}
	return m, m.handleShelfKey(key)
}

func (m *model) handleQueryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		return m, m.submitSearch()
	case tea.KeyTab:
		m.cycleFocus(1)
		return m, nil
	case tea.KeyShiftTab:
		m.cycleFocus(-1)
		return m, nil
	case tea.KeyEsc:
		m.setFocus(focusShelves)
		return m, nil
	case tea.KeyDown:
		m.setFocus(focusCategory)
		return m, nil
	}

	var cmd tea.Cmd
	before := m.queryInput.Value()
	m.queryInput, cmd = m.queryInput.Update(key)
	if value := m.queryInput.Value(); value != before {
		m.session.SetQuery(value)
	}
	return m, cmd
}

func (m *model) handleShelfKey(key tea.KeyMsg) tea.Cmd {
	shelves := m.shelves()
	if len(shelves) == 0 {
		if m.view == viewHome && key.String() == "up" {
			m.setFocus(focusTone)
		}
		if key.String() == "r" {
			m.resetSearch()
		}
		return nil
	}
	if m.shelfIdx >= len(shelves) {
		m.shelfIdx = len(shelves) - 1
	}
	current := shelves[m.shelfIdx]

	switch key.String() {
	case "up", "k":
		if m.shelfIdx > 0 {
			m.shelfIdx--
		} else if m.view == viewHome {
			m.setFocus(focusTone)
		}
	case "down", "j":
		if m.shelfIdx < len(shelves)-1 {
			m.shelfIdx++
		}
	case "left", "h":
		m.moveCursor(current, -1)
	case "right", "l":
		m.moveCursor(current, 1)
	case "enter":
		m.openDetail(current)
	case "w":
		if book, ok := m.bookAtCursor(current); ok {
			m.toggleWishlist(book)
		}
	case "f":
		if current.kind == shelfResults {
			if m.session.ToggleShowAll() {
				m.infoMessage = "Showing the full shelf."
			} else {
				m.infoMessage = fmt.Sprintf("Showing the top %d picks.", m.config.ShelfPreview)
				m.clampCursor(shelfResults)
			}
		}
	case "r":
		if m.noResults() {
			m.resetSearch()
		}
	}
	return nil
}

func (m *model) handleDetailKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel, _ := m.session.Selection()
	switch key.String() {
	case "right", "down", "n", "j", "l":
		m.session.StepDetail(session.Next)
	case "left", "up", "p", "k", "h":
		m.session.StepDetail(session.Prev)
	case "w":
		m.toggleWishlist(sel.Book)
	case "o", "enter":
		return m, m.showToast(recommendationToast)
	case "esc", "b", "backspace":
		m.session.CloseDetail()
	case "1":
		m.switchView(viewHome)
	case "2":
		m.switchView(viewWishlist)
	case "3":
		m.switchView(viewAbout)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// submitSearch starts a search for the current form. A blank query only shows a
// hint and leaves the session alone.
func (m *model) submitSearch() tea.Cmd {
	if strings.TrimSpace(m.queryInput.Value()) == "" {
		m.infoMessage = emptyQueryHint
		m.errorMessage = ""
		return nil
	}
	m.session.SetQuery(m.queryInput.Value())
	ticket, err := m.session.BeginSearch()
	if errors.Is(err, session.ErrEmptyQuery) {
		m.infoMessage = emptyQueryHint
		return nil
	}
	if err != nil {
		m.errorMessage = err.Error()
		return nil
	}

	m.view = viewHome
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Searching for %q…", strings.TrimSpace(ticket.Params.Query))
	m.cursors[shelfResults] = 0
	m.shelfIdx = 0
	logging.Info().Str("session", m.session.ID()).Uint64("token", ticket.Token).Str("query", ticket.Params.Query).
		Str("category", string(ticket.Params.Category)).Str("tone", string(ticket.Params.Tone)).Msg("search submitted")
	m.pendingJobs++
	return tea.Batch(m.jobs.Start(jobKindSearch, searchJob(m.config.Searcher, ticket)), m.spinner.Tick)
}

func (m *model) applySearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if !m.session.CompleteSearch(msg.ticket, msg.result) {
		return m, nil
	}
	count := len(msg.result.Books)
	switch {
	case count == 0:
		m.infoMessage = "No books found. Press r to reset the search."
	case msg.result.Source == recommend.SourceFallback:
		m.infoMessage = "The recommendation service is unavailable, so here are a few staff picks."
	case msg.result.Source == recommend.SourceGenerated:
		m.infoMessage = fmt.Sprintf("Recommended by %s while the service is unavailable.", m.generatorLabel())
	default:
		m.infoMessage = fmt.Sprintf("Found %d books for %q.", count, strings.TrimSpace(msg.ticket.Params.Query))
	}
	m.errorMessage = ""
	m.shelfIdx = 0
	m.cursors[shelfResults] = 0
	if m.view == viewHome {
		m.setFocus(focusShelves)
	}
	return m, nil
}

func (m *model) resetSearch() {
	m.session.ResetSearch()
	m.queryInput.SetValue("")
	m.cursors[shelfResults] = 0
	m.shelfIdx = 0
	m.infoMessage = "Search cleared."
	m.setFocus(focusQuery)
}

func (m *model) switchView(v appView) {
	m.session.CloseDetail()
	m.view = v
	m.shelfIdx = 0
	switch v {
	case viewHome:
		m.setFocus(focusShelves)
	case viewWishlist:
		m.queryInput.Blur()
		m.clampCursor(shelfWishlist)
	case viewAbout:
		m.queryInput.Blur()
		m.refreshAbout()
		m.viewport.GotoTop()
	}
}

func (m *model) setFocus(f focusArea) {
	m.focus = f
	if f == focusQuery {
		m.queryInput.Focus()
	} else {
		m.queryInput.Blur()
	}
}

func (m *model) cycleFocus(delta int) {
	idx := 0
	for i, f := range focusOrder {
		if f == m.focus {
			idx = i
			break
		}
	}
	n := len(focusOrder)
	m.setFocus(focusOrder[((idx+delta)%n+n)%n])
}

// shelves lists the rows of the current view, top to bottom.
func (m *model) shelves() []shelf {
	switch m.view {
	case viewWishlist:
		list := m.session.Wishlist()
		if len(list) == 0 {
			return nil
		}
		return []shelf{{kind: shelfWishlist, title: "My Library", display: list, context: list}}
	case viewHome:
		var out []shelf
		if m.session.HasSearchedOnce() {
			if results := m.session.Results(); len(results) > 0 {
				out = append(out, shelf{
					kind:    shelfResults,
					title:   fmt.Sprintf("Curated for %q", strings.TrimSpace(m.session.Params().Query)),
					display: m.session.DisplayedResults(m.config.ShelfPreview),
					context: results,
				})
			}
		}
		out = append(out,
			shelf{kind: shelfTrending, title: "Trending Now", display: m.trending, context: m.trending},
			shelf{kind: shelfClassics, title: "Timeless Classics", display: m.classics, context: m.classics},
		)
		return out
	}
	return nil
}

func (m *model) noResults() bool {
	return m.session.HasSearchedOnce() && !m.session.Loading() && len(m.session.Results()) == 0
}

func (m *model) moveCursor(s shelf, delta int) {
	cur := m.cursors[s.kind] + delta
	if cur < 0 {
		cur = 0
	}
	if cur > len(s.display)-1 {
		cur = len(s.display) - 1
	}
	m.cursors[s.kind] = cur
}

func (m *model) clampCursor(kind shelfKind) {
	for _, s := range m.shelves() {
		if s.kind != kind {
			continue
		}
		if m.cursors[kind] > len(s.display)-1 {
			m.cursors[kind] = len(s.display) - 1
		}
	}
	if m.cursors[kind] < 0 {
		m.cursors[kind] = 0
	}
}

func (m *model) bookAtCursor(s shelf) (books.Book, bool) {
	idx := m.cursors[s.kind]
	if idx < 0 || idx >= len(s.display) {
		return books.Book{}, false
	}
	return s.display[idx], true
}

func (m *model) openDetail(s shelf) {
	book, ok := m.bookAtCursor(s)
	if !ok {
		return
	}
	if err := m.session.OpenDetail(book, s.context); err != nil {
		logging.Warn().Err(err).Str("book", book.ID).Msg("open detail")
		m.errorMessage = err.Error()
		return
	}
	m.toast = ""
}

func (m *model) toggleWishlist(book books.Book) {
	if m.session.ToggleWishlist(book) {
		m.infoMessage = fmt.Sprintf("Added %q to My Library.", book.Title)
	} else {
		m.infoMessage = fmt.Sprintf("Removed %q from My Library.", book.Title)
		if m.view == viewWishlist {
			m.clampCursor(shelfWishlist)
		}
	}
}

func (m *model) showToast(text string) tea.Cmd {
	m.toastSeq++
	m.toast = text
	return expireToastCmd(m.toastSeq)
}

func (m *model) refreshAbout() {
	p := m.session.Params()
	m.viewport.SetContent(m.aboutContent(guide.Build(guide.Metadata{Query: p.Query, Category: p.Category, Tone: p.Tone}), guide.Pipeline()))
}

func (m *model) generatorLabel() string {
	if m.config.Generator == "" {
		return "the generative recommender"
	}
	return m.config.Generator
}
