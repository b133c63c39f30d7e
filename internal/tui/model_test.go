package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/readowl/internal/recommend"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *model, text string) {
	for _, r := range text {
		m.Update(keyRunes(string(r)))
	}
}

func press(m *model, keys ...tea.KeyMsg) {
	for _, k := range keys {
		m.Update(k)
	}
}

// completeSearch starts a search through the session and delivers its result the
// way the job bus would.
func completeSearch(t *testing.T, m *model, query string) {
	t.Helper()
	m.session.SetQuery(query)
	ticket, err := m.session.BeginSearch()
	if err != nil {
		t.Fatalf("BeginSearch: %v", err)
	}
	msg, err := searchJob(m.config.Searcher, ticket)(context.Background())
	if err != nil {
		t.Fatalf("searchJob: %v", err)
	}
	m.Update(jobDoneMsg{id: "search-1", payload: msg})
}

func TestEnterWithEmptyQueryShowsHint(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(t, searcher)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("empty query should not start a job, got %T", cmd)
	}
	if m.infoMessage != emptyQueryHint {
		t.Fatalf("info = %q, want hint", m.infoMessage)
	}
	if m.session.HasSearchedOnce() || m.session.Loading() {
		t.Fatal("session should be untouched by an empty query")
	}

	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.session.HasSearchedOnce() {
		t.Fatal("whitespace query should not search")
	}
	if searcher.callCount() != 0 {
		t.Fatalf("searcher called %d times", searcher.callCount())
	}
}

func TestTypingSyncsQueryIntoSession(t *testing.T) {
	m := newTestModel(t, nil)
	typeText(m, "dragons")
	if got := m.session.Params().Query; got != "dragons" {
		t.Fatalf("session query = %q", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.session.Params().Query; got != "dragon" {
		t.Fatalf("session query after backspace = %q", got)
	}
}

func TestSubmitSearchStartsJob(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{books: makeBooks(3)})
	typeText(m, "space opera")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a job command")
	}
	if !m.session.Loading() {
		t.Fatal("session should be loading")
	}
	if !strings.Contains(m.infoMessage, "space opera") {
		t.Fatalf("info = %q", m.infoMessage)
	}
}

func TestSearchResultFillsShelfAndFocusesIt(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{books: makeBooks(3)})
	completeSearch(t, m, "space opera")

	if m.session.Loading() {
		t.Fatal("loading should clear after the result")
	}
	if m.focus != focusShelves {
		t.Fatalf("focus = %v, want shelves", m.focus)
	}
	shelves := m.shelves()
	if len(shelves) != 3 || shelves[0].kind != shelfResults {
		t.Fatalf("unexpected shelves: %+v", shelves)
	}
	if !strings.Contains(m.infoMessage, "Found 3 books") {
		t.Fatalf("info = %q", m.infoMessage)
	}
	view := m.View()
	for _, want := range []string{`Curated for "space opera"`, "Trending Now", "Timeless Classics", "Book 0"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestFallbackResultIsAnnounced(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{books: makeBooks(1), source: recommend.SourceFallback})
	completeSearch(t, m, "anything")
	if !strings.Contains(m.View(), "staff picks") {
		t.Fatalf("fallback notice missing, info = %q", m.infoMessage)
	}
}

func TestStaleSearchResultIsIgnored(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{})
	m.session.SetQuery("first")
	stale, _ := m.session.BeginSearch()
	m.session.SetQuery("second")
	latest, _ := m.session.BeginSearch()

	m.Update(searchResultMsg{ticket: stale, result: recommend.Result{Books: makeBooks(4), Source: recommend.SourceService}})
	if !m.session.Loading() || len(m.session.Results()) != 0 {
		t.Fatal("stale result must not be applied")
	}

	m.Update(searchResultMsg{ticket: latest, result: recommend.Result{Books: makeBooks(2), Source: recommend.SourceService}})
	if m.session.Loading() || len(m.session.Results()) != 2 {
		t.Fatalf("latest result not applied: %d books", len(m.session.Results()))
	}
}

func TestTrendingDetailIsPinnedAtEnds(t *testing.T) {
	m := newTestModel(t, nil)
	m.setFocus(focusShelves)

	right := tea.KeyMsg{Type: tea.KeyRight}
	press(m, right, right, right, right, right, right)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	sel, open := m.session.Selection()
	if !open || sel.Book.ID != "init-5" {
		t.Fatalf("expected init-5 detail, got %+v open=%v", sel.Book.ID, open)
	}
	m.Update(right)
	if sel, _ := m.session.Selection(); sel.Book.ID != "init-5" {
		t.Fatalf("next at end should stay, got %s", sel.Book.ID)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if sel, _ := m.session.Selection(); sel.Book.ID != "init-4" {
		t.Fatalf("prev should move to init-4, got %s", sel.Book.ID)
	}
	if !strings.Contains(m.View(), "4 / 5") {
		t.Fatal("detail view should show position")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, open := m.session.Selection(); open {
		t.Fatal("esc should close detail")
	}
}

func TestResultsDetailWalksBeyondPreview(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{books: makeBooks(8)})
	completeSearch(t, m, "long list")

	if got := len(m.shelves()[0].display); got != 5 {
		t.Fatalf("preview shows %d books, want 5", got)
	}
	right := tea.KeyMsg{Type: tea.KeyRight}
	press(m, right, right, right, right, right)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if sel, _ := m.session.Selection(); sel.Book.ID != "b-4" {
		t.Fatalf("opened %s, want b-4", sel.Book.ID)
	}
	m.Update(right)
	sel, _ := m.session.Selection()
	if sel.Book.ID != "b-5" {
		t.Fatalf("next = %s, want b-5 from the full results", sel.Book.ID)
	}
	if len(sel.Context) != 8 {
		t.Fatalf("context = %d, want 8", len(sel.Context))
	}
}

func TestFullShelfToggle(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{books: makeBooks(8)})
	completeSearch(t, m, "long list")

	m.Update(keyRunes("f"))
	if got := len(m.shelves()[0].display); got != 8 {
		t.Fatalf("full shelf shows %d, want 8", got)
	}
	m.cursors[shelfResults] = 7
	m.Update(keyRunes("f"))
	if got := len(m.shelves()[0].display); got != 5 {
		t.Fatalf("preview shows %d, want 5", got)
	}
	if m.cursors[shelfResults] != 4 {
		t.Fatalf("cursor = %d, want clamped to 4", m.cursors[shelfResults])
	}
}

func TestWishlistToggleFromShelf(t *testing.T) {
	m := newTestModel(t, nil)
	m.setFocus(focusShelves)

	m.Update(keyRunes("w"))
	if list := m.session.Wishlist(); len(list) != 1 || list[0].ID != "init-1" {
		t.Fatalf("wishlist = %+v", list)
	}
	if !strings.Contains(m.View(), "My Library (1)") {
		t.Fatal("nav should count the wishlist")
	}

	m.Update(keyRunes("2"))
	if m.view != viewWishlist {
		t.Fatalf("view = %v", m.view)
	}
	shelves := m.shelves()
	if len(shelves) != 1 || shelves[0].kind != shelfWishlist {
		t.Fatalf("wishlist shelves = %+v", shelves)
	}

	m.Update(keyRunes("w"))
	if len(m.session.Wishlist()) != 0 {
		t.Fatal("second w should remove the book")
	}
	if !strings.Contains(m.View(), "Nothing saved yet") {
		t.Fatal("empty wishlist message missing")
	}
}

func TestViewSwitchClosesDetail(t *testing.T) {
	m := newTestModel(t, nil)
	m.setFocus(focusShelves)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, open := m.session.Selection(); !open {
		t.Fatal("detail should be open")
	}

	m.Update(keyRunes("3"))
	if _, open := m.session.Selection(); open {
		t.Fatal("switching view should close detail")
	}
	if m.view != viewAbout {
		t.Fatalf("view = %v, want about", m.view)
	}
	if !strings.Contains(m.View(), "How your search works") {
		t.Fatal("about view should render the guide")
	}
}

func TestOpenShowsToastUntilExpired(t *testing.T) {
	m := newTestModel(t, nil)
	m.setFocus(focusShelves)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := m.Update(keyRunes("o"))
	if cmd == nil {
		t.Fatal("expected expiry command")
	}
	if m.toast != recommendationToast || !strings.Contains(m.View(), recommendationToast) {
		t.Fatalf("toast = %q", m.toast)
	}

	m.Update(toastExpiredMsg{seq: m.toastSeq - 1})
	if m.toast == "" {
		t.Fatal("an older expiry must not clear a newer toast")
	}
	m.Update(toastExpiredMsg{seq: m.toastSeq})
	if m.toast != "" {
		t.Fatal("toast should clear on expiry")
	}
}

func TestResetAfterEmptyResults(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{})
	completeSearch(t, m, "nothing matches")

	if !strings.Contains(m.View(), "No books found. Press r to reset.") {
		t.Fatal("empty results message missing")
	}
	m.Update(keyRunes("r"))
	if m.session.HasSearchedOnce() {
		t.Fatal("reset should clear the search")
	}
	if m.session.Params().Query != "" || m.queryInput.Value() != "" {
		t.Fatal("reset should clear the query")
	}
	if m.focus != focusQuery {
		t.Fatalf("focus = %v, want query", m.focus)
	}
}

func TestFilterSelectorsCycle(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusCategory {
		t.Fatalf("focus = %v, want category", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.session.Params().Category; got != "Fiction" {
		t.Fatalf("category = %q", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.session.Params().Tone; got == "All" {
		t.Fatal("tone should have cycled backwards")
	}
}

func TestNarrowWindowDropsLogo(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(m.View(), "READOWL") {
		t.Fatal("compact title expected on a narrow window")
	}
	if strings.Contains(m.heroView(), "██") {
		t.Fatal("logo art should be hidden on a narrow window")
	}
}
