// Package session keeps search, detail and wishlist state consistent while the
// user navigates. Every method is safe for concurrent use.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/csheth/readowl/internal/books"
	"github.com/csheth/readowl/internal/logging"
	"github.com/csheth/readowl/internal/recommend"
)

var (
	// ErrEmptyQuery is returned when a search is requested with a blank query.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrNotInContext is returned when a detail view is opened for a book that is
	// not part of the list it was opened from.
	ErrNotInContext = errors.New("book is not in the browsing context")
)

// Searcher runs one recommendation query.
type Searcher interface {
	Search(ctx context.Context, params books.SearchParams) recommend.Result
}

// Direction moves the detail view within its context.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// Ticket identifies one issued search. Only the latest ticket may complete it.
type Ticket struct {
	Token  uint64
	Params books.SearchParams
}

// Selection is the open detail view: the focused book and the list it was opened from.
type Selection struct {
	Book    books.Book
	Context []books.Book
}

// Index is the position of Book within Context.
func (s Selection) Index() int { return books.IndexOf(s.Context, s.Book.ID) }

func (s Selection) HasPrev() bool { return s.Index() > 0 }

func (s Selection) HasNext() bool {
	idx := s.Index()
	return idx >= 0 && idx < len(s.Context)-1
}

// Session is the in-memory state of one user session.
type Session struct {
	id string

	mu              sync.Mutex
	params          books.SearchParams
	results         []books.Book
	wishlist        []books.Book
	selection       *Selection
	loading         bool
	hasSearchedOnce bool
	showAll         bool
	lastSource      recommend.Source
	lastErr         error
	token           uint64
}

// New returns a session with default filters and an empty wishlist.
func New() *Session {
	return &Session{
		id:     uuid.NewString(),
		params: books.DefaultParams(),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) Params() books.SearchParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Query = query
}

func (s *Session) SetCategory(c books.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Category = c
}

func (s *Session) SetTone(t books.Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Tone = t
}

func (s *Session) SetParams(p books.SearchParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

// BeginSearch marks a search as in flight and returns its ticket. A blank query
// is rejected with ErrEmptyQuery and leaves the session untouched.
func (s *Session) BeginSearch() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.params.HasQuery() {
		return Ticket{}, ErrEmptyQuery
	}
	s.token++
	s.loading = true
	s.hasSearchedOnce = true
	s.showAll = false
	s.selection = nil

	logging.Debug().Str("session", s.id).Uint64("token", s.token).Str("query", s.params.Query).Msg("search started")
	return Ticket{Token: s.token, Params: s.params}, nil
}

// CompleteSearch stores result if ticket is the latest one issued. It reports
// whether the result was applied.
func (s *Session) CompleteSearch(ticket Ticket, result recommend.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.Token != s.token {
		logging.Debug().Str("session", s.id).Uint64("token", ticket.Token).Uint64("latest", s.token).Msg("dropping stale search result")
		return false
	}
	s.results = books.Clone(result.Books)
	if s.results == nil {
		s.results = []books.Book{}
	}
	s.lastSource = result.Source
	s.lastErr = result.Err
	s.loading = false
	return true
}

// RunSearch performs a full search cycle with searcher, calling it outside the lock.
func (s *Session) RunSearch(ctx context.Context, searcher Searcher) error {
	ticket, err := s.BeginSearch()
	if err != nil {
		return err
	}
	s.CompleteSearch(ticket, searcher.Search(ctx, ticket.Params))
	return nil
}

// ResetSearch clears the query and results so the home view shows its initial
// shelves again. The wishlist is kept.
func (s *Session) ResetSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params.Query = ""
	s.results = nil
	s.hasSearchedOnce = false
	s.showAll = false
	s.loading = false
	s.lastSource = ""
	s.lastErr = nil
	// Any search still in flight belongs to the old query.
	s.token++
}

func (s *Session) Results() []books.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return books.Clone(s.results)
}

// DisplayedResults trims the results to preview items unless the full shelf is on.
func (s *Session) DisplayedResults(preview int) []books.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.showAll || preview <= 0 || len(s.results) <= preview {
		return books.Clone(s.results)
	}
	return books.Clone(s.results[:preview])
}

// ToggleShowAll flips the full-shelf switch and returns the new value.
func (s *Session) ToggleShowAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showAll = !s.showAll
	return s.showAll
}

func (s *Session) ShowAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showAll
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) HasSearchedOnce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasSearchedOnce
}

// LastSource reports where the current results came from and why, if they did
// not come from the service.
func (s *Session) LastSource() (recommend.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSource, s.lastErr
}

// ToggleWishlist adds or removes book by id and returns the new membership.
func (s *Session) ToggleWishlist(book books.Book) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := books.IndexOf(s.wishlist, book.ID); idx >= 0 {
		s.wishlist = append(s.wishlist[:idx:idx], s.wishlist[idx+1:]...)
		logging.Debug().Str("session", s.id).Str("book", book.ID).Msg("removed from wishlist")
		return false
	}
	s.wishlist = append(s.wishlist, books.Clone([]books.Book{book})...)
	logging.Debug().Str("session", s.id).Str("book", book.ID).Msg("added to wishlist")
	return true
}

func (s *Session) IsWishlisted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return books.IndexOf(s.wishlist, id) >= 0
}

func (s *Session) Wishlist() []books.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return books.Clone(s.wishlist)
}

// OpenDetail focuses book within context. The context list is copied.
func (s *Session) OpenDetail(book books.Book, context []books.Book) error {
	idx := books.IndexOf(context, book.ID)
	if idx < 0 {
		return ErrNotInContext
	}
	ctxCopy := books.Clone(context)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = &Selection{Book: ctxCopy[idx], Context: ctxCopy}
	return nil
}

// StepDetail moves the selection one step within its context. It stops at either
// end and reports whether the selection changed.
func (s *Session) StepDetail(dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection == nil {
		return false
	}
	idx := books.IndexOf(s.selection.Context, s.selection.Book.ID)
	if idx < 0 {
		return false
	}
	target := idx + int(dir)
	if target < 0 || target >= len(s.selection.Context) {
		return false
	}
	s.selection.Book = s.selection.Context[target]
	return true
}

func (s *Session) CloseDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// Selection returns a copy of the open detail view, if any.
func (s *Session) Selection() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return Selection{}, false
	}
	return Selection{
		Book:    books.Clone([]books.Book{s.selection.Book})[0],
		Context: books.Clone(s.selection.Context),
	}, true
}

// Describe is a one-line summary for logs and status bars.
func (s *Session) Describe() string {
	p := s.Params()
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Query))
	if p.Category != books.CategoryAll && p.Category != "" {
		b.WriteString(" · " + string(p.Category))
	}
	if p.Tone != books.ToneAll && p.Tone != "" {
		b.WriteString(" · " + string(p.Tone))
	}
	return b.String()
}
