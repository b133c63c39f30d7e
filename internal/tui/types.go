package tui

import (
	"github.com/csheth/readowl/internal/books"
	"github.com/csheth/readowl/internal/recommend"
	"github.com/csheth/readowl/internal/session"
)

type appView int

const (
	viewHome appView = iota
	viewWishlist
	viewAbout
)

// focusArea is the part of the home view that receives keys.
type focusArea int

const (
	focusQuery focusArea = iota
	focusCategory
	focusTone
	focusShelves
)

var focusOrder = []focusArea{focusQuery, focusCategory, focusTone, focusShelves}

type shelfKind string

const (
	shelfResults  shelfKind = "results"
	shelfTrending shelfKind = "trending"
	shelfClassics shelfKind = "classics"
	shelfWishlist shelfKind = "wishlist"
)

// shelf is one horizontal row of books. display is what is drawn; context is
// the list detail navigation walks, which may be longer than display.
type shelf struct {
	kind    shelfKind
	title   string
	display []books.Book
	context []books.Book
}

const heroTagline = "Find the book that fits the mood you're in."

const (
	defaultShelfPreview = 5
	minContentWidth     = 40
	contentPadding      = 4
	cardWidth           = 22
	cardGap             = 1
	coverHeight         = 5
	logoMinWidth        = 84
)

const (
	queryPlaceholder    = "A cosy mystery set by the sea…"
	emptyQueryHint      = "Describe what you'd like to read, then press Enter."
	recommendationToast = "App is only focused on recommendation."
)

type searchResultMsg struct {
	ticket session.Ticket
	result recommend.Result
}

type toastExpiredMsg struct {
	seq int
}
