package books

import (
	"strings"
	"unicode/utf8"
)

// Book is the canonical record rendered on every shelf.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Authors       []string `json:"authors,omitempty"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Tone          string   `json:"tone"`
	Rating        float64  `json:"rating"`
	CoverURL      string   `json:"coverUrl,omitempty"`
	CoverColor    string   `json:"coverColor"`
	PublishedYear int      `json:"publishedYear,omitempty"`
	RatingsCount  int      `json:"ratingsCount,omitempty"`
}

// DefaultCoverColor paints covers that arrive without an image or colour.
const DefaultCoverColor = "#333333"

// CoverInitial returns the letter drawn on a generated colour-block cover.
func (b Book) CoverInitial() string {
	title := strings.TrimSpace(b.Title)
	if title == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(title)
	return strings.ToUpper(string(r))
}

// HasCoverImage reports whether the renderer should prefer the image URL.
func (b Book) HasCoverImage() bool {
	return strings.TrimSpace(b.CoverURL) != ""
}

// Category is the coarse classification used by the search filter.
type Category string

const (
	CategoryAll                 Category = "All"
	CategoryFiction             Category = "Fiction"
	CategoryNonFiction          Category = "Non-Fiction"
	CategoryChildrensFiction    Category = "Children's Fiction"
	CategoryChildrensNonFiction Category = "Children's Non-Fiction"
)

// Categories lists the filter vocabulary in selector order.
var Categories = []Category{
	CategoryAll,
	CategoryFiction,
	CategoryNonFiction,
	CategoryChildrensFiction,
	CategoryChildrensNonFiction,
}

var categoryIcons = map[Category]string{
	CategoryAll:                 "📚",
	CategoryFiction:             "📖",
	CategoryNonFiction:          "🧠",
	CategoryChildrensFiction:    "🦄",
	CategoryChildrensNonFiction: "🦖",
}

// Icon returns the glyph shown next to the category in the selector.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryAll]
}

// Next cycles forward through Categories.
func (c Category) Next() Category { return cycle(Categories, c, 1) }

// Prev cycles backward through Categories.
func (c Category) Prev() Category { return cycle(Categories, c, -1) }

// ParseCategory accepts wire values and identifier spellings such as "nonfiction"
// or "childrens-fiction".
func ParseCategory(value string) (Category, bool) {
	key := vocabularyKey(value)
	for _, c := range Categories {
		if vocabularyKey(string(c)) == key {
			return c, true
		}
	}
	return CategoryAll, false
}

// Tone is the emotional-tone filter.
type Tone string

const (
	ToneAll         Tone = "All"
	ToneHappy       Tone = "Happy"
	ToneSurprising  Tone = "Surprising"
	ToneAngry       Tone = "Angry"
	ToneSuspenseful Tone = "Suspenseful"
	ToneSad         Tone = "Sad"
)

// Tones lists the tone vocabulary in selector order.
var Tones = []Tone{
	ToneAll,
	ToneHappy,
	ToneSurprising,
	ToneAngry,
	ToneSuspenseful,
	ToneSad,
}

var toneEmojis = map[Tone]string{
	ToneAll:         "✨",
	ToneHappy:       "😊",
	ToneSurprising:  "😲",
	ToneAngry:       "😠",
	ToneSuspenseful: "😱",
	ToneSad:         "😢",
}

// Emoji returns the glyph shown next to the tone in the selector.
func (t Tone) Emoji() string {
	if emoji, ok := toneEmojis[t]; ok {
		return emoji
	}
	return toneEmojis[ToneAll]
}

// Next cycles forward through Tones.
func (t Tone) Next() Tone { return cycle(Tones, t, 1) }

// Prev cycles backward through Tones.
func (t Tone) Prev() Tone { return cycle(Tones, t, -1) }

// ParseTone accepts tone names case-insensitively.
func ParseTone(value string) (Tone, bool) {
	key := vocabularyKey(value)
	for _, t := range Tones {
		if vocabularyKey(string(t)) == key {
			return t, true
		}
	}
	return ToneAll, false
}

// SearchParams carries the three filter fields sent to the recommendation service.
type SearchParams struct {
	Query    string   `json:"query"`
	Category Category `json:"category"`
	Tone     Tone     `json:"tone"`
}

// DefaultParams is the state of the search form at session start.
func DefaultParams() SearchParams {
	return SearchParams{Category: CategoryAll, Tone: ToneAll}
}

// HasQuery reports whether the free-text query contains anything searchable.
func (p SearchParams) HasQuery() bool {
	return strings.TrimSpace(p.Query) != ""
}

func cycle[T comparable](values []T, current T, delta int) T {
	idx := 0
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	n := len(values)
	return values[((idx+delta)%n+n)%n]
}

func vocabularyKey(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
