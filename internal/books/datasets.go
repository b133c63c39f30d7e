package books

import "fmt"

var fallbackBooks = []Book{
	{
		ID:          "1",
		Title:       "The Hidden Life of Trees",
		Author:      "Peter Wohlleben",
		Authors:     []string{"Peter Wohlleben"},
		Description: "In this illuminating work, Peter Wohlleben draws on groundbreaking scientific discoveries to reveal the amazing social network of the forest. He describes how trees communicate, care for their sick, and support one another in a way that will change how you see nature forever.",
		Category:    string(CategoryNonFiction),
		Tone:        string(ToneHappy),
		Rating:      4.8,
		CoverColor:  "#2d6a4f",
		CoverURL:    "https://images.unsplash.com/photo-1542273917363-3b1817f69a2d?auto=format&fit=crop&q=80&w=600",
	},
	{
		ID:          "2",
		Title:       "The Great Alone",
		Author:      "Kristin Hannah",
		Authors:     []string{"Kristin Hannah"},
		Description: "In the wild, unpredictable landscape of 1970s Alaska, a family seeks a new beginning only to find that the dangers outside are nothing compared to the turmoil within their own cabin. As winter tightens its grip, thirteen-year-old Leni must learn that love can be both a salvation and a trap in this harrowing tale of survival.",
		Category:    string(CategoryFiction),
		Tone:        string(ToneSuspenseful),
		Rating:      4.6,
		CoverColor:  "#1d3557",
		CoverURL:    "https://images.unsplash.com/photo-1478131143081-80f7f84ca84d?auto=format&fit=crop&q=80&w=600",
	},
	{
		ID:          "3",
		Title:       "Where the Wild Things Are",
		Author:      "Maurice Sendak",
		Authors:     []string{"Maurice Sendak"},
		Description: "Max, a wild and naughty boy, is sent to bed without his supper by his exhausted mother. In his room, a mysterious, wild forest grows out of his imagination, and Max sails across the sea to become King of the Wild Things.",
		Category:    string(CategoryChildrensFiction),
		Tone:        string(ToneSurprising),
		Rating:      4.9,
		CoverColor:  "#e63946",
		CoverURL:    "https://images.unsplash.com/photo-1628498804332-90a6183e8787?auto=format&fit=crop&q=80&w=600",
	},
}

var trendingBooks = []Book{
	{
		ID:          "init-1",
		Title:       "The Midnight Library",
		Author:      "Matt Haig",
		Authors:     []string{"Matt Haig"},
		Description: "Between life and death there is a library, and within that library, the shelves go on forever. Every book provides a chance to try another life you could have lived.",
		Category:    string(CategoryFiction),
		Tone:        string(ToneHappy),
		Rating:      4.5,
		CoverColor:  "#2a9d8f",
		CoverURL:    "https://images.unsplash.com/photo-1544947950-fa07a98d237f?auto=format&fit=crop&q=80&w=400",
	},
	{
		ID:          "init-2",
		Title:       "Atomic Habits",
		Author:      "James Clear",
		Authors:     []string{"James Clear"},
		Description: "No matter your goals, Atomic Habits offers a proven framework for improving--every day.",
		Category:    string(CategoryNonFiction),
		Tone:        string(ToneHappy),
		Rating:      4.9,
		CoverColor:  "#e9c46a",
		CoverURL:    "https://images.unsplash.com/photo-1589829085413-56de8ae18c73?auto=format&fit=crop&q=80&w=400",
	},
	{
		ID:          "init-3",
		Title:       "Project Hail Mary",
		Author:      "Andy Weir",
		Authors:     []string{"Andy Weir"},
		Description: "Ryland Grace is the sole survivor on a desperate, last-chance mission, and if he fails, humanity and the earth itself will perish.",
		Category:    string(CategoryFiction),
		Tone:        string(ToneSuspenseful),
		Rating:      4.8,
		CoverColor:  "#264653",
		CoverURL:    "https://images.unsplash.com/photo-1614726365723-49cfae92782f?auto=format&fit=crop&q=80&w=400",
	},
	{
		ID:          "init-4",
		Title:       "Sapiens",
		Author:      "Yuval Noah Harari",
		Authors:     []string{"Yuval Noah Harari"},
		Description: "From a renowned historian comes a groundbreaking narrative of humanity's creation and evolution.",
		Category:    string(CategoryNonFiction),
		Tone:        string(ToneSurprising),
		Rating:      4.7,
		CoverColor:  "#f4a261",
		CoverURL:    "https://images.unsplash.com/photo-1555252333-9f8e92e65df9?auto=format&fit=crop&q=80&w=400",
	},
	{
		ID:          "init-5",
		Title:       "Educated",
		Author:      "Tara Westover",
		Authors:     []string{"Tara Westover"},
		Description: "Born to survivalists in the mountains of Idaho, Tara Westover was seventeen the first time she set foot in a classroom.",
		Category:    string(CategoryNonFiction),
		Tone:        string(ToneSad),
		Rating:      4.6,
		CoverColor:  "#e76f51",
		CoverURL:    "https://images.unsplash.com/photo-1476275466078-4007374efbbe?auto=format&fit=crop&q=80&w=400",
	},
}

// Fallback returns the fixed shelf shown when no live recommendations are available.
func Fallback() []Book { return Clone(fallbackBooks) }

// Trending returns the "Trending Now" shelf.
func Trending() []Book { return Clone(trendingBooks) }

// Classics returns the "Timeless Classics" shelf: the trending list reversed, with
// its own ids so the two shelves never share a record.
func Classics() []Book {
	out := make([]Book, 0, len(trendingBooks))
	for i := len(trendingBooks) - 1; i >= 0; i-- {
		b := cloneBook(trendingBooks[i])
		b.ID = fmt.Sprintf("classic-%d", len(out))
		out = append(out, b)
	}
	return out
}

// Clone deep-copies a book list.
func Clone(list []Book) []Book {
	if list == nil {
		return nil
	}
	out := make([]Book, len(list))
	for i, b := range list {
		out[i] = cloneBook(b)
	}
	return out
}

func cloneBook(b Book) Book {
	if b.Authors != nil {
		b.Authors = append([]string(nil), b.Authors...)
	}
	return b
}

// IndexOf returns the position of the book with id in list, or -1.
func IndexOf(list []Book, id string) int {
	for i, b := range list {
		if b.ID == id {
			return i
		}
	}
	return -1
}
