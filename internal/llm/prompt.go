package llm

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/csheth/readowl/internal/books"
)

func buildRecommendPrompt(params books.SearchParams) string {
	category := string(params.Category)
	if params.Category == books.CategoryAll || category == "" {
		category = "Any Category"
	}
	tone := string(params.Tone)
	if params.Tone == books.ToneAll || tone == "" {
		tone = "Any Emotional Tone"
	}

	categories := make([]string, 0, len(books.Categories))
	for _, c := range books.Categories[1:] {
		categories = append(categories, string(c))
	}
	tones := make([]string, 0, len(books.Tones))
	for _, t := range books.Tones[1:] {
		tones = append(tones, string(t))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recommend %d real books based on the following criteria:\n", recommendationCount)
	fmt.Fprintf(&b, "Topic/Query: %q\n", strings.TrimSpace(params.Query))
	fmt.Fprintf(&b, "Category: %q\n", category)
	fmt.Fprintf(&b, "Emotional Tone: %q\n\n", tone)
	b.WriteString("Return a JSON array of books. Each book must have a title, author, a description ")
	b.WriteString("(a 2-3 sentence synopsis), ")
	fmt.Fprintf(&b, "category (one of: %s), ", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "tone (one of: %s), ", strings.Join(tones, ", "))
	b.WriteString("and a rating (1-5). Also provide a 'coverColor' hex code that matches the mood of the book.\n")
	b.WriteString("Respond with the JSON array only.")
	return b.String()
}

// extractJSONArray pulls the outermost JSON array out of a model reply, tolerating
// code fences and chatter around it. A {"books": [...]} wrapper is unwrapped.
func extractJSONArray(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty recommendation response")
	}

	candidates := []string{raw}
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}

	for _, candidate := range candidates {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &arr); err == nil {
			if len(arr) == 0 {
				return nil, fmt.Errorf("model returned no books")
			}
			return []byte(candidate), nil
		}
		var wrapper struct {
			Books []json.RawMessage `json:"books"`
		}
		if err := json.Unmarshal([]byte(candidate), &wrapper); err == nil && len(wrapper.Books) > 0 {
			return json.Marshal(wrapper.Books)
		}
	}
	return nil, fmt.Errorf("unable to parse recommendation payload")
}
