package books

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/csheth/readowl/internal/logging"
)

// ErrUnsupportedPayload is returned when a response is neither a list of rows, a
// columnar table, nor a service message.
var ErrUnsupportedPayload = errors.New("unsupported payload shape")

const (
	// PrefixService marks ids synthesised for recommendation-service rows.
	PrefixService = "local"
	// PrefixGenerated marks ids synthesised for generated rows.
	PrefixGenerated = "gen"
)

// Normalizer turns decoded recommendation payloads into Book records.
type Normalizer struct {
	IDPrefix string
	Now      func() time.Time
}

// NewNormalizer returns a Normalizer that synthesises ids with the given prefix.
func NewNormalizer(prefix string) *Normalizer {
	return &Normalizer{IDPrefix: prefix, Now: time.Now}
}

var defaultNormalizer = NewNormalizer(PrefixService)

// Normalize decodes raw with the service prefix.
func Normalize(raw []byte) ([]Book, error) {
	return defaultNormalizer.Normalize(raw)
}

// Normalize decodes raw JSON, keeping number literals intact, and normalises it.
func (n *Normalizer) Normalize(raw []byte) ([]Book, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnsupportedPayload, err)
	}
	return n.NormalizeValue(v)
}

// NormalizeValue dispatches on the shape of an already decoded payload.
func (n *Normalizer) NormalizeValue(v any) ([]Book, error) {
	switch payload := v.(type) {
	case []any:
		return n.normalizeRows(payload), nil
	case map[string]any:
		if msg, ok := payload["message"]; ok {
			logging.Warn().Str("message", stringValue(msg)).Msg("recommendation service returned a message instead of books")
			return []Book{}, nil
		}
		return n.normalizeRows(pivotColumns(payload)), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, v)
	}
}

func (n *Normalizer) normalizeRows(rows []any) []Book {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	prefix := n.IDPrefix
	if prefix == "" {
		prefix = PrefixService
	}
	stamp := now().UnixMilli()

	out := make([]Book, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for idx, row := range rows {
		fields, ok := row.(map[string]any)
		if !ok {
			logging.Debug().Int("row", idx).Str("type", fmt.Sprintf("%T", row)).Msg("skipping non-object row")
			continue
		}
		book := normalizeRow(fields)
		if book.ID == "" {
			book.ID = fmt.Sprintf("%s-%d-%d", prefix, idx, stamp)
		}
		book.ID = uniqueID(seen, book.ID, idx)
		seen[book.ID] = struct{}{}
		out = append(out, book)
	}
	return out
}

// uniqueID returns id, or id suffixed with the row index when it is taken. A
// suffixed id may itself collide with one the source sent, so a counter is
// appended until the id is free.
func uniqueID(seen map[string]struct{}, id string, idx int) string {
	if _, taken := seen[id]; !taken {
		return id
	}
	candidate := fmt.Sprintf("%s-%d", id, idx)
	for n := 1; ; n++ {
		if _, taken := seen[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d-%d", id, idx, n)
	}
}

func normalizeRow(fields map[string]any) Book {
	authors := authorList(fields)
	book := Book{
		ID:            idValue(fields["id"]),
		Title:         stringValue(fields["title"]),
		Authors:       authors,
		Author:        authorDisplay(authors),
		Description:   firstString(fields, "description", "synopsis"),
		Category:      categoryValue(fields),
		Tone:          stringValue(fields["tone"]),
		Rating:        ratingValue(fields),
		CoverURL:      firstString(fields, "coverUrl", "thumbnail"),
		CoverColor:    stringValue(fields["coverColor"]),
		PublishedYear: intValue(fields["published_year"]),
		RatingsCount:  intValue(fields["ratings_count"]),
	}
	if strings.TrimSpace(book.CoverColor) == "" {
		book.CoverColor = DefaultCoverColor
	}
	return book
}

// pivotColumns rebuilds row objects from a column-oriented table where every
// column maps a row index to a value.
func pivotColumns(table map[string]any) []any {
	columns := make(map[string]map[string]any, len(table))
	indexSet := make(map[string]struct{})
	for name, value := range table {
		col, ok := value.(map[string]any)
		if !ok {
			continue
		}
		columns[name] = col
		for key := range col {
			indexSet[key] = struct{}{}
		}
	}

	indices := make([]string, 0, len(indexSet))
	for key := range indexSet {
		indices = append(indices, key)
	}
	sortIndices(indices)

	rows := make([]any, 0, len(indices))
	for _, key := range indices {
		row := make(map[string]any, len(columns))
		for name, col := range columns {
			if value, ok := col[key]; ok {
				row[name] = value
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func sortIndices(keys []string) {
	numeric := make(map[string]int64, len(keys))
	for _, key := range keys {
		v, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			sort.Strings(keys)
			return
		}
		numeric[key] = v
	}
	sort.Slice(keys, func(i, j int) bool { return numeric[keys[i]] < numeric[keys[j]] })
}

func authorList(fields map[string]any) []string {
	var parts []string
	raw, ok := fields["authors"]
	if !ok || raw == nil {
		raw = fields["author"]
	}
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ";")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, strings.Split(s, ";")...)
			}
		}
	}

	authors := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	if len(authors) == 0 {
		return nil
	}
	return authors
}

func authorDisplay(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	default:
		return authors[0] + " and others"
	}
}

func categoryValue(fields map[string]any) string {
	if c := stringValue(fields["category"]); c != "" {
		return c
	}
	switch v := fields["categories"].(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func ratingValue(fields map[string]any) float64 {
	raw, ok := fields["rating"]
	if !ok || raw == nil {
		raw = fields["average_rating"]
	}
	return numberValue(raw)
}

// numberValue coerces JSON numbers and numeric strings. Everything else is 0.
func numberValue(v any) float64 {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func intValue(v any) int {
	return int(numberValue(v))
}

func idValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
		return x.String()
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	case bool:
		if !x {
			return ""
		}
		return "true"
	default:
		return ""
	}
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
