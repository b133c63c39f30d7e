package recommend

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/csheth/readowl/internal/books"
	"github.com/csheth/readowl/internal/logging"
)

func TestMain(m *testing.M) {
	// The genai dependency pulls in opencensus, whose init starts a stats worker
	// that never exits.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeGenerator struct {
	raw   []byte
	err   error
	calls atomic.Int32
}

func (f *fakeGenerator) Recommend(ctx context.Context, params books.SearchParams) ([]byte, error) {
	f.calls.Add(1)
	return f.raw, f.err
}

func (f *fakeGenerator) Name() string { return "fake" }

func newTestClient(t *testing.T, server *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = server.URL
	cfg.HTTPClient = server.Client()
	t.Cleanup(func() {
		server.Close()
		cfg.HTTPClient.CloseIdleConnections()
	})
	client, err := New(cfg)
	require.NoError(t, err)
	return client
}

func TestSearchSendsParamsAndNormalizesColumnarPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/get_books", r.URL.Path)
		assert.Equal(t, "ocean stories", r.URL.Query().Get("query"))
		assert.Equal(t, "All", r.URL.Query().Get("category"))
		assert.Equal(t, "Sad", r.URL.Query().Get("tone"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":{"0":"Moby-Dick","1":"The Old Man and the Sea"},"authors":{"0":"Herman Melville","1":"Ernest Hemingway"},"average_rating":{"0":3.5,"1":3.8}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{})
	params := books.SearchParams{Query: "ocean stories", Category: books.CategoryAll, Tone: books.ToneSad}
	result := client.Search(context.Background(), params)

	require.NoError(t, result.Err)
	assert.Equal(t, SourceService, result.Source)
	require.Len(t, result.Books, 2)
	assert.Equal(t, "Moby-Dick", result.Books[0].Title)
	assert.Equal(t, "Ernest Hemingway", result.Books[1].Author)
	assert.Equal(t, 3.8, result.Books[1].Rating)
	assert.True(t, strings.HasPrefix(result.Books[0].ID, "local-0-"))
	assert.Equal(t, books.SearchParams{Query: "ocean stories", Category: books.CategoryAll, Tone: books.ToneSad}, params)
}

func TestSearchMessagePayloadIsEmptyNotFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"No books match"}`))
	}))
	defer server.Close()

	result := newTestClient(t, server, Config{}).Search(context.Background(), books.SearchParams{Query: "zzz"})
	require.NoError(t, result.Err)
	assert.Equal(t, SourceService, result.Source)
	assert.Empty(t, result.Books)
}

func TestSearchNon2xxFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 2048), http.StatusInternalServerError)
	}))
	defer server.Close()

	result := newTestClient(t, server, Config{}).Search(context.Background(), books.SearchParams{Query: "trees"})
	assert.Equal(t, SourceFallback, result.Source)
	assert.Equal(t, books.Fallback(), result.Books)

	var statusErr *StatusError
	require.True(t, errors.As(result.Err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.LessOrEqual(t, len(statusErr.Body), maxErrorBody)
}

func TestSearchInvalidPayloadFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"not books"`))
	}))
	defer server.Close()

	result := newTestClient(t, server, Config{}).Search(context.Background(), books.SearchParams{Query: "trees"})
	assert.Equal(t, SourceFallback, result.Source)
	assert.ErrorIs(t, result.Err, books.ErrUnsupportedPayload)
	assert.Len(t, result.Books, 3)
}

func TestSearchTransportFailureFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server, Config{})
	server.Close()

	result := client.Search(context.Background(), books.SearchParams{Query: "trees"})
	assert.Equal(t, SourceFallback, result.Source)
	assert.Error(t, result.Err)
	assert.Len(t, result.Books, 3)
}

func TestSearchUsesGeneratorWhenServiceFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gen := &fakeGenerator{raw: []byte(`[{"title":"Piranesi","author":"Susanna Clarke","rating":4.4}]`)}
	result := newTestClient(t, server, Config{Generator: gen}).Search(context.Background(), books.SearchParams{Query: "labyrinth"})

	assert.Equal(t, SourceGenerated, result.Source)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "Piranesi", result.Books[0].Title)
	assert.True(t, strings.HasPrefix(result.Books[0].ID, "gen-0-"))
	assert.Error(t, result.Err)
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestSearchGeneratorFailureFallsBackToFixedShelf(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	for _, gen := range []*fakeGenerator{
		{err: errors.New("quota exceeded")},
		{raw: []byte(`[]`)},
		{raw: []byte(`nonsense`)},
	} {
		result := newTestClient(t, server, Config{Generator: gen}).Search(context.Background(), books.SearchParams{Query: "q"})
		assert.Equal(t, SourceFallback, result.Source)
		assert.Len(t, result.Books, 3)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{FailureThreshold: 2, OpenTimeout: time.Minute})
	for i := 0; i < 2; i++ {
		client.Search(context.Background(), books.SearchParams{Query: "q"})
	}
	require.Equal(t, gobreaker.StateOpen.String(), client.BreakerState())

	result := client.Search(context.Background(), books.SearchParams{Query: "q"})
	assert.Equal(t, SourceFallback, result.Source)
	assert.ErrorIs(t, result.Err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 2, hits.Load(), "open breaker must skip the network")
}

func TestBreakerTransitionsLogAfterLateInit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	client := newTestClient(t, server, Config{FailureThreshold: 1, OpenTimeout: time.Minute})

	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{Level: "disabled", Output: &bytes.Buffer{}}) })

	client.Search(context.Background(), books.SearchParams{Query: "q"})
	require.Equal(t, gobreaker.StateOpen.String(), client.BreakerState())
	assert.Contains(t, buf.String(), "circuit breaker state changed")
	assert.Contains(t, buf.String(), `"to":"open"`)
}

func TestRequestURLEncodesVerbatimValues(t *testing.T) {
	client, err := New(Config{BaseURL: "http://books.local:9000/"})
	require.NoError(t, err)

	got := client.RequestURL(books.SearchParams{Query: "dragons & knights", Category: books.CategoryChildrensFiction, Tone: books.ToneAll})
	assert.Equal(t, "http://books.local:9000/api/get_books?category=Children%27s+Fiction&query=dragons+%26+knights&tone=All", got)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://books.local"})
	assert.Error(t, err)
}
