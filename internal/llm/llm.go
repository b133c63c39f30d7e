package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/csheth/readowl/internal/books"
)

const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOllamaModel = "ministral-3:latest"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOpenAIBase  = "https://api.openai.com/v1"
	defaultOllamaHost  = "http://localhost:11434"

	// recommendationCount is how many books the model is asked for.
	recommendationCount = 10
)

const defaultLLMHTTPTimeout = 3 * time.Minute

// ErrNoProvider is returned when no generative recommender is configured.
var ErrNoProvider = errors.New("no generative provider configured")

// Config describes how to build an LLM client.
type Config struct {
	Provider   string
	Model      string
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// Client asks a language model for book recommendations. Recommend returns the raw
// JSON array so callers can run it through the same normaliser as service output.
type Client interface {
	Recommend(ctx context.Context, params books.SearchParams) ([]byte, error)
	Name() string
}

// NewFromEnv builds the configured client, filling gaps from the environment.
func NewFromEnv(cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderNone:
		return nil, ErrNoProvider
	case ProviderGemini:
		key := firstNonEmpty(cfg.APIKey, os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("%w: gemini requires an API key", ErrNoProvider)
		}
		client, err := newGeminiClient(context.Background(), geminiOptions{
			apiKey:     key,
			model:      firstNonEmpty(cfg.Model, os.Getenv("GEMINI_MODEL"), defaultGeminiModel),
			baseURL:    cfg.Endpoint,
			httpClient: pickHTTPClient(cfg.HTTPClient),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderOllama:
		host := firstNonEmpty(cfg.Endpoint, os.Getenv("OLLAMA_HOST"), defaultOllamaHost)
		return &ollamaClient{
			host:   strings.TrimRight(host, "/"),
			model:  firstNonEmpty(cfg.Model, os.Getenv("OLLAMA_MODEL"), defaultOllamaModel),
			client: pickHTTPClient(cfg.HTTPClient),
		}, nil
	case ProviderOpenAI:
		key := firstNonEmpty(cfg.APIKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("%w: openai requires an API key", ErrNoProvider)
		}
		base := firstNonEmpty(cfg.Endpoint, os.Getenv("OPENAI_BASE_URL"), defaultOpenAIBase)
		return &openAIClient{
			apiKey: key,
			model:  firstNonEmpty(cfg.Model, os.Getenv("OPENAI_MODEL"), defaultOpenAIModel),
			base:   strings.TrimRight(base, "/"),
			client: pickHTTPClient(cfg.HTTPClient),
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Local models can take minutes; the caller's context handles cancellation.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
