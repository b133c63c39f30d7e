package llm

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/csheth/readowl/internal/books"
)

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom); got != custom {
		t.Fatalf("expected custom client to be returned")
	}
}

func TestPickHTTPClientUsesLongerTimeout(t *testing.T) {
	client := pickHTTPClient(nil)
	if client.Timeout != defaultLLMHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultLLMHTTPTimeout, client.Timeout)
	}
}

func TestNewFromEnvWithoutProvider(t *testing.T) {
	for _, provider := range []string{"", "none", " NONE "} {
		if _, err := NewFromEnv(Config{Provider: provider}); !errors.Is(err, ErrNoProvider) {
			t.Fatalf("provider %q: expected ErrNoProvider, got %v", provider, err)
		}
	}
}

func TestNewFromEnvGeminiNeedsKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	if _, err := NewFromEnv(Config{Provider: "gemini"}); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider without key, got %v", err)
	}
}

func TestNewFromEnvOllamaDefaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434/")
	t.Setenv("OLLAMA_MODEL", "")
	client, err := NewFromEnv(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	oc, ok := client.(*ollamaClient)
	if !ok {
		t.Fatalf("expected *ollamaClient, got %T", client)
	}
	if oc.host != "http://ollama.internal:11434" {
		t.Fatalf("unexpected host %q", oc.host)
	}
	if oc.model != defaultOllamaModel {
		t.Fatalf("unexpected model %q", oc.model)
	}
}

func TestNewFromEnvOpenAIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := NewFromEnv(Config{Provider: "openai", Model: "gpt-test"})
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if client.Name() != "OpenAI (gpt-test)" {
		t.Fatalf("unexpected name %q", client.Name())
	}
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	if _, err := NewFromEnv(Config{Provider: "claude-on-a-toaster"}); err == nil || errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestBuildRecommendPromptAnyFilters(t *testing.T) {
	prompt := buildRecommendPrompt(books.SearchParams{Query: " space opera ", Category: books.CategoryAll, Tone: books.ToneAll})
	for _, want := range []string{`Topic/Query: "space opera"`, `Category: "Any Category"`, `Emotional Tone: "Any Emotional Tone"`, "coverColor"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildRecommendPromptSpecificFilters(t *testing.T) {
	prompt := buildRecommendPrompt(books.SearchParams{Query: "dinosaurs", Category: books.CategoryChildrensNonFiction, Tone: books.ToneHappy})
	if !strings.Contains(prompt, `Category: "Children's Non-Fiction"`) || !strings.Contains(prompt, `Emotional Tone: "Happy"`) {
		t.Fatalf("prompt missing filters:\n%s", prompt)
	}
}

func TestExtractJSONArray(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare", raw: `[{"title":"A"}]`, want: `[{"title":"A"}]`},
		{name: "fenced", raw: "```json\n[{\"title\":\"A\"}]\n```", want: `[{"title":"A"}]`},
		{name: "wrapped", raw: `{"books":[{"title":"A"}]}`, want: `[{"title":"A"}]`},
		{name: "empty array", raw: `[]`, wantErr: true},
		{name: "blank", raw: "  ", wantErr: true},
		{name: "prose", raw: "I could not find any books.", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractJSONArray(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractJSONArray: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}
