package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/csheth/readowl/internal/books"
)

type geminiOptions struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type geminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(ctx context.Context, opts geminiOptions) (*geminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:     opts.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.httpClient,
	}
	if opts.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(opts.baseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiClient{client: client, model: opts.model}, nil
}

func (c *geminiClient) Name() string {
	return fmt.Sprintf("Gemini (%s)", c.model)
}

func (c *geminiClient) Recommend(ctx context.Context, params books.SearchParams) ([]byte, error) {
	if !params.HasQuery() {
		return nil, fmt.Errorf("query cannot be empty")
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(buildRecommendPrompt(params)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   bookListSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return extractJSONArray(resp.Text())
}

func bookListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       {Type: genai.TypeString},
				"author":      {Type: genai.TypeString},
				"description": {Type: genai.TypeString, Description: "A 2-3 sentence synopsis of the book."},
				"category":    {Type: genai.TypeString},
				"tone":        {Type: genai.TypeString},
				"rating":      {Type: genai.TypeNumber},
				"coverColor":  {Type: genai.TypeString, Description: "A hex color code representing the book mood"},
			},
			Required: []string{"title", "author", "description", "category", "tone"},
		},
	}
}
