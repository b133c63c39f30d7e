package guide

import (
	"fmt"
	"strings"

	"github.com/csheth/readowl/internal/books"
)

// Step is one stage shown on the About view.
type Step struct {
	Title       string
	Description string
}

// Metadata carries the current search filters used to personalise the steps.
type Metadata struct {
	Query    string
	Category books.Category
	Tone     books.Tone
}

// Build walks through what happens to the user's own search, in five steps.
func Build(meta Metadata) []Step {
	query := strings.TrimSpace(meta.Query)
	if query == "" {
		query = "whatever you are in the mood for"
	} else {
		query = fmt.Sprintf("%q", query)
	}
	category := "any category"
	if meta.Category != "" && meta.Category != books.CategoryAll {
		category = string(meta.Category)
	}
	tone := "any mood"
	if meta.Tone != "" && meta.Tone != books.ToneAll {
		tone = "a " + strings.ToLower(string(meta.Tone)) + " mood"
	}

	return []Step{
		{
			Title:       "Describe it",
			Description: fmt.Sprintf("You ask for %s. Plain language works best: themes, settings, or a book you loved.", query),
		},
		{
			Title:       "Understand it",
			Description: "Your words are turned into a semantic vector with the same model that indexed every book description.",
		},
		{
			Title:       "Find neighbours",
			Description: "The closest descriptions are pulled from the vector store by cosine similarity.",
		},
		{
			Title:       "Filter the shelf",
			Description: fmt.Sprintf("Candidates are classified and kept when they match %s and %s.", category, tone),
		},
		{
			Title:       "Curate",
			Description: "Scores are blended into one ranking and the top books land on your shelf. Press w on any of them to keep it in My Library.",
		},
	}
}

var pipeline = []Step{
	{Title: "Data Ingestion", Description: "Load large-scale book metadata (descriptions, ISBNs, categories) into a single table for downstream processing."},
	{Title: "Data Pre-Processing", Description: "Clean descriptions, validate ISBNs, remove duplicates, and prepare the final text for embedding."},
	{Title: "Embedding Generation", Description: "Generate 384-dimensional semantic vectors with all-MiniLM-L6-v2 and L2-normalise them for stable cosine similarity."},
	{Title: "Vector Database Construction", Description: "Store ids, documents and embeddings in a persistent collection configured for cosine similarity."},
	{Title: "Query Understanding", Description: "Convert the natural-language query into a normalised vector with the same model used for ingestion."},
	{Title: "Semantic Retrieval", Description: "Run a cosine similarity search to retrieve the top-k most relevant books and their metadata."},
	{Title: "Zero-Shot Category Classification", Description: "Predict categories such as Fiction or Non-Fiction for each retrieved book with bart-large-mnli."},
	{Title: "Emotional Tone Analysis", Description: "Compute an emotion distribution (joy, sadness, fear, ...) per book and filter by the requested tone."},
	{Title: "Multi-Objective Ranking", Description: "Combine semantic similarity, category alignment and tone preference into one weighted score."},
	{Title: "Output Recommendation", Description: "Return the curated list with title, author and description, ready for the shelf."},
}

// Pipeline lists the stages of the recommendation service, in order.
func Pipeline() []Step {
	out := make([]Step, len(pipeline))
	copy(out, pipeline)
	return out
}
