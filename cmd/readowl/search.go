package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/csheth/readowl/internal/books"
	"github.com/csheth/readowl/internal/logging"
	"github.com/csheth/readowl/internal/recommend"
	"github.com/csheth/readowl/internal/session"
)

type searchOptions struct {
	category string
	tone     string
	asJSON   bool
}

// searchOutput is the --json document.
type searchOutput struct {
	Query    string       `json:"query"`
	Category string       `json:"category"`
	Tone     string       `json:"tone"`
	Source   string       `json:"source"`
	Error    string       `json:"error,omitempty"`
	Books    []books.Book `json:"books"`
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Run one search and print the recommendations",
		Example: `  readowl search a cosy mystery set by the sea
  readowl search dragons --category "Children's Fiction" --tone Happy --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.category, "category", string(books.CategoryAll), "category filter: "+vocabulary(books.Categories))
	cmd.Flags().StringVar(&opts.tone, "tone", string(books.ToneAll), "emotional tone filter: "+vocabulary(books.Tones))
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts *searchOptions, query string) error {
	cfg := root.cfg
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Output: cmd.ErrOrStderr()})

	category, ok := books.ParseCategory(opts.category)
	if !ok {
		return fmt.Errorf("unknown category %q (want one of %s)", opts.category, vocabulary(books.Categories))
	}
	tone, ok := books.ParseTone(opts.tone)
	if !ok {
		return fmt.Errorf("unknown tone %q (want one of %s)", opts.tone, vocabulary(books.Tones))
	}

	client, err := newRecommendClient(cfg)
	if err != nil {
		return err
	}

	sess := session.New()
	sess.SetParams(books.SearchParams{Query: query, Category: category, Tone: tone})
	if err := sess.RunSearch(cmd.Context(), client); err != nil {
		return err
	}
	source, searchErr := sess.LastSource()
	results := sess.Results()
	logging.Info().Str("session", sess.ID()).Str("source", string(source)).Int("count", len(results)).Msg("search completed")

	if opts.asJSON {
		return writeJSON(cmd.OutOrStdout(), sess.Params(), source, searchErr, results)
	}
	return writeTable(cmd.OutOrStdout(), source, results)
}

func writeJSON(w io.Writer, params books.SearchParams, source recommend.Source, searchErr error, results []books.Book) error {
	out := searchOutput{
		Query:    params.Query,
		Category: string(params.Category),
		Tone:     string(params.Tone),
		Source:   string(source),
		Books:    results,
	}
	if searchErr != nil {
		out.Error = searchErr.Error()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeTable(w io.Writer, source recommend.Source, results []books.Book) error {
	switch {
	case len(results) == 0:
		_, err := fmt.Fprintln(w, "No books found.")
		return err
	case source == recommend.SourceFallback:
		fmt.Fprintln(w, "The recommendation service is unavailable, so here are a few staff picks.")
	case source == recommend.SourceGenerated:
		fmt.Fprintln(w, "Generated while the recommendation service is unavailable.")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tAUTHOR\tCATEGORY\tRATING")
	for i, b := range results {
		author := b.Author
		if author == "" {
			author = "Unknown author"
		}
		rating := "-"
		if b.Rating > 0 {
			rating = fmt.Sprintf("%.1f", b.Rating)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, b.Title, author, b.Category, rating)
	}
	return tw.Flush()
}

func vocabulary[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
