package main

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/csheth/readowl/internal/config"
	"github.com/csheth/readowl/internal/llm"
	"github.com/csheth/readowl/internal/logging"
	"github.com/csheth/readowl/internal/recommend"
	"github.com/csheth/readowl/internal/session"
	"github.com/csheth/readowl/internal/tui"
)

// rootOptions are the flags shared by every command. Empty values leave the
// loaded configuration alone.
type rootOptions struct {
	configFile  string
	serviceURL  string
	llmProvider string
	llmModel    string
	noAltScreen bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "readowl",
		Short: "Find books that fit your mood, from the terminal",
		Long: `Readowl asks a recommendation service for books matching a free-text
description, a category and an emotional tone, and lets you browse the results,
open details and keep a wishlist for the session.

When the service is unreachable Readowl can ask a language model instead
(--llm-provider) and otherwise shows a few staff picks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.serviceURL, "service-url", "", "recommendation service base URL (eg. http://localhost:8000)")
	flags.StringVar(&opts.llmProvider, "llm-provider", "", "generative fallback: none, gemini, ollama or openai")
	flags.StringVar(&opts.llmModel, "llm-model", "", "override the provider's default model")
	cmd.Flags().BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	cmd.AddCommand(newSearchCmd(opts))
	return cmd
}

// load reads config files and the environment, then applies flags on top.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: o.configFile})
	if err != nil {
		return nil, err
	}
	if o.serviceURL != "" {
		cfg.Service.URL = o.serviceURL
	}
	if o.llmProvider != "" {
		cfg.LLM.Provider = o.llmProvider
	}
	if o.llmModel != "" {
		cfg.LLM.Model = o.llmModel
	}
	if o.noAltScreen {
		cfg.UI.AltScreen = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runInteractive(cmd *cobra.Command, opts *rootOptions) error {
	cfg := opts.cfg

	var logOut io.Writer = io.Discard
	if cfg.Logging.File != "" {
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "logging disabled:", err)
		} else {
			defer f.Close()
			logOut = f
		}
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: logOut})

	client, err := newRecommendClient(cfg)
	if err != nil {
		return err
	}

	sess := session.New()
	logging.Info().Str("session", sess.ID()).Str("service", client.RequestURL(sess.Params())).
		Str("generator", client.GeneratorName()).Msg("starting interactive session")

	programOpts := []tea.ProgramOption{tea.WithContext(cmd.Context())}
	if cfg.UI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.New(tui.Config{
		Session:       sess,
		Searcher:      client,
		ShelfPreview:  cfg.UI.ShelfPreview,
		Generator:     client.GeneratorName(),
		SearchTimeout: cfg.Service.Timeout + cfg.Service.Timeout/2,
	}), programOpts...)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// newRecommendClient wires the service client and, when configured, the
// generative fallback. A missing provider is not an error.
func newRecommendClient(cfg *config.Config) (*recommend.Client, error) {
	generator, err := llm.NewFromEnv(llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		Endpoint: cfg.LLM.Endpoint,
		APIKey:   cfg.LLM.APIKey,
	})
	switch {
	case errors.Is(err, llm.ErrNoProvider):
		logging.Debug().Str("provider", cfg.LLM.Provider).Msg("generative fallback disabled")
	case err != nil:
		logging.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("generative fallback unavailable")
	}

	client, err := recommend.New(recommend.Config{
		BaseURL:          cfg.Service.URL,
		Path:             cfg.Service.Path,
		Timeout:          cfg.Service.Timeout,
		Generator:        generator,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("recommendation client: %w", err)
	}
	return client, nil
}
