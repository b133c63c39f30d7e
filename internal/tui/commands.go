package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/readowl/internal/session"
)

const toastDuration = 3 * time.Second

// searchJob runs one search for ticket. The recommend client never fails a
// search, so degraded results are reported through the result, not the job.
func searchJob(searcher session.Searcher, ticket session.Ticket) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		result := searcher.Search(ctx, ticket.Params)
		return searchResultMsg{ticket: ticket, result: result}, nil
	}
}

func expireToastCmd(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
