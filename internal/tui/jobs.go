package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/readowl/internal/logging"
)

type jobKind string

const jobKindSearch jobKind = "search"

type jobRunner func(context.Context) (tea.Msg, error)

// jobDoneMsg wraps whatever a background job produced. The model unwraps payload
// and feeds it back through Update.
type jobDoneMsg struct {
	id      string
	payload tea.Msg
	err     error
}

// jobBus runs blocking work off the update loop, each job bounded by timeout.
type jobBus struct {
	seq     atomic.Uint64
	timeout time.Duration
}

func newJobBus(timeout time.Duration) *jobBus {
	return &jobBus{timeout: timeout}
}

func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	id := fmt.Sprintf("%s-%d", kind, b.seq.Add(1))
	return func() tea.Msg {
		ctx := context.Background()
		if b.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		started := time.Now()
		payload, err := runner(ctx)
		logging.Debug().Str("job", id).Dur("duration", time.Since(started)).AnErr("error", err).Msg("job finished")
		return jobDoneMsg{id: id, payload: payload, err: err}
	}
}
