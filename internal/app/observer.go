package app

import (
	"context"
	"log/slog"

	"github.com/pscheid92/chatplays/internal/domain"
)

// LoggingObserver writes every cycle event to slog. The core stays silent;
// this is the default voice of the pipeline.
type LoggingObserver struct{}

func (LoggingObserver) VoteRecorded(ctx context.Context, command string) {
	slog.InfoContext(ctx, "Vote recorded", "command", command)
}

func (LoggingObserver) CycleTallied(ctx context.Context, tally domain.CycleTally) {
	slog.InfoContext(ctx, "Cycle tallied", "total_votes", tally.TotalVotes, "counts", tally.Counts)
}

func (LoggingObserver) WinnerChosen(ctx context.Context, outcome domain.Outcome) {
	slog.InfoContext(ctx, "Winner chosen", "command", outcome.Command, "total_votes", outcome.TotalVotes)
}

func (LoggingObserver) ActionFailed(ctx context.Context, command string, err error) {
	slog.ErrorContext(ctx, "Action failed", "command", command, "error", err)
}

type multiObserver []domain.CycleObserver

// CombineObservers fans events out to all given observers in order. Nils are
// skipped; with nothing left, a NopObserver is returned.
func CombineObservers(observers ...domain.CycleObserver) domain.CycleObserver {
	var kept multiObserver
	for _, o := range observers {
		if o != nil {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		return domain.NopObserver{}
	}
	return kept
}

func (m multiObserver) VoteRecorded(ctx context.Context, command string) {
	for _, o := range m {
		o.VoteRecorded(ctx, command)
	}
}

func (m multiObserver) CycleTallied(ctx context.Context, tally domain.CycleTally) {
	for _, o := range m {
		o.CycleTallied(ctx, tally)
	}
}

func (m multiObserver) WinnerChosen(ctx context.Context, outcome domain.Outcome) {
	for _, o := range m {
		o.WinnerChosen(ctx, outcome)
	}
}

func (m multiObserver) ActionFailed(ctx context.Context, command string, err error) {
	for _, o := range m {
		o.ActionFailed(ctx, command, err)
	}
}
