package domain

import (
	"context"
	"time"
)

// CycleTally summarizes one tally pass over a window snapshot.
type CycleTally struct {
	Counts     map[string]int
	TotalVotes int
}

// Outcome is a decided cycle: the winning command and the vote total that
// carried it.
type Outcome struct {
	Command    string
	TotalVotes int
	DecidedAt  time.Time
}

// CycleObserver receives structured events from the voting pipeline. The
// core never prints; logging, metrics, journaling and relays all hang off
// this interface. Implementations must be fast or hand off internally -
// VoteRecorded sits on the intake path.
type CycleObserver interface {
	VoteRecorded(ctx context.Context, command string)
	CycleTallied(ctx context.Context, tally CycleTally)
	WinnerChosen(ctx context.Context, outcome Outcome)
	ActionFailed(ctx context.Context, command string, err error)
}

// NopObserver ignores all events. Embed it to implement only part of
// CycleObserver.
type NopObserver struct{}

func (NopObserver) VoteRecorded(context.Context, string)        {}
func (NopObserver) CycleTallied(context.Context, CycleTally)    {}
func (NopObserver) WinnerChosen(context.Context, Outcome)       {}
func (NopObserver) ActionFailed(context.Context, string, error) {}
