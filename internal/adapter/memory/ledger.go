// Package memory provides the in-memory vote ledger used in single-process
// mode.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/chatplays/internal/domain"
)

// VoteLedger holds recent votes in insertion order (oldest first) and evicts
// stale ones. Record is called from the intake path, Snapshot and Clear from
// the cycle goroutine; a mutex makes each operation atomic with respect to
// the others. No method holds the lock beyond its own call, so a slow
// consumer of a snapshot never blocks recording.
type VoteLedger struct {
	commands domain.CommandSet
	window   time.Duration
	clock    clockwork.Clock

	mu    sync.Mutex
	votes []domain.Vote
}

func NewVoteLedger(commands domain.CommandSet, window time.Duration, clock clockwork.Clock) *VoteLedger {
	return &VoteLedger{
		commands: commands,
		window:   window,
		clock:    clock,
	}
}

// Record appends (command, now) iff command is in the configured set.
// Unrecognized commands are expected chat noise and are silently filtered.
func (l *VoteLedger) Record(_ context.Context, command string) error {
	if !l.commands.Contains(command) {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.votes = append(l.votes, domain.Vote{Command: command, CastAt: l.clock.Now()})
	return nil
}

// EvictOlderThan removes all leading votes with CastAt before cutoff. Votes
// are time-ordered, so only the stale prefix is scanned; the walk stops at
// the first entry inside the window.
func (l *VoteLedger) EvictOlderThan(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictOlderThanLocked(cutoff)
}

func (l *VoteLedger) evictOlderThanLocked(cutoff time.Time) {
	stale := 0
	for stale < len(l.votes) && l.votes[stale].CastAt.Before(cutoff) {
		stale++
	}
	if stale > 0 {
		l.votes = l.votes[stale:]
	}
}

// Snapshot evicts votes older than the window, then returns a copy of what
// remains. Callers may hold or mutate the returned slice freely.
func (l *VoteLedger) Snapshot(_ context.Context) ([]domain.Vote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictOlderThanLocked(l.clock.Now().Add(-l.window))
	return slices.Clone(l.votes), nil
}

// Clear empties the ledger unconditionally.
func (l *VoteLedger) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.votes = nil
	return nil
}

// Len reports the current number of held votes, including any not yet
// evicted. Used by status reporting and tests.
func (l *VoteLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.votes)
}
