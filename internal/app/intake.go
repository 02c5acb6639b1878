package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pscheid92/chatplays/internal/domain"
)

// Intake is the gateway between raw chat messages and the vote ledger. It
// knows nothing about transports: IRC and EventSub adapters both deliver
// (sender, text) pairs here.
type Intake struct {
	store    domain.VoteStore
	commands domain.CommandSet
	prefix   string
	selfID   string
	observer domain.CycleObserver
}

// NewIntake creates the gateway. selfID is the bot's own sender identity
// (login in IRC mode, user id in EventSub mode); messages from it are
// dropped so the bot never votes on its own output. Empty selfID disables
// the check. observer may be nil.
func NewIntake(store domain.VoteStore, commands domain.CommandSet, prefix, selfID string, observer domain.CycleObserver) *Intake {
	if observer == nil {
		observer = domain.NopObserver{}
	}
	return &Intake{
		store:    store,
		commands: commands,
		prefix:   prefix,
		selfID:   selfID,
		observer: observer,
	}
}

// HandleMessage validates one chat message and records a vote when it names
// a recognized command: trim, match the prefix, strip it, lower-case, check
// membership. Anything else is chat noise and is ignored without error.
// Never blocks beyond the ledger's per-operation lock.
func (i *Intake) HandleMessage(ctx context.Context, sender, text string) {
	if i.selfID != "" && strings.EqualFold(sender, i.selfID) {
		return
	}

	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, i.prefix) {
		return
	}

	command := strings.ToLower(strings.TrimPrefix(trimmed, i.prefix))
	if !i.commands.Contains(command) {
		return
	}

	if err := i.store.Record(ctx, command); err != nil {
		// A storage error drops this vote only.
		slog.WarnContext(ctx, "Failed to record vote", "command", command, "error", err)
		return
	}

	i.observer.VoteRecorded(ctx, command)
	slog.DebugContext(ctx, "Vote recorded", "command", command)
}
