package domain

import "context"

// VoteStore abstracts vote ledger storage.
// In-memory implementation is used for single-process mode.
// Redis implementation lets intake and cycle run in separate processes.
//
// Implementations must keep votes time-ordered (append-only plus eviction
// from the front), must only ever hold commands from the configured
// CommandSet, and must make each operation atomic with respect to the
// others. No lock may be held beyond a single call, so recording is never
// blocked by whatever the caller does with a snapshot.
type VoteStore interface {
	// Record appends (command, now). Commands outside the configured set
	// are expected chat noise: they are silently filtered, never an error.
	Record(ctx context.Context, command string) error

	// Snapshot evicts votes older than the configured window, then returns
	// a copied, time-ordered view of what remains.
	Snapshot(ctx context.Context) ([]Vote, error)

	// Clear empties the ledger unconditionally.
	Clear(ctx context.Context) error
}
