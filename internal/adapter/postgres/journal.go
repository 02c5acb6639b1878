package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/chatplays/internal/domain"
)

// OutcomeJournal keeps the history of winning commands. Unlike the vote
// ledger it is append-only; nothing in the voting cycle ever reads it.
type OutcomeJournal struct {
	pool *pgxpool.Pool
}

func NewOutcomeJournal(pool *pgxpool.Pool) *OutcomeJournal {
	return &OutcomeJournal{pool: pool}
}

func (j *OutcomeJournal) RecordOutcome(ctx context.Context, outcome domain.Outcome) error {
	_, err := j.pool.Exec(ctx,
		`INSERT INTO outcomes (id, command, total_votes, decided_at) VALUES ($1, $2, $3, $4)`,
		uuid.New(), outcome.Command, outcome.TotalVotes, outcome.DecidedAt)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// RecentOutcomes returns the latest winners, newest first.
func (j *OutcomeJournal) RecentOutcomes(ctx context.Context, limit int) ([]domain.Outcome, error) {
	rows, err := j.pool.Query(ctx,
		`SELECT command, total_votes, decided_at FROM outcomes ORDER BY decided_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.Outcome
	for rows.Next() {
		var o domain.Outcome
		if err := rows.Scan(&o.Command, &o.TotalVotes, &o.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outcomes: %w", err)
	}
	return outcomes, nil
}

// OutcomeObserver journals every winner the cycle picks. Journal failures
// are logged and swallowed so a database outage cannot stall the cycle.
type OutcomeObserver struct {
	domain.NopObserver
	journal *OutcomeJournal
}

func NewOutcomeObserver(journal *OutcomeJournal) *OutcomeObserver {
	return &OutcomeObserver{journal: journal}
}

func (o *OutcomeObserver) WinnerChosen(ctx context.Context, outcome domain.Outcome) {
	if err := o.journal.RecordOutcome(ctx, outcome); err != nil {
		slog.ErrorContext(ctx, "Failed to journal outcome", "command", outcome.Command, "error", err)
	}
}
