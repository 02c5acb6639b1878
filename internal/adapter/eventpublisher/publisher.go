// Package eventpublisher relays winning commands to Kafka so downstream
// consumers (overlays, analytics, the game host itself) can react to
// outcomes without talking to the bot.
package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pscheid92/chatplays/internal/domain"
)

// OutcomePublisher implements domain.CycleObserver and publishes one message
// per winning command. Messages are keyed by command, so a consumer sees
// each command's outcomes in order.
type OutcomePublisher struct {
	domain.NopObserver
	writer *kafka.Writer
}

type outcomeEvent struct {
	Command    string    `json:"command"`
	TotalVotes int       `json:"total_votes"`
	DecidedAt  time.Time `json:"decided_at"`
}

func NewOutcomePublisher(brokers []string, topic string) *OutcomePublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  5,
		Compression:  kafka.Snappy,
	}
	return &OutcomePublisher{writer: writer}
}

// WinnerChosen publishes the outcome. Failures are logged and swallowed; a
// broker outage delays the cycle by at most the writer's timeout but never
// stops it.
func (p *OutcomePublisher) WinnerChosen(ctx context.Context, outcome domain.Outcome) {
	payload, err := json.Marshal(outcomeEvent{
		Command:    outcome.Command,
		TotalVotes: outcome.TotalVotes,
		DecidedAt:  outcome.DecidedAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal outcome event", "command", outcome.Command, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(outcome.Command),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish outcome", "command", outcome.Command, "error", err)
	}
}

func (p *OutcomePublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
