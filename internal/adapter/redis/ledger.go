// Package redis persists the vote ledger in a Redis stream, so votes survive
// bot restarts within a window and several intake processes can feed one
// ledger. Entry IDs are server-assigned, which makes the stream time-ordered
// by construction; expiry is a server-side trim against the window cutoff.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/chatplays/internal/domain"
)

// voteStreamTTL caps how long an idle stream key lives. It only has to
// outlast the voting window; every Record pushes it out again.
const voteStreamTTL = 10 * time.Minute

// VoteLedger implements domain.VoteStore on a Redis stream. The window
// cutoff is computed from wall clock time because stream entry IDs carry the
// Redis server's milliseconds.
type VoteLedger struct {
	rdb      *goredis.Client
	commands domain.CommandSet
	window   time.Duration
	key      string
}

func NewVoteLedger(rdb *goredis.Client, commands domain.CommandSet, window time.Duration, channel string) *VoteLedger {
	return &VoteLedger{
		rdb:      rdb,
		commands: commands,
		window:   window,
		key:      "votes:" + channel,
	}
}

func (l *VoteLedger) Record(ctx context.Context, command string) error {
	if !l.commands.Contains(command) {
		return nil
	}

	// Pipeline: XADD, EXPIRE
	pipe := l.rdb.TxPipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: l.key,
		Values: map[string]any{"command": command},
	})
	pipe.Expire(ctx, l.key, voteStreamTTL)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("record vote pipeline failed: %w", err)
	}
	return nil
}

func (l *VoteLedger) Snapshot(ctx context.Context) ([]domain.Vote, error) {
	minID := l.cutoffID()

	// Pipeline: XTRIM, XRANGE
	pipe := l.rdb.TxPipeline()
	pipe.XTrimMinID(ctx, l.key, minID)
	xrangeCmd := pipe.XRange(ctx, l.key, minID, "+")

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("snapshot pipeline failed: %w", err)
	}

	messages, err := xrangeCmd.Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("xrange result failed: %w", err)
	}

	votes := make([]domain.Vote, 0, len(messages))
	for _, msg := range messages {
		command, ok := msg.Values["command"].(string)
		if !ok {
			continue
		}
		castAt, ok := parseEntryTime(msg.ID)
		if !ok {
			continue
		}
		votes = append(votes, domain.Vote{Command: command, CastAt: castAt})
	}
	return votes, nil
}

func (l *VoteLedger) Clear(ctx context.Context) error {
	if err := l.rdb.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("failed to clear vote stream: %w", err)
	}
	return nil
}

func (l *VoteLedger) cutoffID() string {
	cutoff := time.Now().Add(-l.window).UnixMilli()
	return strconv.FormatInt(cutoff, 10)
}

// parseEntryTime extracts the milliseconds half of a stream entry ID
// ("1700000000000-0").
func parseEntryTime(id string) (time.Time, bool) {
	msPart, _, found := strings.Cut(id, "-")
	if !found {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(msPart, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
