package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func votesAt(base time.Time, commands ...string) []Vote {
	votes := make([]Vote, len(commands))
	for i, cmd := range commands {
		votes[i] = Vote{Command: cmd, CastAt: base.Add(time.Duration(i) * time.Second)}
	}
	return votes
}

func TestComputeWinner_Majority(t *testing.T) {
	votes := votesAt(time.Now(), "forward", "forward", "back")

	winner, ok := ComputeWinner(votes, 1)
	assert.True(t, ok)
	assert.Equal(t, "forward", winner)
}

func TestComputeWinner_BelowThreshold(t *testing.T) {
	votes := votesAt(time.Now(), "forward", "back")

	winner, ok := ComputeWinner(votes, 5)
	assert.False(t, ok)
	assert.Empty(t, winner)
}

func TestComputeWinner_ThresholdCountsTotalNotWinner(t *testing.T) {
	// 2+1 votes clear a threshold of 3 even though no single command has 3.
	votes := votesAt(time.Now(), "forward", "back", "forward")

	winner, ok := ComputeWinner(votes, 3)
	assert.True(t, ok)
	assert.Equal(t, "forward", winner)
}

func TestComputeWinner_EmptySnapshot(t *testing.T) {
	winner, ok := ComputeWinner(nil, 1)
	assert.False(t, ok)
	assert.Empty(t, winner)
}

func TestComputeWinner_TieFirstInsertionWins(t *testing.T) {
	// Equal counts: whichever command was recorded first wins,
	// deterministically across runs.
	for range 20 {
		winner, ok := ComputeWinner(votesAt(time.Now(), "forward", "back"), 1)
		assert.True(t, ok)
		assert.Equal(t, "forward", winner)
	}
}

func TestComputeWinner_TieUsesFirstInsertionNotLatestSurge(t *testing.T) {
	// back appears first, forward reaches the tied maximum earlier in the
	// sequence; first insertion still decides.
	votes := votesAt(time.Now(), "back", "forward", "forward", "back")

	winner, ok := ComputeWinner(votes, 1)
	assert.True(t, ok)
	assert.Equal(t, "back", winner)
}

func TestComputeWinner_SingleVote(t *testing.T) {
	winner, ok := ComputeWinner(votesAt(time.Now(), "left"), 1)
	assert.True(t, ok)
	assert.Equal(t, "left", winner)
}

func TestCountVotes(t *testing.T) {
	votes := votesAt(time.Now(), "forward", "back", "forward", "left")

	counts := CountVotes(votes)
	assert.Equal(t, map[string]int{"forward": 2, "back": 1, "left": 1}, counts)
}

func TestCountVotes_Empty(t *testing.T) {
	assert.Empty(t, CountVotes(nil))
}
