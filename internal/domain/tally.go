package domain

// ComputeWinner counts occurrences per command in a ledger snapshot and
// returns the winning command. There is no winner when the total number of
// votes is below minVotes.
//
// Tie-break: the first command, in temporal first-insertion order, holding
// the maximum count wins. The snapshot is time-ordered, so a single ordered
// pass makes the result deterministic regardless of map iteration order.
// No side effects; safe to call concurrently on immutable snapshots.
func ComputeWinner(votes []Vote, minVotes int) (string, bool) {
	if len(votes) < minVotes {
		return "", false
	}

	counts := make(map[string]int, len(votes))
	var order []string
	for _, v := range votes {
		if counts[v.Command] == 0 {
			order = append(order, v.Command)
		}
		counts[v.Command]++
	}

	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	for _, cmd := range order {
		if counts[cmd] == best {
			return cmd, true
		}
	}
	return "", false
}

// CountVotes returns per-command counts for a snapshot. Used by status
// reporting; ComputeWinner does its own ordered pass.
func CountVotes(votes []Vote) map[string]int {
	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.Command]++
	}
	return counts
}
