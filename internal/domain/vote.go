package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Vote is a single recorded vote. Immutable once recorded; owned by the
// ledger until evicted or cleared.
type Vote struct {
	Command string
	CastAt  time.Time
}

// CommandSet is the immutable set of recognized command tokens, fixed at
// construction. It defines validity for both recording and tallying.
// Members are normalized to lower case.
type CommandSet struct {
	members map[string]struct{}
}

// NewCommandSet builds a CommandSet from raw tokens. Tokens are trimmed and
// lower-cased; empty tokens are dropped and duplicates collapse. At least one
// valid token is required.
func NewCommandSet(commands []string) (CommandSet, error) {
	members := make(map[string]struct{}, len(commands))
	for _, raw := range commands {
		cmd := strings.ToLower(strings.TrimSpace(raw))
		if cmd == "" {
			continue
		}
		members[cmd] = struct{}{}
	}
	if len(members) == 0 {
		return CommandSet{}, errors.New("command set must contain at least one command")
	}
	return CommandSet{members: members}, nil
}

// MustCommandSet is NewCommandSet that panics on error, for tests and fixed
// wiring.
func MustCommandSet(commands ...string) CommandSet {
	set, err := NewCommandSet(commands)
	if err != nil {
		panic(fmt.Sprintf("invalid command set: %v", err))
	}
	return set
}

// Contains reports whether cmd is a member. Callers are expected to pass
// already lower-cased tokens; membership is exact.
func (s CommandSet) Contains(cmd string) bool {
	_, ok := s.members[cmd]
	return ok
}

func (s CommandSet) Len() int {
	return len(s.members)
}

// Slice returns the members sorted alphabetically, for logs and status
// output. Tally order never depends on this.
func (s CommandSet) Slice() []string {
	out := make([]string, 0, len(s.members))
	for cmd := range s.members {
		out = append(out, cmd)
	}
	slices.Sort(out)
	return out
}
