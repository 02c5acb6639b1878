package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/chatplays/internal/domain"
	"github.com/pscheid92/chatplays/internal/platform/correlation"
)

// Service owns the periodic voting cycle: sleep for the window, snapshot the
// ledger, tally, invoke the action for the winner, clear, repeat. It is the
// only component that writes a winner anywhere.
//
// The cycle awaits the action without a timeout, so a hanging action stalls
// subsequent cycles. Accepted limit; harden with a context deadline inside
// the action if needed.
type Service struct {
	store    domain.VoteStore
	action   domain.Action
	observer domain.CycleObserver
	window   time.Duration
	minVotes int
	clock    clockwork.Clock

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewService creates the cycle controller. observer may be nil.
func NewService(store domain.VoteStore, action domain.Action, observer domain.CycleObserver, window time.Duration, minVotes int, clock clockwork.Clock) *Service {
	if observer == nil {
		observer = domain.NopObserver{}
	}
	return &Service{
		store:    store,
		action:   action,
		observer: observer,
		window:   window,
		minVotes: minVotes,
		clock:    clock,
	}
}

// Start launches the cycle goroutine. It fails with domain.ErrAlreadyRunning
// when a cycle is already active; the running cycle is unaffected.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return domain.ErrAlreadyRunning
	}

	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(s.stopCh, s.doneCh)

	slog.Info("Voting cycle started", "window", s.window.String(), "min_votes", s.minVotes)
	return nil
}

// Stop signals the cycle goroutine and waits for it to terminate. An
// in-progress window sleep is cancelled immediately; an in-flight action is
// allowed to finish. Safe to call repeatedly and while stopped (no-op), and
// never returns an error: shutdown cancellation is swallowed here.
func (s *Service) Stop() {
	s.mu.Lock()
	doneCh := s.doneCh
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()

	if doneCh == nil {
		return
	}
	<-doneCh
}

// Running reports whether a cycle goroutine is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) Window() time.Duration { return s.window }
func (s *Service) MinVotes() int         { return s.minVotes }

func (s *Service) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	timer := s.clock.NewTimer(s.window)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			slog.Info("Voting cycle stopped")
			return
		case <-timer.Chan():
		}

		s.runCycle()
		timer.Reset(s.window)
	}
}

// runCycle performs one tally pass. The ledger lock is only ever held inside
// Snapshot and Clear, never across the action, so recording continues while
// a slow action runs.
func (s *Service) runCycle() {
	ctx := correlation.WithID(context.Background(), correlation.NewID())

	votes, err := s.store.Snapshot(ctx)
	if err != nil {
		// Nothing was tallied, so nothing is cleared; the votes stay for
		// the next attempt.
		slog.ErrorContext(ctx, "Ledger snapshot failed, skipping cycle", "error", err)
		return
	}

	winner, ok := domain.ComputeWinner(votes, s.minVotes)
	s.observer.CycleTallied(ctx, domain.CycleTally{Counts: domain.CountVotes(votes), TotalVotes: len(votes)})

	if ok {
		outcome := domain.Outcome{Command: winner, TotalVotes: len(votes), DecidedAt: s.clock.Now()}
		s.observer.WinnerChosen(ctx, outcome)

		if err := s.action(ctx, winner); err != nil {
			slog.ErrorContext(ctx, "Action failed", "command", winner, "error", err)
			s.observer.ActionFailed(ctx, winner, err)
		}
	} else {
		slog.DebugContext(ctx, "No winner this cycle", "total_votes", len(votes), "min_votes", s.minVotes)
	}

	if err := s.store.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "Ledger clear failed", "error", err)
	}
}
