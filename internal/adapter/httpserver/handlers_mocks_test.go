package httpserver

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/chatplays/internal/domain"
	"github.com/pscheid92/chatplays/internal/platform/config"
)

// --- Mocks ---

type stubCycle struct {
	running  bool
	window   time.Duration
	minVotes int
}

func (s stubCycle) Running() bool         { return s.running }
func (s stubCycle) Window() time.Duration { return s.window }
func (s stubCycle) MinVotes() int         { return s.minVotes }

type stubStore struct {
	votes []domain.Vote
	err   error
}

func (s *stubStore) Record(context.Context, string) error { return nil }
func (s *stubStore) Clear(context.Context) error          { return nil }

func (s *stubStore) Snapshot(context.Context) ([]domain.Vote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.votes, nil
}

type stubJournal struct {
	mu       sync.Mutex
	outcomes []domain.Outcome
	err      error
	gotLimit int
}

func (s *stubJournal) RecentOutcomes(_ context.Context, limit int) ([]domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.outcomes, nil
}

func (s *stubJournal) lastLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gotLimit
}

// --- Test server ---

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()

	srv := &Server{
		echo:     echo.New(),
		config:   &config.Config{Port: "8080"},
		service:  stubCycle{running: true, window: 10 * time.Second, minVotes: 1},
		store:    &stubStore{},
		commands: domain.MustCommandSet("forward", "back"),
		metricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withStore(store domain.VoteStore) func(*Server) {
	return func(s *Server) {
		s.store = store
	}
}

func withJournal(journal outcomeSource) func(*Server) {
	return func(s *Server) {
		s.journal = journal
	}
}

func withCycle(service cycleStatus) func(*Server) {
	return func(s *Server) {
		s.service = service
	}
}
