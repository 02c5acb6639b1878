package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/chatplays/internal/domain"
)

const (
	defaultOutcomeLimit = 20
	maxOutcomeLimit     = 100
)

func (s *Server) handleStatus(c echo.Context) error {
	ctx := c.Request().Context()

	votes, err := s.store.Snapshot(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Status snapshot failed", "error", err)
		response := map[string]any{"error": "vote ledger unavailable"}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	response := map[string]any{
		"running":        s.service.Running(),
		"window_seconds": s.service.Window().Seconds(),
		"min_votes":      s.service.MinVotes(),
		"commands":       s.commands.Slice(),
		"tally":          domain.CountVotes(votes),
		"total_votes":    len(votes),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write status response: %w", err)
	}
	return nil
}

type outcomeResponse struct {
	Command    string    `json:"command"`
	TotalVotes int       `json:"total_votes"`
	DecidedAt  time.Time `json:"decided_at"`
}

func (s *Server) handleOutcomes(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultOutcomeLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response := map[string]any{"error": "limit must be a positive integer"}
			if err := c.JSON(http.StatusBadRequest, response); err != nil {
				return fmt.Errorf("failed to send JSON response: %w", err)
			}
			return nil
		}
		limit = min(parsed, maxOutcomeLimit)
	}

	outcomes, err := s.journal.RecentOutcomes(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "Outcome listing failed", "error", err)
		response := map[string]any{"error": "outcome journal unavailable"}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return fmt.Errorf("failed to send JSON response: %w", err)
		}
		return nil
	}

	items := make([]outcomeResponse, len(outcomes))
	for i, o := range outcomes {
		items[i] = outcomeResponse{Command: o.Command, TotalVotes: o.TotalVotes, DecidedAt: o.DecidedAt}
	}
	if err := c.JSON(http.StatusOK, map[string]any{"outcomes": items}); err != nil {
		return fmt.Errorf("failed to write outcomes response: %w", err)
	}
	return nil
}
