package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/chatplays/internal/domain"
)

// CycleMetrics holds Prometheus metrics for the voting cycle. It implements
// domain.CycleObserver so it can be fanned in next to logging and the
// outcome journal.
type CycleMetrics struct {
	VotesRecorded  *prometheus.CounterVec
	CyclesTotal    prometheus.Counter
	VotesPerCycle  prometheus.Histogram
	WinnersChosen  *prometheus.CounterVec
	ActionFailures prometheus.Counter
}

// NewCycleMetrics creates and registers voting cycle metrics on the given registry.
func NewCycleMetrics(reg prometheus.Registerer) *CycleMetrics {
	m := &CycleMetrics{
		VotesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_recorded_total",
			Help:      "Total number of accepted votes, by command.",
		}, []string{"command"}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed voting cycles.",
		}),
		VotesPerCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "votes_per_cycle",
			Help:      "Number of votes tallied per cycle.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		WinnersChosen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "winners_chosen_total",
			Help:      "Total number of winning commands executed, by command.",
		}, []string{"command"}),
		ActionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_failures_total",
			Help:      "Total number of winning commands whose action returned an error.",
		}),
	}

	reg.MustRegister(m.VotesRecorded, m.CyclesTotal, m.VotesPerCycle, m.WinnersChosen, m.ActionFailures)
	return m
}

func (m *CycleMetrics) VoteRecorded(_ context.Context, command string) {
	m.VotesRecorded.WithLabelValues(command).Inc()
}

func (m *CycleMetrics) CycleTallied(_ context.Context, tally domain.CycleTally) {
	m.CyclesTotal.Inc()
	m.VotesPerCycle.Observe(float64(tally.TotalVotes))
}

func (m *CycleMetrics) WinnerChosen(_ context.Context, outcome domain.Outcome) {
	m.WinnersChosen.WithLabelValues(outcome.Command).Inc()
}

func (m *CycleMetrics) ActionFailed(context.Context, string, error) {
	m.ActionFailures.Inc()
}
