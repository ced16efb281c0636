package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"realestate-lifecycle/internal/domain/shared"
)

// Metrics counts lifecycle commands by name and outcome. It satisfies lifecycle.Observer.
type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	SweepContracts  *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lifecycle_commands_total",
			Help: "Lifecycle commands by name and outcome kind",
		}, []string{"command", "outcome"}), // outcome: "ok" or an error kind

		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifecycle_command_duration_seconds",
			Help:    "Duration of lifecycle commands including the transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"command"}),

		SweepContracts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lifecycle_recompute_contracts_total",
			Help: "Contracts visited by recompute-all by result",
		}, []string{"result"}), // result: "updated", "unchanged", "conflict"
	}
}

func (m *Metrics) ObserveCommand(command string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(shared.KindOf(err))
		if outcome == "" {
			outcome = "internal"
		}
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveRecompute(scanned, updated, conflicts int) {
	if m == nil {
		return
	}
	m.SweepContracts.WithLabelValues("updated").Add(float64(updated))
	m.SweepContracts.WithLabelValues("conflict").Add(float64(conflicts))
	if rest := scanned - updated - conflicts; rest > 0 {
		m.SweepContracts.WithLabelValues("unchanged").Add(float64(rest))
	}
}
