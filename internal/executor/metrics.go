package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// commandDuration measures command wall time.
	// Labels: program, outcome (success, failure, timeout)
	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "afro",
		Name:      "command_duration_seconds",
		Help:      "Duration of commands run by the executor",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 600},
	}, []string{"program", "outcome"})

	// commandsTotal counts commands by outcome.
	// Labels: program, outcome
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "afro",
		Name:      "commands_total",
		Help:      "Total commands run by the executor",
	}, []string{"program", "outcome"})
)

func observe(program string, r Result, elapsed time.Duration) {
	outcome := "success"
	switch {
	case r.TimedOut():
		outcome = "timeout"
	case !r.Success:
		outcome = "failure"
	}
	commandDuration.WithLabelValues(program, outcome).Observe(elapsed.Seconds())
	commandsTotal.WithLabelValues(program, outcome).Inc()
}
