package stack

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts dispatched operations.
	// Labels: kind (stack, git), operation, stage, outcome (success, failure)
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "afro",
		Subsystem: "stack",
		Name:      "operations_total",
		Help:      "Total stack and repository operations by stage and outcome",
	}, []string{"kind", "operation", "stage", "outcome"})

	// statusChecks counts reconciliations.
	// Labels: result (connected, disconnected)
	statusChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "afro",
		Subsystem: "stack",
		Name:      "status_checks_total",
		Help:      "Total stack status reconciliations",
	}, []string{"result"})
)

func countOperation(kind, operation string, resp OperationResponse) {
	outcome := "success"
	if !resp.Success {
		outcome = "failure"
	}
	operationsTotal.WithLabelValues(kind, operation, string(resp.Stage), outcome).Inc()
}
