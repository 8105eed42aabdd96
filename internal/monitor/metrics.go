package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/afro-network/ceo-agent/internal/models"
)

var (
	endpointUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afro_network_endpoint_up",
			Help: "Whether a network endpoint answered the last probe (1) or not (0).",
		},
		[]string{"network", "endpoint"},
	)

	incidentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afro_network_incidents_total",
			Help: "Network incidents opened and resolved by the monitor.",
		},
		[]string{"network", "transition"},
	)
)

func recordStatus(s models.NetworkStatus) {
	endpointUp.WithLabelValues("mainnet", "rpc").Set(boolGauge(s.Mainnet.RPC))
	endpointUp.WithLabelValues("mainnet", "explorer").Set(boolGauge(s.Mainnet.Explorer))
	endpointUp.WithLabelValues("testnet", "rpc").Set(boolGauge(s.Testnet.RPC))
	endpointUp.WithLabelValues("testnet", "explorer").Set(boolGauge(s.Testnet.Explorer))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
