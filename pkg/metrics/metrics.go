// Package metrics exposes the wallet service's Prometheus instrumentation.
// The /metrics endpoint itself is served with promhttp.Handler() in
// cmd/server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WalletTransactionsTotal counts handled deposit, withdraw, reject and
// payment-rollback requests, labeled by action and outcome (success or
// error); game rollback and update requests are not counted.
var WalletTransactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wallet_transactions_total",
		Help: "Total wallet transactions processed, by action and status.",
	},
	[]string{"action", "status"},
)

// RPCDuration measures handler latency per facet/operation.
var RPCDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "wallet_rpc_duration_seconds",
		Help:    "Latency of game/payment wallet RPCs.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"facet", "operation"},
)

// ObserveTransaction records the outcome of one handled wallet request.
func ObserveTransaction(action, status string) {
	WalletTransactionsTotal.WithLabelValues(action, status).Inc()
}
