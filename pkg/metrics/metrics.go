package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttributionsTotal counts attribution attempts by outcome:
	// attributed, repeat, conflict, self_referral, invalid_code.
	AttributionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presale_referral_attributions_total",
			Help: "Total number of referral attribution attempts",
		},
		[]string{"outcome"},
	)

	// BonusAccrualsTotal counts accrual runs by outcome: accrued,
	// already_processed, not_completed, no_referrer, integrity_fault.
	BonusAccrualsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presale_referral_bonus_accruals_total",
			Help: "Total number of bonus accrual attempts",
		},
		[]string{"outcome"},
	)

	// ChainRPCCallsTotal counts verification calls per chain and result.
	ChainRPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presale_chain_rpc_calls_total",
			Help: "Total number of chain RPC verification calls",
		},
		[]string{"chain", "result"},
	)

	// ChainRPCLatency tracks verification call latency.
	ChainRPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "presale_chain_rpc_latency_seconds",
			Help:    "Chain RPC verification call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain"},
	)
)
