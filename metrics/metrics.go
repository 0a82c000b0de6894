// Package metrics exposes prometheus instrumentation for the decision
// engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IntentsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donchian_intents_emitted_total",
			Help: "Total number of trade intents emitted (by pair).",
		},
		[]string{"pair"},
	)

	EntriesVetoed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donchian_entries_vetoed_total",
			Help: "Entry signals denied by a protection guard (by guard).",
		},
		[]string{"guard"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donchian_trades_closed_total",
			Help: "Closed trades (by exit reason).",
		},
		[]string{"reason"},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "donchian_positions_open",
			Help: "Current number of open positions.",
		},
	)

	DailyLossR = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "donchian_daily_realized_r",
			Help: "Realized R accumulated in the current trading day.",
		},
	)
)

func init() {
	prometheus.MustRegister(IntentsEmitted, EntriesVetoed, TradesClosed, PositionsOpen, DailyLossR)
}

// Handler exposes the registered metrics over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
