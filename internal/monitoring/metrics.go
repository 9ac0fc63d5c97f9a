package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_trades_total",
			Help: "Orders placed, by symbol and direction",
		},
		[]string{"symbol", "direction"},
	)

	tradeSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_trade_skips_total",
			Help: "Trades rejected by the risk gate, by reason",
		},
		[]string{"reason"},
	)

	stopAmendmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_stop_amendments_total",
			Help: "Trailing-stop amendments submitted to the broker",
		},
		[]string{"symbol"},
	)

	cycleErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycle_errors_total",
			Help: "Per-symbol cycle failures, by kind",
		},
		[]string{"kind"},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_open_positions",
			Help: "Open positions in the ledger",
		},
	)

	drawdownPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_drawdown_percent",
			Help: "Sum of frozen per-position risk as a percentage of account balance",
		},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bot_current_price",
			Help: "Last observed price per symbol",
		},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradeSkipsTotal)
	prometheus.MustRegister(stopAmendmentsTotal)
	prometheus.MustRegister(cycleErrorsTotal)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(drawdownPercent)
	prometheus.MustRegister(currentPrice)
}

func RecordTrade(symbol, direction string) {
	tradesTotal.WithLabelValues(symbol, direction).Inc()
}

func RecordTradeSkip(reason string) {
	tradeSkipsTotal.WithLabelValues(reason).Inc()
}

func RecordStopAmendment(symbol string) {
	stopAmendmentsTotal.WithLabelValues(symbol).Inc()
}

func RecordCycleError(kind string) {
	cycleErrorsTotal.WithLabelValues(kind).Inc()
}

func SetOpenPositions(n int) {
	openPositions.Set(float64(n))
}

func SetDrawdown(pct float64) {
	drawdownPercent.Set(pct)
}

func SetCurrentPrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// MetricsHandler serves the Prometheus exposition endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
