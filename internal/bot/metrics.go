package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// ============================================================
// Prometheus метрики торгового движка
// ============================================================

// ============ Позиции ============

var positionsOpenedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kitrader",
		Subsystem: "trading",
		Name:      "positions_opened_total",
		Help:      "Total positions opened by direction",
	},
	[]string{"type"},
)

var positionsClosedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kitrader",
		Subsystem: "trading",
		Name:      "positions_closed_total",
		Help:      "Total positions closed by direction and result",
	},
	[]string{"type", "result"},
)

var openPositionsGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "kitrader",
		Subsystem: "trading",
		Name:      "open_positions",
		Help:      "Current number of open positions",
	},
)

// ============ PNL ============

var realizedProfitTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "kitrader",
		Subsystem: "trading",
		Name:      "realized_profit_sol_total",
		Help:      "Cumulative realized profit in SOL",
	},
)

var realizedLossTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "kitrader",
		Subsystem: "trading",
		Name:      "realized_loss_sol_total",
		Help:      "Cumulative realized loss in SOL (absolute value)",
	},
)

// ============ Риск ============

var riskRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kitrader",
		Subsystem: "trading",
		Name:      "risk_rejections_total",
		Help:      "Total risk validator rejections by reason",
	},
	[]string{"reason"},
)

// ============ Цены ============

var priceFetchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "kitrader",
		Subsystem: "pricing",
		Name:      "price_fetch_duration_seconds",
		Help:      "Price source request duration in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"status"},
)

// ============ Уведомления ============

var notificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kitrader",
		Subsystem: "notify",
		Name:      "notifications_sent_total",
		Help:      "Total notifications sent by type",
	},
	[]string{"type"},
)

// ============ Хелперы записи ============

// RecordPositionOpened фиксирует открытие позиции
func RecordPositionOpened(posType string) {
	positionsOpenedTotal.WithLabelValues(posType).Inc()
	openPositionsGauge.Inc()
}

// RecordPositionClosed фиксирует закрытие позиции и реализованный PNL
func RecordPositionClosed(posType string, pnl decimal.Decimal) {
	result := "profit"
	if pnl.IsNegative() {
		result = "loss"
		v, _ := pnl.Abs().Float64()
		realizedLossTotal.Add(v)
	} else {
		v, _ := pnl.Float64()
		realizedProfitTotal.Add(v)
	}

	positionsClosedTotal.WithLabelValues(posType, result).Inc()
	openPositionsGauge.Dec()
}

// RecordRiskRejection фиксирует отказ риск-валидатора
func RecordRiskRejection(reason string) {
	riskRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordPriceFetch фиксирует длительность запроса цены
func RecordPriceFetch(duration time.Duration, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	priceFetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordNotificationSent фиксирует отправленное уведомление
func RecordNotificationSent(notifType string) {
	notificationsSentTotal.WithLabelValues(notifType).Inc()
}
