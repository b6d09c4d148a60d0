package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики жизненного цикла ордеров
// ============================================================

// OrdersPlaced - количество размещенных (исполненных) ордеров
var OrdersPlaced = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "forex",
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Total number of placed and executed orders",
	},
)

// OrdersCanceled - количество отмененных ордеров
var OrdersCanceled = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "forex",
		Subsystem: "orders",
		Name:      "canceled_total",
		Help:      "Total number of canceled orders",
	},
)

// ExecutionDelay - имитированная задержка исполнения
var ExecutionDelay = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "forex",
		Subsystem: "orders",
		Name:      "execution_delay_seconds",
		Help:      "Simulated execution delay before an order is marked EXECUTED",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.5, 0.75, 1},
	},
)

// StoreErrors - ошибки хранилища по операциям
var StoreErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "forex",
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Total number of order store failures",
	},
	[]string{"operation"},
)
