package seckill

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 记录秒杀下单的结果分布与耗时
type Metrics struct {
	purchases *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics 创建并注册秒杀指标
//
// registerer 为 nil 时使用全局默认注册表。
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seckill",
			Name:      "purchase_total",
			Help:      "Purchase attempts by result (ok, sold_out, already_purchased, in_flight, rejected, error).",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seckill",
			Name:      "purchase_duration_seconds",
			Help:      "Purchase admission latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(start).Seconds())
	m.purchases.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch Reason(err) {
	case "SOLD_OUT":
		return "sold_out"
	case "ALREADY_PURCHASED":
		return "already_purchased"
	case "IN_FLIGHT":
		return "in_flight"
	case "":
		return "error"
	default:
		return "rejected"
	}
}
