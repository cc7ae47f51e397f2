package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryMetrics records fan-out delivery outcomes per channel.
type DeliveryMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	dropped  prometheus.Counter
}

// NewDeliveryMetrics registers the delivery metrics on the provided registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_delivery_duration_seconds",
		Help:    "Duration of notification delivery attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_delivery_success",
		Help: "Successful notification deliveries.",
	}, []string{"channel"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_delivery_failure",
		Help: "Failed notification deliveries.",
	}, []string{"channel"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_delivery_dropped",
		Help: "Delivery tasks dropped because the fan-out queue was full.",
	})
	reg.MustRegister(duration, success, failure, dropped)
	return &DeliveryMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		dropped:  dropped,
	}
}

// ObserveDuration records the duration for the named channel.
func (d *DeliveryMetrics) ObserveDuration(channel string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(channel)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named channel.
func (d *DeliveryMetrics) IncSuccess(channel string) {
	if d == nil || d.success == nil {
		return
	}
	d.success.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncFailure increments the failure counter for the named channel.
func (d *DeliveryMetrics) IncFailure(channel string) {
	if d == nil || d.failure == nil {
		return
	}
	d.failure.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncDropped increments the dropped-task counter.
func (d *DeliveryMetrics) IncDropped() {
	if d == nil || d.dropped == nil {
		return
	}
	d.dropped.Inc()
}

func normalizeLabel(channel string) string {
	if channel == "" {
		return "unknown"
	}
	return channel
}
