// Package metrics exposes Prometheus collectors for the bot runtime.
//
// Label sets stay bounded: handler names come from the command and callback
// registry, flow names from the flow catalog, and outcomes from fixed enums.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbot",
			Name:      "updates_total",
			Help:      "Inbound Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	handlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookbot",
			Name:      "handler_duration_seconds",
			Help:      "Handler latency by handler and status.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"handler", "status"},
	)

	flowEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbot",
			Name:      "flow_events_total",
			Help:      "Conversation flow steps by flow and outcome.",
		},
		[]string{"flow", "outcome"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbot",
			Name:      "notifications_total",
			Help:      "Third-party notifications by kind and delivery status.",
		},
		[]string{"kind", "status"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookbot",
			Name:      "rate_limited_total",
			Help:      "Updates dropped by the per-user rate limiter.",
		},
	)

	sendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookbot",
			Name:      "sender_failures_total",
			Help:      "Outbound replies that failed after all retries.",
		},
	)
)

func init() {
	prometheus.MustRegister(updatesTotal, handlerDuration, flowEvents, notifications, rateLimited, sendFailures)
}

// ObserveUpdate counts one inbound update of the given kind.
func ObserveUpdate(kind string) {
	updatesTotal.WithLabelValues(kind).Inc()
}

// ObserveHandler records a handler run.
func ObserveHandler(handler, status string, took time.Duration) {
	handlerDuration.WithLabelValues(handler, status).Observe(took.Seconds())
}

// ObserveFlow counts one flow step result.
func ObserveFlow(flow, outcome string) {
	flowEvents.WithLabelValues(flow, outcome).Inc()
}

// ObserveNotification counts a notification attempt; a non-nil err marks it failed.
func ObserveNotification(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	notifications.WithLabelValues(kind, status).Inc()
}

func IncRateLimited() { rateLimited.Inc() }

func IncSendFailure() { sendFailures.Inc() }
