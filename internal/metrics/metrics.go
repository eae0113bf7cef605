// Package metrics exposes Prometheus counters for the dispatch pipeline and
// tracking endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmailsQueued counts delivery jobs accepted into the worker pool.
	EmailsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phishsim_emails_queued_total",
		Help: "Number of campaign emails enqueued for delivery.",
	})

	// EmailsSent counts deliveries that succeeded, including after retries.
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phishsim_emails_sent_total",
		Help: "Number of campaign emails delivered successfully.",
	})

	// EmailsFailed counts deliveries that exhausted all retry attempts.
	EmailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phishsim_emails_failed_total",
		Help: "Number of campaign emails that failed permanently.",
	})

	// DeliveryRetries counts individual failed send attempts that were retried.
	DeliveryRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phishsim_delivery_retries_total",
		Help: "Number of delivery attempts that failed and were retried.",
	})

	// InteractionsRecorded counts tracking events by action, labelled only
	// with the action name.
	InteractionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishsim_interactions_recorded_total",
		Help: "Number of interaction events recorded, by action.",
	}, []string{"action"})

	// InvalidTrackingTokens counts tracking callbacks that carried a token
	// which failed to parse or to match its target.
	InvalidTrackingTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phishsim_invalid_tracking_tokens_total",
		Help: "Number of tracking callbacks rejected for an invalid token.",
	})
)
