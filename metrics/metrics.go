// Package metrics exposes the prometheus counters the presence agent emits,
// following the same promauto package-level registration style as
// multicluster/service-mirror's metrics: a handful of named counters
// created once at init and incremented from the components that observe
// the corresponding events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const uuidLabel = "uuid"

var (
	// RefreshTotal counts every Service Record Merger attempt, successful
	// or not.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presenced_refresh_total",
			Help: "Total number of service record refresh cycles attempted",
		},
		[]string{uuidLabel},
	)

	// RefreshFailures counts refresh cycles in which any registration
	// failed (a get or register RPC error, a missing mrc key, or a
	// cancellation).
	RefreshFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presenced_refresh_failures_total",
			Help: "Total number of service record refresh cycles that failed",
		},
		[]string{uuidLabel},
	)

	// DeregisterAttempts counts deregister RPCs issued during shutdown.
	DeregisterAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presenced_deregister_attempts_total",
			Help: "Total number of service_deregister RPCs attempted on shutdown",
		},
		[]string{uuidLabel},
	)

	// ConfigPushFailures counts Configuration Pusher failures. Exposing
	// this as a counter rather than only a log line answers the open
	// question of whether config push errors deserve visibility beyond
	// the log: see SPEC_FULL.md §9.
	ConfigPushFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presenced_config_push_failures_total",
			Help: "Total number of configuration pushes (configuration_get or configuration_set) that failed",
		},
		[]string{uuidLabel},
	)
)
