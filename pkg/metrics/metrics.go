// Package metrics provides Prometheus metrics for the photo stats bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "photobot"

// Leaderboard request outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

var (
	updatesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_received_total",
		Help:      "Telegram updates received, by kind.",
	}, []string{"kind"})

	photosRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photos_recorded_total",
		Help:      "Photo events written to the store.",
	})

	leaderboardRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leaderboard_requests_total",
		Help:      "Leaderboard builds, by outcome.",
	}, []string{"outcome"})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Failed store operations, by operation.",
	}, []string{"op"})

	nameLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "name_lookup_failures_total",
		Help:      "Display name lookups replaced by the fallback label.",
	})

	dialogSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dialog_sessions_active",
		Help:      "Chats currently waiting for a period answer.",
	})
)

// RecordUpdate counts an inbound update of the given kind (photo, command, text, other).
func RecordUpdate(kind string) { updatesReceived.WithLabelValues(kind).Inc() }

// RecordPhoto counts a stored photo event.
func RecordPhoto() { photosRecorded.Inc() }

// RecordLeaderboard counts a leaderboard build with its outcome.
func RecordLeaderboard(outcome string) { leaderboardRequests.WithLabelValues(outcome).Inc() }

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) { storeErrors.WithLabelValues(op).Inc() }

// RecordNameLookupFailure counts a display name that fell back to the default label.
func RecordNameLookupFailure() { nameLookupFailures.Inc() }

// SetDialogSessions reports the number of pending dialog sessions.
func SetDialogSessions(n int) { dialogSessions.Set(float64(n)) }

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
