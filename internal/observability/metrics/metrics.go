// Package metrics registers Prometheus metrics for the dashboard
// core. Init must be called once at startup; every observe helper is
// a no-op before that, so domain packages can call them freely.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "dashboard_"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	framesTotal   *prometheus.CounterVec
	framesDropped *prometheus.CounterVec

	sessionsOpened prometheus.Counter
	sessionsActive prometheus.Gauge

	notificationsActive prometheus.Gauge
	notificationsTotal  prometheus.Counter

	historyQueries *prometheus.CounterVec
	historyCache   *prometheus.CounterVec

	chatSends *prometheus.CounterVec
)

// Init registers all metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		framesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stream_frames_total",
				Help: "Inbound stream frames by classified channel",
			},
			[]string{"channel"},
		)
		framesDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stream_frames_dropped_total",
				Help: "Inbound stream frames dropped by reason",
			},
			[]string{"reason"},
		)
		sessionsOpened = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "stream_sessions_opened_total",
				Help: "Total stream session connections opened",
			},
		)
		sessionsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "stream_sessions_active",
				Help: "Stream session connections currently open",
			},
		)
		notificationsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "notifications_active",
				Help: "Notifications currently visible",
			},
		)
		notificationsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total notifications accepted",
			},
		)
		historyQueries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_queries_total",
				Help: "Device history queries by result",
			},
			[]string{"result"},
		)
		historyCache = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_cache_total",
				Help: "Device history cache lookups by outcome",
			},
			[]string{"outcome"},
		)
		chatSends = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "chat_sends_total",
				Help: "Outbound chat sends by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			framesTotal,
			framesDropped,
			sessionsOpened,
			sessionsActive,
			notificationsActive,
			notificationsTotal,
			historyQueries,
			historyCache,
			chatSends,
		)
	})
}

// ObserveFrame counts one classified frame.
func ObserveFrame(channel string) {
	if framesTotal == nil {
		return
	}
	framesTotal.WithLabelValues(channel).Inc()
}

// FrameDropped counts one dropped frame.
func FrameDropped(reason string) {
	if framesDropped == nil {
		return
	}
	framesDropped.WithLabelValues(reason).Inc()
}

// SessionOpened records a session connection reaching Open.
func SessionOpened() {
	if sessionsOpened == nil {
		return
	}
	sessionsOpened.Inc()
	sessionsActive.Inc()
}

// SessionClosed records an open session connection closing.
func SessionClosed() {
	if sessionsActive == nil {
		return
	}
	sessionsActive.Dec()
}

// NotificationPushed records an accepted notification.
func NotificationPushed() {
	if notificationsTotal == nil {
		return
	}
	notificationsTotal.Inc()
	notificationsActive.Inc()
}

// NotificationRemoved records a notification leaving the active set.
func NotificationRemoved() {
	if notificationsActive == nil {
		return
	}
	notificationsActive.Dec()
}

// ObserveHistoryQuery counts one device history query.
func ObserveHistoryQuery(result string) {
	if historyQueries == nil {
		return
	}
	historyQueries.WithLabelValues(result).Inc()
}

// ObserveHistoryCache counts one cache lookup outcome (hit/miss/error).
func ObserveHistoryCache(outcome string) {
	if historyCache == nil {
		return
	}
	historyCache.WithLabelValues(outcome).Inc()
}

// ObserveChatSend counts one outbound chat send.
func ObserveChatSend(result string) {
	if chatSends == nil {
		return
	}
	chatSends.WithLabelValues(result).Inc()
}
