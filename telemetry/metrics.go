// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles          prometheus.Counter
	PollCycleErrors     prometheus.Counter
	CategoryChanges     prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	HelixRequests       prometheus.Counter
	TokenRefreshes      prometheus.Counter

	// Histograms (seconds)
	PollCycleDuration prometheus.Observer

	// Gauges
	LiveChannelsGauge      prometheus.Gauge
	MonitoredChannelsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "notifier_poll_cycles_total", Help: "Number of poll cycles started"})
		PollCycleErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "notifier_poll_cycle_errors_total", Help: "Number of poll cycles that ended with an error"})
		CategoryChanges = promauto.NewCounter(prometheus.CounterOpts{Name: "notifier_category_changes_total", Help: "Number of category change events detected"})
		NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "notifier_notifications_sent_total", Help: "Number of webhook notifications delivered"})
		NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "notifier_notifications_failed_total", Help: "Number of webhook notifications that failed"})
		HelixRequests = promauto.NewCounter(prometheus.CounterOpts{Name: "notifier_helix_requests_total", Help: "Number of Twitch Helix API requests issued"})
		TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{Name: "notifier_token_refreshes_total", Help: "Number of app access token refreshes"})
		PollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "notifier_poll_cycle_duration_seconds", Help: "Poll cycle duration seconds", Buckets: prometheus.DefBuckets})
		LiveChannelsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "notifier_live_channels", Help: "Monitored channels currently live"})
		MonitoredChannelsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "notifier_monitored_channels", Help: "Number of channels being monitored"})
	})
}

// Increment/observe helpers are nil-safe so packages can be tested without Init.

func IncPollCycles()          { inc(PollCycles) }
func IncPollCycleErrors()     { inc(PollCycleErrors) }
func IncCategoryChanges()     { inc(CategoryChanges) }
func IncNotificationsSent()   { inc(NotificationsSent) }
func IncNotificationsFailed() { inc(NotificationsFailed) }
func IncHelixRequests()       { inc(HelixRequests) }
func IncTokenRefreshes()      { inc(TokenRefreshes) }

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// ObservePollCycleDuration records one cycle duration in seconds.
func ObservePollCycleDuration(seconds float64) {
	if PollCycleDuration != nil {
		PollCycleDuration.Observe(seconds)
	}
}

// SetLiveChannels records how many monitored channels were live this cycle.
func SetLiveChannels(n int) {
	if LiveChannelsGauge != nil {
		LiveChannelsGauge.Set(float64(n))
	}
}

// SetMonitoredChannels records the configured channel count.
func SetMonitoredChannels(n int) {
	if MonitoredChannelsGauge != nil {
		MonitoredChannelsGauge.Set(float64(n))
	}
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
