package telemetry

import (
	"context"
	"testing"
)

func TestInitIdempotent(t *testing.T) {
	// A second Init must not re-register collectors (promauto panics on
	// duplicate registration).
	Init()
	Init()
	if PollCycles == nil || PollCycleDuration == nil || LiveChannelsGauge == nil {
		t.Fatal("Init did not register metrics")
	}
}

func TestHelpersBeforeInitAreSafe(t *testing.T) {
	// Helpers nil-check so packages under test can skip Init entirely; with
	// metrics registered they just count.
	IncPollCycles()
	IncNotificationsSent()
	ObservePollCycleDuration(0.5)
	SetLiveChannels(2)
	SetMonitoredChannels(5)
}

func TestCorrelationContext(t *testing.T) {
	ctx := context.Background()
	if GetCorrelation(ctx) != "" {
		t.Error("GetCorrelation on bare context should be empty")
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation = %q, want abc-123", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
