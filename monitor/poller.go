// Package monitor runs the poll loop: fetch live streams, resolve category
// names, diff against persisted state, notify on changes, persist.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/category-notifier/state"
	"github.com/onnwee/category-notifier/telemetry"
	"github.com/onnwee/category-notifier/twitchapi"
)

// unknownCategory is the sentinel for "no previous category", an empty
// category id, and an id the games endpoint never resolved. The three cases
// are deliberately indistinguishable in notification text.
const unknownCategory = "Unknown"

// StreamsAPI is the slice of the Helix client the poller consumes.
type StreamsAPI interface {
	GetStreams(ctx context.Context, logins []string) ([]twitchapi.Stream, error)
	GetCategoryNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Notifier delivers a message best-effort; it must not fail the cycle.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Status is a snapshot of the poller for the /status endpoint.
type Status struct {
	Channels          []string      `json:"channels"`
	LiveChannels      int           `json:"live_channels"`
	CyclesCompleted   int64         `json:"cycles_completed"`
	NotificationsSent int64         `json:"notifications_sent"`
	LastCycleStart    time.Time     `json:"last_cycle_start"`
	LastCycleDuration time.Duration `json:"last_cycle_duration_ns"`
	LastCycleError    string        `json:"last_cycle_error,omitempty"`
	StateFile         string        `json:"state_file"`
}

// Poller owns the single-threaded poll loop. The category name cache and the
// persisted state map live for the whole process; only Status is read
// concurrently (by the ops server) and is guarded accordingly.
type Poller struct {
	api       StreamsAPI
	notifier  Notifier
	channels  []string
	interval  time.Duration
	statePath string

	names map[string]string // category id -> display name, never evicted
	state map[string]string // login -> last-seen category id

	mu     sync.Mutex
	status Status
}

// New builds a poller for the given channels. State is loaded when Run starts.
func New(api StreamsAPI, notifier Notifier, channels []string, interval time.Duration, statePath string) *Poller {
	return &Poller{
		api:       api,
		notifier:  notifier,
		channels:  channels,
		interval:  interval,
		statePath: statePath,
		names:     map[string]string{},
		status:    Status{Channels: channels, StateFile: statePath},
	}
}

// Run executes poll cycles until ctx is cancelled. A failed cycle is logged
// and retried on the next interval; only cancellation ends the loop. Shutdown
// latency is bounded by the 1-second sleep increments, not the poll interval.
func (p *Poller) Run(ctx context.Context) {
	p.state = state.Load(p.statePath)
	slog.Info("monitoring streamers",
		slog.Int("count", len(p.channels)),
		slog.Any("channels", p.channels),
		slog.Duration("interval", p.interval))
	for ctx.Err() == nil {
		p.runCycle(ctx)
		if !sleep(ctx, p.interval) {
			break
		}
	}
	slog.Info("poller exiting", slog.String("state_file", p.statePath))
}

// runCycle wraps one cycle with a correlation id, a span, metrics, and the
// catch-all that keeps any cycle error from terminating the process.
func (p *Poller) runCycle(ctx context.Context) {
	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())
	ctx, span := telemetry.StartSpan(ctx, "monitor", "poll-cycle",
		attribute.Int("channels", len(p.channels)))
	defer span.End()

	start := time.Now()
	telemetry.IncPollCycles()
	live, notified, err := p.cycle(ctx)
	elapsed := time.Since(start)
	telemetry.ObservePollCycleDuration(elapsed.Seconds())

	if err != nil {
		telemetry.IncPollCycleErrors()
		telemetry.RecordError(span, err)
		telemetry.LoggerWithCorr(ctx).Error("poll cycle failed", slog.Any("err", err))
	} else {
		telemetry.SetLiveChannels(live)
		telemetry.SetSpanSuccess(span)
	}

	p.mu.Lock()
	p.status.CyclesCompleted++
	p.status.NotificationsSent += int64(notified)
	p.status.LastCycleStart = start
	p.status.LastCycleDuration = elapsed
	p.status.LastCycleError = ""
	if err != nil {
		p.status.LastCycleError = err.Error()
	} else {
		p.status.LiveChannels = live
	}
	p.mu.Unlock()
}

// cycle performs fetch -> resolve -> diff -> notify -> persist once. It
// returns the live channel count and how many notifications were attempted.
func (p *Poller) cycle(ctx context.Context) (live, notified int, err error) {
	streams, err := p.api.GetStreams(ctx, p.channels)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch streams: %w", err)
	}

	// login -> category id for everyone currently live
	current := make(map[string]string, len(streams))
	for _, s := range streams {
		if login := strings.ToLower(s.UserLogin); login != "" {
			current[login] = s.GameID
		}
	}

	if err := p.resolveNames(ctx, current); err != nil {
		return 0, 0, err
	}

	log := telemetry.LoggerWithCorr(ctx)
	for _, login := range p.channels {
		newID, ok := current[login]
		if !ok || newID == "" || newID == p.state[login] {
			continue
		}
		oldName := p.categoryName(p.state[login])
		newName := p.categoryName(newID)
		msg := fmt.Sprintf("%s changed category: %s -> %s", login, oldName, newName)
		log.Info("category change detected",
			slog.String("channel", login),
			slog.String("old", oldName),
			slog.String("new", newName))
		telemetry.IncCategoryChanges()
		p.notifier.Notify(ctx, msg)
		notified++
	}

	// Only live channels get their entry overwritten; offline ones keep their
	// last value so a same-category return does not re-notify.
	for _, login := range p.channels {
		if id, ok := current[login]; ok {
			p.state[login] = id
		}
	}
	if err := state.Save(p.statePath, p.state); err != nil {
		return 0, notified, fmt.Errorf("persist state: %w", err)
	}
	return len(current), notified, nil
}

// resolveNames fetches display names for category ids seen for the first time
// this process and merges them into the cache.
func (p *Poller) resolveNames(ctx context.Context, current map[string]string) error {
	seen := map[string]bool{}
	var missing []string
	for _, id := range current {
		if id != "" && !seen[id] {
			seen[id] = true
			if _, ok := p.names[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	names, err := p.api.GetCategoryNames(ctx, missing)
	if err != nil {
		return fmt.Errorf("resolve category names: %w", err)
	}
	for id, name := range names {
		p.names[id] = name
	}
	return nil
}

func (p *Poller) categoryName(id string) string {
	if id == "" {
		return unknownCategory
	}
	if name, ok := p.names[id]; ok && name != "" {
		return name
	}
	return unknownCategory
}

// Status returns a copy of the current poller status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	s.Channels = append([]string(nil), p.status.Channels...)
	return s
}

// sleep waits for the interval in 1-second increments, returning false as soon
// as ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	for remaining := d; remaining > 0; remaining -= time.Second {
		step := time.Second
		if remaining < step {
			step = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(step):
		}
	}
	return ctx.Err() == nil
}
