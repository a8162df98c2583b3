// Package config loads environment variables and provides a typed Config used across the service.
// Credentials, the webhook URL, and the streamer list are required; everything else has defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultStateFile is where last-seen categories are persisted when STATE_FILE is unset.
	DefaultStateFile = "state.json"
	// DefaultPollInterval is used when POLL_INTERVAL is unset.
	DefaultPollInterval = 60 * time.Second
	// DefaultHTTPAddr is the ops server bind address; set HTTP_ADDR=off to disable the server.
	DefaultHTTPAddr = ":8080"
)

type Config struct {
	// Twitch app credentials (client-credentials grant)
	TwitchClientID     string
	TwitchClientSecret string

	// Notification sink
	DiscordWebhookURL string

	// Channels to monitor, lower-cased logins
	Streamers []string

	// Polling cadence
	PollInterval time.Duration

	// Persistence
	StateFile string

	// Ops HTTP server ("off" disables)
	HTTPAddr string
}

// Load reads environment variables, applies defaults, and validates required
// settings. It returns an error naming every missing required variable so a
// misconfigured deployment fails once with the full picture.
func Load() (*Config, error) {
	cfg := &Config{
		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		DiscordWebhookURL:  os.Getenv("DISCORD_WEBHOOK_URL"),
		Streamers:          ParseStreamers(os.Getenv("STREAMERS")),
		PollInterval:       DefaultPollInterval,
		StateFile:          DefaultStateFile,
		HTTPAddr:           DefaultHTTPAddr,
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: want a positive integer of seconds", v)
		}
		cfg.PollInterval = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	var missing []string
	if cfg.TwitchClientID == "" {
		missing = append(missing, "TWITCH_CLIENT_ID")
	}
	if cfg.TwitchClientSecret == "" {
		missing = append(missing, "TWITCH_CLIENT_SECRET")
	}
	if cfg.DiscordWebhookURL == "" {
		missing = append(missing, "DISCORD_WEBHOOK_URL")
	}
	if len(cfg.Streamers) == 0 {
		missing = append(missing, "STREAMERS")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// ParseStreamers splits a comma-separated login list, trimming whitespace,
// lower-casing entries, and dropping empty ones.
func ParseStreamers(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		login := strings.ToLower(strings.TrimSpace(part))
		if login != "" {
			out = append(out, login)
		}
	}
	return out
}
