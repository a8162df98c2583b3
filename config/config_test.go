package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TWITCH_CLIENT_ID", "cid")
	t.Setenv("TWITCH_CLIENT_SECRET", "secret")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example/webhook")
	t.Setenv("STREAMERS", "alice,bob")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("STATE_FILE", "")
	t.Setenv("HTTP_ADDR", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, DefaultPollInterval)
	}
	if cfg.StateFile != DefaultStateFile {
		t.Errorf("StateFile = %q, want %q", cfg.StateFile, DefaultStateFile)
	}
	if cfg.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, DefaultHTTPAddr)
	}
	if len(cfg.Streamers) != 2 || cfg.Streamers[0] != "alice" || cfg.Streamers[1] != "bob" {
		t.Errorf("Streamers = %v, want [alice bob]", cfg.Streamers)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("TWITCH_CLIENT_SECRET", "")
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	_, err := Load()
	if err == nil {
		t.Fatal("Load() = nil error, want missing-env error")
	}
	for _, name := range []string{"TWITCH_CLIENT_SECRET", "DISCORD_WEBHOOK_URL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
	if strings.Contains(err.Error(), "TWITCH_CLIENT_ID") {
		t.Errorf("error %q names TWITCH_CLIENT_ID, which is set", err)
	}
}

func TestLoadEmptyStreamerList(t *testing.T) {
	setRequired(t)
	t.Setenv("STREAMERS", " , ,, ")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "STREAMERS") {
		t.Errorf("Load() error = %v, want one naming STREAMERS", err)
	}
}

func TestLoadPollInterval(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{name: "override", value: "300", want: 300 * time.Second},
		{name: "not a number", value: "5m", wantErr: true},
		{name: "zero", value: "0", wantErr: true},
		{name: "negative", value: "-10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("POLL_INTERVAL", tt.value)
			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Load() = nil error, want error for POLL_INTERVAL=%q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.PollInterval != tt.want {
				t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, tt.want)
			}
		})
	}
}

func TestParseStreamers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "plain", raw: "alice,bob", want: []string{"alice", "bob"}},
		{name: "mixed case and spaces", raw: " Alice , BOB ", want: []string{"alice", "bob"}},
		{name: "empty entries dropped", raw: "alice,,bob,", want: []string{"alice", "bob"}},
		{name: "empty input", raw: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStreamers(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseStreamers(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseStreamers(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}
