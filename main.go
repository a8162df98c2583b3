// Command category-notifier polls Twitch Helix for the category (game) of a
// configured set of channels and posts a Discord webhook message whenever one
// of them changes. It:
//   - Loads configuration and initializes structured logging.
//   - Persists last-seen categories to a JSON state file across restarts.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/category-notifier/config"
	"github.com/onnwee/category-notifier/discord"
	"github.com/onnwee/category-notifier/monitor"
	"github.com/onnwee/category-notifier/server"
	"github.com/onnwee/category-notifier/telemetry"
	"github.com/onnwee/category-notifier/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config: missing required env is the only fatal error class.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()
	telemetry.SetMonitoredChannels(len(cfg.Streamers))

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing()
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// One shared client with a request timeout for every upstream: a stalled
	// Helix, token, or webhook endpoint must fail the call, not hang the loop.
	httpClient := &http.Client{Timeout: 30 * time.Second}

	tokens := &twitchapi.TokenSource{
		ClientID:     cfg.TwitchClientID,
		ClientSecret: cfg.TwitchClientSecret,
		HTTPClient:   httpClient,
	}

	// Best-effort token preflight so credential typos show up at boot rather
	// than on the first cycle. Failure is a warning; the loop retries anyway.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		if tok, err := tokens.Get(ctx); err != nil {
			slog.Warn("twitch app token fetch failed", slog.Any("err", err))
		} else if len(tok) > 6 {
			slog.Info("twitch app token acquired", slog.String("tail", "***"+tok[len(tok)-6:]))
		}
		cancel()
	}

	helix := &twitchapi.HelixClient{AppTokenSource: tokens, HTTPClient: httpClient}
	webhook := &discord.Webhook{URL: cfg.DiscordWebhookURL, HTTPClient: httpClient}
	poller := monitor.New(helix, webhook, cfg.Streamers, cfg.PollInterval, cfg.StateFile)

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server (health/status/metrics)
	if cfg.HTTPAddr != "off" {
		go func() {
			if err := server.Start(ctx, poller, cfg.HTTPAddr); err != nil {
				slog.Error("http server exited with error", slog.Any("err", err))
			}
		}()
	}

	// The poll loop owns the main goroutine and returns on signal.
	poller.Run(ctx)
	slog.Info("shutting down", slog.String("state_file", cfg.StateFile))
}
