// Package twitchapi contains minimal helpers to interact with Twitch Helix APIs
// for live stream status and category (game) metadata, using an app access token.
package twitchapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/onnwee/category-notifier/telemetry"
)

const (
	streamsURL = "https://api.twitch.tv/helix/streams"
	gamesURL   = "https://api.twitch.tv/helix/games"

	// maxIDsPerRequest is the Helix limit on id filters per games request.
	maxIDsPerRequest = 100
)

// defaultHTTPClient bounds every upstream call. The poll loop is single
// threaded, so an endpoint that accepts the connection and then stalls would
// otherwise wedge the whole process.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Stream is one currently-live broadcast of a monitored channel.
type Stream struct {
	UserLogin string `json:"user_login"`
	GameID    string `json:"game_id"`
}

// HelixClient provides the two lookups the poller needs.
type HelixClient struct {
	AppTokenSource *TokenSource
	HTTPClient     *http.Client

	// rateLimitBackoff is the pause before the single retry on a 429.
	// Zero means the default of 30 seconds.
	rateLimitBackoff time.Duration
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return defaultHTTPClient
}

func (hc *HelixClient) backoff() time.Duration {
	if hc.rateLimitBackoff > 0 {
		return hc.rateLimitBackoff
	}
	return 30 * time.Second
}

// GetStreams returns the live streams among the given logins, one request with
// repeated user_login filters. Empty input returns nil without a network call.
// A 429 is retried exactly once after a pause; any other non-success status
// (or a second 429) returns a *PlatformError.
func (hc *HelixClient) GetStreams(ctx context.Context, logins []string) ([]Stream, error) {
	if len(logins) == 0 {
		return nil, nil
	}
	q := url.Values{}
	for _, login := range logins {
		q.Add("user_login", login)
	}
	resp, err := hc.get(ctx, streamsURL, q)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		closeBody(resp)
		slog.Warn("rate limited by twitch, backing off", slog.Duration("pause", hc.backoff()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(hc.backoff()):
		}
		if resp, err = hc.get(ctx, streamsURL, q); err != nil {
			return nil, err
		}
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &PlatformError{Endpoint: "streams", Status: resp.StatusCode, Body: snippet(b)}
	}
	var body struct {
		Data []Stream `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// GetCategoryNames resolves category ids to display names, batching into
// requests of at most 100 ids and merging the results. Empty input returns an
// empty map without a network call.
func (hc *HelixClient) GetCategoryNames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerRequest {
		end := min(start+maxIDsPerRequest, len(ids))
		q := url.Values{}
		for _, id := range ids[start:end] {
			q.Add("id", id)
		}
		resp, err := hc.get(ctx, gamesURL, q)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			closeBody(resp)
			return nil, &PlatformError{Endpoint: "games", Status: resp.StatusCode, Body: snippet(b)}
		}
		var body struct {
			Data []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
		}
		err = json.NewDecoder(resp.Body).Decode(&body)
		closeBody(resp)
		if err != nil {
			return nil, err
		}
		for _, g := range body.Data {
			out[g.ID] = g.Name
		}
	}
	return out, nil
}

// get issues an authenticated GET; the caller owns the response body.
func (hc *HelixClient) get(ctx context.Context, rawURL string, q url.Values) (*http.Response, error) {
	clientID, bearer, err := hc.AppTokenSource.AuthHeaders(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", clientID)
	req.Header.Set("Authorization", bearer)
	telemetry.IncHelixRequests()
	return hc.http().Do(req)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}
