package twitchapi

import "fmt"

// AuthError reports a failed app access token request. The whole poll cycle
// aborts on it and retries at the next interval.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("twitch token request failed: status %d: %s", e.Status, e.Body)
}

// PlatformError reports a non-success response from a Helix endpoint,
// including a 429 that persisted through the single retry.
type PlatformError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("twitch %s request failed: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// snippet truncates a response body for inclusion in error messages.
func snippet(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
