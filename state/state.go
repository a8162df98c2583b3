// Package state persists the last-seen category id per channel as a JSON file.
// Writes go through a temp sibling plus rename so a killed process can never
// leave a partially-written file behind for the next load.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// Load reads the mapping of channel login to last-seen category id. A missing
// or unparsable file is not an error: monitoring restarts from empty state.
func Load(path string) map[string]string {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not read state file", slog.String("path", path), slog.Any("err", err))
		}
		return map[string]string{}
	}
	m := map[string]string{}
	if err := json.Unmarshal(b, &m); err != nil {
		slog.Warn("could not parse state file, starting from empty state", slog.String("path", path), slog.Any("err", err))
		return map[string]string{}
	}
	return m
}

// Save atomically writes the mapping as a JSON object with sorted keys and
// 2-space indent.
func Save(path string, m map[string]string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
