package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration fields are plain strings in the config file ("30s", "5m") and
// parsed on demand. name is the dotted field path for error messages, e.g.
// "reminders.tick".

// DurationField parses a duration string. Empty means unset and parses to
// zero; negative durations are rejected.
func DurationField(name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: bad duration %q: %w", name, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", name, raw)
	}
	return d, nil
}

// DurationFieldOr is DurationField with a fallback for unset fields.
func DurationFieldOr(name, raw string, def time.Duration) (time.Duration, error) {
	d, err := DurationField(name, raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
