package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Reminders controls the scheduling core (tick cadence, timezone, bounds).
	Reminders ReminderConfig `json:"reminders"`

	Storage StorageConfig `json:"storage"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
	// RatePerSec caps outgoing sends across all destinations.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ReminderConfig controls the reminder scheduler.
//
// All durations are Go duration strings (e.g. "30s", "10s", "24h").
//
// Defaults (when fields are omitted/zero):
//   - tick: "30s"
//   - delivery_timeout: "10s"
//   - retention: "24h" (prune window for triggered one-shots at load)
//   - timezone: process local time
type ReminderConfig struct {
	Tick            string `json:"tick,omitempty"`
	DeliveryTimeout string `json:"delivery_timeout,omitempty"`
	Retention       string `json:"retention,omitempty"`

	// Timezone is an IANA TZ name, e.g. "Asia/Jakarta".
	Timezone string `json:"timezone,omitempty"`

	// MaxListed caps how many entries a list command renders.
	MaxListed int `json:"max_listed,omitempty"`
}

// StorageConfig controls the persistence layer backing the reminder store.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./reminders.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Validate rejects configs the app cannot start (or keep running) with.
// It is also the hot-reload gate: a config failing here is never published.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if _, err := DurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if c.Telegram.RatePerSec < 0 {
		return errors.New("telegram.rate_per_sec must be >= 0")
	}
	if _, err := DurationField("reminders.tick", c.Reminders.Tick); err != nil {
		return err
	}
	if _, err := DurationField("reminders.delivery_timeout", c.Reminders.DeliveryTimeout); err != nil {
		return err
	}
	if _, err := DurationField("reminders.retention", c.Reminders.Retention); err != nil {
		return err
	}
	if tz := strings.TrimSpace(c.Reminders.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("reminders.timezone: invalid zone %q: %w", tz, err)
		}
	}
	if c.Reminders.MaxListed < 0 {
		return errors.New("reminders.max_listed must be >= 0")
	}
	if _, err := DurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	return nil
}

// Tick returns the scheduler tick with the 30s default applied.
func (c ReminderConfig) TickOrDefault() time.Duration {
	d, err := DurationFieldOr("reminders.tick", c.Tick, 30*time.Second)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DeliveryTimeoutOrDefault returns the per-delivery timeout with the 10s default.
func (c ReminderConfig) DeliveryTimeoutOrDefault() time.Duration {
	d, err := DurationFieldOr("reminders.delivery_timeout", c.DeliveryTimeout, 10*time.Second)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// RetentionOrDefault returns the triggered one-shot prune window (default 24h).
func (c ReminderConfig) RetentionOrDefault() time.Duration {
	d, err := DurationFieldOr("reminders.retention", c.Retention, 24*time.Hour)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// Location resolves the configured timezone, falling back to local time.
func (c ReminderConfig) Location() *time.Location {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}
