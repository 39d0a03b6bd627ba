// Package buildlog persists a history of preview builds. The preview server
// appends one record per rebuild and serves the recent history from its
// status endpoint. Disabled unless a log path is configured.
package buildlog

import (
	"context"
	"time"
)

// Triggers recorded on a build.
const (
	TriggerInitial = "initial"
	TriggerWatch   = "watch"
)

// Record is one finished build.
type Record struct {
	ID          string        `json:"id"`
	Trigger     string        `json:"trigger"` // initial|watch
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Outcome     string        `json:"outcome"` // success|warning|failed
	Pages       int           `json:"pages"`
	Issues      int           `json:"issues"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Store defines the interface for persisting and retrieving build records.
type Store interface {
	// Append adds a finished build to the log.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// ByID retrieves one record, nil when absent.
	ByID(ctx context.Context, id string) (*Record, error)

	// Close closes the store and releases resources.
	Close() error
}

// NoopStore is the default Store when no log path is configured.
type NoopStore struct{}

func (NoopStore) Append(context.Context, Record) error { return nil }

func (NoopStore) Recent(context.Context, int) ([]Record, error) { return nil, nil }

func (NoopStore) ByID(context.Context, string) (*Record, error) { return nil, nil }

func (NoopStore) Close() error { return nil }
