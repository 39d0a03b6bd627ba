// Package notify publishes finished-build events to NATS so other tooling
// (dashboards, chat hooks) can react to preview rebuilds. Off unless enabled
// in configuration.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when the configuration names none.
const DefaultSubject = "rendar.build.completed"

// Event describes one finished build.
type Event struct {
	BuildID     string    `json:"build_id"`
	Trigger     string    `json:"trigger"` // initial|watch
	Outcome     string    `json:"outcome"` // success|warning|failed
	Pages       int       `json:"pages"`
	Issues      int       `json:"issues"`
	DurationMS  int64     `json:"duration_ms"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher emits build events.
type Publisher interface {
	Publish(ev Event) error
	Close() error
}

// NoopPublisher is the default Publisher. It drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(Event) error { return nil }

func (NoopPublisher) Close() error { return nil }

// NATSPublisher publishes events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url. An empty subject
// falls back to DefaultSubject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url, nats.Name("rendar"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	slog.Debug("NATS publisher connected", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish stamps and sends one event.
func (p *NATSPublisher) Publish(ev Event) error {
	ev.Timestamp = time.Now()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close flushes pending events and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		_ = p.conn.Flush()
		p.conn.Close()
	}
	return nil
}
