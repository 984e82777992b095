// Package notify announces finished publish runs on NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitetree/internal/foundation/errors"
	"git.home.luguber.info/inful/sitetree/internal/logfields"
)

// PublishedEvent is the message body sent after a successful publish.
type PublishedEvent struct {
	BuildID     string    `json:"build_id"`
	Output      string    `json:"output"`
	Pages       int       `json:"pages"`
	Assets      int       `json:"assets"`
	BrokenLinks int       `json:"broken_links"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notifier receives publish results.
type Notifier interface {
	Published(ctx context.Context, event PublishedEvent) error
	Close() error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Published(context.Context, PublishedEvent) error { return nil }
func (Nop) Close() error                                    { return nil }

// publisher is the slice of *nats.Conn the notifier needs.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes PublishedEvent messages as JSON on a subject.
type NATSNotifier struct {
	conn    publisher
	subject string
}

// NewNATSNotifier connects to url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("sitetree"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").WithCause(err).WithContext("url", url).Build()
	}
	slog.Info("NATS notifier connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// Published sends the event and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Published(ctx context.Context, event PublishedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal published event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.NetworkError("failed to publish notification").WithCause(err).WithContext("subject", n.subject).Build()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.NetworkError("failed to flush notification").WithCause(err).WithContext("subject", n.subject).Build()
	}
	slog.Debug("Published notification", logfields.BuildID(event.BuildID), slog.String("subject", n.subject))
	return nil
}

// Close drops the connection.
func (n *NATSNotifier) Close() error {
	n.conn.Close()
	return nil
}
