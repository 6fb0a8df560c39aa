package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"koox.dev/busrouter/internal/logging"
)

// StopsChangedSubject carries StopsChanged messages between instances.
const StopsChangedSubject = "busrouter.stops.changed"

// Actions carried in StopsChanged.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionImport = "import"
)

// StopsChanged announces that the stored dataset was edited.
type StopsChanged struct {
	Instance  string    `json:"instance"`
	Action    string    `json:"action"`
	StopID    int       `json:"stopId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher announces dataset changes to other instances.
type Publisher interface {
	PublishStopsChanged(ctx context.Context, msg StopsChanged) error
	Close()
}

// PublisherMetrics is implemented by metrics.Collector.
type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// NoopPublisher is used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishStopsChanged(context.Context, StopsChanged) error { return nil }
func (NoopPublisher) Close()                                                  {}

// NATSBus publishes and receives StopsChanged messages. Messages published
// by this instance are ignored on receipt.
type NATSBus struct {
	nc       *nats.Conn
	instance string
	metrics  PublisherMetrics
	logger   *slog.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSBus(url string, m PublisherMetrics) (*NATSBus, error) {
	logger := slog.Default().With(slog.String("component", "nats_bus"))

	nc, err := nats.Connect(url,
		nats.Name("busrouter"),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logging.LogError(logger, "nats_disconnected", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logging.LogOperation(logger, "nats_reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logging.LogOperation(logger, "nats_closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return newBus(nc, m, logger), nil
}

func newBus(nc *nats.Conn, m PublisherMetrics, logger *slog.Logger) *NATSBus {
	return &NATSBus{nc: nc, instance: uuid.NewString(), metrics: m, logger: logger}
}

// Instance identifies this process in published messages.
func (b *NATSBus) Instance() string { return b.instance }

func (b *NATSBus) PublishStopsChanged(_ context.Context, msg StopsChanged) error {
	msg.Instance = b.instance
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	start := time.Now()
	err = b.nc.Publish(StopsChangedSubject, data)
	if b.metrics != nil {
		b.metrics.PublishObserve(time.Since(start))
		if err != nil {
			b.metrics.NATSPublishErrInc()
		} else {
			b.metrics.NATSPublishedInc()
		}
	}
	return err
}

// SubscribeStopsChanged calls fn for every change announced by another
// instance.
func (b *NATSBus) SubscribeStopsChanged(fn func(StopsChanged)) error {
	sub, err := b.nc.Subscribe(StopsChangedSubject, func(m *nats.Msg) {
		b.handle(m.Data, fn)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", StopsChangedSubject, err)
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return nil
}

func (b *NATSBus) handle(data []byte, fn func(StopsChanged)) {
	var msg StopsChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.LogError(b.logger, "invalid_stops_changed_message", err)
		return
	}
	if msg.Instance == b.instance {
		return
	}
	fn(msg)
}

func (b *NATSBus) Close() {
	b.mu.Lock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	b.mu.Unlock()

	if b.nc != nil {
		_ = b.nc.Drain()
		b.nc.Close()
	}
}
