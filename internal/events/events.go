// Package events announces point lifecycle changes to a message broker.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecoleta/ecoleta/internal/model"
)

// Event types.
const (
	TypePointCreated = "point.created"
	TypePointDeleted = "point.deleted"
)

const eventVersion = "1.0.0"

// DefaultTimeout bounds a single publish. Events go out after the database
// commit, so a slow broker must not hold the HTTP response much longer.
const DefaultTimeout = 3 * time.Second

// Event is the JSON envelope sent to the broker.
type Event struct {
	ID        string         `json:"event_id"`
	Type      string         `json:"event_type"`
	Version   string         `json:"event_version"`
	Timestamp string         `json:"timestamp"`
	Key       string         `json:"-"`
	Payload   map[string]any `json:"payload"`
}

// Sink delivers encoded events to a broker.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}

// Publisher builds point events and hands them to a Sink.
type Publisher struct {
	// Timeout bounds each Send. Zero means no limit beyond the caller's context.
	Timeout time.Duration

	sink Sink
	now  func() time.Time
}

// NewPublisher returns a Publisher writing to sink. A nil sink discards events.
func NewPublisher(sink Sink) *Publisher {
	if sink == nil {
		sink = Nop{}
	}
	return &Publisher{Timeout: DefaultTimeout, sink: sink, now: time.Now}
}

// PointCreated announces a new point and the items it accepts.
func (p *Publisher) PointCreated(ctx context.Context, point model.Point, itemIDs []int64) error {
	return p.publish(ctx, TypePointCreated, point.ID, map[string]any{
		"point_id":  point.ID,
		"name":      point.Name,
		"city":      point.City,
		"state":     point.State,
		"latitude":  point.Latitude,
		"longitude": point.Longitude,
		"items":     itemIDs,
	})
}

// PointDeleted announces that a point was removed.
func (p *Publisher) PointDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TypePointDeleted, id, map[string]any{
		"point_id": id,
	})
}

// Close releases the sink.
func (p *Publisher) Close() error {
	return p.sink.Close()
}

func (p *Publisher) publish(ctx context.Context, eventType string, pointID int64, payload map[string]any) error {
	e := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Version:   eventVersion,
		Timestamp: p.now().UTC().Format(time.RFC3339),
		Key:       strconv.FormatInt(pointID, 10),
		Payload:   payload,
	}
	// The write already committed; a client hanging up must not cancel the
	// announcement, but the publish still gets its own deadline.
	ctx = context.WithoutCancel(ctx)
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	if err := p.sink.Send(ctx, e); err != nil {
		return fmt.Errorf("publishing %s: %w", eventType, err)
	}
	slog.Debug("event published", "event_id", e.ID, "event_type", e.Type, "point_id", pointID)
	return nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Send(context.Context, Event) error { return nil }
func (Nop) Close() error                      { return nil }

// Recorder keeps events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Send(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
