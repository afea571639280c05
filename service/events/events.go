package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"NeuroQ/logger"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Kind string

const (
	KindSessionOpen  Kind = "session.open"
	KindSessionClose Kind = "session.close"
	KindChatMessage  Kind = "chat.message"
	KindTriage       Kind = "triage.result"
)

// Event is an append-only record of something the core did.
type Event struct {
	ID        string         `json:"id" bson:"_id"`
	Kind      Kind           `json:"kind" bson:"kind"`
	UserID    string         `json:"user_id" bson:"user_id"`
	SessionID any            `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty" bson:"payload,omitempty"`
	Ts        int64          `json:"ts" bson:"ts"` // unix ms
}

func New(kind Kind, userID string, sessionID any, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		SessionID: sessionID,
		Payload:   payload,
		Ts:        time.Now().UnixMilli(),
	}
}

// Sink persists or forwards events. Implementations must be safe for use
// by a single worker goroutine.
type Sink interface {
	Name() string
	Write(ctx context.Context, ev Event) error
}

// Publisher is what producers of events depend on.
type Publisher interface {
	Publish(ev Event) bool
}

type Discard struct{}

func (Discard) Publish(Event) bool { return true }

// Bus fans events out to every sink from one worker goroutine.
// Publish never blocks: a full buffer drops the event.
type Bus struct {
	ch      chan Event
	sinks   []Sink
	timeout time.Duration

	closed  atomic.Bool
	mu      sync.RWMutex // guards ch against send-after-close
	done    chan struct{}
	dropped atomic.Int64
}

func NewBus(buffer int, sinks ...Sink) *Bus {
	if buffer <= 0 {
		buffer = 1024
	}
	b := &Bus{
		ch:      make(chan Event, buffer),
		sinks:   sinks,
		timeout: 3 * time.Second,
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) Publish(ev Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed.Load() {
		return false
	}
	select {
	case b.ch <- ev:
		return true
	default:
		b.dropped.Add(1)
		logger.Warn("[events] buffer full, drop event", zap.String("kind", string(ev.Kind)), zap.String("id", ev.ID))
		return false
	}
}

func (b *Bus) Dropped() int64 { return b.dropped.Load() }

func (b *Bus) run() {
	defer close(b.done)
	for ev := range b.ch {
		if err := b.deliver(ev); err != nil {
			logger.Warn("[events] sink write failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
		}
	}
}

func (b *Bus) deliver(ev Event) error {
	var err error
	for _, s := range b.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if e := s.Write(ctx, ev); e != nil {
			err = multierr.Append(err, e)
		}
		cancel()
	}
	return err
}

// Close stops accepting events and waits for the worker to drain.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed.CompareAndSwap(false, true) {
		close(b.ch)
	}
	b.mu.Unlock()
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
