package gateway

import (
	"context"
	"encoding/json"
	"sync"
)

// Bridge executes a named command on the wallet host and returns its raw JSON reply.
type Bridge interface {
	Invoke(ctx context.Context, command string, args map[string]any) (json.RawMessage, error)
}

// EventSource delivers events pushed by the wallet host.
type EventSource interface {
	Subscribe(ctx context.Context, event string) (*Subscription, error)
}

// Event is a single host-pushed event.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Subscription is a scoped listener on an EventSource. Close must always be called, usually
// with defer, and may be called any number of times.
type Subscription struct {
	events  chan Event
	done    chan struct{}
	once    sync.Once
	release func()
}

// NewSubscription creates a subscription whose release func runs exactly once on Close.
func NewSubscription(buffer int, release func()) *Subscription {
	return &Subscription{
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
		release: release,
	}
}

// C delivers the subscription's events. It is never closed; select on Done as well.
func (s *Subscription) C() <-chan Event {
	return s.events
}

// Done is closed once the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Deliver hands an event to the subscriber, blocking until it is received, the
// subscription is closed or ctx is done. It reports whether the event was delivered.
func (s *Subscription) Deliver(ctx context.Context, ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}
