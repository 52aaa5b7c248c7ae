// Package event fans committed board events out to in-process subscribers.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// Subscriber receives board events after the change that produced them has
// committed.
type Subscriber interface {
	Handle(ctx context.Context, e domain.BoardEvent) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, e domain.BoardEvent) error

func (f SubscriberFunc) Handle(ctx context.Context, e domain.BoardEvent) error { return f(ctx, e) }

type namedSubscriber struct {
	name string
	sub  Subscriber
}

// Dispatcher delivers events to every registered subscriber in registration
// order. A failing or panicking subscriber is logged and skipped; it never
// affects other subscribers or the caller.
type Dispatcher struct {
	mu   sync.RWMutex
	subs []namedSubscriber
	log  *slog.Logger
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(log *slog.Logger) *Dispatcher {
	return &Dispatcher{log: log.With("component", "event_dispatcher")}
}

// Subscribe registers s under name.
func (d *Dispatcher) Subscribe(name string, s Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, namedSubscriber{name: name, sub: s})
}

// Dispatch delivers events in order and returns the number of failed
// deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...domain.BoardEvent) int {
	d.mu.RLock()
	subs := d.subs
	d.mu.RUnlock()

	var failed int
	for _, e := range events {
		for _, s := range subs {
			if err := deliver(ctx, s.sub, e); err != nil {
				failed++
				d.log.ErrorContext(ctx, "subscriber failed",
					slog.String("subscriber", s.name),
					slog.String("event_id", e.ID.String()),
					slog.String("kind", string(e.Kind)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return failed
}

func deliver(ctx context.Context, s Subscriber, e domain.BoardEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Handle(ctx, e)
}

// LogSubscriber writes one structured log line per event.
func LogSubscriber(log *slog.Logger) Subscriber {
	return SubscriberFunc(func(ctx context.Context, e domain.BoardEvent) error {
		attrs := []any{
			slog.String("event_id", e.ID.String()),
			slog.String("kind", string(e.Kind)),
			slog.String("project_id", e.ProjectID.String()),
			slog.String("card_id", e.CardID.String()),
			slog.String("lane", string(e.Lane)),
			slog.String("status", string(e.Status)),
		}
		if e.ActorID != nil {
			attrs = append(attrs, slog.String("actor_id", e.ActorID.String()))
		}
		log.InfoContext(ctx, "board event", attrs...)
		return nil
	})
}
