package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tradeflow/internal/core/domain/model/events"
)

// Reactor reacts to one lifecycle event.
type Reactor interface {
	Handle(ctx context.Context, event events.Event) error
}

// ReactorFunc adapts a plain function to Reactor.
type ReactorFunc func(ctx context.Context, event events.Event) error

func (f ReactorFunc) Handle(ctx context.Context, event events.Event) error {
	return f(ctx, event)
}

// FailureObserver is told about every reactor failure, e.g. to count it.
type FailureObserver interface {
	ObserveFailure(failure events.Failure)
}

type registration struct {
	name    string
	reactor Reactor
}

// EventDispatcher routes events to reactors by kind.
//
// Example:
//
//	dispatcher := NewEventDispatcher(logger)
//	dispatcher.Register(events.PaymentEscrowFunded, "ledger", ledger)
//	failures := dispatcher.Dispatch(ctx, evs...)
type EventDispatcher struct {
	mu        sync.RWMutex
	reactors  map[events.Kind][]registration
	observers []FailureObserver
	logger    *slog.Logger
}

// NewEventDispatcher creates a dispatcher with no reactors. Observers are
// told about every reactor failure.
func NewEventDispatcher(logger *slog.Logger, observers ...FailureObserver) *EventDispatcher {
	return &EventDispatcher{
		reactors:  make(map[events.Kind][]registration),
		observers: observers,
		logger:    logger.With("component", "event_dispatcher"),
	}
}

// Register appends reactor to the list for kind. Registration normally
// happens once in the composition root.
func (d *EventDispatcher) Register(kind events.Kind, name string, reactor Reactor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reactors[kind] = append(d.reactors[kind], registration{name: name, reactor: reactor})
}

// Dispatch delivers events in order; within one event, reactors run in
// registration order. Errors and panics are collected, never propagated.
func (d *EventDispatcher) Dispatch(ctx context.Context, evs ...events.Event) []events.Failure {
	var failures []events.Failure

	for _, ev := range evs {
		d.mu.RLock()
		regs := append([]registration(nil), d.reactors[ev.Kind]...)
		d.mu.RUnlock()

		for _, reg := range regs {
			if err := d.invoke(ctx, reg.reactor, ev); err != nil {
				failure := events.Failure{Kind: ev.Kind, Reactor: reg.name, Err: err}
				failures = append(failures, failure)

				d.logger.ErrorContext(ctx, "Reactor failed",
					"event", string(ev.Kind),
					"reactor", reg.name,
					"order_id", ev.Order.ID.String(),
					"error", err,
				)
				for _, o := range d.observers {
					o.ObserveFailure(failure)
				}
			}
		}
	}

	return failures
}

func (d *EventDispatcher) invoke(ctx context.Context, r Reactor, ev events.Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reactor panicked: %v", p)
		}
	}()
	return r.Handle(ctx, ev)
}
