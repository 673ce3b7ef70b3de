// Package trigger turns hardware inputs into activation events and hands
// them to a single handler.
package trigger

import (
	"context"
	"errors"
	"time"
)

// DefaultPollInterval is how often polled inputs are sampled.
const DefaultPollInterval = 50 * time.Millisecond

// ErrBusy is returned by a Handler that dropped an event because it was
// still handling a previous one.
var ErrBusy = errors.New("busy")

// Event is the single notification produced by every Source.
type Event struct {
	Source string
	Time   time.Time
}

func NewEvent(source string) Event {
	return Event{Source: source, Time: time.Now()}
}

// Source produces activation events until ctx is done.
type Source interface {
	Name() string
	Run(ctx context.Context, events chan<- Event) error
}

// Armer is implemented by sources that sample their initial state before
// running, so that a change right after arming is not missed.
type Armer interface {
	Arm()
}

// Handler acts on an event.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func interval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPollInterval
	}
	return d
}
