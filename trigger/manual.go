package trigger

import (
	"context"
	"fmt"
	"net/http"
)

// Manual is a Source fed over HTTP, for testing the camera and mail setup
// without touching the sensors.
type Manual struct {
	ID string
	c  chan Event
}

func NewManual(id string) *Manual {
	return &Manual{
		ID: id,
		c:  make(chan Event, 1),
	}
}

func (m *Manual) Name() string {
	return m.ID
}

// Fire queues an event. It returns false if one is already pending.
func (m *Manual) Fire() bool {
	select {
	case m.c <- NewEvent(m.ID):
		return true
	default:
		return false
	}
}

func (m *Manual) Run(ctx context.Context, events chan<- Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.c:
			if !emit(ctx, events, ev) {
				return ctx.Err()
			}
		}
	}
}

// ServeHTTP implements http.Handler interface for manual triggering.
func (m *Manual) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}
	if !m.Fire() {
		http.Error(w, "trigger already pending", http.StatusServiceUnavailable)
		return
	}
	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
