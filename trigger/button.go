package trigger

import (
	"context"
	"time"

	"github.com/barnybug/ener314/rpio"

	"picam/device"
)

// Button is an edge-triggered digital input. It fires once per transition
// from released to pressed. The input is active low: wired to ground with
// the internal pull-up enabled.
type Button struct {
	ID           string
	Pin          device.InputPin
	PollInterval time.Duration

	armed, prev bool
}

func NewButton(id string, pin device.InputPin) *Button {
	return &Button{ID: id, Pin: pin}
}

func (b *Button) Name() string {
	return b.ID
}

func (b *Button) pressed() bool {
	return b.Pin.Read() == rpio.Low
}

// Arm takes the initial state. A button held down while arming does not
// fire until it is released and pressed again.
func (b *Button) Arm() {
	b.prev = b.pressed()
	b.armed = true
}

func (b *Button) Run(ctx context.Context, events chan<- Event) error {
	if !b.armed {
		b.Arm()
	}
	ticker := time.NewTicker(interval(b.PollInterval))
	defer ticker.Stop()

	prev := b.prev
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		cur := b.pressed()
		if cur && !prev {
			if !emit(ctx, events, NewEvent(b.ID)) {
				return ctx.Err()
			}
		}
		prev = cur
	}
}
