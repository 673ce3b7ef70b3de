package trigger

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Ranger reports a distance in metres.
type Ranger interface {
	Distance() (float64, error)
}

// Range is a threshold-triggered distance input. It fires once each time a
// reading enters the near-range: above zero and below Threshold.
type Range struct {
	ID     string
	Sensor Ranger

	// Threshold and MaxDistance in metres. Readings are capped at
	// MaxDistance before comparison.
	Threshold   float64
	MaxDistance float64

	PollInterval time.Duration

	armed, prev bool
}

func NewRange(id string, sensor Ranger, threshold, maxDistance float64) *Range {
	return &Range{
		ID:          id,
		Sensor:      sensor,
		Threshold:   threshold,
		MaxDistance: maxDistance,
	}
}

func (r *Range) Name() string {
	return r.ID
}

// InRange reports whether a reading is inside the near-range window.
func (r *Range) InRange(d float64) bool {
	if r.MaxDistance > 0 && d > r.MaxDistance {
		d = r.MaxDistance
	}
	return d > 0 && d < r.Threshold
}

func (r *Range) sample() (bool, bool) {
	d, err := r.Sensor.Distance()
	if err != nil {
		log.WithField("source", r.ID).Debugf("Distance read failed: %v", err)
		return false, false
	}
	return r.InRange(d), true
}

// Arm takes the initial reading. Something already within range while
// arming does not fire until it leaves and comes back.
func (r *Range) Arm() {
	r.prev, _ = r.sample()
	r.armed = true
}

func (r *Range) Run(ctx context.Context, events chan<- Event) error {
	if !r.armed {
		r.Arm()
	}
	ticker := time.NewTicker(interval(r.PollInterval))
	defer ticker.Stop()

	prev := r.prev
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		cur, ok := r.sample()
		if !ok {
			continue
		}
		if cur && !prev {
			if !emit(ctx, events, NewEvent(r.ID)) {
				return ctx.Err()
			}
		}
		prev = cur
	}
}
