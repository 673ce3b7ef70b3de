package device

import (
	"errors"
	"time"

	"github.com/barnybug/ener314/rpio"
)

// SpeedOfSound in dry air at 20C, metres per second.
const SpeedOfSound = 343.26

// ErrNoEcho is returned when the sensor never raised its echo line.
var ErrNoEcho = errors.New("no echo from ultrasonic sensor")

// ErrEchoStuck is returned when the echo line never fell before a ping.
var ErrEchoStuck = errors.New("ultrasonic echo line stuck high")

// Ultrasonic measures distance with an HC-SR04 style sensor: a 10us pulse on
// Trigger makes the sensor raise Echo for the round-trip time of the ping.
type Ultrasonic struct {
	Trigger OutputPin
	Echo    InputPin

	// MaxDistance caps readings, in metres. Echoes longer than the round trip
	// to MaxDistance are reported as MaxDistance.
	MaxDistance float64

	// EchoTimeout bounds each wait on the echo line.
	EchoTimeout time.Duration
}

func NewUltrasonic(trigger OutputPin, echo InputPin, maxDistance float64) *Ultrasonic {
	return &Ultrasonic{
		Trigger:     trigger,
		Echo:        echo,
		MaxDistance: maxDistance,
		EchoTimeout: 50 * time.Millisecond,
	}
}

func (u *Ultrasonic) maxEcho() time.Duration {
	return time.Duration(2 * u.MaxDistance / SpeedOfSound * float64(time.Second))
}

func (u *Ultrasonic) waitFor(s rpio.State, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for u.Echo.Read() != s {
		if time.Now().After(deadline) {
			return false
		}
	}
	return true
}

// Distance fires one ping and returns the measured distance in metres. The
// echo line must be low before the ping, otherwise the tail of an earlier
// pulse would be timed as a short echo.
func (u *Ultrasonic) Distance() (float64, error) {
	if !u.waitFor(rpio.Low, u.EchoTimeout) {
		return 0, ErrEchoStuck
	}

	u.Trigger.Write(rpio.High)
	time.Sleep(10 * time.Microsecond)
	u.Trigger.Write(rpio.Low)

	if !u.waitFor(rpio.High, u.EchoTimeout) {
		return 0, ErrNoEcho
	}

	start := time.Now()
	limit := u.maxEcho()
	for u.Echo.Read() == rpio.High {
		if time.Since(start) > limit {
			// Far-range pulses outlast limit; let this one end before the next ping.
			u.waitFor(rpio.Low, u.EchoTimeout)
			return u.MaxDistance, nil
		}
	}

	d := time.Since(start).Seconds() * SpeedOfSound / 2
	if d > u.MaxDistance {
		d = u.MaxDistance
	}
	return d, nil
}
