package device

import (
	"sync"
	"testing"
	"time"

	"github.com/barnybug/ener314/rpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBLED(t *testing.T) {
	r, g, b := NewFakePin(rpio.Low), NewFakePin(rpio.Low), NewFakePin(rpio.Low)
	led := NewRGBLED(r, g, b)

	require.NoError(t, led.SetColor(Red))
	assert.Equal(t, rpio.High, r.Read())
	assert.Equal(t, rpio.Low, g.Read())
	assert.Equal(t, rpio.Low, b.Read())
	assert.Equal(t, Red, led.Color())

	require.NoError(t, led.SetColor(Green))
	assert.Equal(t, rpio.Low, r.Read())
	assert.Equal(t, rpio.High, g.Read())
	assert.Equal(t, Green, led.Color())
	assert.Equal(t, []rpio.State{rpio.High, rpio.Low}, r.Writes())
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "red", Red.String())
	assert.Equal(t, "green", Green.String())
	assert.Equal(t, "off", Off.String())
	assert.Equal(t, "rgb(true,true,false)", Color{R: true, G: true}.String())
}

// echo simulates the sensor: after the trigger pulse ends, the echo line
// goes high after delay and stays high for width.
type echo struct {
	delay, width time.Duration
	silent       bool
	// stale holds the line high until then, as left by an earlier ping.
	stale time.Time

	l     sync.Mutex
	pulse time.Time
}

func (e *echo) Write(s rpio.State) {
	if s == rpio.Low {
		e.l.Lock()
		e.pulse = time.Now()
		e.l.Unlock()
	}
}

func (e *echo) Read() rpio.State {
	e.l.Lock()
	defer e.l.Unlock()
	if time.Now().Before(e.stale) {
		return rpio.High
	}
	if e.silent || e.pulse.IsZero() {
		return rpio.Low
	}
	since := time.Since(e.pulse)
	if since >= e.delay && since < e.delay+e.width {
		return rpio.High
	}
	return rpio.Low
}

func roundTrip(metres float64) time.Duration {
	return time.Duration(2 * metres / SpeedOfSound * float64(time.Second))
}

func TestUltrasonicDistance(t *testing.T) {
	e := &echo{delay: 100 * time.Microsecond, width: roundTrip(1.0)}
	u := NewUltrasonic(e, e, 2)

	d, err := u.Distance()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 0.25)
}

func TestUltrasonicClampsToMax(t *testing.T) {
	e := &echo{delay: 100 * time.Microsecond, width: roundTrip(5)}
	u := NewUltrasonic(e, e, 2)

	d, err := u.Distance()
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)
	// The overlong pulse has ended, so the next ping starts clean.
	assert.Equal(t, rpio.Low, e.Read())
}

func TestUltrasonicNoEcho(t *testing.T) {
	e := &echo{silent: true}
	u := NewUltrasonic(e, e, 2)
	u.EchoTimeout = 5 * time.Millisecond

	_, err := u.Distance()
	assert.Equal(t, ErrNoEcho, err)
}

func TestUltrasonicWaitsOutStaleEcho(t *testing.T) {
	e := &echo{silent: true, stale: time.Now().Add(2 * time.Millisecond)}
	u := NewUltrasonic(e, e, 2)
	u.EchoTimeout = 10 * time.Millisecond

	// The leftover pulse must not be read as a near object.
	d, err := u.Distance()
	assert.Equal(t, ErrNoEcho, err)
	assert.Zero(t, d)
}

func TestUltrasonicEchoStuckHigh(t *testing.T) {
	e := &echo{stale: time.Now().Add(time.Second)}
	u := NewUltrasonic(e, e, 2)
	u.EchoTimeout = 5 * time.Millisecond

	_, err := u.Distance()
	assert.Equal(t, ErrEchoStuck, err)
	assert.True(t, e.pulse.IsZero(), "pinged while echo was high")
}
