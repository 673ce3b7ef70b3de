package device

import (
	"fmt"
	"sync"

	"github.com/barnybug/ener314/rpio"
)

// Color of the RGB LED. Each channel is either fully on or off.
type Color struct {
	R, G, B bool
}

var (
	Off   = Color{}
	Red   = Color{R: true}
	Green = Color{G: true}
	Blue  = Color{B: true}
)

func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("rgb(%v,%v,%v)", c.R, c.G, c.B)
}

func state(on bool) rpio.State {
	if on {
		return rpio.High
	}
	return rpio.Low
}

// RGBLED is a three channel LED, common cathode, one GPIO per channel.
type RGBLED struct {
	R, G, B OutputPin

	l     sync.Mutex
	color Color
}

func NewRGBLED(r, g, b OutputPin) *RGBLED {
	return &RGBLED{R: r, G: g, B: b}
}

// SetColor drives all three channels.
func (l *RGBLED) SetColor(c Color) error {
	l.l.Lock()
	defer l.l.Unlock()
	l.R.Write(state(c.R))
	l.G.Write(state(c.G))
	l.B.Write(state(c.B))
	l.color = c
	return nil
}

// Color returns the last color set.
func (l *RGBLED) Color() Color {
	l.l.Lock()
	defer l.l.Unlock()
	return l.color
}
