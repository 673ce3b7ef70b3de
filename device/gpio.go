// Package device drives the Raspberry Pi peripherals: an RGB status LED, a
// push button and an HC-SR04 style ultrasonic ranger.
package device

import (
	"io"

	"github.com/barnybug/ener314/rpio"
	"github.com/pkg/errors"
)

// InputPin is satisfied by rpio.Pin configured as an input.
type InputPin interface {
	Read() rpio.State
}

// OutputPin is satisfied by rpio.Pin configured as an output.
type OutputPin interface {
	Write(rpio.State)
}

type gpio struct{}

func (gpio) Close() error {
	return rpio.Close()
}

// Open maps /dev/gpiomem. The returned closer unmaps it.
func Open() (io.Closer, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "couldn't open /dev/gpiomem")
	}
	return gpio{}, nil
}

// Input configures BCM pin n as an input with the internal pull-up enabled,
// so a button wired to ground reads Low while pressed.
func Input(n int) rpio.Pin {
	pin := rpio.Pin(n)
	pin.Input()
	pin.PullUp()
	return pin
}

// FloatingInput configures BCM pin n as an input with no pull resistor.
func FloatingInput(n int) rpio.Pin {
	pin := rpio.Pin(n)
	pin.Input()
	pin.PullOff()
	return pin
}

// Output configures BCM pin n as an output, driven low.
func Output(n int) rpio.Pin {
	pin := rpio.Pin(n)
	pin.Output()
	pin.Write(rpio.Low)
	return pin
}
