package device

import (
	"sync"

	"github.com/barnybug/ener314/rpio"
)

// FakePin is an in-memory pin for running without GPIO hardware.
type FakePin struct {
	l      sync.Mutex
	state  rpio.State
	writes []rpio.State
}

func NewFakePin(initial rpio.State) *FakePin {
	return &FakePin{state: initial}
}

func (p *FakePin) Read() rpio.State {
	p.l.Lock()
	defer p.l.Unlock()
	return p.state
}

func (p *FakePin) Write(s rpio.State) {
	p.l.Lock()
	defer p.l.Unlock()
	p.state = s
	p.writes = append(p.writes, s)
}

// Set changes the level seen by Read without recording a write.
func (p *FakePin) Set(s rpio.State) {
	p.l.Lock()
	defer p.l.Unlock()
	p.state = s
}

// Writes returns every level written so far.
func (p *FakePin) Writes() []rpio.State {
	p.l.Lock()
	defer p.l.Unlock()
	return append([]rpio.State(nil), p.writes...)
}
