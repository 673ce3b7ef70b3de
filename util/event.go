package util

import (
	"sync"
)

// Event is a one-shot broadcast: once notified it stays notified and every
// waiter, present or future, is released.
type Event struct {
	once sync.Once
	c    chan struct{}
}

func NewEvent() *Event {
	return &Event{
		c: make(chan struct{}),
	}
}

func (e *Event) Notify() {
	e.once.Do(func() { close(e.c) })
}

func (e *Event) Wait() {
	<-e.c
}

// C is closed when the event is notified, for use in select.
func (e *Event) C() <-chan struct{} {
	return e.c
}

func (e *Event) HasBeenNotified() bool {
	select {
	case <-e.c:
		return true
	default:
		return false
	}
}
