package channel

import (
	"errors"

	"github.com/hargabyte/cevents/internal/event"
)

// ErrTaken is returned by Emit once the collected events were taken.
var ErrTaken = errors.New("collector: events already taken")

// Collector accumulates events for batch handoff.
type Collector struct {
	events []event.Event
	taken  bool
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit appends ev.
func (c *Collector) Emit(ev event.Event) error {
	if c.taken {
		return ErrTaken
	}
	c.events = append(c.events, ev)
	return nil
}

// Take moves the collected events out. The caller owns the returned slice;
// the collector forgets it and rejects further events.
func (c *Collector) Take() []event.Event {
	out := c.events
	c.events = nil
	c.taken = true
	return out
}
