// Package channel hands events from the transducer to a consumer.
//
// Two modes are offered. A Collector accumulates events and gives the whole
// sequence away with Take. A Channel streams: for every event it asks the
// consumer for a tag buffer and a text buffer, fills them, and delivers both.
// From the moment Deliver is called the consumer owns the buffers; the
// channel keeps no reference to them.
package channel

import (
	"errors"
	"fmt"

	"github.com/hargabyte/cevents/internal/event"
)

// ErrOwnership matches every OwnershipError via errors.Is.
var ErrOwnership = errors.New("buffer ownership violation")

// OwnershipError reports an allocation that broke the handoff protocol.
type OwnershipError struct {
	// Op is the buffer being allocated: "tag" or "text".
	Op   string
	Want int
	// Got is the length of the returned buffer, or -1 for nil.
	Got int
}

// Error implements the error interface.
func (e *OwnershipError) Error() string {
	if e.Got < 0 {
		return fmt.Sprintf("allocate %s: nil buffer, want %d bytes", e.Op, e.Want)
	}
	return fmt.Sprintf("allocate %s: buffer of %d bytes, want %d", e.Op, e.Got, e.Want)
}

// Is reports whether target is ErrOwnership.
func (e *OwnershipError) Is(target error) bool {
	return target == ErrOwnership
}

// Allocator provides buffers owned by the consumer.
type Allocator interface {
	Allocate(n int) []byte
}

// AllocatorFunc adapts a function to Allocator.
type AllocatorFunc func(n int) []byte

// Allocate calls f(n).
func (f AllocatorFunc) Allocate(n int) []byte { return f(n) }

// Receiver takes ownership of one event's buffers.
type Receiver interface {
	Deliver(tag, text []byte) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(tag, text []byte) error

// Deliver calls f(tag, text).
func (f ReceiverFunc) Deliver(tag, text []byte) error { return f(tag, text) }

// Releaser is implemented by allocators that want undelivered buffers back.
// The channel releases a tag buffer when the matching text allocation fails,
// so a failed event never leaves a buffer without an owner.
type Releaser interface {
	Release(buf []byte)
}

// Stats counts buffer traffic through a Channel.
type Stats struct {
	Allocations int `json:"allocations" yaml:"allocations"`
	Deliveries  int `json:"deliveries" yaml:"deliveries"`
	Releases    int `json:"releases" yaml:"releases"`
	Bytes       int `json:"bytes" yaml:"bytes"`
}

// Channel streams events through a consumer's allocator and receiver.
// It is not safe for concurrent use.
type Channel struct {
	alloc Allocator
	recv  Receiver
	stats Stats
}

// New returns a streaming channel.
func New(alloc Allocator, recv Receiver) *Channel {
	return &Channel{alloc: alloc, recv: recv}
}

// Emit copies ev into two freshly allocated buffers and delivers them.
// Either both buffers reach the receiver or neither does.
func (c *Channel) Emit(ev event.Event) error {
	if !ev.Tag.Valid() {
		return fmt.Errorf("emit: invalid tag %d", uint8(ev.Tag))
	}
	tag := ev.Tag.String()

	tagBuf, err := c.allocate("tag", len(tag))
	if err != nil {
		return err
	}
	textBuf, err := c.allocate("text", len(ev.Text))
	if err != nil {
		c.release(tagBuf)
		return err
	}

	copy(tagBuf, tag)
	copy(textBuf, ev.Text)
	c.stats.Deliveries++
	c.stats.Bytes += len(tag) + len(ev.Text)
	return c.recv.Deliver(tagBuf[:len(tag)], textBuf[:len(ev.Text)])
}

// Stats returns the traffic counters so far.
func (c *Channel) Stats() Stats {
	return c.stats
}

func (c *Channel) allocate(op string, n int) ([]byte, error) {
	buf := c.alloc.Allocate(n)
	if buf == nil {
		return nil, &OwnershipError{Op: op, Want: n, Got: -1}
	}
	c.stats.Allocations++
	if len(buf) < n {
		c.release(buf)
		return nil, &OwnershipError{Op: op, Want: n, Got: len(buf)}
	}
	return buf, nil
}

func (c *Channel) release(buf []byte) {
	if r, ok := c.alloc.(Releaser); ok {
		r.Release(buf)
		c.stats.Releases++
	}
}
