package event

import (
	"fmt"
	"strconv"
)

// Event is one semantically interesting traversal observation.
// Text is empty, a literal operator or keyword spelling, or a reconstructed
// identifier or signature string.
type Event struct {
	Tag  Tag    `json:"tag" yaml:"tag"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// New returns an event for tag carrying text.
func New(tag Tag, text string) Event {
	return Event{Tag: tag, Text: text}
}

// String renders the event as Tag or Tag("text").
func (e Event) String() string {
	if e.Text == "" {
		return e.Tag.String()
	}
	return e.Tag.String() + "(" + strconv.Quote(e.Text) + ")"
}

// Sequence is an ordered list of events in traversal order.
type Sequence []Event

// Filter returns the events whose tag is one of tags, preserving order.
func (s Sequence) Filter(tags ...Tag) Sequence {
	want := make(map[Tag]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out Sequence
	for _, e := range s {
		if want[e.Tag] {
			out = append(out, e)
		}
	}
	return out
}

// Histogram counts events per tag label.
func (s Sequence) Histogram() map[string]int {
	h := make(map[string]int)
	for _, e := range s {
		h[e.Tag.String()]++
	}
	return h
}

// Equal reports whether two sequences hold the same events in the same order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// BalanceError reports the first position where Enter/Exit pairs do not nest.
type BalanceError struct {
	Index int
	Got   Tag
	Want  Tag
}

// Error implements the error interface.
func (e *BalanceError) Error() string {
	if e.Want == TagInvalid {
		return fmt.Sprintf("event %d: %s closes nothing", e.Index, e.Got)
	}
	if e.Got == TagInvalid {
		return fmt.Sprintf("event %d: end of stream, want %s", e.Index, e.Want)
	}
	return fmt.Sprintf("event %d: got %s, want %s", e.Index, e.Got, e.Want)
}

// Balanced checks that EnterCompoundStatement/ExitCompoundStatement and
// EnterFunction/ExitFunction form properly nested pairs.
func (s Sequence) Balanced() error {
	var open []Tag
	for i, e := range s {
		switch {
		case e.Tag.IsEnter():
			open = append(open, e.Tag.Closer())
		case e.Tag.IsExit():
			if len(open) == 0 {
				return &BalanceError{Index: i, Got: e.Tag}
			}
			want := open[len(open)-1]
			if e.Tag != want {
				return &BalanceError{Index: i, Got: e.Tag, Want: want}
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return &BalanceError{Index: len(s), Want: open[len(open)-1]}
	}
	return nil
}
