package transducer

import (
	"fmt"

	"github.com/hargabyte/cevents/internal/channel"
	"github.com/hargabyte/cevents/internal/cst"
	"github.com/hargabyte/cevents/internal/event"
)

// Report is the outcome of Check.
type Report struct {
	Events    int      `json:"events" yaml:"events"`
	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty"`
	Allocated int      `json:"allocated" yaml:"allocated"`
	Problems  []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// OK reports whether the check found no problems.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Check transduces src twice in batch mode and once through a Channel and
// reports any disagreement between the runs or unbalanced Enter/Exit pairs.
// Parse and structural errors are returned as errors, not problems.
func (t *Transducer) Check(src []byte) (*Report, error) {
	return check(func() (*cst.Node, error) { return t.Tree(src) })
}

// CheckFile is Check for the file at path. Parse errors name the file.
func (t *Transducer) CheckFile(path string) (*Report, error) {
	return check(func() (*cst.Node, error) { return t.FileTree(path) })
}

func check(tree func() (*cst.Node, error)) (*Report, error) {
	run := func() ([]event.Event, error) {
		root, err := tree()
		if err != nil {
			return nil, err
		}
		return Events(root)
	}
	first, err := run()
	if err != nil {
		return nil, err
	}
	second, err := run()
	if err != nil {
		return nil, err
	}

	seq := event.Sequence(first)
	r := &Report{Events: len(seq)}
	for _, ev := range seq.Filter(event.ExitFunction) {
		r.Functions = append(r.Functions, ev.Text)
	}

	if !seq.Equal(second) {
		r.Problems = append(r.Problems, "repeated runs produced different events")
	}
	if err := seq.Balanced(); err != nil {
		r.Problems = append(r.Problems, fmt.Sprintf("unbalanced: %v", err))
	}

	var streamed event.Sequence
	ch := channel.New(
		channel.AllocatorFunc(func(n int) []byte { return make([]byte, n) }),
		channel.ReceiverFunc(func(tag, text []byte) error {
			parsed, err := event.ParseTag(string(tag))
			if err != nil {
				return err
			}
			streamed = append(streamed, event.New(parsed, string(text)))
			return nil
		}),
	)
	root, err := tree()
	if err != nil {
		return nil, err
	}
	if err := Emit(root, ch); err != nil {
		return nil, err
	}
	r.Allocated = ch.Stats().Allocations
	if !seq.Equal(streamed) {
		r.Problems = append(r.Problems, "streamed events differ from batch events")
	}
	if want := 2 * len(seq); r.Allocated != want {
		r.Problems = append(r.Problems, fmt.Sprintf("streaming allocated %d buffers, want %d", r.Allocated, want))
	}

	return r, nil
}
