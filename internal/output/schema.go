package output

import (
	"github.com/hargabyte/cevents/internal/event"
)

// EventsOutput is the event stream of one source.
type EventsOutput struct {
	File      string         `json:"file,omitempty" yaml:"file,omitempty"`
	Count     int            `json:"count" yaml:"count"`
	Histogram map[string]int `json:"histogram,omitempty" yaml:"histogram,omitempty"`
	Events    []event.Event  `json:"events" yaml:"events"`
}

// NewEventsOutput builds the output for a stream. Tags, when given, keep only
// the matching events; the count is taken after filtering.
func NewEventsOutput(file string, seq event.Sequence, histogram bool, tags ...event.Tag) *EventsOutput {
	if len(tags) > 0 {
		seq = seq.Filter(tags...)
	}
	out := &EventsOutput{File: file, Count: len(seq), Events: seq}
	if out.Events == nil {
		out.Events = []event.Event{}
	}
	if histogram {
		out.Histogram = seq.Histogram()
	}
	return out
}

// SignatureEntry is one reconstructed function signature.
type SignatureEntry struct {
	File      string `json:"file" yaml:"file"`
	Signature string `json:"signature" yaml:"signature"`
}

// SignaturesOutput lists function signatures.
type SignaturesOutput struct {
	Count      int              `json:"count" yaml:"count"`
	Signatures []SignatureEntry `json:"signatures" yaml:"signatures"`
}

// CheckEntry is the check result for one file.
type CheckEntry struct {
	File      string   `json:"file" yaml:"file"`
	Status    string   `json:"status" yaml:"status"` // ok, problems, error
	Events    int      `json:"events,omitempty" yaml:"events,omitempty"`
	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty"`
	Problems  []string `json:"problems,omitempty" yaml:"problems,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// CheckOutput summarizes a check run.
type CheckOutput struct {
	Passed int          `json:"passed" yaml:"passed"`
	Failed int          `json:"failed" yaml:"failed"`
	Files  []CheckEntry `json:"files" yaml:"files"`
}

// Add appends an entry and updates the counters.
func (c *CheckOutput) Add(e CheckEntry) {
	if e.Status == "ok" {
		c.Passed++
	} else {
		c.Failed++
	}
	c.Files = append(c.Files, e)
}
