// Package transducer turns a C syntax tree into an ordered event sequence.
//
// The tree is walked depth-first. Every node is offered to Classify once on
// the way down and once on the way up; the events it returns are handed to a
// Sink in that order. Only a small, fixed subset of the grammar produces
// events; everything else is silent.
package transducer

import (
	"github.com/hargabyte/cevents/internal/channel"
	"github.com/hargabyte/cevents/internal/cst"
	"github.com/hargabyte/cevents/internal/event"
	"github.com/hargabyte/cevents/internal/parser"
)

// Sink receives events in traversal order.
type Sink interface {
	Emit(ev event.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev event.Event) error

// Emit calls f(ev).
func (f SinkFunc) Emit(ev event.Event) error { return f(ev) }

// Emit walks root and sends every event to sink. The first classifier or
// sink error stops the walk.
func Emit(root *cst.Node, sink Sink) error {
	return Walk(root, func(n *cst.Node, p Phase) error {
		ev, ok, err := Classify(n, p)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return sink.Emit(ev)
	})
}

// Events returns the full event sequence for root. The slice is owned by the
// caller.
func Events(root *cst.Node) ([]event.Event, error) {
	c := channel.NewCollector()
	if err := Emit(root, c); err != nil {
		return nil, err
	}
	return c.Take(), nil
}

// Transducer parses C source and emits its events. A Transducer holds one
// tree-sitter parser and must not be shared between goroutines.
type Transducer struct {
	parser *parser.Parser
}

// New creates a transducer for C.
func New() (*Transducer, error) {
	p, err := parser.NewParser(parser.C)
	if err != nil {
		return nil, err
	}
	return &Transducer{parser: p}, nil
}

// Close releases the underlying parser.
func (t *Transducer) Close() {
	t.parser.Close()
}

// Tree parses src and lowers it. Sources with syntax errors are rejected
// with a *parser.ParseError before any lowering happens.
func (t *Transducer) Tree(src []byte) (*cst.Node, error) {
	result, err := t.parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return lowerResult(result)
}

// FileTree reads, parses and lowers the file at path.
func (t *Transducer) FileTree(path string) (*cst.Node, error) {
	result, err := t.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return lowerResult(result)
}

func lowerResult(result *parser.ParseResult) (*cst.Node, error) {
	defer result.Close()
	if err := result.SyntaxError(); err != nil {
		return nil, err
	}
	return cst.Lower(result)
}

// Source returns the events of an in-memory source buffer.
func (t *Transducer) Source(src []byte) ([]event.Event, error) {
	root, err := t.Tree(src)
	if err != nil {
		return nil, err
	}
	return Events(root)
}

// File returns the events of the file at path.
func (t *Transducer) File(path string) ([]event.Event, error) {
	root, err := t.FileTree(path)
	if err != nil {
		return nil, err
	}
	return Events(root)
}

// Stream sends the events of src to sink as they are produced and returns
// src on success.
func (t *Transducer) Stream(src []byte, sink Sink) ([]byte, error) {
	root, err := t.Tree(src)
	if err != nil {
		return nil, err
	}
	if err := Emit(root, sink); err != nil {
		return nil, err
	}
	return src, nil
}
