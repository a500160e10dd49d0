// Package cst holds the concrete syntax tree the transducer walks.
//
// Tree-sitter folds the C grammar's single-child rules away (an identifier
// used as an expression is just an identifier). Lower rebuilds those rules
// as explicit categories so that every node carries exactly one Kind from a
// closed set and the transducer can dispatch on it with a single switch.
package cst

import "strings"

// Pos is a 1-based source position.
type Pos struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Node is an immutable syntax tree node.
type Node struct {
	Kind     Kind
	Children []*Node
	// Value is the token spelling of a leaf node.
	Value string
	Pos   Pos
	// Source is the tree-sitter node type the node was lowered from, if any.
	Source string
}

// New returns a composite node of kind k.
func New(k Kind, children ...*Node) *Node {
	n := &Node{Kind: k, Children: children}
	if len(children) > 0 && children[0] != nil {
		n.Pos = children[0].Pos
	}
	return n
}

// Leaf returns a leaf node of kind k with the given spelling.
func Leaf(k Kind, value string) *Node {
	return &Node{Kind: k, Value: value}
}

// Tok returns a punctuation or keyword token.
func Tok(spelling string) *Node {
	return Leaf(Token, spelling)
}

// Text returns the node's token spellings concatenated in order, with
// whitespace and comments between tokens dropped. Opaque leaves keep their
// inner whitespace collapsed to single spaces.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.Kind.IsLeaf() || len(n.Children) == 0 {
		return n.Value
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.Kind.IsLeaf() || len(n.Children) == 0 {
		b.WriteString(n.Value)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Child returns the first child of kind k, or nil.
func (n *Node) Child(k Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all children of kind k.
func (n *Node) ChildrenOf(k Kind) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Token returns the first direct token child whose spelling is one of
// spellings.
func (n *Node) Token(spellings ...string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, c := range n.Children {
		if c.Kind != Token {
			continue
		}
		for _, s := range spellings {
			if c.Value == s {
				return s, true
			}
		}
	}
	return "", false
}

// FirstToken returns the spelling of the first direct token child.
func (n *Node) FirstToken() string {
	if n == nil {
		return ""
	}
	for _, c := range n.Children {
		if c.Kind == Token {
			return c.Value
		}
	}
	return ""
}

// NonTokens returns the children that are not punctuation or keywords.
func (n *Node) NonTokens() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Kind != Token {
			out = append(out, c)
		}
	}
	return out
}

// Dump renders the tree one node per line, indented by depth.
func (n *Node) Dump() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind.String())
	if n.Kind.IsLeaf() {
		b.WriteString(" ")
		b.WriteString(n.Value)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		c.dump(b, depth+1)
	}
}
