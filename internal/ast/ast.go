// Package ast rebuilds a small C program tree from a transducer event stream.
//
// It understands the subset the event vocabulary covers: identifiers,
// numbers and strings, calls, unary and binary operators, simple
// declarations, blocks, expression statements, if, while and return.
package ast

import (
	"strconv"
	"strings"
)

// Expr is an expression node.
type Expr interface {
	String() string
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	stmtNode()
}

// Ident is a name reference.
type Ident struct {
	Name string
}

// Number is an integer literal.
type Number struct {
	Value int64
}

// StringLit is a string literal kept with its quotes.
type StringLit struct {
	Value string
}

// Call is a function call.
type Call struct {
	Func Expr
	Args []Expr
}

// Prefix is a unary operator applied to an operand.
type Prefix struct {
	Op string
	X  Expr
}

// Infix is a binary operator.
type Infix struct {
	Op    string
	Left  Expr
	Right Expr
}

// args accumulates call arguments while a call is being assembled.
type args struct {
	list []Expr
}

func (*Ident) exprNode()     {}
func (*Number) exprNode()    {}
func (*StringLit) exprNode() {}
func (*Call) exprNode()      {}
func (*Prefix) exprNode()    {}
func (*Infix) exprNode()     {}
func (*args) exprNode()      {}

func (e *Ident) String() string     { return e.Name }
func (e *Number) String() string    { return strconv.FormatInt(e.Value, 10) }
func (e *StringLit) String() string { return e.Value }
func (e *Prefix) String() string    { return e.Op + e.X.String() }

func (e *Infix) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

func (e *Call) String() string {
	return e.Func.String() + "(" + joinExprs(e.Args) + ")"
}

func (e *args) String() string {
	return joinExprs(e.list)
}

func joinExprs(xs []Expr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

// Decl declares a variable with an optional initializer.
type Decl struct {
	Name string
	Init Expr
}

// Block is a braced statement list.
type Block struct {
	Stmts []Stmt
}

// ExprStmt evaluates an expression. X is nil for an empty statement.
type ExprStmt struct {
	X Expr
}

// If is an if statement; Else is nil without an else branch.
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

// While is a while loop.
type While struct {
	Cond Expr
	Body Stmt
}

// Return returns from a function; Value is nil for a bare return.
type Return struct {
	Value Expr
}

func (*Decl) stmtNode()     {}
func (*Block) stmtNode()    {}
func (*ExprStmt) stmtNode() {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*Return) stmtNode()   {}

// Function is a function definition.
type Function struct {
	Void   bool
	Name   string
	Params []string
	Body   *Block
}

// Program is everything rebuilt from one event stream.
type Program struct {
	Functions []*Function
	Globals   []*Decl
}

// Function returns the function with the given name, or nil.
func (p *Program) Function(name string) *Function {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// String renders the program as indented C-like text.
func (p *Program) String() string {
	var b strings.Builder
	for _, g := range p.Globals {
		writeStmt(&b, g, 0)
	}
	for i, fn := range p.Functions {
		if i > 0 || len(p.Globals) > 0 {
			b.WriteString("\n")
		}
		ret := "int"
		if fn.Void {
			ret = "void"
		}
		b.WriteString(ret + " " + fn.Name + "(" + strings.Join(fn.Params, ", ") + ") ")
		writeBlock(&b, fn.Body, 0)
		b.WriteString("\n")
	}
	return b.String()
}

func writeStmt(b *strings.Builder, s Stmt, depth int) {
	indent := strings.Repeat("\t", depth)
	switch s := s.(type) {
	case *Decl:
		b.WriteString(indent + "decl " + s.Name)
		if s.Init != nil {
			b.WriteString(" = " + s.Init.String())
		}
		b.WriteString(";\n")
	case *Block:
		b.WriteString(indent)
		writeBlock(b, s, depth)
		b.WriteString("\n")
	case *ExprStmt:
		if s.X == nil {
			b.WriteString(indent + ";\n")
			return
		}
		b.WriteString(indent + s.X.String() + ";\n")
	case *If:
		b.WriteString(indent + "if " + s.Cond.String() + "\n")
		writeStmt(b, s.Then, depth+1)
		if s.Else != nil {
			b.WriteString(indent + "else\n")
			writeStmt(b, s.Else, depth+1)
		}
	case *While:
		b.WriteString(indent + "while " + s.Cond.String() + "\n")
		writeStmt(b, s.Body, depth+1)
	case *Return:
		if s.Value == nil {
			b.WriteString(indent + "return;\n")
			return
		}
		b.WriteString(indent + "return " + s.Value.String() + ";\n")
	}
}

func writeBlock(b *strings.Builder, blk *Block, depth int) {
	b.WriteString("{\n")
	if blk != nil {
		for _, s := range blk.Stmts {
			writeStmt(b, s, depth+1)
		}
	}
	b.WriteString(strings.Repeat("\t", depth) + "}")
}
