package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hargabyte/cevents/internal/event"
)

// StreamError reports an event the builder cannot place.
type StreamError struct {
	Index  int
	Tag    event.Tag
	Reason string
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("event %d (%s): %s", e.Index, e.Tag, e.Reason)
}

// Builder assembles a Program from events delivered one at a time.
//
// Expressions are kept on one stack and statements on another. Blocks mark
// the statement stack on entry and collect everything above the mark on exit.
// Operands of constructs that emit no event of their own (assignments,
// casts, member access) are dropped when their block closes.
type Builder struct {
	exprs []Expr
	stmts []Stmt
	// blocks holds, per open block, the statement and expression stack
	// heights on entry.
	blocks []mark
	// settled is the expression stack height after the last completed
	// statement; only expressions above it belong to the current one.
	settled int
	funcs   int
	index   int
	err     error
	prog    Program
}

type mark struct {
	stmts int
	exprs int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build rebuilds a program from a complete event sequence.
func Build(events []event.Event) (*Program, error) {
	b := NewBuilder()
	for _, ev := range events {
		if err := b.Emit(ev); err != nil {
			return nil, err
		}
	}
	return b.Program()
}

// Deliver accepts one event as raw buffers. The bytes are copied; the
// builder keeps no reference to either buffer.
func (b *Builder) Deliver(tag, text []byte) error {
	t, err := event.ParseTag(string(tag))
	if err != nil {
		return err
	}
	return b.Emit(event.New(t, string(text)))
}

// Emit applies one event.
func (b *Builder) Emit(ev event.Event) error {
	if b.err != nil {
		return b.err
	}
	if err := b.apply(ev); err != nil {
		b.err = err
		return err
	}
	b.index++
	return nil
}

// Program returns the rebuilt program once every block and function closed.
func (b *Builder) Program() (*Program, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.blocks) > 0 || b.funcs > 0 {
		return nil, &StreamError{Index: b.index, Reason: "stream ended inside a block or function"}
	}
	prog := b.prog
	return &prog, nil
}

func (b *Builder) fail(tag event.Tag, format string, args ...any) error {
	return &StreamError{Index: b.index, Tag: tag, Reason: fmt.Sprintf(format, args...)}
}

func (b *Builder) apply(ev event.Event) error {
	switch ev.Tag {
	case event.ExitPrimaryExpression:
		b.pushExpr(primary(ev.Text))

	case event.ExitUnaryExpression:
		x, ok := b.popExpr()
		if !ok {
			return b.fail(ev.Tag, "missing operand")
		}
		b.pushExpr(&Prefix{Op: ev.Text, X: x})

	case event.ExitMultiplicativeExpression, event.ExitAdditiveExpression,
		event.ExitRelationalExpression, event.ExitEqualityExpression,
		event.ExitLogicalAndExpression, event.ExitLogicalOrExpression:
		right, ok := b.popExpr()
		if !ok {
			return b.fail(ev.Tag, "missing right operand")
		}
		left, ok := b.popExpr()
		if !ok {
			return b.fail(ev.Tag, "missing left operand")
		}
		b.pushExpr(&Infix{Op: ev.Text, Left: left, Right: right})

	case event.ExitArgumentExpressionList:
		arg, ok := b.popExpr()
		if !ok {
			return b.fail(ev.Tag, "missing argument")
		}
		if top, ok := b.peekExpr().(*args); ok {
			top.list = append(top.list, arg)
			return nil
		}
		b.pushExpr(&args{list: []Expr{arg}})

	case event.ExitPostfixExpression:
		var list []Expr
		if top, ok := b.peekExpr().(*args); ok {
			b.popExpr()
			list = top.list
		}
		fn, ok := b.popExpr()
		if !ok {
			return b.fail(ev.Tag, "missing callee")
		}
		b.pushExpr(&Call{Func: fn, Args: list})

	case event.ExitDeclaration:
		d := &Decl{Name: ev.Text}
		if len(b.exprs) > b.settled {
			d.Init, _ = b.popExpr()
		}
		if b.funcs == 0 {
			b.prog.Globals = append(b.prog.Globals, d)
		} else {
			b.stmts = append(b.stmts, d)
		}
		b.settle()

	case event.EnterCompoundStatement:
		b.blocks = append(b.blocks, mark{stmts: len(b.stmts), exprs: len(b.exprs)})
		b.settle()

	case event.ExitCompoundStatement:
		if len(b.blocks) == 0 {
			return b.fail(ev.Tag, "no open block")
		}
		m := b.blocks[len(b.blocks)-1]
		b.blocks = b.blocks[:len(b.blocks)-1]
		body := append([]Stmt(nil), b.stmts[m.stmts:]...)
		b.stmts = append(b.stmts[:m.stmts], &Block{Stmts: body})
		if len(b.exprs) > m.exprs {
			b.exprs = b.exprs[:m.exprs]
		}
		b.settle()

	case event.ExitExpressionStatement:
		s := &ExprStmt{}
		if len(b.exprs) > b.settled {
			s.X, _ = b.popExpr()
		}
		b.stmts = append(b.stmts, s)
		b.settle()

	case event.ExitSelectionStatement:
		s := &If{}
		var ok bool
		if ev.Text == "else" {
			if s.Else, ok = b.popStmt(); !ok {
				return b.fail(ev.Tag, "missing else branch")
			}
		}
		if s.Then, ok = b.popStmt(); !ok {
			return b.fail(ev.Tag, "missing then branch")
		}
		if s.Cond, ok = b.popExpr(); !ok {
			return b.fail(ev.Tag, "missing condition")
		}
		b.stmts = append(b.stmts, s)
		b.settle()

	case event.ExitIterationStatement:
		s := &While{}
		var ok bool
		if s.Body, ok = b.popStmt(); !ok {
			return b.fail(ev.Tag, "missing loop body")
		}
		if s.Cond, ok = b.popExpr(); !ok {
			return b.fail(ev.Tag, "missing loop condition")
		}
		b.stmts = append(b.stmts, s)
		b.settle()

	case event.ExitJumpStatement:
		s := &Return{}
		if ev.Text == "expr" {
			var ok bool
			if s.Value, ok = b.popExpr(); !ok {
				return b.fail(ev.Tag, "missing return value")
			}
		}
		b.stmts = append(b.stmts, s)
		b.settle()

	case event.EnterFunction:
		b.funcs++
		b.settle()

	case event.ExitFunction:
		if b.funcs == 0 {
			return b.fail(ev.Tag, "no open function")
		}
		fn, err := parseSignature(ev.Text)
		if err != nil {
			return b.fail(ev.Tag, "%v", err)
		}
		body, ok := b.popStmt()
		if !ok {
			return b.fail(ev.Tag, "missing function body")
		}
		if fn.Body, ok = body.(*Block); !ok {
			return b.fail(ev.Tag, "function body is %T, want block", body)
		}
		b.funcs--
		b.prog.Functions = append(b.prog.Functions, fn)
		b.settle()

	default:
		return b.fail(ev.Tag, "unexpected event")
	}
	return nil
}

func (b *Builder) settle() {
	b.settled = len(b.exprs)
}

func (b *Builder) pushExpr(e Expr) {
	b.exprs = append(b.exprs, e)
}

func (b *Builder) popExpr() (Expr, bool) {
	if len(b.exprs) == 0 {
		return nil, false
	}
	e := b.exprs[len(b.exprs)-1]
	b.exprs = b.exprs[:len(b.exprs)-1]
	if b.settled > len(b.exprs) {
		b.settled = len(b.exprs)
	}
	return e, true
}

func (b *Builder) peekExpr() Expr {
	if len(b.exprs) == 0 {
		return nil
	}
	return b.exprs[len(b.exprs)-1]
}

func (b *Builder) popStmt() (Stmt, bool) {
	floor := 0
	if len(b.blocks) > 0 {
		floor = b.blocks[len(b.blocks)-1].stmts
	}
	if len(b.stmts) <= floor {
		return nil, false
	}
	s := b.stmts[len(b.stmts)-1]
	b.stmts = b.stmts[:len(b.stmts)-1]
	return s, true
}

// primary turns a primary expression's text into a literal or a name.
func primary(text string) Expr {
	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return &Number{Value: n}
	}
	if strings.HasPrefix(text, `"`) {
		return &StringLit{Value: text}
	}
	return &Ident{Name: text}
}

// parseSignature splits "<ret> <name> <param>...".
func parseSignature(sig string) (*Function, error) {
	fields := strings.Fields(sig)
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed signature %q", sig)
	}
	return &Function{
		Void:   fields[0] == "void",
		Name:   fields[1],
		Params: fields[2:],
	}, nil
}
