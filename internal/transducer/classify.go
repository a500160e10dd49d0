package transducer

import (
	"github.com/hargabyte/cevents/internal/cst"
	"github.com/hargabyte/cevents/internal/event"
)

// Phase is the visit phase of a node.
type Phase uint8

const (
	// Enter is the pre-order visit, before any child.
	Enter Phase = iota
	// Exit is the post-order visit, after every child.
	Exit
)

// String returns "enter" or "exit".
func (p Phase) String() string {
	if p == Enter {
		return "enter"
	}
	return "exit"
}

// operators lists, per binary category, the operator spellings that fire an
// event. Operators missing here (%, <<, &, ...) are silent.
var operators = map[cst.Kind]struct {
	tag    event.Tag
	tokens []string
}{
	cst.MultiplicativeExpression: {event.ExitMultiplicativeExpression, []string{"*", "/"}},
	cst.AdditiveExpression:       {event.ExitAdditiveExpression, []string{"+", "-"}},
	cst.RelationalExpression:     {event.ExitRelationalExpression, []string{"<", ">", "<=", ">="}},
	cst.EqualityExpression:       {event.ExitEqualityExpression, []string{"==", "!="}},
	cst.LogicalAndExpression:     {event.ExitLogicalAndExpression, []string{"&&"}},
	cst.LogicalOrExpression:      {event.ExitLogicalOrExpression, []string{"||"}},
}

// Classify returns the event n produces in phase p, if any. It inspects only
// n and its children. A non-nil error is always a *StructuralError.
func Classify(n *cst.Node, p Phase) (event.Event, bool, error) {
	switch n.Kind {
	case cst.CompoundStatement:
		if p == Enter {
			return event.New(event.EnterCompoundStatement, ""), true, nil
		}
		return event.New(event.ExitCompoundStatement, ""), true, nil

	case cst.FunctionDefinition:
		if p == Enter {
			return event.New(event.EnterFunction, ""), true, nil
		}
		sig, err := Signature(n)
		if err != nil {
			return event.Event{}, false, err
		}
		return event.New(event.ExitFunction, sig), true, nil
	}

	if p != Exit {
		return event.Event{}, false, nil
	}

	switch n.Kind {
	case cst.PrimaryExpression:
		if len(n.Children) == 1 && isAtom(n.Children[0].Kind) {
			return event.New(event.ExitPrimaryExpression, n.Text()), true, nil
		}

	case cst.PostfixExpression:
		if _, call := n.Token("("); call || n.Child(cst.ArgumentExpressionList) != nil {
			return event.New(event.ExitPostfixExpression, ""), true, nil
		}

	case cst.ArgumentExpressionList:
		return event.New(event.ExitArgumentExpressionList, ""), true, nil

	case cst.UnaryExpression:
		if op := n.Child(cst.UnaryOperator); op != nil {
			return event.New(event.ExitUnaryExpression, op.Text()), true, nil
		}

	case cst.MultiplicativeExpression, cst.AdditiveExpression, cst.RelationalExpression,
		cst.EqualityExpression, cst.LogicalAndExpression, cst.LogicalOrExpression:
		rule := operators[n.Kind]
		if op, ok := n.Token(rule.tokens...); ok {
			return event.New(rule.tag, op), true, nil
		}

	case cst.Declaration:
		name, err := declaredName(n)
		if err != nil {
			return event.Event{}, false, err
		}
		return event.New(event.ExitDeclaration, name), true, nil

	case cst.ExpressionStatement:
		return event.New(event.ExitExpressionStatement, ""), true, nil

	case cst.SelectionStatement:
		if n.FirstToken() == "if" {
			text := ""
			if _, ok := n.Token("else"); ok {
				text = "else"
			}
			return event.New(event.ExitSelectionStatement, text), true, nil
		}

	case cst.IterationStatement:
		if n.FirstToken() == "while" {
			return event.New(event.ExitIterationStatement, ""), true, nil
		}

	case cst.JumpStatement:
		if n.FirstToken() == "return" {
			text := ""
			if len(n.NonTokens()) > 0 {
				text = "expr"
			}
			return event.New(event.ExitJumpStatement, text), true, nil
		}
	}
	return event.Event{}, false, nil
}

func isAtom(k cst.Kind) bool {
	return k == cst.Identifier || k == cst.Constant || k == cst.StringLiteral
}

// declaredName returns the identifier a declaration introduces. Only a single
// declarator that is a bare identifier is accepted.
func declaredName(decl *cst.Node) (string, error) {
	list := decl.Child(cst.InitDeclaratorList)
	if list == nil {
		return "", structural(decl, "declaration declares nothing")
	}
	inits := list.ChildrenOf(cst.InitDeclarator)
	if len(inits) != 1 {
		return "", structural(decl, "want one declarator, got %d", len(inits))
	}
	d := inits[0].Child(cst.Declarator)
	if d == nil {
		return "", structural(inits[0], "missing declarator")
	}
	if d.Child(cst.Pointer) != nil {
		return "", structural(d, "pointer declarator %q is not a simple identifier", d.Text())
	}
	dd := d.Child(cst.DirectDeclarator)
	if dd == nil || len(dd.Children) != 1 || dd.Children[0].Kind != cst.Identifier {
		return "", structural(d, "declarator %q is not a simple identifier", d.Text())
	}
	return dd.Children[0].Value, nil
}
