package cst

import (
	"errors"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/cevents/internal/parser"
)

// ErrNoTree is returned when a parse result carries no syntax tree.
var ErrNoTree = errors.New("parse result has no syntax tree")

var whitespaceRe = regexp.MustCompile(`\s+`)

// Lower converts a tree-sitter C parse tree into a category tree.
// The parse result is only read; callers still own and close it.
func Lower(result *parser.ParseResult) (*Node, error) {
	if result == nil || result.Root == nil {
		return nil, ErrNoTree
	}
	l := &lowerer{src: result.Source}
	return l.translationUnit(result.Root), nil
}

type lowerer struct {
	src []byte
}

// child is a tree-sitter child together with the field it occupies.
type child struct {
	node  *sitter.Node
	field string
}

// children lists ts's children with comments removed.
func (l *lowerer) children(ts *sitter.Node) []child {
	n := int(ts.ChildCount())
	out := make([]child, 0, n)
	for i := 0; i < n; i++ {
		c := ts.Child(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, child{node: c, field: ts.FieldNameForChild(i)})
	}
	return out
}

func (l *lowerer) pos(ts *sitter.Node) Pos {
	p := ts.StartPoint()
	return Pos{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (l *lowerer) text(ts *sitter.Node) string {
	return ts.Content(l.src)
}

func (l *lowerer) node(k Kind, ts *sitter.Node, children ...*Node) *Node {
	return &Node{Kind: k, Children: compact(children), Pos: l.pos(ts), Source: ts.Type()}
}

func (l *lowerer) leaf(k Kind, ts *sitter.Node) *Node {
	return &Node{Kind: k, Value: l.text(ts), Pos: l.pos(ts), Source: ts.Type()}
}

// concatenated joins adjacent string tokens into one leaf, dropping the
// whitespace and comments between them.
func (l *lowerer) concatenated(ts *sitter.Node) *Node {
	var b strings.Builder
	for i := range int(ts.ChildCount()) {
		c := ts.Child(i)
		if c.Type() == "comment" {
			continue
		}
		b.WriteString(l.text(c))
	}
	return &Node{Kind: StringLiteral, Value: b.String(), Pos: l.pos(ts), Source: ts.Type()}
}

func (l *lowerer) tok(ts *sitter.Node) *Node {
	return l.leaf(Token, ts)
}

// opaque keeps a construct as a single uninspected leaf.
func (l *lowerer) opaque(ts *sitter.Node) *Node {
	v := strings.TrimSpace(whitespaceRe.ReplaceAllString(l.text(ts), " "))
	return &Node{Kind: Opaque, Value: v, Pos: l.pos(ts), Source: ts.Type()}
}

func compact(nodes []*Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// --- top level -------------------------------------------------------------

func (l *lowerer) translationUnit(ts *sitter.Node) *Node {
	n := l.node(TranslationUnit, ts)
	for _, c := range l.children(ts) {
		n.Children = append(n.Children, l.external(c.node))
	}
	return n
}

// external lowers a top-level item. Preprocessor conditionals and linkage
// blocks are containers whose nested definitions still matter.
func (l *lowerer) external(ts *sitter.Node) *Node {
	switch ts.Type() {
	case "function_definition":
		return l.functionDefinition(ts)
	case "declaration":
		return l.declaration(ts)
	case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif",
		"preproc_elifdef", "linkage_specification", "declaration_list":
		n := l.node(Opaque, ts)
		for _, c := range l.children(ts) {
			if c.field == "condition" || c.field == "name" || c.field == "value" || !c.node.IsNamed() {
				n.Children = append(n.Children, l.opaque(c.node))
				continue
			}
			n.Children = append(n.Children, l.external(c.node))
		}
		return n
	}
	return l.opaque(ts)
}

func (l *lowerer) functionDefinition(ts *sitter.Node) *Node {
	specs := l.node(DeclarationSpecifiers, ts)
	n := l.node(FunctionDefinition, ts, specs)
	for _, c := range l.children(ts) {
		switch {
		case c.field == "declarator":
			n.Children = append(n.Children, l.declarator(c.node))
		case c.field == "body":
			n.Children = append(n.Children, l.statement(c.node))
		case c.node.Type() == "declaration":
			// K&R parameter declarations between declarator and body.
			n.Children = append(n.Children, l.declaration(c.node))
		default:
			if s := l.specifier(c); s != nil {
				specs.Children = append(specs.Children, s)
			}
		}
	}
	return n
}

// --- declarations ----------------------------------------------------------

// specifier lowers one declaration specifier, or returns nil for children
// that are not specifiers.
func (l *lowerer) specifier(c child) *Node {
	var inner *Node
	switch {
	case c.field == "type":
		inner = l.node(TypeSpecifier, c.node, l.typeToken(c.node))
	case c.node.Type() == "storage_class_specifier":
		if l.text(c.node) == "inline" {
			inner = l.node(FunctionSpecifier, c.node, l.typeToken(c.node))
		} else {
			inner = l.node(StorageClassSpecifier, c.node, l.typeToken(c.node))
		}
	case c.node.Type() == "type_qualifier":
		inner = l.node(TypeQualifier, c.node, l.typeToken(c.node))
	case c.node.Type() == "attribute_specifier", c.node.Type() == "ms_declspec_modifier",
		c.node.Type() == "attribute_declaration":
		inner = l.opaque(c.node)
	default:
		return nil
	}
	return l.node(DeclarationSpecifier, c.node, inner)
}

// typeToken renders a specifier as one token; struct and enum bodies are not
// traversed.
func (l *lowerer) typeToken(ts *sitter.Node) *Node {
	if ts.ChildCount() == 0 {
		return l.tok(ts)
	}
	t := l.opaque(ts)
	t.Kind = Token
	return t
}

func (l *lowerer) declaration(ts *sitter.Node) *Node {
	specs := l.node(DeclarationSpecifiers, ts)
	n := l.node(Declaration, ts, specs)
	var list *Node
	for _, c := range l.children(ts) {
		switch {
		case c.field == "declarator":
			if list == nil {
				list = l.node(InitDeclaratorList, c.node)
				n.Children = append(n.Children, list)
			}
			list.Children = append(list.Children, l.initDeclarator(c.node))
		case !c.node.IsNamed():
			tok := l.tok(c.node)
			if tok.Value == "," && list != nil {
				list.Children = append(list.Children, tok)
			} else {
				n.Children = append(n.Children, tok)
			}
		default:
			if s := l.specifier(c); s != nil {
				specs.Children = append(specs.Children, s)
			}
		}
	}
	return n
}

func (l *lowerer) initDeclarator(ts *sitter.Node) *Node {
	if ts.Type() != "init_declarator" {
		return l.node(InitDeclarator, ts, l.declarator(ts))
	}
	n := l.node(InitDeclarator, ts)
	for _, c := range l.children(ts) {
		switch {
		case c.field == "declarator":
			n.Children = append(n.Children, l.declarator(c.node))
		case c.field == "value":
			n.Children = append(n.Children, l.node(Initializer, c.node, l.initializer(c.node)))
		case !c.node.IsNamed():
			n.Children = append(n.Children, l.tok(c.node))
		}
	}
	return n
}

func (l *lowerer) initializer(ts *sitter.Node) *Node {
	if ts.Type() != "initializer_list" {
		return l.expression(ts)
	}
	n := l.node(Opaque, ts)
	for _, c := range l.children(ts) {
		if !c.node.IsNamed() {
			n.Children = append(n.Children, l.tok(c.node))
			continue
		}
		n.Children = append(n.Children, l.initializer(c.node))
	}
	return n
}

// declarator lowers a (possibly pointer-prefixed) declarator into
// Declarator{Pointer?, DirectDeclarator}.
func (l *lowerer) declarator(ts *sitter.Node) *Node {
	if strings.HasPrefix(ts.Type(), "abstract_") {
		return l.abstractDeclarator(ts)
	}

	n := l.node(Declarator, ts)
	var ptr *Node
	cur := ts
	for cur != nil && cur.Type() == "pointer_declarator" {
		if ptr == nil {
			ptr = l.node(Pointer, cur)
			n.Children = append(n.Children, ptr)
		}
		var next *sitter.Node
		for _, c := range l.children(cur) {
			switch {
			case c.field == "declarator":
				next = c.node
			case !c.node.IsNamed():
				ptr.Children = append(ptr.Children, l.tok(c.node))
			default:
				ptr.Children = append(ptr.Children, l.typeToken(c.node))
			}
		}
		cur = next
	}
	if cur != nil {
		n.Children = append(n.Children, l.directDeclarator(cur))
	}
	return n
}

func (l *lowerer) directDeclarator(ts *sitter.Node) *Node {
	switch ts.Type() {
	case "identifier", "field_identifier", "type_identifier", "primitive_type":
		return l.node(DirectDeclarator, ts, l.leaf(Identifier, ts))

	case "function_declarator":
		n := l.node(DirectDeclarator, ts)
		for _, c := range l.children(ts) {
			switch c.field {
			case "declarator":
				n.Children = append(n.Children, l.directDeclarator(c.node))
			case "parameters":
				n.Children = append(n.Children, l.parameters(c.node)...)
			}
		}
		return n

	case "array_declarator":
		n := l.node(DirectDeclarator, ts)
		for _, c := range l.children(ts) {
			switch {
			case c.field == "declarator":
				n.Children = append(n.Children, l.directDeclarator(c.node))
			case c.field == "size":
				n.Children = append(n.Children, l.expression(c.node))
			case !c.node.IsNamed():
				n.Children = append(n.Children, l.tok(c.node))
			default:
				n.Children = append(n.Children, l.typeToken(c.node))
			}
		}
		return n

	case "parenthesized_declarator":
		n := l.node(DirectDeclarator, ts)
		for _, c := range l.children(ts) {
			if !c.node.IsNamed() {
				n.Children = append(n.Children, l.tok(c.node))
				continue
			}
			n.Children = append(n.Children, l.declarator(c.node))
		}
		return n

	case "pointer_declarator":
		return l.node(DirectDeclarator, ts, l.declarator(ts))
	}
	return l.node(DirectDeclarator, ts, l.opaque(ts))
}

func (l *lowerer) abstractDeclarator(ts *sitter.Node) *Node {
	n := l.node(AbstractDeclarator, ts)
	for _, c := range l.children(ts) {
		switch {
		case !c.node.IsNamed():
			n.Children = append(n.Children, l.tok(c.node))
		case c.field == "declarator":
			n.Children = append(n.Children, l.declarator(c.node))
		case c.field == "parameters":
			n.Children = append(n.Children, l.parameters(c.node)...)
		case c.field == "size":
			n.Children = append(n.Children, l.expression(c.node))
		default:
			n.Children = append(n.Children, l.typeToken(c.node))
		}
	}
	return n
}

// parameters lowers a parameter_list into "(" ParameterTypeList? ")".
// An empty list produces no ParameterTypeList at all.
func (l *lowerer) parameters(ts *sitter.Node) []*Node {
	var open, close *Node
	list := l.node(ParameterTypeList, ts)
	for _, c := range l.children(ts) {
		switch {
		case c.node.Type() == "(" && open == nil:
			open = l.tok(c.node)
		case c.node.Type() == ")":
			close = l.tok(c.node)
		case c.node.Type() == "parameter_declaration":
			list.Children = append(list.Children, l.parameterDeclaration(c.node))
		case c.node.Type() == "variadic_parameter", c.node.Type() == "...":
			v := l.tok(c.node)
			v.Value = "..."
			list.Children = append(list.Children, v)
		case c.node.Type() == "identifier":
			// K&R identifier list.
			list.Children = append(list.Children,
				l.node(ParameterDeclaration, c.node, l.node(Declarator, c.node, l.directDeclarator(c.node))))
		case !c.node.IsNamed():
			list.Children = append(list.Children, l.tok(c.node))
		}
	}
	if len(list.NonTokens()) == 0 && list.FirstToken() != "..." {
		list = nil
	}
	return compact([]*Node{open, list, close})
}

func (l *lowerer) parameterDeclaration(ts *sitter.Node) *Node {
	specs := l.node(DeclarationSpecifiers, ts)
	n := l.node(ParameterDeclaration, ts, specs)
	for _, c := range l.children(ts) {
		if c.field == "declarator" {
			n.Children = append(n.Children, l.declarator(c.node))
			continue
		}
		if s := l.specifier(c); s != nil {
			specs.Children = append(specs.Children, s)
		}
	}
	return n
}

// --- statements ------------------------------------------------------------

func (l *lowerer) blockItem(ts *sitter.Node) *Node {
	switch ts.Type() {
	case "declaration":
		return l.declaration(ts)
	case "function_definition":
		return l.functionDefinition(ts)
	case "type_definition", "struct_specifier", "union_specifier", "enum_specifier",
		"preproc_include", "preproc_def", "preproc_function_def", "preproc_call":
		return l.opaque(ts)
	}
	if !ts.IsNamed() {
		return l.tok(ts)
	}
	return l.statement(ts)
}

func (l *lowerer) statement(ts *sitter.Node) *Node {
	switch ts.Type() {
	case "compound_statement":
		n := l.node(CompoundStatement, ts)
		for _, c := range l.children(ts) {
			n.Children = append(n.Children, l.blockItem(c.node))
		}
		return n

	case "expression_statement":
		n := l.node(ExpressionStatement, ts)
		for _, c := range l.children(ts) {
			if !c.node.IsNamed() {
				n.Children = append(n.Children, l.tok(c.node))
				continue
			}
			n.Children = append(n.Children, l.expression(c.node))
		}
		return n

	case "if_statement", "switch_statement":
		return l.conditional(SelectionStatement, ts)

	case "while_statement", "do_statement":
		return l.conditional(IterationStatement, ts)

	case "for_statement":
		n := l.node(IterationStatement, ts)
		for _, c := range l.children(ts) {
			switch {
			case !c.node.IsNamed():
				n.Children = append(n.Children, l.tok(c.node))
			case c.node.Type() == "declaration":
				n.Children = append(n.Children, l.declaration(c.node))
			case c.field == "body":
				n.Children = append(n.Children, l.statement(c.node))
			default:
				n.Children = append(n.Children, l.expression(c.node))
			}
		}
		return n

	case "return_statement", "break_statement", "continue_statement", "goto_statement":
		n := l.node(JumpStatement, ts)
		for _, c := range l.children(ts) {
			switch {
			case !c.node.IsNamed():
				n.Children = append(n.Children, l.tok(c.node))
			case c.node.Type() == "statement_identifier":
				n.Children = append(n.Children, l.leaf(Identifier, c.node))
			default:
				n.Children = append(n.Children, l.expression(c.node))
			}
		}
		return n

	case "labeled_statement", "case_statement":
		n := l.node(LabeledStatement, ts)
		for _, c := range l.children(ts) {
			switch {
			case !c.node.IsNamed():
				n.Children = append(n.Children, l.tok(c.node))
			case c.node.Type() == "statement_identifier":
				n.Children = append(n.Children, l.leaf(Identifier, c.node))
			case c.field == "value":
				n.Children = append(n.Children, l.expression(c.node))
			default:
				n.Children = append(n.Children, l.blockItem(c.node))
			}
		}
		return n

	case "declaration":
		return l.declaration(ts)
	}

	n := l.node(Opaque, ts)
	for _, c := range l.children(ts) {
		n.Children = append(n.Children, l.blockItem(c.node))
	}
	return n
}

// conditional lowers if/switch/while/do. The parenthesized condition is
// flattened into the statement as "(" expression ")", and an else clause into
// "else" statement.
func (l *lowerer) conditional(k Kind, ts *sitter.Node) *Node {
	n := l.node(k, ts)
	for _, c := range l.children(ts) {
		switch {
		case !c.node.IsNamed():
			n.Children = append(n.Children, l.tok(c.node))
		case c.field == "condition":
			n.Children = append(n.Children, l.condition(c.node)...)
		case c.node.Type() == "else_clause":
			for _, e := range l.children(c.node) {
				if !e.node.IsNamed() {
					n.Children = append(n.Children, l.tok(e.node))
					continue
				}
				n.Children = append(n.Children, l.statement(e.node))
			}
		default:
			n.Children = append(n.Children, l.statement(c.node))
		}
	}
	return n
}

func (l *lowerer) condition(ts *sitter.Node) []*Node {
	if ts.Type() != "parenthesized_expression" {
		return []*Node{l.expression(ts)}
	}
	var out []*Node
	for _, c := range l.children(ts) {
		if !c.node.IsNamed() {
			out = append(out, l.tok(c.node))
			continue
		}
		out = append(out, l.expression(c.node))
	}
	return out
}

// --- expressions -----------------------------------------------------------

func (l *lowerer) expression(ts *sitter.Node) *Node {
	switch ts.Type() {
	case "identifier":
		return l.node(PrimaryExpression, ts, l.leaf(Identifier, ts))

	case "number_literal", "char_literal", "true", "false", "null":
		return l.node(PrimaryExpression, ts, l.leaf(Constant, ts))

	case "string_literal", "raw_string_literal":
		return l.node(PrimaryExpression, ts, l.leaf(StringLiteral, ts))

	case "concatenated_string":
		return l.node(PrimaryExpression, ts, l.concatenated(ts))

	case "parenthesized_expression":
		return l.generic(PrimaryExpression, ts)

	case "call_expression":
		n := l.node(PostfixExpression, ts)
		for _, c := range l.children(ts) {
			switch c.field {
			case "function":
				n.Children = append(n.Children, l.expression(c.node))
			case "arguments":
				n.Children = append(n.Children, l.arguments(c.node)...)
			}
		}
		return n

	case "subscript_expression", "field_expression":
		return l.generic(PostfixExpression, ts)

	case "update_expression":
		cs := l.children(ts)
		if len(cs) > 0 && !cs[0].node.IsNamed() {
			return l.generic(UnaryExpression, ts)
		}
		return l.generic(PostfixExpression, ts)

	case "unary_expression", "pointer_expression":
		n := l.node(UnaryExpression, ts)
		for _, c := range l.children(ts) {
			if !c.node.IsNamed() {
				n.Children = append(n.Children, l.node(UnaryOperator, c.node, l.tok(c.node)))
				continue
			}
			n.Children = append(n.Children, l.expression(c.node))
		}
		return n

	case "sizeof_expression", "alignof_expression", "offsetof_expression":
		return l.generic(UnaryExpression, ts)

	case "cast_expression":
		return l.generic(CastExpression, ts)

	case "binary_expression":
		op := ts.ChildByFieldName("operator")
		k := Opaque
		if op != nil {
			if bk, ok := BinaryKind(l.text(op)); ok {
				k = bk
			}
		}
		return l.generic(k, ts)

	case "conditional_expression":
		return l.generic(ConditionalExpression, ts)

	case "assignment_expression":
		return l.generic(AssignmentExpression, ts)

	case "comma_expression":
		return l.generic(Expression, ts)

	case "initializer_list":
		return l.initializer(ts)

	case "type_descriptor":
		return l.node(TypeName, ts, l.typeToken(ts))

	case "compound_statement":
		return l.statement(ts)
	}
	return l.generic(Opaque, ts)
}

// generic lowers ts as kind k: tokens stay tokens, names that are not
// expressions become identifiers, everything else is an expression.
func (l *lowerer) generic(k Kind, ts *sitter.Node) *Node {
	n := l.node(k, ts)
	for _, c := range l.children(ts) {
		switch {
		case !c.node.IsNamed():
			n.Children = append(n.Children, l.tok(c.node))
		case c.node.Type() == "field_identifier", c.node.Type() == "statement_identifier":
			n.Children = append(n.Children, l.leaf(Identifier, c.node))
		case c.node.Type() == "type_descriptor":
			n.Children = append(n.Children, l.node(TypeName, c.node, l.typeToken(c.node)))
		case c.node.Type() == "argument_list":
			n.Children = append(n.Children, l.arguments(c.node)...)
		default:
			n.Children = append(n.Children, l.expression(c.node))
		}
	}
	return n
}

// arguments lowers an argument_list into "(" ArgumentExpressionList? ")".
// The list is built left-recursively, one level per argument, so that
// f(a, b) becomes ((a) , b): each nested list closes right after its last
// argument.
func (l *lowerer) arguments(ts *sitter.Node) []*Node {
	var open, close, list *Node
	for _, c := range l.children(ts) {
		switch {
		case c.node.Type() == "(" && open == nil:
			open = l.tok(c.node)
		case c.node.Type() == ")":
			close = l.tok(c.node)
		case c.node.Type() == ",":
			// Separators are attached when the next argument arrives.
		case c.node.IsNamed():
			arg := l.expression(c.node)
			if list == nil {
				list = l.node(ArgumentExpressionList, c.node, arg)
				continue
			}
			outer := New(ArgumentExpressionList, list, Tok(","), arg)
			outer.Source = ts.Type()
			list = outer
		}
	}
	return compact([]*Node{open, list, close})
}
