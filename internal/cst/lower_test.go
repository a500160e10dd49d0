package cst

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hargabyte/cevents/internal/parser"
)

func lower(t *testing.T, src string) *Node {
	t.Helper()
	p, err := parser.NewParser(parser.C)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	result, err := p.Parse([]byte(src))
	require.NoError(t, err)
	defer result.Close()
	require.NoError(t, result.SyntaxError())

	root, err := Lower(result)
	require.NoError(t, err)
	return root
}

// find returns every node of kind k in pre-order.
func find(n *Node, k Kind) []*Node {
	var out []*Node
	var rec func(*Node)
	rec = func(n *Node) {
		if n.Kind == k {
			out = append(out, n)
		}
		for _, c := range n.Children {
			rec(c)
		}
	}
	rec(n)
	return out
}

func TestLowerNilResult(t *testing.T) {
	_, err := Lower(nil)
	assert.ErrorIs(t, err, ErrNoTree)
}

func TestLowerFunctionDefinition(t *testing.T) {
	root := lower(t, "int add(int a, int b) { return a + b; }")
	require.Equal(t, TranslationUnit, root.Kind)

	fns := root.ChildrenOf(FunctionDefinition)
	require.Len(t, fns, 1)
	fn := fns[0]

	specs := fn.Child(DeclarationSpecifiers)
	require.NotNil(t, specs)
	require.Len(t, specs.Children, 1)
	assert.Equal(t, "int", specs.Children[0].Child(TypeSpecifier).Text())

	decl := fn.Child(Declarator)
	require.NotNil(t, decl)
	outer := decl.Child(DirectDeclarator)
	require.NotNil(t, outer)
	inner := outer.Child(DirectDeclarator)
	require.NotNil(t, inner)
	assert.Equal(t, "add", inner.Child(Identifier).Value)

	params := outer.Child(ParameterTypeList)
	require.NotNil(t, params)
	pds := params.ChildrenOf(ParameterDeclaration)
	require.Len(t, pds, 2)
	assert.Equal(t, "a", pds[0].Child(Declarator).Child(DirectDeclarator).Text())
	assert.Equal(t, "b", pds[1].Child(Declarator).Child(DirectDeclarator).Text())

	body := fn.Child(CompoundStatement)
	require.NotNil(t, body)
	assert.Equal(t, "{", body.FirstToken())
	assert.Equal(t, "{returna+b;}", body.Text())

	add := find(body, AdditiveExpression)
	require.Len(t, add, 1)
	op, ok := add[0].Token("+", "-")
	assert.True(t, ok)
	assert.Equal(t, "+", op)

	prims := find(body, PrimaryExpression)
	require.Len(t, prims, 2)
	assert.Equal(t, "a", prims[0].Text())
	assert.Equal(t, "b", prims[1].Text())
	assert.Equal(t, Pos{Line: 1, Column: 32}, prims[0].Pos)
}

func TestLowerEmptyParameterList(t *testing.T) {
	root := lower(t, "void f() { }")
	fn := root.Child(FunctionDefinition)
	require.NotNil(t, fn)
	outer := fn.Child(Declarator).Child(DirectDeclarator)
	assert.Nil(t, outer.Child(ParameterTypeList))
	assert.Equal(t, "f()", outer.Text())
}

func TestLowerVoidParameter(t *testing.T) {
	root := lower(t, "int g(void) { return 0; }")
	params := find(root, ParameterDeclaration)
	require.Len(t, params, 1)
	assert.Nil(t, params[0].Child(Declarator))
}

func TestLowerCallArguments(t *testing.T) {
	root := lower(t, "void f() { g(1, x, 3); h(); k.m; }")

	posts := find(root, PostfixExpression)
	require.Len(t, posts, 3)

	call := posts[0]
	_, ok := call.Token("(")
	assert.True(t, ok)

	// Left-recursive: one list per argument, outermost first.
	lists := find(call, ArgumentExpressionList)
	require.Len(t, lists, 3)
	assert.Equal(t, "1,x,3", lists[0].Text())
	assert.Equal(t, "1,x", lists[1].Text())
	assert.Equal(t, "1", lists[2].Text())

	assert.Empty(t, find(posts[1], ArgumentExpressionList))
	_, ok = posts[1].Token("(")
	assert.True(t, ok)

	_, ok = posts[2].Token("(")
	assert.False(t, ok)
	assert.Nil(t, posts[2].Child(ArgumentExpressionList))
	assert.Equal(t, "k.m", posts[2].Text())
}

func TestLowerUnaryOperators(t *testing.T) {
	root := lower(t, "int f(int a) { return !a + -a + *p + ++a; }")
	unary := find(root, UnaryExpression)
	require.Len(t, unary, 4)

	var ops []string
	for _, u := range unary {
		if op := u.Child(UnaryOperator); op != nil {
			ops = append(ops, op.Text())
		}
	}
	assert.Equal(t, []string{"!", "-", "*"}, ops)
	assert.Nil(t, unary[3].Child(UnaryOperator))
}

func TestLowerBinaryCategories(t *testing.T) {
	root := lower(t, "int f(int a, int b) { return a * b < a == b && a || b % a; }")
	assert.Len(t, find(root, MultiplicativeExpression), 2)
	assert.Len(t, find(root, RelationalExpression), 1)
	assert.Len(t, find(root, EqualityExpression), 1)
	assert.Len(t, find(root, LogicalAndExpression), 1)
	assert.Len(t, find(root, LogicalOrExpression), 1)
}

func TestLowerStatements(t *testing.T) {
	src := `int f(int x) {
	int y = 1;
	if (x) { y; } else { x; }
	while (x) x--;
	for (;;) break;
	return;
}`
	root := lower(t, src)

	sel := find(root, SelectionStatement)
	require.Len(t, sel, 1)
	assert.Equal(t, "if", sel[0].FirstToken())
	_, hasElse := sel[0].Token("else")
	assert.True(t, hasElse)
	assert.Len(t, sel[0].ChildrenOf(CompoundStatement), 2)

	iter := find(root, IterationStatement)
	require.Len(t, iter, 2)
	assert.Equal(t, "while", iter[0].FirstToken())
	assert.Equal(t, "for", iter[1].FirstToken())

	jumps := find(root, JumpStatement)
	require.Len(t, jumps, 2)
	assert.Equal(t, "break", jumps[0].FirstToken())
	assert.Equal(t, "return", jumps[1].FirstToken())
	assert.Empty(t, jumps[1].NonTokens())

	decls := find(root, Declaration)
	require.Len(t, decls, 1)
	id := decls[0].Child(InitDeclaratorList).Child(InitDeclarator)
	require.NotNil(t, id)
	assert.Equal(t, "y", id.Child(Declarator).Text())
	assert.Equal(t, "1", id.Child(Initializer).Text())
}

func TestLowerPointerDeclarator(t *testing.T) {
	root := lower(t, "char *name(int *p) { return 0; }")
	fn := root.Child(FunctionDefinition)
	decl := fn.Child(Declarator)
	require.NotNil(t, decl.Child(Pointer))
	assert.Equal(t, "*", decl.Child(Pointer).Text())
	assert.Equal(t, "name", decl.Child(DirectDeclarator).Child(DirectDeclarator).Text())
}

func TestLowerSkipsComments(t *testing.T) {
	root := lower(t, "/* lead */ int f(/* none */) { return 1; // trailing\n}")
	assert.Empty(t, find(root, Opaque))
	assert.NotContains(t, root.Text(), "lead")
}

func TestLowerPreprocessorContainers(t *testing.T) {
	src := "#include <stdio.h>\n#ifdef DEBUG\nint trace(int x) { return x; }\n#endif\n"
	root := lower(t, src)
	assert.Len(t, find(root, FunctionDefinition), 1)

	dump := root.Dump()
	assert.True(t, strings.HasPrefix(dump, "translation-unit\n"))
	assert.Contains(t, dump, "function-definition")
}

func TestLowerConcatenatedString(t *testing.T) {
	root := lower(t, "void f() { puts(\"s\"  /* gap */\n  \"t\"); }")

	lits := find(root, StringLiteral)
	require.Len(t, lits, 1)
	assert.Equal(t, `"s""t"`, lits[0].Value)
	assert.Equal(t, "concatenated_string", lits[0].Source)
	assert.NotContains(t, lits[0].Value, "gap")

	prims := find(root, PrimaryExpression)
	require.NotEmpty(t, prims)
	assert.Equal(t, `"s""t"`, prims[len(prims)-1].Text())
}
