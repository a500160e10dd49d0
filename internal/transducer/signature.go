package transducer

import (
	"strings"

	"github.com/hargabyte/cevents/internal/cst"
)

// Signature reconstructs "<ret> <name> <param>..." for a function definition.
//
// The return type is "void" when the type specifier is exactly void and
// "int" otherwise. The name sits two direct-declarator levels below the
// declarator. Each parameter contributes the text of its direct declarator;
// parameters without a declarator contribute nothing.
func Signature(fn *cst.Node) (string, error) {
	if fn.Kind != cst.FunctionDefinition {
		return "", structural(fn, "not a function definition")
	}

	ret, err := returnType(fn)
	if err != nil {
		return "", err
	}

	decl := fn.Child(cst.Declarator)
	if decl == nil {
		return "", structural(fn, "missing declarator")
	}
	outer := decl.Child(cst.DirectDeclarator)
	if outer == nil {
		return "", structural(decl, "missing direct declarator")
	}
	inner := outer.Child(cst.DirectDeclarator)
	if inner == nil {
		return "", structural(outer, "missing nested direct declarator")
	}
	id := inner.Child(cst.Identifier)
	if id == nil {
		return "", structural(inner, "missing function name")
	}

	parts := []string{ret, id.Value}
	if params := outer.Child(cst.ParameterTypeList); params != nil {
		for _, pd := range params.ChildrenOf(cst.ParameterDeclaration) {
			pdecl := pd.Child(cst.Declarator)
			if pdecl == nil {
				continue
			}
			dd := pdecl.Child(cst.DirectDeclarator)
			if dd == nil {
				return "", structural(pdecl, "parameter without direct declarator")
			}
			parts = append(parts, dd.Text())
		}
	}
	return strings.Join(parts, " "), nil
}

// returnType uses the first declaration specifier that names a type, so
// storage classes and qualifiers in front of it are allowed.
func returnType(fn *cst.Node) (string, error) {
	specs := fn.Child(cst.DeclarationSpecifiers)
	if specs == nil {
		return "", structural(fn, "missing declaration specifiers")
	}
	for _, s := range specs.ChildrenOf(cst.DeclarationSpecifier) {
		if ts := s.Child(cst.TypeSpecifier); ts != nil {
			if ts.Text() == "void" {
				return "void", nil
			}
			return "int", nil
		}
	}
	return "", structural(fn, "missing return type specifier")
}
