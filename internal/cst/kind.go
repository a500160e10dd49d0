package cst

import "fmt"

// Kind is the grammar category of a node. The set is closed: every node the
// lowering produces has one of these kinds.
type Kind uint8

const (
	Invalid Kind = iota

	// Top level.
	TranslationUnit
	FunctionDefinition

	// Declarations.
	Declaration
	DeclarationSpecifiers
	DeclarationSpecifier
	TypeSpecifier
	StorageClassSpecifier
	TypeQualifier
	FunctionSpecifier
	InitDeclaratorList
	InitDeclarator
	Initializer
	Declarator
	DirectDeclarator
	Pointer
	AbstractDeclarator
	ParameterTypeList
	ParameterDeclaration
	TypeName

	// Statements.
	CompoundStatement
	ExpressionStatement
	SelectionStatement
	IterationStatement
	JumpStatement
	LabeledStatement

	// Expressions.
	PrimaryExpression
	PostfixExpression
	ArgumentExpressionList
	UnaryExpression
	UnaryOperator
	CastExpression
	MultiplicativeExpression
	AdditiveExpression
	ShiftExpression
	RelationalExpression
	EqualityExpression
	AndExpression
	ExclusiveOrExpression
	InclusiveOrExpression
	LogicalAndExpression
	LogicalOrExpression
	ConditionalExpression
	AssignmentExpression
	Expression

	// Leaves.
	Identifier
	Constant
	StringLiteral
	Token

	// Opaque covers constructs the transducer never inspects (preprocessor
	// lines, struct bodies, typedefs). Its children are still lowered.
	Opaque

	kindCount
)

var kindNames = [kindCount]string{
	Invalid:                  "invalid",
	TranslationUnit:          "translation-unit",
	FunctionDefinition:       "function-definition",
	Declaration:              "declaration",
	DeclarationSpecifiers:    "declaration-specifiers",
	DeclarationSpecifier:     "declaration-specifier",
	TypeSpecifier:            "type-specifier",
	StorageClassSpecifier:    "storage-class-specifier",
	TypeQualifier:            "type-qualifier",
	FunctionSpecifier:        "function-specifier",
	InitDeclaratorList:       "init-declarator-list",
	InitDeclarator:           "init-declarator",
	Initializer:              "initializer",
	Declarator:               "declarator",
	DirectDeclarator:         "direct-declarator",
	Pointer:                  "pointer",
	AbstractDeclarator:       "abstract-declarator",
	ParameterTypeList:        "parameter-type-list",
	ParameterDeclaration:     "parameter-declaration",
	TypeName:                 "type-name",
	CompoundStatement:        "compound-statement",
	ExpressionStatement:      "expression-statement",
	SelectionStatement:       "selection-statement",
	IterationStatement:       "iteration-statement",
	JumpStatement:            "jump-statement",
	LabeledStatement:         "labeled-statement",
	PrimaryExpression:        "primary-expression",
	PostfixExpression:        "postfix-expression",
	ArgumentExpressionList:   "argument-expression-list",
	UnaryExpression:          "unary-expression",
	UnaryOperator:            "unary-operator",
	CastExpression:           "cast-expression",
	MultiplicativeExpression: "multiplicative-expression",
	AdditiveExpression:       "additive-expression",
	ShiftExpression:          "shift-expression",
	RelationalExpression:     "relational-expression",
	EqualityExpression:       "equality-expression",
	AndExpression:            "and-expression",
	ExclusiveOrExpression:    "exclusive-or-expression",
	InclusiveOrExpression:    "inclusive-or-expression",
	LogicalAndExpression:     "logical-and-expression",
	LogicalOrExpression:      "logical-or-expression",
	ConditionalExpression:    "conditional-expression",
	AssignmentExpression:     "assignment-expression",
	Expression:               "expression",
	Identifier:               "identifier",
	Constant:                 "constant",
	StringLiteral:            "string-literal",
	Token:                    "token",
	Opaque:                   "opaque",
}

// String returns the grammar name of the kind.
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// IsLeaf reports whether nodes of this kind carry a token value instead of
// children.
func (k Kind) IsLeaf() bool {
	switch k {
	case Identifier, Constant, StringLiteral, Token:
		return true
	}
	return false
}

// binaryKinds maps a binary operator spelling to the category of the
// expression it forms.
var binaryKinds = map[string]Kind{
	"*":  MultiplicativeExpression,
	"/":  MultiplicativeExpression,
	"%":  MultiplicativeExpression,
	"+":  AdditiveExpression,
	"-":  AdditiveExpression,
	"<<": ShiftExpression,
	">>": ShiftExpression,
	"<":  RelationalExpression,
	">":  RelationalExpression,
	"<=": RelationalExpression,
	">=": RelationalExpression,
	"==": EqualityExpression,
	"!=": EqualityExpression,
	"&":  AndExpression,
	"^":  ExclusiveOrExpression,
	"|":  InclusiveOrExpression,
	"&&": LogicalAndExpression,
	"||": LogicalOrExpression,
}

// BinaryKind returns the expression category formed by a binary operator.
func BinaryKind(op string) (Kind, bool) {
	k, ok := binaryKinds[op]
	return k, ok
}
