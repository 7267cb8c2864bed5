// Package srcnode defines the thin tree-walk interface the fingerprinter
// needs from a parsed representation of the interpreter's own source code.
// Per original spec §9, "the fingerprinter only requires a tree-walk
// interface: an iterator over statements, typed node discrimination, and
// child access. Wrap the external parser in a thin interface; the
// fingerprinter should be testable with synthetic trees."
//
// Locating and parsing the interpreter inside the obfuscated wrapper script
// is explicitly out of scope for the core (original §1): a real caller would
// satisfy this interface from whatever JavaScript parser it already has on
// hand. This package ships only the interface and a synthetic Builder used
// by lang/fingerprint's tests, mirroring how lang/ast.Visitor is the
// teacher's own tree-walk contract for its (in-scope) language.
package srcnode

// Kind discriminates the node shapes the fingerprinter's feature extraction
// needs to recognize. It deliberately stays coarse: the fingerprinter reads
// structure (counts, presence, operators), never values, so finer-grained
// literal kinds collapse to KindLiteral.
type Kind int

const (
	KindProgram Kind = iota
	KindFunctionLiteral
	KindBlockStatement
	KindExpressionStatement
	KindIfStatement
	KindForStatement
	KindWhileStatement
	KindTryStatement
	KindReturnStatement
	KindThrowStatement
	KindDebuggerStatement
	KindSwitchStatement

	KindCallExpression
	KindNewExpression
	KindMemberExpression  // obj.prop or obj[computed]
	KindAssignExpression  // includes compound and nullish-assign forms
	KindBinaryExpression  // arithmetic, comparison, bitwise, in, instanceof, &&, ||
	KindUnaryExpression   // +, -, !, ~, typeof, void
	KindUpdateExpression  // ++/--, prefix or postfix
	KindConditionalExpr   // ternary
	KindSpreadExpression
	KindArrayLiteral
	KindObjectLiteral
	KindIdentifier
	KindThisExpression
	KindLiteral // string/number/bool/null/undefined literal
)

// Node is the minimal read-only view over one node of a parsed script,
// abstract enough to be backed by any concrete JS parser's AST (e.g. an
// adapter over a real parser's node types) or by the synthetic trees built
// with Builder in tests.
type Node interface {
	// Kind identifies the node's syntactic shape.
	Kind() Kind

	// Operator returns the operator token text for binary/unary/update/assign
	// nodes ("+" , "typeof", "++", "&&=", ...), or "" if not applicable.
	Operator() string

	// Name returns the identifier or member-property name for Identifier and
	// non-computed MemberExpression nodes, or "" if not applicable.
	Name() string

	// Computed reports whether a MemberExpression uses bracket (computed)
	// access rather than dot access.
	Computed() bool

	// Prefix reports whether an UpdateExpression is prefix (++x) rather than
	// postfix (x++). Meaningless for any other Kind.
	Prefix() bool

	// Literal returns the decoded value of a KindLiteral node: nil, bool,
	// float64 or string. Meaningless for any other Kind.
	Literal() any

	// Children returns the node's direct children in source order.
	Children() []Node
}

// Walk calls visit for n and recursively for every descendant, depth first,
// pre-order. visit returning false stops recursion into that node's
// children (but siblings are still visited) -- the same short-circuiting
// shape as lang/ast.Walk's nil-Visitor return, kept as a plain function here
// since the fingerprinter only ever needs one traversal strategy.
func Walk(n Node, visit func(Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}

// Statements returns the direct statement children of a Program,
// FunctionLiteral body, or BlockStatement node -- precisely the "iterator
// over statements" original §9 asks for. It is just Children() under a more
// specific name for callers that only care about the top level of a block.
func Statements(n Node) []Node {
	if n == nil {
		return nil
	}
	return n.Children()
}
