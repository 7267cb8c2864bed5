// Package fingerprint implements the opcode fingerprinter (original §4.1):
// it maps a payload's shuffled, numeric opcodes to the canonical Op set by
// structurally inspecting each handler's abstract syntax, never by
// executing it and never by trusting the raw opcode number itself
// (original §9: "fingerprinting must depend solely on structural properties
// of handlers, never on numbers").
package fingerprint

import "github.com/mna/vmdecompile/lang/srcnode"

// helperNames are the nominal names of the interpreter's helper functions
// and state fields, per original §4.1's input description. The
// fingerprinter recognizes calls and member accesses by these names; a
// real caller's extractor is responsible for normalizing the interpreter's
// actual (possibly renamed-by-bundler, but not shuffled) identifiers to
// these before handing handler bodies to Fingerprint, or for passing
// srcnode adapters that already resolve to them.
const (
	nameStack     = "stack"
	nameScopes    = "scopes"
	nameStrings   = "strings"
	nameArguments = "arguments"
	nameThisRef   = "thisRef"
	nameGlobal    = "global"

	namePush       = "push"
	namePop        = "pop"
	nameReadByte   = "readByte"
	nameReadDword  = "readDword"
	nameReadDouble = "readDouble"
)

// feature is the structural feature vector extracted from one handler body,
// per original §4.1's bullet list. It never records literal values beyond
// what's needed to tell opcodes apart (e.g. the literal pushed by a push-
// constant handler), since the fingerprinter must not depend on handler
// behavior, only its shape.
type feature struct {
	pushCount                int
	popCount                 int
	stmtCount                int
	computedAccessCount      int
	doubleComputedAccessCount int

	readsStringTable bool
	readsIndex       bool
	readsByte        bool
	readsDouble      bool
	hasForLoop       bool
	hasWhileLoop     bool
	usesApply        bool
	usesNew          bool
	accessesThis     bool
	accessesArguments bool
	accessesScopes   bool
	accessesGlobal   bool
	doubleBracketScopeAccess bool
	hasAssignment    bool
	hasNullishAssign bool
	hasUpdate        bool
	hasArrayLiteral  bool
	hasObjectLiteral bool
	hasSpread        bool
	hasNestedFunctionLiteral bool
	hasTryFinally    bool
	hasThrow         bool
	hasDebugger      bool
	equalsLiteralOne bool
	hasArrayFromIdiom bool

	operators map[string]bool

	// primary is the Kind of the first "interesting" expression encountered
	// (Binary/Unary/Update), used to disambiguate opcodes that
	// share an operator token (e.g. unary "-" vs binary "-").
	primary     srcnode.Kind
	primarySet  bool
	primaryOp   string
	updatePrefix bool
	// updateTarget describes what an UpdateExpression's operand is:
	// "variable", "property" (dot access) or "element" (computed access).
	updateTarget string

	// pushLiteral is the literal value of a lone "push(<literal>)" handler
	// body, when recognized; nil interface means "not applicable", which is
	// ambiguous with an actual JS null literal, so pushLiteralOK disambiguates.
	pushLiteral   any
	pushLiteralOK bool
	pushIdentName string // non-empty if the sole pushed value is a bare identifier (e.g. "undefined")
}

func extractFeature(body srcnode.Node) feature {
	f := feature{operators: make(map[string]bool)}

	var singlePushArg srcnode.Node
	var sawSingleTopLevelPush bool

	stmts := srcnode.Statements(body)
	f.stmtCount = len(stmts)
	if len(stmts) == 1 {
		if stmt := stmts[0]; stmt.Kind() == srcnode.KindExpressionStatement {
			if kids := stmt.Children(); len(kids) == 1 {
				if call := kids[0]; call.Kind() == srcnode.KindCallExpression && calleeName(call) == namePush {
					if args := call.Children(); len(args) == 2 {
						sawSingleTopLevelPush = true
						singlePushArg = args[1]
					}
				}
			}
		}
	}

	srcnode.Walk(body, func(n srcnode.Node) bool {
		switch n.Kind() {
		case srcnode.KindCallExpression, srcnode.KindNewExpression:
			name := calleeName(n)
			switch name {
			case namePush:
				f.pushCount++
			case namePop:
				f.popCount++
			case nameReadDword:
				f.readsIndex = true
			case nameReadByte:
				f.readsByte = true
			case nameReadDouble:
				f.readsDouble = true
			case "from":
				if calleeObjName(n) == "Array" {
					f.hasArrayFromIdiom = true
				}
			}
			if n.Kind() == srcnode.KindNewExpression || n.Operator() == "new" {
				f.usesNew = true
			}
			if n.Operator() == "apply" || name == "apply" {
				f.usesApply = true
			}
		case srcnode.KindMemberExpression:
			if n.Computed() {
				f.computedAccessCount++
				if kids := n.Children(); len(kids) == 1 && kids[0].Kind() == srcnode.KindMemberExpression && kids[0].Computed() {
					f.doubleComputedAccessCount++
					if memberChainName(n) == nameScopes {
						f.doubleBracketScopeAccess = true
					}
				}
				if kids := n.Children(); len(kids) == 1 && identName(kids[0]) == nameStrings {
					f.readsStringTable = true
				}
			}
			switch n.Name() {
			case nameThisRef:
				f.accessesThis = true
			case nameArguments:
				f.accessesArguments = true
			case nameScopes:
				f.accessesScopes = true
			case nameGlobal:
				f.accessesGlobal = true
			}
		case srcnode.KindThisExpression:
			f.accessesThis = true
		case srcnode.KindIdentifier:
			switch n.Name() {
			case nameArguments:
				f.accessesArguments = true
			case nameScopes:
				f.accessesScopes = true
			case nameGlobal:
				f.accessesGlobal = true
			}
		case srcnode.KindForStatement:
			f.hasForLoop = true
		case srcnode.KindWhileStatement:
			f.hasWhileLoop = true
		case srcnode.KindTryStatement:
			if len(n.Children()) >= 3 {
				f.hasTryFinally = true
			}
		case srcnode.KindThrowStatement:
			f.hasThrow = true
		case srcnode.KindDebuggerStatement:
			f.hasDebugger = true
		case srcnode.KindAssignExpression:
			f.hasAssignment = true
			if n.Operator() == "??=" {
				f.hasNullishAssign = true
			}
		case srcnode.KindUpdateExpression:
			f.hasUpdate = true
			if !f.primarySet {
				f.primary, f.primarySet, f.primaryOp = n.Kind(), true, n.Operator()
				f.updatePrefix = n.Prefix()
				f.updateTarget = updateTargetKind(n)
			}
		case srcnode.KindArrayLiteral:
			f.hasArrayLiteral = true
		case srcnode.KindObjectLiteral:
			f.hasObjectLiteral = true
		case srcnode.KindSpreadExpression:
			f.hasSpread = true
		case srcnode.KindFunctionLiteral:
			f.hasNestedFunctionLiteral = true
		case srcnode.KindBinaryExpression:
			f.operators[n.Operator()] = true
			if !f.primarySet {
				f.primary, f.primarySet, f.primaryOp = n.Kind(), true, n.Operator()
			}
			if n.Operator() == "===" {
				if kids := n.Children(); len(kids) == 2 {
					for _, k := range kids {
						if k.Kind() == srcnode.KindLiteral {
							if fv, ok := k.Literal().(float64); ok && fv == 1 {
								f.equalsLiteralOne = true
							}
						}
					}
				}
			}
		case srcnode.KindUnaryExpression:
			f.operators[n.Operator()] = true
			if !f.primarySet {
				f.primary, f.primarySet, f.primaryOp = n.Kind(), true, n.Operator()
			}
		}
		return true
	})

	if sawSingleTopLevelPush && singlePushArg != nil {
		switch singlePushArg.Kind() {
		case srcnode.KindLiteral:
			f.pushLiteral, f.pushLiteralOK = singlePushArg.Literal(), true
		case srcnode.KindIdentifier:
			f.pushIdentName = singlePushArg.Name()
		}
	}

	return f
}

func calleeName(call srcnode.Node) string {
	kids := call.Children()
	if len(kids) == 0 {
		return ""
	}
	callee := kids[0]
	switch callee.Kind() {
	case srcnode.KindIdentifier:
		return callee.Name()
	case srcnode.KindMemberExpression:
		return callee.Name()
	}
	return ""
}

// calleeObjName returns the base identifier name of a call's callee when the
// callee is a (possibly computed) member expression, e.g. "Array" in
// "Array.from(...)".
func calleeObjName(call srcnode.Node) string {
	kids := call.Children()
	if len(kids) == 0 {
		return ""
	}
	callee := kids[0]
	if callee.Kind() != srcnode.KindMemberExpression {
		return ""
	}
	objKids := callee.Children()
	if len(objKids) == 0 {
		return ""
	}
	return identName(objKids[0])
}

func identName(n srcnode.Node) string {
	if n.Kind() == srcnode.KindIdentifier {
		return n.Name()
	}
	return ""
}

// memberChainName returns the root identifier name of a (possibly nested)
// member expression chain.
func memberChainName(n srcnode.Node) string {
	for n.Kind() == srcnode.KindMemberExpression {
		kids := n.Children()
		if len(kids) == 0 {
			return ""
		}
		if kids[0].Kind() == srcnode.KindIdentifier {
			return kids[0].Name()
		}
		n = kids[0]
	}
	return identName(n)
}

func updateTargetKind(n srcnode.Node) string {
	kids := n.Children()
	if len(kids) == 0 {
		return "variable"
	}
	target := kids[0]
	switch target.Kind() {
	case srcnode.KindMemberExpression:
		if target.Computed() {
			return "element"
		}
		return "property"
	default:
		return "variable"
	}
}
