package fingerprint

import "github.com/mna/vmdecompile/lang/srcnode"

// detectSwapped implements original §4.1's operand-order detection for a
// binary-operator handler: does it compute "pop() OP pop()" (canonical), or
// "const n = pop(); push(pop() OP n)" (swapped, original operand order
// reversed relative to the canonical pop order)? Returns whether a
// recognizable binary-op shape was found at all, and if so, whether it was
// swapped.
func detectSwapped(body srcnode.Node) (isBinary, swapped bool) {
	stmts := srcnode.Statements(body)

	// canonical: single statement "push(a OP b)" with both operands being
	// direct pop() calls.
	if len(stmts) == 1 {
		if bin, ok := pushedBinary(stmts[0]); ok {
			kids := bin.Children()
			if len(kids) == 2 && isPopCall(kids[0]) && isPopCall(kids[1]) {
				return true, false
			}
		}
	}

	// swapped: "const n = pop()" followed (anywhere later) by a statement
	// "push(pop() OP n)" or "push(n OP pop())" -- either operand position
	// referencing the earlier temporary counts, since what matters is that
	// the *first* pop() result ends up as the second operand of OP.
	if len(stmts) >= 2 {
		if tmp, ok := assignedPopTemp(stmts[0]); ok {
			for _, s := range stmts[1:] {
				if bin, ok := pushedBinary(s); ok {
					kids := bin.Children()
					if len(kids) == 2 {
						left, right := kids[0], kids[1]
						if isPopCall(left) && identName(right) == tmp {
							return true, true
						}
						if identName(left) == tmp && isPopCall(right) {
							return true, true
						}
					}
				}
			}
		}
	}

	return false, false
}

// pushedBinary returns the BinaryExpression argument of a
// "push(<binary>)" expression statement, if stmt has that shape.
func pushedBinary(stmt srcnode.Node) (srcnode.Node, bool) {
	if stmt.Kind() != srcnode.KindExpressionStatement {
		return nil, false
	}
	kids := stmt.Children()
	if len(kids) != 1 {
		return nil, false
	}
	call := kids[0]
	if call.Kind() != srcnode.KindCallExpression || calleeName(call) != namePush {
		return nil, false
	}
	args := call.Children()
	if len(args) != 2 {
		return nil, false
	}
	bin := args[1]
	if bin.Kind() != srcnode.KindBinaryExpression {
		return nil, false
	}
	return bin, true
}

// assignedPopTemp returns the identifier name bound by a "<name> = pop()"
// (modeled as an AssignExpression) expression statement, if stmt has that
// shape.
func assignedPopTemp(stmt srcnode.Node) (string, bool) {
	if stmt.Kind() != srcnode.KindExpressionStatement {
		return "", false
	}
	kids := stmt.Children()
	if len(kids) != 1 {
		return "", false
	}
	assign := kids[0]
	if assign.Kind() != srcnode.KindAssignExpression {
		return "", false
	}
	akids := assign.Children()
	if len(akids) != 2 {
		return "", false
	}
	target, value := akids[0], akids[1]
	if target.Kind() != srcnode.KindIdentifier {
		return "", false
	}
	if !isPopCall(value) {
		return "", false
	}
	return target.Name(), true
}

func isPopCall(n srcnode.Node) bool {
	return n.Kind() == srcnode.KindCallExpression && calleeName(n) == namePop
}
