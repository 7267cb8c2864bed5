package lift

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/vmdecompile/lang/ir"
	"github.com/mna/vmdecompile/lang/region"
)

// bodyLifter runs the forward pass (original §4.7) over one span of
// instructions that share a single CFG and region set: a whole function
// body, or a branch/loop-body/catch-body nested inside one.
type bodyLifter struct {
	ctx     *ctx
	insns   []ir.Instruction
	cfg     *ir.CFG
	regions *region.Set
	out     *emitter
}

// run walks [start,end) dispatching each instruction through the region
// priority cascade (original §4.7's numbered list), returning the stack left
// over at the end of the span.
func (bl *bodyLifter) run(start, end int, stack Stack) Stack {
	idx := start
	for idx < end {
		next := idx
		stack, next = bl.step(idx, stack)
		if next <= idx {
			next = idx + 1
		}
		idx = next
	}
	return stack
}

func (bl *bodyLifter) step(idx int, stack Stack) (Stack, int) {
	insn := bl.insns[idx]

	if l, ok := bl.regions.LoopAt(idx); ok {
		return bl.liftLoop(l, stack)
	}
	if bl.regions.InLoopCondition(idx) {
		return stack, idx + 1
	}
	if lg, ok := bl.regions.LogicalAt(idx); ok {
		return bl.liftLogical(lg, stack)
	}
	if t, ok := bl.regions.TernaryAtJump(idx); ok {
		return bl.liftTernary(t, stack)
	}
	if r, ok := bl.regions.IfElseAtJump(idx); ok {
		return bl.liftIfElse(r, stack)
	}
	if insn.Op == ir.OpTryPush {
		if tc, ok := bl.regions.TryCatchAt(idx); ok {
			return bl.liftTryCatch(tc, stack)
		}
	}

	return bl.process(insn, idx, stack), idx + 1
}

// runSub lifts [start,end) into a fresh emitter at indent, sharing this
// body's CFG and region set (region maps are derived views over the whole
// function body, valid for any sub-range of it).
func (bl *bodyLifter) runSub(start, end, indent int, initial Stack) (*emitter, Stack) {
	sub := &bodyLifter{ctx: bl.ctx, insns: bl.insns, cfg: bl.cfg, regions: bl.regions, out: newEmitter(indent)}
	final := sub.run(start, end, initial)
	return sub.out, final
}

// blockRange returns the instruction index span covering every block in
// ids, assuming (per original §4.6's well-nested assumption) that they form
// a contiguous run.
func (bl *bodyLifter) blockRange(ids []int) (int, int) {
	start, end := -1, -1
	for _, id := range ids {
		b := bl.cfg.Block(id)
		if b == nil {
			continue
		}
		if start == -1 || b.StartIdx < start {
			start = b.StartIdx
		}
		if end == -1 || b.EndIdx > end {
			end = b.EndIdx
		}
	}
	return start, end
}

// liftLoop renders a while(cond){body} from either loop pattern. V1's
// post-test shape (init jump to a trailing test, back-jump to the body) is
// semantically a rotated while loop, so it renders identically to V2's
// pre-test shape once the condition is lifted.
func (bl *bodyLifter) liftLoop(l *ir.LoopRegion, stack Stack) (Stack, int) {
	var cond string

	switch l.Pattern {
	case ir.LoopV2PreTest:
		stack, cond = stack.Pop("true")
		if l.IsTrue {
			cond = "!(" + cond + ")"
		}
	case ir.LoopV1PostTest:
		_, condStack := bl.runSub(l.CondStart, l.CondEnd, bl.out.indent, stack.Clone())
		_, cond = condStack.Pop("true")
		if !l.IsTrue {
			cond = "!(" + cond + ")"
		}
	}

	inner, _ := bl.runSub(l.BodyStart, l.BodyEnd, bl.out.indent+1, nil)
	bl.out.writeLine("while (" + cond + ") {")
	bl.out.writeBlock(inner)
	bl.out.writeLine("}")

	return stack, l.ExitIdx
}

// liftLogical consumes a short-circuit && / || triple: the left operand is
// already on stack (pushed, then duplicated, by the instructions original
// §4.6 names), the right operand is lifted from the triple's tail.
func (bl *bodyLifter) liftLogical(lg *ir.LogicalRegion, stack Stack) (Stack, int) {
	var left string
	stack, left = stack.Pop("false")

	_, rightStack := bl.runSub(lg.RightStart, lg.RightEnd, bl.out.indent, stack.Clone())
	_, right := rightStack.Pop("false")

	stack = stack.Push(BinaryExpr(left, lg.Operator, right))
	return stack, lg.TargetIdx
}

// liftTernary lifts both branches of a ternary region, each into a cloned
// stack, and pushes the single merged expression (original §4.6/§4.7).
func (bl *bodyLifter) liftTernary(r *ir.IfElseRegion, stack Stack) (Stack, int) {
	var cond string
	stack, cond = stack.Pop("true")

	trueStart, trueEnd := bl.blockRange(r.TrueBlocks)
	falseStart, falseEnd := bl.blockRange(r.FalseBlocks)
	trueEnd = bl.trimTrailingJump(trueEnd)
	falseEnd = bl.trimTrailingJump(falseEnd)

	trueExpr := "undefined"
	if trueStart >= 0 {
		_, s := bl.runSub(trueStart, trueEnd, bl.out.indent, stack.Clone())
		_, trueExpr = s.Pop("undefined")
	}
	falseExpr := "undefined"
	if falseStart >= 0 {
		_, s := bl.runSub(falseStart, falseEnd, bl.out.indent, stack.Clone())
		_, falseExpr = s.Pop("undefined")
	}

	stack = stack.Push("(" + cond + " ? " + trueExpr + " : " + falseExpr + ")")
	return stack, bl.mergeIdx(r.MergeBlock)
}

// liftIfElse emits if(cond){...}[else{...}], lifting each branch with its
// own cloned stack and sub-emitter (original §4.6/§4.7).
func (bl *bodyLifter) liftIfElse(r *ir.IfElseRegion, stack Stack) (Stack, int) {
	var cond string
	stack, cond = stack.Pop("true")

	trueStart, trueEnd := bl.blockRange(r.TrueBlocks)
	falseStart, falseEnd := bl.blockRange(r.FalseBlocks)
	trueEnd = bl.trimTrailingJump(trueEnd)
	falseEnd = bl.trimTrailingJump(falseEnd)

	bl.out.writeLine("if (" + cond + ") {")
	if trueStart >= 0 {
		inner, _ := bl.runSub(trueStart, trueEnd, bl.out.indent+1, nil)
		bl.out.writeBlock(inner)
	}
	bl.out.writeLine("}")
	if falseStart >= 0 {
		bl.out.writeLine("else {")
		inner, _ := bl.runSub(falseStart, falseEnd, bl.out.indent+1, nil)
		bl.out.writeBlock(inner)
		bl.out.writeLine("}")
	}

	return stack, bl.mergeIdx(r.MergeBlock)
}

// liftTryCatch emits try{...}catch(e){...}[finally{...}] (original §4.6).
// The catch parameter is rendered as a fixed "e": the wire format gives no
// scope/slot distinct from ordinary variable stores for the caught value.
func (bl *bodyLifter) liftTryCatch(tc *ir.TryCatchRegion, stack Stack) (Stack, int) {
	bl.out.writeLine("try {")
	tryBody, _ := bl.runSub(tc.TryStart, tc.TryEnd, bl.out.indent+1, nil)
	bl.out.writeBlock(tryBody)
	bl.out.writeLine("}")

	bl.out.writeLine("catch (e) {")
	catchBody, _ := bl.runSub(tc.CatchStart, tc.CatchEnd, bl.out.indent+1, nil)
	bl.out.writeBlock(catchBody)
	bl.out.writeLine("}")

	next := tc.CatchEnd
	if tc.FinallyStart > 0 {
		bl.out.writeLine("finally {")
		finallyBody, _ := bl.runSub(tc.FinallyStart, tc.FinallyEnd, bl.out.indent+1, nil)
		bl.out.writeBlock(finallyBody)
		bl.out.writeLine("}")
		next = tc.FinallyEnd
	}

	if idx, ok := bl.cfg.IndexOfAddr(tc.AfterAddr); ok && idx > next {
		next = idx
	}
	return stack, next
}

// trimTrailingJump excludes a branch's terminal unconditional JUMP to the
// merge block: it is implied by the if/else or ternary construct itself and
// must not be lifted as a residual, unstructured control transfer.
func (bl *bodyLifter) trimTrailingJump(end int) int {
	if end > 0 && end <= len(bl.insns) && bl.insns[end-1].Op == ir.OpJump {
		return end - 1
	}
	return end
}

func (bl *bodyLifter) mergeIdx(mergeBlock int) int {
	if mb := bl.cfg.Block(mergeBlock); mb != nil {
		return mb.StartIdx
	}
	return len(bl.insns)
}

// process implements original §4.7's per-instruction semantics for every
// instruction not absorbed by a region.
func (bl *bodyLifter) process(insn ir.Instruction, idx int, stack Stack) Stack {
	if insn.Error != nil {
		bl.out.writeLine("/* Error: " + insn.Error.Error() + " */")
		return stack
	}

	if sym, ok := binaryOperatorSymbols[insn.Op]; ok {
		var left, right string
		stack, right = stack.Pop(rightOperandDefault(insn.Op))
		stack, left = stack.Pop(leftOperandDefault(insn.Op))
		if bl.ctx.swapped.Contains(insn.Opcode) {
			left, right = right, left
		}
		return stack.Push(BinaryExpr(left, sym, right))
	}

	switch insn.Op {
	case ir.OpPushString:
		lit := `""`
		if insn.StringValue != nil {
			lit = FormatString(*insn.StringValue)
		}
		return stack.Push(lit)

	case ir.OpPushInt:
		if a, ok := argOf(insn, ir.KindSignedDword); ok {
			return stack.Push(fmt.Sprintf("%d", a.Int32()))
		}
		return stack.Push("0")

	case ir.OpPushDouble:
		if a, ok := argOf(insn, ir.KindDouble); ok {
			return stack.Push(FormatDouble(a.Float64()))
		}
		return stack.Push("0")

	case ir.OpPushBool:
		if a, ok := argOf(insn, ir.KindBoolean); ok {
			return stack.Push(FormatBool(a.Bool()))
		}
		return stack.Push("false")

	case ir.OpPushNull:
		return stack.Push("null")

	case ir.OpPushUndefined:
		return stack.Push("undefined")

	case ir.OpStackDuplicate:
		var top string
		stack, top = stack.Pop("undefined")
		stack = stack.Push(top)
		return stack.Push(top)

	case ir.OpStackPop, ir.OpSequencePop:
		var expr string
		stack, expr = stack.Pop("")
		if expr != "" {
			bl.out.writeLine(expr + ";")
		}
		return stack

	case ir.OpUnaryPlus:
		return unaryExpr(stack, "+")
	case ir.OpUnaryMinus:
		return unaryExpr(stack, "-")
	case ir.OpUnaryNot:
		return unaryExpr(stack, "!")
	case ir.OpUnaryBitNot:
		return unaryExpr(stack, "~")
	case ir.OpTypeof:
		return unaryExpr(stack, "typeof ")
	case ir.OpVoid:
		return unaryExpr(stack, "void ")

	case ir.OpThrow:
		var v string
		stack, v = stack.Pop("undefined")
		bl.out.writeLine("throw " + v + ";")
		return stack

	case ir.OpIncVarPre, ir.OpDecVarPre, ir.OpIncVarPost, ir.OpDecVarPost:
		return stack.Push(incDecExpr(bl.varName(insn), insn.Op))

	case ir.OpIncPropertyPre, ir.OpDecPropertyPre, ir.OpIncPropertyPost, ir.OpDecPropertyPost:
		var obj string
		stack, obj = stack.Pop("undefined")
		key := "?"
		if insn.StringValue != nil {
			key = *insn.StringValue
		}
		return stack.Push(incDecExpr(PropertyAccess(obj, key), insn.Op))

	case ir.OpIncElementPre, ir.OpDecElementPre, ir.OpIncElementPost, ir.OpDecElementPost:
		var obj, key string
		stack, key = stack.Pop("0")
		stack, obj = stack.Pop("undefined")
		return stack.Push(incDecExpr(ElementAccess(obj, key), insn.Op))

	case ir.OpLoadVariable:
		return stack.Push(bl.varName(insn))

	case ir.OpStoreVariable:
		var v string
		stack, v = stack.Pop("undefined")
		bl.out.writeLine("var " + bl.varName(insn) + " = " + v + ";")
		return stack

	case ir.OpAssignVariable:
		return bl.processAssign(insn, stack)

	case ir.OpLoadGlobal:
		return stack.Push("global")

	case ir.OpLoadGlobalProperty:
		key := "?"
		if insn.StringValue != nil {
			key = *insn.StringValue
		}
		return stack.Push(PropertyAccess("global", key))

	case ir.OpLoadThis:
		return stack.Push("this")

	case ir.OpLoadArgument:
		a, _ := argOf(insn, ir.KindDword)
		return stack.Push(fmt.Sprintf("arguments[%d]", a.Uint32()))

	case ir.OpLoadArguments:
		return stack.Push("arguments")

	case ir.OpCallFunction, ir.OpCallMethod:
		return bl.processCall(insn, idx, stack, false)
	case ir.OpConstruct:
		return bl.processCall(insn, idx, stack, true)

	case ir.OpGetProperty:
		var obj string
		stack, obj = stack.Pop("undefined")
		key := "?"
		if insn.StringValue != nil {
			key = *insn.StringValue
		}
		return stack.Push(PropertyAccess(obj, key))

	case ir.OpSetProperty:
		var obj, v string
		stack, v = stack.Pop("undefined")
		stack, obj = stack.Pop("undefined")
		key := "?"
		if insn.StringValue != nil {
			key = *insn.StringValue
		}
		bl.out.writeLine(PropertyAccess(obj, key) + " = " + v + ";")
		return stack

	case ir.OpGetElement:
		var obj, key string
		stack, key = stack.Pop("0")
		stack, obj = stack.Pop("undefined")
		return stack.Push(ElementAccess(obj, key))

	case ir.OpSetElement:
		var obj, key, v string
		stack, v = stack.Pop("undefined")
		stack, key = stack.Pop("0")
		stack, obj = stack.Pop("undefined")
		bl.out.writeLine(ElementAccess(obj, key) + " = " + v + ";")
		return stack

	case ir.OpBuildArray:
		var items []string
		stack, items = stack.PopN(argcOf(insn), "undefined")
		return stack.Push("[" + strings.Join(items, ", ") + "]")

	case ir.OpBuildObject:
		var items []string
		stack, items = stack.PopN(argcOf(insn)*2, "undefined")
		var parts []string
		for i := 0; i+1 < len(items); i += 2 {
			parts = append(parts, items[i]+": "+items[i+1])
		}
		return stack.Push("{" + strings.Join(parts, ", ") + "}")

	case ir.OpBuildFunction:
		fn := bl.ctx.liftNestedFunction(insn.FnBody, bl.out.indent)
		return stack.Push(fn)

	case ir.OpBuildRegexp:
		return bl.processRegexp(insn, stack)

	case ir.OpJump, ir.OpJumpIfTrue, ir.OpJumpIfFalse:
		bl.out.writeLine(fmt.Sprintf("/* goto L%d */", insn.Addr))
		return stack

	case ir.OpReturn:
		return bl.processReturn(insn, stack)

	case ir.OpDebugger:
		bl.out.writeLine("debugger;")
		return stack

	case ir.OpTryPush:
		bl.out.writeLine("/* try (unstructured) */")
		return stack

	case ir.OpTryPop, ir.OpTryCatch, ir.OpTryFinally:
		return stack

	case ir.OpUnknown:
		bl.out.writeLine(fmt.Sprintf("/* unknown opcode: %s */", insn.OpName))
		return stack

	default:
		return stack
	}
}

func (bl *bodyLifter) varName(insn ir.Instruction) string {
	scopeArg, _ := argOf(insn, ir.KindScope)
	destArg, _ := argOf(insn, ir.KindDest)
	return bl.ctx.names.Name(int(scopeArg.Uint32()), int(destArg.Uint32()))
}

func (bl *bodyLifter) processAssign(insn ir.Instruction, stack Stack) Stack {
	name := bl.varName(insn)
	var v string
	stack, v = stack.Pop("undefined")

	isOpArg, _ := argOf(insn, ir.KindIsOp)
	if !isOpArg.Bool() {
		bl.out.writeLine(name + " = " + v + ";")
		return stack
	}

	sym := "="
	if assignOpArg, ok := argOf(insn, ir.KindAssignOp); ok {
		if op, ok := bl.ctx.opcodes.Lookup(assignOpArg.Byte()); ok {
			if s, ok := binaryOperatorSymbols[op]; ok {
				sym = s + "="
			}
		}
	}
	bl.out.writeLine(name + " " + sym + " " + v + ";")
	return stack
}

// processCall pops argc arguments then the callee (original §4.7's call
// convention); method receivers arrive already folded into the callee
// expression by a preceding GET_PROPERTY's dotted/bracketed form, so no
// separate receiver pop is needed here.
func (bl *bodyLifter) processCall(insn ir.Instruction, idx int, stack Stack, isConstruct bool) Stack {
	var args []string
	stack, args = stack.PopN(argcOf(insn), "undefined")

	var callee string
	stack, callee = stack.Pop("undefined")

	expr := CallExpr(callee, args)
	if isConstruct {
		expr = "new " + expr
	}

	if resultIsConsumed(bl.insns, idx) {
		return stack.Push(expr)
	}
	bl.out.writeLine(expr + ";")
	return stack
}

func (bl *bodyLifter) processRegexp(insn ir.Instruction, stack Stack) Stack {
	if bl.ctx.version == ir.V1Legacy {
		pattern, flags := "", ""
		if len(insn.Args) > 0 {
			pattern = bl.ctx.strings.AtOrPlaceholder(insn.Args[0].Uint32())
		}
		if len(insn.Args) > 1 {
			flags = bl.ctx.strings.AtOrPlaceholder(insn.Args[1].Uint32())
		}
		return stack.Push("/" + pattern + "/" + flags)
	}

	hasFlags := false
	if a, ok := argOf(insn, ir.KindHasFlags); ok {
		hasFlags = a.Bool()
	}

	flags := ""
	if hasFlags {
		var raw string
		stack, raw = stack.Pop("")
		flags = unquote(raw)
	}
	var rawPattern string
	stack, rawPattern = stack.Pop(`""`)
	pattern := unquote(rawPattern)

	return stack.Push("/" + pattern + "/" + flags)
}

func (bl *bodyLifter) processReturn(insn ir.Instruction, stack Stack) Stack {
	hasValue := false
	if a, ok := argOf(insn, ir.KindHasValue); ok {
		hasValue = a.Bool()
	}
	if !hasValue {
		bl.out.writeLine("return;")
		return stack
	}
	var v string
	stack, v = stack.Pop("undefined")
	bl.out.writeLine("return " + v + ";")
	return stack
}

func unaryExpr(stack Stack, sym string) Stack {
	var v string
	stack, v = stack.Pop("undefined")
	return stack.Push(sym + v)
}

func incDecExpr(target string, op ir.Op) string {
	switch op {
	case ir.OpIncVarPre, ir.OpIncPropertyPre, ir.OpIncElementPre:
		return "++" + target
	case ir.OpIncVarPost, ir.OpIncPropertyPost, ir.OpIncElementPost:
		return target + "++"
	case ir.OpDecVarPre, ir.OpDecPropertyPre, ir.OpDecElementPre:
		return "--" + target
	default:
		return target + "--"
	}
}

func argcOf(insn ir.Instruction) int {
	if a, ok := argOf(insn, ir.KindArgc); ok {
		return int(a.Uint32())
	}
	return 0
}

func argOf(insn ir.Instruction, kind ir.ArgKind) (ir.Arg, bool) {
	for _, a := range insn.Args {
		if a.Kind == kind {
			return a, true
		}
	}
	return ir.Arg{}, false
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}
