// Copyright (C) 2026 The Muon Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package compiler

import (
	"fmt"

	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/lang/token"
	"github.com/muonic/muon/object"
)

// CompileError reports a lowering failure (a construct the AST allows but
// the compiler cannot translate, e.g. an unresolved operator).
type CompileError struct {
	Pos     token.Position
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Compiler lowers lang AST trees into a shared Code stream, allocating
// constants through a shared object.Table (spec.md §4.5).
type Compiler struct {
	Code    *Code
	Objects *object.Table
	Natives NativeIndex

	sourceIndex int
	err         error

	// loopBreaks/loopContinues stack jump-patch lists for the innermost
	// enclosing foreach, one frame per nested loop.
	loopBreaks    [][]int
	loopContinues [][]int

	// BreakSource/BreakLine request an OpDbgBreak emitted just before the
	// statement at that (file, line), the debugger breakpoint flag
	// spec.md §6's `setup`/`internal eval` accept; zero BreakLine disables
	// it. breakActive caches whether the file currently being compiled
	// matches BreakSource.
	BreakSource string
	BreakLine   int
	breakActive bool
}

// NativeIndex resolves a builtin function name to its call_native table
// index; builtin is an extension point (spec.md §1 Non-goals) so the
// compiler only needs to be able to ask "is this name a native, and at
// what index", not know the registry's contents.
type NativeIndex interface {
	Lookup(name string) (idx int, ok bool)
}

// New returns a Compiler appending to code using objects as its constant
// pool.
func New(code *Code, objects *object.Table, natives NativeIndex) *Compiler {
	return &Compiler{Code: code, Objects: objects, Natives: natives}
}

// CompileFile compiles the statements of root (a KBlock from lang.Parse)
// as a top-level source file, returning the entry offset or the first
// error encountered.
func (c *Compiler) CompileFile(path string, root *lang.Node) (entry int, err error) {
	c.sourceIndex = c.Code.AddSource(path)
	c.err = nil
	c.breakActive = c.BreakLine > 0 && path == c.BreakSource
	entry = c.Code.Len()
	c.compileBlock(root)
	if c.err != nil {
		return 0, c.err
	}
	return entry, nil
}

func (c *Compiler) fail(pos token.Position, format string, args ...any) {
	if c.err == nil {
		c.err = &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)}
	}
}

func (c *Compiler) emit(op Op, pos token.Position, operands ...uint32) int {
	return c.Code.emit(op, c.sourceIndex, pos, operands...)
}

func (c *Compiler) compileBlock(n *lang.Node) {
	for _, stmt := range n.Children {
		if c.err != nil {
			return
		}
		c.compileStmt(stmt)
	}
}

func (c *Compiler) compileStmt(n *lang.Node) {
	if c.breakActive && n.Pos.Line == c.BreakLine {
		c.emit(OpDbgBreak, n.Pos)
	}
	switch n.Kind {
	case lang.KAssign:
		c.compileAssign(n)
	case lang.KIf:
		c.compileIf(n)
	case lang.KForeach:
		c.compileForeach(n)
	case lang.KBreak:
		if len(c.loopBreaks) == 0 {
			c.fail(n.Pos, "break used outside of a loop")
			return
		}
		top := len(c.loopBreaks) - 1
		off := c.emit(OpJmp, n.Pos, 0)
		c.loopBreaks[top] = append(c.loopBreaks[top], off)
	case lang.KContinue:
		if len(c.loopContinues) == 0 {
			c.fail(n.Pos, "continue used outside of a loop")
			return
		}
		top := len(c.loopContinues) - 1
		off := c.emit(OpJmp, n.Pos, 0)
		c.loopContinues[top] = append(c.loopContinues[top], off)
	case lang.KReturn:
		if n.Left != nil {
			c.compileExpr(n.Left)
		} else {
			c.emit(OpConstant, n.Pos, uint32(c.internNull()))
		}
		c.emit(OpReturn, n.Pos)
	case lang.KFuncDef:
		c.compileFuncDef(n)
	default:
		// expression statement: evaluate then discard the result
		c.compileExpr(n)
		c.emit(OpPop, n.Pos)
	}
}

func (c *Compiler) internNull() object.Handle { return object.HNull }

// compileAssign lowers `lhs = rhs` / `lhs += rhs` to OpStore. OpStore's
// only instruction operand is its flags word; value/id (and, for member
// stores, the container, and, when the base is a plain identifier, a
// rebind name) are pushed on the object stack in the order the VM pops
// them (spec.md §4.5: "store flags (pop value, id; also a 'member store'
// flag path pops value container id ...)").
func (c *Compiler) compileAssign(n *lang.Node) {
	flags := uint32(StorePlain)
	if n.Data == token.PLUSEQ {
		flags = uint32(StoreAdd)
	}
	switch n.Left.Kind {
	case lang.KIdent:
		c.compileExpr(n.Right)
		c.pushIDConst(n.Left.Data.(string), n.Pos)
		c.emit(OpStore, n.Pos, flags)
	case lang.KMember:
		c.compileExpr(n.Right)
		c.compileExpr(n.Left.Left)
		c.pushIDConst(n.Left.Data.(string), n.Pos)
		c.emit(OpStore, n.Pos, c.memberStoreFlags(flags, n.Left.Left))
	case lang.KIndex:
		c.compileExpr(n.Right)
		c.compileExpr(n.Left.Left)
		c.compileExpr(n.Left.Right)
		c.emit(OpStore, n.Pos, c.memberStoreFlags(flags, n.Left.Left))
	default:
		c.fail(n.Pos, "invalid assignment target")
	}
}

// memberStoreFlags sets StoreMember, and additionally pushes the base
// identifier's name and sets StoreRebind when base is a plain variable
// (the common `x.field = v` / `x[i] = v` shape) so the mutated container
// — possibly a fresh handle, if the COW flag forced a duplicate — gets
// written back to the variable that held it (see OpStore's doc comment).
func (c *Compiler) memberStoreFlags(flags uint32, base *lang.Node) uint32 {
	flags |= uint32(StoreMember)
	if base.Kind == lang.KIdent {
		c.pushIDConst(base.Data.(string), base.Pos)
		flags |= uint32(StoreRebind)
	}
	return flags
}

func (c *Compiler) pushIDConst(name string, pos token.Position) {
	c.emit(OpConstant, pos, uint32(c.Objects.MakeString(name)))
}

// compileIf lowers if/elif/else to a plain OpJmpIfFalse/OpJmp chain for
// the ordinary interpreter, bracketed with OpAzBranch/OpAzMerge so the
// analyzer's own Dispatch can recognize the statement's extent and run
// every alternative against its own scope-group member rather than only
// the one branch a concrete condition value would select. Each
// alternative (every br.Body, plus a trailing else if present) starts
// with its own OpAzAlt marker carrying its guard jmp_if_false's offset as
// an operand: a ternary or and/or expression inside a condition or body
// also emits OpJmpIfFalse/OpJmpIfTrue/OpJmp, so the analyzer can't
// recover alternative boundaries by scanning for those opcodes — it reads
// them back out of az_alt's operand and the guard's own patched jump
// target instead.
func (c *Compiler) compileIf(n *lang.Node) {
	c.emit(OpAzBranch, n.Pos)
	var endJumps []int
	for _, br := range n.Branches {
		marker := c.emit(OpAzAlt, br.Cond.Pos, 0)
		c.compileExpr(br.Cond)
		skip := c.emit(OpJmpIfFalse, br.Cond.Pos, 0)
		c.Code.PatchOperand(marker, 0, uint32(skip))
		for _, s := range br.Body {
			c.compileStmt(s)
		}
		endJumps = append(endJumps, c.emit(OpJmp, n.Pos, 0))
		c.Code.PatchOperand(skip, 0, uint32(c.Code.Len()))
	}
	if len(n.Else) > 0 {
		c.emit(OpAzAlt, n.Pos, NoGuard)
		for _, s := range n.Else {
			c.compileStmt(s)
		}
	}
	for _, j := range endJumps {
		c.Code.PatchOperand(j, 0, uint32(c.Code.Len()))
	}
	c.emit(OpAzMerge, n.Pos)
}

func (c *Compiler) compileForeach(n *lang.Node) {
	c.compileExpr(n.Left)
	arity := uint32(1)
	if len(n.Vars) == 2 {
		arity = 2
	}
	c.emit(OpIterator, n.Pos, arity)

	c.loopBreaks = append(c.loopBreaks, nil)
	c.loopContinues = append(c.loopContinues, nil)

	loopStart := c.Code.Len()
	breakPatch := c.emit(OpIteratorNext, n.Pos, 0)
	for i := len(n.Vars) - 1; i >= 0; i-- {
		c.pushIDConst(n.Vars[i], n.Pos)
		c.emit(OpStore, n.Pos, uint32(StorePlain))
	}
	for _, s := range n.Children {
		c.compileStmt(s)
	}
	continueTarget := c.Code.Len()
	c.emit(OpJmp, n.Pos, uint32(loopStart))
	c.Code.PatchOperand(breakPatch, 0, uint32(c.Code.Len()))

	top := len(c.loopBreaks) - 1
	for _, j := range c.loopBreaks[top] {
		c.Code.PatchOperand(j, 0, uint32(c.Code.Len()))
	}
	for _, j := range c.loopContinues[top] {
		c.Code.PatchOperand(j, 0, uint32(continueTarget))
	}
	c.loopBreaks = c.loopBreaks[:top]
	c.loopContinues = c.loopContinues[:top]
	c.emit(OpPop, n.Pos) // drop the iterator object
}

func (c *Compiler) compileFuncDef(n *lang.Node) {
	sig := n.Data.(*lang.FuncSig)

	skip := c.emit(OpJmp, n.Pos, 0)
	entry := c.Code.Len()
	// OpCall itself binds positional args, keyword args, and captured
	// defaults into the callee's fresh scope before jumping here (see
	// vm/call.go's bindParams) — the function body starts executing with
	// its parameters already bound, with nothing left for the prologue to
	// pop off the operand stack.
	for _, s := range n.Children {
		c.compileStmt(s)
	}
	c.emit(OpReturnEnd, n.Pos)
	c.Code.PatchOperand(skip, 0, uint32(c.Code.Len()))

	paramNames := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		paramNames[i] = p.Name
	}
	fnHandle := c.Objects.NewFuncDef(object.FuncDefPayload{
		Name: sig.Name, EntryPC: entry, ParamNames: paramNames,
	})
	// Defaults travel as a dict, built the same way a {} literal is: key
	// then value per pair, in order, so constant_dict's 2n-pop contract
	// (see compileExpr's KDictLit case) reconstructs them correctly.
	for i := 0; i < len(sig.Params); i++ {
		c.pushIDConst(sig.Params[i].Name, n.Pos)
		if sig.Params[i].Default != nil {
			c.compileExpr(sig.Params[i].Default)
		} else {
			c.emit(OpConstant, n.Pos, uint32(object.HNull))
		}
	}
	c.emit(OpConstantDict, n.Pos, uint32(len(sig.Params)))
	c.emit(OpConstantFunc, n.Pos, uint32(fnHandle))

	c.pushIDConst(sig.Name, n.Pos)
	c.emit(OpStore, n.Pos, uint32(StorePlain))
}

func (c *Compiler) compileExpr(n *lang.Node) {
	switch n.Kind {
	case lang.KNumber:
		c.emit(OpConstant, n.Pos, uint32(c.Objects.NewNumber(n.Data.(int64))))
	case lang.KString:
		c.emit(OpConstant, n.Pos, uint32(c.Objects.MakeString(n.Data.(string))))
	case lang.KFString:
		c.compileFString(n)
	case lang.KBool:
		h := object.HFalse
		if n.Data.(bool) {
			h = object.HTrue
		}
		c.emit(OpConstant, n.Pos, uint32(h))
	case lang.KIdent:
		idConst := c.Objects.MakeString(n.Data.(string))
		c.emit(OpLoad, n.Pos, uint32(idConst))
	case lang.KArrayLit:
		for _, el := range n.Children {
			c.compileExpr(el)
		}
		c.emit(OpConstantList, n.Pos, uint32(len(n.Children)))
	case lang.KDictLit:
		for _, el := range n.Children {
			c.compileExpr(el)
		}
		c.emit(OpConstantDict, n.Pos, uint32(len(n.Children)/2))
	case lang.KBinOp:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		op, negate := binOpcode(n.Data.(token.Kind))
		c.emit(op, n.Pos)
		if negate {
			c.emit(OpNot, n.Pos)
		}
	case lang.KAnd:
		c.compileExpr(n.Left)
		jf := c.emit(OpJmpIfFalse, n.Pos, 0)
		c.emit(OpPop, n.Pos)
		c.compileExpr(n.Right)
		c.Code.PatchOperand(jf, 0, uint32(c.Code.Len()))
	case lang.KOr:
		c.compileExpr(n.Left)
		jt := c.emit(OpJmpIfTrue, n.Pos, 0)
		c.emit(OpPop, n.Pos)
		c.compileExpr(n.Right)
		c.Code.PatchOperand(jt, 0, uint32(c.Code.Len()))
	case lang.KUnary:
		c.compileExpr(n.Left)
		switch n.Data.(token.Kind) {
		case token.KW_NOT:
			c.emit(OpNot, n.Pos)
		case token.MINUS:
			c.emit(OpNegate, n.Pos)
		}
	case lang.KTernary:
		c.compileExpr(n.Left)
		jf := c.emit(OpJmpIfFalse, n.Pos, 0)
		c.compileExpr(n.Mid)
		end := c.emit(OpJmp, n.Pos, 0)
		c.Code.PatchOperand(jf, 0, uint32(c.Code.Len()))
		c.compileExpr(n.Right)
		c.Code.PatchOperand(end, 0, uint32(c.Code.Len()))
	case lang.KIndex:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.emitIndexCall(n.Pos)
	case lang.KMember:
		c.compileExpr(n.Left)
		idConst := c.Objects.MakeString(n.Data.(string))
		c.emit(OpMember, n.Pos, uint32(idConst))
	case lang.KCall:
		c.compileCall(n)
	default:
		c.fail(n.Pos, "cannot compile expression of kind %d", n.Kind)
	}
}

// emitIndexCall lowers `a[b]` to the `__index__` native, since indexing is a
// per-type builtin rather than its own opcode (spec.md §4.8's function
// table covers array/dict/string getitem; only `a[b] = c` has a dedicated
// opcode path via OpStore's member-store flag).
func (c *Compiler) emitIndexCall(pos token.Position) {
	idx, ok := c.Natives.Lookup("__index__")
	if !ok {
		c.fail(pos, "internal: __index__ native not registered")
		return
	}
	c.emit(OpCallNative, pos, 2, 0, uint32(idx))
}

func (c *Compiler) compileCall(n *lang.Node) {
	for _, a := range n.Children {
		c.compileExpr(a)
	}
	for _, kw := range n.KwArgs {
		c.compileExpr(kw.Value)
		idConst := c.Objects.MakeString(kw.Name)
		c.emit(OpConstant, kw.Value.Pos, uint32(idConst))
	}
	nargs := uint32(len(n.Children))
	nkwargs := uint32(len(n.KwArgs))

	if n.Left.Kind == lang.KIdent {
		name := n.Left.Data.(string)
		if idx, ok := c.Natives.Lookup(name); ok {
			c.emit(OpCallNative, n.Pos, nargs, nkwargs, uint32(idx))
			return
		}
	}
	c.compileExpr(n.Left)
	c.emit(OpCall, n.Pos, nargs, nkwargs)
}

func (c *Compiler) compileFString(n *lang.Node) {
	data := n.Data.([2]any)
	parts := data[0].([]string)
	isVar := data[1].([]bool)
	count := 0
	for i, p := range parts {
		if isVar[i] {
			idConst := c.Objects.MakeString(p)
			c.emit(OpLoad, n.Pos, uint32(idConst))
			c.emit(OpStringify, n.Pos)
		} else {
			c.emit(OpConstant, n.Pos, uint32(c.Objects.MakeString(p)))
		}
		count++
	}
	for i := 1; i < count; i++ {
		c.emit(OpAdd, n.Pos)
	}
}

// binOpcode returns the opcode for k and whether its result must be
// negated afterward: the instruction set only has eq/lt/gt (spec.md §4.5),
// so != is not(eq), <= is not(gt), and >= is not(lt).
func binOpcode(k token.Kind) (op Op, negate bool) {
	switch k {
	case token.PLUS:
		return OpAdd, false
	case token.MINUS:
		return OpSub, false
	case token.STAR:
		return OpMul, false
	case token.SLASH:
		return OpDiv, false
	case token.PERCENT:
		return OpMod, false
	case token.EQ:
		return OpEq, false
	case token.NE:
		return OpEq, true
	case token.LT:
		return OpLt, false
	case token.GT:
		return OpGt, false
	case token.LE:
		return OpGt, true
	case token.GE:
		return OpLt, true
	case token.KW_IN:
		return OpIn, false
	}
	return OpAdd, false
}
