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

package vm

import (
	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/object"
)

// opFunc executes the instruction at ip. It returns an error to abort the
// run, and may set vm.ip itself (for jumps/calls/returns); step() only
// advances ip by the instruction's fixed width when opFunc left ip
// untouched.
type opFunc func(vm *VM, ip int) error

// opTable is the 256-entry function-pointer dispatch table spec.md §4.6
// describes ("invokes a function pointer from a 256-entry table").
var opTable [256]opFunc

func init() {
	opTable[compiler.OpPop] = opPop
	opTable[compiler.OpDup] = opDup
	opTable[compiler.OpSwap] = opSwap

	opTable[compiler.OpConstant] = opConstant
	opTable[compiler.OpConstantList] = opConstantList
	opTable[compiler.OpConstantDict] = opConstantDict
	opTable[compiler.OpConstantFunc] = opConstantFunc

	opTable[compiler.OpAdd] = opAdd
	opTable[compiler.OpSub] = opSub
	opTable[compiler.OpMul] = opMul
	opTable[compiler.OpDiv] = opDiv
	opTable[compiler.OpMod] = opMod
	opTable[compiler.OpEq] = opEq
	opTable[compiler.OpLt] = opLt
	opTable[compiler.OpGt] = opGt
	opTable[compiler.OpIn] = opIn
	opTable[compiler.OpNot] = opNot
	opTable[compiler.OpNegate] = opNegate
	opTable[compiler.OpStringify] = opStringify

	opTable[compiler.OpLoad] = opLoad
	opTable[compiler.OpTryLoad] = opTryLoad
	opTable[compiler.OpStore] = opStore

	opTable[compiler.OpJmp] = opJmp
	opTable[compiler.OpJmpIfFalse] = opJmpIfFalse
	opTable[compiler.OpJmpIfTrue] = opJmpIfTrue
	opTable[compiler.OpJmpIfDisabler] = opJmpIfDisabler
	opTable[compiler.OpJmpIfDisablerKeep] = opJmpIfDisablerKeep

	opTable[compiler.OpIterator] = opIterator
	opTable[compiler.OpIteratorNext] = opIteratorNext

	opTable[compiler.OpCall] = opCall
	opTable[compiler.OpCallNative] = opCallNative
	opTable[compiler.OpMember] = opMember

	opTable[compiler.OpReturn] = opReturn
	opTable[compiler.OpReturnEnd] = opReturnEnd

	opTable[compiler.OpTypecheck] = opTypecheck

	opTable[compiler.OpDbgBreak] = opDbgBreak
	opTable[compiler.OpAzBranch] = opAzBranch
	opTable[compiler.OpAzAlt] = opAzAlt
	opTable[compiler.OpAzMerge] = opAzMerge
}

func opPop(vm *VM, ip int) error {
	if len(vm.stack) == 0 {
		return vm.fail("pop: operand stack empty")
	}
	vm.pop()
	return nil
}

func opDup(vm *VM, ip int) error {
	vm.push(vm.peek())
	return nil
}

func opSwap(vm *VM, ip int) error {
	n := len(vm.stack)
	if n < 2 {
		return vm.fail("swap: fewer than 2 values on the operand stack")
	}
	vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
	return nil
}

func opConstant(vm *VM, ip int) error {
	vm.push(object.Handle(vm.Code.Operand(ip, 0)))
	return nil
}

// popN pops n values and returns them in their original (pushed-first)
// order.
func popN(vm *VM, n int) []object.Handle {
	out := make([]object.Handle, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = vm.pop()
	}
	return out
}

func opConstantList(vm *VM, ip int) error {
	n := int(vm.Code.Operand(ip, 0))
	vals := popN(vm, n)
	vm.push(vm.Objects.NewArrayFrom(vals))
	return nil
}

func opConstantDict(vm *VM, ip int) error {
	n := int(vm.Code.Operand(ip, 0))
	vals := popN(vm, 2*n)
	d := vm.Objects.NewDict()
	for i := 0; i < n; i++ {
		vm.Objects.DictSet(d, vals[2*i], vals[2*i+1])
	}
	vm.push(d)
	return nil
}

func opConstantFunc(vm *VM, ip int) error {
	fnHandle := object.Handle(vm.Code.Operand(ip, 0))
	defaults := vm.pop()
	capture := vm.Objects.NewCapture(object.CapturePayload{
		FuncDef: fnHandle, ScopeRef: vm.frame().Scope, Defaults: defaults, Native: -1,
	})
	vm.push(capture)
	return nil
}

func opLoad(vm *VM, ip int) error {
	name := vm.Objects.String(object.Handle(vm.Code.Operand(ip, 0)))
	v, ok := vm.Behavior.LookupVar(vm, name)
	if !ok {
		return vm.fail("unknown variable %q", name)
	}
	vm.push(v)
	return nil
}

func opTryLoad(vm *VM, ip int) error {
	def := vm.pop()
	name := vm.Objects.String(object.Handle(vm.Code.Operand(ip, 0)))
	if v, ok := vm.Behavior.LookupVar(vm, name); ok {
		vm.push(v)
	} else {
		vm.push(def)
	}
	return nil
}

func opStore(vm *VM, ip int) error {
	flags := compiler.StoreFlag(vm.Code.Operand(ip, 0))

	var rebindName string
	hasRebind := flags&compiler.StoreRebind != 0
	if hasRebind {
		rebindName = vm.Objects.String(vm.pop())
	}

	if flags&compiler.StoreMember != 0 {
		idOrIndex := vm.pop()
		container := vm.pop()
		value := vm.pop()
		newContainer, err := vm.storeMember(container, idOrIndex, value)
		if err != nil {
			return err
		}
		if hasRebind {
			vm.Behavior.AssignVar(vm, rebindName, newContainer)
		}
		return nil
	}

	id := vm.pop()
	name := vm.Objects.String(id)
	value := vm.pop()
	if flags&compiler.StoreAdd != 0 {
		cur, ok := vm.Behavior.LookupVar(vm, name)
		if !ok {
			return vm.fail("%q used with += before being set", name)
		}
		merged, err := addValues(vm, cur, value)
		if err != nil {
			return err
		}
		value = merged
	}
	markShared(vm.Objects, value)
	vm.Behavior.AssignVar(vm, name, value)
	return nil
}

// markShared flags a container as copy-on-write the moment it is bound to
// a variable name (spec.md §3: "A dict or array marked cow is never
// mutated in place; the first mutator copies first and clears the flag").
// Binding by plain assignment is exactly the point a second name could
// start aliasing the same backbone, so every such bind sets the flag;
// the next in-place mutator (ArrayAppend, ArraySet, DictSet's callers,
// ...) clones before it writes.
func markShared(objs *object.Table, v object.Handle) {
	switch objs.Tag(v) {
	case object.TagArray:
		objs.SetArrayCOW(v, true)
	case object.TagDict:
		objs.SetDictCOW(v, true)
	}
}

// storeMember implements `container.id = value` / `container[idx] = value`,
// the only two assignment target shapes besides a plain identifier.
func (vm *VM) storeMember(container, idOrIndex, value object.Handle) (object.Handle, error) {
	switch vm.Objects.Tag(container) {
	case object.TagDict:
		return vm.Objects.DictAssign(container, idOrIndex, value), nil
	case object.TagArray:
		if vm.Objects.Tag(idOrIndex) != object.TagNumber {
			return object.NoValue, vm.fail("array index must be a number, got %s", vm.Objects.Tag(idOrIndex))
		}
		i := int(vm.Objects.Number(idOrIndex))
		if i < 0 || i >= vm.Objects.ArrayLen(container) {
			return object.NoValue, vm.fail("array index %d out of range (len %d)", i, vm.Objects.ArrayLen(container))
		}
		return vm.Objects.ArraySet(container, i, value), nil
	default:
		return object.NoValue, vm.fail("%s does not support member/index assignment", vm.Objects.Tag(container))
	}
}

func opJmp(vm *VM, ip int) error {
	vm.ip = int(vm.Code.Operand(ip, 0))
	return nil
}

func opJmpIfFalse(vm *VM, ip int) error {
	cond := vm.pop()
	if cond == object.HFalse {
		vm.ip = int(vm.Code.Operand(ip, 0))
	}
	return nil
}

func opJmpIfTrue(vm *VM, ip int) error {
	cond := vm.pop()
	if cond == object.HTrue {
		vm.ip = int(vm.Code.Operand(ip, 0))
	}
	return nil
}

// opJmpIfDisabler pops a disabler-carrying value and jumps, consuming it
// (the call-argument short-circuit path: spec.md §4.8 "A disabler in any
// slot short-circuits the call to yield disabler").
func opJmpIfDisabler(vm *VM, ip int) error {
	v := vm.pop()
	if v == object.HDisabler {
		vm.ip = int(vm.Code.Operand(ip, 0))
	}
	return nil
}

// opJmpIfDisablerKeep is the same check without consuming the value, used
// where the disabler itself must remain the expression's result.
func opJmpIfDisablerKeep(vm *VM, ip int) error {
	if vm.peek() == object.HDisabler {
		vm.ip = int(vm.Code.Operand(ip, 0))
	}
	return nil
}

func opIterator(vm *VM, ip int) error {
	wantArity := int(vm.Code.Operand(ip, 0))
	src := vm.pop()
	var it object.Handle
	switch vm.Objects.Tag(src) {
	case object.TagArray:
		it = vm.Objects.NewArrayIterator(src)
	case object.TagDict:
		it = vm.Objects.NewDictIterator(src)
	case object.TagTypeInfo:
		it = vm.Objects.NewTypeInfoIterator(src)
	default:
		return vm.fail("%s is not iterable", vm.Objects.Tag(src))
	}
	if got := vm.Objects.IteratorArity(it); got != wantArity {
		return vm.fail("foreach expects %d loop variable(s), iterable yields %d", wantArity, got)
	}
	vm.push(it)
	return nil
}

func opIteratorNext(vm *VM, ip int) error {
	it := vm.peek()
	vals, ok := vm.Objects.IteratorNext(it)
	if !ok {
		vm.ip = int(vm.Code.Operand(ip, 0))
		return nil
	}
	for _, v := range vals {
		vm.push(v)
	}
	return nil
}

func opTypecheck(vm *VM, ip int) error {
	// Side-table lookup, not yet emitted by the compiler (typed-parameter
	// checking currently happens in the builtin layer's pop_args rather
	// than via this opcode); kept implemented so a future compiler pass
	// emitting typed-function-parameter checks has somewhere to land.
	idx := int(vm.Code.Operand(ip, 0))
	if idx < 0 || idx >= len(vm.TypeTags) {
		return vm.fail("typecheck: no registered type tag at index %d", idx)
	}
	return checkTag(vm, vm.peek(), vm.TypeTags[idx])
}

func opDbgBreak(vm *VM, ip int) error {
	if vm.OnBreak != nil {
		vm.OnBreak(vm)
	}
	return nil
}

// opAzBranch/opAzAlt/opAzMerge bracket every if/elif/else statement
// (compiler's compileIf) but are inert in plain-interpreter mode:
// scope_group joins (spec.md §4.10 — "az_branch pushes a scope_group,
// each alternative pushes its own scope dict, and az_merge pops the
// group, merging sibling dicts") only matter for the analyzer, which
// installs its own Behavior.Dispatch to give these opcodes real handling
// and to re-run every alternative rather than just the one a concrete
// condition selects.
func opAzBranch(vm *VM, ip int) error { return nil }

func opAzAlt(vm *VM, ip int) error { return nil }

func opAzMerge(vm *VM, ip int) error { return nil }
