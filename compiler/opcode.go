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

// Package compiler lowers a lang.Node tree into a flat bytecode array plus
// a parallel source-location map (spec.md §4.5).
package compiler

// Op is a single VM instruction opcode.
type Op uint8

const (
	OpPop Op = iota
	OpDup
	OpSwap

	OpConstant     // constant k: push object table entry k
	OpConstantList // constant_list n: pop n, build array
	OpConstantDict // constant_dict n: pop 2n, build dict
	OpConstantFunc // constant_func fn_idx: pop defaults-dict, build capture

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpLt
	OpGt
	OpIn
	OpNot
	OpNegate
	OpStringify

	OpLoad    // load id_str: look up name, fail if unset
	OpTryLoad // try_load id_str default: pop default; push value if bound else default
	OpStore   // store flags: pop value, id (flags select plain/member/add-store)

	OpJmp
	OpJmpIfFalse
	OpJmpIfTrue
	OpJmpIfDisabler
	OpJmpIfDisablerKeep

	OpIterator     // iterator n: pop iterable, push iterator (n asserts unpack arity)
	OpIteratorNext // iterator_next break_addr: peek iterator, advance, push values or jump

	OpCall       // call nargs nkwargs: pop capture, invoke
	OpCallNative // call_native nargs nkwargs idx: direct dispatch to builtin idx
	OpMember     // member id: pop self, push bound-method capture

	OpReturn    // return: type-check return value against frame's expected type
	OpReturnEnd // return_end: implicit end-of-function return

	OpTypecheck // typecheck tag: peek top, verify against compile-time type tag

	OpDbgBreak
	OpAzBranch // analyzer-only: push a scope_group for an if/elif/else
	OpAzAlt    // analyzer-only: az_alt guard_ip: marks one branch alternative, guard_ip is its own jmp_if_false offset (NoGuard for a trailing else)
	OpAzMerge  // analyzer-only: pop a scope_group, merging sibling scope dicts

	numOps
)

// operandCount is the number of 24-bit operands each opcode consumes, used
// by both the compiler (to size instructions) and the VM dispatch loop (to
// advance ip by 1 + 3*operandCount, spec.md §4.6).
var operandCount = [numOps]int{
	OpPop: 0, OpDup: 0, OpSwap: 0,
	OpConstant: 1, OpConstantList: 1, OpConstantDict: 1, OpConstantFunc: 1,
	OpAdd: 0, OpSub: 0, OpMul: 0, OpDiv: 0, OpMod: 0, OpEq: 0, OpLt: 0, OpGt: 0,
	OpIn: 0, OpNot: 0, OpNegate: 0, OpStringify: 0,
	OpLoad: 1, OpTryLoad: 1, OpStore: 1,
	OpJmp: 1, OpJmpIfFalse: 1, OpJmpIfTrue: 1, OpJmpIfDisabler: 1, OpJmpIfDisablerKeep: 1,
	OpIterator: 1, OpIteratorNext: 1,
	OpCall: 2, OpCallNative: 3, OpMember: 1,
	OpReturn: 0, OpReturnEnd: 0,
	OpTypecheck: 1,
	OpDbgBreak:  0, OpAzBranch: 0, OpAzAlt: 1, OpAzMerge: 0,
}

// NoGuard is OpAzAlt's guard_ip sentinel for a trailing else alternative,
// which has no condition of its own to guard.
const NoGuard = 0xFFFFFF

// Width returns the total instruction width in bytes for op: one opcode
// byte plus one 3-byte operand per slot (spec.md §4.5: "0..3 24-bit
// big-endian ... operands").
func (op Op) Width() int {
	return 1 + 3*operandCount[op]
}

// StoreFlag selects OpStore's behavior.
type StoreFlag uint32

const (
	StorePlain  StoreFlag = 0
	StoreMember StoreFlag = 1 << iota
	StoreAdd
	// StoreRebind marks a member/index store whose container came from a
	// plain identifier: an extra id constant (the identifier's name) is
	// pushed ahead of the usual id/container/value trio so the VM can
	// rebind the variable to the (possibly COW-duplicated) mutated
	// container, not just mutate it in place.
	StoreRebind
)

var opNames = [numOps]string{
	OpPop: "pop", OpDup: "dup", OpSwap: "swap",
	OpConstant: "constant", OpConstantList: "constant_list", OpConstantDict: "constant_dict", OpConstantFunc: "constant_func",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpEq: "eq", OpLt: "lt", OpGt: "gt", OpIn: "in", OpNot: "not", OpNegate: "negate", OpStringify: "stringify",
	OpLoad: "load", OpTryLoad: "try_load", OpStore: "store",
	OpJmp: "jmp", OpJmpIfFalse: "jmp_if_false", OpJmpIfTrue: "jmp_if_true",
	OpJmpIfDisabler: "jmp_if_disabler", OpJmpIfDisablerKeep: "jmp_if_disabler_keep",
	OpIterator: "iterator", OpIteratorNext: "iterator_next",
	OpCall: "call", OpCallNative: "call_native", OpMember: "member",
	OpReturn: "return", OpReturnEnd: "return_end",
	OpTypecheck: "typecheck",
	OpDbgBreak:  "dbg_break", OpAzBranch: "az_branch", OpAzAlt: "az_alt", OpAzMerge: "az_merge",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "unknown"
}
