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

// Package vm implements the register-less stack-based virtual machine
// that executes compiled Code (spec.md §4.6). All mutable policy —
// variable lookup/assign, scope push/pop/dup, native dispatch, argument
// popping, method lookup, and the per-instruction dispatch step itself —
// lives behind the Behavior vtable so the analyzer (spec.md §4.10) can
// run the same machine with different behavior rather than duplicating
// the interpreter.
package vm

import (
	"fmt"

	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/lang/token"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
)

// FrameKind distinguishes the two call-frame shapes spec.md §4.6 names:
// "eval" (a top-level file or subdir/subproject re-entry point) and
// "func" (a user-defined function body).
type FrameKind int

const (
	FrameEval FrameKind = iota
	FrameFunc
)

// Frame is one call-stack entry (spec.md §4.6: "return_ip, type∈{eval,
// func}, saved scope_stack, expected return type, language mode, and a
// pointer to the func payload").
type Frame struct {
	Kind       FrameKind
	ReturnIP   int
	Scope      int // scope id active in this frame
	Expected   typecheck.Tag
	Mode       lang.Mode
	Func       *object.FuncDefPayload
	StackBase  int // operand stack length when the frame was entered
	SourceName string
}

// Natives dispatches call_native instructions to the builtin function
// registry; the vm package only needs to be able to invoke one by index
// (kept decoupled the same way compiler.NativeIndex decouples the
// compiler, spec.md §1 Non-goals treats the builtin registry as an
// extension point).
type Natives interface {
	Call(vm *VM, idx int, args []object.Handle, kwargs map[string]object.Handle) (object.Handle, error)
}

// Error reports a runtime fault (spec.md §4.6's vm_error). Frames holds
// one "in function X" message per unwound call frame, innermost first.
type Error struct {
	Pos     token.Position
	Message string
	Frames  []string
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	for _, f := range e.Frames {
		s += "\n  " + f
	}
	return s
}

// VM is a single workspace's execution engine: one object stack, one
// call-frame stack, one instruction pointer (spec.md §4.6: "Single-
// threaded cooperative. One object stack ... one call-frame stack").
type VM struct {
	Code     *compiler.Code
	Objects  *object.Table
	Scopes   *ScopeStack
	Registry *typecheck.Registry
	Natives  Natives
	Behavior *Behavior

	ip      int
	stack   []object.Handle
	frames  []*Frame
	running bool

	// Warnf reports a non-fatal diagnostic (e.g. the "did you mean
	// version_compare?" hint); nil discards them.
	Warnf func(pos token.Position, format string, args ...any)

	// TypeTags is OpTypecheck's side table of compile-time type tags,
	// indexed by its operand.
	TypeTags []typecheck.Tag

	// OnBreak fires on OpDbgBreak, which the compiler emits at
	// Compiler.BreakSource/BreakLine; the cmd Workspace installs the hook.
	OnBreak func(vm *VM)
}

// New returns a VM ready to run code starting from an eval frame whose
// scope is the root of scopes.
func New(code *compiler.Code, objects *object.Table, scopes *ScopeStack, registry *typecheck.Registry, natives Natives) *VM {
	vm := &VM{
		Code:     code,
		Objects:  objects,
		Scopes:   scopes,
		Registry: registry,
		Natives:  natives,
	}
	vm.Behavior = DefaultBehavior()
	return vm
}

func (vm *VM) push(h object.Handle) { vm.stack = append(vm.stack, h) }

func (vm *VM) pop() object.Handle {
	n := len(vm.stack) - 1
	h := vm.stack[n]
	vm.stack = vm.stack[:n]
	return h
}

func (vm *VM) peek() object.Handle { return vm.stack[len(vm.stack)-1] }

func (vm *VM) frame() *Frame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) curPos() token.Position {
	if loc, ok := vm.Code.LocationAt(vm.ip); ok {
		return loc.Pos
	}
	return token.Position{}
}

// CurPos exposes the source position of the instruction currently
// executing, for callers outside the package (the builtin layer's
// message()/warning() reporting) that need to attach a location to a
// diagnostic without reaching into unexported VM state.
func (vm *VM) CurPos() token.Position { return vm.curPos() }

// IP exposes the instruction pointer of the instruction about to execute.
// The analyzer package's custom Dispatch reads this (together with
// Code.OpAt) to recognize az_branch/az_merge boundaries before handing
// control to Step.
func (vm *VM) IP() int { return vm.ip }

// SetIP lets a custom Dispatch redirect control flow (the analyzer uses
// this to re-run a branch body against a duplicated scope rather than the
// single path a plain OpJmpIfFalse would take).
func (vm *VM) SetIP(ip int) { vm.ip = ip }

// Peek exposes the top of the operand stack without popping it, for a
// custom Dispatch that needs to inspect a just-pushed condition value
// (e.g. to decide whether a branch condition is statically known) before
// the default per-instruction handler consumes it.
func (vm *VM) Peek() object.Handle { return vm.peek() }

// StackLen exposes the live operand stack depth, so a custom Dispatch can
// save/restore it around a speculative branch re-run the way unwind does.
func (vm *VM) StackLen() int { return len(vm.stack) }

// TruncateStack drops the operand stack back to n entries, discarding
// whatever a speculative re-run pushed.
func (vm *VM) TruncateStack(n int) { vm.stack = vm.stack[:n] }

// Frame exposes the active call frame, for a custom Dispatch that needs
// to read or rewrite its Scope id (the analyzer substitutes a scope-group
// alternative's duplicated scope while that alternative runs).
func (vm *VM) Frame() *Frame { return vm.frame() }

// Fail builds a *Error positioned at the currently executing instruction,
// the same way the package-internal fail helper does, for a custom
// Dispatch implementation outside the package.
func (vm *VM) Fail(format string, args ...any) error { return vm.fail(format, args...) }

// Step executes exactly the instruction at the current ip using the
// default per-instruction semantics (opTable), the same logic
// DefaultBehavior wires as Dispatch. A package outside vm cannot name the
// unexported step method directly, so the analyzer's own Dispatch calls
// this to delegate once it has finished its own bookkeeping for the
// current instruction.
func Step(vm *VM) error { return vm.step() }

func (vm *VM) fail(format string, args ...any) error {
	return &Error{Pos: vm.curPos(), Message: fmt.Sprintf(format, args...)}
}

// Run pushes a fresh eval frame at entry (scoped to the given scope id)
// and executes until the frame stack drains back below its starting
// depth or an unrecovered error propagates to the caller. It returns the
// top of the operand stack at completion, if any value was left there.
func (vm *VM) Run(entry int, scopeID int, mode lang.Mode, sourceName string) (object.Handle, error) {
	baseDepth := len(vm.frames)
	vm.frames = append(vm.frames, &Frame{
		Kind: FrameEval, ReturnIP: -1, Scope: scopeID, Mode: mode,
		StackBase: len(vm.stack), SourceName: sourceName,
	})
	vm.ip = entry
	vm.running = true

	for vm.running && len(vm.frames) > baseDepth {
		if vm.ip >= vm.Code.Len() {
			// fell off the end of an eval frame's code: implicit return
			vm.frames = vm.frames[:len(vm.frames)-1]
			continue
		}
		if err := vm.Behavior.Dispatch(vm); err != nil {
			return object.NoValue, vm.unwind(err, baseDepth)
		}
	}
	if len(vm.stack) > 0 {
		return vm.peek(), nil
	}
	return object.NoValue, nil
}

// unwind implements spec.md §4.6's error-handling paragraph: pop and
// restore frames (discarding their operand-stack contribution) until the
// nearest eval frame, collecting one "in function X" message per popped
// func frame, then trims the object stack back to that frame's entry
// depth so the outer loop (if any) can keep going with clean state.
func (vm *VM) unwind(err error, baseDepth int) error {
	verr, ok := err.(*Error)
	if !ok {
		verr = &Error{Pos: vm.curPos(), Message: err.Error()}
	}
	for len(vm.frames) > baseDepth {
		f := vm.frame()
		if f.Kind == FrameEval {
			if len(vm.stack) > f.StackBase {
				vm.stack = vm.stack[:f.StackBase]
			}
			vm.frames = vm.frames[:len(vm.frames)-1]
			break
		}
		name := "<anonymous>"
		if f.Func != nil {
			name = f.Func.Name
		}
		verr.Frames = append(verr.Frames, fmt.Sprintf("in function %s", name))
		if len(vm.stack) > f.StackBase {
			vm.stack = vm.stack[:f.StackBase]
		}
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	vm.running = false
	return verr
}

// step executes exactly the instruction at vm.ip, advancing ip by its
// width (spec.md §4.6: "advances ip by the fixed width for that op").
// This is the default Behavior.Dispatch implementation; the analyzer
// installs its own that wraps this one with impure-loop bookkeeping.
func (vm *VM) step() error {
	op := vm.Code.OpAt(vm.ip)
	start := vm.ip
	width := op.Width()
	fn := opTable[op]
	if fn == nil {
		return vm.fail("unimplemented opcode %s", op)
	}
	if err := fn(vm, start); err != nil {
		return err
	}
	if vm.ip == start {
		vm.ip = start + width
	}
	return nil
}
