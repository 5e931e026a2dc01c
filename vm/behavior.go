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

import "github.com/muonic/muon/object"

// Behavior is the VM's vtable of overridable policy (spec.md §4.6: "All
// mutable behavior hooks ... live in a behavior vtable; the analyzer
// swaps these out"). A plain interpreter run uses DefaultBehavior; the
// analyzer package builds its own Behavior that wraps these with
// assignment recording, scope_group joins, and the impure-loop heuristic.
type Behavior struct {
	LookupVar func(vm *VM, name string) (object.Handle, bool)
	AssignVar func(vm *VM, name string, value object.Handle)

	ScopePush func(vm *VM, parent int) int
	ScopePop  func(vm *VM, id int)
	ScopeDup  func(vm *VM, id int) int

	// EvalProjectFile re-enters the pipeline for subdir()/subproject():
	// lex/parse/compile another source file and run it as a nested eval
	// frame. The core VM has no file system or compiler-driver access,
	// so the default stubs out with an error; the cmd-level driver
	// installs a real implementation.
	EvalProjectFile func(vm *VM, path string) (object.Handle, error)

	NativeDispatch func(vm *VM, idx int, args []object.Handle, kwargs map[string]object.Handle) (object.Handle, error)

	// PopArgs pops nargs positionals and nkwargs (value, key) pairs per
	// the calling convention in spec.md §4.5, returning them in
	// original left-to-right order. Natives apply their own pop_args
	// (spec.md §4.8) type-checking/listify/glob logic on top of this.
	PopArgs func(vm *VM, nargs, nkwargs int) ([]object.Handle, map[string]object.Handle)

	FuncLookup func(vm *VM, self object.Handle, name string) (object.Handle, error)

	Dispatch func(vm *VM) error
}

// DefaultBehavior wires every hook to the plain-interpreter behavior: no
// assignment tracking, no scope-group joins, natives actually invoked.
func DefaultBehavior() *Behavior {
	return &Behavior{
		LookupVar: func(vm *VM, name string) (object.Handle, bool) {
			return vm.Scopes.Lookup(vm.frame().Scope, name)
		},
		AssignVar: func(vm *VM, name string, value object.Handle) {
			vm.Scopes.Set(vm.frame().Scope, name, value)
		},
		ScopePush: func(vm *VM, parent int) int { return vm.Scopes.Push(parent) },
		ScopePop:  func(vm *VM, id int) {},
		ScopeDup:  func(vm *VM, id int) int { return vm.Scopes.Dup(id) },
		EvalProjectFile: func(vm *VM, path string) (object.Handle, error) {
			return object.NoValue, vm.fail("subdir/subproject re-entry is not wired: no project-file evaluator installed")
		},
		NativeDispatch: func(vm *VM, idx int, args []object.Handle, kwargs map[string]object.Handle) (object.Handle, error) {
			if vm.Natives == nil {
				return object.NoValue, vm.fail("no native function registry installed")
			}
			return vm.Natives.Call(vm, idx, args, kwargs)
		},
		PopArgs:    defaultPopArgs,
		FuncLookup: defaultFuncLookup,
		Dispatch:   (*VM).step,
	}
}

func defaultPopArgs(vm *VM, nargs, nkwargs int) ([]object.Handle, map[string]object.Handle) {
	kwargs := make(map[string]object.Handle, nkwargs)
	for i := 0; i < nkwargs; i++ {
		name := vm.Objects.String(vm.pop())
		value := vm.pop()
		kwargs[name] = value
	}
	args := make([]object.Handle, nargs)
	for i := nargs - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	return args, kwargs
}

func defaultFuncLookup(vm *VM, self object.Handle, name string) (object.Handle, error) {
	return object.NoValue, vm.fail("no method table installed for %s.%s", vm.Objects.Tag(self), name)
}
