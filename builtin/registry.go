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

// Package builtin implements the native function table the vm package
// dispatches `call_native` and method-capture calls against (spec.md
// §4.8: "a lookup table of {name -> (argspec, return_type, impl)}").
// Function tables are grouped by receiver type, plus one module-function
// table shared by every free function (message(), files(), option(),
// ...); func_lookup resolves `self.name` against the table for self's
// tag, constructing a native-backed capture the vm package invokes
// through the same OpCall path as a script-defined function.
package builtin

import (
	"fmt"

	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/option"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// Impl is a native function body. self is NoValue for a free function;
// pos/kw have already been through pop_args (bindArgs) by the time Impl
// runs, so required slots are present, defaults have been filled, and
// glob slots have been collected into arrays.
type Impl func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error)

// ArgSpec describes one positional or keyword argument slot (spec.md
// §4.8's an[]/akw[] entries). A zero Type (the Any field set) skips the
// type check entirely, the way `obj_any` does in the original arg table.
type ArgSpec struct {
	Name     string
	Type     typecheck.Tag
	Any      bool // skip the type check for this slot
	Required bool
	Glob     bool // positional only: collect every remaining arg into an array
}

// Func is one function descriptor: {name, func, return_type, an[], akw[],
// self_transform?, flags, desc} per spec.md §4.8, minus the `flags` bit
// field: disabler short-circuiting happens in Registry.Call before
// bindArgs runs, and the one per-descriptor exemption from it is the
// SkipDisablerCheck field.
type Func struct {
	Name       string
	Impl       Impl
	ReturnType typecheck.Tag
	Pos        []ArgSpec
	Kw         []ArgSpec
	// IsMethod is set by addMethod: a method descriptor's first popped
	// argument is the bound receiver, not its first positional slot.
	IsMethod bool
	// SkipDisablerCheck exempts is_disabler()/disabler() from the
	// ordinary call-wide disabler short-circuit: the whole point of
	// is_disabler is to inspect a disabler value rather than propagate it.
	SkipDisablerCheck bool
	Desc              string
}

// Registry is the function-pointer table spec.md §4.8 describes,
// partitioned into a module (free-function) table and one table per
// receiver object.Tag. It implements compiler.NativeIndex (Lookup) and
// vm.Natives (Call).
type Registry struct {
	funcs   []Func
	byName  map[string]int
	methods map[object.Tag]map[string]int

	// Options is the option() / get_option() target; nil until the
	// driver wires one in with SetOptions (the package that constructs
	// a project's option.Store knows which project it belongs to, a
	// Registry built by NewRegistry() does not).
	Options *option.Store

	// Diag is the diagnostic store message()/warning() push leveled
	// records into (spec.md §4.12) once a driver wires one in with
	// SetDiag; nil falls back to the VM's plain Warnf hook.
	Diag   *diag.Store
	Source int
}

// SetOptions wires store as the target of option()/get_option() and
// returns the Registry, so a driver can chain it onto NewRegistry().
func (r *Registry) SetOptions(store *option.Store) *Registry {
	r.Options = store
	return r
}

// SetDiag wires store as the destination for message()/warning() (and
// arith.go's version-comparison hint), tagged as coming from source
// (a diag.Sources index the driver interned for the file being run), and
// returns the Registry so a driver can chain it onto NewRegistry().
func (r *Registry) SetDiag(store *diag.Store, source int) *Registry {
	r.Diag = store
	r.Source = source
	return r
}

// NewRegistry builds the full builtin table: module-level functions plus
// the string/array/dict receiver method tables. The several hundred
// build-description functions (executable(), dependency(), ...) are out
// of this spec's scope (§1: "per-builtin-function bodies ... the spec
// treats them as a lookup table") and are not populated here; the entry
// points the interpreter core itself exercises — message/warning/error/
// assert, variable get/set, is_disabler/is_variable, files(), and the
// string/array/dict method surface foreach/if conditions actually use —
// are.
func NewRegistry() *Registry {
	r := &Registry{
		byName:  map[string]int{},
		methods: map[object.Tag]map[string]int{},
	}
	r.addModule(indexFunc)
	registerModuleFuncs(r)
	registerOptionFuncs(r)
	registerStringMethods(r)
	registerArrayMethods(r)
	registerDictMethods(r)
	return r
}

func (r *Registry) addModule(f Func) int {
	idx := len(r.funcs)
	r.funcs = append(r.funcs, f)
	r.byName[f.Name] = idx
	return idx
}

func (r *Registry) addMethod(tag object.Tag, f Func) int {
	f.IsMethod = true
	idx := len(r.funcs)
	r.funcs = append(r.funcs, f)
	m := r.methods[tag]
	if m == nil {
		m = map[string]int{}
		r.methods[tag] = m
	}
	m[f.Name] = idx
	return idx
}

// Lookup implements compiler.NativeIndex: resolves a bare-identifier call
// (or the synthetic "__index__" the compiler emits for `a[b]`) to its
// call_native table index.
func (r *Registry) Lookup(name string) (int, bool) {
	idx, ok := r.byName[name]
	return idx, ok
}

// ModuleFunctionNames lists every registered free-function name (not
// receiver methods), for a driver that needs to enumerate the builtin
// surface without a handle to call against — e.g. lsp's
// textDocument/completion, which has no receiver to resolve a method
// table from.
func (r *Registry) ModuleFunctionNames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// Describe returns the Func descriptor registered under name (a module
// function, not a receiver method), for introspection callers like
// `internal dump_docs` that need the argspec rather than a callable.
func (r *Registry) Describe(name string) (Func, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Func{}, false
	}
	return r.funcs[idx], true
}

// FuncLookup implements vm.Behavior.FuncLookup: resolves `self.name` to a
// native-backed capture (spec.md §4.8's func_lookup(self, name)).
func (r *Registry) FuncLookup(m *vm.VM, self object.Handle, name string) (object.Handle, error) {
	tbl := r.methods[m.Objects.Tag(self)]
	idx, ok := tbl[name]
	if !ok {
		return object.NoValue, fmt.Errorf("%s has no method %q", m.Objects.Tag(self), name)
	}
	return m.Objects.NewCapture(object.CapturePayload{
		FuncDef:   object.NoValue,
		Defaults:  object.NoValue,
		BoundSelf: self,
		Native:    idx,
	}), nil
}

// Call implements vm.Natives: resolve idx's descriptor, run pop_args
// (bindArgs) against the already-VM-popped args/kwargs, peel off the
// bound receiver for a method call, and invoke the body.
func (r *Registry) Call(m *vm.VM, idx int, args []object.Handle, kwargs map[string]object.Handle) (object.Handle, error) {
	if idx < 0 || idx >= len(r.funcs) {
		return object.NoValue, fmt.Errorf("unknown native function index %d", idx)
	}
	f := r.funcs[idx]

	var self object.Handle
	if f.IsMethod {
		if len(args) == 0 {
			return object.NoValue, fmt.Errorf("%s: missing receiver", f.Name)
		}
		self, args = args[0], args[1:]
	}

	// A disabler in any slot short-circuits the call to yield disabler
	// (spec.md §4.8), checked before the rest of pop_args so a disabled
	// dependency flowing through, say, executable(dep_obj) need not be
	// special-cased by every function body. is_disabler()/disabler() are
	// exempt: they exist specifically to construct/inspect the value.
	if !f.SkipDisablerCheck {
		if self == object.HDisabler {
			return object.HDisabler, nil
		}
		for _, a := range args {
			if a == object.HDisabler {
				return object.HDisabler, nil
			}
		}
		for _, v := range kwargs {
			if v == object.HDisabler {
				return object.HDisabler, nil
			}
		}
	}

	pos, kw, err := bindArgs(m, f, args, kwargs)
	if err != nil {
		return object.NoValue, err
	}
	return f.Impl(m, self, pos, kw)
}
