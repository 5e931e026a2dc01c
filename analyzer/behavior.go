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

package analyzer

import (
	"fmt"

	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// behavior builds the Behavior vtable this Analyzer installs on a VM:
// LookupVar/AssignVar gain assignment/access bookkeeping, NativeDispatch
// gains a tainted-argument short-circuit, and Dispatch becomes a.step
// instead of the plain per-instruction default (spec.md §4.10).
func (a *Analyzer) behavior() *vm.Behavior {
	base := vm.DefaultBehavior()
	return &vm.Behavior{
		LookupVar:       a.lookupVar,
		AssignVar:       a.assignVar,
		ScopePush:       base.ScopePush,
		ScopePop:        base.ScopePop,
		ScopeDup:        base.ScopeDup,
		EvalProjectFile: base.EvalProjectFile,
		NativeDispatch:  a.nativeDispatch,
		PopArgs:         base.PopArgs,
		FuncLookup:      base.FuncLookup,
		Dispatch:        a.step,
	}
}

// assignVar applies the impure-loop widening rule (analyze.c's
// scope_assign: "while inside a loop over typeinfo data, any reassignment
// of an existing variable is forcibly widened to typeinfo"), then records
// the assignment for the unused-variable pass and checks it against the
// name's previous binding in this same scope for a conflicting-type
// diagnostic (analyze.c's check_reassign_to_different_type).
func (a *Analyzer) assignVar(m *vm.VM, name string, value object.Handle) {
	scopeID := m.Frame().Scope
	prev, hadPrev := m.Scopes.Own(scopeID, name)

	if a.loopDepth > 0 && hadPrev && m.Objects.Tag(value) != object.TagTypeInfo {
		value = m.Objects.NewTypeInfo(object.TypeInfoPayload{Type: effectiveTag(m.Objects, value)})
	}

	if hadPrev && a.Options.Enabled&DiagReassignConflictingType != 0 {
		if _, conflict := widen(m, prev, value); conflict {
			a.Store.Push(a.Source, m.CurPos(), diag.LevelWarning,
				fmt.Sprintf("reassignment of variable %s with conflicting type", name))
		}
	}

	rec := &assignRecord{name: name, pos: m.CurPos()}
	a.records = append(a.records, rec)
	if a.live[scopeID] == nil {
		a.live[scopeID] = map[string]*assignRecord{}
	}
	a.live[scopeID][name] = rec

	m.Scopes.Set(scopeID, name, value)
}

// lookupVar walks the scope chain the same way ScopeStack.Lookup does, but
// marks whichever assignment record is currently live for the scope the
// binding was found in as accessed.
func (a *Analyzer) lookupVar(m *vm.VM, name string) (object.Handle, bool) {
	id := m.Frame().Scope
	for id != -1 {
		if v, ok := m.Scopes.Own(id, name); ok {
			if recs, ok := a.live[id]; ok {
				if rec, ok := recs[name]; ok {
					rec.accessed = true
				}
			}
			return v, true
		}
		id = m.Scopes.Parent(id)
	}
	return object.NoValue, false
}

// nativeDispatch short-circuits any call carrying a typeinfo-tainted
// argument: the real native's pop_args type-checking has no tolerance for
// typeinfo values (unlike arithmetic, which propagates taint explicitly),
// so rather than teach every builtin about typeinfo we synthesize an
// untyped typeinfo result directly, the same way analyze.c's evaluator
// never actually calls into a builtin's C implementation for tainted
// arguments.
func (a *Analyzer) nativeDispatch(m *vm.VM, idx int, args []object.Handle, kwargs map[string]object.Handle) (object.Handle, error) {
	tainted := false
	for _, v := range args {
		if m.Objects.Tag(v) == object.TagTypeInfo {
			tainted = true
			break
		}
	}
	if !tainted {
		for _, v := range kwargs {
			if m.Objects.Tag(v) == object.TagTypeInfo {
				tainted = true
				break
			}
		}
	}
	if tainted {
		return m.Objects.NewTypeInfo(object.TypeInfoPayload{Type: typecheck.Tag(0)}), nil
	}
	if m.Natives == nil {
		return object.NoValue, m.Fail("no native function registry installed")
	}
	return m.Natives.Call(m, idx, args, kwargs)
}
