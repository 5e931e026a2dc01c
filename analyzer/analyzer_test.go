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
	"strings"
	"testing"

	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

type fakeNatives map[string]int

func (f fakeNatives) Lookup(name string) (int, bool) {
	i, ok := f[name]
	return i, ok
}

// Call is a no-op: every test here only cares whether a native's arguments
// were looked up (for unused-variable tracking) or tainted (for the
// NativeDispatch short-circuit), never its return value.
func (f fakeNatives) Call(m *vm.VM, idx int, args []object.Handle, kwargs map[string]object.Handle) (object.Handle, error) {
	return object.NoValue, nil
}

func setup(t *testing.T, src string) (theVM *vm.VM, objs *object.Table, a *Analyzer, entry int) {
	t.Helper()
	root, err := lang.Parse([]byte(src), lang.Normal)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	objs = object.New()
	natives := fakeNatives{"message": 0}
	code := compiler.NewCode()
	c := compiler.New(code, objs, natives)
	entry, err = c.CompileFile("test.build", root)
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := vm.NewScopeStack()
	registry := typecheck.NewRegistry()
	theVM = vm.New(code, objs, scopes, registry, natives)
	store := diag.NewStore()
	a = New(store, len(code.Sources)-1, DefaultOptions())
	return theVM, objs, a, entry
}

func findMessage(records []diag.Record, substr string) bool {
	for _, r := range records {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

// TestIfElseScenarios exercises three distinct if/else outcomes in one
// pass, the way a single project file mixing all three would: a branch
// whose condition is tainted by unknown-at-analysis-time data runs both
// alternatives and must widen+flag the conflicting reassignment; a second,
// literally-true condition runs only its own alternative, narrowing its
// result and marking the unreachable else dead code; a third, non-bool
// condition is a genuine type error.
func TestIfElseScenarios(t *testing.T) {
	src := "x = 'a'\n" +
		"if tainted\n" +
		"  x = 1\n" +
		"else\n" +
		"  x = 2\n" +
		"endif\n" +
		"if true\n" +
		"  y = 1\n" +
		"else\n" +
		"  y = 2\n" +
		"endif\n" +
		"if 5\n" +
		"  z = 1\n" +
		"endif\n"
	theVM, objs, a, entry := setup(t, src)
	root := theVM.Scopes.Root()
	theVM.Scopes.Set(root, "tainted", objs.NewTypeInfo(object.TypeInfoPayload{Type: typecheck.Of(object.TagBool)}))
	if _, err := a.Run(theVM, entry, root, lang.Normal, "test.build"); err != nil {
		t.Fatalf("run error: %s", err)
	}

	records := a.Store.Records()
	if !findMessage(records, "reassignment of variable x") {
		t.Errorf("records = %+v, want a conflicting-reassignment warning for x", records)
	}
	if !findMessage(records, "branch always taken") {
		t.Errorf("records = %+v, want a \"branch always taken\" warning", records)
	}
	if !findMessage(records, "dead code") {
		t.Errorf("records = %+v, want a \"dead code\" warning for y's unreachable else", records)
	}
	if !findMessage(records, "condition must be bool") {
		t.Errorf("records = %+v, want a type error for if 5's non-bool condition", records)
	}

	x, ok := theVM.Scopes.Lookup(root, "x")
	if !ok {
		t.Fatal("x not bound")
	}
	if objs.Tag(x) != object.TagTypeInfo {
		t.Fatalf("x tag = %s, want typeinfo: both alternatives of a tainted condition ran", objs.Tag(x))
	}

	y, ok := theVM.Scopes.Lookup(root, "y")
	if !ok {
		t.Fatal("y not bound")
	}
	if objs.Tag(y) == object.TagTypeInfo || objs.Number(y) != 1 {
		t.Fatalf("y = %v (tag %s), want concrete 1: a literally-true condition narrows", objs.Number(y), objs.Tag(y))
	}
}

// TestIfElseNarrowsWhenExhaustiveSinglePath checks the opposite case: an
// if/else with a concretely false condition runs only the else body, so the
// merge should adopt that branch's value directly rather than widen it.
func TestIfElseNarrowsWhenExhaustiveSinglePath(t *testing.T) {
	src := "if false\n" +
		"  y = 1\n" +
		"else\n" +
		"  y = 2\n" +
		"endif\n"
	theVM, objs, a, entry := setup(t, src)
	if _, err := a.Run(theVM, entry, theVM.Scopes.Root(), lang.Normal, "test.build"); err != nil {
		t.Fatalf("run error: %s", err)
	}
	y, ok := theVM.Scopes.Lookup(theVM.Scopes.Root(), "y")
	if !ok {
		t.Fatal("y not bound")
	}
	if objs.Tag(y) == object.TagTypeInfo {
		t.Fatal("y was widened to typeinfo despite a single, statically-determined reachable branch")
	}
	if objs.Number(y) != 2 {
		t.Fatalf("y = %d, want 2", objs.Number(y))
	}

	records := a.Store.Records()
	if !findMessage(records, "branch never taken") {
		t.Errorf("records = %+v, want a \"branch never taken\" warning", records)
	}
	if !findMessage(records, "dead code") {
		t.Errorf("records = %+v, want a \"dead code\" warning for the unreachable if-body", records)
	}
}

func TestUnusedVariableReported(t *testing.T) {
	src := "unused_one = 1\nused = 2\nmessage(used)\n"
	theVM, _, a, entry := setup(t, src)
	theVM.Behavior = a.behavior()
	if _, err := theVM.Run(entry, theVM.Scopes.Root(), lang.Normal, "test.build"); err != nil {
		t.Fatalf("run error: %s", err)
	}
	a.report(theVM)

	records := a.Store.Records()
	if !findMessage(records, "unused variable unused_one") {
		t.Errorf("records = %+v, want an unused-variable warning for unused_one", records)
	}
	if findMessage(records, "unused variable used") {
		t.Errorf("records = %+v, used should not be flagged: it is read by message()", records)
	}
}

// TestImpureLoopWidensReassignedVariable pre-binds a typeinfo-tagged
// iterable directly (the analyzer never produces one from muon source
// syntax, only from its own reassign-widening elsewhere) to exercise the
// impure-loop-depth rule in isolation: reassigning a loop-external variable
// while iterating a typeinfo source must widen it, the way a "foreach" over
// an unknown-at-analysis-time list would in a real project file.
func TestImpureLoopWidensReassignedVariable(t *testing.T) {
	src := "foreach v : tainted\n" +
		"  x = 'changed'\n" +
		"endforeach\n"
	theVM, objs, a, entry := setup(t, src)
	theVM.Behavior = a.behavior()
	root := theVM.Scopes.Root()
	theVM.Scopes.Set(root, "x", objs.NewNumber(0))
	theVM.Scopes.Set(root, "tainted", objs.NewTypeInfo(object.TypeInfoPayload{Type: typecheck.Of(object.TagArray)}))
	if _, err := theVM.Run(entry, root, lang.Normal, "test.build"); err != nil {
		t.Fatalf("run error: %s", err)
	}
	x, ok := theVM.Scopes.Lookup(root, "x")
	if !ok {
		t.Fatal("x not bound")
	}
	if objs.Tag(x) != object.TagTypeInfo {
		t.Fatalf("x tag = %s, want typeinfo: reassigned inside a loop over typeinfo-tainted data", objs.Tag(x))
	}
}
