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
	"testing"

	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
)

type fakeNatives map[string]int

func (f fakeNatives) Lookup(name string) (int, bool) {
	i, ok := f[name]
	return i, ok
}

// Call implements __index__ directly (index 0) so tests can read a[i]/d['k'].
func (f fakeNatives) Call(vm *VM, idx int, args []object.Handle, kwargs map[string]object.Handle) (object.Handle, error) {
	if idx != 0 {
		return object.NoValue, vm.fail("unknown native %d", idx)
	}
	container, key := args[0], args[1]
	switch vm.Objects.Tag(container) {
	case object.TagArray:
		i := int(vm.Objects.Number(key))
		return vm.Objects.ArrayAt(container, i), nil
	case object.TagDict:
		v, ok := vm.Objects.DictGet(container, key)
		if !ok {
			return object.NoValue, vm.fail("key not found")
		}
		return v, nil
	}
	return object.NoValue, vm.fail("not indexable")
}

func setup(t *testing.T, src string, mode lang.Mode) (*VM, *object.Table) {
	t.Helper()
	theVM, objs := setupNoRun(t, src, mode)
	if _, err := theVM.Run(0, theVM.Scopes.Root(), mode, "test.build"); err != nil {
		t.Fatalf("run error: %s", err)
	}
	return theVM, objs
}

func lookup(t *testing.T, vm *VM, name string) object.Handle {
	t.Helper()
	v, ok := vm.Scopes.Lookup(vm.Scopes.Root(), name)
	if !ok {
		t.Fatalf("variable %q not bound", name)
	}
	return v
}

func TestArithmeticPrecedence(t *testing.T) {
	vm, objs := setup(t, "x = 1 + 2 * 3\n", lang.Normal)
	if got := objs.Number(lookup(t, vm, "x")); got != 7 {
		t.Fatalf("x = %d, want 7", got)
	}
}

func TestStringConcatAndPathJoinDiv(t *testing.T) {
	vm, objs := setup(t, "a = 'foo' + 'bar'\nb = 'dir' / 'file.c'\n", lang.Normal)
	if got := objs.String(lookup(t, vm, "a")); got != "foobar" {
		t.Fatalf("a = %q, want foobar", got)
	}
	if got := objs.String(lookup(t, vm, "b")); got != "dir/file.c" {
		t.Fatalf("b = %q, want dir/file.c", got)
	}
}

func TestArrayAddAppendAndExtend(t *testing.T) {
	vm, objs := setup(t, "a = [1, 2]\nb = a + 3\nc = a + [4, 5]\n", lang.Normal)
	b := lookup(t, vm, "b")
	if objs.ArrayLen(b) != 3 {
		t.Fatalf("b len = %d, want 3", objs.ArrayLen(b))
	}
	c := lookup(t, vm, "c")
	if objs.ArrayLen(c) != 4 {
		t.Fatalf("c len = %d, want 4", objs.ArrayLen(c))
	}
}

func TestIfElifElse(t *testing.T) {
	src := "n = 2\nif n == 1\n  r = 'one'\nelif n == 2\n  r = 'two'\nelse\n  r = 'other'\nendif\n"
	vm, objs := setup(t, src, lang.Normal)
	if got := objs.String(lookup(t, vm, "r")); got != "two" {
		t.Fatalf("r = %q, want two", got)
	}
}

func TestForeachSum(t *testing.T) {
	src := "total = 0\nforeach v : [1, 2, 3, 4]\n  total = total + v\nendforeach\n"
	vm, objs := setup(t, src, lang.Normal)
	if got := objs.Number(lookup(t, vm, "total")); got != 10 {
		t.Fatalf("total = %d, want 10", got)
	}
}

func TestForeachBreakContinue(t *testing.T) {
	src := "total = 0\nforeach v : [1, 2, 3, 4, 5]\n  if v == 2\n    continue\n  endif\n  if v == 4\n    break\n  endif\n  total = total + v\nendforeach\n"
	vm, objs := setup(t, src, lang.Script)
	if got := objs.Number(lookup(t, vm, "total")); got != 4 {
		t.Fatalf("total = %d, want 4 (1 + 3, skipping 2, stopping before 4)", got)
	}
}

func TestFunctionCallWithDefaultAndKwarg(t *testing.T) {
	src := "func add(a, b = 10)\n  return a + b\nendfunc\nx = add(1)\ny = add(1, b: 5)\n"
	vm, objs := setup(t, src, lang.Script)
	if got := objs.Number(lookup(t, vm, "x")); got != 11 {
		t.Fatalf("x = %d, want 11", got)
	}
	if got := objs.Number(lookup(t, vm, "y")); got != 6 {
		t.Fatalf("y = %d, want 6", got)
	}
}

func TestClosureCapturesDefiningScope(t *testing.T) {
	src := "base = 100\nfunc addBase(n)\n  return n + base\nendfunc\nresult = addBase(5)\n"
	vm, objs := setup(t, src, lang.Script)
	if got := objs.Number(lookup(t, vm, "result")); got != 105 {
		t.Fatalf("result = %d, want 105", got)
	}
}

func TestIndexAssignmentRebindsDuplicatedArray(t *testing.T) {
	src := "a = [1, 2, 3]\nb = a\na[0] = 99\n"
	vm, objs := setup(t, src, lang.Normal)
	a := lookup(t, vm, "a")
	b := lookup(t, vm, "b")
	if got := objs.Number(objs.ArrayAt(a, 0)); got != 99 {
		t.Fatalf("a[0] = %d, want 99", got)
	}
	if got := objs.Number(objs.ArrayAt(b, 0)); got != 1 {
		t.Fatalf("b[0] = %d, want 1 (b must not see a's mutation post-COW-split)", got)
	}
}

func TestDictMemberAssignment(t *testing.T) {
	src := "d = {'x': 1}\nd.y = 2\n"
	vm, objs := setup(t, src, lang.Normal)
	d := lookup(t, vm, "d")
	v, ok := objs.DictGet(d, objs.MakeString("y"))
	if !ok {
		t.Fatalf("d.y not set")
	}
	if objs.Number(v) != 2 {
		t.Fatalf("d.y = %d, want 2", objs.Number(v))
	}
}

func TestUndefinedVariableUnwindsWithError(t *testing.T) {
	vmInst, _ := setupNoRun(t, "x = undefined_name\n", lang.Normal)
	_, err := vmInst.Run(0, vmInst.Scopes.Root(), lang.Normal, "test.build")
	if err == nil {
		t.Fatalf("expected an unknown-variable error")
	}
}

func setupNoRun(t *testing.T, src string, mode lang.Mode) (*VM, *object.Table) {
	t.Helper()
	root, err := lang.Parse([]byte(src), mode)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	objs := object.New()
	natives := fakeNatives{"__index__": 0}
	code := compiler.NewCode()
	c := compiler.New(code, objs, natives)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := NewScopeStack()
	registry := typecheck.NewRegistry()
	theVM := New(code, objs, scopes, registry, natives)
	return theVM, objs
}

func TestFunctionErrorUnwindReportsFrame(t *testing.T) {
	src := "func boom()\n  return undefined_name\nendfunc\nx = boom()\n"
	vmInst, _ := setupNoRun(t, src, lang.Script)
	_, err := vmInst.Run(0, vmInst.Scopes.Root(), lang.Script, "test.build")
	if err == nil {
		t.Fatalf("expected an error")
	}
	verr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *vm.Error, got %T", err)
	}
	if len(verr.Frames) != 1 || verr.Frames[0] != "in function boom" {
		t.Fatalf("expected one 'in function boom' frame, got %v", verr.Frames)
	}
}
