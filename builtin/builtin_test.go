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

package builtin

import (
	"testing"

	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// run parses and compiles src in Normal mode against a real Registry,
// wires it into a fresh VM as both the native-dispatch table and the
// func_lookup method table, executes it, and returns the VM plus its
// object table for assertions.
func run(t *testing.T, src string) (*vm.VM, *object.Table) {
	t.Helper()
	root, err := lang.Parse([]byte(src), lang.Normal)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	objs := object.New()
	reg := NewRegistry()
	code := compiler.NewCode()
	c := compiler.New(code, objs, reg)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := vm.NewScopeStack()
	typeReg := typecheck.NewRegistry()
	theVM := vm.New(code, objs, scopes, typeReg, reg)
	theVM.Behavior.FuncLookup = reg.FuncLookup
	if _, err := theVM.Run(0, scopes.Root(), lang.Normal, "test.build"); err != nil {
		t.Fatalf("run error: %s", err)
	}
	return theVM, objs
}

func lookup(t *testing.T, m *vm.VM, name string) object.Handle {
	t.Helper()
	v, ok := m.Scopes.Lookup(m.Scopes.Root(), name)
	if !ok {
		t.Fatalf("variable %q not bound", name)
	}
	return v
}

func TestStringStripAndCase(t *testing.T) {
	m, objs := run(t, "a = '  Hello  '.strip()\nb = a.to_upper()\nc = a.to_lower()\n")
	if got := objs.String(lookup(t, m, "a")); got != "Hello" {
		t.Fatalf("a = %q, want Hello", got)
	}
	if got := objs.String(lookup(t, m, "b")); got != "HELLO" {
		t.Fatalf("b = %q, want HELLO", got)
	}
	if got := objs.String(lookup(t, m, "c")); got != "hello" {
		t.Fatalf("c = %q, want hello", got)
	}
}

func TestStringContainsSplitJoin(t *testing.T) {
	m, objs := run(t, "s = 'a,b,c'\nparts = s.split(',')\nn = parts.length()\njoined = '-'.join(parts)\nhas = s.contains('b')\n")
	if got := objs.Number(lookup(t, m, "n")); got != 3 {
		t.Fatalf("n = %d, want 3", got)
	}
	if got := objs.String(lookup(t, m, "joined")); got != "a-b-c" {
		t.Fatalf("joined = %q, want a-b-c", got)
	}
	if got := lookup(t, m, "has"); got != object.HTrue {
		t.Fatalf("has = %v, want true", got)
	}
}

func TestStringFormat(t *testing.T) {
	m, objs := run(t, "s = 'hello @0@, you are @1@'.format('world', 42)\n")
	if got := objs.String(lookup(t, m, "s")); got != "hello world, you are 42" {
		t.Fatalf("s = %q, want %q", got, "hello world, you are 42")
	}
}

func TestVersionCompare(t *testing.T) {
	m, _ := run(t, "a = '1.2.3'.version_compare('>=1.2.0')\nb = '1.2.3'.version_compare('<1.0.0')\n")
	if got := lookup(t, m, "a"); got != object.HTrue {
		t.Fatalf("a = %v, want true", got)
	}
	if got := lookup(t, m, "b"); got != object.HFalse {
		t.Fatalf("b = %v, want false", got)
	}
}

func TestArrayLengthContainsGet(t *testing.T) {
	m, objs := run(t, "a = [1, 2, 3]\nn = a.length()\nhas2 = a.contains(2)\nhas9 = a.contains(9)\nv = a.get(1)\nfallback = a.get(9, 'none')\n")
	if got := objs.Number(lookup(t, m, "n")); got != 3 {
		t.Fatalf("n = %d, want 3", got)
	}
	if got := lookup(t, m, "has2"); got != object.HTrue {
		t.Fatalf("has2 = %v, want true", got)
	}
	if got := lookup(t, m, "has9"); got != object.HFalse {
		t.Fatalf("has9 = %v, want false", got)
	}
	if got := objs.Number(lookup(t, m, "v")); got != 2 {
		t.Fatalf("v = %d, want 2", got)
	}
	if got := objs.String(lookup(t, m, "fallback")); got != "none" {
		t.Fatalf("fallback = %q, want none", got)
	}
}

func TestDictHasKeyGetKeys(t *testing.T) {
	m, objs := run(t, "d = {'x': 1, 'y': 2}\nhx = d.has_key('x')\nhz = d.has_key('z')\nv = d.get('y')\nfallback = d.get('z', 'missing')\nks = d.keys()\n")
	if got := lookup(t, m, "hx"); got != object.HTrue {
		t.Fatalf("hx = %v, want true", got)
	}
	if got := lookup(t, m, "hz"); got != object.HFalse {
		t.Fatalf("hz = %v, want false", got)
	}
	if got := objs.Number(lookup(t, m, "v")); got != 2 {
		t.Fatalf("v = %d, want 2", got)
	}
	if got := objs.String(lookup(t, m, "fallback")); got != "missing" {
		t.Fatalf("fallback = %q, want missing", got)
	}
	if got := objs.ArrayLen(lookup(t, m, "ks")); got != 2 {
		t.Fatalf("len(keys) = %d, want 2", got)
	}
}

func TestIndexingArrayDictString(t *testing.T) {
	m, objs := run(t, "a = [10, 20, 30]\nx = a[1]\nlast = a[-1]\nd = {'k': 'v'}\ny = d['k']\ns = 'abc'\nc = s[0]\n")
	if got := objs.Number(lookup(t, m, "x")); got != 20 {
		t.Fatalf("x = %d, want 20", got)
	}
	if got := objs.Number(lookup(t, m, "last")); got != 30 {
		t.Fatalf("last = %d, want 30", got)
	}
	if got := objs.String(lookup(t, m, "y")); got != "v" {
		t.Fatalf("y = %q, want v", got)
	}
	if got := objs.String(lookup(t, m, "c")); got != "a" {
		t.Fatalf("c = %q, want a", got)
	}
}

func TestIsDisablerAndVariableIntrospection(t *testing.T) {
	m, _ := run(t, "x = 5\nhas_x = is_variable('x')\nhas_y = is_variable('y')\nd = is_disabler(x)\n")
	if got := lookup(t, m, "has_x"); got != object.HTrue {
		t.Fatalf("has_x = %v, want true", got)
	}
	if got := lookup(t, m, "has_y"); got != object.HFalse {
		t.Fatalf("has_y = %v, want false", got)
	}
	if got := lookup(t, m, "d"); got != object.HFalse {
		t.Fatalf("d = %v, want false", got)
	}
}

func TestGetSetVariable(t *testing.T) {
	m, objs := run(t, "set_variable('greeting', 'hi')\ng = get_variable('greeting')\nfallback = get_variable('missing', 'default')\n")
	if got := objs.String(lookup(t, m, "g")); got != "hi" {
		t.Fatalf("g = %q, want hi", got)
	}
	if got := objs.String(lookup(t, m, "fallback")); got != "default" {
		t.Fatalf("fallback = %q, want default", got)
	}
}

func TestFilesReturnsFileObjects(t *testing.T) {
	m, objs := run(t, "fs = files('a.c', 'b.c')\nn = fs.length()\n")
	if got := objs.Number(lookup(t, m, "n")); got != 2 {
		t.Fatalf("n = %d, want 2", got)
	}
	first := objs.ArrayAt(lookup(t, m, "fs"), 0)
	if objs.Tag(first) != object.TagFile {
		t.Fatalf("fs[0] tag = %s, want file", objs.Tag(first))
	}
	if got := objs.File(first).Path; got != "a.c" {
		t.Fatalf("fs[0].Path = %q, want a.c", got)
	}
}

func TestAssertPassesAndFails(t *testing.T) {
	m, _ := run(t, "assert(1 == 1, 'ok')\n")
	_ = m

	root, err := lang.Parse([]byte("assert(1 == 2, 'nope')\n"), lang.Normal)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	objs := object.New()
	reg := NewRegistry()
	code := compiler.NewCode()
	c := compiler.New(code, objs, reg)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := vm.NewScopeStack()
	theVM := vm.New(code, objs, scopes, typecheck.NewRegistry(), reg)
	theVM.Behavior.FuncLookup = reg.FuncLookup
	if _, err := theVM.Run(0, scopes.Root(), lang.Normal, "test.build"); err == nil {
		t.Fatalf("expected assert failure to produce an error")
	}
}

func TestErrorFunctionAborts(t *testing.T) {
	root, err := lang.Parse([]byte("error('boom', 1)\n"), lang.Normal)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	objs := object.New()
	reg := NewRegistry()
	code := compiler.NewCode()
	c := compiler.New(code, objs, reg)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	scopes := vm.NewScopeStack()
	theVM := vm.New(code, objs, scopes, typecheck.NewRegistry(), reg)
	theVM.Behavior.FuncLookup = reg.FuncLookup
	_, err = theVM.Run(0, scopes.Root(), lang.Normal, "test.build")
	if err == nil {
		t.Fatalf("expected error() to abort the run")
	}
}

func TestIsDisablerExemptFromShortCircuit(t *testing.T) {
	m, _ := run(t, "d = disabler()\nr = is_disabler(d)\n")
	if got := lookup(t, m, "r"); got != object.HTrue {
		t.Fatalf("r = %v, want true", got)
	}
}
