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
	"testing"

	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/object"
)

type fakeNatives map[string]int

func (f fakeNatives) Lookup(name string) (int, bool) {
	i, ok := f[name]
	return i, ok
}

func compileSrc(t *testing.T, src string, mode lang.Mode, natives fakeNatives) (*Code, *object.Table) {
	t.Helper()
	root, err := lang.Parse([]byte(src), mode)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	code := NewCode()
	objs := object.New()
	if natives == nil {
		natives = fakeNatives{}
	}
	c := New(code, objs, natives)
	if _, err := c.CompileFile("test.build", root); err != nil {
		t.Fatalf("compile error: %s", err)
	}
	return code, objs
}

func TestCompileArithmeticEmitsExpectedOps(t *testing.T) {
	code, _ := compileSrc(t, "x = 1 + 2 * 3\n", lang.Normal, nil)
	var ops []Op
	for off := 0; off < code.Len(); off += code.OpAt(off).Width() {
		ops = append(ops, code.OpAt(off))
	}
	want := []Op{OpConstant, OpConstant, OpConstant, OpMul, OpAdd, OpConstant, OpStore}
	if len(ops) != len(want) {
		t.Fatalf("got %v ops, want %v", ops, want)
	}
	for i, op := range want {
		if ops[i] != op {
			t.Fatalf("op %d: got %s want %s", i, ops[i], op)
		}
	}
}

func TestCompileNotEqualEmitsEqThenNot(t *testing.T) {
	code, _ := compileSrc(t, "x = (1 != 2)\n", lang.Normal, nil)
	var ops []Op
	for off := 0; off < code.Len(); off += code.OpAt(off).Width() {
		ops = append(ops, code.OpAt(off))
	}
	foundEq, foundNot := false, false
	for _, op := range ops {
		if op == OpEq {
			foundEq = true
		}
		if op == OpNot && foundEq {
			foundNot = true
		}
	}
	if !foundEq || !foundNot {
		t.Fatalf("expected eq followed by not, got %v", ops)
	}
}

func TestCompileIfPatchesJumpTargets(t *testing.T) {
	code, _ := compileSrc(t, "if true\n  x = 1\nendif\n", lang.Normal, nil)
	// find the jmp_if_false and confirm its operand is an offset within
	// the instruction stream (there is no else branch to jump into).
	off := 0
	for off < code.Len() {
		op := code.OpAt(off)
		if op == OpJmpIfFalse {
			target := code.Operand(off, 0)
			if int(target) > code.Len() {
				t.Fatalf("jump target %d exceeds code length %d", target, code.Len())
			}
			return
		}
		off += op.Width()
	}
	t.Fatal("expected a jmp_if_false instruction")
}

func TestCompileForeachEmitsIteratorLoop(t *testing.T) {
	code, _ := compileSrc(t, "foreach x : arr\n  y = x\nendforeach\n", lang.Normal, nil)
	var ops []Op
	for off := 0; off < code.Len(); off += code.OpAt(off).Width() {
		ops = append(ops, code.OpAt(off))
	}
	hasIter, hasNext := false, false
	for _, op := range ops {
		if op == OpIterator {
			hasIter = true
		}
		if op == OpIteratorNext {
			hasNext = true
		}
	}
	if !hasIter || !hasNext {
		t.Fatalf("expected iterator/iterator_next in %v", ops)
	}
}

func TestCompileCallWithNativeDispatchesDirectly(t *testing.T) {
	code, _ := compileSrc(t, "message('hi')\n", lang.Normal, fakeNatives{"message": 7})
	found := false
	for off := 0; off < code.Len(); off += code.OpAt(off).Width() {
		if code.OpAt(off) == OpCallNative {
			if code.Operand(off, 2) != 7 {
				t.Fatalf("expected native index 7, got %d", code.Operand(off, 2))
			}
			found = true
		}
	}
	if !found {
		t.Fatal("expected call_native instruction")
	}
}

func TestCompileUnknownCalleeUsesCall(t *testing.T) {
	code, _ := compileSrc(t, "foo(1)\n", lang.Normal, nil)
	found := false
	for off := 0; off < code.Len(); off += code.OpAt(off).Width() {
		if code.OpAt(off) == OpCall {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a generic call instruction for a non-native callee")
	}
}

func TestCompileBreakOutsideLoopFails(t *testing.T) {
	root, err := lang.Parse([]byte("break\n"), lang.Normal)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	c := New(NewCode(), object.New(), fakeNatives{})
	if _, err := c.CompileFile("test.build", root); err == nil {
		t.Fatal("expected compile error for break outside of a loop")
	}
}

func TestLocationAtRoundTrips(t *testing.T) {
	code, _ := compileSrc(t, "x = 1\n", lang.Normal, nil)
	loc, ok := code.LocationAt(0)
	if !ok {
		t.Fatal("expected a recorded location at offset 0")
	}
	if loc.Pos.Line != 1 {
		t.Fatalf("expected line 1, got %d", loc.Pos.Line)
	}
}
