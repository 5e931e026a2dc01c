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

package object

import "testing"

func TestSingletonHandlesFixed(t *testing.T) {
	tb := New()
	if tb.Tag(HNull) != TagNull {
		t.Fatalf("HNull has tag %v", tb.Tag(HNull))
	}
	if tb.Tag(HDisabler) != TagDisabler {
		t.Fatalf("HDisabler has tag %v", tb.Tag(HDisabler))
	}
	if tb.Tag(HTrue) != TagBool || !tb.IsTrue(HTrue) {
		t.Fatalf("HTrue broken")
	}
	if tb.Tag(HFalse) != TagBool || tb.IsTrue(HFalse) {
		t.Fatalf("HFalse broken")
	}
}

func TestHandleStabilityAcrossAllocation(t *testing.T) {
	tb := New()
	var handles []Handle
	for i := 0; i < 5000; i++ {
		handles = append(handles, tb.NewNumber(int64(i)))
	}
	for i, h := range handles {
		if got := tb.Number(h); got != int64(i) {
			t.Fatalf("handle %d: got %d want %d", h, got, i)
		}
	}
}

func TestMakeStringIdempotent(t *testing.T) {
	tb := New()
	a := tb.MakeString("hello")
	b := tb.MakeString("hello")
	if a != b {
		t.Fatalf("MakeString not idempotent: %v != %v", a, b)
	}
	c := tb.MakeString("world")
	if c == a {
		t.Fatalf("distinct content produced same handle")
	}
}

func TestArrayPushAndCOWClone(t *testing.T) {
	tb := New()
	a := tb.NewArrayFrom([]Handle{tb.NewNumber(1), tb.NewNumber(2)})
	b := a
	tb.SetArrayCOW(a, true)
	// Simulate the VM's add-assign op: since COW is set, dup before
	// mutating, exactly as Table.ArrayAppend would.
	a = tb.ArrayClone(a)
	tb.SetArrayCOW(a, false)
	tb.ArrayPush(a, tb.NewNumber(3))

	got := valuesAsInts(tb, a)
	if want := []int64{1, 2, 3}; !intsEqual(got, want) {
		t.Fatalf("a = %v, want %v", got, want)
	}
	// b must be unaffected (still [1,2]) since a was cloned before the
	// mutating push (spec.md §8 scenario 2).
	gotB := valuesAsInts(tb, b)
	if want := []int64{1, 2}; !intsEqual(gotB, want) {
		t.Fatalf("b = %v, want %v (must not observe a's append)", gotB, want)
	}
}

func valuesAsInts(tb *Table, h Handle) []int64 {
	var out []int64
	for _, v := range tb.ArrayValues(h) {
		out = append(out, tb.Number(v))
	}
	return out
}

func intsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDictInsertionOrderBeforeAndAfterPromotion(t *testing.T) {
	tb := New()
	d := tb.NewDict()
	var keys []Handle
	for i := 0; i < 40; i++ {
		k := tb.MakeString(string(rune('a' + i)))
		keys = append(keys, k)
		tb.DictSet(d, k, tb.NewNumber(int64(i)))
	}
	if !tb.DictIsPromoted(d) {
		t.Fatalf("expected dict to have promoted past %d entries", DictSmallThreshold)
	}
	gotKeys := tb.DictKeys(d)
	if len(gotKeys) != len(keys) {
		t.Fatalf("got %d keys, want %d", len(gotKeys), len(keys))
	}
	for i := range keys {
		if gotKeys[i] != keys[i] {
			t.Fatalf("key %d out of order after promotion: got %v want %v", i, gotKeys[i], keys[i])
		}
	}
	for i, k := range keys {
		v, ok := tb.DictGet(d, k)
		if !ok || tb.Number(v) != int64(i) {
			t.Fatalf("DictGet(%v) = (%v,%v), want (%d,true)", k, v, ok, i)
		}
	}
}

func TestDictSetOverwritesExistingKey(t *testing.T) {
	tb := New()
	d := tb.NewDict()
	k := tb.MakeString("a")
	tb.DictSet(d, k, tb.NewNumber(1))
	tb.DictSet(d, k, tb.NewNumber(2))
	if tb.DictLen(d) != 1 {
		t.Fatalf("expected len 1 after overwrite, got %d", tb.DictLen(d))
	}
	v, _ := tb.DictGet(d, k)
	if tb.Number(v) != 2 {
		t.Fatalf("expected overwritten value 2, got %d", tb.Number(v))
	}
}

func TestTableSaveRestore(t *testing.T) {
	tb := New()
	tb.NewNumber(1)
	m := tb.Save()
	h := tb.NewNumber(2)
	tb.Restore(m)
	// h is now beyond the restored mark; re-allocating should reuse the
	// same handle value (the arena/bucket machinery does not "remember"
	// restored slots, it just shrinks the logical length).
	h2 := tb.NewNumber(3)
	if h2 != h {
		t.Fatalf("expected restore to free the slot for reuse: got %v, want %v", h2, h)
	}
	if tb.Number(h2) != 3 {
		t.Fatalf("got %d", tb.Number(h2))
	}
}
