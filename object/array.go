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

// ArrayCell is one link of an array's singly-linked backbone
// (spec.md §3: "Arrays are singly-linked chains of {value, next} cells").
type ArrayCell struct {
	Value Handle
	Next  int // index into Table.cells, or -1
}

// ArrayPayload is the payload for TagArray objects.
type ArrayPayload struct {
	Head, Tail int // indices into Table.cells, or -1 if empty
	Length     int
	COW        bool
}

// NewArray allocates an empty array.
func (t *Table) NewArray() Handle {
	return t.alloc(TagArray, t.arrays.Push(ArrayPayload{Head: -1, Tail: -1}))
}

// NewArrayFrom allocates an array containing vs, in order.
func (t *Table) NewArrayFrom(vs []Handle) Handle {
	h := t.NewArray()
	for _, v := range vs {
		t.ArrayPush(h, v)
	}
	return h
}

func (t *Table) arrayPayload(h Handle) *ArrayPayload {
	return t.arrays.Ptr(t.payloadOf(h))
}

// ArrayLen returns the number of elements in the array h.
func (t *Table) ArrayLen(h Handle) int { return t.arrayPayload(h).Length }

// ArrayCOW reports whether h is marked copy-on-write.
func (t *Table) ArrayCOW(h Handle) bool { return t.arrayPayload(h).COW }

// SetArrayCOW sets h's copy-on-write flag (set when a value is shared by
// assignment, e.g. `b = a`, so that `a`'s later mutation does not affect
// `b`'s view; spec.md §3 and scenario 2 in §8).
func (t *Table) SetArrayCOW(h Handle, v bool) { t.arrayPayload(h).COW = v }

// ArrayPush appends v to the tail of array h in place. Callers are
// responsible for checking/clearing the COW flag first (see
// ArrayAppend, which does the dup-then-push dance the spec requires).
func (t *Table) ArrayPush(h Handle, v Handle) {
	p := t.arrayPayload(h)
	idx := t.cells.Push(ArrayCell{Value: v, Next: -1})
	if p.Tail == -1 {
		p.Head = idx
		p.Tail = idx
	} else {
		t.cells.Ptr(p.Tail).Next = idx
		p.Tail = idx
	}
	p.Length++
}

// ArrayAt returns the value at position i (0-based), walking the
// backbone from the head. O(i); callers doing random access at scale
// should iterate instead.
func (t *Table) ArrayAt(h Handle, i int) Handle {
	p := t.arrayPayload(h)
	cell := p.Head
	for n := 0; n < i; n++ {
		cell = t.cells.Get(cell).Next
	}
	return t.cells.Get(cell).Value
}

// ArrayValues materializes the array's elements into a fresh slice, in
// order. Safe to call while other code later appends to h (cells are
// stable once linked; see spec.md §3 "Iteration is safe across
// intervening pushes").
func (t *Table) ArrayValues(h Handle) []Handle {
	p := t.arrayPayload(h)
	out := make([]Handle, 0, p.Length)
	for c := p.Head; c != -1; c = t.cells.Get(c).Next {
		out = append(out, t.cells.Get(c).Value)
	}
	return out
}

// ArrayClone duplicates h's backbone into a brand-new array object (used
// by the copy-on-write mutator: the first mutation after a COW flag is
// set must copy before it writes, per spec.md §3's invariant).
func (t *Table) ArrayClone(h Handle) Handle {
	nh := t.NewArray()
	for _, v := range t.ArrayValues(h) {
		t.ArrayPush(nh, v)
	}
	return nh
}

// ArrayAppend implements the VM's `add` op for array += value: if h is
// shared (COW set), duplicate its backbone first so the original's
// observers are unaffected, then push. Returns the handle the caller
// should rebind its variable to (h itself when no dup was needed).
func (t *Table) ArrayAppend(h, v Handle) Handle {
	if t.ArrayCOW(h) {
		h = t.ArrayClone(h)
	}
	t.ArrayPush(h, v)
	return h
}

// ArrayExtend implements array += array (or list literal extension):
// appends every element of other to h, duplicating first if h is shared.
func (t *Table) ArrayExtend(h, other Handle) Handle {
	if t.ArrayCOW(h) {
		h = t.ArrayClone(h)
	}
	for _, v := range t.ArrayValues(other) {
		t.ArrayPush(h, v)
	}
	return h
}

// ArraySet overwrites the element at position i (0-based) in place,
// duplicating the backbone first if h is shared — the same copy-on-write
// dance ArrayAppend does — since `a[i] = v` mutates exactly like `a +=
// ...` from the object model's point of view. Returns the handle the
// caller should rebind its variable to.
func (t *Table) ArraySet(h Handle, i int, v Handle) Handle {
	if t.ArrayCOW(h) {
		h = t.ArrayClone(h)
	}
	p := t.arrayPayload(h)
	cell := p.Head
	for n := 0; n < i; n++ {
		cell = t.cells.Get(cell).Next
	}
	t.cells.Ptr(cell).Value = v
	return h
}
