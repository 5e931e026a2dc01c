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

package arena

import "testing"

func TestArenaAllocZeroed(t *testing.T) {
	a := New(64)
	b, err := a.Alloc(16, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range b {
		if c != 0 {
			t.Fatalf("expected zeroed memory, got %v", b)
		}
	}
	for i := range b {
		b[i] = 0xff
	}
}

func TestArenaPopTo(t *testing.T) {
	a := New(64)
	_, _ = a.Alloc(8, 1)
	m := a.Save()
	b2, _ := a.Alloc(8, 1)
	for i := range b2 {
		b2[i] = 0xaa
	}
	a.PopTo(m)
	// Re-allocate the same region and verify it comes back zeroed.
	b3, _ := a.Alloc(8, 1)
	for _, c := range b3 {
		if c != 0 {
			t.Fatalf("expected memory above mark to be zeroed after PopTo, got %v", b3)
		}
	}
}

func TestArenaGrowsAcrossBlocks(t *testing.T) {
	a := New(16)
	for i := 0; i < 10; i++ {
		if _, err := a.Alloc(8, 1); err != nil {
			t.Fatal(err)
		}
	}
	if len(a.blocks) < 2 {
		t.Fatalf("expected arena to have grown past one block, got %d", len(a.blocks))
	}
}

func TestFixedArenaOverflow(t *testing.T) {
	a := Fixed(make([]byte, 8))
	if _, err := a.Alloc(8, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Alloc(1, 1); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestBucketHandleStability(t *testing.T) {
	b := NewBucket[int](4)
	var idxs []int
	for i := 0; i < 20; i++ {
		idxs = append(idxs, b.Push(i*10))
	}
	for i, idx := range idxs {
		if got := b.Get(idx); got != i*10 {
			t.Fatalf("index %d: got %d, want %d", idx, got, i*10)
		}
	}
	// Growing past more buckets must not disturb earlier handles.
	for i := 20; i < 40; i++ {
		b.Push(i * 10)
	}
	for i, idx := range idxs {
		if got := b.Get(idx); got != i*10 {
			t.Fatalf("after growth, index %d: got %d, want %d", idx, got, i*10)
		}
	}
}

func TestBucketPtrStableAcrossGrowth(t *testing.T) {
	b := NewBucket[int](2)
	i0 := b.Push(1)
	p := b.Ptr(i0)
	for i := 0; i < 10; i++ {
		b.Push(i)
	}
	if *p != 1 {
		t.Fatalf("pointer into bucket was invalidated by growth: got %d", *p)
	}
}

func TestBucketSaveRestore(t *testing.T) {
	b := NewBucket[int](4)
	for i := 0; i < 5; i++ {
		b.Push(i)
	}
	m := b.Save()
	for i := 0; i < 5; i++ {
		b.Push(100 + i)
	}
	b.Restore(m)
	if b.Len() != 5 {
		t.Fatalf("expected len 5 after restore, got %d", b.Len())
	}
	for i := 0; i < 5; i++ {
		if b.Get(i) != i {
			t.Fatalf("index %d: got %d, want %d", i, b.Get(i), i)
		}
	}
}

func TestSegListIndexing(t *testing.T) {
	s := &SegList[int]{}
	const n = 500
	for i := 0; i < n; i++ {
		idx := s.Push(i)
		if idx != i {
			t.Fatalf("push %d returned index %d", i, idx)
		}
	}
	for i := 0; i < n; i++ {
		if got := s.Get(i); got != i {
			t.Fatalf("index %d: got %d, want %d", i, got, i)
		}
	}
}

func TestSegListTruncate(t *testing.T) {
	s := &SegList[int]{}
	for i := 0; i < 100; i++ {
		s.Push(i)
	}
	s.Truncate(40)
	if s.Len() != 40 {
		t.Fatalf("expected len 40, got %d", s.Len())
	}
	idx := s.Push(999)
	if idx != 40 {
		t.Fatalf("expected next push at index 40, got %d", idx)
	}
	if s.Get(40) != 999 {
		t.Fatalf("expected pushed value 999 at index 40")
	}
}

func TestStackPushPop(t *testing.T) {
	var s Stack
	s.Push("ip", 42)
	s.Push("scope", "chain")
	if got := Pop[string](&s, "scope"); got != "chain" {
		t.Fatalf("got %v", got)
	}
	if got := Pop[int](&s, "ip"); got != 42 {
		t.Fatalf("got %v", got)
	}
	if s.Depth() != 0 {
		t.Fatalf("expected empty stack")
	}
}

func TestStackTagMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on tag mismatch")
		}
	}()
	var s Stack
	s.Push("a", 1)
	Pop[int](&s, "b")
}
