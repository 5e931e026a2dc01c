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

// Package container implements the value-agnostic data structures that
// sit underneath the object model's arrays and dicts: the open-addressed
// hash table a promoted ("big") dict uses for O(1) lookup. It has no
// dependency on the object package — it is a generic library the object
// package builds on, the same direction the teacher takes with its own
// leaf data-structure packages (e.g. heap.go is a standalone generic
// container imported by higher-level code, never the reverse).
package container

const (
	metaEmpty   byte = 0x80
	metaDeleted byte = 0xFE
	tagMask          = 0x7f
)

// Hash is an open-addressed hash table with linear probing and a 7-bit
// metadata byte per slot (spec.md §4.3). Keys/values are kept densely
// packed in parallel slices so iteration and memory use scale with the
// live key count, not the probe-table capacity; deletion swaps the
// removed entry with the dense tail and fixes up the one slot that
// referenced it, avoiding an O(n) compaction.
type Hash[K comparable, V any] struct {
	hash func(K) uint64

	meta  []byte
	slots []int32 // parallel to meta; dense index, or -1

	denseKeys  []K
	denseVals  []V
	denseSlots []int // which probe slot a dense entry currently occupies

	count int
}

// NewHash returns an empty Hash using hashFn to compute each key's 64-bit
// hash (FNV-1a over the key's canonical byte representation, per
// spec.md §4.3; the caller supplies hashFn because K's "raw bytes" differ
// per instantiation — e.g. object.Handle vs a plain string).
func NewHash[K comparable, V any](hashFn func(K) uint64) *Hash[K, V] {
	h := &Hash[K, V]{hash: hashFn}
	h.initCap(8)
	return h
}

func (h *Hash[K, V]) initCap(cap int) {
	h.meta = make([]byte, cap)
	for i := range h.meta {
		h.meta[i] = metaEmpty
	}
	h.slots = make([]int32, cap)
	for i := range h.slots {
		h.slots[i] = -1
	}
}

// Len returns the number of live keys.
func (h *Hash[K, V]) Len() int { return h.count }

func (h *Hash[K, V]) capMask() uint64 { return uint64(len(h.meta) - 1) }

func (h *Hash[K, V]) probe(k K) (slot int, tag byte) {
	hv := h.hash(k)
	tag = byte(hv & tagMask) // low 7 bits of the hash
	if tag == metaEmpty || tag == metaDeleted {
		tag = 1 // never collide with sentinel values
	}
	i := hv & h.capMask()
	for {
		m := h.meta[i]
		if m == metaEmpty {
			return int(i), tag
		}
		if m == tag && h.denseKeys[h.slots[i]] == k {
			return int(i), tag
		}
		i = (i + 1) & h.capMask()
	}
}

// Get returns the value for k, if present.
func (h *Hash[K, V]) Get(k K) (V, bool) {
	i, _ := h.probe(k)
	if h.meta[i] == metaEmpty {
		var zero V
		return zero, false
	}
	return h.denseVals[h.slots[i]], true
}

// Set inserts or overwrites the value for k.
func (h *Hash[K, V]) Set(k K, v V) {
	if float64(h.count+1) > float64(len(h.meta))*0.5 {
		h.grow()
	}
	i, tag := h.probe(k)
	if h.meta[i] != metaEmpty {
		h.denseVals[h.slots[i]] = v
		return
	}
	idx := len(h.denseKeys)
	h.denseKeys = append(h.denseKeys, k)
	h.denseVals = append(h.denseVals, v)
	h.denseSlots = append(h.denseSlots, i)
	h.meta[i] = tag
	h.slots[i] = int32(idx)
	h.count++
}

// Delete removes k, if present, returning whether it was present.
func (h *Hash[K, V]) Delete(k K) bool {
	i, _ := h.probe(k)
	if h.meta[i] == metaEmpty {
		return false
	}
	denseIdx := h.slots[i]
	h.meta[i] = metaDeleted
	h.slots[i] = -1
	tail := len(h.denseKeys) - 1
	if int(denseIdx) != tail {
		h.denseKeys[denseIdx] = h.denseKeys[tail]
		h.denseVals[denseIdx] = h.denseVals[tail]
		movedSlot := h.denseSlots[tail]
		h.denseSlots[denseIdx] = movedSlot
		h.slots[movedSlot] = denseIdx
	}
	h.denseKeys = h.denseKeys[:tail]
	h.denseVals = h.denseVals[:tail]
	h.denseSlots = h.denseSlots[:tail]
	h.count--
	return true
}

func (h *Hash[K, V]) grow() {
	oldKeys, oldVals := h.denseKeys, h.denseVals
	h.initCap(len(h.meta) * 2)
	h.denseKeys = nil
	h.denseVals = nil
	h.denseSlots = nil
	h.count = 0
	for i, k := range oldKeys {
		h.Set(k, oldVals[i])
	}
}

// Each calls fn for every live (key, value) pair. Order is the dense
// packing order (insertion order modulo any deletions' tail-swaps), NOT
// probe-table order — callers that need true insertion order (dict
// iteration) must keep their own ordered key list, since this structure
// exists purely as a lookup accelerator (spec.md §4.3: "Hash-promoted
// dicts expose the insertion-order keys list, not the internal bucket
// order").
func (h *Hash[K, V]) Each(fn func(k K, v V)) {
	for i, k := range h.denseKeys {
		fn(k, h.denseVals[i])
	}
}

// FNV1a64 computes the 64-bit FNV-1a hash over b, the hash function every
// Hash instantiation in this module is built from (spec.md §4.3).
func FNV1a64(b []byte) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime64
	}
	return h
}
