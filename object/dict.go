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

import "github.com/muonic/muon/container"

// DictSmallThreshold is the length at which a dict promotes from a linked
// list to a hash-backed representation (spec.md §3: "While length < 15
// they are a linked list ... On overflow they promote").
const DictSmallThreshold = 15

// DictCell is one insertion-ordered entry of a dict.
type DictCell struct {
	Key, Value Handle
	Next       int // index into Table.dictCells, or -1
}

// DictPayload is the payload for TagDict objects. Head/Tail/Next always
// describe the insertion-order chain, even after promotion to a hash
// index — promotion only adds an O(1) lookup accelerator, it never
// changes iteration order (spec.md §4.3: "Hash-promoted dicts expose the
// insertion-order keys list, not the internal bucket order").
type DictPayload struct {
	Head, Tail int
	Length     int
	COW        bool
	IntKeyed   bool
	big        *container.Hash[Handle, int] // nil while small; promoted lookup index
}

// NewDict allocates an empty dict.
func (t *Table) NewDict() Handle {
	return t.alloc(TagDict, t.dicts.Push(DictPayload{Head: -1, Tail: -1}))
}

func (t *Table) dictPayload(h Handle) *DictPayload {
	return t.dicts.Ptr(t.payloadOf(h))
}

// DictLen returns the number of key/value pairs in h.
func (t *Table) DictLen(h Handle) int { return t.dictPayload(h).Length }

// DictCOW reports whether h is marked copy-on-write.
func (t *Table) DictCOW(h Handle) bool { return t.dictPayload(h).COW }

// SetDictCOW sets h's copy-on-write flag.
func (t *Table) SetDictCOW(h Handle, v bool) { t.dictPayload(h).COW = v }

// DictIsPromoted reports whether h has switched to the hash-backed
// representation (irreversible for the lifetime of the dict instance).
func (t *Table) DictIsPromoted(h Handle) bool { return t.dictPayload(h).big != nil }

func handleHash(h Handle) uint64 {
	return container.FNV1a64([]byte{byte(h), byte(h >> 8), byte(h >> 16), byte(h >> 24)})
}

// dictFind returns the cell index for key within h's insertion chain, -1
// if absent. Uses the hash index once promoted; linear scan otherwise.
func (t *Table) dictFind(h Handle, key Handle) int {
	p := t.dictPayload(h)
	if p.big != nil {
		if idx, ok := p.big.Get(key); ok {
			return idx
		}
		return -1
	}
	for c := p.Head; c != -1; c = t.dictCells.Get(c).Next {
		if t.dictCells.Get(c).Key == key {
			return c
		}
	}
	return -1
}

// DictGet returns the value for key in h, if present.
func (t *Table) DictGet(h Handle, key Handle) (Handle, bool) {
	c := t.dictFind(h, key)
	if c == -1 {
		return NoValue, false
	}
	return t.dictCells.Get(c).Value, true
}

// DictSet inserts or overwrites the value for key in h, preserving
// insertion order for new keys. Callers handle the COW dup-before-write
// dance themselves (see DictAssign); DictSet itself always mutates h in
// place.
func (t *Table) DictSet(h Handle, key, value Handle) {
	if c := t.dictFind(h, key); c != -1 {
		t.dictCells.Ptr(c).Value = value
		return
	}
	p := t.dictPayload(h)
	idx := t.dictCells.Push(DictCell{Key: key, Value: value, Next: -1})
	if p.Tail == -1 {
		p.Head = idx
	} else {
		t.dictCells.Ptr(p.Tail).Next = idx
	}
	p.Tail = idx
	p.Length++
	if p.big != nil {
		p.big.Set(key, idx)
	} else if p.Length >= DictSmallThreshold {
		t.promoteDict(p)
	}
}

func (t *Table) promoteDict(p *DictPayload) {
	big := container.NewHash[Handle, int](handleHash)
	for c := p.Head; c != -1; c = t.dictCells.Get(c).Next {
		big.Set(t.dictCells.Get(c).Key, c)
	}
	p.big = big
}

// DictKeys returns the dict's keys in insertion order.
func (t *Table) DictKeys(h Handle) []Handle {
	p := t.dictPayload(h)
	out := make([]Handle, 0, p.Length)
	for c := p.Head; c != -1; c = t.dictCells.Get(c).Next {
		out = append(out, t.dictCells.Get(c).Key)
	}
	return out
}

// DictEntries returns the dict's (key, value) pairs in insertion order.
func (t *Table) DictEntries(h Handle) [][2]Handle {
	p := t.dictPayload(h)
	out := make([][2]Handle, 0, p.Length)
	for c := p.Head; c != -1; c = t.dictCells.Get(c).Next {
		cell := t.dictCells.Get(c)
		out = append(out, [2]Handle{cell.Key, cell.Value})
	}
	return out
}

// DictClone duplicates h into a brand-new dict object, used by the
// copy-on-write mutator ahead of the first post-share write.
func (t *Table) DictClone(h Handle) Handle {
	nh := t.NewDict()
	t.dictPayload(nh).IntKeyed = t.dictPayload(h).IntKeyed
	for _, kv := range t.DictEntries(h) {
		t.DictSet(nh, kv[0], kv[1])
	}
	return nh
}

// DictMerge implements the VM's `add` op for dict += dict (dict-merge,
// spec.md §4.5: "add ... dict-merge"): entries from other overwrite
// same-keyed entries in h but existing keys keep their original
// insertion position. Duplicates h first if it is shared.
func (t *Table) DictMerge(h, other Handle) Handle {
	if t.DictCOW(h) {
		h = t.DictClone(h)
	}
	for _, kv := range t.DictEntries(other) {
		t.DictSet(h, kv[0], kv[1])
	}
	return h
}

// DictAssign sets key to value in h, duplicating first if h is shared —
// the COW dup-before-write dance DictSet itself leaves to its callers,
// used by the VM's member/index-store path (`d['k'] = v`).
func (t *Table) DictAssign(h, key, value Handle) Handle {
	if t.DictCOW(h) {
		h = t.DictClone(h)
	}
	t.DictSet(h, key, value)
	return h
}
