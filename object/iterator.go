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

// IterKind is the shape of an iterator's source, per spec.md §3:
// "Iterators are one of array, dict-small, dict-big, range{...}, or
// typeinfo{...}".
type IterKind uint8

const (
	IterArray IterKind = iota
	IterDictSmall
	IterDictBig
	IterRange
	IterTypeInfo
)

// Arity is the number of values IterKind unpacks per step (1 for
// arrays/ranges, 2 for dicts).
func (k IterKind) Arity() int {
	switch k {
	case IterDictSmall, IterDictBig:
		return 2
	default:
		return 1
	}
}

// IteratorPayload is the payload for TagIterator objects.
type IteratorPayload struct {
	Kind IterKind

	// array / dict: current cell, -1 once not yet started / exhausted.
	source  Handle
	nextArr int
	nextDct int
	started bool

	// range
	RangeStart, RangeStop, RangeStep, rangeCur int64

	// typeinfo: the analyzer runs a loop body over a typeinfo source
	// exactly twice, a heuristic preserved verbatim from the reference
	// implementation (spec.md §4.10, §9 open question 3).
	TypeInfo  Handle
	typeIters int
}

// NewArrayIterator allocates an iterator over array h.
func (t *Table) NewArrayIterator(h Handle) Handle {
	p := t.arrayPayload(h)
	return t.alloc(TagIterator, t.iterators.Push(IteratorPayload{
		Kind: IterArray, source: h, nextArr: p.Head,
	}))
}

// NewDictIterator allocates an iterator over dict h, recording at
// creation time whether the dict was already hash-promoted (this only
// affects the reported IterKind, not traversal, since both
// representations share one insertion-order chain in this implementation).
func (t *Table) NewDictIterator(h Handle) Handle {
	p := t.dictPayload(h)
	kind := IterDictSmall
	if p.big != nil {
		kind = IterDictBig
	}
	return t.alloc(TagIterator, t.iterators.Push(IteratorPayload{
		Kind: kind, source: h, nextDct: p.Head,
	}))
}

// NewRangeIterator allocates a range(start, stop, step) iterator.
func (t *Table) NewRangeIterator(start, stop, step int64) Handle {
	return t.alloc(TagIterator, t.iterators.Push(IteratorPayload{
		Kind: IterRange, RangeStart: start, RangeStop: stop, RangeStep: step, rangeCur: start,
	}))
}

// NewTypeInfoIterator allocates an analyzer-only iterator that yields the
// same typeinfo handle exactly twice then reports exhausted.
func (t *Table) NewTypeInfoIterator(typeinfo Handle) Handle {
	return t.alloc(TagIterator, t.iterators.Push(IteratorPayload{
		Kind: IterTypeInfo, TypeInfo: typeinfo,
	}))
}

// IteratorArity returns the unpack arity of h's iterator.
func (t *Table) IteratorArity(h Handle) int {
	return t.iterators.Get(t.payloadOf(h)).Kind.Arity()
}

// IteratorNext advances h's iterator and returns the next 1 or 2 values
// (per Arity), or ok=false if exhausted.
func (t *Table) IteratorNext(h Handle) (values []Handle, ok bool) {
	idx := t.payloadOf(h)
	p := t.iterators.Ptr(idx)
	switch p.Kind {
	case IterArray:
		if p.nextArr == -1 {
			return nil, false
		}
		cell := t.cells.Get(p.nextArr)
		p.nextArr = cell.Next
		return []Handle{cell.Value}, true
	case IterDictSmall, IterDictBig:
		if p.nextDct == -1 {
			return nil, false
		}
		cell := t.dictCells.Get(p.nextDct)
		p.nextDct = cell.Next
		return []Handle{cell.Key, cell.Value}, true
	case IterRange:
		if (p.RangeStep > 0 && p.rangeCur >= p.RangeStop) ||
			(p.RangeStep < 0 && p.rangeCur <= p.RangeStop) ||
			p.RangeStep == 0 {
			return nil, false
		}
		v := p.rangeCur
		p.rangeCur += p.RangeStep
		return []Handle{t.NewNumber(v)}, true
	case IterTypeInfo:
		if p.typeIters >= 2 {
			return nil, false
		}
		p.typeIters++
		return []Handle{p.TypeInfo}, true
	default:
		return nil, false
	}
}
