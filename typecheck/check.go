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

package typecheck

import (
	"fmt"

	"github.com/muonic/muon/object"
)

// Error reports a value's tag not matching an expected Tag.
type Error struct {
	Got  object.Tag
	Want Tag
}

func (e *Error) Error() string {
	return fmt.Sprintf("type error: got %s, expected %s", e.Got, e.Want)
}

// Check implements typecheck(v, T) (spec.md §4.7): v's tag must be a
// member of T's simple-tag bitmask, or — for a complex T — satisfy the
// compound type's own recursive rule. objs resolves v's concrete tag and
// (for nested/enum checks) its elements; r resolves T's complex payload.
//
// A null value always passes when T carries allow_null, regardless of
// what else T allows.
func Check(objs *object.Table, r *Registry, v object.Handle, t Tag) error {
	if v == object.HNull && t.AllowNull() {
		return nil
	}
	if t.IsComplex() {
		return checkComplex(objs, r, v, t)
	}
	got := objs.Tag(v)
	if t.Has(got) {
		return nil
	}
	return &Error{Got: got, Want: t}
}

func checkComplex(objs *object.Table, r *Registry, v object.Handle, t Tag) error {
	switch t.SubTag() {
	case SubOr:
		pair := r.ors[t.Payload()]
		if Check(objs, r, v, pair[0]) == nil {
			return nil
		}
		if err := Check(objs, r, v, pair[1]); err != nil {
			return &Error{Got: objs.Tag(v), Want: t}
		}
		return nil

	case SubNested:
		e := r.nested[t.Payload()]
		if err := Check(objs, r, v, e.container); err != nil {
			return err
		}
		switch objs.Tag(v) {
		case object.TagArray:
			for _, el := range objs.ArrayValues(v) {
				if err := Check(objs, r, el, e.elem); err != nil {
					return err
				}
			}
		case object.TagDict:
			for _, kv := range objs.DictEntries(v) {
				if err := Check(objs, r, kv[1], e.elem); err != nil {
					return err
				}
			}
		}
		return nil

	case SubEnum:
		if objs.Tag(v) != object.TagString {
			return &Error{Got: objs.Tag(v), Want: t}
		}
		s := objs.String(v)
		for _, want := range r.enums[t.Payload()] {
			if s == want {
				return nil
			}
		}
		return fmt.Errorf("type error: %q is not one of %v", s, r.enums[t.Payload()])

	case SubPreset:
		return Check(objs, r, v, r.presets[t.Payload()])

	default:
		return fmt.Errorf("type error: unknown complex sub-tag %d", t.SubTag())
	}
}

// Coerce implements the listify/glob argument-shaping rule spec.md §4.7
// and §8 describe for `pop_args`: a listify slot wraps a bare single
// value into a 1-element array, and flat-accepts an array already given
// (spec.md §8's symmetric-coercion property: `pop_args([listify[string]],
// …)` accepts both `'x'` and `['x']` and yields `['x']` in both cases).
// It does not itself run Check — call Check on the result (or on each
// element) separately.
func Coerce(objs *object.Table, v object.Handle, t Tag) object.Handle {
	if !t.Listify() {
		return v
	}
	if objs.Tag(v) == object.TagArray {
		return v
	}
	return objs.NewArrayFrom([]object.Handle{v})
}
