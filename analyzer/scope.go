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

package analyzer

import (
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// effectiveTag returns h's type as a typecheck.Tag: its own simple tag, or
// the type a typeinfo placeholder stands in for.
func effectiveTag(objs *object.Table, h object.Handle) typecheck.Tag {
	if objs.Tag(h) == object.TagTypeInfo {
		if t, ok := objs.TypeInfo(h).Type.(typecheck.Tag); ok {
			return t
		}
		return 0
	}
	return typecheck.Of(objs.Tag(h))
}

// widen returns a value standing for "could be x or could be y": x itself
// if the two handles are identical, otherwise a fresh typeinfo handle
// unioning their effective types (analyze.c's merge_objects, which "always
// widens both sides to typeinfo and unions tags whenever a name exists in
// more than one scope_group member, even if types already agree"). The
// second return reports whether x and y disagreed on a concrete type, the
// trigger for a reassign-to-conflicting-type diagnostic.
func widen(m *vm.VM, x, y object.Handle) (object.Handle, bool) {
	if x == y {
		return x, false
	}
	tx, ty := effectiveTag(m.Objects, x), effectiveTag(m.Objects, y)
	merged := m.Objects.NewTypeInfo(object.TypeInfoPayload{Type: typecheck.Union(tx, ty)})
	return merged, tx != ty
}
