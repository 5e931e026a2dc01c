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
	"strconv"
	"strings"

	"github.com/muonic/muon/object"
	"github.com/muonic/muon/vm"
)

// stringify renders v the way message()/warning()/error() join their
// arguments and the way '@0@'.format() substitutes a slot: bare strings
// unquoted, numbers and bools in their literal form, arrays/dicts
// recursively in Meson's repr syntax. This mirrors vm/arith.go's
// stringify (the `str()`/f-string coercion), kept as its own small copy
// here since that one is unexported to the vm package.
func stringify(m *vm.VM, v object.Handle) string {
	switch m.Objects.Tag(v) {
	case object.TagString:
		return m.Objects.String(v)
	case object.TagNumber:
		return strconv.FormatInt(m.Objects.Number(v), 10)
	case object.TagBool:
		if m.Objects.IsTrue(v) {
			return "true"
		}
		return "false"
	case object.TagNull:
		return "null"
	case object.TagDisabler:
		return "disabler"
	case object.TagArray:
		return reprArray(m, v)
	case object.TagDict:
		return reprDict(m, v)
	case object.TagFile:
		return m.Objects.File(v).Path
	default:
		return m.Objects.Tag(v).String()
	}
}

// repr renders v the way it would appear embedded in a list/dict literal:
// strings quoted, everything else same as stringify.
func repr(m *vm.VM, v object.Handle) string {
	if m.Objects.Tag(v) == object.TagString {
		return "'" + m.Objects.String(v) + "'"
	}
	return stringify(m, v)
}

func reprArray(m *vm.VM, v object.Handle) string {
	vals := m.Objects.ArrayValues(v)
	parts := make([]string, len(vals))
	for i, e := range vals {
		parts[i] = repr(m, e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func reprDict(m *vm.VM, v object.Handle) string {
	entries := m.Objects.DictEntries(v)
	parts := make([]string, len(entries))
	for i, kv := range entries {
		parts[i] = repr(m, kv[0]) + ": " + repr(m, kv[1])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
