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
	"fmt"

	"github.com/muonic/muon/object"
	"github.com/muonic/muon/vm"
)

// indexFunc backs `a[b]` (compiler.emitIndexCall): array/dict/string
// getitem is a per-type builtin rather than its own opcode (spec.md
// §4.8). Registered first so it always lands at index 0, matching the
// convention the VM's own tests assume for a minimal native table.
var indexFunc = Func{
	Name: "__index__",
	Pos: []ArgSpec{
		{Name: "container", Any: true, Required: true},
		{Name: "key", Any: true, Required: true},
	},
	Impl: func(m *vm.VM, self object.Handle, pos []object.Handle, kw map[string]object.Handle) (object.Handle, error) {
		container, key := pos[0], pos[1]
		switch m.Objects.Tag(container) {
		case object.TagArray:
			if m.Objects.Tag(key) != object.TagNumber {
				return object.NoValue, fmt.Errorf("array index must be a number, got %s", m.Objects.Tag(key))
			}
			n := m.Objects.ArrayLen(container)
			i := int(m.Objects.Number(key))
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				return object.NoValue, fmt.Errorf("array index %d out of range (len %d)", int(m.Objects.Number(key)), n)
			}
			return m.Objects.ArrayAt(container, i), nil
		case object.TagDict:
			v, ok := m.Objects.DictGet(container, key)
			if !ok {
				return object.NoValue, fmt.Errorf("key not in dictionary")
			}
			return v, nil
		case object.TagString:
			if m.Objects.Tag(key) != object.TagNumber {
				return object.NoValue, fmt.Errorf("string index must be a number, got %s", m.Objects.Tag(key))
			}
			s := m.Objects.String(container)
			n := len(s)
			i := int(m.Objects.Number(key))
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				return object.NoValue, fmt.Errorf("string index %d out of range (len %d)", int(m.Objects.Number(key)), n)
			}
			return m.Objects.MakeString(string(s[i])), nil
		default:
			return object.NoValue, fmt.Errorf("%s is not indexable", m.Objects.Tag(container))
		}
	},
}
