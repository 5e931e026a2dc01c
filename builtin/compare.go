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

// valuesEqual is the builtin layer's own copy of the `==` operator's deep
// structural equality (vm/arith.go's valuesEqual, unexported to the vm
// package) — array.contains() and dict-key comparisons need the same
// recursive notion of equality the `in`/`==` operators use.
func valuesEqual(m *vm.VM, a, b object.Handle) bool {
	if a == b {
		return true
	}
	ta, tb := m.Objects.Tag(a), m.Objects.Tag(b)
	if ta != tb {
		return false
	}
	switch ta {
	case object.TagNumber:
		return m.Objects.Number(a) == m.Objects.Number(b)
	case object.TagString:
		return m.Objects.String(a) == m.Objects.String(b)
	case object.TagArray:
		av, bv := m.Objects.ArrayValues(a), m.Objects.ArrayValues(b)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(m, av[i], bv[i]) {
				return false
			}
		}
		return true
	case object.TagDict:
		ae, be := m.Objects.DictEntries(a), m.Objects.DictEntries(b)
		if len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if !valuesEqual(m, ae[i][0], be[i][0]) || !valuesEqual(m, ae[i][1], be[i][1]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// versionCompareExpr implements str.version_compare(expr): expr is an
// optional comparison operator (>=, <=, ==, !=, >, <, the default being
// ==) followed by a dotted version string, compared component-wise as
// integers the way Meson's version_compare documents.
func versionCompareExpr(version, expr string) bool {
	expr = strings.TrimSpace(expr)
	op := "=="
	for _, candidate := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if strings.HasPrefix(expr, candidate) {
			op = candidate
			expr = strings.TrimSpace(expr[len(candidate):])
			break
		}
	}
	c := compareVersions(version, expr)
	switch op {
	case ">=":
		return c >= 0
	case "<=":
		return c <= 0
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case ">":
		return c > 0
	case "<":
		return c < 0
	default:
		return false
	}
}

// compareVersions compares two dot-separated version strings component
// by component as integers; a missing trailing component compares as 0.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int64
		if i < len(as) {
			av, _ = strconv.ParseInt(as[i], 10, 64)
		}
		if i < len(bs) {
			bv, _ = strconv.ParseInt(bs[i], 10, 64)
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
