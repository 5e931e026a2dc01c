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

package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muonic/muon/object"
	"github.com/muonic/muon/typecheck"
)

func opAdd(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	v, err := addValues(vm, a, b)
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

// addValues implements `add`'s overload set (spec.md §4.5: "add is
// overloaded for int, string-concat, array-append/extend, dict-merge").
func addValues(vm *VM, a, b object.Handle) (object.Handle, error) {
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	switch {
	case ta == object.TagNumber && tb == object.TagNumber:
		return vm.Objects.NewNumber(vm.Objects.Number(a) + vm.Objects.Number(b)), nil
	case ta == object.TagString && tb == object.TagString:
		return vm.Objects.MakeString(vm.Objects.String(a) + vm.Objects.String(b)), nil
	case ta == object.TagArray && tb == object.TagArray:
		return vm.Objects.ArrayExtend(a, b), nil
	case ta == object.TagArray:
		return vm.Objects.ArrayAppend(a, b), nil
	case ta == object.TagDict && tb == object.TagDict:
		return vm.Objects.DictMerge(a, b), nil
	case ta == object.TagTypeInfo || tb == object.TagTypeInfo:
		return compatMatrix(vm, "add", a, ta, b, tb)
	}
	return object.NoValue, vm.fail("cannot add %s and %s", ta, tb)
}

func opSub(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	if ta == object.TagNumber && tb == object.TagNumber {
		vm.push(vm.Objects.NewNumber(vm.Objects.Number(a) - vm.Objects.Number(b)))
		return nil
	}
	if ta == object.TagTypeInfo || tb == object.TagTypeInfo {
		r, err := compatMatrix(vm, "sub", a, ta, b, tb)
		if err != nil {
			return err
		}
		vm.push(r)
		return nil
	}
	return vm.fail("cannot subtract %s from %s", tb, ta)
}

func opMul(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	if ta == object.TagNumber && tb == object.TagNumber {
		vm.push(vm.Objects.NewNumber(vm.Objects.Number(a) * vm.Objects.Number(b)))
		return nil
	}
	return vm.fail("cannot multiply %s by %s", ta, tb)
}

// opDiv implements both integer division and, for two strings, `div`'s
// path-join overload (spec.md §4.5: "div for strings is path-join").
func opDiv(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	switch {
	case ta == object.TagNumber && tb == object.TagNumber:
		d := vm.Objects.Number(b)
		if d == 0 {
			return vm.fail("division by zero")
		}
		vm.push(vm.Objects.NewNumber(vm.Objects.Number(a) / d))
		return nil
	case ta == object.TagString && tb == object.TagString:
		vm.push(vm.Objects.MakeString(joinPath(vm.Objects.String(a), vm.Objects.String(b))))
		return nil
	}
	return vm.fail("cannot divide %s by %s", ta, tb)
}

func joinPath(a, b string) string {
	if b == "" {
		return a
	}
	if strings.HasPrefix(b, "/") {
		return b
	}
	a = strings.TrimSuffix(a, "/")
	if a == "" {
		return b
	}
	return a + "/" + b
}

func opMod(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	if ta == object.TagNumber && tb == object.TagNumber {
		d := vm.Objects.Number(b)
		if d == 0 {
			return vm.fail("modulo by zero")
		}
		vm.push(vm.Objects.NewNumber(vm.Objects.Number(a) % d))
		return nil
	}
	return vm.fail("cannot take %s mod %s", ta, tb)
}

func opEq(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	vm.push(object.Bool(valuesEqual(vm, a, b)))
	return nil
}

func valuesEqual(vm *VM, a, b object.Handle) bool {
	if a == b {
		return true
	}
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	if ta != tb {
		return false
	}
	switch ta {
	case object.TagNumber:
		return vm.Objects.Number(a) == vm.Objects.Number(b)
	case object.TagString:
		return vm.Objects.String(a) == vm.Objects.String(b)
	case object.TagArray:
		if vm.Objects.ArrayLen(a) != vm.Objects.ArrayLen(b) {
			return false
		}
		av, bv := vm.Objects.ArrayValues(a), vm.Objects.ArrayValues(b)
		for i := range av {
			if !valuesEqual(vm, av[i], bv[i]) {
				return false
			}
		}
		return true
	case object.TagDict:
		if vm.Objects.DictLen(a) != vm.Objects.DictLen(b) {
			return false
		}
		for _, kv := range vm.Objects.DictEntries(a) {
			bv, ok := vm.Objects.DictGet(b, kv[0])
			if !ok || !valuesEqual(vm, kv[1], bv) {
				return false
			}
		}
		return true
	}
	return false
}

func opLt(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	warnVersionLooking(vm, a, ta, b, tb)
	if ta == object.TagNumber && tb == object.TagNumber {
		vm.push(object.Bool(vm.Objects.Number(a) < vm.Objects.Number(b)))
		return nil
	}
	if ta == object.TagString && tb == object.TagString {
		vm.push(object.Bool(vm.Objects.String(a) < vm.Objects.String(b)))
		return nil
	}
	if ta == object.TagTypeInfo || tb == object.TagTypeInfo {
		r, err := compatMatrix(vm, "lt", a, ta, b, tb)
		if err != nil {
			return err
		}
		vm.push(r)
		return nil
	}
	return vm.fail("cannot compare %s and %s", ta, tb)
}

func opGt(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	ta, tb := vm.Objects.Tag(a), vm.Objects.Tag(b)
	warnVersionLooking(vm, a, ta, b, tb)
	if ta == object.TagNumber && tb == object.TagNumber {
		vm.push(object.Bool(vm.Objects.Number(a) > vm.Objects.Number(b)))
		return nil
	}
	if ta == object.TagString && tb == object.TagString {
		vm.push(object.Bool(vm.Objects.String(a) > vm.Objects.String(b)))
		return nil
	}
	if ta == object.TagTypeInfo || tb == object.TagTypeInfo {
		r, err := compatMatrix(vm, "gt", a, ta, b, tb)
		if err != nil {
			return err
		}
		vm.push(r)
		return nil
	}
	return vm.fail("cannot compare %s and %s", ta, tb)
}

// warnVersionLooking implements spec.md §4.5's "did you mean
// version_compare?" hint: lexicographic < / > on two strings that both
// parse as dotted version numbers is almost always a user mistake (Meson
// versions don't sort lexicographically: "1.9" < "1.10" is false under
// string comparison).
func warnVersionLooking(vm *VM, a object.Handle, ta object.Tag, b object.Handle, tb object.Tag) {
	if vm.Warnf == nil || ta != object.TagString || tb != object.TagString {
		return
	}
	if looksLikeVersion(vm.Objects.String(a)) && looksLikeVersion(vm.Objects.String(b)) {
		vm.Warnf(vm.curPos(), "comparing version-looking strings with </> ; did you mean version_compare()?")
	}
}

func looksLikeVersion(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// opIn dispatches on the right operand (spec.md §4.5: "in dispatches on
// the right operand"): string-in-string is substring search, value-in-
// array is membership, key-in-dict is key presence.
func opIn(vm *VM, ip int) error {
	b := vm.pop()
	a := vm.pop()
	switch vm.Objects.Tag(b) {
	case object.TagString:
		if vm.Objects.Tag(a) != object.TagString {
			return vm.fail("left side of 'in' a string must itself be a string")
		}
		vm.push(object.Bool(strings.Contains(vm.Objects.String(b), vm.Objects.String(a))))
	case object.TagArray:
		found := false
		for _, v := range vm.Objects.ArrayValues(b) {
			if valuesEqual(vm, a, v) {
				found = true
				break
			}
		}
		vm.push(object.Bool(found))
	case object.TagDict:
		_, ok := vm.Objects.DictGet(b, a)
		vm.push(object.Bool(ok))
	default:
		return vm.fail("'in' is not supported on %s", vm.Objects.Tag(b))
	}
	return nil
}

func opNot(vm *VM, ip int) error {
	v := vm.pop()
	if v != object.HTrue && v != object.HFalse {
		return vm.fail("'not' requires a bool, got %s", vm.Objects.Tag(v))
	}
	vm.push(object.Bool(v == object.HFalse))
	return nil
}

func opNegate(vm *VM, ip int) error {
	v := vm.pop()
	if vm.Objects.Tag(v) != object.TagNumber {
		return vm.fail("unary '-' requires a number, got %s", vm.Objects.Tag(v))
	}
	vm.push(vm.Objects.NewNumber(-vm.Objects.Number(v)))
	return nil
}

func opStringify(vm *VM, ip int) error {
	v := vm.pop()
	vm.push(vm.Objects.MakeString(stringify(vm, v)))
	return nil
}

func stringify(vm *VM, h object.Handle) string {
	switch vm.Objects.Tag(h) {
	case object.TagString:
		return vm.Objects.String(h)
	case object.TagNumber:
		return strconv.FormatInt(vm.Objects.Number(h), 10)
	case object.TagBool:
		return strconv.FormatBool(h == object.HTrue)
	case object.TagNull:
		return "null"
	case object.TagArray:
		parts := make([]string, 0, vm.Objects.ArrayLen(h))
		for _, v := range vm.Objects.ArrayValues(h) {
			parts = append(parts, stringifyRepr(vm, v))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case object.TagDict:
		parts := make([]string, 0, vm.Objects.DictLen(h))
		for _, kv := range vm.Objects.DictEntries(h) {
			parts = append(parts, fmt.Sprintf("%s : %s", stringifyRepr(vm, kv[0]), stringifyRepr(vm, kv[1])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("<%s>", vm.Objects.Tag(h))
	}
}

// stringifyRepr quotes strings when they appear nested inside an
// array/dict's own stringification, matching how Meson's `message()`
// renders containers (bare at top level, quoted inside).
func stringifyRepr(vm *VM, h object.Handle) string {
	if vm.Objects.Tag(h) == object.TagString {
		return "'" + vm.Objects.String(h) + "'"
	}
	return stringify(vm, h)
}

// compatMatrix implements the analyzer-mode "compatibility matrix" path
// (spec.md §4.6: "for each type of A, if B is of type X, the result type
// is R. If no row matches, a type error fires"). The core VM always has
// a concrete, non-typeinfo value in at least one position during a plain
// run; this path only activates when the analyzer substitutes a typeinfo
// for an unknown value, so the result here is itself a fresh typeinfo
// widened to op's natural result type.
func compatMatrix(vm *VM, op string, a object.Handle, ta object.Tag, b object.Handle, tb object.Tag) (object.Handle, error) {
	row, ok := compatTable[op]
	if !ok {
		return object.NoValue, vm.fail("no compatibility matrix registered for %q", op)
	}
	resultTag, ok := row(ta, tb)
	if !ok {
		return object.NoValue, vm.fail("incompatible types for %s: %s and %s", op, ta, tb)
	}
	return vm.Objects.NewTypeInfo(object.TypeInfoPayload{Type: typecheck.Of(resultTag)}), nil
}

// compatTable is deliberately small: only the handful of operand-type
// pairs that actually occur in hand-written meson.build files need an
// entry. Extending it is additive — a missing row surfaces as a type
// error at analysis time rather than a panic.
var compatTable = map[string]func(a, b object.Tag) (object.Tag, bool){
	"add": func(a, b object.Tag) (object.Tag, bool) {
		if a == object.TagNumber && b == object.TagNumber {
			return object.TagNumber, true
		}
		if a == object.TagString && b == object.TagString {
			return object.TagString, true
		}
		if a == object.TagArray || b == object.TagArray {
			return object.TagArray, true
		}
		return 0, false
	},
	"sub": func(a, b object.Tag) (object.Tag, bool) {
		if a == object.TagNumber && b == object.TagNumber {
			return object.TagNumber, true
		}
		return 0, false
	},
	"lt": func(a, b object.Tag) (object.Tag, bool) {
		if a == b && (a == object.TagNumber || a == object.TagString) {
			return object.TagBool, true
		}
		return 0, false
	},
	"gt": func(a, b object.Tag) (object.Tag, bool) {
		if a == b && (a == object.TagNumber || a == object.TagString) {
			return object.TagBool, true
		}
		return 0, false
	},
}

func checkTag(vm *VM, v object.Handle, t typecheck.Tag) error {
	return typecheck.Check(vm.Objects, vm.Registry, v, t)
}
