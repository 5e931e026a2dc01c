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

package option

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muonic/muon/object"
)

// coerceString converts a raw string (from a -Doption=value override, a
// default_options entry, or an environment variable) into a typed handle
// for p's Kind, per spec.md §4.9's coercion table. An array value that
// starts with '[' is evaluated as a literal array expression via eval
// (typically the interpreter's own repl-mode evaluator); if eval is nil,
// that form is rejected rather than silently comma-split.
func coerceString(objs *object.Table, p Payload, raw string, eval func(string) (object.Handle, error)) (object.Handle, error) {
	switch p.Type {
	case KindString, KindCombo:
		return objs.MakeString(raw), nil
	case KindBoolean:
		switch raw {
		case "true":
			return object.HTrue, nil
		case "false":
			return object.HFalse, nil
		default:
			return object.NoValue, fmt.Errorf("unable to coerce %q into a boolean", raw)
		}
	case KindInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return object.NoValue, fmt.Errorf("unable to coerce %q into a number", raw)
		}
		return objs.NewNumber(n), nil
	case KindArray, KindShellArray:
		if raw == "" {
			// -Doption= is equivalent to an empty list.
			return objs.NewArray(), nil
		}
		if strings.HasPrefix(raw, "[") {
			if eval == nil {
				return object.NoValue, fmt.Errorf("malformed array option value %q", raw)
			}
			v, err := eval(raw)
			if err != nil {
				return object.NoValue, fmt.Errorf("malformed array option value %q: %w", raw, err)
			}
			return v, nil
		}
		parts := strings.Split(raw, ",")
		vs := make([]object.Handle, len(parts))
		for i, part := range parts {
			vs[i] = objs.MakeString(part)
		}
		return objs.NewArrayFrom(vs), nil
	case KindFeature:
		f, err := featureFromString(raw)
		if err != nil {
			return object.NoValue, err
		}
		return NewFeature(objs, f), nil
	default:
		return object.NoValue, fmt.Errorf("unknown option kind %v", p.Type)
	}
}

// typecheckValue validates v against p's declared Kind (typecheck_opt): a
// string given for a feature option is first coerced, then the concrete
// tag is checked, then (for combo/integer/array) the value-specific
// constraints (choice membership, min/max, per-element choice membership).
func typecheckValue(objs *object.Table, p Payload, v object.Handle) (object.Handle, error) {
	if p.Type == KindFeature && objs.Tag(v) == object.TagString {
		f, err := featureFromString(objs.String(v))
		if err != nil {
			return object.NoValue, err
		}
		v = NewFeature(objs, f)
	}

	var wantTag object.Tag
	switch p.Type {
	case KindFeature:
		wantTag = object.TagFeatureOption
	case KindString, KindCombo:
		wantTag = object.TagString
	case KindBoolean:
		wantTag = object.TagBool
	case KindInteger:
		wantTag = object.TagNumber
	case KindArray, KindShellArray:
		wantTag = object.TagArray
	default:
		return object.NoValue, fmt.Errorf("unknown option kind %v", p.Type)
	}
	if objs.Tag(v) != wantTag {
		return object.NoValue, fmt.Errorf("expected a %s value for option %q, got %s", wantTag, p.Name, objs.Tag(v))
	}

	switch p.Type {
	case KindCombo:
		s := objs.String(v)
		if !stringIn(p.Choices, s) {
			return object.NoValue, fmt.Errorf("%q is not one of %v for option %q", s, p.Choices, p.Name)
		}
	case KindInteger:
		n := objs.Number(v)
		if p.Min != nil && n < *p.Min {
			return object.NoValue, fmt.Errorf("value %d is out of range (%d..) for option %q", n, *p.Min, p.Name)
		}
		if p.Max != nil && n > *p.Max {
			return object.NoValue, fmt.Errorf("value %d is out of range (..%d) for option %q", n, *p.Max, p.Name)
		}
	case KindArray:
		if len(p.Choices) > 0 {
			for _, el := range objs.ArrayValues(v) {
				if objs.Tag(el) != object.TagString || !stringIn(p.Choices, objs.String(el)) {
					return object.NoValue, fmt.Errorf("array element is not one of %v for option %q", p.Choices, p.Name)
				}
			}
		}
	}
	return v, nil
}

func stringIn(choices []string, s string) bool {
	for _, c := range choices {
		if c == s {
			return true
		}
	}
	return false
}

// applyDeprecation implements check_deprecated_option's warning and
// value-substitution rules. warn is called for every deprecation notice
// (nil is a valid no-op sink). It returns the possibly-substituted value
// and, for a whole-option rename (Deprecated is a bare string), the name
// of the option the write should be forwarded to instead.
func applyDeprecation(objs *object.Table, p Payload, v object.Handle, warn func(format string, args ...any)) (newVal object.Handle, renameTo string) {
	if p.Deprecated == object.NoValue {
		return v, ""
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}

	switch objs.Tag(p.Deprecated) {
	case object.TagBool:
		if objs.IsTrue(p.Deprecated) {
			warn("option %q is deprecated", p.Name)
		}
		return v, ""
	case object.TagString:
		target := objs.String(p.Deprecated)
		warn("option %q is deprecated to %q", p.Name, target)
		return v, target
	case object.TagArray:
		// A bare list of deprecated values: warn only, no substitution.
		for _, old := range deprecatedElements(objs, p, v) {
			if objs.Tag(old) == object.TagString && arrayContainsString(objs, p.Deprecated, objs.String(old)) {
				warn("option value %q is deprecated", objs.String(old))
			}
		}
		return v, ""
	case object.TagDict:
		if p.Type == KindArray {
			vals := objs.ArrayValues(v)
			changed := false
			out := make([]object.Handle, len(vals))
			for i, el := range vals {
				out[i] = el
				if objs.Tag(el) == object.TagString {
					if repl, ok := objs.DictGet(p.Deprecated, el); ok {
						warn("option value %q is deprecated", objs.String(el))
						out[i] = repl
						changed = true
					}
				}
			}
			if changed {
				return objs.NewArrayFrom(out), ""
			}
			return v, ""
		}
		if objs.Tag(v) == object.TagString {
			if repl, ok := objs.DictGet(p.Deprecated, v); ok {
				warn("option value %q is deprecated", objs.String(v))
				return repl, ""
			}
		}
		return v, ""
	default:
		return v, ""
	}
}

func deprecatedElements(objs *object.Table, p Payload, v object.Handle) []object.Handle {
	if objs.Tag(v) != object.TagArray {
		return nil
	}
	return objs.ArrayValues(v)
}

func arrayContainsString(objs *object.Table, arr object.Handle, s string) bool {
	for _, v := range objs.ArrayValues(arr) {
		if objs.Tag(v) == object.TagString && objs.String(v) == s {
			return true
		}
	}
	return false
}
