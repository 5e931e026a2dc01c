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
	"sort"

	"github.com/muonic/muon/object"
)

// Store is one project's (or the workspace-global) option dict: a
// name-keyed set of TagOption handles plus the bookkeeping `set_option`
// needs (rename-forwarding queue, warning sink, literal-array evaluator).
// A *Store is not safe for concurrent use.
type Store struct {
	Objs *object.Table

	// Name identifies the owning project for override routing ("" for
	// the workspace-global store and the master/root project).
	Name string

	opts  map[string]object.Handle
	order []string

	// pending holds writes deferred by a deprecated-rename whose target
	// option had not been declared yet at the time of the write
	// (check_deprecated_option's "push onto option_overrides for later"
	// path), drained opportunistically as matching options are declared.
	pending []pendingWrite

	// Warn receives deprecation/diagnostic notices (vm_warning_at); nil
	// discards them.
	Warn func(format string, args ...any)
	// EvalArrayLiteral evaluates a `[...]`-prefixed array option value as
	// a language expression (eval_str in repl mode); nil rejects that
	// form with an error instead.
	EvalArrayLiteral func(src string) (object.Handle, error)
}

type pendingWrite struct {
	name   string
	value  object.Handle
	source Source
}

// NewStore returns an empty option store for the project named name.
func NewStore(objs *object.Table, name string) *Store {
	return &Store{Objs: objs, Name: name, opts: map[string]object.Handle{}}
}

func (s *Store) warn(format string, args ...any) {
	if s.Warn != nil {
		s.Warn(format, args...)
	}
}

// Declare creates a new option (the option() builtin / create_option):
// name must be unique within the store and contain only
// alphanumerics/-/_. val is the already-typechecked default value (the
// caller is expected to have applied coercion itself, since the default
// is given as a live object, not a string). Source is set to
// SourceDefault.
func (s *Store) Declare(name string, p Payload) (object.Handle, error) {
	if err := validateName(name); err != nil {
		return object.NoValue, err
	}
	if _, ok := s.opts[name]; ok {
		return object.NoValue, fmt.Errorf("duplicate option %q", name)
	}

	p.Name = name
	p.Source = SourceDefault
	h := New(s.Objs, p)
	s.opts[name] = h
	s.order = append(s.order, name)

	s.drainPendingFor(name, h)
	return h, nil
}

func (s *Store) drainPendingFor(name string, h object.Handle) {
	kept := s.pending[:0]
	for _, w := range s.pending {
		if w.name != name {
			kept = append(kept, w)
			continue
		}
		if err := s.setValue(h, w.value, w.source, false); err != nil {
			s.warn("deferred option write to %q failed: %s", name, err)
		}
	}
	s.pending = kept
}

// Get returns the option handle named name.
func (s *Store) Get(name string) (object.Handle, bool) {
	h, ok := s.opts[name]
	return h, ok
}

// Value returns the current value of the option named name.
func (s *Store) Value(name string) (object.Handle, bool) {
	h, ok := s.opts[name]
	if !ok {
		return object.NoValue, false
	}
	return Get(s.Objs, h).Value, true
}

// Names returns every declared option name in declaration order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns every declared option name sorted lexically, the order
// `-Doptions -a` listing wants.
func (s *Store) Sorted() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// SetRaw assigns a raw string value (from a command-line override, a
// default_options entry, or an environment variable) to the option named
// name, applying coercion, deprecation handling, and the declared type's
// value constraints, subject to the source-rank gate.
func (s *Store) SetRaw(name, raw string, source Source) error {
	h, ok := s.opts[name]
	if !ok {
		return fmt.Errorf("unknown option %q", name)
	}
	p := Get(s.Objs, h)
	if p.Source > source {
		return nil
	}

	v, err := coerceString(s.Objs, p, raw, s.EvalArrayLiteral)
	if err != nil {
		return fmt.Errorf("option %q: %w", name, err)
	}
	return s.applyAndSet(h, p, v, source, true)
}

// SetValue assigns an already-object-typed value (set_variable-adjacent
// paths, yield, override_options with an object kwarg value) to the
// option named name, subject to the source-rank gate. coerce additionally
// runs array-literal/boolean/feature string coercion on v if it arrives as
// a bare string for a non-string option type — mirrors set_option's own
// `coerce` flag.
func (s *Store) SetValue(name string, v object.Handle, source Source, coerce bool) error {
	h, ok := s.opts[name]
	if !ok {
		return fmt.Errorf("unknown option %q", name)
	}
	return s.setValue(h, v, source, coerce)
}

func (s *Store) setValue(h object.Handle, v object.Handle, source Source, coerce bool) error {
	p := Get(s.Objs, h)
	if p.Source > source {
		return nil
	}
	if coerce && s.Objs.Tag(v) == object.TagString && p.Type != KindString && p.Type != KindCombo {
		coerced, err := coerceString(s.Objs, p, s.Objs.String(v), s.EvalArrayLiteral)
		if err != nil {
			return fmt.Errorf("option %q: %w", p.Name, err)
		}
		v = coerced
	}
	return s.applyAndSet(h, p, v, source, false)
}

func (s *Store) applyAndSet(h object.Handle, p Payload, v object.Handle, source Source, fromRaw bool) error {
	if p.Deprecated != object.NoValue {
		substituted, renameTo := applyDeprecation(s.Objs, p, v, s.warn)
		if renameTo != "" {
			if target, ok := s.opts[renameTo]; ok {
				return s.setValue(target, v, SourceDeprecatedRename, fromRaw)
			}
			s.pending = append(s.pending, pendingWrite{name: renameTo, value: v, source: SourceDeprecatedRename})
			return nil
		}
		v = substituted
	}

	checked, err := typecheckValue(s.Objs, p, v)
	if err != nil {
		return fmt.Errorf("option %q: %w", p.Name, err)
	}

	p.Value = checked
	p.Source = source
	put(s.Objs, h, p)
	return nil
}

// RebasePrefixedDirs rebases every DirPrefixedDir option's value under
// prefix (prefix_dir_opts): an absolute value already under prefix becomes
// relative to it, any other absolute value is joined under it, and a
// relative value is left untouched.
func (s *Store) RebasePrefixedDirs(prefix string) {
	for _, name := range s.order {
		h := s.opts[name]
		p := Get(s.Objs, h)
		if p.Dir != DirPrefixedDir {
			continue
		}
		path := s.Objs.String(p.Value)
		if !isAbsPath(path) {
			continue
		}
		p.Value = s.Objs.MakeString(rebaseUnderPrefix(prefix, path))
		put(s.Objs, h, p)
	}
}
