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
	"strings"

	"github.com/muonic/muon/object"
)

// Override is one pending option write: a name/value pair parsed from a
// -D command-line flag, a default_options string, or an override_options
// string, optionally scoped to a subproject (spec.md §4.9's
// "-Dproj:name=value: proj: prefix is optional and selects a
// subproject").
type Override struct {
	Project string // "" = no "proj:" prefix (targets the store it is routed to)
	Name    string
	Value   string
	Source  Source
}

// parseConfigString implements parse_config_string: splits
// "[proj:]name=value" on the first ':' (if any, before the first '=') and
// the first '='.
func parseConfigString(s string) (Override, error) {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return Override{}, fmt.Errorf("expected '=' in option %q", s)
	}
	key := s[:eq]
	val := s[eq+1:]

	var proj string
	if colon := strings.IndexByte(key, ':'); colon >= 0 {
		proj = key[:colon]
		key = key[colon+1:]
		if strings.IndexByte(key, ':') >= 0 {
			return Override{}, fmt.Errorf("multiple ':' in option %q", s)
		}
		if proj == "" {
			return Override{}, fmt.Errorf("missing subproject in option %q", s)
		}
	}
	if key == "" {
		return Override{}, fmt.Errorf("expected '=' in option %q", s)
	}
	return Override{Project: proj, Name: key, Value: val}, nil
}

// ParseCommandline parses a single -Doption=value flag
// (parse_and_set_cmdline_option), always ranked SourceCommandline.
func ParseCommandline(s string) (Override, error) {
	oo, err := parseConfigString(s)
	if err != nil {
		return Override{}, err
	}
	oo.Source = SourceCommandline
	return oo, nil
}

// ParseDefaultOptions parses a project()'s default_options: entries
// (parse_and_set_default_options). projectName is substituted for any
// entry with no explicit "proj:" prefix, so downstream routing
// (ApplyOverrides matching Project against a Store's Name) treats an
// unprefixed entry in the top-level project's own default_options as
// applying immediately to that same project, while forSubproject (set
// when this default_options list came from a subproject() call) always
// ranks every entry as subproject-scoped regardless of an explicit prefix.
func ParseDefaultOptions(entries []string, projectName string, forSubproject bool) ([]Override, error) {
	out := make([]Override, 0, len(entries))
	for _, e := range entries {
		oo, err := parseConfigString(e)
		if err != nil {
			return nil, fmt.Errorf("invalid option string %q: %w", e, err)
		}
		hadProj := oo.Project != ""
		if !hadProj {
			oo.Project = projectName
		}
		if forSubproject || hadProj {
			oo.Source = SourceSubprojectDefaultOptions
		} else {
			oo.Source = SourceDefaultOptions
		}
		out = append(out, oo)
	}
	return out, nil
}

// ApplyOverrides applies every override in overrides whose Project matches
// store's Name (the empty string names the master/root project) to store,
// in order, via SetRaw. It reports one joined error (not the first) so a
// caller can surface every bad override at once, matching
// setup_project_options's own "process them all, return false if any
// failed" loop.
func ApplyOverrides(overrides []Override, store *Store) error {
	var errs []string
	for _, oo := range overrides {
		if oo.Project != store.Name {
			continue
		}
		if err := store.SetRaw(oo.Name, oo.Value, oo.Source); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid option overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}

// CheckSubprojectNames reports an error naming every override in
// overrides whose Project names a subproject not present in known
// (check_invalid_subproject_option): a late error raised only after every
// subproject has been evaluated, since an override for a subproject that
// is never reached is not itself an error.
func CheckSubprojectNames(overrides []Override, known map[string]bool) error {
	var bad []string
	for _, oo := range overrides {
		if oo.Project == "" || oo.Source < SourceCommandline {
			continue
		}
		if !known[oo.Project] {
			bad = append(bad, fmt.Sprintf("%s:%s=%s", oo.Project, oo.Name, oo.Value))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid option(s), no such subproject: %s", strings.Join(bad, ", "))
	}
	return nil
}

// OverrideOptions builds the per-target override_options dict
// (parse_and_set_override_options): each entry overlays a clone of base's
// current option with a new value ranked SourceOverrideOptions, without
// mutating base itself. Subproject-qualified entries are rejected.
func OverrideOptions(entries []string, base *Store) (map[string]object.Handle, error) {
	out := map[string]object.Handle{}
	for _, e := range entries {
		oo, err := parseConfigString(e)
		if err != nil {
			return nil, fmt.Errorf("invalid option string %q: %w", e, err)
		}
		if oo.Project != "" {
			return nil, fmt.Errorf("subproject options may not be set in override_options (%q)", e)
		}
		h, ok := base.Get(oo.Name)
		if !ok {
			return nil, fmt.Errorf("invalid option %q in override_options", oo.Name)
		}
		if _, dup := out[oo.Name]; dup {
			return nil, fmt.Errorf("duplicate option %q in override_options", oo.Name)
		}

		p := Get(base.Objs, h)
		shadow := NewStore(base.Objs, base.Name)
		shadow.Warn = base.Warn
		shadow.EvalArrayLiteral = base.EvalArrayLiteral
		newH := New(base.Objs, p)
		shadow.opts[oo.Name] = newH
		if err := shadow.SetRaw(oo.Name, oo.Value, SourceOverrideOptions); err != nil {
			return nil, err
		}
		out[oo.Name] = shadow.opts[oo.Name]
	}
	return out, nil
}
