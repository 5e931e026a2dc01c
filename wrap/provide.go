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

package wrap

import (
	"fmt"
	"strings"
)

// addProvide implements wrap_parse_provides_cb's per-key handling: the
// two well-known keys accumulate comma-separated name lists, everything
// else is a bare dependency-name-to-subproject-variable mapping.
func addProvide(w *Wrap, e iniEntry) error {
	if e.Key == "" || e.Value == "" {
		return fmt.Errorf("%s:%d: empty provides key or value", w.Name, e.Line)
	}
	switch e.Key {
	case "dependency_names":
		w.Provide.DependencyNames = append(w.Provide.DependencyNames, splitCommaList(e.Value)...)
	case "program_names":
		w.Provide.ProgramNames = append(w.Provide.ProgramNames, splitCommaList(e.Value)...)
	default:
		w.Provide.Names[e.Key] = e.Value
	}
	return nil
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ProvideTable accumulates every wrap's [provide] contributions across a
// whole subproject tree (current_project(wk)->wrap_provides_deps /
// wrap_provides_exes in the original), flagging the override-with-warning
// case wrap_check_provide_duplication reports.
type ProvideTable struct {
	Deps     map[string][2]string // dependency/program name -> [wrap name, subproject var]
	Programs map[string][2]string
	// Overridden records (name -> old wrap name) any key two wraps both
	// claimed to provide, the original's "previous provide ... is being
	// overridden" warning.
	Overridden map[string]string
}

// NewProvideTable returns an empty table.
func NewProvideTable() *ProvideTable {
	return &ProvideTable{Deps: map[string][2]string{}, Programs: map[string][2]string{}, Overridden: map[string]string{}}
}

// Add merges w's [provide] section into t.
func (t *ProvideTable) Add(w *Wrap) {
	for name, target := range w.Provide.Names {
		t.setDep(name, w.Name, target)
	}
	for _, name := range w.Provide.DependencyNames {
		t.setDep(name, w.Name, name)
	}
	for _, name := range w.Provide.ProgramNames {
		if old, ok := t.Programs[name]; ok {
			t.Overridden[name] = old[0]
		}
		t.Programs[name] = [2]string{w.Name, name}
	}
}

func (t *ProvideTable) setDep(name, wrapName, target string) {
	if old, ok := t.Deps[name]; ok {
		t.Overridden[name] = old[0]
	}
	t.Deps[name] = [2]string{wrapName, target}
}
