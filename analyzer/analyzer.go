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

// Package analyzer implements the static analyzer spec.md §4.10
// describes: a VM behavior that replaces bool-valued conditions with
// "run every alternative" scope-group joins, widens values reassigned
// inside a loop over tainted (typeinfo) data, and reports unused
// variables, conflicting reassignment types, and dead code — all without
// a second, separate evaluator. It reuses the same vm package a plain
// `muon internal eval` run does, only with its own Behavior installed
// (grounded on src/lang/analyze.c's do_analyze_internal, which patches
// wk.vm.behavior and wk.vm.ops the same way instead of writing a
// parallel interpreter).
package analyzer

import (
	"fmt"

	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/lang/token"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/vm"
)

// Diagnostic is a bitmask of the warning categories the analyzer can
// produce, mirroring analyze.c's enum az_diagnostic / az_diagnostic_names
// table so a driver's -W flags (spec.md §6) can enable/disable them by
// the same names.
type Diagnostic uint32

const (
	DiagUnusedVariable Diagnostic = 1 << iota
	DiagReassignConflictingType
	DiagDeadCode
)

// AllDiagnostics is every diagnostic category, the default enabled set.
func AllDiagnostics() Diagnostic {
	return DiagUnusedVariable | DiagReassignConflictingType | DiagDeadCode
}

var diagnosticNames = []struct {
	name string
	d    Diagnostic
}{
	{"unused-variable", DiagUnusedVariable},
	{"reassign-to-conflicting-type", DiagReassignConflictingType},
	{"dead-code", DiagDeadCode},
}

// DiagnosticByName resolves one of the -W flag names above to its bit.
func DiagnosticByName(name string) (Diagnostic, bool) {
	for _, e := range diagnosticNames {
		if e.name == name {
			return e.d, true
		}
	}
	return 0, false
}

// DiagnosticNames lists every diagnostic category name, for `muon analyze
// -W list`-style introspection.
func DiagnosticNames() []string {
	names := make([]string, len(diagnosticNames))
	for i, e := range diagnosticNames {
		names[i] = e.name
	}
	return names
}

// Options configures one Analyzer run.
type Options struct {
	Enabled Diagnostic
}

// DefaultOptions enables every diagnostic category.
func DefaultOptions() Options {
	return Options{Enabled: AllDiagnostics()}
}

// branchInfo is the dead-code bitmap's per-condition entry: spec.md
// §4.10's "taken/not_taken/impure" triple, keyed by the jmp_if_false
// instruction guarding one if/elif alternative.
type branchInfo struct {
	taken, notTaken, impure bool
}

// assignRecord tracks one `name = value` statement for the
// unused-variable pass (spec.md §8 scenario: every assignment, not just
// the latest one reassigning a name, gets its own liveness check — a
// variable overwritten without ever being read in between is itself
// unused, exactly as analyze.c's bucket_arr of `struct assignment` models
// it).
type assignRecord struct {
	name     string
	pos      token.Position
	accessed bool
}

// Analyzer drives one analysis run: a diagnostic sink, the dead-code
// visited-instruction bitmap, the branch outcome map, and the
// unused-variable assignment ledger. It is not safe for concurrent use,
// and neither is the *diag.Store it pushes to.
type Analyzer struct {
	Store   *diag.Store
	Source  int
	Options Options

	visited  map[int]bool
	branches map[int]*branchInfo
	records  []*assignRecord
	live     map[int]map[string]*assignRecord

	loopDepth    int
	taintedIters []object.Handle
}

// New returns an Analyzer pushing diagnostics into store tagged as
// source (a diag.Sources index the driver interned for the file being
// analyzed).
func New(store *diag.Store, source int, opts Options) *Analyzer {
	return &Analyzer{
		Store:    store,
		Source:   source,
		Options:  opts,
		visited:  map[int]bool{},
		branches: map[int]*branchInfo{},
		live:     map[int]map[string]*assignRecord{},
	}
}

// Run installs this Analyzer's Behavior on m and executes entry the same
// way vm.VM.Run would, then reports every diagnostic the run accumulated
// (dead code, branch outcomes, unused variables) into Store before
// returning.
func (a *Analyzer) Run(m *vm.VM, entry, scopeID int, mode lang.Mode, sourceName string) (object.Handle, error) {
	m.Behavior = a.behavior()
	result, err := m.Run(entry, scopeID, mode, sourceName)
	a.report(m)
	return result, err
}

func (a *Analyzer) report(m *vm.VM) {
	if a.Options.Enabled&DiagDeadCode != 0 {
		a.reportDeadCode(m)
		a.reportBranchOutcomes(m)
	}
	if a.Options.Enabled&DiagUnusedVariable != 0 {
		a.reportUnusedVariables()
	}
}

// reportDeadCode implements analyze.c's az_warn_dead_code pass: walk the
// whole instruction stream and coalesce every contiguous run of
// instructions this run never visited into one "dead code" warning
// spanning that run's source positions.
func (a *Analyzer) reportDeadCode(m *vm.VM) {
	inDead := false
	var start token.Position
	for ip := 0; ip < m.Code.Len(); {
		op := m.Code.OpAt(ip)
		if !a.visited[ip] {
			if !inDead {
				inDead = true
				if loc, ok := m.Code.LocationAt(ip); ok {
					start = loc.Pos
				}
			}
		} else if inDead {
			a.Store.Push(a.Source, start, diag.LevelWarning, "dead code")
			inDead = false
		}
		ip += op.Width()
	}
	if inDead {
		a.Store.Push(a.Source, start, diag.LevelWarning, "dead code")
	}
}

// reportBranchOutcomes warns about an if/elif condition that, across
// every time this run evaluated it, was always concretely the same —
// "branch never taken" or "branch always taken" — skipping any
// condition that was ever typeinfo-tainted (impure: spec.md §4.10, we
// can't know what a real run would have done).
func (a *Analyzer) reportBranchOutcomes(m *vm.VM) {
	for ip, bi := range a.branches {
		if bi.impure {
			continue
		}
		loc, _ := m.Code.LocationAt(ip)
		switch {
		case bi.taken && !bi.notTaken:
			a.Store.Push(a.Source, loc.Pos, diag.LevelWarning, "branch always taken")
		case bi.notTaken && !bi.taken:
			a.Store.Push(a.Source, loc.Pos, diag.LevelWarning, "branch never taken")
		}
	}
}

func (a *Analyzer) reportUnusedVariables() {
	for _, rec := range a.records {
		if rec.accessed || rec.name == "" || rec.name[0] == '_' {
			continue
		}
		a.Store.Push(a.Source, rec.pos, diag.LevelWarning, fmt.Sprintf("unused variable %s", rec.name))
	}
}
