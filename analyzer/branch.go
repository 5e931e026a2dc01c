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
	"fmt"

	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/vm"
)

// step is this Analyzer's Behavior.Dispatch: it marks the current
// instruction visited (the dead-code bitmap), hands az_branch off to
// handleBranch, tracks the impure-loop depth around iterator/iterator_next
// pairs that walk typeinfo data, and otherwise delegates to vm.Step.
func (a *Analyzer) step(m *vm.VM) error {
	ip := m.IP()
	a.visited[ip] = true
	op := m.Code.OpAt(ip)

	switch op {
	case compiler.OpAzBranch:
		return a.handleBranch(m)

	case compiler.OpIterator:
		tainted := m.Objects.Tag(m.Peek()) == object.TagTypeInfo
		if err := vm.Step(m); err != nil {
			return err
		}
		if tainted {
			a.loopDepth++
			a.taintedIters = append(a.taintedIters, m.Peek())
		}
		return nil

	case compiler.OpIteratorNext:
		start, width := ip, op.Width()
		it := m.Peek()
		if err := vm.Step(m); err != nil {
			return err
		}
		if m.IP() != start+width && len(a.taintedIters) > 0 && a.taintedIters[len(a.taintedIters)-1] == it {
			a.taintedIters = a.taintedIters[:len(a.taintedIters)-1]
			a.loopDepth--
		}
		return nil

	default:
		return vm.Step(m)
	}
}

// runRange steps through [start,end) using this Analyzer's own step, so a
// nested az_branch inside the span is still specially handled rather than
// falling through to the inert no-op opTable entry. Comparing by equality
// rather than "<" is deliberate: a call instruction inside the span can
// send ip off to a function body compiled elsewhere in the flat array
// (with a numerically larger or smaller offset) before OpReturn brings it
// back, and the loop must keep stepping through that detour rather than
// stop early.
func (a *Analyzer) runRange(m *vm.VM, start, end int) error {
	m.SetIP(start)
	for m.IP() != end {
		if err := a.step(m); err != nil {
			return err
		}
	}
	return nil
}

// matchingMerge scans forward from an az_branch instruction for its
// balanced az_merge, accounting for nested if/elif/else statements.
func matchingMerge(m *vm.VM, branchIP int) int {
	depth := 0
	ip := branchIP
	for {
		op := m.Code.OpAt(ip)
		switch op {
		case compiler.OpAzBranch:
			depth++
		case compiler.OpAzMerge:
			depth--
			if depth == 0 {
				return ip
			}
		}
		ip += op.Width()
	}
}

// alternative is one if/elif/else branch: a conditional alt has its own
// condition expression and the jmp_if_false guarding it; the trailing else
// (if present) has neither and simply runs to the merge point.
type alternative struct {
	cond                  bool
	condStart, jmpIfFalse int
	bodyStart, bodyEnd    int
}

// scanAlternatives reads each alternative's bounds directly out of the
// bytecode compileIf wrote, rather than pattern-scanning for
// jmp_if_false/jmp opcodes: those also appear inside and/or and ternary
// expressions nested in a condition or body, so the only reliable source
// for "where does this alternative's own guard/end live" is the operand
// az_alt and jmp_if_false were compiled with.
func scanAlternatives(m *vm.VM, branchIP, mergeIP int) []alternative {
	var alts []alternative
	ip := branchIP + compiler.OpAzBranch.Width()
	for ip < mergeIP {
		marker := ip
		guard := m.Code.Operand(marker, 0)
		condStart := marker + compiler.OpAzAlt.Width()

		if guard == compiler.NoGuard {
			alts = append(alts, alternative{bodyStart: condStart, bodyEnd: mergeIP})
			break
		}

		jmpIfFalse := int(guard)
		bodyStart := jmpIfFalse + compiler.OpJmpIfFalse.Width()
		nextIP := int(m.Code.Operand(jmpIfFalse, 0)) // patched to the next az_alt, or mergeIP
		endJmp := nextIP - compiler.OpJmp.Width()

		alts = append(alts, alternative{
			cond: true, condStart: condStart, jmpIfFalse: jmpIfFalse,
			bodyStart: bodyStart, bodyEnd: endJmp,
		})
		ip = nextIP
	}
	return alts
}

// handleBranch re-runs every reachable alternative of one if/elif/else
// statement in its own fresh child scope of the base scope (analyze.c's
// az_op_az_branch/az_op_az_merge: "run every branch alternative's body to
// completion ... tracks a pure/taken short-circuit"), then merges each
// alternative's newly-bound names back into the base scope, narrowing to
// the single contributor when exactly one alternative was definitely the
// only reachable one and widening to a typeinfo union otherwise.
func (a *Analyzer) handleBranch(m *vm.VM) error {
	branchIP := m.IP()
	mergeIP := matchingMerge(m, branchIP)
	a.visited[branchIP] = true
	a.visited[mergeIP] = true

	alts := scanAlternatives(m, branchIP, mergeIP)

	base := m.Frame().Scope
	baseSnapshot := make(map[string]object.Handle, len(m.Scopes.Vars(base)))
	for k, v := range m.Scopes.Vars(base) {
		baseSnapshot[k] = v
	}

	type contribution struct {
		val      object.Handle
		conflict bool
	}
	merged := map[string]contribution{}
	executed := 0
	exhaustive := false
	reachable := true

	runAlt := func(bodyStart, bodyEnd int) error {
		altScope := m.Scopes.Push(base)
		m.Frame().Scope = altScope
		err := a.runRange(m, bodyStart, bodyEnd)
		m.Frame().Scope = base
		if err != nil {
			return err
		}
		for k, v := range m.Scopes.Vars(altScope) {
			c, ok := merged[k]
			if !ok {
				merged[k] = contribution{val: v}
				continue
			}
			nv, conflict := widen(m, c.val, v)
			merged[k] = contribution{val: nv, conflict: c.conflict || conflict}
		}
		executed++
		return nil
	}

	for _, alt := range alts {
		if !reachable {
			continue // leaves this alternative's instructions unvisited: dead code
		}

		if !alt.cond {
			if err := runAlt(alt.bodyStart, alt.bodyEnd); err != nil {
				return err
			}
			exhaustive = true
			continue
		}

		a.visited[alt.jmpIfFalse] = true
		if err := a.runRange(m, alt.condStart, alt.jmpIfFalse); err != nil {
			return err
		}
		condVal := m.Peek()
		m.TruncateStack(m.StackLen() - 1)

		tag := m.Objects.Tag(condVal)
		concrete := tag == object.TagBool
		impure := tag == object.TagTypeInfo
		taken := concrete && condVal == object.HTrue
		notTaken := concrete && condVal == object.HFalse
		if !concrete && !impure {
			if loc, ok := m.Code.LocationAt(alt.jmpIfFalse); ok {
				a.Store.Push(a.Source, loc.Pos, diag.LevelError, fmt.Sprintf("if condition must be bool, got %s", tag))
			}
			impure = true
		}

		bi := a.branches[alt.jmpIfFalse]
		if bi == nil {
			bi = &branchInfo{}
			a.branches[alt.jmpIfFalse] = bi
		}
		bi.impure = bi.impure || impure
		bi.taken = bi.taken || taken
		bi.notTaken = bi.notTaken || notTaken

		if impure || taken {
			if err := runAlt(alt.bodyStart, alt.bodyEnd); err != nil {
				return err
			}
			a.visited[alt.bodyEnd] = true
		}
		if taken && !impure {
			reachable = false
			exhaustive = true
		}
	}

	narrow := exhaustive && executed == 1
	for k, c := range merged {
		final := c.val
		conflict := c.conflict
		if !narrow {
			if orig, ok := baseSnapshot[k]; ok {
				var cf bool
				final, cf = widen(m, orig, final)
				conflict = conflict || cf
			}
		}
		m.Scopes.Set(base, k, final)
		if conflict && a.Options.Enabled&DiagReassignConflictingType != 0 {
			if loc, ok := m.Code.LocationAt(branchIP); ok {
				a.Store.Push(a.Source, loc.Pos, diag.LevelWarning, fmt.Sprintf("reassignment of variable %s with conflicting type", k))
			}
		}
	}

	m.SetIP(mergeIP + compiler.OpAzMerge.Width())
	return nil
}
