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

package diag

import (
	"strings"

	"github.com/muonic/muon/lang/token"
)

// Store is the process-wide diagnostic sink spec.md §4.12 describes. One
// Store is shared by every project/subproject a run touches. Its methods
// take no lock, so a Store is not safe for concurrent use.
type Store struct {
	Sources *Sources

	records []Record
	seen    map[uint64]int // dedup key -> index into records, for exact-repeat collapsing
}

// NewStore returns an empty Store backed by a fresh Sources table.
func NewStore() *Store {
	return &Store{Sources: NewSources(), seen: map[uint64]int{}}
}

// Push records one diagnostic. An exact repeat (same source, location,
// level and message — e.g. the same deprecated option read from two
// subprojects sharing a parent) collapses onto the existing record
// instead of growing the store, per spec.md §4.12's dedup-key semantics.
func (s *Store) Push(source int, pos token.Position, level Level, message string) {
	k := key(source, pos, level, message)
	if idx, ok := s.seen[k]; ok {
		_ = idx
		return
	}
	s.seen[k] = len(s.records)
	s.records = append(s.records, Record{Source: source, Pos: pos, Level: level, Message: message, dedupKey: k})
}

// PushUnwind records one error together with the call-frame trail an
// unwind collected (vm.Error.Frames), coalesced into a single multi-line
// Record rather than one Record per frame — spec.md §4.12: "Coalescing
// merges a run of messages that share a source and are emitted within a
// single call-stack unwind into one multi-line message."
func (s *Store) PushUnwind(source int, pos token.Position, primary string, frames []string) {
	msg := primary
	if len(frames) > 0 {
		msg = primary + "\n  " + strings.Join(frames, "\n  ")
	}
	s.Push(source, pos, LevelError, msg)
}

// Records returns every diagnostic pushed so far, in push order.
func (s *Store) Records() []Record {
	return s.records
}

// ReplayOptions selects which of the store's accumulated diagnostics a
// driver surfaces, and at what severity (spec.md §4.12's "Replay
// options: errors-only, werror, suppress-sources").
type ReplayOptions struct {
	// ErrorsOnly drops warnings and deprecations, keeping only errors.
	ErrorsOnly bool
	// Werror promotes warnings (not deprecations) to errors.
	Werror bool
	// SuppressSources names source files whose diagnostics are dropped
	// outright (e.g. a subproject the top-level project doesn't own and
	// has opted out of warnings from, spec.md §6's --suppress-sources).
	SuppressSources map[string]bool
}

// Replay filters and (per Werror) re-levels the store's records without
// mutating it, so the same Store can be replayed under different
// policies (e.g. the LSP server's live diagnostics vs. a CLI `setup`
// run's exit-code decision).
func (s *Store) Replay(opts ReplayOptions) []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if opts.SuppressSources != nil && opts.SuppressSources[s.Sources.Name(r.Source)] {
			continue
		}
		lvl := r.Level
		if opts.Werror && lvl == LevelWarning {
			lvl = LevelError
		}
		if opts.ErrorsOnly && lvl != LevelError {
			continue
		}
		r.Level = lvl
		out = append(out, r)
	}
	return out
}

// HasErrors reports whether replaying under opts would surface at least
// one error-level record — the condition cmd/muon's setup/install
// subcommands use to decide their process exit code.
func (s *Store) HasErrors(opts ReplayOptions) bool {
	for _, r := range s.Replay(opts) {
		if r.Level == LevelError {
			return true
		}
	}
	return false
}
