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
	"testing"

	"github.com/muonic/muon/lang/token"
)

func TestPushDedupsExactRepeat(t *testing.T) {
	s := NewStore()
	src := s.Sources.Intern("meson.build")
	pos := token.Position{Line: 3, Column: 1}
	s.Push(src, pos, LevelWarning, "deprecated option foo")
	s.Push(src, pos, LevelWarning, "deprecated option foo")
	if len(s.Records()) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(s.Records()))
	}
}

func TestPushDistinguishesByLevelAndMessage(t *testing.T) {
	s := NewStore()
	src := s.Sources.Intern("meson.build")
	pos := token.Position{Line: 3, Column: 1}
	s.Push(src, pos, LevelWarning, "a")
	s.Push(src, pos, LevelError, "a")
	s.Push(src, pos, LevelWarning, "b")
	if len(s.Records()) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(s.Records()))
	}
}

func TestPushUnwindCoalescesFrames(t *testing.T) {
	s := NewStore()
	src := s.Sources.Intern("meson.build")
	pos := token.Position{Line: 10, Column: 2}
	s.PushUnwind(src, pos, "unknown variable 'x'", []string{"in function foo", "in function bar"})
	recs := s.Records()
	if len(recs) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(recs))
	}
	if got := recs[0].Message; got != "unknown variable 'x'\n  in function foo\n  in function bar" {
		t.Fatalf("Message = %q", got)
	}
}

func TestReplayWerrorPromotesWarnings(t *testing.T) {
	s := NewStore()
	src := s.Sources.Intern("meson.build")
	s.Push(src, token.Position{}, LevelWarning, "w")
	s.Push(src, token.Position{}, LevelDeprecation, "d")
	if s.HasErrors(ReplayOptions{}) {
		t.Fatal("no werror: should have no errors yet")
	}
	if !s.HasErrors(ReplayOptions{Werror: true}) {
		t.Fatal("werror: warning should count as an error")
	}
	recs := s.Replay(ReplayOptions{Werror: true})
	for _, r := range recs {
		if r.Message == "d" && r.Level == LevelError {
			t.Fatal("werror must not promote deprecations")
		}
	}
}

func TestReplayErrorsOnlyDropsWarnings(t *testing.T) {
	s := NewStore()
	src := s.Sources.Intern("meson.build")
	s.Push(src, token.Position{}, LevelWarning, "w")
	s.Push(src, token.Position{}, LevelError, "e")
	recs := s.Replay(ReplayOptions{ErrorsOnly: true})
	if len(recs) != 1 || recs[0].Message != "e" {
		t.Fatalf("recs = %+v, want only the error", recs)
	}
}

func TestReplaySuppressSources(t *testing.T) {
	s := NewStore()
	a := s.Sources.Intern("a/meson.build")
	b := s.Sources.Intern("b/meson.build")
	s.Push(a, token.Position{}, LevelError, "e1")
	s.Push(b, token.Position{}, LevelError, "e2")
	recs := s.Replay(ReplayOptions{SuppressSources: map[string]bool{"a/meson.build": true}})
	if len(recs) != 1 || recs[0].Message != "e2" {
		t.Fatalf("recs = %+v, want only e2", recs)
	}
}
