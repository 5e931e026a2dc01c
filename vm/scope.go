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

import "github.com/muonic/muon/object"

// ScopeStack owns every Scope ever created during a run, addressed by the
// small integer ids object.CapturePayload.ScopeRef stores ("an opaque
// scope-chain id, interpreted by vm.ScopeStack"). Scopes are never freed
// individually — a whole run's worth is cheap, and closures may outlive
// the frame that created them, so nothing short of the whole workspace
// going away can reclaim one.
type ScopeStack struct {
	scopes []scope
}

type scope struct {
	vars   map[string]object.Handle
	parent int // -1 at the root
}

// NewScopeStack returns a stack with a single root scope already
// allocated (id 0).
func NewScopeStack() *ScopeStack {
	return &ScopeStack{scopes: []scope{{vars: map[string]object.Handle{}, parent: -1}}}
}

// Root is the id of the top-level project scope.
func (s *ScopeStack) Root() int { return 0 }

// Push allocates a new child scope of parent and returns its id.
func (s *ScopeStack) Push(parent int) int {
	s.scopes = append(s.scopes, scope{vars: map[string]object.Handle{}, parent: parent})
	return len(s.scopes) - 1
}

// Dup allocates a fresh scope copying id's own bindings (not its
// ancestors') into a new child of the same parent; it backs
// DefaultBehavior's ScopeDup.
func (s *ScopeStack) Dup(id int) int {
	src := s.scopes[id]
	nid := s.Push(src.parent)
	for k, v := range src.vars {
		s.scopes[nid].vars[k] = v
	}
	return nid
}

// Lookup walks id's parent chain and returns the first binding of name.
func (s *ScopeStack) Lookup(id int, name string) (object.Handle, bool) {
	for id != -1 {
		sc := &s.scopes[id]
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
		id = sc.parent
	}
	return object.NoValue, false
}

// Set binds name to v in scope id itself (never an ancestor): Meson has
// no nonlocal/global assignment keyword, every `=` writes the innermost
// scope.
func (s *ScopeStack) Set(id int, name string, v object.Handle) {
	s.scopes[id].vars[name] = v
}

// Own reports whether name is bound directly in id (not an ancestor).
func (s *ScopeStack) Own(id int, name string) (object.Handle, bool) {
	v, ok := s.scopes[id].vars[name]
	return v, ok
}

// Vars returns the names bound directly in id, for diagnostics
// (unused-variable checks walk this).
func (s *ScopeStack) Vars(id int) map[string]object.Handle {
	return s.scopes[id].vars
}

// Parent returns id's parent scope, or -1 at the root.
func (s *ScopeStack) Parent(id int) int { return s.scopes[id].parent }
