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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/muonic/muon/builtin"
	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/config"
	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/lang/token"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/option"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// Workspace is the cmd-level driver the core interpreter has no access
// to on its own (spec.md §1: "the core VM has no file system or
// compiler-driver access"). It owns the one object table and bytecode
// stream every project file in a build shares, installs the real
// vm.Behavior.EvalProjectFile subdir()/subproject() re-entry hook, and
// hands out one option.Store per project.
//
// Every Workspace gets a fresh
// build-invocation id (google/uuid), the second wiring site for that
// dependency alongside lsp's per-request correlation id.
type Workspace struct {
	InvocationID string

	Objs    *object.Table
	Code    *compiler.Code
	Scopes  *vm.ScopeStack
	Types   *typecheck.Registry
	Natives *builtin.Registry
	Diag    *diag.Store
	Log     *config.Logger

	Root string // directory containing the top-level meson.build

	// BreakSource/BreakLine request a debugger breakpoint at a specific
	// (file, line), threaded into every Compiler this workspace builds
	// (spec.md §6's setup/internal eval -b flag).
	BreakSource string
	BreakLine   int

	// OnBreak is installed as the VM's OnBreak hook (fires on the
	// OpDbgBreak BreakLine compiles in); nil means log-and-continue.
	OnBreak func(m *vm.VM)

	optsMu sync.Mutex
	opts   map[string]*option.Store

	vmRef *vm.VM
}

// NewWorkspace returns a Workspace rooted at root, logging through log.
func NewWorkspace(root string, log *config.Logger) *Workspace {
	objs := object.New()
	store := diag.NewStore()
	w := &Workspace{
		InvocationID: uuid.New().String(),
		Objs:         objs,
		Code:         compiler.NewCode(),
		Scopes:       vm.NewScopeStack(),
		Types:        typecheck.NewRegistry(),
		Diag:         store,
		Log:          log,
		Root:         root,
		opts:         map[string]*option.Store{},
	}
	w.Natives = builtin.NewRegistry().SetDiag(store, store.Sources.Intern(root))
	w.Natives.SetOptions(w.optionsFor(root))
	return w
}

// VM returns the single vm.VM this workspace runs every project file
// through, constructing it (and installing the real EvalProjectFile
// hook) on first use.
func (w *Workspace) VM() *vm.VM {
	if w.vmRef == nil {
		w.vmRef = vm.New(w.Code, w.Objs, w.Scopes, w.Types, w.Natives)
		w.vmRef.Behavior.EvalProjectFile = w.evalProjectFile
		w.vmRef.Warnf = func(pos token.Position, format string, args ...any) {
			w.Diag.Push(w.Natives.Source, pos, diag.LevelWarning, fmt.Sprintf(format, args...))
		}
		if w.OnBreak != nil {
			w.vmRef.OnBreak = w.OnBreak
		} else {
			w.vmRef.OnBreak = func(m *vm.VM) {
				w.Log.Debugf("breakpoint hit at %s", m.CurPos())
			}
		}
	}
	return w.vmRef
}

// optionsFor returns dir's option.Store, creating an empty one on first
// request (one store per project directory: the root project and every
// subproject re-entered through subproject() each get their own).
func (w *Workspace) optionsFor(dir string) *option.Store {
	w.optsMu.Lock()
	defer w.optsMu.Unlock()
	if s, ok := w.opts[dir]; ok {
		return s
	}
	s := option.NewStore(w.Objs, dir)
	s.Warn = func(format string, args ...any) {
		w.Diag.Push(w.Natives.Source, token.Position{}, diag.LevelWarning, fmt.Sprintf(format, args...))
	}
	w.opts[dir] = s
	return s
}

// RunFile lexes, compiles and runs path as a fresh top-level eval frame
// rooted at the workspace's root scope (the entry point setup uses for
// the project's own meson.build; subdir()/subproject() re-entry goes
// through evalProjectFile instead, which also handles scope/option-store
// isolation).
func (w *Workspace) RunFile(path string) (object.Handle, error) {
	entry, err := w.compile(path)
	if err != nil {
		return object.NoValue, err
	}
	return w.VM().Run(entry, w.Scopes.Root(), lang.Normal, path)
}

func (w *Workspace) compile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	root, err := lang.Parse(data, lang.Normal)
	if err != nil {
		return 0, err
	}
	c := compiler.New(w.Code, w.Objs, w.Natives)
	c.BreakSource, c.BreakLine = w.BreakSource, w.BreakLine
	return c.CompileFile(path, root)
}

// evalProjectFile implements vm.Behavior.EvalProjectFile: it is reached
// through the subdir()/subproject() builtins in builtin/globals.go.
// subdir() re-enters with the calling frame's own scope, matching real
// Meson's "subdir is a textual include" semantics: variables it assigns
// persist into the caller. subproject() re-enters with an isolated
// sibling-root scope and its own option.Store, since a subproject is a
// logically separate project whose locals and option() declarations must
// not leak into (or read from) the parent's.
//
// The hook signature carries only a path, so subproject re-entry is
// recognized by a path-prefix convention: any file resolved under a
// "subprojects" directory segment is a subproject, everything else a
// subdir.
func (w *Workspace) evalProjectFile(m *vm.VM, path string) (object.Handle, error) {
	entry, err := w.compile(path)
	if err != nil {
		return object.NoValue, err
	}

	scopeID := m.Frame().Scope
	dir := filepath.Dir(path)
	sourceIdx := w.Diag.Sources.Intern(path)
	prevSource := w.Natives.Source

	if isSubprojectPath(path) {
		scopeID = w.Scopes.Push(-1)
		prevOpts := w.Natives.Options
		w.Natives.SetOptions(w.optionsFor(dir))
		w.Natives.SetDiag(w.Diag, sourceIdx)
		defer func() {
			w.Natives.SetOptions(prevOpts)
			w.Natives.SetDiag(w.Diag, prevSource)
		}()
	} else {
		w.Natives.SetDiag(w.Diag, sourceIdx)
		defer w.Natives.SetDiag(w.Diag, prevSource)
	}

	return m.Run(entry, scopeID, lang.Normal, path)
}

func isSubprojectPath(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "/subprojects/")
}
