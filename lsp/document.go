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

package lsp

import (
	"sort"
	"strings"

	"github.com/muonic/muon/analyzer"
	"github.com/muonic/muon/builtin"
	"github.com/muonic/muon/compiler"
	"github.com/muonic/muon/diag"
	"github.com/muonic/muon/lang"
	"github.com/muonic/muon/lang/token"
	"github.com/muonic/muon/object"
	"github.com/muonic/muon/option"
	"github.com/muonic/muon/typecheck"
	"github.com/muonic/muon/vm"
)

// document is one open editor buffer: its latest text plus the bindings
// the last successful analysis run left on the root scope, used to answer
// textDocument/completion and textDocument/hover without re-running the
// analyzer synchronously inside the request handler.
type document struct {
	uri     string
	version int
	text    string

	vm    *vm.VM
	objs  *object.Table
	root  int
	names []string // variable names bound by the last analysis run
}

// analyzeDocument parses, compiles and runs doc.text through the
// analyzer the same way `muon analyze` would a project file, publishing
// whatever diagnostics the run accumulates (a parse or compile failure
// still produces one diagnostic, just without running the analyzer
// itself — spec.md §7's "a syntax error is reported like any other
// diagnostic, not a crash").
func (s *Server) analyzeDocument(doc *document, warnings analyzer.Options) []Diagnostic {
	store := diag.NewStore()
	src := doc.uri
	sourceIdx := store.Sources.Intern(src)

	root, err := lang.Parse([]byte(doc.text), lang.Normal)
	if err != nil {
		return []Diagnostic{diagnosticFromError(err)}
	}

	objs := object.New()
	natives := builtin.NewRegistry().SetDiag(store, sourceIdx)
	code := compiler.NewCode()
	c := compiler.New(code, objs, natives)
	entry, err := c.CompileFile(src, root)
	if err != nil {
		return []Diagnostic{diagnosticFromError(err)}
	}

	scopes := vm.NewScopeStack()
	registry := typecheck.NewRegistry()
	theVM := vm.New(code, objs, scopes, registry, natives)
	natives.SetOptions(option.NewStore(objs, src))

	a := analyzer.New(store, sourceIdx, warnings)
	rootScope := scopes.Root()
	if _, err := a.Run(theVM, entry, rootScope, lang.Normal, src); err != nil {
		// a runtime error still leaves partial diagnostics (dead code up
		// to the failure point, etc.) in store; report it alongside them
		// rather than discarding everything gathered so far.
		store.Push(sourceIdx, theVM.CurPos(), diag.LevelError, err.Error())
	}

	doc.vm = theVM
	doc.objs = objs
	doc.root = rootScope
	doc.names = boundNames(scopes, rootScope)

	return toLSPDiagnostics(store.Replay(diag.ReplayOptions{Werror: s.cfg.Werror}))
}

// boundNames lists every variable bound directly on scope id, sorted for
// deterministic completion ordering.
func boundNames(scopes *vm.ScopeStack, id int) []string {
	vars := scopes.Vars(id)
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func diagnosticFromError(err error) Diagnostic {
	pos, msg := token.Position{Line: 1, Column: 1}, err.Error()
	switch e := err.(type) {
	case *lang.ParseError:
		pos, msg = e.Pos, e.Message
	case *lang.LexError:
		pos, msg = e.Pos, e.Message
	}
	return Diagnostic{
		Range:    posRange(pos),
		Severity: SeverityError,
		Source:   "muon",
		Message:  msg,
	}
}

// posRange converts a single 1-based token.Position into a zero-length,
// zero-based LSP Range (the analyzer doesn't track an end position per
// diagnostic, so every range collapses to its start point, same as a
// compiler warning with no caret span).
func posRange(p token.Position) Range {
	line := p.Line - 1
	if line < 0 {
		line = 0
	}
	col := p.Column - 1
	if col < 0 {
		col = 0
	}
	pos := Position{Line: line, Character: col}
	return Range{Start: pos, End: pos}
}

func toLSPDiagnostics(records []diag.Record) []Diagnostic {
	out := make([]Diagnostic, 0, len(records))
	for _, r := range records {
		out = append(out, Diagnostic{
			Range:    posRange(r.Pos),
			Severity: severityFor(r.Level),
			Source:   "muon",
			Message:  r.Message,
		})
	}
	return out
}

func severityFor(l diag.Level) DiagnosticSeverity {
	if l == diag.LevelError {
		return SeverityError
	}
	return SeverityWarning
}

// completionsFor returns every candidate whose name has prefix as a
// prefix: the document's own bound variables first, then the builtin
// module function table.
func (s *Server) completionsFor(doc *document, prefix string) []CompletionItem {
	var items []CompletionItem
	seen := map[string]bool{}
	add := func(name string, kind int, detail string) {
		if !strings.HasPrefix(name, prefix) || seen[name] {
			return
		}
		seen[name] = true
		items = append(items, CompletionItem{Label: name, Kind: kind, Detail: detail})
	}
	if doc != nil {
		for _, name := range doc.names {
			add(name, completionKindVariable, "variable")
		}
	}
	for _, name := range s.natives.ModuleFunctionNames() {
		add(name, completionKindFunction, "builtin function")
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// LSP CompletionItemKind values this server actually produces.
const (
	completionKindFunction = 3
	completionKindVariable = 6
)
