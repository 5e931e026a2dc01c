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

package object

// FuncDefPayload is the payload for TagFuncDef objects: a compiled
// function body plus its static signature. The bytecode itself lives in
// the compiler's single code array; FuncDefPayload only records where it
// starts and how it should be invoked.
type FuncDefPayload struct {
	Name       string
	EntryPC    int // offset into the shared code array
	ParamNames []string
	ReturnType any // typecheck.Type, any to avoid an import cycle
}

// NewFuncDef allocates a TagFuncDef object.
func (t *Table) NewFuncDef(p FuncDefPayload) Handle {
	return t.alloc(TagFuncDef, t.funcs.Push(p))
}

// FuncDef returns the FuncDefPayload behind h.
func (t *Table) FuncDef(h Handle) FuncDefPayload {
	return t.funcs.Get(t.payloadOf(h))
}

// CapturePayload is the payload for TagCapture objects: a function value
// is its definition plus the scope chain captured at the point it became
// a value, plus a dict of default-argument expressions evaluated at
// capture time (spec.md glossary: "capture").
//
// A capture wraps either a script-mode function (FuncDef set, a TagFuncDef
// pointing at compiled bytecode) or a native receiver method (FuncDef
// NoValue, Native holding the builtin registry index instead) — the
// `foo.strip()` member-call path (func_lookup, spec.md §4.8) produces the
// latter, since most of the builtin function table has no bytecode body.
type CapturePayload struct {
	FuncDef   Handle // TagFuncDef, or NoValue for a native-backed capture
	ScopeRef  int    // opaque scope-chain id, interpreted by vm.ScopeStack
	Defaults  Handle // TagDict, may be NoValue
	BoundSelf Handle // receiver for a bound method capture (member op), or NoValue
	Native    int    // builtin registry index; -1 unless FuncDef == NoValue
}

// NewCapture allocates a TagCapture object.
func (t *Table) NewCapture(p CapturePayload) Handle {
	return t.alloc(TagCapture, t.captures.Push(p))
}

// Capture returns the CapturePayload behind h.
func (t *Table) Capture(h Handle) CapturePayload {
	return t.captures.Get(t.payloadOf(h))
}
