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
	"encoding/json"
	"fmt"
	"strings"
)

func (s *Server) handleInitialize(params json.RawMessage) (any, *rpcError) {
	var p initializeParams
	_ = json.Unmarshal(params, &p) // rootUri is informational only; this server analyzes whatever it's sent
	return initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync:   1, // full-document sync: didChange always carries the whole new text
			CompletionProvider: struct{}{},
			HoverProvider:      true,
		},
	}, nil
}

func (s *Server) handleDidOpen(params json.RawMessage) *rpcError {
	var p didOpenParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &rpcError{Code: errCodeInvalidParams, Message: err.Error()}
	}
	doc := &document{uri: p.TextDocument.URI, version: p.TextDocument.Version, text: p.TextDocument.Text}
	s.docsMu.Lock()
	s.docs[doc.uri] = doc
	s.docsMu.Unlock()
	s.publish(doc.uri, s.analyzeDocument(doc, s.warningOptions()))
	return nil
}

func (s *Server) handleDidChange(params json.RawMessage) *rpcError {
	var p didChangeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &rpcError{Code: errCodeInvalidParams, Message: err.Error()}
	}
	if len(p.ContentChanges) == 0 {
		return nil
	}
	// full-document sync (TextDocumentSync: 1): the last change in the
	// batch always carries the complete new text.
	text := p.ContentChanges[len(p.ContentChanges)-1].Text

	s.docsMu.Lock()
	doc, ok := s.docs[p.TextDocument.URI]
	if !ok {
		doc = &document{uri: p.TextDocument.URI}
		s.docs[doc.uri] = doc
	}
	doc.text = text
	s.docsMu.Unlock()

	s.publish(doc.uri, s.analyzeDocument(doc, s.warningOptions()))
	return nil
}

func (s *Server) handleDidClose(params json.RawMessage) *rpcError {
	var p didCloseParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &rpcError{Code: errCodeInvalidParams, Message: err.Error()}
	}
	s.docsMu.Lock()
	delete(s.docs, p.TextDocument.URI)
	s.docsMu.Unlock()
	// clear any diagnostics the client is still displaying for a file it
	// no longer has open.
	s.publish(p.TextDocument.URI, []Diagnostic{})
	return nil
}

func (s *Server) handleCompletion(params json.RawMessage) (any, *rpcError) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: errCodeInvalidParams, Message: err.Error()}
	}
	s.docsMu.Lock()
	doc := s.docs[p.TextDocument.URI]
	s.docsMu.Unlock()

	prefix := identifierPrefixAt(docText(doc), p.Position)
	return s.completionsFor(doc, prefix), nil
}

func (s *Server) handleHover(params json.RawMessage) (any, *rpcError) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcError{Code: errCodeInvalidParams, Message: err.Error()}
	}
	s.docsMu.Lock()
	doc := s.docs[p.TextDocument.URI]
	s.docsMu.Unlock()
	if doc == nil || doc.vm == nil {
		return nil, nil
	}

	name := identifierAt(doc.text, p.Position)
	if name == "" {
		return nil, nil
	}
	v, ok := doc.vm.Scopes.Lookup(doc.root, name)
	if !ok {
		return nil, nil
	}
	tag := doc.objs.Tag(v)
	return Hover{Contents: markupContent{
		Kind:  "plaintext",
		Value: fmt.Sprintf("%s: %s", name, tag),
	}}, nil
}

func docText(doc *document) string {
	if doc == nil {
		return ""
	}
	return doc.text
}

// identifierAt and identifierPrefixAt do their own line/column walk over
// the raw document text rather than re-lexing it through lang.Parse: a
// hover/completion request fires on every keystroke, often while the
// buffer is mid-edit and doesn't parse at all, so the one part of this
// server that must never depend on a successful parse is cursor-relative
// token lookup.
func identifierAt(text string, pos Position) string {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := pos.Character
	if col < 0 || col > len(line) {
		return ""
	}
	start, end := col, col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}
	return line[start:end]
}

func identifierPrefixAt(text string, pos Position) string {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := pos.Character
	if col < 0 || col > len(line) {
		return ""
	}
	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	return line[start:col]
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
