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
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/muonic/muon/analyzer"
	"github.com/muonic/muon/builtin"
	"github.com/muonic/muon/config"
)

// Server is one muon language server instance: it owns the open
// documents and the warning set new analysis runs use, and serializes
// writes back to the client over a single stdio transport.
type Server struct {
	log     *config.Logger
	cfg     config.LSPConfig
	natives *builtin.Registry // for completion's builtin-name enumeration only

	w      io.Writer
	wmu    sync.Mutex
	docs   map[string]*document
	docsMu sync.Mutex
}

// New returns a Server that will log through logger and fall back to
// cfg's default warning set until a request asks for a different one.
func New(logger *config.Logger, cfg config.LSPConfig) *Server {
	return &Server{
		log:     logger,
		cfg:     cfg,
		natives: builtin.NewRegistry(),
		docs:    map[string]*document{},
	}
}

// warningOptions turns the server's loaded .muonlsp.yaml into
// analyzer.Options: an empty Warnings list means "every category",
// matching config.LSPConfig.Warnings' doc comment.
func (s *Server) warningOptions() analyzer.Options {
	if len(s.cfg.Warnings) == 0 {
		return analyzer.DefaultOptions()
	}
	var enabled analyzer.Diagnostic
	for _, name := range s.cfg.Warnings {
		if d, ok := analyzer.DiagnosticByName(name); ok {
			enabled |= d
		}
	}
	return analyzer.Options{Enabled: enabled}
}

// Serve runs the server's read loop against r, writing responses and
// notifications to w, until r is exhausted (the client closed stdin) or
// a read fails; shutdown and exit are answered but do not end the loop.
// Each request is handled
// synchronously and tagged with its own google/uuid correlation id for
// logging (SPEC_FULL.md §4.13) — this server does not evaluate two
// documents concurrently, since both share the one *object.Table-free,
// per-document vm.VM built fresh per analysis run, so there is no shared
// mutable state a second in-flight request could race with.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	s.w = w
	br := bufio.NewReader(r)
	for {
		body, err := readMessage(br)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		s.handleMessage(body)
	}
}

func (s *Server) handleMessage(body []byte) {
	reqID := uuid.New().String()

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		s.log.Errorf("request %s: malformed JSON-RPC message: %s", reqID, err)
		s.writeResponse(nil, nil, &rpcError{Code: errCodeParseError, Message: err.Error()})
		return
	}

	s.log.Debugf("request %s: %s", reqID, req.Method)
	result, rerr := s.dispatch(&req)
	if req.isNotification() {
		if rerr != nil {
			s.log.Warnf("request %s: %s failed: %s", reqID, req.Method, rerr.Message)
		}
		return
	}
	s.writeResponse(req.ID, result, rerr)
}

func (s *Server) dispatch(req *request) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.Params)
	case "initialized", "$/cancelRequest":
		return nil, nil
	case "shutdown":
		return nil, nil
	case "exit":
		return nil, nil
	case "textDocument/didOpen":
		return nil, s.handleDidOpen(req.Params)
	case "textDocument/didChange":
		return nil, s.handleDidChange(req.Params)
	case "textDocument/didClose":
		return nil, s.handleDidClose(req.Params)
	case "textDocument/completion":
		return s.handleCompletion(req.Params)
	case "textDocument/hover":
		return s.handleHover(req.Params)
	default:
		return nil, &rpcError{Code: errCodeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

func (s *Server) writeResponse(id json.RawMessage, result any, rerr *rpcError) {
	resp := response{JSONRPC: "2.0", ID: id, Result: result, Error: rerr}
	body, err := json.Marshal(resp)
	if err != nil {
		s.log.Errorf("marshal response: %s", err)
		return
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := writeMessage(s.w, body); err != nil {
		s.log.Errorf("write response: %s", err)
	}
}

// publish sends an unsolicited textDocument/publishDiagnostics
// notification, the one message shape in this protocol the server
// originates rather than replies to.
func (s *Server) publish(uri string, diags []Diagnostic) {
	note := notification{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params:  PublishDiagnosticsParams{URI: uri, Diagnostics: diags},
	}
	body, err := json.Marshal(note)
	if err != nil {
		s.log.Errorf("marshal publishDiagnostics: %s", err)
		return
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := writeMessage(s.w, body); err != nil {
		s.log.Errorf("write publishDiagnostics: %s", err)
	}
}
