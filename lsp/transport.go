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

// Package lsp implements SPEC_FULL.md §4.13's language server: JSON-RPC
// 2.0 over stdio, Content-Length framed, driving the analyzer package for
// textDocument/completion, textDocument/hover and
// textDocument/publishDiagnostics. Grounded on cmd/snellerd's HTTP
// handler request lifecycle (handler_query.go: parse -> validate ->
// execute -> respond), adapted here from request/response over HTTP to
// request/notification over a framed byte stream.
package lsp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const contentLengthHeader = "Content-Length: "

// readMessage reads one Content-Length-framed JSON-RPC message body from
// r, the wire format every LSP client/server speaks regardless of
// message kind.
func readMessage(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, contentLengthHeader) {
			n, err := strconv.Atoi(strings.TrimPrefix(line, contentLengthHeader))
			if err != nil {
				return nil, fmt.Errorf("lsp: bad Content-Length header %q: %w", line, err)
			}
			length = n
		}
		// any other header (Content-Type, ...) is read and discarded.
	}
	if length < 0 {
		return nil, fmt.Errorf("lsp: message had no Content-Length header")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeMessage frames body with a Content-Length header and writes it to
// w. One writeMessage call is atomic from the reader's point of view, but
// callers sharing a single io.Writer across goroutines must still
// serialize their own calls (Server does, via its write mutex).
func writeMessage(w io.Writer, body []byte) error {
	_, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n%s", len(body), body)
	return err
}
