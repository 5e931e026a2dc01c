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

// Package config implements the driver-level ambient stack SPEC_FULL.md
// calls for: a small leveled wrapper over the standard log.Logger
// (grounded on cmd/sneller/main.go's log.New(os.Stderr, "",
// log.Lshortfile) idiom) and a .muonlsp.yaml loader for the analyzer/LSP
// server's default warning set.
package config

import (
	"fmt"
	"io"
	"log"
)

// Level selects which of a Logger's calls actually write output.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelDebug
)

// Logger wraps a standard *log.Logger with Debugf/Warnf/Errorf, the same
// three-call shape cmd/snellerd's request handlers use around their own
// *log.Logger field, filtered by a minimum Level so `muon -v` vs. plain
// runs get different verbosity without threading a bool through every
// call site.
type Logger struct {
	*log.Logger
	level Level
}

// New returns a Logger writing to w with the standard "file:line: "
// prefix (log.Lshortfile), at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{Logger: log.New(w, "", log.Lshortfile), level: level}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.level >= LevelDebug {
		l.Output(2, "DEBUG: "+fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.level >= LevelWarn {
		l.Output(2, "WARN: "+fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Output(2, "ERROR: "+fmt.Sprintf(format, args...))
}
