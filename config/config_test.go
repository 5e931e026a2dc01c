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

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debugf("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("Debugf wrote output at LevelWarn: %q", buf.String())
	}
	l.Warnf("hello %d", 1)
	if !strings.Contains(buf.String(), "WARN: hello 1") {
		t.Fatalf("Warnf output = %q", buf.String())
	}
}

func TestLoggerErrorfAlwaysWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)
	l.Errorf("boom")
	if !strings.Contains(buf.String(), "ERROR: boom") {
		t.Fatalf("Errorf output = %q", buf.String())
	}
}

func TestLoadLSPConfigMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadLSPConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadLSPConfig: %s", err)
	}
	if len(cfg.Warnings) != 0 || cfg.Werror {
		t.Fatalf("cfg = %+v, want zero value", cfg)
	}
}

func TestLoadLSPConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".muonlsp.yaml")
	src := "warnings:\n  - dead_code\n  - deprecated\nwerror: true\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadLSPConfig(path)
	if err != nil {
		t.Fatalf("LoadLSPConfig: %s", err)
	}
	if !cfg.Werror {
		t.Fatal("Werror = false, want true")
	}
	if len(cfg.Warnings) != 2 || cfg.Warnings[0] != "dead_code" {
		t.Fatalf("Warnings = %v", cfg.Warnings)
	}
}
