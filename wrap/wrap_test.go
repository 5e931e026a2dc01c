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

package wrap

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parse(t *testing.T, name, src string) *Wrap {
	t.Helper()
	entries, err := parseINI(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parseINI: %s", err)
	}
	w, err := Parse(name, entries)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	return w
}

func TestParseWrapFileMinimal(t *testing.T) {
	w := parse(t, "zlib.wrap", `[wrap-file]
directory = zlib-1.2.13
source_url = https://example.com/zlib.tar.gz
source_filename = zlib.tar.gz
source_hash = abc123
`)
	if w.Type != TypeFile {
		t.Fatalf("Type = %v, want TypeFile", w.Type)
	}
	if w.Fields[FieldDirectory] != "zlib-1.2.13" {
		t.Fatalf("directory = %q", w.Fields[FieldDirectory])
	}
}

func TestParseWrapFileSourceURLRequiresFilename(t *testing.T) {
	_, err := Parse("x.wrap", mustINI(t, `[wrap-file]
source_url = https://example.com/x.tar.gz
`))
	if err == nil {
		t.Fatal("expected missing source_filename to fail validation")
	}
}

func TestParseWrapGitRequiresURLAndRevision(t *testing.T) {
	w := parse(t, "x.wrap", `[wrap-git]
url = https://example.com/x.git
revision = main
`)
	if w.Type != TypeGit {
		t.Fatalf("Type = %v, want TypeGit", w.Type)
	}
	_, err := Parse("y.wrap", mustINI(t, `[wrap-git]
url = https://example.com/x.git
`))
	if err == nil {
		t.Fatal("expected missing revision to fail")
	}
}

func TestParseConflictingWrapTypesFails(t *testing.T) {
	_, err := Parse("x.wrap", mustINI(t, `[wrap-file]
source_filename = a
[wrap-git]
url = b
revision = c
`))
	if err == nil {
		t.Fatal("expected conflicting wrap types to fail")
	}
}

func TestParsePatchFilenameRequiredWithPatchURL(t *testing.T) {
	_, err := Parse("x.wrap", mustINI(t, `[wrap-file]
source_filename = a
patch_url = https://example.com/patch.tar.gz
`))
	if err == nil {
		t.Fatal("expected patch_url without patch_filename to fail")
	}
}

func TestParsePatchDirectoryInvalidWithPatchFilename(t *testing.T) {
	_, err := Parse("x.wrap", mustINI(t, `[wrap-file]
source_filename = a
patch_filename = p.tar.gz
patch_directory = d
`))
	if err == nil {
		t.Fatal("expected patch_filename + patch_directory to fail")
	}
}

func TestParseInvalidKeyFails(t *testing.T) {
	_, err := Parse("x.wrap", mustINI(t, `[wrap-file]
bogus = 1
`))
	if err == nil {
		t.Fatal("expected invalid key to fail")
	}
}

func TestParseProvideSection(t *testing.T) {
	w := parse(t, "foo.wrap", `[wrap-file]
source_filename = a
[provide]
foo = foo_dep
dependency_names = bar, baz
`)
	if w.Provide.Names["foo"] != "foo_dep" {
		t.Fatalf("Names[foo] = %q", w.Provide.Names["foo"])
	}
	if len(w.Provide.DependencyNames) != 2 || w.Provide.DependencyNames[0] != "bar" {
		t.Fatalf("DependencyNames = %v", w.Provide.DependencyNames)
	}
}

func TestProvideTableFlagsOverride(t *testing.T) {
	t1 := parse(t, "a.wrap", "[wrap-file]\nsource_filename = a\n[provide]\nshared = x\n")
	t2 := parse(t, "b.wrap", "[wrap-file]\nsource_filename = a\n[provide]\nshared = y\n")
	pt := NewProvideTable()
	pt.Add(t1)
	pt.Add(t2)
	if pt.Deps["shared"][0] != "b.wrap" {
		t.Fatalf("Deps[shared] = %v, want overridden by b.wrap", pt.Deps["shared"])
	}
	if pt.Overridden["shared"] != "a.wrap" {
		t.Fatalf("Overridden[shared] = %q, want a.wrap", pt.Overridden["shared"])
	}
}

func mustINI(t *testing.T, src string) []iniEntry {
	t.Helper()
	e, err := parseINI(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parseINI: %s", err)
	}
	return e
}

// failingFetcher fails any Fetch call, so a test using it proves no
// network path was taken (spec.md §8 scenario 4).
type failingFetcher struct{ t *testing.T }

func (f failingFetcher) Fetch(url string) ([]byte, error) {
	f.t.Fatalf("unexpected network fetch of %s", url)
	return nil, nil
}

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: "lead/" + name, Size: int64(len(content)), Mode: 0o644}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	tw.Close()
	gz.Close()
	return buf.Bytes()
}

func TestHandlePrefersPackagefilesOverNetworkFetch(t *testing.T) {
	root := t.TempDir()
	subprojects := filepath.Join(root, "subprojects")
	packagefiles := filepath.Join(subprojects, "packagefiles")
	if err := os.MkdirAll(packagefiles, 0o755); err != nil {
		t.Fatal(err)
	}
	data := buildTarGz(t, map[string]string{"meson.build": "project('x')\n"})
	sum := sha256Hex(data)
	if err := os.WriteFile(filepath.Join(packagefiles, "x.tar.gz"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	w := parse(t, "x.wrap", "[wrap-file]\ndirectory = x\nsource_filename = x.tar.gz\nsource_hash = "+sum+"\n")
	res, err := Handle(w, Config{SubprojectsDir: subprojects, Download: true, Fetcher: failingFetcher{t}})
	if err != nil {
		t.Fatalf("Handle: %s", err)
	}
	if res.Fetched {
		t.Fatal("Handle reported a network fetch despite a matching packagefiles entry")
	}
	if !res.Extracted {
		t.Fatal("Handle did not extract")
	}
	if !fileExists(filepath.Join(res.DestDir, "meson.build")) {
		t.Fatal("meson.build missing from dest_dir after extract")
	}
}

func TestHandleSkipsWhenDestAlreadyPresent(t *testing.T) {
	root := t.TempDir()
	subprojects := filepath.Join(root, "subprojects")
	destDir := filepath.Join(subprojects, "x")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destDir, "meson.build"), []byte("project('x')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := parse(t, "x.wrap", "[wrap-file]\ndirectory = x\nsource_filename = x.tar.gz\n")
	res, err := Handle(w, Config{SubprojectsDir: subprojects, Download: true, Fetcher: failingFetcher{t}})
	if err != nil {
		t.Fatalf("Handle: %s", err)
	}
	if !res.AlreadyPresent {
		t.Fatal("Handle should have short-circuited on an existing meson.build")
	}
}

func TestHandleChecksumMismatchFails(t *testing.T) {
	root := t.TempDir()
	subprojects := filepath.Join(root, "subprojects")
	packagefiles := filepath.Join(subprojects, "packagefiles")
	if err := os.MkdirAll(packagefiles, 0o755); err != nil {
		t.Fatal(err)
	}
	data := buildTarGz(t, map[string]string{"meson.build": "project('x')\n"})
	if err := os.WriteFile(filepath.Join(packagefiles, "x.tar.gz"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	w := parse(t, "x.wrap", "[wrap-file]\ndirectory = x\nsource_filename = x.tar.gz\nsource_hash = deadbeef\n")
	if _, err := Handle(w, Config{SubprojectsDir: subprojects, Download: true, Fetcher: failingFetcher{t}}); err == nil {
		t.Fatal("expected checksum mismatch to fail")
	}
}
