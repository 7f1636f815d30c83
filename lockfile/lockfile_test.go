package lockfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	depsolve "github.com/albertocavalcante/go-depsolve"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// resolution builds a Resolution from name, version pairs. The first
// package is direct and depends on all others.
func resolution(pairs ...string) *depsolve.Resolution {
	res := &depsolve.Resolution{}
	for i := 0; i+1 < len(pairs); i += 2 {
		res.Packages = append(res.Packages, depsolve.ResolvedPackage{
			Name:    pairs[i],
			Version: version.MustParse(pairs[i+1]),
			Direct:  i == 0,
		})
	}
	for i := 2; i+1 < len(pairs); i += 2 {
		res.Packages[0].Dependencies = append(res.Packages[0].Dependencies, pairs[i])
	}
	return res
}

func TestNew(t *testing.T) {
	lf := New()
	if lf.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", lf.Version, CurrentVersion)
	}
	if lf.Packages == nil || lf.SelectedYankedVersions == nil {
		t.Error("maps not initialized")
	}
}

func TestPackageKey(t *testing.T) {
	tests := []struct {
		key  PackageKey
		text string
	}{
		{PackageKey{Name: "log", Version: "1.2.0"}, "log@1.2.0"},
		{PackageKey{Name: "log"}, "log@_"},
		{PackageKey{Name: "@scope/pkg", Version: "1.0.0-rc.1"}, "@scope/pkg@1.0.0-rc.1"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := tt.key.String(); got != tt.text {
				t.Errorf("String() = %q, want %q", got, tt.text)
			}
			var key PackageKey
			if err := key.UnmarshalText([]byte(tt.text)); err != nil {
				t.Fatalf("UnmarshalText() error = %v", err)
			}
			if key != tt.key {
				t.Errorf("UnmarshalText() = %+v, want %+v", key, tt.key)
			}
		})
	}

	var key PackageKey
	for _, bad := range []string{"log", "@1.0.0"} {
		if err := key.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("UnmarshalText(%q) succeeded", bad)
		}
	}
}

func TestFromResolution(t *testing.T) {
	res := resolution("app", "1.0.0", "log", "1.2.0", "tls", "0.9.1")
	lf := FromResolution("app", res)

	if lf.Root != "app" || lf.Digest != res.Digest() {
		t.Errorf("Root, Digest = %q, %q", lf.Root, lf.Digest)
	}
	want := map[string]Entry{
		"app": {Version: "1.0.0", Dependencies: []string{"log", "tls"}, Direct: true},
		"log": {Version: "1.2.0"},
		"tls": {Version: "0.9.1"},
	}
	if diff := cmp.Diff(want, lf.Packages); diff != "" {
		t.Errorf("Packages mismatch (-want +got):\n%s", diff)
	}
	if !lf.Matches(res) {
		t.Error("Matches() = false for the source resolution")
	}
	if lf.Matches(resolution("app", "1.0.0", "log", "1.3.0", "tls", "0.9.1")) {
		t.Error("Matches() = true after an upgrade")
	}
	if lf.Matches(resolution("app", "1.0.0", "log", "1.2.0")) {
		t.Error("Matches() = true with a package missing")
	}
}

func TestLockfile_YankedVersions(t *testing.T) {
	lf := New()
	lf.AllowYankedVersion(PackageKey{Name: "tls", Version: "0.9.1"}, "CVE-2026-0001")
	lf.AllowYankedVersion(PackageKey{Name: "log", Version: "1.2.0"}, "")

	if diff := cmp.Diff([]string{"log@1.2.0", "tls@0.9.1"}, lf.AllowedYankedVersions()); diff != "" {
		t.Errorf("AllowedYankedVersions() mismatch (-want +got):\n%s", diff)
	}
}

func TestLockfile_ManifestHash(t *testing.T) {
	lf := New()
	content := []byte(`package("app")`)
	if !lf.ManifestChanged(content) {
		t.Error("ManifestChanged() = false without a recorded hash")
	}
	lf.SetManifestHash(content)
	if lf.ManifestChanged(content) {
		t.Error("ManifestChanged() = true for the same content")
	}
	if !lf.ManifestChanged([]byte(`package("app", "1.0.0")`)) {
		t.Error("ManifestChanged() = false after an edit")
	}
}

func TestLockfile_WriteRead(t *testing.T) {
	lf := FromResolution("app", resolution("app", "1.0.0", "log", "1.2.0"))
	lf.SetManifestHash([]byte("m"))
	lf.AllowYankedVersion(PackageKey{Name: "log", Version: "1.2.0"}, "bad")

	path := DefaultPath(t.TempDir())
	if filepath.Base(path) != DefaultFilename {
		t.Errorf("DefaultPath() = %q", path)
	}
	if Exists(path) {
		t.Fatal("Exists() before write")
	}
	if err := lf.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists() after write = false")
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if diff := cmp.Diff(lf, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "invalid json", data: `{`, want: "failed to parse lockfile JSON"},
		{name: "future version", data: `{"lockFileVersion": 2}`, want: "unsupported lockfile version 2"},
		{name: "missing version", data: `{}`, want: "unsupported lockfile version 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want %q", err, tt.want)
			}
		})
	}

	lf, err := Parse([]byte(`{"lockFileVersion": 1, "digest": "x"}`))
	if err != nil {
		t.Fatal(err)
	}
	if lf.Packages == nil || lf.SelectedYankedVersions == nil {
		t.Error("Parse() left nil maps")
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.lock")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v", err)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	lf := FromResolution("app", resolution("app", "1.0.0", "zlib", "1.0.0", "log", "1.2.0", "http", "2.0.0"))
	lf.AllowYankedVersion(PackageKey{Name: "zlib", Version: "1.0.0"}, "z")
	lf.AllowYankedVersion(PackageKey{Name: "http", Version: "2.0.0"}, "h")

	first, err := lf.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	for range 10 {
		again, err := lf.Marshal()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal() output differs between calls")
		}
	}

	out := string(first)
	http, log, zlib := strings.Index(out, `"http": {`), strings.Index(out, `"log": {`), strings.Index(out, `"zlib": {`)
	if http < 0 || !(http < log && log < zlib) {
		t.Errorf("packages not sorted:\n%s", out)
	}
	if diff := cmp.Diff([]string{"http", "log", "zlib"}, lf.Packages["app"].Dependencies); diff != "" {
		t.Errorf("dependencies not sorted (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(out, "}\n") || !strings.Contains(out, "\n  \"lockFileVersion\": 1,") {
		t.Errorf("unexpected layout:\n%s", out)
	}

	var buf bytes.Buffer
	n, err := lf.WriteTo(&buf)
	if err != nil || n != int64(len(first)) || !bytes.Equal(buf.Bytes(), first) {
		t.Errorf("WriteTo() = %d, %v", n, err)
	}
}

func TestMarshal_Empty(t *testing.T) {
	data, err := New().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"packages": {}`) {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestHashContent(t *testing.T) {
	// SHA-256 of the empty string.
	const empty = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashContent(nil); got != empty {
		t.Errorf("HashContent(nil) = %q", got)
	}
	if !VerifyHash([]byte("x"), HashContent([]byte("x"))) || VerifyHash([]byte("y"), HashContent([]byte("x"))) {
		t.Error("VerifyHash() wrong")
	}
}

func TestCompare(t *testing.T) {
	old := FromResolution("app", resolution("app", "1.0.0", "log", "1.2.0", "tls", "0.9.1"))
	old.AllowYankedVersion(PackageKey{Name: "tls", Version: "0.9.1"}, "x")
	updated := FromResolution("app", resolution("app", "1.0.0", "log", "1.3.0", "http", "2.0.0"))
	updated.AllowYankedVersion(PackageKey{Name: "http", Version: "2.0.0"}, "y")

	diff := Compare(old, updated)
	want := &Diff{
		Added:         []PackageKey{{Name: "http", Version: "2.0.0"}},
		Removed:       []PackageKey{{Name: "tls", Version: "0.9.1"}},
		Changed:       []VersionChange{{Name: "log", OldVersion: "1.2.0", NewVersion: "1.3.0"}},
		YankedAdded:   []string{"http@2.0.0"},
		YankedRemoved: []string{"tls@0.9.1"},
	}
	if d := cmp.Diff(want, diff); d != "" {
		t.Errorf("Compare() mismatch (-want +got):\n%s", d)
	}

	wantSummary := "+ http@2.0.0\n- tls@0.9.1\n~ log 1.2.0 -> 1.3.0\n+ yanked http@2.0.0\n- yanked tls@0.9.1\n"
	if got := diff.Summary(); got != wantSummary {
		t.Errorf("Summary() = %q, want %q", got, wantSummary)
	}

	same := Compare(old, old)
	if !same.IsEmpty() || same.Summary() != "no changes\n" {
		t.Errorf("Compare(old, old) = %+v", same)
	}
}
