package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

func TestParse(t *testing.T) {
	content := `# Application manifest.
package("app", version = "1.0.0", registries = ["https://a.example.com", "file:///srv/registry"])

dep("log", "^1.2.0")
dep(name = "http", version = ">=2.0.0, <3.0.0")
dep("testkit", "~0.4", dev = True)
dep("tls", version = "1.x", dev = False)
`
	m, err := Parse(DefaultFilename, []byte(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Name != "app" || !m.HasVersion || m.Version.String() != "1.0.0" {
		t.Errorf("package = %q %v %s, want app 1.0.0", m.Name, m.HasVersion, m.Version)
	}
	if diff := cmp.Diff([]string{"https://a.example.com", "file:///srv/registry"}, m.Registries); diff != "" {
		t.Errorf("registries mismatch (-want +got):\n%s", diff)
	}

	type dep struct {
		Name, Constraint string
		Dev              bool
		Line             int
	}
	var got []dep
	for _, d := range m.Dependencies {
		got = append(got, dep{d.Name, d.Constraint.String(), d.Dev, d.Line})
	}
	want := []dep{
		{"log", "^1.2.0", false, 4},
		{"http", ">=2.0.0, <3.0.0", false, 5},
		{"testkit", "~0.4", true, 6},
		{"tls", "1.x", false, 7},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestRequirements(t *testing.T) {
	m, err := Parse("m", []byte(`
package("app")
dep("log", "^1.2.0")
dep("testkit", "*", dev = True)
dep("http", "^2.0.0")
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.HasVersion {
		t.Error("HasVersion = true without a version")
	}

	names := func(includeDev bool) string {
		var out []string
		for _, r := range m.Requirements(includeDev) {
			out = append(out, r.String())
		}
		return strings.Join(out, ", ")
	}
	if got, want := names(false), "log ^1.2.0, http ^2.0.0"; got != want {
		t.Errorf("Requirements(false) = %q, want %q", got, want)
	}
	if got, want := names(true), "log ^1.2.0, testkit *, http ^2.0.0"; got != want {
		t.Errorf("Requirements(true) = %q, want %q", got, want)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
		msg     string
	}{
		{
			name:    "syntax error",
			content: `package("app"`,
			msg:     "syntax error",
		},
		{
			name:    "missing package",
			content: `dep("log", "^1.0.0")`,
			msg:     "missing package()",
		},
		{
			name:    "duplicate package",
			content: "package(\"a\")\npackage(\"b\")",
			line:    2,
			msg:     "declared twice",
		},
		{
			name:    "package without name",
			content: `package(version = "1.0.0")`,
			line:    1,
			msg:     "requires a name",
		},
		{
			name:    "bad package version",
			content: `package("a", "one")`,
			line:    1,
			msg:     "package() version",
		},
		{
			name:    "unknown function",
			content: "package(\"a\")\nrequires(name = \"x\")",
			line:    2,
			msg:     `unknown function "requires"`,
		},
		{
			name:    "assignment",
			content: "package(\"a\")\nx = 1",
			line:    2,
			msg:     "only package() and dep()",
		},
		{
			name:    "dep without constraint",
			content: "package(\"a\")\ndep(\"log\")",
			line:    2,
			msg:     "requires a version constraint",
		},
		{
			name:    "bad constraint",
			content: "package(\"a\")\n\ndep(\"log\", \"^x.y\")",
			line:    3,
			msg:     `dep("log") constraint`,
		},
		{
			name:    "duplicate dep",
			content: "package(\"a\")\ndep(\"log\", \"*\")\ndep(\"log\", \"^1.0.0\")",
			line:    3,
			msg:     "already declared on line 2",
		},
		{
			name:    "unknown argument",
			content: "package(\"a\")\ndep(\"log\", \"*\", repo_name = \"x\")",
			line:    2,
			msg:     `unknown argument "repo_name"`,
		},
		{
			name:    "non-bool dev",
			content: "package(\"a\")\ndep(\"log\", \"*\", dev = 1)",
			line:    2,
			msg:     "dev must be True or False",
		},
		{
			name:    "too many positional",
			content: "package(\"a\")\ndep(\"log\", \"*\", \"extra\")",
			line:    2,
			msg:     "at most 2 positional",
		},
		{
			name:    "non-string registries",
			content: `package("a", registries = "https://x")`,
			line:    1,
			msg:     "registries must be a list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("MANIFEST.star", []byte(tt.content))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			var merr *Error
			if !errors.As(err, &merr) {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if merr.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", merr.Line, tt.line, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestParse_ConstraintErrorUnwraps(t *testing.T) {
	_, err := Parse("m", []byte("package(\"a\")\ndep(\"log\", \">=1.0.0 <\")"))
	var perr *version.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse() error = %v, want a *version.ParseError in the chain", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename)
	if err := os.WriteFile(path, []byte(`package("app", "0.1.0")`), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if m.Name != "app" || m.Version.String() != "0.1.0" {
		t.Errorf("ParseFile() = %+v", m)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.star")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile(missing) error = %v, want os.ErrNotExist", err)
	}
}
