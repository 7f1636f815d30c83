package manifest

import (
	"fmt"
	"os"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-depsolve/internal/buildutil"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// ParseFile reads and parses a manifest file from disk.
func ParseFile(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(filename, data)
}

// Parse parses manifest content. filename is only used in error messages.
//
// The manifest is a Starlark file holding one package() call and any number
// of dep() calls:
//
//	package("app", version = "1.0.0")
//
//	dep("log", "^1.2.0")
//	dep(name = "testkit", version = "~0.4", dev = True)
//
// Other statements are rejected.
func Parse(filename string, data []byte) (*Manifest, error) {
	f, err := build.ParseBzl(filename, data)
	if err != nil {
		return nil, &Error{File: filename, Msg: "syntax error", Err: err}
	}

	p := &parser{file: filename, m: &Manifest{Dependencies: []Dependency{}}}
	for _, stmt := range f.Stmt {
		if err := p.stmt(stmt); err != nil {
			return nil, err
		}
	}
	if !p.sawPackage {
		return nil, &Error{File: filename, Msg: "missing package() declaration"}
	}
	return p.m, nil
}

type parser struct {
	file       string
	m          *Manifest
	sawPackage bool
	deps       map[string]int
}

func (p *parser) errorf(call *build.CallExpr, format string, args ...any) error {
	return &Error{File: p.file, Line: buildutil.Line(call), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) stmt(stmt build.Expr) error {
	if _, ok := stmt.(*build.CommentBlock); ok {
		return nil
	}
	call, ok := stmt.(*build.CallExpr)
	if !ok {
		start, _ := stmt.Span()
		return &Error{File: p.file, Line: start.Line, Msg: "only package() and dep() calls are allowed"}
	}

	switch name := buildutil.FuncName(call); name {
	case "package":
		return p.pkg(call)
	case "dep":
		return p.dep(call)
	default:
		return p.errorf(call, "unknown function %q", name)
	}
}

func (p *parser) pkg(call *build.CallExpr) error {
	if p.sawPackage {
		return p.errorf(call, "package() declared twice")
	}
	p.sawPackage = true

	if unknown := buildutil.Unknown(call, "name", "version", "registries"); unknown != "" {
		return p.errorf(call, "package() has unknown argument %q", unknown)
	}
	if n := buildutil.Positional(call); n > 2 {
		return p.errorf(call, "package() takes at most 2 positional arguments, got %d", n)
	}

	name, _, err := buildutil.String(call, 0, "name")
	if err != nil {
		return p.errorf(call, "package(): %v", err)
	}
	if name == "" {
		return p.errorf(call, "package() requires a name")
	}
	p.m.Name = name

	text, ok, err := buildutil.String(call, 1, "version")
	if err != nil {
		return p.errorf(call, "package(): %v", err)
	}
	if ok {
		v, err := version.Parse(text)
		if err != nil {
			return &Error{File: p.file, Line: buildutil.Line(call), Msg: "package() version", Err: err}
		}
		p.m.Version = v
		p.m.HasVersion = true
	}

	registries, err := buildutil.StringList(call, "registries")
	if err != nil {
		return p.errorf(call, "package(): %v", err)
	}
	p.m.Registries = registries
	return nil
}

func (p *parser) dep(call *build.CallExpr) error {
	if unknown := buildutil.Unknown(call, "name", "version", "dev"); unknown != "" {
		return p.errorf(call, "dep() has unknown argument %q", unknown)
	}
	if n := buildutil.Positional(call); n > 2 {
		return p.errorf(call, "dep() takes at most 2 positional arguments, got %d", n)
	}

	name, _, err := buildutil.String(call, 0, "name")
	if err != nil {
		return p.errorf(call, "dep(): %v", err)
	}
	if name == "" {
		return p.errorf(call, "dep() requires a name")
	}

	text, ok, err := buildutil.String(call, 1, "version")
	if err != nil {
		return p.errorf(call, "dep(%q): %v", name, err)
	}
	if !ok {
		return p.errorf(call, "dep(%q) requires a version constraint", name)
	}
	c, err := version.ParseConstraint(text)
	if err != nil {
		return &Error{File: p.file, Line: buildutil.Line(call), Msg: fmt.Sprintf("dep(%q) constraint", name), Err: err}
	}

	dev, err := buildutil.Bool(call, "dev")
	if err != nil {
		return p.errorf(call, "dep(%q): %v", name, err)
	}

	if p.deps == nil {
		p.deps = make(map[string]int)
	}
	if prev, dup := p.deps[name]; dup {
		return p.errorf(call, "dep(%q) already declared on line %d", name, prev)
	}
	line := buildutil.Line(call)
	p.deps[name] = line

	p.m.Dependencies = append(p.m.Dependencies, Dependency{
		Name:       name,
		Constraint: c,
		Dev:        dev,
		Line:       line,
	})
	return nil
}
