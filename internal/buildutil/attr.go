// Package buildutil provides utilities for extracting arguments from
// buildtools AST nodes.
//
// Manifest calls accept their leading arguments either positionally or by
// keyword, so every accessor takes both a position and a name.
package buildutil

import (
	"fmt"

	"github.com/bazelbuild/buildtools/build"
)

// Arg returns the argument at position pos, or the keyword argument name.
// A negative pos only matches by keyword.
func Arg(call *build.CallExpr, pos int, name string) (build.Expr, bool) {
	positional := 0
	for _, arg := range call.List {
		if assign, ok := arg.(*build.AssignExpr); ok {
			if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
				return assign.RHS, true
			}
			continue
		}
		if positional == pos {
			return arg, true
		}
		positional++
	}
	return nil, false
}

// String extracts a string argument. It reports whether the argument is
// present and returns an error when it is present but not a string.
func String(call *build.CallExpr, pos int, name string) (string, bool, error) {
	expr, ok := Arg(call, pos, name)
	if !ok {
		return "", false, nil
	}
	str, ok := expr.(*build.StringExpr)
	if !ok {
		return "", true, fmt.Errorf("%s must be a string", name)
	}
	return str.Value, true, nil
}

// Bool extracts a keyword boolean argument (True or False). A missing
// argument is false.
func Bool(call *build.CallExpr, name string) (bool, error) {
	expr, ok := Arg(call, -1, name)
	if !ok {
		return false, nil
	}
	if ident, ok := expr.(*build.Ident); ok {
		switch ident.Name {
		case "True":
			return true, nil
		case "False":
			return false, nil
		}
	}
	return false, fmt.Errorf("%s must be True or False", name)
}

// StringList extracts a keyword list of strings. A missing argument is nil.
func StringList(call *build.CallExpr, name string) ([]string, error) {
	expr, ok := Arg(call, -1, name)
	if !ok {
		return nil, nil
	}
	list, ok := expr.(*build.ListExpr)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of strings", name)
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		str, ok := elem.(*build.StringExpr)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of strings", name)
		}
		result = append(result, str.Value)
	}
	return result, nil
}

// Unknown returns the first keyword argument not in known, or "".
func Unknown(call *build.CallExpr, known ...string) string {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		lhs, ok := assign.LHS.(*build.Ident)
		if !ok {
			continue
		}
		found := false
		for _, k := range known {
			if k == lhs.Name {
				found = true
				break
			}
		}
		if !found {
			return lhs.Name
		}
	}
	return ""
}

// Positional returns the number of positional arguments.
func Positional(call *build.CallExpr) int {
	n := 0
	for _, arg := range call.List {
		if _, ok := arg.(*build.AssignExpr); !ok {
			n++
		}
	}
	return n
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// Line returns the 1-based line where call starts.
func Line(call *build.CallExpr) int {
	start, _ := call.Span()
	return start.Line
}
