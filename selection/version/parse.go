package version

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseConstraint parses constraint text.
//
// Recognised forms:
//
//	^1.2.3  ~1.2.3  =1.2.3  >1.2.3  >=1.2.3  <1.2.3  <=1.2.3
//	1.2.3 - 2.0.0          inclusive range
//	*  1.x  1.2.x  1.2.*   wildcards
//	>=1.2.0, <2.0.0        conjunction (commas or spaces)
//
// Unprefixed versions are caret constraints. Caret and tilde operands may be
// partial ("^1", "~1.2"); other operands are zero-padded. A conjunction whose
// parts do not overlap parses to None rather than failing.
func ParseConstraint(s string) (Constraint, error) {
	in := strings.TrimSpace(s)
	switch in {
	case "", "*", "x", "X":
		return Any(), nil
	}
	if strings.Contains(in, "||") {
		return Constraint{}, constraintError(s, "alternatives (||) are not supported")
	}

	if lo, hi, ok := strings.Cut(in, " - "); ok {
		lower, _, err := parseLoose(lo)
		if err != nil {
			return Constraint{}, wrapOperand(s, err)
		}
		upper, _, err := parseLoose(hi)
		if err != nil {
			return Constraint{}, wrapOperand(s, err)
		}
		c := Range(lower, true, upper, true)
		if c.IsUnsatisfiable() {
			return Constraint{}, constraintError(s, "lower bound is above upper bound")
		}
		return c, nil
	}

	terms, err := splitTerms(in)
	if err != nil {
		return Constraint{}, constraintError(s, err.Error())
	}
	if len(terms) == 1 {
		return parseTerm(s, terms[0])
	}
	result := Any()
	for _, term := range terms {
		c, err := parseTerm(s, term)
		if err != nil {
			return Constraint{}, err
		}
		result = result.Intersect(c)
	}
	return result, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// splitTerms splits on commas and whitespace, re-attaching a bare operator
// to the operand that follows it (">= 1.0.0").
func splitTerms(s string) ([]string, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var terms []string
	pending := ""
	for _, f := range fields {
		if isOperator(f) {
			if pending != "" {
				return nil, fmt.Errorf("operator %s has no version", pending)
			}
			pending = f
			continue
		}
		terms = append(terms, pending+f)
		pending = ""
	}
	if pending != "" {
		return nil, fmt.Errorf("operator %s has no version", pending)
	}
	return terms, nil
}

func isOperator(s string) bool {
	switch s {
	case "^", "~", "=", ">", ">=", "<", "<=":
		return true
	}
	return false
}

func parseTerm(input, term string) (Constraint, error) {
	op, operand := splitOperator(term)
	if operand == "" {
		return Constraint{}, constraintError(input, "missing version after "+op)
	}
	if op == "" || op == "=" {
		if c, ok, err := parseWildcard(operand); ok || err != nil {
			if err != nil {
				return Constraint{}, constraintError(input, err.Error())
			}
			return c, nil
		}
	}

	v, parts, err := parseLoose(operand)
	if err != nil {
		return Constraint{}, wrapOperand(input, err)
	}
	switch op {
	case "", "^":
		return caret(v, parts, operand), nil
	case "~":
		return tilde(v, parts, operand), nil
	case "=":
		return Exact(v), nil
	case ">":
		return Comparison(OpGreater, v), nil
	case ">=":
		return Comparison(OpGreaterEqual, v), nil
	case "<":
		return Comparison(OpLess, v), nil
	case "<=":
		return Comparison(OpLessEqual, v), nil
	}
	return Constraint{}, constraintError(input, "unknown operator "+op)
}

func splitOperator(term string) (string, string) {
	for _, op := range []string{">=", "<=", "^", "~", "=", ">", "<"} {
		if strings.HasPrefix(term, op) {
			return op, strings.TrimSpace(term[len(op):])
		}
	}
	return "", term
}

// parseWildcard handles "1.x", "1.2.x" and "1.2.*". ok is false when s is
// not a wildcard at all.
func parseWildcard(s string) (Constraint, bool, error) {
	parts := strings.Split(s, ".")
	last := parts[len(parts)-1]
	if last != "x" && last != "X" && last != "*" {
		return Constraint{}, false, nil
	}
	nums := parts[:len(parts)-1]
	if len(nums) == 0 {
		return Any(), true, nil
	}
	if len(nums) > 2 {
		return Constraint{}, true, fmt.Errorf("malformed wildcard %q", s)
	}
	var vals [2]uint64
	for i, n := range nums {
		if n == "x" || n == "X" || n == "*" {
			if i == 0 {
				return Any(), true, nil
			}
			return wildcard(vals[0], 0, 1), true, nil
		}
		val, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return Constraint{}, true, fmt.Errorf("malformed wildcard %q", s)
		}
		vals[i] = val
	}
	return wildcard(vals[0], vals[1], len(nums)), true, nil
}

func constraintError(input, msg string) *ParseError {
	return &ParseError{Subject: "constraint", Input: input, Message: msg}
}

func wrapOperand(input string, err error) *ParseError {
	pe, ok := err.(*ParseError)
	if !ok {
		return &ParseError{Subject: "constraint", Input: input, Message: err.Error(), Err: err}
	}
	return &ParseError{Subject: "constraint", Input: input, Message: pe.Message, Err: pe}
}
