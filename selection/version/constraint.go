package version

import (
	"strconv"
	"strings"
)

// Kind identifies the syntactic form of a Constraint.
type Kind int

const (
	// KindAny matches every version. It is the zero Kind.
	KindAny Kind = iota
	// KindNone matches nothing. Intersections that are provably empty
	// return a KindNone constraint.
	KindNone
	KindExact
	KindCaret
	KindTilde
	KindComparison
	KindRange
	KindWildcard
)

var kindNames = [...]string{
	KindAny:        "any",
	KindNone:       "none",
	KindExact:      "exact",
	KindCaret:      "caret",
	KindTilde:      "tilde",
	KindComparison: "comparison",
	KindRange:      "range",
	KindWildcard:   "wildcard",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Op is the operator of a KindComparison constraint.
type Op int

const (
	OpGreater Op = iota + 1
	OpGreaterEqual
	OpLess
	OpLessEqual
)

func (o Op) String() string {
	switch o {
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	}
	return ""
}

// bound is one end of a version interval. The zero value is unbounded.
type bound struct {
	v         Version
	set       bool
	inclusive bool
}

func at(v Version, inclusive bool) bound { return bound{v: v, set: true, inclusive: inclusive} }

// Constraint is an immutable version constraint.
//
// Every kind lowers to a single interval [lo, hi] with per-end inclusivity;
// Satisfies and Intersect operate on that interval while Kind and String
// keep the form the constraint was written in. The zero value is Any.
type Constraint struct {
	kind Kind
	op   Op
	ver  Version
	text string
	lo   bound
	hi   bound
}

// Any returns the constraint matching every version.
func Any() Constraint { return Constraint{} }

// None returns the unsatisfiable constraint.
func None() Constraint { return Constraint{kind: KindNone} }

// Exact matches only v (build metadata ignored).
func Exact(v Version) Constraint {
	return Constraint{
		kind: KindExact,
		ver:  v,
		text: "=" + v.String(),
		lo:   at(v, true),
		hi:   at(v, true),
	}
}

// Caret matches versions >= v that share v's leading non-zero component.
func Caret(v Version) Constraint {
	return caret(v, 3, v.String())
}

func caret(v Version, parts int, operand string) Constraint {
	var hi Version
	switch {
	case v.Major() > 0 || parts == 1:
		hi = prereleaseFloor(v.Major()+1, 0, 0)
	case v.Minor() > 0 || parts == 2:
		hi = prereleaseFloor(0, v.Minor()+1, 0)
	default:
		hi = prereleaseFloor(0, 0, v.Patch()+1)
	}
	return Constraint{
		kind: KindCaret,
		ver:  v,
		text: "^" + operand,
		lo:   at(v, true),
		hi:   at(hi, false),
	}
}

// Tilde matches versions >= v with the same major and minor components.
func Tilde(v Version) Constraint {
	return tilde(v, 3, v.String())
}

func tilde(v Version, parts int, operand string) Constraint {
	hi := prereleaseFloor(v.Major(), v.Minor()+1, 0)
	if parts == 1 {
		hi = prereleaseFloor(v.Major()+1, 0, 0)
	}
	return Constraint{
		kind: KindTilde,
		ver:  v,
		text: "~" + operand,
		lo:   at(v, true),
		hi:   at(hi, false),
	}
}

// Comparison matches versions related to v by op.
func Comparison(op Op, v Version) Constraint {
	c := Constraint{kind: KindComparison, op: op, ver: v, text: op.String() + v.String()}
	switch op {
	case OpGreater:
		c.lo = at(v, false)
	case OpGreaterEqual:
		c.lo = at(v, true)
	case OpLess:
		c.hi = at(v, false)
	case OpLessEqual:
		c.hi = at(v, true)
	default:
		return None()
	}
	return c
}

// Range matches versions between lower and upper with the given
// inclusivity. An empty interval yields None.
func Range(lower Version, lowerInclusive bool, upper Version, upperInclusive bool) Constraint {
	return fromBounds(at(lower, lowerInclusive), at(upper, upperInclusive))
}

// wildcard builds "M.x" (parts == 1) or "M.m.x" (parts == 2).
func wildcard(major, minor uint64, parts int) Constraint {
	var (
		lo, hi Version
		text   string
	)
	if parts == 1 {
		lo = New(major, 0, 0, "", "")
		hi = prereleaseFloor(major+1, 0, 0)
		text = strconv.FormatUint(major, 10) + ".x"
	} else {
		lo = New(major, minor, 0, "", "")
		hi = prereleaseFloor(major, minor+1, 0)
		text = strconv.FormatUint(major, 10) + "." + strconv.FormatUint(minor, 10) + ".x"
	}
	return Constraint{
		kind: KindWildcard,
		ver:  lo,
		text: text,
		lo:   at(lo, true),
		hi:   at(hi, false),
	}
}

// fromBounds picks the simplest kind that represents [lo, hi].
func fromBounds(lo, hi bound) Constraint {
	if empty(lo, hi) {
		return None()
	}
	switch {
	case !lo.set && !hi.set:
		return Any()
	case !hi.set:
		if lo.inclusive {
			return Comparison(OpGreaterEqual, lo.v)
		}
		return Comparison(OpGreater, lo.v)
	case !lo.set:
		if hi.inclusive {
			return Comparison(OpLessEqual, hi.v)
		}
		return Comparison(OpLess, hi.v)
	case lo.inclusive && hi.inclusive && lo.v.Equal(hi.v):
		return Exact(lo.v)
	}
	return Constraint{kind: KindRange, text: rangeText(lo, hi), lo: lo, hi: hi}
}

func rangeText(lo, hi bound) string {
	if lo.inclusive && hi.inclusive {
		return lo.v.String() + " - " + hi.v.String()
	}
	var b strings.Builder
	if lo.inclusive {
		b.WriteString(">=")
	} else {
		b.WriteString(">")
	}
	b.WriteString(lo.v.String())
	b.WriteString(", ")
	if hi.inclusive {
		b.WriteString("<=")
	} else {
		b.WriteString("<")
	}
	b.WriteString(hi.v.String())
	return b.String()
}

// Kind returns the constraint's form.
func (c Constraint) Kind() Kind { return c.kind }

// Op returns the operator of a KindComparison constraint, zero otherwise.
func (c Constraint) Op() Op { return c.op }

// Version returns the operand of Exact, Caret, Tilde and Comparison
// constraints, and the lower end of a Wildcard.
func (c Constraint) Version() Version { return c.ver }

// IsAny reports whether c matches every version.
func (c Constraint) IsAny() bool { return c.kind != KindNone && !c.lo.set && !c.hi.set }

// IsUnsatisfiable reports whether c matches no version.
func (c Constraint) IsUnsatisfiable() bool { return c.kind == KindNone }

// Satisfies reports whether v satisfies c.
func (c Constraint) Satisfies(v Version) bool {
	if c.kind == KindNone {
		return false
	}
	if c.lo.set {
		cmp := v.Compare(c.lo.v)
		if cmp < 0 || (cmp == 0 && !c.lo.inclusive) {
			return false
		}
	}
	if c.hi.set {
		cmp := v.Compare(c.hi.v)
		if cmp > 0 || (cmp == 0 && !c.hi.inclusive) {
			return false
		}
	}
	return true
}

// Intersect returns the tightest constraint implied by both c and o. When the
// result equals one operand's interval that operand is returned unchanged,
// so ^1.0.0 intersected with ~1.1.0 is ~1.1.0. A provably empty intersection
// returns None. Intersect is commutative.
func (c Constraint) Intersect(o Constraint) Constraint {
	if c.kind == KindNone || o.kind == KindNone {
		return None()
	}
	lo := tighterLower(c.lo, o.lo)
	hi := tighterUpper(c.hi, o.hi)
	if empty(lo, hi) {
		return None()
	}
	cm := c.lo == lo && c.hi == hi
	om := o.lo == lo && o.hi == hi
	switch {
	case cm && om:
		if order(o, c) < 0 {
			return o
		}
		return c
	case cm:
		return c
	case om:
		return o
	}
	return fromBounds(lo, hi)
}

// AllowsPrerelease reports whether either end of c names a pre-release,
// which is how a requirement opts in to pre-release candidates.
func (c Constraint) AllowsPrerelease() bool {
	if c.kind == KindNone {
		return false
	}
	if c.lo.set && c.lo.v.IsPrerelease() {
		return true
	}
	// Exclusive upper bounds synthesised as X.Y.Z-0 are not a request.
	return c.hi.set && c.hi.v.IsPrerelease() && (c.hi.inclusive || c.hi.v.Prerelease() != "0")
}

// Equal reports whether c and o have the same form and interval.
func (c Constraint) Equal(o Constraint) bool {
	return c.kind == o.kind && c.text == o.text && c.lo == o.lo && c.hi == o.hi
}

// String returns the constraint in the syntax accepted by ParseConstraint.
func (c Constraint) String() string {
	switch c.kind {
	case KindAny:
		return "*"
	case KindNone:
		return "none"
	}
	return c.text
}

// MarshalText implements encoding.TextMarshaler.
func (c Constraint) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Constraint) UnmarshalText(b []byte) error {
	parsed, err := ParseConstraint(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Satisfies reports whether v satisfies c.
func Satisfies(c Constraint, v Version) bool { return c.Satisfies(v) }

// Intersect returns the intersection of a and b.
func Intersect(a, b Constraint) Constraint { return a.Intersect(b) }

func tighterLower(a, b bound) bound {
	switch {
	case !a.set:
		return b
	case !b.set:
		return a
	}
	if cmp := a.v.Compare(b.v); cmp != 0 {
		if cmp > 0 {
			return a
		}
		return b
	}
	if a.inclusive != b.inclusive {
		if a.inclusive {
			return b
		}
		return a
	}
	if a.v.String() <= b.v.String() {
		return a
	}
	return b
}

func tighterUpper(a, b bound) bound {
	switch {
	case !a.set:
		return b
	case !b.set:
		return a
	}
	if cmp := a.v.Compare(b.v); cmp != 0 {
		if cmp < 0 {
			return a
		}
		return b
	}
	if a.inclusive != b.inclusive {
		if a.inclusive {
			return b
		}
		return a
	}
	if a.v.String() <= b.v.String() {
		return a
	}
	return b
}

func empty(lo, hi bound) bool {
	if !lo.set || !hi.set {
		return false
	}
	cmp := lo.v.Compare(hi.v)
	if cmp != 0 {
		return cmp > 0
	}
	return !lo.inclusive || !hi.inclusive
}

// order is a total order on constraints with equal intervals, used to keep
// Intersect commutative.
func order(a, b Constraint) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	return strings.Compare(a.text, b.text)
}
