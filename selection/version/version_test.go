package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantPre bool
		wantErr bool
	}{
		{"1.0.0", "1.0.0", false, false},
		{"1.2.3", "1.2.3", false, false},
		{" 1.2.3 ", "1.2.3", false, false},
		{"1.0.0-alpha", "1.0.0-alpha", true, false},
		{"1.0.0-alpha.1", "1.0.0-alpha.1", true, false},
		{"1.0.0-0.3.7", "1.0.0-0.3.7", true, false},
		{"1.0.0+build.5", "1.0.0+build.5", false, false},
		{"1.0.0-rc.1+build", "1.0.0-rc.1+build", true, false},

		{"", "", false, true},
		{"1", "", false, true},
		{"1.2", "", false, true},
		{"v1.2.3", "", false, true},
		{"1.2.x", "", false, true},
		{"a.b.c", "", false, true},
		{"1.2.3.4", "", false, true},
		{"01.2.3", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Parse(%q) error type = %T, want *ParseError", tt.input, err)
				}
				if pe.Subject != "version" {
					t.Errorf("ParseError.Subject = %q, want version", pe.Subject)
				}
				return
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.input, got, tt.want)
			}
			if v.IsPrerelease() != tt.wantPre {
				t.Errorf("Parse(%q).IsPrerelease() = %v, want %v", tt.input, v.IsPrerelease(), tt.wantPre)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.2.0", "1.10.0", -1},
		{"1.0.10", "1.0.9", 1},

		// SemVer 2.0 section 11 example chain
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.beta", -1},
		{"1.0.0-alpha.beta", "1.0.0-beta", -1},
		{"1.0.0-beta", "1.0.0-beta.2", -1},
		{"1.0.0-beta.2", "1.0.0-beta.11", -1},
		{"1.0.0-beta.11", "1.0.0-rc.1", -1},
		{"1.0.0-rc.1", "1.0.0", -1},

		// build metadata does not participate
		{"1.0.0+a", "1.0.0+b", 0},
		{"1.0.0-0", "1.0.0-alpha", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			a, b := MustParse(tt.a), MustParse(tt.b)
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := b.Compare(a); got != -tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestVersionIsComparableValue(t *testing.T) {
	a := MustParse("1.2.3-rc.1")
	b := New(1, 2, 3, "rc.1", "")
	if a != b {
		t.Errorf("Parse and New produced different values: %#v vs %#v", a, b)
	}

	seen := map[Version]bool{a: true}
	if !seen[b] {
		t.Error("equal versions should collide as map keys")
	}
}

func TestSort(t *testing.T) {
	versions := []Version{
		MustParse("2.0.0"),
		MustParse("1.0.0"),
		MustParse("1.0.0-rc.1"),
		MustParse("1.10.0"),
		MustParse("1.2.0"),
	}
	Sort(versions)

	want := []string{"1.0.0-rc.1", "1.0.0", "1.2.0", "1.10.0", "2.0.0"}
	for i, v := range versions {
		if v.String() != want[i] {
			t.Errorf("Sort()[%d] = %s, want %s", i, v, want[i])
		}
	}
}

func TestMax(t *testing.T) {
	a, b := MustParse("1.2.0"), MustParse("1.10.0")
	if got := Max(a, b); got != b {
		t.Errorf("Max(%s, %s) = %s", a, b, got)
	}
	if got := Max(b, a); got != b {
		t.Errorf("Max(%s, %s) = %s", b, a, got)
	}
}

func TestVersionText(t *testing.T) {
	var v Version
	if err := v.UnmarshalText([]byte("3.1.4-beta")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	out, err := v.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(out) != "3.1.4-beta" {
		t.Errorf("MarshalText() = %q", out)
	}
	if err := v.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("UnmarshalText(bogus) should fail")
	}
}
