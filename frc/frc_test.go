package frc

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	upm "github.com/molsaic/upm"
)

func fixtureText() string {
	return strings.Join([]string{
		"This is a preamble line that must be preserved.",
		"Another preamble line.",
		"#atom_types",
		"  c3  C  12.011  carbon sp3",
		"  o   O  15.999  oxygen",
		"  h   H  1.008   hydrogen",
		"#quadratic_bond",
		"  o  c3  100.0  1.23  src:demo",
		"  c3 h   250.0  1.09",
		"#nonbond(12-6)",
		"  @type A-B",
		"  @combination geometric",
		"  c3  1.0   2.0",
		"  o   10.0  20.0",
		"  h   0.1   0.2",
		"#unsupported_section",
		"line1",
		"  line2 with leading spaces",
		"",
	}, "\n") + "\n"
}

func deref(t *testing.T, p *float64) float64 {
	t.Helper()
	if p == nil {
		t.Fatalf("unexpected nil numeric cell")
	}
	return *p
}

func TestParseFixture(t *testing.T) {
	tables, unknown, err := Parse(fixtureText(), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tables.AtomTypes) != 3 {
		t.Fatalf("expected 3 atom types, got %d", len(tables.AtomTypes))
	}
	// Normalization sorts by atom_type: c3, h, o.
	got := []string{tables.AtomTypes[0].Type, tables.AtomTypes[1].Type, tables.AtomTypes[2].Type}
	if !reflect.DeepEqual(got, []string{"c3", "h", "o"}) {
		t.Errorf("atom type order: got %v", got)
	}
	c3 := tables.AtomTypes[0]
	if c3.Element != "C" || deref(t, c3.Mass) != 12.011 || c3.Notes != "carbon sp3" {
		t.Errorf("c3 row parsed wrong: %+v", c3)
	}
	if deref(t, c3.LJA) != 1.0 || deref(t, c3.LJB) != 2.0 {
		t.Errorf("c3 LJ join wrong: A=%v B=%v", c3.LJA, c3.LJB)
	}
	if c3.VdwStyle != upm.VdwStyleLJAB {
		t.Errorf("vdw_style: got %q", c3.VdwStyle)
	}

	if len(tables.Bonds) != 2 {
		t.Fatalf("expected 2 bonds, got %d", len(tables.Bonds))
	}
	// Sorted: (c3,h) before (c3,o). The (o,c3) row was written with
	// swapped label order in the file, so this also checks canonicalization.
	b0, b1 := tables.Bonds[0], tables.Bonds[1]
	if b0.T1 != "c3" || b0.T2 != "h" || deref(t, b0.K) != 250.0 || deref(t, b0.R0) != 1.09 || b0.Source != "" {
		t.Errorf("bond 0 wrong: %+v", b0)
	}
	if b1.T1 != "c3" || b1.T2 != "o" || deref(t, b1.K) != 100.0 || deref(t, b1.R0) != 1.23 || b1.Source != "src:demo" {
		t.Errorf("bond 1 wrong: %+v", b1)
	}

	if len(unknown) != 2 {
		t.Fatalf("expected preamble + 1 unknown section, got %d", len(unknown))
	}
	if unknown[0].Header != PreambleHeader || len(unknown[0].Body) != 2 {
		t.Errorf("preamble not preserved: %+v", unknown[0])
	}
	if unknown[1].Header != "#unsupported_section" {
		t.Errorf("unknown section header: %q", unknown[1].Header)
	}
	wantBody := []string{"line1", "  line2 with leading spaces", ""}
	if !reflect.DeepEqual(unknown[1].Body, wantBody) {
		t.Errorf("unknown body not verbatim: %v", unknown[1].Body)
	}
}

func TestBondOrderHeuristic(t *testing.T) {
	cases := []struct {
		a, b   float64
		k, r0  float64
	}{
		{1.09, 340.0, 340.0, 1.09}, // (r0, k) asset order
		{340.0, 1.09, 340.0, 1.09}, // (k, r0) minimal order
		{2.0, 3.0, 2.0, 3.0},       // ambiguous: keep file order as (k, r0)
		{100.0, 200.0, 100.0, 200.0},
	}
	for _, c := range cases {
		k, r0 := bondOrder(c.a, c.b)
		if k != c.k || r0 != c.r0 {
			t.Errorf("bondOrder(%v, %v) = (%v, %v), want (%v, %v)", c.a, c.b, k, r0, c.k, c.r0)
		}
	}
}

func TestParseAngleHeaderSuffix(t *testing.T) {
	text := strings.Join([]string{
		"#atom_types",
		"  c3  C  12.011",
		"  o   O  15.999",
		"#quadratic_angle\tcvff_auto",
		"  o  c3  o  109.5  44.4",
		"#nonbond(12-6)",
		"  @type A-B",
		"  @combination geometric",
		"  c3  1.0  2.0",
		"  o   3.0  4.0",
	}, "\n") + "\n"

	tables, _, err := Parse(text, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tables.Angles) != 1 {
		t.Fatalf("expected 1 angle, got %d", len(tables.Angles))
	}
	a := tables.Angles[0]
	if a.T1 != "o" || a.T2 != "c3" || a.T3 != "o" {
		t.Errorf("angle labels wrong: %+v", a)
	}
	if deref(t, a.Theta0) != 109.5 || deref(t, a.K) != 44.4 {
		t.Errorf("angle numbers wrong: theta0=%v k=%v", a.Theta0, a.K)
	}
	if a.Source != "cvff_auto" {
		t.Errorf("header suffix should become row source, got %q", a.Source)
	}
}

func TestParseMissingAtomTypes(t *testing.T) {
	_, _, err := Parse("#quadratic_bond\n  a b 100.0 1.5\n", nil)
	if err == nil || !strings.Contains(err.Error(), "#atom_types") {
		t.Fatalf("expected missing #atom_types error, got %v", err)
	}
}

func TestParseMissingDirective(t *testing.T) {
	text := strings.Join([]string{
		"#atom_types",
		"  c3  C  12.011",
		"#nonbond(12-6)",
		"  @type A-B",
		"  c3  1.0  2.0",
	}, "\n") + "\n"
	_, _, err := Parse(text, nil)
	var derr *DirectiveError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DirectiveError, got %v", err)
	}
	if derr.Directive != "@combination geometric" {
		t.Errorf("wrong directive reported: %q", derr.Directive)
	}
}

func TestParseStrictMissingNonbond(t *testing.T) {
	text := strings.Join([]string{
		"#atom_types",
		"  c3  C  12.011",
		"  h   H  1.008",
		"#nonbond(12-6)",
		"  @type A-B",
		"  @combination geometric",
		"  c3  1.0  2.0",
	}, "\n") + "\n"

	_, _, err := Parse(text, nil)
	var merr *MissingNonbondError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MissingNonbondError, got %v", err)
	}
	if !reflect.DeepEqual(merr.AtomTypes, []string{"h"}) {
		t.Errorf("missing types: got %v", merr.AtomTypes)
	}

	// Tolerant mode leaves the LJ cells null instead. Validation must be
	// off too, since null LJ cells are a validation failure.
	tables, _, err := Parse(text, &Options{Tolerant: true})
	if err != nil {
		t.Fatalf("tolerant Parse failed: %v", err)
	}
	for _, at := range tables.AtomTypes {
		if at.Type == "h" && (at.LJA != nil || at.LJB != nil) {
			t.Errorf("tolerant parse should leave h LJ cells null: %+v", at)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tables1, unknown1, err := Parse(fixtureText(), nil)
	if err != nil {
		t.Fatalf("first Parse failed: %v", err)
	}
	text, err := Text(tables1, unknown1, true)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	tables2, unknown2, err := Parse(text, nil)
	if err != nil {
		t.Fatalf("re-Parse failed: %v", err)
	}
	if !reflect.DeepEqual(tables1, tables2) {
		t.Errorf("tables changed across round trip:\nfirst:  %+v\nsecond: %+v", tables1, tables2)
	}
	if !reflect.DeepEqual(unknown1, unknown2) {
		t.Errorf("raw sections changed across round trip:\nfirst:  %+v\nsecond: %+v", unknown1, unknown2)
	}
}

func TestWriteDeterministic(t *testing.T) {
	tables, unknown, err := Parse(fixtureText(), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a, err := Text(tables, unknown, true)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	b, err := Text(tables, unknown, true)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if a != b {
		t.Error("writer output is not byte-identical across calls")
	}
	if !strings.HasSuffix(a, "\n") || strings.HasSuffix(a, "\n\n\n") {
		t.Errorf("output should end in a newline, got %q", a[len(a)-3:])
	}
}

func TestWriteFloatFormat(t *testing.T) {
	// The writer is locked to 8 significant digits; anything beyond that
	// is rounded on output, so round-trip fixtures must stay within it.
	cases := []struct {
		in   float64
		want string
	}{
		{528.48, "528.48"},
		{1790340.7, "1790340.7"},
		{1790340.72, "1.7903407e+06"},
		{1.09, "1.09"},
		{0.0, "0"},
	}
	for _, c := range cases {
		if got := fmtFloat(c.in); got != c.want {
			t.Errorf("fmtFloat(%v): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWriteMinimalPreamble(t *testing.T) {
	tables, _, err := Parse(fixtureText(), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	text, err := Text(tables, nil, false)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.HasPrefix(text, "!BIOSYM forcefield") {
		t.Errorf("expected BIOSYM header, got %q", strings.SplitN(text, "\n", 2)[0])
	}
	if !strings.Contains(text, "#define cvff") {
		t.Error("minimal preamble should carry #define cvff")
	}
	if strings.Contains(text, "#unsupported_section") {
		t.Error("raw sections must be omitted when includeRaw is false")
	}
}

func TestReadWriteCompressed(t *testing.T) {
	tables1, unknown1, err := Parse(fixtureText(), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	dir := t.TempDir()
	for _, name := range []string{"out.frc", "out.frc.gz", "out.frc.zst"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, tables1, unknown1, true); err != nil {
			t.Fatalf("WriteFile(%s) failed: %v", name, err)
		}
		tables2, _, err := ReadFile(path, nil)
		if err != nil {
			t.Fatalf("ReadFile(%s) failed: %v", name, err)
		}
		if !reflect.DeepEqual(tables1, tables2) {
			t.Errorf("%s: tables changed across file round trip", name)
		}
	}
}
