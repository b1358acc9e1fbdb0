package upm

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestCanonicalKeys(t *testing.T) {
	b1, err := CanonicalBondKey("o", "c3")
	if err != nil {
		t.Fatal(err)
	}
	b2, err := CanonicalBondKey("c3", "o")
	if err != nil {
		t.Fatal(err)
	}
	if b1 != b2 || b1 != (BondKey{"c3", "o"}) {
		t.Errorf("bond canonicalization: %v vs %v", b1, b2)
	}

	a, err := CanonicalAngleKey("o", "c3", "h")
	if err != nil {
		t.Fatal(err)
	}
	if a != (AngleKey{"h", "c3", "o"}) {
		t.Errorf("angle endpoints must reorder around the center: %v", a)
	}

	d1, _ := CanonicalDihedralKey("h", "c3", "o", "c3")
	d2, _ := CanonicalDihedralKey("c3", "o", "c3", "h")
	if d1 != d2 {
		t.Errorf("dihedral reversal symmetry broken: %v vs %v", d1, d2)
	}
	if d1 != (DihedralKey{"c3", "o", "c3", "h"}) {
		t.Errorf("dihedral not the lexicographic minimum: %v", d1)
	}

	im, _ := CanonicalImproperKey("c2", "o", "h", "c3")
	if im != (ImproperKey{"c2", "c3", "h", "o"}) {
		t.Errorf("improper peripherals must sort: %v", im)
	}

	if _, err := CanonicalBondKey("  ", "c3"); err == nil {
		t.Error("whitespace-only label accepted")
	}
}

func TestNewRequirementsDedupAndSort(t *testing.T) {
	req, err := NewRequirements(
		[]string{" h ", "c3", "h"},
		[][]string{{"o", "c3"}, {"c3", "o"}, {"c3", "h"}},
		[][]string{{"o", "c3", "h"}, {"h", "c3", "o"}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := req.AtomTypes(); !reflect.DeepEqual(got, []string{"c3", "h"}) {
		t.Errorf("atom types: %v", got)
	}
	if got := req.BondTypes(); !reflect.DeepEqual(got, []BondKey{{"c3", "h"}, {"c3", "o"}}) {
		t.Errorf("bond types: %v", got)
	}
	if got := req.AngleTypes(); len(got) != 1 {
		t.Errorf("equivalent angles must collapse: %v", got)
	}
	if got := req.DihedralTypes(); len(got) != 0 {
		t.Errorf("nil dihedrals must come out empty, got %v", got)
	}

	if _, err := NewRequirements(nil, [][]string{{"a"}}, nil, nil); err == nil {
		t.Error("bad bond arity accepted")
	}
}

func TestRequirementsAccessorsCopy(t *testing.T) {
	req, err := NewRequirements([]string{"c3", "h"}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := req.AtomTypes()
	got[0] = "mutated"
	if req.AtomTypes()[0] != "c3" {
		t.Error("accessor returned internal storage")
	}
}

func TestNormalizeBondsIdempotent(t *testing.T) {
	rows := []Bond{
		{T1: " o", T2: "c3 ", Style: StyleQuadratic, K: Float(100), R0: Float(1.2)},
		{T1: "c3", T2: "h", Style: StyleQuadratic, K: Float(250), R0: Float(1.09)},
	}
	once := NormalizeBonds(rows)
	twice := NormalizeBonds(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("normalization is not idempotent")
	}
	if once[0].T1 != "c3" || once[0].T2 != "h" {
		t.Errorf("sort order wrong: %+v", once[0])
	}
	if once[1].T1 != "c3" || once[1].T2 != "o" {
		t.Errorf("pair not reordered: %+v", once[1])
	}
	// The input must be untouched.
	if rows[0].T1 != " o" {
		t.Error("normalization mutated its input")
	}
}

func TestNormalizeAtomTypesIdempotent(t *testing.T) {
	rows := []AtomType{
		{Type: " o ", Element: "O", Mass: Float(15.999), VdwStyle: VdwStyleLJAB, LJA: Float(5), LJB: Float(6)},
		{Type: "c3", Element: " C", Mass: Float(12.011), VdwStyle: VdwStyleLJAB, LJA: Float(1), LJB: Float(2), Notes: "sp3 "},
	}
	once := NormalizeAtomTypes(rows)
	twice := NormalizeAtomTypes(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("normalization is not idempotent")
	}
	if once[0].Type != "c3" || once[0].Element != "C" || once[0].Notes != "sp3" {
		t.Errorf("trim/sort wrong: %+v", once[0])
	}
}

func TestNormalizeAnglesIdempotent(t *testing.T) {
	rows := []Angle{
		{T1: "o", T2: "c3", T3: "h ", Style: StyleQuadratic, K: Float(50), Theta0: Float(120)},
		{T1: "h", T2: "c3", T3: "h", Style: StyleQuadratic, K: Float(44.4), Theta0: Float(109.5)},
	}
	once := NormalizeAngles(rows)
	twice := NormalizeAngles(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("normalization is not idempotent")
	}
	// Endpoints reorder around the fixed center, then rows sort.
	if once[0].T1 != "h" || once[0].T2 != "c3" || once[0].T3 != "h" {
		t.Errorf("sort order wrong: %+v", once[0])
	}
	if once[1].T1 != "h" || once[1].T3 != "o" {
		t.Errorf("endpoints not reordered: %+v", once[1])
	}
}

func TestValidateAggregates(t *testing.T) {
	tables := &Tables{
		AtomTypes: []AtomType{
			{Type: "c3", VdwStyle: "weird", LJA: Float(1), LJB: Float(2)},
			{Type: "c3", VdwStyle: VdwStyleLJAB, LJA: nil, LJB: Float(2)},
		},
		Bonds: []Bond{
			{T1: "o", T2: "c3", Style: StyleQuadratic, K: Float(1), R0: Float(1)},
		},
	}
	err := ValidateTables(tables)
	if err == nil {
		t.Fatal("expected violations")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	msg := err.Error()
	for _, want := range []string{"duplicate key", "vdw_style", "lj_a", "t1 <= t2"} {
		if !strings.Contains(msg, want) {
			t.Errorf("aggregate misses %q in: %s", want, msg)
		}
	}
	// Violations arrive sorted by (table, message): atom_types before bonds.
	if len(verr.Violations) < 2 {
		t.Fatalf("expected several violations, got %d", len(verr.Violations))
	}
	for i := 1; i < len(verr.Violations); i++ {
		a, b := verr.Violations[i-1], verr.Violations[i]
		if a.Table > b.Table || (a.Table == b.Table && a.Message > b.Message) {
			t.Errorf("violations out of order: %v before %v", a, b)
		}
	}
}

func validTables() *Tables {
	return &Tables{
		AtomTypes: []AtomType{
			{Type: "c3", Element: "C", Mass: Float(12.011), VdwStyle: VdwStyleLJAB, LJA: Float(1), LJB: Float(2)},
			{Type: "h", Element: "H", Mass: Float(1.008), VdwStyle: VdwStyleLJAB, LJA: Float(3), LJB: Float(4)},
			{Type: "o", Element: "O", Mass: Float(15.999), VdwStyle: VdwStyleLJAB, LJA: Float(5), LJB: Float(6)},
		},
		Bonds: []Bond{
			{T1: "c3", T2: "h", Style: StyleQuadratic, K: Float(250), R0: Float(1.09)},
			{T1: "c3", T2: "o", Style: StyleQuadratic, K: Float(100), R0: Float(1.23)},
		},
	}
}

func TestResolveMinimal(t *testing.T) {
	req, err := NewRequirements([]string{"c3", "h"}, [][]string{{"h", "c3"}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := ResolveMinimal(validTables(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tables.AtomTypes) != 2 {
		t.Errorf("atom subset: %+v", res.Tables.AtomTypes)
	}
	if len(res.Tables.Bonds) != 1 || res.Tables.Bonds[0].T1 != "c3" || res.Tables.Bonds[0].T2 != "h" {
		t.Errorf("bond subset: %+v", res.Tables.Bonds)
	}
}

func TestResolveMinimalMissing(t *testing.T) {
	req, err := NewRequirements(
		[]string{"c3", "zz", "aa"},
		[][]string{{"c3", "c3"}, {"c3", "h"}},
		nil, nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ResolveMinimal(validTables(), req)
	var merr *MissingTermsError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MissingTermsError, got %v", err)
	}
	if !reflect.DeepEqual(merr.MissingAtomTypes, []string{"aa", "zz"}) {
		t.Errorf("missing atoms not sorted: %v", merr.MissingAtomTypes)
	}
	if !reflect.DeepEqual(merr.MissingBondTypes, []BondKey{{"c3", "c3"}}) {
		t.Errorf("missing bonds: %v", merr.MissingBondTypes)
	}
}

func TestResolveMinimalBondsTableAbsent(t *testing.T) {
	tables := validTables()
	tables.Bonds = nil
	req, err := NewRequirements([]string{"c3"}, [][]string{{"c3", "h"}, {"c3", "o"}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ResolveMinimal(tables, req)
	var merr *MissingTermsError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MissingTermsError, got %v", err)
	}
	if len(merr.MissingBondTypes) != 2 {
		t.Errorf("absent bonds table must miss every required bond: %v", merr.MissingBondTypes)
	}
}

func TestRowBoundary(t *testing.T) {
	rows := []map[string]interface{}{{
		"t1": "c3", "t2": "h", "style": StyleQuadratic,
		"k": "250.0", "r0": 1.09, "source": nil,
	}}
	bonds, err := BondsFromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	if *bonds[0].K != 250.0 || *bonds[0].R0 != 1.09 || bonds[0].Source != "" {
		t.Errorf("coercion wrong: %+v", bonds[0])
	}

	delete(rows[0], "source")
	if _, err := BondsFromRows(rows); err == nil || !strings.Contains(err.Error(), "missing required columns") {
		t.Errorf("missing column not reported: %v", err)
	}
	rows[0]["source"] = ""
	rows[0]["bogus"] = 1
	if _, err := BondsFromRows(rows); err == nil || !strings.Contains(err.Error(), "extra columns") {
		t.Errorf("extra column not reported: %v", err)
	}
}
