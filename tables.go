/*
 * tables.go, part of upm.
 *
 * Copyright 2024 The UPM developers
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package upm

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// The only vdW and bonded functional forms supported. Anything else in these
// columns is a validation error.
const (
	VdwStyleLJAB   = "lj_ab_12_6"
	StyleQuadratic = "quadratic"
)

// AtomType is one row of the atom_types table. Nonbonded A/B parameters are
// merged in from the nonbond section at parse time; they are nil when the
// source file did not provide them (tolerant parses only).
type AtomType struct {
	Type     string
	Element  string
	Mass     *float64
	VdwStyle string
	LJA      *float64
	LJB      *float64
	Notes    string
}

// Bond is one row of the bonds table. K and R0 are the quadratic force
// constant and equilibrium length.
type Bond struct {
	T1, T2 string
	Style  string
	K      *float64
	R0     *float64
	Source string
}

// Angle is one row of the angles table. Theta0 is in degrees.
type Angle struct {
	T1, T2, T3 string
	Style      string
	K          *float64
	Theta0     *float64
	Source     string
}

// PairOverride is one row of the (schema-only) pair_overrides table.
type PairOverride struct {
	T1, T2 string
	LJA    *float64
	LJB    *float64
}

// BondIncrement is one row of the auxiliary bond_increments table.
type BondIncrement struct {
	T1, T2  string
	DeltaIJ float64
	DeltaJI float64
}

// Tables groups the canonical tables. A nil slice means the table is absent,
// which is different from present-but-empty. No function in this package
// mutates a Tables value in place; normalization returns fresh slices.
type Tables struct {
	AtomTypes      []AtomType
	Bonds          []Bond
	Angles         []Angle
	PairOverrides  []PairOverride
	BondIncrements []BondIncrement
}

// Float is a convenience for building nullable numeric cells.
func Float(x float64) *float64 {
	return &x
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	x := *p
	return &x
}

// TableColumns returns the exact required column set for a canonical table,
// in canonical order. It panics on unknown table names, which indicate a
// programming error rather than bad input.
func TableColumns(table string) []string {
	switch table {
	case "atom_types":
		return []string{"atom_type", "element", "mass_amu", "vdw_style", "lj_a", "lj_b", "notes"}
	case "bonds":
		return []string{"t1", "t2", "style", "k", "r0", "source"}
	case "angles":
		return []string{"t1", "t2", "t3", "style", "k", "theta0_deg", "source"}
	case "pair_overrides":
		return []string{"t1", "t2", "lj_a", "lj_b"}
	default:
		panic("upm: unknown table " + table)
	}
}

// checkColumns enforces the exact column set of a table over a raw row,
// listing every missing and extra column in the error.
func checkColumns(table string, row map[string]interface{}) error {
	required := TableColumns(table)
	var missing []string
	for _, c := range required {
		if _, ok := row[c]; !ok {
			missing = append(missing, c)
		}
	}
	allowed := make(map[string]bool, len(required))
	for _, c := range required {
		allowed[c] = true
	}
	var extra []string
	for c := range row {
		if !allowed[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required columns: %v", table, missing)
	}
	if len(extra) > 0 {
		return fmt.Errorf("%s: unexpected extra columns: %v", table, extra)
	}
	return nil
}

// cellString coerces a raw cell into a trimmed string. nil becomes "".
func cellString(v interface{}, where string) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", where, v)
	}
	return strings.TrimSpace(s), nil
}

// cellFloat coerces a raw cell into a nullable finite float. Numeric strings
// are accepted since bundle table files may carry them.
func cellFloat(v interface{}, where string) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int64:
		x = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		var err error
		x, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: expected number, got %q", where, t)
		}
	default:
		return nil, fmt.Errorf("%s: expected number, got %T", where, v)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, fmt.Errorf("%s: must be finite", where)
	}
	return &x, nil
}

// AtomTypesFromRows converts raw row maps (the bundle/table-file boundary
// form) into typed atom_types rows, enforcing the exact column set and
// coercing cell types.
func AtomTypesFromRows(rows []map[string]interface{}) ([]AtomType, error) {
	out := make([]AtomType, 0, len(rows))
	for i, row := range rows {
		if err := checkColumns("atom_types", row); err != nil {
			return nil, err
		}
		var (
			at  AtomType
			err error
		)
		where := func(col string) string { return fmt.Sprintf("atom_types[%d].%s", i, col) }
		if at.Type, err = cellString(row["atom_type"], where("atom_type")); err != nil {
			return nil, err
		}
		if at.Element, err = cellString(row["element"], where("element")); err != nil {
			return nil, err
		}
		if at.VdwStyle, err = cellString(row["vdw_style"], where("vdw_style")); err != nil {
			return nil, err
		}
		if at.Notes, err = cellString(row["notes"], where("notes")); err != nil {
			return nil, err
		}
		if at.Mass, err = cellFloat(row["mass_amu"], where("mass_amu")); err != nil {
			return nil, err
		}
		if at.LJA, err = cellFloat(row["lj_a"], where("lj_a")); err != nil {
			return nil, err
		}
		if at.LJB, err = cellFloat(row["lj_b"], where("lj_b")); err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, nil
}

// BondsFromRows converts raw row maps into typed bonds rows.
func BondsFromRows(rows []map[string]interface{}) ([]Bond, error) {
	out := make([]Bond, 0, len(rows))
	for i, row := range rows {
		if err := checkColumns("bonds", row); err != nil {
			return nil, err
		}
		var (
			b   Bond
			err error
		)
		where := func(col string) string { return fmt.Sprintf("bonds[%d].%s", i, col) }
		if b.T1, err = cellString(row["t1"], where("t1")); err != nil {
			return nil, err
		}
		if b.T2, err = cellString(row["t2"], where("t2")); err != nil {
			return nil, err
		}
		if b.Style, err = cellString(row["style"], where("style")); err != nil {
			return nil, err
		}
		if b.Source, err = cellString(row["source"], where("source")); err != nil {
			return nil, err
		}
		if b.K, err = cellFloat(row["k"], where("k")); err != nil {
			return nil, err
		}
		if b.R0, err = cellFloat(row["r0"], where("r0")); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// AnglesFromRows converts raw row maps into typed angles rows.
func AnglesFromRows(rows []map[string]interface{}) ([]Angle, error) {
	out := make([]Angle, 0, len(rows))
	for i, row := range rows {
		if err := checkColumns("angles", row); err != nil {
			return nil, err
		}
		var (
			a   Angle
			err error
		)
		where := func(col string) string { return fmt.Sprintf("angles[%d].%s", i, col) }
		if a.T1, err = cellString(row["t1"], where("t1")); err != nil {
			return nil, err
		}
		if a.T2, err = cellString(row["t2"], where("t2")); err != nil {
			return nil, err
		}
		if a.T3, err = cellString(row["t3"], where("t3")); err != nil {
			return nil, err
		}
		if a.Style, err = cellString(row["style"], where("style")); err != nil {
			return nil, err
		}
		if a.Source, err = cellString(row["source"], where("source")); err != nil {
			return nil, err
		}
		if a.K, err = cellFloat(row["k"], where("k")); err != nil {
			return nil, err
		}
		if a.Theta0, err = cellFloat(row["theta0_deg"], where("theta0_deg")); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// orderPair reorders two already-trimmed labels so a <= b. Empty labels are
// left where they are; validation rejects them later.
func orderPair(a, b string) (string, string) {
	if a == "" || b == "" {
		return a, b
	}
	if a <= b {
		return a, b
	}
	return b, a
}

// NormalizeAtomTypes returns a canonicalized copy of an atom_types table:
// strings trimmed, rows stably sorted by atom_type (ties keep input order).
// It is idempotent and never fails; semantic checks live in ValidateAtomTypes.
func NormalizeAtomTypes(rows []AtomType) []AtomType {
	out := make([]AtomType, len(rows))
	for i, r := range rows {
		out[i] = AtomType{
			Type:     strings.TrimSpace(r.Type),
			Element:  strings.TrimSpace(r.Element),
			Mass:     cloneFloat(r.Mass),
			VdwStyle: strings.TrimSpace(r.VdwStyle),
			LJA:      cloneFloat(r.LJA),
			LJB:      cloneFloat(r.LJB),
			Notes:    strings.TrimSpace(r.Notes),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// NormalizeBonds returns a canonicalized copy of a bonds table: strings
// trimmed, (t1,t2) reordered so t1 <= t2, rows stably sorted by
// (t1,t2,style).
func NormalizeBonds(rows []Bond) []Bond {
	out := make([]Bond, len(rows))
	for i, r := range rows {
		t1, t2 := orderPair(strings.TrimSpace(r.T1), strings.TrimSpace(r.T2))
		out[i] = Bond{
			T1:     t1,
			T2:     t2,
			Style:  strings.TrimSpace(r.Style),
			K:      cloneFloat(r.K),
			R0:     cloneFloat(r.R0),
			Source: strings.TrimSpace(r.Source),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.T1 != b.T1 {
			return a.T1 < b.T1
		}
		if a.T2 != b.T2 {
			return a.T2 < b.T2
		}
		return a.Style < b.Style
	})
	return out
}

// NormalizeAngles returns a canonicalized copy of an angles table: strings
// trimmed, endpoints reordered so t1 <= t3 (center stays), rows stably
// sorted by (t1,t2,t3,style).
func NormalizeAngles(rows []Angle) []Angle {
	out := make([]Angle, len(rows))
	for i, r := range rows {
		t1 := strings.TrimSpace(r.T1)
		t2 := strings.TrimSpace(r.T2)
		t3 := strings.TrimSpace(r.T3)
		if t1 != "" && t3 != "" && t1 > t3 {
			t1, t3 = t3, t1
		}
		out[i] = Angle{
			T1:     t1,
			T2:     t2,
			T3:     t3,
			Style:  strings.TrimSpace(r.Style),
			K:      cloneFloat(r.K),
			Theta0: cloneFloat(r.Theta0),
			Source: strings.TrimSpace(r.Source),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.T1 != b.T1 {
			return a.T1 < b.T1
		}
		if a.T2 != b.T2 {
			return a.T2 < b.T2
		}
		if a.T3 != b.T3 {
			return a.T3 < b.T3
		}
		return a.Style < b.Style
	})
	return out
}

// NormalizePairOverrides returns a canonicalized copy of a pair_overrides
// table. The table is schema-only; normalization still applies so bundles
// carrying it stay deterministic.
func NormalizePairOverrides(rows []PairOverride) []PairOverride {
	out := make([]PairOverride, len(rows))
	for i, r := range rows {
		t1, t2 := orderPair(strings.TrimSpace(r.T1), strings.TrimSpace(r.T2))
		out[i] = PairOverride{T1: t1, T2: t2, LJA: cloneFloat(r.LJA), LJB: cloneFloat(r.LJB)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.T1 != b.T1 {
			return a.T1 < b.T1
		}
		return a.T2 < b.T2
	})
	return out
}

// NormalizeTables normalizes every recognized table present in t and returns
// a new Tables value. Absent (nil) tables stay absent. bond_increments is an
// auxiliary table and passes through as a copy, sorted by (t1,t2).
func NormalizeTables(t *Tables) *Tables {
	out := new(Tables)
	if t == nil {
		return out
	}
	if t.AtomTypes != nil {
		out.AtomTypes = NormalizeAtomTypes(t.AtomTypes)
	}
	if t.Bonds != nil {
		out.Bonds = NormalizeBonds(t.Bonds)
	}
	if t.Angles != nil {
		out.Angles = NormalizeAngles(t.Angles)
	}
	if t.PairOverrides != nil {
		out.PairOverrides = NormalizePairOverrides(t.PairOverrides)
	}
	if t.BondIncrements != nil {
		out.BondIncrements = append([]BondIncrement(nil), t.BondIncrements...)
		sort.SliceStable(out.BondIncrements, func(i, j int) bool {
			a, b := out.BondIncrements[i], out.BondIncrements[j]
			if a.T1 != b.T1 {
				return a.T1 < b.T1
			}
			return a.T2 < b.T2
		})
	}
	return out
}
