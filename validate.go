/*
 * validate.go, part of upm.
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
	"strings"
)

// Violation is one semantic problem found in one table.
type Violation struct {
	Table   string
	Message string
}

func (v Violation) String() string {
	return v.Table + ": " + v.Message
}

// ValidationError aggregates every violation found in a validation pass.
// The slice is sorted by (table, message) so the message is stable and
// suitable for test assertions.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "table validation failed (no details)"
	}
	var b strings.Builder
	b.WriteString("table validation failed:")
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}

// collector accumulates violations; sortViolations is applied exactly once
// when the aggregate error is built, so ordering is an explicit guarantee
// rather than a side effect of check order.
type collector struct {
	violations []Violation
}

func (c *collector) add(table, format string, args ...interface{}) {
	c.violations = append(c.violations, Violation{Table: table, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	v := append([]Violation(nil), c.violations...)
	sort.SliceStable(v, func(i, j int) bool {
		if v[i].Table != v[j].Table {
			return v[i].Table < v[j].Table
		}
		return v[i].Message < v[j].Message
	})
	return &ValidationError{Violations: v}
}

func checkRequiredString(c *collector, table, col string, vals []string) {
	empty := false
	for _, s := range vals {
		if strings.TrimSpace(s) == "" {
			empty = true
			break
		}
	}
	if empty {
		c.add(table, "%s: contains empty/whitespace-only strings", col)
	}
}

func checkFinite(c *collector, table, col string, vals []*float64) {
	nulls := false
	nonfinite := false
	for _, p := range vals {
		if p == nil {
			nulls = true
			continue
		}
		if math.IsNaN(*p) || math.IsInf(*p, 0) {
			nonfinite = true
		}
	}
	if nulls {
		c.add(table, "%s: contains nulls", col)
	}
	if nonfinite {
		c.add(table, "%s: contains non-finite values", col)
	}
}

// ValidateAtomTypes checks semantic invariants of a normalized atom_types
// table: non-empty keys, unique atom_type, supported vdw_style, and present,
// finite LJ parameters. All violations are reported at once.
func ValidateAtomTypes(rows []AtomType) error {
	c := new(collector)
	const table = "atom_types"

	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Type
	}
	checkRequiredString(c, table, "atom_type", names)

	seen := make(map[string]bool)
	dup := false
	for _, n := range names {
		if n == "" {
			continue
		}
		if seen[n] {
			dup = true
		}
		seen[n] = true
	}
	if dup {
		c.add(table, "duplicate key rows for [atom_type]")
	}

	styles := make([]string, len(rows))
	for i, r := range rows {
		styles[i] = r.VdwStyle
	}
	checkRequiredString(c, table, "vdw_style", styles)
	for _, s := range styles {
		if strings.TrimSpace(s) != "" && strings.TrimSpace(s) != VdwStyleLJAB {
			c.add(table, "vdw_style: only '%s' supported", VdwStyleLJAB)
			break
		}
	}

	lja := make([]*float64, len(rows))
	ljb := make([]*float64, len(rows))
	for i, r := range rows {
		lja[i] = r.LJA
		ljb[i] = r.LJB
	}
	checkFinite(c, table, "lj_a", lja)
	checkFinite(c, table, "lj_b", ljb)

	return c.err()
}

// ValidateBonds checks semantic invariants of a normalized bonds table.
// Canonical order (t1 <= t2) is an invariant here, not something this
// function fixes; run NormalizeBonds first.
func ValidateBonds(rows []Bond) error {
	c := new(collector)
	const table = "bonds"

	t1s := make([]string, len(rows))
	t2s := make([]string, len(rows))
	styles := make([]string, len(rows))
	ks := make([]*float64, len(rows))
	r0s := make([]*float64, len(rows))
	for i, r := range rows {
		t1s[i] = r.T1
		t2s[i] = r.T2
		styles[i] = r.Style
		ks[i] = r.K
		r0s[i] = r.R0
	}
	checkRequiredString(c, table, "t1", t1s)
	checkRequiredString(c, table, "t2", t2s)
	checkRequiredString(c, table, "style", styles)

	for i := range rows {
		if t1s[i] != "" && t2s[i] != "" && t1s[i] > t2s[i] {
			c.add(table, "bond keys must satisfy t1 <= t2 (canonicalize before validate)")
			break
		}
	}
	for _, s := range styles {
		if strings.TrimSpace(s) != "" && strings.TrimSpace(s) != StyleQuadratic {
			c.add(table, "style: only '%s' supported", StyleQuadratic)
			break
		}
	}
	checkFinite(c, table, "k", ks)
	checkFinite(c, table, "r0", r0s)

	seen := make(map[[3]string]bool)
	dup := false
	for i := range rows {
		key := [3]string{t1s[i], t2s[i], styles[i]}
		if seen[key] {
			dup = true
		}
		seen[key] = true
	}
	if dup {
		c.add(table, "duplicate key rows for [t1 t2 style]")
	}

	return c.err()
}

// ValidateAngles checks semantic invariants of a normalized angles table.
func ValidateAngles(rows []Angle) error {
	c := new(collector)
	const table = "angles"

	t1s := make([]string, len(rows))
	t2s := make([]string, len(rows))
	t3s := make([]string, len(rows))
	styles := make([]string, len(rows))
	ks := make([]*float64, len(rows))
	thetas := make([]*float64, len(rows))
	for i, r := range rows {
		t1s[i] = r.T1
		t2s[i] = r.T2
		t3s[i] = r.T3
		styles[i] = r.Style
		ks[i] = r.K
		thetas[i] = r.Theta0
	}
	checkRequiredString(c, table, "t1", t1s)
	checkRequiredString(c, table, "t2", t2s)
	checkRequiredString(c, table, "t3", t3s)
	checkRequiredString(c, table, "style", styles)

	for i := range rows {
		if t1s[i] != "" && t3s[i] != "" && t1s[i] > t3s[i] {
			c.add(table, "angle keys must satisfy t1 <= t3 (canonicalize before validate)")
			break
		}
	}
	for _, s := range styles {
		if strings.TrimSpace(s) != "" && strings.TrimSpace(s) != StyleQuadratic {
			c.add(table, "style: only '%s' supported", StyleQuadratic)
			break
		}
	}
	checkFinite(c, table, "k", ks)
	checkFinite(c, table, "theta0_deg", thetas)

	seen := make(map[[4]string]bool)
	dup := false
	for i := range rows {
		key := [4]string{t1s[i], t2s[i], t3s[i], styles[i]}
		if seen[key] {
			dup = true
		}
		seen[key] = true
	}
	if dup {
		c.add(table, "duplicate key rows for [t1 t2 t3 style]")
	}

	return c.err()
}

// ValidateTables validates a full Tables value: atom_types is required,
// bonds/angles are validated only when present. Violations from every table
// are merged into one sorted aggregate.
func ValidateTables(t *Tables) error {
	c := new(collector)
	if t == nil || t.AtomTypes == nil {
		c.add("tables", "missing required table 'atom_types'")
		return c.err()
	}
	if err := ValidateAtomTypes(t.AtomTypes); err != nil {
		c.violations = append(c.violations, err.(*ValidationError).Violations...)
	}
	if t.Bonds != nil {
		if err := ValidateBonds(t.Bonds); err != nil {
			c.violations = append(c.violations, err.(*ValidationError).Violations...)
		}
	}
	if t.Angles != nil {
		if err := ValidateAngles(t.Angles); err != nil {
			c.violations = append(c.violations, err.(*ValidationError).Violations...)
		}
	}
	return c.err()
}
