/*
 * parse.go, part of upm.
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

package frc

import (
	"fmt"
	"strconv"
	"strings"

	upm "github.com/molsaic/upm"
)

// Section is one raw section this package does not interpret: the exact
// header line (leading '#', no newline) and the body lines exactly as in the
// file. Text before the first real header is kept under the synthetic header
// "#preamble". Duplicate headers are listed independently, in encounter
// order, never merged.
type Section struct {
	Header string
	Body   []string
}

// PreambleHeader is the synthetic header of the raw section holding any text
// found before the first '#' header line.
const PreambleHeader = "#preamble"

// Options controls parsing. The zero value means no validation and strict
// nonbond joining; use DefaultOptions for the common case.
type Options struct {
	//Validate runs upm.ValidateTables on the parsed tables.
	Validate bool
	//Tolerant leaves the LJ cells of atom types with no #nonbond(12-6) row
	//null instead of failing. Used when re-reading partially built output.
	Tolerant bool
}

// DefaultOptions returns the options used for authoritative input files:
// validation on, strict nonbond joining.
func DefaultOptions() *Options {
	return &Options{Validate: true}
}

func isHeaderLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "#")
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// splitSections splits the text into a synthetic preamble plus a sequence of
// (header, body) blocks, one per line matching the section-header pattern.
func splitSections(text string) (sections []Section, unknown []Section) {
	lines := splitLines(text)

	i := 0
	var preamble []string
	for i < len(lines) && !isHeaderLine(lines[i]) {
		preamble = append(preamble, lines[i])
		i++
	}
	if len(preamble) > 0 {
		unknown = append(unknown, Section{Header: PreambleHeader, Body: preamble})
	}

	var cur *Section
	for _, line := range lines[i:] {
		if isHeaderLine(line) {
			if cur != nil {
				sections = append(sections, *cur)
			}
			cur = &Section{Header: line}
		} else if cur != nil {
			cur.Body = append(cur.Body, line)
		}
	}
	if cur != nil {
		sections = append(sections, *cur)
	}
	return sections, unknown
}

func stripInlineComment(s string) string {
	if i := strings.Index(s, ";"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, " \t")
}

// ignorable reports lines that carry no data: blanks, comment leaders and
// the '>' prose lines common in CVFF assets.
func ignorable(line string) bool {
	s := strings.TrimSpace(line)
	return s == "" || strings.HasPrefix(s, "!") || strings.HasPrefix(s, ";") ||
		strings.HasPrefix(s, "#") || strings.HasPrefix(s, ">")
}

func isFloatTok(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isIntTok(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// lastFloatPair returns the index i of the last *adjacent* pair of tokens
// (i, i+1) that both parse as numbers, or -1. Rows carry a variable number
// of leading metadata columns, so fields are located from this pair, not by
// position.
func lastFloatPair(toks []string) int {
	for i := len(toks) - 2; i >= 0; i-- {
		if isFloatTok(toks[i]) && isFloatTok(toks[i+1]) {
			return i
		}
	}
	return -1
}

// bondOrder maps the trailing numeric pair of a bond row onto (k, r0).
// Typical magnitudes are r0 ~ 0.9-3.5 and k ~ O(100), so a value <= 10 next
// to one > 10 disambiguates the column order. A fully ambiguous pair (both
// sides of the threshold) keeps the legacy minimal ordering (k, r0) for
// backward compatibility. This is a legacy-format concession, not physics;
// keep it in one place.
func bondOrder(a, b float64) (k, r0 float64) {
	switch {
	case a <= 10.0 && b > 10.0:
		return b, a
	case a > 10.0 && b <= 10.0:
		return a, b
	default:
		return a, b
	}
}

// parseAtomTypes parses #atom_types rows. Two layouts are accepted:
//
//	minimal:     atom_type element mass [notes...]
//	asset-style: ver ref atom_type mass element [connections] [notes...]
//
// The integer connections column of asset-style rows is dropped rather than
// folded into notes, so written files re-read to the same table.
func parseAtomTypes(lines []string) []upm.AtomType {
	var rows []upm.AtomType
	for _, raw := range lines {
		if ignorable(raw) {
			continue
		}
		line := stripInlineComment(raw)
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}

		if len(toks) >= 5 && isFloatTok(toks[0]) && isFloatTok(toks[1]) && isFloatTok(toks[3]) {
			mass, _ := strconv.ParseFloat(toks[3], 64)
			notesFrom := 5
			if len(toks) > 5 && isIntTok(toks[5]) {
				notesFrom = 6 //skip the connections column
			}
			rows = append(rows, upm.AtomType{
				Type:     toks[2],
				Element:  toks[4],
				Mass:     upm.Float(mass),
				VdwStyle: upm.VdwStyleLJAB,
				Notes:    strings.Join(toks[notesFrom:], " "),
			})
			continue
		}

		at := upm.AtomType{Type: toks[0], VdwStyle: upm.VdwStyleLJAB}
		if len(toks) >= 2 {
			at.Element = toks[1]
		}
		if len(toks) >= 3 {
			if m, err := strconv.ParseFloat(toks[2], 64); err == nil {
				at.Mass = upm.Float(m)
			}
		}
		if len(toks) >= 4 {
			at.Notes = strings.Join(toks[3:], " ")
		}
		rows = append(rows, at)
	}
	return rows
}

// parseQuadraticBond parses #quadratic_bond rows (minimal `t1 t2 k r0` or
// asset-style `ver ref t1 t2 r0 k`). sourceDefault is the header suffix;
// when present it applies to every row, otherwise any tokens trailing the
// numeric pair become the row's provenance.
func parseQuadraticBond(lines []string, sourceDefault string) ([]upm.Bond, error) {
	var rows []upm.Bond
	for _, raw := range lines {
		if ignorable(raw) {
			continue
		}
		line := stripInlineComment(raw)
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		if len(toks) < 4 {
			return nil, fmt.Errorf("#quadratic_bond: expected at least 4 columns (t1 t2 k r0) or asset-style (ver ref t1 t2 r0 k), got: %q", raw)
		}
		i := lastFloatPair(toks)
		if i < 0 {
			return nil, fmt.Errorf("#quadratic_bond: could not find trailing numeric pair in row: %q", raw)
		}
		if i < 2 {
			return nil, fmt.Errorf("#quadratic_bond: not enough tokens before numeric pair to extract (t1,t2): %q", raw)
		}
		a, _ := strconv.ParseFloat(toks[i], 64)
		b, _ := strconv.ParseFloat(toks[i+1], 64)
		k, r0 := bondOrder(a, b)

		source := sourceDefault
		if source == "" {
			source = strings.Join(toks[i+2:], " ")
		}
		rows = append(rows, upm.Bond{
			T1:     toks[i-2],
			T2:     toks[i-1],
			Style:  upm.StyleQuadratic,
			K:      upm.Float(k),
			R0:     upm.Float(r0),
			Source: source,
		})
	}
	return rows, nil
}

// parseQuadraticAngle parses #quadratic_angle rows. The trailing numeric
// pair is always (theta0_deg, k); the three tokens before it are (t1,t2,t3).
func parseQuadraticAngle(lines []string, sourceDefault string) ([]upm.Angle, error) {
	var rows []upm.Angle
	for _, raw := range lines {
		if ignorable(raw) {
			continue
		}
		line := stripInlineComment(raw)
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		if len(toks) < 5 {
			return nil, fmt.Errorf("#quadratic_angle: expected at least 5 columns (t1 t2 t3 theta0 k), got: %q", raw)
		}
		i := lastFloatPair(toks)
		if i < 0 {
			return nil, fmt.Errorf("#quadratic_angle: could not find trailing numeric theta0/k in row: %q", raw)
		}
		if i < 3 {
			return nil, fmt.Errorf("#quadratic_angle: not enough tokens before theta0 to extract (t1,t2,t3): %q", raw)
		}
		theta0, _ := strconv.ParseFloat(toks[i], 64)
		k, _ := strconv.ParseFloat(toks[i+1], 64)

		source := sourceDefault
		if source == "" {
			source = strings.Join(toks[i+2:], " ")
		}
		rows = append(rows, upm.Angle{
			T1:     toks[i-3],
			T2:     toks[i-2],
			T3:     toks[i-1],
			Style:  upm.StyleQuadratic,
			K:      upm.Float(k),
			Theta0: upm.Float(theta0),
			Source: source,
		})
	}
	return rows, nil
}

// parseNonbond parses #nonbond(12-6). The section must declare both
// `@type A-B` and `@combination geometric`; any other directive, or a
// missing one, fails the parse.
func parseNonbond(lines []string) (map[string][2]float64, error) {
	sawType := false
	sawComb := false
	out := make(map[string][2]float64)

	for _, raw := range lines {
		if ignorable(raw) {
			continue
		}
		s := stripInlineComment(raw)
		if strings.TrimSpace(s) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(s), "@") {
			f := strings.Fields(strings.ToLower(s))
			switch {
			case f[0] == "@type" && len(f) > 1 && f[1] == "a-b":
				sawType = true
			case f[0] == "@combination" && len(f) > 1 && f[1] == "geometric":
				sawComb = true
			default:
				return nil, fmt.Errorf("#nonbond(12-6): unsupported directive line: %q", raw)
			}
			continue
		}

		toks := strings.Fields(s)
		if len(toks) < 3 {
			return nil, fmt.Errorf("#nonbond(12-6): expected at least 3 columns (atom_type lj_a lj_b), got: %q", raw)
		}
		i := lastFloatPair(toks)
		if i < 0 {
			return nil, fmt.Errorf("#nonbond(12-6): could not find trailing numeric (A,B) pair in row: %q", raw)
		}
		if i < 1 {
			return nil, fmt.Errorf("#nonbond(12-6): not enough tokens before (A,B) to extract atom_type: %q", raw)
		}
		a, _ := strconv.ParseFloat(toks[i], 64)
		b, _ := strconv.ParseFloat(toks[i+1], 64)
		out[toks[i-1]] = [2]float64{a, b}
	}

	if !sawType {
		return nil, &DirectiveError{Section: "#nonbond(12-6)", Directive: "@type A-B"}
	}
	if !sawComb {
		return nil, &DirectiveError{Section: "#nonbond(12-6)", Directive: "@combination geometric"}
	}
	return out, nil
}

// parseBondIncrements parses #bond_increments rows
// (`ver ref t1 t2 delta_ij delta_ji`). Rows that don't fit are skipped; the
// table is auxiliary and assets carry all sorts of noise here.
func parseBondIncrements(lines []string) []upm.BondIncrement {
	var rows []upm.BondIncrement
	for _, raw := range lines {
		if ignorable(raw) {
			continue
		}
		toks := strings.Fields(stripInlineComment(raw))
		if len(toks) < 4 {
			continue
		}
		i := lastFloatPair(toks)
		if i < 2 {
			continue
		}
		dij, _ := strconv.ParseFloat(toks[i], 64)
		dji, _ := strconv.ParseFloat(toks[i+1], 64)
		rows = append(rows, upm.BondIncrement{T1: toks[i-2], T2: toks[i-1], DeltaIJ: dij, DeltaJI: dji})
	}
	return rows
}

// Parse converts .frc text into canonical, normalized tables plus the
// ordered list of raw sections it did not recognize. It is pure: no file
// access, no partial results on error. A nil opts means DefaultOptions.
func Parse(text string, opts *Options) (*upm.Tables, []Section, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	sections, unknown := splitSections(text)

	var (
		atomRows  []upm.AtomType
		bondRows  []upm.Bond
		angleRows []upm.Angle
		incrRows  []upm.BondIncrement
		nonbond   = make(map[string][2]float64)
	)

	for _, sec := range sections {
		toks := strings.Fields(sec.Header)
		key := ""
		suffix := ""
		if len(toks) > 0 {
			key = strings.ToLower(toks[0])
			suffix = strings.TrimSpace(strings.Join(toks[1:], " "))
		}

		switch key {
		case "#atom_types":
			atomRows = append(atomRows, parseAtomTypes(sec.Body)...)
		case "#quadratic_bond":
			rows, err := parseQuadraticBond(sec.Body, suffix)
			if err != nil {
				return nil, nil, err
			}
			bondRows = append(bondRows, rows...)
		case "#quadratic_angle":
			rows, err := parseQuadraticAngle(sec.Body, suffix)
			if err != nil {
				return nil, nil, err
			}
			angleRows = append(angleRows, rows...)
		case "#nonbond(12-6)":
			nb, err := parseNonbond(sec.Body)
			if err != nil {
				return nil, nil, err
			}
			//merge: last section wins, deterministically by file order
			for k, v := range nb {
				nonbond[k] = v
			}
		case "#bond_increments":
			incrRows = append(incrRows, parseBondIncrements(sec.Body)...)
		default:
			unknown = append(unknown, sec)
		}
	}

	if len(atomRows) == 0 {
		return nil, nil, fmt.Errorf("frc: missing required #atom_types section (no rows parsed)")
	}

	var noLJ []string
	for i := range atomRows {
		if p, ok := nonbond[atomRows[i].Type]; ok {
			atomRows[i].LJA = upm.Float(p[0])
			atomRows[i].LJB = upm.Float(p[1])
		} else if !opts.Tolerant {
			noLJ = append(noLJ, atomRows[i].Type)
		}
	}
	if len(noLJ) > 0 {
		return nil, nil, newMissingNonbondError(noLJ)
	}

	t := &upm.Tables{AtomTypes: atomRows}
	if bondRows != nil {
		t.Bonds = bondRows
	}
	if angleRows != nil {
		t.Angles = angleRows
	}
	if incrRows != nil {
		t.BondIncrements = incrRows
	}
	tables := upm.NormalizeTables(t)

	if opts.Validate {
		if err := upm.ValidateTables(tables); err != nil {
			return nil, nil, err
		}
	}
	return tables, unknown, nil
}
