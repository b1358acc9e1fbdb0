/*
 * write.go, part of upm.
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
	"strings"

	upm "github.com/molsaic/upm"
)

// defaultLabel is appended to headers of sections that carry no per-row
// provenance. msi2lmp refuses files whose section labels don't match a
// forcefield name it knows, and cvff is the one everybody has.
const defaultLabel = "cvff"

// minimalPreamble is emitted when no raw #preamble section is available.
// msi2lmp requires the '!BIOSYM forcefield 1' line and the #version/#define
// block to accept a file at all.
const minimalPreamble = `!BIOSYM forcefield          1

#version cvff.frc	1.0	01-Jan-00

#define cvff

!Ver  Ref 		Function		Label
!---- ---   ---------------------------------	------
 1.0   1    atom_types				cvff
 1.0   1    quadratic_bond			cvff
 1.0   1    quadratic_angle			cvff
 1.0   1    nonbond(12-6)			cvff`

// fmtFloat is the stable, compact float rendering used everywhere in this
// writer. Changing it changes every exported file byte for byte.
func fmtFloat(x float64) string {
	return fmt.Sprintf("%.8g", x)
}

func fmtFloatPtr(p *float64) string {
	if p == nil {
		return "0.0"
	}
	return fmtFloat(*p)
}

func row(parts ...string) string {
	return "  " + strings.Join(parts, "  ")
}

// uniformSource returns the single source value shared by all of sources,
// or "" when sources are empty, mixed, or all blank. The writer puts a
// uniform source in the section header and per-row tails otherwise, so that
// re-parsing recovers the same source column either way.
func uniformSource(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	first := sources[0]
	for _, s := range sources[1:] {
		if s != first {
			return ""
		}
	}
	return first
}

func atomTypesSection(rows []upm.AtomType) []string {
	lines := []string{"#atom_types\t" + defaultLabel}
	for _, at := range rows {
		element := at.Element
		if element == "" {
			element = "X"
		}
		// ver ref type mass element connections [notes]
		parts := []string{"1.0", "1", at.Type, fmtFloatPtr(at.Mass), element, "1"}
		if at.Notes != "" {
			parts = append(parts, at.Notes)
		}
		lines = append(lines, row(parts...))
	}
	return lines
}

func quadraticBondSection(rows []upm.Bond) []string {
	sources := make([]string, len(rows))
	for i := range rows {
		sources[i] = rows[i].Source
	}
	label := uniformSource(sources)

	header := "#quadratic_bond"
	if label != "" {
		header += "\t" + label
	}
	lines := []string{header}
	for _, b := range rows {
		// ver ref t1 t2 r0 k (r0 before k, as in the CVFF assets)
		parts := []string{"1.0", "1", b.T1, b.T2, fmtFloatPtr(b.R0), fmtFloatPtr(b.K)}
		if label == "" && b.Source != "" {
			parts = append(parts, b.Source)
		}
		lines = append(lines, row(parts...))
	}
	return lines
}

func quadraticAngleSection(rows []upm.Angle) []string {
	sources := make([]string, len(rows))
	for i := range rows {
		sources[i] = rows[i].Source
	}
	label := uniformSource(sources)

	header := "#quadratic_angle"
	if label != "" {
		header += "\t" + label
	}
	lines := []string{header}
	for _, a := range rows {
		parts := []string{"1.0", "1", a.T1, a.T2, a.T3, fmtFloatPtr(a.Theta0), fmtFloatPtr(a.K)}
		if label == "" && a.Source != "" {
			parts = append(parts, a.Source)
		}
		lines = append(lines, row(parts...))
	}
	return lines
}

func bondIncrementsSection(rows []upm.BondIncrement) []string {
	lines := []string{"#bond_increments\t" + defaultLabel}
	for _, b := range rows {
		lines = append(lines, row("1.0", "1", b.T1, b.T2, fmtFloat(b.DeltaIJ), fmtFloat(b.DeltaJI)))
	}
	return lines
}

// nonbondSection emits LJ parameters from the atom_types table. Rows with
// null LJ cells (tolerant parses) are skipped rather than faked.
func nonbondSection(rows []upm.AtomType) []string {
	lines := []string{"#nonbond(12-6)\t" + defaultLabel, "  @type A-B", "  @combination geometric"}
	for _, at := range rows {
		if at.LJA == nil || at.LJB == nil {
			continue
		}
		lines = append(lines, row("1.0", "1", at.Type, fmtFloat(*at.LJA), fmtFloat(*at.LJB)))
	}
	return lines
}

// Text renders tables as .frc text. The whole file is built in memory and
// returned as one string ending in exactly one newline; identical input
// yields byte-identical output.
//
// Supported sections come first in a fixed order. raw sections are omitted
// unless includeRaw is true, in which case the #preamble body (if any) opens
// the file and the remaining raw sections follow the supported ones in
// encounter order. Without a raw preamble a minimal BIOSYM header is emitted
// instead.
func Text(tables *upm.Tables, raw []Section, includeRaw bool) (string, error) {
	if tables == nil {
		return "", fmt.Errorf("frc: nil tables")
	}
	norm := upm.NormalizeTables(tables)

	var lines []string

	hasPreamble := false
	if includeRaw {
		for _, sec := range raw {
			if sec.Header == PreambleHeader {
				if len(sec.Body) > 0 {
					lines = append(lines, sec.Body...)
					hasPreamble = true
				}
				break
			}
		}
	}
	if !hasPreamble {
		lines = append(lines, strings.Split(minimalPreamble, "\n")...)
		lines = append(lines, "")
	}

	if norm.AtomTypes != nil {
		lines = append(lines, atomTypesSection(norm.AtomTypes)...)
	}
	if norm.Bonds != nil {
		lines = append(lines, quadraticBondSection(norm.Bonds)...)
	}
	if norm.Angles != nil {
		lines = append(lines, quadraticAngleSection(norm.Angles)...)
	}
	if norm.BondIncrements != nil {
		lines = append(lines, bondIncrementsSection(norm.BondIncrements)...)
	}
	if norm.AtomTypes != nil {
		lines = append(lines, nonbondSection(norm.AtomTypes)...)
	}

	if includeRaw {
		for _, sec := range raw {
			if sec.Header == PreambleHeader {
				continue
			}
			lines = append(lines, sec.Header)
			lines = append(lines, sec.Body...)
		}
	}

	return strings.Join(lines, "\n") + "\n", nil
}
