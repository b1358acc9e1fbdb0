/*
 * termset.go, part of upm.
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

package upmjson

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	upm "github.com/molsaic/upm"
)

// TermSetSchema is the schema tag a TermSet document must carry.
const TermSetSchema = "molsaic.termset.v0.1.2"

// TermSet is a validated set of required term keys produced by an external
// structure-derivation step. Improper keys arrive on the wire as
// (p1, center, p2, p3) with sorted peripherals; ReadTermSet converts them to
// the center-first upm.ImproperKey form, so inside this codebase there is
// only one improper convention.
type TermSet struct {
	AtomTypes     []string
	BondTypes     []upm.BondKey
	AngleTypes    []upm.AngleKey
	DihedralTypes []upm.DihedralKey
	ImproperTypes []upm.ImproperKey
}

type termSetDoc struct {
	Schema        *string     `json:"schema"`
	AtomTypes     *[]string   `json:"atom_types"`
	BondTypes     *[][]string `json:"bond_types"`
	AngleTypes    *[][]string `json:"angle_types"`
	DihedralTypes *[][]string `json:"dihedral_types"`
	ImproperTypes *[][]string `json:"improper_types"`
}

func normStr(v, where string) (string, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return "", fmt.Errorf("%s: must be a non-empty string", where)
	}
	return s, nil
}

// checkSortedUniqueStrs validates an already-canonical string list without
// re-sorting it: the document owns its ordering, this reader only refuses
// documents that break the contract.
func checkSortedUniqueStrs(values []string, where string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		s, err := normStr(v, fmt.Sprintf("%s[%d]", where, i))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	for i := 1; i < len(out); i++ {
		if out[i-1] > out[i] {
			return nil, fmt.Errorf("%s: must be sorted", where)
		}
		if out[i-1] == out[i] {
			return nil, fmt.Errorf("%s: must contain unique entries", where)
		}
	}
	return out, nil
}

func checkSortedUniqueKeys(values [][]string, where string, n int) ([][]string, error) {
	out := make([][]string, len(values))
	for i, item := range values {
		if len(item) != n {
			return nil, fmt.Errorf("%s[%d]: expected %d items, got %d", where, i, n, len(item))
		}
		key := make([]string, n)
		for j, v := range item {
			s, err := normStr(v, fmt.Sprintf("%s[%d][%d]", where, i, j))
			if err != nil {
				return nil, err
			}
			key[j] = s
		}
		out[i] = key
	}
	for i := 1; i < len(out); i++ {
		switch keyCompare(out[i-1], out[i]) {
		case 1:
			return nil, fmt.Errorf("%s: must be sorted lexicographically", where)
		case 0:
			return nil, fmt.Errorf("%s: must contain unique entries", where)
		}
	}
	return out, nil
}

func keyCompare(a, b []string) int {
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// ReadTermSet reads and validates a TermSet JSON document. All five term
// arrays are required; each must be sorted, unique and in canonical key
// form already.
func ReadTermSet(fname string) (*TermSet, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var doc termSetDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("termset.json: %v", err)
	}
	if doc.Schema == nil {
		return nil, fmt.Errorf("termset.json: missing required key 'schema'")
	}
	schema, err := normStr(*doc.Schema, "termset.json.schema")
	if err != nil {
		return nil, err
	}
	if schema != TermSetSchema {
		return nil, fmt.Errorf("termset.json.schema: expected %q, got %q", TermSetSchema, schema)
	}
	required := []struct {
		key     string
		missing bool
	}{
		{"atom_types", doc.AtomTypes == nil},
		{"bond_types", doc.BondTypes == nil},
		{"angle_types", doc.AngleTypes == nil},
		{"dihedral_types", doc.DihedralTypes == nil},
		{"improper_types", doc.ImproperTypes == nil},
	}
	for _, r := range required {
		if r.missing {
			return nil, fmt.Errorf("termset.json: missing required key '%s'", r.key)
		}
	}

	ts := new(TermSet)
	ts.AtomTypes, err = checkSortedUniqueStrs(*doc.AtomTypes, "termset.json.atom_types")
	if err != nil {
		return nil, err
	}

	bonds, err := checkSortedUniqueKeys(*doc.BondTypes, "termset.json.bond_types", 2)
	if err != nil {
		return nil, err
	}
	ts.BondTypes = make([]upm.BondKey, len(bonds))
	for i, k := range bonds {
		if k[0] > k[1] {
			return nil, fmt.Errorf("termset.json.bond_types[%d]: bond key must satisfy t1 <= t2", i)
		}
		ts.BondTypes[i] = upm.BondKey{k[0], k[1]}
	}

	angles, err := checkSortedUniqueKeys(*doc.AngleTypes, "termset.json.angle_types", 3)
	if err != nil {
		return nil, err
	}
	ts.AngleTypes = make([]upm.AngleKey, len(angles))
	for i, k := range angles {
		if k[0] > k[2] {
			return nil, fmt.Errorf("termset.json.angle_types[%d]: angle key must satisfy t1 <= t3", i)
		}
		ts.AngleTypes[i] = upm.AngleKey{k[0], k[1], k[2]}
	}

	dihedrals, err := checkSortedUniqueKeys(*doc.DihedralTypes, "termset.json.dihedral_types", 4)
	if err != nil {
		return nil, err
	}
	ts.DihedralTypes = make([]upm.DihedralKey, len(dihedrals))
	for i, k := range dihedrals {
		fwd := [4]string{k[0], k[1], k[2], k[3]}
		rev := [4]string{k[3], k[2], k[1], k[0]}
		if keyCompare(rev[:], fwd[:]) < 0 {
			return nil, fmt.Errorf("termset.json.dihedral_types[%d]: dihedral key must be lexicographic min of forward vs reverse", i)
		}
		ts.DihedralTypes[i] = upm.DihedralKey(fwd)
	}

	// Wire form: (p1, center, p2, p3), peripherals sorted. Stored form is
	// center first.
	impropers, err := checkSortedUniqueKeys(*doc.ImproperTypes, "termset.json.improper_types", 4)
	if err != nil {
		return nil, err
	}
	ts.ImproperTypes = make([]upm.ImproperKey, len(impropers))
	for i, k := range impropers {
		if !(k[0] <= k[2] && k[2] <= k[3]) {
			return nil, fmt.Errorf("termset.json.improper_types[%d]: improper key peripherals must satisfy t1 <= t3 <= t4", i)
		}
		ts.ImproperTypes[i] = upm.ImproperKey{k[1], k[0], k[2], k[3]}
	}
	return ts, nil
}
