/*
 * mdf.go, part of upm.
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

package build

import (
	"fmt"
	"os"
	"strings"
)

// The MDF atom record carries 12 fixed columns before the connection list:
// name element type charge_group isotope formal_charge charge
// switching_atom oop_flag chirality_flag occupancy xray_temp_factor.
const mdfFixedColumns = 12

type mdfAtom struct {
	name        string
	atomType    string
	connections []string
}

// mdfAtomName strips the molecule prefix from a full atom reference
// ("MOL_1:C1" -> "C1") and any bond-order/symmetry decoration from a
// connection token ("N1%" -> "N1", "O1/1.5" -> "O1").
func mdfAtomName(tok string) string {
	if i := strings.IndexAny(tok, "%/#"); i >= 0 {
		tok = tok[:i]
	}
	if i := strings.LastIndex(tok, ":"); i >= 0 {
		tok = tok[i+1:]
	}
	return tok
}

func parseMDFAtoms(text string) ([]mdfAtom, error) {
	var atoms []mdfAtom
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "!") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "@") {
			continue
		}
		toks := strings.Fields(s)
		// Atom records are the only rows whose first column is a
		// molecule:atom reference.
		if !strings.Contains(toks[0], ":") || len(toks) < 3 {
			continue
		}
		a := mdfAtom{name: mdfAtomName(toks[0]), atomType: toks[2]}
		if len(toks) > mdfFixedColumns {
			for _, c := range toks[mdfFixedColumns:] {
				if name := mdfAtomName(c); name != "" {
					a.connections = append(a.connections, name)
				}
			}
		}
		atoms = append(atoms, a)
	}
	if len(atoms) == 0 {
		return nil, fmt.Errorf("mdf: no atom records found")
	}
	return atoms, nil
}

// FromMDF reads a molecular data file and derives the bonded-term keys of
// its topology via FromBonds. Connections referencing unknown atom names
// are a hard error rather than silently dropped.
func FromMDF(fname string) (*BondedTypes, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	atoms, err := parseMDFAtoms(string(buf))
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(atoms))
	atomTypes := make([]string, len(atoms))
	for i, a := range atoms {
		if _, dup := index[a.name]; dup {
			return nil, fmt.Errorf("mdf: duplicate atom name %q", a.name)
		}
		index[a.name] = i
		atomTypes[i] = a.atomType
	}

	var bonds [][2]int
	for i, a := range atoms {
		for _, c := range a.connections {
			j, ok := index[c]
			if !ok {
				return nil, fmt.Errorf("mdf: atom %q connects to unknown atom %q", a.name, c)
			}
			bonds = append(bonds, [2]int{i, j})
		}
	}
	return FromBonds(atomTypes, bonds)
}

// MDFAtomTypes returns the per-atom type labels of an MDF file, in record
// order. Useful together with FromMDF to assemble a TermSet.
func MDFAtomTypes(fname string) ([]string, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	atoms, err := parseMDFAtoms(string(buf))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.atomType
	}
	return out, nil
}
