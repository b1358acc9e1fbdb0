/*
 * resolve.go, part of upm.
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
	"sort"
	"strings"
)

// MissingTermsError reports every required atom type and bond key absent from
// the available tables. Both slices are unique and sorted, so the error is
// data a caller can turn into a structured report without re-parsing text.
type MissingTermsError struct {
	MissingAtomTypes []string
	MissingBondTypes []BondKey
}

func (e *MissingTermsError) Error() string {
	var parts []string
	if len(e.MissingAtomTypes) > 0 {
		parts = append(parts, fmt.Sprintf("missing required atom_types: %v", e.MissingAtomTypes))
	}
	if len(e.MissingBondTypes) > 0 {
		keys := make([]string, len(e.MissingBondTypes))
		for i, k := range e.MissingBondTypes {
			keys[i] = k.String()
		}
		parts = append(parts, fmt.Sprintf("missing required bond_types: %v", keys))
	}
	if len(parts) == 0 {
		return "missing required terms"
	}
	return strings.Join(parts, "; ")
}

// Resolved is the output of ResolveMinimal: the requirements it satisfied and
// freshly normalized subset tables restricted to exactly the required rows.
type Resolved struct {
	Requirements *Requirements
	Tables       *Tables
}

// ResolveMinimal selects the minimal subset of tables needed by req.
// atom_types is always consulted; bonds only when req carries bond keys.
// If bond keys are required but the bonds table is absent, every required
// bond is missing. Subset rows are re-canonicalized defensively rather than
// assumed pre-canonical. On any missing term it returns *MissingTermsError
// listing the full sorted set of misses.
func ResolveMinimal(t *Tables, req *Requirements) (*Resolved, error) {
	if t == nil || t.AtomTypes == nil {
		return nil, fmt.Errorf("resolve: missing required table 'atom_types'")
	}
	if req == nil {
		return nil, fmt.Errorf("resolve: nil requirements")
	}

	reqAtoms := make(map[string]bool)
	for _, a := range req.atomTypes {
		reqAtoms[a] = true
	}

	present := make(map[string]bool)
	var atomSubset []AtomType
	for _, row := range t.AtomTypes {
		name := strings.TrimSpace(row.Type)
		if name == "" {
			continue
		}
		present[name] = true
		if reqAtoms[name] {
			r := row
			r.Type = name
			atomSubset = append(atomSubset, r)
		}
	}

	var missingAtoms []string
	for a := range reqAtoms {
		if !present[a] {
			missingAtoms = append(missingAtoms, a)
		}
	}
	sort.Strings(missingAtoms)

	out := &Resolved{Requirements: req, Tables: &Tables{}}
	out.Tables.AtomTypes = NormalizeAtomTypes(atomSubset)
	if atomSubset == nil {
		out.Tables.AtomTypes = []AtomType{}
	}

	var missingBonds []BondKey
	if len(req.bondTypes) > 0 {
		reqBonds := make(map[BondKey]bool)
		for _, k := range req.bondTypes {
			reqBonds[k] = true
		}
		if t.Bonds == nil {
			// Table absent: everything required is missing.
			missingBonds = append(missingBonds, req.bondTypes...)
		} else {
			presentBonds := make(map[BondKey]bool)
			var bondSubset []Bond
			for _, row := range t.Bonds {
				t1 := strings.TrimSpace(row.T1)
				t2 := strings.TrimSpace(row.T2)
				if t1 == "" || t2 == "" {
					// Validation rejects these; stay safe here.
					continue
				}
				a, b := orderPair(t1, t2)
				key := BondKey{a, b}
				presentBonds[key] = true
				if reqBonds[key] {
					r := row
					r.T1, r.T2 = a, b
					bondSubset = append(bondSubset, r)
				}
			}
			for _, k := range req.bondTypes {
				if !presentBonds[k] {
					missingBonds = append(missingBonds, k)
				}
			}
			out.Tables.Bonds = NormalizeBonds(bondSubset)
			if bondSubset == nil {
				out.Tables.Bonds = []Bond{}
			}
		}
		sort.Slice(missingBonds, func(i, j int) bool { return bondLess(missingBonds[i], missingBonds[j]) })
	}

	if len(missingAtoms) > 0 || len(missingBonds) > 0 {
		return nil, &MissingTermsError{MissingAtomTypes: missingAtoms, MissingBondTypes: missingBonds}
	}
	return out, nil
}
