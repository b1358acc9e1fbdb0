/*
 * requirements.go, part of upm.
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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	upm "github.com/molsaic/upm"
)

// optionalArray fetches a top-level array field. A missing key defaults to
// an empty array; an explicit null is rejected, since it usually means the
// producer failed rather than meant "nothing".
func optionalArray(obj map[string]json.RawMessage, key string) (json.RawMessage, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%s: must be an array; got null", key)
	}
	return raw, nil
}

// ReadRequirements reads a Requirements JSON document and returns the
// canonical form. Each of the four fields is optional and defaults to
// empty; entries are deduplicated, canonicalized and sorted by
// upm.NewRequirements.
func ReadRequirements(fname string) (*upm.Requirements, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(buf, &obj); err != nil {
		return nil, fmt.Errorf("requirements.json: expected JSON object: %v", err)
	}

	var atomTypes []string
	raw, err := optionalArray(obj, "atom_types")
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &atomTypes); err != nil {
			return nil, fmt.Errorf("atom_types: expected array of strings: %v", err)
		}
	}

	keyLists := make(map[string][][]string)
	for _, key := range []string{"bond_types", "angle_types", "dihedral_types"} {
		raw, err := optionalArray(obj, key)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		var lists [][]string
		if err := json.Unmarshal(raw, &lists); err != nil {
			return nil, fmt.Errorf("%s: expected array of string arrays: %v", key, err)
		}
		keyLists[key] = lists
	}

	return upm.NewRequirements(atomTypes, keyLists["bond_types"], keyLists["angle_types"], keyLists["dihedral_types"])
}

// reqDoc marshals with fields in sorted key order, matching the stable
// writer contract.
type reqDoc struct {
	AngleTypes    [][]string `json:"angle_types"`
	AtomTypes     []string   `json:"atom_types"`
	BondTypes     [][]string `json:"bond_types"`
	DihedralTypes [][]string `json:"dihedral_types"`
}

func keysToLists2(keys []upm.BondKey) [][]string {
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = []string{k[0], k[1]}
	}
	return out
}

func keysToLists3(keys []upm.AngleKey) [][]string {
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = []string{k[0], k[1], k[2]}
	}
	return out
}

func keysToLists4(keys []upm.DihedralKey) [][]string {
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = []string{k[0], k[1], k[2], k[3]}
	}
	return out
}

// RequirementsJSON renders req as a stable Requirements document: two-space
// indent, sorted keys, trailing newline, empty fields as [] rather than
// null.
func RequirementsJSON(req *upm.Requirements) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("requirements: nil")
	}
	doc := reqDoc{
		AngleTypes:    keysToLists3(req.AngleTypes()),
		AtomTypes:     req.AtomTypes(),
		BondTypes:     keysToLists2(req.BondTypes()),
		DihedralTypes: keysToLists4(req.DihedralTypes()),
	}
	if doc.AtomTypes == nil {
		doc.AtomTypes = []string{}
	}
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// WriteRequirements writes req to fname, creating parent directories as
// needed.
func WriteRequirements(req *upm.Requirements, fname string) error {
	buf, err := RequirementsJSON(req)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return err
	}
	return os.WriteFile(fname, buf, 0644)
}

type structureAtom struct {
	Aid      *int    `json:"aid"`
	AtomType *string `json:"atom_type"`
}

type structureBond struct {
	A1 *int `json:"a1"`
	A2 *int `json:"a2"`
}

// RequirementsFromStructure derives Requirements from a standalone
// structure.json: atoms carry (aid, atom_type), bonds carry (a1, a2) pairs
// of aids. aids must cover 0..n-1 exactly once. Bond keys come from the
// declared bonds; angle keys are enumerated from the bond adjacency, one
// per unordered neighbor pair around each atom. dihedral_types is always
// empty, since torsion enumeration belongs to the topology extractor.
func RequirementsFromStructure(fname string) (*upm.Requirements, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(buf, &obj); err != nil {
		return nil, fmt.Errorf("structure.json: expected JSON object: %v", err)
	}

	atomsRaw, ok := obj["atoms"]
	if !ok {
		return nil, fmt.Errorf("structure.json: missing required key 'atoms'")
	}
	if bytes.Equal(bytes.TrimSpace(atomsRaw), []byte("null")) {
		return nil, fmt.Errorf("structure.json.atoms: must be an array; got null")
	}
	var atoms []structureAtom
	if err := json.Unmarshal(atomsRaw, &atoms); err != nil {
		return nil, fmt.Errorf("structure.json.atoms: %v", err)
	}

	n := len(atoms)
	byAid := make([]string, n)
	seen := make([]bool, n)
	for i, a := range atoms {
		if a.Aid == nil {
			return nil, fmt.Errorf("structure.json.atoms[%d].aid: expected int, got null", i)
		}
		aid := *a.Aid
		if aid < 0 || aid >= n {
			return nil, fmt.Errorf("structure.json.atoms[%d].aid: out of range: %d (n_atoms=%d)", i, aid, n)
		}
		if seen[aid] {
			return nil, fmt.Errorf("structure.json.atoms[%d].aid: duplicate aid %d", i, aid)
		}
		seen[aid] = true
		if a.AtomType == nil {
			return nil, fmt.Errorf("structure.json.atoms[%d].atom_type: expected str, got null", i)
		}
		at := strings.TrimSpace(*a.AtomType)
		if at == "" {
			return nil, fmt.Errorf("structure.json.atoms[%d].atom_type: must be a non-empty string", i)
		}
		byAid[aid] = at
	}

	pairs, err := structureBondPairs(obj, n)
	if err != nil {
		return nil, err
	}

	bondSet := make(map[upm.BondKey]bool)
	neighbors := make([][]int, n)
	for _, p := range pairs {
		key, err := upm.CanonicalBondKey(byAid[p[0]], byAid[p[1]])
		if err != nil {
			return nil, err
		}
		bondSet[key] = true
		neighbors[p[0]] = append(neighbors[p[0]], p[1])
		neighbors[p[1]] = append(neighbors[p[1]], p[0])
	}

	angleSet := make(map[upm.AngleKey]bool)
	for j := 0; j < n; j++ {
		nbrs := uniqueSortedInts(neighbors[j])
		for a := 0; a < len(nbrs)-1; a++ {
			for b := a + 1; b < len(nbrs); b++ {
				key, err := upm.CanonicalAngleKey(byAid[nbrs[a]], byAid[j], byAid[nbrs[b]])
				if err != nil {
					return nil, err
				}
				angleSet[key] = true
			}
		}
	}

	atomTypes := make([]string, 0, n)
	for _, at := range byAid {
		atomTypes = append(atomTypes, at)
	}
	var bondLists [][]string
	for k := range bondSet {
		bondLists = append(bondLists, []string{k[0], k[1]})
	}
	var angleLists [][]string
	for k := range angleSet {
		angleLists = append(angleLists, []string{k[0], k[1], k[2]})
	}
	// NewRequirements dedups and sorts, so map order doesn't leak out.
	return upm.NewRequirements(atomTypes, bondLists, angleLists, nil)
}

// structureBondPairs returns the unique undirected bond pairs of the
// structure, each ordered low-high and the whole list sorted.
func structureBondPairs(obj map[string]json.RawMessage, nAtoms int) ([][2]int, error) {
	bondsRaw, ok := obj["bonds"]
	if !ok {
		return nil, nil
	}
	if bytes.Equal(bytes.TrimSpace(bondsRaw), []byte("null")) {
		return nil, fmt.Errorf("structure.json.bonds: must be an array; got null")
	}
	var bonds []structureBond
	if err := json.Unmarshal(bondsRaw, &bonds); err != nil {
		return nil, fmt.Errorf("structure.json.bonds: %v", err)
	}

	set := make(map[[2]int]bool)
	for i, b := range bonds {
		if b.A1 == nil || b.A2 == nil {
			return nil, fmt.Errorf("structure.json.bonds[%d]: a1/a2 must be ints", i)
		}
		a1, a2 := *b.A1, *b.A2
		if a1 < 0 || a1 >= nAtoms || a2 < 0 || a2 >= nAtoms {
			return nil, fmt.Errorf("structure.json.bonds[%d]: a1/a2 out of range: (%d,%d) (n_atoms=%d)", i, a1, a2, nAtoms)
		}
		if a1 == a2 {
			return nil, fmt.Errorf("structure.json.bonds[%d]: self-bond not allowed (aid=%d)", i, a1)
		}
		if a1 > a2 {
			a1, a2 = a2, a1
		}
		set[[2]int{a1, a2}] = true
	}

	pairs := make([][2]int, 0, len(set))
	for p := range set {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs, nil
}

func uniqueSortedInts(xs []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}
