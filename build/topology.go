/*
 * topology.go, part of upm.
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
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	upm "github.com/molsaic/upm"
	"github.com/molsaic/upm/upmjson"
)

// BondedTypes is the set of unique canonical bonded-term keys derived from
// one molecular topology. All slices are sorted and duplicate-free.
type BondedTypes struct {
	Bonds      []upm.BondKey
	Angles     []upm.AngleKey
	Torsions   []upm.DihedralKey
	OutOfPlane []upm.ImproperKey
}

// TermSet converts the bonded types into the TermSet shape the builder
// consumes. Atom types are the unique types seen in the topology.
func (bt *BondedTypes) TermSet(atomTypes []string) *upmjson.TermSet {
	unique := make(map[string]bool)
	for _, at := range atomTypes {
		unique[at] = true
	}
	ats := make([]string, 0, len(unique))
	for at := range unique {
		ats = append(ats, at)
	}
	sort.Strings(ats)
	return &upmjson.TermSet{
		AtomTypes:     ats,
		BondTypes:     append([]upm.BondKey(nil), bt.Bonds...),
		AngleTypes:    append([]upm.AngleKey(nil), bt.Angles...),
		DihedralTypes: append([]upm.DihedralKey(nil), bt.Torsions...),
		ImproperTypes: append([]upm.ImproperKey(nil), bt.OutOfPlane...),
	}
}

func sortedNeighborIDs(g *simple.UndirectedGraph, id int64) []int64 {
	nodes := graph.NodesOf(g.From(id))
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FromBonds derives the bonded-term keys of a molecule. atomTypes[i] is
// the type label of atom i; bonds are index pairs into atomTypes. Angle
// candidates are the unordered neighbor pairs around each atom, torsion
// candidates the extensions across each bond, and out-of-plane candidates
// the atoms with exactly three neighbors. Every candidate is canonicalized
// and deduplicated.
func FromBonds(atomTypes []string, bonds [][2]int) (*BondedTypes, error) {
	n := len(atomTypes)
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}

	edgeSet := make(map[[2]int]bool)
	for i, b := range bonds {
		a1, a2 := b[0], b[1]
		if a1 < 0 || a1 >= n || a2 < 0 || a2 >= n {
			return nil, fmt.Errorf("topology: bond %d: atom index out of range: (%d,%d) (n_atoms=%d)", i, a1, a2, n)
		}
		if a1 == a2 {
			return nil, fmt.Errorf("topology: bond %d: self-bond not allowed (atom %d)", i, a1)
		}
		if a1 > a2 {
			a1, a2 = a2, a1
		}
		if edgeSet[[2]int{a1, a2}] {
			continue
		}
		edgeSet[[2]int{a1, a2}] = true
		g.SetEdge(simple.Edge{F: simple.Node(a1), T: simple.Node(a2)})
	}
	edges := make([][2]int, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})

	bt := new(BondedTypes)

	bondSet := make(map[upm.BondKey]bool)
	for _, e := range edges {
		key, err := upm.CanonicalBondKey(atomTypes[e[0]], atomTypes[e[1]])
		if err != nil {
			return nil, err
		}
		bondSet[key] = true
	}

	angleSet := make(map[upm.AngleKey]bool)
	oopSet := make(map[upm.ImproperKey]bool)
	for j := 0; j < n; j++ {
		nbrs := sortedNeighborIDs(g, int64(j))
		for a := 0; a < len(nbrs)-1; a++ {
			for b := a + 1; b < len(nbrs); b++ {
				key, err := upm.CanonicalAngleKey(atomTypes[nbrs[a]], atomTypes[j], atomTypes[nbrs[b]])
				if err != nil {
					return nil, err
				}
				angleSet[key] = true
			}
		}
		if len(nbrs) == 3 {
			key, err := upm.CanonicalImproperKey(atomTypes[j],
				atomTypes[nbrs[0]], atomTypes[nbrs[1]], atomTypes[nbrs[2]])
			if err != nil {
				return nil, err
			}
			oopSet[key] = true
		}
	}

	torsionSet := make(map[upm.DihedralKey]bool)
	for _, e := range edges {
		j, k := int64(e[0]), int64(e[1])
		for _, i := range sortedNeighborIDs(g, j) {
			if i == k {
				continue
			}
			for _, l := range sortedNeighborIDs(g, k) {
				if l == j || l == i {
					continue
				}
				key, err := upm.CanonicalDihedralKey(atomTypes[i], atomTypes[j], atomTypes[k], atomTypes[l])
				if err != nil {
					return nil, err
				}
				torsionSet[key] = true
			}
		}
	}

	for k := range bondSet {
		bt.Bonds = append(bt.Bonds, k)
	}
	sort.Slice(bt.Bonds, func(i, j int) bool { return keyLess(bt.Bonds[i][:], bt.Bonds[j][:]) })
	for k := range angleSet {
		bt.Angles = append(bt.Angles, k)
	}
	sort.Slice(bt.Angles, func(i, j int) bool { return keyLess(bt.Angles[i][:], bt.Angles[j][:]) })
	for k := range torsionSet {
		bt.Torsions = append(bt.Torsions, k)
	}
	sort.Slice(bt.Torsions, func(i, j int) bool { return keyLess(bt.Torsions[i][:], bt.Torsions[j][:]) })
	for k := range oopSet {
		bt.OutOfPlane = append(bt.OutOfPlane, k)
	}
	sort.Slice(bt.OutOfPlane, func(i, j int) bool { return keyLess(bt.OutOfPlane[i][:], bt.OutOfPlane[j][:]) })

	return bt, nil
}

func keyLess(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
