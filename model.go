/*
 * model.go, part of upm.
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

//Canonical term keys. Each key is an ordered tuple of atom-type labels
//normalized to one fixed representative ordering, so equivalent terms
//compare and hash equal regardless of how the caller listed the atoms.

// BondKey is a canonical 2-label bond key with T1 <= T2.
type BondKey [2]string

// AngleKey is a canonical 3-label angle key. The middle label is the center
// atom and never moves; the endpoints satisfy T1 <= T3.
type AngleKey [3]string

// DihedralKey is a canonical 4-label torsion key: the lexicographically
// smaller of the forward sequence and its full reversal.
type DihedralKey [4]string

// ImproperKey is a canonical out-of-plane key in the in-core convention:
// the center label first, then the three peripheral labels sorted.
// The TermSet wire format uses a different convention (center in the second
// position); package upmjson converts between the two at the boundary.
type ImproperKey [4]string

func (k BondKey) String() string {
	return k[0] + "-" + k[1]
}

func (k AngleKey) String() string {
	return k[0] + "-" + k[1] + "-" + k[2]
}

func (k DihedralKey) String() string {
	return k[0] + "-" + k[1] + "-" + k[2] + "-" + k[3]
}

func (k ImproperKey) String() string {
	return k[0] + "-" + k[1] + "-" + k[2] + "-" + k[3]
}

// normLabel trims an atom-type label and rejects empty/whitespace-only ones.
// where names the offending field in the error, eg "bond_types[*][0]".
func normLabel(v, where string) (string, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return "", fmt.Errorf("%s: must be a non-empty string", where)
	}
	return s, nil
}

// CanonicalBondKey canonicalizes a bond key so that t1 <= t2.
func CanonicalBondKey(t1, t2 string) (BondKey, error) {
	a, err := normLabel(t1, "bond_types[*][0]")
	if err != nil {
		return BondKey{}, err
	}
	b, err := normLabel(t2, "bond_types[*][1]")
	if err != nil {
		return BondKey{}, err
	}
	if a <= b {
		return BondKey{a, b}, nil
	}
	return BondKey{b, a}, nil
}

// CanonicalAngleKey canonicalizes an angle key so the endpoints satisfy
// t1 <= t3. The center (t2) stays in the middle.
func CanonicalAngleKey(t1, t2, t3 string) (AngleKey, error) {
	a, err := normLabel(t1, "angle_types[*][0]")
	if err != nil {
		return AngleKey{}, err
	}
	b, err := normLabel(t2, "angle_types[*][1]")
	if err != nil {
		return AngleKey{}, err
	}
	c, err := normLabel(t3, "angle_types[*][2]")
	if err != nil {
		return AngleKey{}, err
	}
	if a <= c {
		return AngleKey{a, b, c}, nil
	}
	return AngleKey{c, b, a}, nil
}

// CanonicalDihedralKey canonicalizes by reversal: it keeps whichever of the
// forward sequence and its reversal is lexicographically smaller.
func CanonicalDihedralKey(t1, t2, t3, t4 string) (DihedralKey, error) {
	labels := [4]string{t1, t2, t3, t4}
	for i := range labels {
		s, err := normLabel(labels[i], fmt.Sprintf("dihedral_types[*][%d]", i))
		if err != nil {
			return DihedralKey{}, err
		}
		labels[i] = s
	}
	fwd := DihedralKey{labels[0], labels[1], labels[2], labels[3]}
	rev := DihedralKey{labels[3], labels[2], labels[1], labels[0]}
	if dihedralLess(fwd, rev) || fwd == rev {
		return fwd, nil
	}
	return rev, nil
}

// CanonicalImproperKey canonicalizes an out-of-plane key: the center stays
// first and the three peripherals are sorted.
func CanonicalImproperKey(center, p1, p2, p3 string) (ImproperKey, error) {
	c, err := normLabel(center, "improper_types[*] center")
	if err != nil {
		return ImproperKey{}, err
	}
	ps := []string{p1, p2, p3}
	for i := range ps {
		s, err := normLabel(ps[i], fmt.Sprintf("improper_types[*] peripheral %d", i))
		if err != nil {
			return ImproperKey{}, err
		}
		ps[i] = s
	}
	sort.Strings(ps)
	return ImproperKey{c, ps[0], ps[1], ps[2]}, nil
}

func bondLess(a, b BondKey) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

func angleLess(a, b AngleKey) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func dihedralLess(a, b DihedralKey) bool {
	for i := 0; i < 4; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Requirements is an immutable, canonical set of required atom-type labels
// and bond/angle/dihedral keys for minimal resolving. It is constructed from
// raw (unsorted, possibly duplicated) lists by NewRequirements; every field
// comes out deduplicated, canonicalized and sorted.
type Requirements struct {
	atomTypes     []string
	bondTypes     []BondKey
	angleTypes    []AngleKey
	dihedralTypes []DihedralKey
}

// NewRequirements builds canonical Requirements from raw lists. Nil lists are
// allowed and mean "nothing required" for that term kind. Tuple entries must
// have the right arity; labels must be non-empty after trimming.
func NewRequirements(atomTypes []string, bondTypes, angleTypes, dihedralTypes [][]string) (*Requirements, error) {
	r := new(Requirements)

	seenAt := make(map[string]bool)
	for i, v := range atomTypes {
		s, err := normLabel(v, fmt.Sprintf("atom_types[%d]", i))
		if err != nil {
			return nil, err
		}
		if !seenAt[s] {
			seenAt[s] = true
			r.atomTypes = append(r.atomTypes, s)
		}
	}
	sort.Strings(r.atomTypes)

	seenB := make(map[BondKey]bool)
	for i, item := range bondTypes {
		if len(item) != 2 {
			return nil, fmt.Errorf("bond_types[%d]: expected 2 items, got %d", i, len(item))
		}
		k, err := CanonicalBondKey(item[0], item[1])
		if err != nil {
			return nil, err
		}
		if !seenB[k] {
			seenB[k] = true
			r.bondTypes = append(r.bondTypes, k)
		}
	}
	sort.Slice(r.bondTypes, func(i, j int) bool { return bondLess(r.bondTypes[i], r.bondTypes[j]) })

	seenA := make(map[AngleKey]bool)
	for i, item := range angleTypes {
		if len(item) != 3 {
			return nil, fmt.Errorf("angle_types[%d]: expected 3 items, got %d", i, len(item))
		}
		k, err := CanonicalAngleKey(item[0], item[1], item[2])
		if err != nil {
			return nil, err
		}
		if !seenA[k] {
			seenA[k] = true
			r.angleTypes = append(r.angleTypes, k)
		}
	}
	sort.Slice(r.angleTypes, func(i, j int) bool { return angleLess(r.angleTypes[i], r.angleTypes[j]) })

	seenD := make(map[DihedralKey]bool)
	for i, item := range dihedralTypes {
		if len(item) != 4 {
			return nil, fmt.Errorf("dihedral_types[%d]: expected 4 items, got %d", i, len(item))
		}
		k, err := CanonicalDihedralKey(item[0], item[1], item[2], item[3])
		if err != nil {
			return nil, err
		}
		if !seenD[k] {
			seenD[k] = true
			r.dihedralTypes = append(r.dihedralTypes, k)
		}
	}
	sort.Slice(r.dihedralTypes, func(i, j int) bool { return dihedralLess(r.dihedralTypes[i], r.dihedralTypes[j]) })

	return r, nil
}

// AtomTypes returns a copy of the required atom-type labels, sorted.
func (r *Requirements) AtomTypes() []string {
	return append([]string(nil), r.atomTypes...)
}

// BondTypes returns a copy of the required bond keys, sorted.
func (r *Requirements) BondTypes() []BondKey {
	return append([]BondKey(nil), r.bondTypes...)
}

// AngleTypes returns a copy of the required angle keys, sorted.
func (r *Requirements) AngleTypes() []AngleKey {
	return append([]AngleKey(nil), r.angleTypes...)
}

// DihedralTypes returns a copy of the required dihedral keys, sorted.
func (r *Requirements) DihedralTypes() []DihedralKey {
	return append([]DihedralKey(nil), r.dihedralTypes...)
}
