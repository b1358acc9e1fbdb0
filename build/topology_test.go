package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	upm "github.com/molsaic/upm"
)

// methanolTopology is CH3OH: C(0) bonded to H(1..3) and O(4), O bonded to
// H(5).
func methanolTopology() ([]string, [][2]int) {
	atomTypes := []string{"c3", "hc", "hc", "hc", "oh", "ho"}
	bonds := [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}, {4, 5}}
	return atomTypes, bonds
}

func TestFromBondsMethanol(t *testing.T) {
	atomTypes, bonds := methanolTopology()
	bt, err := FromBonds(atomTypes, bonds)
	require.NoError(t, err)

	assert.Equal(t, []upm.BondKey{{"c3", "hc"}, {"c3", "oh"}, {"ho", "oh"}}, bt.Bonds)

	// Angles centered on C: hc-c3-hc, hc-c3-oh; centered on O: c3-oh-ho.
	assert.Equal(t, []upm.AngleKey{
		{"c3", "oh", "ho"},
		{"hc", "c3", "hc"},
		{"hc", "c3", "oh"},
	}, bt.Angles)

	// One torsion type across the C-O bond: hc-c3-oh-ho.
	assert.Equal(t, []upm.DihedralKey{{"hc", "c3", "oh", "ho"}}, bt.Torsions)

	// No atom has exactly three neighbors (C has 4, O has 2).
	assert.Empty(t, bt.OutOfPlane)
}

func TestFromBondsOutOfPlane(t *testing.T) {
	// Formaldehyde-like center: C bonded to H, H, O.
	atomTypes := []string{"c2", "hc", "hc", "o2"}
	bonds := [][2]int{{0, 1}, {0, 2}, {0, 3}}
	bt, err := FromBonds(atomTypes, bonds)
	require.NoError(t, err)

	require.Len(t, bt.OutOfPlane, 1)
	// Canonical improper key: center first, peripherals sorted.
	assert.Equal(t, upm.ImproperKey{"c2", "hc", "hc", "o2"}, bt.OutOfPlane[0])
}

func TestFromBondsDeterministicAndDeduped(t *testing.T) {
	atomTypes, bonds := methanolTopology()
	// Duplicate and reversed bonds must not change the result.
	noisy := append(append([][2]int{}, bonds...), [2]int{1, 0}, [2]int{4, 0})

	a, err := FromBonds(atomTypes, bonds)
	require.NoError(t, err)
	b, err := FromBonds(atomTypes, noisy)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFromBondsRejectsBadInput(t *testing.T) {
	_, err := FromBonds([]string{"a", "b"}, [][2]int{{0, 2}})
	assert.Error(t, err)
	_, err = FromBonds([]string{"a", "b"}, [][2]int{{1, 1}})
	assert.Error(t, err)
}

func TestBondedTypesTermSet(t *testing.T) {
	atomTypes, bonds := methanolTopology()
	bt, err := FromBonds(atomTypes, bonds)
	require.NoError(t, err)

	ts := bt.TermSet(atomTypes)
	assert.Equal(t, []string{"c3", "hc", "ho", "oh"}, ts.AtomTypes)
	assert.Equal(t, bt.Bonds, ts.BondTypes)
	assert.Equal(t, bt.Torsions, ts.DihedralTypes)
}

const sampleMDF = `!BIOSYM molecular_data 4

#topology

@column 1 element
@column 2 atom_type

@molecule CALF20

XXXX_1:C1    C  c2   ?  0  0  -0.1  0 0 8 1.0  0  H1 O1 O2
XXXX_1:H1    H  hc   ?  0  0   0.1  0 0 8 1.0  0  C1
XXXX_1:O1    O  o2   ?  0  0  -0.3  0 0 8 1.0  0  C1 Zn1
XXXX_1:O2    O  o2   ?  0  0  -0.3  0 0 8 1.0  0  C1
XXXX_1:Zn1   Zn zn4  ?  0  0   0.6  0 0 8 1.0  0  O1%

#end
`

func TestFromMDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.mdf")
	require.NoError(t, os.WriteFile(path, []byte(sampleMDF), 0644))

	bt, err := FromMDF(path)
	require.NoError(t, err)

	assert.Equal(t, []upm.BondKey{
		{"c2", "hc"},
		{"c2", "o2"},
		{"o2", "zn4"},
	}, bt.Bonds)

	// C1 has exactly three neighbors, so it is the one out-of-plane
	// center.
	assert.Equal(t, []upm.ImproperKey{{"c2", "hc", "o2", "o2"}}, bt.OutOfPlane)

	types, err := MDFAtomTypes(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "hc", "o2", "o2", "zn4"}, types)
}

func TestFromMDFUnknownConnection(t *testing.T) {
	bad := "XXXX_1:C1    C  c2   ?  0  0  0.0  0 0 8 1.0  0  MISSING\n"
	path := filepath.Join(t.TempDir(), "bad.mdf")
	require.NoError(t, os.WriteFile(path, []byte(bad), 0644))

	_, err := FromMDF(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING")
}
