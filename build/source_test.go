package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molsaic/upm/upmjson"
)

func testParameterSet(t *testing.T, body string) *upmjson.ParameterSet {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ps.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	ps, err := upmjson.ReadParameterSet(path)
	require.NoError(t, err)
	return ps
}

func mofParameterSet(t *testing.T) *upmjson.ParameterSet {
	return testParameterSet(t, `{
  "schema": "upm.parameterset.v0.1.2",
  "atom_types": {
    "C_MOF": {"mass_amu": 12.011, "element": "C", "lj_sigma_angstrom": 3.4, "lj_epsilon_kcal_mol": 0.1},
    "H_MOF": {"mass_amu": 1.008, "element": "H", "lj_sigma_angstrom": 2.5, "lj_epsilon_kcal_mol": 0.01},
    "Zn_MOF": {"mass_amu": 65.38, "element": "Zn", "lj_sigma_angstrom": 2.4, "lj_epsilon_kcal_mol": 0.12}
  }
}`)
}

func TestPlaceholderCapabilities(t *testing.T) {
	p := NewPlaceholder(map[string]string{"C_MOF": "C", "H_MOF": "H"})

	_, ok := p.AtomInfo("C_MOF")
	assert.False(t, ok, "placeholder must not answer atom info")
	_, ok = p.NonbondParams("C_MOF")
	assert.False(t, ok, "placeholder must not answer nonbond params")

	bond, ok := p.BondParams("C_MOF", "H_MOF")
	require.True(t, ok)
	assert.Equal(t, 340.0, bond.K)
	assert.Equal(t, 1.09, bond.R0)

	bond, ok = p.BondParams("C_MOF", "C_MOF")
	require.True(t, ok)
	assert.Equal(t, 350.0, bond.K)
	assert.Equal(t, 1.5, bond.R0)

	angle, ok := p.AngleParams("H_MOF", "C_MOF", "H_MOF")
	require.True(t, ok)
	assert.Equal(t, 109.5, angle.Theta0Deg)
	assert.Equal(t, 44.4, angle.K)

	angle, ok = p.AngleParams("C_MOF", "H_MOF", "C_MOF")
	require.True(t, ok)
	assert.Equal(t, 120.0, angle.Theta0Deg)
	assert.Equal(t, 50.0, angle.K)
}

func TestPlaceholderElementFromLabel(t *testing.T) {
	// Types outside the explicit mapping fall back to a label-derived
	// element guess.
	p := NewPlaceholder(nil)
	bond, ok := p.BondParams("c3", "h")
	require.True(t, ok)
	assert.Equal(t, 1.09, bond.R0, "h label should read as hydrogen")

	angle, ok := p.AngleParams("o", "c3", "o")
	require.True(t, ok)
	assert.Equal(t, 109.5, angle.Theta0Deg, "c3 label should read as carbon center")

	assert.Equal(t, "Zn", elementFromLabel("Zn_MOF"))
	assert.Equal(t, "C", elementFromLabel("c3"))
	assert.Equal(t, "", elementFromLabel("_x"))
}

func TestParamSetSource(t *testing.T) {
	src := NewParamSetSource(mofParameterSet(t))

	info, ok := src.AtomInfo("C_MOF")
	require.True(t, ok)
	assert.Equal(t, 12.011, info.MassAmu)
	assert.Equal(t, "C", info.Element)

	nb, ok := src.NonbondParams("C_MOF")
	require.True(t, ok)
	assert.Greater(t, nb.LJA, 0.0)
	assert.Greater(t, nb.LJB, 0.0)

	_, ok = src.AtomInfo("UNKNOWN")
	assert.False(t, ok)
	_, ok = src.BondParams("C_MOF", "C_MOF")
	assert.False(t, ok, "parameterset source must not answer bonded queries")
}

func TestParamSetSourceLJConversion(t *testing.T) {
	ps := testParameterSet(t, `{
  "schema": "upm.parameterset.v0.1.2",
  "atom_types": {
    "a": {"mass_amu": 10.0, "lj_sigma_angstrom": 2.0, "lj_epsilon_kcal_mol": 0.5},
    "b": {"mass_amu": 20.0, "lj_sigma_angstrom": 3.0, "lj_epsilon_kcal_mol": 0.0}
  }
}`)
	src := NewParamSetSource(ps)

	// A = 4*0.5*2^12 = 8192, B = 4*0.5*2^6 = 128
	nb, ok := src.NonbondParams("a")
	require.True(t, ok)
	assert.InDelta(t, 8192.0, nb.LJA, 1e-9)
	assert.InDelta(t, 128.0, nb.LJB, 1e-9)

	// epsilon = 0 -> A = B = 0
	nb, ok = src.NonbondParams("b")
	require.True(t, ok)
	assert.Zero(t, nb.LJA)
	assert.Zero(t, nb.LJB)
}

func TestChainFallsBackPerCapability(t *testing.T) {
	chain := NewChain(
		NewParamSetSource(mofParameterSet(t)),
		NewPlaceholder(map[string]string{"C_MOF": "C"}),
	)

	// Atom info from the parameterset...
	info, ok := chain.AtomInfo("C_MOF")
	require.True(t, ok)
	assert.Equal(t, "C", info.Element)

	// ...bond params from the placeholder, for the same atom type.
	bond, ok := chain.BondParams("C_MOF", "C_MOF")
	require.True(t, ok)
	assert.Equal(t, 350.0, bond.K)

	_, ok = chain.AtomInfo("UNKNOWN")
	assert.False(t, ok)
}
