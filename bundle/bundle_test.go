package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	upm "github.com/molsaic/upm"
	"github.com/molsaic/upm/frc"
)

func fixedTimestamp(t *testing.T) {
	t.Helper()
	old := timestamp
	timestamp = func() string { return "2024-06-01T12:00:00Z" }
	t.Cleanup(func() { timestamp = old })
}

func sampleTables() *upm.Tables {
	return &upm.Tables{
		AtomTypes: []upm.AtomType{
			{Type: "c3", Element: "C", Mass: upm.Float(12.011), VdwStyle: upm.VdwStyleLJAB,
				LJA: upm.Float(1790340.72), LJB: upm.Float(528.48), Notes: "sp3 carbon"},
			{Type: "h", Element: "H", Mass: upm.Float(1.008), VdwStyle: upm.VdwStyleLJAB,
				LJA: upm.Float(7108.46), LJB: upm.Float(32.87)},
		},
		Bonds: []upm.Bond{
			{T1: "c3", T2: "h", Style: upm.StyleQuadratic, K: upm.Float(340.6), R0: upm.Float(1.105), Source: "cvff"},
		},
		Angles: []upm.Angle{
			{T1: "h", T2: "c3", T3: "h", Style: upm.StyleQuadratic, K: upm.Float(44.4), Theta0: upm.Float(106.4)},
		},
		BondIncrements: []upm.BondIncrement{
			{T1: "c3", T2: "h", DeltaIJ: -0.053, DeltaJI: 0.053},
		},
	}
}

func sampleUnknown() []frc.Section {
	return []frc.Section{
		{Header: "#preamble", Body: []string{"!BIOSYM forcefield 1", ""}},
		{Header: "#morse_bond\tcvff", Body: []string{" 1.0  1  c3  h  1.1  88.0  2.0", ""}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fixedTimestamp(t)
	root := t.TempDir()
	src := "#atom_types\n row\n"

	m, err := Save(root, "demo", "0.1.0", sampleTables(), src, sampleUnknown())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, m.SchemaVersion)
	assert.Equal(t, []string{"angles", "atom_types", "bond_increments", "bonds"}, m.Features)
	assert.Equal(t, 2, m.Tables["atom_types"].Rows)
	assert.Equal(t, "tables/bonds.json", m.Tables["bonds"].Path)
	require.Len(t, m.Sources, 2)

	b, err := Load(root, "demo", "0.1.0", nil)
	require.NoError(t, err)
	assert.Equal(t, upm.NormalizeTables(sampleTables()), b.Tables)
	assert.Equal(t, src, b.SourceText)
	assert.Equal(t, sampleUnknown(), b.Unknown)
	assert.Equal(t, "2024-06-01T12:00:00Z", b.Manifest.CreatedUTC)
}

func TestSaveDeterministic(t *testing.T) {
	fixedTimestamp(t)
	rootA, rootB := t.TempDir(), t.TempDir()

	_, err := Save(rootA, "demo", "0.1.0", sampleTables(), "src", sampleUnknown())
	require.NoError(t, err)
	_, err = Save(rootB, "demo", "0.1.0", sampleTables(), "src", sampleUnknown())
	require.NoError(t, err)

	for _, rel := range []string{
		"manifest.json",
		"tables/atom_types.json",
		"tables/bonds.json",
		"raw/unknown_sections.json",
	} {
		a, err := os.ReadFile(filepath.Join(Dir(rootA, "demo", "0.1.0"), rel))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(Dir(rootB, "demo", "0.1.0"), rel))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), rel)
	}
}

func TestSaveRejectsInvalidTables(t *testing.T) {
	tables := sampleTables()
	tables.AtomTypes[0].LJA = nil

	_, err := Save(t.TempDir(), "demo", "0.1.0", tables, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lj_a")
}

func TestSaveRejectsBadNames(t *testing.T) {
	for _, bad := range []string{"", "  ", "a/b", "..", "a\\b"} {
		_, err := Save(t.TempDir(), bad, "0.1.0", sampleTables(), "", nil)
		assert.Error(t, err, "name %q", bad)
		_, err = Save(t.TempDir(), "demo", bad, sampleTables(), "", nil)
		assert.Error(t, err, "version %q", bad)
	}
}

func TestLoadDetectsTampering(t *testing.T) {
	root := t.TempDir()
	_, err := Save(root, "demo", "0.1.0", sampleTables(), "src", nil)
	require.NoError(t, err)

	path := filepath.Join(Dir(root, "demo", "0.1.0"), "tables", "bonds.json")
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(buf, '\n'), 0644))

	_, err = Load(root, "demo", "0.1.0", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sha256 mismatch")

	// Verification can be switched off for repair tooling.
	b, err := Load(root, "demo", "0.1.0", &Options{VerifyHashes: false})
	require.NoError(t, err)
	assert.Len(t, b.Tables.Bonds, 1)
}

func TestLoadChecksIdentity(t *testing.T) {
	root := t.TempDir()
	_, err := Save(root, "demo", "0.1.0", sampleTables(), "", nil)
	require.NoError(t, err)

	// Copy the bundle directory under a different version and load it.
	srcDir := Dir(root, "demo", "0.1.0")
	dstDir := Dir(root, "demo", "0.2.0")
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstDir, rel)
		if info.IsDir() {
			return os.MkdirAll(dst, 0755)
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, buf, 0644)
	})
	require.NoError(t, err)

	_, err = Load(root, "demo", "0.2.0", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest identifies")
}

func TestList(t *testing.T) {
	root := t.TempDir()
	refs, err := List(root)
	require.NoError(t, err)
	assert.Empty(t, refs)

	_, err = Save(root, "demo", "0.2.0", sampleTables(), "", nil)
	require.NoError(t, err)
	_, err = Save(root, "demo", "0.1.0", sampleTables(), "", nil)
	require.NoError(t, err)
	_, err = Save(root, "calf20", "1.0.0", sampleTables(), "", nil)
	require.NoError(t, err)

	refs, err = List(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"calf20@1.0.0", "demo@0.1.0", "demo@0.2.0"}, refs)
}

func TestParseRef(t *testing.T) {
	name, version, err := ParseRef("cvff@0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "cvff", name)
	assert.Equal(t, "0.1.0", version)

	for _, bad := range []string{"", "cvff", "@0.1.0", "cvff@", "@"} {
		_, _, err := ParseRef(bad)
		assert.Error(t, err, "ref %q", bad)
	}
}
