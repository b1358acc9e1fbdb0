/*
 * bundle.go, part of upm.
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

// Package bundle stores versioned parameter packages on disk. A bundle
// keeps the canonical tables as JSON row files, the original source text
// and its unrecognized sections byte-exactly under raw/, and a manifest
// with SHA-256 hashes over all of it.
//
// Layout, relative to a repository root:
//
//	packages/<name>/<version>/manifest.json
//	packages/<name>/<version>/tables/atom_types.json
//	packages/<name>/<version>/tables/bonds.json
//	...
//	packages/<name>/<version>/raw/source.frc
//	packages/<name>/<version>/raw/unknown_sections.json
package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	upm "github.com/molsaic/upm"
	"github.com/molsaic/upm/frc"
)

const (
	manifestFile = "manifest.json"
	sourceFile   = "raw/source.frc"
	unknownFile  = "raw/unknown_sections.json"
)

// Bundle is a fully loaded package: normalized tables plus the preserved
// raw source material.
type Bundle struct {
	Manifest   *Manifest
	Tables     *upm.Tables
	SourceText string
	Unknown    []frc.Section
}

// Options controls loading. VerifyHashes re-hashes every file against the
// manifest; disable it only for repair tooling.
type Options struct {
	VerifyHashes bool
}

func DefaultOptions() *Options {
	return &Options{VerifyHashes: true}
}

// Dir returns the directory of a package inside a repository root.
func Dir(root, name, version string) string {
	return filepath.Join(root, "packages", name, version)
}

// checkComponent rejects names and versions that would escape the packages/
// tree or produce unportable paths.
func checkComponent(kind, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("bundle: %s must be non-empty", kind)
	}
	if strings.ContainsAny(v, "/\\") || v == "." || v == ".." {
		return fmt.Errorf("bundle: bad %s %q", kind, v)
	}
	return nil
}

func hashBytes(buf []byte) string {
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// Row wire structs. Field order matches the canonical column order of each
// table, so the serialized rows read naturally.

type atomTypeRow struct {
	AtomType string   `json:"atom_type"`
	Element  string   `json:"element"`
	MassAmu  *float64 `json:"mass_amu"`
	VdwStyle string   `json:"vdw_style"`
	LJA      *float64 `json:"lj_a"`
	LJB      *float64 `json:"lj_b"`
	Notes    string   `json:"notes"`
}

type bondRow struct {
	T1     string   `json:"t1"`
	T2     string   `json:"t2"`
	Style  string   `json:"style"`
	K      *float64 `json:"k"`
	R0     *float64 `json:"r0"`
	Source string   `json:"source"`
}

type angleRow struct {
	T1     string   `json:"t1"`
	T2     string   `json:"t2"`
	T3     string   `json:"t3"`
	Style  string   `json:"style"`
	K      *float64 `json:"k"`
	Theta0 *float64 `json:"theta0_deg"`
	Source string   `json:"source"`
}

type pairOverrideRow struct {
	T1  string   `json:"t1"`
	T2  string   `json:"t2"`
	LJA *float64 `json:"lj_a"`
	LJB *float64 `json:"lj_b"`
}

type bondIncrementRow struct {
	T1      string  `json:"t1"`
	T2      string  `json:"t2"`
	DeltaIJ float64 `json:"delta_ij"`
	DeltaJI float64 `json:"delta_ji"`
}

type rawSection struct {
	Header string   `json:"header"`
	Body   []string `json:"body"`
}

// stableJSON is the one serializer for every bundle file: two-space indent,
// trailing newline.
func stableJSON(v interface{}) ([]byte, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// tableFiles renders each present table as serialized rows, keyed by table
// name. Absent (nil) tables produce no file.
func tableFiles(t *upm.Tables) (map[string][]byte, map[string]int, error) {
	files := map[string][]byte{}
	counts := map[string]int{}
	put := func(name string, rows interface{}, n int) error {
		buf, err := stableJSON(rows)
		if err != nil {
			return err
		}
		files[name] = buf
		counts[name] = n
		return nil
	}

	if t.AtomTypes != nil {
		rows := make([]atomTypeRow, len(t.AtomTypes))
		for i, r := range t.AtomTypes {
			rows[i] = atomTypeRow{r.Type, r.Element, r.Mass, r.VdwStyle, r.LJA, r.LJB, r.Notes}
		}
		if err := put("atom_types", rows, len(rows)); err != nil {
			return nil, nil, err
		}
	}
	if t.Bonds != nil {
		rows := make([]bondRow, len(t.Bonds))
		for i, r := range t.Bonds {
			rows[i] = bondRow{r.T1, r.T2, r.Style, r.K, r.R0, r.Source}
		}
		if err := put("bonds", rows, len(rows)); err != nil {
			return nil, nil, err
		}
	}
	if t.Angles != nil {
		rows := make([]angleRow, len(t.Angles))
		for i, r := range t.Angles {
			rows[i] = angleRow{r.T1, r.T2, r.T3, r.Style, r.K, r.Theta0, r.Source}
		}
		if err := put("angles", rows, len(rows)); err != nil {
			return nil, nil, err
		}
	}
	if t.PairOverrides != nil {
		rows := make([]pairOverrideRow, len(t.PairOverrides))
		for i, r := range t.PairOverrides {
			rows[i] = pairOverrideRow{r.T1, r.T2, r.LJA, r.LJB}
		}
		if err := put("pair_overrides", rows, len(rows)); err != nil {
			return nil, nil, err
		}
	}
	if t.BondIncrements != nil {
		rows := make([]bondIncrementRow, len(t.BondIncrements))
		for i, r := range t.BondIncrements {
			rows[i] = bondIncrementRow{r.T1, r.T2, r.DeltaIJ, r.DeltaJI}
		}
		if err := put("bond_increments", rows, len(rows)); err != nil {
			return nil, nil, err
		}
	}
	return files, counts, nil
}

// Save writes a package under root and returns its manifest. Tables are
// normalized and validated before anything touches the disk; the source text
// and unknown sections are written byte-exactly. An existing package at the
// same name and version is overwritten.
func Save(root, name, version string, tables *upm.Tables, sourceText string, unknown []frc.Section) (*Manifest, error) {
	if err := checkComponent("package name", name); err != nil {
		return nil, err
	}
	if err := checkComponent("package version", version); err != nil {
		return nil, err
	}
	norm := upm.NormalizeTables(tables)
	if err := upm.ValidateTables(norm); err != nil {
		return nil, err
	}

	files, counts, err := tableFiles(norm)
	if err != nil {
		return nil, err
	}

	m := newManifest(name, version)
	dir := Dir(root, name, version)
	for _, sub := range []string{"tables", "raw"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		rel := "tables/" + n + ".json"
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), files[n], 0644); err != nil {
			return nil, err
		}
		m.Tables[n] = TableEntry{Path: rel, Rows: counts[n], SHA256: hashBytes(files[n])}
		m.Features = append(m.Features, n)
	}

	src := []byte(sourceText)
	if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(sourceFile)), src, 0644); err != nil {
		return nil, err
	}
	m.Sources = append(m.Sources, FileEntry{Path: sourceFile, SHA256: hashBytes(src)})

	sections := make([]rawSection, len(unknown))
	for i, s := range unknown {
		body := s.Body
		if body == nil {
			body = []string{}
		}
		sections[i] = rawSection{Header: s.Header, Body: body}
	}
	ubuf, err := stableJSON(sections)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(unknownFile)), ubuf, 0644); err != nil {
		return nil, err
	}
	m.Sources = append(m.Sources, FileEntry{Path: unknownFile, SHA256: hashBytes(ubuf)})

	mbuf, err := ManifestJSON(m)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), mbuf, 0644); err != nil {
		return nil, err
	}
	return m, nil
}

func readEntry(dir, rel, wantHash string, verify bool) ([]byte, error) {
	if strings.Contains(rel, "..") {
		return nil, fmt.Errorf("bundle: manifest path %q escapes the bundle", rel)
	}
	buf, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	if verify {
		if got := hashBytes(buf); got != wantHash {
			return nil, fmt.Errorf("bundle: %s: sha256 mismatch (manifest %s, file %s)", rel, wantHash, got)
		}
	}
	return buf, nil
}

func loadTable(b *Bundle, name string, buf []byte, want int) error {
	var rows []map[string]interface{}
	if err := json.Unmarshal(buf, &rows); err != nil {
		return fmt.Errorf("bundle: %s: %v", name, err)
	}
	if len(rows) != want {
		return fmt.Errorf("bundle: %s: manifest says %d rows, file has %d", name, want, len(rows))
	}
	var err error
	switch name {
	case "atom_types":
		b.Tables.AtomTypes, err = upm.AtomTypesFromRows(rows)
	case "bonds":
		b.Tables.Bonds, err = upm.BondsFromRows(rows)
	case "angles":
		b.Tables.Angles, err = upm.AnglesFromRows(rows)
	case "pair_overrides":
		b.Tables.PairOverrides, err = pairOverridesFromRows(rows)
	case "bond_increments":
		b.Tables.BondIncrements, err = bondIncrementsFromRows(rows)
	default:
		return fmt.Errorf("bundle: manifest lists unknown table %q", name)
	}
	return err
}

func pairOverridesFromRows(rows []map[string]interface{}) ([]upm.PairOverride, error) {
	out := make([]upm.PairOverride, 0, len(rows))
	for i, row := range rows {
		var r pairOverrideRow
		buf, err := json.Marshal(row)
		if err == nil {
			err = json.Unmarshal(buf, &r)
		}
		if err != nil {
			return nil, fmt.Errorf("pair_overrides[%d]: %v", i, err)
		}
		out = append(out, upm.PairOverride{T1: r.T1, T2: r.T2, LJA: r.LJA, LJB: r.LJB})
	}
	return out, nil
}

func bondIncrementsFromRows(rows []map[string]interface{}) ([]upm.BondIncrement, error) {
	out := make([]upm.BondIncrement, 0, len(rows))
	for i, row := range rows {
		var r bondIncrementRow
		buf, err := json.Marshal(row)
		if err == nil {
			err = json.Unmarshal(buf, &r)
		}
		if err != nil {
			return nil, fmt.Errorf("bond_increments[%d]: %v", i, err)
		}
		out = append(out, upm.BondIncrement{T1: r.T1, T2: r.T2, DeltaIJ: r.DeltaIJ, DeltaJI: r.DeltaJI})
	}
	return out, nil
}

// LoadDir reads a package straight from its directory, trusting the
// manifest's own name and version. Tables come out normalized and validated;
// the raw source text and unknown sections come back byte-exact.
func LoadDir(dir string, opts *Options) (*Bundle, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	mbuf, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	m := new(Manifest)
	if err := json.Unmarshal(mbuf, m); err != nil {
		return nil, fmt.Errorf("bundle: %s: %v", manifestFile, err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("bundle: unsupported schema_version %q (want %q)", m.SchemaVersion, SchemaVersion)
	}

	b := &Bundle{Manifest: m, Tables: new(upm.Tables)}

	names := make([]string, 0, len(m.Tables))
	for n := range m.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		e := m.Tables[n]
		buf, err := readEntry(dir, e.Path, e.SHA256, opts.VerifyHashes)
		if err != nil {
			return nil, err
		}
		if err := loadTable(b, n, buf, e.Rows); err != nil {
			return nil, err
		}
	}

	for _, e := range m.Sources {
		buf, err := readEntry(dir, e.Path, e.SHA256, opts.VerifyHashes)
		if err != nil {
			return nil, err
		}
		switch e.Path {
		case sourceFile:
			b.SourceText = string(buf)
		case unknownFile:
			var sections []rawSection
			if err := json.Unmarshal(buf, &sections); err != nil {
				return nil, fmt.Errorf("bundle: %s: %v", e.Path, err)
			}
			for _, s := range sections {
				b.Unknown = append(b.Unknown, frc.Section{Header: s.Header, Body: s.Body})
			}
		}
	}

	b.Tables = upm.NormalizeTables(b.Tables)
	if err := upm.ValidateTables(b.Tables); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads a package addressed by name and version under a repository
// root, checking that the manifest identifies the same package.
func Load(root, name, version string, opts *Options) (*Bundle, error) {
	b, err := LoadDir(Dir(root, name, version), opts)
	if err != nil {
		return nil, err
	}
	if err := checkManifest(b.Manifest, name, version); err != nil {
		return nil, err
	}
	return b, nil
}

// List returns the name@version references of every package under root,
// sorted.
func List(root string) ([]string, error) {
	base := filepath.Join(root, "packages")
	names, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var refs []string
	for _, n := range names {
		if !n.IsDir() {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(base, n.Name()))
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			if !v.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(base, n.Name(), v.Name(), manifestFile)); err == nil {
				refs = append(refs, n.Name()+"@"+v.Name())
			}
		}
	}
	sort.Strings(refs)
	return refs, nil
}
