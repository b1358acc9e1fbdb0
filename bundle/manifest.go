/*
 * manifest.go, part of upm.
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

package bundle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion identifies the on-disk bundle layout this package reads and
// writes.
const SchemaVersion = "upm-1.0"

// Units records the unit conventions of every numeric column in a bundle.
// Only one convention is supported; the struct exists so the manifest states
// it explicitly.
type Units struct {
	Length string `json:"length"`
	Energy string `json:"energy"`
	Mass   string `json:"mass"`
	Angle  string `json:"angle"`
}

// Nonbonded records the vdW convention of the atom_types table.
type Nonbonded struct {
	Style  string `json:"style"`
	Form   string `json:"form"`
	Mixing string `json:"mixing"`
}

func DefaultUnits() Units {
	return Units{Length: "angstrom", Energy: "kcal_mol", Mass: "amu", Angle: "degree"}
}

func DefaultNonbonded() Nonbonded {
	return Nonbonded{Style: "A-B", Form: "12-6", Mixing: "geometric"}
}

// FileEntry describes one raw file of a bundle: its path relative to the
// bundle directory and the hex SHA-256 of its exact bytes.
type FileEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// TableEntry describes one canonical-table file of a bundle.
type TableEntry struct {
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
	SHA256 string `json:"sha256"`
}

// Manifest is the bundle index. Field order matches the serialized order.
type Manifest struct {
	SchemaVersion string                `json:"schema_version"`
	Name          string                `json:"name"`
	Version       string                `json:"version"`
	CreatedUTC    string                `json:"created_utc"`
	Units         Units                 `json:"units"`
	Nonbonded     Nonbonded             `json:"nonbonded"`
	Features      []string              `json:"features"`
	Sources       []FileEntry           `json:"sources"`
	Tables        map[string]TableEntry `json:"tables"`
}

// timestamp is swapped out in tests for deterministic manifests.
var timestamp = func() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func newManifest(name, version string) *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		Name:          name,
		Version:       version,
		CreatedUTC:    timestamp(),
		Units:         DefaultUnits(),
		Nonbonded:     DefaultNonbonded(),
		Features:      []string{},
		Sources:       []FileEntry{},
		Tables:        map[string]TableEntry{},
	}
}

// ManifestJSON renders a manifest in the stable form: two-space indentation,
// sorted table keys, trailing newline.
func ManifestJSON(m *Manifest) ([]byte, error) {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

func checkManifest(m *Manifest, name, version string) error {
	if m.SchemaVersion != SchemaVersion {
		return fmt.Errorf("bundle: unsupported schema_version %q (want %q)", m.SchemaVersion, SchemaVersion)
	}
	if m.Name != name || m.Version != version {
		return fmt.Errorf("bundle: manifest identifies %s@%s, not %s@%s", m.Name, m.Version, name, version)
	}
	return nil
}

// ParseRef splits a "name@version" package reference.
func ParseRef(ref string) (name, version string, err error) {
	name, version, ok := strings.Cut(ref, "@")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(version) == "" {
		return "", "", fmt.Errorf("bundle: bad package reference %q (want name@version)", ref)
	}
	return strings.TrimSpace(name), strings.TrimSpace(version), nil
}
