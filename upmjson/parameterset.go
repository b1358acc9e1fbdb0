/*
 * parameterset.go, part of upm.
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
	"math"
	"os"
	"sort"
)

// ParameterSetSchema is the schema tag a ParameterSet document must carry.
const ParameterSetSchema = "upm.parameterset.v0.1.2"

// AtomParams holds the per-atom-type physical parameters of a ParameterSet
// entry. Element may be empty.
type AtomParams struct {
	MassAmu          float64
	LJSigmaAngstrom  float64
	LJEpsilonKcalMol float64
	Element          string
}

// ParameterSet is a validated label -> parameters mapping. Lookups go
// through Lookup; Types returns the sorted label list so iteration is
// deterministic.
type ParameterSet struct {
	atomTypes map[string]AtomParams
}

func (ps *ParameterSet) Types() []string {
	out := make([]string, 0, len(ps.atomTypes))
	for at := range ps.atomTypes {
		out = append(out, at)
	}
	sort.Strings(out)
	return out
}

func (ps *ParameterSet) Lookup(atomType string) (AtomParams, bool) {
	p, ok := ps.atomTypes[atomType]
	return p, ok
}

func (ps *ParameterSet) Len() int {
	return len(ps.atomTypes)
}

type atomParamsDoc struct {
	MassAmu          *float64 `json:"mass_amu"`
	LJSigmaAngstrom  *float64 `json:"lj_sigma_angstrom"`
	LJEpsilonKcalMol *float64 `json:"lj_epsilon_kcal_mol"`
	Element          *string  `json:"element"`
}

var allowedParamKeys = map[string]bool{
	"mass_amu":            true,
	"lj_sigma_angstrom":   true,
	"lj_epsilon_kcal_mol": true,
	"element":             true,
}

func requireFinite(p *float64, where string) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("%s: expected number, got null", where)
	}
	if math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, fmt.Errorf("%s: must be finite", where)
	}
	return *p, nil
}

// ReadParameterSet reads and validates a ParameterSet JSON document:
// schema tag, exact per-entry key set, finite numbers, mass > 0, sigma > 0,
// epsilon >= 0.
func ReadParameterSet(fname string) (*ParameterSet, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(buf, &obj); err != nil {
		return nil, fmt.Errorf("parameterset.json: expected JSON object: %v", err)
	}

	schemaRaw, ok := obj["schema"]
	if !ok {
		return nil, fmt.Errorf("parameterset.json: missing required key 'schema'")
	}
	var schemaStr string
	if err := json.Unmarshal(schemaRaw, &schemaStr); err != nil {
		return nil, fmt.Errorf("parameterset.json.schema: expected str: %v", err)
	}
	schema, err := normStr(schemaStr, "parameterset.json.schema")
	if err != nil {
		return nil, err
	}
	if schema != ParameterSetSchema {
		return nil, fmt.Errorf("parameterset.json.schema: expected %q, got %q", ParameterSetSchema, schema)
	}

	atRaw, ok := obj["atom_types"]
	if !ok || bytes.Equal(bytes.TrimSpace(atRaw), []byte("null")) {
		return nil, fmt.Errorf("parameterset.json: missing required key 'atom_types'")
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(atRaw, &entries); err != nil {
		return nil, fmt.Errorf("parameterset.json.atom_types: expected JSON object: %v", err)
	}

	ps := &ParameterSet{atomTypes: make(map[string]AtomParams, len(entries))}
	// Validate in sorted key order so the first reported violation is
	// stable across runs.
	rawKeys := make([]string, 0, len(entries))
	for k := range entries {
		rawKeys = append(rawKeys, k)
	}
	sort.Strings(rawKeys)
	for _, rawKey := range rawKeys {
		at, err := normStr(rawKey, "parameterset.json.atom_types keys")
		if err != nil {
			return nil, err
		}
		if _, dup := ps.atomTypes[at]; dup {
			return nil, fmt.Errorf("parameterset.json.atom_types: duplicate atom_type keys after stripping")
		}
		where := fmt.Sprintf("parameterset.json.atom_types[%s]", at)

		var keys map[string]json.RawMessage
		if err := json.Unmarshal(entries[rawKey], &keys); err != nil {
			return nil, fmt.Errorf("%s: expected JSON object: %v", where, err)
		}
		var extras []string
		for k := range keys {
			if !allowedParamKeys[k] {
				extras = append(extras, k)
			}
		}
		if len(extras) > 0 {
			sort.Strings(extras)
			return nil, fmt.Errorf("%s: unexpected keys: %v", where, extras)
		}

		var doc atomParamsDoc
		if err := json.Unmarshal(entries[rawKey], &doc); err != nil {
			return nil, fmt.Errorf("%s: %v", where, err)
		}
		mass, err := requireFinite(doc.MassAmu, where+".mass_amu")
		if err != nil {
			return nil, err
		}
		sigma, err := requireFinite(doc.LJSigmaAngstrom, where+".lj_sigma_angstrom")
		if err != nil {
			return nil, err
		}
		eps, err := requireFinite(doc.LJEpsilonKcalMol, where+".lj_epsilon_kcal_mol")
		if err != nil {
			return nil, err
		}
		if mass <= 0 {
			return nil, fmt.Errorf("%s.mass_amu: must be > 0", where)
		}
		if sigma <= 0 {
			return nil, fmt.Errorf("%s.lj_sigma_angstrom: must be > 0", where)
		}
		if eps < 0 {
			return nil, fmt.Errorf("%s.lj_epsilon_kcal_mol: must be >= 0", where)
		}

		p := AtomParams{MassAmu: mass, LJSigmaAngstrom: sigma, LJEpsilonKcalMol: eps}
		if doc.Element != nil {
			p.Element, err = normStr(*doc.Element, where+".element")
			if err != nil {
				return nil, err
			}
		}
		ps.atomTypes[at] = p
	}
	return ps, nil
}
