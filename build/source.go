/*
 * source.go, part of upm.
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
	"math"
	"strings"

	"github.com/molsaic/upm/upmjson"
)

// AtomTypeInfo is a source's answer to an atom-info query.
type AtomTypeInfo struct {
	MassAmu float64
	Element string
}

// BondParams is a quadratic bond parameter pair.
type BondParams struct {
	K  float64
	R0 float64
}

// AngleParams is a quadratic angle parameter pair.
type AngleParams struct {
	K         float64
	Theta0Deg float64
}

// NonbondParams is an LJ A/B parameter pair.
type NonbondParams struct {
	LJA float64
	LJB float64
}

// Source answers parameter queries per capability. Every method may decline
// by returning ok=false; no source has to answer everything, and the four
// capabilities are independent, so one source can provide an atom's mass
// while another provides its bond constants.
type Source interface {
	AtomInfo(atomType string) (AtomTypeInfo, bool)
	BondParams(t1, t2 string) (BondParams, bool)
	AngleParams(t1, t2, t3 string) (AngleParams, bool)
	NonbondParams(atomType string) (NonbondParams, bool)
}

// Chain queries an ordered list of sources and returns the first answer,
// independently per capability.
type Chain struct {
	sources []Source
}

func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

func (c *Chain) AtomInfo(atomType string) (AtomTypeInfo, bool) {
	for _, s := range c.sources {
		if v, ok := s.AtomInfo(atomType); ok {
			return v, true
		}
	}
	return AtomTypeInfo{}, false
}

func (c *Chain) BondParams(t1, t2 string) (BondParams, bool) {
	for _, s := range c.sources {
		if v, ok := s.BondParams(t1, t2); ok {
			return v, true
		}
	}
	return BondParams{}, false
}

func (c *Chain) AngleParams(t1, t2, t3 string) (AngleParams, bool) {
	for _, s := range c.sources {
		if v, ok := s.AngleParams(t1, t2, t3); ok {
			return v, true
		}
	}
	return AngleParams{}, false
}

func (c *Chain) NonbondParams(atomType string) (NonbondParams, bool) {
	for _, s := range c.sources {
		if v, ok := s.NonbondParams(atomType); ok {
			return v, true
		}
	}
	return NonbondParams{}, false
}

// Generic bonded-term defaults. These are placeholder magnitudes for
// geometry relaxation, not fitted constants.
const (
	genericHBondK      = 340.0
	genericHBondR0     = 1.09
	genericBondK       = 350.0
	genericBondR0      = 1.5
	genericCAngleK     = 44.4
	genericCAngleTheta = 109.5
	genericAngleK      = 50.0
	genericAngleTheta  = 120.0
)

// Placeholder fabricates generic bond and angle parameters from element
// identity. It never answers atom-info or nonbonded queries: those must
// come from an authoritative source.
type Placeholder struct {
	elements map[string]string
}

// NewPlaceholder builds a placeholder source over an atom_type -> element
// mapping. Types absent from the mapping fall back to an element guessed
// from the label (leading letters, e.g. "Zn_MOF" -> "Zn", "c3" -> "C").
func NewPlaceholder(elements map[string]string) *Placeholder {
	m := make(map[string]string, len(elements))
	for k, v := range elements {
		m[k] = v
	}
	return &Placeholder{elements: m}
}

func (p *Placeholder) element(atomType string) string {
	if e, ok := p.elements[atomType]; ok {
		return e
	}
	return elementFromLabel(atomType)
}

// elementFromLabel guesses an element symbol from an atom-type label: the
// leading run of letters, capitalized the way element symbols are.
func elementFromLabel(atomType string) string {
	var letters []rune
	for _, r := range atomType {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters = append(letters, r)
			continue
		}
		break
	}
	if len(letters) == 0 {
		return ""
	}
	s := string(letters)
	if len(s) > 2 {
		s = s[:2]
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func (p *Placeholder) AtomInfo(atomType string) (AtomTypeInfo, bool) {
	return AtomTypeInfo{}, false
}

func (p *Placeholder) NonbondParams(atomType string) (NonbondParams, bool) {
	return NonbondParams{}, false
}

// BondParams answers with the hydrogen default when either end is a
// hydrogen, and the generic heavy-atom default otherwise.
func (p *Placeholder) BondParams(t1, t2 string) (BondParams, bool) {
	if p.element(t1) == "H" || p.element(t2) == "H" {
		return BondParams{K: genericHBondK, R0: genericHBondR0}, true
	}
	return BondParams{K: genericBondK, R0: genericBondR0}, true
}

// AngleParams answers with the tetrahedral default for carbon centers and
// the generic default otherwise.
func (p *Placeholder) AngleParams(t1, t2, t3 string) (AngleParams, bool) {
	if p.element(t2) == "C" {
		return AngleParams{K: genericCAngleK, Theta0Deg: genericCAngleTheta}, true
	}
	return AngleParams{K: genericAngleK, Theta0Deg: genericAngleTheta}, true
}

// ParamSetSource answers atom-info and nonbonded queries from a validated
// ParameterSet. LJ sigma/epsilon are converted to the legacy A/B form via
// A = 4*eps*sigma^12, B = 4*eps*sigma^6. It never answers bonded-term
// queries.
type ParamSetSource struct {
	ps *upmjson.ParameterSet
}

func NewParamSetSource(ps *upmjson.ParameterSet) *ParamSetSource {
	return &ParamSetSource{ps: ps}
}

func (s *ParamSetSource) AtomInfo(atomType string) (AtomTypeInfo, bool) {
	p, ok := s.ps.Lookup(atomType)
	if !ok {
		return AtomTypeInfo{}, false
	}
	return AtomTypeInfo{MassAmu: p.MassAmu, Element: p.Element}, true
}

func (s *ParamSetSource) NonbondParams(atomType string) (NonbondParams, bool) {
	p, ok := s.ps.Lookup(atomType)
	if !ok {
		return NonbondParams{}, false
	}
	return NonbondParams{
		LJA: 4.0 * p.LJEpsilonKcalMol * math.Pow(p.LJSigmaAngstrom, 12),
		LJB: 4.0 * p.LJEpsilonKcalMol * math.Pow(p.LJSigmaAngstrom, 6),
	}, true
}

func (s *ParamSetSource) BondParams(t1, t2 string) (BondParams, bool) {
	return BondParams{}, false
}

func (s *ParamSetSource) AngleParams(t1, t2, t3 string) (AngleParams, bool) {
	return AngleParams{}, false
}
