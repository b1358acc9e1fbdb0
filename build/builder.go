/*
 * builder.go, part of upm.
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
	"os"
	"sort"
	"strings"

	upm "github.com/molsaic/upm"
	"github.com/molsaic/upm/upmjson"
)

// Generic torsion and out-of-plane constants emitted for every required
// dihedral/improper key. Zero-barrier torsions keep the downstream tool's
// term bookkeeping intact without pretending we know the barrier.
const (
	genericTorsionK   = 0.0
	genericTorsionN   = 3
	genericTorsionPhi = 0.0
	genericOopK       = 10.0
	genericOopN       = 2
	genericOopChi     = 180.0
)

// Config controls the builder. The zero value is not useful; use
// DefaultConfig and override fields.
type Config struct {
	//Strict makes Build/WriteFile fail with *MissingTypesError when any
	//required term has no parameters. Non-strict emits what resolved and
	//silently omits the rest.
	Strict bool
	//MaxTypeLen is the downstream tool's atom-type label limit. Labels
	//longer than this are emitted twice, once in full and once truncated,
	//so either form resolves in generated output.
	MaxTypeLen int
	//Label is the forcefield label put on section headers.
	Label string
}

func DefaultConfig() *Config {
	return &Config{Strict: true, MaxTypeLen: 5, Label: "cvff"}
}

// MissingTypesError reports every required term the source chain could not
// answer. The slices are sorted; Descriptors flattens them into the
// "t1-t2" style strings used in reports and messages.
type MissingTypesError struct {
	MissingAtomTypes []string
	MissingBonds     []upm.BondKey
	MissingAngles    []upm.AngleKey
}

func (e *MissingTypesError) Descriptors() []string {
	var out []string
	out = append(out, e.MissingAtomTypes...)
	for _, k := range e.MissingBonds {
		out = append(out, k.String())
	}
	for _, k := range e.MissingAngles {
		out = append(out, k.String())
	}
	return out
}

func (e *MissingTypesError) Error() string {
	return fmt.Sprintf("build: missing parameters for: %s", strings.Join(e.Descriptors(), ", "))
}

func (e *MissingTypesError) empty() bool {
	return len(e.MissingAtomTypes) == 0 && len(e.MissingBonds) == 0 && len(e.MissingAngles) == 0
}

// Builder assembles a complete legacy force-field file from a TermSet and a
// parameter source chain.
type Builder struct {
	ts  *upmjson.TermSet
	src Source
	cfg Config
}

// NewBuilder returns a builder over ts and src. A nil cfg means
// DefaultConfig.
func NewBuilder(ts *upmjson.TermSet, src Source, cfg *Config) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.MaxTypeLen <= 0 {
		c.MaxTypeLen = 5
	}
	if c.Label == "" {
		c.Label = "cvff"
	}
	return &Builder{ts: ts, src: src, cfg: c}
}

// variants returns the emission forms of a label: the label itself, plus
// its truncated alias when it exceeds the length limit.
func (b *Builder) variants(label string) []string {
	if len(label) > b.cfg.MaxTypeLen {
		return []string{label, label[:b.cfg.MaxTypeLen]}
	}
	return []string{label}
}

type resolvedAtom struct {
	atomType string
	info     AtomTypeInfo
	nonbond  NonbondParams
}

type resolvedBond struct {
	key    upm.BondKey
	params BondParams
}

type resolvedAngle struct {
	key    upm.AngleKey
	params AngleParams
}

type resolution struct {
	atoms   []resolvedAtom
	bonds   []resolvedBond
	angles  []resolvedAngle
	missing MissingTypesError
}

func (b *Builder) resolve() *resolution {
	r := new(resolution)
	for _, at := range b.ts.AtomTypes {
		info, okInfo := b.src.AtomInfo(at)
		nb, okNb := b.src.NonbondParams(at)
		if !okInfo || !okNb {
			r.missing.MissingAtomTypes = append(r.missing.MissingAtomTypes, at)
			continue
		}
		r.atoms = append(r.atoms, resolvedAtom{atomType: at, info: info, nonbond: nb})
	}
	for _, k := range b.ts.BondTypes {
		p, ok := b.src.BondParams(k[0], k[1])
		if !ok {
			r.missing.MissingBonds = append(r.missing.MissingBonds, k)
			continue
		}
		r.bonds = append(r.bonds, resolvedBond{key: k, params: p})
	}
	for _, k := range b.ts.AngleTypes {
		p, ok := b.src.AngleParams(k[0], k[1], k[2])
		if !ok {
			r.missing.MissingAngles = append(r.missing.MissingAngles, k)
			continue
		}
		r.angles = append(r.angles, resolvedAngle{key: k, params: p})
	}
	sort.Strings(r.missing.MissingAtomTypes)
	return r
}

// Validate queries the source chain for every required term and returns the
// sorted descriptors of everything that could not be resolved, without
// failing.
func (b *Builder) Validate() []string {
	return b.resolve().missing.Descriptors()
}

func num(x float64) string {
	return fmt.Sprintf("%.8g", x)
}

// brow renders one builder data row. Generated entries carry a fixed
// version/reference prefix so they are recognizable in merged files.
func brow(fields ...string) string {
	return " 2.0  18    " + strings.Join(fields, "  ")
}

func (b *Builder) header(section string) string {
	return section + "\t" + b.cfg.Label
}

const builderPreamble = `!BIOSYM forcefield          1

#version cvff.frc	2.0	01-Jan-00

#define cvff

!Ver  Ref 		Function		Label
!---- ---   ---------------------------------	------
 2.0  18    atom_types				cvff
 2.0  18    equivalence				cvff
 2.0  18    auto_equivalence			cvff
 2.0  18    quadratic_bond			cvff
 2.0  18    quadratic_angle			cvff
 2.0  18    torsion_1				cvff
 2.0  18    out_of_plane			cvff
 2.0  18    nonbond(12-6)			cvff`

// Build resolves every required term and renders the full file. In strict
// mode any unresolved term fails with *MissingTypesError; otherwise the
// unresolved terms are omitted.
func (b *Builder) Build() (string, error) {
	r := b.resolve()
	if b.cfg.Strict && !r.missing.empty() {
		return "", &r.missing
	}

	lines := strings.Split(builderPreamble, "\n")
	lines = append(lines, "")

	lines = append(lines, b.header("#atom_types"))
	for _, a := range r.atoms {
		element := a.info.Element
		if element == "" {
			element = "X"
		}
		for _, name := range b.variants(a.atomType) {
			lines = append(lines, brow(name, num(a.info.MassAmu), element))
		}
	}
	lines = append(lines, "")

	// Each emitted type is equivalent only to itself; aliases stand on
	// their own rather than referring back to the full label, since the
	// downstream tool cannot read the full label at all.
	lines = append(lines, b.header("#equivalence"))
	for _, a := range r.atoms {
		for _, name := range b.variants(a.atomType) {
			lines = append(lines, brow(name, name, name, name, name, name))
		}
	}
	lines = append(lines, "")

	lines = append(lines, b.header("#auto_equivalence"))
	for _, a := range r.atoms {
		for _, name := range b.variants(a.atomType) {
			lines = append(lines, brow(name, name, name, name, name, name, name, name, name, name))
		}
	}
	lines = append(lines, "")

	lines = append(lines, b.header("#quadratic_bond"))
	for _, bd := range r.bonds {
		for _, t1 := range b.variants(bd.key[0]) {
			for _, t2 := range b.variants(bd.key[1]) {
				lines = append(lines, brow(t1, t2, num(bd.params.R0), num(bd.params.K)))
			}
		}
	}
	lines = append(lines, "")

	lines = append(lines, b.header("#quadratic_angle"))
	for _, an := range r.angles {
		for _, t1 := range b.variants(an.key[0]) {
			for _, t2 := range b.variants(an.key[1]) {
				for _, t3 := range b.variants(an.key[2]) {
					lines = append(lines, brow(t1, t2, t3, num(an.params.Theta0Deg), num(an.params.K)))
				}
			}
		}
	}
	lines = append(lines, "")

	lines = append(lines, b.header("#torsion_1"))
	for _, k := range b.ts.DihedralTypes {
		for _, t1 := range b.variants(k[0]) {
			for _, t2 := range b.variants(k[1]) {
				for _, t3 := range b.variants(k[2]) {
					for _, t4 := range b.variants(k[3]) {
						lines = append(lines, brow(t1, t2, t3, t4,
							num(genericTorsionK), fmt.Sprintf("%d", genericTorsionN), num(genericTorsionPhi)))
					}
				}
			}
		}
	}
	lines = append(lines, "")

	// Improper keys are stored center-first; the legacy row convention
	// puts the center second.
	lines = append(lines, b.header("#out_of_plane"))
	for _, k := range b.ts.ImproperTypes {
		for _, p1 := range b.variants(k[1]) {
			for _, c := range b.variants(k[0]) {
				for _, p2 := range b.variants(k[2]) {
					for _, p3 := range b.variants(k[3]) {
						lines = append(lines, brow(p1, c, p2, p3,
							num(genericOopK), fmt.Sprintf("%d", genericOopN), num(genericOopChi)))
					}
				}
			}
		}
	}
	lines = append(lines, "")

	lines = append(lines, b.header("#nonbond(12-6)"), "  @type A-B", "  @combination geometric")
	for _, a := range r.atoms {
		for _, name := range b.variants(a.atomType) {
			lines = append(lines, brow(name, num(a.nonbond.LJA), num(a.nonbond.LJB)))
		}
	}

	return strings.Join(lines, "\n") + "\n", nil
}

// WriteFile builds the file and writes it in one piece.
func (b *Builder) WriteFile(fname string) error {
	text, err := b.Build()
	if err != nil {
		return err
	}
	return os.WriteFile(fname, []byte(text), 0644)
}

// NonbondOnlyText builds a minimal nonbonded-only file directly from a
// TermSet and a ParameterSet: just #atom_types and #nonbond(12-6), no
// preamble, no bonded sections, no aliases. Atom types required by ts but
// absent from ps fail with *MissingTypesError.
func NonbondOnlyText(ts *upmjson.TermSet, ps *upmjson.ParameterSet) (string, error) {
	src := NewParamSetSource(ps)

	var missing []string
	var lines []string
	lines = append(lines, "#atom_types")
	for _, at := range ts.AtomTypes {
		info, ok := src.AtomInfo(at)
		if !ok {
			missing = append(missing, at)
			continue
		}
		element := info.Element
		if element == "" {
			element = "X"
		}
		lines = append(lines, brow(at, num(info.MassAmu), element))
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &MissingTypesError{MissingAtomTypes: missing}
	}

	lines = append(lines, "#nonbond(12-6)", "  @type A-B", "  @combination geometric")
	for _, at := range ts.AtomTypes {
		nb, _ := src.NonbondParams(at)
		lines = append(lines, brow(at, num(nb.LJA), num(nb.LJB)))
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// WriteNonbondOnly writes the nonbonded-only build to fname.
func WriteNonbondOnly(fname string, ts *upmjson.TermSet, ps *upmjson.ParameterSet) error {
	text, err := NonbondOnlyText(ts, ps)
	if err != nil {
		return err
	}
	return os.WriteFile(fname, []byte(text), 0644)
}
