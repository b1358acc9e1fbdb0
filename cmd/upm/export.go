/*
 * export.go, part of upm.
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

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	upm "github.com/molsaic/upm"
	"github.com/molsaic/upm/frc"
	"github.com/molsaic/upm/upmjson"
)

// newExportCmd renders a bundle back into a legacy file. Full mode exports
// every supported row; minimal mode resolves a Requirements document first
// and exports only the required subset. Unknown sections are appended in
// both modes, so a full export of an imported file round-trips.
//
// Missing terms in minimal mode follow the exit-code ladder: a bare miss is
// a hard failure (exit 2); with --report the misses are written as JSON,
// whatever did resolve is still exported, and the exit is 3; --force turns
// that into a clean exit.
func newExportCmd() *cobra.Command {
	var (
		bf           bundleFlags
		out          string
		mode         string
		requirements string
		report       string
		force        bool
	)
	cmd := &cobra.Command{
		Use:   "export-frc",
		Short: "Export a package bundle as a legacy .frc file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "full" && mode != "minimal" {
				return fmt.Errorf("mode must be 'full' or 'minimal', got %q", mode)
			}
			b, err := bf.load(nil)
			if err != nil {
				return err
			}

			if mode == "full" {
				if err := frc.WriteFile(out, b.Tables, b.Unknown, true); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}

			if requirements == "" {
				return errors.New("--requirements is required for --mode minimal")
			}
			req, err := upmjson.ReadRequirements(requirements)
			if err != nil {
				return err
			}

			resolved, err := upm.ResolveMinimal(b.Tables, req)
			var merr *upm.MissingTermsError
			if err != nil {
				if !errors.As(err, &merr) {
					return err
				}
				if report == "" && !force {
					return &exitError{exitHardMissing, merr}
				}
				if report != "" {
					rep := upmjson.NewMissingReport(merr.MissingAtomTypes, merr.MissingBondTypes, nil, nil)
					if err := upmjson.WriteMissingReport(report, rep); err != nil {
						return err
					}
				}
				reduced, err := subtractMissing(req, merr)
				if err != nil {
					return err
				}
				if resolved, err = upm.ResolveMinimal(b.Tables, reduced); err != nil {
					return err
				}
			}

			if err := frc.WriteFile(out, resolved.Tables, b.Unknown, true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if merr != nil && !force {
				return &exitError{exitReportedMissing, merr}
			}
			return nil
		},
	}
	bf.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "output .frc path")
	cmd.Flags().StringVar(&mode, "mode", "full", "export mode: full or minimal")
	cmd.Flags().StringVar(&requirements, "requirements", "", "Requirements JSON (minimal mode)")
	cmd.Flags().StringVar(&report, "report", "", "write missing terms to this JSON path instead of failing hard")
	cmd.Flags().BoolVar(&force, "force", false, "exit 0 even when required terms are missing")
	cmd.MarkFlagRequired("out")
	return cmd
}

// subtractMissing rebuilds a Requirements value without the terms a resolve
// reported missing, so the remainder can still be exported.
func subtractMissing(req *upm.Requirements, merr *upm.MissingTermsError) (*upm.Requirements, error) {
	missAtoms := make(map[string]bool, len(merr.MissingAtomTypes))
	for _, a := range merr.MissingAtomTypes {
		missAtoms[a] = true
	}
	missBonds := make(map[upm.BondKey]bool, len(merr.MissingBondTypes))
	for _, k := range merr.MissingBondTypes {
		missBonds[k] = true
	}

	var atoms []string
	for _, a := range req.AtomTypes() {
		if !missAtoms[a] {
			atoms = append(atoms, a)
		}
	}
	var bonds [][]string
	for _, k := range req.BondTypes() {
		if !missBonds[k] {
			bonds = append(bonds, []string{k[0], k[1]})
		}
	}
	var angles [][]string
	for _, k := range req.AngleTypes() {
		angles = append(angles, []string{k[0], k[1], k[2]})
	}
	var dihedrals [][]string
	for _, k := range req.DihedralTypes() {
		dihedrals = append(dihedrals, []string{k[0], k[1], k[2], k[3]})
	}
	return upm.NewRequirements(atoms, bonds, angles, dihedrals)
}
