/*
 * build.go, part of upm.
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

	"github.com/molsaic/upm/build"
	"github.com/molsaic/upm/upmjson"
)

// newBuildCmd synthesizes a legacy file from TermSet + ParameterSet JSON.
// nonbonded-only mode emits just atom_types and the nonbond section; full
// mode runs the builder with placeholder bonded parameters. Missing types
// follow the same 2/3/0 exit ladder as export-frc.
func newBuildCmd() *cobra.Command {
	var (
		termset    string
		parameters string
		out        string
		mode       string
		strict     bool
		report     string
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "build-frc",
		Short: "Build a legacy .frc file from TermSet + ParameterSet JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "nonbonded-only" && mode != "full" {
				return fmt.Errorf("mode must be 'nonbonded-only' or 'full', got %q", mode)
			}
			ts, err := upmjson.ReadTermSet(termset)
			if err != nil {
				return err
			}
			ps, err := upmjson.ReadParameterSet(parameters)
			if err != nil {
				return err
			}

			err = writeBuilt(out, mode, strict, ts, ps)
			var merr *build.MissingTypesError
			if err != nil {
				if !errors.As(err, &merr) {
					return err
				}
				if report == "" && !force {
					return &exitError{exitHardMissing, merr}
				}
				if report != "" {
					rep := upmjson.NewMissingReport(merr.MissingAtomTypes, merr.MissingBonds, merr.MissingAngles, nil)
					if err := upmjson.WriteMissingReport(report, rep); err != nil {
						return err
					}
				}
				if err := writeBuilt(out, mode, false, ts, ps); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if merr != nil && !force {
				return &exitError{exitReportedMissing, merr}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&termset, "termset", "", "path to termset.json")
	cmd.Flags().StringVar(&parameters, "parameters", "", "path to parameterset.json")
	cmd.Flags().StringVar(&out, "out", "", "output .frc path")
	cmd.Flags().StringVar(&mode, "mode", "nonbonded-only", "build mode: nonbonded-only or full")
	cmd.Flags().BoolVar(&strict, "strict", true, "fail when any required type lacks parameters")
	cmd.Flags().StringVar(&report, "report", "", "write missing types to this JSON path instead of failing hard")
	cmd.Flags().BoolVar(&force, "force", false, "exit 0 even when required types are missing")
	cmd.MarkFlagRequired("termset")
	cmd.MarkFlagRequired("parameters")
	cmd.MarkFlagRequired("out")
	return cmd
}

// writeBuilt runs one build attempt. In lenient nonbonded-only mode the
// term set is first restricted to the types the parameter set covers, since
// that builder has no lenient path of its own.
func writeBuilt(out, mode string, strict bool, ts *upmjson.TermSet, ps *upmjson.ParameterSet) error {
	if mode == "nonbonded-only" {
		if !strict {
			var present []string
			for _, t := range ts.AtomTypes {
				if _, ok := ps.Lookup(t); ok {
					present = append(present, t)
				}
			}
			ts = &upmjson.TermSet{AtomTypes: present}
		}
		return build.WriteNonbondOnly(out, ts, ps)
	}

	cfg := build.DefaultConfig()
	cfg.Strict = strict
	chain := build.NewChain(build.NewParamSetSource(ps), build.NewPlaceholder(nil))
	return build.NewBuilder(ts, chain, cfg).WriteFile(out)
}
