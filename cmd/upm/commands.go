/*
 * commands.go, part of upm.
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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/molsaic/upm/bundle"
	"github.com/molsaic/upm/frc"
	"github.com/molsaic/upm/upmjson"
)

// import-frc parses a legacy file and stores it as a versioned bundle,
// keeping the source text and unrecognized sections byte-exact.
func newImportCmd() *cobra.Command {
	var (
		name    string
		version string
		root    string
	)
	cmd := &cobra.Command{
		Use:   "import-frc <file>",
		Short: "Import a legacy .frc file into a package bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := frc.SourceText(args[0])
			if err != nil {
				return err
			}
			tables, unknown, err := frc.Parse(text, nil)
			if err != nil {
				return err
			}
			if _, err := bundle.Save(root, name, version, tables, text, unknown); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), bundle.Dir(root, name, version))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "package name")
	cmd.Flags().StringVar(&version, "version", "", "package version")
	cmd.Flags().StringVar(&root, "root", ".", "repository root holding packages/")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("version")
	return cmd
}

// validate loads a bundle, which normalizes and validates its tables, and
// optionally re-hashes every file against the manifest.
func newValidateCmd() *cobra.Command {
	var (
		bf         bundleFlags
		verifyHash bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a package bundle on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bf.load(&bundle.Options{VerifyHashes: verifyHash}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
	bf.register(cmd)
	cmd.Flags().BoolVar(&verifyHash, "verify-hashes", false, "recompute sha256 and compare to the manifest")
	return cmd
}

// derive-req turns a toy structure.json into canonical Requirements JSON.
func newDeriveReqCmd() *cobra.Command {
	var (
		structure string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "derive-req",
		Short: "Derive Requirements JSON from a structure JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := upmjson.RequirementsFromStructure(structure)
			if err != nil {
				return err
			}
			if err := upmjson.WriteRequirements(req, out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&structure, "structure", "", "path to a structure JSON file")
	cmd.Flags().StringVar(&out, "out", "", "output Requirements JSON path")
	cmd.MarkFlagRequired("structure")
	cmd.MarkFlagRequired("out")
	return cmd
}
