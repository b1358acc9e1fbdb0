/*
 * main.go, part of upm.
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

// upm is the command-line front end: it imports legacy force-field files
// into versioned package bundles, exports and builds them back out, and
// validates what is on disk.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/molsaic/upm/bundle"
)

// Exit codes beyond the usual 0/1. A hard miss means nothing useful was
// produced; a reported miss means the output and a missing-term report were
// both written.
const (
	exitHardMissing     = 2
	exitReportedMissing = 3
)

// exitError carries a specific process exit code up through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "upm",
		Short:         "Unified parameter model for legacy force-field files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newImportCmd(),
		newExportCmd(),
		newBuildCmd(),
		newValidateCmd(),
		newDeriveReqCmd(),
	)
	return cmd
}

// bundleFlags is the shared --path / --package / --root addressing triple.
type bundleFlags struct {
	path string
	pkg  string
	root string
}

func (f *bundleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "path", "", "path to a package directory")
	cmd.Flags().StringVar(&f.pkg, "package", "", "package reference name@version")
	cmd.Flags().StringVar(&f.root, "root", ".", "repository root holding packages/")
}

// load opens the addressed bundle. Exactly one of --path and --package must
// be set.
func (f *bundleFlags) load(opts *bundle.Options) (*bundle.Bundle, error) {
	if (f.path == "") == (f.pkg == "") {
		return nil, errors.New("specify exactly one of --path or --package")
	}
	if f.path != "" {
		return bundle.LoadDir(f.path, opts)
	}
	name, version, err := bundle.ParseRef(f.pkg)
	if err != nil {
		return nil, err
	}
	return bundle.Load(f.root, name, version, opts)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "upm:", err)
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}
