package frc

import (
	"fmt"
	"sort"
	"strings"
)

// Error is the file-level error type of this package. It implements the
// decoration scheme used across UPM packages: Decorate appends the caller's
// name so the error carries its path up the stack without being rewrapped.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return err.message
	}
	return fmt.Sprintf("%s, file %s", err.message, err.filename)
}

// Decorate adds dec to the decoration slice and returns the result. An empty
// dec just returns the current decorations.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// FileName returns the file involved in the error, if any.
func (err Error) FileName() string {
	return err.filename
}

// Critical reports whether the error should abort the whole operation.
func (err Error) Critical() bool {
	return err.critical
}

// DirectiveError reports a mandatory directive line missing from a section.
// Guessing a default would make output depend on the guess, so this is
// always fatal to the parse.
type DirectiveError struct {
	Section   string
	Directive string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s: missing required directive '%s'", e.Section, e.Directive)
}

// MissingNonbondError reports atom types declared in #atom_types with no row
// in #nonbond(12-6). It is returned by strict parses only; tolerant parses
// leave the LJ cells null instead.
type MissingNonbondError struct {
	AtomTypes []string
}

func newMissingNonbondError(types []string) *MissingNonbondError {
	s := append([]string(nil), types...)
	sort.Strings(s)
	return &MissingNonbondError{AtomTypes: s}
}

func (e *MissingNonbondError) Error() string {
	return fmt.Sprintf("#nonbond(12-6): no parameters for atom types: %s", strings.Join(e.AtomTypes, ", "))
}
