package upmjson

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	upm "github.com/molsaic/upm"
)

// MissingReport is the JSON missing-term report written next to partially
// built output. All four arrays are present even when empty, so consumers
// never need to distinguish "no misses" from "field absent".
type MissingReport struct {
	AngleTypes    [][]string `json:"angle_types"`
	AtomTypes     []string   `json:"atom_types"`
	BondTypes     [][]string `json:"bond_types"`
	DihedralTypes [][]string `json:"dihedral_types"`
}

// NewMissingReport builds a report from missing term keys. Inputs may be
// nil and in any order; the report fields come out sorted and non-nil.
func NewMissingReport(atomTypes []string, bonds []upm.BondKey, angles []upm.AngleKey, dihedrals []upm.DihedralKey) *MissingReport {
	r := &MissingReport{
		AtomTypes:     append([]string{}, atomTypes...),
		BondTypes:     keysToLists2(bonds),
		AngleTypes:    keysToLists3(angles),
		DihedralTypes: keysToLists4(dihedrals),
	}
	sort.Strings(r.AtomTypes)
	sortKeyLists(r.BondTypes)
	sortKeyLists(r.AngleTypes)
	sortKeyLists(r.DihedralTypes)
	return r
}

func sortKeyLists(lists [][]string) {
	sort.Slice(lists, func(i, j int) bool { return keyCompare(lists[i], lists[j]) < 0 })
}

// MissingReportJSON renders the report with the stable writer contract of
// this package.
func MissingReportJSON(r *MissingReport) ([]byte, error) {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// WriteMissingReport writes the report to fname, creating parent
// directories as needed.
func WriteMissingReport(fname string, r *MissingReport) error {
	buf, err := MissingReportJSON(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return err
	}
	return os.WriteFile(fname, buf, 0644)
}
