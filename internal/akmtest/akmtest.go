// Package akmtest loads golden compiler fixtures bundled as txtar
// archives: one archive holds an AKM source module alongside the
// human-readable inspector report its compiled artifact is expected to
// produce. This mirrors the golden-file convention the teacher uses in
// compiler/hash/golden_test.go, packaged with golang.org/x/tools/txtar
// the way Go's own compiler test corpora bundle multi-file fixtures.
package akmtest

import (
	"fmt"
	"path/filepath"

	"golang.org/x/tools/txtar"
)

// Fixture is one golden compiler test case.
type Fixture struct {
	Name   string
	Source string // the AKM source module
	Report string // expected inspect.Report(...) output, empty if not checked
}

// Load parses a single txtar archive at path into a Fixture. The archive
// must contain a "source.akm.js" file; "report.txt" is optional.
func Load(path string) (*Fixture, error) {
	ar, err := txtar.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("akmtest: parsing %s: %w", path, err)
	}

	f := &Fixture{Name: path}
	var haveSource bool
	for _, file := range ar.Files {
		switch file.Name {
		case "source.akm.js":
			f.Source = string(file.Data)
			haveSource = true
		case "report.txt":
			f.Report = string(file.Data)
		}
	}
	if !haveSource {
		return nil, fmt.Errorf("akmtest: %s has no source.akm.js file", path)
	}
	return f, nil
}

// LoadGlob loads every archive matching pattern, in the order returned by
// filepath.Glob.
func LoadGlob(pattern string) ([]*Fixture, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("akmtest: glob %s: %w", pattern, err)
	}
	var out []*Fixture
	for _, m := range matches {
		f, err := Load(m)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
