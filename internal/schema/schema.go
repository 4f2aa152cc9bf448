// Package schema runs a second, independent structural validation pass
// over an extracted module descriptor, expressed as a CUE constraint
// rather than hand-written Go conditionals. It supplements, and never
// replaces, the invariant checks the compile pipeline already enforces.
package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/chazu/akmc/akm"
)

// constraint is the CUE definition a module descriptor must satisfy.
// Field bounds mirror the header layout's fixed-width string slots
// (spec §6, akm.MaxNameLen/MaxVersionLen/MaxAuthorLen) exactly, so a
// descriptor that would be silently truncated on write is instead
// rejected here with a clear message.
const constraint = `
import "list"

#Descriptor: {
	name:            string & =~"^.{1,31}$"
	version:         string & =~"^.{0,15}$"
	author:          string & =~"^.{0,31}$"
	security_level:  uint & <=3
	dependencies:    [...string] & list.MaxItems(16)
}
`

// Descriptor is the CUE-friendly projection of an akm.ModuleDescriptor.
type Descriptor struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Author        string   `json:"author"`
	SecurityLevel uint8    `json:"security_level"`
	Dependencies  []string `json:"dependencies"`
}

// Project converts a module descriptor into its CUE-friendly shape.
func Project(d *akm.ModuleDescriptor) Descriptor {
	deps := d.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return Descriptor{
		Name:          d.Name,
		Version:       d.Version,
		Author:        d.Author,
		SecurityLevel: d.SecurityLevel,
		Dependencies:  deps,
	}
}

// Validate checks d against the #Descriptor constraint, returning an
// error describing every violation CUE reports.
func Validate(d *akm.ModuleDescriptor) error {
	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(constraint)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("schema: invalid constraint: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Descriptor"))

	proj := Project(d)
	dataVal := ctx.Encode(proj)
	unified := def.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true), cue.All()); err != nil {
		return fmt.Errorf("schema: descriptor %q failed validation: %w", d.Name, err)
	}
	return nil
}
