// Package irdump provides the --emit-ir diagnostic output: a canonical
// CBOR encoding of the compiler's intermediate representation, dumped
// instead of (not in addition to) the final artifact.
package irdump

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/akmc/akm/ir"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("irdump: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Instruction is the CBOR-friendly projection of one ir.Instruction.
// Fields use lowercase keys so the dump reads naturally from other
// tooling that doesn't link against this module.
type Instruction struct {
	Op     string  `cbor:"op"`
	Number float64 `cbor:"number,omitempty"`
	Str    string  `cbor:"str,omitempty"`
	Name   string  `cbor:"name,omitempty"`
	Label  string  `cbor:"label,omitempty"`
	Func   string  `cbor:"func,omitempty"`
	Method string  `cbor:"method,omitempty"`
	Argc   int     `cbor:"argc,omitempty"`
}

// Function is the CBOR-friendly projection of one ir.Function.
type Function struct {
	Name         string        `cbor:"name"`
	Params       []string      `cbor:"params,omitempty"`
	Locals       []string      `cbor:"locals,omitempty"`
	Instructions []Instruction `cbor:"instructions"`
}

// Module is the CBOR-friendly projection of an entire ir.Module.
type Module struct {
	Functions []Function `cbor:"functions"`
	Strings   []string   `cbor:"strings"`
}

// Project converts an ir.Module into its CBOR-friendly shape.
func Project(mod *ir.Module) Module {
	out := Module{Strings: mod.Strings.Values()}
	for _, fn := range mod.Functions {
		pf := Function{Name: fn.Name, Params: fn.Params, Locals: fn.Locals}
		for _, ins := range fn.Instructions {
			pf.Instructions = append(pf.Instructions, Instruction{
				Op:     ins.Op.String(),
				Number: ins.Number,
				Str:    ins.Str,
				Name:   ins.Name,
				Label:  ins.Label,
				Func:   ins.Func,
				Method: ins.Method,
				Argc:   ins.Argc,
			})
		}
		out.Functions = append(out.Functions, pf)
	}
	return out
}

// Marshal encodes mod as canonical CBOR.
func Marshal(mod *ir.Module) ([]byte, error) {
	return cborEncMode.Marshal(Project(mod))
}

// Unmarshal decodes a CBOR IR dump, mainly useful for tests that want to
// assert on the dumped shape without re-deriving it from source.
func Unmarshal(data []byte) (*Module, error) {
	var m Module
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("irdump: unmarshal: %w", err)
	}
	return &m, nil
}
