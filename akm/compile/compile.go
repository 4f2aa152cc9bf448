// Package compile wires the whole pipeline together: parse, extract,
// build IR, infer capabilities, optimize, generate code, and assemble
// the final artifact. It is the single entry point cmd/akmc calls.
package compile

import (
	"fmt"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/binary"
	"github.com/chazu/akmc/akm/capability"
	"github.com/chazu/akmc/akm/codegen"
	"github.com/chazu/akmc/akm/frontend"
	"github.com/chazu/akmc/akm/inspect"
	"github.com/chazu/akmc/akm/ir"
	"github.com/chazu/akmc/akm/optimize"
	"github.com/chazu/akmc/akm/parser"
)

// Options controls optional stages of the pipeline.
type Options struct {
	Optimize bool
	Debug    bool // sets the FlagDebug bit in the emitted header

	// CapsOverride, when non-nil, replaces the inferred capability mask
	// entirely rather than being OR'd into it — this is the CLI's
	// -c/--caps escape hatch (spec §6), applied after inference so it
	// always wins.
	CapsOverride *uint32
}

// Result is everything a caller might want out of a successful compile:
// the artifact bytes plus the intermediate module, for callers that also
// want to emit IR (internal/irdump) or inspect the artifact they just
// built without re-parsing it.
type Result struct {
	Artifact []byte
	Module   *ir.Module
	Warnings []string
}

// Compile runs the full pipeline over src (one source file's content,
// named filename for diagnostics) and returns the assembled artifact.
// Errors from any stage are aggregated and returned as a single error;
// a non-empty error list aborts before binary emission (spec §7
// "Propagation policy").
func Compile(filename, src string, opts Options) (*Result, error) {
	p := parser.New(filename, src)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, aggregate("parse", toStrings(errs))
	}

	fr := frontend.Extract(filename, prog, akm.CapabilityByName)
	if len(fr.Errors) > 0 {
		return nil, aggregate("extract", fr.Errors)
	}

	if _, ok := fr.Functions["init"]; !ok {
		return nil, fmt.Errorf("structural error: module %q has no init function", filename)
	}
	if _, ok := fr.Functions["exit"]; !ok {
		return nil, fmt.Errorf("structural error: module %q has no exit function", filename)
	}
	if fr.Module.Name == "" {
		return nil, fmt.Errorf("structural error: module %q never calls AKM.module({name: ...})", filename)
	}

	mod := ir.Build(fr, akm.CapabilityByName)
	if err := ir.InjectCommands(mod, fr.Commands); err != nil {
		return nil, err
	}

	capability.Infer(&fr.Module, fr.APICalls, len(fr.Commands) > 0)
	if opts.CapsOverride != nil {
		fr.Module.Capabilities = *opts.CapsOverride
	}

	if opts.Optimize {
		optimize.Run(mod)
	}

	out, err := codegen.Generate(mod, fr.Commands)
	if err != nil {
		return nil, err
	}

	flags := uint16(0)
	if opts.Debug {
		flags |= akm.FlagDebug
	}

	in := binary.FromCodegenOutput(fr.Module, out, mod.Strings.Values(), flags)
	artifact, err := binary.Write(in)
	if err != nil {
		return nil, err
	}

	warnings := append([]string{}, fr.Warnings...)
	warnings = append(warnings, out.Warnings...)

	return &Result{Artifact: artifact, Module: mod, Warnings: warnings}, nil
}

// Inspect is a convenience wrapper for reading back a compiled artifact,
// used by cmd/akmc's -i/--info flag.
func Inspect(data []byte) (*inspect.Result, error) {
	return inspect.Inspect(data)
}

func aggregate(stage string, msgs []string) error {
	return fmt.Errorf("%s errors:\n%s", stage, joinLines(msgs))
}

func joinLines(msgs []string) string {
	out := ""
	for i, m := range msgs {
		if i > 0 {
			out += "\n"
		}
		out += "  " + m
	}
	return out
}

func toStrings(errs []*parser.SyntaxError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
