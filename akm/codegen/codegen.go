// Package codegen lowers an optimized akm/ir.Module to bytes: the code
// section (spec §4.5) and the data section (deduplicated string table
// plus command stub records). Label/fixup resolution happens in a
// second pass once every function has been emitted.
package codegen

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/frontend"
	"github.com/chazu/akmc/akm/ir"
)

// Fixup is a deferred back-patch of a 32-bit operand whose target
// address wasn't known at emission time (spec §3 "Fixup").
type Fixup struct {
	Offset int
	Label  string
}

// Output is everything the binary writer needs from code generation.
type Output struct {
	Code            []byte
	Data            []byte
	FunctionOffsets map[string]int
	StringOffsets   map[string]int // offset of each string within Data's leading string region
	Warnings        []string
}

type generator struct {
	code            []byte
	labels          map[string]int
	fixups          []Fixup
	functionOffsets map[string]int
	stringOffsets   map[string]int
	warnings        []string
}

// Generate emits code and data sections for mod, resolving every fixup.
// An unresolved fixup — a CALL or jump whose target label never appears
// in the emitted function set — is a fatal structural error: spec §7
// documents the alternative (silently leaving a zero address) but
// recommends upgrading it, which this implementation does.
func Generate(mod *ir.Module, commands []frontend.Command) (*Output, error) {
	g := &generator{
		labels:          map[string]int{},
		functionOffsets: map[string]int{},
	}
	g.stringOffsets = buildStringOffsets(mod.Strings.Values())

	for _, fn := range mod.Functions {
		g.functionOffsets[fn.Name] = len(g.code)
		g.labels[fn.Name] = len(g.code)
		g.emitByte(byte(akm.OpNop))
		for range fn.Locals {
			g.emitPushNumber(0)
		}
		for _, ins := range fn.Instructions {
			g.emitInstruction(ins, fn)
		}
	}

	if err := g.resolveFixups(); err != nil {
		return nil, err
	}

	data := buildData(mod.Strings.Values(), commands, g.functionOffsets)

	return &Output{
		Code:            g.code,
		Data:            data,
		FunctionOffsets: g.functionOffsets,
		StringOffsets:   g.stringOffsets,
		Warnings:        g.warnings,
	}, nil
}

func (g *generator) emitByte(b byte) {
	g.code = append(g.code, b)
}

func (g *generator) emitU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	g.code = append(g.code, buf[:]...)
}

func (g *generator) emitPushNumber(n float64) {
	g.emitByte(byte(akm.OpPush))
	g.emitU32(uint32(int32(n)))
}

func (g *generator) emitInstruction(ins ir.Instruction, fn *ir.Function) {
	switch ins.Op {
	case akm.OpPush:
		g.emitByte(byte(akm.OpPush))
		g.emitU32(g.operandValue(ins))
	case akm.OpPushStr:
		g.emitByte(byte(akm.OpPushStr))
		g.emitU32(uint32(g.stringOffsets[ins.Str]))
	case akm.OpPushArg:
		g.emitByte(byte(akm.OpPushArg))
		g.emitByte(byte(ins.Argc))
	case akm.OpStoreLocal:
		// "PUSH <value>; STORE_LOCAL <index>" (§4.5). For a literal
		// initializer the value travels on this same IR instruction; for a
		// general expression (e.g. a binary-op initializer) ir.Build has
		// already emitted the value-producing instructions immediately
		// before this one, so OperandKind is None and no extra PUSH belongs
		// here.
		if ins.OperandKind != ir.OperandNone {
			g.emitByte(byte(akm.OpPush))
			g.emitU32(g.operandValue(ins))
		}
		g.emitByte(byte(akm.OpStoreLocal))
		g.emitByte(byte(g.localIndex(fn, ins.Name)))
	case akm.OpLoadLocal:
		g.emitByte(byte(akm.OpLoadLocal))
		g.emitByte(byte(g.localIndex(fn, ins.Name)))
	case akm.OpCall:
		g.emitByte(byte(akm.OpCall))
		g.fixups = append(g.fixups, Fixup{Offset: len(g.code), Label: ins.Func})
		g.emitU32(0)
		g.emitByte(byte(ins.Argc))
	case akm.OpCallAPI:
		g.emitByte(byte(akm.OpCallAPI))
		idx := akm.UnknownAPIIndex
		if _, i, ok := akm.LookupAPI(ins.Method); ok {
			idx = i
		} else {
			g.warnings = append(g.warnings, fmt.Sprintf("unknown API method %q", ins.Method))
		}
		g.emitByte(byte(idx))
		g.emitByte(byte(ins.Argc))
	case akm.OpJmp, akm.OpJz, akm.OpJnz:
		g.emitByte(byte(ins.Op))
		if ins.Label != "" {
			g.fixups = append(g.fixups, Fixup{Offset: len(g.code), Label: ins.Label})
		}
		g.emitU32(0)
	default:
		g.emitByte(byte(ins.Op))
	}
}

// operandValue returns the 32-bit value a PUSH/STORE_LOCAL immediate
// encodes: the literal number, or the string's table offset when the
// IR value is a string reference (spec §4.5).
func (g *generator) operandValue(ins ir.Instruction) uint32 {
	switch ins.OperandKind {
	case ir.OperandString:
		return uint32(g.stringOffsets[ins.Str])
	case ir.OperandNumber:
		return uint32(int32(ins.Number))
	default:
		return 0
	}
}

func (g *generator) localIndex(fn *ir.Function, name string) int {
	if idx := fn.LocalIndex(name); idx >= 0 {
		return idx
	}
	return 0
}

func (g *generator) resolveFixups() error {
	for _, fx := range g.fixups {
		addr, ok := g.labels[fx.Label]
		if !ok {
			return fmt.Errorf("unresolved fixup: label %q is never defined", fx.Label)
		}
		binary.LittleEndian.PutUint32(g.code[fx.Offset:fx.Offset+4], uint32(addr))
	}
	return nil
}

// buildStringOffsets assigns each string its NUL-terminated byte offset
// within the leading string region of the data section.
func buildStringOffsets(strings []string) map[string]int {
	offsets := make(map[string]int, len(strings))
	off := 0
	for _, s := range strings {
		offsets[s] = off
		off += len(s) + 1
	}
	return offsets
}

// buildData concatenates the NUL-terminated string table followed by one
// 20-byte command stub per registered command (spec §4.5 "Command
// stubs", "Data section").
func buildData(strings []string, commands []frontend.Command, functionOffsets map[string]int) []byte {
	var data []byte
	for _, s := range strings {
		data = append(data, []byte(s)...)
		data = append(data, 0)
	}
	offsets := buildStringOffsets(strings)
	for _, cmd := range commands {
		data = appendU32(data, uint32(offsets[cmd.Name]))
		data = appendU32(data, uint32(offsets[cmd.Syntax]))
		data = appendU32(data, uint32(offsets[cmd.Description]))
		data = appendU32(data, uint32(offsets[cmd.Category]))
		handlerOffset := uint32(0)
		if off, ok := functionOffsets[cmd.Handler]; ok {
			handlerOffset = uint32(off)
		}
		data = appendU32(data, handlerOffset)
	}
	return data
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
