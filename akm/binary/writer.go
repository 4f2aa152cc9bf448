// Package binary assembles the final AKM v2 artifact: the 512-byte
// header at byte-exact offsets (spec §6), the symbol table, the trailing
// string table, and both checksums. ReadHeader (reader.go) is the
// inverse, used by akm/inspect.
package binary

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/codegen"
)

// Input is everything the writer needs beyond the code/data bytes
// codegen already produced.
type Input struct {
	Module          akm.ModuleDescriptor
	Code            []byte
	Data            []byte
	FunctionOffsets map[string]int
	Strings         []string // final, deduplicated IR string list
	Flags           uint16
}

// symbolRecord is one 12-byte symtab entry (spec §4.6 "Symbol table").
type symbolRecord struct {
	nameOffset uint32
	value      uint32
	size       uint16
	typ        uint8
	binding    uint8
}

const symbolRecordSize = 12

// Write assembles header ⧺ code ⧺ data ⧺ symtab ⧺ strtab into one
// artifact, per spec §4.6.
func Write(in Input) ([]byte, error) {
	if in.Module.Name == "" {
		return nil, fmt.Errorf("module name must be non-empty")
	}

	initOff, ok := in.FunctionOffsets["init"]
	if !ok {
		return nil, fmt.Errorf("missing init function offset")
	}
	exitOff, ok := in.FunctionOffsets["exit"]
	if !ok {
		return nil, fmt.Errorf("missing exit function offset")
	}

	// Deterministic function order for the symbol table: FunctionOffsets
	// is a map and carries no order of its own, so the names are sorted
	// by code offset to keep the output reproducible.
	names := orderedFunctionNames(in.FunctionOffsets)

	// Per spec §9 "Symbol name offsets": the original design computed
	// symtab name-offsets into a symbol-name region never actually
	// appended to the binary. This implementation fixes that latent bug
	// by appending the function names to strtab (after the IR string
	// list) and using their real offsets there.
	strtab, nameOffsets := buildStrtab(in.Strings, names)

	codeOffset := akm.HeaderSize

	symtab := make([]byte, 0, len(names)*symbolRecordSize)
	for _, name := range names {
		rec := symbolRecord{
			nameOffset: uint32(nameOffsets[name]),
			value:      uint32(codeOffset + in.FunctionOffsets[name]),
			size:       0,
			typ:        1, // function
			binding:    1, // global
		}
		symtab = appendSymbol(symtab, rec)
	}

	dataOffset := codeOffset + len(in.Code)
	symtabOffset := dataOffset + len(in.Data)
	strtabOffset := symtabOffset + len(symtab)
	totalSize := strtabOffset + len(strtab)

	header := make([]byte, akm.HeaderSize)
	putU32(header, akm.OffMagic, akm.Magic)
	putU16(header, akm.OffFormatVersion, akm.FormatVersion)
	putU16(header, akm.OffFlags, in.Flags)
	putU32(header, akm.OffHeaderSize, uint32(akm.HeaderSize))
	putU32(header, akm.OffTotalSize, uint32(totalSize))
	putString(header, akm.OffName, in.Module.Name, akm.MaxNameLen)
	version := in.Module.Version
	if version == "" {
		version = akm.DefaultVersion
	}
	putString(header, akm.OffVersion, version, akm.MaxVersionLen)
	putString(header, akm.OffAuthor, in.Module.Author, akm.MaxAuthorLen)
	putU16(header, akm.OffAPIVersion, akm.DefaultAPIVersion)
	putU32(header, akm.OffKernelMinVer, akm.DefaultKernelMinVer)
	putU32(header, akm.OffKernelMaxVer, akm.DefaultKernelMaxVer)
	putU32(header, akm.OffCapabilities, in.Module.Capabilities)
	putU32(header, akm.OffCodeOffset, uint32(codeOffset))
	putU32(header, akm.OffCodeSize, uint32(len(in.Code)))
	putU32(header, akm.OffDataOffset, uint32(dataOffset))
	putU32(header, akm.OffDataSize, uint32(len(in.Data)))
	putU32(header, akm.OffInitOffset, uint32(codeOffset+initOff))
	putU32(header, akm.OffCleanupOffset, uint32(codeOffset+exitOff))
	putU32(header, akm.OffSymtabOffset, uint32(symtabOffset))
	putU32(header, akm.OffSymtabSize, uint32(len(symtab)))
	putU32(header, akm.OffStrtabOffset, uint32(strtabOffset))
	putU32(header, akm.OffStrtabSize, uint32(len(strtab)))

	depCount := len(in.Module.Dependencies)
	if depCount > akm.MaxDependencies {
		depCount = akm.MaxDependencies
	}
	header[akm.OffDepCount] = byte(depCount)
	for i := 0; i < depCount; i++ {
		putString(header, akm.OffDependencies+i*akm.DependencySlotSize, in.Module.Dependencies[i], akm.MaxDependencyNameLen)
	}

	header[akm.OffSecurityLevel] = in.Module.SecurityLevel
	header[akm.OffSignatureType] = 0

	content := make([]byte, 0, len(in.Code)+len(in.Data)+len(symtab)+len(strtab))
	content = append(content, in.Code...)
	content = append(content, in.Data...)
	content = append(content, symtab...)
	content = append(content, strtab...)
	contentChecksum := akm.Checksum(content)
	putU32(header, akm.OffContentChecksum, contentChecksum)

	headerForChecksum := make([]byte, 0, akm.HeaderSize-4)
	headerForChecksum = append(headerForChecksum, header[:akm.OffHeaderChecksum]...)
	headerForChecksum = append(headerForChecksum, header[akm.OffContentChecksum:]...)
	headerChecksum := akm.Checksum(headerForChecksum)
	putU32(header, akm.OffHeaderChecksum, headerChecksum)

	artifact := make([]byte, 0, totalSize)
	artifact = append(artifact, header...)
	artifact = append(artifact, content...)
	return artifact, nil
}

// FromCodegenOutput is a convenience constructor bridging codegen.Output
// into Input.
func FromCodegenOutput(descriptor akm.ModuleDescriptor, out *codegen.Output, strings []string, flags uint16) Input {
	return Input{
		Module:          descriptor,
		Code:            out.Code,
		Data:            out.Data,
		FunctionOffsets: out.FunctionOffsets,
		Strings:         strings,
		Flags:           flags,
	}
}

func orderedFunctionNames(offsets map[string]int) []string {
	names := make([]string, 0, len(offsets))
	for name := range offsets {
		names = append(names, name)
	}
	// Stable, deterministic ordering by code offset: functions are
	// emitted in source-encounter order, so offset order reproduces it
	// without codegen needing to hand back a separate ordered slice.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && offsets[names[j-1]] > offsets[names[j]]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

// buildStrtab concatenates the NUL-terminated IR string list followed by
// the NUL-terminated function names, returning the blob and a map from
// function name to its offset within it.
func buildStrtab(strings []string, functionNames []string) ([]byte, map[string]int) {
	var buf []byte
	for _, s := range strings {
		buf = append(buf, []byte(s)...)
		buf = append(buf, 0)
	}
	offsets := make(map[string]int, len(functionNames))
	for _, name := range functionNames {
		offsets[name] = len(buf)
		buf = append(buf, []byte(name)...)
		buf = append(buf, 0)
	}
	return buf, offsets
}

func appendSymbol(buf []byte, rec symbolRecord) []byte {
	var tmp [symbolRecordSize]byte
	binary.LittleEndian.PutUint32(tmp[0:4], rec.nameOffset)
	binary.LittleEndian.PutUint32(tmp[4:8], rec.value)
	binary.LittleEndian.PutUint16(tmp[8:10], rec.size)
	tmp[10] = rec.typ
	tmp[11] = rec.binding
	return append(buf, tmp[:]...)
}

func putU32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func putU16(buf []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+2], v)
}

func putString(buf []byte, offset int, s string, maxLen int) {
	b := []byte(s)
	if len(b) > maxLen {
		b = b[:maxLen]
	}
	copy(buf[offset:], b)
	// Remaining bytes, including the slot after a truncated string,
	// stay zero — the buffer starts zero-filled and is never widened.
}
