package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/chazu/akmc/akm"
)

// Header is the decoded form of the 512-byte AKM v2 header (spec §6),
// used by akm/inspect to render a human-readable report.
type Header struct {
	FormatVersion    uint16
	Flags            uint16
	HeaderSize       uint32
	TotalSize        uint32
	Name             string
	Version          string
	Author           string
	APIVersion       uint16
	KernelMinVersion uint32
	KernelMaxVersion uint32
	Capabilities     uint32
	CodeOffset       uint32
	CodeSize         uint32
	DataOffset       uint32
	DataSize         uint32
	InitOffset       uint32
	CleanupOffset    uint32
	SymtabOffset     uint32
	SymtabSize       uint32
	StrtabOffset     uint32
	StrtabSize       uint32
	DepCount         uint8
	Dependencies     []string
	SecurityLevel    uint8
	SignatureType    uint8
	HeaderChecksum   uint32
	ContentChecksum  uint32
}

// ReadHeader decodes and validates the header of an AKM v2 artifact. A
// buffer shorter than the fixed header size is an error, and so is a
// magic mismatch, whose error names the observed magic in hexadecimal.
func ReadHeader(data []byte) (*Header, error) {
	if len(data) < akm.HeaderSize {
		return nil, fmt.Errorf("artifact too short: %d bytes, need at least %d", len(data), akm.HeaderSize)
	}
	magic := binary.LittleEndian.Uint32(data[akm.OffMagic:])
	if magic != akm.Magic {
		return nil, fmt.Errorf("bad magic: got 0x%08X, want 0x%08X", magic, akm.Magic)
	}

	h := &Header{
		FormatVersion:    binary.LittleEndian.Uint16(data[akm.OffFormatVersion:]),
		Flags:            binary.LittleEndian.Uint16(data[akm.OffFlags:]),
		HeaderSize:       binary.LittleEndian.Uint32(data[akm.OffHeaderSize:]),
		TotalSize:        binary.LittleEndian.Uint32(data[akm.OffTotalSize:]),
		Name:             readString(data, akm.OffName, akm.MaxNameLen+1),
		Version:          readString(data, akm.OffVersion, akm.MaxVersionLen+1),
		Author:           readString(data, akm.OffAuthor, akm.MaxAuthorLen+1),
		APIVersion:       binary.LittleEndian.Uint16(data[akm.OffAPIVersion:]),
		KernelMinVersion: binary.LittleEndian.Uint32(data[akm.OffKernelMinVer:]),
		KernelMaxVersion: binary.LittleEndian.Uint32(data[akm.OffKernelMaxVer:]),
		Capabilities:     binary.LittleEndian.Uint32(data[akm.OffCapabilities:]),
		CodeOffset:       binary.LittleEndian.Uint32(data[akm.OffCodeOffset:]),
		CodeSize:         binary.LittleEndian.Uint32(data[akm.OffCodeSize:]),
		DataOffset:       binary.LittleEndian.Uint32(data[akm.OffDataOffset:]),
		DataSize:         binary.LittleEndian.Uint32(data[akm.OffDataSize:]),
		InitOffset:       binary.LittleEndian.Uint32(data[akm.OffInitOffset:]),
		CleanupOffset:    binary.LittleEndian.Uint32(data[akm.OffCleanupOffset:]),
		SymtabOffset:     binary.LittleEndian.Uint32(data[akm.OffSymtabOffset:]),
		SymtabSize:       binary.LittleEndian.Uint32(data[akm.OffSymtabSize:]),
		StrtabOffset:     binary.LittleEndian.Uint32(data[akm.OffStrtabOffset:]),
		StrtabSize:       binary.LittleEndian.Uint32(data[akm.OffStrtabSize:]),
		DepCount:         data[akm.OffDepCount],
		SecurityLevel:    data[akm.OffSecurityLevel],
		SignatureType:    data[akm.OffSignatureType],
		HeaderChecksum:   binary.LittleEndian.Uint32(data[akm.OffHeaderChecksum:]),
		ContentChecksum:  binary.LittleEndian.Uint32(data[akm.OffContentChecksum:]),
	}

	depCount := int(h.DepCount)
	if depCount > akm.MaxDependencies {
		depCount = akm.MaxDependencies
	}
	for i := 0; i < depCount; i++ {
		h.Dependencies = append(h.Dependencies, readString(data, akm.OffDependencies+i*akm.DependencySlotSize, akm.MaxDependencyNameLen+1))
	}

	return h, nil
}

// VerifyChecksums recomputes both checksums over data and reports
// whether they match the values stored in the header.
func VerifyChecksums(data []byte, h *Header) (headerOK, contentOK bool) {
	headerBytes := make([]byte, 0, akm.HeaderSize-4)
	headerBytes = append(headerBytes, data[:akm.OffHeaderChecksum]...)
	headerBytes = append(headerBytes, data[akm.OffContentChecksum:akm.HeaderSize]...)
	headerOK = akm.Checksum(headerBytes) == h.HeaderChecksum

	content := data[akm.HeaderSize:]
	contentOK = akm.Checksum(content) == h.ContentChecksum
	return
}

func readString(data []byte, offset, maxLen int) string {
	end := offset + maxLen
	if end > len(data) {
		end = len(data)
	}
	raw := data[offset:end]
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		raw = raw[:idx]
	}
	return string(raw)
}
