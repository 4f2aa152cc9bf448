// Package inspect implements the §4.7 inspector: it parses an AKM v2
// artifact and produces a structured report, obtained first and rendered
// to text second, matching the conventional shape of a verification tool.
package inspect

import (
	"fmt"
	"strings"

	"github.com/chazu/akmc/akm"
	"github.com/chazu/akmc/akm/binary"
)

// Result is the structured outcome of inspecting one artifact.
type Result struct {
	Header          *binary.Header
	CapabilityNames []string
	FlagNames       []string
	HeaderChecksumOK  bool
	ContentChecksumOK bool
}

var flagBits = []struct {
	bit  uint16
	name string
}{
	{akm.FlagDebug, "DEBUG"},
	{akm.FlagNative, "NATIVE"},
	{akm.FlagRequired, "REQUIRED"},
	{akm.FlagAutoload, "AUTOLOAD"},
}

// Inspect parses data and builds a Result, or returns an error if the
// artifact is too short or carries a bad magic (spec §4.7).
func Inspect(data []byte) (*Result, error) {
	h, err := binary.ReadHeader(data)
	if err != nil {
		return nil, err
	}
	headerOK, contentOK := binary.VerifyChecksums(data, h)

	r := &Result{
		Header:            h,
		CapabilityNames:   akm.Names(akm.Capability(h.Capabilities)),
		HeaderChecksumOK:  headerOK,
		ContentChecksumOK: contentOK,
	}
	for _, fb := range flagBits {
		if h.Flags&fb.bit != 0 {
			r.FlagNames = append(r.FlagNames, fb.name)
		}
	}
	return r, nil
}

// Report renders r as the human-readable text spec §4.7 describes.
func Report(r *Result) string {
	h := r.Header
	var b strings.Builder
	fmt.Fprintf(&b, "name:            %s\n", h.Name)
	fmt.Fprintf(&b, "version:         %s\n", h.Version)
	fmt.Fprintf(&b, "author:          %s\n", h.Author)
	fmt.Fprintf(&b, "api_version:     %d.%d\n", h.APIVersion>>8, h.APIVersion&0xFF)
	fmt.Fprintf(&b, "kernel_min:      %d.%d.%d\n", (h.KernelMinVersion>>16)&0xFF, (h.KernelMinVersion>>8)&0xFF, h.KernelMinVersion&0xFF)
	fmt.Fprintf(&b, "kernel_max:      %d.%d.%d\n", (h.KernelMaxVersion>>16)&0xFF, (h.KernelMaxVersion>>8)&0xFF, h.KernelMaxVersion&0xFF)
	fmt.Fprintf(&b, "flags:           %s\n", joinOrNone(r.FlagNames))
	fmt.Fprintf(&b, "capabilities:    0x%08X (%s)\n", h.Capabilities, joinOrNone(r.CapabilityNames))
	fmt.Fprintf(&b, "security_level:  %d\n", h.SecurityLevel)
	fmt.Fprintf(&b, "dependencies:    %s\n", joinOrNone(h.Dependencies))
	fmt.Fprintf(&b, "code:            offset=%d size=%d\n", h.CodeOffset, h.CodeSize)
	fmt.Fprintf(&b, "data:            offset=%d size=%d\n", h.DataOffset, h.DataSize)
	fmt.Fprintf(&b, "symtab:          offset=%d size=%d\n", h.SymtabOffset, h.SymtabSize)
	fmt.Fprintf(&b, "strtab:          offset=%d size=%d\n", h.StrtabOffset, h.StrtabSize)
	fmt.Fprintf(&b, "init_offset:     %d\n", h.InitOffset)
	fmt.Fprintf(&b, "cleanup_offset:  %d\n", h.CleanupOffset)
	fmt.Fprintf(&b, "total_size:      %d\n", h.TotalSize)
	fmt.Fprintf(&b, "header_checksum: 0x%08X (%s)\n", h.HeaderChecksum, okOrMismatch(r.HeaderChecksumOK))
	fmt.Fprintf(&b, "content_checksum: 0x%08X (%s)\n", h.ContentChecksum, okOrMismatch(r.ContentChecksumOK))
	return b.String()
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func okOrMismatch(ok bool) string {
	if ok {
		return "ok"
	}
	return "MISMATCH"
}
