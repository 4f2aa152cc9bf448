package akm

// AKM v2 binary container constants (spec §6). The header is exactly
// HeaderSize bytes and every offset below is byte-exact.
const (
	Magic         uint32 = 0x324D4B41 // "AKM2", little-endian on the wire
	FormatVersion uint16 = 2
	HeaderSize    int    = 512

	DefaultAPIVersion    uint16 = 0x0200      // "2.0"
	DefaultKernelMinVer  uint32 = 0x00080000
	DefaultKernelMaxVer  uint32 = 0           // any
	MaxDependencies      int    = 4
	MaxNameLen           int    = 31 // + NUL
	MaxVersionLen        int    = 15 // + NUL
	MaxAuthorLen         int    = 31 // + NUL
	MaxDependencyNameLen int    = 31 // + NUL
)

// Header flag bits (spec §6, offset 6).
const (
	FlagDebug    uint16 = 1 << 0
	FlagNative   uint16 = 1 << 1
	FlagRequired uint16 = 1 << 2
	FlagAutoload uint16 = 1 << 3
)

// Byte offsets of every header field, named exactly as spec §6 lists them.
const (
	OffMagic          = 0
	OffFormatVersion  = 4
	OffFlags          = 6
	OffHeaderSize     = 8
	OffTotalSize      = 12
	OffName           = 16
	OffVersion        = 48
	OffAuthor         = 64
	OffAPIVersion     = 96
	OffReserved98     = 98
	OffKernelMinVer   = 100
	OffKernelMaxVer   = 104
	OffCapabilities   = 108
	OffReserved112    = 112
	OffCodeOffset     = 116
	OffCodeSize       = 120
	OffDataOffset     = 124
	OffDataSize       = 128
	OffRodataOffset   = 132
	OffRodataSize     = 136
	OffBSSSize        = 140
	OffReserved144    = 144
	OffInitOffset     = 164
	OffCleanupOffset  = 168
	OffReserved172    = 172
	OffSymtabOffset   = 180
	OffSymtabSize     = 184
	OffStrtabOffset   = 188
	OffStrtabSize     = 192
	OffReserved196    = 196
	OffDepCount       = 212
	OffReserved213    = 213
	OffDependencies   = 216
	OffSecurityLevel  = 344
	OffSignatureType  = 345
	OffReserved346    = 346
	OffHeaderChecksum = 348
	OffContentChecksum = 352
	OffSignature      = 356
	OffReserved420    = 420
	OffPadding        = 448

	DependencySlotSize = 32
	SignatureSize      = 64
)
