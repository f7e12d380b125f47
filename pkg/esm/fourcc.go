// Package esm reads and writes the TES3 plugin container format: a flat
// sequence of records, each a 16-byte header followed by tagged subrecords.
// All integers are little-endian. Record parsing for specific record types
// lives in higher-level packages; this package provides the framing cursor,
// the writer, and the shared error and diagnostic types.
package esm

// FourCC is a four-character record or subrecord tag, packed little-endian
// so that reading four tag bytes as a uint32 yields the constant directly.
type FourCC uint32

// Record tags.
const (
	RecTES3 FourCC = 'T' | 'E'<<8 | 'S'<<16 | '3'<<24
	RecSCPT FourCC = 'S' | 'C'<<8 | 'P'<<16 | 'T'<<24
)

// Subrecord tags.
const (
	SubHEDR FourCC = 'H' | 'E'<<8 | 'D'<<16 | 'R'<<24
	SubMAST FourCC = 'M' | 'A'<<8 | 'S'<<16 | 'T'<<24
	SubDATA FourCC = 'D' | 'A'<<8 | 'T'<<16 | 'A'<<24
	SubSCHD FourCC = 'S' | 'C'<<8 | 'H'<<16 | 'D'<<24
	SubSCVR FourCC = 'S' | 'C'<<8 | 'V'<<16 | 'R'<<24
	SubSCDT FourCC = 'S' | 'C'<<8 | 'D'<<16 | 'T'<<24
	SubSCTX FourCC = 'S' | 'C'<<8 | 'T'<<16 | 'X'<<24
	SubDELE FourCC = 'D' | 'E'<<8 | 'L'<<16 | 'E'<<24
)

// Header sizes on the wire.
const (
	RecordHeaderSize = 16 // tag(4) + dataSize(4) + unknown(4) + flags(4)
	SubHeaderSize    = 8  // tag(4) + size(4)
)

// Record-level status flags.
const (
	FlagPersistent uint32 = 0x00000400
	FlagBlocked    uint32 = 0x00002000
)

// Format versions carried in the file header.
const (
	Version12 float32 = 1.2
	Version13 float32 = 1.3
)

// File types carried in the file header.
const (
	FileTypePlugin   uint32 = 0
	FileTypeMaster   uint32 = 1
	FileTypeSavegame uint32 = 32
)

// MakeFourCC packs a four-character tag string. It panics if the string is
// not exactly four bytes; tags are compile-time constants in practice.
func MakeFourCC(s string) FourCC {
	if len(s) != 4 {
		panic("esm: tag must be exactly 4 bytes: " + s)
	}
	return FourCC(s[0]) | FourCC(s[1])<<8 | FourCC(s[2])<<16 | FourCC(s[3])<<24
}

// String returns the four tag characters. Bytes outside printable ASCII are
// shown as '?' so corrupt tags stay safe to print.
func (f FourCC) String() string {
	var b [4]byte
	for i := 0; i < 4; i++ {
		c := byte(f >> (8 * i))
		if c < 0x20 || c > 0x7e {
			c = '?'
		}
		b[i] = c
	}
	return string(b[:])
}
