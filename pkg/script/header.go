package script

import "github.com/CyberSys/openmw/pkg/esm"

// Header holds the five fixed-layout counters of the SCHD subrecord, in
// wire order. The variable counts and ScriptDataSize are authoritative for
// parsing the later subrecords; StringTableSize is advisory.
type Header struct {
	NumShorts       uint32
	NumLongs        uint32
	NumFloats       uint32
	ScriptDataSize  uint32
	StringTableSize uint32
}

// Decode reads the five counters from the current subrecord. No validation
// happens here; the counts are checked where they are consumed.
func (h *Header) Decode(r *esm.Reader) error {
	var err error
	if h.NumShorts, err = r.ReadUint32(); err != nil {
		return err
	}
	if h.NumLongs, err = r.ReadUint32(); err != nil {
		return err
	}
	if h.NumFloats, err = r.ReadUint32(); err != nil {
		return err
	}
	if h.ScriptDataSize, err = r.ReadUint32(); err != nil {
		return err
	}
	h.StringTableSize, err = r.ReadUint32()
	return err
}

// Encode writes the five counters in wire order.
func (h Header) Encode(w *esm.Writer) {
	w.WriteUint32(h.NumShorts)
	w.WriteUint32(h.NumLongs)
	w.WriteUint32(h.NumFloats)
	w.WriteUint32(h.ScriptDataSize)
	w.WriteUint32(h.StringTableSize)
}

// VariableCount returns the declared number of local variables across all
// three types. The name table should yield this many entries.
func (h Header) VariableCount() int {
	return int(h.NumShorts) + int(h.NumLongs) + int(h.NumFloats)
}
