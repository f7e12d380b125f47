package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CyberSys/openmw/pkg/esm"
)

// Script ids live in a 32-byte NUL-padded field on the wire.
const idFieldLen = 32

// Script data blocks in shipped content top out in the tens of kilobytes;
// anything near this cap is a corrupt or hostile size field.
const maxScriptDataSize = 1 << 24

var (
	// ErrShortScriptData means the data buffer holds fewer bytes than the
	// header declares, so Save cannot emit the record.
	ErrShortScriptData = errors.New("script data shorter than header declares")
	// ErrIDTooLong means the id does not fit the fixed-width wire field.
	ErrIDTooLong = errors.New("script id longer than 32 bytes")
)

// Script is one compiled game script: its header counters, the advisory
// variable-name table, the compiled data block, and the source text.
//
// VarNames may be shorter than Header.VariableCount after loading a
// damaged table; ScriptData always has exactly Header.ScriptDataSize bytes
// after a successful Load.
type Script struct {
	ID         string
	Flags      uint32
	Header     Header
	VarNames   []string
	ScriptData []byte
	ScriptText string
	Deleted    bool
}

// Load populates the script from the subrecords of the current record. The
// caller has already framed the SCPT record on the reader. Tolerated
// irregularities come back as diagnostics; structural damage is an error.
// The receiver is fully reset first, so instances can be reused across
// records.
func (s *Script) Load(r *esm.Reader) (esm.Diagnostics, error) {
	*s = Script{Flags: r.RecordFlags()}

	var diags esm.Diagnostics
	hasHeader := false
	for r.HasMoreSubs() {
		tag, err := r.NextSub()
		if err != nil {
			return diags, err
		}
		switch tag {
		case esm.SubSCHD:
			if s.ID, err = r.ReadFixedString(idFieldLen); err != nil {
				return diags, err
			}
			if err = s.Header.Decode(r); err != nil {
				return diags, err
			}
			hasHeader = true

		case esm.SubSCVR:
			names, ds, err := decodeVarNames(r, s.Header)
			diags = append(diags, ds...)
			if err != nil {
				return diags, err
			}
			s.VarNames = names

		case esm.SubSCDT:
			data, ds, err := readScriptData(r, s.Header)
			diags = append(diags, ds...)
			if err != nil {
				return diags, err
			}
			s.ScriptData = data

		case esm.SubSCTX:
			if s.ScriptText, err = r.ReadSubString(); err != nil {
				return diags, err
			}

		case esm.SubDELE:
			if err = r.SkipSub(); err != nil {
				return diags, err
			}
			s.Deleted = true

		default:
			return diags, r.Fail(fmt.Sprintf("unknown subrecord %s in script record", tag))
		}
	}

	if !hasHeader {
		return diags, r.Fail("missing SCHD subrecord")
	}
	return diags, nil
}

// readScriptData copies the compiled data block. The header's declared size
// wins over the subrecord's actual size: the returned buffer always has
// exactly Header.ScriptDataSize bytes, short subrecords are zero-extended
// and long ones have their tail dropped, with a diagnostic either way.
func readScriptData(r *esm.Reader, h Header) ([]byte, esm.Diagnostics, error) {
	declared := h.ScriptDataSize
	actual := r.SubSize()

	var diags esm.Diagnostics
	if actual != declared {
		diags = append(diags, esm.Diagnostic{
			Severity: esm.SeverityVerbose,
			Message: fmt.Sprintf("script data size %d in header does not match %d-byte subrecord",
				declared, actual),
			Context: r.Context(),
		})
	}
	if declared > maxScriptDataSize {
		return nil, diags, r.Fail(fmt.Sprintf("unreasonable script data size %d", declared))
	}

	data := make([]byte, declared)
	if err := r.ReadExact(data[:min(declared, actual)]); err != nil {
		return nil, diags, err
	}
	if err := r.SkipSub(); err != nil {
		return nil, diags, err
	}
	return data, diags, nil
}

// Save writes the script's subrecords to an open record frame, header
// first. A deleted script carries only the header and the deletion marker.
// The caller owns the record frame and its flags.
func (s *Script) Save(w *esm.Writer) error {
	if len(s.ID) > idFieldLen {
		return fmt.Errorf("%w: %q", ErrIDTooLong, s.ID)
	}
	if !s.Deleted && len(s.ScriptData) < int(s.Header.ScriptDataSize) {
		return fmt.Errorf("%w: header declares %d bytes, buffer has %d",
			ErrShortScriptData, s.Header.ScriptDataSize, len(s.ScriptData))
	}

	w.StartSub(esm.SubSCHD)
	w.WriteFixedString(s.ID, idFieldLen)
	s.Header.Encode(w)

	if s.Deleted {
		w.WriteSub(esm.SubDELE, nil)
		return nil
	}

	if len(s.VarNames) > 0 {
		w.WriteSub(esm.SubSCVR, encodeVarNames(s.VarNames))
	}
	w.WriteSub(esm.SubSCDT, s.ScriptData[:s.Header.ScriptDataSize])
	w.WriteSubStringOptional(esm.SubSCTX, s.ScriptText)
	return nil
}

// Blank resets the script to a minimal source-only template for its id:
// zero flags and counters, no variables or compiled data, and a skeleton
// text. Namespaced ids need quoting in the Begin line; the End line takes
// the bare id either way.
func (s *Script) Blank() {
	s.Flags = 0
	s.Header = Header{}
	s.VarNames = nil
	s.ScriptData = nil
	s.Deleted = false
	if strings.Contains(s.ID, "::") {
		s.ScriptText = "Begin \"" + s.ID + "\"\n\nEnd " + s.ID + "\n"
	} else {
		s.ScriptText = "Begin " + s.ID + "\n\nEnd " + s.ID + "\n"
	}
}
