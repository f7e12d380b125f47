package script

import (
	"bytes"
	"fmt"

	"github.com/CyberSys/openmw/pkg/esm"
)

// decodeVarNames reads the variable-name table from the current subrecord.
// The header declares the table twice over: its byte size and the number of
// names it should yield. Old authoring tools got either wrong in several
// ways, all tolerated short of the declared size overrunning the subrecord.
func decodeVarNames(r *esm.Reader, h Header) ([]string, esm.Diagnostics, error) {
	size := h.StringTableSize
	count := h.VariableCount()

	if left := r.SubBytesLeft(); left < size {
		return nil, nil, r.Fail(fmt.Sprintf(
			"string table of %d bytes is larger than the %d-byte subrecord", size, left))
	}
	buf := make([]byte, size)
	if err := r.ReadExact(buf); err != nil {
		return nil, nil, err
	}
	// Vanilla files carry junk past the declared size; it means nothing.
	if err := r.SkipSub(); err != nil {
		return nil, nil, err
	}

	var diags esm.Diagnostics
	if count == 0 {
		if len(buf) > 0 {
			diags = append(diags, esm.Diagnostic{
				Severity: esm.SeverityWarning,
				Message:  fmt.Sprintf("%d bytes of name data but no variables declared", len(buf)),
				Context:  r.Context(),
			})
		}
		return nil, diags, nil
	}
	if len(buf) == 0 {
		diags = append(diags, esm.Diagnostic{
			Severity: esm.SeverityWarning,
			Message:  fmt.Sprintf("string table empty with %d variables declared", count),
			Context:  r.Context(),
		})
		return nil, diags, nil
	}

	// Some tools terminated names with CR instead of NUL.
	for i, b := range buf {
		if b == '\r' {
			buf[i] = 0
		}
	}
	if buf[len(buf)-1] != 0 {
		diags = append(diags, esm.Diagnostic{
			Severity: esm.SeverityVerbose,
			Message:  "malformed string table",
			Context:  r.Context(),
		})
		buf = append(buf, 0)
	}

	names, truncated := scanNames(buf, count)
	if truncated {
		// The table is advisory; names are recovered from source text by
		// consumers that need them, so a short table is not fatal.
		diags = append(diags, esm.Diagnostic{
			Severity: esm.SeverityVerbose,
			Message:  fmt.Sprintf("string table overflow: %d of %d names", len(names), count),
			Context:  r.Context(),
		})
	}
	return names, diags, nil
}

// scanNames splits a NUL-terminated name table into up to count names in
// table order. It reports whether the buffer ran out before count names
// were collected.
func scanNames(buf []byte, count int) ([]string, bool) {
	names := make([]string, 0, min(count, len(buf)))
	pos := 0
	for len(names) < count {
		if pos >= len(buf) {
			return names, true
		}
		end := bytes.IndexByte(buf[pos:], 0)
		if end < 0 {
			names = append(names, string(buf[pos:]))
			return names, true
		}
		names = append(names, string(buf[pos:pos+end]))
		pos += end + 1
	}
	return names, false
}

// encodeVarNames concatenates names for the wire, each followed by a single
// NUL, with no padding before or after.
func encodeVarNames(names []string) []byte {
	n := 0
	for _, name := range names {
		n += len(name) + 1
	}
	buf := make([]byte, 0, n)
	for _, name := range names {
		buf = append(buf, name...)
		buf = append(buf, 0)
	}
	return buf
}
