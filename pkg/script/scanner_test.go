package script

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/CyberSys/openmw/pkg/esm"
)

// openVarTable builds a one-record file whose single SCVR subrecord holds
// payload, frames it, and positions the cursor on the subrecord.
func openVarTable(t *testing.T, payload []byte) *esm.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := esm.NewWriter(&buf)
	w.StartRecord(esm.RecSCPT, 0)
	w.WriteSub(esm.SubSCVR, payload)
	if err := w.EndRecord(); err != nil {
		t.Fatalf("EndRecord failed: %v", err)
	}

	r := esm.NewReader(bytes.NewReader(buf.Bytes()), "test.esp", int64(buf.Len()))
	if _, err := r.NextRecord(); err != nil {
		t.Fatalf("NextRecord failed: %v", err)
	}
	if _, err := r.NextSub(); err != nil {
		t.Fatalf("NextSub failed: %v", err)
	}
	return r
}

func counts(shorts, longs, floats, tableSize uint32) Header {
	return Header{
		NumShorts:       shorts,
		NumLongs:        longs,
		NumFloats:       floats,
		StringTableSize: tableSize,
	}
}

func TestDecodeVarNames(t *testing.T) {
	testCases := []struct {
		name      string
		header    Header
		payload   []byte
		wantNames []string
		wantDiags int
		wantSev   esm.Severity
	}{
		{
			name:      "well-formed table",
			header:    counts(2, 1, 0, 12),
			payload:   []byte("one\x00two\x00ten\x00"),
			wantNames: []string{"one", "two", "ten"},
		},
		{
			name:      "trailing junk past declared size is discarded",
			header:    counts(1, 0, 0, 4),
			payload:   []byte("abc\x00JUNKJUNK"),
			wantNames: []string{"abc"},
		},
		{
			name:      "no variables declared but data present",
			header:    counts(0, 0, 0, 4),
			payload:   []byte("abc\x00"),
			wantNames: nil,
			wantDiags: 1,
			wantSev:   esm.SeverityWarning,
		},
		{
			name:      "no variables and no data",
			header:    counts(0, 0, 0, 0),
			payload:   nil,
			wantNames: nil,
		},
		{
			name:      "empty table with variables declared",
			header:    counts(3, 0, 0, 0),
			payload:   nil,
			wantNames: nil,
			wantDiags: 1,
			wantSev:   esm.SeverityWarning,
		},
		{
			name:      "carriage returns terminate names",
			header:    counts(2, 0, 0, 8),
			payload:   []byte("one\rtwo\r"),
			wantNames: []string{"one", "two"},
		},
		{
			name:      "missing final terminator is repaired",
			header:    counts(2, 0, 0, 7),
			payload:   []byte("one\x00two"),
			wantNames: []string{"one", "two"},
			wantDiags: 1,
			wantSev:   esm.SeverityVerbose,
		},
		{
			name:      "table with fewer names than declared",
			header:    counts(0, 0, 5, 8),
			payload:   []byte("one\x00two\x00"),
			wantNames: []string{"one", "two"},
			wantDiags: 1,
			wantSev:   esm.SeverityVerbose,
		},
		{
			name:      "empty names inside the table are kept",
			header:    counts(3, 0, 0, 5),
			payload:   []byte("\x00ab\x00\x00"),
			wantNames: []string{"", "ab", ""},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := openVarTable(t, tc.payload)

			names, diags, err := decodeVarNames(r, tc.header)
			if err != nil {
				t.Fatalf("decodeVarNames failed: %v", err)
			}
			if !reflect.DeepEqual(names, tc.wantNames) {
				t.Errorf("names mismatch: got %q, want %q", names, tc.wantNames)
			}
			if len(diags) != tc.wantDiags {
				t.Fatalf("diagnostics mismatch: got %d (%v), want %d", len(diags), diags, tc.wantDiags)
			}
			if tc.wantDiags > 0 && diags[0].Severity != tc.wantSev {
				t.Errorf("severity mismatch: got %v, want %v", diags[0].Severity, tc.wantSev)
			}
			if left := r.SubBytesLeft(); left != 0 {
				t.Errorf("scanner left %d unread bytes in the subrecord", left)
			}
		})
	}
}

func TestDecodeVarNames_TableLargerThanSubrecord(t *testing.T) {
	r := openVarTable(t, []byte("ab\x00"))

	_, _, err := decodeVarNames(r, counts(1, 0, 0, 64))
	if err == nil {
		t.Fatal("expected a fatal error for a table larger than its subrecord")
	}
	var perr *esm.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *esm.ParseError, got %T: %v", err, err)
	}
	if perr.Subrecord != esm.SubSCVR {
		t.Errorf("error context subrecord: got %v, want SCVR", perr.Subrecord)
	}
}

func TestDecodeVarNames_RoundTrip(t *testing.T) {
	// A table of exactly the declared names re-encodes byte-identical.
	payload := []byte("state\x00timer\x00doOnce\x00")
	r := openVarTable(t, payload)

	names, diags, err := decodeVarNames(r, counts(2, 1, 0, uint32(len(payload))))
	if err != nil {
		t.Fatalf("decodeVarNames failed: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got := encodeVarNames(names); !bytes.Equal(got, payload) {
		t.Errorf("round trip mismatch: got %q, want %q", got, payload)
	}
}

func TestScanNames(t *testing.T) {
	testCases := []struct {
		name          string
		buf           []byte
		count         int
		wantNames     []string
		wantTruncated bool
	}{
		{
			name:      "exact",
			buf:       []byte("a\x00bc\x00"),
			count:     2,
			wantNames: []string{"a", "bc"},
		},
		{
			name:          "buffer exhausted early",
			buf:           []byte("a\x00"),
			count:         3,
			wantNames:     []string{"a"},
			wantTruncated: true,
		},
		{
			name:      "extra names beyond count are ignored",
			buf:       []byte("a\x00b\x00c\x00"),
			count:     1,
			wantNames: []string{"a"},
		},
		{
			name:          "unterminated tail still yields the name",
			buf:           []byte("a\x00bc"),
			count:         2,
			wantNames:     []string{"a", "bc"},
			wantTruncated: true,
		},
		{
			name:      "zero count",
			buf:       []byte("whatever\x00"),
			count:     0,
			wantNames: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			names, truncated := scanNames(tc.buf, tc.count)
			if !reflect.DeepEqual(names, tc.wantNames) {
				t.Errorf("names mismatch: got %q, want %q", names, tc.wantNames)
			}
			if truncated != tc.wantTruncated {
				t.Errorf("truncated mismatch: got %v, want %v", truncated, tc.wantTruncated)
			}
		})
	}
}

func TestEncodeVarNames(t *testing.T) {
	if got := encodeVarNames(nil); len(got) != 0 {
		t.Errorf("empty list should encode to no bytes, got %q", got)
	}
	got := encodeVarNames([]string{"x", "", "longer"})
	want := []byte("x\x00\x00longer\x00")
	if !bytes.Equal(got, want) {
		t.Errorf("encode mismatch: got %q, want %q", got, want)
	}
}
