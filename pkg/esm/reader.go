package esm

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Reader is a sequential cursor over a plugin file. It frames records and
// subrecords and bounds-checks every read against the current frame, so a
// truncated or lying file surfaces as a *ParseError instead of a misread.
//
// The usual loop:
//
//	tag, err := r.NextRecord()   // io.EOF at a clean end of file
//	for r.HasMoreSubs() {
//	    sub, err := r.NextSub()
//	    ... field reads ...
//	}
type Reader struct {
	src    io.ReadSeeker
	reader *bufio.Reader
	file   *os.File // owned handle when constructed via OpenFile
	name   string
	size   int64
	offset int64

	recTag    FourCC
	recSize   uint32
	recFlags  uint32
	recLeft   uint32
	recOffset int64
	inRecord  bool

	subTag  FourCC
	subSize uint32
	subLeft uint32

	enc *Encoding
}

// NewReader wraps an existing stream. name is used in errors and
// diagnostics; size bounds record-size sanity checks and may be zero when
// unknown.
func NewReader(src io.ReadSeeker, name string, size int64) *Reader {
	return &Reader{
		src:    src,
		reader: bufio.NewReader(src),
		name:   name,
		size:   size,
	}
}

// OpenFile opens a plugin file for reading. The returned reader owns the
// handle; Close releases it.
func OpenFile(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	r := NewReader(file, stat.Name(), stat.Size())
	r.file = file
	return r, nil
}

// SetEncoding sets the character encoding used to decode strings read from
// the file. A nil encoding leaves bytes untranslated.
func (r *Reader) SetEncoding(enc *Encoding) {
	r.enc = enc
}

// Name returns the file name used in diagnostics.
func (r *Reader) Name() string {
	return r.name
}

// Offset returns the current absolute byte offset.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Context captures the current cursor position for errors and diagnostics.
func (r *Reader) Context() Context {
	return Context{
		File:      r.name,
		Record:    r.recTag,
		Subrecord: r.subTag,
		Offset:    r.offset,
	}
}

// Fail builds the fatal error for the current position. Parsers call this
// when the file content itself is unusable.
func (r *Reader) Fail(msg string) error {
	return &ParseError{
		File:      r.name,
		Record:    r.recTag,
		Subrecord: r.subTag,
		Offset:    r.offset,
		Msg:       msg,
	}
}

func (r *Reader) failf(format string, args ...interface{}) error {
	return r.Fail(fmt.Sprintf(format, args...))
}

// NextRecord frames the next record, skipping any unread remainder of the
// current one. It returns the record tag, or io.EOF at a clean end of file.
func (r *Reader) NextRecord() (FourCC, error) {
	if r.inRecord {
		if err := r.SkipRecord(); err != nil {
			return 0, err
		}
	}

	r.recOffset = r.offset
	var hdr [RecordHeaderSize]byte
	n, err := io.ReadFull(r.reader, hdr[:])
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		r.offset += int64(n)
		if err == io.ErrUnexpectedEOF {
			return 0, r.Fail("truncated record header")
		}
		return 0, r.failf("read record header: %v", err)
	}
	r.offset += RecordHeaderSize

	r.recTag = FourCC(binary.LittleEndian.Uint32(hdr[0:4]))
	r.recSize = binary.LittleEndian.Uint32(hdr[4:8])
	r.recFlags = binary.LittleEndian.Uint32(hdr[12:16])
	r.recLeft = r.recSize
	r.subTag, r.subSize, r.subLeft = 0, 0, 0
	r.inRecord = true

	if r.size > 0 && int64(r.recSize) > r.size-r.offset {
		return 0, r.failf("record %s declares %d data bytes but only %d remain in file",
			r.recTag, r.recSize, r.size-r.offset)
	}
	return r.recTag, nil
}

// RecordFlags returns the status flags of the current record.
func (r *Reader) RecordFlags() uint32 {
	return r.recFlags
}

// RecordSize returns the declared data size of the current record.
func (r *Reader) RecordSize() uint32 {
	return r.recSize
}

// RecordOffset returns the absolute offset of the current record's header.
func (r *Reader) RecordOffset() int64 {
	return r.recOffset
}

// HasMoreSubs reports whether unread subrecord data remains in the current
// record beyond the current subrecord.
func (r *Reader) HasMoreSubs() bool {
	return r.inRecord && r.recLeft > r.subLeft
}

// NextSub frames the next subrecord, skipping any unread remainder of the
// current one.
func (r *Reader) NextSub() (FourCC, error) {
	if r.subLeft > 0 {
		if err := r.SkipSub(); err != nil {
			return 0, err
		}
	}
	if r.recLeft < SubHeaderSize {
		return 0, r.failf("truncated subrecord header: %d bytes left in record", r.recLeft)
	}

	var hdr [SubHeaderSize]byte
	if _, err := io.ReadFull(r.reader, hdr[:]); err != nil {
		return 0, r.failf("read subrecord header: %v", err)
	}
	r.offset += SubHeaderSize
	r.recLeft -= SubHeaderSize

	r.subTag = FourCC(binary.LittleEndian.Uint32(hdr[0:4]))
	r.subSize = binary.LittleEndian.Uint32(hdr[4:8])
	if r.subSize > r.recLeft {
		return 0, r.failf("subrecord %s declares %d bytes but only %d remain in record",
			r.subTag, r.subSize, r.recLeft)
	}
	r.subLeft = r.subSize
	return r.subTag, nil
}

// SubSize returns the declared payload size of the current subrecord.
func (r *Reader) SubSize() uint32 {
	return r.subSize
}

// SubBytesLeft returns the unread payload bytes of the current subrecord.
func (r *Reader) SubBytesLeft() uint32 {
	return r.subLeft
}

// ReadExact fills buf from the current subrecord payload. Reading past the
// subrecord frame is a fatal error.
func (r *Reader) ReadExact(buf []byte) error {
	n := len(buf)
	if n == 0 {
		return nil
	}
	if uint32(n) > r.subLeft {
		return r.failf("read of %d bytes exceeds %d left in subrecord", n, r.subLeft)
	}
	if _, err := io.ReadFull(r.reader, buf); err != nil {
		return r.failf("unexpected end of file: %v", err)
	}
	r.offset += int64(n)
	r.subLeft -= uint32(n)
	r.recLeft -= uint32(n)
	return nil
}

// ReadUint32 reads a little-endian uint32 field.
func (r *Reader) ReadUint32() (uint32, error) {
	var b [4]byte
	if err := r.ReadExact(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadUint64 reads a little-endian uint64 field.
func (r *Reader) ReadUint64() (uint64, error) {
	var b [8]byte
	if err := r.ReadExact(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// ReadFloat32 reads a little-endian IEEE 754 float field.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFixedString reads an n-byte NUL-padded string field and trims it at
// the first NUL.
func (r *Reader) ReadFixedString(n int) (string, error) {
	buf := make([]byte, n)
	if err := r.ReadExact(buf); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return r.decode(buf), nil
}

// ReadSubData reads the remaining payload of the current subrecord into a
// fresh buffer.
func (r *Reader) ReadSubData() ([]byte, error) {
	buf := make([]byte, r.subLeft)
	if err := r.ReadExact(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadSubString reads the remaining payload of the current subrecord as a
// string, truncated at the first NUL.
func (r *Reader) ReadSubString() (string, error) {
	buf, err := r.ReadSubData()
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return r.decode(buf), nil
}

// Skip discards n unread bytes of the current subrecord payload.
func (r *Reader) Skip(n int) error {
	if n == 0 {
		return nil
	}
	if n < 0 || uint32(n) > r.subLeft {
		return r.failf("skip of %d bytes exceeds %d left in subrecord", n, r.subLeft)
	}
	if err := r.discard(n); err != nil {
		return err
	}
	r.subLeft -= uint32(n)
	r.recLeft -= uint32(n)
	return nil
}

// SkipSub discards the unread remainder of the current subrecord.
func (r *Reader) SkipSub() error {
	return r.Skip(int(r.subLeft))
}

// SkipRecord discards the unread remainder of the current record.
func (r *Reader) SkipRecord() error {
	if !r.inRecord {
		return nil
	}
	if err := r.discard(int(r.recLeft)); err != nil {
		return err
	}
	r.recLeft = 0
	r.subTag, r.subSize, r.subLeft = 0, 0, 0
	r.inRecord = false
	return nil
}

func (r *Reader) discard(n int) error {
	if n == 0 {
		return nil
	}
	m, err := r.reader.Discard(n)
	r.offset += int64(m)
	if err != nil {
		return r.failf("unexpected end of file: %v", err)
	}
	return nil
}

// Seek repositions the cursor to an absolute offset, normally one captured
// earlier via RecordOffset. Any open record frame is dropped.
func (r *Reader) Seek(offset int64) error {
	if _, err := r.src.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.reader.Reset(r.src) // drop buffered bytes from the old position
	r.offset = offset
	r.recTag, r.recSize, r.recFlags, r.recLeft = 0, 0, 0, 0
	r.subTag, r.subSize, r.subLeft = 0, 0, 0
	r.inRecord = false
	return nil
}

// Close releases the file handle if the reader owns one.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *Reader) decode(b []byte) string {
	if r.enc == nil {
		return string(b)
	}
	return r.enc.Decode(b)
}
