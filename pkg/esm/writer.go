package esm

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
)

// Writer emits records to a plugin file. The current record is buffered in
// memory so record and subrecord sizes can be fixed up before anything hits
// the underlying stream; only EndRecord performs real writes.
//
// Field writers never fail. Misuse of the framing calls (ending a record
// that was never started, writing fields outside a subrecord) panics, since
// that is a programming error rather than an I/O condition.
type Writer struct {
	w    io.Writer
	bw   *bufio.Writer
	file *os.File // owned handle when constructed via CreateFile
	enc  *Encoding

	data     []byte // payload of the record being built
	recTag   FourCC
	recFlags uint32
	inRecord bool
	subStart int // index of the open subrecord's size field, -1 if none
	records  uint32
}

// NewWriter wraps an existing stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, subStart: -1}
}

// CreateFile creates (or truncates) a plugin file for writing. The returned
// writer owns the handle; Close flushes and releases it.
func CreateFile(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{file: file, subStart: -1}
	w.bw = bufio.NewWriter(file)
	w.w = w.bw
	return w, nil
}

// SetEncoding sets the character encoding applied to strings written to the
// file. A nil encoding leaves bytes untranslated.
func (w *Writer) SetEncoding(enc *Encoding) {
	w.enc = enc
}

// RecordCount returns the number of records written so far.
func (w *Writer) RecordCount() uint32 {
	return w.records
}

// StartRecord begins a new record with the given tag and status flags.
func (w *Writer) StartRecord(tag FourCC, flags uint32) {
	if w.inRecord {
		panic("esm: StartRecord inside an open record")
	}
	w.recTag = tag
	w.recFlags = flags
	w.inRecord = true
	w.data = w.data[:0]
	w.subStart = -1
}

// EndRecord closes the current record and writes it to the stream.
func (w *Writer) EndRecord() error {
	if !w.inRecord {
		panic("esm: EndRecord without StartRecord")
	}
	w.endSub()
	w.inRecord = false

	var hdr [RecordHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(w.recTag))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(w.data)))
	binary.LittleEndian.PutUint32(hdr[12:16], w.recFlags)
	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(w.data); err != nil {
		return err
	}
	w.records++
	return nil
}

// StartSub begins a subrecord inside the current record. Any previously
// open subrecord is closed; the last one closes at EndRecord. The size
// field is backpatched once the payload is complete.
func (w *Writer) StartSub(tag FourCC) {
	if !w.inRecord {
		panic("esm: StartSub outside a record")
	}
	w.endSub()
	var hdr [SubHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(tag))
	w.data = append(w.data, hdr[:]...)
	w.subStart = len(w.data) - 4
}

func (w *Writer) endSub() {
	if w.subStart < 0 {
		return
	}
	size := len(w.data) - (w.subStart + 4)
	binary.LittleEndian.PutUint32(w.data[w.subStart:], uint32(size))
	w.subStart = -1
}

// WriteBytes appends raw bytes to the open subrecord payload.
func (w *Writer) WriteBytes(b []byte) {
	if w.subStart < 0 {
		panic("esm: field write outside a subrecord")
	}
	w.data = append(w.data, b...)
}

// WriteUint32 appends a little-endian uint32 field.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.WriteBytes(b[:])
}

// WriteUint64 appends a little-endian uint64 field.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.WriteBytes(b[:])
}

// WriteFloat32 appends a little-endian IEEE 754 float field.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFixedString appends an n-byte string field, NUL-padded and truncated
// to fit.
func (w *Writer) WriteFixedString(s string, n int) {
	b := w.encode(s)
	if len(b) > n {
		b = b[:n]
	}
	w.WriteBytes(b)
	for i := len(b); i < n; i++ {
		w.data = append(w.data, 0)
	}
}

// WriteSub writes a complete subrecord with the given payload.
func (w *Writer) WriteSub(tag FourCC, payload []byte) {
	w.StartSub(tag)
	if len(payload) > 0 {
		w.WriteBytes(payload)
	}
	w.endSub()
}

// WriteSubString writes a string subrecord without a terminator. An empty
// string is written as a single NUL so the subrecord is never zero-length.
func (w *Writer) WriteSubString(tag FourCC, s string) {
	if s == "" {
		w.WriteSub(tag, []byte{0})
		return
	}
	w.WriteSub(tag, w.encode(s))
}

// WriteSubCString writes a NUL-terminated string subrecord.
func (w *Writer) WriteSubCString(tag FourCC, s string) {
	b := w.encode(s)
	payload := make([]byte, len(b)+1)
	copy(payload, b)
	w.WriteSub(tag, payload)
}

// WriteSubStringOptional writes a string subrecord, or nothing at all when
// the string is empty.
func (w *Writer) WriteSubStringOptional(tag FourCC, s string) {
	if s == "" {
		return
	}
	w.WriteSubString(tag, s)
}

// Flush pushes buffered output to the underlying file, if any.
func (w *Writer) Flush() error {
	if w.bw != nil {
		return w.bw.Flush()
	}
	return nil
}

// Close flushes and releases the file handle if the writer owns one.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return err
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func (w *Writer) encode(s string) []byte {
	if w.enc == nil {
		return []byte(s)
	}
	return w.enc.Encode(s)
}
