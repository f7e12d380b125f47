package esm

import (
	"fmt"
	"strings"
)

// ParseError is a fatal format error. It carries the reader context at the
// point of failure so callers can report exactly where a file went bad.
type ParseError struct {
	File      string
	Record    FourCC
	Subrecord FourCC
	Offset    int64
	Msg       string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("esm: ")
	b.WriteString(e.Msg)
	if e.File != "" {
		fmt.Fprintf(&b, " (file %q", e.File)
		if e.Record != 0 {
			fmt.Fprintf(&b, ", record %s", e.Record)
		}
		if e.Subrecord != 0 {
			fmt.Fprintf(&b, ", subrecord %s", e.Subrecord)
		}
		fmt.Fprintf(&b, ", offset %#x)", e.Offset)
	}
	return b.String()
}

// Context identifies a position in a plugin file: which file, which record
// and subrecord the cursor was inside, and the absolute byte offset.
type Context struct {
	File      string
	Record    FourCC
	Subrecord FourCC
	Offset    int64
}

func (c Context) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s@%#x", c.File, c.Offset)
	if c.Record != 0 {
		fmt.Fprintf(&b, " %s", c.Record)
		if c.Subrecord != 0 {
			fmt.Fprintf(&b, "/%s", c.Subrecord)
		}
	}
	return b.String()
}

// Severity classifies a non-fatal parse event.
type Severity int

const (
	// SeverityVerbose marks tolerated irregularities the parser repaired
	// or absorbed.
	SeverityVerbose Severity = iota
	// SeverityWarning marks irregularities that likely lose data.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityVerbose:
		return "verbose"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a single non-fatal parse event. Parsers return these instead
// of logging; callers decide whether and where they surface.
type Diagnostic struct {
	Severity Severity
	Message  string
	Context  Context
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Context, d.Message)
}

// Diagnostics is an ordered list of non-fatal parse events, oldest first.
type Diagnostics []Diagnostic

// Warnings counts entries at SeverityWarning or above.
func (ds Diagnostics) Warnings() int {
	n := 0
	for _, d := range ds {
		if d.Severity >= SeverityWarning {
			n++
		}
	}
	return n
}
