package esm

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoding translates between the single-byte character sets legacy plugin
// files were shipped in and UTF-8. English releases use win1252; win1250
// and win1251 cover the Central European and Cyrillic releases.
type Encoding struct {
	name string
	cm   *charmap.Charmap
}

var encodings = map[string]*charmap.Charmap{
	"win1250": charmap.Windows1250,
	"win1251": charmap.Windows1251,
	"win1252": charmap.Windows1252,
	"utf8":    nil,
}

// EncodingByName resolves an encoding name from configuration. "utf8" is a
// passthrough for files already converted.
func EncodingByName(name string) (*Encoding, error) {
	cm, ok := encodings[name]
	if !ok {
		return nil, fmt.Errorf("esm: unknown encoding %q (supported: utf8, win1250, win1251, win1252)", name)
	}
	return &Encoding{name: name, cm: cm}, nil
}

// Windows1252 returns the default encoding for English game data.
func Windows1252() *Encoding {
	return &Encoding{name: "win1252", cm: charmap.Windows1252}
}

func (e *Encoding) String() string {
	return e.name
}

// Decode translates file bytes to a UTF-8 string.
func (e *Encoding) Decode(b []byte) string {
	if e == nil || e.cm == nil {
		return string(b)
	}
	out, err := e.cm.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// Encode translates a UTF-8 string to file bytes. Runes the target set
// cannot represent are substituted rather than failing the write.
func (e *Encoding) Encode(s string) []byte {
	if e == nil || e.cm == nil {
		return []byte(s)
	}
	out, err := encoding.ReplaceUnsupported(e.cm.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
