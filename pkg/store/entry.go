package store

import (
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/CyberSys/openmw/pkg/script"
)

// Catalog key layout. Script ids are case-insensitive in game data, so the
// key uses the lowercased id while the entry keeps the original spelling.
const (
	scriptKeyPrefix = "scpt/"
	pluginKeyPrefix = "plugin/"
	schemaKey       = "meta/schema"
)

func scriptKey(id string) []byte {
	return []byte(scriptKeyPrefix + strings.ToLower(id))
}

func pluginKey(name string) []byte {
	return []byte(pluginKeyPrefix + strings.ToLower(name))
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, for use as an iterator upper bound.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Provenance records one plugin's contribution of a script, in load order.
type Provenance struct {
	Plugin      string `cbor:"1,keyasint" json:"plugin"`
	Offset      int64  `cbor:"2,keyasint" json:"offset"`
	RunID       string `cbor:"3,keyasint" json:"run_id"`
	Deleted     bool   `cbor:"4,keyasint,omitempty" json:"deleted,omitempty"`
	Diagnostics int    `cbor:"5,keyasint,omitempty" json:"diagnostics,omitempty"`
}

// ScriptEntry is the stored form of one script: the winning record's body
// plus the full provenance history. The last history element is the winner.
type ScriptEntry struct {
	ID         string       `cbor:"1,keyasint" json:"id"`
	Plugin     string       `cbor:"2,keyasint" json:"plugin"`
	Flags      uint32       `cbor:"3,keyasint,omitempty" json:"flags,omitempty"`
	NumShorts  uint32       `cbor:"4,keyasint,omitempty" json:"num_shorts,omitempty"`
	NumLongs   uint32       `cbor:"5,keyasint,omitempty" json:"num_longs,omitempty"`
	NumFloats  uint32       `cbor:"6,keyasint,omitempty" json:"num_floats,omitempty"`
	VarNames   []string     `cbor:"7,keyasint,omitempty" json:"var_names,omitempty"`
	ScriptData []byte       `cbor:"8,keyasint,omitempty" json:"script_data,omitempty"`
	ScriptText string       `cbor:"9,keyasint,omitempty" json:"script_text,omitempty"`
	Deleted    bool         `cbor:"10,keyasint,omitempty" json:"deleted,omitempty"`
	History    []Provenance `cbor:"11,keyasint,omitempty" json:"history,omitempty"`
}

// Conflicted reports whether more than one plugin provides this script.
func (e *ScriptEntry) Conflicted() bool {
	return len(e.History) > 1
}

// PluginInfo is the stored summary of an indexed plugin file.
type PluginInfo struct {
	Name        string   `cbor:"1,keyasint" json:"name"`
	Author      string   `cbor:"2,keyasint,omitempty" json:"author,omitempty"`
	Description string   `cbor:"3,keyasint,omitempty" json:"description,omitempty"`
	Version     float32  `cbor:"4,keyasint" json:"version"`
	FileType    uint32   `cbor:"5,keyasint" json:"file_type"`
	Masters     []string `cbor:"6,keyasint,omitempty" json:"masters,omitempty"`
	Records     uint32   `cbor:"7,keyasint" json:"records"` // count claimed by the file header
	Scripts     int      `cbor:"8,keyasint" json:"scripts"` // scripts actually indexed
	RunID       string   `cbor:"9,keyasint" json:"run_id"`
}

// entryBody maps a loaded script onto a fresh entry, without provenance.
func entryBody(s *script.Script) ScriptEntry {
	return ScriptEntry{
		ID:         s.ID,
		Flags:      s.Flags,
		NumShorts:  s.Header.NumShorts,
		NumLongs:   s.Header.NumLongs,
		NumFloats:  s.Header.NumFloats,
		VarNames:   s.VarNames,
		ScriptData: s.ScriptData,
		ScriptText: s.ScriptText,
		Deleted:    s.Deleted,
	}
}

// Stored values use canonical CBOR for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalScriptEntry serializes a ScriptEntry to CBOR bytes.
func MarshalScriptEntry(e *ScriptEntry) ([]byte, error) {
	return cborEncMode.Marshal(e)
}

// UnmarshalScriptEntry deserializes a ScriptEntry from CBOR bytes.
func UnmarshalScriptEntry(data []byte) (*ScriptEntry, error) {
	var e ScriptEntry
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("store: unmarshal script entry: %w", err)
	}
	return &e, nil
}

// MarshalPluginInfo serializes a PluginInfo to CBOR bytes.
func MarshalPluginInfo(p *PluginInfo) ([]byte, error) {
	return cborEncMode.Marshal(p)
}

// UnmarshalPluginInfo deserializes a PluginInfo from CBOR bytes.
func UnmarshalPluginInfo(data []byte) (*PluginInfo, error) {
	var p PluginInfo
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("store: unmarshal plugin info: %w", err)
	}
	return &p, nil
}
