// Package script decodes and encodes the SCPT record: the compiled game
// script as stored in TES3 plugin files.
//
// The package reproduces the tolerance behavior of the original game data
// loader. Plugin files from decades of authoring tools contain malformed
// variable-name tables, size fields that disagree with each other, and
// stray padding; all of that must load, because one broken script must not
// take the rest of the file down with it.
//
// # Record Layout
//
// A script record carries up to five subrecords:
//
//	SCHD  id[32] + 5 x uint32 counters (always present, always first on write)
//	SCVR  NUL-separated variable names (omitted when there are none)
//	SCDT  compiled script data, ScriptDataSize bytes
//	SCTX  source text (omitted when empty)
//	DELE  deletion marker (replaces SCVR/SCDT/SCTX entirely)
//
// The SCHD counters declare how the later subrecords parse: the three
// variable counts give the expected name-table entry count, ScriptDataSize
// is the authoritative compiled-data length, and StringTableSize is the
// advisory byte length of the name table.
//
// # Tolerance Rules
//
// The name-table scanner repairs what it can and reports what it repaired:
//
//   - A subrecord larger than the declared table size has its excess
//     skipped. Smaller than declared is fatal.
//   - CR bytes act as name terminators (a known authoring-tool bug).
//   - A missing final terminator is appended.
//   - A table that runs out of bytes early yields the names found so far.
//
// The compiled-data block always comes back with exactly the header's
// declared length: short subrecords are zero-extended, long ones have
// their tail dropped.
//
// None of these repairs abort the load. Each produces an esm.Diagnostic in
// Load's result instead of being logged, so callers decide what surfaces.
// Structural damage (an unknown subrecord tag, a table overrunning its
// subrecord, a missing SCHD) is a fatal *esm.ParseError.
//
// # Usage
//
// Loading every script in a plugin:
//
//	r, err := esm.OpenFile("plugin.esp")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for {
//	    tag, err := r.NextRecord()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    if tag != esm.RecSCPT {
//	        continue // NextRecord skips unread records
//	    }
//	    var s script.Script
//	    diags, err := s.Load(r)
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
//
// Writing one back:
//
//	w.StartRecord(esm.RecSCPT, s.Flags)
//	if err := s.Save(w); err != nil {
//	    return err
//	}
//	if err := w.EndRecord(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Script values have no internal synchronization. Load and Save own the
// cursor they are handed for the duration of the call; callers loading
// files in parallel give each goroutine its own reader and Script.
package script
