package store

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberSys/openmw/pkg/esm"
)

// TestPluginCorruptionScenarios tests plugin damage that must abort a scan
func TestPluginCorruptionScenarios(t *testing.T) {
	t.Run("TruncatedRecord", func(t *testing.T) {
		testTruncatedRecord(t)
	})

	t.Run("GarbageHeader", func(t *testing.T) {
		testGarbageHeader(t)
	})

	t.Run("RecordSizeBeyondFile", func(t *testing.T) {
		testRecordSizeBeyondFile(t)
	})

	t.Run("UnknownScriptSubrecord", func(t *testing.T) {
		testUnknownScriptSubrecord(t)
	})

	t.Run("OversizedStringTable", func(t *testing.T) {
		testOversizedStringTable(t)
	})
}

// schdPayload lays out a raw SCHD subrecord payload for hand-built records.
func schdPayload(id string, shorts, longs, floats, dataSize, tableSize uint32) []byte {
	buf := make([]byte, 52)
	copy(buf, id)
	binary.LittleEndian.PutUint32(buf[32:], shorts)
	binary.LittleEndian.PutUint32(buf[36:], longs)
	binary.LittleEndian.PutUint32(buf[40:], floats)
	binary.LittleEndian.PutUint32(buf[44:], dataSize)
	binary.LittleEndian.PutUint32(buf[48:], tableSize)
	return buf
}

type rawSub struct {
	tag     string
	payload []byte
}

// writeDamagedPlugin builds a plugin whose single script record is assembled
// from raw subrecords.
func writeDamagedPlugin(t *testing.T, dir, name string, subs ...rawSub) string {
	t.Helper()

	path := filepath.Join(dir, name)
	w, err := esm.CreateFile(path)
	require.NoError(t, err)

	header := esm.FileHeader{Version: esm.Version13, NumRecords: 1}
	require.NoError(t, header.Write(w))

	w.StartRecord(esm.RecSCPT, 0)
	for _, sub := range subs {
		w.WriteSub(esm.MakeFourCC(sub.tag), sub.payload)
	}
	require.NoError(t, w.EndRecord())
	require.NoError(t, w.Close())
	return path
}

func testTruncatedRecord(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	ctx := context.Background()

	// A healthy plugin indexed first must survive the failed scan below.
	good := writePlugin(t, tmpDir, "good.esp", nil, testScript("keeper", "Begin keeper\nEnd keeper\n"))
	_, err := catalog.IndexPlugin(ctx, good)
	require.NoError(t, err)

	bad := writePlugin(t, tmpDir, "bad.esp", nil, testScript("casualty", "Begin casualty\nEnd casualty\n"))
	raw, err := os.ReadFile(bad)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(bad, raw[:len(raw)-7], 0644))

	_, err = catalog.IndexPlugin(ctx, bad)
	require.Error(t, err)
	var perr *esm.ParseError
	assert.ErrorAs(t, err, &perr)

	// Nothing of the broken plugin was committed as a summary.
	plugins, err := catalog.Plugins()
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.Equal(t, "good.esp", plugins[0].Name)

	_, err = catalog.Script("keeper")
	assert.NoError(t, err)
}

func testGarbageHeader(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	ctx := context.Background()

	// Arbitrary text: the tag is garbage and the size field lies wildly.
	noise := filepath.Join(tmpDir, "noise.esp")
	require.NoError(t, os.WriteFile(noise, []byte("this is not a plugin file at all"), 0644))

	_, err := catalog.IndexPlugin(ctx, noise)
	require.Error(t, err)
	var perr *esm.ParseError
	assert.ErrorAs(t, err, &perr)

	// A well-formed record of the wrong kind is rejected by name.
	wrongKind := filepath.Join(tmpDir, "wrongkind.esp")
	hdr := make([]byte, esm.RecordHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:], uint32(esm.RecSCPT))
	require.NoError(t, os.WriteFile(wrongKind, hdr, 0644))

	_, err = catalog.IndexPlugin(ctx, wrongKind)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TES3")

	// An empty file has no header record at all.
	empty := filepath.Join(tmpDir, "empty.esp")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	_, err = catalog.IndexPlugin(ctx, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records")
}

func testRecordSizeBeyondFile(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	// A valid file header followed by a record claiming far more data than
	// the file holds.
	path := filepath.Join(tmpDir, "liar.esp")
	w, err := esm.CreateFile(path)
	require.NoError(t, err)
	header := esm.FileHeader{Version: esm.Version13, NumRecords: 1}
	require.NoError(t, header.Write(w))
	require.NoError(t, w.Close())

	lying := make([]byte, esm.RecordHeaderSize)
	binary.LittleEndian.PutUint32(lying[0:], uint32(esm.RecSCPT))
	binary.LittleEndian.PutUint32(lying[4:], 1<<30)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write(lying)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = catalog.IndexPlugin(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remain in file")
}

func testUnknownScriptSubrecord(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	path := writeDamagedPlugin(t, tmpDir, "unknown.esp",
		rawSub{"SCHD", schdPayload("x", 0, 0, 0, 0, 0)},
		rawSub{"FNAM", []byte("stray")},
	)

	_, err := catalog.IndexPlugin(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subrecord FNAM")
}

func testOversizedStringTable(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	// The header claims a 64-byte table but the subrecord holds 3 bytes.
	path := writeDamagedPlugin(t, tmpDir, "overrun.esp",
		rawSub{"SCHD", schdPayload("x", 1, 0, 0, 0, 64)},
		rawSub{"SCVR", []byte("ab\x00")},
	)

	_, err := catalog.IndexPlugin(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string table")
}

// TestPluginToleranceScenarios tests damage the scan absorbs with diagnostics
func TestPluginToleranceScenarios(t *testing.T) {
	t.Run("CarriageReturnNames", func(t *testing.T) {
		testCarriageReturnNames(t)
	})

	t.Run("ScriptDataSizeMismatch", func(t *testing.T) {
		testScriptDataSizeMismatch(t)
	})

	t.Run("NamesWithoutVariables", func(t *testing.T) {
		testNamesWithoutVariables(t)
	})
}

func testCarriageReturnNames(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	path := writeDamagedPlugin(t, tmpDir, "crlf.esp",
		rawSub{"SCHD", schdPayload("oldTool", 2, 0, 0, 0, 8)},
		rawSub{"SCVR", []byte("one\rtwo\r")},
	)

	report, err := catalog.IndexPlugin(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scripts)
	assert.Equal(t, 0, report.Diagnostics)

	entry, err := catalog.Script("oldTool")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, entry.VarNames)
}

func testScriptDataSizeMismatch(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	// Header declares 4 data bytes, the subrecord carries 2.
	path := writeDamagedPlugin(t, tmpDir, "shortdata.esp",
		rawSub{"SCHD", schdPayload("shortData", 0, 0, 0, 4, 0)},
		rawSub{"SCDT", []byte{0x01, 0x02}},
	)

	report, err := catalog.IndexPlugin(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Diagnostics)

	entry, err := catalog.Script("shortData")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x00, 0x00}, entry.ScriptData)
	require.Len(t, entry.History, 1)
	assert.Equal(t, 1, entry.History[0].Diagnostics)
}

func testNamesWithoutVariables(t *testing.T) {
	catalog, tmpDir := openTestCatalog(t)
	defer catalog.Close()

	// A table with data but a zero variable count draws a warning.
	path := writeDamagedPlugin(t, tmpDir, "novars.esp",
		rawSub{"SCHD", schdPayload("noVars", 0, 0, 0, 0, 5)},
		rawSub{"SCVR", []byte("junk\x00")},
	)

	report, err := catalog.IndexPlugin(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Diagnostics)

	entry, err := catalog.Script("noVars")
	require.NoError(t, err)
	assert.Empty(t, entry.VarNames)
}
