//go:build bench
// +build bench

package script

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/CyberSys/openmw/pkg/esm"
)

func benchScript(vars, dataSize int) Script {
	names := make([]string, vars)
	for i := range names {
		names[i] = fmt.Sprintf("local%d", i)
	}
	s := Script{
		ID:         "benchScript",
		Header:     Header{NumShorts: uint32(vars), ScriptDataSize: uint32(dataSize)},
		VarNames:   names,
		ScriptData: bytes.Repeat([]byte{0x2a}, dataSize),
		ScriptText: "Begin benchScript\n\nEnd benchScript\n",
	}
	s.Header.StringTableSize = uint32(len(encodeVarNames(names)))
	return s
}

func BenchmarkScript_Load(b *testing.B) {
	benchmarks := []struct {
		name string
		vars int
		data int
	}{
		{name: "small", vars: 2, data: 64},
		{name: "medium", vars: 16, data: 4096},
		{name: "large", vars: 64, data: 65536},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			s := benchScript(bm.vars, bm.data)
			var buf bytes.Buffer
			w := esm.NewWriter(&buf)
			w.StartRecord(esm.RecSCPT, 0)
			if err := s.Save(w); err != nil {
				b.Fatal(err)
			}
			if err := w.EndRecord(); err != nil {
				b.Fatal(err)
			}
			raw := buf.Bytes()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r := esm.NewReader(bytes.NewReader(raw), "bench.esp", int64(len(raw)))
				if _, err := r.NextRecord(); err != nil {
					b.Fatal(err)
				}
				var loaded Script
				if _, err := loaded.Load(r); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkScript_Save(b *testing.B) {
	benchmarks := []struct {
		name string
		vars int
		data int
	}{
		{name: "small", vars: 2, data: 64},
		{name: "medium", vars: 16, data: 4096},
		{name: "large", vars: 64, data: 65536},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			s := benchScript(bm.vars, bm.data)
			var buf bytes.Buffer

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf.Reset()
				w := esm.NewWriter(&buf)
				w.StartRecord(esm.RecSCPT, 0)
				if err := s.Save(w); err != nil {
					b.Fatal(err)
				}
				if err := w.EndRecord(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkScanNames(b *testing.B) {
	table := encodeVarNames(benchScript(64, 0).VarNames)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if names, _ := scanNames(table, 64); len(names) != 64 {
			b.Fatal("short scan")
		}
	}
}
