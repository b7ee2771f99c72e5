package codec

import (
	"testing"
	"time"

	"github.com/hupe1980/rnalign/model"
)

type benchResidue struct {
	Key    string       `json:"key"`
	Code   string       `json:"code"`
	Points [][3]float64 `json:"points"`
}

type benchDocument struct {
	Name     string         `json:"name"`
	Residues []benchResidue `json:"residues"`
}

func benchDoc(n int) benchDocument {
	doc := benchDocument{Name: "bench", Residues: make([]benchResidue, n)}
	for i := range doc.Residues {
		f := float64(i)
		doc.Residues[i] = benchResidue{
			Key:    "A:" + string(rune('0'+i%10)),
			Code:   "G",
			Points: [][3]float64{{f, f + 0.5, f - 0.5}, {f * 1.1, f, 2}, {-f, 3.25, f}},
		}
	}
	return doc
}

func benchOutput(n int) *model.Output {
	out := &model.Output{
		Method:           "geometric",
		Aligned:          n,
		ReferenceIndices: make([]int, n),
		TargetMapping:    make([]int, n),
		Transform:        model.Identity(),
		Elapsed:          1500 * time.Millisecond,
		RMSD:             2.345,
	}
	for i := 0; i < n; i++ {
		out.ReferenceIndices[i] = i
		out.TargetMapping[i] = n - 1 - i
	}
	return out
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func BenchmarkCodec_Marshal_Structure(b *testing.B) {
	doc := benchDoc(1000)

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, doc) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, doc) })
}

func BenchmarkCodec_Unmarshal_Structure(b *testing.B) {
	data := MustMarshal(JSON{}, benchDoc(1000))

	b.Run("stdlib", func(b *testing.B) {
		var sink benchDocument
		benchmarkCodecUnmarshal(b, JSON{}, data, &sink)
		_ = sink
	})
	b.Run("go-json", func(b *testing.B) {
		var sink benchDocument
		benchmarkCodecUnmarshal(b, GoJSON{}, data, &sink)
		_ = sink
	})
}

func BenchmarkCodec_Marshal_Output(b *testing.B) {
	out := benchOutput(1000)

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, out) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, out) })
}
