package structio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rnalign/codec"
	"github.com/hupe1980/rnalign/model"
	"github.com/hupe1980/rnalign/testutil"
)

func TestCompressionForPath(t *testing.T) {
	tests := map[string]Compression{
		"1ehz.json":          CompressionNone,
		"1ehz.json.zst":      CompressionZSTD,
		"dir/1ehz.JSON.ZSTD": CompressionZSTD,
		"1ehz.json.lz4":      CompressionLZ4,
		"noext":              CompressionNone,
	}
	for p, want := range tests {
		assert.Equal(t, want, CompressionForPath(p), p)
	}
	assert.Equal(t, ".zst", CompressionZSTD.Extension())
	assert.Equal(t, ".lz4", CompressionLZ4.Extension())
	assert.Equal(t, "", CompressionNone.Extension())
	assert.Equal(t, "lz4", CompressionLZ4.String())
}

func TestCompressDecompress(t *testing.T) {
	data := []byte(strings.Repeat(`{"key":"A:1","code":"G"}`, 200))

	for _, c := range []Compression{CompressionNone, CompressionZSTD, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			packed, err := Compress(data, c)
			require.NoError(t, err)
			assert.Equal(t, c, DetectCompression(packed))
			if c != CompressionNone {
				assert.Less(t, len(packed), len(data))
			}

			unpacked, err := Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, data, unpacked)
		})
	}

	_, err := Compress(data, Compression(42))
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestDocumentRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(3)
	s := rng.Structure(25, 3)

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		for _, comp := range []Compression{CompressionNone, CompressionZSTD, CompressionLZ4} {
			data, err := EncodeDocument(NewDocument("1ehz", s), c, comp)
			require.NoError(t, err)

			doc, err := DecodeDocument(data, c)
			require.NoError(t, err)
			assert.Equal(t, "1ehz", doc.Name)

			got, err := doc.Structure()
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
	}
}

func TestDocumentFormat(t *testing.T) {
	s := model.Structure{
		model.NewResidue("A:12", 'G', model.Point3{X: 1, Y: 2, Z: 3}),
	}
	data, err := EncodeDocument(NewDocument("x", s), codec.JSON{}, CompressionNone)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","residues":[{"key":"A:12","code":"G","points":[[1,2,3]]}]}`, string(data))
}

func TestDocumentInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":         `{"name":"x","residues":[]}`,
		"code":          `{"residues":[{"key":"A:1","code":"GU","points":[[0,0,0]]}]}`,
		"points differ": `{"residues":[{"key":"A:1","code":"G","points":[[0,0,0]]},{"key":"A:2","code":"C","points":[[0,0,0],[1,1,1]]}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			doc, err := DecodeDocument([]byte(raw), nil)
			require.NoError(t, err)
			_, err = doc.Structure()
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}

	_, err := DecodeDocument([]byte("not json"), nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestSuperimpose(t *testing.T) {
	rng := testutil.NewRNG(9)
	s := rng.Structure(5, 3)
	tr := rng.RigidTransform(10)

	doc := Superimpose("moved", s, tr)
	got, err := doc.Structure()
	require.NoError(t, err)

	for i := range s {
		assert.Equal(t, s[i].Key, got[i].Key)
		assert.Equal(t, s[i].Code, got[i].Code)
		for j, p := range s[i].Points {
			q := tr.Apply(p)
			assert.InDelta(t, 0, q.Dist(got[i].Points[j]), 1e-9)
		}
	}
}

func TestResultRoundTrip(t *testing.T) {
	doc := &ResultDocument{
		RunID:         "run",
		Reference:     "ref.json",
		Target:        "target.json",
		ReferenceSize: 3,
		TargetSize:    2,
		Coverage:      1,
		Settings:      Settings{Method: "geometric", RMSDLimit: 3.5, ReturnTime: time.Minute},
		Output: &model.Output{
			Method:           "geometric",
			Aligned:          2,
			ReferenceIndices: []int{0, 1, 2},
			TargetMapping:    []int{1, -1, 0},
			Transform:        model.Identity(),
			Elapsed:          time.Second,
			RMSD:             0.5,
		},
	}

	data, err := EncodeResult(doc, nil, CompressionZSTD)
	require.NoError(t, err)

	got, err := DecodeResult(data, nil)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func testOutput() (model.Structure, model.Structure, *model.Output) {
	ref := model.Structure{
		model.NewResidue("A:1", 'G', model.Point3{}),
		model.NewResidue("A:2", 'C', model.Point3{}),
		model.NewResidue("A:3", 'A', model.Point3{}),
	}
	target := model.Structure{
		model.NewResidue("B:7", 'G', model.Point3{}),
		model.NewResidue("B:8", 'U', model.Point3{}),
	}
	out := &model.Output{
		Aligned:          2,
		ReferenceIndices: []int{0, 1, 2},
		TargetMapping:    []int{0, -1, 1},
		Transform:        model.Identity(),
		Elapsed:          2345 * time.Millisecond,
		RMSD:             1.23456,
	}
	return ref, target, out
}

func TestWriteReport(t *testing.T) {
	_, _, out := testOutput()

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Summary{
		RMSDLimit:     3.5,
		ReferenceSize: 3,
		TargetSize:    2,
		Output:        out,
	}))

	want := "Alignment mode: sequence-independent\n" +
		"RMSD threshold [Å]: 3.50\n" +
		"Reference structure size [nts]: 3\n" +
		"Aligned structure size [nts]: 2\n" +
		"Number of aligned residues: 2\n" +
		"Percentage of aligned residues [%]: 100\n" +
		"RMSD of aligned fragments [Å]: 1.235\n" +
		"Processing time [sec]: 2.345\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReport_NotFound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Summary{
		SequenceDependent: true,
		RMSDLimit:         2,
		ReferenceSize:     3,
		TargetSize:        3,
		Output:            &model.Output{},
	}))

	assert.Contains(t, buf.String(), "Alignment mode: sequence-dependent\n")
	assert.True(t, strings.HasSuffix(buf.String(), "Alignment is not found.\n"))
}

func TestWriteReport_PercentageTruncates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Summary{
		RMSDLimit:     3.5,
		ReferenceSize: 100,
		TargetSize:    300,
		Output:        &model.Output{Aligned: 29},
	}))
	assert.Contains(t, buf.String(), "Percentage of aligned residues [%]: 29\n")
}

func TestWriteMapping(t *testing.T) {
	ref, target, out := testOutput()

	var buf bytes.Buffer
	require.NoError(t, WriteMapping(&buf, ref, target, out))

	want := "REF  \t<->\tMODEL\n" +
		"A:1\t<->\tB:7\n" +
		"A:2\t<->\t-\n" +
		"A:3\t<->\tB:8\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSequenceAlignment(t *testing.T) {
	ref, target, out := testOutput()

	var buf bytes.Buffer
	require.NoError(t, WriteSequenceAlignment(&buf, ref, target, out))

	want := "REF:   GCA\n" +
		"       | |\n" +
		"MODEL: G-U\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSequenceAlignment_Blocks(t *testing.T) {
	rng := testutil.NewRNG(1)
	ref := rng.Structure(170, 1)
	out := &model.Output{
		ReferenceIndices: make([]int, len(ref)),
		TargetMapping:    make([]int, len(ref)),
	}
	for i := range ref {
		out.ReferenceIndices[i] = i
		out.TargetMapping[i] = i
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSequenceAlignment(&buf, ref, ref, out))

	blocks := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n\n")
	require.Len(t, blocks, 3)
	lines := strings.Split(blocks[0], "\n")
	require.Len(t, lines, 3)
	assert.Len(t, lines[0], len("REF:   ")+80)
	assert.Equal(t, "       "+strings.Repeat("|", 80), lines[1])
	assert.Len(t, strings.Split(blocks[2], "\n")[0], len("REF:   ")+10)
}
