package structio

import (
	"time"

	"github.com/hupe1980/rnalign/codec"
	"github.com/hupe1980/rnalign/model"
)

// Settings echoes the parameters a result was computed with.
type Settings struct {
	Method            string        `json:"method"`
	SequenceDependent bool          `json:"sequence_dependent"`
	RespectOrder      bool          `json:"respect_order"`
	RMSDLimit         float64       `json:"rmsd_limit"`
	PairRMSDLimit     float64       `json:"pair_rmsd_limit"`
	TripleRMSDLimit   float64       `json:"triple_rmsd_limit"`
	Threads           int           `json:"threads"`
	ReturnTime        time.Duration `json:"return_time"`
	PopulationSize    int           `json:"population_size,omitempty"`
	Seed              int64         `json:"seed,omitempty"`
}

// ResultDocument is the machine-readable outcome of one alignment.
type ResultDocument struct {
	RunID         string        `json:"run_id"`
	Reference     string        `json:"reference"`
	Target        string        `json:"target"`
	ReferenceSize int           `json:"reference_size"`
	TargetSize    int           `json:"target_size"`
	Coverage      float64       `json:"coverage"`
	Settings      Settings      `json:"settings"`
	Output        *model.Output `json:"output"`
}

// EncodeResult marshals doc in indented form when c supports it.
func EncodeResult(doc *ResultDocument, c codec.Codec, comp Compression) ([]byte, error) {
	data, err := codec.MarshalPretty(c, doc)
	if err != nil {
		return nil, err
	}
	return Compress(data, comp)
}

// DecodeResult reverses EncodeResult.
func DecodeResult(data []byte, c codec.Codec) (*ResultDocument, error) {
	if c == nil {
		c = codec.Default
	}
	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	var doc ResultDocument
	if err := c.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
