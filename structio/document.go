package structio

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rnalign/codec"
	"github.com/hupe1980/rnalign/model"
)

// ErrInvalidDocument is returned for documents that do not describe a valid
// structure.
var ErrInvalidDocument = errors.New("invalid structure document")

// Document is the serialized form of a coarse-grained structure.
type Document struct {
	Name     string        `json:"name"`
	Residues []ResidueDoc `json:"residues"`
}

// ResidueDoc is one residue of a Document.
type ResidueDoc struct {
	Key    string       `json:"key"`
	Code   string       `json:"code"`
	Points [][3]float64 `json:"points"`
}

// NewDocument converts s into a Document.
func NewDocument(name string, s model.Structure) *Document {
	doc := &Document{Name: name, Residues: make([]ResidueDoc, len(s))}
	for i, r := range s {
		rd := ResidueDoc{
			Key:    r.Key,
			Code:   string(r.Code),
			Points: make([][3]float64, len(r.Points)),
		}
		for j, p := range r.Points {
			rd.Points[j] = [3]float64{p.X, p.Y, p.Z}
		}
		doc.Residues[i] = rd
	}
	return doc
}

// Structure converts the document back into a validated structure.
func (d *Document) Structure() (model.Structure, error) {
	s := make(model.Structure, len(d.Residues))
	for i, rd := range d.Residues {
		if len(rd.Code) != 1 {
			return nil, fmt.Errorf("%w: residue %d (%s): code %q is not a single letter", ErrInvalidDocument, i, rd.Key, rd.Code)
		}
		points := make([]model.Point3, len(rd.Points))
		for j, p := range rd.Points {
			points[j] = model.Point3{X: p[0], Y: p[1], Z: p[2]}
		}
		s[i] = model.NewResidue(rd.Key, rd.Code[0], points...)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return s, nil
}

// EncodeDocument marshals doc with c and compresses the result.
func EncodeDocument(doc *Document, c codec.Codec, comp Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return Compress(data, comp)
}

// DecodeDocument decompresses data if needed and unmarshals it with c.
func DecodeDocument(data []byte, c codec.Codec) (*Document, error) {
	if c == nil {
		c = codec.Default
	}
	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := c.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Superimpose returns the document of s moved by t. Residue keys and codes are
// kept.
func Superimpose(name string, s model.Structure, t model.Transform) *Document {
	return NewDocument(name, t.ApplyStructure(s))
}
