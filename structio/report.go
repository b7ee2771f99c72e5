package structio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/rnalign/model"
)

// alignmentWidth is the number of residues per sequence strip block.
const alignmentWidth = 80

// Summary holds what WriteReport prints.
type Summary struct {
	SequenceDependent bool
	RMSDLimit         float64
	ReferenceSize     int
	TargetSize        int
	Output            *model.Output
}

// WriteReport writes the human-readable summary of an alignment.
func WriteReport(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)

	mode := "sequence-independent"
	if s.SequenceDependent {
		mode = "sequence-dependent"
	}
	fmt.Fprintf(bw, "Alignment mode: %s\n", mode)
	fmt.Fprintf(bw, "RMSD threshold [Å]: %.2f\n", s.RMSDLimit)
	fmt.Fprintf(bw, "Reference structure size [nts]: %d\n", s.ReferenceSize)
	fmt.Fprintf(bw, "Aligned structure size [nts]: %d\n", s.TargetSize)

	out := s.Output
	if out == nil || out.Aligned == 0 {
		fmt.Fprintf(bw, "Alignment is not found.\n")
		return bw.Flush()
	}

	pct := 0
	if m := min(s.ReferenceSize, s.TargetSize); m > 0 {
		pct = out.Aligned * 100 / m
	}
	ms := out.ElapsedMillis()
	fmt.Fprintf(bw, "Number of aligned residues: %d\n", out.Aligned)
	fmt.Fprintf(bw, "Percentage of aligned residues [%%]: %d\n", pct)
	fmt.Fprintf(bw, "RMSD of aligned fragments [Å]: %.3f\n", out.RMSD)
	fmt.Fprintf(bw, "Processing time [sec]: %d.%03d\n", ms/1000, ms%1000)
	return bw.Flush()
}

// WriteMapping lists every reference residue key next to its mapped target
// key, or "-" when unmapped.
func WriteMapping(w io.Writer, ref, target model.Structure, out *model.Output) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "REF  \t<->\tMODEL\n")
	for i, ri := range out.ReferenceIndices {
		t := "-"
		if ti := out.TargetMapping[i]; ti >= 0 {
			t = target[ti].Key
		}
		fmt.Fprintf(bw, "%s\t<->\t%s\n", ref[ri].Key, t)
	}
	return bw.Flush()
}

// WriteSequenceAlignment writes the reference sequence, a '|' marker line and
// the mapped target codes in blocks of 80 residues.
func WriteSequenceAlignment(w io.Writer, ref, target model.Structure, out *model.Output) error {
	mapped := make([]int, len(ref))
	for i := range mapped {
		mapped[i] = -1
	}
	for i, ri := range out.ReferenceIndices {
		mapped[ri] = out.TargetMapping[i]
	}

	bw := bufio.NewWriter(w)
	var refLine, linkLine, targetLine strings.Builder
	flush := func() {
		fmt.Fprintf(bw, "REF:   %s\n", refLine.String())
		fmt.Fprintf(bw, "       %s\n", linkLine.String())
		fmt.Fprintf(bw, "MODEL: %s\n", targetLine.String())
		refLine.Reset()
		linkLine.Reset()
		targetLine.Reset()
	}

	for i, r := range ref {
		if i > 0 && i%alignmentWidth == 0 {
			flush()
			bw.WriteByte('\n')
		}
		refLine.WriteByte(r.Code)
		if t := mapped[i]; t >= 0 {
			targetLine.WriteByte(target[t].Code)
			linkLine.WriteByte('|')
		} else {
			targetLine.WriteByte('-')
			linkLine.WriteByte(' ')
		}
	}
	flush()
	return bw.Flush()
}
