// Command rnalign aligns two coarse-grained RNA structures and writes the
// report, residue mapping, sequence alignment and superimposed model next to
// the model or into the output directory.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/hupe1980/rnalign"
	"github.com/hupe1980/rnalign/blobstore"
	"github.com/hupe1980/rnalign/codec"
	"github.com/hupe1980/rnalign/model"
	"github.com/hupe1980/rnalign/structio"
)

// Exit codes.
const (
	exitOK     = 0
	exitUsage  = 1
	exitConfig = 2
	exitIO     = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c, err := parseArgs(loadEnv(), args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "rnalign: %v\nusage: %s\n", err, usage)
		return exitUsage
	}

	log := c.logger(stderr)

	cfg, err := c.alignConfig()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return exitConfig
	}

	collector := newPromCollector()
	if c.MetricsAddr != "" {
		stopMetrics, err := serveMetrics(c.MetricsAddr, collector, log)
		if err != nil {
			log.Error("failed to serve metrics", "error", err)
			return exitConfig
		}
		defer stopMetrics()
	}

	store, err := openStore(ctx, c.Store)
	if err != nil {
		log.Error("failed to open store", "store", c.Store.Kind, "error", err)
		return exitIO
	}

	cd, _ := codec.ByName(c.Codec)
	ref, target, err := readStructures(ctx, store, cd, c)
	if err != nil {
		log.Error("failed to read structures", "error", err)
		return exitIO
	}

	runID := uuid.NewString()
	out, err := rnalign.Align(ctx, ref, target, cfg,
		rnalign.WithLogger(log),
		rnalign.WithRunID(runID),
		rnalign.WithMetricsCollector(collector),
	)
	if err != nil {
		log.Error("alignment failed", "error", err)
		return exitConfig
	}

	comp, _ := c.compression()
	res := &results{
		runID:  runID,
		cfg:    c,
		align:  cfg,
		codec:  cd,
		comp:   comp,
		ref:    ref,
		target: target,
		out:    out,
	}
	blobs, err := res.blobs()
	if err != nil {
		log.Error("failed to encode results", "error", err)
		return exitIO
	}
	if err := blobstore.PutAll(ctx, store, blobs, c.Store.Parallelism); err != nil {
		log.Error("failed to write results", "error", err)
		return exitIO
	}
	for _, b := range blobs {
		log.Debug("wrote result", "name", b.Name, "bytes", len(b.Data))
	}

	_, _ = stdout.Write(blobs[0].Data)
	return exitOK
}

func readStructures(ctx context.Context, store blobstore.BlobStore, cd codec.Codec, c *cliConfig) (ref, target model.Structure, err error) {
	data, err := blobstore.GetAll(ctx, store, []string{c.Reference, c.Model}, 2)
	if err != nil {
		return nil, nil, err
	}

	structures := make([]model.Structure, len(data))
	for i, raw := range data {
		doc, err := structio.DecodeDocument(raw, cd)
		if err != nil {
			return nil, nil, err
		}
		if structures[i], err = doc.Structure(); err != nil {
			return nil, nil, err
		}
	}
	return structures[0], structures[1], nil
}

// results turns one alignment into the blobs written to the store.
type results struct {
	runID  string
	cfg    *cliConfig
	align  rnalign.Config
	codec  codec.Codec
	comp   structio.Compression
	ref    model.Structure
	target model.Structure
	out    *model.Output
}

// modelName strips the directory, the compression suffix and the document
// extension from the model name.
func modelName(p string) string {
	base := path.Base(p)
	base = strings.TrimSuffix(base, structio.CompressionForPath(base).Extension())
	if ext := path.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// outputDir returns the directory results are written to.
func (r *results) outputDir() string {
	if r.cfg.Output != "" {
		return r.cfg.Output
	}
	return path.Dir(r.cfg.Model)
}

func (r *results) name(suffix string) string {
	return path.Join(r.outputDir(), modelName(r.cfg.Model)+suffix)
}

// blobs renders every result file. The report comes first. Mapping,
// sequence alignment and the superimposed model are only written when an
// alignment was found.
func (r *results) blobs() ([]blobstore.Blob, error) {
	var report bytes.Buffer
	if err := structio.WriteReport(&report, structio.Summary{
		SequenceDependent: r.align.SequenceDependent,
		RMSDLimit:         r.align.RMSDLimit,
		ReferenceSize:     len(r.ref),
		TargetSize:        len(r.target),
		Output:            r.out,
	}); err != nil {
		return nil, err
	}
	blobs := []blobstore.Blob{{Name: r.name("-output.txt"), Data: report.Bytes()}}

	result, err := structio.EncodeResult(r.resultDocument(), r.codec, r.comp)
	if err != nil {
		return nil, err
	}
	blobs = append(blobs, blobstore.Blob{Name: r.name("-result.json" + r.comp.Extension()), Data: result})

	if r.out.Aligned == 0 {
		return blobs, nil
	}

	var mapping, alignment bytes.Buffer
	if err := structio.WriteMapping(&mapping, r.ref, r.target, r.out); err != nil {
		return nil, err
	}
	if err := structio.WriteSequenceAlignment(&alignment, r.ref, r.target, r.out); err != nil {
		return nil, err
	}
	superimposed, err := structio.EncodeDocument(
		structio.Superimpose(modelName(r.cfg.Model), r.target, r.out.Transform), r.codec, r.comp)
	if err != nil {
		return nil, err
	}

	return append(blobs,
		blobstore.Blob{Name: r.name("-residue-mapping.txt"), Data: mapping.Bytes()},
		blobstore.Blob{Name: r.name("-sequence-alignment.txt"), Data: alignment.Bytes()},
		blobstore.Blob{Name: r.name("-superimposed.json" + r.comp.Extension()), Data: superimposed},
	), nil
}

func (r *results) resultDocument() *structio.ResultDocument {
	return &structio.ResultDocument{
		RunID:         r.runID,
		Reference:     r.cfg.Reference,
		Target:        r.cfg.Model,
		ReferenceSize: len(r.ref),
		TargetSize:    len(r.target),
		Coverage:      r.out.Coverage(len(r.ref), len(r.target)),
		Settings: structio.Settings{
			Method:            string(r.align.Method),
			SequenceDependent: r.align.SequenceDependent,
			RespectOrder:      r.align.RespectOrder,
			RMSDLimit:         r.align.RMSDLimit,
			PairRMSDLimit:     r.align.PairRMSDLimit,
			TripleRMSDLimit:   r.align.TripleRMSDLimit,
			Threads:           r.align.Threads,
			ReturnTime:        r.align.ReturnTime,
			PopulationSize:    r.align.PopulationSize,
			Seed:              r.align.Seed,
		},
		Output: r.out,
	}
}
