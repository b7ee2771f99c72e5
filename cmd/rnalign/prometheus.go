package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/rnalign"
)

// promCollector implements rnalign.MetricsCollector on a private registry.
type promCollector struct {
	registry *prometheus.Registry

	pairCores    *prometheus.CounterVec
	tripleCores  prometheus.Counter
	chains       prometheus.Counter
	chainLength  prometheus.Histogram
	generations  *prometheus.CounterVec
	improvements *prometheus.CounterVec
	bestAligned  prometheus.Gauge
	bestRMSD     prometheus.Gauge
	unitFailures prometheus.Counter
	alignLatency *prometheus.HistogramVec
}

var _ rnalign.MetricsCollector = (*promCollector)(nil)

func newPromCollector() *promCollector {
	p := &promCollector{
		registry: prometheus.NewRegistry(),
		pairCores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rnalign_pair_cores_total",
			Help: "Pair cores found, by RMSD band",
		}, []string{"band"}),
		tripleCores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rnalign_triple_cores_total",
			Help: "Triple cores extended",
		}),
		chains: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rnalign_chains_total",
			Help: "Chains grown to completion",
		}),
		chainLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rnalign_chain_length",
			Help:    "Number of aligned residues per completed chain",
			Buckets: prometheus.ExponentialBuckets(4, 2, 10),
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rnalign_generations_total",
			Help: "Genetic generations, by worker",
		}, []string{"worker"}),
		improvements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rnalign_improvements_total",
			Help: "Improvements of the best alignment, by kind",
		}, []string{"kind"}),
		bestAligned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rnalign_best_aligned",
			Help: "Aligned residues of the current best alignment",
		}),
		bestRMSD: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rnalign_best_rmsd",
			Help: "RMSD of the current best alignment",
		}),
		unitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rnalign_unit_failures_total",
			Help: "Units of work that panicked",
		}),
		alignLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rnalign_align_duration_seconds",
			Help:    "Duration of Align calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"method", "status"}),
	}

	p.registry.MustRegister(
		p.pairCores,
		p.tripleCores,
		p.chains,
		p.chainLength,
		p.generations,
		p.improvements,
		p.bestAligned,
		p.bestRMSD,
		p.unitFailures,
		p.alignLatency,
	)
	return p
}

func (p *promCollector) RecordPairCores(band, cores int) {
	p.pairCores.WithLabelValues(strconv.Itoa(band)).Add(float64(cores))
}

func (p *promCollector) RecordTripleCores(_, _, cores int) {
	p.tripleCores.Add(float64(cores))
}

func (p *promCollector) RecordChain(length int, _ float64) {
	p.chains.Inc()
	p.chainLength.Observe(float64(length))
}

func (p *promCollector) RecordGeneration(worker, _ int) {
	p.generations.WithLabelValues(strconv.Itoa(worker)).Inc()
}

func (p *promCollector) RecordImprovement(kind string, aligned int, rmsd float64) {
	p.improvements.WithLabelValues(kind).Inc()
	p.bestAligned.Set(float64(aligned))
	p.bestRMSD.Set(rmsd)
}

func (p *promCollector) RecordUnitFailure() {
	p.unitFailures.Inc()
}

func (p *promCollector) RecordAlign(method rnalign.Method, aligned int, rmsd float64, d time.Duration, err error) {
	status := "success"
	switch {
	case err != nil:
		status = "error"
	case aligned == 0:
		status = "not_found"
	}
	p.alignLatency.WithLabelValues(string(method), status).Observe(d.Seconds())
}

func (p *promCollector) handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// serveMetrics exposes the collector on addr until the returned stop function
// is called.
func serveMetrics(addr string, p *promCollector, log *rnalign.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
