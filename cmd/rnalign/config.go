package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hupe1980/rnalign"
	"github.com/hupe1980/rnalign/codec"
	"github.com/hupe1980/rnalign/structio"
)

const usage = "rnalign -r <reference.json> -m <model.json> [OPTIONS]"

// errUsage marks errors caused by bad command-line input.
var errUsage = errors.New("usage")

type storeConfig struct {
	Kind     string
	Root     string
	Bucket   string
	Region   string
	Endpoint string

	AccessKey string
	SecretKey string
	Secure    bool

	Parallelism int
}

type cliConfig struct {
	Reference string
	Model     string
	Output    string

	Method       string
	Mode         string
	RMSD         float64
	PairRMSD     float64
	TripleRMSD   float64
	TimeLimit    int
	Threads      int
	PopSize      int
	GeometricPop bool
	RespectOrder bool
	Seed         int64

	Codec       string
	Compression string
	Store       storeConfig

	MetricsAddr string
	LogFormat   string
	LogLevel    string
}

// loadEnv returns the defaults for every flag, taken from a .env file and
// RNALIGN_* variables when present.
func loadEnv() *cliConfig {
	_ = godotenv.Load()

	return &cliConfig{
		Output:       getEnv("RNALIGN_OUTPUT", ""),
		Method:       getEnv("RNALIGN_METHOD", string(rnalign.MethodGeometric)),
		Mode:         getEnv("RNALIGN_MODE", "seq-indep"),
		RMSD:         getEnvFloat("RNALIGN_RMSD", 3.5),
		PairRMSD:     getEnvFloat("RNALIGN_PAIR_RMSD", 0.65),
		TripleRMSD:   getEnvFloat("RNALIGN_TRIPLE_RMSD", 1.0),
		TimeLimit:    getEnvInt("RNALIGN_TIME_LIMIT", 300),
		Threads:      getEnvInt("RNALIGN_THREADS", runtime.GOMAXPROCS(0)),
		PopSize:      getEnvInt("RNALIGN_POP_SIZE", 200),
		GeometricPop: getEnvBool("RNALIGN_GEOMETRIC_POP", false),
		RespectOrder: getEnvBool("RNALIGN_RESPECT_ORDER", false),
		Seed:         int64(getEnvInt("RNALIGN_SEED", 0)),
		Codec:        getEnv("RNALIGN_CODEC", "go-json"),
		Compression:  getEnv("RNALIGN_COMPRESSION", "none"),
		Store: storeConfig{
			Kind:        getEnv("RNALIGN_STORE", "local"),
			Root:        getEnv("RNALIGN_STORE_ROOT", ""),
			Bucket:      getEnv("RNALIGN_BUCKET", ""),
			Region:      getEnv("RNALIGN_REGION", ""),
			Endpoint:    getEnv("RNALIGN_ENDPOINT", ""),
			AccessKey:   getEnv("RNALIGN_ACCESS_KEY", ""),
			SecretKey:   getEnv("RNALIGN_SECRET_KEY", ""),
			Secure:      getEnvBool("RNALIGN_SECURE", true),
			Parallelism: getEnvInt("RNALIGN_STORE_PARALLELISM", 4),
		},
		MetricsAddr: getEnv("RNALIGN_METRICS_ADDR", ""),
		LogFormat:   getEnv("RNALIGN_LOG_FORMAT", "text"),
		LogLevel:    getEnv("RNALIGN_LOG_LEVEL", "info"),
	}
}

// parseArgs applies command-line flags on top of defaults and validates the
// result.
func parseArgs(defaults *cliConfig, args []string, stderr io.Writer) (*cliConfig, error) {
	c := *defaults
	var target string

	fs := flag.NewFlagSet("rnalign", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s\n\n", usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&c.Reference, "r", c.Reference, "reference structure document")
	fs.StringVar(&c.Reference, "reference", c.Reference, "reference structure document")
	fs.StringVar(&c.Model, "m", c.Model, "model structure document")
	fs.StringVar(&c.Model, "model", c.Model, "model structure document")
	fs.StringVar(&target, "t", "", "same as --model (deprecated)")
	fs.StringVar(&target, "target", "", "same as --model (deprecated)")
	fs.StringVar(&c.Output, "o", c.Output, "output directory (default: directory of the model)")
	fs.StringVar(&c.Output, "output", c.Output, "output directory (default: directory of the model)")

	fs.StringVar(&c.Method, "method", c.Method, "alignment method: geometric, genetic")
	fs.StringVar(&c.Mode, "mode", c.Mode, "aligning mode: seq-indep, seq-dep")
	fs.Float64Var(&c.RMSD, "rmsd", c.RMSD, "maximum RMSD of the aligned fragment in Å")
	fs.IntVar(&c.TimeLimit, "time-limit", c.TimeLimit, "maximum execution time in seconds")
	fs.IntVar(&c.Threads, "threads", c.Threads, "number of worker goroutines")
	fs.Float64Var(&c.PairRMSD, "pair-rmsd", c.PairRMSD, "maximum RMSD of 2-residue cores, at most triple-rmsd")
	fs.Float64Var(&c.TripleRMSD, "triple-rmsd", c.TripleRMSD, "maximum RMSD of 3-residue cores, at least pair-rmsd")
	fs.IntVar(&c.PopSize, "pop-size", c.PopSize, "population size per generation and worker")
	fs.BoolVar(&c.GeometricPop, "geometric-pop", c.GeometricPop, "seed the genetic population with geometric results")
	fs.BoolVar(&c.RespectOrder, "respect-order", c.RespectOrder, "keep the residue order of both structures")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed, 0 picks one from the clock")

	fs.StringVar(&c.Codec, "codec", c.Codec, "document codec: "+strings.Join(codec.Names(), ", "))
	fs.StringVar(&c.Compression, "compression", c.Compression, "compression of written documents: none, zstd, lz4")
	fs.StringVar(&c.Store.Kind, "store", c.Store.Kind, "blob store: local, s3, minio")
	fs.StringVar(&c.Store.Root, "store-root", c.Store.Root, "local root directory or bucket key prefix")
	fs.StringVar(&c.Store.Bucket, "bucket", c.Store.Bucket, "bucket for s3 and minio stores")
	fs.StringVar(&c.Store.Region, "region", c.Store.Region, "s3 region")
	fs.StringVar(&c.Store.Endpoint, "endpoint", c.Store.Endpoint, "s3-compatible or minio endpoint")

	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text, json")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if c.Model == "" {
		c.Model = target
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *cliConfig) validate() error {
	if c.Reference == "" {
		return fmt.Errorf("%w: reference structure is required", errUsage)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model structure is required", errUsage)
	}
	switch strings.ToLower(c.Mode) {
	case "seq-indep", "seq-dep":
	default:
		return fmt.Errorf("%w: unknown mode %q", errUsage, c.Mode)
	}
	if _, err := rnalign.ParseMethod(c.Method); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if _, ok := codec.ByName(c.Codec); !ok {
		return fmt.Errorf("%w: unknown codec %q", errUsage, c.Codec)
	}
	if _, err := c.compression(); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	switch c.Store.Kind {
	case "local":
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("%w: --bucket is required for the %s store", errUsage, c.Store.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", errUsage, c.Store.Kind)
	}
	return nil
}

func (c *cliConfig) sequenceDependent() bool {
	return strings.EqualFold(c.Mode, "seq-dep")
}

func (c *cliConfig) compression() (structio.Compression, error) {
	switch strings.ToLower(c.Compression) {
	case "", "none":
		return structio.CompressionNone, nil
	case "zstd":
		return structio.CompressionZSTD, nil
	case "lz4":
		return structio.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", structio.ErrUnknownCompression, c.Compression)
	}
}

// alignConfig builds the aligner configuration. Tuning parameters without a
// flag keep their defaults.
func (c *cliConfig) alignConfig() (rnalign.Config, error) {
	method, err := rnalign.ParseMethod(c.Method)
	if err != nil {
		return rnalign.Config{}, err
	}

	cfg := rnalign.DefaultConfig()
	cfg.Method = method
	cfg.SequenceDependent = c.sequenceDependent()
	cfg.RespectOrder = c.RespectOrder
	cfg.RMSDLimit = c.RMSD
	cfg.PairRMSDLimit = c.PairRMSD
	cfg.TripleRMSDLimit = c.TripleRMSD
	cfg.Threads = c.Threads
	cfg.ReturnTime = time.Duration(c.TimeLimit) * time.Second
	cfg.PopulationSize = c.PopSize
	cfg.GeometricPopulationSeeding = c.GeometricPop
	cfg.Seed = c.Seed

	if err := cfg.Validate(); err != nil {
		return rnalign.Config{}, err
	}
	return cfg, nil
}

func (c *cliConfig) logger(w io.Writer) *rnalign.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return rnalign.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return rnalign.NewLogger(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
