package rnalign

import (
	"runtime"
	"strings"
	"time"
)

// Method selects the search strategy.
type Method string

const (
	// MethodGeometric is the batched branch-and-extend search.
	MethodGeometric Method = "geometric"
	// MethodGenetic is the population based search.
	MethodGenetic Method = "genetic"
)

// ParseMethod parses a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodGeometric:
		return MethodGeometric, nil
	case MethodGenetic:
		return MethodGenetic, nil
	default:
		return "", &ErrInvalidConfig{Field: "Method", Reason: "unknown method " + s}
	}
}

// Config holds every tunable of an alignment run.
type Config struct {
	Method Method

	// RMSDLimit is the maximum RMSD (Å) of the final alignment.
	RMSDLimit float64
	// PairRMSDLimit bounds 2-residue cores, TripleRMSDLimit 3-residue cores.
	PairRMSDLimit   float64
	TripleRMSDLimit float64

	// Threads is the number of workers. Zero means GOMAXPROCS.
	Threads int
	// ReturnTime is the wall-clock budget of the whole run.
	ReturnTime time.Duration

	// Geometric search.
	DualCoreBatches          int
	TripleCoreBatchMinimum   int
	TripleCoreBestPercentage float64
	RefitSlack               int

	// Genetic search.
	PopulationSize  int
	BestPercentage  float64
	ResetThreadTime time.Duration
	StagnationLimit int

	// Offspring creation chances, relative weights.
	CrossChance       int
	MutationChance    int
	NewSpecimenChance int

	// Percentages for 1, 2, 3 or 4 primitive mutations per mutation step.
	SingleMutation    int
	DoubleMutation    int
	TripleMutation    int
	QuadrupleMutation int

	// GeometricPopulationSeeding builds the initial genetic populations from
	// chains grown by the geometric search.
	GeometricPopulationSeeding bool

	// Adaptive deadline of the genetic search.
	DeadlineStartPercentage float64
	WaitBufferPercentage    float64
	WaitBufferFlat          time.Duration
	ImprResultPercentage    float64
	ImprResultFlat          time.Duration
	ImprRMSDPercentage      float64
	ImprRMSDFlat            time.Duration

	// SequenceDependent only pairs residues with the same nucleotide code.
	SequenceDependent bool
	// RespectOrder counts pairs that break the residue order as incorrect.
	RespectOrder bool

	// Seed of the run's random streams. Zero picks a time based seed.
	Seed int64
}

// DefaultConfig returns the defaults of the original command-line tool.
func DefaultConfig() Config {
	return Config{
		Method:          MethodGeometric,
		RMSDLimit:       3.5,
		PairRMSDLimit:   0.65,
		TripleRMSDLimit: 1.0,
		Threads:         runtime.GOMAXPROCS(0),
		ReturnTime:      300 * time.Second,

		DualCoreBatches:          4,
		TripleCoreBatchMinimum:   10,
		TripleCoreBestPercentage: 0.1,
		RefitSlack:               3,

		PopulationSize:  200,
		BestPercentage:  0.15,
		ResetThreadTime: 60 * time.Second,
		StagnationLimit: 500,

		CrossChance:       25,
		MutationChance:    74,
		NewSpecimenChance: 1,

		SingleMutation:    65,
		DoubleMutation:    15,
		TripleMutation:    10,
		QuadrupleMutation: 10,

		DeadlineStartPercentage: 0.25,
		WaitBufferPercentage:    0.5,
		WaitBufferFlat:          5 * time.Second,
		ImprResultPercentage:    0.2,
		ImprResultFlat:          10 * time.Second,
		ImprRMSDPercentage:      0.1,
		ImprRMSDFlat:            5 * time.Second,
	}
}

// Validate reports the first invalid field as *ErrInvalidConfig.
func (c Config) Validate() error {
	invalid := func(field, reason string) error {
		return &ErrInvalidConfig{Field: field, Reason: reason}
	}

	switch c.Method {
	case MethodGeometric, MethodGenetic:
	default:
		return invalid("Method", "unknown method "+string(c.Method))
	}

	switch {
	case c.RMSDLimit <= 0:
		return invalid("RMSDLimit", "must be positive")
	case c.PairRMSDLimit <= 0:
		return invalid("PairRMSDLimit", "must be positive")
	case c.TripleRMSDLimit < c.PairRMSDLimit:
		return invalid("TripleRMSDLimit", "must not be lower than PairRMSDLimit")
	case c.Threads < 0:
		return invalid("Threads", "must not be negative")
	case c.ReturnTime <= 0:
		return invalid("ReturnTime", "must be positive")
	case c.DualCoreBatches < 1:
		return invalid("DualCoreBatches", "must be at least 1")
	case c.TripleCoreBatchMinimum < 1:
		return invalid("TripleCoreBatchMinimum", "must be at least 1")
	case !isFraction(c.TripleCoreBestPercentage):
		return invalid("TripleCoreBestPercentage", "must be in [0,1]")
	case c.RefitSlack < 0:
		return invalid("RefitSlack", "must not be negative")
	}

	if c.Method != MethodGenetic {
		return nil
	}

	switch {
	case c.PopulationSize < 2:
		return invalid("PopulationSize", "must be at least 2")
	case !isFraction(c.BestPercentage):
		return invalid("BestPercentage", "must be in [0,1]")
	case c.ResetThreadTime <= 0:
		return invalid("ResetThreadTime", "must be positive")
	case c.StagnationLimit < 0:
		return invalid("StagnationLimit", "must not be negative")
	case c.CrossChance < 0 || c.MutationChance < 0 || c.NewSpecimenChance < 0:
		return invalid("CrossChance", "chances must not be negative")
	case c.CrossChance+c.MutationChance+c.NewSpecimenChance == 0:
		return invalid("CrossChance", "chances must not all be zero")
	case c.SingleMutation < 0 || c.DoubleMutation < 0 || c.TripleMutation < 0 || c.QuadrupleMutation < 0:
		return invalid("SingleMutation", "mutation percentages must not be negative")
	case c.SingleMutation+c.DoubleMutation+c.TripleMutation+c.QuadrupleMutation != 100:
		return invalid("SingleMutation", "mutation percentages must add up to 100")
	case !isFraction(c.DeadlineStartPercentage) || c.DeadlineStartPercentage == 0:
		return invalid("DeadlineStartPercentage", "must be in (0,1]")
	case !isFraction(c.WaitBufferPercentage):
		return invalid("WaitBufferPercentage", "must be in [0,1]")
	case !isFraction(c.ImprResultPercentage):
		return invalid("ImprResultPercentage", "must be in [0,1]")
	case !isFraction(c.ImprRMSDPercentage):
		return invalid("ImprRMSDPercentage", "must be in [0,1]")
	case c.WaitBufferFlat < 0 || c.ImprResultFlat < 0 || c.ImprRMSDFlat < 0:
		return invalid("WaitBufferFlat", "flat extensions must not be negative")
	}
	return nil
}

func (c Config) threads() int {
	if c.Threads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Threads
}

func isFraction(f float64) bool {
	return f >= 0 && f <= 1
}
