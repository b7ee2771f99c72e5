package rnalign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, MethodGeometric, cfg.Method)
	assert.Equal(t, 3.5, cfg.RMSDLimit)
	assert.Equal(t, 0.65, cfg.PairRMSDLimit)
	assert.Equal(t, 1.0, cfg.TripleRMSDLimit)
	assert.Equal(t, 300*time.Second, cfg.ReturnTime)
	assert.Equal(t, 200, cfg.PopulationSize)
	assert.Equal(t, 100, cfg.SingleMutation+cfg.DoubleMutation+cfg.TripleMutation+cfg.QuadrupleMutation)

	cfg.Method = MethodGenetic
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		mutate func(*Config)
		field  string
	}{
		{"unknown method", MethodGeometric, func(c *Config) { c.Method = "annealing" }, "Method"},
		{"rmsd", MethodGeometric, func(c *Config) { c.RMSDLimit = -1 }, "RMSDLimit"},
		{"pair rmsd", MethodGeometric, func(c *Config) { c.PairRMSDLimit = 0 }, "PairRMSDLimit"},
		{"triple below pair", MethodGeometric, func(c *Config) { c.TripleRMSDLimit = 0.5 }, "TripleRMSDLimit"},
		{"threads", MethodGeometric, func(c *Config) { c.Threads = -2 }, "Threads"},
		{"return time", MethodGeometric, func(c *Config) { c.ReturnTime = 0 }, "ReturnTime"},
		{"dual batches", MethodGeometric, func(c *Config) { c.DualCoreBatches = 0 }, "DualCoreBatches"},
		{"triple minimum", MethodGeometric, func(c *Config) { c.TripleCoreBatchMinimum = 0 }, "TripleCoreBatchMinimum"},
		{"triple best", MethodGeometric, func(c *Config) { c.TripleCoreBestPercentage = 1.5 }, "TripleCoreBestPercentage"},
		{"population", MethodGenetic, func(c *Config) { c.PopulationSize = 1 }, "PopulationSize"},
		{"best percentage", MethodGenetic, func(c *Config) { c.BestPercentage = 2 }, "BestPercentage"},
		{"reset time", MethodGenetic, func(c *Config) { c.ResetThreadTime = 0 }, "ResetThreadTime"},
		{"chances zero", MethodGenetic, func(c *Config) {
			c.CrossChance, c.MutationChance, c.NewSpecimenChance = 0, 0, 0
		}, "CrossChance"},
		{"mutation sum", MethodGenetic, func(c *Config) { c.SingleMutation = 70 }, "SingleMutation"},
		{"deadline start", MethodGenetic, func(c *Config) { c.DeadlineStartPercentage = 0 }, "DeadlineStartPercentage"},
		{"wait buffer", MethodGenetic, func(c *Config) { c.WaitBufferFlat = -time.Second }, "WaitBufferFlat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Method = tt.method
			tt.mutate(&cfg)

			err := cfg.Validate()
			var ic *ErrInvalidConfig
			require.ErrorAs(t, err, &ic)
			assert.Equal(t, tt.field, ic.Field)
		})
	}
}

func TestConfigValidate_GeneticFieldsIgnoredForGeometric(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 0
	require.NoError(t, cfg.Validate())
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" Genetic ")
	require.NoError(t, err)
	assert.Equal(t, MethodGenetic, m)

	m, err = ParseMethod("geometric")
	require.NoError(t, err)
	assert.Equal(t, MethodGeometric, m)

	_, err = ParseMethod("simulated")
	var ic *ErrInvalidConfig
	require.ErrorAs(t, err, &ic)
}

func TestConfigThreads(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threads = 0
	assert.Positive(t, cfg.threads())
	cfg.Threads = 3
	assert.Equal(t, 3, cfg.threads())
}
