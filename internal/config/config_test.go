package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineConfig_Valid(t *testing.T) {
	p := DefaultPipelineConfig()
	require.NoError(t, p.Validate())
	assert.Equal(t, DuplicateFail, p.DuplicatePolicy)
	assert.Equal(t, DateOrderMDY, p.DateOrder)
	assert.False(t, p.SafetyMode)
	assert.Equal(t, "sha256", p.DigestAlgorithm)
}

func TestPipelineConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"bad duplicate policy", func(p *PipelineConfig) { p.DuplicatePolicy = "drop" }},
		{"bad date order", func(p *PipelineConfig) { p.DateOrder = "ymd" }},
		{"bad digest", func(p *PipelineConfig) { p.DigestAlgorithm = "md5" }},
		{"min samples too small", func(p *PipelineConfig) { p.MinSamples = 1 }},
		{"zero max samples", func(p *PipelineConfig) { p.MaxSamples = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPipelineConfig()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.BatchParallelism)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CURELOG_BATCH_PARALLELISM", "16")
	t.Setenv("CURELOG_LOG_LEVEL", "debug")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.BatchParallelism)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidParallelism(t *testing.T) {
	t.Setenv("CURELOG_BATCH_PARALLELISM", "-2")
	_, err := Load()
	assert.Error(t, err)
}
