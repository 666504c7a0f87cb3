package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaticWorkerConfigHolderFillsDefaults(t *testing.T) {
	holder := NewStaticWorkerConfigHolder(WorkerConfig{})
	cfg := holder.Get()

	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 200, cfg.MaxBatch)
	assert.Equal(t, 2, cfg.MaxVerifyAttempts)
	assert.Equal(t, 2*time.Minute, cfg.LeaseTimeout)
	assert.Equal(t, time.Minute, cfg.RelationCacheTTL)
	assert.Equal(t, 60, cfg.MaxRelationPages)
	assert.Equal(t, 30*time.Second, cfg.BackoffCap)
}

func TestStaticWorkerConfigHolderKeepsExplicitValues(t *testing.T) {
	holder := NewStaticWorkerConfigHolder(WorkerConfig{
		PollInterval: 3 * time.Second,
		MaxBatch:     10,
	})
	cfg := holder.Get()

	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.MaxBatch)
	// Untouched knobs still come from the defaults.
	assert.Equal(t, 2, cfg.MaxVerifyAttempts)
}
