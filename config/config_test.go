package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ALLOCATION_MAX_ATTEMPTS", "")
	t.Setenv("ALLOCATION_TIMEOUT", "")
	t.Setenv("TIMELINE_TIMEOUT", "")
	t.Setenv("AUTO_MIGRATE", "")

	cfg := Load()
	assert.Equal(t, DefaultAllocationMaxAttempts, cfg.AllocationMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.AllocationTimeout)
	assert.Equal(t, 3*time.Second, cfg.TimelineTimeout)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ALLOCATION_MAX_ATTEMPTS", "8")
	t.Setenv("ALLOCATION_TIMEOUT", "750ms")
	t.Setenv("TIMELINE_TIMEOUT", "2")
	t.Setenv("AUTO_MIGRATE", "off")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	assert.Equal(t, 8, cfg.AllocationMaxAttempts)
	assert.Equal(t, 750*time.Millisecond, cfg.AllocationTimeout)
	assert.Equal(t, 2*time.Second, cfg.TimelineTimeout)
	assert.False(t, cfg.AutoMigrate)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidAttempts(t *testing.T) {
	t.Setenv("ALLOCATION_MAX_ATTEMPTS", "0")
	cfg := Load()
	assert.Equal(t, DefaultAllocationMaxAttempts, cfg.AllocationMaxAttempts)

	t.Setenv("ALLOCATION_MAX_ATTEMPTS", "many")
	cfg = Load()
	assert.Equal(t, DefaultAllocationMaxAttempts, cfg.AllocationMaxAttempts)
}

func TestGetEnvDurationFallsBack(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "-3s")
	assert.Equal(t, time.Second, getEnvDuration("SOME_TIMEOUT", time.Second))
}
