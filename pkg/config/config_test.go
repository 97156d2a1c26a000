package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsFillsExpectedValues(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, 1000, cfg.QueueCapacity)
	require.Equal(t, 5, cfg.DefaultMaxConcurrentJobs)
	require.Greater(t, cfg.LogFileMaxBytes, int64(0))
}
