package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	latencies := []time.Duration{
		5 * time.Millisecond,
		1 * time.Millisecond,
		3 * time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
	}

	assert.Equal(t, 3*time.Millisecond, percentile(latencies, 0.50))
	assert.Equal(t, 5*time.Millisecond, percentile(latencies, 1.0))
	assert.Equal(t, 1*time.Millisecond, percentile(latencies, 0.0))
	assert.Equal(t, time.Duration(0), percentile(nil, 0.5))

	// input order is preserved
	assert.Equal(t, 5*time.Millisecond, latencies[0])
}
