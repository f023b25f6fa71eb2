package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called
// concurrently without causing race conditions, since each call
// registers against its own fresh registry.
func TestNewMetricsConcurrency(t *testing.T) {
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for range numGoroutines {
		go func() {
			defer wg.Done()
			m, err := NewMetrics()
			assert.NoError(t, err, "NewMetrics failed")
			assert.NotNil(t, m, "NewMetrics returned nil")
		}()
	}

	wg.Wait()
}

// TestInitMetricsIdempotent verifies InitMetrics only takes effect once,
// regardless of how many times or how concurrently it's called.
func TestInitMetricsIdempotent(t *testing.T) {
	first, err := NewMetrics()
	require.NoError(t, err)
	second, err := NewMetrics()
	require.NoError(t, err)
	require.NotSame(t, first, second)

	var wg sync.WaitGroup
	const numGoroutines = 10

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			InitMetrics(first)
			InitMetrics(second)
		}()
	}
	wg.Wait()

	got := GetMetrics()
	require.NotNil(t, got)
	assert.Same(t, first, got, "InitMetrics should keep whichever instance won the race, but never swap afterward")
}
