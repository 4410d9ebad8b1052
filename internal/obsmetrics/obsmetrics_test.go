package obsmetrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterIncAndAddAccumulate(t *testing.T) {
	c := NewCounter("widgets")
	c.Inc()
	c.Inc()
	c.Add(3)
	require.Equal(t, int64(5), c.Value())
	require.Equal(t, "widgets", c.Name())
}

func TestRegistryGetCreatesOnFirstUse(t *testing.T) {
	r := NewRegistry("known")
	r.Get("known").Inc()
	r.Get("unknown").Add(2)

	snap := r.Snapshot()
	require.Equal(t, int64(1), snap["known"])
	require.Equal(t, int64(2), snap["unknown"])
}

func TestCounterIsSafeForConcurrentIncrement(t *testing.T) {
	c := NewCounter("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	require.Equal(t, int64(100), c.Value())
}
