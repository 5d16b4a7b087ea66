package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStartsAboveBase(t *testing.T) {
	c := NewCounter(10000)
	assert.Equal(t, int64(10000), c.Last())
	assert.Equal(t, int64(10001), c.Next())
	assert.Equal(t, int64(10002), c.Next())
	assert.Equal(t, int64(10002), c.Last())
}

func TestCounterIsSafeForConcurrentUse(t *testing.T) {
	c := NewCounter(0)
	var wg sync.WaitGroup
	seen := make(chan int64, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]struct{}{}
	for v := range seen {
		unique[v] = struct{}{}
	}
	require.Len(t, unique, 200)
	assert.Equal(t, int64(200), c.Last())
}

func TestFormatterPadsValues(t *testing.T) {
	f := NewFormatter(NewCounter(0), 3)
	assert.Equal(t, "001", f.Next())
	assert.Equal(t, "002", f.Next())

	wide := NewFormatter(NewCounter(10000), 5)
	assert.Equal(t, "10001", wide.Next())
}
