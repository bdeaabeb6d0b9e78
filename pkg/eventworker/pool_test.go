package eventworker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DispatchNonBlocking(t *testing.T) {
	pool := NewPool(2, 10)
	pool.Start(context.Background())
	defer pool.Stop()

	start := time.Now()
	pool.Dispatch(Job{
		Partition: "alice",
		Name:      "slow",
		Handler: func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})

	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPool_SamePartitionRunsInOrder(t *testing.T) {
	pool := NewPool(4, 100)
	pool.Start(context.Background())

	var (
		mu      sync.Mutex
		results []int
	)
	for i := 1; i <= 5; i++ {
		val := i
		require.True(t, pool.TryDispatch(Job{
			Partition: "alice",
			Name:      "ordered",
			Handler: func(ctx context.Context) error {
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
				return nil
			},
		}))
	}

	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, results)
}

func TestPool_StopDrainsQueuedJobs(t *testing.T) {
	pool := NewPool(2, 10)
	pool.Start(context.Background())

	var completed int32
	for i := 0; i < 6; i++ {
		pool.Dispatch(Job{
			Partition: fmt.Sprintf("caller-%d", i),
			Name:      "count",
			Handler: func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&completed, 1)
				return nil
			},
		})
	}

	pool.Stop()
	assert.Equal(t, int32(6), atomic.LoadInt32(&completed))
}

func TestPool_DropsWhenNotRunning(t *testing.T) {
	pool := NewPool(1, 1)
	assert.False(t, pool.TryDispatch(Job{Partition: "x", Handler: func(context.Context) error { return nil }}))

	pool.Start(context.Background())
	pool.Stop()
	assert.False(t, pool.TryDispatch(Job{Partition: "x", Handler: func(context.Context) error { return nil }}))

	stats := pool.GetStats()
	assert.Equal(t, int64(2), stats.TotalDropped)
}

func TestPool_CountsErrorsAndPanics(t *testing.T) {
	pool := NewPool(1, 10)
	pool.Start(context.Background())

	pool.Dispatch(Job{Partition: "a", Name: "fails", Handler: func(context.Context) error { return errors.New("boom") }})
	pool.Dispatch(Job{Partition: "a", Name: "panics", Handler: func(context.Context) error { panic("boom") }})
	pool.Dispatch(Job{Partition: "a", Name: "ok", Handler: func(context.Context) error { return nil }})

	pool.Stop()

	stats := pool.GetStats()
	assert.Equal(t, int64(3), stats.TotalDispatched)
	assert.Equal(t, int64(3), stats.TotalProcessed)
	assert.Equal(t, int64(2), stats.TotalErrors)
}

func TestPool_ConsistentSharding(t *testing.T) {
	pool := NewPool(4, 10)

	shard := pool.shardFor("caller-123")
	assert.Equal(t, shard, pool.shardFor("caller-123"))
	assert.GreaterOrEqual(t, shard, 0)
	assert.Less(t, shard, 4)

	counts := make(map[int]int)
	for i := 0; i < 200; i++ {
		counts[pool.shardFor(fmt.Sprintf("caller-%d", i))]++
	}
	for s, c := range counts {
		assert.Greater(t, c, 20, "shard %d", s)
	}
}
