package eventworker

import (
	"context"
	"sync"

	coreconfig "github.com/AzielCF/az-console/core/config"
)

var (
	globalPool     *Pool
	globalPoolOnce sync.Once
	globalCancel   context.CancelFunc
)

// GetGlobalPool returns the process-wide pool, started on first use.
func GetGlobalPool() *Pool {
	globalPoolOnce.Do(func() {
		var ctx context.Context
		ctx, globalCancel = context.WithCancel(context.Background())

		size, queue := 4, 500
		if coreconfig.Global != nil {
			if coreconfig.Global.WorkerPool.Size > 0 {
				size = coreconfig.Global.WorkerPool.Size
			}
			if coreconfig.Global.WorkerPool.QueueSize > 0 {
				queue = coreconfig.Global.WorkerPool.QueueSize
			}
		}

		globalPool = NewPool(size, queue)
		globalPool.Start(ctx)
	})
	return globalPool
}

// StopGlobalPool drains and stops the process-wide pool.
func StopGlobalPool() {
	if globalPool != nil {
		globalPool.Stop()
	}
	if globalCancel != nil {
		globalCancel()
	}
}
