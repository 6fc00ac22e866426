package utils

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(4, 4)

	var counter int64
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Shutdown()

	assert.Equal(t, int64(100), atomic.LoadInt64(&counter))
}

func TestWorkerPool_ShutdownWaitsForInFlightTasks(t *testing.T) {
	pool := NewWorkerPool(1, 1)

	done := make(chan struct{})
	pool.Submit(func() {
		close(done)
	})
	pool.Shutdown()

	select {
	case <-done:
	default:
		t.Fatal("task did not complete before Shutdown returned")
	}
}
