package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllJobs(t *testing.T) {
	pool := NewPool(3, nil)
	pool.Start()

	var ran int64
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		}))
	}
	pool.Wait()

	assert.Equal(t, int64(10), atomic.LoadInt64(&ran))
	assert.Empty(t, pool.Errors())
}

func TestPool_CollectsJobErrors(t *testing.T) {
	pool := NewPool(2, nil)
	pool.Start()

	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		return fmt.Errorf("render failed")
	}))
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		return nil
	}))
	pool.Wait()

	errs := pool.Errors()
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "render failed")
}

func TestPool_SubmitAfterShutdownErrors(t *testing.T) {
	pool := NewPool(2, nil)
	pool.Start()
	pool.Shutdown()

	err := pool.Submit(func(ctx context.Context) error { return nil })
	assert.Error(t, err, "submit must report a shut-down pool instead of hanging")
}
