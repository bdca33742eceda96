package workers

import (
	"sync"
	"testing"
	"time"

	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitPrometheusMetrics("anisette", 4, reg)

	assert.Equal(t, float64(4), testutil.ToFloat64(m.workers))

	m.RecordTask(statusCompleted, 10*time.Millisecond)
	m.RecordTask(statusPanicked, time.Millisecond)
	m.SetCounts(2, 7)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.tasksTotal.WithLabelValues(statusCompleted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tasksTotal.WithLabelValues(statusPanicked)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.active))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.queued))

	count, err := testutil.GatherAndCount(reg, "anisette_pool_task_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPool_RecordsPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := InitPrometheusMetrics("anisette", 2, reg)

	pool, err := NewPool(Config{Size: 2, Metrics: metrics}, logger.Nop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(func() { wg.Done() }))
	}
	wg.Wait()
	require.NoError(t, pool.Stop(t.Context()))

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.submitted))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.tasksTotal.WithLabelValues(statusCompleted)))

	assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolClosed)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.tasksTotal.WithLabelValues(statusRejected)))
}
