package counter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVisitCounter is a mock implementation of VisitCounter
type MockVisitCounter struct {
	mock.Mock
}

func (m *MockVisitCounter) IncrementVisitCount(ctx context.Context, ruleID string) (int64, error) {
	args := m.Called(ctx, ruleID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVisitCounter) VisitCount(ctx context.Context, ruleID string) (int64, error) {
	args := m.Called(ctx, ruleID)
	return args.Get(0).(int64), args.Error(1)
}

// memoryCounter counts increments atomically and can be slowed down
type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	delay  time.Duration
	calls  atomic.Int64
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: make(map[string]int64)}
}

func (m *memoryCounter) IncrementVisitCount(ctx context.Context, ruleID string) (int64, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[ruleID]++
	return m.counts[ruleID], nil
}

func (m *memoryCounter) VisitCount(ctx context.Context, ruleID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[ruleID], nil
}

func TestCounter_SyncRecord(t *testing.T) {
	backend := new(MockVisitCounter)
	backend.On("IncrementVisitCount", mock.Anything, "r1").Return(int64(1), nil).Once()

	c := New(backend, Config{Mode: ModeSync})
	c.Record(context.Background(), "r1")

	backend.AssertExpectations(t)
	assert.Equal(t, int64(1), c.GetStats()["recorded"])
}

func TestCounter_SyncFailureIsSwallowed(t *testing.T) {
	backend := new(MockVisitCounter)
	backend.On("IncrementVisitCount", mock.Anything, "r1").
		Return(int64(0), domain.NewAppError(domain.ErrCounterWriteFailed, "disk full", 500, nil))

	c := New(backend, Config{Mode: ModeSync})
	assert.NotPanics(t, func() { c.Record(context.Background(), "r1") })

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats["failed"])
	assert.Equal(t, int64(0), stats["recorded"])
}

func TestCounter_SyncTimeoutBoundsRecord(t *testing.T) {
	backend := newMemoryCounter()
	backend.delay = time.Second

	c := New(backend, Config{Mode: ModeSync, Timeout: 20 * time.Millisecond})

	start := time.Now()
	c.Record(context.Background(), "r1")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int64(1), c.GetStats()["failed"])
}

func TestCounter_SyncIgnoresCallerCancellation(t *testing.T) {
	backend := newMemoryCounter()
	c := New(backend, Config{Mode: ModeSync})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Record(ctx, "r1")

	count, err := c.VisitCount(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a disconnected client still counts")
}

func TestCounter_AsyncDrainsOnClose(t *testing.T) {
	backend := newMemoryCounter()
	c := New(backend, Config{Mode: ModeAsync, Workers: 4, QueueSize: 1000})

	for i := 0; i < 500; i++ {
		c.Record(context.Background(), "r1")
	}
	require.NoError(t, c.Close())

	count, _ := backend.VisitCount(context.Background(), "r1")
	assert.Equal(t, int64(500), count)
	assert.Equal(t, int64(500), c.GetStats()["recorded"])

	// Close is idempotent and later clicks are dropped
	require.NoError(t, c.Close())
	c.Record(context.Background(), "r1")
	assert.Equal(t, int64(1), c.GetStats()["dropped"])
}

func TestCounter_AsyncDropsWhenFull(t *testing.T) {
	backend := newMemoryCounter()
	backend.delay = 50 * time.Millisecond

	c := New(backend, Config{Mode: ModeAsync, Workers: 1, QueueSize: 1, Timeout: time.Second})
	for i := 0; i < 20; i++ {
		c.Record(context.Background(), "r1")
	}
	require.NoError(t, c.Close())

	stats := c.GetStats()
	dropped := stats["dropped"].(int64)
	recorded := stats["recorded"].(int64)
	assert.Greater(t, dropped, int64(0))
	assert.Equal(t, int64(20), dropped+recorded)
}

func TestCounter_IncrementPassThrough(t *testing.T) {
	backend := new(MockVisitCounter)
	backend.On("IncrementVisitCount", mock.Anything, "r1").Return(int64(0), errors.New("boom"))

	c := New(backend, DefaultConfig())
	_, err := c.Increment(context.Background(), "r1")
	assert.Error(t, err)
}

func TestCounter_Health(t *testing.T) {
	c := New(newMemoryCounter(), Config{Mode: ModeAsync, QueueSize: 10})
	defer c.Close()

	health := c.HealthCheck(context.Background())
	assert.Equal(t, domain.HealthStatusHealthy, health.Status)
	assert.Equal(t, "async", health.Details["mode"])
}
