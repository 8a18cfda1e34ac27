package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRunner) SyncAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// blockingRunner parks the first sweep until released.
type blockingRunner struct {
	startOnce sync.Once
	started   chan struct{}
	release   chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
}

func (r *blockingRunner) SyncAll(ctx context.Context) error {
	r.startOnce.Do(func() { close(r.started) })
	<-r.release
	return nil
}

func TestSyncSweepScheduler_DisabledDoesNotStart(t *testing.T) {
	s := NewSyncSweepScheduler(&countingRunner{}, "*/5 * * * *", false)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRunTime())
}

func TestSyncSweepScheduler_InvalidSchedule(t *testing.T) {
	s := NewSyncSweepScheduler(&countingRunner{}, "not a schedule", true)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestSyncSweepScheduler_StartStop(t *testing.T) {
	s := NewSyncSweepScheduler(&countingRunner{}, "*/5 * * * *", true)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.NextRunTime())

	s.Stop()
	assert.False(t, s.IsRunning())

	// Stopping twice is a no-op
	s.Stop()
}

func TestSyncSweepScheduler_RunNow(t *testing.T) {
	runner := &countingRunner{}
	s := NewSyncSweepScheduler(runner, "*/5 * * * *", true)

	require.NoError(t, s.RunNow())

	assert.Eventually(t, func() bool {
		return runner.count() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSyncSweepScheduler_StopDuringActiveSweep(t *testing.T) {
	runner := newBlockingRunner()
	s := NewSyncSweepScheduler(runner, "* * * * * *", true)
	// Second-granularity cron so a sweep fires within the test window
	s.cron = cron.New(cron.WithSeconds())

	require.NoError(t, s.Start(context.Background()))

	select {
	case <-runner.started:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep never started")
	}

	stopDone := make(chan struct{})
	go func() {
		s.Stop()
		close(stopDone)
	}()

	// Stop waits for the in-flight sweep; letting the sweep finish must
	// unblock it rather than deadlock on the scheduler lock
	close(runner.release)

	select {
	case <-stopDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on a sweep that already finished")
	}
	assert.False(t, s.IsRunning())
}
