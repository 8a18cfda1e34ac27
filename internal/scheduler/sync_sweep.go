package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SyncRunner is the subset of the sync manager the scheduler drives.
type SyncRunner interface {
	SyncAll(ctx context.Context) error
}

// SyncSweepScheduler runs a periodic sync sweep so queued operations are
// drained even when no connectivity transition fires.
type SyncSweepScheduler struct {
	runner   SyncRunner
	schedule string
	enabled  bool

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSweeping bool
	cancelFunc context.CancelFunc
}

// NewSyncSweepScheduler creates a new scheduler instance.
func NewSyncSweepScheduler(runner SyncRunner, schedule string, enabled bool) *SyncSweepScheduler {
	return &SyncSweepScheduler{
		runner:   runner,
		schedule: schedule,
		enabled:  enabled,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the periodic sweep is enabled.
func (s *SyncSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.enabled {
		log.Printf("Sync sweep scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Sync sweep scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep. The
// wait happens outside the lock: a finishing sweep needs it to clear its
// own flag, so holding it here would block the sweep from ever completing.
func (s *SyncSweepScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cancelFunc = nil
	stopCtx := s.cron.Stop()
	s.mu.Unlock()

	<-stopCtx.Done()

	log.Printf("Sync sweep scheduler: stopped")
}

// RunNow triggers an immediate sweep.
func (s *SyncSweepScheduler) RunNow() error {
	go s.runSweep()
	return nil
}

// IsRunning returns whether the scheduler is active.
func (s *SyncSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur.
func (s *SyncSweepScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSweep performs the actual sweep. The sync manager already gates on
// its own single-flight flag, so the local flag only avoids piling up
// goroutines when sweeps overlap.
func (s *SyncSweepScheduler) runSweep() {
	s.mu.Lock()
	if s.isSweeping {
		s.mu.Unlock()
		log.Printf("Sync sweep: skipped (already sweeping)")
		return
	}
	s.isSweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSweeping = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.runner.SyncAll(ctx); err != nil {
		log.Printf("Sync sweep: failed: %v", err)
		return
	}
	log.Printf("Sync sweep: completed in %v", time.Since(start).Round(time.Millisecond))
}
