package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/config"
)

// ---------------------------------------------------------------------------
// Billing Sync Scheduler
// ---------------------------------------------------------------------------

// SyncRunner runs one sync pass over every active billing connection. The
// application's SyncService satisfies it.
type SyncRunner interface {
	SyncActiveConnections(ctx context.Context) map[string]map[billingsync.EntityKind]*billingsync.SyncResult
}

// SyncRunSummary records one completed scheduler pass.
type SyncRunSummary struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Connections int
	Results     map[string]map[billingsync.EntityKind]*billingsync.SyncResult
}

// BillingSyncSchedulerConfig holds configuration for the billing sync scheduler
type BillingSyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Interval is the time between sync passes
	Interval time.Duration
	// RunOnStart triggers a pass immediately after Start instead of
	// waiting for the first tick
	RunOnStart bool
	// RunTimeout caps one pass when positive. Zero means unbounded: a
	// large remote dataset may legitimately take longer than any fixed
	// budget, and only the per-request timeout applies.
	RunTimeout time.Duration
}

// NewBillingSyncSchedulerConfig builds a scheduler config from the
// application sync settings.
func NewBillingSyncSchedulerConfig(cfg config.SyncConfig) BillingSyncSchedulerConfig {
	return BillingSyncSchedulerConfig{
		Enabled:    cfg.Enabled,
		Interval:   time.Duration(cfg.IntervalHours) * time.Hour,
		RunOnStart: cfg.RunOnStart,
		RunTimeout: cfg.RunTimeout,
	}
}

// Validate validates the configuration
func (c *BillingSyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// BillingSyncScheduler periodically syncs every active billing connection.
// Passes never overlap: a tick that fires while a pass is still running is
// dropped, and manual RunOnce calls fail with ErrSyncAlreadyRunning.
type BillingSyncScheduler struct {
	config BillingSyncSchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// runMu serializes passes across the ticker loop and RunOnce
	runMu sync.Mutex

	historyMu  sync.RWMutex
	history    []*SyncRunSummary
	maxHistory int
}

// NewBillingSyncScheduler creates a new billing sync scheduler
func NewBillingSyncScheduler(config BillingSyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) (*BillingSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &BillingSyncScheduler{
		config:     config,
		runner:     runner,
		logger:     logger,
		history:    make([]*SyncRunSummary, 0, 20),
		maxHistory: 20,
	}, nil
}

// Start starts the ticker loop. It is a no-op when the scheduler is disabled
// or already running.
func (s *BillingSyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Billing sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Billing sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)

	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight pass to
// finish until ctx expires.
func (s *BillingSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing sync scheduler stop timed out")
		return ctx.Err()
	}
}

// RunOnce triggers a single sync pass outside the ticker schedule, for
// operator-initiated syncs. It fails when a pass is already in flight.
func (s *BillingSyncScheduler) RunOnce(ctx context.Context) (*SyncRunSummary, error) {
	if !s.runMu.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer s.runMu.Unlock()

	return s.runPass(ctx), nil
}

// LastRuns returns the most recent pass summaries, newest first.
func (s *BillingSyncScheduler) LastRuns(limit int) []*SyncRunSummary {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SyncRunSummary, limit)
	copy(result, s.history[:limit])
	return result
}

// loop runs passes at the configured interval until ctx is cancelled. The
// pass runs inline, so ticks that fire mid-pass coalesce into at most one
// pending tick.
func (s *BillingSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.tick()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one pass unless another pass (a manual RunOnce) is in flight.
// The pass runs on a context detached from the loop: cancelling the loop
// during Stop only prevents new ticks, it never aborts connections that are
// mid-sync. Stop still waits for the pass to drain.
func (s *BillingSyncScheduler) tick() {
	if !s.runMu.TryLock() {
		s.logger.Warn("Billing sync pass skipped, previous pass still running")
		return
	}
	defer s.runMu.Unlock()

	s.runPass(context.Background())
}

func (s *BillingSyncScheduler) runPass(ctx context.Context) *SyncRunSummary {
	runCtx := ctx
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	started := time.Now()
	results := s.runner.SyncActiveConnections(runCtx)

	summary := &SyncRunSummary{
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Connections: len(results),
		Results:     results,
	}
	s.addToHistory(summary)

	s.logger.Info("Billing sync pass completed",
		zap.Int("connections", summary.Connections),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary
}

func (s *BillingSyncScheduler) addToHistory(summary *SyncRunSummary) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncRunSummary{summary}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}
