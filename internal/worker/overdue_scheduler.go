package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OverdueFlagger reports active tickets past their due date.
type OverdueFlagger interface {
	FlagOverdue(ctx context.Context) (int, error)
}

// OverdueRecorder counts flagged tickets.
type OverdueRecorder interface {
	RecordOverdue(n int)
}

// OverdueScheduler runs the overdue scan on a cron schedule.
type OverdueScheduler struct {
	cron     *cron.Cron
	flagger  OverdueFlagger
	recorder OverdueRecorder
	logger   *zap.Logger
	timeout  time.Duration
}

// NewOverdueScheduler parses spec (standard five-field cron) and prepares
// the job. Overlapping runs are skipped rather than queued.
func NewOverdueScheduler(spec string, flagger OverdueFlagger, recorder OverdueRecorder, logger *zap.Logger) (*OverdueScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OverdueScheduler{
		flagger:  flagger,
		recorder: recorder,
		logger:   logger,
		timeout:  time.Minute,
	}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid overdue schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *OverdueScheduler) Start() {
	s.cron.Start()
	s.logger.Info("overdue scheduler started")
}

// Stop halts the schedule and waits for a running scan, bounded by ctx.
func (s *OverdueScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("overdue scan still running at shutdown")
	}
}

// RunOnce performs a single scan.
func (s *OverdueScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.flagger.FlagOverdue(ctx)
	if err != nil {
		s.logger.Error("overdue scan failed", zap.Error(err))
		return
	}
	if s.recorder != nil {
		s.recorder.RecordOverdue(n)
	}
	if n > 0 {
		s.logger.Info("overdue tickets flagged", zap.Int("count", n))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
