package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/service"
)

// Background owns the event consumers and scheduled jobs that run beside
// the HTTP server.
type Background struct {
	scheduler *OverdueScheduler
	logger    *zap.Logger
}

// StartBackground subscribes notification handlers and starts the overdue
// scheduler. Either may be nil.
func StartBackground(notifications *service.NotificationService, scheduler *OverdueScheduler, logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifications != nil {
		notifications.RegisterHandlers()
		logger.Info("notification handlers registered")
	}
	if scheduler != nil {
		scheduler.Start()
	}
	return &Background{scheduler: scheduler, logger: logger}
}

// Stop halts scheduled jobs, waiting for a running scan until ctx expires.
func (b *Background) Stop(ctx context.Context) {
	if b == nil || b.scheduler == nil {
		return
	}
	b.scheduler.Stop(ctx)
	b.logger.Info("background jobs stopped")
}
