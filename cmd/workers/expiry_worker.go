package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"contract961/signing-backend/internal/documents"
)

// Expirer expires overdue signing requests.
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) ([]documents.ExpiredRequest, error)
}

// ExpiryWorker runs the expiry sweep on a cron schedule
type ExpiryWorker struct {
	expirer Expirer
	logger  *zap.Logger
	cron    *cron.Cron
	timeout time.Duration
	now     func() time.Time
}

// NewExpiryWorker validates schedule and registers the sweep.
func NewExpiryWorker(ctx context.Context, expirer Expirer, schedule string, logger *zap.Logger) (*ExpiryWorker, error) {
	w := &ExpiryWorker{
		expirer: expirer,
		logger:  logger,
		cron:    cron.New(),
		timeout: time.Minute,
		now:     time.Now,
	}
	if _, err := w.cron.AddFunc(schedule, func() { w.sweep(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Run sweeps once, then on schedule until ctx is canceled.
func (w *ExpiryWorker) Run(ctx context.Context) {
	w.logger.Info("Starting expiry worker")
	w.sweep(ctx)

	w.cron.Start()
	<-ctx.Done()

	w.logger.Info("Expiry worker shutting down")
	stopped := w.cron.Stop()
	<-stopped.Done()
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := w.now()
	expired, err := w.expirer.ExpireOverdue(ctx, start)
	if err != nil {
		w.logger.Error("Expiry sweep failed", zap.Error(err))
		return
	}
	if len(expired) > 0 {
		w.logger.Info("Expiry sweep completed",
			zap.Int("expired", len(expired)),
			zap.Duration("duration", time.Since(start)))
	}
}
