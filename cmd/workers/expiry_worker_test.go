package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contract961/signing-backend/internal/documents"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeExpirer) ExpireOverdue(ctx context.Context, now time.Time) ([]documents.ExpiredRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	if f.err != nil {
		return nil, f.err
	}
	return []documents.ExpiredRequest{{ID: uuid.New(), DisplayID: "REQ-1"}}, nil
}

func (f *fakeExpirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNewExpiryWorkerInvalidSchedule(t *testing.T) {
	_, err := NewExpiryWorker(context.Background(), &fakeExpirer{}, "not a schedule", zap.NewNop())
	assert.Error(t, err)
}

func TestExpiryWorkerSweepUsesClock(t *testing.T) {
	expirer := &fakeExpirer{}
	worker, err := NewExpiryWorker(context.Background(), expirer, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	worker.now = func() time.Time { return fixed }
	worker.sweep(context.Background())

	require.Equal(t, 1, expirer.count())
	assert.Equal(t, fixed, expirer.calls[0])
}

func TestExpiryWorkerSweepError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	worker, err := NewExpiryWorker(context.Background(), expirer, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	worker.sweep(context.Background())
	assert.Equal(t, 1, expirer.count())
}

func TestExpiryWorkerRunSweepsImmediately(t *testing.T) {
	expirer := &fakeExpirer{}
	ctx, cancel := context.WithCancel(context.Background())
	worker, err := NewExpiryWorker(ctx, expirer, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return expirer.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
