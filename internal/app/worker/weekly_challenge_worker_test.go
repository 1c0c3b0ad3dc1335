package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"dactylo_api/internal/platform/kv"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu    sync.Mutex
	value int
	err   error
}

func (f *fakeCounter) AdvanceWeeklyCounter(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.value++
	return f.value, nil
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRunOnceHoldsLockAfterSuccess(t *testing.T) {
	counter := &fakeCounter{}
	locker := kv.NewLocalLocker()
	ctx := context.Background()

	first := NewWeeklyChallengeWorker(counter, locker, "weekly", time.Minute, quietLogger())
	second := NewWeeklyChallengeWorker(counter, locker, "weekly", time.Minute, quietLogger())

	ran, err := first.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = second.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ran)

	assert.Equal(t, 1, counter.value)
}

func TestRunOnceReleasesLockOnFailure(t *testing.T) {
	counter := &fakeCounter{err: errors.New("database down")}
	locker := kv.NewLocalLocker()
	ctx := context.Background()
	w := NewWeeklyChallengeWorker(counter, locker, "weekly", time.Minute, quietLogger())

	ran, err := w.RunOnce(ctx)
	assert.Error(t, err)
	assert.False(t, ran)

	counter.err = nil
	ran, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, counter.value)
}

func TestStartRejectsBadCron(t *testing.T) {
	w := NewWeeklyChallengeWorker(&fakeCounter{}, kv.NewLocalLocker(), "weekly", time.Minute, quietLogger())
	assert.Error(t, w.Start("not a cron"))
}

func TestStartAndStop(t *testing.T) {
	w := NewWeeklyChallengeWorker(&fakeCounter{}, kv.NewLocalLocker(), "weekly", time.Minute, quietLogger())
	require.NoError(t, w.Start(""))
	w.Stop()
}
