package worker

import (
	"context"
	"fmt"
	"time"

	"dactylo_api/internal/platform/kv"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// DefaultWeeklyCron fires every Monday at 00:00 UTC.
const DefaultWeeklyCron = "0 0 * * 1"

// CounterAdvancer moves the challenge-of-the-week counter forward by one.
type CounterAdvancer interface {
	AdvanceWeeklyCounter(ctx context.Context) (int, error)
}

type WeeklyChallengeWorker struct {
	scheduler *gocron.Scheduler
	counter   CounterAdvancer
	locker    kv.Locker
	lockKey   string
	lockTTL   time.Duration
	logger    logrus.FieldLogger
	timeout   time.Duration
}

func NewWeeklyChallengeWorker(
	counter CounterAdvancer,
	locker kv.Locker,
	lockKey string,
	lockTTL time.Duration,
	logger logrus.FieldLogger,
) *WeeklyChallengeWorker {
	return &WeeklyChallengeWorker{
		scheduler: gocron.NewScheduler(time.UTC),
		counter:   counter,
		locker:    locker,
		lockKey:   lockKey,
		lockTTL:   lockTTL,
		logger:    logger.WithField("worker", "defi_semaine"),
		timeout:   30 * time.Second,
	}
}

// Start registers the job on the cron expression and runs the scheduler in the background.
func (w *WeeklyChallengeWorker) Start(expr string) error {
	if expr == "" {
		expr = DefaultWeeklyCron
	}
	job, err := w.scheduler.Cron(expr).Do(w.tick)
	if err != nil {
		return fmt.Errorf("invalid weekly cron %q: %w", expr, err)
	}
	w.scheduler.StartAsync()
	w.logger.WithFields(logrus.Fields{"cron": expr, "next_run": job.NextRun()}).Info("weekly challenge worker started")
	return nil
}

func (w *WeeklyChallengeWorker) Stop() {
	w.scheduler.Stop()
	w.logger.Info("weekly challenge worker stopped")
}

func (w *WeeklyChallengeWorker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.WithError(err).Error("weekly counter increment failed")
	}
}

// RunOnce increments the counter unless another instance holds the lock.
// It reports whether this call did the increment. After a successful run the lock
// is left to expire, so instances firing on the same schedule skip this week.
func (w *WeeklyChallengeWorker) RunOnce(ctx context.Context) (bool, error) {
	release, ok, err := w.locker.TryLock(ctx, w.lockKey, w.lockTTL)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", w.lockKey, err)
	}
	if !ok {
		w.logger.Debug("weekly counter lock held elsewhere, skipping")
		return false, nil
	}

	value, err := w.counter.AdvanceWeeklyCounter(ctx)
	if err != nil {
		if relErr := release(context.Background()); relErr != nil {
			w.logger.WithError(relErr).Warn("failed to release weekly counter lock")
		}
		return false, err
	}
	w.logger.WithField("compteur", value).Info("weekly counter advanced")
	return true, nil
}
