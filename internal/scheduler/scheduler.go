package scheduler

import (
	"context"
	"time"

	"rewards_engine/internal/model"
	"rewards_engine/pkg/logger"

	"go.uber.org/zap"
)

const (
	dailyPayoutsLockKey = "rewards:jobs:daily-payouts"
	defaultJobTimeout   = 30 * time.Minute
)

type DailyJob interface {
	RunDailyPayouts(ctx context.Context) (*model.DailyRunReport, error)
}

type Config struct {
	Interval   time.Duration
	RunOnStart bool
	LockTTL    time.Duration
}

type Runner struct {
	job    DailyJob
	locker Locker
	cfg    Config
}

func NewRunner(job DailyJob, locker Locker, cfg Config) *Runner {
	if locker == nil {
		locker = NoopLocker{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultJobTimeout
	}

	return &Runner{
		job:    job,
		locker: locker,
		cfg:    cfg,
	}
}

// Start runs the loop in a goroutine until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go r.Run(ctx)
}

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	if r.cfg.RunOnStart {
		r.RunOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes the job if the lock can be taken. It reports whether the
// job actually ran.
func (r *Runner) RunOnce(ctx context.Context) bool {
	log := logger.Logger()

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.LockTTL)
	defer cancel()

	release, ok, err := r.locker.Acquire(runCtx, dailyPayoutsLockKey, r.cfg.LockTTL)
	if err != nil {
		log.Error("daily payouts: failed to acquire lock", zap.Error(err))
		return false
	}
	if !ok {
		log.Info("daily payouts: lock held elsewhere, skipping")
		return false
	}
	defer release()

	report, err := r.job.RunDailyPayouts(runCtx)
	if err != nil {
		log.Error("daily payouts: run failed", zap.Error(err))
		return true
	}

	log.Info("daily payouts: run finished",
		zap.Time("date", report.Date),
		zap.Int("active_users", report.ActiveUsers),
		zap.Int("activity_created", report.ActivityPayoutsCreated),
		zap.Int("referral_created", report.ReferralPayoutsCreated),
	)

	return true
}
