package service

import (
	"context"
	"fmt"
	"time"

	"rewards_engine/internal/metrics"
	"rewards_engine/internal/model"
	"rewards_engine/pkg/clock"
	"rewards_engine/pkg/logger"

	"go.uber.org/zap"
)

const ReferralPayoutNote = "referral payout"

type PayoutService struct {
	users     UserRepository
	payouts   PayoutRepository
	referrals ReferralRepository
	clock     clock.Clock
	cfg       Config
}

func NewPayoutService(users UserRepository, payouts PayoutRepository, referrals ReferralRepository, clk clock.Clock, cfg Config) *PayoutService {
	return &PayoutService{
		users:     users,
		payouts:   payouts,
		referrals: referrals,
		clock:     clk,
		cfg:       cfg,
	}
}

// DailyAmount is the per-user share of today's budget for n active users.
func (s *PayoutService) DailyAmount(activeUsers int) int64 {
	return CalculateDailyAmount(s.cfg.DailyBudgetCents, s.clock.Now().In(s.cfg.location()), activeUsers)
}

// CurrentPayoutPerReferral is what the next qualifying referral would be worth.
func (s *PayoutService) CurrentPayoutPerReferral(ctx context.Context) (int64, error) {
	qualified, err := s.referrals.CountQualifiedReferrals(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count qualified referrals: %w", err)
	}

	return CalculateReferralAmount(qualified+1, s.cfg.ReferralPoolTotal), nil
}

// RunDailyPayouts accrues today's activity payouts and then pays out every
// referral whose referred user has just reached the activation threshold.
// Re-running on the same day creates nothing new.
func (s *PayoutService) RunDailyPayouts(ctx context.Context) (*model.DailyRunReport, error) {
	log := logger.Logger()
	started := time.Now()
	defer func() {
		metrics.DailyJobDuration.Observe(time.Since(started).Seconds())
	}()

	today := accrualDate(s.clock.Now(), s.cfg.location())
	report := &model.DailyRunReport{Date: today}

	users, err := s.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	report.ActiveUsers = len(users)
	report.DailyAmount = s.DailyAmount(len(users))
	metrics.DailyAmountCents.Set(float64(report.DailyAmount))

	if len(users) == 0 {
		log.Info("No active users", zap.Time("date", today))
	}

	for _, user := range users {
		_, created, err := s.payouts.GetOrCreateActivityPayout(ctx, user.ID, today, report.DailyAmount)
		if err != nil {
			log.Error("Failed to create activity payout",
				zap.Int64("user_id", user.ID),
				zap.Time("date", today),
				zap.Error(err),
			)
			report.ActivityPayoutsFailed++
			metrics.DailyJobRowFailuresTotal.WithLabelValues(model.PayoutTypeActivities).Inc()
			continue
		}

		if created {
			report.ActivityPayoutsCreated++
			metrics.PayoutsCreatedTotal.WithLabelValues(model.PayoutTypeActivities).Inc()
		} else {
			report.ActivityPayoutsExisting++
		}
	}

	err = s.runReferralPayouts(ctx, today, report)
	if err != nil {
		return report, err
	}

	log.Info("Daily payouts completed",
		zap.Time("date", today),
		zap.Int("active_users", report.ActiveUsers),
		zap.Int64("daily_amount", report.DailyAmount),
		zap.Int("activity_created", report.ActivityPayoutsCreated),
		zap.Int("activity_existing", report.ActivityPayoutsExisting),
		zap.Int("referral_created", report.ReferralPayoutsCreated),
		zap.Int("referral_pending", report.ReferralsPending),
	)

	return report, nil
}

func (s *PayoutService) runReferralPayouts(ctx context.Context, today time.Time, report *model.DailyRunReport) error {
	log := logger.Logger()

	hits, err := s.referrals.ListUserReferralHitsByStatus(ctx, model.ReferralNone)
	if err != nil {
		return fmt.Errorf("failed to list pending referrals: %w", err)
	}

	baseline, err := s.referrals.CountQualifiedReferrals(ctx)
	if err != nil {
		return fmt.Errorf("failed to count qualified referrals: %w", err)
	}

	for _, hit := range hits {
		if hit.UserID == nil {
			report.ReferralsPending++
			continue
		}

		count, err := s.payouts.CountActivityPayouts(ctx, hit.HitUserID)
		if err != nil {
			log.Error("Failed to count activity payouts",
				zap.Int64("user_referral_hit_id", hit.ID),
				zap.Int64("hit_user_id", hit.HitUserID),
				zap.Error(err),
			)
			report.ReferralsFailed++
			metrics.DailyJobRowFailuresTotal.WithLabelValues(model.PayoutTypeReferral).Inc()
			continue
		}

		// Exact match: the row qualifies on the day the threshold is reached.
		if count != s.cfg.ReferralActivationPayouts {
			report.ReferralsPending++
			continue
		}

		amount := CalculateReferralAmount(baseline+1, s.cfg.ReferralPoolTotal)
		referrerID := *hit.UserID

		err = s.payouts.Atomic(ctx, func(ctx context.Context) error {
			_, _, err := s.payouts.GetOrCreateReferralPayout(ctx, referrerID, hit.ID, today, amount, ReferralPayoutNote)
			if err != nil {
				return err
			}
			return s.referrals.UpdateUserReferralHitStatus(ctx, hit.ID, model.ReferralOpened)
		})
		if err != nil {
			log.Error("Failed to create referral payout",
				zap.Int64("user_referral_hit_id", hit.ID),
				zap.Int64("user_id", referrerID),
				zap.Int64("rank", baseline+1),
				zap.Error(err),
			)
			report.ReferralsFailed++
			metrics.DailyJobRowFailuresTotal.WithLabelValues(model.PayoutTypeReferral).Inc()
			continue
		}

		baseline++
		report.ReferralPayoutsCreated++
		metrics.PayoutsCreatedTotal.WithLabelValues(model.PayoutTypeReferral).Inc()
	}

	return nil
}
