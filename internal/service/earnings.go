package service

import (
	"context"
	"errors"
	"fmt"

	"rewards_engine/internal/model"
	"rewards_engine/internal/repository"

	"github.com/samber/lo"
)

// EarnedAmount totals the user's money in the given status. Any covers
// activity payouts only and Unpaid covers every unpaid payout; Requesting and
// Paid come from payout requests.
func (s *PayoutService) EarnedAmount(ctx context.Context, userID int64, status model.PayoutStatus) (int64, error) {
	err := s.ensureUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	var amount int64
	switch status {
	case model.PayoutStatusAny:
		var payouts []*model.Payout
		payouts, err = s.activityPayouts(ctx, userID)
		amount = lo.SumBy(payouts, func(p *model.Payout) int64 {
			return p.AmountOrZero()
		})
	case model.PayoutUnpaid:
		amount, err = s.payouts.SumPayouts(ctx, userID, status)
	case model.PayoutRequesting:
		amount, err = s.payouts.SumPayoutRequests(ctx, userID, model.RequestRequesting)
	case model.PayoutPaid:
		amount, err = s.payouts.SumPayoutRequests(ctx, userID, model.RequestPaid)
	default:
		return 0, ErrInvalidStatus
	}
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s earnings: %w", status, err)
	}

	return amount, nil
}

// EarnedPayouts lists the payouts behind EarnedAmount for the same status.
func (s *PayoutService) EarnedPayouts(ctx context.Context, userID int64, status model.PayoutStatus) ([]*model.Payout, error) {
	err := s.ensureUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var payouts []*model.Payout
	switch status {
	case model.PayoutStatusAny:
		payouts, err = s.activityPayouts(ctx, userID)
	case model.PayoutUnpaid:
		payouts, err = s.payouts.ListPayouts(ctx, userID, status)
	case model.PayoutRequesting:
		payouts, err = s.payouts.ListRequestedPayouts(ctx, userID, model.RequestRequesting)
	case model.PayoutPaid:
		payouts, err = s.payouts.ListRequestedPayouts(ctx, userID, model.RequestPaid)
	default:
		return nil, ErrInvalidStatus
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s payouts: %w", status, err)
	}

	return payouts, nil
}

func (s *PayoutService) activityPayouts(ctx context.Context, userID int64) ([]*model.Payout, error) {
	payouts, err := s.payouts.ListPayouts(ctx, userID, model.PayoutStatusAny)
	if err != nil {
		return nil, err
	}
	return lo.Filter(payouts, func(p *model.Payout, _ int) bool {
		return p.UserReferralHitID == nil
	}), nil
}

func (s *PayoutService) TotalEarningsForReferrals(ctx context.Context, userID int64) (int64, error) {
	total, err := s.payouts.SumReferralPayouts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum referral earnings: %w", err)
	}
	return total, nil
}

func (s *PayoutService) NumberOfReferrals(ctx context.Context, userID int64) (int, error) {
	count, err := s.referrals.CountUserReferrals(ctx, userID, false)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

// NumberOfActiveReferrals counts referrals that have produced a referral payout.
func (s *PayoutService) NumberOfActiveReferrals(ctx context.Context, userID int64) (int, error) {
	count, err := s.referrals.CountUserReferrals(ctx, userID, true)
	if err != nil {
		return 0, fmt.Errorf("failed to count active referrals: %w", err)
	}
	return count, nil
}

func (s *PayoutService) ensureUser(ctx context.Context, userID int64) error {
	_, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return nil
}
