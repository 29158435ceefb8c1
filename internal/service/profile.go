package service

import (
	"context"
	"fmt"

	"rewards_engine/internal/model"
	"rewards_engine/pkg/money"
)

const lastActivityLayout = "2006-01-02 15:04"

// Profile assembles the user's earnings page.
func (s *Service) Profile(ctx context.Context, userID int64) (*model.EarningsProfile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	paid, err := s.EarnedAmount(ctx, userID, model.PayoutPaid)
	if err != nil {
		return nil, err
	}
	requesting, err := s.EarnedAmount(ctx, userID, model.PayoutRequesting)
	if err != nil {
		return nil, err
	}
	unpaid, err := s.EarnedAmount(ctx, userID, model.PayoutUnpaid)
	if err != nil {
		return nil, err
	}

	referralEarnings, err := s.TotalEarningsForReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	referrals, err := s.NumberOfReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	activeReferrals, err := s.NumberOfActiveReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	perReferral, err := s.CurrentPayoutPerReferral(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.ReferralLink(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral link: %w", err)
	}

	now := s.PayoutService.clock.Now()
	lastActivity := "no data"
	if user.LastActivityTime != nil {
		lastActivity = user.LastActivityTime.In(s.PayoutService.cfg.location()).Format(lastActivityLayout)
	}

	return &model.EarningsProfile{
		UserID:               user.ID,
		IsWaitlisted:         user.IsWaitlisted,
		IsActive:             s.IsUserActive(user, now),
		LastActivity:         lastActivity,
		PaidAmount:           paid,
		PaidAmountText:       money.CentsToDollars(paid, true),
		RequestingAmount:     requesting,
		RequestingAmountText: money.CentsToDollars(requesting, true),
		UnpaidAmount:         unpaid,
		UnpaidAmountText:     money.CentsToDollars(unpaid, true),
		ReferralEarnings:     referralEarnings,
		ReferralEarningsText: money.CentsToDollars(referralEarnings, true),
		Referrals:            referrals,
		ActiveReferrals:      activeReferrals,
		PayoutPerReferral:    perReferral,
		ReferralURL:          s.ReferralURL(link.Identifier),
	}, nil
}
