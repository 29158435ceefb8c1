package api

import (
	"context"

	"rewards_engine/internal/model"

	"github.com/stretchr/testify/mock"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) RegisterUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserService) TouchActivity(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockUserService) UpdateWaitlistStatus(ctx context.Context, userID int64, waitlisted bool) error {
	args := m.Called(ctx, userID, waitlisted)
	return args.Error(0)
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) Profile(ctx context.Context, userID int64) (*model.EarningsProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EarningsProfile), args.Error(1)
}

type mockPayoutService struct {
	mock.Mock
}

func (m *mockPayoutService) RunDailyPayouts(ctx context.Context) (*model.DailyRunReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyRunReport), args.Error(1)
}

func (m *mockPayoutService) CurrentPayoutPerReferral(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPayoutService) EarnedAmount(ctx context.Context, userID int64, status model.PayoutStatus) (int64, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPayoutService) EarnedPayouts(ctx context.Context, userID int64, status model.PayoutStatus) ([]*model.Payout, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *mockPayoutService) RequestPayout(ctx context.Context, userID int64) (*model.PayoutRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRequest), args.Error(1)
}

func (m *mockPayoutService) ListPayoutRequests(ctx context.Context, userID int64) ([]*model.PayoutRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PayoutRequest), args.Error(1)
}

func (m *mockPayoutService) SetPayoutRequestStatus(ctx context.Context, id int64, status model.PayoutRequestStatus) (*model.PayoutRequest, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRequest), args.Error(1)
}

func (m *mockPayoutService) SetPayoutStatus(ctx context.Context, id int64, status model.PayoutStatus) (*model.Payout, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

type mockReferralService struct {
	mock.Mock
}

func (m *mockReferralService) ReferralLink(ctx context.Context, userID int64) (*model.ReferralLink, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralLink), args.Error(1)
}

func (m *mockReferralService) ReferralURL(identifier string) string {
	args := m.Called(identifier)
	return args.String(0)
}

func (m *mockReferralService) RecordHit(ctx context.Context, identifier string, hitUserID int64) (*model.ReferralHit, error) {
	args := m.Called(ctx, identifier, hitUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralHit), args.Error(1)
}

func (m *mockReferralService) ConfirmReferral(ctx context.Context, hitUserID int64) (*model.UserReferralHit, error) {
	args := m.Called(ctx, hitUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserReferralHit), args.Error(1)
}

func (m *mockReferralService) ListReferrals(ctx context.Context, userID int64) ([]*model.UserReferralHit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferralHit), args.Error(1)
}
