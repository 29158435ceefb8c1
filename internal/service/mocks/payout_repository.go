package mocks

import (
	"context"
	"time"

	"rewards_engine/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockPayoutRepository runs Atomic callbacks inline.
type MockPayoutRepository struct {
	Transactor
	mock.Mock
}

func (m *MockPayoutRepository) GetOrCreateActivityPayout(ctx context.Context, userID int64, date time.Time, amount int64) (*model.Payout, bool, error) {
	args := m.Called(ctx, userID, date, amount)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Payout), args.Bool(1), args.Error(2)
}

func (m *MockPayoutRepository) GetOrCreateReferralPayout(ctx context.Context, userID, userReferralHitID int64, date time.Time, amount int64, note string) (*model.Payout, bool, error) {
	args := m.Called(ctx, userID, userReferralHitID, date, amount, note)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Payout), args.Bool(1), args.Error(2)
}

func (m *MockPayoutRepository) GetPayout(ctx context.Context, id int64) (*model.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) UpdatePayoutStatus(ctx context.Context, id int64, status model.PayoutStatus) (*model.Payout, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) UpdatePayoutsStatus(ctx context.Context, ids []int64, status model.PayoutStatus) (int64, error) {
	args := m.Called(ctx, ids, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPayoutRepository) ListPayouts(ctx context.Context, userID int64, status model.PayoutStatus) ([]*model.Payout, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) LockUnpaidPayouts(ctx context.Context, userID int64) ([]*model.Payout, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) SumPayouts(ctx context.Context, userID int64, status model.PayoutStatus) (int64, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPayoutRepository) SumReferralPayouts(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPayoutRepository) CountActivityPayouts(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockPayoutRepository) ListRequestedPayouts(ctx context.Context, userID int64, status model.PayoutRequestStatus) ([]*model.Payout, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) CreatePayoutRequest(ctx context.Context, request *model.PayoutRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockPayoutRepository) LockPayoutRequest(ctx context.Context, id int64) (*model.PayoutRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRequest), args.Error(1)
}

func (m *MockPayoutRepository) ListPayoutRequests(ctx context.Context, userID int64) ([]*model.PayoutRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PayoutRequest), args.Error(1)
}

func (m *MockPayoutRepository) CountPayoutRequests(ctx context.Context, userID int64, status model.PayoutRequestStatus) (int, error) {
	args := m.Called(ctx, userID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockPayoutRepository) SumPayoutRequests(ctx context.Context, userID int64, status model.PayoutRequestStatus) (int64, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPayoutRepository) UpdatePayoutRequestStatus(ctx context.Context, id int64, status model.PayoutRequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
