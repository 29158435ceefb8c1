package mocks

import (
	"context"
	"time"

	"rewards_engine/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockReferralRepository runs Atomic callbacks inline.
type MockReferralRepository struct {
	Transactor
	mock.Mock
}

func (m *MockReferralRepository) GetReferralLinkByUser(ctx context.Context, userID int64) (*model.ReferralLink, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralLink), args.Error(1)
}

func (m *MockReferralRepository) GetReferralLinkByID(ctx context.Context, id int64) (*model.ReferralLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralLink), args.Error(1)
}

func (m *MockReferralRepository) GetReferralLinkByIdentifier(ctx context.Context, identifier string) (*model.ReferralLink, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralLink), args.Error(1)
}

func (m *MockReferralRepository) CreateReferralLink(ctx context.Context, link *model.ReferralLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockReferralRepository) CreateReferralHit(ctx context.Context, hit *model.ReferralHit) error {
	args := m.Called(ctx, hit)
	return args.Error(0)
}

func (m *MockReferralRepository) GetLatestReferralHit(ctx context.Context, hitUserID int64) (*model.ReferralHit, error) {
	args := m.Called(ctx, hitUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralHit), args.Error(1)
}

func (m *MockReferralRepository) ConfirmReferralHit(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockReferralRepository) GetOrCreateUserReferralHit(ctx context.Context, userID, referralHitID int64) (*model.UserReferralHit, bool, error) {
	args := m.Called(ctx, userID, referralHitID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.UserReferralHit), args.Bool(1), args.Error(2)
}

func (m *MockReferralRepository) ListUserReferralHitsByStatus(ctx context.Context, status model.ReferralStatus) ([]*model.UserReferralHit, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferralHit), args.Error(1)
}

func (m *MockReferralRepository) ListUserReferralHits(ctx context.Context, userID int64) ([]*model.UserReferralHit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferralHit), args.Error(1)
}

func (m *MockReferralRepository) CountQualifiedReferrals(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferralRepository) CountUserReferrals(ctx context.Context, userID int64, activeOnly bool) (int, error) {
	args := m.Called(ctx, userID, activeOnly)
	return args.Int(0), args.Error(1)
}

func (m *MockReferralRepository) UpdateUserReferralHitStatus(ctx context.Context, id int64, status model.ReferralStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockReferralRepository) UpdateReferralStatusForPayouts(ctx context.Context, payoutIDs []int64, status model.ReferralStatus) (int64, error) {
	args := m.Called(ctx, payoutIDs, status)
	return args.Get(0).(int64), args.Error(1)
}
