package service

import (
	"context"
	"errors"
	"time"

	"rewards_engine/internal/model"
	"rewards_engine/pkg/clock"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("user already exists")
	ErrDuplicateRequest      = errors.New("payout request already outstanding")
	ErrBelowMinimum          = errors.New("unpaid balance below minimum payout")
	ErrPayoutNotFound        = errors.New("payout not found")
	ErrPayoutRequestNotFound = errors.New("payout request not found")
	ErrReferralLinkNotFound  = errors.New("referral link not found")
	ErrIdentifierExhausted   = errors.New("could not allocate a unique referral identifier")
	ErrInvalidStatus         = errors.New("invalid payment status")
)

type Service struct {
	*UserService
	*PayoutService
	*ReferralService
}

func NewService(userService *UserService, payoutService *PayoutService, referralService *ReferralService) *Service {
	return &Service{
		UserService:     userService,
		PayoutService:   payoutService,
		ReferralService: referralService,
	}
}

// Store is everything the services need from persistence.
type Store interface {
	UserRepository
	PayoutRepository
	ReferralRepository
}

// NewServiceFromStore wires every service against a single store.
func NewServiceFromStore(store Store, clk clock.Clock, cfg Config) *Service {
	return NewService(
		NewUserService(store, store, clk, cfg),
		NewPayoutService(store, store, store, clk, cfg),
		NewReferralService(store, store, clk, cfg),
	)
}

// Config holds the accounting constants. Amounts are in cents.
type Config struct {
	DailyBudgetCents          int64
	ReferralPoolTotal         int64
	ReferralActivationPayouts int
	MinimumPayoutCents        int64
	ActivityWindowDays        int
	Location                  *time.Location
	AllowedUsers              int
	BaseURL                   string
}

func DefaultConfig() Config {
	return Config{
		DailyBudgetCents:          1000,
		ReferralPoolTotal:         100,
		ReferralActivationPayouts: 90,
		MinimumPayoutCents:        1000,
		ActivityWindowDays:        7,
		Location:                  time.UTC,
		AllowedUsers:              1000,
		BaseURL:                   "http://localhost:8080",
	}
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	TouchActivity(ctx context.Context, userID int64) error
	UpdateWaitlistStatus(ctx context.Context, userID int64, waitlisted bool) error
}

type PayoutServiceI interface {
	RunDailyPayouts(ctx context.Context) (*model.DailyRunReport, error)
	CurrentPayoutPerReferral(ctx context.Context) (int64, error)
	EarnedAmount(ctx context.Context, userID int64, status model.PayoutStatus) (int64, error)
	EarnedPayouts(ctx context.Context, userID int64, status model.PayoutStatus) ([]*model.Payout, error)
	RequestPayout(ctx context.Context, userID int64) (*model.PayoutRequest, error)
	ListPayoutRequests(ctx context.Context, userID int64) ([]*model.PayoutRequest, error)
	SetPayoutRequestStatus(ctx context.Context, id int64, status model.PayoutRequestStatus) (*model.PayoutRequest, error)
	SetPayoutStatus(ctx context.Context, id int64, status model.PayoutStatus) (*model.Payout, error)
}

type ProfileServiceI interface {
	Profile(ctx context.Context, userID int64) (*model.EarningsProfile, error)
}

type ReferralServiceI interface {
	ReferralLink(ctx context.Context, userID int64) (*model.ReferralLink, error)
	ReferralURL(identifier string) string
	RecordHit(ctx context.Context, identifier string, hitUserID int64) (*model.ReferralHit, error)
	ConfirmReferral(ctx context.Context, hitUserID int64) (*model.UserReferralHit, error)
	ListReferrals(ctx context.Context, userID int64) ([]*model.UserReferralHit, error)
}

// Transactor runs fn atomically. Repository calls made with the ctx passed to
// fn join the same transaction.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	LockUser(ctx context.Context, id int64) (*model.User, error)
	GetActiveUsers(ctx context.Context, since time.Time) ([]*model.User, error)
	CountAdmittedUsers(ctx context.Context) (int, error)
	UpdateLastActivity(ctx context.Context, id int64, at time.Time) error
	UpdateUserWaitlistStatus(ctx context.Context, id int64, waitlisted bool) error
}

type PayoutRepository interface {
	Transactor
	GetOrCreateActivityPayout(ctx context.Context, userID int64, date time.Time, amount int64) (*model.Payout, bool, error)
	GetOrCreateReferralPayout(ctx context.Context, userID, userReferralHitID int64, date time.Time, amount int64, note string) (*model.Payout, bool, error)
	GetPayout(ctx context.Context, id int64) (*model.Payout, error)
	UpdatePayoutStatus(ctx context.Context, id int64, status model.PayoutStatus) (*model.Payout, error)
	UpdatePayoutsStatus(ctx context.Context, ids []int64, status model.PayoutStatus) (int64, error)
	ListPayouts(ctx context.Context, userID int64, status model.PayoutStatus) ([]*model.Payout, error)
	LockUnpaidPayouts(ctx context.Context, userID int64) ([]*model.Payout, error)
	SumPayouts(ctx context.Context, userID int64, status model.PayoutStatus) (int64, error)
	SumReferralPayouts(ctx context.Context, userID int64) (int64, error)
	CountActivityPayouts(ctx context.Context, userID int64) (int, error)
	ListRequestedPayouts(ctx context.Context, userID int64, status model.PayoutRequestStatus) ([]*model.Payout, error)

	CreatePayoutRequest(ctx context.Context, request *model.PayoutRequest) error
	LockPayoutRequest(ctx context.Context, id int64) (*model.PayoutRequest, error)
	ListPayoutRequests(ctx context.Context, userID int64) ([]*model.PayoutRequest, error)
	CountPayoutRequests(ctx context.Context, userID int64, status model.PayoutRequestStatus) (int, error)
	SumPayoutRequests(ctx context.Context, userID int64, status model.PayoutRequestStatus) (int64, error)
	UpdatePayoutRequestStatus(ctx context.Context, id int64, status model.PayoutRequestStatus) error
}

type ReferralRepository interface {
	Transactor
	GetReferralLinkByUser(ctx context.Context, userID int64) (*model.ReferralLink, error)
	GetReferralLinkByID(ctx context.Context, id int64) (*model.ReferralLink, error)
	GetReferralLinkByIdentifier(ctx context.Context, identifier string) (*model.ReferralLink, error)
	CreateReferralLink(ctx context.Context, link *model.ReferralLink) error
	CreateReferralHit(ctx context.Context, hit *model.ReferralHit) error
	GetLatestReferralHit(ctx context.Context, hitUserID int64) (*model.ReferralHit, error)
	ConfirmReferralHit(ctx context.Context, id int64, at time.Time) error
	GetOrCreateUserReferralHit(ctx context.Context, userID, referralHitID int64) (*model.UserReferralHit, bool, error)
	ListUserReferralHitsByStatus(ctx context.Context, status model.ReferralStatus) ([]*model.UserReferralHit, error)
	ListUserReferralHits(ctx context.Context, userID int64) ([]*model.UserReferralHit, error)
	CountQualifiedReferrals(ctx context.Context) (int64, error)
	CountUserReferrals(ctx context.Context, userID int64, activeOnly bool) (int, error)
	UpdateUserReferralHitStatus(ctx context.Context, id int64, status model.ReferralStatus) error
	UpdateReferralStatusForPayouts(ctx context.Context, payoutIDs []int64, status model.ReferralStatus) (int64, error)
}
