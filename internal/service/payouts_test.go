package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rewards_engine/internal/model"
	"rewards_engine/internal/service/mocks"
	"rewards_engine/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunDailyPayouts_ActivityPayouts(t *testing.T) {
	now := time.Date(2021, 4, 10, 9, 0, 0, 0, time.UTC)
	today := time.Date(2021, 4, 10, 0, 0, 0, 0, time.UTC)
	f := newFixture(now)
	ctx := context.Background()

	a := f.addUser("a@example.com", timePtr(now))
	b := f.addUser("b@example.com", timePtr(now.AddDate(0, 0, -3)))
	c := f.addUser("c@example.com", timePtr(now.AddDate(0, 0, -6)))
	stale := f.addUser("stale@example.com", timePtr(now.AddDate(0, 0, -7)))
	waitlisted := f.addUser("waitlisted@example.com", timePtr(now))
	require.NoError(t, f.store.UpdateUserWaitlistStatus(ctx, waitlisted, true))

	report, err := f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)

	assert.Equal(t, today, report.Date)
	assert.Equal(t, 3, report.ActiveUsers)
	assert.Equal(t, int64(1000/30/3), report.DailyAmount)
	assert.Equal(t, 3, report.ActivityPayoutsCreated)
	assert.Equal(t, 0, report.ActivityPayoutsExisting)

	for _, userID := range []int64{a, b, c} {
		payouts, err := f.store.ListPayouts(ctx, userID, model.PayoutStatusAny)
		require.NoError(t, err)
		require.Len(t, payouts, 1)
		assert.Equal(t, int64(11), payouts[0].AmountOrZero())
		assert.Equal(t, today, payouts[0].Date)
		assert.Equal(t, model.PayoutUnpaid, payouts[0].PaymentStatus)
		assert.Equal(t, model.PayoutTypeActivities, payouts[0].PayoutType())
	}

	for _, userID := range []int64{stale, waitlisted} {
		payouts, err := f.store.ListPayouts(ctx, userID, model.PayoutStatusAny)
		require.NoError(t, err)
		assert.Empty(t, payouts)
	}

	// A second run on the same day changes nothing.
	report, err = f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ActivityPayoutsCreated)
	assert.Equal(t, 3, report.ActivityPayoutsExisting)
	assert.Len(t, f.store.payouts, 3)
}

func TestRunDailyPayouts_NoActiveUsers(t *testing.T) {
	now := time.Date(2021, 4, 10, 0, 0, 0, 0, time.UTC)
	f := newFixture(now)
	ctx := context.Background()

	f.addUser("idle@example.com", nil)

	report, err := f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.ActiveUsers)
	assert.Equal(t, int64(0), report.DailyAmount)
	assert.Empty(t, f.store.payouts)
}

func TestRunDailyPayouts_ReferralThreshold(t *testing.T) {
	now := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(now)
	ctx := context.Background()

	referrer := f.addUser("referrer@example.com", timePtr(now))
	referred := f.addUser("referred@example.com", nil)
	row := f.addReferral(referrer, referred)

	f.addActivityPayouts(referred, 89, 3, today)

	report, err := f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ReferralPayoutsCreated)
	assert.Equal(t, 1, report.ReferralsPending)
	assert.Equal(t, model.ReferralNone, f.referralStatus(row.ID))

	unpaid, err := f.service.EarnedAmount(ctx, referrer, model.PayoutUnpaid)
	require.NoError(t, err)
	assert.Equal(t, int64(1000/30/1), unpaid)

	// The 90th activity payout qualifies the referral.
	f.store.insertPayout(referred, nil, today.AddDate(0, 0, -200), 3, "")

	report, err = f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ReferralPayoutsCreated)
	assert.Equal(t, model.ReferralOpened, f.referralStatus(row.ID))

	payouts, err := f.store.ListPayouts(ctx, referrer, model.PayoutStatusAny)
	require.NoError(t, err)
	require.Len(t, payouts, 2)

	referral := payouts[1]
	assert.Equal(t, model.PayoutTypeReferral, referral.PayoutType())
	assert.Equal(t, int64(99), referral.AmountOrZero())
	assert.Equal(t, ReferralPayoutNote, referral.Note)
	assert.Equal(t, today, referral.Date)
	require.NotNil(t, referral.UserReferralHitID)
	assert.Equal(t, row.ID, *referral.UserReferralHitID)

	unpaid, err = f.service.EarnedAmount(ctx, referrer, model.PayoutUnpaid)
	require.NoError(t, err)
	assert.Equal(t, int64(1000/30/1+99), unpaid)

	// Running again creates no second referral payout.
	report, err = f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ReferralPayoutsCreated)

	total, err := f.service.TotalEarningsForReferrals(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, int64(99), total)
}

func TestRunDailyPayouts_ReferralQualifiesOnSameRun(t *testing.T) {
	now := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(now)
	ctx := context.Background()

	referrer := f.addUser("referrer@example.com", nil)
	referred := f.addUser("referred@example.com", timePtr(now))
	row := f.addReferral(referrer, referred)

	f.addActivityPayouts(referred, 89, 3, now)

	report, err := f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ActivityPayoutsCreated)
	assert.Equal(t, 1, report.ReferralPayoutsCreated)
	assert.Equal(t, model.ReferralOpened, f.referralStatus(row.ID))
}

func TestRunDailyPayouts_ReferralRanks(t *testing.T) {
	now := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(now)
	ctx := context.Background()

	referrer := f.addUser("referrer@example.com", nil)
	other := f.addUser("other@example.com", nil)
	first := f.addUser("first@example.com", nil)
	second := f.addUser("second@example.com", nil)
	third := f.addUser("third@example.com", nil)
	idle := f.addUser("idle@example.com", nil)

	row1 := f.addReferral(referrer, first)
	row2 := f.addReferral(referrer, second)
	rowIdle := f.addReferral(other, idle)
	row3 := f.addReferral(other, third)

	f.addActivityPayouts(first, 90, 3, now)
	f.addActivityPayouts(second, 90, 3, now)
	f.addActivityPayouts(third, 90, 3, now)
	f.addActivityPayouts(idle, 12, 3, now)

	report, err := f.service.RunDailyPayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ReferralPayoutsCreated)
	assert.Equal(t, 1, report.ReferralsPending)

	referrerTotal, err := f.service.TotalEarningsForReferrals(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, int64(99+97), referrerTotal)

	otherTotal, err := f.service.TotalEarningsForReferrals(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(95), otherTotal)

	assert.Equal(t, model.ReferralOpened, f.referralStatus(row1.ID))
	assert.Equal(t, model.ReferralOpened, f.referralStatus(row2.ID))
	assert.Equal(t, model.ReferralOpened, f.referralStatus(row3.ID))
	assert.Equal(t, model.ReferralNone, f.referralStatus(rowIdle.ID))

	next, err := f.service.CurrentPayoutPerReferral(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(93), next)

	count, err := f.service.NumberOfReferrals(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	active, err := f.service.NumberOfActiveReferrals(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestRunDailyPayouts_ReferralFailureDoesNotConsumeRank(t *testing.T) {
	now := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)

	users := &mocks.MockUserRepository{}
	payouts := &mocks.MockPayoutRepository{}
	referrals := &mocks.MockReferralRepository{}
	service := NewPayoutService(users, payouts, referrals, clock.Fixed(now), DefaultConfig())

	referrer := int64(1)
	hits := []*model.UserReferralHit{
		{ID: 10, UserID: &referrer, HitUserID: 2},
		{ID: 11, UserID: &referrer, HitUserID: 3},
	}

	users.On("GetActiveUsers", mock.Anything, mock.Anything).Return([]*model.User{}, nil)
	referrals.On("ListUserReferralHitsByStatus", mock.Anything, model.ReferralNone).Return(hits, nil)
	referrals.On("CountQualifiedReferrals", mock.Anything).Return(int64(0), nil)
	payouts.On("CountActivityPayouts", mock.Anything, int64(2)).Return(90, nil)
	payouts.On("CountActivityPayouts", mock.Anything, int64(3)).Return(90, nil)
	payouts.On("GetOrCreateReferralPayout", mock.Anything, referrer, int64(10), today, int64(99), ReferralPayoutNote).
		Return(nil, false, errors.New("deadlock detected"))
	payouts.On("GetOrCreateReferralPayout", mock.Anything, referrer, int64(11), today, int64(99), ReferralPayoutNote).
		Return(&model.Payout{ID: 100}, true, nil)
	referrals.On("UpdateUserReferralHitStatus", mock.Anything, int64(11), model.ReferralOpened).Return(nil)

	report, err := service.RunDailyPayouts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.ReferralsFailed)
	assert.Equal(t, 1, report.ReferralPayoutsCreated)
	users.AssertExpectations(t)
	payouts.AssertExpectations(t)
	referrals.AssertExpectations(t)
	referrals.AssertNotCalled(t, "UpdateUserReferralHitStatus", mock.Anything, int64(10), mock.Anything)
}

func TestRunDailyPayouts_ActivityFailureContinues(t *testing.T) {
	now := time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)

	users := &mocks.MockUserRepository{}
	payouts := &mocks.MockPayoutRepository{}
	referrals := &mocks.MockReferralRepository{}
	service := NewPayoutService(users, payouts, referrals, clock.Fixed(now), DefaultConfig())

	users.On("GetActiveUsers", mock.Anything, mock.Anything).Return([]*model.User{{ID: 1}, {ID: 2}}, nil)
	payouts.On("GetOrCreateActivityPayout", mock.Anything, int64(1), mock.Anything, int64(16)).
		Return(nil, false, errors.New("connection reset"))
	payouts.On("GetOrCreateActivityPayout", mock.Anything, int64(2), mock.Anything, int64(16)).
		Return(&model.Payout{ID: 5}, true, nil)
	referrals.On("ListUserReferralHitsByStatus", mock.Anything, model.ReferralNone).Return([]*model.UserReferralHit{}, nil)
	referrals.On("CountQualifiedReferrals", mock.Anything).Return(int64(0), nil)

	report, err := service.RunDailyPayouts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.ActivityPayoutsFailed)
	assert.Equal(t, 1, report.ActivityPayoutsCreated)
	payouts.AssertExpectations(t)
}

func TestCurrentPayoutPerReferral(t *testing.T) {
	tests := []struct {
		name      string
		qualified int64
		expected  int64
	}{
		{name: "no referrals yet", qualified: 0, expected: 99},
		{name: "one qualified", qualified: 1, expected: 97},
		{name: "three qualified", qualified: 3, expected: 93},
		{name: "ninety nine qualified", qualified: 99, expected: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			referrals := &mocks.MockReferralRepository{}
			service := NewPayoutService(nil, nil, referrals, clock.Real(), DefaultConfig())
			referrals.On("CountQualifiedReferrals", mock.Anything).Return(tt.qualified, nil)

			amount, err := service.CurrentPayoutPerReferral(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount)
		})
	}
}
