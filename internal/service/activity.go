package service

import (
	"context"
	"fmt"
	"time"

	"rewards_engine/internal/model"
)

// ActiveUsers returns users eligible for today's activity payout.
func (s *PayoutService) ActiveUsers(ctx context.Context) ([]*model.User, error) {
	since := s.cfg.windowStart(s.clock.Now())

	users, err := s.users.GetActiveUsers(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}

	return users, nil
}

// IsUserActive applies the same predicate as ActiveUsers to a single user.
func (s *PayoutService) IsUserActive(user *model.User, now time.Time) bool {
	if user == nil || !user.IsActive || user.IsWaitlisted || user.LastActivityTime == nil {
		return false
	}
	return !user.LastActivityTime.Before(s.cfg.windowStart(now))
}

// windowStart is local midnight of the first day of the trailing activity window.
func (c Config) windowStart(now time.Time) time.Time {
	days := c.ActivityWindowDays
	if days < 1 {
		days = 1
	}
	return startOfDay(now.In(c.location()).AddDate(0, 0, -(days - 1)))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// accrualDate is the calendar date of now in loc, as midnight UTC for DATE columns.
func accrualDate(now time.Time, loc *time.Location) time.Time {
	t := now.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
