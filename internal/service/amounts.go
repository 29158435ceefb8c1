package service

import (
	"math"
	"time"
)

// DaysInMonth returns the number of days in t's calendar month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// CalculateDailyAmount splits budget evenly over the days of now's month and
// then over n users, truncating to whole cents.
func CalculateDailyAmount(budget int64, now time.Time, n int) int64 {
	if n <= 0 || budget <= 0 {
		return 0
	}
	return budget / int64(DaysInMonth(now)) / int64(n)
}

// CalculateReferralAmount returns the cents owed for the referral at the given
// 1-based rank, drawn from a pool of poolTotal dollars. Each referral is worth
// f(rank) - f(rank-1) with f(r) = pool*r/(r+pool), so the series sums to at most pool.
func CalculateReferralAmount(rank, poolTotal int64) int64 {
	if rank <= 0 || poolTotal <= 0 {
		return 0
	}

	r := float64(rank)
	p := float64(poolTotal)
	amount := p*r/(r+p) - (p*r-p)/(r+p-1)

	return int64(math.Round(amount * 100))
}
