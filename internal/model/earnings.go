package model

import "time"

type EarningsProfile struct {
	UserID               int64
	IsWaitlisted         bool
	IsActive             bool
	LastActivity         string
	PaidAmount           int64
	PaidAmountText       string
	RequestingAmount     int64
	RequestingAmountText string
	UnpaidAmount         int64
	UnpaidAmountText     string
	ReferralEarnings     int64
	ReferralEarningsText string
	Referrals            int
	ActiveReferrals      int
	PayoutPerReferral    int64
	ReferralURL          string
}

type DailyRunReport struct {
	Date                    time.Time
	ActiveUsers             int
	DailyAmount             int64
	ActivityPayoutsCreated  int
	ActivityPayoutsExisting int
	ActivityPayoutsFailed   int
	ReferralPayoutsCreated  int
	ReferralsPending        int
	ReferralsFailed         int
}
