package model

import "time"

type PayoutStatus int

const (
	// PayoutStatusAny is a query filter only, never stored.
	PayoutStatusAny PayoutStatus = -1

	PayoutUnpaid     PayoutStatus = 0
	PayoutRequesting PayoutStatus = 1
	PayoutPaid       PayoutStatus = 2
)

func (s PayoutStatus) String() string {
	switch s {
	case PayoutStatusAny:
		return "any"
	case PayoutUnpaid:
		return "unpaid"
	case PayoutRequesting:
		return "requesting"
	case PayoutPaid:
		return "paid"
	default:
		return "unknown"
	}
}

func ParsePayoutStatus(s string) (PayoutStatus, bool) {
	switch s {
	case "", "any":
		return PayoutStatusAny, true
	case "unpaid":
		return PayoutUnpaid, true
	case "requesting":
		return PayoutRequesting, true
	case "paid":
		return PayoutPaid, true
	default:
		return PayoutStatusAny, false
	}
}

const (
	PayoutTypeActivities = "activities"
	PayoutTypeReferral   = "referral"
)

type Payout struct {
	ID                int64
	UserID            *int64
	Amount            *int64
	PaymentStatus     PayoutStatus
	Note              string
	Date              time.Time
	UserReferralHitID *int64
	CreatedAt         time.Time
	ModifiedAt        time.Time
}

func (p *Payout) PayoutType() string {
	if p.UserReferralHitID != nil {
		return PayoutTypeReferral
	}
	return PayoutTypeActivities
}

func (p *Payout) AmountOrZero() int64 {
	if p.Amount == nil {
		return 0
	}
	return *p.Amount
}
