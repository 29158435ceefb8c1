package model

import "time"

type ReferralStatus int

const (
	ReferralNone       ReferralStatus = 0
	ReferralOpened     ReferralStatus = 1
	ReferralRequesting ReferralStatus = 2
	ReferralPaid       ReferralStatus = 3
)

func (s ReferralStatus) String() string {
	switch s {
	case ReferralNone:
		return "none"
	case ReferralOpened:
		return "opened"
	case ReferralRequesting:
		return "requesting"
	case ReferralPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// ReferralStatusForPayout mirrors a referral payout's status onto its referral row.
func ReferralStatusForPayout(s PayoutStatus) ReferralStatus {
	switch s {
	case PayoutPaid:
		return ReferralPaid
	case PayoutRequesting:
		return ReferralRequesting
	default:
		return ReferralOpened
	}
}

type ReferralLink struct {
	ID         int64
	UserID     int64
	Identifier string
	CreatedAt  time.Time
}

type ReferralHit struct {
	ID             int64
	ReferralLinkID int64
	HitUserID      int64
	Confirmed      *time.Time
	CreatedAt      time.Time
}

// UserReferralHit ties a referring user to one confirmed referral hit.
type UserReferralHit struct {
	ID            int64
	UserID        *int64
	ReferralHitID int64
	HitUserID     int64
	PaymentStatus ReferralStatus
	CreatedAt     time.Time
}
