package model

import "time"

type PayoutRequestStatus int

const (
	RequestRequesting PayoutRequestStatus = 0
	RequestPaid       PayoutRequestStatus = 1
)

func (s PayoutRequestStatus) String() string {
	switch s {
	case RequestRequesting:
		return "requesting"
	case RequestPaid:
		return "paid"
	default:
		return "unknown"
	}
}

func ParsePayoutRequestStatus(s string) (PayoutRequestStatus, bool) {
	switch s {
	case "requesting":
		return RequestRequesting, true
	case "paid":
		return RequestPaid, true
	default:
		return RequestRequesting, false
	}
}

// PayoutStatus is the status the referenced payouts carry while the request is in s.
func (s PayoutRequestStatus) PayoutStatus() PayoutStatus {
	if s == RequestPaid {
		return PayoutPaid
	}
	return PayoutRequesting
}

// ReferralStatus is the status linked referral rows carry while the request is in s.
func (s PayoutRequestStatus) ReferralStatus() ReferralStatus {
	if s == RequestPaid {
		return ReferralPaid
	}
	return ReferralRequesting
}

type PayoutRequest struct {
	ID            int64
	UserID        int64
	Amount        int64
	PaymentStatus PayoutRequestStatus
	PayoutIDs     []int64
	Note          string
	CreatedAt     time.Time
	ModifiedAt    time.Time
}
