package service

import (
	"context"
	"errors"
	"fmt"

	"rewards_engine/internal/metrics"
	"rewards_engine/internal/model"
	"rewards_engine/internal/repository"
	"rewards_engine/pkg/logger"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RequestPayout snapshots every unpaid payout of the user into a new request
// and moves them, with their referral rows, to requesting.
func (s *PayoutService) RequestPayout(ctx context.Context, userID int64) (*model.PayoutRequest, error) {
	var request *model.PayoutRequest

	err := s.payouts.Atomic(ctx, func(ctx context.Context) error {
		_, err := s.users.LockUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		outstanding, err := s.payouts.CountPayoutRequests(ctx, userID, model.RequestRequesting)
		if err != nil {
			return fmt.Errorf("failed to count outstanding requests: %w", err)
		}
		if outstanding > 0 {
			return ErrDuplicateRequest
		}

		unpaid, err := s.payouts.LockUnpaidPayouts(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get unpaid payouts: %w", err)
		}

		total := lo.SumBy(unpaid, func(p *model.Payout) int64 {
			return p.AmountOrZero()
		})
		if total < s.cfg.MinimumPayoutCents {
			return ErrBelowMinimum
		}

		request = &model.PayoutRequest{
			UserID:        userID,
			Amount:        total,
			PaymentStatus: model.RequestRequesting,
			PayoutIDs: lo.Map(unpaid, func(p *model.Payout, _ int) int64 {
				return p.ID
			}),
		}

		err = s.payouts.CreatePayoutRequest(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to create payout request: %w", err)
		}

		return s.OnPayoutRequestStatusChanged(ctx, request)
	})
	if err != nil {
		metrics.PayoutRequestsTotal.WithLabelValues(requestResult(err)).Inc()
		return nil, err
	}

	metrics.PayoutRequestsTotal.WithLabelValues("created").Inc()
	logger.Logger().Info("Payout requested",
		zap.Int64("user_id", userID),
		zap.Int64("payout_request_id", request.ID),
		zap.Int64("amount", request.Amount),
		zap.Int("payouts", len(request.PayoutIDs)),
	)

	return request, nil
}

func requestResult(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}

func (s *PayoutService) ListPayoutRequests(ctx context.Context, userID int64) ([]*model.PayoutRequest, error) {
	err := s.ensureUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	requests, err := s.payouts.ListPayoutRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payout requests: %w", err)
	}

	return requests, nil
}

// OnPayoutRequestStatusChanged brings the request's payouts and their linked
// referral rows in line with the request status.
func (s *PayoutService) OnPayoutRequestStatusChanged(ctx context.Context, request *model.PayoutRequest) error {
	return s.payouts.Atomic(ctx, func(ctx context.Context) error {
		_, err := s.payouts.UpdatePayoutsStatus(ctx, request.PayoutIDs, request.PaymentStatus.PayoutStatus())
		if err != nil {
			return fmt.Errorf("failed to update payouts of request %d: %w", request.ID, err)
		}

		_, err = s.referrals.UpdateReferralStatusForPayouts(ctx, request.PayoutIDs, request.PaymentStatus.ReferralStatus())
		if err != nil {
			return fmt.Errorf("failed to update referrals of request %d: %w", request.ID, err)
		}

		return nil
	})
}

// OnPayoutStatusChanged mirrors a referral payout's status onto its referral row.
func (s *PayoutService) OnPayoutStatusChanged(ctx context.Context, payout *model.Payout) error {
	if payout.UserReferralHitID == nil {
		return nil
	}

	err := s.referrals.UpdateUserReferralHitStatus(ctx, *payout.UserReferralHitID, model.ReferralStatusForPayout(payout.PaymentStatus))
	if err != nil {
		return fmt.Errorf("failed to update referral of payout %d: %w", payout.ID, err)
	}

	return nil
}

func (s *PayoutService) SetPayoutRequestStatus(ctx context.Context, id int64, status model.PayoutRequestStatus) (*model.PayoutRequest, error) {
	if status != model.RequestRequesting && status != model.RequestPaid {
		return nil, ErrInvalidStatus
	}

	var request *model.PayoutRequest
	err := s.payouts.Atomic(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.payouts.LockPayoutRequest(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPayoutRequestNotFound
			}
			return fmt.Errorf("failed to get payout request: %w", err)
		}

		err = s.payouts.UpdatePayoutRequestStatus(ctx, id, status)
		if err != nil {
			return fmt.Errorf("failed to update payout request: %w", err)
		}
		request.PaymentStatus = status

		return s.OnPayoutRequestStatusChanged(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	logger.Logger().Info("Payout request status changed",
		zap.Int64("payout_request_id", id),
		zap.String("status", status.String()),
	)

	return request, nil
}

func (s *PayoutService) SetPayoutStatus(ctx context.Context, id int64, status model.PayoutStatus) (*model.Payout, error) {
	if status != model.PayoutUnpaid && status != model.PayoutRequesting && status != model.PayoutPaid {
		return nil, ErrInvalidStatus
	}

	var previous, payout *model.Payout
	err := s.payouts.Atomic(ctx, func(ctx context.Context) error {
		var err error
		previous, err = s.payouts.GetPayout(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPayoutNotFound
			}
			return fmt.Errorf("failed to get payout: %w", err)
		}

		payout, err = s.payouts.UpdatePayoutStatus(ctx, id, status)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPayoutNotFound
			}
			return fmt.Errorf("failed to update payout: %w", err)
		}

		return s.OnPayoutStatusChanged(ctx, payout)
	})
	if err != nil {
		return nil, err
	}

	logger.Logger().Info("Payout status changed",
		zap.Int64("payout_id", id),
		zap.String("from", previous.PaymentStatus.String()),
		zap.String("to", status.String()),
	)

	return payout, nil
}
