package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rewards_engine/internal/model"
	"rewards_engine/internal/repository"
	"rewards_engine/pkg/clock"
	"rewards_engine/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxIdentifierAttempts = 10
	identifierLength      = 12
)

type ReferralService struct {
	users         UserRepository
	referrals     ReferralRepository
	clock         clock.Clock
	cfg           Config
	newIdentifier func() string
}

func NewReferralService(users UserRepository, referrals ReferralRepository, clk clock.Clock, cfg Config) *ReferralService {
	return &ReferralService{
		users:         users,
		referrals:     referrals,
		clock:         clk,
		cfg:           cfg,
		newIdentifier: randomIdentifier,
	}
}

func randomIdentifier() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:identifierLength]
}

// ReferralLink returns the user's link, creating it on first use.
func (s *ReferralService) ReferralLink(ctx context.Context, userID int64) (*model.ReferralLink, error) {
	link, err := s.referrals.GetReferralLinkByUser(ctx, userID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get referral link: %w", err)
	}

	_, err = s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	for attempt := 1; attempt <= maxIdentifierAttempts; attempt++ {
		link = &model.ReferralLink{
			UserID:     userID,
			Identifier: s.newIdentifier(),
		}

		err = s.referrals.Atomic(ctx, func(ctx context.Context) error {
			return s.referrals.CreateReferralLink(ctx, link)
		})
		if err == nil {
			return link, nil
		}

		if errors.Is(err, repository.ErrDuplicateIdentifier) {
			logger.Logger().Warn("Referral identifier collision",
				zap.Int64("user_id", userID),
				zap.Int("attempt", attempt),
			)
			continue
		}

		// Lost a race with a concurrent creation for the same user.
		existing, getErr := s.referrals.GetReferralLinkByUser(ctx, userID)
		if getErr == nil {
			return existing, nil
		}

		return nil, fmt.Errorf("failed to create referral link: %w", err)
	}

	return nil, ErrIdentifierExhausted
}

func (s *ReferralService) ReferralURL(identifier string) string {
	return fmt.Sprintf("%s/ref/%s/", strings.TrimRight(s.cfg.BaseURL, "/"), identifier)
}

// RecordHit stores a visit of hitUserID through the link with the given identifier.
func (s *ReferralService) RecordHit(ctx context.Context, identifier string, hitUserID int64) (*model.ReferralHit, error) {
	link, err := s.referrals.GetReferralLinkByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReferralLinkNotFound
		}
		return nil, fmt.Errorf("failed to get referral link: %w", err)
	}

	_, err = s.users.GetUserByID(ctx, hitUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	hit := &model.ReferralHit{
		ReferralLinkID: link.ID,
		HitUserID:      hitUserID,
	}

	err = s.referrals.CreateReferralHit(ctx, hit)
	if err != nil {
		return nil, fmt.Errorf("failed to record referral hit: %w", err)
	}

	return hit, nil
}

// ConfirmReferral credits the owner of the link the user most recently
// arrived through. It returns nil without error when there is no such hit.
func (s *ReferralService) ConfirmReferral(ctx context.Context, hitUserID int64) (*model.UserReferralHit, error) {
	var confirmed *model.UserReferralHit

	err := s.referrals.Atomic(ctx, func(ctx context.Context) error {
		hit, err := s.referrals.GetLatestReferralHit(ctx, hitUserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get referral hit: %w", err)
		}

		link, err := s.referrals.GetReferralLinkByID(ctx, hit.ReferralLinkID)
		if err != nil {
			return fmt.Errorf("failed to get referral link: %w", err)
		}

		// Self-referrals never earn.
		if link.UserID == hitUserID {
			return nil
		}

		confirmed, _, err = s.referrals.GetOrCreateUserReferralHit(ctx, link.UserID, hit.ID)
		if err != nil {
			return fmt.Errorf("failed to link referral hit: %w", err)
		}

		if hit.Confirmed == nil {
			err = s.referrals.ConfirmReferralHit(ctx, hit.ID, s.clock.Now())
			if err != nil {
				return fmt.Errorf("failed to confirm referral hit: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return confirmed, nil
}

func (s *ReferralService) ListReferrals(ctx context.Context, userID int64) ([]*model.UserReferralHit, error) {
	_, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	hits, err := s.referrals.ListUserReferralHits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	return hits, nil
}
