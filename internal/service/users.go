package service

import (
	"context"
	"errors"
	"fmt"

	"rewards_engine/internal/model"
	"rewards_engine/internal/repository"
	"rewards_engine/pkg/clock"
)

type UserService struct {
	repo  UserRepository
	tx    Transactor
	clock clock.Clock
	cfg   Config
}

func NewUserService(repo UserRepository, tx Transactor, clk clock.Clock, cfg Config) *UserService {
	return &UserService{
		repo:  repo,
		tx:    tx,
		clock: clk,
		cfg:   cfg,
	}
}

// RegisterUser admits the user while fewer than AllowedUsers are admitted and
// waitlists everyone after that.
func (s *UserService) RegisterUser(ctx context.Context, user *model.User) error {
	return s.tx.Atomic(ctx, func(ctx context.Context) error {
		admitted, err := s.repo.CountAdmittedUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to count admitted users: %w", err)
		}

		user.IsActive = true
		user.IsWaitlisted = admitted >= s.cfg.AllowedUsers

		err = s.repo.CreateUser(ctx, user)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return ErrUserExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		return nil
	})
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// TouchActivity records that the user was active now.
func (s *UserService) TouchActivity(ctx context.Context, userID int64) error {
	err := s.repo.UpdateLastActivity(ctx, userID, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update last activity: %w", err)
	}
	return nil
}

func (s *UserService) UpdateWaitlistStatus(ctx context.Context, userID int64, waitlisted bool) error {
	err := s.repo.UpdateUserWaitlistStatus(ctx, userID, waitlisted)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update waitlist status: %w", err)
	}
	return nil
}
