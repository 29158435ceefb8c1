package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rewards_engine/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type User struct {
	ID               int64      `db:"id"`
	Email            string     `db:"email"`
	IsActive         bool       `db:"is_active"`
	IsWaitlisted     bool       `db:"is_waitlisted"`
	LastActivityTime *time.Time `db:"last_activity_time"`
	CreatedAt        time.Time  `db:"created_at"`
	ModifiedAt       time.Time  `db:"modified_at"`
}

var userColumns = []string{
	"id",
	"email",
	"is_active",
	"is_waitlisted",
	"last_activity_time",
	"created_at",
	"modified_at",
}

func (u User) toModel() *model.User {
	return &model.User{
		ID:               u.ID,
		Email:            u.Email,
		IsActive:         u.IsActive,
		IsWaitlisted:     u.IsWaitlisted,
		LastActivityTime: u.LastActivityTime,
		CreatedAt:        u.CreatedAt,
		ModifiedAt:       u.ModifiedAt,
	}
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query, args, err := psql.
		Insert("users").
		SetMap(map[string]interface{}{
			"email":              user.Email,
			"is_active":          user.IsActive,
			"is_waitlisted":      user.IsWaitlisted,
			"last_activity_time": user.LastActivityTime,
		}).
		Suffix("RETURNING id, created_at, modified_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert query: %w", err)
	}

	var row User
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	user.ModifiedAt = row.ModifiedAt

	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, id, false)
}

// LockUser reads the user row with FOR UPDATE. Only meaningful inside Atomic.
func (r *Repository) LockUser(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, id, true)
}

func (r *Repository) getUser(ctx context.Context, id int64, forUpdate bool) (*model.User, error) {
	builder := psql.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	err = sqlx.GetContext(ctx, r.conn(ctx), &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

// GetActiveUsers returns enabled, admitted users whose last activity is at or after since.
func (r *Repository) GetActiveUsers(ctx context.Context, since time.Time) ([]*model.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{
			"is_active":     true,
			"is_waitlisted": false,
		}).
		Where(squirrel.GtOrEq{"last_activity_time": since}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build active users query: %w", err)
	}

	var rows []User
	err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}

	users := make([]*model.User, len(rows))
	for i, row := range rows {
		users[i] = row.toModel()
	}

	return users, nil
}

func (r *Repository) CountAdmittedUsers(ctx context.Context) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("users").
		Where(squirrel.Eq{"is_waitlisted": false}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = sqlx.GetContext(ctx, r.conn(ctx), &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count admitted users: %w", err)
	}

	return count, nil
}

func (r *Repository) UpdateLastActivity(ctx context.Context, id int64, at time.Time) error {
	return r.updateUser(ctx, id, map[string]interface{}{
		"last_activity_time": at,
	})
}

func (r *Repository) UpdateUserWaitlistStatus(ctx context.Context, id int64, waitlisted bool) error {
	return r.updateUser(ctx, id, map[string]interface{}{
		"is_waitlisted": waitlisted,
	})
}

func (r *Repository) updateUser(ctx context.Context, id int64, values map[string]interface{}) error {
	values["modified_at"] = squirrel.Expr("now()")

	query, args, err := psql.
		Update("users").
		SetMap(values).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
