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

type ReferralLink struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	Identifier string    `db:"identifier"`
	CreatedAt  time.Time `db:"created_at"`
}

func (l ReferralLink) toModel() *model.ReferralLink {
	return &model.ReferralLink{
		ID:         l.ID,
		UserID:     l.UserID,
		Identifier: l.Identifier,
		CreatedAt:  l.CreatedAt,
	}
}

type ReferralHit struct {
	ID             int64      `db:"id"`
	ReferralLinkID int64      `db:"referral_link_id"`
	HitUserID      int64      `db:"hit_user_id"`
	Confirmed      *time.Time `db:"confirmed"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (h ReferralHit) toModel() *model.ReferralHit {
	return &model.ReferralHit{
		ID:             h.ID,
		ReferralLinkID: h.ReferralLinkID,
		HitUserID:      h.HitUserID,
		Confirmed:      h.Confirmed,
		CreatedAt:      h.CreatedAt,
	}
}

type UserReferralHit struct {
	ID            int64     `db:"id"`
	UserID        *int64    `db:"user_id"`
	ReferralHitID int64     `db:"referral_hit_id"`
	HitUserID     int64     `db:"hit_user_id"`
	PaymentStatus int       `db:"payment_status"`
	CreatedAt     time.Time `db:"created_at"`
}

func (h UserReferralHit) toModel() *model.UserReferralHit {
	return &model.UserReferralHit{
		ID:            h.ID,
		UserID:        h.UserID,
		ReferralHitID: h.ReferralHitID,
		HitUserID:     h.HitUserID,
		PaymentStatus: model.ReferralStatus(h.PaymentStatus),
		CreatedAt:     h.CreatedAt,
	}
}

var (
	referralLinkColumns = []string{"id", "user_id", "identifier", "created_at"}
	referralHitColumns  = []string{"id", "referral_link_id", "hit_user_id", "confirmed", "created_at"}
)

func userReferralHitSelect() squirrel.SelectBuilder {
	return psql.
		Select(
			"urh.id",
			"urh.user_id",
			"urh.referral_hit_id",
			"rh.hit_user_id",
			"urh.payment_status",
			"urh.created_at",
		).
		From("user_referral_hits urh").
		Join("referral_hits rh ON rh.id = urh.referral_hit_id")
}

func (r *Repository) GetReferralLinkByUser(ctx context.Context, userID int64) (*model.ReferralLink, error) {
	return r.getReferralLink(ctx, squirrel.Eq{"user_id": userID})
}

func (r *Repository) GetReferralLinkByID(ctx context.Context, id int64) (*model.ReferralLink, error) {
	return r.getReferralLink(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) GetReferralLinkByIdentifier(ctx context.Context, identifier string) (*model.ReferralLink, error) {
	return r.getReferralLink(ctx, squirrel.Eq{"identifier": identifier})
}

func (r *Repository) getReferralLink(ctx context.Context, where squirrel.Eq) (*model.ReferralLink, error) {
	query, args, err := psql.
		Select(referralLinkColumns...).
		From("referral_links").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row ReferralLink
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

// CreateReferralLink returns ErrDuplicateIdentifier when the identifier is taken.
// A concurrent insert for the same user surfaces as a plain error.
func (r *Repository) CreateReferralLink(ctx context.Context, link *model.ReferralLink) error {
	query, args, err := psql.
		Insert("referral_links").
		Columns("user_id", "identifier").
		Values(link.UserID, link.Identifier).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referral link insert query: %w", err)
	}

	var row ReferralLink
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if isUniqueViolation(err) && isIdentifierConstraint(err) {
			return ErrDuplicateIdentifier
		}
		return fmt.Errorf("failed to insert referral link: %w", err)
	}

	link.ID = row.ID
	link.CreatedAt = row.CreatedAt

	return nil
}

func (r *Repository) CreateReferralHit(ctx context.Context, hit *model.ReferralHit) error {
	query, args, err := psql.
		Insert("referral_hits").
		Columns("referral_link_id", "hit_user_id").
		Values(hit.ReferralLinkID, hit.HitUserID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referral hit insert query: %w", err)
	}

	var row ReferralHit
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert referral hit: %w", err)
	}

	hit.ID = row.ID
	hit.CreatedAt = row.CreatedAt

	return nil
}

// GetLatestReferralHit returns the most recent hit recorded for the given hit user.
func (r *Repository) GetLatestReferralHit(ctx context.Context, hitUserID int64) (*model.ReferralHit, error) {
	query, args, err := psql.
		Select(referralHitColumns...).
		From("referral_hits").
		Where(squirrel.Eq{"hit_user_id": hitUserID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row ReferralHit
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ConfirmReferralHit(ctx context.Context, id int64, at time.Time) error {
	query, args, err := psql.
		Update("referral_hits").
		Set("confirmed", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to confirm referral hit: %w", err)
	}

	return nil
}

// GetOrCreateUserReferralHit links a referral hit to its referrer, once.
func (r *Repository) GetOrCreateUserReferralHit(ctx context.Context, userID, referralHitID int64) (*model.UserReferralHit, bool, error) {
	query, args, err := psql.
		Insert("user_referral_hits").
		Columns("user_id", "referral_hit_id", "payment_status").
		Values(userID, referralHitID, int(model.ReferralNone)).
		Suffix("ON CONFLICT (referral_hit_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build user referral hit insert query: %w", err)
	}

	created := true
	var id int64
	err = sqlx.GetContext(ctx, r.conn(ctx), &id, query, args...)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("failed to insert user referral hit: %w", err)
		}
		created = false
	}

	query, args, err = userReferralHitSelect().
		Where(squirrel.Eq{"urh.referral_hit_id": referralHitID}).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	var row UserReferralHit
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get user referral hit: %w", err)
	}

	return row.toModel(), created, nil
}

// ListUserReferralHitsByStatus returns every referral row in status, oldest first.
func (r *Repository) ListUserReferralHitsByStatus(ctx context.Context, status model.ReferralStatus) ([]*model.UserReferralHit, error) {
	return r.listUserReferralHits(ctx, squirrel.Eq{"urh.payment_status": int(status)})
}

// ListUserReferralHits returns the referral rows owned by the referrer.
func (r *Repository) ListUserReferralHits(ctx context.Context, userID int64) ([]*model.UserReferralHit, error) {
	return r.listUserReferralHits(ctx, squirrel.Eq{"urh.user_id": userID})
}

func (r *Repository) listUserReferralHits(ctx context.Context, where squirrel.Eq) ([]*model.UserReferralHit, error) {
	query, args, err := userReferralHitSelect().
		Where(where).
		OrderBy("urh.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user referral hits query: %w", err)
	}

	var rows []UserReferralHit
	err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user referral hits: %w", err)
	}

	hits := make([]*model.UserReferralHit, len(rows))
	for i, row := range rows {
		hits[i] = row.toModel()
	}

	return hits, nil
}

// CountQualifiedReferrals counts referral rows that have left the NONE status, across all users.
func (r *Repository) CountQualifiedReferrals(ctx context.Context) (int64, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("user_referral_hits").
		Where(squirrel.NotEq{"payment_status": int(model.ReferralNone)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	err = sqlx.GetContext(ctx, r.conn(ctx), &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count qualified referrals: %w", err)
	}

	return count, nil
}

// CountUserReferrals counts the referrer's rows; activeOnly restricts to rows past NONE.
func (r *Repository) CountUserReferrals(ctx context.Context, userID int64, activeOnly bool) (int, error) {
	builder := psql.
		Select("COUNT(*)").
		From("user_referral_hits").
		Where(squirrel.Eq{"user_id": userID})
	if activeOnly {
		builder = builder.Where(squirrel.NotEq{"payment_status": int(model.ReferralNone)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = sqlx.GetContext(ctx, r.conn(ctx), &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count user referrals: %w", err)
	}

	return count, nil
}

func (r *Repository) UpdateUserReferralHitStatus(ctx context.Context, id int64, status model.ReferralStatus) error {
	query, args, err := psql.
		Update("user_referral_hits").
		Set("payment_status", int(status)).
		Set("modified_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user referral hit status: %w", err)
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

// UpdateReferralStatusForPayouts moves the referral rows linked to the given payouts.
func (r *Repository) UpdateReferralStatusForPayouts(ctx context.Context, payoutIDs []int64, status model.ReferralStatus) (int64, error) {
	if len(payoutIDs) == 0 {
		return 0, nil
	}

	sub, subArgs, err := squirrel.
		Select("user_referral_hit_id").
		From("payouts").
		Where(squirrel.Eq{"id": payoutIDs}).
		Where(squirrel.NotEq{"user_referral_hit_id": nil}).
		ToSql()
	if err != nil {
		return 0, err
	}

	query, args, err := psql.
		Update("user_referral_hits").
		Set("payment_status", int(status)).
		Set("modified_at", squirrel.Expr("now()")).
		Where(squirrel.Expr("id IN ("+sub+")", subArgs...)).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update referral statuses: %w", err)
	}

	return result.RowsAffected()
}
