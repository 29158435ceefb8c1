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

type Payout struct {
	ID                int64     `db:"id"`
	UserID            *int64    `db:"user_id"`
	Amount            *int64    `db:"amount"`
	PaymentStatus     int       `db:"payment_status"`
	Note              string    `db:"note"`
	Date              time.Time `db:"date"`
	UserReferralHitID *int64    `db:"user_referral_hit_id"`
	CreatedAt         time.Time `db:"created_at"`
	ModifiedAt        time.Time `db:"modified_at"`
}

var payoutColumns = []string{
	"id",
	"user_id",
	"amount",
	"payment_status",
	"note",
	"date",
	"user_referral_hit_id",
	"created_at",
	"modified_at",
}

func (p Payout) toModel() *model.Payout {
	return &model.Payout{
		ID:                p.ID,
		UserID:            p.UserID,
		Amount:            p.Amount,
		PaymentStatus:     model.PayoutStatus(p.PaymentStatus),
		Note:              p.Note,
		Date:              p.Date,
		UserReferralHitID: p.UserReferralHitID,
		CreatedAt:         p.CreatedAt,
		ModifiedAt:        p.ModifiedAt,
	}
}

func payoutsToModel(rows []Payout) []*model.Payout {
	payouts := make([]*model.Payout, len(rows))
	for i, row := range rows {
		payouts[i] = row.toModel()
	}
	return payouts
}

// GetOrCreateActivityPayout inserts the (user, date) activity payout unless one
// already exists. The existing row is returned untouched with created == false.
func (r *Repository) GetOrCreateActivityPayout(ctx context.Context, userID int64, date time.Time, amount int64) (*model.Payout, bool, error) {
	insert := psql.
		Insert("payouts").
		SetMap(map[string]interface{}{
			"user_id":        userID,
			"amount":         amount,
			"payment_status": int(model.PayoutUnpaid),
			"date":           date,
		}).
		Suffix("ON CONFLICT (user_id, date) WHERE user_referral_hit_id IS NULL DO NOTHING").
		Suffix("RETURNING " + joinColumns(payoutColumns))

	lookup := psql.
		Select(payoutColumns...).
		From("payouts").
		Where(squirrel.Eq{
			"user_id":              userID,
			"date":                 date,
			"user_referral_hit_id": nil,
		})

	return r.getOrCreatePayout(ctx, insert, lookup)
}

// GetOrCreateReferralPayout is the referral counterpart keyed on (user, referral row).
func (r *Repository) GetOrCreateReferralPayout(ctx context.Context, userID, userReferralHitID int64, date time.Time, amount int64, note string) (*model.Payout, bool, error) {
	insert := psql.
		Insert("payouts").
		SetMap(map[string]interface{}{
			"user_id":              userID,
			"amount":               amount,
			"payment_status":       int(model.PayoutUnpaid),
			"note":                 note,
			"date":                 date,
			"user_referral_hit_id": userReferralHitID,
		}).
		Suffix("ON CONFLICT (user_id, user_referral_hit_id) WHERE user_referral_hit_id IS NOT NULL DO NOTHING").
		Suffix("RETURNING " + joinColumns(payoutColumns))

	lookup := psql.
		Select(payoutColumns...).
		From("payouts").
		Where(squirrel.Eq{
			"user_id":              userID,
			"user_referral_hit_id": userReferralHitID,
		})

	return r.getOrCreatePayout(ctx, insert, lookup)
}

func (r *Repository) getOrCreatePayout(ctx context.Context, insert squirrel.InsertBuilder, lookup squirrel.SelectBuilder) (*model.Payout, bool, error) {
	query, args, err := insert.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build payout insert query: %w", err)
	}

	var row Payout
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err == nil {
		return row.toModel(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert payout: %w", err)
	}

	query, args, err = lookup.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build payout lookup query: %w", err)
	}

	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get existing payout: %w", err)
	}

	return row.toModel(), false, nil
}

func (r *Repository) GetPayout(ctx context.Context, id int64) (*model.Payout, error) {
	query, args, err := psql.
		Select(payoutColumns...).
		From("payouts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row Payout
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) UpdatePayoutStatus(ctx context.Context, id int64, status model.PayoutStatus) (*model.Payout, error) {
	query, args, err := psql.
		Update("payouts").
		Set("payment_status", int(status)).
		Set("modified_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(payoutColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row Payout
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update payout status: %w", err)
	}

	return row.toModel(), nil
}

// UpdatePayoutsStatus bulk-updates the given payouts and returns the number of rows touched.
func (r *Repository) UpdatePayoutsStatus(ctx context.Context, ids []int64, status model.PayoutStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := psql.
		Update("payouts").
		Set("payment_status", int(status)).
		Set("modified_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update payouts status: %w", err)
	}

	return result.RowsAffected()
}

func (r *Repository) ListPayouts(ctx context.Context, userID int64, status model.PayoutStatus) ([]*model.Payout, error) {
	return r.listPayouts(ctx, userID, status, false)
}

// LockUnpaidPayouts selects the user's unpaid payouts FOR UPDATE.
func (r *Repository) LockUnpaidPayouts(ctx context.Context, userID int64) ([]*model.Payout, error) {
	return r.listPayouts(ctx, userID, model.PayoutUnpaid, true)
}

func (r *Repository) listPayouts(ctx context.Context, userID int64, status model.PayoutStatus, forUpdate bool) ([]*model.Payout, error) {
	builder := psql.
		Select(payoutColumns...).
		From("payouts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id")
	if status != model.PayoutStatusAny {
		builder = builder.Where(squirrel.Eq{"payment_status": int(status)})
	}
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build payouts query: %w", err)
	}

	var rows []Payout
	err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}

	return payoutsToModel(rows), nil
}

func (r *Repository) SumPayouts(ctx context.Context, userID int64, status model.PayoutStatus) (int64, error) {
	builder := psql.
		Select("COALESCE(SUM(amount), 0)").
		From("payouts").
		Where(squirrel.Eq{"user_id": userID})
	if status != model.PayoutStatusAny {
		builder = builder.Where(squirrel.Eq{"payment_status": int(status)})
	}

	return r.sum(ctx, builder)
}

func (r *Repository) SumReferralPayouts(ctx context.Context, userID int64) (int64, error) {
	builder := psql.
		Select("COALESCE(SUM(amount), 0)").
		From("payouts").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.NotEq{"user_referral_hit_id": nil})

	return r.sum(ctx, builder)
}

func (r *Repository) CountActivityPayouts(ctx context.Context, userID int64) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("payouts").
		Where(squirrel.Eq{
			"user_id":              userID,
			"user_referral_hit_id": nil,
		}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = sqlx.GetContext(ctx, r.conn(ctx), &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity payouts: %w", err)
	}

	return count, nil
}

// ListRequestedPayouts returns payouts referenced by the user's requests in the given status.
func (r *Repository) ListRequestedPayouts(ctx context.Context, userID int64, status model.PayoutRequestStatus) ([]*model.Payout, error) {
	columns := make([]string, len(payoutColumns))
	for i, c := range payoutColumns {
		columns[i] = "p." + c
	}

	query, args, err := psql.
		Select(columns...).
		From("payouts p").
		Join("payout_request_payouts prp ON prp.payout_id = p.id").
		Join("payout_requests pr ON pr.id = prp.payout_request_id").
		Where(squirrel.Eq{
			"pr.user_id":        userID,
			"pr.payment_status": int(status),
		}).
		OrderBy("pr.id", "prp.position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build requested payouts query: %w", err)
	}

	var rows []Payout
	err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requested payouts: %w", err)
	}

	return payoutsToModel(rows), nil
}

func (r *Repository) sum(ctx context.Context, builder squirrel.SelectBuilder) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var total int64
	err = sqlx.GetContext(ctx, r.conn(ctx), &total, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to sum amounts: %w", err)
	}

	return total, nil
}
