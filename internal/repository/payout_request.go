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
	"github.com/lib/pq"
)

type PayoutRequest struct {
	ID            int64         `db:"id"`
	UserID        int64         `db:"user_id"`
	Amount        int64         `db:"amount"`
	PaymentStatus int           `db:"payment_status"`
	Note          string        `db:"note"`
	PayoutIDs     pq.Int64Array `db:"payout_ids"`
	CreatedAt     time.Time     `db:"created_at"`
	ModifiedAt    time.Time     `db:"modified_at"`
}

func (p PayoutRequest) toModel() *model.PayoutRequest {
	ids := []int64(p.PayoutIDs)
	if ids == nil {
		ids = []int64{}
	}

	return &model.PayoutRequest{
		ID:            p.ID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		PaymentStatus: model.PayoutRequestStatus(p.PaymentStatus),
		PayoutIDs:     ids,
		Note:          p.Note,
		CreatedAt:     p.CreatedAt,
		ModifiedAt:    p.ModifiedAt,
	}
}

func payoutRequestSelect() squirrel.SelectBuilder {
	return psql.
		Select(
			"pr.id",
			"pr.user_id",
			"pr.amount",
			"pr.payment_status",
			"pr.note",
			"pr.created_at",
			"pr.modified_at",
			"COALESCE((SELECT array_agg(prp.payout_id ORDER BY prp.position) "+
				"FROM payout_request_payouts prp WHERE prp.payout_request_id = pr.id), '{}') AS payout_ids",
		).
		From("payout_requests pr")
}

// CreatePayoutRequest inserts the request and its ordered payout snapshot.
// Callers run it inside Atomic so both writes land together.
func (r *Repository) CreatePayoutRequest(ctx context.Context, request *model.PayoutRequest) error {
	query, args, err := psql.
		Insert("payout_requests").
		SetMap(map[string]interface{}{
			"user_id":        request.UserID,
			"amount":         request.Amount,
			"payment_status": int(request.PaymentStatus),
			"note":           request.Note,
		}).
		Suffix("RETURNING id, created_at, modified_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payout request insert query: %w", err)
	}

	var row PayoutRequest
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert payout request: %w", err)
	}

	request.ID = row.ID
	request.CreatedAt = row.CreatedAt
	request.ModifiedAt = row.ModifiedAt

	if len(request.PayoutIDs) == 0 {
		return nil
	}

	builder := psql.
		Insert("payout_request_payouts").
		Columns("payout_request_id", "payout_id", "position")
	for i, payoutID := range request.PayoutIDs {
		builder = builder.Values(request.ID, payoutID, i)
	}

	query, args, err = builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payout snapshot query: %w", err)
	}

	_, err = r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert payout snapshot: %w", err)
	}

	return nil
}

// LockPayoutRequest reads the request with FOR UPDATE. Only meaningful inside Atomic.
func (r *Repository) LockPayoutRequest(ctx context.Context, id int64) (*model.PayoutRequest, error) {
	query, args, err := payoutRequestSelect().
		Where(squirrel.Eq{"pr.id": id}).
		Suffix("FOR UPDATE OF pr").
		ToSql()
	if err != nil {
		return nil, err
	}

	var row PayoutRequest
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ListPayoutRequests(ctx context.Context, userID int64) ([]*model.PayoutRequest, error) {
	query, args, err := payoutRequestSelect().
		Where(squirrel.Eq{"pr.user_id": userID}).
		OrderBy("pr.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build payout requests query: %w", err)
	}

	var rows []PayoutRequest
	err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payout requests: %w", err)
	}

	requests := make([]*model.PayoutRequest, len(rows))
	for i, row := range rows {
		requests[i] = row.toModel()
	}

	return requests, nil
}

func (r *Repository) CountPayoutRequests(ctx context.Context, userID int64, status model.PayoutRequestStatus) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("payout_requests").
		Where(squirrel.Eq{
			"user_id":        userID,
			"payment_status": int(status),
		}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = sqlx.GetContext(ctx, r.conn(ctx), &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count payout requests: %w", err)
	}

	return count, nil
}

func (r *Repository) SumPayoutRequests(ctx context.Context, userID int64, status model.PayoutRequestStatus) (int64, error) {
	builder := psql.
		Select("COALESCE(SUM(amount), 0)").
		From("payout_requests").
		Where(squirrel.Eq{
			"user_id":        userID,
			"payment_status": int(status),
		})

	return r.sum(ctx, builder)
}

func (r *Repository) UpdatePayoutRequestStatus(ctx context.Context, id int64, status model.PayoutRequestStatus) error {
	query, args, err := psql.
		Update("payout_requests").
		Set("payment_status", int(status)).
		Set("modified_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payout request status: %w", err)
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
