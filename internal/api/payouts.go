package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"rewards_engine/internal/model"
	"rewards_engine/internal/service"
	"rewards_engine/pkg/money"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	duplicateRequestMessage = "You cannot request more than one payout"
	payoutDateLayout        = "2006-01-02"
)

type payoutRoutes struct {
	ps            service.PayoutServiceI
	minimumPayout int64
}

func NewPayoutRoutes(handler *gin.RouterGroup, ps service.PayoutServiceI, minimumPayout int64) {
	r := &payoutRoutes{ps: ps, minimumPayout: minimumPayout}
	h := handler.Group("/users/:user_id")
	{
		h.GET("/payouts", r.ListPayouts)
		h.GET("/payout-requests", r.ListPayoutRequests)
		h.POST("/payout-requests", r.RequestPayout)
	}
}

type PayoutResponse struct {
	ID                int64     `json:"id"`
	Type              string    `json:"type"`
	Amount            *int64    `json:"amount"`
	AmountText        string    `json:"amount_text"`
	Status            string    `json:"status"`
	Note              string    `json:"note"`
	Date              string    `json:"date"`
	UserReferralHitID *int64    `json:"user_referral_hit_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func toPayoutResponse(p *model.Payout) PayoutResponse {
	return PayoutResponse{
		ID:                p.ID,
		Type:              p.PayoutType(),
		Amount:            p.Amount,
		AmountText:        money.CentsToDollars(p.AmountOrZero(), true),
		Status:            p.PaymentStatus.String(),
		Note:              p.Note,
		Date:              p.Date.Format(payoutDateLayout),
		UserReferralHitID: p.UserReferralHitID,
		CreatedAt:         p.CreatedAt,
	}
}

type PayoutsResponse struct {
	Amount     int64            `json:"amount"`
	AmountText string           `json:"amount_text"`
	Payouts    []PayoutResponse `json:"payouts"`
}

func (r *payoutRoutes) ListPayouts(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	status, valid := model.ParsePayoutStatus(c.Query("status"))
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	ctx := c.Request.Context()

	amount, err := r.ps.EarnedAmount(ctx, id, status)
	if err != nil {
		respondError(c, err, "failed to get earned amount")
		return
	}

	payouts, err := r.ps.EarnedPayouts(ctx, id, status)
	if err != nil {
		respondError(c, err, "failed to get payouts")
		return
	}

	c.JSON(http.StatusOK, PayoutsResponse{
		Amount:     amount,
		AmountText: money.CentsToDollars(amount, true),
		Payouts:    lo.Map(payouts, func(p *model.Payout, _ int) PayoutResponse { return toPayoutResponse(p) }),
	})
}

type PayoutRequestResponse struct {
	ID         int64     `json:"id"`
	Amount     int64     `json:"amount"`
	AmountText string    `json:"amount_text"`
	Status     string    `json:"status"`
	PayoutIDs  []int64   `json:"payout_ids"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func toPayoutRequestResponse(req *model.PayoutRequest) PayoutRequestResponse {
	ids := req.PayoutIDs
	if ids == nil {
		ids = []int64{}
	}

	return PayoutRequestResponse{
		ID:         req.ID,
		Amount:     req.Amount,
		AmountText: money.CentsToDollars(req.Amount, true),
		Status:     req.PaymentStatus.String(),
		PayoutIDs:  ids,
		Note:       req.Note,
		CreatedAt:  req.CreatedAt,
		ModifiedAt: req.ModifiedAt,
	}
}

func (r *payoutRoutes) ListPayoutRequests(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	requests, err := r.ps.ListPayoutRequests(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to list payout requests")
		return
	}

	c.JSON(http.StatusOK, lo.Map(requests, func(req *model.PayoutRequest, _ int) PayoutRequestResponse {
		return toPayoutRequestResponse(req)
	}))
}

func (r *payoutRoutes) RequestPayout(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	request, err := r.ps.RequestPayout(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateRequest):
			c.JSON(http.StatusUnauthorized, gin.H{"message": duplicateRequestMessage})
		case errors.Is(err, service.ErrBelowMinimum):
			c.JSON(http.StatusUnauthorized, gin.H{"message": minimumPayoutMessage(r.minimumPayout)})
		default:
			respondError(c, err, "failed to request payout")
		}
		return
	}

	c.JSON(http.StatusCreated, toPayoutRequestResponse(request))
}

// minimumPayoutMessage prints whole dollars without a fraction: 1000 -> "$10".
func minimumPayoutMessage(cents int64) string {
	return fmt.Sprintf("Minimum payout is $%s", decimal.New(cents, -2).String())
}
