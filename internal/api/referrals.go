package api

import (
	"net/http"
	"time"

	"rewards_engine/internal/model"
	"rewards_engine/internal/service"
	"rewards_engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type referralRoutes struct {
	rs service.ReferralServiceI
	ps service.PayoutServiceI
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI, ps service.PayoutServiceI) {
	r := &referralRoutes{rs: rs, ps: ps}

	users := handler.Group("/users/:user_id")
	{
		users.GET("/referral-link", r.GetReferralLink)
		users.GET("/referrals", r.ListReferrals)
		users.POST("/referrals/confirm", r.ConfirmReferral)
	}

	handler.POST("/referral-links/:identifier/hits", r.RecordHit)
	handler.GET("/referrals/payout-per-referral", r.PayoutPerReferral)
}

type ReferralLinkResponse struct {
	Identifier string `json:"identifier"`
	URL        string `json:"url"`
}

func (r *referralRoutes) GetReferralLink(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	link, err := r.rs.ReferralLink(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get referral link")
		return
	}

	c.JSON(http.StatusOK, ReferralLinkResponse{
		Identifier: link.Identifier,
		URL:        r.rs.ReferralURL(link.Identifier),
	})
}

type ReferralResponse struct {
	ID             int64     `json:"id"`
	ReferredUserID int64     `json:"referred_user_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toReferralResponse(hit *model.UserReferralHit) ReferralResponse {
	return ReferralResponse{
		ID:             hit.ID,
		ReferredUserID: hit.HitUserID,
		Status:         hit.PaymentStatus.String(),
		CreatedAt:      hit.CreatedAt,
	}
}

func (r *referralRoutes) ListReferrals(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	referrals, err := r.rs.ListReferrals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to list referrals")
		return
	}

	c.JSON(http.StatusOK, lo.Map(referrals, func(hit *model.UserReferralHit, _ int) ReferralResponse {
		return toReferralResponse(hit)
	}))
}

func (r *referralRoutes) ConfirmReferral(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	hit, err := r.rs.ConfirmReferral(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to confirm referral")
		return
	}

	if hit == nil {
		c.JSON(http.StatusOK, gin.H{"confirmed": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"confirmed": true,
		"referral":  toReferralResponse(hit),
	})
}

type RecordHitRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
}

func (r *referralRoutes) RecordHit(c *gin.Context) {
	log := logger.Logger()

	var req RecordHitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	hit, err := r.rs.RecordHit(c.Request.Context(), c.Param("identifier"), req.UserID)
	if err != nil {
		respondError(c, err, "failed to record referral hit")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":               hit.ID,
		"referral_link_id": hit.ReferralLinkID,
		"hit_user_id":      hit.HitUserID,
	})
}

func (r *referralRoutes) PayoutPerReferral(c *gin.Context) {
	amount, err := r.ps.CurrentPayoutPerReferral(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to compute payout per referral")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payout_per_referral": amount,
	})
}
