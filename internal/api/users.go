package api

import (
	"net/http"

	"rewards_engine/internal/model"
	"rewards_engine/internal/service"
	"rewards_engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userRoutes struct {
	us service.UserServiceI
	ps service.ProfileServiceI
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, ps service.ProfileServiceI) {
	r := &userRoutes{us: us, ps: ps}
	h := handler.Group("/users")
	{
		h.POST("", r.RegisterUser)
		h.GET("/:user_id", r.GetProfile)
		h.POST("/:user_id/activity", r.TouchActivity)
		h.PATCH("/:user_id/waitlist", r.UpdateWaitlistStatus)
	}
}

type RegisterUserRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UserResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	IsActive     bool   `json:"is_active"`
	IsWaitlisted bool   `json:"is_waitlisted"`
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user := &model.User{Email: req.Email}
	if err := r.us.RegisterUser(c.Request.Context(), user); err != nil {
		respondError(c, err, "failed to register user")
		return
	}

	c.JSON(http.StatusCreated, UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		IsActive:     user.IsActive,
		IsWaitlisted: user.IsWaitlisted,
	})
}

type ProfileResponse struct {
	UserID               int64  `json:"user_id"`
	IsWaitlisted         bool   `json:"is_waitlisted"`
	Status               string `json:"status"`
	LastTime             string `json:"last_time"`
	PaidAmount           int64  `json:"paid_amount"`
	PaidAmountText       string `json:"paid_amount_text"`
	RequestingAmount     int64  `json:"requesting_amount"`
	RequestingAmountText string `json:"requesting_amount_text"`
	UnpaidAmount         int64  `json:"unpaid_amount"`
	UnpaidAmountText     string `json:"unpaid_amount_text"`
	ReferralEarnings     int64  `json:"referral_earnings"`
	ReferralEarningsText string `json:"referral_earnings_text"`
	Referrals            int    `json:"referrals"`
	ActiveReferrals      int    `json:"active_referrals"`
	PayoutPerReferral    int64  `json:"payout_per_referral"`
	Reflink              string `json:"reflink"`
}

func profileStatus(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func (r *userRoutes) GetProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	profile, err := r.ps.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get profile")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		UserID:               profile.UserID,
		IsWaitlisted:         profile.IsWaitlisted,
		Status:               profileStatus(profile.IsActive),
		LastTime:             profile.LastActivity,
		PaidAmount:           profile.PaidAmount,
		PaidAmountText:       profile.PaidAmountText,
		RequestingAmount:     profile.RequestingAmount,
		RequestingAmountText: profile.RequestingAmountText,
		UnpaidAmount:         profile.UnpaidAmount,
		UnpaidAmountText:     profile.UnpaidAmountText,
		ReferralEarnings:     profile.ReferralEarnings,
		ReferralEarningsText: profile.ReferralEarningsText,
		Referrals:            profile.Referrals,
		ActiveReferrals:      profile.ActiveReferrals,
		PayoutPerReferral:    profile.PayoutPerReferral,
		Reflink:              profile.ReferralURL,
	})
}

func (r *userRoutes) TouchActivity(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := r.us.TouchActivity(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to record activity")
		return
	}

	c.Status(http.StatusNoContent)
}

type UpdateWaitlistRequest struct {
	IsWaitlisted *bool `json:"is_waitlisted" binding:"required"`
}

func (r *userRoutes) UpdateWaitlistStatus(c *gin.Context) {
	log := logger.Logger()

	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req UpdateWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.us.UpdateWaitlistStatus(c.Request.Context(), id, *req.IsWaitlisted); err != nil {
		respondError(c, err, "failed to update waitlist status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_waitlisted": *req.IsWaitlisted,
	})
}
