package api

import (
	"net/http"

	"rewards_engine/internal/model"
	"rewards_engine/internal/service"

	"github.com/gin-gonic/gin"
)

type adminRoutes struct {
	ps service.PayoutServiceI
}

func NewAdminRoutes(handler *gin.RouterGroup, ps service.PayoutServiceI, adminOnly gin.HandlerFunc) {
	r := &adminRoutes{ps: ps}
	h := handler.Group("/admin")
	h.Use(adminOnly)
	{
		h.POST("/jobs/daily-payouts", r.RunDailyPayouts)
		h.PATCH("/payout-requests/:id", r.SetPayoutRequestStatus)
		h.PATCH("/payouts/:id", r.SetPayoutStatus)
	}
}

type DailyRunResponse struct {
	Date                    string `json:"date"`
	ActiveUsers             int    `json:"active_users"`
	DailyAmount             int64  `json:"daily_amount"`
	ActivityPayoutsCreated  int    `json:"activity_payouts_created"`
	ActivityPayoutsExisting int    `json:"activity_payouts_existing"`
	ActivityPayoutsFailed   int    `json:"activity_payouts_failed"`
	ReferralPayoutsCreated  int    `json:"referral_payouts_created"`
	ReferralsPending        int    `json:"referrals_pending"`
	ReferralsFailed         int    `json:"referrals_failed"`
}

func (r *adminRoutes) RunDailyPayouts(c *gin.Context) {
	report, err := r.ps.RunDailyPayouts(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to run daily payouts")
		return
	}

	c.JSON(http.StatusOK, DailyRunResponse{
		Date:                    report.Date.Format(payoutDateLayout),
		ActiveUsers:             report.ActiveUsers,
		DailyAmount:             report.DailyAmount,
		ActivityPayoutsCreated:  report.ActivityPayoutsCreated,
		ActivityPayoutsExisting: report.ActivityPayoutsExisting,
		ActivityPayoutsFailed:   report.ActivityPayoutsFailed,
		ReferralPayoutsCreated:  report.ReferralPayoutsCreated,
		ReferralsPending:        report.ReferralsPending,
		ReferralsFailed:         report.ReferralsFailed,
	})
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r *adminRoutes) SetPayoutRequestStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status, valid := model.ParsePayoutRequestStatus(req.Status)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	request, err := r.ps.SetPayoutRequestStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err, "failed to update payout request")
		return
	}

	c.JSON(http.StatusOK, toPayoutRequestResponse(request))
}

func (r *adminRoutes) SetPayoutStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status, valid := model.ParsePayoutStatus(req.Status)
	if !valid || status == model.PayoutStatusAny {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	payout, err := r.ps.SetPayoutStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err, "failed to update payout")
		return
	}

	c.JSON(http.StatusOK, toPayoutResponse(payout))
}
