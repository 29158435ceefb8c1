package api

import (
	"errors"
	"net/http"
	"strconv"

	"rewards_engine/internal/service"
	"rewards_engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors to a status code. Unknown errors are
// logged and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPayoutNotFound),
		errors.Is(err, service.ErrPayoutRequestNotFound),
		errors.Is(err, service.ErrReferralLinkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Logger().Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		logger.Logger().Error("failed to parse path id", zap.String("param", name), zap.String("value", c.Param(name)))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
