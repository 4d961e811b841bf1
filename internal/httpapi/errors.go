package httpapi

import (
	"errors"
	"net/http"

	"quality-desk/internal/calls"
	"quality-desk/internal/complaints"
	"quality-desk/internal/operators"
	"quality-desk/internal/platform"
	"quality-desk/internal/telephony"
	"quality-desk/pkg/logger"

	"github.com/gin-gonic/gin"
)

// writeError is the only place domain errors become HTTP statuses.
func writeError(c *gin.Context, err error) {
	var verr *complaints.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, telephony.ErrInvalidEvent),
		errors.Is(err, telephony.ErrInvalidNumber),
		errors.Is(err, calls.ErrInvalidDirection):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, operators.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, complaints.ErrNotFound), errors.Is(err, operators.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, calls.ErrConflict),
		errors.Is(err, telephony.ErrLineOffline),
		errors.Is(err, operators.ErrUsernameTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, platform.ErrDatabaseUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
