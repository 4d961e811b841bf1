package httpapi

import (
	"net/http"

	"quality-desk/internal/platform"

	"github.com/gin-gonic/gin"
)

// Binding reports whether a database is bound right now.
type Binding interface {
	Bound() bool
}

// RequireDatabase fails persistence routes fast with 503 while no database
// is bound, instead of letting them hang on a missing pool.
func RequireDatabase(b Binding) gin.HandlerFunc {
	return func(c *gin.Context) {
		if b == nil || !b.Bound() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": platform.ErrDatabaseUnavailable.Error()})
			return
		}
		c.Next()
	}
}
