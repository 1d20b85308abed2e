package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	schoolIDKey = contextKey("schoolID")
	actorIDKey  = contextKey("actorID")

	schoolIDHeader = "X-School-ID"
	actorIDHeader  = "X-Acting-User"
)

// TenantContextMiddleware extracts the tenant scope set by the upstream
// authorization layer. That layer is trusted: requests arriving here carry
// an already-validated school and acting user.
func TenantContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		schoolID := c.GetHeader(schoolIDHeader)
		if schoolID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + schoolIDHeader + " header"})
			return
		}
		actorID := c.GetHeader(actorIDHeader)

		c.Set(string(schoolIDKey), schoolID)
		c.Set(string(actorIDKey), actorID)

		ctx := context.WithValue(c.Request.Context(), schoolIDKey, schoolID)
		ctx = context.WithValue(ctx, actorIDKey, actorID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetSchoolIDFromContext retrieves the tenant school ID from the Gin context.
func GetSchoolIDFromContext(c *gin.Context) (string, bool) {
	schoolIDVal, exists := c.Get(string(schoolIDKey))
	if !exists {
		if v := c.Request.Context().Value(schoolIDKey); v != nil {
			return v.(string), true
		}
		return "", false
	}
	schoolID, ok := schoolIDVal.(string)
	if !ok {
		return "", false
	}
	return schoolID, true
}

// GetActorIDFromContext retrieves the acting user reference, which may be
// empty for machine-triggered requests.
func GetActorIDFromContext(c *gin.Context) string {
	if actorIDVal, exists := c.Get(string(actorIDKey)); exists {
		if actorID, ok := actorIDVal.(string); ok {
			return actorID
		}
	}
	return ""
}
