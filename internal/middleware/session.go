package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onlineexam/backend/internal/response"
	"github.com/onlineexam/backend/internal/service"
)

// CheckSingleSession validates the JWT's JTI against the active session
// in Redis. A later login replaces the stored JTI, so older tokens are
// rejected here. Must run after RequireAuth.
func CheckSingleSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
