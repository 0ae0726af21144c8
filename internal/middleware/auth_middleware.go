package middleware

import (
	"net/http"
	"strings"

	"github.com/farellandr/ticketgate/internal/helpers"
	"github.com/farellandr/ticketgate/internal/models"
	"github.com/farellandr/ticketgate/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	ContextStaffID = "staff_id"
	ContextRole    = "role"
)

type TokenParser interface {
	ParseToken(token string) (*services.StaffClaims, error)
}

// JWTAuthMiddleware requires a valid bearer token and exposes the staff id
// and role on the context.
func JWTAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Authorization token required.")
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		c.Set(ContextStaffID, claims.StaffID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole must run after JWTAuthMiddleware.
func RequireRole(roles ...models.StaffRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to perform this action.")
	}
}
