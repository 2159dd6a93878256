package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/univlabs/campus-portal-api/internal/middleware"
	"github.com/univlabs/campus-portal-api/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil when
// the route runs without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
