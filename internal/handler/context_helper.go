package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/onstage-hq/onstage-api/internal/middleware"
	"github.com/onstage-hq/onstage-api/internal/models"
	"github.com/onstage-hq/onstage-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{IP: c.ClientIP()}
	if claims := claimsFromContext(c); claims != nil {
		actor.ID = claims.UserID
	}
	return actor
}
