package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/classroll/classroll-api/internal/middleware"
	"github.com/classroll/classroll-api/internal/models"
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

// studentFromClaims rebuilds the identity the attendance engine needs from
// the verified token. No directory round-trip per request.
func studentFromClaims(claims *models.JWTClaims) *models.Student {
	return &models.Student{
		RollNumber: claims.RollNumber,
		FullName:   claims.FullName,
		ClassName:  claims.ClassName,
		Role:       claims.Role,
		Active:     true,
	}
}
