package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/entity-review-api/internal/middleware"
	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
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

func sessionFromContext(c *gin.Context) (*models.Session, error) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return session, nil
}

func recordIndexParam(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "record index must be an integer")
	}
	return index, nil
}
