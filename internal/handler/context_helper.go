package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-progress-api/internal/middleware"
	"github.com/noah-isme/edu-progress-api/internal/models"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
	"github.com/noah-isme/edu-progress-api/pkg/response"
)

// currentUser writes a 401 and returns nil when the request carries no claims.
func currentUser(c *gin.Context) *models.JWTClaims {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

// pathParam reads a required path parameter, writing a 400 when it is blank.
func pathParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" is required"))
		return "", false
	}
	return value, true
}
