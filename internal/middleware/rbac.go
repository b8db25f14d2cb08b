package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-progress-api/internal/models"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
	"github.com/noah-isme/edu-progress-api/pkg/response"
)

// SelfParam lets a caller through when the named path parameter equals their own user ID.
const SelfParam = "SELF:"

// RBAC enforces role-based access control for routes. An entry of the form
// "SELF:<param>" admits any caller whose user ID matches that path parameter.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	var selfParams []string
	for _, a := range allowed {
		if len(a) > len(SelfParam) && a[:len(SelfParam)] == SelfParam {
			selfParams = append(selfParams, a[len(SelfParam):])
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}
		for _, param := range selfParams {
			if target := c.Param(param); target != "" && target == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not allowed for this resource"))
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// Instructors covers the staff roles that read course-wide reports.
var Instructors = []models.UserRole{models.RoleTeacher, models.RoleAssistant}

// Staff adds the superadmin to the instructor roles.
var Staff = []models.UserRole{models.RoleTeacher, models.RoleAssistant, models.RoleSuperAdmin}
