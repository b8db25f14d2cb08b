package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-progress-api/internal/models"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.token = token
	return s.claims, s.err
}

type observed struct {
	method, path string
	status       int
}

type stubObserver struct {
	calls []observed
}

func (s *stubObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	s.calls = append(s.calls, observed{method, path, status})
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c)})
	})
	r.GET("/courses/:courseId/students/:studentId", chain...)
	return r
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/courses/course-1/students/student-1", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}}
	r := newRouter(JWT(validator))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer ").Code)

	rec := do(r, "bearer token-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "token-1", validator.token)
	assert.Contains(t, rec.Body.String(), "teacher-1")

	validator.err = appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer token-2").Code)
}

func TestRBAC(t *testing.T) {
	withClaims := func(claims *models.JWTClaims) gin.HandlerFunc {
		return func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
			c.Next()
		}
	}

	cases := []struct {
		name   string
		claims *models.JWTClaims
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"teacher", &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}, http.StatusOK},
		{"own student", &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}, http.StatusOK},
		{"other student", &models.JWTClaims{UserID: "student-2", Role: models.RoleStudent}, http.StatusForbidden},
		{"parent", &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(withClaims(tc.claims), RBAC(string(models.RoleTeacher), string(models.RoleAssistant), SelfParam+"studentId"))
			assert.Equal(t, tc.want, do(r, "").Code)
		})
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &stubObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/courses/:courseId/students/:studentId", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, "")
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, observer.calls, 2)
	assert.Equal(t, observed{http.MethodGet, "/courses/:courseId/students/:studentId", http.StatusOK}, observer.calls[0])
	assert.Equal(t, "unmatched", observer.calls[1].path)
	assert.Equal(t, http.StatusNotFound, observer.calls[1].status)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/overview", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ResponseMeta(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/overview", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["cache_hit"])
	assert.Contains(t, body, "processing_time_ms")
}
