package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-progress-api/internal/middleware"
	"github.com/noah-isme/edu-progress-api/internal/models"
	"github.com/noah-isme/edu-progress-api/internal/service"
	"github.com/noah-isme/edu-progress-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-progress-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-progress-api/pkg/middleware/requestid"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Tokens         middleware.TokenValidator

	Reports    *ReportHandler
	Parents    *ParentHandler
	Attendance *AttendanceHandler
	Ops        *MetricsHandler
}

// NewRouter assembles the gin engine with the shared middleware chain and every route.
func NewRouter(p RouterParams) *gin.Engine {
	logr := p.Logger
	if logr == nil {
		logr = zap.NewNop()
	}
	prefix := p.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(p.AllowedOrigins))
	r.Use(middleware.Metrics(p.Metrics))
	r.Use(middleware.WithResponseMeta())

	ops := p.Ops
	if ops == nil {
		ops = NewMetricsHandler(p.Metrics, nil, logr)
	}
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if p.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix, middleware.JWT(p.Tokens))
	staff := middleware.RequireRoles(middleware.Staff...)
	instructors := middleware.RequireRoles(middleware.Instructors...)
	student := middleware.RequireRoles(models.RoleStudent)

	if h := p.Reports; h != nil {
		reports := api.Group("/reports")
		reports.GET("/my-report/:courseId", student, h.MyReport)
		reports.GET("/my-history/:courseId", student, h.MyHistory)
		reports.GET("/my-alerts/:courseId", student, h.MyAlerts)
		reports.GET("/course-overview/:courseId", instructors, h.CourseOverview)
		reports.GET("/student-list/:courseId", instructors, h.StudentList)
		reports.GET("/overall-stats/:courseId", staff, h.OverallStats)
		reports.GET("/tabular-report/:courseId", staff, h.TabularReport)
		reports.GET("/tabular-report/:courseId/export", staff, h.ExportTabular)
		reports.POST("/courses/:courseId/students/:studentId/sync", staff, h.SyncStudent)
		reports.GET("/courses/:courseId/students/:studentId/history",
			middleware.RBAC(string(models.RoleTeacher), string(models.RoleAssistant), string(models.RoleSuperAdmin), middleware.SelfParam+"studentId"),
			h.StudentHistory)
	}

	if h := p.Parents; h != nil {
		parents := api.Group("/parents", middleware.RequireRoles(models.RoleParent))
		parents.GET("/children/:childId/courses", h.ChildCourses)
		parents.GET("/children/:childId/courses/:courseId/progress", h.ChildProgress)
	}

	if h := p.Attendance; h != nil {
		attendance := api.Group("/attendance", staff)
		attendance.GET("", h.List)
		attendance.GET("/stats/:courseId", h.Stats)
	}

	return r
}
