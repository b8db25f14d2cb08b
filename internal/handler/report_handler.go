package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/edu-progress-api/internal/dto"
	"github.com/noah-isme/edu-progress-api/internal/middleware"
	"github.com/noah-isme/edu-progress-api/internal/models"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
	"github.com/noah-isme/edu-progress-api/pkg/export"
	"github.com/noah-isme/edu-progress-api/pkg/response"
)

type progressSyncer interface {
	Sync(ctx context.Context, courseID, studentID string) (*models.StudentProgress, error)
}

type courseReports interface {
	DashboardOverview(ctx context.Context, courseID string) (*dto.DashboardOverview, bool, error)
	OverallStats(ctx context.Context, courseID string) (*dto.OverallStats, error)
	Roster(ctx context.Context, courseID string) (*dto.RosterResponse, error)
	Tabular(ctx context.Context, courseID, search string) ([]dto.TabularRow, error)
	ExportTabular(ctx context.Context, courseID string, req dto.ExportTabularRequest) (*export.File, error)
}

type studentHistories interface {
	History(ctx context.Context, courseID, studentID string) (*dto.StudentHistory, error)
	MissingTaskAlert(ctx context.Context, courseID, studentID string) (*dto.MissingTaskAlert, error)
}

// ReportHandler exposes the progress report endpoints.
type ReportHandler struct {
	progress  progressSyncer
	reports   courseReports
	histories studentHistories
	validator *validator.Validate
}

// NewReportHandler constructs the handler.
func NewReportHandler(progress progressSyncer, reports courseReports, histories studentHistories, validate *validator.Validate) *ReportHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ReportHandler{progress: progress, reports: reports, histories: histories, validator: validate}
}

// MyReport godoc
// @Summary Recompute and return the caller's progress in a course
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /reports/my-report/{courseId} [get]
func (h *ReportHandler) MyReport(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	summary, err := h.progress.Sync(c.Request.Context(), courseID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Progress summary", summary, middleware.ResponseMeta(c))
}

// SyncStudent godoc
// @Summary Recompute a student's progress
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/courses/{courseId}/students/{studentId}/sync [post]
func (h *ReportHandler) SyncStudent(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	studentID, ok := pathParam(c, "studentId")
	if !ok {
		return
	}
	summary, err := h.progress.Sync(c.Request.Context(), courseID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Progress synced", summary, middleware.ResponseMeta(c))
}

// CourseOverview godoc
// @Summary Students per status tier
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /reports/course-overview/{courseId} [get]
func (h *ReportHandler) CourseOverview(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	overview, hit, err := h.reports.DashboardOverview(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, "Course overview", overview, middleware.ResponseMeta(c))
}

// StudentList godoc
// @Summary Roster with stored progress and instructors
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /reports/student-list/{courseId} [get]
func (h *ReportHandler) StudentList(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	roster, err := h.reports.Roster(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Student list", roster, middleware.ResponseMeta(c))
}

// OverallStats godoc
// @Summary Class-wide metrics computed from raw records
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /reports/overall-stats/{courseId} [get]
func (h *ReportHandler) OverallStats(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	stats, err := h.reports.OverallStats(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Overall academic stats", stats, middleware.ResponseMeta(c))
}

// TabularReport godoc
// @Summary Fixed-format counters per student
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Param search query string false "Name filter"
// @Success 200 {object} response.Envelope
// @Router /reports/tabular-report/{courseId} [get]
func (h *ReportHandler) TabularReport(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	rows, err := h.reports.Tabular(c.Request.Context(), courseID, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Tabular report", rows, middleware.ResponseMeta(c))
}

// ExportTabular godoc
// @Summary Download the tabular report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param courseId path string true "Course ID"
// @Param format query string true "csv or pdf"
// @Param search query string false "Name filter"
// @Success 200 {file} file
// @Router /reports/tabular-report/{courseId}/export [get]
func (h *ReportHandler) ExportTabular(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	var req dto.ExportTabularRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	file, err := h.reports.ExportTabular(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Payload)
}

// StudentHistory godoc
// @Summary Detailed task and session history of a student
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/courses/{courseId}/students/{studentId}/history [get]
func (h *ReportHandler) StudentHistory(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	studentID, ok := pathParam(c, "studentId")
	if !ok {
		return
	}
	h.history(c, courseID, studentID)
}

// MyHistory godoc
// @Summary Detailed history of the caller
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /reports/my-history/{courseId} [get]
func (h *ReportHandler) MyHistory(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	h.history(c, courseID, claims.UserID)
}

func (h *ReportHandler) history(c *gin.Context, courseID, studentID string) {
	history, err := h.histories.History(c.Request.Context(), courseID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Student history", history, middleware.ResponseMeta(c))
}

// MyAlerts godoc
// @Summary Tasks missed this week
// @Tags Reports
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /reports/my-alerts/{courseId} [get]
func (h *ReportHandler) MyAlerts(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	alert, err := h.histories.MissingTaskAlert(c.Request.Context(), courseID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil, middleware.ResponseMeta(c))
}
