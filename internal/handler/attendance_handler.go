package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-progress-api/internal/dto"
	"github.com/noah-isme/edu-progress-api/internal/middleware"
	"github.com/noah-isme/edu-progress-api/internal/models"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
	"github.com/noah-isme/edu-progress-api/pkg/response"
)

type attendanceReports interface {
	Stats(ctx context.Context, courseID, studentID string) (*dto.AttendanceStats, error)
	List(ctx context.Context, req dto.AttendanceListRequest) ([]models.AttendanceListRow, *models.Pagination, error)
}

// AttendanceHandler exposes attendance statistics and listings.
type AttendanceHandler struct {
	service attendanceReports
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceReports) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Stats godoc
// @Summary Attendance marks per status
// @Tags Attendance
// @Produce json
// @Param courseId path string true "Course ID"
// @Param studentId query string false "Restrict to one student"
// @Success 200 {object} response.Envelope
// @Router /attendance/stats/{courseId} [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), courseID, c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Attendance stats", stats, middleware.ResponseMeta(c))
}

// List godoc
// @Summary List attendance marks
// @Tags Attendance
// @Produce json
// @Param courseId query string false "Course ID"
// @Param studentId query string false "Student ID"
// @Param status query string false "absent, late or on-time"
// @Param search query string false "Student, class or subject name"
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Param sort query string false "date, status, student_name, created_at"
// @Param order query string false "asc or desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	rows, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination, middleware.ResponseMeta(c))
}
