package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-progress-api/internal/dto"
	"github.com/noah-isme/edu-progress-api/internal/models"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
)

type attendanceQuerier interface {
	CountByStatus(ctx context.Context, courseID, studentID string) (map[models.AttendanceStatus]int, error)
	List(ctx context.Context, q models.ListQuery) ([]models.AttendanceListRow, int, error)
}

// AttendanceService exposes attendance statistics and listings.
type AttendanceService struct {
	courses   rosterReader
	repo      attendanceQuerier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(courses rosterReader, repo attendanceQuerier, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{courses: courses, repo: repo, validator: validate, logger: logger}
}

// Stats counts marks per status for a course, optionally for a single student.
func (s *AttendanceService) Stats(ctx context.Context, courseID, studentID string) (*dto.AttendanceStats, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	roster, err := s.courses.Roster(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if studentID != "" && !roster.Enrolled(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
	}

	counts, err := s.repo.CountByStatus(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count attendance")
	}
	stats := &dto.AttendanceStats{
		CourseID:  courseID,
		StudentID: studentID,
		OnTime:    counts[models.AttendanceOnTime],
		Late:      counts[models.AttendanceLate],
		Absent:    counts[models.AttendanceAbsent],
	}
	stats.Total = stats.OnTime + stats.Late + stats.Absent
	stats.OnTimePercent = percent(stats.OnTime, stats.Total)
	stats.LatePercent = percent(stats.Late, stats.Total)
	stats.AbsentPercent = percent(stats.Absent, stats.Total)
	stats.AttendanceRate = percent(stats.OnTime+stats.Late, stats.Total)
	return stats, nil
}

// List returns a page of attendance marks.
func (s *AttendanceService) List(ctx context.Context, req dto.AttendanceListRequest) ([]models.AttendanceListRow, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance query")
	}

	q := models.ListQuery{
		Search:       req.Search,
		SearchFields: []string{"student_name", "class_name", "subject_name"},
		EqualityFilters: map[string]string{
			"course_id":  req.CourseID,
			"student_id": req.StudentID,
			"status":     req.Status,
		},
		SortKey:       req.Sort,
		SortDirection: models.SortDirection(strings.ToUpper(req.Order)),
		Page:          req.Page,
		Limit:         req.Limit,
	}
	if from, ok := parseDay(req.DateFrom); ok {
		q.DateFrom = &from
	}
	if to, ok := parseDay(req.DateTo); ok {
		q.DateTo = &to
	}
	q = q.Normalize()

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list attendance")
	}
	return rows, models.NewPagination(q.Page, q.Limit, total), nil
}

func parseDay(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
