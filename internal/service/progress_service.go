package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-progress-api/internal/models"
	"github.com/noah-isme/edu-progress-api/internal/progress"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
)

type rosterReader interface {
	Roster(ctx context.Context, courseID string) (*models.CourseRoster, error)
}

type attendanceReader interface {
	ListByStudent(ctx context.Context, courseID, studentID string) ([]models.AttendanceRecord, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.AttendanceRecord, error)
}

type taskReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Task, error)
}

type submissionReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Submission, error)
	ListByStudent(ctx context.Context, courseID, studentID string) ([]models.Submission, error)
}

type progressStore interface {
	Find(ctx context.Context, courseID, studentID string) (*models.StudentProgress, error)
	Upsert(ctx context.Context, p *models.StudentProgress) (*models.StudentProgress, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.StudentProgress, error)
	StatusCounts(ctx context.Context, courseID string) ([]models.StatusCount, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event models.ProgressEvent) error
}

// ProgressServiceParams groups constructor dependencies.
type ProgressServiceParams struct {
	Courses     rosterReader
	Attendance  attendanceReader
	Tasks       taskReader
	Submissions submissionReader
	Progress    progressStore
	Events      eventPublisher
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
	Location    *time.Location
}

// ProgressService recomputes and stores a student's progress on demand.
type ProgressService struct {
	courses     rosterReader
	attendance  attendanceReader
	tasks       taskReader
	submissions submissionReader
	progress    progressStore
	events      eventPublisher
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	loc         *time.Location
	now         func() time.Time
}

// NewProgressService constructs a ProgressService.
func NewProgressService(params ProgressServiceParams) *ProgressService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	return &ProgressService{
		courses:     params.Courses,
		attendance:  params.Attendance,
		tasks:       params.Tasks,
		submissions: params.Submissions,
		progress:    params.Progress,
		events:      params.Events,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		loc:         loc,
		now:         time.Now,
	}
}

// Sync recomputes the student's metrics from raw records and upserts the summary row.
// Calling it again without data changes returns an identical row.
func (s *ProgressService) Sync(ctx context.Context, courseID, studentID string) (*models.StudentProgress, error) {
	if courseID == "" || studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId and studentId are required")
	}
	start := time.Now()

	if _, err := s.enrolledRoster(ctx, courseID, studentID); err != nil {
		return nil, err
	}

	attendance, err := s.attendance.ListByStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	tasks, err := s.tasks.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tasks")
	}
	submissions, err := s.submissions.ListByStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submissions")
	}

	now := s.now()
	m := progress.Compute(progress.Input{
		Attendance:  attendance,
		Tasks:       tasks,
		Submissions: submissions,
		Now:         now,
		Location:    s.loc,
	})
	status := progress.Classify(m)

	previous, err := s.progress.Find(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load stored progress")
	}

	row := &models.StudentProgress{
		CourseID:              courseID,
		StudentID:             studentID,
		Status:                status,
		AttendanceRate:        m.AttendanceRate,
		HomeworkCompletedRate: m.HomeworkCompletedRate,
		AvgGrade:              m.AvgGrade,
		OverdueRate:           m.OverdueRate,
		TotalTasks:            m.TotalTasks,
		CompletedTasks:        m.CompletedTasks,
		UpdatedAt:             now.UTC(),
	}
	if previous != nil {
		row.ID = previous.ID
		row.CreatedAt = previous.CreatedAt
	}

	writeStart := time.Now()
	stored, err := s.progress.Upsert(ctx, row)
	s.metrics.ObserveDBQuery("progress_upsert", time.Since(writeStart))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store progress")
	}

	s.publishTransition(ctx, previous, stored, now)
	if err := s.cache.Invalidate(ctx, courseCachePattern(courseID)); err != nil {
		s.logger.Warn("overview cache not invalidated", zap.String("course_id", courseID), zap.Error(err))
	}
	s.metrics.ObserveSync(stored.Status, time.Since(start))

	s.logger.Debug("progress synced",
		zap.String("course_id", courseID),
		zap.String("student_id", studentID),
		zap.String("status", string(stored.Status)),
		zap.Int("overdue_tasks", m.OverdueTasks),
	)
	return stored, nil
}

// enrolledRoster loads the roster and checks the student belongs to it.
func (s *ProgressService) enrolledRoster(ctx context.Context, courseID, studentID string) (*models.CourseRoster, error) {
	roster, err := s.courses.Roster(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if !roster.Enrolled(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
	}
	return roster, nil
}

func (s *ProgressService) publishTransition(ctx context.Context, previous, current *models.StudentProgress, now time.Time) {
	if s.events == nil {
		return
	}
	event := models.ProgressEvent{
		CourseID:   current.CourseID,
		StudentID:  current.StudentID,
		Status:     current.Status,
		OccurredAt: now.UTC(),
	}
	switch {
	case previous == nil:
		if current.Status == models.StatusOnTrack {
			return
		}
	case previous.Status == current.Status:
		return
	default:
		event.PreviousStatus = previous.Status
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("progress event not published",
			zap.String("course_id", event.CourseID),
			zap.String("student_id", event.StudentID),
			zap.Error(err),
		)
	}
}

// lookupError maps a missing row to NotFound and anything else to an internal error.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, internal)
}
