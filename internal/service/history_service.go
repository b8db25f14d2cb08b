package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-progress-api/internal/dto"
	"github.com/noah-isme/edu-progress-api/internal/models"
	"github.com/noah-isme/edu-progress-api/internal/progress"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
)

type progressSyncer interface {
	Sync(ctx context.Context, courseID, studentID string) (*models.StudentProgress, error)
}

type historyCourses interface {
	rosterReader
	ListForStudent(ctx context.Context, studentID string) ([]models.Course, error)
}

type sessionReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error)
}

type parentLinker interface {
	IsLinked(ctx context.Context, parentID, childID string) (bool, error)
}

type progressFinder interface {
	Find(ctx context.Context, courseID, studentID string) (*models.StudentProgress, error)
}

// HistoryServiceParams groups constructor dependencies.
type HistoryServiceParams struct {
	Syncer      progressSyncer
	Courses     historyCourses
	Tasks       taskReader
	Submissions submissionReader
	Attendance  attendanceReader
	Sessions    sessionReader
	Parents     parentLinker
	Progress    progressFinder
	Logger      *zap.Logger
	Location    *time.Location
}

// HistoryService builds per-student timelines for instructors, students and parents.
type HistoryService struct {
	syncer      progressSyncer
	courses     historyCourses
	tasks       taskReader
	submissions submissionReader
	attendance  attendanceReader
	sessions    sessionReader
	parents     parentLinker
	progress    progressFinder
	logger      *zap.Logger
	loc         *time.Location
	now         func() time.Time
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(params HistoryServiceParams) *HistoryService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	return &HistoryService{
		syncer:      params.Syncer,
		courses:     params.Courses,
		tasks:       params.Tasks,
		submissions: params.Submissions,
		attendance:  params.Attendance,
		sessions:    params.Sessions,
		parents:     params.Parents,
		progress:    params.Progress,
		logger:      logger,
		loc:         loc,
		now:         time.Now,
	}
}

// History syncs the student's progress and returns the task and session timelines.
func (s *HistoryService) History(ctx context.Context, courseID, studentID string) (*dto.StudentHistory, error) {
	summary, err := s.syncer.Sync(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tasks")
	}
	submissions, err := s.submissions.ListByStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submissions")
	}
	attendance, err := s.attendance.ListByStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class sessions")
	}

	now := s.now()
	taskItems, taskSummary := s.taskTimeline(tasks, submissions, now)
	sessionItems, sessionSummary := s.sessionTimeline(sessions, attendance)

	return &dto.StudentHistory{
		CourseID:       courseID,
		StudentID:      studentID,
		Progress:       *summary,
		Tasks:          taskItems,
		TaskSummary:    taskSummary,
		Sessions:       sessionItems,
		SessionSummary: sessionSummary,
	}, nil
}

func (s *HistoryService) taskTimeline(tasks []models.Task, submissions []models.Submission, now time.Time) ([]dto.TaskHistoryItem, dto.TaskHistorySummary) {
	byTask := make(map[string]models.Submission, len(submissions))
	for _, sub := range submissions {
		byTask[sub.TaskID] = sub
	}

	items := make([]dto.TaskHistoryItem, 0, len(tasks))
	summary := dto.TaskHistorySummary{Total: len(tasks)}
	for _, t := range tasks {
		item := dto.TaskHistoryItem{
			TaskID:    t.ID,
			Title:     t.Title,
			Type:      t.Type,
			EndDate:   t.EndDate,
			EndTime:   t.EndTime,
			TaskState: progress.TaskState(t, now, s.loc),
		}
		sub, submitted := byTask[t.ID]
		switch {
		case submitted:
			submittedAt := sub.CreatedAt
			item.SubmittedAt = &submittedAt
			if sub.AnswerPDF != "" {
				answer := sub.AnswerPDF
				item.AnswerPDF = &answer
			}
			timing := sub.SubmissionStatus
			if timing == "" {
				timing = progress.SubmissionTiming(t, sub.CreatedAt, s.loc)
			}
			if timing == models.SubmissionLate {
				item.Status = dto.TaskLateSubmitted
				summary.LateSubmitted++
			} else {
				item.Status = dto.TaskSubmittedOnTime
				summary.SubmittedOnTime++
			}
			if sub.IsMarked {
				marks := sub.Marks
				item.IsMarked = true
				item.Marks = &marks
				item.Feedback = sub.Feedback
				item.CorrectAnswerPDF = sub.CorrectAnswerPDF
			}
		case item.TaskState == models.TaskTimeOver:
			item.Status = dto.TaskMissing
			summary.Missing++
		default:
			item.Status = dto.TaskNotSubmitted
			summary.NotSubmitted++
		}
		items = append(items, item)
	}
	return items, summary
}

func (s *HistoryService) sessionTimeline(sessions []models.ClassSession, attendance []models.AttendanceRecord) ([]dto.SessionHistoryItem, dto.SessionHistorySummary) {
	byDate := make(map[string]models.AttendanceStatus, len(attendance))
	for _, a := range attendance {
		byDate[a.Date] = a.Status
	}

	items := make([]dto.SessionHistoryItem, 0, len(sessions))
	summary := dto.SessionHistorySummary{Total: len(sessions)}
	for _, session := range sessions {
		item := dto.SessionHistoryItem{
			SessionID: session.ID,
			Title:     session.Title,
			Date:      session.Date,
			Time:      session.Time,
		}
		status, marked := byDate[session.Date.In(s.loc).Format("2006-01-02")]
		switch {
		case !marked:
			item.Status = dto.SessionNotMarked
			summary.NotMarked++
		case status == models.AttendanceOnTime:
			item.Status = dto.SessionOnTime
			summary.OnTime++
		case status == models.AttendanceLate:
			item.Status = dto.SessionLate
			summary.Late++
		default:
			item.Status = dto.SessionAbsent
			summary.Absent++
		}
		items = append(items, item)
	}

	summary.Marked = summary.Total - summary.NotMarked
	summary.OnTimePercent = percent(summary.OnTime, summary.Marked)
	summary.LatePercent = percent(summary.Late, summary.Marked)
	summary.AbsentPercent = percent(summary.Absent, summary.Marked)
	summary.AttendancePercent = percent(summary.OnTime+summary.Late, summary.Marked)
	return items, summary
}

// MissingTaskAlert counts tasks due earlier this week (Sunday to Saturday) that the
// student has not submitted.
func (s *HistoryService) MissingTaskAlert(ctx context.Context, courseID, studentID string) (*dto.MissingTaskAlert, error) {
	if courseID == "" || studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId and studentId are required")
	}
	roster, err := s.courses.Roster(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if !roster.Enrolled(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
	}
	tasks, err := s.tasks.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tasks")
	}
	submissions, err := s.submissions.ListByStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submissions")
	}

	submitted := make(map[string]struct{}, len(submissions))
	for _, sub := range submissions {
		submitted[sub.TaskID] = struct{}{}
	}

	now := s.now().In(s.loc)
	weekStart, weekEnd := progress.WeekBounds(now)
	alert := &dto.MissingTaskAlert{CourseID: courseID, WeekStart: weekStart, WeekEnd: weekEnd}
	for _, t := range tasks {
		deadline, ok := progress.TaskDeadline(t, s.loc)
		if !ok || deadline.Before(weekStart) || !deadline.Before(weekEnd) || !now.After(deadline) {
			continue
		}
		if _, done := submitted[t.ID]; !done {
			alert.Count++
		}
	}
	alert.Message = missingTaskMessage(alert.Count)
	return alert, nil
}

func missingTaskMessage(count int) *string {
	var msg string
	switch {
	case count <= 0:
		return nil
	case count == 1:
		msg = "You have 1 missing task this week"
	default:
		msg = fmt.Sprintf("You have %d missing tasks this week", count)
	}
	return &msg
}

// ChildCourses lists the courses of a parent's child together with stored progress.
func (s *HistoryService) ChildCourses(ctx context.Context, parentID, childID string) ([]dto.ChildCourse, error) {
	if err := s.ensureLinked(ctx, parentID, childID); err != nil {
		return nil, err
	}
	courses, err := s.courses.ListForStudent(ctx, childID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	out := make([]dto.ChildCourse, 0, len(courses))
	for _, c := range courses {
		entry := dto.ChildCourse{
			CourseID:    c.ID,
			ClassName:   c.ClassName,
			SubjectName: c.SubjectName,
			Image:       c.Image,
			Status:      models.StatusOnTrack,
		}
		row, err := s.progress.Find(ctx, c.ID, childID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load stored progress")
		}
		if row != nil {
			entry.Status = row.Status
			entry.Progress = row
		}
		out = append(out, entry)
	}
	return out, nil
}

// ChildHistory returns the detailed history for a parent's linked child.
func (s *HistoryService) ChildHistory(ctx context.Context, parentID, childID, courseID string) (*dto.StudentHistory, error) {
	if err := s.ensureLinked(ctx, parentID, childID); err != nil {
		return nil, err
	}
	return s.History(ctx, courseID, childID)
}

func (s *HistoryService) ensureLinked(ctx context.Context, parentID, childID string) error {
	if parentID == "" || childID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "childId is required")
	}
	linked, err := s.parents.IsLinked(ctx, parentID, childID)
	if err != nil {
		return appErrors.Internal(err, "failed to verify parent link")
	}
	if !linked {
		return appErrors.Clone(appErrors.ErrForbidden, "child is not linked to this parent")
	}
	return nil
}

func percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return progress.Round2(float64(n) * 100 / float64(d))
}
