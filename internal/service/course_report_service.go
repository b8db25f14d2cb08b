package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-progress-api/internal/dto"
	"github.com/noah-isme/edu-progress-api/internal/models"
	"github.com/noah-isme/edu-progress-api/internal/progress"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
	"github.com/noah-isme/edu-progress-api/pkg/export"
)

type courseDirectory interface {
	rosterReader
	Students(ctx context.Context, courseID, search string) ([]models.UserProfile, error)
	Profiles(ctx context.Context, ids []string) ([]models.UserProfile, error)
}

// CourseReportConfig tunes course level reports.
type CourseReportConfig struct {
	CacheTTL time.Duration
	Location *time.Location
}

// CourseReportServiceParams groups constructor dependencies.
type CourseReportServiceParams struct {
	Courses     courseDirectory
	Attendance  attendanceReader
	Tasks       taskReader
	Submissions submissionReader
	Progress    progressStore
	Cache       *CacheService
	Logger      *zap.Logger
	Config      CourseReportConfig
}

// CourseReportService builds course-wide views: dashboard counts, class statistics,
// the status roster and the tabular report.
type CourseReportService struct {
	courses     courseDirectory
	attendance  attendanceReader
	tasks       taskReader
	submissions submissionReader
	progress    progressStore
	cache       *CacheService
	logger      *zap.Logger
	cfg         CourseReportConfig
	now         func() time.Time
}

// NewCourseReportService constructs a CourseReportService.
func NewCourseReportService(params CourseReportServiceParams) *CourseReportService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseReportService{
		courses:     params.Courses,
		attendance:  params.Attendance,
		tasks:       params.Tasks,
		submissions: params.Submissions,
		progress:    params.Progress,
		cache:       params.Cache,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// DashboardOverview counts enrolled students per stored status. Students without a
// stored row count as on track. The boolean reports a cache hit.
func (s *CourseReportService) DashboardOverview(ctx context.Context, courseID string) (*dto.DashboardOverview, bool, error) {
	if courseID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	key := overviewCacheKey(courseID)
	var cached dto.DashboardOverview
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	roster, err := s.courses.Roster(ctx, courseID)
	if err != nil {
		return nil, false, lookupError(err, "course not found", "failed to load course")
	}
	counts, err := s.progress.StatusCounts(ctx, courseID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to count progress statuses")
	}

	overview := &dto.DashboardOverview{CourseID: courseID, TotalStudents: roster.Size()}
	for _, c := range counts {
		switch c.Status {
		case models.StatusAttention:
			overview.Attention += c.Count
		case models.StatusBehind:
			overview.Behind += c.Count
		case models.StatusCritical:
			overview.Critical += c.Count
		}
	}
	overview.OnTrack = overview.TotalStudents - (overview.Attention + overview.Behind + overview.Critical)
	if overview.OnTrack < 0 {
		s.logger.Warn("stored progress exceeds roster size",
			zap.String("course_id", courseID),
			zap.Int("enrolled", overview.TotalStudents),
		)
		overview.OnTrack = 0
	}

	_ = s.cache.Set(ctx, key, overview, s.cfg.CacheTTL)
	return overview, false, nil
}

// OverallStats recomputes class-wide metrics straight from raw records.
func (s *CourseReportService) OverallStats(ctx context.Context, courseID string) (*dto.OverallStats, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	roster, err := s.courses.Roster(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	attendance, err := s.attendance.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	tasks, err := s.tasks.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tasks")
	}
	submissions, err := s.submissions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submissions")
	}

	m := progress.ComputeClass(progress.ClassInput{
		StudentIDs:  roster.StudentIDs,
		Attendance:  attendance,
		Tasks:       tasks,
		Submissions: submissions,
		Now:         s.now(),
		Location:    s.cfg.Location,
	})
	return &dto.OverallStats{
		CourseID:       courseID,
		TotalEnrolled:  m.TotalEnrolled,
		AttendanceRate: m.AttendanceRate,
		HomeworkRate:   m.HomeworkRate,
		AvgGrade:       m.AvgGrade,
		OverdueRate:    m.OverdueRate,
	}, nil
}

// Roster lists enrolled students with their stored progress and the course instructors.
func (s *CourseReportService) Roster(ctx context.Context, courseID string) (*dto.RosterResponse, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	roster, err := s.courses.Roster(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}

	instructorIDs := roster.InstructorIDs()
	profiles, err := s.courses.Profiles(ctx, instructorIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load instructors")
	}
	byID := make(map[string]models.UserProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	instructors := make([]dto.Instructor, 0, len(instructorIDs))
	for _, id := range instructorIDs {
		p, ok := byID[id]
		if !ok {
			continue
		}
		instructors = append(instructors, dto.Instructor{
			ID: p.ID, FullName: p.FullName, Email: p.Email, Contact: p.Contact, Image: p.Image, Role: p.Role,
		})
	}

	students, err := s.courses.Students(ctx, courseID, "")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students")
	}
	rows, err := s.progress.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load stored progress")
	}
	stored := make(map[string]models.StudentProgress, len(rows))
	for _, r := range rows {
		stored[r.StudentID] = r
	}

	list := make([]dto.RosterStudent, 0, len(students))
	for _, st := range students {
		entry := dto.RosterStudent{
			StudentID: st.ID,
			FullName:  st.FullName,
			Email:     st.Email,
			Contact:   st.Contact,
			Image:     st.Image,
			Status:    models.StatusOnTrack,
		}
		if p, ok := stored[st.ID]; ok {
			updated := p.UpdatedAt
			entry.Status = p.Status
			entry.AttendanceRate = p.AttendanceRate
			entry.HomeworkCompletedRate = p.HomeworkCompletedRate
			entry.AvgGrade = p.AvgGrade
			entry.OverdueRate = p.OverdueRate
			entry.TotalTasks = p.TotalTasks
			entry.CompletedTasks = p.CompletedTasks
			entry.UpdatedAt = &updated
		} else {
			entry.Message = dto.NoActivityMessage
		}
		list = append(list, entry)
	}

	return &dto.RosterResponse{
		CourseID:    roster.ID,
		ClassName:   roster.ClassName,
		SubjectName: roster.SubjectName,
		Instructors: instructors,
		Students:    list,
	}, nil
}

// Tabular returns fixed-format counters per student, optionally filtered by a
// case-insensitive name substring.
func (s *CourseReportService) Tabular(ctx context.Context, courseID, search string) ([]dto.TabularRow, error) {
	_, rows, err := s.tabular(ctx, courseID, search)
	return rows, err
}

// ExportTabular renders the tabular report as CSV or PDF.
func (s *CourseReportService) ExportTabular(ctx context.Context, courseID string, req dto.ExportTabularRequest) (*export.File, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	roster, rows, err := s.tabular(ctx, courseID, req.Search)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   fmt.Sprintf("%s %s - Progress Report", roster.SubjectName, roster.ClassName),
		Headers: []string{"Student", "Attendance", "Homework Completed", "Homework Pending", "Exam Grade"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []string{r.FullName, r.Attendance, r.HwCompleted, r.HwPending, r.ExamGrade})
	}
	payload, err := export.Render(format, table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	return &export.File{
		Name:        fmt.Sprintf("tabular-report-%s-%s.%s", courseID, s.now().In(s.cfg.Location).Format("20060102"), format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *CourseReportService) tabular(ctx context.Context, courseID, search string) (*models.CourseRoster, []dto.TabularRow, error) {
	if courseID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	roster, err := s.courses.Roster(ctx, courseID)
	if err != nil {
		return nil, nil, lookupError(err, "course not found", "failed to load course")
	}
	students, err := s.courses.Students(ctx, courseID, search)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load students")
	}
	attendance, err := s.attendance.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load attendance")
	}
	tasks, err := s.tasks.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load tasks")
	}
	submissions, err := s.submissions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load submissions")
	}

	courseDays := make(map[string]struct{})
	present := make(map[string]int)
	for _, a := range attendance {
		courseDays[a.Date] = struct{}{}
		if a.Status.Present() {
			present[a.StudentID]++
		}
	}

	taskTypes := make(map[string]models.TaskType, len(tasks))
	homeworkTotal := 0
	for _, t := range tasks {
		taskTypes[t.ID] = t.Type
		if t.Type == models.TaskHomework {
			homeworkTotal++
		}
	}

	type examTally struct {
		sum float64
		n   int
	}
	homeworkDone := make(map[string]map[string]struct{})
	exams := make(map[string]*examTally)
	for _, sub := range submissions {
		switch taskTypes[sub.TaskID] {
		case models.TaskHomework:
			if homeworkDone[sub.StudentID] == nil {
				homeworkDone[sub.StudentID] = make(map[string]struct{})
			}
			homeworkDone[sub.StudentID][sub.TaskID] = struct{}{}
		case models.TaskExam:
			if !sub.IsMarked {
				continue
			}
			tally := exams[sub.StudentID]
			if tally == nil {
				tally = &examTally{}
				exams[sub.StudentID] = tally
			}
			tally.sum += sub.Marks
			tally.n++
		}
	}

	totalDays := len(courseDays)
	rows := make([]dto.TabularRow, 0, len(students))
	for _, st := range students {
		days := present[st.ID]
		done := len(homeworkDone[st.ID])
		pending := homeworkTotal - done
		if pending < 0 {
			pending = 0
		}
		examGrade := 0
		if tally := exams[st.ID]; tally != nil && tally.n > 0 {
			examGrade = int(math.Floor(tally.sum/float64(tally.n) + 0.5))
		}
		rows = append(rows, dto.TabularRow{
			StudentID:   st.ID,
			FullName:    st.FullName,
			Attendance:  fmt.Sprintf("%02d/%02d (%d%%)", days, totalDays, progress.RoundPercent(days, totalDays)),
			HwCompleted: fmt.Sprintf("%02d/%02d", done, homeworkTotal),
			HwPending:   fmt.Sprintf("%02d", pending),
			ExamGrade:   fmt.Sprintf("%d%%", examGrade),
		})
	}
	return roster, rows, nil
}
