package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/noah-isme/edu-progress-api/internal/models"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
)

type fakeCourses struct {
	roster   *models.CourseRoster
	students []models.UserProfile
	profiles []models.UserProfile
	courses  []models.Course
	err      error
}

func (f *fakeCourses) Roster(_ context.Context, courseID string) (*models.CourseRoster, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.roster == nil || f.roster.ID != courseID {
		return nil, fmt.Errorf("find course %s: %w", courseID, sql.ErrNoRows)
	}
	return f.roster, nil
}

func (f *fakeCourses) Students(_ context.Context, _ string, search string) ([]models.UserProfile, error) {
	term := strings.ToLower(strings.TrimSpace(search))
	var out []models.UserProfile
	for _, s := range f.students {
		if term == "" || strings.Contains(strings.ToLower(s.FullName), term) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCourses) Profiles(_ context.Context, ids []string) ([]models.UserProfile, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.UserProfile
	for _, p := range f.profiles {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCourses) ListForStudent(context.Context, string) ([]models.Course, error) {
	return f.courses, nil
}

type fakeAttendance struct {
	records []models.AttendanceRecord
}

func (f *fakeAttendance) ListByStudent(_ context.Context, _ string, studentID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range f.records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendance) ListByCourse(context.Context, string) ([]models.AttendanceRecord, error) {
	return f.records, nil
}

type fakeTasks struct {
	tasks []models.Task
	err   error
}

func (f *fakeTasks) ListByCourse(context.Context, string) ([]models.Task, error) {
	return f.tasks, f.err
}

type fakeSubmissions struct {
	subs []models.Submission
}

func (f *fakeSubmissions) ListByCourse(context.Context, string) ([]models.Submission, error) {
	return f.subs, nil
}

func (f *fakeSubmissions) ListByStudent(_ context.Context, _ string, studentID string) ([]models.Submission, error) {
	var out []models.Submission
	for _, s := range f.subs {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeProgressStore mimics the conditional updated_at of the SQL upsert.
type fakeProgressStore struct {
	rows      map[string]models.StudentProgress
	upserts   int
	upsertErr error
}

func progressKey(courseID, studentID string) string { return courseID + "|" + studentID }

func (f *fakeProgressStore) Find(_ context.Context, courseID, studentID string) (*models.StudentProgress, error) {
	row, ok := f.rows[progressKey(courseID, studentID)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeProgressStore) Upsert(_ context.Context, p *models.StudentProgress) (*models.StudentProgress, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upserts++
	if f.rows == nil {
		f.rows = map[string]models.StudentProgress{}
	}
	key := progressKey(p.CourseID, p.StudentID)
	next := *p
	if existing, ok := f.rows[key]; ok {
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
		if sameMetrics(existing, next) {
			next.UpdatedAt = existing.UpdatedAt
		}
	} else {
		if next.ID == "" {
			next.ID = fmt.Sprintf("progress-%d", len(f.rows)+1)
		}
		if next.CreatedAt.IsZero() {
			next.CreatedAt = next.UpdatedAt
		}
	}
	f.rows[key] = next
	return &next, nil
}

func sameMetrics(a, b models.StudentProgress) bool {
	return a.Status == b.Status && a.AttendanceRate == b.AttendanceRate &&
		a.HomeworkCompletedRate == b.HomeworkCompletedRate && a.AvgGrade == b.AvgGrade &&
		a.OverdueRate == b.OverdueRate && a.TotalTasks == b.TotalTasks && a.CompletedTasks == b.CompletedTasks
}

func (f *fakeProgressStore) ListByCourse(_ context.Context, courseID string) ([]models.StudentProgress, error) {
	var out []models.StudentProgress
	for _, r := range f.rows {
		if r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProgressStore) StatusCounts(_ context.Context, courseID string) ([]models.StatusCount, error) {
	counts := map[models.ProgressStatus]int{}
	for _, r := range f.rows {
		if r.CourseID == courseID {
			counts[r.Status]++
		}
	}
	var out []models.StatusCount
	for status, n := range counts {
		out = append(out, models.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

type fakePublisher struct {
	events []models.ProgressEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event models.ProgressEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type memoryCacheRepo struct {
	store       map[string][]byte
	invalidated []string
	getErr      error
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.store == nil {
		m.store = map[string][]byte{}
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	for key := range m.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.store, key)
		}
	}
	return nil
}

type fakeSessions struct {
	sessions []models.ClassSession
}

func (f *fakeSessions) ListByCourse(context.Context, string) ([]models.ClassSession, error) {
	return f.sessions, nil
}

type fakeParents struct {
	links map[string]string
}

func (f *fakeParents) IsLinked(_ context.Context, parentID, childID string) (bool, error) {
	return f.links[childID] == parentID, nil
}

func newRoster(courseID string, students ...string) *models.CourseRoster {
	teacher := "teacher-1"
	return &models.CourseRoster{
		Course: models.Course{
			ID:          courseID,
			ClassName:   "X-A",
			SubjectName: "Physics",
			TeacherID:   &teacher,
		},
		StudentIDs: students,
	}
}
