package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-progress-api/internal/dto"
	"github.com/noah-isme/edu-progress-api/internal/models"
	"github.com/noah-isme/edu-progress-api/internal/service"
	appErrors "github.com/noah-isme/edu-progress-api/pkg/errors"
	"github.com/noah-isme/edu-progress-api/pkg/export"
)

// tokens maps bearer tokens straight to claims.
type tokens map[string]*models.JWTClaims

func (t tokens) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := t[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

var testTokens = tokens{
	"teacher": {UserID: "teacher-1", Role: models.RoleTeacher},
	"admin":   {UserID: "admin-1", Role: models.RoleSuperAdmin},
	"student": {UserID: "student-1", Role: models.RoleStudent},
	"parent":  {UserID: "parent-1", Role: models.RoleParent},
}

type fakeSyncer struct {
	lastCourse, lastStudent string
	err                     error
}

func (f *fakeSyncer) Sync(_ context.Context, courseID, studentID string) (*models.StudentProgress, error) {
	f.lastCourse, f.lastStudent = courseID, studentID
	if f.err != nil {
		return nil, f.err
	}
	return &models.StudentProgress{CourseID: courseID, StudentID: studentID, Status: models.StatusBehind}, nil
}

type fakeReports struct {
	overviewHit bool
	lastSearch  string
	lastExport  dto.ExportTabularRequest
	err         error
}

func (f *fakeReports) DashboardOverview(_ context.Context, courseID string) (*dto.DashboardOverview, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.DashboardOverview{CourseID: courseID, OnTrack: 3, TotalStudents: 3}, f.overviewHit, nil
}

func (f *fakeReports) OverallStats(_ context.Context, courseID string) (*dto.OverallStats, error) {
	return &dto.OverallStats{CourseID: courseID, TotalEnrolled: 3}, f.err
}

func (f *fakeReports) Roster(_ context.Context, courseID string) (*dto.RosterResponse, error) {
	return &dto.RosterResponse{CourseID: courseID}, f.err
}

func (f *fakeReports) Tabular(_ context.Context, _ string, search string) ([]dto.TabularRow, error) {
	f.lastSearch = search
	return []dto.TabularRow{{FullName: "Ana Putri", Attendance: "09/10 (90%)"}}, f.err
}

func (f *fakeReports) ExportTabular(_ context.Context, courseID string, req dto.ExportTabularRequest) (*export.File, error) {
	f.lastExport = req
	return &export.File{Name: "tabular-report-" + courseID + ".csv", ContentType: export.FormatCSV.ContentType(), Payload: []byte("Student\nAna\n")}, nil
}

type fakeHistories struct {
	lastStudent string
}

func (f *fakeHistories) History(_ context.Context, courseID, studentID string) (*dto.StudentHistory, error) {
	f.lastStudent = studentID
	return &dto.StudentHistory{CourseID: courseID, StudentID: studentID}, nil
}

func (f *fakeHistories) MissingTaskAlert(_ context.Context, courseID, _ string) (*dto.MissingTaskAlert, error) {
	msg := "You have 1 missing task this week"
	return &dto.MissingTaskAlert{CourseID: courseID, Count: 1, Message: &msg}, nil
}

type fakeChildren struct {
	lastParent string
}

func (f *fakeChildren) ChildCourses(_ context.Context, parentID, childID string) ([]dto.ChildCourse, error) {
	f.lastParent = parentID
	if childID != "student-1" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "child is not linked to this parent")
	}
	return []dto.ChildCourse{{CourseID: "course-1", Status: models.StatusOnTrack}}, nil
}

func (f *fakeChildren) ChildHistory(_ context.Context, _, childID, courseID string) (*dto.StudentHistory, error) {
	return &dto.StudentHistory{CourseID: courseID, StudentID: childID}, nil
}

type fakeAttendanceReports struct {
	lastReq dto.AttendanceListRequest
}

func (f *fakeAttendanceReports) Stats(_ context.Context, courseID, studentID string) (*dto.AttendanceStats, error) {
	return &dto.AttendanceStats{CourseID: courseID, StudentID: studentID, Total: 4, OnTime: 4, AttendanceRate: 100}, nil
}

func (f *fakeAttendanceReports) List(_ context.Context, req dto.AttendanceListRequest) ([]models.AttendanceListRow, *models.Pagination, error) {
	f.lastReq = req
	return []models.AttendanceListRow{{StudentName: "Ana Putri"}}, models.NewPagination(2, 5, 6), nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type fixture struct {
	syncer     *fakeSyncer
	reports    *fakeReports
	histories  *fakeHistories
	children   *fakeChildren
	attendance *fakeAttendanceReports
	router     *gin.Engine
}

func newFixture(checks map[string]Pinger) *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		syncer:     &fakeSyncer{},
		reports:    &fakeReports{},
		histories:  &fakeHistories{},
		children:   &fakeChildren{},
		attendance: &fakeAttendanceReports{},
	}
	f.router = NewRouter(RouterParams{
		Tokens:     testTokens,
		Metrics:    service.NewMetricsService(),
		Reports:    NewReportHandler(f.syncer, f.reports, f.histories, nil),
		Parents:    NewParentHandler(f.children),
		Attendance: NewAttendanceHandler(f.attendance),
		Ops:        NewMetricsHandler(nil, checks, nil),
	})
	return f
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Message    string                 `json:"message"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func (f *fixture) do(t *testing.T, method, path, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRoutesRequireToken(t *testing.T) {
	f := newFixture(nil)

	rec, body := f.do(t, http.MethodGet, "/api/v1/reports/course-overview/course-1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/reports/course-overview/course-1", "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleChecks(t *testing.T) {
	f := newFixture(nil)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/v1/reports/course-overview/course-1", "student", http.StatusForbidden},
		{http.MethodGet, "/api/v1/reports/course-overview/course-1", "admin", http.StatusForbidden},
		{http.MethodGet, "/api/v1/reports/overall-stats/course-1", "admin", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/my-report/course-1", "teacher", http.StatusForbidden},
		{http.MethodGet, "/api/v1/reports/courses/course-1/students/student-1/history", "student", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/courses/course-1/students/student-2/history", "student", http.StatusForbidden},
		{http.MethodGet, "/api/v1/parents/children/student-1/courses", "teacher", http.StatusForbidden},
		{http.MethodGet, "/api/v1/attendance", "parent", http.StatusForbidden},
	}
	for _, tc := range cases {
		rec, _ := f.do(t, tc.method, tc.path, tc.token)
		assert.Equal(t, tc.want, rec.Code, "%s %s as %s", tc.method, tc.path, tc.token)
	}
}

func TestCourseOverviewReportsCacheHit(t *testing.T) {
	f := newFixture(nil)
	f.reports.overviewHit = true

	rec, body := f.do(t, http.MethodGet, "/api/v1/reports/course-overview/course-1", "teacher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body.Meta["cache_hit"])

	var overview dto.DashboardOverview
	require.NoError(t, json.Unmarshal(body.Data, &overview))
	assert.Equal(t, 3, overview.OnTrack)
	assert.Equal(t, "course-1", overview.CourseID)
}

func TestMyReportSyncsCaller(t *testing.T) {
	f := newFixture(nil)

	rec, body := f.do(t, http.MethodGet, "/api/v1/reports/my-report/course-1", "student")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "student-1", f.syncer.lastStudent)
	assert.Equal(t, "Progress summary", body.Message)
}

func TestSyncStudentMapsErrors(t *testing.T) {
	f := newFixture(nil)
	f.syncer.err = appErrors.Clone(appErrors.ErrNotFound, "course not found")

	rec, body := f.do(t, http.MethodPost, "/api/v1/reports/courses/course-9/students/student-1/sync", "teacher")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "course not found", body.Error.Message)

	f.syncer.err = errors.New("boom")
	rec, _ = f.do(t, http.MethodPost, "/api/v1/reports/courses/course-1/students/student-1/sync", "teacher")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTabularReportPassesSearch(t *testing.T) {
	f := newFixture(nil)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/reports/tabular-report/course-1?search=ana", "teacher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", f.reports.lastSearch)
}

func TestExportTabular(t *testing.T) {
	f := newFixture(nil)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/reports/tabular-report/course-1/export?format=CSV&search=ana", "teacher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="tabular-report-course-1.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Student\nAna\n", rec.Body.String())
	assert.Equal(t, dto.ExportTabularRequest{Format: "csv", Search: "ana"}, f.reports.lastExport)

	rec, body := f.do(t, http.MethodGet, "/api/v1/reports/tabular-report/course-1/export?format=xlsx", "teacher")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestStudentViews(t *testing.T) {
	f := newFixture(nil)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/reports/my-history/course-1", "student")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "student-1", f.histories.lastStudent)

	rec, body := f.do(t, http.MethodGet, "/api/v1/reports/my-alerts/course-1", "student")
	require.Equal(t, http.StatusOK, rec.Code)
	var alert dto.MissingTaskAlert
	require.NoError(t, json.Unmarshal(body.Data, &alert))
	assert.Equal(t, 1, alert.Count)
}

func TestParentRoutes(t *testing.T) {
	f := newFixture(nil)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/parents/children/student-1/courses", "parent")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "parent-1", f.children.lastParent)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/parents/children/student-2/courses", "parent")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/parents/children/student-1/courses/course-1/progress", "parent")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAttendanceRoutes(t *testing.T) {
	f := newFixture(nil)

	rec, body := f.do(t, http.MethodGet, "/api/v1/attendance?courseId=course-1&status=late&page=2&limit=5&order=asc", "teacher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &models.Pagination{Page: 2, Limit: 5, Total: 6, TotalPages: 2}, body.Pagination)
	assert.Equal(t, "late", f.attendance.lastReq.Status)
	assert.Equal(t, 2, f.attendance.lastReq.Page)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/attendance?page=abc", "teacher")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = f.do(t, http.MethodGet, "/api/v1/attendance/stats/course-1?studentId=student-1", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats dto.AttendanceStats
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, "student-1", stats.StudentID)
}

func TestOpsRoutes(t *testing.T) {
	f := newFixture(map[string]Pinger{"postgres": pinger{}, "redis": pinger{err: errors.New("refused")}})

	rec, _ := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
	assert.Contains(t, rec.Body.String(), `"postgres":"up"`)

	rec, _ = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyWhenDependenciesAreUp(t *testing.T) {
	f := newFixture(map[string]Pinger{"postgres": PingFunc(func(context.Context) error { return nil })})

	rec, _ := f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
