package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

func TestAttendanceRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendances a WHERE a.course_id = $1 AND a.student_id = $2 ORDER BY a.date ASC")).
		WithArgs("course-1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "student_id", "date", "status", "marked_by", "created_at", "updated_at"}).
			AddRow("a1", "course-1", "s1", "2024-05-13", "on-time", "t1", now, now).
			AddRow("a2", "course-1", "s1", "2024-05-14", "late", "t1", now, now))

	rows, err := repo.ListByStudent(context.Background(), "course-1", "s1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-05-13", rows[0].Date)
	assert.Equal(t, models.AttendanceLate, rows[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.course_id = $1 AND a.student_id = $2 GROUP BY a.status")).
		WithArgs("course-1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("on-time", 7).AddRow("absent", 1))

	counts, err := repo.CountByStatus(context.Background(), "course-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 7, counts[models.AttendanceOnTime])
	assert.Equal(t, 1, counts[models.AttendanceAbsent])
	assert.Equal(t, 0, counts[models.AttendanceLate])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListBuildsWhitelistedQuery(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND a.course_id = $1 AND a.status = $2 AND (LOWER(s.full_name) LIKE $3) AND a.date >= $4 ORDER BY s.full_name ASC, a.id ASC LIMIT 5 OFFSET 5")).
		WithArgs("course-1", "late", "%budi%", "2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "student_id", "date", "status", "marked_by", "created_at", "updated_at", "student_name", "marked_by_name", "class_name", "subject_name"}).
			AddRow("a1", "course-1", "s1", "2024-05-02", "late", "t1", now, now, "Budi", "Bu Sari", "X-A", "Physics"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendances a")).
		WithArgs("course-1", "late", "%budi%", "2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	rows, total, err := repo.List(context.Background(), models.ListQuery{
		Search:          "Budi",
		SearchFields:    []string{"student_name", "password"},
		EqualityFilters: map[string]string{"status": "late", "course_id": "course-1", "bogus": "x"},
		DateFrom:        &from,
		SortKey:         "student_name",
		SortDirection:   models.SortAsc,
		Page:            2,
		Limit:           5,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bu Sari", rows[0].MarkedByName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 ORDER BY a.date DESC, a.id ASC LIMIT 10 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendances a")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	rows, total, err := repo.List(context.Background(), models.ListQuery{SortKey: "DROP TABLE"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
