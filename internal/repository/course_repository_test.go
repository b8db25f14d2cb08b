package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var courseRowColumns = []string{"id", "class_name", "subject_name", "image", "status", "teacher_id", "assistant_id", "created_at"}

func TestCourseRepositoryRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	teacher := "teacher-1"
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses c WHERE c.id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).AddRow("course-1", "X-A", "Physics", nil, "active", teacher, nil, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM course_students WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("s1").AddRow("s2"))

	roster, err := repo.Roster(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "Physics", roster.SubjectName)
	assert.Equal(t, []string{"s1", "s2"}, roster.StudentIDs)
	assert.True(t, roster.Enrolled("s2"))
	assert.False(t, roster.Enrolled("s3"))
	assert.Equal(t, []string{"teacher-1"}, roster.InstructorIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses c WHERE c.id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryStudentsSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE cs.course_id = $1 AND LOWER(u.full_name) LIKE $2 ORDER BY u.full_name ASC")).
		WithArgs("course-1", "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "contact", "image", "role"}).
			AddRow("s1", "Ana Putri", "ana@example.com", "0812", nil, "STUDENT"))

	students, err := repo.Students(context.Background(), "course-1", "  ANA ")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ana Putri", students[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryProfiles(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	profiles, err := repo.Profiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, profiles)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE u.id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "contact", "image", "role"}).
			AddRow("t1", "Pak Budi", "budi@example.com", "0813", nil, "TEACHER"))

	profiles, err = repo.Profiles(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Pak Budi", profiles[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParentRepositoryIsLinked(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM parent_children WHERE parent_id = $1 AND child_id = $2")).
		WithArgs("p1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parent_children WHERE parent_id = $1 AND child_id = $2")).
		WithArgs("p1", "c2").
		WillReturnError(sql.ErrNoRows)

	linked, err := repo.IsLinked(context.Background(), "p1", "c1")
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = repo.IsLinked(context.Background(), "p1", "c2")
	require.NoError(t, err)
	assert.False(t, linked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
