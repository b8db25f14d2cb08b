package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

const courseColumns = `c.id, c.class_name, c.subject_name, c.image, c.status, c.teacher_id, c.assistant_id, c.created_at`

// CourseRepository reads courses and their rosters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID fetches a course. sql.ErrNoRows is wrapped when it does not exist.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c WHERE c.id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, fmt.Errorf("find course %s: %w", id, err)
	}
	return &course, nil
}

// Roster returns the course together with its enrolled student IDs.
func (r *CourseRepository) Roster(ctx context.Context, courseID string) (*models.CourseRoster, error) {
	course, err := r.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	const query = `SELECT student_id FROM course_students WHERE course_id = $1 ORDER BY joined_at, student_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return &models.CourseRoster{Course: *course, StudentIDs: ids}, nil
}

// Students returns enrolled student profiles, optionally filtered by a
// case-insensitive substring of the full name.
func (r *CourseRepository) Students(ctx context.Context, courseID, search string) ([]models.UserProfile, error) {
	var b strings.Builder
	args := []interface{}{courseID}
	b.WriteString(`SELECT u.id, u.full_name, u.email, u.contact, u.image, u.role
        FROM course_students cs JOIN users u ON u.id = cs.student_id
        WHERE cs.course_id = $1`)
	if term := strings.TrimSpace(search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		fmt.Fprintf(&b, " AND LOWER(u.full_name) LIKE $%d", len(args))
	}
	b.WriteString(" ORDER BY u.full_name ASC")

	var students []models.UserProfile
	if err := r.db.SelectContext(ctx, &students, b.String(), args...); err != nil {
		return nil, fmt.Errorf("list course student profiles: %w", err)
	}
	return students, nil
}

// Profiles loads users by ID in a single round trip.
func (r *CourseRepository) Profiles(ctx context.Context, ids []string) ([]models.UserProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT u.id, u.full_name, u.email, u.contact, u.image, u.role FROM users u WHERE u.id = ANY($1)`
	var profiles []models.UserProfile
	if err := r.db.SelectContext(ctx, &profiles, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load user profiles: %w", err)
	}
	return profiles, nil
}

// ListForStudent returns the courses the student is enrolled in.
func (r *CourseRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        JOIN course_students cs ON cs.course_id = c.id
        WHERE cs.student_id = $1 ORDER BY c.created_at DESC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}
