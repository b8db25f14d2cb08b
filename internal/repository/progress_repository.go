package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

const progressColumns = `id, course_id, student_id, status, attendance_rate, homework_completed_rate, avg_grade, overdue_rate, total_tasks, completed_tasks, created_at, updated_at`

// ProgressRepository persists materialized student progress rows.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs a ProgressRepository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Find returns the stored row for a (course, student) pair, or nil when none exists.
func (r *ProgressRepository) Find(ctx context.Context, courseID, studentID string) (*models.StudentProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_progress WHERE course_id = $1 AND student_id = $2`, progressColumns)
	var row models.StudentProgress
	if err := r.db.GetContext(ctx, &row, query, courseID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student progress: %w", err)
	}
	return &row, nil
}

// Upsert writes the row keyed by (course_id, student_id) and returns what is stored.
// updated_at only advances when one of the metric columns actually changes.
func (r *ProgressRepository) Upsert(ctx context.Context, p *models.StudentProgress) (*models.StudentProgress, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	query := fmt.Sprintf(`INSERT INTO student_progress (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (course_id, student_id)
DO UPDATE SET status = EXCLUDED.status, attendance_rate = EXCLUDED.attendance_rate,
    homework_completed_rate = EXCLUDED.homework_completed_rate, avg_grade = EXCLUDED.avg_grade,
    overdue_rate = EXCLUDED.overdue_rate, total_tasks = EXCLUDED.total_tasks, completed_tasks = EXCLUDED.completed_tasks,
    updated_at = CASE WHEN (student_progress.status, student_progress.attendance_rate, student_progress.homework_completed_rate,
            student_progress.avg_grade, student_progress.overdue_rate, student_progress.total_tasks, student_progress.completed_tasks)
        IS DISTINCT FROM (EXCLUDED.status, EXCLUDED.attendance_rate, EXCLUDED.homework_completed_rate,
            EXCLUDED.avg_grade, EXCLUDED.overdue_rate, EXCLUDED.total_tasks, EXCLUDED.completed_tasks)
        THEN EXCLUDED.updated_at ELSE student_progress.updated_at END
RETURNING %s`, progressColumns, progressColumns)

	var stored models.StudentProgress
	if err := r.db.GetContext(ctx, &stored, query,
		p.ID, p.CourseID, p.StudentID, p.Status, p.AttendanceRate, p.HomeworkCompletedRate, p.AvgGrade,
		p.OverdueRate, p.TotalTasks, p.CompletedTasks, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert student progress: %w", err)
	}
	return &stored, nil
}

// ListByCourse returns stored rows for currently enrolled students.
func (r *ProgressRepository) ListByCourse(ctx context.Context, courseID string) ([]models.StudentProgress, error) {
	const query = `SELECT sp.id, sp.course_id, sp.student_id, sp.status, sp.attendance_rate, sp.homework_completed_rate, sp.avg_grade,
        sp.overdue_rate, sp.total_tasks, sp.completed_tasks, sp.created_at, sp.updated_at
        FROM student_progress sp
        JOIN course_students cs ON cs.course_id = sp.course_id AND cs.student_id = sp.student_id
        WHERE sp.course_id = $1`
	var rows []models.StudentProgress
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list course progress: %w", err)
	}
	return rows, nil
}

// StatusCounts groups stored rows of enrolled students by status.
func (r *ProgressRepository) StatusCounts(ctx context.Context, courseID string) ([]models.StatusCount, error) {
	const query = `SELECT sp.status, COUNT(*) AS count
        FROM student_progress sp
        JOIN course_students cs ON cs.course_id = sp.course_id AND cs.student_id = sp.student_id
        WHERE sp.course_id = $1
        GROUP BY sp.status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, courseID); err != nil {
		return nil, fmt.Errorf("count progress by status: %w", err)
	}
	return counts, nil
}
