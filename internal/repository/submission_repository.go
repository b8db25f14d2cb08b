package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

const submissionColumns = `id, task_id, student_id, course_id, answer_pdf, submission_status, marks, is_marked, feedback, correct_answer_pdf, created_at, updated_at`

// SubmissionRepository reads task submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// ListByCourse returns every submission of a course.
func (r *SubmissionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE course_id = $1 ORDER BY created_at ASC`, submissionColumns)
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, courseID); err != nil {
		return nil, fmt.Errorf("list course submissions: %w", err)
	}
	return subs, nil
}

// ListByStudent returns one student's submissions in a course.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, courseID, studentID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE course_id = $1 AND student_id = $2 ORDER BY created_at ASC`, submissionColumns)
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, courseID, studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return subs, nil
}
