package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

// TaskRepository reads course tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByCourse returns every task of a course ordered by deadline.
func (r *TaskRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Task, error) {
	const query = `SELECT id, course_id, title, type, start_date, start_time, end_date, end_time, details, document, created_by, created_at
        FROM tasks WHERE course_id = $1 ORDER BY end_date ASC, end_time ASC, id ASC`
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, courseID); err != nil {
		return nil, fmt.Errorf("list course tasks: %w", err)
	}
	return tasks, nil
}
