package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

// ClassSessionRepository reads scheduled lessons.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs a ClassSessionRepository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// ListByCourse returns sessions of a course in chronological order.
func (r *ClassSessionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error) {
	const query = `SELECT id, course_id, title, date, time, link, created_by FROM class_sessions WHERE course_id = $1 ORDER BY date ASC, time ASC`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, courseID); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}
