package models

import "time"

// TaskType distinguishes homework from exams.
type TaskType string

const (
	TaskHomework TaskType = "homework"
	TaskExam     TaskType = "exam"
)

// TaskState is derived from the clock and never stored.
type TaskState string

const (
	TaskActive   TaskState = "active"
	TaskTimeOver TaskState = "time-over"
)

// Task is an assignable homework or exam item. Dates are YYYY-MM-DD and times HH:mm,
// interpreted in the reporting timezone.
type Task struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	Type      TaskType  `db:"type" json:"type"`
	StartDate string    `db:"start_date" json:"start_date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndDate   string    `db:"end_date" json:"end_date"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Details   string    `db:"details" json:"details"`
	Document  *string   `db:"document" json:"document,omitempty"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
