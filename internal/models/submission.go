package models

import "time"

// SubmissionStatus is fixed when the student submits.
type SubmissionStatus string

const (
	SubmissionInTime SubmissionStatus = "in-time"
	SubmissionLate   SubmissionStatus = "late"
)

// Submission is a student's answer to a task, unique per (task, student).
type Submission struct {
	ID               string           `db:"id" json:"id"`
	TaskID           string           `db:"task_id" json:"task_id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	CourseID         string           `db:"course_id" json:"course_id"`
	AnswerPDF        string           `db:"answer_pdf" json:"answer_pdf"`
	SubmissionStatus SubmissionStatus `db:"submission_status" json:"submission_status"`
	Marks            float64          `db:"marks" json:"marks"`
	IsMarked         bool             `db:"is_marked" json:"is_marked"`
	Feedback         *string          `db:"feedback" json:"feedback,omitempty"`
	CorrectAnswerPDF *string          `db:"correct_answer_pdf" json:"correct_answer_pdf,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}
