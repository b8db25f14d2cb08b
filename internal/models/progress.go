package models

import "time"

// ProgressStatus is the status tier, ordered by increasing severity.
type ProgressStatus string

const (
	StatusOnTrack   ProgressStatus = "on-track"
	StatusBehind    ProgressStatus = "behind"
	StatusAttention ProgressStatus = "attention"
	StatusCritical  ProgressStatus = "critical"
)

// Severity ranks the tier; higher is worse. Unknown values rank as on-track.
func (s ProgressStatus) Severity() int {
	switch s {
	case StatusBehind:
		return 1
	case StatusAttention:
		return 2
	case StatusCritical:
		return 3
	default:
		return 0
	}
}

// StudentProgress is the materialized metric summary for one (course, student).
// It is recomputed and upserted on every sync and never edited by hand.
type StudentProgress struct {
	ID                    string         `db:"id" json:"id"`
	CourseID              string         `db:"course_id" json:"course_id"`
	StudentID             string         `db:"student_id" json:"student_id"`
	Status                ProgressStatus `db:"status" json:"status"`
	AttendanceRate        float64        `db:"attendance_rate" json:"attendance_rate"`
	HomeworkCompletedRate float64        `db:"homework_completed_rate" json:"homework_completed_rate"`
	AvgGrade              float64        `db:"avg_grade" json:"avg_grade"`
	OverdueRate           float64        `db:"overdue_rate" json:"overdue_rate"`
	TotalTasks            int            `db:"total_tasks" json:"total_tasks"`
	CompletedTasks        int            `db:"completed_tasks" json:"completed_tasks"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}

// StatusCount is one row of a GROUP BY status over persisted progress.
type StatusCount struct {
	Status ProgressStatus `db:"status"`
	Count  int            `db:"count"`
}

// ProgressEvent is emitted by a sync whose status tier moved. Delivery is left to
// whoever consumes the event.
type ProgressEvent struct {
	CourseID       string         `json:"course_id"`
	StudentID      string         `json:"student_id"`
	PreviousStatus ProgressStatus `json:"previous_status,omitempty"`
	Status         ProgressStatus `json:"status"`
	OccurredAt     time.Time      `json:"occurred_at"`
}
