package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceAbsent AttendanceStatus = "absent"
	AttendanceLate   AttendanceStatus = "late"
	AttendanceOnTime AttendanceStatus = "on-time"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceAbsent, AttendanceLate, AttendanceOnTime:
		return true
	default:
		return false
	}
}

// Present counts late arrivals as attended.
func (s AttendanceStatus) Present() bool {
	return s == AttendanceLate || s == AttendanceOnTime
}

// AttendanceRecord is one mark per (course, student, calendar day).
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      string           `db:"date" json:"date"` // YYYY-MM-DD
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceListRow extends a record with names for listing screens.
type AttendanceListRow struct {
	AttendanceRecord
	StudentName  string `db:"student_name" json:"student_name"`
	MarkedByName string `db:"marked_by_name" json:"marked_by_name"`
	ClassName    string `db:"class_name" json:"class_name"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
}
