package progress

import "github.com/noah-isme/edu-progress-api/internal/models"

const (
	criticalAttendance  = 70
	criticalGrade       = 40
	attentionAttendance = 80
	attentionOverdue    = 3
	behindAttendance    = 90
	behindOverdue       = 1
)

// Classify maps metrics to a status tier. Rules are checked from most to least severe
// and the first match wins. Attendance rules need at least one attendance record and
// the grade rule needs at least one marked submission, so a student with no records
// stays on track.
func Classify(m Metrics) models.ProgressStatus {
	hasAttendance := m.TotalDays > 0
	hasGrades := m.MarkedSubmissions > 0

	switch {
	case hasAttendance && m.AttendanceRate < criticalAttendance,
		hasGrades && m.AvgGrade < criticalGrade:
		return models.StatusCritical
	case hasAttendance && m.AttendanceRate < attentionAttendance,
		m.OverdueTasks >= attentionOverdue:
		return models.StatusAttention
	case hasAttendance && m.AttendanceRate < behindAttendance,
		m.OverdueTasks >= behindOverdue:
		return models.StatusBehind
	default:
		return models.StatusOnTrack
	}
}
