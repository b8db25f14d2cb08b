package progress

import (
	"strings"
	"time"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

const (
	dateLayout      = "2006-01-02"
	dateTimeLayout  = "2006-01-02 15:04"
	defaultEndClock = "23:59"
)

// TaskDeadline combines the task end date and time in loc. The boolean is false when
// the date cannot be parsed. A missing end time means end of day.
func TaskDeadline(task models.Task, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	date := strings.TrimSpace(task.EndDate)
	if len(date) > len(dateLayout) {
		date = date[:len(dateLayout)]
	}
	clock := strings.TrimSpace(task.EndTime)
	if clock == "" {
		clock = defaultEndClock
	}
	deadline, err := time.ParseInLocation(dateTimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return deadline, true
}

// PastDeadline reports whether now is strictly after the deadline. Tasks with an
// unparseable deadline are never past due.
func PastDeadline(task models.Task, now time.Time, loc *time.Location) bool {
	deadline, ok := TaskDeadline(task, loc)
	return ok && now.After(deadline)
}

// TaskState is computed at read time and never stored.
func TaskState(task models.Task, now time.Time, loc *time.Location) models.TaskState {
	if PastDeadline(task, now, loc) {
		return models.TaskTimeOver
	}
	return models.TaskActive
}

// SubmissionTiming classifies a submission made at submittedAt.
func SubmissionTiming(task models.Task, submittedAt time.Time, loc *time.Location) models.SubmissionStatus {
	if PastDeadline(task, submittedAt, loc) {
		return models.SubmissionLate
	}
	return models.SubmissionInTime
}

// WeekBounds returns Sunday 00:00 of now's week and the following Sunday 00:00, in now's location.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start := midnight.AddDate(0, 0, -int(now.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// SameDay compares calendar dates in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return a.In(loc).Format(dateLayout) == b.In(loc).Format(dateLayout)
}
