// Package progress derives attendance, homework, grade and overdue metrics from raw
// course records and classifies students into status tiers. It performs no I/O.
package progress

import (
	"math"
	"time"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

// Metrics is the per-student metric tuple for one course.
type Metrics struct {
	AttendanceRate        float64
	HomeworkCompletedRate float64
	AvgGrade              float64
	OverdueRate           float64

	TotalDays         int
	PresentDays       int
	TotalTasks        int
	CompletedTasks    int
	OverdueTasks      int
	MarkedSubmissions int
}

// Input carries the records of a single (course, student) pair.
type Input struct {
	Attendance  []models.AttendanceRecord
	Tasks       []models.Task
	Submissions []models.Submission
	Now         time.Time
	Location    *time.Location
}

// ClassMetrics is the class-wide rollup computed straight from raw records.
type ClassMetrics struct {
	TotalEnrolled  int
	AttendanceRate float64
	HomeworkRate   float64
	AvgGrade       float64
	OverdueRate    float64
}

// ClassInput carries every record of a course plus its roster.
type ClassInput struct {
	StudentIDs  []string
	Attendance  []models.AttendanceRecord
	Tasks       []models.Task
	Submissions []models.Submission
	Now         time.Time
	Location    *time.Location
}

// Compute runs every calculator for one student and rounds rates to two decimals.
func Compute(in Input) Metrics {
	present := PresentDays(in.Attendance)
	completed := CompletedTasks(in.Tasks, in.Submissions)
	overdue := OverdueTasks(in.Tasks, in.Submissions, in.Now, in.Location)
	avg, marked := meanMarks(in.Submissions)

	return Metrics{
		AttendanceRate:        Round2(rate(present, len(in.Attendance))),
		HomeworkCompletedRate: Round2(rate(completed, len(in.Tasks))),
		AvgGrade:              Round2(avg),
		OverdueRate:           Round2(rate(overdue, len(in.Tasks))),
		TotalDays:             len(in.Attendance),
		PresentDays:           present,
		TotalTasks:            len(in.Tasks),
		CompletedTasks:        completed,
		OverdueTasks:          overdue,
		MarkedSubmissions:     marked,
	}
}

// ComputeClass computes the class-wide variants. Homework and overdue rates use
// tasks x roster size as the denominator; an empty roster yields zeros.
func ComputeClass(in ClassInput) ClassMetrics {
	out := ClassMetrics{TotalEnrolled: len(in.StudentIDs)}
	if len(in.StudentIDs) == 0 {
		return out
	}

	roster := make(map[string]struct{}, len(in.StudentIDs))
	for _, id := range in.StudentIDs {
		roster[id] = struct{}{}
	}
	taskSet := make(map[string]struct{}, len(in.Tasks))
	for _, t := range in.Tasks {
		taskSet[t.ID] = struct{}{}
	}

	type pair struct{ task, student string }
	submitted := make(map[pair]struct{}, len(in.Submissions))
	for _, s := range in.Submissions {
		if _, ok := roster[s.StudentID]; !ok {
			continue
		}
		if _, ok := taskSet[s.TaskID]; !ok {
			continue
		}
		submitted[pair{s.TaskID, s.StudentID}] = struct{}{}
	}

	overdue := 0
	for _, t := range in.Tasks {
		if !PastDeadline(t, in.Now, in.Location) {
			continue
		}
		for id := range roster {
			if _, ok := submitted[pair{t.ID, id}]; !ok {
				overdue++
			}
		}
	}

	potential := len(in.Tasks) * len(roster)
	avg, _ := meanMarks(in.Submissions)

	out.AttendanceRate = Round2(rate(PresentDays(in.Attendance), len(in.Attendance)))
	out.HomeworkRate = Round2(rate(len(submitted), potential))
	out.AvgGrade = Round2(avg)
	out.OverdueRate = Round2(rate(overdue, potential))
	return out
}

// AttendanceRate is present days over recorded days, as a percentage.
func AttendanceRate(records []models.AttendanceRecord) float64 {
	return Round2(rate(PresentDays(records), len(records)))
}

// PresentDays counts records marked late or on time.
func PresentDays(records []models.AttendanceRecord) int {
	n := 0
	for _, r := range records {
		if r.Status.Present() {
			n++
		}
	}
	return n
}

// HomeworkCompletedRate is the share of tasks (any type) with a submission.
func HomeworkCompletedRate(tasks []models.Task, submissions []models.Submission) float64 {
	return Round2(rate(CompletedTasks(tasks, submissions), len(tasks)))
}

// CompletedTasks counts distinct tasks in the set that have at least one submission.
// Submissions for tasks outside the set are ignored so the result never exceeds len(tasks).
func CompletedTasks(tasks []models.Task, submissions []models.Submission) int {
	done := submittedTaskIDs(submissions)
	n := 0
	for _, t := range tasks {
		if _, ok := done[t.ID]; ok {
			n++
		}
	}
	return n
}

// AverageGrade is the raw mean of marks over marked submissions. Marks are not
// normalised by the task's maximum score.
func AverageGrade(submissions []models.Submission) float64 {
	avg, _ := meanMarks(submissions)
	return Round2(avg)
}

// OverdueRate is the share of tasks past their deadline without a submission.
func OverdueRate(tasks []models.Task, submissions []models.Submission, now time.Time, loc *time.Location) float64 {
	return Round2(rate(OverdueTasks(tasks, submissions, now, loc), len(tasks)))
}

// OverdueTasks counts tasks past their deadline that have no submission.
func OverdueTasks(tasks []models.Task, submissions []models.Submission, now time.Time, loc *time.Location) int {
	done := submittedTaskIDs(submissions)
	n := 0
	for _, t := range tasks {
		if _, ok := done[t.ID]; ok {
			continue
		}
		if PastDeadline(t, now, loc) {
			n++
		}
	}
	return n
}

// Round2 rounds half away from zero to two decimals and maps NaN or Inf to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// ClampRate bounds a percentage to [0, 100].
func ClampRate(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// RoundPercent returns num/den as a whole percentage rounded half up, or 0 when den is 0.
func RoundPercent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Floor(float64(num)*100/float64(den) + 0.5))
}

func rate(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return ClampRate(float64(num) / float64(den) * 100)
}

func meanMarks(submissions []models.Submission) (float64, int) {
	var sum float64
	n := 0
	for _, s := range submissions {
		if !s.IsMarked {
			continue
		}
		sum += s.Marks
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

func submittedTaskIDs(submissions []models.Submission) map[string]struct{} {
	ids := make(map[string]struct{}, len(submissions))
	for _, s := range submissions {
		ids[s.TaskID] = struct{}{}
	}
	return ids
}
