package dto

import (
	"time"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

// Task timeline labels shown to users.
const (
	TaskNotSubmitted    = "Not Submitted"
	TaskSubmittedOnTime = "Submitted on time"
	TaskLateSubmitted   = "Late submitted"
	TaskMissing         = "Missing"
)

// Session timeline labels shown to users.
const (
	SessionOnTime    = "On time"
	SessionLate      = "Late"
	SessionAbsent    = "Absent"
	SessionNotMarked = "Not Marked"
)

// NoActivityMessage accompanies synthesized roster rows.
const NoActivityMessage = "No activity recorded yet"

// DashboardOverview counts students per status tier.
type DashboardOverview struct {
	CourseID      string `json:"courseId"`
	OnTrack       int    `json:"onTrack"`
	Attention     int    `json:"attention"`
	Behind        int    `json:"behind"`
	Critical      int    `json:"critical"`
	TotalStudents int    `json:"totalStudents"`
}

// OverallStats is the class-wide rollup computed from raw records.
type OverallStats struct {
	CourseID       string  `json:"courseId"`
	TotalEnrolled  int     `json:"totalEnrolled"`
	AttendanceRate float64 `json:"attendanceRate"`
	HomeworkRate   float64 `json:"homeworkRate"`
	AvgGrade       float64 `json:"avgGrade"`
	OverdueRate    float64 `json:"overdueRate"`
}

// Instructor is a teacher or assistant contact card.
type Instructor struct {
	ID       string          `json:"id"`
	FullName string          `json:"fullName"`
	Email    string          `json:"email"`
	Contact  string          `json:"contact"`
	Image    *string         `json:"image,omitempty"`
	Role     models.UserRole `json:"role"`
}

// RosterStudent joins a student's contact card with their stored progress.
type RosterStudent struct {
	StudentID             string                `json:"studentId"`
	FullName              string                `json:"fullName"`
	Email                 string                `json:"email"`
	Contact               string                `json:"contact"`
	Image                 *string               `json:"image,omitempty"`
	Status                models.ProgressStatus `json:"status"`
	AttendanceRate        float64               `json:"attendanceRate"`
	HomeworkCompletedRate float64               `json:"homeworkCompletedRate"`
	AvgGrade              float64               `json:"avgGrade"`
	OverdueRate           float64               `json:"overdueRate"`
	TotalTasks            int                   `json:"totalTasks"`
	CompletedTasks        int                   `json:"completedTasks"`
	UpdatedAt             *time.Time            `json:"updatedAt,omitempty"`
	Message               string                `json:"message,omitempty"`
}

// RosterResponse is the student-status roster of a course.
type RosterResponse struct {
	CourseID    string          `json:"courseId"`
	ClassName   string          `json:"className"`
	SubjectName string          `json:"subjectName"`
	Instructors []Instructor    `json:"instructors"`
	Students    []RosterStudent `json:"students"`
}

// TabularRow holds fixed-format counters for one student.
type TabularRow struct {
	StudentID   string `json:"studentId"`
	FullName    string `json:"fullName"`
	Attendance  string `json:"attendance"`
	HwCompleted string `json:"hwCompleted"`
	HwPending   string `json:"hwPending"`
	ExamGrade   string `json:"examGrade"`
}

// ExportTabularRequest selects the export format.
type ExportTabularRequest struct {
	Format string `form:"format" validate:"required,oneof=csv pdf"`
	Search string `form:"search" validate:"omitempty,max=100"`
}

// TaskHistoryItem is one entry of the task timeline.
type TaskHistoryItem struct {
	TaskID           string           `json:"taskId"`
	Title            string           `json:"title"`
	Type             models.TaskType  `json:"type"`
	EndDate          string           `json:"endDate"`
	EndTime          string           `json:"endTime"`
	TaskState        models.TaskState `json:"taskState"`
	Status           string           `json:"status"`
	SubmittedAt      *time.Time       `json:"submittedAt,omitempty"`
	AnswerPDF        *string          `json:"answerPdf,omitempty"`
	IsMarked         bool             `json:"isMarked"`
	Marks            *float64         `json:"marks,omitempty"`
	Feedback         *string          `json:"feedback,omitempty"`
	CorrectAnswerPDF *string          `json:"correctAnswerPdf,omitempty"`
}

// TaskHistorySummary counts task timeline entries per label.
type TaskHistorySummary struct {
	Total           int `json:"total"`
	SubmittedOnTime int `json:"submittedOnTime"`
	LateSubmitted   int `json:"lateSubmitted"`
	Missing         int `json:"missing"`
	NotSubmitted    int `json:"notSubmitted"`
}

// SessionHistoryItem is one entry of the session timeline.
type SessionHistoryItem struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
}

// SessionHistorySummary rolls up the session timeline. Percentages use marked sessions.
type SessionHistorySummary struct {
	Total             int     `json:"total"`
	Marked            int     `json:"marked"`
	OnTime            int     `json:"onTime"`
	Late              int     `json:"late"`
	Absent            int     `json:"absent"`
	NotMarked         int     `json:"notMarked"`
	OnTimePercent     float64 `json:"onTimePercent"`
	LatePercent       float64 `json:"latePercent"`
	AbsentPercent     float64 `json:"absentPercent"`
	AttendancePercent float64 `json:"attendancePercent"`
}

// StudentHistory is the detailed per-student view.
type StudentHistory struct {
	CourseID       string                 `json:"courseId"`
	StudentID      string                 `json:"studentId"`
	Progress       models.StudentProgress `json:"progress"`
	Tasks          []TaskHistoryItem      `json:"tasks"`
	TaskSummary    TaskHistorySummary     `json:"taskSummary"`
	Sessions       []SessionHistoryItem   `json:"sessions"`
	SessionSummary SessionHistorySummary  `json:"sessionSummary"`
}

// MissingTaskAlert reports missed deadlines in the current week.
type MissingTaskAlert struct {
	CourseID  string    `json:"courseId"`
	Count     int       `json:"count"`
	Message   *string   `json:"message"`
	WeekStart time.Time `json:"weekStart"`
	WeekEnd   time.Time `json:"weekEnd"`
}

// ChildCourse lists a course a parent's child is enrolled in.
type ChildCourse struct {
	CourseID    string                  `json:"courseId"`
	ClassName   string                  `json:"className"`
	SubjectName string                  `json:"subjectName"`
	Image       *string                 `json:"image,omitempty"`
	Status      models.ProgressStatus   `json:"status"`
	Progress    *models.StudentProgress `json:"progress,omitempty"`
}

// AttendanceStats counts marks per status with percentages of the total.
type AttendanceStats struct {
	CourseID       string  `json:"courseId"`
	StudentID      string  `json:"studentId,omitempty"`
	Total          int     `json:"total"`
	OnTime         int     `json:"onTime"`
	Late           int     `json:"late"`
	Absent         int     `json:"absent"`
	OnTimePercent  float64 `json:"onTimePercent"`
	LatePercent    float64 `json:"latePercent"`
	AbsentPercent  float64 `json:"absentPercent"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// AttendanceListRequest carries query-string options for the attendance listing.
type AttendanceListRequest struct {
	CourseID  string `form:"courseId"`
	StudentID string `form:"studentId"`
	Status    string `form:"status" validate:"omitempty,oneof=absent late on-time"`
	Search    string `form:"search" validate:"omitempty,max=100"`
	DateFrom  string `form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	Sort      string `form:"sort"`
	Order     string `form:"order" validate:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page" validate:"omitempty,gte=1"`
	Limit     int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
}
