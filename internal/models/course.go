package models

import "time"

// Course is the scoping unit for every metric: one roster, one teacher and an optional assistant.
type Course struct {
	ID          string    `db:"id" json:"id"`
	ClassName   string    `db:"class_name" json:"class_name"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Image       *string   `db:"image" json:"image,omitempty"`
	Status      string    `db:"status" json:"status"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	AssistantID *string   `db:"assistant_id" json:"assistant_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseRoster pairs a course with its enrolled student IDs.
type CourseRoster struct {
	Course
	StudentIDs []string `json:"student_ids"`
}

// Enrolled reports whether the student belongs to the roster.
func (r *CourseRoster) Enrolled(studentID string) bool {
	if r == nil {
		return false
	}
	for _, id := range r.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Size returns the number of enrolled students.
func (r *CourseRoster) Size() int {
	if r == nil {
		return 0
	}
	return len(r.StudentIDs)
}

// InstructorIDs lists teacher then assistant, skipping unassigned slots.
func (c Course) InstructorIDs() []string {
	ids := make([]string, 0, 2)
	if c.TeacherID != nil && *c.TeacherID != "" {
		ids = append(ids, *c.TeacherID)
	}
	if c.AssistantID != nil && *c.AssistantID != "" {
		ids = append(ids, *c.AssistantID)
	}
	return ids
}
