package models

import "time"

// ClassSession is a scheduled lesson; attendance is matched to it by calendar date.
type ClassSession struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Link      string    `db:"link" json:"link"`
	CreatedBy string    `db:"created_by" json:"created_by"`
}
