package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-progress-api/internal/models"
)

const attendanceColumns = `a.id, a.course_id, a.student_id, to_char(a.date, 'YYYY-MM-DD') AS date, a.status, a.marked_by, a.created_at, a.updated_at`

var (
	attendanceFilterColumns = map[string]string{
		"course_id":  "a.course_id",
		"student_id": "a.student_id",
		"status":     "a.status",
		"marked_by":  "a.marked_by",
	}
	attendanceSearchColumns = map[string]string{
		"student_name": "s.full_name",
		"class_name":   "c.class_name",
		"subject_name": "c.subject_name",
	}
	attendanceSortColumns = map[string]string{
		"date":         "a.date",
		"created_at":   "a.created_at",
		"status":       "a.status",
		"student_name": "s.full_name",
	}
)

// AttendanceRepository reads attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByStudent returns one student's marks in a course ordered by date.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, courseID, studentID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances a WHERE a.course_id = $1 AND a.student_id = $2 ORDER BY a.date ASC`, attendanceColumns)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, courseID, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return rows, nil
}

// ListByCourse returns every mark recorded in a course.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, courseID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances a WHERE a.course_id = $1 ORDER BY a.date ASC, a.student_id ASC`, attendanceColumns)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list course attendance: %w", err)
	}
	return rows, nil
}

// CountByStatus groups marks by status for a course, optionally narrowed to a student.
func (r *AttendanceRepository) CountByStatus(ctx context.Context, courseID, studentID string) (map[models.AttendanceStatus]int, error) {
	query := `SELECT a.status, COUNT(*) AS count FROM attendances a WHERE a.course_id = $1`
	args := []interface{}{courseID}
	if studentID != "" {
		query += " AND a.student_id = $2"
		args = append(args, studentID)
	}
	query += " GROUP BY a.status"

	var rows []struct {
		Status models.AttendanceStatus `db:"status"`
		Count  int                     `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count attendance by status: %w", err)
	}
	counts := make(map[models.AttendanceStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// List pages through marks using whitelisted filter, search and sort keys.
func (r *AttendanceRepository) List(ctx context.Context, q models.ListQuery) ([]models.AttendanceListRow, int, error) {
	q = q.Normalize()
	base := `FROM attendances a
        JOIN users s ON s.id = a.student_id
        LEFT JOIN users m ON m.id = a.marked_by
        JOIN courses c ON c.id = a.course_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	keys := make([]string, 0, len(q.EqualityFilters))
	for key := range q.EqualityFilters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		column, ok := attendanceFilterColumns[key]
		value := q.EqualityFilters[key]
		if !ok || value == "" {
			continue
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		fields := q.SearchFields
		if len(fields) == 0 {
			fields = []string{"student_name"}
		}
		args = append(args, "%"+strings.ToLower(term)+"%")
		var ors []string
		for _, field := range fields {
			if column, ok := attendanceSearchColumns[field]; ok {
				ors = append(ors, fmt.Sprintf("LOWER(%s) LIKE $%d", column, len(args)))
			}
		}
		if len(ors) == 0 {
			args = args[:len(args)-1]
		} else {
			conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if q.DateFrom != nil {
		args = append(args, q.DateFrom.Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if q.DateTo != nil {
		args = append(args, q.DateTo.Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")
	sortColumn, ok := attendanceSortColumns[q.SortKey]
	if !ok {
		sortColumn = "a.date"
	}

	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name, COALESCE(m.full_name, '') AS marked_by_name, c.class_name, c.subject_name
        %s WHERE %s ORDER BY %s %s, a.id ASC LIMIT %d OFFSET %d`,
		attendanceColumns, base, where, sortColumn, q.SortDirection, q.Limit, q.Offset())

	var rows []models.AttendanceListRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}
