package models

// UserRole represents the roles issued by the auth service.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleAssistant  UserRole = "ASSISTANT"
	RoleStudent    UserRole = "STUDENT"
	RoleParent     UserRole = "PARENT"
)

// UserProfile is the contact card joined into report views.
type UserProfile struct {
	ID       string   `db:"id" json:"id"`
	FullName string   `db:"full_name" json:"full_name"`
	Email    string   `db:"email" json:"email"`
	Contact  string   `db:"contact" json:"contact"`
	Image    *string  `db:"image" json:"image,omitempty"`
	Role     UserRole `db:"role" json:"role"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives the page count, guarding against a zero limit.
func NewPagination(page, limit, total int) *Pagination {
	p := &Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}
