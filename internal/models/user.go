package models

import "time"

// User represents an account on the platform. Students and admins share
// the same table and are distinguished by role.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Courses is a denormalized convenience set synchronized on enroll and
	// cancel. It is never consulted for access decisions; Enrollment rows
	// are the source of truth.
	Courses []UserCourse `json:"courses,omitempty"`
}

// UserCourse is one entry of the denormalized student course set.
type UserCourse struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID uint `gorm:"not null;uniqueIndex:idx_user_course" json:"course_id"`
}

const (
	// RoleStudent identifies learner accounts.
	RoleStudent = "student"
	// RoleAdmin identifies administrator accounts.
	RoleAdmin = "admin"
)
