package dto

import (
	"time"

	"github.com/skilldesk/lms-api/internal/models"
)

// EnrollRequest is the payload for enrolling a student into a course.
type EnrollRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
	CourseID  uint `json:"course_id" validate:"required,gt=0"`
}

// AdminGrantRequest is the payload for a privileged access grant.
type AdminGrantRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
	CourseID  uint `json:"course_id" validate:"required,gt=0"`
}

// EnrollmentResponse is returned to API clients when viewing enrollments.
type EnrollmentResponse struct {
	ID               uint       `json:"id"`
	StudentID        uint       `json:"student_id"`
	CourseID         uint       `json:"course_id"`
	IsPaid           bool       `json:"is_paid"`
	EnrollmentStatus string     `json:"enrollment_status"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentID        string     `json:"payment_id,omitempty"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Student          UserLite   `json:"student"`
	Course           CourseLite `json:"course"`
}

// EnrollResult wraps the enrollment with an idempotency indicator: enrolling
// twice returns the existing row with AlreadyEnrolled set instead of failing.
type EnrollResult struct {
	Enrollment      EnrollmentResponse `json:"enrollment"`
	AlreadyEnrolled bool               `json:"already_enrolled"`
}

// UserLite summarizes a user without exposing full profile data.
type UserLite struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// CourseLite summarizes a course in nested responses.
type CourseLite struct {
	ID    uint    `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// NewUserLite converts a User model into its summary form.
func NewUserLite(model models.User) UserLite {
	return UserLite{
		ID:       model.ID,
		FullName: model.FullName,
		Email:    model.Email,
		Role:     model.Role,
	}
}

// NewCourseLite converts a Course model into its summary form.
func NewCourseLite(model models.Course) CourseLite {
	return CourseLite{
		ID:    model.ID,
		Title: model.Title,
		Price: model.Price,
	}
}

// NewEnrollmentResponse converts an Enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	response := EnrollmentResponse{
		ID:               model.ID,
		StudentID:        model.StudentID,
		CourseID:         model.CourseID,
		IsPaid:           model.IsPaid,
		EnrollmentStatus: model.EnrollmentStatus,
		PaymentMethod:    model.PaymentMethod,
		PaymentID:        model.PaymentID,
		PaymentDate:      model.PaymentDate,
		EnrolledAt:       model.EnrolledAt,
		EndDate:          model.EndDate,
	}

	if model.Student.ID != 0 {
		response.Student = NewUserLite(model.Student)
	}

	if model.Course.ID != 0 {
		response.Course = NewCourseLite(model.Course)
	}

	return response
}

// NewEnrollmentResponseSlice converts enrollment models into DTOs.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}

	return responses
}
