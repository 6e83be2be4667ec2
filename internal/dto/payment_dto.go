package dto

import (
	"time"

	"github.com/skilldesk/lms-api/internal/models"
)

// PaymentProcessRequest records the outcome of an external payment for a
// course. PaymentID is the gateway reference and doubles as the
// idempotency key; one is generated when the gateway did not supply any.
type PaymentProcessRequest struct {
	StudentID     uint   `json:"student_id" validate:"required,gt=0"`
	CourseID      uint   `json:"course_id" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=card upi netbanking cash wallet"`
	PaymentID     string `json:"payment_id" validate:"omitempty,max=128"`
}

// PaymentResponse is returned to API clients when viewing payments.
type PaymentResponse struct {
	ID         uint       `json:"id"`
	StudentID  uint       `json:"student_id"`
	CourseID   uint       `json:"course_id"`
	Amount     float64    `json:"amount"`
	Method     string     `json:"method"`
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	Student    UserLite   `json:"student"`
	Course     CourseLite `json:"course"`
}

// PaymentApplicationResult describes the outcome of applying a payment.
// FreeCourse is true when the course needed no payment and the request
// short-circuited without creating a payment row.
type PaymentApplicationResult struct {
	FreeCourse bool               `json:"free_course"`
	Duplicate  bool               `json:"duplicate"`
	Payment    *PaymentResponse   `json:"payment,omitempty"`
	Enrollment EnrollmentResponse `json:"enrollment"`
}

// PaymentStats aggregates the admin payments dashboard numbers. Revenue
// excludes admin-granted access, which never creates payment rows.
type PaymentStats struct {
	TotalPayments     int     `json:"total_payments"`
	TotalRevenue      float64 `json:"total_revenue"`
	CompletedPayments int     `json:"completed_payments"`
	PendingPayments   int     `json:"pending_payments"`
}

// AdminPaymentsResponse is the admin dashboard payload.
type AdminPaymentsResponse struct {
	Stats    PaymentStats      `json:"stats"`
	Payments []PaymentResponse `json:"payments"`
}

// NewPaymentResponse converts a Payment model into a DTO.
func NewPaymentResponse(model models.Payment) PaymentResponse {
	response := PaymentResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		CourseID:   model.CourseID,
		Amount:     model.Amount,
		Method:     model.Method,
		ExternalID: model.ExternalID,
		Status:     model.Status,
		CreatedAt:  model.CreatedAt,
	}

	if model.Student.ID != 0 {
		response.Student = NewUserLite(model.Student)
	}

	if model.Course.ID != 0 {
		response.Course = NewCourseLite(model.Course)
	}

	return response
}

// NewPaymentResponseSlice converts payment models into DTOs.
func NewPaymentResponseSlice(payments []models.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		responses = append(responses, NewPaymentResponse(payment))
	}

	return responses
}
