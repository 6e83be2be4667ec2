package models

import "time"

// Payment is the immutable record of one payment transaction. Rows are
// created only when a payment completes and are never mutated except for
// a status transition on refund.
type Payment struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	StudentID    uint    `gorm:"not null;index" json:"student_id"`
	CourseID     uint    `gorm:"not null;index" json:"course_id"`
	EnrollmentID uint    `gorm:"not null" json:"enrollment_id"`
	Amount       float64 `gorm:"not null" json:"amount"`
	Method       string  `gorm:"size:32;not null" json:"method"`

	// ExternalID is the externally supplied payment identifier and doubles
	// as the idempotency key: a retry with the same id must not create a
	// second row.
	ExternalID string `gorm:"size:128;uniqueIndex;not null" json:"external_id"`

	Status    string    `gorm:"size:32;not null;default:completed" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student User   `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course  Course `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

const (
	// PaymentStatusPending marks a payment awaiting confirmation.
	PaymentStatusPending = "pending"
	// PaymentStatusCompleted marks a settled payment.
	PaymentStatusCompleted = "completed"
	// PaymentStatusFailed marks a payment that did not settle.
	PaymentStatusFailed = "failed"
	// PaymentStatusRefunded marks a payment returned to the student.
	PaymentStatusRefunded = "refunded"
)
