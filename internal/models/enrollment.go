package models

import "time"

// Enrollment links one student to one course. At most one non-deleted
// enrollment may exist per (student, course) pair; the partial unique
// index enforces the invariant at the store level while still letting a
// pair re-enroll after a soft-cancelled row.
type Enrollment struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	StudentID uint `gorm:"not null;index:idx_student_course,unique,where:is_deleted = false" json:"student_id"`
	CourseID  uint `gorm:"not null;index:idx_student_course,unique,where:is_deleted = false" json:"course_id"`

	IsPaid        bool       `gorm:"not null;default:false" json:"is_paid"`
	PaymentDate   *time.Time `json:"payment_date"`
	PaymentMethod string     `gorm:"size:32;default:free" json:"payment_method"`
	PaymentID     string     `gorm:"size:128" json:"payment_id"`
	AmountPaid    float64    `gorm:"default:0" json:"amount_paid"`

	EnrollmentStatus string     `gorm:"size:32;not null;default:pending_payment" json:"enrollment_status"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	EndDate          *time.Time `json:"end_date"`

	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student User   `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course  Course `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

const (
	// EnrollmentStatusPendingPayment marks a priced-course enrollment awaiting payment.
	EnrollmentStatusPendingPayment = "pending_payment"
	// EnrollmentStatusActive marks an enrollment with course access.
	EnrollmentStatusActive = "active"
	// EnrollmentStatusCancelled marks a soft-deleted enrollment.
	EnrollmentStatusCancelled = "cancelled"
	// EnrollmentStatusExpired marks an enrollment past its end date.
	EnrollmentStatusExpired = "expired"
)

const (
	// PaymentMethodFree tags enrollments into free courses.
	PaymentMethodFree = "free"
	// PaymentMethodAdminGranted tags privileged access grants so revenue
	// reports can exclude them.
	PaymentMethodAdminGranted = "admin-granted"
)

// HasAccess reports whether the enrollment on its own grants content access.
// Free courses bypass this check entirely.
func (e Enrollment) HasAccess() bool {
	return !e.IsDeleted && e.IsPaid && e.EnrollmentStatus == EnrollmentStatusActive
}
