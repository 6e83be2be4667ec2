package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/dto"
)

// Sentinel errors shared across services. Handlers map these to HTTP
// statuses; everything else is treated as an infrastructure failure.
var (
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrExamNotFound indicates the referenced exam does not exist.
	ErrExamNotFound = errors.New("exam not found")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEnrollmentNotFound indicates no enrollment exists for the pair.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrLectureNotFound indicates the referenced lecture does not exist in the course.
	ErrLectureNotFound = errors.New("lecture not found")
	// ErrEnrollFirst indicates a payment arrived for a pair with no enrollment.
	ErrEnrollFirst = errors.New("please enroll first")
	// ErrMessageForbidden indicates the sender/receiver role pair may not exchange messages.
	ErrMessageForbidden = errors.New("messaging not allowed between these roles")
	// ErrEmptyMessage indicates the message text was empty after sanitization.
	ErrEmptyMessage = errors.New("message text must not be empty")
	// ErrConflict indicates a concurrent-write race that survived the internal retry.
	ErrConflict = errors.New("conflicting concurrent write")
)

// Eligibility rejection reasons.
const (
	RejectAlreadyPassed     = "already_passed"
	RejectAttemptsExhausted = "attempts_exhausted"
	RejectCooldownActive    = "cooldown_active"
)

// EligibilityError is a business-rule rejection of an attempt submission.
// It is not a server fault: it carries the structured detail (attempts
// left, cooldown window) the caller needs to render guidance.
type EligibilityError struct {
	Reason       string
	Message      string
	AttemptsLeft int
	Cooldown     *dto.CooldownInfo
}

func (e *EligibilityError) Error() string {
	return e.Message
}

func newEligibilityError(reason, format string, args ...interface{}) *EligibilityError {
	return &EligibilityError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// isDuplicateKey reports whether err is a uniqueness-constraint violation.
// GORM translates these for postgres; the string checks cover drivers that
// surface the raw database error.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") ||
		strings.Contains(message, "duplicate key value")
}
