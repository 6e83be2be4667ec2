package models

import (
	"math"
	"time"
)

// Exam defines a scored assessment with a bounded number of attempts.
type Exam struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	DurationMin int    `gorm:"not null" json:"duration_min"`
	TotalMarks  int    `gorm:"not null;check:total_marks >= 0" json:"total_marks"`

	// PassingMarks is optional; when nil the effective threshold falls back
	// to half the total marks, rounded up.
	PassingMarks *int `json:"passing_marks"`

	MaxAttempts int       `gorm:"not null;default:3" json:"max_attempts"`
	CreatedBy   uint      `gorm:"index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Questions []Question `json:"questions,omitempty"`
}

// DefaultMaxAttempts applies when an exam does not set its own limit.
const DefaultMaxAttempts = 3

// AttemptLimit returns the effective attempt ceiling for the exam.
func (e Exam) AttemptLimit() int {
	if e.MaxAttempts > 0 {
		return e.MaxAttempts
	}
	return DefaultMaxAttempts
}

// EffectivePassingMarks resolves the score needed to pass. The same value
// must be used by eligibility checks and by scoring; any divergence between
// the two paths is a correctness bug.
func (e Exam) EffectivePassingMarks() int {
	if e.PassingMarks != nil {
		if *e.PassingMarks > e.TotalMarks {
			return e.TotalMarks
		}
		return *e.PassingMarks
	}
	return int(math.Ceil(float64(e.TotalMarks) * 0.5))
}
