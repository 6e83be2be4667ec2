package models

import (
	"time"

	"gorm.io/datatypes"
)

// AttemptAnswer is one graded answer embedded in an attempt. CorrectAnswer
// is nil when the submitted question id did not belong to the exam.
type AttemptAnswer struct {
	QuestionID     uint    `json:"question_id"`
	SelectedOption string  `json:"selected_option"`
	CorrectAnswer  *string `json:"correct_answer"`
	Marks          int     `json:"marks"`
}

// Attempt is one student's one submission against one exam. Attempts are
// append-only: once created they are never edited or deleted, so the
// sequence of AttemptNumber values per (user, exam) is the audit trail
// that drives all gating decisions. The unique index on
// (user, exam, attempt_number) backstops concurrent submissions that
// would otherwise compute the same number.
type Attempt struct {
	ID            uint                               `gorm:"primaryKey" json:"id"`
	UserID        uint                               `gorm:"not null;uniqueIndex:idx_user_exam_attempt;index:idx_user_exam" json:"user_id"`
	ExamID        uint                               `gorm:"not null;uniqueIndex:idx_user_exam_attempt;index:idx_user_exam" json:"exam_id"`
	Answers       datatypes.JSONSlice[AttemptAnswer] `json:"answers"`
	Score         int                                `gorm:"not null;default:0" json:"score"`
	Passed        bool                               `gorm:"not null;default:false" json:"passed"`
	AttemptNumber int                                `gorm:"not null;uniqueIndex:idx_user_exam_attempt" json:"attempt_number"`
	SubmittedAt   time.Time                          `json:"submitted_at"`

	// CanRetryAfter is set on failed attempts to the end of the cooldown
	// window; nil on passed attempts.
	CanRetryAfter *time.Time `json:"can_retry_after"`

	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Exam Exam `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exam"`
}
