package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question belongs to one exam. Options are stored as a JSON array of
// strings; CorrectAnswer must be one of them.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	ExamID        uint                        `gorm:"not null;index" json:"exam_id"`
	QuestionText  string                      `gorm:"type:text;not null" json:"question_text"`
	Options       datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CorrectAnswer string                      `gorm:"size:512;not null" json:"correct_answer"`
	Marks         int                         `gorm:"not null;default:1" json:"marks"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// MarkValue returns the marks awarded for a correct answer, defaulting to 1.
func (q Question) MarkValue() int {
	if q.Marks > 0 {
		return q.Marks
	}
	return 1
}
