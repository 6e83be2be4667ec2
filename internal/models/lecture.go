package models

import "time"

// Lecture is one unit of course content, ordered by LectureNumber.
type Lecture struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CourseID      uint      `gorm:"not null;index" json:"course_id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	LectureNumber int       `gorm:"not null;default:1" json:"lecture_number"`
	VideoURL      string    `gorm:"size:512" json:"video_url"`
	DurationMin   int       `gorm:"default:0" json:"duration_min"`
	IsFreePreview bool      `gorm:"not null;default:false" json:"is_free_preview"`
	Status        string    `gorm:"size:32;not null;default:active" json:"status"`
	IsDeleted     bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Course Course `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// LectureStatusActive marks a lecture visible to students.
const LectureStatusActive = "active"

// IsVisible reports whether the lecture may appear in any listing.
func (l Lecture) IsVisible() bool {
	return l.Status == LectureStatusActive && !l.IsDeleted
}
