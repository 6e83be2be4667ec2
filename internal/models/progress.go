package models

import "time"

// Progress tracks which lectures a student has completed in a course.
type Progress struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_progress_student_course" json:"student_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_progress_student_course" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompletedLectures []ProgressLecture `json:"completed_lectures,omitempty"`
}

// ProgressLecture records one completed lecture; inserting the same
// lecture twice is a no-op thanks to the unique index.
type ProgressLecture struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProgressID  uint      `gorm:"not null;uniqueIndex:idx_progress_lecture" json:"progress_id"`
	LectureID   uint      `gorm:"not null;uniqueIndex:idx_progress_lecture" json:"lecture_id"`
	CompletedAt time.Time `json:"completed_at"`
}
