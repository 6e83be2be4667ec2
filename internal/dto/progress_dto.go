package dto

import (
	"time"

	"github.com/skilldesk/lms-api/internal/models"
)

// TrackLectureRequest marks one lecture complete for a student.
type TrackLectureRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
	CourseID  uint `json:"course_id" validate:"required,gt=0"`
	LectureID uint `json:"lecture_id" validate:"required,gt=0"`
}

// CompletedLecture is one completed lecture entry.
type CompletedLecture struct {
	LectureID   uint      `json:"lecture_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProgressResponse summarizes a student's progress in one course.
type ProgressResponse struct {
	StudentID         uint               `json:"student_id"`
	CourseID          uint               `json:"course_id"`
	CompletedLectures []CompletedLecture `json:"completed_lectures"`
	TotalCompleted    int                `json:"total_completed"`
}

// NewProgressResponse converts a Progress model into a DTO.
func NewProgressResponse(model models.Progress) ProgressResponse {
	completed := make([]CompletedLecture, 0, len(model.CompletedLectures))
	for _, entry := range model.CompletedLectures {
		completed = append(completed, CompletedLecture{
			LectureID:   entry.LectureID,
			CompletedAt: entry.CompletedAt,
		})
	}

	return ProgressResponse{
		StudentID:         model.StudentID,
		CourseID:          model.CourseID,
		CompletedLectures: completed,
		TotalCompleted:    len(completed),
	}
}
