package dto

import (
	"time"

	"github.com/skilldesk/lms-api/internal/models"
)

// LectureResponse is returned to API clients when listing lectures.
type LectureResponse struct {
	ID            uint      `json:"id"`
	CourseID      uint      `json:"course_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	LectureNumber int       `json:"lecture_number"`
	VideoURL      string    `json:"video_url"`
	DurationMin   int       `json:"duration_min"`
	IsFreePreview bool      `json:"is_free_preview"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewLectureResponse converts a Lecture model into a DTO.
func NewLectureResponse(model models.Lecture) LectureResponse {
	return LectureResponse{
		ID:            model.ID,
		CourseID:      model.CourseID,
		Title:         model.Title,
		Description:   model.Description,
		LectureNumber: model.LectureNumber,
		VideoURL:      model.VideoURL,
		DurationMin:   model.DurationMin,
		IsFreePreview: model.IsFreePreview,
		CreatedAt:     model.CreatedAt,
	}
}

// NewLectureResponseSlice converts lecture models into DTOs.
func NewLectureResponseSlice(lectures []models.Lecture) []LectureResponse {
	responses := make([]LectureResponse, 0, len(lectures))
	for _, lecture := range lectures {
		responses = append(responses, NewLectureResponse(lecture))
	}

	return responses
}

// CourseLecturesResponse pairs the filtered lecture list with the access
// decision that produced it.
type CourseLecturesResponse struct {
	Lectures  []LectureResponse `json:"lectures"`
	HasAccess bool              `json:"has_access"`
	Access    AccessResult      `json:"access"`
}
