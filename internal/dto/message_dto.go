package dto

import (
	"time"

	"github.com/skilldesk/lms-api/internal/models"
)

// SendMessageRequest is the payload for sending a direct message.
type SendMessageRequest struct {
	To   uint   `json:"to" validate:"required,gt=0"`
	Text string `json:"text" validate:"required,min=1,max=4000"`
}

// MessageResponse is returned to API clients when viewing messages.
type MessageResponse struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Sender    UserLite  `json:"sender"`
	Receiver  UserLite  `json:"receiver"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessageResponse converts a Message model into a DTO.
func NewMessageResponse(model models.Message) MessageResponse {
	response := MessageResponse{
		ID:        model.ID,
		Text:      model.Text,
		CreatedAt: model.CreatedAt,
	}

	if model.Sender.ID != 0 {
		response.Sender = NewUserLite(model.Sender)
	}

	if model.Receiver.ID != 0 {
		response.Receiver = NewUserLite(model.Receiver)
	}

	return response
}

// NewMessageResponseSlice converts message models into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, NewMessageResponse(message))
	}

	return responses
}
