package dto

import (
	"time"

	"github.com/skilldesk/lms-api/internal/models"
)

// AnswerSubmission is one answer inside an attempt submission.
type AnswerSubmission struct {
	QuestionID     uint   `json:"question_id" validate:"required,gt=0"`
	SelectedOption string `json:"selected_option" validate:"required"`
}

// SubmitAttemptRequest is the payload for submitting an exam attempt.
type SubmitAttemptRequest struct {
	UserID  uint               `json:"user_id" validate:"required,gt=0"`
	ExamID  uint               `json:"exam_id" validate:"required,gt=0"`
	Answers []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

// CooldownInfo carries the retry-block window after a failed attempt.
type CooldownInfo struct {
	HasCooldown     bool       `json:"has_cooldown"`
	HoursRemaining  *int       `json:"hours_remaining,omitempty"`
	NextAttemptTime *time.Time `json:"next_attempt_time,omitempty"`
	LastAttemptTime *time.Time `json:"last_attempt_time,omitempty"`
}

// AttemptSummary is one row of the attempt history shown with eligibility.
type AttemptSummary struct {
	AttemptNumber int       `json:"attempt_number"`
	Score         int       `json:"score"`
	Passed        bool      `json:"passed"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// EligibilityResponse describes whether a student may submit a new attempt.
type EligibilityResponse struct {
	CanAttempt           bool             `json:"can_attempt"`
	Passed               bool             `json:"passed"`
	AttemptsUsed         int              `json:"attempts_used"`
	AttemptsLeft         int              `json:"attempts_left"`
	TotalAttemptsAllowed int              `json:"total_attempts_allowed"`
	PassingMarks         int              `json:"passing_marks"`
	Attempts             []AttemptSummary `json:"attempts"`
	Cooldown             CooldownInfo     `json:"cooldown_info"`
}

// ExamLite summarizes an exam in attempt responses.
type ExamLite struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	DurationMin int    `json:"duration_min"`
	TotalMarks  int    `json:"total_marks"`
}

// AttemptResultResponse is returned after a graded submission.
type AttemptResultResponse struct {
	AttemptID            uint          `json:"attempt_id"`
	Score                int           `json:"score"`
	TotalMarks           int           `json:"total_marks"`
	PassingMarks         int           `json:"passing_marks"`
	Passed               bool          `json:"passed"`
	Status               string        `json:"status"`
	AttemptNumber        int           `json:"attempt_number"`
	AttemptsLeft         int           `json:"attempts_left"`
	TotalAttemptsAllowed int           `json:"total_attempts_allowed"`
	SubmittedAt          time.Time     `json:"submitted_at"`
	Exam                 ExamLite      `json:"exam"`
	Cooldown             *CooldownInfo `json:"cooldown_info,omitempty"`
}

// AttemptAnswerResponse serializes one graded answer.
type AttemptAnswerResponse struct {
	QuestionID     uint    `json:"question_id"`
	SelectedOption string  `json:"selected_option"`
	CorrectAnswer  *string `json:"correct_answer"`
	Marks          int     `json:"marks"`
}

// AttemptResponse is returned when listing attempt history.
type AttemptResponse struct {
	ID            uint                    `json:"id"`
	UserID        uint                    `json:"user_id"`
	ExamID        uint                    `json:"exam_id"`
	Score         int                     `json:"score"`
	Passed        bool                    `json:"passed"`
	AttemptNumber int                     `json:"attempt_number"`
	SubmittedAt   time.Time               `json:"submitted_at"`
	CanRetryAfter *time.Time              `json:"can_retry_after,omitempty"`
	Answers       []AttemptAnswerResponse `json:"answers"`
	Exam          *ExamLite               `json:"exam,omitempty"`
	User          *UserLite               `json:"user,omitempty"`
}

// NewExamLite converts an Exam model into its summary form.
func NewExamLite(model models.Exam) ExamLite {
	return ExamLite{
		ID:          model.ID,
		Title:       model.Title,
		DurationMin: model.DurationMin,
		TotalMarks:  model.TotalMarks,
	}
}

// NewAttemptResponse converts an Attempt model into a DTO.
func NewAttemptResponse(model models.Attempt) AttemptResponse {
	answers := make([]AttemptAnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, AttemptAnswerResponse{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			CorrectAnswer:  answer.CorrectAnswer,
			Marks:          answer.Marks,
		})
	}

	response := AttemptResponse{
		ID:            model.ID,
		UserID:        model.UserID,
		ExamID:        model.ExamID,
		Score:         model.Score,
		Passed:        model.Passed,
		AttemptNumber: model.AttemptNumber,
		SubmittedAt:   model.SubmittedAt,
		CanRetryAfter: model.CanRetryAfter,
		Answers:       answers,
	}

	if model.Exam.ID != 0 {
		exam := NewExamLite(model.Exam)
		response.Exam = &exam
	}

	if model.User.ID != 0 {
		user := NewUserLite(model.User)
		response.User = &user
	}

	return response
}

// NewAttemptResponseSlice converts attempt models into DTOs.
func NewAttemptResponseSlice(attempts []models.Attempt) []AttemptResponse {
	responses := make([]AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, NewAttemptResponse(attempt))
	}

	return responses
}
