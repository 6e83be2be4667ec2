package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/config"
	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/handler"
	"github.com/skilldesk/lms-api/internal/models"
	"github.com/skilldesk/lms-api/internal/repository"
	"github.com/skilldesk/lms-api/internal/router"
	"github.com/skilldesk/lms-api/internal/service"
)

func setupAttemptApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Exam{}, &models.Question{}, &models.Attempt{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	attemptRepo := repository.NewAttemptRepository(db)
	examRepo := repository.NewExamRepository(db)

	attemptService := service.NewAttemptService(attemptRepo, examRepo, validate, logger)
	attemptHandler := handler.NewAttemptHandler(attemptService, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", SubmitRateLimit: 1000}, router.Dependencies{
		AttemptHandler: attemptHandler,
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(7))
			c.Locals("user_role", models.RoleAdmin)
			return c.Next()
		},
	})

	return app, db
}

func seedExam(t *testing.T, db *gorm.DB) {
	t.Helper()

	passing := 6
	exam := models.Exam{
		ID:           1,
		Title:        "Algebra Basics",
		DurationMin:  30,
		TotalMarks:   10,
		PassingMarks: &passing,
		MaxAttempts:  3,
	}
	require.NoError(t, db.Create(&exam).Error)

	questions := []models.Question{
		{ID: 1, ExamID: 1, QuestionText: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Marks: 5},
		{ID: 2, ExamID: 1, QuestionText: "3*3?", Options: []string{"6", "9"}, CorrectAnswer: "9", Marks: 5},
	}
	for i := range questions {
		require.NoError(t, db.Create(&questions[i]).Error)
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestSubmitAttemptEndpointPass(t *testing.T) {
	app, db := setupAttemptApp(t)
	seedExam(t, db)

	resp := postJSON(t, app, "/api/v1/attempts", dto.SubmitAttemptRequest{
		UserID: 7,
		ExamID: 1,
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, SelectedOption: "4"},
			{QuestionID: 2, SelectedOption: "9"},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)

	var result dto.AttemptResultResponse
	require.NoError(t, json.Unmarshal(payload.Data, &result))
	require.Equal(t, 10, result.Score)
	require.True(t, result.Passed)
	require.Equal(t, "PASS", result.Status)
	require.Equal(t, 1, result.AttemptNumber)
}

func TestSubmitAttemptEndpointCooldownRejection(t *testing.T) {
	app, db := setupAttemptApp(t)
	seedExam(t, db)

	failing := dto.SubmitAttemptRequest{
		UserID: 7,
		ExamID: 1,
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, SelectedOption: "3"},
			{QuestionID: 2, SelectedOption: "6"},
		},
	}

	resp := postJSON(t, app, "/api/v1/attempts", failing)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	first := decodeEnvelope(t, resp)
	var firstResult dto.AttemptResultResponse
	require.NoError(t, json.Unmarshal(first.Data, &firstResult))
	require.False(t, firstResult.Passed)
	require.NotNil(t, firstResult.Cooldown)

	// An immediate retry is inside the cooldown window.
	resp = postJSON(t, app, "/api/v1/attempts", failing)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	rejection := decodeEnvelope(t, resp)
	require.False(t, rejection.Success)

	var detail struct {
		Reason       string            `json:"reason"`
		AttemptsLeft int               `json:"attempts_left"`
		Cooldown     *dto.CooldownInfo `json:"cooldown_info"`
	}
	require.NoError(t, json.Unmarshal(rejection.Data, &detail))
	require.Equal(t, "cooldown_active", detail.Reason)
	require.Equal(t, 2, detail.AttemptsLeft)
	require.NotNil(t, detail.Cooldown)
	require.True(t, detail.Cooldown.HasCooldown)
}

func TestSubmitAttemptEndpointAlreadyPassed(t *testing.T) {
	app, db := setupAttemptApp(t)
	seedExam(t, db)

	passing := dto.SubmitAttemptRequest{
		UserID: 7,
		ExamID: 1,
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, SelectedOption: "4"},
			{QuestionID: 2, SelectedOption: "9"},
		},
	}

	resp := postJSON(t, app, "/api/v1/attempts", passing)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/attempts", passing)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	rejection := decodeEnvelope(t, resp)
	var detail struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rejection.Data, &detail))
	require.Equal(t, "already_passed", detail.Reason)
}

func TestSubmitAttemptEndpointUnknownExam(t *testing.T) {
	app, db := setupAttemptApp(t)
	seedExam(t, db)

	resp := postJSON(t, app, "/api/v1/attempts", dto.SubmitAttemptRequest{
		UserID:  7,
		ExamID:  42,
		Answers: []dto.AnswerSubmission{{QuestionID: 1, SelectedOption: "4"}},
	})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmitAttemptEndpointValidation(t *testing.T) {
	app, db := setupAttemptApp(t)
	seedExam(t, db)

	resp := postJSON(t, app, "/api/v1/attempts", dto.SubmitAttemptRequest{UserID: 7, ExamID: 1})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExamStatusEndpoint(t *testing.T) {
	app, db := setupAttemptApp(t)
	seedExam(t, db)

	resp := getJSON(t, app, "/api/v1/exams/1/status/7")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	var eligibility dto.EligibilityResponse
	require.NoError(t, json.Unmarshal(payload.Data, &eligibility))
	require.True(t, eligibility.CanAttempt)
	require.Equal(t, 3, eligibility.AttemptsLeft)
	require.Equal(t, 6, eligibility.PassingMarks)

	// After a failed attempt the status reflects the cooldown.
	resp = postJSON(t, app, "/api/v1/attempts", dto.SubmitAttemptRequest{
		UserID: 7,
		ExamID: 1,
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, SelectedOption: "3"},
			{QuestionID: 2, SelectedOption: "6"},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = getJSON(t, app, "/api/v1/exams/1/status/7")
	payload = decodeEnvelope(t, resp)
	require.NoError(t, json.Unmarshal(payload.Data, &eligibility))
	require.False(t, eligibility.CanAttempt)
	require.Equal(t, 1, eligibility.AttemptsUsed)
	require.True(t, eligibility.Cooldown.HasCooldown)
	require.Len(t, eligibility.Attempts, 1)
}

func TestAttemptListEndpoints(t *testing.T) {
	app, db := setupAttemptApp(t)
	seedExam(t, db)

	resp := postJSON(t, app, "/api/v1/attempts", dto.SubmitAttemptRequest{
		UserID: 7,
		ExamID: 1,
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, SelectedOption: "4"},
			{QuestionID: 2, SelectedOption: "9"},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = getJSON(t, app, "/api/v1/attempts/user/7")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	var attempts []dto.AttemptResponse
	require.NoError(t, json.Unmarshal(payload.Data, &attempts))
	require.Len(t, attempts, 1)
	require.NotNil(t, attempts[0].Exam)

	resp = getJSON(t, app, "/api/v1/admin/attempts/exam/1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload = decodeEnvelope(t, resp)
	require.NoError(t, json.Unmarshal(payload.Data, &attempts))
	require.Len(t, attempts, 1)
}
