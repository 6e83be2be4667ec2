package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/models"
	"github.com/skilldesk/lms-api/internal/repository"
)

// AttemptCooldown is how long a student must wait after a failed attempt
// before retrying. Fixed for all exams; candidate for per-exam
// configuration if the product ever needs it.
const AttemptCooldown = 24 * time.Hour

// AttemptService gates, scores, and records exam attempts. The per
// (student, exam) history moves through NoAttempts → InProgress →
// Passed | Exhausted; the two terminal states reject submissions forever.
// Eligibility checks are pure reads, only SubmitAttempt transitions state.
type AttemptService interface {
	CheckEligibility(ctx context.Context, studentID, examID uint) (dto.EligibilityResponse, error)
	SubmitAttempt(ctx context.Context, payload dto.SubmitAttemptRequest) (dto.AttemptResultResponse, error)
	ListByUser(ctx context.Context, userID uint) ([]dto.AttemptResponse, error)
	ListByExam(ctx context.Context, examID uint) ([]dto.AttemptResponse, error)
}

type attemptService struct {
	attempts  repository.AttemptRepository
	exams     repository.ExamRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAttemptService constructs an AttemptService instance.
func NewAttemptService(attempts repository.AttemptRepository, exams repository.ExamRepository, validate *validator.Validate, logger zerolog.Logger) AttemptService {
	return &attemptService{
		attempts:  attempts,
		exams:     exams,
		validator: validate,
		logger:    logger.With().Str("component", "attempt_service").Logger(),
		tracer:    otel.Tracer("github.com/skilldesk/lms-api/internal/service/attempt"),
		now:       time.Now,
	}
}

// eligibility is the internal outcome of evaluating the attempt history
// against the exam's limits at one point in time.
type eligibility struct {
	canAttempt   bool
	passed       bool
	attemptsUsed int
	attemptsLeft int
	maxAttempts  int
	cooldown     dto.CooldownInfo
	rejection    *EligibilityError
}

// evaluate applies the gating rules to a newest-first attempt history.
// Both CheckEligibility and SubmitAttempt go through this one function so
// the two paths can never diverge.
func (s *attemptService) evaluate(exam models.Exam, prior []models.Attempt, now time.Time) eligibility {
	result := eligibility{
		maxAttempts:  exam.AttemptLimit(),
		attemptsUsed: len(prior),
	}

	for _, attempt := range prior {
		if attempt.Passed {
			result.passed = true
			break
		}
	}

	if len(prior) > 0 {
		last := prior[0].SubmittedAt
		result.cooldown.LastAttemptTime = &last
	}

	switch {
	case result.passed:
		// Terminal: a passed exam can never be retaken.
		result.attemptsLeft = 0
		result.rejection = newEligibilityError(RejectAlreadyPassed, "You have already passed this exam.")
		return result
	case result.attemptsUsed >= result.maxAttempts:
		// Terminal: exhausted attempts trump cooldown.
		result.attemptsLeft = 0
		result.rejection = newEligibilityError(RejectAttemptsExhausted, "You have used all %d attempts.", result.maxAttempts)
		return result
	}

	result.attemptsLeft = result.maxAttempts - result.attemptsUsed

	if len(prior) > 0 {
		last := prior[0]
		elapsed := now.Sub(last.SubmittedAt)
		if !last.Passed && elapsed < AttemptCooldown {
			hoursLeft := int(math.Ceil((AttemptCooldown - elapsed).Hours()))
			nextTime := last.SubmittedAt.Add(AttemptCooldown)

			result.cooldown.HasCooldown = true
			result.cooldown.HoursRemaining = &hoursLeft
			result.cooldown.NextAttemptTime = &nextTime

			rejection := newEligibilityError(RejectCooldownActive,
				"You must wait %d hour(s) before attempting again after a failed attempt.", hoursLeft)
			rejection.AttemptsLeft = result.attemptsLeft
			cooldown := result.cooldown
			rejection.Cooldown = &cooldown
			result.rejection = rejection
			return result
		}
	}

	result.canAttempt = true
	return result
}

func (s *attemptService) CheckEligibility(ctx context.Context, studentID, examID uint) (dto.EligibilityResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EligibilityResponse{}, ErrExamNotFound
		}
		return dto.EligibilityResponse{}, err
	}

	prior, err := s.attempts.ListByUserAndExam(ctx, studentID, examID)
	if err != nil {
		return dto.EligibilityResponse{}, err
	}

	state := s.evaluate(exam, prior, s.now())

	history := make([]dto.AttemptSummary, 0, len(prior))
	for _, attempt := range prior {
		history = append(history, dto.AttemptSummary{
			AttemptNumber: attempt.AttemptNumber,
			Score:         attempt.Score,
			Passed:        attempt.Passed,
			SubmittedAt:   attempt.SubmittedAt,
		})
	}

	return dto.EligibilityResponse{
		CanAttempt:           state.canAttempt,
		Passed:               state.passed,
		AttemptsUsed:         state.attemptsUsed,
		AttemptsLeft:         state.attemptsLeft,
		TotalAttemptsAllowed: state.maxAttempts,
		PassingMarks:         exam.EffectivePassingMarks(),
		Attempts:             history,
		Cooldown:             state.cooldown,
	}, nil
}

func (s *attemptService) SubmitAttempt(ctx context.Context, payload dto.SubmitAttemptRequest) (dto.AttemptResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attempt.submit", trace.WithAttributes(
		attribute.Int("user.id", int(payload.UserID)),
		attribute.Int("exam.id", int(payload.ExamID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AttemptResultResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, payload.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResultResponse{}, ErrExamNotFound
		}
		return dto.AttemptResultResponse{}, err
	}

	questions, err := s.exams.ListQuestions(ctx, payload.ExamID)
	if err != nil {
		return dto.AttemptResultResponse{}, err
	}

	now := s.now()
	answers, score := scoreAnswers(questions, payload.Answers)
	passingMarks := exam.EffectivePassingMarks()
	passed := score >= passingMarks

	attempt := models.Attempt{
		UserID:      payload.UserID,
		ExamID:      payload.ExamID,
		Answers:     answers,
		Score:       score,
		Passed:      passed,
		SubmittedAt: now,
	}

	if !passed {
		retryAfter := now.Add(AttemptCooldown)
		attempt.CanRetryAfter = &retryAfter
	}

	// Eligibility is re-checked inside the insert transaction against the
	// locked history; a client's stale eligibility read is never trusted.
	guard := func(prior []models.Attempt) error {
		if state := s.evaluate(exam, prior, now); state.rejection != nil {
			return state.rejection
		}
		return nil
	}

	err = s.attempts.CreateGuarded(ctx, &attempt, guard)
	if isDuplicateKey(err) {
		// Lost a race on the attempt-number index: retry once with a
		// fresh eligibility pass, then give up.
		attempt.ID = 0
		err = s.attempts.CreateGuarded(ctx, &attempt, guard)
		if isDuplicateKey(err) {
			err = ErrConflict
		}
	}
	if err != nil {
		return dto.AttemptResultResponse{}, err
	}

	maxAttempts := exam.AttemptLimit()
	attemptsLeft := 0
	if !passed {
		attemptsLeft = maxAttempts - attempt.AttemptNumber
		if attemptsLeft < 0 {
			attemptsLeft = 0
		}
	}

	span.SetAttributes(
		attribute.Int("attempt.score", score),
		attribute.Bool("attempt.passed", passed),
		attribute.Int("attempt.number", attempt.AttemptNumber),
	)

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Uint("user_id", payload.UserID).
		Uint("exam_id", payload.ExamID).
		Int("score", score).
		Int("passing_marks", passingMarks).
		Bool("passed", passed).
		Int("attempt_number", attempt.AttemptNumber).
		Msg("attempt submitted")

	result := dto.AttemptResultResponse{
		AttemptID:            attempt.ID,
		Score:                score,
		TotalMarks:           exam.TotalMarks,
		PassingMarks:         passingMarks,
		Passed:               passed,
		Status:               passStatus(passed),
		AttemptNumber:        attempt.AttemptNumber,
		AttemptsLeft:         attemptsLeft,
		TotalAttemptsAllowed: maxAttempts,
		SubmittedAt:          attempt.SubmittedAt,
		Exam:                 dto.NewExamLite(exam),
	}

	if !passed {
		hours := int(AttemptCooldown.Hours())
		result.Cooldown = &dto.CooldownInfo{
			HasCooldown:     true,
			HoursRemaining:  &hours,
			NextAttemptTime: attempt.CanRetryAfter,
			LastAttemptTime: &attempt.SubmittedAt,
		}
	}

	return result, nil
}

// scoreAnswers grades each submitted answer against the exam's question
// set. An answer referencing a question outside the exam earns zero marks
// with a nil echoed correct answer; it never aborts the submission.
func scoreAnswers(questions []models.Question, submitted []dto.AnswerSubmission) ([]models.AttemptAnswer, int) {
	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	answers := make([]models.AttemptAnswer, 0, len(submitted))
	total := 0

	for _, answer := range submitted {
		question, ok := byID[answer.QuestionID]
		if !ok {
			answers = append(answers, models.AttemptAnswer{
				QuestionID:     answer.QuestionID,
				SelectedOption: answer.SelectedOption,
			})
			continue
		}

		marks := 0
		if answer.SelectedOption == question.CorrectAnswer {
			marks = question.MarkValue()
		}
		total += marks

		correct := question.CorrectAnswer
		answers = append(answers, models.AttemptAnswer{
			QuestionID:     question.ID,
			SelectedOption: answer.SelectedOption,
			CorrectAnswer:  &correct,
			Marks:          marks,
		})
	}

	return answers, total
}

func passStatus(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func (s *attemptService) ListByUser(ctx context.Context, userID uint) ([]dto.AttemptResponse, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewAttemptResponseSlice(attempts), nil
}

func (s *attemptService) ListByExam(ctx context.Context, examID uint) ([]dto.AttemptResponse, error) {
	attempts, err := s.attempts.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewAttemptResponseSlice(attempts), nil
}
