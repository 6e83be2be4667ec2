package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/models"
	"github.com/skilldesk/lms-api/internal/repository"
)

// ProgressService tracks completed lectures per (student, course).
type ProgressService interface {
	TrackLecture(ctx context.Context, payload dto.TrackLectureRequest) (dto.ProgressResponse, error)
	GetProgress(ctx context.Context, studentID, courseID uint) (dto.ProgressResponse, error)
}

type progressService struct {
	progress  repository.ProgressRepository
	lectures  repository.LectureRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewProgressService constructs a ProgressService instance.
func NewProgressService(progress repository.ProgressRepository, lectures repository.LectureRepository, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	return &progressService{
		progress:  progress,
		lectures:  lectures,
		validator: validate,
		logger:    logger.With().Str("component", "progress_service").Logger(),
		now:       time.Now,
	}
}

func (s *progressService) TrackLecture(ctx context.Context, payload dto.TrackLectureRequest) (dto.ProgressResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProgressResponse{}, err
	}

	lecture, err := s.lectures.GetByID(ctx, payload.LectureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressResponse{}, ErrLectureNotFound
		}
		return dto.ProgressResponse{}, err
	}

	if lecture.CourseID != payload.CourseID || !lecture.IsVisible() {
		return dto.ProgressResponse{}, ErrLectureNotFound
	}

	record, err := s.progress.GetByStudentAndCourse(ctx, payload.StudentID, payload.CourseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.Progress{StudentID: payload.StudentID, CourseID: payload.CourseID}
		if err := s.progress.Create(ctx, &record); err != nil {
			// Concurrent first-track for the pair: fall back to the winner's row.
			if !isDuplicateKey(err) {
				return dto.ProgressResponse{}, err
			}
			record, err = s.progress.GetByStudentAndCourse(ctx, payload.StudentID, payload.CourseID)
			if err != nil {
				return dto.ProgressResponse{}, err
			}
		}
	} else if err != nil {
		return dto.ProgressResponse{}, err
	}

	entry := models.ProgressLecture{
		ProgressID:  record.ID,
		LectureID:   payload.LectureID,
		CompletedAt: s.now(),
	}

	if err := s.progress.AddLecture(ctx, &entry); err != nil {
		return dto.ProgressResponse{}, err
	}

	updated, err := s.progress.GetByStudentAndCourse(ctx, payload.StudentID, payload.CourseID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	return dto.NewProgressResponse(updated), nil
}

func (s *progressService) GetProgress(ctx context.Context, studentID, courseID uint) (dto.ProgressResponse, error) {
	record, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No progress yet is a normal empty result.
			return dto.ProgressResponse{StudentID: studentID, CourseID: courseID, CompletedLectures: []dto.CompletedLecture{}}, nil
		}
		return dto.ProgressResponse{}, err
	}

	return dto.NewProgressResponse(record), nil
}
