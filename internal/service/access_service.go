package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/repository"
)

// AccessService resolves whether a student may view a course's content.
// It reconciles course price, enrollment state, and payment state into a
// single access decision; the lecture listing applies that decision
// server-side so clients can never widen their own access.
type AccessService interface {
	ResolveAccess(ctx context.Context, studentID, courseID uint) (dto.AccessResult, error)
	ListLectures(ctx context.Context, studentID, courseID uint) (dto.CourseLecturesResponse, error)
}

type accessService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	lectures    repository.LectureRepository
	cache       *AccessCache
	logger      zerolog.Logger
}

// NewAccessService constructs an AccessService instance.
func NewAccessService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, lectures repository.LectureRepository, cache *AccessCache, logger zerolog.Logger) AccessService {
	return &accessService{
		courses:     courses,
		enrollments: enrollments,
		lectures:    lectures,
		cache:       cache,
		logger:      logger.With().Str("component", "access_service").Logger(),
	}
}

func (s *accessService) ResolveAccess(ctx context.Context, studentID, courseID uint) (dto.AccessResult, error) {
	if cached, ok := s.cache.Get(ctx, studentID, courseID); ok {
		return cached, nil
	}

	result, err := s.resolve(ctx, studentID, courseID)
	if err != nil {
		return dto.AccessResult{}, err
	}

	s.cache.Set(ctx, studentID, courseID, result)

	return result, nil
}

func (s *accessService) resolve(ctx context.Context, studentID, courseID uint) (dto.AccessResult, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AccessResult{}, ErrCourseNotFound
		}
		return dto.AccessResult{}, err
	}

	result := dto.AccessResult{
		IsFreeCourse: course.IsFree(),
		CoursePrice:  course.Price,
	}

	// A free course has no payment gate at all; enrollment is informational.
	if result.IsFreeCourse {
		result.IsPaid = true
		result.HasAccess = true
	}

	enrollment, err := s.enrollments.GetActive(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Not enrolled is a normal negative result, never an error.
			return result, nil
		}
		return dto.AccessResult{}, err
	}

	result.IsEnrolled = true
	if !result.IsFreeCourse {
		result.IsPaid = enrollment.IsPaid
		result.HasAccess = enrollment.IsPaid
	}

	return result, nil
}

func (s *accessService) ListLectures(ctx context.Context, studentID, courseID uint) (dto.CourseLecturesResponse, error) {
	access, err := s.ResolveAccess(ctx, studentID, courseID)
	if err != nil {
		return dto.CourseLecturesResponse{}, err
	}

	lectures, err := s.lectures.ListByCourse(ctx, courseID, !access.HasAccess)
	if err != nil {
		return dto.CourseLecturesResponse{}, err
	}

	return dto.CourseLecturesResponse{
		Lectures:  dto.NewLectureResponseSlice(lectures),
		HasAccess: access.HasAccess,
		Access:    access,
	}, nil
}
