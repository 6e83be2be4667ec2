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

// EnrollmentService manages the enrollment lifecycle: creation on enroll
// request, privileged grants, listing, and soft cancellation. Enrollments
// are never hard-deleted; cancellation keeps payment and attempt audit
// rows intact.
type EnrollmentService interface {
	Enroll(ctx context.Context, payload dto.EnrollRequest) (dto.EnrollResult, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
	Cancel(ctx context.Context, enrollmentID uint) error
	AdminGrant(ctx context.Context, payload dto.AdminGrantRequest) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	cache       *AccessCache
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, users repository.UserRepository, cache *AccessCache, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		users:       users,
		cache:       cache,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, payload dto.EnrollRequest) (dto.EnrollResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollResult{}, err
	}

	if _, err := s.users.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollResult{}, ErrUserNotFound
		}
		return dto.EnrollResult{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollResult{}, ErrCourseNotFound
		}
		return dto.EnrollResult{}, err
	}

	// Idempotent: re-enrolling returns the existing row unchanged.
	existing, err := s.enrollments.GetActive(ctx, payload.StudentID, payload.CourseID)
	if err == nil {
		return dto.EnrollResult{
			Enrollment:      dto.NewEnrollmentResponse(existing),
			AlreadyEnrolled: true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollResult{}, err
	}

	enrollment := s.buildEnrollment(course, payload.StudentID)

	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return dto.EnrollResult{}, err
	}

	// Denormalized course set: best-effort sync point, not transactional.
	if err := s.users.AddCourse(ctx, payload.StudentID, payload.CourseID); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", payload.StudentID).Msg("failed to sync student course set")
	}

	s.cache.Invalidate(ctx, payload.StudentID, payload.CourseID)

	created, err := s.enrollments.GetByID(ctx, enrollment.ID)
	if err != nil {
		return dto.EnrollResult{}, err
	}

	s.logger.Info().
		Uint("enrollment_id", created.ID).
		Uint("student_id", payload.StudentID).
		Uint("course_id", payload.CourseID).
		Str("status", created.EnrollmentStatus).
		Msg("enrollment created")

	return dto.EnrollResult{Enrollment: dto.NewEnrollmentResponse(created)}, nil
}

func (s *enrollmentService) buildEnrollment(course models.Course, studentID uint) *models.Enrollment {
	now := s.now()
	enrollment := &models.Enrollment{
		StudentID:  studentID,
		CourseID:   course.ID,
		EnrolledAt: now,
	}

	if course.DurationDays > 0 {
		endDate := now.AddDate(0, 0, course.DurationDays)
		enrollment.EndDate = &endDate
	}

	if course.IsFree() {
		enrollment.IsPaid = true
		enrollment.EnrollmentStatus = models.EnrollmentStatusActive
		enrollment.PaymentMethod = models.PaymentMethodFree
	} else {
		enrollment.EnrollmentStatus = models.EnrollmentStatusPendingPayment
		enrollment.PaymentMethod = ""
	}

	return enrollment
}

func (s *enrollmentService) ListByStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) Cancel(ctx context.Context, enrollmentID uint) error {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	if enrollment.IsDeleted {
		return ErrEnrollmentNotFound
	}

	enrollment.IsDeleted = true
	enrollment.EnrollmentStatus = models.EnrollmentStatusCancelled

	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return err
	}

	if err := s.users.RemoveCourse(ctx, enrollment.StudentID, enrollment.CourseID); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", enrollment.StudentID).Msg("failed to sync student course set")
	}

	s.cache.Invalidate(ctx, enrollment.StudentID, enrollment.CourseID)

	s.logger.Info().Uint("enrollment_id", enrollmentID).Msg("enrollment cancelled")

	return nil
}

func (s *enrollmentService) AdminGrant(ctx context.Context, payload dto.AdminGrantRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	now := s.now()

	enrollment, err := s.enrollments.GetActive(ctx, payload.StudentID, payload.CourseID)
	switch {
	case err == nil:
		enrollment.IsPaid = true
		enrollment.EnrollmentStatus = models.EnrollmentStatusActive
		enrollment.PaymentMethod = models.PaymentMethodAdminGranted
		enrollment.PaymentDate = &now
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return dto.EnrollmentResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		created := s.buildEnrollment(course, payload.StudentID)
		created.IsPaid = true
		created.EnrollmentStatus = models.EnrollmentStatusActive
		created.PaymentMethod = models.PaymentMethodAdminGranted
		created.PaymentDate = &now
		if err := s.enrollments.Create(ctx, created); err != nil {
			return dto.EnrollmentResponse{}, err
		}
		enrollment = *created
	default:
		return dto.EnrollmentResponse{}, err
	}

	if err := s.users.AddCourse(ctx, payload.StudentID, payload.CourseID); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", payload.StudentID).Msg("failed to sync student course set")
	}

	s.cache.Invalidate(ctx, payload.StudentID, payload.CourseID)

	granted, err := s.enrollments.GetByID(ctx, enrollment.ID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().
		Uint("enrollment_id", granted.ID).
		Uint("student_id", payload.StudentID).
		Uint("course_id", payload.CourseID).
		Msg("access granted by admin")

	return dto.NewEnrollmentResponse(granted), nil
}
