package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/models"
	"github.com/skilldesk/lms-api/internal/repository"
)

// PaymentService records completed payment outcomes and exposes payment
// history. It does not talk to any gateway: the caller reports the result
// and this service applies it to the enrollment and writes the immutable
// payment row.
type PaymentService interface {
	Apply(ctx context.Context, payload dto.PaymentProcessRequest) (dto.PaymentApplicationResult, error)
	Status(ctx context.Context, studentID, courseID uint) (dto.AccessResult, error)
	HistoryByStudent(ctx context.Context, studentID uint) ([]dto.PaymentResponse, error)
	AdminDashboard(ctx context.Context) (dto.AdminPaymentsResponse, error)
}

type paymentService struct {
	payments    repository.PaymentRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	access      AccessService
	cache       *AccessCache
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(payments repository.PaymentRepository, enrollments repository.EnrollmentRepository, courses repository.CourseRepository, access AccessService, cache *AccessCache, validate *validator.Validate, logger zerolog.Logger) PaymentService {
	return &paymentService{
		payments:    payments,
		enrollments: enrollments,
		courses:     courses,
		access:      access,
		cache:       cache,
		validator:   validate,
		logger:      logger.With().Str("component", "payment_service").Logger(),
		now:         time.Now,
	}
}

func (s *paymentService) Apply(ctx context.Context, payload dto.PaymentProcessRequest) (dto.PaymentApplicationResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PaymentApplicationResult{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PaymentApplicationResult{}, ErrCourseNotFound
		}
		return dto.PaymentApplicationResult{}, err
	}

	enrollment, err := s.enrollments.GetActive(ctx, payload.StudentID, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PaymentApplicationResult{}, ErrEnrollFirst
		}
		return dto.PaymentApplicationResult{}, err
	}

	method := payload.PaymentMethod
	if method == "" {
		method = "card"
	}

	now := s.now()

	// Free courses unlock without a payment row.
	if course.IsFree() {
		enrollment.IsPaid = true
		enrollment.EnrollmentStatus = models.EnrollmentStatusActive
		enrollment.PaymentMethod = models.PaymentMethodFree
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return dto.PaymentApplicationResult{}, err
		}

		s.cache.Invalidate(ctx, payload.StudentID, payload.CourseID)

		return dto.PaymentApplicationResult{
			FreeCourse: true,
			Enrollment: dto.NewEnrollmentResponse(enrollment),
		}, nil
	}

	externalID := payload.PaymentID
	if externalID == "" {
		externalID = fmt.Sprintf("PAY_%s", uuid.NewString())
	}

	// Idempotency: a retry with a known external id returns the existing
	// row instead of charging the enrollment twice.
	if existing, err := s.payments.GetByExternalID(ctx, externalID); err == nil {
		response := dto.NewPaymentResponse(existing)
		return dto.PaymentApplicationResult{
			Duplicate:  true,
			Payment:    &response,
			Enrollment: dto.NewEnrollmentResponse(enrollment),
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.PaymentApplicationResult{}, err
	}

	enrollment.IsPaid = true
	enrollment.EnrollmentStatus = models.EnrollmentStatusActive
	enrollment.PaymentDate = &now
	enrollment.PaymentMethod = method
	enrollment.PaymentID = externalID
	enrollment.AmountPaid = course.Price

	payment := models.Payment{
		StudentID:    payload.StudentID,
		CourseID:     payload.CourseID,
		EnrollmentID: enrollment.ID,
		Amount:       course.Price,
		Method:       method,
		ExternalID:   externalID,
		Status:       models.PaymentStatusCompleted,
	}

	// One transaction: an enrollment must never read as paid without its
	// payment row.
	if err := s.payments.ApplyCompleted(ctx, &enrollment, &payment); err != nil {
		if isDuplicateKey(err) {
			// Concurrent retry with the same external id won the race.
			if existing, lookupErr := s.payments.GetByExternalID(ctx, externalID); lookupErr == nil {
				response := dto.NewPaymentResponse(existing)
				return dto.PaymentApplicationResult{
					Duplicate:  true,
					Payment:    &response,
					Enrollment: dto.NewEnrollmentResponse(enrollment),
				}, nil
			}
		}
		return dto.PaymentApplicationResult{}, err
	}

	s.cache.Invalidate(ctx, payload.StudentID, payload.CourseID)

	s.logger.Info().
		Uint("payment_id", payment.ID).
		Uint("student_id", payload.StudentID).
		Uint("course_id", payload.CourseID).
		Float64("amount", payment.Amount).
		Msg("payment applied")

	response := dto.NewPaymentResponse(payment)

	return dto.PaymentApplicationResult{
		Payment:    &response,
		Enrollment: dto.NewEnrollmentResponse(enrollment),
	}, nil
}

func (s *paymentService) Status(ctx context.Context, studentID, courseID uint) (dto.AccessResult, error) {
	return s.access.ResolveAccess(ctx, studentID, courseID)
}

func (s *paymentService) HistoryByStudent(ctx context.Context, studentID uint) ([]dto.PaymentResponse, error) {
	payments, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewPaymentResponseSlice(payments), nil
}

func (s *paymentService) AdminDashboard(ctx context.Context) (dto.AdminPaymentsResponse, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return dto.AdminPaymentsResponse{}, err
	}

	stats := dto.PaymentStats{TotalPayments: len(payments)}
	for _, payment := range payments {
		switch payment.Status {
		case models.PaymentStatusCompleted:
			stats.CompletedPayments++
			stats.TotalRevenue += payment.Amount
		case models.PaymentStatusPending:
			stats.PendingPayments++
		}
	}

	return dto.AdminPaymentsResponse{
		Stats:    stats,
		Payments: dto.NewPaymentResponseSlice(payments),
	}, nil
}
