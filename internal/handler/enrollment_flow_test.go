package handler_test

import (
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

func setupEnrollmentApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.UserCourse{}, &models.Course{}, &models.Lecture{},
		&models.Enrollment{}, &models.Payment{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	courseRepo := repository.NewCourseRepository(db)
	lectureRepo := repository.NewLectureRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)

	accessService := service.NewAccessService(courseRepo, enrollmentRepo, lectureRepo, nil, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, nil, validate, logger)
	paymentService := service.NewPaymentService(paymentRepo, enrollmentRepo, courseRepo, accessService, nil, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		AccessHandler:     handler.NewAccessHandler(accessService, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, logger),
		PaymentHandler:    handler.NewPaymentHandler(paymentService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(7))
			c.Locals("user_role", models.RoleAdmin)
			return c.Next()
		},
	})

	return app, db
}

func seedCourseCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	student := models.User{ID: 7, FullName: "Asha Rao", Email: "asha@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)

	priced := models.Course{ID: 1, Title: "Go for Backend", Price: 499, DurationDays: 180}
	free := models.Course{ID: 2, Title: "Intro to Git", Price: 0}
	require.NoError(t, db.Create(&priced).Error)
	require.NoError(t, db.Create(&free).Error)

	lectures := []models.Lecture{
		{ID: 1, CourseID: 1, Title: "Welcome", LectureNumber: 1, IsFreePreview: true, Status: models.LectureStatusActive},
		{ID: 2, CourseID: 1, Title: "HTTP servers", LectureNumber: 2, Status: models.LectureStatusActive},
		{ID: 3, CourseID: 1, Title: "Databases", LectureNumber: 3, Status: models.LectureStatusActive},
	}
	for i := range lectures {
		require.NoError(t, db.Create(&lectures[i]).Error)
	}
}

func TestEnrollPayAndUnlockFlow(t *testing.T) {
	app, db := setupEnrollmentApp(t)
	seedCourseCatalog(t, db)

	// Enroll into the priced course.
	resp := postJSON(t, app, "/api/v1/enrollments/enroll", dto.EnrollRequest{StudentID: 7, CourseID: 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	var enrollResult dto.EnrollResult
	require.NoError(t, json.Unmarshal(payload.Data, &enrollResult))
	require.Equal(t, models.EnrollmentStatusPendingPayment, enrollResult.Enrollment.EnrollmentStatus)

	// Re-enrolling is idempotent and reported as such.
	resp = postJSON(t, app, "/api/v1/enrollments/enroll", dto.EnrollRequest{StudentID: 7, CourseID: 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload = decodeEnvelope(t, resp)
	require.NoError(t, json.Unmarshal(payload.Data, &enrollResult))
	require.True(t, enrollResult.AlreadyEnrolled)

	// Before paying only free-preview lectures are listed.
	resp = getJSON(t, app, "/api/v1/courses/1/lectures?student_id=7")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload = decodeEnvelope(t, resp)

	var lectureList dto.CourseLecturesResponse
	require.NoError(t, json.Unmarshal(payload.Data, &lectureList))
	require.False(t, lectureList.HasAccess)
	require.Len(t, lectureList.Lectures, 1)
	require.Equal(t, "Welcome", lectureList.Lectures[0].Title)

	// Record the payment.
	resp = postJSON(t, app, "/api/v1/payments/process", dto.PaymentProcessRequest{
		StudentID: 7, CourseID: 1, PaymentMethod: "upi", PaymentID: "PAY_flow",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload = decodeEnvelope(t, resp)

	var paymentResult dto.PaymentApplicationResult
	require.NoError(t, json.Unmarshal(payload.Data, &paymentResult))
	require.True(t, paymentResult.Enrollment.IsPaid)
	require.NotNil(t, paymentResult.Payment)

	// Full lecture list after payment.
	resp = getJSON(t, app, "/api/v1/courses/1/lectures?student_id=7")
	payload = decodeEnvelope(t, resp)
	require.NoError(t, json.Unmarshal(payload.Data, &lectureList))
	require.True(t, lectureList.HasAccess)
	require.Len(t, lectureList.Lectures, 3)

	// Payment status mirrors the access decision.
	resp = getJSON(t, app, "/api/v1/payments/status/1?student_id=7")
	payload = decodeEnvelope(t, resp)

	var access dto.AccessResult
	require.NoError(t, json.Unmarshal(payload.Data, &access))
	require.True(t, access.HasAccess)
	require.True(t, access.IsPaid)

	// History shows the single payment.
	resp = getJSON(t, app, "/api/v1/payments/history/7")
	payload = decodeEnvelope(t, resp)

	var history []dto.PaymentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &history))
	require.Len(t, history, 1)
	require.Equal(t, "PAY_flow", history[0].ExternalID)
}

func TestPaymentWithoutEnrollmentConflict(t *testing.T) {
	app, db := setupEnrollmentApp(t)
	seedCourseCatalog(t, db)

	resp := postJSON(t, app, "/api/v1/payments/process", dto.PaymentProcessRequest{StudentID: 7, CourseID: 1})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.False(t, payload.Success)
	require.Contains(t, payload.Message, "enroll first")
}

func TestFreeCourseAccessWithoutPayment(t *testing.T) {
	app, db := setupEnrollmentApp(t)
	seedCourseCatalog(t, db)

	resp := getJSON(t, app, "/api/v1/courses/2/access?student_id=7")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	var access dto.AccessResult
	require.NoError(t, json.Unmarshal(payload.Data, &access))
	require.True(t, access.IsFreeCourse)
	require.True(t, access.HasAccess)
	require.False(t, access.IsEnrolled)
}

func TestAdminGrantEndpoint(t *testing.T) {
	app, db := setupEnrollmentApp(t)
	seedCourseCatalog(t, db)

	resp := postJSON(t, app, "/api/v1/admin/enrollments/grant", dto.AdminGrantRequest{StudentID: 7, CourseID: 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	var enrollment dto.EnrollmentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &enrollment))
	require.True(t, enrollment.IsPaid)
	require.Equal(t, models.PaymentMethodAdminGranted, enrollment.PaymentMethod)

	// Granted access shows the full lecture list without any payment row.
	resp = getJSON(t, app, "/api/v1/courses/1/lectures?student_id=7")
	payload = decodeEnvelope(t, resp)

	var lectureList dto.CourseLecturesResponse
	require.NoError(t, json.Unmarshal(payload.Data, &lectureList))
	require.True(t, lectureList.HasAccess)
	require.Len(t, lectureList.Lectures, 3)

	// No payment row exists, so admin revenue stays untouched.
	resp = getJSON(t, app, "/api/v1/admin/payments")
	payload = decodeEnvelope(t, resp)

	var dashboard dto.AdminPaymentsResponse
	require.NoError(t, json.Unmarshal(payload.Data, &dashboard))
	require.Equal(t, 0, dashboard.Stats.TotalPayments)
	require.Equal(t, float64(0), dashboard.Stats.TotalRevenue)
}

func TestCancelEnrollmentEndpoint(t *testing.T) {
	app, db := setupEnrollmentApp(t)
	seedCourseCatalog(t, db)

	resp := postJSON(t, app, "/api/v1/enrollments/enroll", dto.EnrollRequest{StudentID: 7, CourseID: 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	var enrollResult dto.EnrollResult
	require.NoError(t, json.Unmarshal(payload.Data, &enrollResult))

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/enrollments/%d", enrollResult.Enrollment.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Listing skips cancelled enrollments.
	resp = getJSON(t, app, "/api/v1/enrollments/student/7")
	payload = decodeEnvelope(t, resp)

	var enrollments []dto.EnrollmentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &enrollments))
	require.Empty(t, enrollments)
}
